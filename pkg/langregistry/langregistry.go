// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package langregistry is the Language Registry: a static, read-only
// table describing every language the Universal Parser recognizes.
// Because the table never changes at runtime, every lookup is a plain
// map read — the "cacheable with a long TTL" requirement falls out for
// free rather than needing an actual cache layer.
package langregistry

import "strings"

// Patterns is the pattern-ID map the AST Matcher Adapter consumes to
// translate a symbolic request ("give me every function") into its
// backend's native query form for one language.
type Patterns struct {
	Function string
	Class    string
	Import   string
	Variable string
	Call     string
}

// Language describes one entry in the registry.
type Language struct {
	ID                string
	DisplayName       string
	Extensions        []string
	LineComment       string
	BlockCommentStart string
	BlockCommentEnd   string
	StringDelimiters  []string
	Patterns          Patterns
}

var registry = []Language{
	{ID: "go", DisplayName: "Go", Extensions: []string{".go"}, LineComment: "//", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: []string{"\"", "`"}, Patterns: Patterns{Function: "function", Class: "class", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "python", DisplayName: "Python", Extensions: []string{".py", ".pyi"}, LineComment: "#", StringDelimiters: []string{"\"", "'", "\"\"\"", "'''"}, Patterns: Patterns{Function: "function", Class: "class", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "javascript", DisplayName: "JavaScript", Extensions: []string{".js", ".jsx", ".mjs", ".cjs"}, LineComment: "//", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: []string{"\"", "'", "`"}, Patterns: Patterns{Function: "function", Class: "class", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "typescript", DisplayName: "TypeScript", Extensions: []string{".ts", ".tsx"}, LineComment: "//", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: []string{"\"", "'", "`"}, Patterns: Patterns{Function: "function", Class: "class", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "java", DisplayName: "Java", Extensions: []string{".java"}, LineComment: "//", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: []string{"\""}, Patterns: Patterns{Function: "function", Class: "class", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "rust", DisplayName: "Rust", Extensions: []string{".rs"}, LineComment: "//", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: []string{"\""}, Patterns: Patterns{Function: "function", Class: "class", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "cpp", DisplayName: "C++", Extensions: []string{".cpp", ".cc", ".cxx", ".hpp", ".hxx"}, LineComment: "//", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: []string{"\""}, Patterns: Patterns{Function: "function", Class: "class", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "c", DisplayName: "C", Extensions: []string{".c", ".h"}, LineComment: "//", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: []string{"\""}, Patterns: Patterns{Function: "function", Class: "", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "csharp", DisplayName: "C#", Extensions: []string{".cs"}, LineComment: "//", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: []string{"\""}, Patterns: Patterns{Function: "function", Class: "class", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "ruby", DisplayName: "Ruby", Extensions: []string{".rb"}, LineComment: "#", StringDelimiters: []string{"\"", "'"}, Patterns: Patterns{Function: "function", Class: "class", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "php", DisplayName: "PHP", Extensions: []string{".php"}, LineComment: "//", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: []string{"\"", "'"}, Patterns: Patterns{Function: "function", Class: "class", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "swift", DisplayName: "Swift", Extensions: []string{".swift"}, LineComment: "//", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: []string{"\""}, Patterns: Patterns{Function: "function", Class: "class", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "kotlin", DisplayName: "Kotlin", Extensions: []string{".kt", ".kts"}, LineComment: "//", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: []string{"\""}, Patterns: Patterns{Function: "function", Class: "class", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "scala", DisplayName: "Scala", Extensions: []string{".scala"}, LineComment: "//", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: []string{"\""}, Patterns: Patterns{Function: "function", Class: "class", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "clojure", DisplayName: "Clojure", Extensions: []string{".clj", ".cljs", ".cljc"}, LineComment: ";;", StringDelimiters: []string{"\""}, Patterns: Patterns{Function: "function", Class: "", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "bash", DisplayName: "Bash", Extensions: []string{".sh", ".bash", ".zsh", ".fish"}, LineComment: "#", StringDelimiters: []string{"\"", "'"}, Patterns: Patterns{Function: "function", Class: "", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "protobuf", DisplayName: "Protocol Buffers", Extensions: []string{".proto"}, LineComment: "//", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: []string{"\""}, Patterns: Patterns{Function: "", Class: "class", Import: "import", Variable: "variable", Call: ""}},
	{ID: "yaml", DisplayName: "YAML", Extensions: []string{".yaml", ".yml"}, LineComment: "#", StringDelimiters: []string{"\"", "'"}, Patterns: Patterns{Function: "", Class: "", Import: "", Variable: "variable", Call: ""}},
	{ID: "json", DisplayName: "JSON", Extensions: []string{".json"}, Patterns: Patterns{Function: "", Class: "", Import: "", Variable: "", Call: ""}},
	{ID: "sql", DisplayName: "SQL", Extensions: []string{".sql"}, LineComment: "--", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: []string{"'"}, Patterns: Patterns{Function: "function", Class: "", Import: "", Variable: "variable", Call: "call"}},
	{ID: "lua", DisplayName: "Lua", Extensions: []string{".lua"}, LineComment: "--", BlockCommentStart: "--[[", BlockCommentEnd: "]]", StringDelimiters: []string{"\"", "'"}, Patterns: Patterns{Function: "function", Class: "", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "elixir", DisplayName: "Elixir", Extensions: []string{".ex", ".exs"}, LineComment: "#", StringDelimiters: []string{"\""}, Patterns: Patterns{Function: "function", Class: "class", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "haskell", DisplayName: "Haskell", Extensions: []string{".hs"}, LineComment: "--", BlockCommentStart: "{-", BlockCommentEnd: "-}", StringDelimiters: []string{"\""}, Patterns: Patterns{Function: "function", Class: "class", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "dart", DisplayName: "Dart", Extensions: []string{".dart"}, LineComment: "//", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: []string{"\"", "'"}, Patterns: Patterns{Function: "function", Class: "class", Import: "import", Variable: "variable", Call: "call"}},
	{ID: "terraform", DisplayName: "Terraform", Extensions: []string{".tf", ".tfvars"}, LineComment: "#", BlockCommentStart: "/*", BlockCommentEnd: "*/", StringDelimiters: []string{"\""}, Patterns: Patterns{Function: "", Class: "class", Import: "import", Variable: "variable", Call: ""}},
	{ID: "markdown", DisplayName: "Markdown", Extensions: []string{".md", ".markdown"}, Patterns: Patterns{Function: "", Class: "", Import: "", Variable: "", Call: ""}},
}

var (
	byID        map[string]Language
	byExtension map[string]Language
	extensions  []string
)

func init() {
	byID = make(map[string]Language, len(registry))
	byExtension = make(map[string]Language, len(registry)*2)
	for _, lang := range registry {
		byID[lang.ID] = lang
		for _, ext := range lang.Extensions {
			byExtension[ext] = lang
			extensions = append(extensions, ext)
		}
	}
}

// LookupByExtension returns the Language registered for ext (case
// insensitive, leading-dot form e.g. ".go"), and whether one was found.
func LookupByExtension(ext string) (Language, bool) {
	lang, ok := byExtension[strings.ToLower(ext)]
	return lang, ok
}

// LookupByName returns the Language registered under id, and whether
// one was found.
func LookupByName(id string) (Language, bool) {
	lang, ok := byID[strings.ToLower(id)]
	return lang, ok
}

// SupportedExtensions returns the union of every extension the registry
// recognizes, in registration order.
func SupportedExtensions() []string {
	out := make([]string, len(extensions))
	copy(out, extensions)
	return out
}

// All returns every registered Language, in registration order.
func All() []Language {
	out := make([]Language, len(registry))
	copy(out, registry)
	return out
}
