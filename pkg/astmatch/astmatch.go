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

// Package astmatch is the AST Matcher Adapter: it exposes a single
// match_all-shaped entry point to the Universal Parser and hides the
// Tree-sitter grammar, parser-pool, and Query-string details behind
// symbolic pattern IDs from pkg/langregistry.
package astmatch

import (
	"context"
	"log/slog"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Position is one point in a source file.
type Position struct {
	Line int
	Col  int
	Byte int
}

// Range spans two Positions.
type Range struct {
	Start Position
	End   Position
}

// Match is one AST node matched by a pattern.
type Match struct {
	Text  string
	Range Range
}

// queryPatterns maps language ID to the Tree-sitter Query-language
// source for each symbolic pattern ID. Languages with no entry degrade
// to an empty iterator rather than an error.
var queryPatterns = map[string]map[string]string{
	"go": {
		"function": `[(function_declaration) (method_declaration) (func_literal)] @match`,
		"class":    `(type_declaration (type_spec (struct_type))) @match`,
		"import":   `(import_spec) @match`,
		"variable": `(var_declaration) @match`,
		"call":     `(call_expression) @match`,
	},
	"python": {
		"function": `(function_definition) @match`,
		"class":    `(class_definition) @match`,
		"import":   `[(import_statement) (import_from_statement)] @match`,
		"variable": `(assignment) @match`,
		"call":     `(call) @match`,
	},
	"javascript": {
		"function": `[(function_declaration) (method_definition) (arrow_function)] @match`,
		"class":    `(class_declaration) @match`,
		"import":   `(import_statement) @match`,
		"variable": `(variable_declarator) @match`,
		"call":     `(call_expression) @match`,
	},
	"typescript": {
		"function": `[(function_declaration) (method_definition) (arrow_function)] @match`,
		"class":    `[(class_declaration) (interface_declaration)] @match`,
		"import":   `(import_statement) @match`,
		"variable": `(variable_declarator) @match`,
		"call":     `(call_expression) @match`,
	},
	"java": {
		"function": `(method_declaration) @match`,
		"class":    `[(class_declaration) (interface_declaration)] @match`,
		"import":   `(import_declaration) @match`,
		"variable": `(local_variable_declaration) @match`,
		"call":     `(method_invocation) @match`,
	},
	"rust": {
		"function": `(function_item) @match`,
		"class":    `[(struct_item) (enum_item) (trait_item)] @match`,
		"import":   `(use_declaration) @match`,
		"variable": `(let_declaration) @match`,
		"call":     `(call_expression) @match`,
	},
}

func languageFor(id string) *sitter.Language {
	switch id {
	case "go":
		return golang.GetLanguage()
	case "python":
		return python.GetLanguage()
	case "javascript":
		return javascript.GetLanguage()
	case "typescript":
		return typescript.GetLanguage()
	case "java":
		return java.GetLanguage()
	case "rust":
		return rust.GetLanguage()
	default:
		return nil
	}
}

// Adapter wraps Tree-sitter with per-language parser pools (parsers are
// not safe for concurrent use) and compiled-query caching.
type Adapter struct {
	logger *slog.Logger

	parserPools sync.Map // languageID -> *sync.Pool
	queryCache  sync.Map // languageID+":"+patternID -> *sitter.Query
}

// New creates an Adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{logger: logger}
}

func (a *Adapter) poolFor(lang *sitter.Language, languageID string) *sync.Pool {
	if p, ok := a.parserPools.Load(languageID); ok {
		return p.(*sync.Pool)
	}
	pool := &sync.Pool{New: func() any {
		p := sitter.NewParser()
		p.SetLanguage(lang)
		return p
	}}
	actual, _ := a.parserPools.LoadOrStore(languageID, pool)
	return actual.(*sync.Pool)
}

func (a *Adapter) queryFor(lang *sitter.Language, languageID, patternID string) (*sitter.Query, bool) {
	cacheKey := languageID + ":" + patternID
	if q, ok := a.queryCache.Load(cacheKey); ok {
		return q.(*sitter.Query), true
	}

	patterns, ok := queryPatterns[languageID]
	if !ok {
		return nil, false
	}
	src, ok := patterns[patternID]
	if !ok {
		return nil, false
	}

	q, err := sitter.NewQuery([]byte(src), lang)
	if err != nil {
		a.logger.Warn("astmatch.query.compile_error", "language", languageID, "pattern", patternID, "error", err)
		return nil, false
	}
	a.queryCache.Store(cacheKey, q)
	return q, true
}

// MatchAll runs patternID against source under languageID, returning
// every match in document order. Unsupported languages (logged at debug
// level), unsupported pattern IDs (not logged), and backend parse
// failures (logged as a warning) all yield an empty slice rather than
// an error — "no results" is never a failure mode callers must
// special-case.
func (a *Adapter) MatchAll(ctx context.Context, source []byte, languageID, patternID string) []Match {
	lang := languageFor(languageID)
	if lang == nil {
		a.logger.Debug("astmatch.language.unsupported", "language", languageID)
		return nil
	}

	query, ok := a.queryFor(lang, languageID, patternID)
	if !ok {
		return nil
	}

	pool := a.poolFor(lang, languageID)
	parser := pool.Get().(*sitter.Parser)
	defer pool.Put(parser)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		a.logger.Warn("astmatch.parse.error", "language", languageID, "error", err)
		return nil
	}
	defer tree.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, tree.RootNode())

	var matches []Match
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			n := c.Node
			matches = append(matches, Match{
				Text: n.Content(source),
				Range: Range{
					Start: Position{Line: int(n.StartPoint().Row), Col: int(n.StartPoint().Column), Byte: int(n.StartByte())},
					End:   Position{Line: int(n.EndPoint().Row), Col: int(n.EndPoint().Column), Byte: int(n.EndByte())},
				},
			})
		}
	}
	return matches
}

// SupportsLanguage reports whether languageID has an entry in the query
// pattern table.
func (a *Adapter) SupportsLanguage(languageID string) bool {
	_, ok := queryPatterns[languageID]
	return ok
}
