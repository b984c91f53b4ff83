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

// Package parser is the Universal Parser: given a file, it decides
// whether the cache already holds a valid parse, and if not drives the
// AST Matcher Adapter to extract nodes and edges for the Code Graph
// Engine, language-agnostically, via pkg/langregistry's pattern-ID map.
package parser

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kraklabs/codegraph/pkg/astmatch"
	"github.com/kraklabs/codegraph/pkg/cache"
	"github.com/kraklabs/codegraph/pkg/graph"
	"github.com/kraklabs/codegraph/pkg/langregistry"
)

// DefaultMaxFileBytes is the size above which Parser skips a file
// outright, before ever touching the cache or AST matcher.
const DefaultMaxFileBytes = 1 << 20

// Result holds everything one ParseFile call contributed to the graph.
type Result struct {
	FilePath      string
	Language      string
	Nodes         []graph.Node
	Relationships []graph.Relationship
	FromCache     bool
}

// Parser is the Universal Parser.
type Parser struct {
	project     string
	matcher     *astmatch.Adapter
	cache       *cache.Manager
	logger      *slog.Logger
	maxFileSize int64
	resolver    *Resolver
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) { p.logger = logger }
}

// WithMaxFileBytes overrides DefaultMaxFileBytes.
func WithMaxFileBytes(n int64) Option {
	return func(p *Parser) { p.maxFileSize = n }
}

// New creates a Parser scoped to project. cacheManager may be nil to
// always parse fresh.
func New(project string, matcher *astmatch.Adapter, cacheManager *cache.Manager, opts ...Option) *Parser {
	p := &Parser{
		project:     project,
		matcher:     matcher,
		cache:       cacheManager,
		logger:      slog.Default(),
		maxFileSize: DefaultMaxFileBytes,
		resolver:    NewResolver(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolver returns the parser's shared cross-file call/import resolver.
// The Analysis Orchestrator calls Resolver().ResolveAll once every file
// in a project has been parsed.
func (p *Parser) Resolver() *Resolver {
	return p.resolver
}

// ParseFile runs the Universal Parser's six-step algorithm against one
// file: support check, cache probe, encoding-fallback read, AST-matcher
// extraction with regex name recovery, cyclomatic complexity, cache
// store. Parse failures are per-file and non-fatal: they are logged and
// returned as an error for the caller to skip, never panicking the
// whole project walk.
func (p *Parser) ParseFile(ctx context.Context, absPath, relPath string) (*Result, error) {
	// 1. Support check.
	lang, ok := langregistry.LookupByExtension(filepath.Ext(relPath))
	if !ok {
		return nil, fmt.Errorf("parser: unsupported extension %q", filepath.Ext(relPath))
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("parser: stat %s: %w", relPath, err)
	}
	if info.Size() > p.maxFileSize {
		return nil, fmt.Errorf("parser: %s exceeds max file size %d", relPath, p.maxFileSize)
	}

	meta := cache.FileMetadata{Path: relPath, MTime: info.ModTime().Unix(), Size: info.Size()}

	// 2. Cache probe (content hash needed first to compare).
	content, err := readWithEncodingFallback(absPath)
	if err != nil {
		return nil, fmt.Errorf("parser: read %s: %w", relPath, err)
	}
	sum := sha256.Sum256(content)
	meta.ContentHash = hex.EncodeToString(sum[:8])

	if p.cache != nil {
		if p.cache.IsFileCachedAndValid(ctx, relPath, meta) {
			var cached Result
			nodesKey := cache.Key{Project: p.project, Namespace: cache.NamespaceNodes, Path: relPath}
			edgesKey := cache.Key{Project: p.project, Namespace: cache.NamespaceEdges, Path: relPath}
			if p.cache.Get(ctx, nodesKey, &cached.Nodes) && p.cache.Get(ctx, edgesKey, &cached.Relationships) {
				cached.FilePath = relPath
				cached.Language = lang.ID
				cached.FromCache = true
				p.logger.Debug("parser.cache.hit", "path", relPath)
				return &cached, nil
			}
		}
	}

	// 4. AST-matcher-driven extraction with regex name recovery.
	result, err := p.extract(ctx, content, relPath, lang.ID)
	if err != nil {
		return nil, err
	}

	// 6. Cache store.
	if p.cache != nil {
		nodesKey := cache.Key{Project: p.project, Namespace: cache.NamespaceNodes, Path: relPath}
		edgesKey := cache.Key{Project: p.project, Namespace: cache.NamespaceEdges, Path: relPath}
		metaKey := cache.Key{Project: p.project, Namespace: cache.NamespaceMetadata, Path: relPath}
		_ = p.cache.Set(ctx, nodesKey, result.Nodes, 0)
		_ = p.cache.Set(ctx, edgesKey, result.Relationships, 0)
		_ = p.cache.Set(ctx, metaKey, meta, 0)
	}

	p.resolver.IndexFile(relPath, lang.ID, result.Nodes)
	return result, nil
}

func (p *Parser) extract(ctx context.Context, content []byte, relPath, languageID string) (*Result, error) {
	fileID := graph.FileID(relPath)
	lineCount := uint32(bytes.Count(content, []byte("\n")) + 1)

	fileNode := graph.Node{
		ID:        fileID,
		Name:      filepath.Base(relPath),
		NodeType:  graph.NodeModule,
		Location:  graph.Location{FilePath: relPath, StartLine: 1, EndLine: int(lineCount)},
		Language:  languageID,
		LineCount: lineCount,
	}

	result := &Result{FilePath: relPath, Language: languageID, Nodes: []graph.Node{fileNode}}

	type funcSpan struct {
		id   string
		name string
		node graph.Node
	}
	var funcs []funcSpan

	for _, m := range p.matcher.MatchAll(ctx, content, languageID, "function") {
		name := extractName(languageID, "function", m.Text)
		if name == "" {
			continue
		}
		startLine := m.Range.Start.Line + 1
		id := graph.FunctionID(relPath, name, startLine)
		node := graph.Node{
			ID:         id,
			Name:       name,
			NodeType:   graph.NodeFunction,
			Location:   graph.Location{FilePath: relPath, StartLine: startLine, EndLine: m.Range.End.Line + 1, StartCol: m.Range.Start.Col, EndCol: m.Range.End.Col},
			Language:   languageID,
			Complexity: cyclomaticComplexity(m.Text),
			LineCount:  uint32(m.Range.End.Line - m.Range.Start.Line + 1),
			Content:    m.Text,
		}
		result.Nodes = append(result.Nodes, node)
		result.Relationships = append(result.Relationships, graph.Relationship{
			ID: graph.RelationshipID(graph.RelContains, fileID, id), SourceID: fileID, TargetID: id,
			RelationshipType: graph.RelContains, Strength: 1.0,
		})
		funcs = append(funcs, funcSpan{id: id, name: name, node: node})
	}

	for _, m := range p.matcher.MatchAll(ctx, content, languageID, "class") {
		name := extractName(languageID, "class", m.Text)
		if name == "" {
			continue
		}
		startLine := m.Range.Start.Line + 1
		id := graph.ClassID(relPath, name, startLine)
		result.Nodes = append(result.Nodes, graph.Node{
			ID:       id,
			Name:     name,
			NodeType: graph.NodeClass,
			Location: graph.Location{FilePath: relPath, StartLine: startLine, EndLine: m.Range.End.Line + 1},
			Language: languageID,
		})
		result.Relationships = append(result.Relationships, graph.Relationship{
			ID: graph.RelationshipID(graph.RelContains, fileID, id), SourceID: fileID, TargetID: id,
			RelationshipType: graph.RelContains, Strength: 1.0,
		})
	}

	for _, m := range p.matcher.MatchAll(ctx, content, languageID, "import") {
		target := importTarget(m.Text)
		if target == "" {
			continue
		}
		startLine := m.Range.Start.Line + 1
		id := graph.ImportID(relPath, target, startLine)
		result.Nodes = append(result.Nodes, graph.Node{
			ID:       id,
			Name:     target,
			NodeType: graph.NodeImport,
			Location: graph.Location{FilePath: relPath, StartLine: startLine, EndLine: m.Range.End.Line + 1},
			Language: languageID,
			Metadata: map[string]string{"target": target},
		})
		result.Relationships = append(result.Relationships, graph.Relationship{
			ID: graph.RelationshipID(graph.RelContains, fileID, id), SourceID: fileID, TargetID: id,
			RelationshipType: graph.RelContains, Strength: 1.0,
		})
		p.resolver.RecordImport(relPath, target)
	}

	// Same-file call resolution happens immediately; cross-file calls are
	// deferred to the Resolver, which needs every file's function index
	// built before it can tell same-name-different-file apart.
	for _, fn := range funcs {
		for _, m := range p.matcher.MatchAll(ctx, []byte(fn.node.Content), languageID, "call") {
			calleeName := extractName(languageID, "call", m.Text)
			if calleeName == "" || calleeName == fn.name {
				continue
			}
			p.resolver.RecordCall(fn.id, relPath, calleeName)
		}
	}

	return result, nil
}

// utf8BOM is the three-byte UTF-8 byte-order mark that "utf-8-sig" strips.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// windows1252HighBytes maps byte values 0x80-0x9F to the characters
// CP1252 assigns there instead of the C1 control codes ISO-8859-1 uses.
// A zero entry marks a byte CP1252 leaves undefined, which is the one way
// a single-byte decode in this cascade can actually fail.
var windows1252HighBytes = [32]rune{
	0x20AC, 0, 0x201A, 0x0192, 0x201E, 0x2026, 0x2020, 0x2021,
	0x02C6, 0x2030, 0x0160, 0x2039, 0x0152, 0, 0x017D, 0,
	0, 0x2018, 0x2019, 0x201C, 0x201D, 0x2022, 0x2013, 0x2014,
	0x02DC, 0x2122, 0x0161, 0x203A, 0x0153, 0, 0x017E, 0x0178,
}

// decodeSingleByte decodes raw as a single-byte codepage where every byte
// below 0x80 and above 0x9F maps directly to the Unicode code point of
// the same number (true of both ISO-8859-1 and CP1252). When windows1252
// is set, bytes 0x80-0x9F are remapped per CP1252 and an undefined one
// fails the decode; otherwise they pass through unchanged as ISO-8859-1's
// C1 control codes, which never fails.
func decodeSingleByte(raw []byte, windows1252 bool) ([]byte, bool) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		r := rune(c)
		if windows1252 && c >= 0x80 && c <= 0x9F {
			mapped := windows1252HighBytes[c-0x80]
			if mapped == 0 {
				return nil, false
			}
			r = mapped
		}
		b.WriteRune(r)
	}
	return []byte(b.String()), true
}

// replaceInvalidUTF8 is the last-resort decode: every byte that cannot
// start a valid UTF-8 sequence becomes U+FFFD, one replacement per bad
// byte, so the rest of the file still decodes correctly around it.
func replaceInvalidUTF8(raw []byte) []byte {
	var buf bytes.Buffer
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
			raw = raw[1:]
			continue
		}
		buf.WriteRune(r)
		raw = raw[size:]
	}
	return buf.Bytes()
}

// readWithEncodingFallback reads path trying encodings in order: utf-8,
// utf-8-sig, latin1, cp1252, iso-8859-1; if every decode fails, it falls
// back to utf-8 with invalid bytes replaced by U+FFFD. Latin-1 accepts
// every byte value, so in practice the cascade always resolves there or
// earlier for non-UTF-8 input — cp1252 and iso-8859-1 stay in the order
// for parity with the encoding list this cascade is specified against,
// even though latin1's total coverage means they're never reached.
func readWithEncodingFallback(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if utf8.Valid(raw) {
		return raw, nil
	}
	if body, ok := bytes.CutPrefix(raw, utf8BOM); ok && utf8.Valid(body) {
		return body, nil
	}
	if out, ok := decodeSingleByte(raw, false); ok { // latin1
		return out, nil
	}
	if out, ok := decodeSingleByte(raw, true); ok { // cp1252
		return out, nil
	}
	if out, ok := decodeSingleByte(raw, false); ok { // iso-8859-1
		return out, nil
	}

	return replaceInvalidUTF8(raw), nil
}
