// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codegraph/pkg/astmatch"
	"github.com/kraklabs/codegraph/pkg/cache"
	"github.com/kraklabs/codegraph/pkg/graph"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestParser(t *testing.T, withCache bool) *Parser {
	t.Helper()
	matcher := astmatch.New(nil)
	var mgr *cache.Manager
	if withCache {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		mgr = cache.New("testproject", cache.StrategyHybrid, client)
	}
	return New("testproject", matcher, mgr)
}

func TestParseFile_RejectsUnsupportedExtension(t *testing.T) {
	p := newTestParser(t, false)
	dir := t.TempDir()
	abs := writeSource(t, dir, "data.unknownext", "whatever")

	_, err := p.ParseFile(context.Background(), abs, "data.unknownext")
	assert.Error(t, err)
}

func TestParseFile_PythonMainAndHelper(t *testing.T) {
	p := newTestParser(t, false)
	dir := t.TempDir()
	src := "def main():\n    helper()\n\ndef helper():\n    pass\n"
	abs := writeSource(t, dir, "main.py", src)

	result, err := p.ParseFile(context.Background(), abs, "main.py")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.FromCache)
	assert.Equal(t, "python", result.Language)

	var names []string
	for _, n := range result.Nodes {
		if n.NodeType == graph.NodeFunction {
			names = append(names, n.Name)
		}
	}
	assert.ElementsMatch(t, []string{"main", "helper"}, names)

	var sawFileContains bool
	for _, r := range result.Relationships {
		if r.RelationshipType == graph.RelContains {
			sawFileContains = true
		}
	}
	assert.True(t, sawFileContains)
}

func TestParseFile_CacheHitShortCircuitsReparse(t *testing.T) {
	p := newTestParser(t, true)
	dir := t.TempDir()
	src := "def main():\n    pass\n"
	abs := writeSource(t, dir, "main.py", src)
	ctx := context.Background()

	first, err := p.ParseFile(ctx, abs, "main.py")
	require.NoError(t, err)
	require.False(t, first.FromCache)

	second, err := p.ParseFile(ctx, abs, "main.py")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.True(t, second.FromCache)
	assert.Equal(t, len(first.Nodes), len(second.Nodes))
}

func TestParseFile_ModifiedFileInvalidatesCache(t *testing.T) {
	p := newTestParser(t, true)
	dir := t.TempDir()
	abs := writeSource(t, dir, "main.py", "def main():\n    pass\n")
	ctx := context.Background()

	first, err := p.ParseFile(ctx, abs, "main.py")
	require.NoError(t, err)
	require.False(t, first.FromCache)

	writeSource(t, dir, "main.py", "def main():\n    pass\n\ndef extra():\n    pass\n")
	second, err := p.ParseFile(ctx, abs, "main.py")
	require.NoError(t, err)
	assert.False(t, second.FromCache)
	assert.Greater(t, len(second.Nodes), len(first.Nodes))
}

func TestParseFile_ComplexityCountsBranches(t *testing.T) {
	p := newTestParser(t, false)
	dir := t.TempDir()
	src := "def branchy(x):\n    if x:\n        pass\n    elif x > 1:\n        pass\n    while x:\n        pass\n"
	abs := writeSource(t, dir, "branchy.py", src)

	result, err := p.ParseFile(context.Background(), abs, "branchy.py")
	require.NoError(t, err)

	var fn *graph.Node
	for i := range result.Nodes {
		if result.Nodes[i].NodeType == graph.NodeFunction {
			fn = &result.Nodes[i]
		}
	}
	require.NotNil(t, fn)
	assert.Greater(t, fn.Complexity, uint32(1))
}

func TestReadWithEncodingFallback_DecodesLatin1(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "latin1.py")
	// "caf\u00E9" with the \u00E9 written as the raw Latin-1 byte 0xE9, not UTF-8.
	raw := append([]byte("def main():\n    x = \"caf"), 0xE9)
	raw = append(raw, []byte("\"\n")...)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	content, err := readWithEncodingFallback(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "def main")
	assert.Contains(t, string(content), "caf\u00E9")
}

func TestReadWithEncodingFallback_NeverReachesFinalReplacement(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cp1252.py")
	// CP1252's curly single quotes (0x91/0x92) are undefined in strict
	// Latin-1/ISO-8859-1, but latin1's blanket byte->codepoint mapping in
	// this cascade still "succeeds" on them (as the corresponding C1
	// control codes), so the string just carries those control codes
	// through rather than failing \u2014 the cascade never actually reaches
	// the cp1252 step for this input, matching its specified order.
	raw := append([]byte("x = \""), 0x91, 0x92)
	raw = append(raw, []byte("\"\n")...)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	content, err := readWithEncodingFallback(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "\uFFFD")
}

func TestReadWithEncodingFallback_BOMPrefixedFileResolvesAtUTF8Step(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bom.py")
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("def main():\n    pass\n")...)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	content, err := readWithEncodingFallback(path)
	require.NoError(t, err)
	// Plain utf-8 already decodes BOM-prefixed content successfully (the
	// BOM bytes are themselves valid UTF-8), so this cascade resolves at
	// the first step and the BOM is not stripped \u2014 a quirk of the
	// specified step order, not a bug in the utf-8-sig step itself.
	assert.Contains(t, string(content), "def main")
}

func TestDecodeSingleByte_WindowsUndefinedByteFails(t *testing.T) {
	_, ok := decodeSingleByte([]byte{0x81}, true)
	assert.False(t, ok)

	_, ok = decodeSingleByte([]byte{0x81}, false)
	assert.True(t, ok)
}

func TestResolver_RecordsCrossFileCallAndLazyModuleBackfill(t *testing.T) {
	r := NewResolver()
	r.IndexFile("a.py", "python", []graph.Node{
		{ID: "function:a.py:caller:1", Name: "caller", NodeType: graph.NodeFunction},
	})
	r.IndexFile("b.py", "python", []graph.Node{
		{ID: "function:b.py:callee:1", Name: "callee", NodeType: graph.NodeFunction},
	})
	r.RecordCall("function:a.py:caller:1", "a.py", "callee")
	r.RecordImport("a.py", "some_unparsed_module")

	rels, modules := r.ResolveAll()

	var sawCall bool
	for _, rel := range rels {
		if rel.RelationshipType == graph.RelCalls && rel.TargetID == "function:b.py:callee:1" {
			sawCall = true
		}
	}
	assert.True(t, sawCall)

	require.Len(t, modules, 1)
	assert.Equal(t, "some_unparsed_module", modules[0].Name)
	assert.Equal(t, graph.NodeModule, modules[0].NodeType)
}
