// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codegraph/pkg/astmatch"
	"github.com/kraklabs/codegraph/pkg/cache"
	"github.com/kraklabs/codegraph/pkg/cdc"
	"github.com/kraklabs/codegraph/pkg/graph"
	"github.com/kraklabs/codegraph/pkg/ignore"
	"github.com/kraklabs/codegraph/pkg/parser"
	"github.com/kraklabs/codegraph/pkg/router"
)

func newTestOrchestrator(t *testing.T, root string) *Orchestrator {
	t.Helper()
	g := graph.New()
	matcher := astmatch.New(nil)
	p := parser.New("testproject", matcher, nil)
	cacheMgr := cache.New("testproject", cache.StrategyMemoryOnly, nil)
	cdcMgr := cdc.New(nil)
	rtr := router.New()
	ig := ignore.New(nil, ignore.DefaultMaxFileBytes)

	return New(Config{ProjectRoot: root, Timeout: 10 * time.Second, Debounce: 50 * time.Millisecond},
		g, p, cacheMgr, cdcMgr, rtr, ig)
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
}

func TestAnalyzeProject_PopulatesGraphAcrossFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "def main():\n    helper()\n")
	writeFile(t, root, "helper.py", "def helper():\n    pass\n")

	o := newTestOrchestrator(t, root)
	stats, err := o.AnalyzeProject(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesProcessed)
	assert.Greater(t, stats.TotalNodes, 0)
	assert.Contains(t, stats.Languages, "python")

	callers, err := o.FindFunctionCallers(context.Background(), "helper")
	require.NoError(t, err)
	assert.Len(t, callers, 1)
	assert.Equal(t, "main", callers[0].Name)
}

func TestAnalyzeProject_RejectsConcurrentRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def a():\n    pass\n")

	o := newTestOrchestrator(t, root)
	require.True(t, o.beginAnalysis())

	_, err := o.AnalyzeProject(context.Background())
	assert.Error(t, err)

	o.endAnalysis()
}

func TestFindSymbolDefinition_RejectsInvalidName(t *testing.T) {
	root := t.TempDir()
	o := newTestOrchestrator(t, root)

	_, err := o.FindSymbolDefinition(context.Background(), "bad name!")
	assert.Error(t, err)
}

func TestFindSymbolDefinition_TriggersLazyAnalysis(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "def main():\n    pass\n")

	o := newTestOrchestrator(t, root)

	defs, err := o.FindSymbolDefinition(context.Background(), "main")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.False(t, o.GetProjectStats().LastAnalysis.IsZero())
}

func TestIncrementalUpdate_ReplacesFileNodes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def a():\n    pass\n")

	o := newTestOrchestrator(t, root)
	_, err := o.AnalyzeProject(context.Background())
	require.NoError(t, err)

	writeFile(t, root, "a.py", "def a():\n    pass\n\ndef b():\n    pass\n")
	stats, err := o.IncrementalUpdate(context.Background(), []string{"a.py"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.TotalNodes, 3) // file node + a + b
}

func TestForceReanalysis_ClearsThenReparsesProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def a():\n    pass\n")

	o := newTestOrchestrator(t, root)
	_, err := o.AnalyzeProject(context.Background())
	require.NoError(t, err)

	stats, err := o.ForceReanalysis(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesProcessed)
}

func TestAnalyzeComplexity_FiltersByThreshold(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "branchy.py", "def branchy(x):\n    if x:\n        pass\n    elif x:\n        pass\n    while x:\n        pass\n")
	writeFile(t, root, "simple.py", "def simple():\n    pass\n")

	o := newTestOrchestrator(t, root)
	_, err := o.AnalyzeProject(context.Background())
	require.NoError(t, err)

	high := o.AnalyzeComplexity(3)
	var names []string
	for _, n := range high {
		names = append(names, n.Name)
	}
	assert.Contains(t, names, "branchy")
	assert.NotContains(t, names, "simple")
}

func TestGetFileWatcherStats_ReflectsOnFileChange(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def a():\n    pass\n")

	o := newTestOrchestrator(t, root)
	_, err := o.AnalyzeProject(context.Background())
	require.NoError(t, err)

	writeFile(t, root, "a.py", "def a():\n    pass\n\ndef b():\n    pass\n")
	o.OnFileChange([]string{"a.py"})

	stats := o.GetFileWatcherStats()
	assert.True(t, stats.Active)

	time.Sleep(200 * time.Millisecond)
	final := o.GetProjectStats()
	assert.GreaterOrEqual(t, final.TotalNodes, 3)
}
