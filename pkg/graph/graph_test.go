// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNode(id, name string, t NodeType, path string, line int) Node {
	return Node{
		ID:       id,
		Name:     name,
		NodeType: t,
		Location: Location{FilePath: path, StartLine: line, EndLine: line},
	}
}

func TestAddRelationship_DropsOrphanEdge(t *testing.T) {
	g := New()
	g.AddNode(mustNode("file:a.go", "a.go", NodeModule, "a.go", 1))

	g.AddRelationship(Relationship{
		ID:               "r1",
		SourceID:         "file:a.go",
		TargetID:         "missing",
		RelationshipType: RelContains,
	})

	assert.Equal(t, 0, g.RelationshipCount())
}

func TestAddNode_ReplacesInPlaceAndDropsPriorEdges(t *testing.T) {
	g := New()
	g.AddNode(mustNode("function:a.go:f:1", "f", NodeFunction, "a.go", 1))
	g.AddNode(mustNode("function:a.go:g:2", "g", NodeFunction, "a.go", 2))
	g.AddRelationship(Relationship{
		ID:               "r1",
		SourceID:         "function:a.go:f:1",
		TargetID:         "function:a.go:g:2",
		RelationshipType: RelCalls,
	})
	require.Equal(t, 1, g.RelationshipCount())

	g.AddNode(mustNode("function:a.go:f:1", "f", NodeFunction, "a.go", 1))
	assert.Equal(t, 0, g.RelationshipCount(), "replacing a node must drop its prior edges")
}

func TestRemoveFileNodes_RemovesOnlyThatFilesNodes(t *testing.T) {
	g := New()
	g.AddNode(mustNode("file:a.go", "a.go", NodeModule, "a.go", 1))
	g.AddNode(mustNode("function:a.go:f:2", "f", NodeFunction, "a.go", 2))
	g.AddNode(mustNode("file:b.go", "b.go", NodeModule, "b.go", 1))
	g.MarkProcessed("a.go")
	g.MarkProcessed("b.go")

	removed := g.RemoveFileNodes("a.go")

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, g.NodeCount())
	assert.False(t, g.IsProcessed("a.go"))
	assert.True(t, g.IsProcessed("b.go"))
	_, ok := g.GetNode("file:b.go")
	assert.True(t, ok)
}

// S1 — Basic extraction.
func TestBasicExtractionScenario(t *testing.T) {
	g := New()
	g.AddNode(mustNode("file:main.py", "main.py", NodeModule, "main.py", 0))
	g.AddNode(mustNode("function:main.py:main:1", "main", NodeFunction, "main.py", 1))
	g.AddNode(mustNode("function:main.py:helper:2", "helper", NodeFunction, "main.py", 2))
	g.AddRelationship(Relationship{ID: "r1", SourceID: "file:main.py", TargetID: "function:main.py:main:1", RelationshipType: RelContains})
	g.AddRelationship(Relationship{ID: "r2", SourceID: "file:main.py", TargetID: "function:main.py:helper:2", RelationshipType: RelContains})
	g.AddRelationship(Relationship{ID: "r3", SourceID: "function:main.py:main:1", TargetID: "function:main.py:helper:2", RelationshipType: RelCalls})

	assert.Equal(t, 3, g.NodeCount())
	calls := g.GetRelationshipsByType(RelCalls)
	require.Len(t, calls, 1)
	assert.Equal(t, "function:main.py:main:1", calls[0].SourceID)
	assert.Equal(t, "function:main.py:helper:2", calls[0].TargetID)
}

// S3 — Cycle filtering.
func TestDetectCycles_FiltersRecursionPatternSelfLoop(t *testing.T) {
	g := New(WithRecursionPatterns([]string{"^factorial$"}))
	g.AddNode(mustNode("function:a.go:factorial:1", "factorial", NodeFunction, "a.go", 1))
	g.AddRelationship(Relationship{ID: "r1", SourceID: "function:a.go:factorial:1", TargetID: "function:a.go:factorial:1", RelationshipType: RelCalls})

	assert.Empty(t, g.DetectCycles())
}

func TestDetectCycles_ReportsUnfilteredSelfLoop(t *testing.T) {
	g := New(WithRecursionPatterns([]string{"^factorial$"}))
	g.AddNode(mustNode("function:a.go:worker:1", "worker", NodeFunction, "a.go", 1))
	g.AddRelationship(Relationship{ID: "r1", SourceID: "function:a.go:worker:1", TargetID: "function:a.go:worker:1", RelationshipType: RelCalls})

	cycles := g.DetectCycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"function:a.go:worker:1"}, cycles[0])
}

func TestDetectCycles_TwoNodeCycle(t *testing.T) {
	g := New()
	g.AddNode(mustNode("function:a.go:a:1", "a", NodeFunction, "a.go", 1))
	g.AddNode(mustNode("function:a.go:b:2", "b", NodeFunction, "a.go", 2))
	g.AddRelationship(Relationship{ID: "r1", SourceID: "function:a.go:a:1", TargetID: "function:a.go:b:2", RelationshipType: RelCalls})
	g.AddRelationship(Relationship{ID: "r2", SourceID: "function:a.go:b:2", TargetID: "function:a.go:a:1", RelationshipType: RelCalls})

	cycles := g.DetectCycles()
	require.Len(t, cycles, 1)
	assert.Len(t, cycles[0], 2)
}

func TestDetectCycles_DAGReturnsEmpty(t *testing.T) {
	g := New()
	g.AddNode(mustNode("function:a.go:a:1", "a", NodeFunction, "a.go", 1))
	g.AddNode(mustNode("function:a.go:b:2", "b", NodeFunction, "a.go", 2))
	g.AddRelationship(Relationship{ID: "r1", SourceID: "function:a.go:a:1", TargetID: "function:a.go:b:2", RelationshipType: RelCalls})

	assert.Empty(t, g.DetectCycles())
}

// Boundary property 9.
func TestPageRank_EmptyGraph(t *testing.T) {
	g := New()
	assert.Equal(t, map[string]float64{}, g.PageRank())
}

func TestBetweennessCentrality_SingleIsolatedNode(t *testing.T) {
	g := New()
	g.AddNode(mustNode("function:a.go:a:1", "a", NodeFunction, "a.go", 1))

	result := g.BetweennessCentrality()
	assert.Equal(t, map[string]float64{"function:a.go:a:1": 0.0}, result)
}

func TestShortestPath(t *testing.T) {
	g := New()
	g.AddNode(mustNode("a", "a", NodeFunction, "x.go", 1))
	g.AddNode(mustNode("b", "b", NodeFunction, "x.go", 2))
	g.AddNode(mustNode("c", "c", NodeFunction, "x.go", 3))
	g.AddRelationship(Relationship{ID: "r1", SourceID: "a", TargetID: "b", RelationshipType: RelCalls})
	g.AddRelationship(Relationship{ID: "r2", SourceID: "b", TargetID: "c", RelationshipType: RelCalls})

	path, found := g.ShortestPath("a", "c")
	require.True(t, found)
	assert.Equal(t, []string{"a", "b", "c"}, path)
}

func TestTopologicalSort_DetectsCycle(t *testing.T) {
	g := New()
	g.AddNode(mustNode("a", "a", NodeFunction, "x.go", 1))
	g.AddNode(mustNode("b", "b", NodeFunction, "x.go", 2))
	g.AddRelationship(Relationship{ID: "r1", SourceID: "a", TargetID: "b", RelationshipType: RelCalls})
	g.AddRelationship(Relationship{ID: "r2", SourceID: "b", TargetID: "a", RelationshipType: RelCalls})

	_, err := g.TopologicalSort()
	assert.Error(t, err)
}

func TestFindNodesByName_CacheInvalidatesOnMutation(t *testing.T) {
	g := New()
	g.AddNode(mustNode("a", "shared", NodeFunction, "x.go", 1))
	assert.Len(t, g.FindNodesByName("shared"), 1)

	g.AddNode(mustNode("b", "shared", NodeFunction, "x.go", 2))
	assert.Len(t, g.FindNodesByName("shared"), 2)
}

func TestGenerationIncreasesOnMutation(t *testing.T) {
	g := New()
	before := g.Generation()
	g.AddNode(mustNode("a", "a", NodeFunction, "x.go", 1))
	assert.Greater(t, g.Generation(), before)
}
