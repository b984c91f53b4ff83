// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSeamGraph() *Graph {
	g := New()
	g.AddNode(mustNode("function:a.py:f:1", "f", NodeFunction, "a.py", 1))
	g.AddNode(mustNode("function:a.go:g:1", "g", NodeFunction, "a.go", 1))
	g.AddNode(mustNode("function:a.go:h:2", "h", NodeFunction, "a.go", 2))
	g.AddRelationship(Relationship{ID: "r1", SourceID: "function:a.py:f:1", TargetID: "function:a.go:g:1", RelationshipType: RelSeam})
	g.AddRelationship(Relationship{ID: "r2", SourceID: "function:a.go:g:1", TargetID: "function:a.go:h:2", RelationshipType: RelCalls})
	return g
}

func TestDFSWithDepth_ExcludesSeamsWhenDisabled(t *testing.T) {
	g := buildSeamGraph()

	result := g.DFSWithDepth("function:a.py:f:1", 5, false)
	assert.Equal(t, 1, result.TotalNodes)
	assert.Empty(t, result.SeamEdges)
	assert.Equal(t, 0, result.MaxDepthReached)
}

func TestDFSWithDepth_FollowsAndRecordsSeamsWhenEnabled(t *testing.T) {
	g := buildSeamGraph()

	result := g.DFSWithDepth("function:a.py:f:1", 5, true)
	assert.Equal(t, 3, result.TotalNodes)
	require.Len(t, result.SeamEdges, 1)
	assert.Equal(t, "function:a.py:f:1", result.SeamEdges[0].SourceID)
	assert.Equal(t, "function:a.go:g:1", result.SeamEdges[0].TargetID)
	assert.Equal(t, 2, result.MaxDepthReached)
}

func TestDFSWithDepth_RespectsMaxDepth(t *testing.T) {
	g := buildSeamGraph()

	result := g.DFSWithDepth("function:a.py:f:1", 1, true)
	assert.Equal(t, 2, result.TotalNodes)
	assert.Equal(t, 1, result.MaxDepthReached)
}

func TestFindCallChain_ExcludesSeamsWhenFollowSeamsFalse(t *testing.T) {
	g := buildSeamGraph()

	chain := g.FindCallChain("function:a.py:f:1", "function:a.go:h:2", false, 5)
	assert.Nil(t, chain)
}

func TestFindCallChain_FindsPathAcrossSeam(t *testing.T) {
	g := buildSeamGraph()

	chain := g.FindCallChain("function:a.py:f:1", "function:a.go:h:2", true, 5)
	require.Len(t, chain, 2)
	assert.Equal(t, RelSeam, chain[0].RelationshipType)
	assert.Equal(t, RelCalls, chain[1].RelationshipType)
	assert.Equal(t, "function:a.py:f:1", chain[0].SourceID)
	assert.Equal(t, "function:a.go:h:2", chain[1].TargetID)
}

func TestFindCallChain_NoTargetReturnsBFSEdges(t *testing.T) {
	g := buildSeamGraph()

	chain := g.FindCallChain("function:a.py:f:1", "", true, 5)
	require.Len(t, chain, 2)
}

func TestFindCallChain_UnknownTargetReturnsNil(t *testing.T) {
	g := buildSeamGraph()

	chain := g.FindCallChain("function:a.py:f:1", "missing", true, 5)
	assert.Nil(t, chain)
}
