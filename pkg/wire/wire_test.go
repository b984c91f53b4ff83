// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package wire

import (
	"encoding/json"
	"testing"

	"github.com/kraklabs/codegraph/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeResponse_ProjectsFields(t *testing.T) {
	n := graph.Node{
		ID:         "function:a.go:foo:1",
		Name:       "foo",
		NodeType:   graph.NodeFunction,
		Location:   graph.Location{FilePath: "a.go", StartLine: 1, EndLine: 5},
		Language:   "go",
		Complexity: 3,
		LineCount:  5,
	}
	resp := NewNodeResponse(n)
	assert.Equal(t, "function:a.go:foo:1", resp.ID)
	assert.Equal(t, "FUNCTION", resp.NodeType)
	assert.Equal(t, "a.go", resp.FilePath)
	assert.Equal(t, uint32(3), resp.Complexity)
}

func TestNodeResponse_MarshalsFlatJSON(t *testing.T) {
	resp := NewNodeResponse(graph.Node{ID: "file:a.go", NodeType: graph.NodeModule})
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "file:a.go", m["id"])
	assert.Equal(t, "MODULE", m["node_type"])
	_, hasContent := m["content"]
	assert.False(t, hasContent, "empty content should be omitted")
}

func TestNewSeamResponse_CarriesBothLanguages(t *testing.T) {
	from := graph.Node{ID: "function:a.py:f:1", Language: "python"}
	to := graph.Node{ID: "function:b.go:g:1", Language: "go"}
	rel := graph.Relationship{ID: "rel:1", SourceID: from.ID, TargetID: to.ID, RelationshipType: graph.RelSeam, Strength: 1.0}

	seam := NewSeamResponse(rel, from, to)
	assert.Equal(t, "python", seam.FromLanguage)
	assert.Equal(t, "go", seam.ToLanguage)
	assert.Equal(t, "SEAM", seam.Relationship.RelationshipType)
}

func TestNodesToResponses_PreservesOrder(t *testing.T) {
	nodes := []graph.Node{
		{ID: "file:a.go"},
		{ID: "file:b.go"},
	}
	resps := NodesToResponses(nodes)
	require.Len(t, resps, 2)
	assert.Equal(t, "file:a.go", resps[0].ID)
	assert.Equal(t, "file:b.go", resps[1].ID)
}
