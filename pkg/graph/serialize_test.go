// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeShape(t *testing.T) {
	cases := []struct {
		nodeType NodeType
		want     string
	}{
		{NodeFunction, "box"},
		{NodeModule, "ellipse"},
		{NodeClass, "ellipse"},
		{NodeMethod, "ellipse"},
		{NodeVariable, "ellipse"},
		{NodeImport, "ellipse"},
		{NodeParameter, "ellipse"},
		{NodeOther, "ellipse"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, nodeShape(c.nodeType), "nodeType=%s", c.nodeType)
	}
}

func TestNodeColor(t *testing.T) {
	cases := []struct {
		nodeType NodeType
		want     string
	}{
		{NodeModule, "lightblue"},
		{NodeClass, "lightgreen"},
		{NodeFunction, "orange"},
		{NodeVariable, "lightgray"},
		{NodeImport, "purple"},
		{NodeMethod, "white"},
		{NodeParameter, "white"},
		{NodeOther, "white"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, nodeColor(c.nodeType), "nodeType=%s", c.nodeType)
	}
}

func TestEdgeColor(t *testing.T) {
	cases := []struct {
		relType RelationshipType
		want    string
	}{
		{RelCalls, "red"},
		{RelContains, "blue"},
		{RelImports, "green"},
		{RelReferences, "orange"},
		{RelInherits, "purple"},
		{RelSeam, "black"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, edgeColor(c.relType), "relType=%s", c.relType)
	}
}

func TestToDOT_NodeShapeColorAndLabel(t *testing.T) {
	g := New()
	g.AddNode(mustNode("module:a.py", "a.py", NodeModule, "a.py", 1))
	g.AddNode(mustNode("function:a.py:f:2", "f", NodeFunction, "a.py", 2))
	g.AddRelationship(Relationship{
		ID:               "r1",
		SourceID:         "module:a.py",
		TargetID:         "function:a.py:f:2",
		RelationshipType: RelContains,
	})

	dot := g.ToDOT()

	assert.Contains(t, dot, `label="a.py\n(MODULE)"`)
	assert.Contains(t, dot, `label="f\n(FUNCTION)"`)
	assert.Contains(t, dot, "shape=box")
	assert.Contains(t, dot, "shape=ellipse")
	assert.Contains(t, dot, "fillcolor=lightblue")
	assert.Contains(t, dot, "fillcolor=orange")
	assert.Contains(t, dot, "color=blue")
}
