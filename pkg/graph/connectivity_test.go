// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectivityAnalysis_EmptyGraph(t *testing.T) {
	g := New()
	report := g.ConnectivityAnalysis()
	assert.Equal(t, 0, report.NodeCount)
	assert.Equal(t, 0, report.RelationshipCount)
	assert.False(t, report.HasNegativeCycle)
}

func TestConnectivityAnalysis_LinearChain(t *testing.T) {
	g := New()
	g.AddNode(mustNode("function:a.go:f:1", "f", NodeFunction, "a.go", 1))
	g.AddNode(mustNode("function:a.go:g:2", "g", NodeFunction, "a.go", 2))
	g.AddNode(mustNode("function:a.go:h:3", "h", NodeFunction, "a.go", 3))
	g.AddRelationship(Relationship{ID: "r1", SourceID: "function:a.go:f:1", TargetID: "function:a.go:g:2", RelationshipType: RelCalls})
	g.AddRelationship(Relationship{ID: "r2", SourceID: "function:a.go:g:2", TargetID: "function:a.go:h:3", RelationshipType: RelCalls})

	report := g.ConnectivityAnalysis()

	assert.Equal(t, 3, report.NodeCount)
	assert.Equal(t, 2, report.RelationshipCount)
	// Reachable ordered pairs: f->g, f->h, g->h = 3 of 3*2=6 possible.
	assert.InDelta(t, 0.5, report.ReachabilityRatio, 1e-9)
	assert.Equal(t, 1.0, report.MinDistance)
	assert.Equal(t, 2.0, report.MaxDistance)
	assert.InDelta(t, (1.0+2.0+1.0)/3.0, report.MeanDistance, 1e-9)
	assert.False(t, report.HasNegativeCycle)
}

func TestConnectivityAnalysis_NegativeCycle(t *testing.T) {
	g := New()
	g.AddNode(mustNode("function:a.go:f:1", "f", NodeFunction, "a.go", 1))
	g.AddNode(mustNode("function:a.go:g:2", "g", NodeFunction, "a.go", 2))
	g.AddRelationship(Relationship{ID: "r1", SourceID: "function:a.go:f:1", TargetID: "function:a.go:g:2", RelationshipType: RelCalls, Strength: 2})
	g.AddRelationship(Relationship{ID: "r2", SourceID: "function:a.go:g:2", TargetID: "function:a.go:f:1", RelationshipType: RelCalls, Strength: 2})

	report := g.ConnectivityAnalysis()
	assert.True(t, report.HasNegativeCycle)
}
