// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute_CheapQueryStaysLocal(t *testing.T) {
	r := New()
	decision := r.Route(Query{Type: "find_callers", Text: "foo"})
	assert.Equal(t, TargetLocal, decision.Target)
}

func TestRoute_AlgorithmKeywordRoutesExternal(t *testing.T) {
	r := New()
	decision := r.Route(Query{Type: "find_callers", Text: "run pagerank over the graph"})
	assert.Equal(t, TargetExternal, decision.Target)
	assert.True(t, decision.RequiresAlgorithm)
}

func TestRoute_HighWeightQueryTypeRoutesExternal(t *testing.T) {
	r := New()
	decision := r.Route(Query{Type: "community_detection", Text: "find clusters"})
	assert.Equal(t, TargetExternal, decision.Target)
}

func TestRoute_HopsAboveThresholdRoutesExternal(t *testing.T) {
	r := New(WithHopThreshold(3))
	decision := r.Route(Query{Type: "find_callers", Text: "foo", DeclaredHops: 10})
	assert.Equal(t, TargetExternal, decision.Target)
}

func TestRoute_PatternKeywordAddsScoreButNotAloneDecisive(t *testing.T) {
	r := New()
	decision := r.Route(Query{Type: "find_callers", Text: "contains wildcard"})
	assert.True(t, decision.RequiresPattern)
	assert.Equal(t, 25.0, decision.ComplexityScore)
	assert.Equal(t, TargetLocal, decision.Target)
}

func TestRecordExecution_BoundsHistory(t *testing.T) {
	r := New(WithHistorySize(2))
	for i := 0; i < 5; i++ {
		d := r.Route(Query{Type: "find_callers"})
		r.RecordExecution(d, time.Millisecond)
	}
	history := r.History()
	require.Len(t, history, 2)
	assert.Equal(t, time.Millisecond, history[0].ExecutionTime)
}
