// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extsync

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codegraph/pkg/cdc"
	"github.com/kraklabs/codegraph/pkg/graph"
)

func mustEvent(t *testing.T, eventType cdc.EventType, entityID string, entityType cdc.EntityType, data any) cdc.Event {
	t.Helper()
	evt, err := cdc.NewEvent(eventType, entityID, entityType, data, time.Now())
	require.NoError(t, err)
	return evt
}

func TestBuildMutation_NodeAddedProducesMergeOnID(t *testing.T) {
	node := graph.Node{
		ID:       "function:main.py:main:1",
		Name:     "main",
		NodeType: graph.NodeFunction,
		Language: "python",
		Location: graph.Location{FilePath: "main.py", StartLine: 1, EndLine: 3},
	}
	evt := mustEvent(t, cdc.EventNodeAdded, node.ID, cdc.EntityNode, node)

	query, params, ok, err := buildMutation(evt)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, query, "MERGE (x:CodeEntity {id: $id})")
	assert.Equal(t, node.ID, params["id"])
	assert.Equal(t, "main", params["name"])
	assert.Equal(t, "FUNCTION", params["nodeType"])
}

func TestBuildMutation_NodeDeletedProducesDetachDelete(t *testing.T) {
	evt := mustEvent(t, cdc.EventNodeDeleted, "function:main.py:main:1", cdc.EntityNode, nil)

	query, params, ok, err := buildMutation(evt)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, query, "DETACH DELETE x")
	assert.Equal(t, "function:main.py:main:1", params["id"])
}

func TestBuildMutation_RelationshipAddedUsesClosedLabelSet(t *testing.T) {
	rel := graph.Relationship{
		ID:               "calls:a:b",
		SourceID:         "a",
		TargetID:         "b",
		RelationshipType: graph.RelCalls,
		Strength:         1.0,
	}
	evt := mustEvent(t, cdc.EventRelationshipAdded, rel.ID, cdc.EntityRelationship, rel)

	query, params, ok, err := buildMutation(evt)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, query, "[rel:CALLS {id: $id}]")
	assert.Equal(t, "a", params["sourceID"])
	assert.Equal(t, "b", params["targetID"])
}

func TestBuildMutation_UnknownRelationshipTypeFallsBackToRelated(t *testing.T) {
	rel := graph.Relationship{ID: "x", SourceID: "a", TargetID: "b", RelationshipType: graph.RelationshipType("WEIRD")}
	evt := mustEvent(t, cdc.EventRelationshipAdded, rel.ID, cdc.EntityRelationship, rel)

	query, _, ok, err := buildMutation(evt)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, query, "[rel:RELATED {id: $id}]")
}

func TestBuildMutation_GraphResetWipesEverything(t *testing.T) {
	evt := mustEvent(t, cdc.EventGraphReset, "", cdc.EntityMetadata, nil)

	query, params, ok, err := buildMutation(evt)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, query, "DETACH DELETE x")
	assert.Empty(t, params)
}

func TestBuildMutation_AnalysisLifecycleEventsAreIgnored(t *testing.T) {
	for _, et := range []cdc.EventType{cdc.EventAnalysisStarted, cdc.EventAnalysisCompleted, cdc.EventAnalysisProgress} {
		evt := mustEvent(t, et, "p", cdc.EntityMetadata, map[string]any{"percent": 50})
		_, _, ok, err := buildMutation(evt)
		require.NoError(t, err)
		assert.False(t, ok, "event type %s should not produce a mutation", et)
	}
}

func TestBuildMutation_MalformedNodePayloadErrors(t *testing.T) {
	evt := cdc.Event{EventType: cdc.EventNodeAdded, Data: json.RawMessage(`{not valid json`)}
	_, _, _, err := buildMutation(evt)
	assert.Error(t, err)
}

func TestSanitizeRelType_CoversEveryRegisteredType(t *testing.T) {
	cases := map[graph.RelationshipType]string{
		graph.RelContains:   "CONTAINS",
		graph.RelCalls:      "CALLS",
		graph.RelImports:    "IMPORTS",
		graph.RelReferences: "REFERENCES",
		graph.RelInherits:   "INHERITS",
		graph.RelSeam:       "SEAM",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizeRelType(in))
	}
}

func TestSyncer_RecordSuccessAndFailureUpdateStatsAndOffset(t *testing.T) {
	s := New(nil, "neo4j", nil)

	s.recordSuccess("1700000000000-0")
	s.recordSuccess("1700000000001-0")
	s.recordFailure()

	stats := s.Stats()
	assert.Equal(t, int64(2), stats.EventsApplied)
	assert.Equal(t, int64(1), stats.EventsFailed)
	assert.Equal(t, "1700000000001-0", stats.LastStreamID)
	assert.Equal(t, "1700000000001-0", s.currentOffset())
}

func TestWithStartID_SeedsInitialOffset(t *testing.T) {
	s := New(nil, "neo4j", nil, WithStartID("42-0"))
	assert.Equal(t, "42-0", s.currentOffset())
}

func TestNextStart_EmptyMeansBeginningOfStream(t *testing.T) {
	assert.Equal(t, "-", cdc.NextStart(""))
	assert.Equal(t, "(42-0", cdc.NextStart("42-0"))
}

func TestNewDriver_EmptyURIReturnsErrNoDriver(t *testing.T) {
	_, err := NewDriver(nil, "", "neo4j", "password") //nolint:staticcheck // nil ctx ok: never reaches a network call
	assert.ErrorIs(t, err, ErrNoDriver)
}
