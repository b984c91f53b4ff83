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

// Package extsync is the External-store Sync: a consumer that tails the
// CDC Manager's durable stream at an owned offset and applies each event
// as an idempotent Cypher mutation against a bolt-protocol graph store.
package extsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/time/rate"

	"github.com/kraklabs/codegraph/pkg/cdc"
	"github.com/kraklabs/codegraph/pkg/graph"
)

// DefaultBatchSize and DefaultPollInterval govern how Run drains the
// stream when it is caught up.
const (
	DefaultBatchSize    = 100
	DefaultPollInterval = 2 * time.Second
)

// Stats reports what the last Run pass (or the cumulative lifetime of a
// running Syncer) has applied.
type Stats struct {
	EventsApplied int64
	EventsFailed  int64
	LastStreamID  string
	LastAppliedAt time.Time
}

// Syncer tails the CDC stream and mirrors graph mutations into a
// neo4j-compatible external store. Duplicate delivery is safe: every
// write is a MERGE keyed on the node or relationship id, so re-applying
// an already-applied event changes nothing.
type Syncer struct {
	driver   neo4j.DriverWithContext
	database string
	cdc      *cdc.Manager
	logger   *slog.Logger

	batchSize    int64
	pollInterval time.Duration
	limiter      *rate.Limiter

	mu    sync.Mutex
	stats Stats
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) { s.logger = logger }
}

// WithBatchSize overrides DefaultBatchSize.
func WithBatchSize(n int64) Option {
	return func(s *Syncer) { s.batchSize = n }
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Syncer) { s.pollInterval = d }
}

// WithStartID seeds the stream offset a fresh Syncer resumes from, e.g.
// one persisted from a prior run's Stats.LastStreamID.
func WithStartID(streamID string) Option {
	return func(s *Syncer) { s.stats.LastStreamID = streamID }
}

// WithWriteRateLimit bounds how fast the syncer issues write transactions
// against the external store, so a large Drain catching up after downtime
// doesn't open a burst of transactions the store can't absorb at once.
// Unset, writes run as fast as the stream yields events.
func WithWriteRateLimit(eventsPerSecond float64, burst int) Option {
	return func(s *Syncer) { s.limiter = rate.NewLimiter(rate.Limit(eventsPerSecond), burst) }
}

// New creates a Syncer against an already-connected driver.
func New(driver neo4j.DriverWithContext, database string, cdcMgr *cdc.Manager, opts ...Option) *Syncer {
	s := &Syncer{
		driver:       driver,
		database:     database,
		cdc:          cdcMgr,
		logger:       slog.Default(),
		batchSize:    DefaultBatchSize,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run tails the stream until ctx is canceled. Each batch is read in
// append order and applied in that same order, one write transaction per
// event, so the external store never observes a later mutation before an
// earlier one that it depends on (e.g. a CALLS edge before its target
// node). A transaction failure stops the batch at that event; the offset
// only advances past events that committed, so the next Run (or the next
// poll) retries from the failure point rather than skipping it.
func (s *Syncer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := s.drainOnce(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.pollInterval):
			}
		}
	}
}

// Drain applies every event currently on the stream without blocking to
// wait for new ones, for a caller (e.g. a one-shot CLI sync) that wants
// to catch up and return rather than tail indefinitely like Run does.
// It stops with an error at the first event that fails to apply.
func (s *Syncer) Drain(ctx context.Context) (int, error) {
	var total int
	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}
		failedBefore := s.Stats().EventsFailed
		n, err := s.drainOnce(ctx)
		if err != nil {
			return total, err
		}
		if s.Stats().EventsFailed > failedBefore {
			return total, fmt.Errorf("extsync: apply failed; stopped at offset %q", s.currentOffset())
		}
		total += n
		if n == 0 {
			return total, nil
		}
	}
}

// drainOnce reads and applies a single batch, returning how many events
// it saw (0 means the stream is caught up).
func (s *Syncer) drainOnce(ctx context.Context) (int, error) {
	start := cdc.NextStart(s.currentOffset())
	events, err := s.cdc.ReadStream(ctx, start, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("extsync: read stream: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	for _, evt := range events {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return len(events), err
			}
		}
		if err := s.apply(ctx, session, evt); err != nil {
			s.logger.Warn("extsync.apply.error", "event_id", evt.EventID, "event_type", evt.EventType, "error", err)
			s.recordFailure()
			return len(events), nil
		}
		s.recordSuccess(evt.StreamID)
	}
	return len(events), nil
}

// apply executes the mutation for one event inside its own write
// transaction. A no-op mutation (an event type that carries no graph
// write, e.g. ANALYSIS_PROGRESS) is treated as trivially successful.
func (s *Syncer) apply(ctx context.Context, session neo4j.SessionWithContext, evt cdc.Event) error {
	query, params, ok, err := buildMutation(evt)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	return err
}

// buildMutation is the pure event-to-Cypher transform: given a CDCEvent,
// it returns the parameterized query that applies it, or ok=false for
// event types this syncer deliberately ignores.
func buildMutation(evt cdc.Event) (query string, params map[string]any, ok bool, err error) {
	switch evt.EventType {
	case cdc.EventNodeAdded, cdc.EventNodeUpdated:
		var n graph.Node
		if err := json.Unmarshal(evt.Data, &n); err != nil {
			return "", nil, false, fmt.Errorf("decode node payload: %w", err)
		}
		return `MERGE (x:CodeEntity {id: $id})
SET x.name = $name,
    x.node_type = $nodeType,
    x.language = $language,
    x.file_path = $filePath,
    x.start_line = $startLine,
    x.end_line = $endLine,
    x.complexity = $complexity,
    x.line_count = $lineCount`,
			map[string]any{
				"id":         n.ID,
				"name":       n.Name,
				"nodeType":   string(n.NodeType),
				"language":   n.Language,
				"filePath":   n.Location.FilePath,
				"startLine":  n.Location.StartLine,
				"endLine":    n.Location.EndLine,
				"complexity": int64(n.Complexity),
				"lineCount":  int64(n.LineCount),
			}, true, nil

	case cdc.EventNodeDeleted:
		return `MATCH (x:CodeEntity {id: $id}) DETACH DELETE x`,
			map[string]any{"id": evt.EntityID}, true, nil

	case cdc.EventRelationshipAdded:
		var r graph.Relationship
		if err := json.Unmarshal(evt.Data, &r); err != nil {
			return "", nil, false, fmt.Errorf("decode relationship payload: %w", err)
		}
		relType := sanitizeRelType(r.RelationshipType)
		return fmt.Sprintf(`MATCH (a:CodeEntity {id: $sourceID})
MATCH (b:CodeEntity {id: $targetID})
MERGE (a)-[rel:%s {id: $id}]->(b)
SET rel.strength = $strength`, relType),
			map[string]any{
				"id":       r.ID,
				"sourceID": r.SourceID,
				"targetID": r.TargetID,
				"strength": r.Strength,
			}, true, nil

	case cdc.EventRelationshipDeleted:
		return `MATCH ()-[rel {id: $id}]->() DELETE rel`,
			map[string]any{"id": evt.EntityID}, true, nil

	case cdc.EventGraphReset:
		return `MATCH (x:CodeEntity) DETACH DELETE x`, map[string]any{}, true, nil

	case cdc.EventAnalysisStarted, cdc.EventAnalysisCompleted, cdc.EventAnalysisProgress:
		return "", nil, false, nil

	default:
		return "", nil, false, nil
	}
}

// sanitizeRelType maps a RelationshipType onto a Cypher-safe, fixed
// relationship label: Cypher does not allow parameterized relationship
// types, so this must be a closed enum rather than interpolated
// free-form input.
func sanitizeRelType(t graph.RelationshipType) string {
	switch t {
	case graph.RelContains:
		return "CONTAINS"
	case graph.RelCalls:
		return "CALLS"
	case graph.RelImports:
		return "IMPORTS"
	case graph.RelReferences:
		return "REFERENCES"
	case graph.RelInherits:
		return "INHERITS"
	case graph.RelSeam:
		return "SEAM"
	default:
		return "RELATED"
	}
}

func (s *Syncer) currentOffset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.LastStreamID
}

func (s *Syncer) recordSuccess(streamID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.EventsApplied++
	s.stats.LastStreamID = streamID
	s.stats.LastAppliedAt = time.Now()
}

func (s *Syncer) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.EventsFailed++
}

// Stats returns a snapshot of the syncer's cumulative progress.
func (s *Syncer) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// ErrNoDriver is returned by NewDriver when no bolt URI is configured.
var ErrNoDriver = errors.New("extsync: no bolt URI configured")

// NewDriver opens a neo4j-go-driver connection and verifies
// connectivity, mirroring the construction this package expects callers
// (cmd/codegraphd) to perform once at startup and share across a
// process's lifetime.
func NewDriver(ctx context.Context, uri, username, password string) (neo4j.DriverWithContext, error) {
	if uri == "" {
		return nil, ErrNoDriver
	}
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("extsync: open driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("extsync: verify connectivity: %w", err)
	}
	return driver, nil
}
