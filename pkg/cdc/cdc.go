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

// Package cdc is the CDC Manager: it appends graph-mutation events to a
// durable stream, fans them out on a best-effort pub/sub topic, and
// dispatches them to locally registered handlers.
package cdc

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType enumerates the kinds of change a CDCEvent can record.
type EventType string

const (
	EventNodeAdded           EventType = "NODE_ADDED"
	EventNodeDeleted         EventType = "NODE_DELETED"
	EventNodeUpdated         EventType = "NODE_UPDATED"
	EventRelationshipAdded   EventType = "RELATIONSHIP_ADDED"
	EventRelationshipDeleted EventType = "RELATIONSHIP_DELETED"
	EventGraphReset          EventType = "GRAPH_RESET"
	EventAnalysisStarted     EventType = "ANALYSIS_STARTED"
	EventAnalysisCompleted   EventType = "ANALYSIS_COMPLETED"
	EventAnalysisProgress    EventType = "ANALYSIS_PROGRESS"
)

// EntityType enumerates what kind of thing entity_id refers to.
type EntityType string

const (
	EntityNode         EntityType = "node"
	EntityRelationship EntityType = "relationship"
	EntityMetadata     EntityType = "metadata"
)

// Event is the CDCEvent record.
type Event struct {
	EventID    string          `json:"event_id"`
	EventType  EventType       `json:"event_type"`
	Timestamp  time.Time       `json:"timestamp"`
	EntityID   string          `json:"entity_id"`
	EntityType EntityType      `json:"entity_type"`
	Data       json.RawMessage `json:"data"`

	// StreamID is the Redis stream entry ID this event was read at. It is
	// populated by ReadStream and is not part of the stored record, so it
	// never round-trips through toRedisFormat/fromRedisFormat.
	StreamID string `json:"-"`
}

// NewEvent builds an Event with a fresh UUID and the given timestamp.
func NewEvent(eventType EventType, entityID string, entityType EntityType, data any, now time.Time) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		Timestamp:  now.UTC(),
		EntityID:   entityID,
		EntityType: entityType,
		Data:       raw,
	}, nil
}

// toRedisFormat projects an Event onto the flat string-keyed map a
// Redis stream entry stores.
func (e Event) toRedisFormat() map[string]any {
	return map[string]any{
		"event_id":    e.EventID,
		"event_type":  string(e.EventType),
		"timestamp":   e.Timestamp.Format(time.RFC3339Nano),
		"entity_id":   e.EntityID,
		"entity_type": string(e.EntityType),
		"data":        string(e.Data),
	}
}

// fromRedisFormat reverses toRedisFormat.
func fromRedisFormat(fields map[string]any) (Event, error) {
	get := func(k string) string {
		v, _ := fields[k].(string)
		return v
	}

	ts, err := time.Parse(time.RFC3339Nano, get("timestamp"))
	if err != nil {
		return Event{}, err
	}

	return Event{
		EventID:    get("event_id"),
		EventType:  EventType(get("event_type")),
		Timestamp:  ts,
		EntityID:   get("entity_id"),
		EntityType: EntityType(get("entity_type")),
		Data:       json.RawMessage(get("data")),
	}, nil
}

// notification is the compact fan-out payload, carrying only what a
// subscriber needs to decide whether to read the authoritative stream.
type notification struct {
	EventType  EventType  `json:"event_type"`
	EntityID   string     `json:"entity_id"`
	EntityType EntityType `json:"entity_type"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Handler processes one locally-dispatched event. Returning an error
// only logs; it never blocks the publish path.
type Handler func(ctx context.Context, evt Event) error

// DefaultStreamKey and DefaultPubSubKey are the logical channel names
// used when the caller does not override them.
const (
	DefaultStreamKey = "code_graph:cdc"
	DefaultPubSubKey = "code_graph:events"
)

// Manager is the CDC Manager. With a nil redis client it degrades to a
// no-op on the durable/fan-out paths while local handlers still fire.
type Manager struct {
	redis     *redis.Client
	streamKey string
	pubsubKey string
	logger    *slog.Logger

	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// Option configures a Manager.
type Option func(*Manager)

// WithStreamKey overrides DefaultStreamKey.
func WithStreamKey(key string) Option {
	return func(m *Manager) { m.streamKey = key }
}

// WithPubSubKey overrides DefaultPubSubKey.
func WithPubSubKey(key string) Option {
	return func(m *Manager) { m.pubsubKey = key }
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// New creates a Manager. client may be nil to run in local-handlers-only mode.
func New(client *redis.Client, opts ...Option) *Manager {
	m := &Manager{
		redis:     client,
		streamKey: DefaultStreamKey,
		pubsubKey: DefaultPubSubKey,
		logger:    slog.Default(),
		handlers:  make(map[EventType][]Handler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnEvent registers a handler invoked for every published event of eventType.
func (m *Manager) OnEvent(eventType EventType, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

// Publish appends evt to the durable stream, publishes a compact
// notification on the fan-out topic, and invokes local handlers.
// Stream/publish failures are logged and swallowed: CDC publish never
// fails the caller's mutation.
func (m *Manager) Publish(ctx context.Context, evt Event) {
	if m.redis != nil {
		if err := m.redis.XAdd(ctx, &redis.XAddArgs{
			Stream: m.streamKey,
			Values: evt.toRedisFormat(),
		}).Err(); err != nil {
			m.logger.Warn("cdc.stream.append.error", "event_id", evt.EventID, "error", err)
		}

		note := notification{EventType: evt.EventType, EntityID: evt.EntityID, EntityType: evt.EntityType, Timestamp: evt.Timestamp}
		if raw, err := json.Marshal(note); err == nil {
			if err := m.redis.Publish(ctx, m.pubsubKey, raw).Err(); err != nil {
				m.logger.Debug("cdc.pubsub.publish.error", "event_id", evt.EventID, "error", err)
			}
		}
	}

	m.dispatchLocal(ctx, evt)
}

// PublishBatch appends evts to the durable stream as a single pipelined
// round trip instead of one XAdd per event, bounding event volume during
// bulk operations like a full-project analysis. Each event is still
// recorded and dispatched individually; only the stream append is
// batched, so per-mutation-one-event semantics hold.
func (m *Manager) PublishBatch(ctx context.Context, evts []Event) {
	if len(evts) == 0 {
		return
	}

	if m.redis != nil {
		pipe := m.redis.Pipeline()
		for _, evt := range evts {
			pipe.XAdd(ctx, &redis.XAddArgs{Stream: m.streamKey, Values: evt.toRedisFormat()})
		}
		if _, err := pipe.Exec(ctx); err != nil {
			m.logger.Warn("cdc.stream.batch_append.error", "count", len(evts), "error", err)
		}

		for _, evt := range evts {
			note := notification{EventType: evt.EventType, EntityID: evt.EntityID, EntityType: evt.EntityType, Timestamp: evt.Timestamp}
			if raw, err := json.Marshal(note); err == nil {
				if err := m.redis.Publish(ctx, m.pubsubKey, raw).Err(); err != nil {
					m.logger.Debug("cdc.pubsub.publish.error", "event_id", evt.EventID, "error", err)
				}
			}
		}
	}

	for _, evt := range evts {
		m.dispatchLocal(ctx, evt)
	}
}

func (m *Manager) dispatchLocal(ctx context.Context, evt Event) {
	m.mu.RLock()
	handlers := append([]Handler(nil), m.handlers[evt.EventType]...)
	m.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, evt); err != nil {
			m.logger.Warn("cdc.handler.error", "event_id", evt.EventID, "event_type", evt.EventType, "error", err)
		}
	}
}

// ReadStream returns up to count events starting at start (a stream ID,
// or "-" for the beginning), in append order.
func (m *Manager) ReadStream(ctx context.Context, start string, count int64) ([]Event, error) {
	if m.redis == nil {
		return nil, nil
	}

	msgs, err := m.redis.XRangeN(ctx, m.streamKey, start, "+", count).Result()
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(msgs))
	for _, msg := range msgs {
		evt, err := fromRedisFormat(msg.Values)
		if err != nil {
			m.logger.Warn("cdc.stream.decode.error", "stream_id", msg.ID, "error", err)
			continue
		}
		evt.StreamID = msg.ID
		events = append(events, evt)
	}
	return events, nil
}

// NextStart builds the start argument for the ReadStream call that should
// follow a batch whose last consumed entry had the given stream ID,
// excluding it so no event is ever redelivered by position alone.
func NextStart(lastStreamID string) string {
	if lastStreamID == "" {
		return "-"
	}
	return "(" + lastStreamID
}

// Subscribe opens a pub/sub subscription on the fan-out topic and
// invokes onNotify for each message until ctx is canceled, at which
// point it stops cleanly.
func (m *Manager) Subscribe(ctx context.Context, onNotify func(eventType EventType, entityID string, entityType EntityType)) error {
	if m.redis == nil {
		return nil
	}

	sub := m.redis.Subscribe(ctx, m.pubsubKey)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var note notification
			if err := json.Unmarshal([]byte(msg.Payload), &note); err != nil {
				m.logger.Warn("cdc.pubsub.decode.error", "error", err)
				continue
			}
			onNotify(note.EventType, note.EntityID, note.EntityType)
		}
	}
}
