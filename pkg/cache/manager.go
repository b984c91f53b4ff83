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

package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is the remote-tier expiry applied when Set is called
// without an explicit ttl: seven days.
const DefaultTTL = 7 * 24 * time.Hour

const redisKeyPrefix = "codegraph"

// Manager is the Hybrid Cache Manager: an in-process L1 map with an
// optional Redis-backed L2, mediated by a Strategy.
type Manager struct {
	project  string
	strategy Strategy
	redis    *redis.Client
	logger   *slog.Logger

	threshold int

	mu sync.RWMutex
	l1 map[string][]byte

	stats *statsTracker
}

// Option configures a new Manager.
type Option func(*Manager)

// WithLogger attaches a structured logger; the default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithCompressionThreshold overrides DefaultCompressionThreshold.
func WithCompressionThreshold(bytes int) Option {
	return func(m *Manager) { m.threshold = bytes }
}

// WithTimingRingSize overrides the number of recent op latencies retained.
func WithTimingRingSize(n int) Option {
	return func(m *Manager) { m.stats = newStatsTracker(n) }
}

// New creates a Manager for project, using client as the L2 backend.
// client may be nil when strategy is StrategyMemoryOnly.
func New(project string, strategy Strategy, client *redis.Client, opts ...Option) *Manager {
	m := &Manager{
		project:   project,
		strategy:  strategy,
		redis:     client,
		logger:    slog.Default(),
		threshold: DefaultCompressionThreshold,
		l1:        make(map[string][]byte),
		stats:     newStatsTracker(defaultTimingRingSize),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) usesRemote() bool {
	return m.strategy != StrategyMemoryOnly && m.redis != nil
}

func (m *Manager) remoteAvailable(ctx context.Context) bool {
	if !m.usesRemote() {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := m.redis.Ping(pingCtx).Err(); err != nil {
		m.logger.Debug("cache.l2.unavailable", "error", err)
		return false
	}
	return true
}

func (m *Manager) redisKey(key Key) string {
	return redisKeyPrefix + ":" + key.String()
}

// Get populates target from the cache, trying L1 then (depending on
// strategy) L2. It reports whether the entry was found.
func (m *Manager) Get(ctx context.Context, key Key, target any) bool {
	start := time.Now()
	defer func() { m.stats.recordOp("get", time.Since(start)) }()

	k := key.String()

	if m.strategy != StrategyRemoteOnly {
		m.mu.RLock()
		raw, ok := m.l1[k]
		m.mu.RUnlock()
		if ok {
			if err := decode(raw, target); err == nil {
				m.stats.hitsL1.Add(1)
				return true
			}
		}
	}

	if !m.usesRemote() {
		m.stats.misses.Add(1)
		return false
	}
	if m.strategy == StrategyRemoteFallback && !m.remoteAvailable(ctx) {
		m.stats.misses.Add(1)
		return false
	}

	raw, err := m.redis.Get(ctx, m.redisKey(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			m.logger.Debug("cache.l2.get.error", "key", k, "error", err)
		}
		m.stats.misses.Add(1)
		return false
	}

	if err := decode(raw, target); err != nil {
		m.logger.Warn("cache.l2.decode.error", "key", k, "error", err)
		m.stats.misses.Add(1)
		return false
	}

	if m.strategy != StrategyRemoteOnly {
		m.mu.Lock()
		m.l1[k] = raw
		m.mu.Unlock()
	}
	m.stats.hitsL2.Add(1)
	return true
}

// Set writes value under key. L1 is always written (unless strategy is
// remote_only); L2 is written when the strategy involves the remote tier
// and it is reachable. ttl of zero uses DefaultTTL.
func (m *Manager) Set(ctx context.Context, key Key, value any, ttl time.Duration) error {
	start := time.Now()
	defer func() { m.stats.recordOp("set", time.Since(start)) }()

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	raw, err := encode(value, m.threshold)
	if err != nil {
		return err
	}

	if m.strategy != StrategyRemoteOnly {
		m.mu.Lock()
		m.l1[key.String()] = raw
		m.mu.Unlock()
	}

	if m.usesRemote() {
		if err := m.redis.Set(ctx, m.redisKey(key), raw, ttl).Err(); err != nil {
			m.logger.Debug("cache.l2.set.error", "key", key.String(), "error", err)
		}
	}

	return nil
}

// Delete removes key from L1 and, if the strategy uses the remote tier,
// from L2.
func (m *Manager) Delete(ctx context.Context, key Key) error {
	start := time.Now()
	defer func() { m.stats.recordOp("delete", time.Since(start)) }()

	m.mu.Lock()
	delete(m.l1, key.String())
	m.mu.Unlock()

	if m.usesRemote() {
		if err := m.redis.Del(ctx, m.redisKey(key)).Err(); err != nil {
			m.logger.Debug("cache.l2.delete.error", "key", key.String(), "error", err)
		}
	}
	return nil
}

// IsFileCachedAndValid reports whether the cache holds metadata for path whose
// (mtime, size, content_hash) all equal current.
func (m *Manager) IsFileCachedAndValid(ctx context.Context, path string, current FileMetadata) bool {
	var stored FileMetadata
	found := m.Get(ctx, Key{Project: m.project, Namespace: NamespaceMetadata, Path: path}, &stored)
	return found && stored.Equal(current)
}

// InvalidateFile removes every L1 entry whose key contains path, every
// L2 entry in the file's four namespaces, and any analysis-namespace
// entries mentioning path.
func (m *Manager) InvalidateFile(ctx context.Context, path string) {
	m.mu.Lock()
	for k := range m.l1 {
		if strings.Contains(k, path) {
			delete(m.l1, k)
		}
	}
	m.mu.Unlock()

	for _, ns := range []Namespace{NamespaceNodes, NamespaceEdges, NamespaceMetadata} {
		_ = m.Delete(ctx, Key{Project: m.project, Namespace: ns, Path: path})
	}

	if m.usesRemote() {
		pattern := redisKeyPrefix + ":" + m.project + ":" + string(NamespaceAnalysis) + ":*" + path + "*"
		m.deleteRemotePattern(ctx, pattern)
	}
}

// ClearAll wipes every L1 entry and, if configured, every L2 entry under
// this project's key prefix.
func (m *Manager) ClearAll(ctx context.Context) {
	m.mu.Lock()
	m.l1 = make(map[string][]byte)
	m.mu.Unlock()

	if m.usesRemote() {
		pattern := redisKeyPrefix + ":" + m.project + ":*"
		m.deleteRemotePattern(ctx, pattern)
	}
}

func (m *Manager) deleteRemotePattern(ctx context.Context, pattern string) {
	iter := m.redis.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		m.logger.Debug("cache.l2.scan.error", "pattern", pattern, "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := m.redis.Del(ctx, keys...).Err(); err != nil {
		m.logger.Debug("cache.l2.delete_pattern.error", "pattern", pattern, "error", err)
	}
}

// Stats returns a snapshot of the manager's operational counters.
func (m *Manager) Stats() Stats {
	return m.stats.snapshot()
}
