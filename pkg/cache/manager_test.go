// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, strategy Strategy) *Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New("proj", strategy, client)
}

func TestSetGet_HybridRoundTrip(t *testing.T) {
	m := newTestManager(t, StrategyHybrid)
	ctx := context.Background()

	key := Key{Project: "proj", Namespace: NamespaceNodes, Path: "a.go"}
	require.NoError(t, m.Set(ctx, key, FileMetadata{Path: "a.go", Size: 42}, 0))

	var got FileMetadata
	found := m.Get(ctx, key, &got)
	require.True(t, found)
	assert.Equal(t, int64(42), got.Size)
}

func TestGet_L1MissFallsToL2AndPopulatesL1(t *testing.T) {
	m := newTestManager(t, StrategyHybrid)
	ctx := context.Background()
	key := Key{Project: "proj", Namespace: NamespaceMetadata, Path: "a.go"}
	require.NoError(t, m.Set(ctx, key, FileMetadata{Path: "a.go", Size: 7}, 0))

	m.mu.Lock()
	delete(m.l1, key.String())
	m.mu.Unlock()

	var got FileMetadata
	found := m.Get(ctx, key, &got)
	require.True(t, found)
	assert.Equal(t, int64(7), got.Size)

	m.mu.RLock()
	_, repopulated := m.l1[key.String()]
	m.mu.RUnlock()
	assert.True(t, repopulated)
}

func TestMemoryOnly_NeverWritesRemote(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	m := New("proj", StrategyMemoryOnly, client)
	ctx := context.Background()

	key := Key{Project: "proj", Namespace: NamespaceNodes, Path: "a.go"}
	require.NoError(t, m.Set(ctx, key, FileMetadata{Path: "a.go"}, 0))

	assert.Equal(t, 0, len(mr.Keys()))
}

func TestIsFileCachedAndValid(t *testing.T) {
	m := newTestManager(t, StrategyHybrid)
	ctx := context.Background()

	current := FileMetadata{Path: "a.go", MTime: 100, Size: 10, ContentHash: "abc"}
	require.NoError(t, m.Set(ctx, Key{Project: "proj", Namespace: NamespaceMetadata, Path: "a.go"}, current, 0))

	assert.True(t, m.IsFileCachedAndValid(ctx, "a.go", current))

	changed := current
	changed.MTime = 200
	assert.False(t, m.IsFileCachedAndValid(ctx, "a.go", changed))
}

func TestInvalidateFile_RemovesAllFourNamespaces(t *testing.T) {
	m := newTestManager(t, StrategyHybrid)
	ctx := context.Background()

	for _, ns := range []Namespace{NamespaceNodes, NamespaceEdges, NamespaceMetadata} {
		require.NoError(t, m.Set(ctx, Key{Project: "proj", Namespace: ns, Path: "a.go"}, "v", 0))
	}

	m.InvalidateFile(ctx, "a.go")

	for _, ns := range []Namespace{NamespaceNodes, NamespaceEdges, NamespaceMetadata} {
		var out string
		assert.False(t, m.Get(ctx, Key{Project: "proj", Namespace: ns, Path: "a.go"}, &out))
	}
}

func TestClearAll_WipesProjectPrefix(t *testing.T) {
	m := newTestManager(t, StrategyHybrid)
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, Key{Project: "proj", Namespace: NamespaceNodes, Path: "a.go"}, "v", 0))

	m.ClearAll(ctx)

	var out string
	assert.False(t, m.Get(ctx, Key{Project: "proj", Namespace: NamespaceNodes, Path: "a.go"}, &out))
}

func TestEncodeDecode_CompressesAboveThreshold(t *testing.T) {
	large := make([]byte, 5000)
	for i := range large {
		large[i] = byte('a' + i%26)
	}
	encoded, err := encode(string(large), DefaultCompressionThreshold)
	require.NoError(t, err)
	assert.Equal(t, flagCompressed, encoded[0])

	var decoded string
	require.NoError(t, decode(encoded, &decoded))
	assert.Equal(t, string(large), decoded)
}

func TestStats_TracksHitsAndMisses(t *testing.T) {
	m := newTestManager(t, StrategyHybrid)
	ctx := context.Background()
	key := Key{Project: "proj", Namespace: NamespaceNodes, Path: "a.go"}

	var miss string
	m.Get(ctx, key, &miss)

	require.NoError(t, m.Set(ctx, key, "v", 0))
	var hit string
	m.Get(ctx, key, &hit)

	stats := m.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.HitsL1)
	assert.NotZero(t, stats.OpCounts["get"])
}

func TestDefaultTTLApplied(t *testing.T) {
	assert.Equal(t, 7*24*time.Hour, DefaultTTL)
}
