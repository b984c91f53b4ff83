// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package cdc

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), client
}

func TestEvent_RedisFormatRoundTrip(t *testing.T) {
	evt, err := NewEvent(EventNodeAdded, "function:a.go:foo:1", EntityNode, map[string]string{"name": "foo"}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	fields := evt.toRedisFormat()
	back, err := fromRedisFormat(fields)
	require.NoError(t, err)

	assert.Equal(t, evt.EventID, back.EventID)
	assert.Equal(t, evt.EventType, back.EventType)
	assert.Equal(t, evt.EntityID, back.EntityID)
	assert.True(t, evt.Timestamp.Equal(back.Timestamp))
	assert.JSONEq(t, string(evt.Data), string(back.Data))
}

func TestPublish_AppendsToStreamAndReadStreamReturnsIt(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	evt, err := NewEvent(EventNodeAdded, "function:a.go:foo:1", EntityNode, map[string]string{}, time.Now())
	require.NoError(t, err)

	m.Publish(ctx, evt)

	events, err := m.ReadStream(ctx, "-", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, evt.EventID, events[0].EventID)
}

func TestPublish_InvokesLocalHandlers(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	var invoked atomic.Bool
	m.OnEvent(EventNodeAdded, func(ctx context.Context, evt Event) error {
		invoked.Store(true)
		return nil
	})

	evt, err := NewEvent(EventNodeAdded, "function:a.go:foo:1", EntityNode, map[string]string{}, time.Now())
	require.NoError(t, err)
	m.Publish(ctx, evt)

	assert.True(t, invoked.Load())
}

func TestPublish_WithNilRedisStillFiresLocalHandlers(t *testing.T) {
	m := New(nil)
	ctx := context.Background()

	var invoked atomic.Bool
	m.OnEvent(EventNodeAdded, func(ctx context.Context, evt Event) error {
		invoked.Store(true)
		return nil
	})

	evt, err := NewEvent(EventNodeAdded, "id", EntityNode, map[string]string{}, time.Now())
	require.NoError(t, err)
	m.Publish(ctx, evt)

	assert.True(t, invoked.Load())
}

func TestSubscribe_StopsCleanlyOnCancel(t *testing.T) {
	m, _ := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- m.Subscribe(ctx, func(EventType, string, EntityType) {})
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscribe did not stop after cancel")
	}
}
