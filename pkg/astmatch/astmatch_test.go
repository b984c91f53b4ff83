// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package astmatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goSource = `package main

func add(a, b int) int {
	return a + b
}

func main() {
	result := add(1, 2)
	_ = result
}
`

func TestMatchAll_FindsGoFunctions(t *testing.T) {
	a := New(nil)
	matches := a.MatchAll(context.Background(), []byte(goSource), "go", "function")
	require.Len(t, matches, 2)
	assert.Contains(t, matches[0].Text, "func add")
}

func TestMatchAll_FindsGoCalls(t *testing.T) {
	a := New(nil)
	matches := a.MatchAll(context.Background(), []byte(goSource), "go", "call")
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Text, "add(1, 2)")
}

func TestMatchAll_UnsupportedLanguageReturnsEmpty(t *testing.T) {
	a := New(nil)
	matches := a.MatchAll(context.Background(), []byte("whatever"), "cobol", "function")
	assert.Empty(t, matches)
}

func TestMatchAll_UnsupportedPatternReturnsEmpty(t *testing.T) {
	a := New(nil)
	matches := a.MatchAll(context.Background(), []byte(goSource), "go", "not-a-real-pattern")
	assert.Empty(t, matches)
}

func TestSupportsLanguage(t *testing.T) {
	a := New(nil)
	assert.True(t, a.SupportsLanguage("go"))
	assert.False(t, a.SupportsLanguage("cobol"))
}
