// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalk_PrunesAlwaysPrunedDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a")
	writeFile(t, filepath.Join(root, "__pycache__", "skip.go"), "package skip")

	e := New(nil, 0)
	var visited []string
	err := e.Walk(root, func(rel, full string, size int64) error {
		visited = append(visited, rel)
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, visited, "a.go")
	assert.NotContains(t, visited, filepath.Join("__pycache__", "skip.go"))
}

func TestWalk_HonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "vendor/\n*.log\n")
	writeFile(t, filepath.Join(root, "a.go"), "package a")
	writeFile(t, filepath.Join(root, "vendor", "dep.go"), "package dep")
	writeFile(t, filepath.Join(root, "debug.log"), "noise")

	e := New(nil, 0)
	var visited []string
	err := e.Walk(root, func(rel, full string, size int64) error {
		visited = append(visited, rel)
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, visited, "a.go")
	assert.NotContains(t, visited, filepath.Join("vendor", "dep.go"))
}

func TestWalk_GraphignoreTakesPrecedenceOverGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "a.go\n")
	writeFile(t, filepath.Join(root, ".graphignore"), "b.go\n")
	writeFile(t, filepath.Join(root, "a.go"), "package a")
	writeFile(t, filepath.Join(root, "b.go"), "package b")

	e := New(nil, 0)
	var visited []string
	err := e.Walk(root, func(rel, full string, size int64) error {
		visited = append(visited, rel)
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, visited, "a.go")
	assert.NotContains(t, visited, "b.go")
}

func TestWalk_SkipsFilesOverSizeCap(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "big.go"), string(make([]byte, 100)))

	e := New(nil, 10)
	var visited []string
	err := e.Walk(root, func(rel, full string, size int64) error {
		visited = append(visited, rel)
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, visited)
}

func TestWalk_SkipsUnsupportedExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.xyz"), "whatever")

	e := New(nil, 0)
	var visited []string
	err := e.Walk(root, func(rel, full string, size int64) error {
		visited = append(visited, rel)
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, visited)
}
