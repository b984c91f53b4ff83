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

// Package cache implements the Hybrid Cache Manager: an in-process L1
// map backed by an optional Redis L2, with pluggable strategies trading
// off latency against cross-process sharing.
package cache

import "fmt"

// Strategy selects which tiers a Manager consults.
type Strategy string

const (
	// StrategyMemoryOnly never touches the remote tier.
	StrategyMemoryOnly Strategy = "memory_only"

	// StrategyRemoteOnly skips L1 and always goes to the remote tier.
	StrategyRemoteOnly Strategy = "remote_only"

	// StrategyHybrid is the default: L1 first, L2 on miss, both written on set.
	StrategyHybrid Strategy = "hybrid"

	// StrategyRemoteFallback prefers the remote tier but degrades to
	// memory-only when it is unavailable.
	StrategyRemoteFallback Strategy = "remote_fallback"
)

// Namespace partitions keys by the kind of data they hold.
type Namespace string

const (
	NamespaceNodes    Namespace = "nodes"
	NamespaceEdges    Namespace = "edges"
	NamespaceMetadata Namespace = "metadata"
	NamespaceAnalysis Namespace = "analysis"
)

// Key identifies one cache entry: a project, a namespace within it, and
// a path (a file path for nodes/edges/metadata, a query signature for
// analysis results).
type Key struct {
	Project   string
	Namespace Namespace
	Path      string
}

// String renders the key's logical form, also used as the literal L1 map
// key and (prefixed) the Redis key.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Project, k.Namespace, k.Path)
}

// FileMetadata is the identity record used to decide whether a file's
// cached parse output is still valid.
type FileMetadata struct {
	Path        string `msgpack:"path"`
	MTime       int64  `msgpack:"mtime"`
	Size        int64  `msgpack:"size"`
	ContentHash string `msgpack:"content_hash"`
}

// Equal reports whether two FileMetadata records describe the same file
// state: equal mtime, size, and content hash.
func (m FileMetadata) Equal(other FileMetadata) bool {
	return m.MTime == other.MTime && m.Size == other.Size && m.ContentHash == other.ContentHash
}
