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

package graph

import (
	"log/slog"
	"regexp"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultNameCacheSize bounds the find-by-name memoization cache.
const defaultNameCacheSize = 4096

// Graph is the Code Graph Engine: a directed property graph over parsed
// source entities, held in an arena so node/edge storage never chases
// pointers across language-specific allocations.
//
// Node and edge slots are addressed internally by slice index; no index
// is ever returned to a caller. A single writer at a time may mutate the
// graph; any number of readers may run concurrently, and every
// successful mutation bumps Generation so memoized query results become
// stale and are recomputed.
type Graph struct {
	mu sync.RWMutex

	nodes     []*Node
	freeNodes []int
	nodeByID  map[string]int

	rels      []*Relationship
	freeRels  []int
	relByID   map[string]int
	relsFrom  map[int][]int
	relsTo    map[int][]int

	nodesByType     map[NodeType]map[int]struct{}
	nodesByLanguage map[string]map[int]struct{}
	fileToNodes     map[string]map[int]struct{}
	processedFiles  map[string]struct{}

	generation uint64

	nameCache *lru.Cache[string, []Node]

	recursionPatterns []*regexp.Regexp

	logger *slog.Logger
}

// Option configures a new Graph.
type Option func(*Graph)

// WithLogger attaches a structured logger; the default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) { g.logger = logger }
}

// WithRecursionPatterns sets the name patterns used to exclude
// self-recursive functions from reported cycles (see DetectCycles).
func WithRecursionPatterns(patterns []string) Option {
	return func(g *Graph) {
		compiled := make([]*regexp.Regexp, 0, len(patterns))
		for _, p := range patterns {
			if re, err := regexp.Compile(p); err == nil {
				compiled = append(compiled, re)
			}
		}
		g.recursionPatterns = compiled
	}
}

// New creates an empty Graph.
func New(opts ...Option) *Graph {
	cache, _ := lru.New[string, []Node](defaultNameCacheSize)
	g := &Graph{
		nodeByID:        make(map[string]int),
		relByID:         make(map[string]int),
		relsFrom:        make(map[int][]int),
		relsTo:          make(map[int][]int),
		nodesByType:     make(map[NodeType]map[int]struct{}),
		nodesByLanguage: make(map[string]map[int]struct{}),
		fileToNodes:     make(map[string]map[int]struct{}),
		processedFiles:  make(map[string]struct{}),
		nameCache:       cache,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generation returns the current mutation counter. Callers that memoize
// query results outside the package should discard them when this value
// changes.
func (g *Graph) Generation() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.generation
}

func (g *Graph) bumpGeneration() {
	g.generation++
	g.nameCache.Purge()
}

// AddNode inserts n, assigning it a fresh arena slot. If a node with the
// same id already exists, it is replaced in-place: every edge touching
// the prior node is dropped first, then the new node takes over the id.
func (g *Graph) AddNode(n Node) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if oldIdx, ok := g.nodeByID[n.ID]; ok {
		g.removeNodeLocked(oldIdx)
	}

	idx := g.allocNodeSlot()
	n.index = idx
	stored := n.clone()
	g.nodes[idx] = &stored
	g.nodeByID[n.ID] = idx

	g.indexByType(n.NodeType, idx, true)
	if n.Language != "" {
		g.indexByLanguage(n.Language, idx, true)
	}
	if n.Location.FilePath != "" {
		g.indexByFile(n.Location.FilePath, idx, true)
	}

	g.bumpGeneration()
}

// AddRelationship inserts r. If either endpoint is not a node currently
// in the graph, the edge is silently dropped (logged at debug level) and
// is not retried on later node arrival, per the no-orphan-edge invariant.
func (g *Graph) AddRelationship(r Relationship) {
	g.mu.Lock()
	defer g.mu.Unlock()

	srcIdx, srcOK := g.nodeByID[r.SourceID]
	tgtIdx, tgtOK := g.nodeByID[r.TargetID]
	if !srcOK || !tgtOK {
		g.logger.Debug("graph.relationship.dropped",
			"source_id", r.SourceID, "target_id", r.TargetID,
			"type", r.RelationshipType, "source_exists", srcOK, "target_exists", tgtOK,
		)
		return
	}
	if r.Strength == 0 {
		r.Strength = 1.0
	}

	if existingIdx, ok := g.relByID[r.ID]; ok {
		g.removeRelLocked(existingIdx)
	}

	idx := g.allocRelSlot()
	r.sourceIdx, r.targetIdx = srcIdx, tgtIdx
	stored := r.clone()
	g.rels[idx] = &stored
	g.relByID[r.ID] = idx
	g.relsFrom[srcIdx] = append(g.relsFrom[srcIdx], idx)
	g.relsTo[tgtIdx] = append(g.relsTo[tgtIdx], idx)

	g.bumpGeneration()
}

// RemoveFileNodes removes every node whose Location.FilePath equals path,
// together with every edge touching them, and clears path's processed
// marker. Returns the number of nodes removed.
func (g *Graph) RemoveFileNodes(path string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	indices, ok := g.fileToNodes[path]
	if !ok {
		return 0
	}
	removed := 0
	for idx := range indices {
		g.removeNodeLocked(idx)
		removed++
	}
	delete(g.fileToNodes, path)
	delete(g.processedFiles, path)
	if removed > 0 {
		g.bumpGeneration()
	}
	return removed
}

// Clear discards every node, edge, and processed-file marker.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes = nil
	g.freeNodes = nil
	g.nodeByID = make(map[string]int)
	g.rels = nil
	g.freeRels = nil
	g.relByID = make(map[string]int)
	g.relsFrom = make(map[int][]int)
	g.relsTo = make(map[int][]int)
	g.nodesByType = make(map[NodeType]map[int]struct{})
	g.nodesByLanguage = make(map[string]map[int]struct{})
	g.fileToNodes = make(map[string]map[int]struct{})
	g.processedFiles = make(map[string]struct{})
	g.bumpGeneration()
}

// MarkProcessed records path as having completed a successful parse pass.
func (g *Graph) MarkProcessed(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.processedFiles[path] = struct{}{}
}

// IsProcessed reports whether path is marked processed.
func (g *Graph) IsProcessed(path string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.processedFiles[path]
	return ok
}

// ProcessedFiles returns the set of processed file paths.
func (g *Graph) ProcessedFiles() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.processedFiles))
	for p := range g.processedFiles {
		out = append(out, p)
	}
	return out
}

// GetNode returns the node with the given id.
func (g *Graph) GetNode(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.nodeByID[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[idx].clone(), true
}

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodeByID)
}

// RelationshipCount returns the number of live edges.
func (g *Graph) RelationshipCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.relByID)
}

func (g *Graph) allocNodeSlot() int {
	if n := len(g.freeNodes); n > 0 {
		idx := g.freeNodes[n-1]
		g.freeNodes = g.freeNodes[:n-1]
		return idx
	}
	g.nodes = append(g.nodes, nil)
	return len(g.nodes) - 1
}

func (g *Graph) allocRelSlot() int {
	if n := len(g.freeRels); n > 0 {
		idx := g.freeRels[n-1]
		g.freeRels = g.freeRels[:n-1]
		return idx
	}
	g.rels = append(g.rels, nil)
	return len(g.rels) - 1
}

// removeNodeLocked tombstones the node at idx and every edge touching
// it. Caller must hold g.mu for writing.
func (g *Graph) removeNodeLocked(idx int) {
	n := g.nodes[idx]
	if n == nil {
		return
	}
	for _, relIdx := range append([]int(nil), g.relsFrom[idx]...) {
		g.removeRelLocked(relIdx)
	}
	for _, relIdx := range append([]int(nil), g.relsTo[idx]...) {
		g.removeRelLocked(relIdx)
	}
	delete(g.relsFrom, idx)
	delete(g.relsTo, idx)

	g.indexByType(n.NodeType, idx, false)
	if n.Language != "" {
		g.indexByLanguage(n.Language, idx, false)
	}
	if n.Location.FilePath != "" {
		g.indexByFile(n.Location.FilePath, idx, false)
	}

	delete(g.nodeByID, n.ID)
	g.nodes[idx] = nil
	g.freeNodes = append(g.freeNodes, idx)
}

func (g *Graph) removeRelLocked(idx int) {
	r := g.rels[idx]
	if r == nil {
		return
	}
	g.relsFrom[r.sourceIdx] = removeInt(g.relsFrom[r.sourceIdx], idx)
	g.relsTo[r.targetIdx] = removeInt(g.relsTo[r.targetIdx], idx)
	delete(g.relByID, r.ID)
	g.rels[idx] = nil
	g.freeRels = append(g.freeRels, idx)
}

func removeInt(s []int, v int) []int {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func (g *Graph) indexByType(t NodeType, idx int, add bool) {
	set, ok := g.nodesByType[t]
	if !ok {
		if !add {
			return
		}
		set = make(map[int]struct{})
		g.nodesByType[t] = set
	}
	if add {
		set[idx] = struct{}{}
	} else {
		delete(set, idx)
	}
}

func (g *Graph) indexByLanguage(lang string, idx int, add bool) {
	set, ok := g.nodesByLanguage[lang]
	if !ok {
		if !add {
			return
		}
		set = make(map[int]struct{})
		g.nodesByLanguage[lang] = set
	}
	if add {
		set[idx] = struct{}{}
	} else {
		delete(set, idx)
	}
}

func (g *Graph) indexByFile(path string, idx int, add bool) {
	set, ok := g.fileToNodes[path]
	if !ok {
		if !add {
			return
		}
		set = make(map[int]struct{})
		g.fileToNodes[path] = set
	}
	if add {
		set[idx] = struct{}{}
	} else {
		delete(set, idx)
	}
}
