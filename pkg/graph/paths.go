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
	"container/heap"
	"fmt"
	"math"
)

// pqItem is one entry in the Dijkstra priority queue.
type pqItem struct {
	pos  int
	dist float64
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)         { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// ShortestPath returns the unit-weight shortest path from sourceID to
// targetID using Dijkstra's algorithm. found is false if no path exists
// or either endpoint is absent.
func (g *Graph) ShortestPath(sourceID, targetID string) (path []string, found bool) {
	s := g.snapshotGraph()
	srcPos, ok := s.posFor(sourceID)
	if !ok {
		return nil, false
	}
	tgtPos, ok := s.posFor(targetID)
	if !ok {
		return nil, false
	}

	dist := make([]float64, s.size())
	prev := make([]int, s.size())
	visited := make([]bool, s.size())
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[srcPos] = 0

	pq := &priorityQueue{{pos: srcPos, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.pos] {
			continue
		}
		visited[cur.pos] = true
		if cur.pos == tgtPos {
			break
		}
		for _, e := range s.out[cur.pos] {
			alt := dist[cur.pos] + 1
			if alt < dist[e.to] {
				dist[e.to] = alt
				prev[e.to] = cur.pos
				heap.Push(pq, pqItem{pos: e.to, dist: alt})
			}
		}
	}

	if math.IsInf(dist[tgtPos], 1) {
		return nil, false
	}

	var reversed []int
	for at := tgtPos; at != -1; at = prev[at] {
		reversed = append(reversed, at)
		if at == srcPos {
			break
		}
	}
	path = make([]string, len(reversed))
	for i, pos := range reversed {
		path[len(reversed)-1-i] = s.idFor(pos)
	}
	return path, true
}

// AllSimplePaths enumerates every simple (no repeated node) path from
// sourceID to targetID with at most maxDepth edges.
func (g *Graph) AllSimplePaths(sourceID, targetID string, maxDepth int) [][]string {
	s := g.snapshotGraph()
	srcPos, ok := s.posFor(sourceID)
	if !ok {
		return nil
	}
	tgtPos, ok := s.posFor(targetID)
	if !ok {
		return nil
	}

	var results [][]string
	visited := make([]bool, s.size())
	var walk func(pos int, trail []int)
	walk = func(pos int, trail []int) {
		if len(trail)-1 > maxDepth {
			return
		}
		if pos == tgtPos && len(trail) > 1 {
			out := make([]string, len(trail))
			for i, p := range trail {
				out[i] = s.idFor(p)
			}
			results = append(results, out)
			return
		}
		for _, e := range s.out[pos] {
			if visited[e.to] {
				continue
			}
			visited[e.to] = true
			walk(e.to, append(trail, e.to))
			visited[e.to] = false
		}
	}
	visited[srcPos] = true
	walk(srcPos, []int{srcPos})
	return results
}

// TopologicalSort returns node ids in dependency order via Kahn's
// algorithm. It returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	s := g.snapshotGraph()
	inDegree := make([]int, s.size())
	for pos := range s.out {
		for _, e := range s.out[pos] {
			inDegree[e.to]++
		}
	}

	queue := make([]int, 0, s.size())
	for pos, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, pos)
		}
	}

	order := make([]string, 0, s.size())
	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		order = append(order, s.idFor(pos))
		for _, e := range s.out[pos] {
			inDegree[e.to]--
			if inDegree[e.to] == 0 {
				queue = append(queue, e.to)
			}
		}
	}

	if len(order) != s.size() {
		return nil, fmt.Errorf("graph contains a cycle: topological sort covered %d of %d nodes", len(order), s.size())
	}
	return order, nil
}

// FloydWarshall computes all-pairs shortest unit-weight distances. The
// result maps source id -> target id -> distance; unreachable pairs are
// omitted. Intended for dense graphs where repeated single-source
// queries would be more expensive than one all-pairs pass.
func (g *Graph) FloydWarshall() map[string]map[string]float64 {
	s := g.snapshotGraph()
	n := s.size()
	const inf = math.MaxFloat64 / 2

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			if i == j {
				dist[i][j] = 0
			} else {
				dist[i][j] = inf
			}
		}
	}
	for pos := range s.out {
		for _, e := range s.out[pos] {
			if 1 < dist[pos][e.to] {
				dist[pos][e.to] = 1
			}
		}
	}

	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if dist[i][k] >= inf {
				continue
			}
			for j := 0; j < n; j++ {
				if alt := dist[i][k] + dist[k][j]; alt < dist[i][j] {
					dist[i][j] = alt
				}
			}
		}
	}

	out := make(map[string]map[string]float64, n)
	for i := 0; i < n; i++ {
		row := make(map[string]float64)
		for j := 0; j < n; j++ {
			if dist[i][j] < inf {
				row[s.idFor(j)] = dist[i][j]
			}
		}
		out[s.idFor(i)] = row
	}
	return out
}

// BellmanFord computes single-source shortest distances from sourceID
// using each edge's Strength as its weight (negated, so a stronger
// relationship is a "shorter" path). It returns an error if the graph
// contains a negative-weight cycle reachable from sourceID.
func (g *Graph) BellmanFord(sourceID string) (map[string]float64, error) {
	s := g.snapshotGraph()
	srcPos, ok := s.posFor(sourceID)
	if !ok {
		return nil, fmt.Errorf("node %q not found", sourceID)
	}

	n := s.size()
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[srcPos] = 0

	type weightedEdge struct {
		from, to int
		weight   float64
	}
	var edges []weightedEdge
	for pos := range s.out {
		for _, e := range s.out[pos] {
			edges = append(edges, weightedEdge{from: pos, to: e.to, weight: float64(-e.strength)})
		}
	}

	for i := 0; i < n-1; i++ {
		changed := false
		for _, e := range edges {
			if dist[e.from] == math.Inf(1) {
				continue
			}
			if alt := dist[e.from] + e.weight; alt < dist[e.to] {
				dist[e.to] = alt
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	for _, e := range edges {
		if dist[e.from] == math.Inf(1) {
			continue
		}
		if dist[e.from]+e.weight < dist[e.to] {
			return nil, fmt.Errorf("negative-weight cycle detected reachable from %q", sourceID)
		}
	}

	out := make(map[string]float64, n)
	for i := 0; i < n; i++ {
		if !math.IsInf(dist[i], 1) {
			out[s.idFor(i)] = dist[i]
		}
	}
	return out, nil
}

// Ancestors returns every node with a path to nodeID (reverse reachability).
func (g *Graph) Ancestors(nodeID string) []string {
	return g.reachability(nodeID, true)
}

// Descendants returns every node reachable from nodeID.
func (g *Graph) Descendants(nodeID string) []string {
	return g.reachability(nodeID, false)
}

func (g *Graph) reachability(nodeID string, reverse bool) []string {
	s := g.snapshotGraph()
	start, ok := s.posFor(nodeID)
	if !ok {
		return nil
	}
	adj := s.out
	if reverse {
		adj = s.in
	}
	visited := make([]bool, s.size())
	visited[start] = true
	queue := []int{start}
	var out []string
	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		for _, e := range adj[pos] {
			if visited[e.to] {
				continue
			}
			visited[e.to] = true
			out = append(out, s.idFor(e.to))
			queue = append(queue, e.to)
		}
	}
	return out
}
