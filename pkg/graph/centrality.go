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

import "math"

const (
	defaultPageRankDamping    = 0.85
	defaultPageRankIterations = 100
	defaultPageRankTolerance  = 1e-6
)

// PageRank computes PageRank over the directed graph with the standard
// damping factor of 0.85, iterating until convergence or 100 rounds,
// whichever comes first. An empty graph returns an empty map.
func (g *Graph) PageRank() map[string]float64 {
	s := g.snapshotGraph()
	n := s.size()
	if n == 0 {
		return map[string]float64{}
	}

	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / float64(n)
	}
	outDegree := make([]int, n)
	for pos := range s.out {
		outDegree[pos] = len(s.out[pos])
	}

	for iter := 0; iter < defaultPageRankIterations; iter++ {
		next := make([]float64, n)
		danglingSum := 0.0
		for pos := 0; pos < n; pos++ {
			if outDegree[pos] == 0 {
				danglingSum += rank[pos]
			}
		}
		base := (1 - defaultPageRankDamping) / float64(n)
		dangling := defaultPageRankDamping * danglingSum / float64(n)
		for pos := 0; pos < n; pos++ {
			next[pos] = base + dangling
		}
		for pos := 0; pos < n; pos++ {
			if outDegree[pos] == 0 {
				continue
			}
			share := defaultPageRankDamping * rank[pos] / float64(outDegree[pos])
			for _, e := range s.out[pos] {
				next[e.to] += share
			}
		}

		delta := 0.0
		for pos := 0; pos < n; pos++ {
			delta += math.Abs(next[pos] - rank[pos])
		}
		rank = next
		if delta < defaultPageRankTolerance {
			break
		}
	}

	out := make(map[string]float64, n)
	for pos := 0; pos < n; pos++ {
		out[s.idFor(pos)] = rank[pos]
	}
	return out
}

// BetweennessCentrality computes unweighted betweenness centrality for
// every node using Brandes' algorithm.
func (g *Graph) BetweennessCentrality() map[string]float64 {
	s := g.snapshotGraph()
	n := s.size()
	if n == 1 {
		return map[string]float64{s.idFor(0): 0.0}
	}
	centrality := make([]float64, n)

	for src := 0; src < n; src++ {
		stack := make([]int, 0, n)
		predecessors := make([][]int, n)
		sigma := make([]float64, n)
		dist := make([]int, n)
		for i := range dist {
			dist[i] = -1
		}
		sigma[src] = 1
		dist[src] = 0

		queue := []int{src}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, e := range s.out[v] {
				w := e.to
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					predecessors[w] = append(predecessors[w], v)
				}
			}
		}

		delta := make([]float64, n)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range predecessors[w] {
				delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
			}
			if w != src {
				centrality[w] += delta[w]
			}
		}
	}

	out := make(map[string]float64, n)
	for pos := 0; pos < n; pos++ {
		out[s.idFor(pos)] = centrality[pos]
	}
	return out
}

// ClosenessCentrality computes, for every node, the inverse of its
// average unit-weight distance to every node it can reach. Nodes with no
// reachable neighbors score 0.
func (g *Graph) ClosenessCentrality() map[string]float64 {
	s := g.snapshotGraph()
	n := s.size()
	if n == 1 {
		return map[string]float64{s.idFor(0): 0.0}
	}
	out := make(map[string]float64, n)

	for src := 0; src < n; src++ {
		dist := make([]int, n)
		for i := range dist {
			dist[i] = -1
		}
		dist[src] = 0
		queue := []int{src}
		reached := 0
		sum := 0
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, e := range s.out[v] {
				if dist[e.to] < 0 {
					dist[e.to] = dist[v] + 1
					reached++
					sum += dist[e.to]
					queue = append(queue, e.to)
				}
			}
		}
		if reached == 0 {
			out[s.idFor(src)] = 0.0
			continue
		}
		out[s.idFor(src)] = float64(reached) / float64(sum)
	}
	return out
}

// EigenvectorCentrality computes eigenvector centrality via power
// iteration over the graph's adjacency, treated as undirected.
func (g *Graph) EigenvectorCentrality() map[string]float64 {
	s := g.snapshotGraph()
	n := s.size()
	if n == 1 {
		return map[string]float64{s.idFor(0): 0.0}
	}
	undirected := buildUndirectedAdjacency(s)

	score := make([]float64, n)
	for i := range score {
		score[i] = 1.0 / float64(n)
	}

	const iterations = 100
	for iter := 0; iter < iterations; iter++ {
		next := make([]float64, n)
		for pos := 0; pos < n; pos++ {
			for _, nb := range undirected[pos] {
				next[pos] += score[nb]
			}
		}
		norm := 0.0
		for _, v := range next {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			break
		}
		delta := 0.0
		for i := range next {
			next[i] /= norm
			delta += math.Abs(next[i] - score[i])
		}
		score = next
		if delta < defaultPageRankTolerance {
			break
		}
	}

	out := make(map[string]float64, n)
	for pos := 0; pos < n; pos++ {
		out[s.idFor(pos)] = score[pos]
	}
	return out
}
