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

const (
	colorWhite = iota
	colorGray
	colorBlack
)

// DetectCycles returns the cycles found by a depth-first search of the
// graph, one per back edge, expressed as ordered node-id lists. When
// cycles share nodes, not every elementary cycle is listed: a cycle that
// closes over an edge into an already-finished node is not reported.
// A self-loop on a FUNCTION node is excluded from
// the result when the function's name matches one of the graph's
// configured recursion patterns (see WithRecursionPatterns); it is never
// excluded for non-FUNCTION nodes or when no patterns are configured.
func (g *Graph) DetectCycles() [][]string {
	s := g.snapshotGraph()
	color := make([]int, s.size())
	var stack []int
	onStack := make([]bool, s.size())
	var cycles [][]string

	var dfs func(pos int)
	dfs = func(pos int) {
		color[pos] = colorGray
		onStack[pos] = true
		stack = append(stack, pos)

		for _, e := range s.out[pos] {
			if e.to == pos {
				if !g.isFilteredSelfLoop(s.node[pos]) {
					cycles = append(cycles, []string{s.idFor(pos)})
				}
				continue
			}
			switch color[e.to] {
			case colorWhite:
				dfs(e.to)
			case colorGray:
				cycles = append(cycles, extractCycle(s, stack, e.to))
			}
		}

		stack = stack[:len(stack)-1]
		onStack[pos] = false
		color[pos] = colorBlack
	}

	for pos := 0; pos < s.size(); pos++ {
		if color[pos] == colorWhite {
			dfs(pos)
		}
	}

	if cycles == nil {
		return [][]string{}
	}
	return cycles
}

func extractCycle(s *snapshot, stack []int, target int) []string {
	startAt := 0
	for i, pos := range stack {
		if pos == target {
			startAt = i
			break
		}
	}
	segment := stack[startAt:]
	out := make([]string, len(segment))
	for i, pos := range segment {
		out[i] = s.idFor(pos)
	}
	return out
}

func (g *Graph) isFilteredSelfLoop(n Node) bool {
	if n.NodeType != NodeFunction {
		return false
	}
	for _, re := range g.recursionPatterns {
		if re.MatchString(n.Name) {
			return true
		}
	}
	return false
}

// StronglyConnectedComponents returns the graph's SCCs via an iterative
// Tarjan's algorithm. An explicit work stack stands in for the call
// stack so a deeply chained call graph cannot overflow the goroutine
// stack.
func (g *Graph) StronglyConnectedComponents() [][]string {
	s := g.snapshotGraph()
	n := s.size()

	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	visited := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var tarjanStack []int
	var components [][]string
	nextIndex := 0

	type callFrame struct {
		pos     int
		edgeIdx int
	}

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}

		var work []callFrame
		work = append(work, callFrame{pos: start})

		for len(work) > 0 {
			frame := &work[len(work)-1]
			pos := frame.pos

			if frame.edgeIdx == 0 {
				visited[pos] = true
				index[pos] = nextIndex
				lowlink[pos] = nextIndex
				nextIndex++
				tarjanStack = append(tarjanStack, pos)
				onStack[pos] = true
			}

			recursed := false
			for frame.edgeIdx < len(s.out[pos]) {
				e := s.out[pos][frame.edgeIdx]
				frame.edgeIdx++
				if !visited[e.to] {
					work = append(work, callFrame{pos: e.to})
					recursed = true
					break
				}
				if onStack[e.to] && index[e.to] < lowlink[pos] {
					lowlink[pos] = index[e.to]
				}
			}
			if recursed {
				continue
			}

			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := &work[len(work)-1]
				if lowlink[pos] < lowlink[parent.pos] {
					lowlink[parent.pos] = lowlink[pos]
				}
			}

			if lowlink[pos] == index[pos] {
				var comp []string
				for {
					top := tarjanStack[len(tarjanStack)-1]
					tarjanStack = tarjanStack[:len(tarjanStack)-1]
					onStack[top] = false
					comp = append(comp, s.idFor(top))
					if top == pos {
						break
					}
				}
				components = append(components, comp)
			}
		}
	}

	return components
}

// ArticulationPoints returns the ids of every node whose removal
// increases the number of connected components, treating the graph as
// undirected.
func (g *Graph) ArticulationPoints() []string {
	s := g.snapshotGraph()
	undirected := buildUndirectedAdjacency(s)

	n := s.size()
	disc := make([]int, n)
	low := make([]int, n)
	visited := make([]bool, n)
	isArticulation := make([]bool, n)
	timer := 0

	type frame struct {
		pos, parent, childCount, edgeIdx int
	}

	for root := 0; root < n; root++ {
		if visited[root] {
			continue
		}
		var work []frame
		work = append(work, frame{pos: root, parent: -1})

		for len(work) > 0 {
			f := &work[len(work)-1]
			pos := f.pos

			if f.edgeIdx == 0 {
				visited[pos] = true
				disc[pos] = timer
				low[pos] = timer
				timer++
			}

			recursed := false
			for f.edgeIdx < len(undirected[pos]) {
				next := undirected[pos][f.edgeIdx]
				f.edgeIdx++
				if next == f.parent {
					continue
				}
				if !visited[next] {
					f.childCount++
					work = append(work, frame{pos: next, parent: pos})
					recursed = true
					break
				}
				if disc[next] < low[pos] {
					low[pos] = disc[next]
				}
			}
			if recursed {
				continue
			}

			work = work[:len(work)-1]
			if len(work) > 0 {
				parentFrame := &work[len(work)-1]
				if low[pos] < low[parentFrame.pos] {
					low[parentFrame.pos] = low[pos]
				}
				if parentFrame.pos != -1 {
					isRoot := parentFrame.parent == -1
					if !isRoot && low[pos] >= disc[parentFrame.pos] {
						isArticulation[parentFrame.pos] = true
					}
					if isRoot && parentFrame.childCount > 1 {
						isArticulation[parentFrame.pos] = true
					}
				}
			}
		}
	}

	var out []string
	for pos, is := range isArticulation {
		if is {
			out = append(out, s.idFor(pos))
		}
	}
	return out
}

// Bridges returns every edge whose removal disconnects its two
// endpoints, treating the graph as undirected.
func (g *Graph) Bridges() [][2]string {
	s := g.snapshotGraph()
	undirected := buildUndirectedAdjacency(s)

	n := s.size()
	disc := make([]int, n)
	low := make([]int, n)
	visited := make([]bool, n)
	timer := 0
	var bridges [][2]string

	type frame struct {
		pos, parent, edgeIdx int
	}

	for root := 0; root < n; root++ {
		if visited[root] {
			continue
		}
		var work []frame
		work = append(work, frame{pos: root, parent: -1})

		for len(work) > 0 {
			f := &work[len(work)-1]
			pos := f.pos

			if f.edgeIdx == 0 {
				visited[pos] = true
				disc[pos] = timer
				low[pos] = timer
				timer++
			}

			recursed := false
			for f.edgeIdx < len(undirected[pos]) {
				next := undirected[pos][f.edgeIdx]
				f.edgeIdx++
				if next == f.parent {
					continue
				}
				if !visited[next] {
					work = append(work, frame{pos: next, parent: pos})
					recursed = true
					break
				}
				if disc[next] < low[pos] {
					low[pos] = disc[next]
				}
			}
			if recursed {
				continue
			}

			work = work[:len(work)-1]
			if len(work) > 0 {
				parentFrame := &work[len(work)-1]
				if low[pos] < low[parentFrame.pos] {
					low[parentFrame.pos] = low[pos]
				}
				if low[pos] > disc[parentFrame.pos] {
					bridges = append(bridges, [2]string{s.idFor(parentFrame.pos), s.idFor(pos)})
				}
			}
		}
	}

	return bridges
}

func buildUndirectedAdjacency(s *snapshot) [][]int {
	adj := make([][]int, s.size())
	for pos := range s.out {
		for _, e := range s.out[pos] {
			if e.to == pos {
				continue
			}
			adj[pos] = append(adj[pos], e.to)
			adj[e.to] = append(adj[e.to], pos)
		}
	}
	return adj
}
