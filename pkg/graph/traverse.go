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

// DFSTraversal walks outgoing edges from startID depth-first and returns
// visited node ids in visitation order.
func (g *Graph) DFSTraversal(startID string) []string {
	s := g.snapshotGraph()
	start, ok := s.posFor(startID)
	if !ok {
		return nil
	}
	visited := make([]bool, s.size())
	var order []string
	var walk func(pos int)
	walk = func(pos int) {
		visited[pos] = true
		order = append(order, s.idFor(pos))
		for _, e := range s.out[pos] {
			if !visited[e.to] {
				walk(e.to)
			}
		}
	}
	walk(start)
	return order
}

// BFSTraversal walks outgoing edges from startID breadth-first and
// returns visited node ids in visitation order.
func (g *Graph) BFSTraversal(startID string) []string {
	s := g.snapshotGraph()
	start, ok := s.posFor(startID)
	if !ok {
		return nil
	}
	visited := make([]bool, s.size())
	visited[start] = true
	queue := []int{start}
	var order []string
	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		order = append(order, s.idFor(pos))
		for _, e := range s.out[pos] {
			if !visited[e.to] {
				visited[e.to] = true
				queue = append(queue, e.to)
			}
		}
	}
	return order
}

// NodeLayers groups every node reachable from startID by its BFS depth:
// layer 0 is startID itself, layer 1 its direct successors, and so on up
// to maxDepth.
func (g *Graph) NodeLayers(startID string, maxDepth int) [][]string {
	s := g.snapshotGraph()
	start, ok := s.posFor(startID)
	if !ok {
		return nil
	}
	visited := make([]bool, s.size())
	visited[start] = true
	layers := [][]string{{s.idFor(start)}}
	current := []int{start}

	for depth := 0; depth < maxDepth && len(current) > 0; depth++ {
		var next []int
		var nextIDs []string
		for _, pos := range current {
			for _, e := range s.out[pos] {
				if visited[e.to] {
					continue
				}
				visited[e.to] = true
				next = append(next, e.to)
				nextIDs = append(nextIDs, s.idFor(e.to))
			}
		}
		if len(next) == 0 {
			break
		}
		layers = append(layers, nextIDs)
		current = next
	}
	return layers
}

// TraversalEdge is a lightweight edge reference returned by traversal
// queries that report the edges they walked, not just the nodes visited.
type TraversalEdge struct {
	SourceID         string
	TargetID         string
	RelationshipType RelationshipType
}

// DepthTraversalResult is DFSWithDepth's contract: nodes bucketed by
// depth from the start, how many were visited in total, any SEAM edges
// crossed (when requested), and the deepest level actually reached.
type DepthTraversalResult struct {
	NodesByDepth    map[int][]string
	TotalNodes      int
	SeamEdges       []TraversalEdge
	MaxDepthReached int
}

// DFSWithDepth walks outgoing edges from startID depth-first, bounded by
// maxDepth. A SEAM edge is followed only when includeSeams is true, in
// which case it is also recorded in the result's SeamEdges; when false,
// SEAM edges are skipped entirely rather than just left unrecorded.
func (g *Graph) DFSWithDepth(startID string, maxDepth int, includeSeams bool) DepthTraversalResult {
	result := DepthTraversalResult{NodesByDepth: make(map[int][]string)}
	s := g.snapshotGraph()
	start, ok := s.posFor(startID)
	if !ok {
		return result
	}

	visited := make([]bool, s.size())
	var walk func(pos, depth int)
	walk = func(pos, depth int) {
		visited[pos] = true
		result.NodesByDepth[depth] = append(result.NodesByDepth[depth], s.idFor(pos))
		result.TotalNodes++
		if depth > result.MaxDepthReached {
			result.MaxDepthReached = depth
		}
		if depth >= maxDepth {
			return
		}
		for _, e := range s.out[pos] {
			if e.relType == RelSeam {
				if !includeSeams {
					continue
				}
				result.SeamEdges = append(result.SeamEdges, TraversalEdge{
					SourceID: s.idFor(pos), TargetID: s.idFor(e.to), RelationshipType: e.relType,
				})
			}
			if !visited[e.to] {
				walk(e.to, depth+1)
			}
		}
	}
	walk(start, 0)
	return result
}

// FindCallChain walks outgoing edges from sourceID breadth-first. When
// targetID is non-empty, it returns the edges of the first path BFS
// finds to it, or nil if none exists within maxDepth hops. When targetID
// is empty, it returns the edges of the full BFS traversal up to
// maxDepth. followSeams=false excludes SEAM edges from the walk
// entirely; all other relationship types are followed regardless.
func (g *Graph) FindCallChain(sourceID, targetID string, followSeams bool, maxDepth int) []TraversalEdge {
	s := g.snapshotGraph()
	start, ok := s.posFor(sourceID)
	if !ok {
		return nil
	}

	if targetID == "" {
		return bfsEdgeList(s, start, maxDepth, followSeams)
	}

	end, ok := s.posFor(targetID)
	if !ok || start == end {
		return nil
	}

	type parentEdge struct {
		from    int
		relType RelationshipType
	}
	visited := make([]bool, s.size())
	parent := make(map[int]parentEdge)
	visited[start] = true
	queue := []int{start}

	for depth := 0; len(queue) > 0 && depth < maxDepth; depth++ {
		var next []int
		for _, pos := range queue {
			for _, e := range s.out[pos] {
				if !followSeams && e.relType == RelSeam {
					continue
				}
				if visited[e.to] {
					continue
				}
				visited[e.to] = true
				parent[e.to] = parentEdge{from: pos, relType: e.relType}
				if e.to == end {
					var chain []TraversalEdge
					for cur := end; cur != start; {
						p := parent[cur]
						chain = append(chain, TraversalEdge{SourceID: s.idFor(p.from), TargetID: s.idFor(cur), RelationshipType: p.relType})
						cur = p.from
					}
					for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
						chain[i], chain[j] = chain[j], chain[i]
					}
					return chain
				}
				next = append(next, e.to)
			}
		}
		queue = next
	}
	return nil
}

// bfsEdgeList returns the edges of a breadth-first walk from start, up to
// maxDepth hops, in visitation order.
func bfsEdgeList(s *snapshot, start, maxDepth int, followSeams bool) []TraversalEdge {
	visited := make([]bool, s.size())
	visited[start] = true
	var edges []TraversalEdge
	queue := []int{start}

	for depth := 0; len(queue) > 0 && depth < maxDepth; depth++ {
		var next []int
		for _, pos := range queue {
			for _, e := range s.out[pos] {
				if !followSeams && e.relType == RelSeam {
					continue
				}
				if visited[e.to] {
					continue
				}
				visited[e.to] = true
				edges = append(edges, TraversalEdge{SourceID: s.idFor(pos), TargetID: s.idFor(e.to), RelationshipType: e.relType})
				next = append(next, e.to)
			}
		}
		queue = next
	}
	return edges
}

// SeamBridge describes one cross-language call boundary discovered by
// TraceCrossLanguageFlow.
type SeamBridge struct {
	SourceID     string
	TargetID     string
	FromLanguage string
	ToLanguage   string
}

// CrossLanguageTrace is the result of following the call graph from a
// node, recording every seam it crosses along the way.
type CrossLanguageTrace struct {
	VisitedIDs  []string
	SeamBridges []SeamBridge
}

// TraceCrossLanguageFlow walks outgoing edges from startID up to
// maxDepth hops, recording each SEAM-typed edge it crosses as a bridge
// between the two languages involved.
func (g *Graph) TraceCrossLanguageFlow(startID string, maxDepth int) CrossLanguageTrace {
	s := g.snapshotGraph()
	start, ok := s.posFor(startID)
	if !ok {
		return CrossLanguageTrace{}
	}

	visited := make([]bool, s.size())
	visited[start] = true
	var trace CrossLanguageTrace
	trace.VisitedIDs = append(trace.VisitedIDs, s.idFor(start))

	queue := []struct{ pos, depth int }{{start, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		for _, e := range s.out[cur.pos] {
			if e.relType == RelSeam {
				trace.SeamBridges = append(trace.SeamBridges, SeamBridge{
					SourceID:     s.idFor(cur.pos),
					TargetID:     s.idFor(e.to),
					FromLanguage: s.node[cur.pos].Language,
					ToLanguage:   s.node[e.to].Language,
				})
			}
			if !visited[e.to] {
				visited[e.to] = true
				trace.VisitedIDs = append(trace.VisitedIDs, s.idFor(e.to))
				queue = append(queue, struct{ pos, depth int }{e.to, cur.depth + 1})
			}
		}
	}
	return trace
}

// ConnectedComponents returns the graph's weakly connected components
// (connectivity ignoring edge direction).
func (g *Graph) ConnectedComponents() [][]string {
	s := g.snapshotGraph()
	undirected := buildUndirectedAdjacency(s)
	visited := make([]bool, s.size())
	var components [][]string

	for start := 0; start < s.size(); start++ {
		if visited[start] {
			continue
		}
		var comp []string
		queue := []int{start}
		visited[start] = true
		for len(queue) > 0 {
			pos := queue[0]
			queue = queue[1:]
			comp = append(comp, s.idFor(pos))
			for _, next := range undirected[pos] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
		components = append(components, comp)
	}
	return components
}
