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

// Package wire holds the canonical, flat JSON records the graph
// subsystem returns across its external interfaces: CLI output, the
// Analysis Orchestrator's query results, and anything else that
// crosses a process boundary. Nothing in this package touches the
// graph's internal arena indices; every record is built from exported
// graph.Node / graph.Relationship fields only.
package wire

import (
	"strconv"

	"github.com/kraklabs/codegraph/pkg/graph"
)

// NodeResponse is the wire form of a graph.Node.
type NodeResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	NodeType   string            `json:"node_type"`
	FilePath   string            `json:"file_path"`
	StartLine  int               `json:"start_line"`
	EndLine    int               `json:"end_line"`
	Language   string            `json:"language"`
	Complexity uint32            `json:"complexity"`
	LineCount  uint32            `json:"line_count"`
	Content    string            `json:"content,omitempty"`
	Docstring  string            `json:"docstring,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// NewNodeResponse projects a graph.Node onto its wire form.
func NewNodeResponse(n graph.Node) NodeResponse {
	return NodeResponse{
		ID:         n.ID,
		Name:       n.Name,
		NodeType:   string(n.NodeType),
		FilePath:   n.Location.FilePath,
		StartLine:  n.Location.StartLine,
		EndLine:    n.Location.EndLine,
		Language:   n.Language,
		Complexity: n.Complexity,
		LineCount:  n.LineCount,
		Content:    n.Content,
		Docstring:  n.Docstring,
		Metadata:   n.Metadata,
	}
}

// RelationshipResponse is the wire form of a graph.Relationship.
type RelationshipResponse struct {
	ID               string            `json:"id"`
	SourceID         string            `json:"source_id"`
	TargetID         string            `json:"target_id"`
	RelationshipType string            `json:"relationship_type"`
	Strength         float32           `json:"strength"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// NewRelationshipResponse projects a graph.Relationship onto its wire form.
func NewRelationshipResponse(r graph.Relationship) RelationshipResponse {
	return RelationshipResponse{
		ID:               r.ID,
		SourceID:         r.SourceID,
		TargetID:         r.TargetID,
		RelationshipType: string(r.RelationshipType),
		Strength:         r.Strength,
		Metadata:         r.Metadata,
	}
}

// TraversalResponse is the result of a path, ancestor, descendant, or
// call-chain query: an ordered sequence of nodes and the edges that
// connect consecutive pairs.
type TraversalResponse struct {
	Nodes         []NodeResponse         `json:"nodes"`
	Relationships []RelationshipResponse `json:"relationships"`
	Truncated     bool                   `json:"truncated,omitempty"`
}

// SearchResultResponse wraps a ranked set of nodes matching a name or
// symbol query.
type SearchResultResponse struct {
	Query   string         `json:"query"`
	Results []NodeResponse `json:"results"`
	Total   int            `json:"total"`
}

// SeamResponse describes one cross-language boundary: a SEAM edge plus
// the two nodes it connects, annotated with their differing languages.
type SeamResponse struct {
	From         NodeResponse         `json:"from"`
	To           NodeResponse         `json:"to"`
	Relationship RelationshipResponse `json:"relationship"`
	FromLanguage string               `json:"from_language"`
	ToLanguage   string               `json:"to_language"`
}

// NewSeamResponse builds a SeamResponse from a SEAM relationship and
// its resolved endpoints.
func NewSeamResponse(rel graph.Relationship, from, to graph.Node) SeamResponse {
	return SeamResponse{
		From:         NewNodeResponse(from),
		To:           NewNodeResponse(to),
		Relationship: NewRelationshipResponse(rel),
		FromLanguage: from.Language,
		ToLanguage:   to.Language,
	}
}

// NodesToResponses projects a slice of graph.Node onto their wire forms.
func NodesToResponses(nodes []graph.Node) []NodeResponse {
	out := make([]NodeResponse, len(nodes))
	for i, n := range nodes {
		out[i] = NewNodeResponse(n)
	}
	return out
}

// RelationshipsToResponses projects a slice of graph.Relationship onto
// their wire forms.
func RelationshipsToResponses(rels []graph.Relationship) []RelationshipResponse {
	out := make([]RelationshipResponse, len(rels))
	for i, r := range rels {
		out[i] = NewRelationshipResponse(r)
	}
	return out
}

// TraversalEdgesToResponses projects graph.TraversalEdge values (edges
// reported by depth-bounded and call-chain traversals, which carry no
// edge id, strength or metadata) onto the same wire shape as a full
// RelationshipResponse, leaving those fields at their zero values.
func TraversalEdgesToResponses(edges []graph.TraversalEdge) []RelationshipResponse {
	out := make([]RelationshipResponse, len(edges))
	for i, e := range edges {
		out[i] = RelationshipResponse{
			SourceID:         e.SourceID,
			TargetID:         e.TargetID,
			RelationshipType: string(e.RelationshipType),
		}
	}
	return out
}

// DepthTraversalResponse is the wire form of graph.DepthTraversalResult.
// Depths are stringified since JSON object keys must be strings.
type DepthTraversalResponse struct {
	NodesByDepth    map[string][]string    `json:"nodes_by_depth"`
	TotalNodes      int                    `json:"total_nodes"`
	SeamEdges       []RelationshipResponse `json:"seam_edges"`
	MaxDepthReached int                    `json:"max_depth_reached"`
}

// NewDepthTraversalResponse projects a graph.DepthTraversalResult onto
// its wire form.
func NewDepthTraversalResponse(r graph.DepthTraversalResult) DepthTraversalResponse {
	byDepth := make(map[string][]string, len(r.NodesByDepth))
	for depth, ids := range r.NodesByDepth {
		byDepth[strconv.Itoa(depth)] = ids
	}
	return DepthTraversalResponse{
		NodesByDepth:    byDepth,
		TotalNodes:      r.TotalNodes,
		SeamEdges:       TraversalEdgesToResponses(r.SeamEdges),
		MaxDepthReached: r.MaxDepthReached,
	}
}
