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
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// snapshotDoc is the JSON-serializable form of a Graph's full contents.
type snapshotDoc struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// MarshalJSON renders every live node and edge as a single document.
// Loading the result back with LoadJSON reconstructs a graph with the
// same nodes and edges, though arena slot assignment is not preserved
// (it is never part of the public contract).
func (g *Graph) MarshalJSON() ([]byte, error) {
	doc := snapshotDoc{
		Nodes:         g.AllNodes(),
		Relationships: g.AllRelationships(),
	}
	return json.Marshal(doc)
}

// LoadJSON replaces the graph's contents with the nodes and edges
// encoded in data, as produced by MarshalJSON.
func (g *Graph) LoadJSON(data []byte) error {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode graph snapshot: %w", err)
	}
	g.Clear()
	for _, n := range doc.Nodes {
		g.AddNode(n)
	}
	for _, r := range doc.Relationships {
		g.AddRelationship(r)
	}
	return nil
}

// nodeShape returns the Graphviz node shape for t: a box for FUNCTION
// nodes, an ellipse for everything else (METHOD included).
func nodeShape(t NodeType) string {
	if t == NodeFunction {
		return "box"
	}
	return "ellipse"
}

// nodeColor maps a NodeType to its DOT fill color. Types outside the
// mapped set (METHOD, PARAMETER, OTHER) fall back to white.
func nodeColor(t NodeType) string {
	switch t {
	case NodeModule:
		return "lightblue"
	case NodeClass:
		return "lightgreen"
	case NodeFunction:
		return "orange"
	case NodeVariable:
		return "lightgray"
	case NodeImport:
		return "purple"
	default:
		return "white"
	}
}

// edgeColor maps a RelationshipType to its DOT edge color.
func edgeColor(t RelationshipType) string {
	switch t {
	case RelCalls:
		return "red"
	case RelContains:
		return "blue"
	case RelImports:
		return "green"
	case RelReferences:
		return "orange"
	case RelInherits:
		return "purple"
	default:
		return "black"
	}
}

// ToDOT renders the graph as a Graphviz DOT digraph: nodes are shaped and
// colored by NodeType, edges colored by RelationshipType, so a rendered
// graph is readable without cross-referencing a legend.
func (g *Graph) ToDOT() string {
	nodes := g.AllNodes()
	rels := g.AllRelationships()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })

	var b strings.Builder
	b.WriteString("digraph codegraph {\n")
	for _, n := range nodes {
		label := fmt.Sprintf("%s\n(%s)", n.Name, n.NodeType)
		fmt.Fprintf(&b, "  %q [label=%q, shape=%s, style=filled, fillcolor=%s, type=%q, language=%q];\n",
			n.ID, label, nodeShape(n.NodeType), nodeColor(n.NodeType), n.NodeType, n.Language)
	}
	for _, r := range rels {
		fmt.Fprintf(&b, "  %q -> %q [type=%q, color=%s, strength=%f];\n",
			r.SourceID, r.TargetID, r.RelationshipType, edgeColor(r.RelationshipType), r.Strength)
	}
	b.WriteString("}\n")
	return b.String()
}

// ToGraphML renders the graph in the GraphML XML interchange format.
func (g *Graph) ToGraphML() string {
	nodes := g.AllNodes()
	rels := g.AllRelationships()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<graphml xmlns="http://graphml.graphdrawing.org/xmlns">` + "\n")
	b.WriteString(`  <key id="name" for="node" attr.name="name" attr.type="string"/>` + "\n")
	b.WriteString(`  <key id="node_type" for="node" attr.name="node_type" attr.type="string"/>` + "\n")
	b.WriteString(`  <key id="language" for="node" attr.name="language" attr.type="string"/>` + "\n")
	b.WriteString(`  <key id="relationship_type" for="edge" attr.name="relationship_type" attr.type="string"/>` + "\n")
	b.WriteString(`  <key id="strength" for="edge" attr.name="strength" attr.type="double"/>` + "\n")
	b.WriteString(`  <graph id="codegraph" edgedefault="directed">` + "\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "    <node id=%q>\n", n.ID)
		fmt.Fprintf(&b, "      <data key=\"name\">%s</data>\n", xmlEscape(n.Name))
		fmt.Fprintf(&b, "      <data key=\"node_type\">%s</data>\n", n.NodeType)
		fmt.Fprintf(&b, "      <data key=\"language\">%s</data>\n", xmlEscape(n.Language))
		b.WriteString("    </node>\n")
	}
	for _, r := range rels {
		fmt.Fprintf(&b, "    <edge id=%q source=%q target=%q>\n", r.ID, r.SourceID, r.TargetID)
		fmt.Fprintf(&b, "      <data key=\"relationship_type\">%s</data>\n", r.RelationshipType)
		fmt.Fprintf(&b, "      <data key=\"strength\">%f</data>\n", r.Strength)
		b.WriteString("    </edge>\n")
	}
	b.WriteString("  </graph>\n")
	b.WriteString("</graphml>\n")
	return b.String()
}

func xmlEscape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}
