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

package testing

import (
	"testing"

	"github.com/kraklabs/codegraph/pkg/graph"
)

// NewTestGraph creates an empty graph for seeding by the AddTest* helpers.
//
// Example:
//
//	g := testing.NewTestGraph(t)
//	testing.AddTestFunction(t, g, "func1", "HandleAuth", "auth.go", 10, 25)
func NewTestGraph(t *testing.T) *graph.Graph {
	t.Helper()
	return graph.New()
}

// AddTestFile adds a FILE node (an OTHER node tagged with the file's
// language) to g and returns its id.
//
// Example:
//
//	testing.AddTestFile(t, g, "auth.go", "go")
func AddTestFile(t *testing.T, g *graph.Graph, path, language string) string {
	t.Helper()

	id := graph.FileID(path)
	g.AddNode(graph.Node{
		ID:       id,
		Name:     path,
		NodeType: graph.NodeOther,
		Language: language,
		Location: graph.Location{FilePath: path},
	})
	return id
}

// AddTestFunction adds a FUNCTION node and returns its id.
//
// Example:
//
//	testing.AddTestFunction(t, g, "func_123", "HandleAuth", "auth.go", 10, 25)
func AddTestFunction(t *testing.T, g *graph.Graph, id, name, filePath string, startLine, endLine int) string {
	t.Helper()
	return addTestCallable(t, g, graph.NodeFunction, id, name, filePath, startLine, endLine)
}

// AddTestMethod adds a METHOD node and returns its id.
func AddTestMethod(t *testing.T, g *graph.Graph, id, name, filePath string, startLine, endLine int) string {
	t.Helper()
	return addTestCallable(t, g, graph.NodeMethod, id, name, filePath, startLine, endLine)
}

func addTestCallable(t *testing.T, g *graph.Graph, nodeType graph.NodeType, id, name, filePath string, startLine, endLine int) string {
	t.Helper()

	nodeID := id
	if nodeID == "" {
		nodeID = graph.FunctionID(filePath, name, startLine)
	}
	g.AddNode(graph.Node{
		ID:       nodeID,
		Name:     name,
		NodeType: nodeType,
		Location: graph.Location{FilePath: filePath, StartLine: startLine, EndLine: endLine},
	})
	return nodeID
}

// AddTestClass adds a CLASS node and returns its id.
//
// Example:
//
//	testing.AddTestClass(t, g, "type_123", "UserService", "user.go", 10, 50)
func AddTestClass(t *testing.T, g *graph.Graph, id, name, filePath string, startLine, endLine int) string {
	t.Helper()

	nodeID := id
	if nodeID == "" {
		nodeID = graph.ClassID(filePath, name, startLine)
	}
	g.AddNode(graph.Node{
		ID:       nodeID,
		Name:     name,
		NodeType: graph.NodeClass,
		Location: graph.Location{FilePath: filePath, StartLine: startLine, EndLine: endLine},
	})
	return nodeID
}

// AddTestContains adds a CONTAINS relationship from containerID to
// memberID (e.g. a file node to a function node it declares).
//
// Example:
//
//	testing.AddTestContains(t, g, "file_123", "func_123")
func AddTestContains(t *testing.T, g *graph.Graph, containerID, memberID string) string {
	t.Helper()
	return addTestRelationship(g, graph.RelContains, containerID, memberID)
}

// AddTestCalls adds a CALLS relationship from callerID to calleeID.
//
// Example:
//
//	testing.AddTestCalls(t, g, "func1", "func2")
func AddTestCalls(t *testing.T, g *graph.Graph, callerID, calleeID string) string {
	t.Helper()
	return addTestRelationship(g, graph.RelCalls, callerID, calleeID)
}

// AddTestImports adds an IMPORTS relationship from a file node to an
// import target (a file id, or a module id for an unresolved target).
//
// Example:
//
//	testing.AddTestImports(t, g, "auth.go", "fmt")
func AddTestImports(t *testing.T, g *graph.Graph, fromFilePath, target string) string {
	t.Helper()
	return addTestRelationship(g, graph.RelImports, graph.FileID(fromFilePath), target)
}

func addTestRelationship(g *graph.Graph, relType graph.RelationshipType, sourceID, targetID string) string {
	id := graph.RelationshipID(relType, sourceID, targetID)
	g.AddRelationship(graph.Relationship{
		ID:               id,
		SourceID:         sourceID,
		TargetID:         targetID,
		RelationshipType: relType,
		Strength:         1.0,
	})
	return id
}
