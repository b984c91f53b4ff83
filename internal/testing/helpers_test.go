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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codegraph/pkg/graph"
)

// TestNewTestGraph verifies a fresh graph starts empty.
func TestNewTestGraph(t *testing.T) {
	g := NewTestGraph(t)
	require.NotNil(t, g)
	assert.Equal(t, 0, g.NodeCount())
}

// TestAddTestFunction verifies function node seeding.
func TestAddTestFunction(t *testing.T) {
	g := NewTestGraph(t)

	id := AddTestFunction(t, g, "func_123", "HandleAuth", "auth.go", 10, 25)

	node, ok := g.GetNode(id)
	require.True(t, ok)
	assert.Equal(t, "HandleAuth", node.Name)
	assert.Equal(t, graph.NodeFunction, node.NodeType)
}

// TestAddTestFile verifies file node seeding.
func TestAddTestFile(t *testing.T) {
	g := NewTestGraph(t)

	id := AddTestFile(t, g, "auth.go", "go")

	node, ok := g.GetNode(id)
	require.True(t, ok)
	assert.Equal(t, "auth.go", node.Name)
	assert.Equal(t, "go", node.Language)
}

// TestAddTestClass verifies class node seeding.
func TestAddTestClass(t *testing.T) {
	g := NewTestGraph(t)

	id := AddTestClass(t, g, "type_123", "UserService", "user.go", 10, 50)

	node, ok := g.GetNode(id)
	require.True(t, ok)
	assert.Equal(t, "UserService", node.Name)
	assert.Equal(t, graph.NodeClass, node.NodeType)
}

// TestMultipleInserts verifies multiple functions can be seeded.
func TestMultipleInserts(t *testing.T) {
	g := NewTestGraph(t)

	AddTestFunction(t, g, "func1", "Main", "main.go", 5, 10)
	AddTestFunction(t, g, "func2", "Helper", "util.go", 15, 20)
	AddTestFunction(t, g, "func3", "Process", "processor.go", 25, 35)

	assert.Equal(t, 3, g.NodeCount())
}

// TestEdgeInsertion verifies CONTAINS/CALLS relationships can be seeded.
func TestEdgeInsertion(t *testing.T) {
	g := NewTestGraph(t)

	AddTestFile(t, g, "main.go", "go")
	AddTestFunction(t, g, "func1", "main", "main.go", 1, 10)
	AddTestFunction(t, g, "func2", "helper", "main.go", 12, 15)

	AddTestContains(t, g, graph.FileID("main.go"), "func1")
	AddTestCalls(t, g, "func1", "func2")

	callers := g.GetRelationshipsTo("func2")
	require.Len(t, callers, 1)
	assert.Equal(t, graph.RelCalls, callers[0].RelationshipType)
	assert.Equal(t, "func1", callers[0].SourceID)
}

// TestAddTestImports verifies IMPORTS relationships can be seeded.
func TestAddTestImports(t *testing.T) {
	g := NewTestGraph(t)

	AddTestFile(t, g, "auth.go", "go")
	g.AddNode(graph.Node{ID: graph.ModuleID("fmt"), Name: "fmt", NodeType: graph.NodeModule})
	AddTestImports(t, g, "auth.go", graph.ModuleID("fmt"))

	rels := g.GetRelationshipsFrom(graph.FileID("auth.go"))
	require.Len(t, rels, 1)
	assert.Equal(t, graph.RelImports, rels[0].RelationshipType)
	assert.Equal(t, graph.ModuleID("fmt"), rels[0].TargetID)
}

// TestGraphIsolation verifies each test gets its own graph instance.
func TestGraphIsolation(t *testing.T) {
	g1 := NewTestGraph(t)
	AddTestFunction(t, g1, "func1", "Test1", "file1.go", 1, 10)

	g2 := NewTestGraph(t)
	assert.Equal(t, 0, g2.NodeCount(), "second graph should be isolated from first")
	assert.Equal(t, 1, g1.NodeCount(), "first graph should still have its data")
}
