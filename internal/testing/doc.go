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

// Package testing provides fixture-builder helpers for Code Graph Engine
// tests: a fresh in-memory graph plus convenience functions for seeding
// FUNCTION/FILE/TYPE nodes and CONTAINS/CALLS/IMPORTS relationships,
// without going through the Universal Parser.
//
// # Quick Start
//
// Use NewTestGraph to create an empty graph and the AddTest* helpers to
// seed it directly:
//
//	func TestMyFeature(t *testing.T) {
//	    g := testing.NewTestGraph(t)
//
//	    testing.AddTestFile(t, g, "auth.go", "go")
//	    testing.AddTestFunction(t, g, "func_1", "HandleAuth", "auth.go", 10, 25)
//	    testing.AddTestFunction(t, g, "func_2", "validate", "auth.go", 30, 40)
//	    testing.AddTestCalls(t, g, "func_1", "func_2")
//
//	    callers := g.GetRelationshipsTo("func_2")
//	    require.Len(t, callers, 1)
//	}
//
// # Seeding helpers
//
//   - AddTestFile: add a FILE node (an OTHER node carrying the file's path)
//   - AddTestFunction / AddTestMethod: add a FUNCTION/METHOD node
//   - AddTestClass: add a CLASS node
//   - AddTestContains: link a file to something it declares
//   - AddTestCalls: link a caller function to a callee function
//   - AddTestImports: link a file to an import target
package testing
