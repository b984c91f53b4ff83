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

// Package bootstrap handles project initialization and discovery.
//
// This internal package creates a project's local data directory and
// records the connection settings the Hybrid Cache Manager, CDC Pipeline,
// and External-store Sync components need once the Analysis Orchestrator
// wires them up. It does not connect to Redis or the external graph store
// itself; those connections are established lazily by their owning
// components.
//
// # Initialization Workflow
//
//	info, err := bootstrap.InitProject(bootstrap.ProjectConfig{
//	    ProjectID: "myproject",
//	    RedisAddr: "localhost:6379", // optional, this is the default
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Project initialized at: %s\n", info.DataDir)
//
//	// Later, open the project to recover its recorded settings.
//	info, err = bootstrap.OpenProject(bootstrap.ProjectConfig{
//	    ProjectID: "myproject",
//	}, logger)
//
// # Idempotency
//
// InitProject is idempotent: calling it again on the same project refreshes
// the marker file's connection settings without touching cache or CDC
// state already on disk.
//
// # Configuration
//
//   - ProjectID: Required. Logical identifier for the project.
//   - DataDir: Optional. Defaults to ~/.codegraph/data/<project_id>.
//   - RedisAddr: Optional. Defaults to "localhost:6379".
//   - Neo4jURI: Optional. Empty disables External-store Sync.
//
// # Project Discovery
//
//	projects, err := bootstrap.ListProjects()
//	for _, id := range projects {
//	    fmt.Println(id)
//	}
package bootstrap
