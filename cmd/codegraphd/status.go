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

package main

import (
	"fmt"
	"os"

	"github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/internal/output"
	"github.com/kraklabs/codegraph/internal/ui"
	"github.com/kraklabs/codegraph/pkg/orchestrator"
)

// StatusResult is the combined project + watcher status reported by the
// 'status' command.
type StatusResult struct {
	Project orchestrator.ProjectStats `json:"project"`
	Watcher orchestrator.WatcherStats `json:"watcher"`
}

// runStatus executes the 'status' command, reporting project statistics
// and file-watcher state for the current project.
func runStatus(args []string, configPath string, globals GlobalFlags) {
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Usage: codegraphd [--json] status\n")
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logger := newLogger(globals)
	o, closeFn, err := buildOrchestrator(cfg, logger)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	defer closeFn()

	result := StatusResult{
		Project: o.GetProjectStats(),
		Watcher: o.GetFileWatcherStats(),
	}

	if globals.JSON {
		if err := output.JSON(result); err != nil {
			errors.FatalError(err, globals.JSON)
		}
		return
	}

	printLocalStatus(result)
}

func printLocalStatus(result StatusResult) {
	ui.Header("Project Status")
	fmt.Printf("  Nodes:          %d\n", result.Project.TotalNodes)
	fmt.Printf("  Relationships:  %d\n", result.Project.TotalRelationships)
	fmt.Printf("  Files processed: %d\n", result.Project.FilesProcessed)
	if !result.Project.LastAnalysis.IsZero() {
		fmt.Printf("  Last analysis:  %s\n", result.Project.LastAnalysis.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Printf("  Last analysis:  never (run 'codegraphd index')\n")
	}
	for nodeType, count := range result.Project.NodesByType {
		fmt.Printf("    %-12s %d\n", nodeType, count)
	}

	ui.Header("Watcher")
	if result.Watcher.Active {
		ui.Success(fmt.Sprintf("active (debounce %.1fs, %d pending)", result.Watcher.DebounceSeconds, result.Watcher.PendingFiles))
	} else {
		ui.Warning("inactive")
	}
}
