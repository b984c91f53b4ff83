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
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/internal/output"
	"github.com/kraklabs/codegraph/internal/ui"
	"github.com/kraklabs/codegraph/pkg/extsync"
	"github.com/kraklabs/codegraph/pkg/orchestrator"
)

// runIndex executes the 'index' command, analyzing the project root named
// in the loaded configuration (found by walking up from the current
// directory, or given with --config) and reporting the resulting project
// statistics.
func runIndex(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	full := fs.Bool("full", false, "Force a full re-analysis, discarding the current graph")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraphd index [options]

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logger := newLogger(globals)
	app, closeFn, err := buildApp(cfg, logger)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	defer closeFn()
	o := app.orchestrator

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Analysis.TimeoutSeconds)*time.Second+5*time.Second)
	defer cancel()

	if !globals.Quiet {
		ui.Info(fmt.Sprintf("Analyzing %s...", cfg.ProjectRoot))
	}

	var stats orchestrator.ProjectStats
	if *full {
		stats, err = o.ForceReanalysis(ctx)
	} else {
		stats, err = o.ResumeAnalysis(ctx)
	}
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Analysis failed",
			err.Error(),
			"Check the project path and connectivity to Redis/Neo4j, then retry",
			err,
		), globals.JSON)
	}

	if app.syncer != nil {
		syncToExternalStore(ctx, app, globals)
	}

	if globals.JSON {
		if err := output.JSON(stats); err != nil {
			errors.FatalError(err, globals.JSON)
		}
		return
	}

	printIndexResult(stats)
}

// syncToExternalStore drains every CDC event the just-finished analysis
// produced into the configured Neo4j store, then persists the stream
// offset so the next index run resumes from here rather than re-tailing
// the whole stream.
func syncToExternalStore(ctx context.Context, app *builtApp, globals GlobalFlags) {
	n, err := app.syncer.Drain(ctx)
	if err != nil {
		if !globals.Quiet {
			ui.Warning(fmt.Sprintf("External-store sync incomplete: %s", err))
		}
		return
	}
	if err := extsync.SaveOffset(app.offsetPath, app.syncer.Stats().LastStreamID); err != nil {
		ui.Warning(fmt.Sprintf("Could not persist sync offset: %s", err))
	}
	if !globals.Quiet && n > 0 {
		ui.Info(fmt.Sprintf("Synced %d event(s) to external store", n))
	}
}

func printIndexResult(stats orchestrator.ProjectStats) {
	ui.Success(fmt.Sprintf("Indexed %d files", stats.FilesProcessed))
	ui.Info(fmt.Sprintf("Nodes: %d", stats.TotalNodes))
	ui.Info(fmt.Sprintf("Relationships: %d", stats.TotalRelationships))
	for _, lang := range stats.Languages {
		fmt.Printf("  - %s\n", lang)
	}
}
