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

// app.go wires together one Orchestrator instance from a loaded Config,
// shared by the index, status, and query commands.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/pkg/astmatch"
	"github.com/kraklabs/codegraph/pkg/cache"
	"github.com/kraklabs/codegraph/pkg/cdc"
	"github.com/kraklabs/codegraph/pkg/extsync"
	"github.com/kraklabs/codegraph/pkg/graph"
	"github.com/kraklabs/codegraph/pkg/ignore"
	"github.com/kraklabs/codegraph/pkg/orchestrator"
	"github.com/kraklabs/codegraph/pkg/parser"
	"github.com/kraklabs/codegraph/pkg/router"
)

// builtApp bundles the Orchestrator with the optional External-store Sync
// syncer, so callers that care about Neo4j sync (currently just 'index')
// can drive it without every command needing to know extsync exists.
type builtApp struct {
	orchestrator *orchestrator.Orchestrator
	syncer       *extsync.Syncer
	offsetPath   string
}

// buildOrchestrator assembles the Universal Parser, Code Graph Engine,
// Hybrid Cache Manager, CDC Manager, Hybrid Query Router and External-store
// Sync described by cfg into one Orchestrator, and returns a cleanup
// function that closes the Redis client and, if configured, the Neo4j
// driver.
func buildOrchestrator(cfg *Config, logger *slog.Logger) (*orchestrator.Orchestrator, func(), error) {
	app, closeFn, err := buildApp(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return app.orchestrator, closeFn, nil
}

// buildApp is buildOrchestrator's full form, additionally wiring an
// extsync.Syncer when neo4j_uri is configured.
func buildApp(cfg *Config, logger *slog.Logger) (*builtApp, func(), error) {
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	cacheMgr := cache.New(cfg.ProjectID, cache.Strategy(cfg.Cache.Strategy), redisClient,
		cache.WithLogger(logger),
		cache.WithCompressionThreshold(cfg.Cache.CompressionThresholdBytes),
	)

	cdcMgr := cdc.New(redisClient,
		cdc.WithStreamKey(cfg.CDC.StreamKey),
		cdc.WithPubSubKey(cfg.CDC.PubSubKey),
		cdc.WithLogger(logger),
	)

	matcher := astmatch.New(logger)
	p := parser.New(cfg.ProjectID, matcher, cacheMgr,
		parser.WithLogger(logger),
		parser.WithMaxFileBytes(cfg.Parser.MaxFileBytes),
	)

	g := graph.New(
		graph.WithLogger(logger),
		graph.WithRecursionPatterns(cfg.Graph.RecursionNamePatterns),
	)

	rtr := router.New(router.WithHopThreshold(cfg.Router.HopThreshold))

	ig := ignore.New(logger, cfg.Parser.MaxFileBytes)

	o := orchestrator.New(orchestrator.Config{
		ProjectRoot: cfg.ProjectRoot,
		Timeout:     time.Duration(cfg.Analysis.TimeoutSeconds) * time.Second,
		Debounce:    time.Duration(cfg.Watcher.DebounceSeconds * float64(time.Second)),
	}, g, p, cacheMgr, cdcMgr, rtr, ig,
		orchestrator.WithLogger(logger),
		orchestrator.WithCheckpointPath(filepath.Join(ConfigDir(cfg.ProjectRoot), "checkpoint.json")),
	)

	cleanup := func() { _ = redisClient.Close() }

	app := &builtApp{orchestrator: o}

	if cfg.Neo4jURI != "" {
		driver, err := extsync.NewDriver(context.Background(), cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPass)
		if err != nil {
			return nil, nil, errors.NewExternalStoreUnavailableError(
				"Cannot connect to Neo4j",
				err.Error(),
				"Check neo4j_uri, neo4j_user and neo4j_password in project.yaml, or leave neo4j_uri blank to skip external sync",
				err,
			)
		}
		prevCleanup := cleanup
		cleanup = func() {
			prevCleanup()
			_ = driver.Close(context.Background())
		}

		offsetPath := filepath.Join(ConfigDir(cfg.ProjectRoot), "sync_offset.json")
		startID, err := extsync.LoadOffset(offsetPath)
		if err != nil {
			logger.Warn("extsync.offset.load_failed", "error", err)
		}

		app.syncer = extsync.New(driver, "", cdcMgr,
			extsync.WithLogger(logger),
			extsync.WithStartID(startID),
			extsync.WithWriteRateLimit(50, 10),
		)
		app.offsetPath = offsetPath
	}

	return app, cleanup, nil
}

// newLogger builds the process-wide structured logger at a level derived
// from the CLI's verbosity flags.
func newLogger(globals GlobalFlags) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case globals.Verbose >= 2:
		level = slog.LevelDebug
	case globals.Verbose == 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
