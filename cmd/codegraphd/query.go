// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/internal/output"
	"github.com/kraklabs/codegraph/internal/ui"
	"github.com/kraklabs/codegraph/pkg/orchestrator"
	"github.com/kraklabs/codegraph/pkg/wire"
)

// runQuery executes the 'query' command: one of the Analysis
// Orchestrator's named query operations against the current project.
func runQuery(args []string, configPath string, globals GlobalFlags) {
	if len(args) == 0 {
		outputQueryError(errors.NewInputError(
			"Missing query operation",
			"codegraphd query requires an operation name",
			"Usage: codegraphd query <definition|references|callers|callees|complexity|deps|insights|depth|callchain> [arg]",
		), globals.JSON)
		os.Exit(1)
	}

	op := args[0]
	opArgs := args[1:]

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

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Analysis.TimeoutSeconds)*time.Second+5*time.Second)
	defer cancel()

	result, err := dispatchQuery(ctx, o, op, opArgs)
	if err != nil {
		outputQueryError(err, globals.JSON)
		os.Exit(1)
	}

	if globals.JSON {
		if err := output.JSON(result); err != nil {
			errors.FatalError(err, globals.JSON)
		}
		return
	}

	printQueryResult(result)
}

func dispatchQuery(ctx context.Context, o *orchestrator.Orchestrator, op string, args []string) (any, error) {
	switch op {
	case "definition":
		return o.FindSymbolDefinition(ctx, arg(args, 0))
	case "references":
		return o.FindSymbolReferences(ctx, arg(args, 0))
	case "callers":
		return o.FindFunctionCallers(ctx, arg(args, 0))
	case "callees":
		return o.FindFunctionCallees(ctx, arg(args, 0))
	case "complexity":
		threshold, _ := strconv.ParseUint(arg(args, 0), 10, 32)
		if threshold == 0 {
			threshold = 10
		}
		return o.AnalyzeComplexity(uint32(threshold)), nil
	case "deps":
		return o.GetDependencyGraph(), nil
	case "insights":
		return o.GetCodeInsights(), nil
	case "depth":
		maxDepth, _ := strconv.Atoi(arg(args, 1))
		if maxDepth == 0 {
			maxDepth = 5
		}
		return o.FindNodesAtDepth(ctx, arg(args, 0), maxDepth, arg(args, 2) == "seams")
	case "callchain":
		return o.FindCallChain(ctx, arg(args, 0), arg(args, 1), arg(args, 2) == "seams", 20)
	default:
		return nil, errors.NewInputError(
			"Unknown query operation",
			fmt.Sprintf("'%s' is not a recognized query operation", op),
			"Use one of: definition, references, callers, callees, complexity, deps, insights, depth, callchain",
		)
	}
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func outputQueryError(err error, jsonOutput bool) {
	if jsonOutput {
		_ = output.JSONError(err)
		return
	}
	ui.Error(err.Error())
}

func printQueryResult(result any) {
	switch v := result.(type) {
	case []wire.NodeResponse:
		for _, n := range v {
			fmt.Printf("%-10s %-30s %s:%d\n", n.NodeType, n.Name, n.FilePath, n.StartLine)
		}
		ui.Info(fmt.Sprintf("%d result(s)", len(v)))
	case []wire.RelationshipResponse:
		for _, r := range v {
			fmt.Printf("%-15s %s -> %s\n", r.RelationshipType, r.SourceID, r.TargetID)
		}
		ui.Info(fmt.Sprintf("%d result(s)", len(v)))
	case wire.TraversalResponse:
		fmt.Printf("%d nodes, %d relationships\n", len(v.Nodes), len(v.Relationships))
	case wire.DepthTraversalResponse:
		fmt.Printf("%d node(s) across depths 0-%d, %d seam edge(s)\n", v.TotalNodes, v.MaxDepthReached, len(v.SeamEdges))
	case orchestrator.CodeInsights:
		fmt.Printf("Entry points: %d\n", len(v.EntryPoints))
		fmt.Printf("Top by centrality: %d\n", len(v.TopByPageRank))
		fmt.Printf("Cycles: %d\n", len(v.Cycles))
		fmt.Printf("Reachability ratio: %.2f (mean dist %.1f, range [%.1f, %.1f], negative cycle: %v)\n",
			v.Connectivity.ReachabilityRatio, v.Connectivity.MeanDistance,
			v.Connectivity.MinDistance, v.Connectivity.MaxDistance, v.Connectivity.HasNegativeCycle)
	default:
		fmt.Printf("%v\n", v)
	}
}
