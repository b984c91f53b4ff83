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

// Package orchestrator is the Analysis Orchestrator: it coordinates the
// Universal Parser, the Hybrid Cache Manager, the Code Graph Engine and
// the CDC Manager into full and incremental project analysis, and
// exposes the high-level query surface every external interface uses.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kraklabs/codegraph/internal/contract"
	cgerrors "github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/pkg/cache"
	"github.com/kraklabs/codegraph/pkg/cdc"
	"github.com/kraklabs/codegraph/pkg/entrydetect"
	"github.com/kraklabs/codegraph/pkg/graph"
	"github.com/kraklabs/codegraph/pkg/ignore"
	"github.com/kraklabs/codegraph/pkg/parser"
	"github.com/kraklabs/codegraph/pkg/router"
	"github.com/kraklabs/codegraph/pkg/wire"
)

// DefaultTimeout bounds a full-project analysis, per the configuration
// table's analysis.timeout_s default.
const DefaultTimeout = 300 * time.Second

// DefaultDebounce is the change-callback coalescing window.
const DefaultDebounce = 2 * time.Second

// defaultParseConcurrency bounds the worker pool a full analysis uses.
const defaultParseConcurrency = 8

// ProjectStats is the response shape for GetProjectStats.
type ProjectStats struct {
	TotalNodes         int
	TotalRelationships int
	NodesByType        map[string]int
	Languages          []string
	FilesProcessed     int
	LastAnalysis       time.Time
}

// WatcherStats is the response shape for GetFileWatcherStats.
type WatcherStats struct {
	Active          bool
	DebounceSeconds float64
	PendingFiles    int
}

// Config configures an Orchestrator.
type Config struct {
	ProjectRoot string
	Timeout     time.Duration
	Debounce    time.Duration
}

// Orchestrator is the Analysis Orchestrator.
type Orchestrator struct {
	projectRoot string
	timeout     time.Duration
	debounce    time.Duration

	graph  *graph.Graph
	parser *parser.Parser
	cache  *cache.Manager
	cdc    *cdc.Manager
	router *router.Router
	ignore *ignore.Engine

	logger *slog.Logger

	analysisMu   sync.Mutex
	analysisCxl  context.CancelFunc
	lastAnalysis time.Time

	watcherMu     sync.Mutex
	watcherActive bool
	pendingPaths  map[string]struct{}
	debounceTimer *time.Timer

	checkpointMu      sync.Mutex
	lastProcessedFile string
	checkpointPath    string

	sf singleflight.Group
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithCheckpointPath persists the full-analysis resume position to path,
// so ResumeAnalysis can continue an interrupted analysis after a process
// restart, not just within the same process. Left unset, checkpointing
// stays in-memory only.
func WithCheckpointPath(path string) Option {
	return func(o *Orchestrator) { o.checkpointPath = path }
}

// New creates an Orchestrator wiring together an already-constructed
// Graph, Parser, cache Manager, CDC Manager, Router and Ignore Engine.
func New(cfg Config, g *graph.Graph, p *parser.Parser, c *cache.Manager, cdcMgr *cdc.Manager, rtr *router.Router, ig *ignore.Engine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		projectRoot:  cfg.ProjectRoot,
		timeout:      cfg.Timeout,
		debounce:     cfg.Debounce,
		graph:        g,
		parser:       p,
		cache:        c,
		cdc:          cdcMgr,
		router:       rtr,
		ignore:       ig,
		logger:       slog.Default(),
		pendingPaths: make(map[string]struct{}),
	}
	if o.timeout <= 0 {
		o.timeout = DefaultTimeout
	}
	if o.debounce <= 0 {
		o.debounce = DefaultDebounce
	}
	for _, opt := range opts {
		opt(o)
	}
	o.loadCheckpoint()
	metrics.init()
	return o
}

// AnalyzeProject walks the project, parses every discoverable file and
// loads the resulting nodes and edges into the graph, then runs the
// cross-file resolution pass. Only one analysis may run at a time.
func (o *Orchestrator) AnalyzeProject(ctx context.Context) (ProjectStats, error) {
	if !o.beginAnalysis() {
		return ProjectStats{}, fmt.Errorf("%w: an analysis is already running", cgerrors.ErrInvalidInput)
	}
	defer o.endAnalysis()

	metrics.analysisRuns.Inc()
	analysisTimer := prometheus.NewTimer(metrics.analysisSeconds)
	defer analysisTimer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	o.analysisMu.Lock()
	o.analysisCxl = cancel
	o.analysisMu.Unlock()
	defer cancel()

	type fileJob struct{ abs, rel string }
	var jobs []fileJob
	err := o.ignore.Walk(o.projectRoot, func(relPath, fullPath string, size int64) error {
		jobs = append(jobs, fileJob{abs: fullPath, rel: relPath})
		return nil
	})
	if err != nil {
		return ProjectStats{}, fmt.Errorf("walk project: %w", err)
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(defaultParseConcurrency)

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}
			result, err := o.parser.ParseFile(groupCtx, job.abs, job.rel)
			if err != nil {
				o.logger.Warn("orchestrator.parse.failed", "path", job.rel, "error", err)
				metrics.filesFailed.Inc()
				return nil
			}
			metrics.filesProcessed.Inc()
			o.applyResult(groupCtx, result)
			o.checkpointMu.Lock()
			o.lastProcessedFile = job.rel
			o.checkpointMu.Unlock()
			o.saveCheckpoint()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return ProjectStats{}, fmt.Errorf("%w: analysis exceeded %s", cgerrors.ErrTimeout, o.timeout)
		}
		return ProjectStats{}, err
	}

	rels, modules := o.parser.Resolver().ResolveAll()
	for _, m := range modules {
		o.graph.AddNode(m)
	}
	for _, r := range rels {
		o.graph.AddRelationship(r)
		o.emitEvent(ctx, cdc.EventRelationshipAdded, r.ID, cdc.EntityRelationship, r)
	}

	o.analysisMu.Lock()
	o.lastAnalysis = nowOrZero()
	o.analysisMu.Unlock()

	o.checkpointMu.Lock()
	o.lastProcessedFile = ""
	o.checkpointMu.Unlock()
	o.clearCheckpoint()

	return o.GetProjectStats(), nil
}

// ResumeAnalysis continues a full analysis from the last checkpointed
// file rather than restarting, for a project whose prior AnalyzeProject
// call was interrupted by the timeout.
func (o *Orchestrator) ResumeAnalysis(ctx context.Context) (ProjectStats, error) {
	o.checkpointMu.Lock()
	last := o.lastProcessedFile
	o.checkpointMu.Unlock()

	if last == "" {
		return o.AnalyzeProject(ctx)
	}

	if !o.beginAnalysis() {
		return ProjectStats{}, fmt.Errorf("%w: an analysis is already running", cgerrors.ErrInvalidInput)
	}
	defer o.endAnalysis()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	o.analysisMu.Lock()
	o.analysisCxl = cancel
	o.analysisMu.Unlock()
	defer cancel()

	resuming := true
	err := o.ignore.Walk(o.projectRoot, func(relPath, fullPath string, size int64) error {
		if resuming {
			if relPath == last {
				resuming = false
			}
			return nil
		}
		result, err := o.parser.ParseFile(ctx, fullPath, relPath)
		if err != nil {
			o.logger.Warn("orchestrator.parse.failed", "path", relPath, "error", err)
			return nil
		}
		o.applyResult(ctx, result)
		o.checkpointMu.Lock()
		o.lastProcessedFile = relPath
		o.checkpointMu.Unlock()
		o.saveCheckpoint()
		return nil
	})
	if err != nil {
		return ProjectStats{}, fmt.Errorf("resume walk: %w", err)
	}

	rels, modules := o.parser.Resolver().ResolveAll()
	for _, m := range modules {
		o.graph.AddNode(m)
	}
	for _, r := range rels {
		o.graph.AddRelationship(r)
	}

	o.checkpointMu.Lock()
	o.lastProcessedFile = ""
	o.checkpointMu.Unlock()
	o.clearCheckpoint()

	return o.GetProjectStats(), nil
}

// IncrementalUpdate removes and re-parses the nodes for each path in
// paths. Any per-file error falls back to a full AnalyzeProject, per the
// orchestrator's exception-handling contract.
func (o *Orchestrator) IncrementalUpdate(ctx context.Context, paths []string) (ProjectStats, error) {
	if !o.beginAnalysis() {
		return ProjectStats{}, fmt.Errorf("%w: an analysis is already running", cgerrors.ErrInvalidInput)
	}

	for _, rel := range paths {
		o.graph.RemoveFileNodes(rel)
		o.cache.InvalidateFile(ctx, rel)

		abs := filepath.Join(o.projectRoot, rel)
		result, err := o.parser.ParseFile(ctx, abs, rel)
		if err != nil {
			o.logger.Warn("orchestrator.incremental.fallback_to_full", "path", rel, "error", err)
			o.endAnalysis()
			return o.AnalyzeProject(ctx)
		}
		o.applyResult(ctx, result)
	}

	o.endAnalysis()

	rels, modules := o.parser.Resolver().ResolveAll()
	for _, m := range modules {
		o.graph.AddNode(m)
	}
	for _, r := range rels {
		o.graph.AddRelationship(r)
	}

	return o.GetProjectStats(), nil
}

func (o *Orchestrator) applyResult(ctx context.Context, result *parser.Result) {
	var batch []cdc.Event
	for _, n := range result.Nodes {
		o.graph.AddNode(n)
		metrics.nodesAdded.Inc()
		if evt, ok := o.buildEvent(cdc.EventNodeAdded, n.ID, cdc.EntityNode, n); ok {
			batch = append(batch, evt)
		}
	}
	for _, r := range result.Relationships {
		o.graph.AddRelationship(r)
		metrics.relsAdded.Inc()
		if evt, ok := o.buildEvent(cdc.EventRelationshipAdded, r.ID, cdc.EntityRelationship, r); ok {
			batch = append(batch, evt)
		}
	}
	o.graph.MarkProcessed(result.FilePath)
	metrics.eventsPublished.Add(float64(len(batch)))
	o.publishBatch(ctx, batch)
}

func (o *Orchestrator) buildEvent(eventType cdc.EventType, entityID string, entityType cdc.EntityType, data any) (cdc.Event, bool) {
	evt, err := cdc.NewEvent(eventType, entityID, entityType, data, nowOrZero())
	if err != nil {
		o.logger.Warn("orchestrator.cdc.event_build_failed", "entity_id", entityID, "error", err)
		return cdc.Event{}, false
	}
	return evt, true
}

// publishBatch flushes the mutation events produced by one file's parse
// as a single ordered CDC batch, rather than one round trip per event.
func (o *Orchestrator) publishBatch(ctx context.Context, batch []cdc.Event) {
	if o.cdc == nil || len(batch) == 0 {
		return
	}
	o.cdc.PublishBatch(ctx, batch)
}

func (o *Orchestrator) emitEvent(ctx context.Context, eventType cdc.EventType, entityID string, entityType cdc.EntityType, data any) {
	if o.cdc == nil {
		return
	}
	evt, err := cdc.NewEvent(eventType, entityID, entityType, data, nowOrZero())
	if err != nil {
		o.logger.Warn("orchestrator.cdc.event_build_failed", "entity_id", entityID, "error", err)
		return
	}
	o.cdc.Publish(ctx, evt)
}

func (o *Orchestrator) beginAnalysis() bool {
	o.analysisMu.Lock()
	defer o.analysisMu.Unlock()
	if o.analysisCxl != nil {
		return false
	}
	o.analysisCxl = func() {}
	return true
}

func (o *Orchestrator) endAnalysis() {
	o.analysisMu.Lock()
	defer o.analysisMu.Unlock()
	o.analysisCxl = nil
}

// cancelRunningAnalysis cancels any in-flight AnalyzeProject/ResumeAnalysis
// call so an incremental update triggered by a file-change callback can
// proceed without racing it.
func (o *Orchestrator) cancelRunningAnalysis() {
	o.analysisMu.Lock()
	defer o.analysisMu.Unlock()
	if o.analysisCxl != nil {
		o.analysisCxl()
	}
}

// ForceReanalysis clears every cache entry and the graph, then reparses
// the whole project.
func (o *Orchestrator) ForceReanalysis(ctx context.Context) (ProjectStats, error) {
	o.cache.ClearAll(ctx)
	o.graph.Clear()
	o.checkpointMu.Lock()
	o.lastProcessedFile = ""
	o.checkpointMu.Unlock()
	o.clearCheckpoint()
	return o.AnalyzeProject(ctx)
}

// OnFileChange is the watcher's change callback: it debounces rapid
// bursts of file-change notifications into a single incremental update,
// cancelling any full analysis already in flight.
func (o *Orchestrator) OnFileChange(paths []string) {
	o.watcherMu.Lock()
	defer o.watcherMu.Unlock()

	o.watcherActive = true
	for _, p := range paths {
		o.pendingPaths[p] = struct{}{}
	}

	if o.debounceTimer != nil {
		o.debounceTimer.Stop()
	}
	o.debounceTimer = time.AfterFunc(o.debounce, o.flushPendingChanges)
}

func (o *Orchestrator) flushPendingChanges() {
	o.watcherMu.Lock()
	pending := make([]string, 0, len(o.pendingPaths))
	for p := range o.pendingPaths {
		pending = append(pending, p)
	}
	o.pendingPaths = make(map[string]struct{})
	o.watcherMu.Unlock()

	if len(pending) == 0 {
		return
	}

	o.cancelRunningAnalysis()
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()
	if _, err := o.IncrementalUpdate(ctx, pending); err != nil {
		o.logger.Warn("orchestrator.watcher.incremental_update_failed", "error", err)
	}
}

// SetWatcherActive records whether an external file watcher is currently
// attached; GetFileWatcherStats reports this verbatim.
func (o *Orchestrator) SetWatcherActive(active bool) {
	o.watcherMu.Lock()
	defer o.watcherMu.Unlock()
	o.watcherActive = active
}

// RouteQuery delegates to the Hybrid Query Router so external callers
// (the CLI's query command, a future RPC surface) can decide whether an
// ad-hoc graph query should run against this local Orchestrator or be
// forwarded to an external store, before calling the matching method
// above.
func (o *Orchestrator) RouteQuery(q router.Query) router.RoutingDecision {
	return o.router.Route(q)
}

// GetFileWatcherStats reports whether a watcher is active.
func (o *Orchestrator) GetFileWatcherStats() WatcherStats {
	o.watcherMu.Lock()
	defer o.watcherMu.Unlock()
	return WatcherStats{
		Active:          o.watcherActive,
		DebounceSeconds: o.debounce.Seconds(),
		PendingFiles:    len(o.pendingPaths),
	}
}

// GetProjectStats returns counts, a per-type breakdown, the set of
// languages seen, and the time of the last completed analysis.
func (o *Orchestrator) GetProjectStats() ProjectStats {
	stats := ProjectStats{
		TotalNodes:         o.graph.NodeCount(),
		TotalRelationships: o.graph.RelationshipCount(),
		NodesByType:        make(map[string]int),
		FilesProcessed:     len(o.graph.ProcessedFiles()),
	}

	langSeen := make(map[string]struct{})
	for _, n := range o.graph.AllNodes() {
		stats.NodesByType[string(n.NodeType)]++
		if n.Language != "" {
			langSeen[n.Language] = struct{}{}
		}
	}
	for lang := range langSeen {
		stats.Languages = append(stats.Languages, lang)
	}

	o.analysisMu.Lock()
	stats.LastAnalysis = o.lastAnalysis
	o.analysisMu.Unlock()

	return stats
}

// ensureAnalyzed triggers a full analysis if the project has never been
// analyzed in this process, so that a query issued before any explicit
// index call still has a graph to read from. Concurrent callers collapse
// onto the same in-flight analysis via singleflight rather than racing
// AnalyzeProject's own beginAnalysis guard, so a second caller waits for
// the first's result instead of reading a half-populated graph.
func (o *Orchestrator) ensureAnalyzed(ctx context.Context) error {
	o.analysisMu.Lock()
	analyzed := !o.lastAnalysis.IsZero()
	o.analysisMu.Unlock()
	if analyzed {
		return nil
	}

	_, err, _ := o.sf.Do("lazy-analyze", func() (any, error) {
		return o.AnalyzeProject(ctx)
	})
	if err != nil && errors.Is(err, cgerrors.ErrInvalidInput) {
		// An explicit (non-lazy) analysis was already running when this
		// singleflight call started; its result populates the graph.
		return nil
	}
	return err
}

// FindSymbolDefinition returns every node named name.
func (o *Orchestrator) FindSymbolDefinition(ctx context.Context, name string) ([]wire.NodeResponse, error) {
	if err := o.validateSymbol(name); err != nil {
		return nil, err
	}
	if err := o.ensureAnalyzed(ctx); err != nil {
		return nil, err
	}
	return wire.NodesToResponses(o.graph.FindNodesByName(name)), nil
}

// FindSymbolReferences returns every relationship whose target is a node
// named name (CALLS, REFERENCES, IMPORTS edges pointing at it).
func (o *Orchestrator) FindSymbolReferences(ctx context.Context, name string) ([]wire.RelationshipResponse, error) {
	if err := o.validateSymbol(name); err != nil {
		return nil, err
	}
	if err := o.ensureAnalyzed(ctx); err != nil {
		return nil, err
	}
	var out []graph.Relationship
	for _, n := range o.graph.FindNodesByName(name) {
		out = append(out, o.graph.GetRelationshipsTo(n.ID)...)
	}
	return wire.RelationshipsToResponses(out), nil
}

// FindFunctionCallers returns every node that calls a function named name.
func (o *Orchestrator) FindFunctionCallers(ctx context.Context, name string) ([]wire.NodeResponse, error) {
	if err := o.validateSymbol(name); err != nil {
		return nil, err
	}
	if err := o.ensureAnalyzed(ctx); err != nil {
		return nil, err
	}
	var callers []graph.Node
	for _, n := range o.graph.FindNodesByName(name) {
		for _, r := range o.graph.GetRelationshipsTo(n.ID) {
			if r.RelationshipType != graph.RelCalls {
				continue
			}
			if caller, ok := o.graph.GetNode(r.SourceID); ok {
				callers = append(callers, caller)
			}
		}
	}
	return wire.NodesToResponses(callers), nil
}

// FindFunctionCallees returns every function a function named name calls.
func (o *Orchestrator) FindFunctionCallees(ctx context.Context, name string) ([]wire.NodeResponse, error) {
	if err := o.validateSymbol(name); err != nil {
		return nil, err
	}
	if err := o.ensureAnalyzed(ctx); err != nil {
		return nil, err
	}
	var callees []graph.Node
	for _, n := range o.graph.FindNodesByName(name) {
		for _, r := range o.graph.GetRelationshipsFrom(n.ID) {
			if r.RelationshipType != graph.RelCalls {
				continue
			}
			if callee, ok := o.graph.GetNode(r.TargetID); ok {
				callees = append(callees, callee)
			}
		}
	}
	return wire.NodesToResponses(callees), nil
}

// FindNodesAtDepth walks outgoing edges from the node named name out to
// maxDepth hops, bucketing what it finds by distance from that node.
// includeSeams controls whether SEAM (cross-language) edges are followed
// at all, not just whether they're reported.
func (o *Orchestrator) FindNodesAtDepth(ctx context.Context, name string, maxDepth int, includeSeams bool) (wire.DepthTraversalResponse, error) {
	if err := o.validateSymbol(name); err != nil {
		return wire.DepthTraversalResponse{}, err
	}
	if err := o.ensureAnalyzed(ctx); err != nil {
		return wire.DepthTraversalResponse{}, err
	}
	nodes := o.graph.FindNodesByName(name)
	if len(nodes) == 0 {
		return wire.DepthTraversalResponse{}, nil
	}
	return wire.NewDepthTraversalResponse(o.graph.DFSWithDepth(nodes[0].ID, maxDepth, includeSeams)), nil
}

// FindCallChain returns the call chain from the function named source to
// the function named target (or, if target is empty, the BFS edge list
// from source up to maxDepth hops). followSeams=false keeps the walk
// within a single language.
func (o *Orchestrator) FindCallChain(ctx context.Context, source, target string, followSeams bool, maxDepth int) ([]wire.RelationshipResponse, error) {
	if err := o.validateSymbol(source); err != nil {
		return nil, err
	}
	if err := o.ensureAnalyzed(ctx); err != nil {
		return nil, err
	}
	sourceNodes := o.graph.FindNodesByName(source)
	if len(sourceNodes) == 0 {
		return nil, nil
	}

	targetID := ""
	if target != "" {
		if err := o.validateSymbol(target); err != nil {
			return nil, err
		}
		targetNodes := o.graph.FindNodesByName(target)
		if len(targetNodes) == 0 {
			return nil, nil
		}
		targetID = targetNodes[0].ID
	}

	return wire.TraversalEdgesToResponses(o.graph.FindCallChain(sourceNodes[0].ID, targetID, followSeams, maxDepth)), nil
}

// AnalyzeComplexity returns every function/method node whose cyclomatic
// complexity is at least threshold.
func (o *Orchestrator) AnalyzeComplexity(threshold uint32) []wire.NodeResponse {
	var out []graph.Node
	for _, n := range o.graph.GetNodesByType(graph.NodeFunction) {
		if n.Complexity >= threshold {
			out = append(out, n)
		}
	}
	for _, n := range o.graph.GetNodesByType(graph.NodeMethod) {
		if n.Complexity >= threshold {
			out = append(out, n)
		}
	}
	return wire.NodesToResponses(out)
}

// GetDependencyGraph returns every IMPORTS relationship in the project,
// along with the file/module nodes they connect.
func (o *Orchestrator) GetDependencyGraph() wire.TraversalResponse {
	rels := o.graph.GetRelationshipsByType(graph.RelImports)
	seen := make(map[string]struct{})
	var nodes []graph.Node
	for _, r := range rels {
		for _, id := range [2]string{r.SourceID, r.TargetID} {
			if _, ok := seen[id]; ok {
				continue
			}
			if n, ok := o.graph.GetNode(id); ok {
				nodes = append(nodes, n)
				seen[id] = struct{}{}
			}
		}
	}
	return wire.TraversalResponse{
		Nodes:         wire.NodesToResponses(nodes),
		Relationships: wire.RelationshipsToResponses(rels),
	}
}

// CodeInsights summarizes structural signals over the whole project.
type CodeInsights struct {
	EntryPoints   []wire.NodeResponse
	TopByPageRank []wire.NodeResponse
	Cycles        [][]string
	Connectivity  graph.ConnectivityReport
}

// GetCodeInsights composes the Entry Detector and the Code Graph
// Engine's centrality and connectivity algorithms into a project-wide
// summary.
func (o *Orchestrator) GetCodeInsights() CodeInsights {
	allNodes := o.graph.AllNodes()
	fileText := make(map[string]string)
	for _, n := range allNodes {
		if n.NodeType == graph.NodeFunction || n.NodeType == graph.NodeMethod {
			fileText[n.Location.FilePath] += n.Content + "\n"
		}
	}
	candidates := entrydetect.Detect(allNodes, fileText)

	var entryNodes []graph.Node
	for _, c := range candidates {
		entryNodes = append(entryNodes, c.Node)
		if len(entryNodes) >= 20 {
			break
		}
	}

	ranks := o.graph.PageRank()
	topIDs := topNByScore(ranks, 20)
	var topNodes []graph.Node
	for _, id := range topIDs {
		if n, ok := o.graph.GetNode(id); ok {
			topNodes = append(topNodes, n)
		}
	}

	return CodeInsights{
		EntryPoints:   wire.NodesToResponses(entryNodes),
		TopByPageRank: wire.NodesToResponses(topNodes),
		Cycles:        o.graph.DetectCycles(),
		Connectivity:  o.graph.ConnectivityAnalysis(),
	}
}

func topNByScore(scores map[string]float64, n int) []string {
	type kv struct {
		id    string
		score float64
	}
	pairs := make([]kv, 0, len(scores))
	for id, s := range scores {
		pairs = append(pairs, kv{id, s})
	}
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j].score > pairs[j-1].score; j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.id
	}
	return out
}

func (o *Orchestrator) validateSymbol(name string) error {
	if err := contract.ValidateSymbolName(name); err != nil {
		return fmt.Errorf("%w: %s", cgerrors.ErrInvalidInput, err)
	}
	return nil
}

// nowOrZero exists so every timestamp the orchestrator stamps goes
// through one seam; production wiring replaces it with time.Now.
var nowOrZero = time.Now
