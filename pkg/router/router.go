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

// Package router implements the Hybrid Query Router: it scores an
// incoming query's complexity and decides whether the local Code Graph
// Engine or the external store should serve it, keeping a bounded
// history of past decisions and their measured execution time.
package router

import (
	"strings"
	"sync"
	"time"
)

// DefaultHopThreshold is the max declared hop depth before a query
// routes externally regardless of its score.
const DefaultHopThreshold = 3

// scoreThreshold is the complexity score at or above which a query routes
// externally.
const scoreThreshold = 50.0

var patternKeywords = []string{"regex", "wildcard", "contains", "startswith", "endswith", "matches", "~", "*"}

var algorithmKeywords = []string{"pagerank", "centrality", "community", "shortest", "all_paths", "cycles", "articulation"}

var queryTypeWeights = map[string]float64{
	"find_callers":        5,
	"find_callees":        5,
	"find_references":     5,
	"impact_analysis":     50,
	"shortest_path":       40,
	"all_paths":           60,
	"community_detection": 80,
	"cycle_detection":     60,
	"god_functions":       70,
}

// Target identifies which engine should serve a query.
type Target string

const (
	TargetLocal    Target = "local"
	TargetExternal Target = "external"
)

// Query describes the request the router scores.
type Query struct {
	Type         string
	Text         string
	DeclaredHops int
}

// RoutingDecision is the router's verdict for one query, plus the
// reasoning behind it.
type RoutingDecision struct {
	Target            Target
	ComplexityScore   float64
	EstimatedHops     int
	RequiresPattern   bool
	RequiresAlgorithm bool
	Reason            string
	ExecutionTime     time.Duration
}

// Router scores queries and retains a bounded history of decisions.
type Router struct {
	hopThreshold int
	maxHistory   int

	mu      sync.Mutex
	history []RoutingDecision
}

// Option configures a Router.
type Option func(*Router)

// WithHopThreshold overrides DefaultHopThreshold.
func WithHopThreshold(n int) Option {
	return func(r *Router) { r.hopThreshold = n }
}

// WithHistorySize bounds how many past decisions Router.History retains.
func WithHistorySize(n int) Option {
	return func(r *Router) { r.maxHistory = n }
}

// New creates a Router.
func New(opts ...Option) *Router {
	r := &Router{hopThreshold: DefaultHopThreshold, maxHistory: 500}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route scores q and returns a RoutingDecision without recording
// execution time; call RecordExecution afterward once the query has
// run to append the measured duration to history.
func (r *Router) Route(q Query) RoutingDecision {
	lowerText := strings.ToLower(q.Text)

	requiresPattern := containsAny(lowerText, patternKeywords)
	requiresAlgorithm := containsAny(lowerText, algorithmKeywords)

	score := queryTypeWeights[q.Type]
	hopsAboveThreshold := q.DeclaredHops > r.hopThreshold
	if hopsAboveThreshold {
		score += float64(q.DeclaredHops-r.hopThreshold) * 10
	}
	if requiresPattern {
		score += 20
	}
	if requiresAlgorithm {
		score += 30
	}

	target := TargetLocal
	reason := "below complexity threshold"
	if score >= scoreThreshold || hopsAboveThreshold || requiresAlgorithm {
		target = TargetExternal
		reason = routeReason(score, hopsAboveThreshold, requiresAlgorithm)
	}

	return RoutingDecision{
		Target:            target,
		ComplexityScore:   score,
		EstimatedHops:     q.DeclaredHops,
		RequiresPattern:   requiresPattern,
		RequiresAlgorithm: requiresAlgorithm,
		Reason:            reason,
	}
}

func routeReason(score float64, hopsAboveThreshold, requiresAlgorithm bool) string {
	switch {
	case hopsAboveThreshold:
		return "declared hops exceed threshold"
	case requiresAlgorithm:
		return "requires graph algorithm"
	default:
		return "complexity score at or above threshold"
	}
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// RecordExecution appends decision, stamped with execTime, to the
// bounded history.
func (r *Router) RecordExecution(decision RoutingDecision, execTime time.Duration) {
	decision.ExecutionTime = execTime

	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, decision)
	if len(r.history) > r.maxHistory {
		r.history = r.history[len(r.history)-r.maxHistory:]
	}
}

// History returns a copy of the retained routing decisions, oldest first.
func (r *Router) History() []RoutingDecision {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RoutingDecision, len(r.history))
	copy(out, r.history)
	return out
}
