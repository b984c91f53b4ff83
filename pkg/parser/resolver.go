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

package parser

import (
	"path/filepath"
	"sync"

	"github.com/kraklabs/codegraph/pkg/graph"
)

// unresolvedCall is one CALLS edge whose target could not be settled at
// parse time because it may name a function defined in another file.
type unresolvedCall struct {
	callerID   string
	callerFile string
	calleeName string
}

// Resolver accumulates function/import facts across every file in a
// project and, once they are all indexed, produces the CALLS and
// IMPORTS edges that require project-wide knowledge.
//
// Call resolution is exact-name-first: a callee name is matched against
// a function in the caller's own file first, then against the functions
// of that simple name anywhere in the project (the first one indexed
// wins when there are several); only when no exact match exists
// anywhere does substring matching against simple names kick in, and
// only then as a last resort.
type Resolver struct {
	mu sync.Mutex

	// functionsByName: simple name -> every function id carrying that name.
	functionsByName map[string][]string
	// functionsByFile: file path -> simple name -> function id, for
	// same-file resolution priority.
	functionsByFile map[string]map[string]string

	pendingCalls []unresolvedCall
	imports      []importFact
}

type importFact struct {
	fromFile string
	target   string
}

// NewResolver creates an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{
		functionsByName: make(map[string][]string),
		functionsByFile: make(map[string]map[string]string),
	}
}

// IndexFile registers every function node parsed from file so later
// calls into it can be resolved.
func (r *Resolver) IndexFile(file, language string, nodes []graph.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.functionsByFile[file] == nil {
		r.functionsByFile[file] = make(map[string]string)
	}
	for _, n := range nodes {
		if n.NodeType != graph.NodeFunction && n.NodeType != graph.NodeMethod {
			continue
		}
		r.functionsByName[n.Name] = append(r.functionsByName[n.Name], n.ID)
		r.functionsByFile[file][n.Name] = n.ID
	}
}

// RecordCall queues a call made from callerID (declared in callerFile)
// to a function named calleeName, to be resolved once every file is indexed.
func (r *Resolver) RecordCall(callerID, callerFile, calleeName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingCalls = append(r.pendingCalls, unresolvedCall{callerID: callerID, callerFile: callerFile, calleeName: calleeName})
}

// RecordImport queues an IMPORTS edge from fromFile to target, to be
// resolved against the file's own node and, lazily, a backfilled MODULE
// node if target was never parsed as a file in this project.
func (r *Resolver) RecordImport(fromFile, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imports = append(r.imports, importFact{fromFile: fromFile, target: target})
}

// ResolveAll settles every queued call and import against the full
// project index, returning the CALLS and IMPORTS relationships (plus
// any lazily-backfilled MODULE nodes) to add to the graph.
func (r *Resolver) ResolveAll() (relationships []graph.Relationship, moduleNodes []graph.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, call := range r.pendingCalls {
		targetID, ok := r.resolveCallee(call.callerFile, call.calleeName)
		if !ok {
			continue
		}
		relationships = append(relationships, graph.Relationship{
			ID:               graph.RelationshipID(graph.RelCalls, call.callerID, targetID),
			SourceID:         call.callerID,
			TargetID:         targetID,
			RelationshipType: graph.RelCalls,
			Strength:         1.0,
		})
	}

	seenModules := make(map[string]struct{})
	for _, imp := range r.imports {
		fileNodeID := graph.FileID(imp.target)
		targetID := fileNodeID
		if !r.fileWasParsed(imp.target) {
			moduleID := graph.ModuleID(moduleLogicalName(imp.target))
			if _, already := seenModules[moduleID]; !already {
				moduleNodes = append(moduleNodes, graph.Node{
					ID:       moduleID,
					Name:     moduleLogicalName(imp.target),
					NodeType: graph.NodeModule,
				})
				seenModules[moduleID] = struct{}{}
			}
			targetID = moduleID
		}
		relationships = append(relationships, graph.Relationship{
			ID:               graph.RelationshipID(graph.RelImports, graph.FileID(imp.fromFile), targetID),
			SourceID:         graph.FileID(imp.fromFile),
			TargetID:         targetID,
			RelationshipType: graph.RelImports,
			Strength:         1.0,
		})
	}

	return relationships, moduleNodes
}

func (r *Resolver) fileWasParsed(path string) bool {
	_, ok := r.functionsByFile[path]
	return ok
}

func moduleLogicalName(target string) string {
	return filepath.ToSlash(target)
}

// resolveCallee implements the exact-first/substring-fallback policy.
func (r *Resolver) resolveCallee(callerFile, calleeName string) (string, bool) {
	if byFile, ok := r.functionsByFile[callerFile]; ok {
		if id, ok := byFile[calleeName]; ok {
			return id, true
		}
	}

	if ids, ok := r.functionsByName[calleeName]; ok && len(ids) == 1 {
		return ids[0], true
	}
	if ids, ok := r.functionsByName[calleeName]; ok && len(ids) > 1 {
		// Ambiguous exact match across multiple files: take the first
		// id indexed under that name.
		return ids[0], true
	}

	// No exact match anywhere: substring fallback against every known name.
	var candidate string
	for name, ids := range r.functionsByName {
		if len(ids) == 0 {
			continue
		}
		if containsFold(name, calleeName) || containsFold(calleeName, name) {
			candidate = ids[0]
			break
		}
	}
	return candidate, candidate != ""
}

func containsFold(s, substr string) bool {
	if substr == "" {
		return false
	}
	return len(s) >= len(substr) && indexFold(s, substr) >= 0
}

func indexFold(s, substr string) int {
	ls, lsub := len(s), len(substr)
	if lsub == 0 || lsub > ls {
		return -1
	}
	for i := 0; i+lsub <= ls; i++ {
		if equalFold(s[i:i+lsub], substr) {
			return i
		}
	}
	return -1
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
