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

// Package entrydetect is the Entry Detector: it scores graph nodes by
// how likely they are to be a program's entry point, using
// language-specific regex signatures over the raw file text.
package entrydetect

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kraklabs/codegraph/pkg/graph"
)

// Pattern is one entry-point signature for a language.
type Pattern struct {
	Regexp     *regexp.Regexp
	Priority   int
	ScoreBonus float64
}

var patternsByLanguage = map[string][]Pattern{
	"python": {
		{Regexp: regexp.MustCompile(`if\s+__name__\s*==\s*["']__main__["']`), Priority: 10, ScoreBonus: 1.0},
		{Regexp: regexp.MustCompile(`def\s+main\s*\(`), Priority: 8, ScoreBonus: 0.8},
		{Regexp: regexp.MustCompile(`app\.run\s*\(`), Priority: 6, ScoreBonus: 0.6},
		{Regexp: regexp.MustCompile(`manage\.py`), Priority: 5, ScoreBonus: 0.5},
		{Regexp: regexp.MustCompile(`FastAPI\s*\(`), Priority: 5, ScoreBonus: 0.5},
	},
	"go": {
		{Regexp: regexp.MustCompile(`func\s+main\s*\(\s*\)`), Priority: 10, ScoreBonus: 1.0},
		{Regexp: regexp.MustCompile(`package\s+main`), Priority: 4, ScoreBonus: 0.3},
	},
	"javascript": {
		{Regexp: regexp.MustCompile(`app\.listen\s*\(`), Priority: 8, ScoreBonus: 0.8},
		{Regexp: regexp.MustCompile(`require\.main\s*===\s*module`), Priority: 7, ScoreBonus: 0.7},
	},
	"typescript": {
		{Regexp: regexp.MustCompile(`app\.listen\s*\(`), Priority: 8, ScoreBonus: 0.8},
		{Regexp: regexp.MustCompile(`bootstrap\s*\(`), Priority: 6, ScoreBonus: 0.6},
	},
	"java": {
		{Regexp: regexp.MustCompile(`public\s+static\s+void\s+main\s*\(`), Priority: 10, ScoreBonus: 1.0},
		{Regexp: regexp.MustCompile(`@SpringBootApplication`), Priority: 7, ScoreBonus: 0.7},
	},
	"rust": {
		{Regexp: regexp.MustCompile(`fn\s+main\s*\(\s*\)`), Priority: 10, ScoreBonus: 1.0},
	},
}

// proximityLines is the window within which a node is a candidate for
// a pattern match in its file.
const proximityLines = 10

// stdlibPrefixes filters out nodes belonging to standard-library-ish
// import paths that can never be project entry points.
var stdlibPrefixes = []string{
	"fmt", "os", "io", "net/", "encoding/", "strings", "strconv",
	"sys", "collections", "itertools", "typing",
	"java.lang", "java.util", "java.io",
}

func hasStdlibPrefix(name string) bool {
	for _, prefix := range stdlibPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Candidate is a node scored as a possible entry point.
type Candidate struct {
	Node  graph.Node
	Score float64
}

// Detect scans fileText (file path -> full source) for language-specific
// entry-point signatures and scores every node in nodes whose location
// falls within proximityLines of a match, or whose line is unknown
// (start line 0). Results are sorted descending by score.
func Detect(nodes []graph.Node, fileText map[string]string) []Candidate {
	matchLinesByFile := make(map[string][]struct {
		line       int
		priority   int
		scoreBonus float64
	})

	for path, text := range fileText {
		lang := languageForPath(nodes, path)
		patterns, ok := patternsByLanguage[lang]
		if !ok {
			continue
		}
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			for _, p := range patterns {
				if p.Regexp.MatchString(line) {
					matchLinesByFile[path] = append(matchLinesByFile[path], struct {
						line       int
						priority   int
						scoreBonus float64
					}{line: i + 1, priority: p.Priority, scoreBonus: p.ScoreBonus})
				}
			}
		}
	}

	var candidates []Candidate
	for _, n := range nodes {
		if hasStdlibPrefix(n.Name) || hasStdlibPrefix(n.Location.FilePath) {
			continue
		}
		matches := matchLinesByFile[n.Location.FilePath]
		if len(matches) == 0 {
			continue
		}

		best, found := bestMatch(matches, n.Location.StartLine)
		if !found {
			continue
		}

		score := 1.0 + best.scoreBonus + float64(best.priority)*0.1 - minFloat(float64(n.Complexity)*0.01, 0.5)
		candidates = append(candidates, Candidate{Node: n, Score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

func bestMatch(matches []struct {
	line       int
	priority   int
	scoreBonus float64
}, nodeLine int) (struct {
	line       int
	priority   int
	scoreBonus float64
}, bool) {
	var best struct {
		line       int
		priority   int
		scoreBonus float64
	}
	found := false
	for _, m := range matches {
		if nodeLine == 0 || abs(m.line-nodeLine) <= proximityLines {
			if !found || m.priority > best.priority {
				best = m
				found = true
			}
		}
	}
	return best, found
}

func languageForPath(nodes []graph.Node, path string) string {
	for _, n := range nodes {
		if n.Location.FilePath == path {
			return n.Language
		}
	}
	return ""
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
