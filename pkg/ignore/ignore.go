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

// Package ignore is the Ignore Engine: it loads .graphignore (preferred)
// or .gitignore from a project root, compiles it once, and drives the
// directory-pruning walk the Universal Parser starts from.
package ignore

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/kraklabs/codegraph/pkg/langregistry"
	gitignore "github.com/sabhiram/go-gitignore"
)

// alwaysPruned directories are skipped regardless of any ignore file.
var alwaysPruned = map[string]struct{}{
	"__pycache__":   {},
	".git":          {},
	".svn":          {},
	".hg":           {},
	".bzr":          {},
	".pytest_cache": {},
	".mypy_cache":   {},
	".tox":          {},
	".coverage":     {},
	".sass-cache":   {},
	".cache":        {},
	".DS_Store":     {},
	".idea":         {},
	".vscode":       {},
	".vs":           {},
}

// DefaultMaxFileBytes is the size above which a file is skipped even if
// not ignored.
const DefaultMaxFileBytes = 1 << 20 // 1 MiB

// Engine compiles and caches one ignore matcher per project root.
type Engine struct {
	logger      *slog.Logger
	maxFileSize int64

	mu      sync.Mutex
	root    string
	matcher *gitignore.GitIgnore
}

// New creates an Engine. maxFileSize of 0 uses DefaultMaxFileBytes.
func New(logger *slog.Logger, maxFileSize int64) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileBytes
	}
	return &Engine{logger: logger, maxFileSize: maxFileSize}
}

// load compiles root's ignore file, preferring .graphignore over
// .gitignore, and caches it until root changes.
func (e *Engine) load(root string) *gitignore.GitIgnore {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.root == root && e.matcher != nil {
		return e.matcher
	}

	var matcher *gitignore.GitIgnore
	for _, name := range []string{".graphignore", ".gitignore"} {
		path := filepath.Join(root, name)
		if m, err := gitignore.CompileIgnoreFile(path); err == nil {
			matcher = m
			break
		}
	}
	if matcher == nil {
		matcher = gitignore.CompileIgnoreLines()
	}

	e.root = root
	e.matcher = matcher
	return matcher
}

// Walk walks root, invoking fn for every file that survives pruning,
// size-cap, and unsupported-extension filtering. Directories are
// evaluated against the ignore rules before descending, so whole
// subtrees are pruned without visiting their children.
func (e *Engine) Walk(root string, fn func(relPath, fullPath string, size int64) error) error {
	matcher := e.load(root)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			e.logger.Warn("ignore.walk.error", "path", path, "error", err)
			return nil
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}

		if d.IsDir() {
			if _, pruned := alwaysPruned[d.Name()]; pruned {
				return filepath.SkipDir
			}
			if matcher.MatchesPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if matcher.MatchesPath(rel) {
			return nil
		}

		if _, ok := langregistry.LookupByExtension(filepath.Ext(path)); !ok {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		if info.Size() > e.maxFileSize {
			e.logger.Debug("ignore.walk.skip_large_file", "path", rel, "size", info.Size())
			return nil
		}

		return fn(rel, path, info.Size())
	})
}
