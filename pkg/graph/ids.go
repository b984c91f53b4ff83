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

package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

// ID construction follows the canonical forms every producer (parser,
// cache loader, external sync) must agree on:
//
//	file:<path>
//	function:<path>:<name>:<start_line>
//	class:<path>:<name>:<start_line>
//	import:<path>:<target>:<start_line>
//	module:<logical name>
//
// Signature and end position are deliberately excluded: re-parsing the
// same unchanged source must reproduce the same id (testable property 8),
// and signature text is the part of a parse most likely to shift as a
// language's extraction rules improve.

// FileID returns the canonical id for a file node.
func FileID(path string) string {
	return fmt.Sprintf("file:%s", normalizePath(path))
}

// FunctionID returns the canonical id for a function or method node.
func FunctionID(path, name string, startLine int) string {
	return fmt.Sprintf("function:%s:%s:%d", normalizePath(path), name, startLine)
}

// ClassID returns the canonical id for a class/struct/interface node.
func ClassID(path, name string, startLine int) string {
	return fmt.Sprintf("class:%s:%s:%d", normalizePath(path), name, startLine)
}

// ImportID returns the canonical id for an import node.
func ImportID(path, target string, startLine int) string {
	return fmt.Sprintf("import:%s:%s:%d", normalizePath(path), target, startLine)
}

// ModuleID returns the canonical id for a module node, keyed by the
// import target's logical name rather than a file path: a module may be
// referenced from many files before (or without) its own file ever being
// parsed.
func ModuleID(logicalName string) string {
	return fmt.Sprintf("module:%s", logicalName)
}

// RelationshipID derives a stable id for an edge from its endpoints and
// type, so re-inserting the same edge twice collapses to one id instead
// of accumulating duplicates.
func RelationshipID(relType RelationshipType, sourceID, targetID string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", relType, sourceID, targetID)))
	return fmt.Sprintf("rel:%s", hex.EncodeToString(sum[:16]))
}

// normalizePath makes file-path-derived ids stable across platforms and
// invocation styles: forward slashes, no "./" prefix, no leading "/".
func normalizePath(path string) string {
	if len(path) >= 2 && path[0:2] == "./" {
		path = path[2:]
	}
	path = filepath.Clean(path)
	path = filepath.ToSlash(path)
	if len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	return path
}
