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

import "regexp"

// decisionPointPattern matches tokens that add a branch to a function's
// control flow graph, across the language family the registry covers.
var decisionPointPattern = regexp.MustCompile(
	`\b(if|elif|else\s+if|for|while|case|catch|except|match|when)\b|(&&|\|\|)`,
)

// cyclomaticComplexity counts decision points in text and adds the
// baseline of 1, per McCabe's formula. Non-function text (classes,
// imports) is not scored by the caller.
func cyclomaticComplexity(text string) uint32 {
	matches := decisionPointPattern.FindAllStringIndex(text, -1)
	return uint32(len(matches)) + 1
}
