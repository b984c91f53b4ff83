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

import "math"

// ConnectivityReport is the composite connectivity summary for a graph:
// its size, how much of it is mutually reachable, and the shape of its
// finite distances.
type ConnectivityReport struct {
	NodeCount         int     `json:"node_count"`
	RelationshipCount int     `json:"relationship_count"`
	ReachabilityRatio float64 `json:"reachability_ratio"`
	MeanDistance      float64 `json:"mean_distance"`
	MinDistance       float64 `json:"min_distance"`
	MaxDistance       float64 `json:"max_distance"`
	HasNegativeCycle  bool    `json:"has_negative_cycle"`
}

// ConnectivityAnalysis computes size metrics, the fraction of ordered node
// pairs with a finite path between them (via FloydWarshall), the
// mean/min/max of those finite distances, and whether any node's
// Strength-weighted distances contain a negative cycle.
func (g *Graph) ConnectivityAnalysis() ConnectivityReport {
	nodes := g.AllNodes()
	report := ConnectivityReport{
		NodeCount:         len(nodes),
		RelationshipCount: g.RelationshipCount(),
	}
	if len(nodes) == 0 {
		return report
	}

	dist := g.FloydWarshall()
	var reachablePairs int
	var sum, min, max float64
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, n := range nodes {
		row, ok := dist[n.ID]
		if !ok {
			continue
		}
		for otherID, d := range row {
			if otherID == n.ID {
				continue
			}
			reachablePairs++
			sum += d
			if d < min {
				min = d
			}
			if d > max {
				max = d
			}
		}
	}

	if possiblePairs := len(nodes) * (len(nodes) - 1); possiblePairs > 0 {
		report.ReachabilityRatio = float64(reachablePairs) / float64(possiblePairs)
	}
	if reachablePairs > 0 {
		report.MeanDistance = sum / float64(reachablePairs)
		report.MinDistance = min
		report.MaxDistance = max
	}

	for _, n := range nodes {
		if _, err := g.BellmanFord(n.ID); err != nil {
			report.HasNegativeCycle = true
			break
		}
	}

	return report
}
