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

package orchestrator

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// orchestratorMetrics holds the Prometheus instrumentation for analysis
// runs. Registration happens once per process regardless of how many
// Orchestrator values exist, since metric names are process-global.
type orchestratorMetrics struct {
	once sync.Once

	filesProcessed  prometheus.Counter
	filesFailed     prometheus.Counter
	nodesAdded      prometheus.Counter
	relsAdded       prometheus.Counter
	eventsPublished prometheus.Counter
	analysisRuns    prometheus.Counter
	analysisSeconds prometheus.Histogram
}

var metrics orchestratorMetrics

func (m *orchestratorMetrics) init() {
	m.once.Do(func() {
		m.filesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_files_processed_total", Help: "Files successfully parsed into the graph.",
		})
		m.filesFailed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_files_failed_total", Help: "Files that failed to parse and were skipped.",
		})
		m.nodesAdded = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_nodes_added_total", Help: "Nodes added to the graph.",
		})
		m.relsAdded = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_relationships_added_total", Help: "Relationships added to the graph.",
		})
		m.eventsPublished = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_cdc_events_published_total", Help: "CDC events published by the orchestrator.",
		})
		m.analysisRuns = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_analysis_runs_total", Help: "Full-project analysis runs started.",
		})
		m.analysisSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "codegraph_analysis_duration_seconds", Help: "Full-project analysis wall time.",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(
			m.filesProcessed, m.filesFailed, m.nodesAdded, m.relsAdded,
			m.eventsPublished, m.analysisRuns, m.analysisSeconds,
		)
	})
}
