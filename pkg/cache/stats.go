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

package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// defaultTimingRingSize bounds how many recent operation latencies Stats
// retains.
const defaultTimingRingSize = 256

// Stats holds the Hybrid Cache Manager's operational counters, exposed
// via Manager.Stats.
type Stats struct {
	HitsL1 int64
	HitsL2 int64
	Misses int64

	OpCounts map[string]int64
	Timings  []time.Duration
}

// statsTracker is the live, concurrency-safe counterpart of Stats.
type statsTracker struct {
	hitsL1 atomic.Int64
	hitsL2 atomic.Int64
	misses atomic.Int64

	mu       sync.Mutex
	opCounts map[string]int64
	ring     []time.Duration
	ringPos  int
	ringSize int
}

func newStatsTracker(ringSize int) *statsTracker {
	if ringSize <= 0 {
		ringSize = defaultTimingRingSize
	}
	return &statsTracker{
		opCounts: make(map[string]int64),
		ring:     make([]time.Duration, ringSize),
	}
}

func (s *statsTracker) recordOp(op string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opCounts[op]++
	s.ring[s.ringPos] = d
	s.ringPos = (s.ringPos + 1) % len(s.ring)
	if s.ringSize < len(s.ring) {
		s.ringSize++
	}
}

func (s *statsTracker) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	opCounts := make(map[string]int64, len(s.opCounts))
	for k, v := range s.opCounts {
		opCounts[k] = v
	}

	timings := make([]time.Duration, s.ringSize)
	for i := 0; i < s.ringSize; i++ {
		idx := (s.ringPos - s.ringSize + i + len(s.ring)) % len(s.ring)
		timings[i] = s.ring[idx]
	}

	return Stats{
		HitsL1:   s.hitsL1.Load(),
		HitsL2:   s.hitsL2.Load(),
		Misses:   s.misses.Load(),
		OpCounts: opCounts,
		Timings:  timings,
	}
}
