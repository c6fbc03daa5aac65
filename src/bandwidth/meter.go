/* SPDX-License-Identifier: GPL-3.0-or-later
 *
 * QSurveil
 * Copyright (C) 2025 e1z0 <e1z0@icloud.com>
 *
 * This file is part of QSurveil.
 *
 * QSurveil is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * QSurveil is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with QSurveil.  If not, see <https://www.gnu.org/licenses/>.
 */

// Package bandwidth aggregates byte-count samples from every stream of the
// process into a sliding-window download rate.
package bandwidth

import (
	"sync"
	"time"
)

// Sampler is the sink streams report downloaded bytes to.
type Sampler interface {
	AddSampleValue(n uint)
}

const defaultWindow = 5 * time.Second

// Meter is a Sampler that keeps one bucket per second for the last window.
// Safe for concurrent use.
type Meter struct {
	mu      sync.Mutex
	buckets []uint64
	stamps  []int64 // unix second each bucket belongs to
	total   uint64
	now     func() time.Time
}

func NewMeter(window time.Duration) *Meter {
	if window < time.Second {
		window = defaultWindow
	}
	n := int(window / time.Second)
	return &Meter{
		buckets: make([]uint64, n),
		stamps:  make([]int64, n),
		now:     time.Now,
	}
}

func (m *Meter) AddSampleValue(n uint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sec := m.now().Unix()
	i := int(sec % int64(len(m.buckets)))
	if m.stamps[i] != sec {
		m.stamps[i] = sec
		m.buckets[i] = 0
	}
	m.buckets[i] += uint64(n)
	m.total += uint64(n)
}

// Rate returns the average bytes per second over the completed seconds of
// the window. The current, still filling second is not counted.
func (m *Meter) Rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	sec := m.now().Unix()
	n := int64(len(m.buckets))
	var sum uint64
	for i, st := range m.stamps {
		if st < sec && st >= sec-n+1 && st != 0 {
			sum += m.buckets[i]
		}
	}
	if n <= 1 {
		return float64(sum)
	}
	return float64(sum) / float64(n-1)
}

// Total returns every byte ever sampled.
func (m *Meter) Total() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// Kbps formats Rate as kilobits per second, the unit the overlays use.
func (m *Meter) Kbps() float64 {
	return m.Rate() * 8 / 1000
}
