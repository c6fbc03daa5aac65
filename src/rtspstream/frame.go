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
package rtspstream

import (
	"sync"
)

// Frame is one decoded picture, tightly packed BGRA (stride = Width*4).
// Data must not be modified once a Frame has been published.
type Frame struct {
	Seq    uint64
	Width  int
	Height int
	Data   []byte
}

// Valid reports whether f holds a complete picture.
func (f *Frame) Valid() bool {
	return f != nil && f.Seq > 0 && f.Width > 0 && f.Height > 0 && len(f.Data) >= f.Width*f.Height*4
}

// FrameBuffer keeps the latest frame for the display side. The decoder
// publishes, the GUI thread reads whenever it repaints.
type FrameBuffer struct {
	mu  sync.RWMutex
	cur Frame
}

// Put publishes data as the newest frame and takes ownership of it.
func (b *FrameBuffer) Put(w, h int, data []byte) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur = Frame{Seq: b.cur.Seq + 1, Width: w, Height: h, Data: data}
	return b.cur.Seq
}

// Latest returns the newest frame, or nil before the first Put.
func (b *FrameBuffer) Latest() *Frame {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.cur.Seq == 0 {
		return nil
	}
	f := b.cur
	return &f
}

// Reset drops the current picture but keeps the sequence counting.
func (b *FrameBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur = Frame{Seq: b.cur.Seq}
}
