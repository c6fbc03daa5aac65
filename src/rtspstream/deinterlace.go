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

// combThreshold is how much stronger the difference between neighbouring
// lines must be than between lines of the same field before a picture is
// treated as interlaced.
const combThreshold = 2.0

// IsInterlaced looks for combing: in a woven interlaced picture adjacent
// lines come from different fields and differ far more than lines two
// apart. Only every 4th column is sampled.
func IsInterlaced(w, h int, bgra []byte) bool {
	if w <= 0 || h < 4 || len(bgra) < w*h*4 {
		return false
	}
	stride := w * 4
	var adjacent, sameField uint64
	for y := 0; y+2 < h; y += 2 {
		r0 := bgra[y*stride : (y+1)*stride]
		r1 := bgra[(y+1)*stride : (y+2)*stride]
		r2 := bgra[(y+2)*stride : (y+3)*stride]
		for x := 0; x < stride; x += 16 {
			l0 := luma(r0[x:])
			adjacent += absDiff(l0, luma(r1[x:]))
			sameField += absDiff(l0, luma(r2[x:]))
		}
	}
	if adjacent == 0 {
		return false
	}
	return float64(adjacent) > combThreshold*float64(sameField+1)
}

// Deinterlace applies a linear blend filter in place: every inner line
// becomes (above + 2*line + below) / 4.
func Deinterlace(w, h int, bgra []byte) {
	if w <= 0 || h < 3 || len(bgra) < w*h*4 {
		return
	}
	stride := w * 4
	prev := make([]byte, stride)
	cur := make([]byte, stride)
	copy(prev, bgra[:stride])
	for y := 1; y < h-1; y++ {
		row := bgra[y*stride : (y+1)*stride]
		next := bgra[(y+1)*stride : (y+2)*stride]
		copy(cur, row)
		for i := 0; i < stride; i++ {
			if i%4 == 3 {
				continue // alpha
			}
			row[i] = byte((uint16(prev[i]) + 2*uint16(cur[i]) + uint16(next[i]) + 2) / 4)
		}
		prev, cur = cur, prev
	}
}

func luma(px []byte) uint64 {
	// BGRA, integer BT.601 weights
	return (uint64(px[2])*77 + uint64(px[1])*150 + uint64(px[0])*29) >> 8
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
