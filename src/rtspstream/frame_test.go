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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameBuffer(t *testing.T) {
	var fb FrameBuffer
	assert.Nil(t, fb.Latest())

	seq := fb.Put(2, 1, make([]byte, 8))
	assert.Equal(t, uint64(1), seq)
	f := fb.Latest()
	require.NotNil(t, f)
	assert.True(t, f.Valid())
	assert.Equal(t, 2, f.Width)

	fb.Put(4, 4, make([]byte, 64))
	assert.Equal(t, 2, f.Width, "published frames are snapshots")
	assert.Equal(t, uint64(2), fb.Latest().Seq)

	fb.Reset()
	assert.Nil(t, fb.Latest())
	assert.Equal(t, uint64(3), fb.Put(1, 1, make([]byte, 4)), "sequence survives a reset")
}

func TestFrameValid(t *testing.T) {
	var nilFrame *Frame
	assert.False(t, nilFrame.Valid())
	assert.False(t, (&Frame{Seq: 1, Width: 2, Height: 2, Data: make([]byte, 15)}).Valid())
	assert.True(t, (&Frame{Seq: 1, Width: 2, Height: 2, Data: make([]byte, 16)}).Valid())
}

// stripes builds a w*h BGRA picture where even lines are dark and odd
// lines bright, the typical comb of two woven fields in motion.
func stripes(w, h int) []byte {
	img := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		v := byte(16)
		if y%2 == 1 {
			v = 235
		}
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			img[i], img[i+1], img[i+2], img[i+3] = v, v, v, 255
		}
	}
	return img
}

func flat(w, h int, v byte) []byte {
	img := bytes.Repeat([]byte{v, v, v, 255}, w*h)
	return img
}

func TestIsInterlaced(t *testing.T) {
	assert.True(t, IsInterlaced(16, 16, stripes(16, 16)))
	assert.False(t, IsInterlaced(16, 16, flat(16, 16, 128)))

	// vertical gradient: neighbouring lines differ, but no comb
	grad := make([]byte, 16*16*4)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			i := (y*16 + x) * 4
			v := byte(y * 15)
			grad[i], grad[i+1], grad[i+2], grad[i+3] = v, v, v, 255
		}
	}
	assert.False(t, IsInterlaced(16, 16, grad))

	assert.False(t, IsInterlaced(16, 2, stripes(16, 2)), "too small")
	assert.False(t, IsInterlaced(16, 16, make([]byte, 10)), "short buffer")
}

func TestDeinterlace(t *testing.T) {
	img := stripes(8, 8)
	Deinterlace(8, 8, img)
	assert.False(t, IsInterlaced(8, 8, img))

	// inner dark line: (235 + 2*16 + 235 + 2) / 4 = 126
	assert.Equal(t, byte(126), img[(2*8)*4])
	// inner bright line: (16 + 2*235 + 16 + 2) / 4 = 126
	assert.Equal(t, byte(126), img[(3*8)*4])
	assert.Equal(t, byte(255), img[(3*8)*4+3], "alpha untouched")
	// first and last line are kept
	assert.Equal(t, byte(16), img[0])
	assert.Equal(t, byte(235), img[(7*8)*4])

	still := flat(8, 8, 90)
	Deinterlace(8, 8, still)
	assert.Equal(t, flat(8, 8, 90), still)
}
