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
package rtspworker

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFSComponent(t *testing.T) {
	assert.Equal(t, "camera", SanitizeFSComponent("   "))
	assert.Equal(t, "Front door", SanitizeFSComponent(" Front door "))
	assert.Equal(t, "rtsp___10.0.0.5_554_live", SanitizeFSComponent("rtsp://10.0.0.5:554/live"))
	assert.Equal(t, "a_b_c_d_e_f", SanitizeFSComponent(`a*b?c"d<e|f`))
}

func TestRecordingPath(t *testing.T) {
	base := t.TempDir()
	started := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)

	p, err := RecordingPath(base, "Yard/East", started)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "Yard_East", "2025-03-14_09-26-53.mkv"), p)
	assert.DirExists(t, filepath.Join(base, "Yard_East"))
}
