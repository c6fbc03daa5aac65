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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		fopts map[string]string
		copts map[string]string
	}{
		{
			name:  "empty",
			fopts: map[string]string{},
			copts: map[string]string{},
		},
		{
			name:  "demuxer and decoder",
			in:    "-frtsp_transport=tcp  -cthreads=2\t-fanalyzeduration=1000000",
			fopts: map[string]string{"rtsp_transport": "tcp", "analyzeduration": "1000000"},
			copts: map[string]string{"threads": "2"},
		},
		{
			name:  "quotes are stripped",
			in:    `-fuser_agent="QSurveil" -cskip_frame='nokey'`,
			fopts: map[string]string{"user_agent": "QSurveil"},
			copts: map[string]string{"skip_frame": "nokey"},
		},
		{
			name:  "malformed tokens are skipped",
			in:    "rtsp_transport=tcp -f -x=1 -f=1 -fkey= -ckey",
			fopts: map[string]string{},
			copts: map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, c := ParseParams(tt.in)
			assert.Equal(t, tt.fopts, f)
			assert.Equal(t, tt.copts, c)
		})
	}
}
