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
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIsRTSP(t *testing.T) {
	assert.True(t, IsRTSP("rtsp://10.0.0.5/stream1"))
	assert.True(t, IsRTSP("RTSPS://cam.local/live"))
	assert.False(t, IsRTSP("http://10.0.0.5/video.mjpg"))
	assert.False(t, IsRTSP("/srv/recordings/yard.mkv"))
}

func TestProbeSkipsOtherSchemes(t *testing.T) {
	assert.NoError(t, Probe(context.Background(), "http://10.0.0.5/video.mjpg", false, zap.NewNop()))
}

func TestProbeConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	err = Probe(context.Background(), "rtsp://"+addr+"/stream1", true, zap.NewNop())
	assert.Error(t, err)
}

func TestProbeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Probe(ctx, "rtsp://127.0.0.1:1/stream1", false, zap.NewNop())
	assert.Error(t, err)
}
