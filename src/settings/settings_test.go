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
package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
cameras:
  - name: Front door
    url: rtsp://10.0.0.5/stream1
    rtsp_tcp: true
    width: 640
    height: 480
    always_on_top: false
    auto_deinterlace: true
  - id: abc
    name: Yard
    url: rtsp://10.0.0.6/stream1
    rtsp_tcp: false
    width: 320
    height: 240
    always_on_top: true
mplayer_path: /opt/mplayer/bin/mplayer
quit_timeout_ms: 2500
disable_screensaver_on_fullscreen: true
`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeFile(t, sampleYAML))
	require.NoError(t, err)

	require.Len(t, cfg.Cameras, 2)
	assert.NotEmpty(t, cfg.Cameras[0].ID, "missing ids are generated")
	assert.Equal(t, "abc", cfg.Cameras[1].ID)
	assert.True(t, cfg.Cameras[0].AutoDeinterlace)
	assert.Equal(t, "/opt/mplayer/bin/mplayer", cfg.Mplayer())
	assert.Equal(t, 2500*time.Millisecond, cfg.QuitTimeout())
	assert.Equal(t, DefaultStreamTimeout, cfg.StopTimeout())
	assert.True(t, cfg.DisableScreensaverOnFullscreen)
}

func TestDefaults(t *testing.T) {
	var cfg AppConfig
	assert.Equal(t, DefaultMplayerPath, cfg.Mplayer())
	assert.Equal(t, DefaultQuitTimeout, cfg.QuitTimeout())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "cameras: [unterminated"))
	assert.Error(t, err)
}

func TestOpenCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	s, err := Open(path)
	require.NoError(t, err)
	assert.Empty(t, s.Snapshot().Cameras)
	assert.FileExists(t, path)
}

func TestStoreUpdateCameraGeometry(t *testing.T) {
	path := writeFile(t, sampleYAML)
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.UpdateCameraGeometry("abc", 10, 20, 800, 600))
	assert.ErrorIs(t, s.UpdateCameraGeometry("nope", 0, 0, 1, 1), ErrUnknownCamera)

	reloaded, err := Load(path)
	require.NoError(t, err)
	yard := reloaded.Cameras[1]
	assert.Equal(t, []int{10, 20, 800, 600}, []int{yard.X, yard.Y, yard.Width, yard.Height})
	assert.NoFileExists(t, path+".tmp")
}

func TestStoreSetCameraDisabled(t *testing.T) {
	s, err := Open(writeFile(t, sampleYAML))
	require.NoError(t, err)

	require.NoError(t, s.SetCameraDisabled(0, true))
	assert.True(t, s.Snapshot().Cameras[0].Disabled)
	assert.ErrorIs(t, s.SetCameraDisabled(7, true), ErrUnknownCamera)
}

func TestSnapshotIsACopy(t *testing.T) {
	s, err := Open(writeFile(t, sampleYAML))
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Cameras[0].Name = "changed"
	assert.Equal(t, "Front door", s.Snapshot().Cameras[0].Name)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Yard", CameraConfig{Name: "Yard", URL: "rtsp://x"}.Title())
	assert.Equal(t, "rtsp://x", CameraConfig{URL: "rtsp://x"}.Title())
}

func TestNeedsRestart(t *testing.T) {
	base := CameraConfig{ID: "a", URL: "rtsp://cam/1", RTSPTCP: true, Width: 640}

	moved := base
	moved.X, moved.Width, moved.Stretch, moved.AlwaysOnTop = 40, 800, true, true
	moved.AutoDeinterlace, moved.Name = true, "renamed"
	assert.False(t, NeedsRestart(base, moved))

	for name, mod := range map[string]func(c *CameraConfig){
		"url":       func(c *CameraConfig) { c.URL = "rtsp://cam/2" },
		"transport": func(c *CameraConfig) { c.RTSPTCP = false },
		"mute":      func(c *CameraConfig) { c.Mute = true },
		"params":    func(c *CameraConfig) { c.FFmpegParams = "-fstimeout=1" },
		"probesize": func(c *CameraConfig) { c.Probesize = 1 << 20 },
		"threads":   func(c *CameraConfig) { c.Threads = 2 },
		"hwaccel":   func(c *CameraConfig) { c.HwAccel = "vaapi" },
	} {
		c := base
		mod(&c)
		assert.True(t, NeedsRestart(base, c), name)
	}
}

func TestMergeGeometry(t *testing.T) {
	cams := []CameraConfig{
		{ID: "a", URL: "u1", X: 1, Y: 1, Width: 10, Height: 10},
		{ID: "b", URL: "u2", X: 2, Y: 2, Width: 20, Height: 20},
		{URL: "new"},
	}
	live := []CameraConfig{
		{ID: "b", X: 50, Y: 60, Width: 700, Height: 500},
		{ID: "gone", X: 9, Y: 9},
	}
	MergeGeometry(cams, live)

	assert.Equal(t, CameraConfig{ID: "a", URL: "u1", X: 1, Y: 1, Width: 10, Height: 10}, cams[0])
	assert.Equal(t, CameraConfig{ID: "b", URL: "u2", X: 50, Y: 60, Width: 700, Height: 500}, cams[1])
	assert.Equal(t, CameraConfig{URL: "new"}, cams[2])
}

func TestFormations(t *testing.T) {
	path := writeFile(t, sampleYAML)
	s, err := Open(path)
	require.NoError(t, err)
	front := s.Snapshot().Cameras[0].ID
	require.NotEmpty(t, front)

	assert.ErrorIs(t, s.SaveFormation("", nil), ErrNoFormationName)

	require.NoError(t, s.SaveFormation("night", []FormationItem{{CameraID: "abc", X: 1, Y: 2, Width: 300, Height: 200}}))
	require.NoError(t, s.SaveFormation("day", []FormationItem{{CameraID: front, Width: 640, Height: 480}}))
	// same name overwrites
	require.NoError(t, s.SaveFormation("night", []FormationItem{{CameraID: "abc", X: 5, Y: 6, Width: 320, Height: 240}}))

	snap := s.Snapshot()
	require.Len(t, snap.Formations, 2)
	assert.Equal(t, "night", snap.Formations[0].Name)
	assert.Equal(t, 5, snap.Formations[0].Items[0].X)
	assert.Equal(t, "night", snap.LastFormation)

	// snapshots do not share items with the store
	snap.Formations[0].Items[0].X = 99
	assert.Equal(t, 5, s.Snapshot().Formations[0].Items[0].X)

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, reloaded.Formations, 2)

	require.NoError(t, s.DeleteFormation("night"))
	require.NoError(t, s.DeleteFormation("unknown"))
	snap = s.Snapshot()
	require.Len(t, snap.Formations, 1)
	assert.Equal(t, "day", snap.Formations[0].Name)
	assert.Empty(t, snap.LastFormation)
}

func TestApplyFormation(t *testing.T) {
	s, err := Open(writeFile(t, sampleYAML))
	require.NoError(t, err)

	cfg, err := s.ApplyFormation(Formation{Name: "yard only", Items: []FormationItem{
		{CameraID: "abc", X: 100, Y: 50, Width: 1280, Height: 720},
		{CameraID: "removed-camera", Width: 10, Height: 10},
	}})
	require.NoError(t, err)

	assert.True(t, cfg.Cameras[0].Disabled)
	yard := cfg.Cameras[1]
	assert.False(t, yard.Disabled)
	assert.Equal(t, []int{100, 50, 1280, 720}, []int{yard.X, yard.Y, yard.Width, yard.Height})
	assert.Equal(t, "yard only", cfg.LastFormation)
}
