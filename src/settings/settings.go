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

// Package settings loads and persists the client configuration
// (~/.config/qsurveil/settings.yml).
package settings

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DefaultMplayerPath   = "mplayer"
	DefaultQuitTimeout   = time.Second
	DefaultStreamTimeout = 5 * time.Second
)

type AppConfig struct {
	Cameras         []CameraConfig `yaml:"cameras"`
	NoWindowsTitles bool           `yaml:"nowindowstitles,omitempty"`
	AlwaysOnTopAll  bool           `yaml:"always_on_top_all,omitempty"` //all camera windows are always on top
	ActiveOnTray    bool           `yaml:"activate_on_tray,omitempty"`
	// overlays
	ShowFPS       bool `yaml:"show_fps,omitempty"`
	ShowBitrate   bool `yaml:"show_bitrate,omitempty"`
	ShowTotalRate bool `yaml:"show_total_rate,omitempty"` // global download rate in the tray tooltip

	// playback of recordings through mplayer
	MplayerPath   string `yaml:"mplayer_path,omitempty"`
	QuitTimeoutMS int    `yaml:"quit_timeout_ms,omitempty"` // grace period before mplayer is killed
	StopTimeoutMS int    `yaml:"stream_stop_timeout_ms,omitempty"`
	RecordingsDir string `yaml:"recordings_dir,omitempty"`

	DisableScreensaverOnFullscreen bool `yaml:"disable_screensaver_on_fullscreen,omitempty"`

	Formations    []Formation `yaml:"formations,omitempty"`
	LastFormation string      `yaml:"last_formation,omitempty"`
}

// Formation is a named arrangement of camera windows.
type Formation struct {
	Name  string          `yaml:"name"`
	Items []FormationItem `yaml:"items"`
}

type FormationItem struct {
	CameraID string `yaml:"camera_id"`
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
}

type CameraConfig struct {
	ID              string `yaml:"id,omitempty"`       // camera uuid
	Name            string `yaml:"name"`               // camera name
	Disabled        bool   `yaml:"disabled,omitempty"` // if camera is disabled
	URL             string `yaml:"url"`                // camera url, rtsp://...
	RTSPTCP         bool   `yaml:"rtsp_tcp"`           // enable tcp for rtsp?
	X               int    `yaml:"x,omitempty"`
	Y               int    `yaml:"y,omitempty"`
	Width           int    `yaml:"width"`
	Height          int    `yaml:"height"`
	AlwaysOnTop     bool   `yaml:"always_on_top"`
	Mute            bool   `yaml:"mute,omitempty"`
	Stretch         bool   `yaml:"stretch,omitempty"` // fill the widget, no aspect lock
	AutoDeinterlace bool   `yaml:"auto_deinterlace,omitempty"`

	FFmpegParams string `yaml:"ffmpeg_params,omitempty"` // -fkey=value demuxer, -ckey=value decoder
	Probesize    int64  `yaml:"probesize,omitempty"`     // bytes
	Threads      int    `yaml:"threads,omitempty"`       // decoder threads, 0=auto
	HwAccel      string `yaml:"hwaccel,omitempty"`
}

// Title is the name shown to the user, falling back to the URL.
func (c CameraConfig) Title() string {
	if c.Name != "" {
		return c.Name
	}
	return c.URL
}

func (c *AppConfig) Mplayer() string {
	if c.MplayerPath == "" {
		return DefaultMplayerPath
	}
	return c.MplayerPath
}

func (c *AppConfig) QuitTimeout() time.Duration {
	if c.QuitTimeoutMS <= 0 {
		return DefaultQuitTimeout
	}
	return time.Duration(c.QuitTimeoutMS) * time.Millisecond
}

func (c *AppConfig) StopTimeout() time.Duration {
	if c.StopTimeoutMS <= 0 {
		return DefaultStreamTimeout
	}
	return time.Duration(c.StopTimeoutMS) * time.Millisecond
}

// Load reads a config file. A missing file is reported with os.ErrNotExist.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	EnsureCameraIDs(cfg.Cameras)
	return cfg, nil
}

// Save writes cfg atomically: tmp file, then rename.
func Save(path string, cfg *AppConfig) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// EnsureCameraIDs gives every camera without an id a random one.
func EnsureCameraIDs(cs []CameraConfig) {
	for i := range cs {
		if cs[i].ID == "" {
			cs[i].ID = GenID()
		}
	}
}

func GenID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

var (
	ErrUnknownCamera   = errors.New("settings: camera not found")
	ErrNoFormationName = errors.New("settings: formation needs a name")
)

// Store is the in-memory config shared by the GUI plus the file it came from.
type Store struct {
	mu   sync.Mutex
	path string
	cfg  AppConfig
}

// Open loads path into a Store. If the file does not exist an empty config
// is written first.
func Open(path string) (*Store, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = AppConfig{}
		if err := Save(path, &cfg); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return &Store{path: path, cfg: cfg}, nil
}

func (s *Store) Path() string { return s.path }

// Snapshot returns a copy of the current config.
func (s *Store) Snapshot() AppConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.cfg
	cfg.Cameras = append([]CameraConfig(nil), s.cfg.Cameras...)
	cfg.Formations = nil
	for _, f := range s.cfg.Formations {
		cfg.Formations = append(cfg.Formations, Formation{Name: f.Name, Items: append([]FormationItem(nil), f.Items...)})
	}
	return cfg
}

// Update runs fn on the live config and persists the result.
func (s *Store) Update(fn func(cfg *AppConfig)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cfg)
	return Save(s.path, &s.cfg)
}

func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Save(s.path, &s.cfg)
}

// UpdateCameraGeometry stores a window position for the camera whose id,
// name (when it has no id) or URL matches key.
func (s *Store) UpdateCameraGeometry(key string, x, y, w, h int) error {
	var found bool
	err := s.Update(func(cfg *AppConfig) {
		for i := range cfg.Cameras {
			c := &cfg.Cameras[i]
			if (c.ID != "" && c.ID == key) || (c.ID == "" && c.Name == key) || key == c.URL {
				c.X, c.Y, c.Width, c.Height = x, y, w, h
				found = true
				return
			}
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrUnknownCamera
	}
	return nil
}

// SetCameraDisabled flips the disabled flag of camera idx.
func (s *Store) SetCameraDisabled(idx int, disabled bool) error {
	var found bool
	err := s.Update(func(cfg *AppConfig) {
		if idx < 0 || idx >= len(cfg.Cameras) {
			return
		}
		cfg.Cameras[idx].Disabled = disabled
		found = true
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrUnknownCamera
	}
	return nil
}

// NeedsRestart reports whether going from a to b changes how the stream
// is opened. Window and overlay fields do not count.
func NeedsRestart(a, b CameraConfig) bool {
	return a.URL != b.URL ||
		a.RTSPTCP != b.RTSPTCP ||
		a.Mute != b.Mute ||
		a.FFmpegParams != b.FFmpegParams ||
		a.Probesize != b.Probesize ||
		a.Threads != b.Threads ||
		a.HwAccel != b.HwAccel
}

// MergeGeometry copies window positions from live into cams for cameras
// with the same id. Windows may have moved while cams was being edited.
func MergeGeometry(cams []CameraConfig, live []CameraConfig) {
	byID := make(map[string]CameraConfig, len(live))
	for _, c := range live {
		if c.ID != "" {
			byID[c.ID] = c
		}
	}
	for i := range cams {
		if l, ok := byID[cams[i].ID]; ok && cams[i].ID != "" {
			cams[i].X, cams[i].Y = l.X, l.Y
			cams[i].Width, cams[i].Height = l.Width, l.Height
		}
	}
}

// SaveFormation stores items under name, replacing a formation with the
// same name, and makes it the last used one.
func (s *Store) SaveFormation(name string, items []FormationItem) error {
	if name == "" {
		return ErrNoFormationName
	}
	items = append([]FormationItem(nil), items...)
	return s.Update(func(cfg *AppConfig) {
		cfg.LastFormation = name
		for i := range cfg.Formations {
			if cfg.Formations[i].Name == name {
				cfg.Formations[i].Items = items
				return
			}
		}
		cfg.Formations = append(cfg.Formations, Formation{Name: name, Items: items})
	})
}

// DeleteFormation removes the formation called name. Unknown names are
// ignored.
func (s *Store) DeleteFormation(name string) error {
	return s.Update(func(cfg *AppConfig) {
		out := cfg.Formations[:0]
		for _, f := range cfg.Formations {
			if f.Name != name {
				out = append(out, f)
			}
		}
		cfg.Formations = out
		if cfg.LastFormation == name {
			cfg.LastFormation = ""
		}
	})
}

// ApplyFormation enables exactly the cameras f places, copies their
// geometry into the camera configs and returns the resulting config.
// Items naming unknown cameras are skipped.
func (s *Store) ApplyFormation(f Formation) (AppConfig, error) {
	want := make(map[string]FormationItem, len(f.Items))
	for _, it := range f.Items {
		want[it.CameraID] = it
	}
	err := s.Update(func(cfg *AppConfig) {
		for i := range cfg.Cameras {
			c := &cfg.Cameras[i]
			it, ok := want[c.ID]
			c.Disabled = !ok
			if ok {
				c.X, c.Y, c.Width, c.Height = it.X, it.Y, it.Width, it.Height
			}
		}
		cfg.LastFormation = f.Name
	})
	if err != nil {
		return AppConfig{}, err
	}
	return s.Snapshot(), nil
}
