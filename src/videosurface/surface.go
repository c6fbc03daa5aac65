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

// Package videosurface is the toolkit independent part of the widget an
// external player draws into. The Qt widget implements Window and
// Viewport and forwards its events here.
package videosurface

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/e1z0/qsurveil/src/screensaver"
)

//go:generate mockgen -destination=mocks/mock_surface.go -package=mocks github.com/e1z0/qsurveil/src/videosurface Window,Viewport,Backend

const (
	MinWidth  = 320
	MinHeight = 240

	// NoFrame is the frame style used while fullscreen.
	NoFrame = 0
)

// ErrNoWindowID is returned by InitVideo for backends that cannot render
// into a foreign window.
var ErrNoWindowID = errors.New("videosurface: backend cannot render into a native window")

type Rect struct {
	X, Y, Width, Height int
}

type Key int

const (
	KeyOther Key = iota
	KeyEscape
)

type Modifiers uint

const NoModifier Modifiers = 0

const (
	ShiftModifier Modifiers = 1 << iota
	ControlModifier
	AltModifier
	MetaModifier
)

// Window is the framed widget hosting the viewport.
type Window interface {
	// ViewportRect is the area inside the frame the viewport must cover.
	ViewportRect() Rect
	FrameStyle() int
	SetFrameStyle(style int)
	// SetTopLevel detaches the widget from its parent layout so it can
	// cover the screen, or puts it back.
	SetTopLevel(on bool)
	ShowFullScreen()
	ShowNormal()
}

// Viewport is the child area the player renders into.
type Viewport interface {
	WindowID() uint64
	SetGeometry(r Rect)
	Update()
	Show()
	// Release disposes of the viewport once it has been replaced.
	Release()
}

// Backend is a playback engine.
type Backend interface {
	IsReadyToPlay() bool
}

// WindowIDSetter is implemented by backends that draw into a window
// owned by another process.
type WindowIDSetter interface {
	SetWindowID(id uint64)
}

type Preferences struct {
	DisableScreensaverOnFullscreen bool
}

type Options struct {
	// Prefs is consulted on every fullscreen change. Nil means defaults.
	Prefs     func() Preferences
	Inhibitor screensaver.Inhibitor
	Logger    *zap.Logger
}

type Surface struct {
	win       Window
	prefs     func() Preferences
	inhibitor screensaver.Inhibitor
	log       *zap.Logger

	mu               sync.Mutex
	viewport         Viewport
	frameW, frameH   int
	overlay          string
	fullScreen       bool
	normalFrameStyle int
}

// New binds a surface to win. A viewport must be attached with
// SetViewport before InitVideo.
func New(win Window, opts Options) *Surface {
	if opts.Prefs == nil {
		opts.Prefs = func() Preferences { return Preferences{} }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Surface{
		win:       win,
		prefs:     opts.Prefs,
		inhibitor: opts.Inhibitor,
		log:       opts.Logger,
		frameW:    -1,
		frameH:    -1,
	}
}

// InitVideo hands the viewport's native window id to backend.
func (s *Surface) InitVideo(backend Backend) error {
	setter, ok := backend.(WindowIDSetter)
	if !ok {
		return ErrNoWindowID
	}
	s.mu.Lock()
	vp := s.viewport
	s.mu.Unlock()
	if vp == nil {
		return errors.New("videosurface: no viewport")
	}
	id := vp.WindowID()
	setter.SetWindowID(id)
	s.log.Debug("video attached", zap.Uint64("wid", id))
	return nil
}

// ClearVideo forgets the frame size.
func (s *Surface) ClearVideo() {
	s.mu.Lock()
	s.frameW, s.frameH = -1, -1
	s.mu.Unlock()
}

func (s *Surface) SetFrameSize(w, h int) {
	s.mu.Lock()
	s.frameW, s.frameH = w, h
	s.mu.Unlock()
}

// SizeHint is the frame size, (-1, -1) while unknown.
func (s *Surface) SizeHint() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameW, s.frameH
}

// SetViewport replaces the render area. The previous viewport is released.
func (s *Surface) SetViewport(vp Viewport) {
	s.mu.Lock()
	old := s.viewport
	s.viewport = vp
	s.mu.Unlock()

	if old != nil {
		old.Release()
	}
	vp.SetGeometry(s.win.ViewportRect())
	vp.Show()
}

// HandleResize keeps the viewport covering the window's contents.
func (s *Surface) HandleResize() {
	s.mu.Lock()
	vp := s.viewport
	s.mu.Unlock()
	if vp != nil {
		vp.SetGeometry(s.win.ViewportRect())
	}
}

// SetOverlayMessage stores msg and redraws, unless msg is unchanged.
func (s *Surface) SetOverlayMessage(msg string) {
	s.mu.Lock()
	if msg == s.overlay {
		s.mu.Unlock()
		return
	}
	s.overlay = msg
	vp := s.viewport
	s.mu.Unlock()
	if vp != nil {
		vp.Update()
	}
}

func (s *Surface) OverlayMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay
}

func (s *Surface) IsFullScreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullScreen
}

// SetFullScreen is a no-op when the state does not change.
func (s *Surface) SetFullScreen(on bool) {
	s.mu.Lock()
	if on == s.fullScreen {
		s.mu.Unlock()
		return
	}
	s.fullScreen = on
	restore := s.normalFrameStyle
	s.mu.Unlock()

	// the window may deliver resize events synchronously, so no lock here
	if on {
		s.win.SetTopLevel(true)
		style := s.win.FrameStyle()
		s.mu.Lock()
		s.normalFrameStyle = style
		s.mu.Unlock()
		s.win.SetFrameStyle(NoFrame)
		s.win.ShowFullScreen()
	} else {
		s.win.SetTopLevel(false)
		s.win.SetFrameStyle(restore)
		s.win.ShowNormal()
	}

	if s.inhibitor != nil && s.prefs().DisableScreensaverOnFullscreen {
		s.inhibitor.SetScreensaverInhibited(on)
	}
}

func (s *Surface) ToggleFullScreen() {
	s.SetFullScreen(!s.IsFullScreen())
}

func (s *Surface) HandleDoubleClick() {
	s.ToggleFullScreen()
}

// HandleKey reports whether the key was consumed. Only a bare Escape is,
// and it leaves fullscreen.
func (s *Surface) HandleKey(k Key, mods Modifiers) bool {
	if mods != NoModifier {
		return false
	}
	switch k {
	case KeyEscape:
		s.SetFullScreen(false)
		return true
	default:
		return false
	}
}

// CurrentFrame is not available: the picture lives in the player's
// process.
func (s *Surface) CurrentFrame() []byte {
	return nil
}
