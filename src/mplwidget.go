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
package main

import (
	"github.com/mappu/miqt/qt"

	"github.com/e1z0/qsurveil/src/videosurface"
)

// MplVideoWidget is the framed area an external mplayer renders into.
// Fullscreen, overlay and viewport handling live in videosurface.Surface;
// this type only adapts Qt to it.
type MplVideoWidget struct {
	*qt.QFrame
	surface *videosurface.Surface
	vp      *mplViewport
}

var _ videosurface.Window = (*MplVideoWidget)(nil)

func NewMplVideoWidget(parent *qt.QWidget) *MplVideoWidget {
	w := &MplVideoWidget{QFrame: qt.NewQFrame(parent)}
	w.surface = videosurface.New(w, videosurface.Options{
		Prefs: func() videosurface.Preferences {
			return videosurface.Preferences{
				DisableScreensaverOnFullscreen: svc.Store.Snapshot().DisableScreensaverOnFullscreen,
			}
		},
		Inhibitor: svc.Saver,
		Logger:    svc.Log.Named("surface"),
	})

	w.SetMinimumSize2(videosurface.MinWidth, videosurface.MinHeight)
	w.SetFrameStyle(int(qt.QFrame__Panel) | int(qt.QFrame__Sunken))
	w.SetSizePolicy2(qt.QSizePolicy__Expanding, qt.QSizePolicy__Expanding)
	w.SetFocusPolicy(qt.StrongFocus)
	w.SetStyleSheet("background: black;")

	w.OnResizeEvent(func(super func(*qt.QResizeEvent), ev *qt.QResizeEvent) {
		super(ev)
		w.surface.HandleResize()
	})
	w.OnMouseDoubleClickEvent(func(super func(*qt.QMouseEvent), ev *qt.QMouseEvent) {
		w.surface.HandleDoubleClick()
		ev.Accept()
	})
	w.OnKeyPressEvent(func(super func(*qt.QKeyEvent), ev *qt.QKeyEvent) {
		if w.surface.HandleKey(mapKey(ev.Key()), mapModifiers(ev.Modifiers())) {
			ev.Accept()
			return
		}
		super(ev)
	})
	w.OnSizeHint(func(super func() *qt.QSize) *qt.QSize {
		fw, fh := w.surface.SizeHint()
		if fw <= 0 || fh <= 0 {
			return super()
		}
		return qt.NewQSize2(fw, fh)
	})

	w.SetViewport(newMplViewport(w.QWidget, w.surface.OverlayMessage))
	return w
}

func (w *MplVideoWidget) Surface() *videosurface.Surface { return w.surface }

// SetViewport replaces the render child, e.g. after the player died and
// left its native window in an unknown state.
func (w *MplVideoWidget) SetViewport(vp *mplViewport) {
	w.vp = vp
	w.surface.SetViewport(vp)
}

func (w *MplVideoWidget) ViewportRect() videosurface.Rect {
	r := w.ContentsRect()
	return videosurface.Rect{X: r.X(), Y: r.Y(), Width: r.Width(), Height: r.Height()}
}

func (w *MplVideoWidget) SetTopLevel(on bool) {
	w.SetWindowFlag2(qt.Window, on)
}

func mapKey(k int) videosurface.Key {
	if k == int(qt.Key_Escape) {
		return videosurface.KeyEscape
	}
	return videosurface.KeyOther
}

func mapModifiers(m qt.KeyboardModifier) videosurface.Modifiers {
	var out videosurface.Modifiers
	if m&qt.ShiftModifier != 0 {
		out |= videosurface.ShiftModifier
	}
	if m&qt.ControlModifier != 0 {
		out |= videosurface.ControlModifier
	}
	if m&qt.AltModifier != 0 {
		out |= videosurface.AltModifier
	}
	if m&qt.MetaModifier != 0 {
		out |= videosurface.MetaModifier
	}
	return out
}

// mplViewport is a native child window; mplayer draws into it by id and
// Qt paints the overlay message while nothing is playing.
type mplViewport struct {
	*qt.QWidget
	message func() string
}

var _ videosurface.Viewport = (*mplViewport)(nil)

func newMplViewport(parent *qt.QWidget, message func() string) *mplViewport {
	v := &mplViewport{QWidget: qt.NewQWidget(parent), message: message}
	v.SetAttribute2(qt.WA_NativeWindow, true)
	v.SetAttribute2(qt.WA_OpaquePaintEvent, true)
	v.SetAutoFillBackground(false)
	v.SetMouseTracking(true)

	v.OnPaintEvent(func(super func(*qt.QPaintEvent), ev *qt.QPaintEvent) {
		p := qt.NewQPainter2(v.QPaintDevice)
		defer p.End()
		p.FillRect6(v.Rect(), qt.NewQColor11(0, 0, 0, 255))
		msg := v.message()
		if msg == "" {
			return
		}
		fm := qt.NewQFontMetrics(p.Font())
		tw := fm.BoundingRectWithText(msg).Width()
		x := max((v.Width()-tw)/2, 4)
		y := (v.Height() + fm.Ascent()) / 2
		p.SetPenWithPen(qt.NewQPen3(qt.NewQColor11(255, 255, 255, 230)))
		p.DrawText2(qt.NewQPoint2(x, y), msg)
	})
	return v
}

func (v *mplViewport) WindowID() uint64 { return uint64(v.WinId()) }

func (v *mplViewport) SetGeometry(r videosurface.Rect) {
	v.QWidget.SetGeometry(r.X, r.Y, r.Width, r.Height)
}

func (v *mplViewport) Release() {
	v.Hide()
	v.DeleteLater()
}
