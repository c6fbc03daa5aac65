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
	"fmt"
	"strings"
	"unsafe"

	"github.com/mappu/miqt/qt"

	"github.com/e1z0/qsurveil/src/rtspstream"
)

// FrameSource returns the latest decoded frame or nil.
type FrameSource func() *rtspstream.Frame

// VideoWidget paints the latest frame of a camera stream.
type VideoWidget struct {
	*qt.QWidget
	source  FrameSource
	frame   *rtspstream.Frame // last frame handed to paint
	Stretch bool
	// drag/resize state for frameless windows
	owner    *CamWindow
	dragging bool
	resizing bool
	edgeMask int // bitmask: 1=L,2=R,4=T,8=B
	pressGX  int // global mouse pos at press
	pressGY  int
	origX    int // original window geometry
	origY    int
	origW    int
	origH    int
	titleLbl *qt.QLabel // camera name label

	ctxMenu    *qt.QMenu
	menuHooked bool
}

const (
	edgeLeft  = 1
	edgeRight = 2
	edgeTop   = 4
	edgeBot   = 8
)

func NewVideoWidget(source FrameSource, parent *qt.QWidget, stretch bool) *VideoWidget {
	w := &VideoWidget{
		QWidget: qt.NewQWidget(parent),
		source:  source,
		Stretch: stretch,
	}
	// overlay camera name label (top-left)
	w.titleLbl = qt.NewQLabel(nil)
	w.titleLbl.SetParent(w.QWidget)
	w.titleLbl.SetStyleSheet(
		"color: rgba(255,255,255,0.97);" +
			"background: rgba(0,0,0,0.55);" +
			"padding: 2px 8px;" +
			"border-radius: 6px;" +
			"font-size: 11pt;",
	)
	w.titleLbl.SetAttribute2(qt.WA_TransparentForMouseEvents, true)
	w.titleLbl.Hide()

	w.SetAttribute2(qt.WA_OpaquePaintEvent, true)
	w.SetAutoFillBackground(false)

	w.OnPaintEvent(func(super func(event *qt.QPaintEvent), event *qt.QPaintEvent) {
		p := qt.NewQPainter2(w.QPaintDevice)
		defer p.End()
		p.FillRect6(w.Rect(), qt.NewQColor11(0, 0, 0, 255))
		w.paintFrame(p)
		w.paintOverlays(p)
	})
	w.SetMouseTracking(true) // track hover to update resize cursor

	w.OnMousePressEvent(func(super func(event *qt.QMouseEvent), ev *qt.QMouseEvent) {
		if ev.Button() != qt.LeftButton || !w.isFramelessActive() {
			super(ev)
			return
		}
		top := w.QWidget.Window()
		if top == nil {
			super(ev)
			return
		}

		g := top.Geometry()
		w.origX, w.origY = g.X(), g.Y()
		w.origW, w.origH = g.Width(), g.Height()

		lp := ev.Pos()
		w.edgeMask = w.hitEdges(lp.X(), lp.Y())
		gp := w.QWidget.MapToGlobal(lp)
		w.pressGX, w.pressGY = gp.X(), gp.Y()

		if w.edgeMask != 0 {
			w.resizing = true
			w.setHoverCursor(w.edgeMask)
		} else {
			w.dragging = true
			w.SetCursor(qt.NewQCursor2(qt.SizeAllCursor))
		}
		ev.Accept()
	})

	w.OnMouseMoveEvent(func(super func(event *qt.QMouseEvent), ev *qt.QMouseEvent) {
		if !w.isFramelessActive() {
			super(ev)
			return
		}
		top := w.QWidget.Window()
		if top == nil {
			super(ev)
			return
		}
		lp := ev.Pos()

		// While not dragging, just update hover cursor near edges
		if !w.dragging && !w.resizing {
			w.setHoverCursor(w.hitEdges(lp.X(), lp.Y()))
			super(ev)
			return
		}

		gp := w.QWidget.MapToGlobal(lp)
		x, y, width, height := w.dragGeometry(gp.X()-w.pressGX, gp.Y()-w.pressGY, top.MinimumSize())
		top.SetGeometry(x, y, width, height)
		ev.Accept()
	})

	w.OnMouseReleaseEvent(func(super func(event *qt.QMouseEvent), ev *qt.QMouseEvent) {
		if (w.dragging || w.resizing) && ev.Button() == qt.LeftButton {
			w.dragging, w.resizing = false, false
			w.edgeMask = 0
			w.UnsetCursor()
			ev.Accept()
			return
		}
		super(ev)
	})

	// keep the label placed at top-left on resize
	w.OnResizeEvent(func(super func(*qt.QResizeEvent), ev *qt.QResizeEvent) {
		super(ev)
		if w.titleLbl != nil && w.titleLbl.IsVisible() {
			const margin = 8
			w.titleLbl.Move(margin, margin)
		}
	})
	w.SetSizePolicy2(qt.QSizePolicy__Expanding, qt.QSizePolicy__Expanding)
	w.SetMinimumSize2(200, 140)

	return w
}

// Present schedules a repaint when the stream has a newer frame.
func (w *VideoWidget) Present() {
	f := w.source()
	if f == nil {
		if w.frame != nil {
			w.frame = nil
			w.Update()
		}
		return
	}
	if w.frame != nil && w.frame.Seq == f.Seq {
		return
	}
	w.frame = f
	w.Update()
}

func (w *VideoWidget) paintFrame(p *qt.QPainter) {
	f := w.frame
	if !f.Valid() {
		return
	}
	srcW, srcH := f.Width, f.Height
	dstW, dstH := w.Width(), w.Height()
	if dstW <= 0 || dstH <= 0 {
		return
	}

	// Format_RGB32 is BGRA on little-endian; bytesPerLine is 4*width
	img := qt.NewQImage3(srcW, srcH, qt.QImage__Format_RGB32)
	defer img.Delete()
	dst := unsafe.Slice((*byte)(img.Bits()), srcW*srcH*4)
	copy(dst, f.Data[:srcW*srcH*4])

	x, y, outW, outH := fitRect(srcW, srcH, dstW, dstH, w.Stretch)
	p.SetRenderHint2(qt.QPainter__SmoothPixmapTransform, true)
	p.DrawImage2(qt.NewQRect4(x, y, outW, outH), img, qt.NewQRect4(0, 0, srcW, srcH))
}

// fitRect letterboxes a srcW x srcH image into dstW x dstH, or fills it
// when stretch is set.
func fitRect(srcW, srcH, dstW, dstH int, stretch bool) (x, y, w, h int) {
	if stretch {
		return 0, 0, dstW, dstH
	}
	s := min(float64(dstW)/float64(srcW), float64(dstH)/float64(srcH))
	w = int(float64(srcW)*s + 0.5)
	h = int(float64(srcH)*s + 0.5)
	return (dstW - w) / 2, (dstH - h) / 2, w, h
}

func (w *VideoWidget) paintOverlays(p *qt.QPainter) {
	if w.owner == nil {
		return
	}
	st := w.owner.overlay()
	cfg := svc.Store.Snapshot()

	// state chips, top-right
	var chips []string
	if st.recording {
		chips = append(chips, "● REC")
	}
	if st.paused {
		chips = append(chips, "PAUSED")
	}
	if len(chips) > 0 {
		txt := strings.Join(chips, "  ")
		fm := qt.NewQFontMetrics(p.Font())
		tw := fm.BoundingRectWithText(txt).Width() + 16
		th := fm.Height() + 8
		x := w.Width() - tw - 8
		p.FillRect6(qt.NewQRect4(x, 8, tw, th), qt.NewQColor11(0, 0, 0, 160))
		col := qt.NewQColor11(255, 255, 255, 230)
		if st.recording {
			col = qt.NewQColor11(255, 70, 70, 240)
		}
		p.SetPenWithPen(qt.NewQPen3(col))
		p.DrawText2(qt.NewQPoint2(x+8, 8+th-8), txt)
	}

	// connection status, centered
	if st.status != "" {
		fm := qt.NewQFontMetrics(p.Font())
		tw := fm.BoundingRectWithText(st.status).Width() + 20
		th := fm.Height() + 10
		x := (w.Width() - tw) / 2
		y := (w.Height() - th) / 2
		p.FillRect6(qt.NewQRect4(x, y, tw, th), qt.NewQColor11(0, 0, 0, 170))
		p.SetPenWithPen(qt.NewQPen3(qt.NewQColor11(255, 210, 120, 240)))
		p.DrawText2(qt.NewQPoint2(x+10, y+th-10), st.status)
	}

	// stats text, bottom-left
	var parts []string
	if cfg.ShowFPS {
		parts = append(parts, fmt.Sprintf("FPS: %.1f", st.fps))
	}
	if cfg.ShowBitrate {
		parts = append(parts, fmt.Sprintf("Bitrate: %.1f kbps", st.kbps))
	}
	if len(parts) > 0 {
		txt := strings.Join(parts, "  |  ")
		fm := qt.NewQFontMetrics(p.Font())
		tw := fm.BoundingRectWithText(txt).Width() + 16
		th := fm.Height() + 8
		x := 8
		y := w.Height() - th - 8
		p.FillRect6(qt.NewQRect4(x, y, tw, th), qt.NewQColor11(0, 0, 0, 150))
		p.SetPenWithPen(qt.NewQPen3(qt.NewQColor11(255, 255, 255, 230)))
		p.DrawText2(qt.NewQPoint2(x+8, y+th-8), txt)
	}
}

func (w *VideoWidget) setHoverCursor(mask int) {
	if mask == 0 || !w.isFramelessActive() {
		w.UnsetCursor()
		return
	}
	switch mask {
	case edgeLeft | edgeTop, edgeRight | edgeBot:
		w.SetCursor(qt.NewQCursor2(qt.SizeFDiagCursor))
	case edgeRight | edgeTop, edgeLeft | edgeBot:
		w.SetCursor(qt.NewQCursor2(qt.SizeBDiagCursor))
	case edgeLeft, edgeRight:
		w.SetCursor(qt.NewQCursor2(qt.SizeHorCursor))
	case edgeTop, edgeBot:
		w.SetCursor(qt.NewQCursor2(qt.SizeVerCursor))
	default:
		w.SetCursor(qt.NewQCursor2(qt.ArrowCursor))
	}
}

// dragGeometry is the window geometry after the mouse moved dx, dy since
// the press, honouring the window's minimum size.
func (w *VideoWidget) dragGeometry(dx, dy int, minSize *qt.QSize) (x, y, width, height int) {
	minW, minH := 160, 120
	if minSize != nil && minSize.Width() > 0 {
		minW = minSize.Width()
	}
	if minSize != nil && minSize.Height() > 0 {
		minH = minSize.Height()
	}

	x, y, width, height = w.origX, w.origY, w.origW, w.origH
	if w.dragging {
		return w.origX + dx, w.origY + dy, width, height
	}
	if w.edgeMask&edgeLeft != 0 {
		x = w.origX + dx
		width = w.origW - dx
		if width < minW {
			x = w.origX + (w.origW - minW)
			width = minW
		}
	}
	if w.edgeMask&edgeRight != 0 {
		width = max(w.origW+dx, minW)
	}
	if w.edgeMask&edgeTop != 0 {
		y = w.origY + dy
		height = w.origH - dy
		if height < minH {
			y = w.origY + (w.origH - minH)
			height = minH
		}
	}
	if w.edgeMask&edgeBot != 0 {
		height = max(w.origH+dy, minH)
	}
	return x, y, width, height
}

// SetOverlayTitle updates the small top-left label shown in frameless mode.
func (w *VideoWidget) SetOverlayTitle(text string, visible bool) {
	if w == nil || w.titleLbl == nil {
		return
	}
	w.titleLbl.SetText(text)
	if visible {
		const margin = 8
		w.titleLbl.AdjustSize()
		w.titleLbl.Move(margin, margin)
		w.titleLbl.Show()
		w.titleLbl.Raise()
	} else {
		w.titleLbl.Hide()
	}
}

func (w *VideoWidget) SetOwner(cw *CamWindow) { w.owner = cw }

// isFramelessActive reports whether the widget moves its window itself:
// only in borderless mode and never while fullscreen.
func (w *VideoWidget) isFramelessActive() bool {
	top := w.QWidget.Window()
	if top == nil {
		return false
	}
	if !svc.Store.Snapshot().NoWindowsTitles {
		return false
	}
	return !top.IsFullScreen()
}

func (w *VideoWidget) hitEdges(px, py int) int {
	const m = 8
	r := w.Rect()
	mask := 0
	if px <= m {
		mask |= edgeLeft
	}
	if px >= r.Width()-m {
		mask |= edgeRight
	}
	if py <= m {
		mask |= edgeTop
	}
	if py >= r.Height()-m {
		mask |= edgeBot
	}
	return mask
}

// SetContextMenu installs menu as the right-click menu. The tray calls it
// again after rebuilding.
func (v *VideoWidget) SetContextMenu(menu *qt.QMenu) {
	if v == nil || v.QWidget == nil {
		return
	}
	v.ctxMenu = menu
	if v.menuHooked {
		return
	}
	v.menuHooked = true
	v.QWidget.SetContextMenuPolicy(qt.CustomContextMenu)
	v.QWidget.OnCustomContextMenuRequested(func(pos *qt.QPoint) {
		if v.ctxMenu == nil {
			return
		}
		v.ctxMenu.Popup(v.QWidget.MapToGlobal(pos))
	})
}
