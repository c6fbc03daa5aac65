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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mappu/miqt/qt"
	"github.com/mappu/miqt/qt/mainthread"
	"go.uber.org/zap"

	"github.com/e1z0/qsurveil/src/rtspstream"
	"github.com/e1z0/qsurveil/src/rtspworker"
	"github.com/e1z0/qsurveil/src/settings"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// CamWindow represents one camera window. The stream runs on its own
// rtspstream.Thread; everything else here lives on the GUI thread.
type CamWindow struct {
	cfg    settings.CameraConfig
	win    *qt.QMainWindow
	view   *VideoWidget
	stream *rtspstream.Thread
	log    *zap.Logger

	workerMu sync.Mutex
	worker   *rtspworker.Worker // replaced whenever the thread creates a new one

	closing bool
	paused  bool
	wantRec bool

	// supervisor state
	backoff    time.Duration // starts at 1s, doubles to 30s max
	retryTimer *qt.QTimer
	status     string

	saveTimer        *qt.QTimer
	idKey            string // stable key to find this camera in config
	idx              int
	onClosed         func(idx int)
	suppressOnClosed bool // one-shot: do not call onClosed on next close
	isFullscreen     bool
	// geometry to restore when leaving fullscreen
	prevX, prevY int
	prevW, prevH int
	suppressSave bool
	repaintTimer *qt.QTimer
	metricsTimer *qt.QTimer

	fps         float64
	bitrateKbps float64
	lastMAt     time.Time
	lastMFrames int64
	lastMBytes  int64
}

func (w *CamWindow) SetOnClosed(fn func(int)) { w.onClosed = fn }

// Called by tray before Close()
func (w *CamWindow) SuppressOnClosedOnce() { w.suppressOnClosed = true }

// newCamWindow creates the Qt window and video widget and starts streaming.
func newCamWindow(cfg settings.CameraConfig, idx int) *CamWindow {
	appCfg := svc.Store.Snapshot()
	w := &CamWindow{
		cfg:     cfg,
		backoff: minBackoff,
		idx:     idx,
		idKey:   cfg.ID,
		log:     svc.Log.With(zap.String("camera", cfg.Title())),
	}
	if w.idKey == "" {
		w.idKey = settings.GenID()
	}

	w.log.Info("opening camera", zap.String("url", cfg.URL))

	w.stream = rtspstream.NewThread(w.newWorker, svc.Meter, rtspstream.ThreadOptions{
		StopTimeout: appCfg.StopTimeout(),
		Logger:      w.log.Named("stream"),
	})
	w.stream.OnFatalError(func(msg string) {
		mainthread.Start(func() { w.onStreamError(msg) })
	})

	win := qt.NewQMainWindow(nil)
	w.win = win
	w.applyWindowFlags(&appCfg)

	width, height := cfg.Width, cfg.Height
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}
	win.Resize(width, height)
	if cfg.X > 0 && cfg.Y > 0 {
		win.Move(cfg.X, cfg.Y)
	} else {
		win.Move(0, 0)
	}

	win.OnCloseEvent(func(super func(event *qt.QCloseEvent), event *qt.QCloseEvent) {
		super(event)
		if w.closing {
			return
		}
		w.Close()

		// Only notify if not suppressed
		if w.onClosed != nil && !w.suppressOnClosed {
			cb := w.onClosed
			i := w.idx
			// run after the event returns
			postToUI(func() { cb(i) })
		}
		w.suppressOnClosed = false
	})

	// Debounced saver
	w.saveTimer = qt.NewQTimer()
	w.saveTimer.SetSingleShot(true)
	w.saveTimer.SetInterval(600)
	w.saveTimer.OnTimeout(func() {
		if w.win == nil || w.closing || looksFullscreenish(w.win) {
			return
		}
		pos, size := w.win.Pos(), w.win.Size()
		if err := svc.Store.UpdateCameraGeometry(w.idKey, pos.X(), pos.Y(), size.Width(), size.Height()); err != nil {
			w.log.Warn("save geometry failed", zap.Error(err))
		}
	})

	w.retryTimer = qt.NewQTimer2(win.QObject)
	w.retryTimer.SetSingleShot(true)
	w.retryTimer.OnTimeout(w.retry)

	view := NewVideoWidget(w.stream.FrameToDisplay, nil, cfg.Stretch)
	view.SetOwner(w)
	win.SetCentralWidget(view.QWidget)
	view.SetOverlayTitle(cfg.Title(), appCfg.NoWindowsTitles)
	w.view = view

	win.OnMouseDoubleClickEvent(func(super func(event *qt.QMouseEvent), event *qt.QMouseEvent) {
		w.ToggleFullscreen()
	})
	view.OnMouseDoubleClickEvent(func(super func(event *qt.QMouseEvent), event *qt.QMouseEvent) {
		w.ToggleFullscreen()
	})

	// Restart debounce whenever the user moves or resizes the window
	win.OnMoveEvent(func(super func(event *qt.QMoveEvent), event *qt.QMoveEvent) {
		super(event)
		if w.isFullscreen || w.suppressSave || win.IsFullScreen() || win.IsMaximized() {
			return
		}
		w.saveTimer.Stop()
		w.saveTimer.Start2()
	})
	win.OnResizeEvent(func(super func(event *qt.QResizeEvent), event *qt.QResizeEvent) {
		super(event)
		if w.isFullscreen || w.suppressSave || win.IsFullScreen() || win.IsMaximized() {
			return
		}
		w.saveTimer.Stop()
		w.saveTimer.Start2()
	})

	// SPACE toggles recording, P pauses decoding, Escape leaves fullscreen
	win.OnKeyPressEvent(func(super func(event *qt.QKeyEvent), ev *qt.QKeyEvent) {
		switch ev.Key() {
		case int(qt.Key_Space):
			w.ToggleRecording()
		case int(qt.Key_P):
			w.SetPaused(!w.paused)
		case int(qt.Key_Escape):
			if !w.isFullscreen {
				super(ev)
				return
			}
			w.ToggleFullscreen()
		default:
			super(ev)
			return
		}
		ev.Accept()
	})

	win.Show()
	win.Raise()
	win.ActivateWindow()

	svc.Streams.Add(w.idKey, w.stream)
	w.stream.Start(cfg.URL)

	// repaint on the GUI thread ~30 FPS, only when a new frame arrived
	w.repaintTimer = qt.NewQTimer2(win.QObject)
	w.repaintTimer.SetInterval(33)
	w.repaintTimer.OnTimeout(func() {
		if w.view != nil {
			w.view.Present()
		}
	})
	w.repaintTimer.Start2()

	w.lastMAt = time.Now()
	w.metricsTimer = qt.NewQTimer2(win.QObject)
	w.metricsTimer.SetInterval(1000)
	w.metricsTimer.OnTimeout(w.updateMetrics)
	w.metricsTimer.Start2()

	return w
}

// newWorker is the thread's worker factory. It runs inside Thread.Start,
// which is only called from the GUI thread.
func (w *CamWindow) newWorker() rtspstream.Worker {
	appCfg := svc.Store.Snapshot()
	wk := rtspworker.New(rtspworker.Options{
		Camera:    w.cfg,
		Audio:     svc.Audio,
		RecordDir: recordingsDir(&appCfg),
		Preflight: rtspworker.IsRTSP(w.cfg.URL),
		Logger:    svc.Log.Named("worker"),
	})
	wk.SetPaused(w.paused)
	wk.SetRecording(w.wantRec)
	w.workerMu.Lock()
	w.worker = wk
	w.workerMu.Unlock()
	w.lastMFrames, w.lastMBytes = 0, 0
	return wk
}

func (w *CamWindow) currentWorker() *rtspworker.Worker {
	w.workerMu.Lock()
	defer w.workerMu.Unlock()
	return w.worker
}

func (w *CamWindow) applyWindowFlags(cfg *settings.AppConfig) {
	w.win.SetWindowFlag2(qt.FramelessWindowHint, cfg.NoWindowsTitles)
	if !cfg.NoWindowsTitles {
		w.win.SetWindowTitle(fmt.Sprintf("Cam: %s", w.cfg.Title()))
	}
	w.win.SetWindowFlag2(qt.WindowStaysOnTopHint, cfg.AlwaysOnTopAll || w.cfg.AlwaysOnTop)
}

// ApplySettings re-applies global window preferences to an open window.
func (w *CamWindow) ApplySettings(cfg *settings.AppConfig) {
	if w.closing {
		return
	}
	w.applyWindowFlags(cfg)
	w.view.SetOverlayTitle(w.cfg.Title(), cfg.NoWindowsTitles)
	w.win.Show()
}

// onStreamError schedules a reconnect with capped exponential backoff.
func (w *CamWindow) onStreamError(msg string) {
	if w.closing {
		return
	}
	delay := w.backoff
	w.backoff *= 2
	if w.backoff > maxBackoff {
		w.backoff = maxBackoff
	}
	w.setStatus(fmt.Sprintf("%s, retrying in %ds", msg, int(delay.Seconds())))
	w.log.Info("reconnect scheduled", zap.String("error", msg), zap.Duration("in", delay))
	w.retryTimer.Stop()
	w.retryTimer.Start(int(delay.Milliseconds()))
}

// retry runs the worker again on the same thread.
func (w *CamWindow) retry() {
	if w.closing {
		return
	}
	w.setStatus("connecting…")
	w.stream.Start(w.cfg.URL)
}

func (w *CamWindow) setStatus(s string) {
	if w.status == s {
		return
	}
	w.status = s
	if w.view != nil {
		w.view.Update()
	}
}

func (w *CamWindow) updateMetrics() {
	wk := w.currentWorker()
	if wk == nil || w.closing {
		return
	}
	now := time.Now()
	dt := now.Sub(w.lastMAt).Seconds()
	if dt <= 0 {
		return
	}
	st := wk.Stats()
	dF := max(st.FramesDecoded-w.lastMFrames, 0)
	dB := max(st.BytesVideo-w.lastMBytes, 0)
	w.fps = float64(dF) / dt
	// bits/sec -> kbps
	w.bitrateKbps = (float64(dB) * 8.0 / dt) / 1000.0
	w.lastMFrames, w.lastMBytes, w.lastMAt = st.FramesDecoded, st.BytesVideo, now

	if dF > 0 {
		w.backoff = minBackoff
		w.setStatus("")
	}
	if flags.debugFrames {
		w.log.Debug("frames", zap.Int64("decoded", st.FramesDecoded), zap.Int64("errors", st.DecodeErrors),
			zap.Float64("fps", w.fps), zap.Float64("kbps", w.bitrateKbps))
	}
	w.view.Update()
}

// Close stops the stream in the background and closes the window.
func (w *CamWindow) Close() {
	if w == nil || w.closing {
		return
	}
	w.log.Info("closing camera")
	w.release()

	svc.Streams.Remove(w.idKey)
	go func(t *rtspstream.Thread, log *zap.Logger) {
		if err := t.Stop(); err != nil {
			log.Warn("stream stop", zap.Error(err))
		}
	}(w.stream, w.log)

	if w.win != nil {
		w.win.Close()
	}
}

// release stops the window's timers. The stream is left to its owner.
func (w *CamWindow) release() {
	w.closing = true
	for _, t := range []*qt.QTimer{w.retryTimer, w.repaintTimer, w.metricsTimer, w.saveTimer} {
		if t != nil {
			t.Stop()
		}
	}
}

// SetContextMenu shows menu on right click in the video area.
func (w *CamWindow) SetContextMenu(menu *qt.QMenu) {
	if w == nil || w.view == nil || menu == nil {
		return
	}
	w.view.SetContextMenu(menu)
}

// ToggleFullscreen switches between windowed mode and fullscreen.
// Geometry is not persisted while fullscreen and restored on exit.
func (w *CamWindow) ToggleFullscreen() {
	if w == nil || w.win == nil {
		return
	}

	if !w.isFullscreen {
		g := w.win.Geometry()
		w.prevX, w.prevY = g.X(), g.Y()
		w.prevW, w.prevH = g.Width(), g.Height()

		w.suppressSave = true
		w.isFullscreen = true
		w.win.ShowFullScreen()
		postToUI(func() { w.suppressSave = false })
		return
	}

	w.suppressSave = true
	w.win.ShowNormal()
	if w.prevW > 0 && w.prevH > 0 {
		w.win.SetGeometry(w.prevX, w.prevY, w.prevW, w.prevH)
	}
	w.isFullscreen = false
	w.saveTimer.Stop()

	t := qt.NewQTimer()
	t.SetSingleShot(true)
	t.SetInterval(750)
	t.OnTimeout(func() {
		w.suppressSave = false
		t.DeleteLater()
	})
	t.Start2()
}

// placeAt moves the window without persisting the intermediate geometry.
func (w *CamWindow) placeAt(x, y, width, height int) {
	if w.closing {
		return
	}
	if w.isFullscreen {
		w.ToggleFullscreen()
	}
	w.suppressSave = true
	w.win.SetGeometry(x, y, width, height)
	w.win.Show()
	postToUI(func() { w.suppressSave = false })
}

// OnResumeFromSleep restarts the stream after a system wake.
func (w *CamWindow) OnResumeFromSleep() {
	w.restart("wake")
}

// RestartWith applies an edited camera config and restarts the stream.
func (w *CamWindow) RestartWith(c settings.CameraConfig, reason string) {
	w.cfg = c
	w.view.Stretch = c.Stretch
	w.view.SetOverlayTitle(c.Title(), svc.Store.Snapshot().NoWindowsTitles)
	w.restart(reason)
}

// restart tears the worker down off the GUI thread, then starts a new one.
func (w *CamWindow) restart(reason string) {
	if w == nil || w.closing {
		return
	}
	w.log.Info("restarting stream", zap.String("reason", reason))
	w.retryTimer.Stop()
	w.backoff = minBackoff
	w.setStatus("restarting…")
	go func() {
		if err := w.stream.Stop(); err != nil {
			w.log.Warn("stream stop", zap.Error(err))
		}
		mainthread.Start(func() {
			if w.closing {
				return
			}
			svc.Streams.Add(w.idKey, w.stream)
			w.stream.Start(w.cfg.URL)
		})
	}()
}

// SetPaused keeps the connection but stops decoding.
func (w *CamWindow) SetPaused(paused bool) {
	if w == nil || w.closing {
		return
	}
	if err := w.stream.SetPaused(paused); err != nil {
		if errors.Is(err, rtspstream.ErrNoWorker) {
			w.log.Debug("pause ignored, stream not running")
			return
		}
		w.log.Warn("pause", zap.Error(err))
		return
	}
	w.paused = paused
	w.view.Update()
}

// markPaused records a pause applied to the stream by its group.
func (w *CamWindow) markPaused(paused bool) {
	if w == nil || w.closing {
		return
	}
	w.paused = paused
	w.view.Update()
}

// SetAutoDeinterlacing switches field blending for the running stream.
func (w *CamWindow) SetAutoDeinterlacing(on bool) {
	w.cfg.AutoDeinterlace = on
	w.stream.SetAutoDeinterlacing(on)
}

func (w *CamWindow) IsRecording() bool {
	if wk := w.currentWorker(); wk != nil {
		return wk.IsRecording()
	}
	return false
}

// ToggleRecording starts or stops recording for this camera.
func (w *CamWindow) ToggleRecording() {
	if w == nil || w.closing {
		return
	}
	w.wantRec = !w.wantRec
	if wk := w.currentWorker(); wk != nil {
		wk.SetRecording(w.wantRec)
	}
	w.log.Info("recording", zap.Bool("on", w.wantRec))
	w.view.Update()
}

// overlayState is what the video widget draws over the frame.
type overlayState struct {
	fps, kbps float64
	status    string
	paused    bool
	recording bool
}

func (w *CamWindow) overlay() overlayState {
	return overlayState{
		fps:       w.fps,
		kbps:      w.bitrateKbps,
		status:    w.status,
		paused:    w.paused,
		recording: w.wantRec,
	}
}

func looksFullscreenish(win *qt.QMainWindow) bool {
	if win == nil {
		return false
	}
	if win.IsFullScreen() || win.IsMaximized() {
		return true
	}
	// Compare against the current screen's *available* geometry
	scr := win.Screen()
	if scr == nil {
		scr = qt.QGuiApplication_PrimaryScreen()
	}
	if scr == nil {
		return false
	}
	sg := scr.AvailableGeometry() // excludes taskbar/dock
	wg := win.Geometry()

	const tol = 8 // px tolerance
	samePos := abs(wg.X()-sg.X()) <= tol && abs(wg.Y()-sg.Y()) <= tol
	sameW := abs(wg.Width()-sg.Width()) <= tol
	sameH := abs(wg.Height()-sg.Height()) <= tol
	if samePos && sameW && sameH {
		return true
	}

	// >95% of each dimension counts too (frameless edge cases)
	return wg.Width() >= int(float64(sg.Width())*0.95) &&
		wg.Height() >= int(float64(sg.Height())*0.95)
}
