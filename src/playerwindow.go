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
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mappu/miqt/qt"
	"github.com/mappu/miqt/qt/mainthread"
	"go.uber.org/zap"

	"github.com/e1z0/qsurveil/src/mplayer"
	"github.com/e1z0/qsurveil/src/videosurface"
)

// seek slider resolution: ticks per second
const seekScale = 10

var speeds = []float64{0.25, 0.5, 1, 1.5, 2, 4}

// PlayerWindow plays one recording with mplayer rendering into an
// MplVideoWidget. It is the player backend of that widget's surface.
type PlayerWindow struct {
	win     *qt.QMainWindow
	video   *MplVideoWidget
	player  *mplayer.Process
	file    string
	log     *zap.Logger
	wid     uint64
	started bool // launch errors are returned by NewPlayerWindow instead
	closed  bool

	playBtn *qt.QPushButton
	seek    *qt.QSlider
	timeLbl *qt.QLabel
	speed   *qt.QComboBox
	volume  *qt.QSlider
	mute    *qt.QCheckBox
	poll    *qt.QTimer

	dragging bool
}

var (
	_ videosurface.Backend        = (*PlayerWindow)(nil)
	_ videosurface.WindowIDSetter = (*PlayerWindow)(nil)
)

// players keeps open windows reachable
var players = map[*PlayerWindow]struct{}{}

// NewPlayerWindow opens a window and starts playing file.
func NewPlayerWindow(file string) (*PlayerWindow, error) {
	cfg := svc.Store.Snapshot()
	bin, err := exec.LookPath(cfg.Mplayer())
	if err != nil {
		return nil, fmt.Errorf("mplayer not found (%s): %w", cfg.Mplayer(), err)
	}

	pw := &PlayerWindow{
		file: file,
		log:  svc.Log.Named("player").With(zap.String("file", filepath.Base(file))),
	}
	pw.win = qt.NewQMainWindow(nil)
	pw.win.SetWindowTitle("Playback: " + filepath.Base(file))
	pw.win.Resize(800, 560)

	central := qt.NewQWidget(nil)
	pw.video = NewMplVideoWidget(central)
	pw.video.Surface().SetOverlayMessage("Loading…")

	root := qt.NewQVBoxLayout(nil)
	root.SetContentsMargins(4, 4, 4, 4)
	root.AddWidget(pw.video.QWidget)
	root.AddLayout(pw.buildControls().QLayout)
	central.SetLayout(root.QLayout)
	pw.win.SetCentralWidget(central)

	pw.win.OnCloseEvent(func(super func(*qt.QCloseEvent), ev *qt.QCloseEvent) {
		super(ev)
		pw.shutdown()
	})

	pw.win.Show()
	// the viewport needs a native window before its id can be handed out
	if err := pw.video.Surface().InitVideo(pw); err != nil {
		pw.win.Close()
		return nil, err
	}

	pw.player = mplayer.New(strconv.FormatUint(pw.wid, 10), mplayer.Events{
		OnError:           pw.onError,
		OnEOF:             pw.onEOF,
		OnReadyToPlay:     pw.onReady,
		OnDurationChanged: pw.onDuration,
	}, mplayer.Options{
		Binary:      bin,
		QuitTimeout: cfg.QuitTimeout(),
		Dispatch:    mainthread.Start,
		Logger:      pw.log,
	})
	if !pw.player.Start(file) {
		err := pw.player.LastError()
		pw.win.Close()
		return nil, err
	}
	pw.started = true

	pw.poll = qt.NewQTimer2(pw.win.QObject)
	pw.poll.SetInterval(500)
	pw.poll.OnTimeout(pw.refresh)
	pw.poll.Start2()

	players[pw] = struct{}{}
	showAndFocus(pw.win.QWidget)
	return pw, nil
}

// SetWindowID receives the native id of the viewport from the surface.
func (pw *PlayerWindow) SetWindowID(id uint64) {
	pw.wid = id
	pw.log.Debug("render window", zap.Uint64("wid", id))
}

func (pw *PlayerWindow) IsReadyToPlay() bool {
	return pw.player != nil && pw.player.IsReadyToPlay()
}

func (pw *PlayerWindow) buildControls() *qt.QHBoxLayout {
	row := qt.NewQHBoxLayout(nil)

	pw.playBtn = qt.NewQPushButton5("Pause", nil)
	pw.playBtn.OnClicked(pw.togglePause)
	row.AddWidget(pw.playBtn.QWidget)

	pw.seek = qt.NewQSlider(nil)
	pw.seek.SetOrientation(qt.Horizontal)
	pw.seek.SetRange(0, 0)
	pw.seek.OnSliderPressed(func() { pw.dragging = true })
	pw.seek.OnSliderReleased(func() {
		pw.dragging = false
		if pw.player != nil {
			pw.player.Seek(float64(pw.seek.Value()) / seekScale)
		}
	})
	row.AddWidget(pw.seek.QWidget)

	pw.timeLbl = qt.NewQLabel(nil)
	pw.timeLbl.SetText("--:-- / --:--")
	row.AddWidget(pw.timeLbl.QWidget)

	pw.speed = qt.NewQComboBox(nil)
	for _, s := range speeds {
		pw.speed.AddItem(strconv.FormatFloat(s, 'g', -1, 64) + "x")
	}
	pw.speed.SetCurrentIndex(2)
	pw.speed.OnCurrentIndexChanged(func(i int) {
		if pw.player != nil && i >= 0 && i < len(speeds) {
			pw.player.SetSpeed(speeds[i])
		}
	})
	row.AddWidget(pw.speed.QWidget)

	pw.mute = qt.NewQCheckBox4("Mute", nil)
	pw.mute.OnToggled(func(on bool) {
		if pw.player != nil {
			pw.player.Mute(on)
		}
	})
	row.AddWidget(pw.mute.QWidget)

	pw.volume = qt.NewQSlider(nil)
	pw.volume.SetOrientation(qt.Horizontal)
	pw.volume.SetRange(0, 100)
	pw.volume.SetValue(100)
	pw.volume.SetMaximumWidth(120)
	pw.volume.OnValueChanged(func(v int) {
		if pw.player != nil {
			pw.player.SetVolume(float64(v))
		}
	})
	row.AddWidget(pw.volume.QWidget)

	pw.setControlsEnabled(false)
	return row
}

func (pw *PlayerWindow) setControlsEnabled(on bool) {
	for _, w := range []*qt.QWidget{pw.playBtn.QWidget, pw.seek.QWidget, pw.speed.QWidget, pw.mute.QWidget, pw.volume.QWidget} {
		w.SetEnabled(on)
	}
}

func (pw *PlayerWindow) togglePause() {
	if pw.player == nil {
		return
	}
	if pw.player.IsPaused() {
		pw.player.Play()
		pw.playBtn.SetText("Pause")
		pw.video.Surface().SetOverlayMessage("")
	} else {
		pw.player.Pause()
		pw.playBtn.SetText("Play")
	}
}

func (pw *PlayerWindow) onReady() {
	if pw.closed {
		return
	}
	pw.log.Info("playback started")
	pw.video.Surface().SetOverlayMessage("")
	pw.setControlsEnabled(true)
	// controls may have been touched while loading
	pw.player.SetVolume(float64(pw.volume.Value()))
	pw.player.Mute(pw.mute.IsChecked())
	if i := pw.speed.CurrentIndex(); i >= 0 && i < len(speeds) && speeds[i] != 1 {
		pw.player.SetSpeed(speeds[i])
	}
}

func (pw *PlayerWindow) onDuration() {
	if pw.closed {
		return
	}
	d := pw.player.Duration()
	if d > 0 {
		pw.seek.SetRange(0, int(d*seekScale))
	}
}

// refresh polls the position; answers arrive before the next tick.
func (pw *PlayerWindow) refresh() {
	if pw.closed || !pw.IsReadyToPlay() {
		return
	}
	pos, dur := pw.player.Position(), pw.player.Duration()
	if !pw.dragging && pos >= 0 {
		pw.seek.BlockSignals(true)
		pw.seek.SetValue(int(pos * seekScale))
		pw.seek.BlockSignals(false)
	}
	pw.timeLbl.SetText(formatClock(pos) + " / " + formatClock(dur))
}

func (pw *PlayerWindow) onEOF() {
	if pw.closed {
		return
	}
	pw.log.Info("end of file")
	pw.win.Close()
}

func (pw *PlayerWindow) onError(permanent bool, msg string) {
	if pw.closed {
		return
	}
	pw.log.Warn("player error", zap.Bool("permanent", permanent), zap.String("error", msg))
	if !pw.started {
		return
	}
	pw.video.Surface().SetOverlayMessage(msg)
	if permanent {
		pw.setControlsEnabled(false)
		errorBox(pw.win.QWidget, "Playback error", msg)
	}
}

func (pw *PlayerWindow) shutdown() {
	if pw.closed {
		return
	}
	pw.closed = true
	if pw.poll != nil {
		pw.poll.Stop()
	}
	pw.video.Surface().SetFullScreen(false)
	delete(players, pw)
	if p := pw.player; p != nil {
		go func() {
			if err := p.Close(); err != nil {
				pw.log.Warn("close player", zap.Error(err))
			}
		}()
	}
}

func formatClock(sec float64) string {
	if sec < 0 {
		return "--:--"
	}
	d := time.Duration(sec * float64(time.Second)).Round(time.Second)
	h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
