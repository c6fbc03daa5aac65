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
	"sync"

	"github.com/mappu/miqt/qt"
	"go.uber.org/zap"
)

/*
Menu and context menu generation unit
*/

type TrayController struct {
	mu        sync.Mutex
	tray      *qt.QSystemTrayIcon
	wins      *[]*CamWindow
	actions   []*qt.QAction // one per camera index
	rateTimer *qt.QTimer
	paused    bool
}

func NewTrayController(winsA *[]*CamWindow) *TrayController {
	t := &TrayController{wins: winsA}

	t.tray = qt.NewQSystemTrayIcon()
	t.tray.SetIcon(globalIcon)
	t.tray.SetToolTip(app)
	t.tray.SetVisible(true)
	t.tray.OnActivated(func(reason qt.QSystemTrayIcon__ActivationReason) {
		if reason != qt.QSystemTrayIcon__Trigger || !svc.Store.Snapshot().ActiveOnTray {
			return
		}
		svc.Log.Debug("tray clicked, raising camera windows")
		for _, w := range *t.wins {
			if w == nil || w.win == nil {
				continue
			}
			w.win.Show()
			w.win.Raise()
		}
	})

	// total inbound rate of all streams in the tooltip
	t.rateTimer = qt.NewQTimer()
	t.rateTimer.SetInterval(1000)
	t.rateTimer.OnTimeout(t.updateToolTip)
	t.rateTimer.Start2()

	t.rebuild()
	return t
}

func (t *TrayController) updateToolTip() {
	if !svc.Store.Snapshot().ShowTotalRate {
		t.tray.SetToolTip(app)
		return
	}
	t.tray.SetToolTip(fmt.Sprintf("%s\n%d streams, %.0f kbit/s", app, svc.Streams.Len(), svc.Meter.Kbps()))
}

// Make sure wins has a slot for each camera.
func (t *TrayController) ensureWinsLen(n int) {
	if len(*t.wins) < n {
		*t.wins = append(*t.wins, make([]*CamWindow, n-len(*t.wins))...)
	} else if len(*t.wins) > n {
		*t.wins = (*t.wins)[:n]
	}
}

// Rebuild menu from scratch
func (t *TrayController) rebuild() {
	t.mu.Lock()
	defer t.mu.Unlock()

	cfg := svc.Store.Snapshot()
	t.ensureWinsLen(len(cfg.Cameras))

	menu := qt.NewQMenu(nil)

	t.actions = make([]*qt.QAction, len(cfg.Cameras))
	for i, c := range cfg.Cameras {
		idx := i
		act := qt.NewQAction2(c.Title())
		act.SetCheckable(true)

		// Enabled = has a live window AND not marked disabled
		act.BlockSignals(true)
		act.SetChecked(!c.Disabled && (*t.wins)[idx] != nil)
		act.BlockSignals(false)

		thisAction := act
		act.OnToggled(func(checked bool) {
			t.onActionToggled(idx, checked, thisAction)
		})
		t.actions[idx] = act
	}

	menu.AddActions(t.actions)
	menu.AddSeparator()

	menu.AddMenu(t.formationsMenu(&cfg))
	menu.AddSeparator()

	menu.AddAction("Open recording…").OnTriggered(func() {
		openRecording(nil)
	})

	pauseLabel := "Pause cameras"
	if t.paused {
		pauseLabel = "Resume cameras"
	}
	menu.AddAction(pauseLabel).OnTriggered(func() {
		t.setAllPaused(!t.paused)
	})
	menu.AddSeparator()

	optionsMenu := qt.NewQMenu(nil)
	optionsMenu.SetTitle("Settings")

	optionsMenu.AddAction("Settings").OnTriggered(func() {
		ShowSettingsDialog(nil)
	})
	optionsMenu.AddAction("Config location").OnTriggered(func() {
		openFileOrDir(env.configDir)
	})
	optionsMenu.AddAction("Recordings").OnTriggered(func() {
		appCfg := svc.Store.Snapshot()
		openFileOrDir(recordingsDir(&appCfg))
	})
	optionsMenu.AddAction("Logfile").OnTriggered(func() {
		openFileOrDir(env.appDebugLog)
	})
	optionsMenu.AddAction("Restart app").OnTriggered(func() {
		svc.Log.Info("restart requested from tray")
		doRestart()
	})
	optionsMenu.AddAction("Update traymenu").OnTriggered(func() {
		t.rebuild()
	})
	optionsMenu.AddAction("About...").OnTriggered(func() {
		ShowAboutDialog(nil, aboutInfo())
	})

	menu.AddMenu(optionsMenu)

	menu.AddAction("Quit").OnTriggered(func() {
		svc.Log.Info("quit requested from tray")
		qt.QCoreApplication_Exit()
	})

	t.tray.SetContextMenu(menu)

	// live windows share the tray menu
	for _, w := range *t.wins {
		if w != nil {
			w.SetContextMenu(menu)
		}
	}
}

// setAllPaused pauses or resumes decoding on every running stream while
// keeping the connections open.
func (t *TrayController) setAllPaused(paused bool) {
	n := svc.Streams.SetPaused(paused)
	svc.Log.Info("cameras paused", zap.Bool("paused", paused), zap.Int("streams", n))
	for _, w := range *t.wins {
		if w != nil {
			w.markPaused(paused)
		}
	}
	t.paused = paused
	t.rebuild()
}

// openRecording asks for a file in the recordings directory and plays it.
func openRecording(parent *qt.QWidget) {
	appCfg := svc.Store.Snapshot()
	file := qt.QFileDialog_GetOpenFileName4(parent, "Open recording", recordingsDir(&appCfg),
		"Recordings (*.mkv *.mp4 *.avi *.ts);;All files (*)")
	if file == "" {
		return
	}
	if _, err := NewPlayerWindow(file); err != nil {
		svc.Log.Error("open recording", zap.String("file", file), zap.Error(err))
		errorBox(parent, "Playback error", err.Error())
	}
}

// Keep menu check state and actual window state in lockstep.
func (t *TrayController) onActionToggled(idx int, checked bool, act *qt.QAction) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cfg := svc.Store.Snapshot()
	if idx < 0 || idx >= len(cfg.Cameras) {
		return
	}
	t.ensureWinsLen(len(cfg.Cameras))
	c := cfg.Cameras[idx]

	setChecked := func(on bool) {
		act.BlockSignals(true)
		act.SetChecked(on)
		act.BlockSignals(false)
	}

	if !checked {
		setChecked(false)
		// Grab and clear the window slot first, then close non-blocking.
		w := (*t.wins)[idx]
		(*t.wins)[idx] = nil
		if w != nil {
			w.SuppressOnClosedOnce()
			w.Close()
		}
		if err := svc.Store.SetCameraDisabled(idx, true); err != nil {
			svc.Log.Warn("save config", zap.Error(err))
		}
		return
	}

	if (*t.wins)[idx] == nil {
		c.Disabled = false
		w := newCamWindow(c, idx)
		(*t.wins)[idx] = w
		t.attachLocked(idx, w)
		if t.paused {
			w.SetPaused(true)
		}
	}
	setChecked(true)

	if err := svc.Store.SetCameraDisabled(idx, false); err != nil {
		svc.Log.Warn("save config", zap.Error(err))
	}
}

// AttachWindowHooks wires:
//   - the same context menu to the camera window,
//   - a close-event hook to uncheck the tray item and update config.
func (t *TrayController) AttachWindowHooks(idx int, w *CamWindow) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attachLocked(idx, w)
}

func (t *TrayController) attachLocked(idx int, w *CamWindow) {
	if w == nil {
		return
	}
	if t.tray != nil && t.tray.ContextMenu() != nil {
		w.SetContextMenu(t.tray.ContextMenu())
	}
	w.SetOnClosed(t.WindowWasClosed)
}

func (t *TrayController) WindowWasClosed(idx int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if idx < 0 || idx >= len(*t.wins) {
		return
	}
	(*t.wins)[idx] = nil

	if idx < len(t.actions) && t.actions[idx] != nil {
		t.actions[idx].BlockSignals(true)
		t.actions[idx].SetChecked(false)
		t.actions[idx].BlockSignals(false)
	}

	if err := svc.Store.SetCameraDisabled(idx, true); err != nil {
		svc.Log.Warn("save config", zap.Error(err))
	}
}
