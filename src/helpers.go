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
	"os"
	"os/exec"
	"runtime"
	"strings"
	"unicode"

	"github.com/mappu/miqt/qt"
	"go.uber.org/zap"
)

// postToUI runs fn on the Qt event loop (next tick) using a single-shot QTimer.
func postToUI(fn func()) {
	t := qt.NewQTimer()
	t.SetSingleShot(true)
	t.OnTimeout(func() {
		fn()
		t.DeleteLater()
	})
	t.Start(0) // 0 ms => next event loop iteration
}

// open file (default association) or folder (supports windows, linux, mac)
func openFileOrDir(file string) {
	svc.Log.Info("opening external", zap.String("path", file))
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", file)
	case "linux":
		cmd = exec.Command("xdg-open", file)
	case "windows":
		cmd = exec.Command("explorer", file)
	default:
		return
	}
	if err := cmd.Start(); err != nil {
		svc.Log.Warn("open external failed", zap.Error(err))
	}
}

// restart the application
func doRestart() {
	exe, err := os.Executable()
	if err != nil {
		return
	}
	cmd := exec.Command(exe, os.Args[1:]...)
	if err := cmd.Start(); err != nil {
		svc.Log.Error("restart failed", zap.Error(err))
		return
	}
	qt.QCoreApplication_Exit()
}

func showAndFocus(win *qt.QWidget) {
	if win == nil {
		return
	}
	win.Show()
	win.Raise()
	win.ActivateWindow()
	// Some platforms like a second bump on the next GUI tick
	postToUI(func() {
		win.Raise()
		win.ActivateWindow()
	})
}

// SanitizeString removes all Unicode whitespace characters from s.
func SanitizeString(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func errorBox(parent *qt.QWidget, title, text string) {
	mb := qt.NewQMessageBox(parent)
	mb.SetWindowTitle(title)
	mb.SetIcon(qt.QMessageBox__Critical)
	mb.SetText(text)
	mb.SetStandardButtons(qt.QMessageBox__Ok)
	mb.Exec()
}

// promptText asks for a single line of text.
func promptText(title, label string) (string, bool) {
	d := qt.NewQDialog(nil)
	d.SetWindowTitle(title)
	in := qt.NewQLineEdit(nil)
	in.SetMinimumWidth(280)

	lbl := qt.NewQLabel6(label, nil, 0)
	ok := qt.NewQPushButton5("Save", nil)
	cc := qt.NewQPushButton5("Cancel", nil)
	ok.OnClicked(func() { d.Accept() })
	cc.OnClicked(func() { d.Reject() })

	btns := qt.NewQHBoxLayout(nil)
	btns.AddStretch()
	btns.AddWidget(ok.QWidget)
	btns.AddWidget(cc.QWidget)

	root := qt.NewQVBoxLayout(nil)
	root.AddWidget(lbl.QWidget)
	root.AddWidget(in.QWidget)
	root.AddLayout(btns.QLayout)
	d.SetLayout(root.QLayout)

	if d.Exec() == int(qt.QDialog__Accepted) {
		return strings.TrimSpace(in.Text()), true
	}
	return "", false
}

func addAct(m *qt.QMenu, a *qt.QAction) { m.AddActions([]*qt.QAction{a}) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
