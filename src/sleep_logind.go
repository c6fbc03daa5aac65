//go:build !darwin && !windows
// +build !darwin,!windows

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
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/mappu/miqt/qt/mainthread"
	"go.uber.org/zap"
)

func Ignore(sigNum syscall.Signal) {}

func IgnoreSignum() {}

// HandleSleep waits for systemd-logind's PrepareForSleep signal and runs
// onWake on the GUI thread after every resume. It returns when the system
// bus is unavailable.
func HandleSleep(onWake func()) {
	log := svc.Log.Named("sleep")
	conn, err := dbus.SystemBus()
	if err != nil {
		log.Info("no system bus, sleep detection disabled", zap.Error(err))
		return
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.login1.Manager"),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		log.Warn("subscribe PrepareForSleep", zap.Error(err))
		return
	}
	ch := make(chan *dbus.Signal, 4)
	conn.Signal(ch)
	log.Debug("watching logind for sleep")

	for sig := range ch {
		if sig.Name != "org.freedesktop.login1.Manager.PrepareForSleep" || len(sig.Body) == 0 {
			continue
		}
		// true before suspend, false after resume
		if sleeping, ok := sig.Body[0].(bool); ok {
			if sleeping {
				log.Info("machine sleeping")
				continue
			}
			log.Info("machine awake")
			mainthread.Start(onWake)
		}
	}
}
