//go:build darwin
// +build darwin

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

	"github.com/mappu/miqt/qt/mainthread"
	"github.com/prashantgupta24/mac-sleep-notifier/notifier"
	"go.uber.org/zap"
)

/*
#include <stdint.h>
#include <stdio.h>

#ifdef __cplusplus
#include <csignal>
#else
#include <signal.h>
#endif

void Ignore(int sigNum);

void Ignore(int sigNum) {
    struct sigaction sa;
    sa.sa_handler = SIG_DFL;
    sigemptyset(&sa.sa_mask);
    sa.sa_flags |= SA_ONSTACK;
    sigaction(sigNum, &sa, NULL);
}

*/
import "C"

func Ignore(sigNum syscall.Signal) {
	C.Ignore(C.int(sigNum))
}

func IgnoreSignum() {
	Ignore(syscall.SIGURG)
}

// HandleSleep runs onWake on the GUI thread after every resume.
func HandleSleep(onWake func()) {
	log := svc.Log.Named("sleep")
	for activity := range notifier.GetInstance().Start() {
		switch activity.Type {
		case notifier.Awake:
			log.Info("machine awake")
			mainthread.Start(onWake)
		case notifier.Sleep:
			log.Info("machine sleeping")
		default:
			log.Debug("power activity", zap.Any("type", activity.Type))
		}
	}
}
