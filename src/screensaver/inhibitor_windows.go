//go:build windows

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
package screensaver

import (
	"fmt"

	"golang.org/x/sys/windows"
)

const (
	esSystemRequired  = 0x00000001
	esDisplayRequired = 0x00000002
	esContinuous      = 0x80000000
)

var (
	kernel32                    = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadExecutionState = kernel32.NewProc("SetThreadExecutionState")
)

// execStatePlatform uses SetThreadExecutionState. The state is per thread,
// so calls must come from the GUI thread, which is where surfaces run.
type execStatePlatform struct{}

func newPlatform(string) platform { return execStatePlatform{} }

func setState(flags uintptr) error {
	r, _, err := procSetThreadExecutionState.Call(flags)
	if r == 0 {
		return fmt.Errorf("SetThreadExecutionState(%#x): %v", flags, err)
	}
	return nil
}

func (execStatePlatform) inhibit(string) error {
	return setState(esContinuous | esDisplayRequired | esSystemRequired)
}

func (execStatePlatform) uninhibit() error {
	return setState(esContinuous)
}
