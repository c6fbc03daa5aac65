//go:build windows
// +build windows

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

/*
#cgo pkg-config: libavformat libavcodec libavutil libswscale libswresample
*/
import "C"

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/mappu/miqt/qt/mainthread"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

/*
Windows related functions
Such as detect wake/sleep
*/

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procRegisterClassExW = user32.NewProc("RegisterClassExW")
	procCreateWindowExW  = user32.NewProc("CreateWindowExW")
	procDefWindowProcW   = user32.NewProc("DefWindowProcW")
	procGetMessageW      = user32.NewProc("GetMessageW")
	procTranslateMessage = user32.NewProc("TranslateMessage")
	procDispatchMessageW = user32.NewProc("DispatchMessageW")
	procGetModuleHandleW = kernel32.NewProc("GetModuleHandleW")
	HWND_MESSAGE         = windows.Handle(^uintptr(2))
)

const (
	WM_POWERBROADCAST      = 0x0218
	PBT_APMSUSPEND         = 0x0004
	PBT_APMRESUMEAUTOMATIC = 0x0012
	PBT_APMRESUMESUSPEND   = 0x0007
)

const (
	CS_VREDRAW uint32 = 0x0001
	CS_HREDRAW uint32 = 0x0002
)

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   windows.Handle
	Icon       windows.Handle
	Cursor     windows.Handle
	Background windows.Handle
	MenuName   *uint16
	ClassName  *uint16
	IconSm     windows.Handle
}

type msg struct {
	Hwnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

var pwOnce sync.Once

func IgnoreSignum() {}

type powerEvent int

const (
	powerSuspend powerEvent = iota
	powerResume
)

// HandleSleep runs onWake on the GUI thread after every resume.
func HandleSleep(onWake func()) {
	log := svc.Log.Named("sleep")
	startWindowsPowerWatcher(log, func(ev powerEvent) {
		switch ev {
		case powerResume:
			log.Info("machine awake")
			mainthread.Start(onWake)
		case powerSuspend:
			log.Info("machine sleeping")
		}
	})
}

// Call this once (safe to call multiple times).
func startWindowsPowerWatcher(log *zap.Logger, onEvent func(powerEvent)) {
	pwOnce.Do(func() {
		go powerMsgLoop(log, onEvent)
	})
}

// powerMsgLoop owns a message-only window; its messages are delivered to
// the thread that created it.
func powerMsgLoop(log *zap.Logger, onEvent func(powerEvent)) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	className, _ := windows.UTF16PtrFromString("QSurveil.PowerSink")
	hInstance := getModuleHandle()

	wc := wndClassEx{
		Size:      uint32(unsafe.Sizeof(wndClassEx{})),
		Style:     CS_HREDRAW | CS_VREDRAW,
		Instance:  hInstance,
		ClassName: className,
		WndProc: windows.NewCallback(func(hwnd windows.Handle, m uint32, wparam, lparam uintptr) uintptr {
			if m == WM_POWERBROADCAST {
				switch wparam {
				case PBT_APMSUSPEND:
					if onEvent != nil {
						onEvent(powerSuspend)
					}
					return 1
				case PBT_APMRESUMEAUTOMATIC, PBT_APMRESUMESUSPEND:
					if onEvent != nil {
						onEvent(powerResume)
					}
					return 1
				}
			}
			ret, _, _ := procDefWindowProcW.Call(uintptr(hwnd), uintptr(m), wparam, lparam)
			return ret
		}),
	}

	if r, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); r == 0 {
		log.Error("RegisterClassEx failed", zap.Error(err))
		return
	}

	hwnd, _, err := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		0, 0,
		0, 0, 0, 0,
		uintptr(HWND_MESSAGE), 0, uintptr(hInstance), 0,
	)
	if hwnd == 0 {
		log.Error("CreateWindowEx failed", zap.Error(err))
		return
	}

	var m msg
	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(r) {
		case -1:
			log.Error("GetMessageW failed")
			return
		case 0:
			return // WM_QUIT
		default:
			procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
			procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
		}
	}
}

// Get HINSTANCE without relying on windows.GetModuleHandle (not present in x/sys v0.7.0).
func getModuleHandle() windows.Handle {
	r, _, _ := procGetModuleHandleW.Call(0) // NULL => current module
	return windows.Handle(r)
}
