//go:build !windows && !darwin

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
	"errors"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	ssDest  = "org.freedesktop.ScreenSaver"
	ssPath  = dbus.ObjectPath("/org/freedesktop/ScreenSaver")
	ssIface = "org.freedesktop.ScreenSaver"
)

// dbusPlatform talks to the freedesktop screensaver service on the session bus.
type dbusPlatform struct {
	app    string
	once   sync.Once
	conn   *dbus.Conn
	err    error
	cookie uint32
	held   bool
}

func newPlatform(appName string) platform {
	return &dbusPlatform{app: appName}
}

func (p *dbusPlatform) object() (dbus.BusObject, error) {
	p.once.Do(func() {
		p.conn, p.err = dbus.SessionBus()
	})
	if p.err != nil {
		return nil, p.err
	}
	return p.conn.Object(ssDest, ssPath), nil
}

func (p *dbusPlatform) inhibit(reason string) error {
	obj, err := p.object()
	if err != nil {
		return err
	}
	var cookie uint32
	if err := obj.Call(ssIface+".Inhibit", 0, p.app, reason).Store(&cookie); err != nil {
		return err
	}
	p.cookie = cookie
	p.held = true
	return nil
}

func (p *dbusPlatform) uninhibit() error {
	if !p.held {
		return errors.New("screensaver: no inhibition cookie held")
	}
	obj, err := p.object()
	if err != nil {
		return err
	}
	if call := obj.Call(ssIface+".UnInhibit", 0, p.cookie); call.Err != nil {
		return call.Err
	}
	p.held = false
	return nil
}
