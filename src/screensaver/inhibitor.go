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

// Package screensaver holds the process-wide "keep the display awake" flag.
// Every fullscreen surface shares one Service; the platform request is made
// only when the flag actually changes.
package screensaver

import (
	"sync"

	"go.uber.org/zap"
)

// Inhibitor is what video surfaces depend on.
type Inhibitor interface {
	SetScreensaverInhibited(on bool)
}

// platform performs the OS specific request.
type platform interface {
	inhibit(reason string) error
	uninhibit() error
}

type Service struct {
	mu        sync.Mutex
	inhibited bool
	reason    string
	plat      platform
	log       *zap.Logger
}

// New returns a Service bound to the current platform's mechanism.
func New(appName string, log *zap.Logger) *Service {
	return newService(newPlatform(appName), log)
}

func newService(p platform, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{plat: p, log: log, reason: "Fullscreen video playback"}
}

func (s *Service) SetScreensaverInhibited(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if on == s.inhibited {
		return
	}

	var err error
	if on {
		err = s.plat.inhibit(s.reason)
	} else {
		err = s.plat.uninhibit()
	}
	if err != nil {
		s.log.Warn("screensaver request failed", zap.Bool("inhibit", on), zap.Error(err))
		return
	}
	s.inhibited = on
	s.log.Debug("screensaver inhibition changed", zap.Bool("inhibited", on))
}

func (s *Service) Inhibited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inhibited
}

// Close drops any pending inhibition.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inhibited {
		return nil
	}
	s.inhibited = false
	return s.plat.uninhibit()
}
