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

// Package rtspstream owns the background goroutine that runs one stream
// worker per camera and the frame plumbing between decoder and display.
package rtspstream

import "context"

//go:generate mockgen -destination=mocks/mock_worker.go -package=mocks github.com/e1z0/qsurveil/src/rtspstream Worker

// Worker pulls and decodes one stream. Run is invoked on the stream
// goroutine and blocks until the stream ends, Stop is called or ctx is
// cancelled. Every other method may be called from any goroutine.
type Worker interface {
	SetURL(url string)
	Run(ctx context.Context)
	// Stop asks a running Run to return. After Stop the worker is not
	// reused.
	Stop()
	SetPaused(paused bool)
	SetAutoDeinterlacing(on bool)
	FrameToDisplay() *Frame

	OnFatalError(fn func(msg string))
	OnBytesDownloaded(fn func(n uint))
}

// WorkerFactory creates a fresh worker for every Start after a Stop.
type WorkerFactory func() Worker
