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

// Package rtspworker decodes a camera stream with FFmpeg (go-astiav) into
// BGRA frames for the display, plays G.711 audio through oto and can
// record the stream to disk.
package rtspworker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	astiav "github.com/asticode/go-astiav"
	"github.com/hajimehoshi/oto/v2"
	"go.uber.org/zap"

	"github.com/e1z0/qsurveil/src/rtspstream"
	"github.com/e1z0/qsurveil/src/settings"
)

// ErrStreamEnded is reported when the source closes the stream.
var ErrStreamEnded = errors.New("stream ended")

type Options struct {
	Camera settings.CameraConfig
	// Audio is the shared playback context, nil disables sound.
	Audio *oto.Context
	// RecordDir is the base directory for recordings.
	RecordDir string
	// Preflight issues an RTSP DESCRIBE before FFmpeg opens the input.
	Preflight bool
	Logger    *zap.Logger
}

// Stats are running totals; the camera window derives rates from them.
type Stats struct {
	FramesDecoded int64
	BytesVideo    int64
	DecodeErrors  int64
}

// Worker implements rtspstream.Worker on top of FFmpeg.
type Worker struct {
	cam       settings.CameraConfig
	audio     *oto.Context
	recDir    string
	preflight bool
	log       *zap.Logger

	mu      sync.Mutex
	url     string
	onFatal func(msg string)
	onBytes func(n uint)

	stopped   atomic.Bool
	paused    atomic.Bool
	deint     atomic.Bool
	recording atomic.Bool

	buf rtspstream.FrameBuffer

	// aborts blocking FFmpeg I/O of the current Run
	ioMu  sync.Mutex
	ioInt *astiav.IOInterrupter

	framesDecoded atomic.Int64
	bytesVideo    atomic.Int64
	decodeErrs    atomic.Int64
}

var _ rtspstream.Worker = (*Worker)(nil)

func New(opts Options) *Worker {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	w := &Worker{
		cam:       opts.Camera,
		audio:     opts.Audio,
		recDir:    opts.RecordDir,
		preflight: opts.Preflight,
		log:       opts.Logger.With(zap.String("camera", opts.Camera.Title())),
		url:       opts.Camera.URL,
	}
	w.deint.Store(opts.Camera.AutoDeinterlace)
	return w
}

// Factory returns a rtspstream.WorkerFactory producing workers for opts.
func Factory(opts Options) rtspstream.WorkerFactory {
	return func() rtspstream.Worker { return New(opts) }
}

func (w *Worker) SetURL(url string) {
	w.mu.Lock()
	w.url = url
	w.mu.Unlock()
}

func (w *Worker) URL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.url
}

// Run opens the stream and decodes until it fails, ends, or is stopped.
// Failures are reported through OnFatalError; the caller decides when to
// run again.
func (w *Worker) Run(ctx context.Context) {
	if w.interrupted(ctx) {
		return
	}
	url := w.URL()

	if w.preflight {
		if err := Probe(ctx, url, w.cam.RTSPTCP, w.log); err != nil {
			if !w.interrupted(ctx) {
				w.fail(err)
			}
			return
		}
	}

	err := w.openAndDecode(ctx, url)
	if w.interrupted(ctx) {
		return
	}
	if err == nil {
		err = ErrStreamEnded
	}
	w.fail(err)
}

func (w *Worker) Stop() {
	w.stopped.Store(true)
	w.interruptIO()
}

func (w *Worker) SetPaused(paused bool) {
	if w.paused.Swap(paused) != paused {
		w.log.Info("decoding paused", zap.Bool("paused", paused))
	}
}

func (w *Worker) IsPaused() bool { return w.paused.Load() }

func (w *Worker) SetAutoDeinterlacing(on bool) {
	w.deint.Store(on)
}

func (w *Worker) FrameToDisplay() *rtspstream.Frame {
	return w.buf.Latest()
}

func (w *Worker) OnFatalError(fn func(msg string)) {
	w.mu.Lock()
	w.onFatal = fn
	w.mu.Unlock()
}

func (w *Worker) OnBytesDownloaded(fn func(n uint)) {
	w.mu.Lock()
	w.onBytes = fn
	w.mu.Unlock()
}

// SetRecording starts or stops writing the stream to disk. It takes
// effect on the next packet.
func (w *Worker) SetRecording(on bool) {
	w.recording.Store(on)
}

func (w *Worker) IsRecording() bool { return w.recording.Load() }

func (w *Worker) Stats() Stats {
	return Stats{
		FramesDecoded: w.framesDecoded.Load(),
		BytesVideo:    w.bytesVideo.Load(),
		DecodeErrors:  w.decodeErrs.Load(),
	}
}

func (w *Worker) interrupted(ctx context.Context) bool {
	return w.stopped.Load() || ctx.Err() != nil
}

func (w *Worker) fail(err error) {
	w.log.Warn("stream failed", zap.Error(err))
	w.mu.Lock()
	fn := w.onFatal
	w.mu.Unlock()
	if fn != nil {
		fn(err.Error())
	}
}

func (w *Worker) addBytes(n int) {
	if n <= 0 {
		return
	}
	w.mu.Lock()
	fn := w.onBytes
	w.mu.Unlock()
	if fn != nil {
		fn(uint(n))
	}
}
