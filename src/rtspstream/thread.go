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
package rtspstream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/e1z0/qsurveil/src/bandwidth"
)

const (
	DefaultStopTimeout = 5 * time.Second
	DefaultCancelGrace = 500 * time.Millisecond
)

var (
	// ErrNoWorker is returned by operations that need a live worker.
	ErrNoWorker = errors.New("rtspstream: no worker")
	// ErrStopTimeout means the worker ignored Stop and had to be cancelled.
	ErrStopTimeout = errors.New("rtspstream: worker did not stop in time, cancelled")
	// ErrWorkerStuck means the worker ignored cancellation too; its
	// goroutine was abandoned.
	ErrWorkerStuck = errors.New("rtspstream: worker did not return after cancellation")
)

type ThreadOptions struct {
	StopTimeout time.Duration
	CancelGrace time.Duration
	Logger      *zap.Logger
}

// Thread runs a single Worker on a dedicated goroutine. The worker is
// created lazily by Start and torn down by Stop.
type Thread struct {
	newWorker   WorkerFactory
	rate        bandwidth.Sampler
	stopTimeout time.Duration
	cancelGrace time.Duration
	log         *zap.Logger

	lifeMu sync.Mutex // serializes Start and Stop

	mu     sync.Mutex
	worker Worker
	runReq *runQueue
	cancel context.CancelFunc
	done   chan struct{}

	running atomic.Bool

	subMu   sync.Mutex
	onFatal []func(msg string)
}

// NewThread creates an idle thread. rate may be nil.
func NewThread(factory WorkerFactory, rate bandwidth.Sampler, opts ThreadOptions) *Thread {
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	if opts.CancelGrace <= 0 {
		opts.CancelGrace = DefaultCancelGrace
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Thread{
		newWorker:   factory,
		rate:        rate,
		stopTimeout: opts.StopTimeout,
		cancelGrace: opts.CancelGrace,
		log:         opts.Logger,
	}
}

// Start creates a worker for url and runs it. If a worker already exists
// url is ignored and one more Run is queued for it.
func (t *Thread) Start(url string) {
	t.lifeMu.Lock()
	defer t.lifeMu.Unlock()
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.worker != nil {
		t.runReq.push()
		t.running.Store(true)
		return
	}

	w := t.newWorker()
	w.SetURL(url)
	w.OnFatalError(t.emitFatal)
	if t.rate != nil {
		w.OnBytesDownloaded(t.rate.AddSampleValue)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.worker = w
	t.cancel = cancel
	t.runReq = newRunQueue()
	t.done = make(chan struct{})
	t.runReq.push()
	go t.loop(ctx, w, t.runReq, t.done)

	t.running.Store(true)
	t.log.Debug("stream thread started", zap.String("url", url))
}

func (t *Thread) loop(ctx context.Context, w Worker, runReq *runQueue, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-runReq.wake:
		}
		for {
			run, open := runReq.next()
			if !open {
				return
			}
			if !run {
				break
			}
			if ctx.Err() != nil {
				return
			}
			w.Run(ctx)
		}
	}
}

// runQueue counts Run requests for one session. Every push is served by
// exactly one Run unless the queue is closed first.
type runQueue struct {
	mu      sync.Mutex
	pending int
	closed  bool
	wake    chan struct{}
}

func newRunQueue() *runQueue {
	return &runQueue{wake: make(chan struct{}, 1)}
}

func (q *runQueue) push() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending++
	q.mu.Unlock()
	q.signal()
}

// next takes one pending request. open is false once the queue is closed.
func (q *runQueue) next() (run, open bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false, false
	}
	if q.pending == 0 {
		return false, true
	}
	q.pending--
	return true, true
}

// close drops pending requests and wakes the loop so it can exit.
func (q *runQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.pending = 0
	q.mu.Unlock()
	q.signal()
}

func (q *runQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Stop asks the worker to finish and waits for its goroutine. A worker
// that ignores the request for longer than the stop timeout is cancelled
// through its context and ErrStopTimeout is returned. The worker is
// released in every case. Frame reads do not wait for Stop.
func (t *Thread) Stop() error {
	t.lifeMu.Lock()
	defer t.lifeMu.Unlock()

	t.mu.Lock()
	t.running.Store(false)
	if t.worker == nil {
		t.mu.Unlock()
		return nil
	}
	w, cancel, runReq, done := t.worker, t.cancel, t.runReq, t.done
	t.worker, t.cancel, t.runReq, t.done = nil, nil, nil, nil
	t.mu.Unlock()

	w.Stop()
	runReq.close()

	timer := time.NewTimer(t.stopTimeout)
	defer timer.Stop()
	select {
	case <-done:
		cancel()
		return nil
	case <-timer.C:
	}

	t.log.Warn("stream worker ignored stop, cancelling", zap.Duration("timeout", t.stopTimeout))
	cancel()
	grace := time.NewTimer(t.cancelGrace)
	defer grace.Stop()
	select {
	case <-done:
		return ErrStopTimeout
	case <-grace.C:
		t.log.Error("stream worker still running after cancel, abandoning it")
		return ErrWorkerStuck
	}
}

// SetPaused forwards to the worker. A paused worker keeps its connection
// but skips decoding.
func (t *Thread) SetPaused(paused bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.worker == nil {
		return ErrNoWorker
	}
	t.worker.SetPaused(paused)
	return nil
}

func (t *Thread) SetAutoDeinterlacing(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.worker != nil {
		t.worker.SetAutoDeinterlacing(on)
	}
}

// FrameToDisplay returns the worker's latest frame, nil without a worker.
func (t *Thread) FrameToDisplay() *Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.worker == nil {
		return nil
	}
	return t.worker.FrameToDisplay()
}

func (t *Thread) HasWorker() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.worker != nil
}

// IsRunning is true between Start and Stop. It does not take the lock.
func (t *Thread) IsRunning() bool {
	return t.running.Load()
}

// OnFatalError subscribes fn to unrecoverable worker errors. fn runs on
// the worker goroutine.
func (t *Thread) OnFatalError(fn func(msg string)) {
	t.subMu.Lock()
	t.onFatal = append(t.onFatal, fn)
	t.subMu.Unlock()
}

func (t *Thread) emitFatal(msg string) {
	t.subMu.Lock()
	subs := append([]func(string){}, t.onFatal...)
	t.subMu.Unlock()
	t.log.Warn("stream worker fatal error", zap.String("error", msg))
	for _, fn := range subs {
		fn(msg)
	}
}
