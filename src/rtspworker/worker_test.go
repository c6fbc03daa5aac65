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
package rtspworker

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e1z0/qsurveil/src/settings"
)

func newTestWorker() *Worker {
	return New(Options{Camera: settings.CameraConfig{
		Name:            "Yard",
		URL:             "rtsp://10.0.0.6/stream1",
		AutoDeinterlace: true,
	}})
}

func TestStoppedWorkerDoesNotRun(t *testing.T) {
	w := newTestWorker()
	var fatal []string
	w.OnFatalError(func(msg string) { fatal = append(fatal, msg) })

	w.Stop()
	w.Run(context.Background())
	assert.Empty(t, fatal)
}

func TestCancelledContextDoesNotRun(t *testing.T) {
	w := newTestWorker()
	var fatal []string
	w.OnFatalError(func(msg string) { fatal = append(fatal, msg) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Run(ctx)
	assert.Empty(t, fatal)
}

func TestWorkerState(t *testing.T) {
	w := newTestWorker()
	assert.Equal(t, "rtsp://10.0.0.6/stream1", w.URL())
	w.SetURL("rtsp://10.0.0.6/stream2")
	assert.Equal(t, "rtsp://10.0.0.6/stream2", w.URL())

	assert.True(t, w.deint.Load(), "taken from the camera settings")
	w.SetAutoDeinterlacing(false)
	assert.False(t, w.deint.Load())

	w.SetPaused(true)
	assert.True(t, w.IsPaused())

	w.SetRecording(true)
	assert.True(t, w.IsRecording())

	assert.Nil(t, w.FrameToDisplay())
	w.buf.Put(1, 1, []byte{1, 2, 3, 255})
	assert.Equal(t, 1, w.FrameToDisplay().Width)
}

func TestBytesAreReported(t *testing.T) {
	w := newTestWorker()
	w.addBytes(100) // no subscriber yet

	var total uint
	w.OnBytesDownloaded(func(n uint) { total += n })
	w.addBytes(1400)
	w.addBytes(0)
	w.addBytes(-1)
	w.addBytes(200)
	assert.Equal(t, uint(1600), total)
}

func TestFactoryMakesFreshWorkers(t *testing.T) {
	f := Factory(Options{Camera: settings.CameraConfig{URL: "rtsp://x"}})
	a, b := f(), f()
	assert.NotSame(t, a, b)
}

// silentCamera accepts RTSP connections and never answers, so FFmpeg
// stays blocked inside OpenInput.
func silentCamera(t *testing.T) (url string, accepted <-chan struct{}) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ch := make(chan struct{}, 1)
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}()
	t.Cleanup(func() {
		_ = l.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return "rtsp://" + l.Addr().String() + "/stream1", ch
}

func runBlocked(t *testing.T, ctx context.Context) (*Worker, <-chan struct{}) {
	t.Helper()
	url, accepted := silentCamera(t)
	w := New(Options{Camera: settings.CameraConfig{Name: "Gate", URL: url, RTSPTCP: true}})
	w.OnFatalError(func(msg string) { t.Errorf("unexpected fatal error: %s", msg) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	select {
	case <-accepted:
	case <-time.After(3 * time.Second):
		t.Fatal("worker never connected")
	}
	// give FFmpeg time to send OPTIONS and block on the reply
	time.Sleep(200 * time.Millisecond)
	return w, done
}

func TestStopInterruptsBlockedOpen(t *testing.T) {
	w, done := runBlocked(t, context.Background())

	w.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run still blocked after Stop")
	}
}

func TestCancelInterruptsBlockedOpen(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, done := runBlocked(t, ctx)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run still blocked after cancel")
	}
}
