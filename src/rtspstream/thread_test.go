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
package rtspstream_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/e1z0/qsurveil/src/bandwidth"
	"github.com/e1z0/qsurveil/src/rtspstream"
	"github.com/e1z0/qsurveil/src/rtspstream/mocks"
)

const camURL = "rtsp://10.0.0.5/stream1"

// expectSetup registers the calls Start makes on every new worker.
func expectSetup(w *mocks.MockWorker) {
	w.EXPECT().SetURL(camURL)
	w.EXPECT().OnFatalError(gomock.Any())
	w.EXPECT().OnBytesDownloaded(gomock.Any())
}

func factoryOf(created *atomic.Int32, ws ...*mocks.MockWorker) rtspstream.WorkerFactory {
	return func() rtspstream.Worker {
		n := created.Add(1)
		return ws[n-1]
	}
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for worker")
	}
}

func TestStartTwiceReusesWorker(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := mocks.NewMockWorker(ctrl)
	runs := make(chan struct{}, 4)

	expectSetup(w)
	w.EXPECT().Run(gomock.Any()).Times(2).Do(func(context.Context) { runs <- struct{}{} })
	w.EXPECT().Stop()

	var created atomic.Int32
	th := rtspstream.NewThread(factoryOf(&created, w), bandwidth.NewMeter(5*time.Second), rtspstream.ThreadOptions{})

	th.Start(camURL)
	waitSignal(t, runs)
	th.Start("rtsp://ignored/while/active")
	waitSignal(t, runs)

	assert.Equal(t, int32(1), created.Load())
	assert.True(t, th.IsRunning())
	require.NoError(t, th.Stop())
	assert.False(t, th.HasWorker())
	assert.False(t, th.IsRunning())
}

func TestBackToBackStartsRunEachTime(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := mocks.NewMockWorker(ctrl)
	runs := make(chan struct{}, 4)
	release := make(chan struct{})

	expectSetup(w)
	w.EXPECT().Run(gomock.Any()).Times(3).Do(func(context.Context) {
		runs <- struct{}{}
		<-release
	})
	w.EXPECT().Stop()

	var created atomic.Int32
	th := rtspstream.NewThread(factoryOf(&created, w), bandwidth.NewMeter(5*time.Second), rtspstream.ThreadOptions{})

	// the first Run is still blocked while the next two are requested
	th.Start(camURL)
	th.Start(camURL)
	th.Start(camURL)
	for i := 0; i < 3; i++ {
		waitSignal(t, runs)
		release <- struct{}{}
	}

	assert.Equal(t, int32(1), created.Load())
	require.NoError(t, th.Stop())
}

func TestStopWithoutWorker(t *testing.T) {
	th := rtspstream.NewThread(nil, nil, rtspstream.ThreadOptions{})
	assert.NoError(t, th.Stop())
	assert.NoError(t, th.Stop())
	assert.False(t, th.IsRunning())
	assert.Nil(t, th.FrameToDisplay())
}

func TestCooperativeStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := mocks.NewMockWorker(ctrl)
	started := make(chan struct{})
	stop := make(chan struct{})

	// no sampler, so no byte callback is registered
	w.EXPECT().SetURL(camURL)
	w.EXPECT().OnFatalError(gomock.Any())
	w.EXPECT().Run(gomock.Any()).Do(func(context.Context) {
		close(started)
		<-stop
	})
	w.EXPECT().Stop().Do(func() { close(stop) })

	var created atomic.Int32
	th := rtspstream.NewThread(factoryOf(&created, w), nil, rtspstream.ThreadOptions{StopTimeout: time.Second})

	th.Start(camURL)
	waitSignal(t, started)
	assert.NoError(t, th.Stop())
}

func TestStopTimeoutCancelsWorker(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := mocks.NewMockWorker(ctrl)
	started := make(chan struct{})

	expectSetup(w)
	w.EXPECT().Run(gomock.Any()).Do(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	w.EXPECT().Stop() // ignored by the worker

	var created atomic.Int32
	th := rtspstream.NewThread(factoryOf(&created, w), bandwidth.NewMeter(time.Second), rtspstream.ThreadOptions{
		StopTimeout: 20 * time.Millisecond,
		CancelGrace: time.Second,
	})
	th.Start(camURL)
	waitSignal(t, started)

	assert.ErrorIs(t, th.Stop(), rtspstream.ErrStopTimeout)
	assert.False(t, th.HasWorker(), "worker is released even after a forced stop")
}

func TestStuckWorkerIsAbandoned(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := mocks.NewMockWorker(ctrl)
	started := make(chan struct{})
	release := make(chan struct{})
	returned := make(chan struct{})

	expectSetup(w)
	w.EXPECT().Run(gomock.Any()).Do(func(context.Context) {
		close(started)
		<-release
		close(returned)
	})
	w.EXPECT().Stop()

	var created atomic.Int32
	th := rtspstream.NewThread(factoryOf(&created, w), bandwidth.NewMeter(time.Second), rtspstream.ThreadOptions{
		StopTimeout: 10 * time.Millisecond,
		CancelGrace: 10 * time.Millisecond,
	})
	th.Start(camURL)
	waitSignal(t, started)

	assert.ErrorIs(t, th.Stop(), rtspstream.ErrWorkerStuck)
	close(release)
	waitSignal(t, returned)
}

func TestStartAfterStopCreatesNewWorker(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockWorker(ctrl)
	second := mocks.NewMockWorker(ctrl)
	runs := make(chan struct{}, 2)

	for _, w := range []*mocks.MockWorker{first, second} {
		expectSetup(w)
		w.EXPECT().Run(gomock.Any()).Do(func(context.Context) { runs <- struct{}{} })
		w.EXPECT().Stop()
	}

	var created atomic.Int32
	th := rtspstream.NewThread(factoryOf(&created, first, second), bandwidth.NewMeter(time.Second), rtspstream.ThreadOptions{})

	th.Start(camURL)
	waitSignal(t, runs)
	require.NoError(t, th.Stop())

	th.Start(camURL)
	waitSignal(t, runs)
	require.NoError(t, th.Stop())
	assert.Equal(t, int32(2), created.Load())
}

func TestSetPaused(t *testing.T) {
	th := rtspstream.NewThread(nil, nil, rtspstream.ThreadOptions{})
	assert.ErrorIs(t, th.SetPaused(true), rtspstream.ErrNoWorker)

	ctrl := gomock.NewController(t)
	w := mocks.NewMockWorker(ctrl)
	runs := make(chan struct{}, 1)
	expectSetup(w)
	w.EXPECT().Run(gomock.Any()).Do(func(context.Context) { runs <- struct{}{} })
	w.EXPECT().SetPaused(true)
	w.EXPECT().SetPaused(false)
	w.EXPECT().Stop()

	var created atomic.Int32
	th = rtspstream.NewThread(factoryOf(&created, w), bandwidth.NewMeter(time.Second), rtspstream.ThreadOptions{})
	th.Start(camURL)
	waitSignal(t, runs)

	assert.NoError(t, th.SetPaused(true))
	assert.NoError(t, th.SetPaused(false))
	require.NoError(t, th.Stop())
	assert.ErrorIs(t, th.SetPaused(true), rtspstream.ErrNoWorker)
}

func TestForwardsToWorker(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := mocks.NewMockWorker(ctrl)
	runs := make(chan struct{}, 1)
	frame := &rtspstream.Frame{Seq: 3, Width: 2, Height: 2, Data: make([]byte, 16)}

	expectSetup(w)
	w.EXPECT().Run(gomock.Any()).Do(func(context.Context) { runs <- struct{}{} })
	w.EXPECT().SetAutoDeinterlacing(true)
	w.EXPECT().FrameToDisplay().Return(frame)
	w.EXPECT().Stop()

	var created atomic.Int32
	th := rtspstream.NewThread(factoryOf(&created, w), bandwidth.NewMeter(time.Second), rtspstream.ThreadOptions{})

	th.SetAutoDeinterlacing(true) // no worker yet, dropped
	th.Start(camURL)
	waitSignal(t, runs)

	th.SetAutoDeinterlacing(true)
	assert.Same(t, frame, th.FrameToDisplay())
	require.NoError(t, th.Stop())
}

func TestWorkerCallbacksAreForwarded(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := mocks.NewMockWorker(ctrl)
	runs := make(chan struct{}, 1)
	var fatal func(string)
	var bytes func(uint)

	w.EXPECT().SetURL(camURL)
	w.EXPECT().OnFatalError(gomock.Any()).Do(func(fn func(string)) { fatal = fn })
	w.EXPECT().OnBytesDownloaded(gomock.Any()).Do(func(fn func(uint)) { bytes = fn })
	w.EXPECT().Run(gomock.Any()).Do(func(context.Context) { runs <- struct{}{} })
	w.EXPECT().Stop()

	meter := bandwidth.NewMeter(5 * time.Second)
	var created atomic.Int32
	th := rtspstream.NewThread(factoryOf(&created, w), meter, rtspstream.ThreadOptions{})

	var got []string
	th.OnFatalError(func(msg string) { got = append(got, msg) })
	th.OnFatalError(func(msg string) { got = append(got, "second: "+msg) })

	th.Start(camURL)
	waitSignal(t, runs)
	require.NotNil(t, fatal)
	require.NotNil(t, bytes)

	bytes(1500)
	bytes(500)
	assert.Equal(t, uint64(2000), meter.Total())

	fatal("connection refused")
	assert.Equal(t, []string{"connection refused", "second: connection refused"}, got)
	require.NoError(t, th.Stop())
}

func TestFrameReadsDoNotWaitForStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := mocks.NewMockWorker(ctrl)
	started := make(chan struct{})

	expectSetup(w)
	w.EXPECT().Run(gomock.Any()).Do(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	w.EXPECT().Stop()

	var created atomic.Int32
	th := rtspstream.NewThread(factoryOf(&created, w), bandwidth.NewMeter(time.Second), rtspstream.ThreadOptions{
		StopTimeout: 300 * time.Millisecond,
	})
	th.Start(camURL)
	waitSignal(t, started)

	stopped := make(chan error, 1)
	go func() { stopped <- th.Stop() }()

	require.Eventually(t, func() bool { return !th.HasWorker() }, time.Second, 5*time.Millisecond)
	begin := time.Now()
	assert.Nil(t, th.FrameToDisplay())
	assert.Less(t, time.Since(begin), 100*time.Millisecond)
	assert.ErrorIs(t, <-stopped, rtspstream.ErrStopTimeout)
}
