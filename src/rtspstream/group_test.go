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

	"github.com/e1z0/qsurveil/src/rtspstream"
	"github.com/e1z0/qsurveil/src/rtspstream/mocks"
)

func runningThread(t *testing.T, ctrl *gomock.Controller, opts rtspstream.ThreadOptions, run func(context.Context)) (*rtspstream.Thread, *mocks.MockWorker) {
	t.Helper()
	w := mocks.NewMockWorker(ctrl)
	started := make(chan struct{})
	w.EXPECT().SetURL(camURL)
	w.EXPECT().OnFatalError(gomock.Any())
	w.EXPECT().Run(gomock.Any()).Do(func(ctx context.Context) {
		close(started)
		if run != nil {
			run(ctx)
		}
	})
	var created atomic.Int32
	th := rtspstream.NewThread(factoryOf(&created, w), nil, opts)
	th.Start(camURL)
	waitSignal(t, started)
	return th, w
}

func TestGroupMembership(t *testing.T) {
	g := rtspstream.NewGroup(nil)
	a := rtspstream.NewThread(nil, nil, rtspstream.ThreadOptions{})
	b := rtspstream.NewThread(nil, nil, rtspstream.ThreadOptions{})

	g.Add("yard", a)
	g.Add("door", b)
	g.Add("door", b)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"door", "yard"}, g.IDs())

	g.Remove("yard")
	g.Remove("missing")
	assert.Equal(t, []string{"door"}, g.IDs())
}

func TestGroupSetPausedSkipsIdleThreads(t *testing.T) {
	ctrl := gomock.NewController(t)
	live, w := runningThread(t, ctrl, rtspstream.ThreadOptions{}, nil)
	w.EXPECT().SetPaused(true)
	w.EXPECT().Stop()

	g := rtspstream.NewGroup(nil)
	g.Add("live", live)
	g.Add("idle", rtspstream.NewThread(nil, nil, rtspstream.ThreadOptions{}))

	assert.Equal(t, 1, g.SetPaused(true))
	require.NoError(t, g.StopAll(context.Background()))
}

func TestGroupStopAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	g := rtspstream.NewGroup(nil)

	for _, id := range []string{"a", "b", "c"} {
		stop := make(chan struct{})
		th, w := runningThread(t, ctrl, rtspstream.ThreadOptions{}, func(context.Context) { <-stop })
		w.EXPECT().Stop().Do(func() { close(stop) })
		g.Add(id, th)
	}

	require.NoError(t, g.StopAll(context.Background()))
	assert.Zero(t, g.Len())
	assert.NoError(t, g.StopAll(context.Background()), "stopping an empty group is a no-op")
}

func TestGroupStopAllReportsForcedStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	th, w := runningThread(t, ctrl, rtspstream.ThreadOptions{StopTimeout: 10 * time.Millisecond},
		func(ctx context.Context) { <-ctx.Done() })
	w.EXPECT().Stop()

	g := rtspstream.NewGroup(nil)
	g.Add("stubborn", th)
	assert.ErrorIs(t, g.StopAll(context.Background()), rtspstream.ErrStopTimeout)
}

func TestGroupStopAllHonoursContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	release := make(chan struct{})
	th, w := runningThread(t, ctrl, rtspstream.ThreadOptions{
		StopTimeout: time.Second,
		CancelGrace: time.Second,
	}, func(context.Context) { <-release })
	w.EXPECT().Stop()

	g := rtspstream.NewGroup(nil)
	g.Add("slow", th)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.StopAll(ctx), context.DeadlineExceeded)
	close(release)
}
