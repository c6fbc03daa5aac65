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
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Group keeps the threads of all open cameras, keyed by camera id, so they
// can be paused or shut down together.
type Group struct {
	mu      sync.Mutex
	threads map[string]*Thread
	log     *zap.Logger
}

func NewGroup(log *zap.Logger) *Group {
	if log == nil {
		log = zap.NewNop()
	}
	return &Group{threads: make(map[string]*Thread), log: log}
}

// Add registers t under id, replacing any previous thread with that id.
func (g *Group) Add(id string, t *Thread) {
	g.mu.Lock()
	g.threads[id] = t
	g.mu.Unlock()
}

func (g *Group) Remove(id string) {
	g.mu.Lock()
	delete(g.threads, id)
	g.mu.Unlock()
}

func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.threads)
}

func (g *Group) IDs() []string {
	g.mu.Lock()
	ids := make([]string, 0, len(g.threads))
	for id := range g.threads {
		ids = append(ids, id)
	}
	g.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// SetPaused pauses or resumes every thread that has a worker and returns
// how many were affected.
func (g *Group) SetPaused(paused bool) int {
	n := 0
	for _, t := range g.snapshot() {
		if err := t.SetPaused(paused); err == nil {
			n++
		}
	}
	return n
}

// StopAll stops every thread concurrently and forgets them. It returns the
// first stop error, or ctx's error if the threads are still stopping when
// ctx is done.
func (g *Group) StopAll(ctx context.Context) error {
	g.mu.Lock()
	threads := g.threads
	g.threads = make(map[string]*Thread)
	g.mu.Unlock()

	var eg errgroup.Group
	for id, t := range threads {
		id, t := id, t
		eg.Go(func() error {
			err := t.Stop()
			if err != nil {
				g.log.Warn("stream stop", zap.String("camera", id), zap.Error(err))
			}
			return err
		})
	}
	done := make(chan error, 1)
	go func() { done <- eg.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Group) snapshot() []*Thread {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Thread, 0, len(g.threads))
	for _, t := range g.threads {
		out = append(out, t)
	}
	return out
}
