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

// Package mplayer drives an external mplayer binary in slave mode: commands
// go to its stdin one per line, replies are matched on its stdout.
//
// A Process is owned by the GUI thread. Output is read on background
// goroutines and handed to the Dispatcher, which in the Qt client posts onto
// the main loop, so replies are parsed in order with the commands that
// caused them.
package mplayer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PlayingMsgMagic is passed through -playing-msg and echoed once playback
// has actually started.
const PlayingMsgMagic = "XPL32AFFC3DFEBB"

const DefaultBinary = "mplayer"

var (
	ErrFailedToStart = errors.New("failed to start")
	ErrCrashed       = errors.New("crashed")
)

var (
	rxEOF      = regexp.MustCompile(`^Exiting\.\.\. \(End of file\)|^ID_EXIT=EOF`)
	rxLength   = regexp.MustCompile(`ANS_length=(\S+)`)
	rxPosition = regexp.MustCompile(`ANS_time_pos=(\S+)`)
)

// Events are the notifications a Process emits. Nil callbacks are skipped.
type Events struct {
	OnError           func(permanent bool, msg string)
	OnEOF             func()
	OnReadyToPlay     func()
	OnDurationChanged func()
}

// Dispatcher runs fn on the thread that owns the Process.
type Dispatcher func(fn func())

type Options struct {
	Binary      string        // defaults to DefaultBinary
	QuitTimeout time.Duration // how long Close waits before killing, default 1s
	Launcher    Launcher      // defaults to ExecLauncher
	Dispatch    Dispatcher    // defaults to calling fn directly
	Logger      *zap.Logger
}

type Process struct {
	wid    string
	events Events
	opts   Options
	log    *zap.Logger

	mu       sync.Mutex
	proc     Proc
	stdin    io.Writer
	running  bool
	quitting bool
	exited   chan struct{}
	lastErr  error

	duration float64
	position float64

	readyToPlay bool
	posReqSent  bool
	durReqSent  bool
	paused      bool
}

// New creates a controller that will render into native window wid.
func New(wid string, events Events, opts Options) *Process {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.QuitTimeout <= 0 {
		opts.QuitTimeout = time.Second
	}
	if opts.Launcher == nil {
		opts.Launcher = ExecLauncher{}
	}
	if opts.Dispatch == nil {
		opts.Dispatch = func(fn func()) { fn() }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Process{
		wid:      wid,
		events:   events,
		opts:     opts,
		log:      opts.Logger.With(zap.String("wid", wid)),
		duration: -1,
		position: -1,
	}
}

// LaunchArgs returns the mplayer command line for file rendered into wid.
func LaunchArgs(wid, file string) []string {
	return []string{
		"-slave",
		"-wid", wid,
		"-quiet",
		"-input", "nodefault-bindings:conf=/dev/null",
		"-noconfig", "all",
		"-playing-msg", PlayingMsgMagic + "\n",
		"-nomouseinput",
		"-zoom",
		"-nomsgcolor",
		file,
	}
}

// Start launches the player on filename. It returns as soon as the process
// exists; readiness is reported later through OnReadyToPlay.
func (p *Process) Start(filename string) bool {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		p.log.Warn("mplayer process already running", zap.String("file", filename))
		return false
	}
	p.log.Debug("starting mplayer process", zap.String("file", filename))

	proc, err := p.opts.Launcher.Launch(p.opts.Binary, LaunchArgs(p.wid, filename))
	if err != nil {
		p.lastErr = fmt.Errorf("mplayer: %w: %v", ErrFailedToStart, err)
		p.mu.Unlock()
		p.log.Error("mplayer process failed to start", zap.Error(err))
		p.emitError("MPlayer process " + ErrFailedToStart.Error())
		return false
	}

	p.proc = proc
	p.stdin = proc.Stdin()
	p.running = true
	p.quitting = false
	p.exited = make(chan struct{})
	p.lastErr = nil
	p.duration, p.position = -1, -1
	p.readyToPlay, p.posReqSent, p.durReqSent, p.paused = false, false, false, false
	exited := p.exited
	p.mu.Unlock()

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		p.readLines(proc.Stdout(), p.handleStdoutLine)
	}()
	go func() {
		defer readers.Done()
		p.readLines(proc.Stderr(), func(l string) {
			p.log.Debug("MPLAYER STDERR", zap.String("line", l))
		})
	}()
	go p.waitExit(proc, exited, &readers)

	p.log.Debug("mplayer process started")
	return true
}

func (p *Process) readLines(r io.Reader, handle func(string)) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		p.opts.Dispatch(func() { handle(line) })
	}
}

func (p *Process) waitExit(proc Proc, exited chan struct{}, readers *sync.WaitGroup) {
	readers.Wait()
	crashed, err := proc.Wait()

	p.mu.Lock()
	quitting := p.quitting
	p.running = false
	p.stdin = nil
	if crashed && !quitting {
		p.lastErr = fmt.Errorf("mplayer: %w", ErrCrashed)
	}
	close(exited)
	p.mu.Unlock()

	if err != nil {
		p.log.Debug("mplayer wait", zap.Error(err))
	}
	p.log.Debug("mplayer process exited", zap.Bool("crashed", crashed))

	if crashed && !quitting {
		p.opts.Dispatch(func() {
			p.emitError("Received mplayer process error: " + ErrCrashed.Error())
		})
	}
}

func (p *Process) handleStdoutLine(line string) {
	var notify []func()

	p.mu.Lock()
	if rxEOF.MatchString(line) && p.events.OnEOF != nil {
		notify = append(notify, p.events.OnEOF)
	}

	if !p.readyToPlay && strings.Contains(line, PlayingMsgMagic) {
		p.readyToPlay = true
		if p.events.OnReadyToPlay != nil {
			notify = append(notify, p.events.OnReadyToPlay)
		}
		p.requestDurationLocked()
	}

	if p.durReqSent {
		if m := rxLength.FindStringSubmatch(line); m != nil {
			p.durReqSent = false
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				old := p.duration
				p.duration = v
				if old != v && p.events.OnDurationChanged != nil {
					notify = append(notify, p.events.OnDurationChanged)
				}
			} else {
				p.log.Debug("unparsable length answer", zap.String("line", line))
			}
		}
	}

	if p.posReqSent {
		if m := rxPosition.FindStringSubmatch(line); m != nil {
			p.posReqSent = false
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				p.position = v
			} else {
				p.log.Debug("unparsable position answer", zap.String("line", line))
			}
		}
	}
	p.mu.Unlock()

	p.log.Debug("MPLAYER STDOUT", zap.String("line", line))

	for _, fn := range notify {
		fn()
	}
}

func (p *Process) emitError(msg string) {
	if p.events.OnError != nil {
		p.events.OnError(true, msg)
	}
}

// writeLocked sends one raw line. p.mu must be held.
func (p *Process) writeLocked(line string) {
	if !p.running || p.stdin == nil {
		return
	}
	if _, err := io.WriteString(p.stdin, line); err != nil {
		p.log.Warn("mplayer write failed", zap.String("cmd", strings.TrimSpace(line)), zap.Error(err))
		return
	}
	p.log.Debug("sending command", zap.String("cmd", strings.TrimSpace(line)))
}

func (p *Process) sendCommandLocked(cmd string) {
	p.writeLocked("pausing_keep " + cmd + "\n")
}

func (p *Process) activeLocked() bool { return p.running && p.readyToPlay }

// SendCommand writes a slave command, keeping the current pause state.
func (p *Process) SendCommand(cmd string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sendCommandLocked(cmd)
}

func (p *Process) SetProperty(name, value string) {
	p.SendCommand("set_property " + name + " " + value)
}

// Quit asks the player to exit without waiting for it.
func (p *Process) Quit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.quitting = true
	p.sendCommandLocked("quit")
}

// Play resumes playback if it was paused by Pause.
func (p *Process) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.activeLocked() || !p.paused {
		return
	}
	p.writeLocked("pause\n")
	p.paused = false
}

// Pause halts playback. mplayer only knows a toggle, so the controller
// tracks which side of it the player is on.
func (p *Process) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.activeLocked() || p.paused {
		return
	}
	p.writeLocked("pause\n")
	p.paused = true
}

func (p *Process) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Seek jumps to pos seconds from the start.
func (p *Process) Seek(pos float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.activeLocked() {
		return false
	}
	p.sendCommandLocked(fmt.Sprintf("seek %.2f 2", pos))
	return true
}

// SetSpeed sets the playback rate, 1.0 is normal.
func (p *Process) SetSpeed(speed float64) {
	p.setActiveProperty("speed", strconv.FormatFloat(speed, 'f', 2, 64))
}

// SetVolume takes 0..100; values outside are clamped.
func (p *Process) SetVolume(vol float64) {
	vol = min(max(vol, 0), 100)
	p.setActiveProperty("volume", strconv.FormatFloat(vol, 'f', 2, 64))
}

// Mute silences the audio when yes is true.
func (p *Process) Mute(yes bool) {
	v := "0"
	if yes {
		v = "1"
	}
	p.setActiveProperty("mute", v)
}

func (p *Process) setActiveProperty(name, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.activeLocked() {
		return
	}
	p.sendCommandLocked("set_property " + name + " " + value)
}

func (p *Process) requestDurationLocked() {
	if !p.durReqSent {
		p.durReqSent = true
		p.sendCommandLocked("get_property length")
	}
}

// Duration returns the last known length in seconds and asks for a fresh
// one if no request is pending. -1 means unknown.
func (p *Process) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.activeLocked() {
		return -1
	}
	p.requestDurationLocked()
	return p.duration
}

// Position works like Duration for the current playback time.
func (p *Process) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.activeLocked() {
		return -1
	}
	if !p.posReqSent {
		p.posReqSent = true
		p.sendCommandLocked("get_property time_pos")
	}
	return p.position
}

func (p *Process) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Process) IsReadyToPlay() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readyToPlay
}

// LastError is the permanent error seen by the current session, if any.
func (p *Process) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Close stops a running player: quit, wait up to QuitTimeout, then kill.
func (p *Process) Close() error {
	p.mu.Lock()
	running, exited, proc := p.running, p.exited, p.proc
	p.mu.Unlock()
	if !running {
		return nil
	}

	p.Quit()
	select {
	case <-exited:
		return nil
	case <-time.After(p.opts.QuitTimeout):
	}

	p.log.Warn("mplayer did not quit in time, killing", zap.Duration("timeout", p.opts.QuitTimeout))
	p.mu.Lock()
	p.quitting = true
	p.mu.Unlock()
	if err := proc.Kill(); err != nil {
		return fmt.Errorf("mplayer: kill: %w", err)
	}
	select {
	case <-exited:
	case <-time.After(p.opts.QuitTimeout):
		return errors.New("mplayer: process did not exit after kill")
	}
	return nil
}
