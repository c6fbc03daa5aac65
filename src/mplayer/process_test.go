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
package mplayer

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineBuffer collects what the controller writes to the player's stdin.
type lineBuffer struct {
	mu     sync.Mutex
	lines  []string
	onLine func(string)
}

func (b *lineBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	for _, l := range strings.SplitAfter(string(p), "\n") {
		if l != "" {
			b.lines = append(b.lines, l)
		}
	}
	cb := b.onLine
	b.mu.Unlock()
	if cb != nil {
		cb(string(p))
	}
	return len(p), nil
}

func (b *lineBuffer) Close() error { return nil }

func (b *lineBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

func (b *lineBuffer) Count(line string) int {
	n := 0
	for _, l := range b.Lines() {
		if l == line {
			n++
		}
	}
	return n
}

type fakeProc struct {
	stdin            *lineBuffer
	stdoutR, stderrR *io.PipeReader
	stdoutW, stderrW *io.PipeWriter

	once    sync.Once
	exit    chan bool
	mu      sync.Mutex
	killed  bool
	ignoreQ bool // do not exit on quit
}

func newFakeProc() *fakeProc {
	p := &fakeProc{stdin: &lineBuffer{}, exit: make(chan bool, 1)}
	p.stdoutR, p.stdoutW = io.Pipe()
	p.stderrR, p.stderrW = io.Pipe()
	p.stdin.onLine = func(l string) {
		if strings.Contains(l, "quit") && !p.ignoreQ {
			go p.finish(false)
		}
	}
	return p
}

func (p *fakeProc) Stdin() io.WriteCloser { return p.stdin }
func (p *fakeProc) Stdout() io.Reader     { return p.stdoutR }
func (p *fakeProc) Stderr() io.Reader     { return p.stderrR }

func (p *fakeProc) Wait() (bool, error) { return <-p.exit, nil }

func (p *fakeProc) Kill() error {
	p.mu.Lock()
	p.killed = true
	p.mu.Unlock()
	go p.finish(true)
	return nil
}

func (p *fakeProc) Killed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

func (p *fakeProc) finish(crashed bool) {
	p.once.Do(func() {
		_ = p.stdoutW.Close()
		_ = p.stderrW.Close()
		p.exit <- crashed
	})
}

func (p *fakeProc) say(t *testing.T, line string) {
	t.Helper()
	_, err := io.WriteString(p.stdoutW, line+"\n")
	require.NoError(t, err)
}

type fakeLauncher struct {
	proc *fakeProc
	err  error
	name string
	args []string
}

func (l *fakeLauncher) Launch(name string, args []string) (Proc, error) {
	l.name, l.args = name, args
	if l.err != nil {
		return nil, l.err
	}
	return l.proc, nil
}

type recorder struct {
	mu     sync.Mutex
	events []string
	errs   []string
}

func (r *recorder) add(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errs...)
}

func (r *recorder) hooks() Events {
	return Events{
		OnError: func(permanent bool, msg string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, msg)
			r.events = append(r.events, "error")
		},
		OnEOF:             func() { r.add("eof") },
		OnReadyToPlay:     func() { r.add("ready") },
		OnDurationChanged: func() { r.add("duration") },
	}
}

func startProcess(t *testing.T) (*Process, *fakeProc, *recorder) {
	t.Helper()
	fp := newFakeProc()
	rec := &recorder{}
	p := New("4242", rec.hooks(), Options{
		Launcher:    &fakeLauncher{proc: fp},
		QuitTimeout: 500 * time.Millisecond,
	})
	require.True(t, p.Start("clip.mp4"))
	t.Cleanup(func() { fp.finish(false) })
	return p, fp, rec
}

func makeReady(p *Process) {
	p.handleStdoutLine("Starting playback... " + PlayingMsgMagic)
}

func TestLaunchArgs(t *testing.T) {
	l := &fakeLauncher{proc: newFakeProc()}
	p := New("0x1c00007", Events{}, Options{Launcher: l, Binary: "/usr/bin/mplayer"})
	require.True(t, p.Start("rec/2025-01-01.mp4"))
	defer l.proc.finish(false)

	assert.Equal(t, "/usr/bin/mplayer", l.name)
	assert.Equal(t, []string{
		"-slave", "-wid", "0x1c00007", "-quiet",
		"-input", "nodefault-bindings:conf=/dev/null",
		"-noconfig", "all",
		"-playing-msg", PlayingMsgMagic + "\n",
		"-nomouseinput", "-zoom", "-nomsgcolor",
		"rec/2025-01-01.mp4",
	}, l.args)
}

func TestStartFailure(t *testing.T) {
	rec := &recorder{}
	p := New("1", rec.hooks(), Options{Launcher: &fakeLauncher{err: errors.New("exec: \"mplayer\": executable file not found in $PATH")}})

	assert.False(t, p.Start("clip.mp4"))
	assert.False(t, p.IsRunning())
	assert.ErrorIs(t, p.LastError(), ErrFailedToStart)
	require.Len(t, rec.Errors(), 1)
	assert.Contains(t, rec.Errors()[0], "failed to start")
	assert.Equal(t, []string{"error"}, rec.Events())
	assert.Equal(t, -1.0, p.Duration())
}

func TestStartWhileRunningIsRefused(t *testing.T) {
	p, _, rec := startProcess(t)
	assert.False(t, p.Start("other.mp4"))
	assert.Empty(t, rec.Errors())
}

func TestReadyMarkerFiresOnce(t *testing.T) {
	p, fp, rec := startProcess(t)

	makeReady(p)
	makeReady(p)
	p.handleStdoutLine(PlayingMsgMagic)

	assert.True(t, p.IsReadyToPlay())
	assert.Equal(t, []string{"ready"}, rec.Events())
	assert.Equal(t, 1, fp.stdin.Count("pausing_keep get_property length\n"))
}

func TestOutstandingRequestsAreNotDuplicated(t *testing.T) {
	p, fp, _ := startProcess(t)
	makeReady(p)

	for i := 0; i < 5; i++ {
		assert.Equal(t, -1.0, p.Duration())
		assert.Equal(t, -1.0, p.Position())
	}
	assert.Equal(t, 1, fp.stdin.Count("pausing_keep get_property length\n"))
	assert.Equal(t, 1, fp.stdin.Count("pausing_keep get_property time_pos\n"))

	p.handleStdoutLine("ANS_time_pos=3.50")
	assert.Equal(t, 3.5, p.Position())
	assert.Equal(t, 2, fp.stdin.Count("pausing_keep get_property time_pos\n"))
}

func TestUnsolicitedAnswersAreIgnored(t *testing.T) {
	p, _, rec := startProcess(t)

	p.handleStdoutLine("ANS_length=5.0")
	p.handleStdoutLine("ANS_time_pos=1.0")
	assert.Empty(t, rec.Events())

	makeReady(p)
	p.handleStdoutLine("ANS_length=5.0")
	assert.Equal(t, 5.0, p.Duration())

	// request answered; the next unsolicited answer changes nothing
	p.mu.Lock()
	p.durReqSent = false
	p.mu.Unlock()
	p.handleStdoutLine("ANS_length=99.0")
	assert.Equal(t, []string{"ready", "duration"}, rec.Events())

	// read the cache directly; Duration() would issue a new request
	p.mu.Lock()
	cached, pending := p.duration, p.durReqSent
	p.mu.Unlock()
	assert.Equal(t, 5.0, cached)
	assert.False(t, pending)
}

func TestPlaybackScenario(t *testing.T) {
	p, _, rec := startProcess(t)

	makeReady(p)
	p.handleStdoutLine("ANS_length=120.5")
	assert.Equal(t, -1.0, p.Position())
	p.handleStdoutLine("ANS_time_pos=30.25")

	assert.Equal(t, []string{"ready", "duration"}, rec.Events())
	assert.Equal(t, 120.5, p.Duration())
	assert.Equal(t, 30.25, p.Position())
}

func TestDurationChangedOnlyOnNewValue(t *testing.T) {
	p, _, rec := startProcess(t)
	makeReady(p)

	p.handleStdoutLine("ANS_length=60.0")
	p.Duration()
	p.handleStdoutLine("ANS_length=60.0")
	p.Duration()
	p.handleStdoutLine("ANS_length=61.0")

	assert.Equal(t, []string{"ready", "duration", "duration"}, rec.Events())
}

func TestMalformedAnswerClearsRequest(t *testing.T) {
	p, fp, rec := startProcess(t)
	makeReady(p)

	p.handleStdoutLine("ANS_length=garbage")
	assert.Equal(t, -1.0, p.Duration())
	assert.Equal(t, 2, fp.stdin.Count("pausing_keep get_property length\n"))
	assert.Equal(t, []string{"ready"}, rec.Events())
}

func TestEOFPatterns(t *testing.T) {
	p, _, rec := startProcess(t)

	p.handleStdoutLine("Exiting... (End of file)")
	p.handleStdoutLine("ID_EXIT=EOF")
	p.handleStdoutLine("  Exiting... (End of file)")
	p.handleStdoutLine("Exiting... (Quit)")

	assert.Equal(t, []string{"eof", "eof"}, rec.Events())
}

func TestControlsAreNoOpsBeforeReady(t *testing.T) {
	p, fp, _ := startProcess(t)

	p.Play()
	p.Pause()
	assert.False(t, p.Seek(10))
	p.SetSpeed(2)
	p.SetVolume(50)
	p.Mute(true)
	assert.Equal(t, -1.0, p.Duration())
	assert.Equal(t, -1.0, p.Position())

	assert.Empty(t, fp.stdin.Lines())
}

func TestPlayAndPauseAreDistinct(t *testing.T) {
	p, fp, _ := startProcess(t)
	makeReady(p)

	p.Play() // already playing
	assert.Equal(t, 0, fp.stdin.Count("pause\n"))

	p.Pause()
	p.Pause()
	assert.True(t, p.IsPaused())
	assert.Equal(t, 1, fp.stdin.Count("pause\n"))

	p.Play()
	p.Play()
	assert.False(t, p.IsPaused())
	assert.Equal(t, 2, fp.stdin.Count("pause\n"))
}

func TestPropertyCommands(t *testing.T) {
	p, fp, _ := startProcess(t)
	makeReady(p)

	assert.True(t, p.Seek(42.5))
	p.SetSpeed(1.5)
	p.SetVolume(140)
	p.SetVolume(-3)
	p.Mute(true)
	p.Mute(false)
	p.SetProperty("osdlevel", "0")

	assert.Equal(t, []string{
		"pausing_keep get_property length\n",
		"pausing_keep seek 42.50 2\n",
		"pausing_keep set_property speed 1.50\n",
		"pausing_keep set_property volume 100.00\n",
		"pausing_keep set_property volume 0.00\n",
		"pausing_keep set_property mute 1\n",
		"pausing_keep set_property mute 0\n",
		"pausing_keep set_property osdlevel 0\n",
	}, fp.stdin.Lines())
}

func TestOutputIsParsedFromThePipe(t *testing.T) {
	p, fp, rec := startProcess(t)

	fp.say(t, "MPlayer SVN-r38151 (C) 2000-2019 MPlayer Team")
	fp.say(t, "Starting playback...")
	fp.say(t, PlayingMsgMagic)
	fp.say(t, "ANS_length=10.00")

	require.Eventually(t, func() bool { return len(rec.Events()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"ready", "duration"}, rec.Events())
	assert.Equal(t, 10.0, p.Duration())
}

func TestCrashIsReported(t *testing.T) {
	p, fp, rec := startProcess(t)
	makeReady(p)

	fp.finish(true)

	require.Eventually(t, func() bool { return !p.IsRunning() }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.Errors()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Contains(t, rec.Errors()[0], "crashed")
	assert.ErrorIs(t, p.LastError(), ErrCrashed)

	assert.False(t, p.Seek(1))
	assert.Equal(t, -1.0, p.Duration())
}

func TestNormalExitIsNotAnError(t *testing.T) {
	p, fp, rec := startProcess(t)
	fp.finish(false)

	require.Eventually(t, func() bool { return !p.IsRunning() }, time.Second, 5*time.Millisecond)
	assert.Empty(t, rec.Errors())
	assert.NoError(t, p.LastError())
}

func TestCloseQuitsGracefully(t *testing.T) {
	p, fp, rec := startProcess(t)

	require.NoError(t, p.Close())
	assert.False(t, p.IsRunning())
	assert.False(t, fp.Killed())
	assert.Equal(t, 1, fp.stdin.Count("pausing_keep quit\n"))
	assert.Empty(t, rec.Errors())
}

func TestCloseKillsStubbornPlayer(t *testing.T) {
	p, fp, rec := startProcess(t)
	fp.ignoreQ = true

	require.NoError(t, p.Close())
	assert.True(t, fp.Killed())
	assert.False(t, p.IsRunning())
	assert.Empty(t, rec.Errors(), "a kill we asked for is not a crash")
}

func TestCloseWithoutProcess(t *testing.T) {
	p := New("1", Events{}, Options{Launcher: &fakeLauncher{}})
	assert.NoError(t, p.Close())
	p.Quit()
	p.SendCommand("quit")
}

func TestDispatcherReceivesOutput(t *testing.T) {
	fp := newFakeProc()
	var mu sync.Mutex
	dispatched := 0
	p := New("1", Events{}, Options{
		Launcher: &fakeLauncher{proc: fp},
		Dispatch: func(fn func()) {
			mu.Lock()
			dispatched++
			mu.Unlock()
			fn()
		},
	})
	require.True(t, p.Start("a.mp4"))
	defer fp.finish(false)

	fp.say(t, PlayingMsgMagic)
	require.Eventually(t, p.IsReadyToPlay, time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, dispatched)
}
