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
	"errors"
	"io"
	"sync"

	astiav "github.com/asticode/go-astiav"
	"github.com/hajimehoshi/oto/v2"
	"go.uber.org/zap"
)

// Camera audio is almost always G.711: 8 kHz mono, decoded to S16.
const (
	AudioSampleRate = 8000
	AudioChannels   = 1
)

var (
	audioOnce sync.Once
	audioCtx  *oto.Context
	audioErr  error
)

// NewAudioContext creates the process wide oto context on first use and
// returns the same one afterwards; oto mixes all players internally.
// Call it on the main thread before any camera starts.
func NewAudioContext(log *zap.Logger) (*oto.Context, error) {
	audioOnce.Do(func() {
		ctx, ready, err := oto.NewContext(AudioSampleRate, AudioChannels, oto.FormatSignedInt16LE)
		if err != nil {
			audioErr = err
			return
		}
		// readiness must be consumed on some platforms
		go func() {
			<-ready
			log.Debug("audio context ready")
		}()
		audioCtx = ctx
		log.Info("audio initialized", zap.Int("rate", AudioSampleRate), zap.Int("channels", AudioChannels))
	})
	return audioCtx, audioErr
}

// audioOut decodes one audio stream and pipes PCM into an oto player.
type audioOut struct {
	ctx    *astiav.CodecContext
	frame  *astiav.Frame
	oto    *oto.Context
	player oto.Player
	pipe   *io.PipeWriter
	log    *zap.Logger
}

// openAudio returns nil when the stream cannot be decoded.
func openAudio(par *astiav.CodecParameters, octx *oto.Context, log *zap.Logger) *audioOut {
	dec := astiav.FindDecoder(par.CodecID())
	if dec == nil {
		log.Debug("no audio decoder", zap.String("codec", par.CodecID().String()))
		return nil
	}
	cc := astiav.AllocCodecContext(dec)
	if cc == nil {
		return nil
	}
	if err := par.ToCodecContext(cc); err != nil {
		cc.Free()
		return nil
	}
	if err := cc.Open(dec, nil); err != nil {
		log.Debug("open audio decoder", zap.Error(err))
		cc.Free()
		return nil
	}
	return &audioOut{ctx: cc, frame: astiav.AllocFrame(), oto: octx, log: log}
}

func (a *audioOut) close() {
	if a == nil {
		return
	}
	if a.player != nil {
		_ = a.player.Close()
	}
	if a.pipe != nil {
		_ = a.pipe.Close()
	}
	if a.frame != nil {
		a.frame.Free()
	}
	if a.ctx != nil {
		a.ctx.Free()
	}
}

// play decodes pkt and queues the samples. Only packed S16 mono 8 kHz is
// played; anything else is dropped.
func (a *audioOut) play(pkt *astiav.Packet) {
	if err := a.ctx.SendPacket(pkt); err != nil && !errors.Is(err, astiav.ErrEagain) {
		return
	}
	for a.ctx.ReceiveFrame(a.frame) == nil {
		f := a.frame
		if f.SampleFormat() == astiav.SampleFormatS16 &&
			f.ChannelLayout().Channels() == AudioChannels &&
			f.SampleRate() == AudioSampleRate {
			a.write(f)
		}
		f.Unref()
	}
}

func (a *audioOut) write(f *astiav.Frame) {
	if a.player == nil {
		pr, pw := io.Pipe()
		p := a.oto.NewPlayer(pr)
		if p == nil {
			_ = pw.Close()
			a.log.Warn("audio: cannot create player")
			return
		}
		p.Play()
		a.player, a.pipe = p, pw
	}
	pcm, err := f.Data().Bytes(0)
	if err != nil || len(pcm) == 0 {
		return
	}
	need := min(f.NbSamples()*2, len(pcm))
	_, _ = a.pipe.Write(pcm[:need])
}
