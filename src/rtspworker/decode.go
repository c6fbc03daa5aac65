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
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"time"

	astiav "github.com/asticode/go-astiav"
	"go.uber.org/zap"

	"github.com/e1z0/qsurveil/src/rtspstream"
)

const stallCutoff = 10 * time.Second

// bgraScaler runs every decoded frame through swscale to packed BGRA, so
// no Y/U/V plane is ever touched from Go.
type bgraScaler struct {
	ssc        *astiav.SoftwareScaleContext
	dst        *astiav.Frame
	srcW, srcH int
	srcPix     astiav.PixelFormat
	log        *zap.Logger
}

func (s *bgraScaler) close() {
	if s.dst != nil {
		s.dst.Free()
		s.dst = nil
	}
	if s.ssc != nil {
		s.ssc.Free()
		s.ssc = nil
	}
}

func (s *bgraScaler) ensure(src *astiav.Frame) error {
	sw, sh, sp := src.Width(), src.Height(), src.PixelFormat()
	if s.ssc != nil && sw == s.srcW && sh == s.srcH && sp == s.srcPix {
		return nil
	}
	s.close()

	ssc, err := astiav.CreateSoftwareScaleContext(sw, sh, sp, sw, sh, astiav.PixelFormatBgra, astiav.NewSoftwareScaleContextFlags())
	if err != nil {
		return fmt.Errorf("create scaler (%dx%d %v -> BGRA): %w", sw, sh, sp, err)
	}
	dst := astiav.AllocFrame()
	dst.SetWidth(sw)
	dst.SetHeight(sh)
	dst.SetPixelFormat(astiav.PixelFormatBgra)
	if err := dst.AllocBuffer(1); err != nil {
		dst.Free()
		ssc.Free()
		return fmt.Errorf("alloc BGRA buffer: %w", err)
	}

	s.ssc, s.dst = ssc, dst
	s.srcW, s.srcH, s.srcPix = sw, sh, sp
	s.log.Debug("scaler ready", zap.Int("width", sw), zap.Int("height", sh), zap.String("pix_fmt", sp.String()))
	return nil
}

// toBGRA returns a freshly allocated, tightly packed BGRA copy of src.
func (s *bgraScaler) toBGRA(src *astiav.Frame) (int, int, []byte, error) {
	if err := s.ensure(src); err != nil {
		return 0, 0, nil, err
	}
	if err := s.ssc.ScaleFrame(src, s.dst); err != nil {
		return 0, 0, nil, fmt.Errorf("scale: %w", err)
	}
	n, err := s.dst.ImageBufferSize(1)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("image buffer size: %w", err)
	}
	out := make([]byte, n)
	if _, err := s.dst.ImageCopyToBuffer(out, 1); err != nil {
		return 0, 0, nil, fmt.Errorf("image copy: %w", err)
	}
	return s.srcW, s.srcH, out, nil
}

// inputOptions are the demuxer options for a low latency live source.
func (w *Worker) inputOptions() *astiav.Dictionary {
	rd := astiav.NewDictionary()
	if w.cam.RTSPTCP {
		_ = rd.Set("rtsp_transport", "tcp", 0)
		_ = rd.Set("rtsp_flags", "prefer_tcp", 0)
	}
	_ = rd.Set("buffer_size", "1048576", 0)
	_ = rd.Set("flags", "+low_delay", 0)
	_ = rd.Set("fflags", "+nobuffer+discardcorrupt+genpts", 0)
	_ = rd.Set("max_delay", "500000", 0)
	_ = rd.Set("use_wallclock_as_timestamps", "1", 0)
	probe := int64(5000000)
	if w.cam.Probesize > 0 {
		probe = w.cam.Probesize
	}
	_ = rd.Set("probesize", strconv.FormatInt(probe, 10), 0)
	_ = rd.Set("reorder_queue_size", "0", 0)
	_ = rd.Set("stimeout", "5000000", 0)

	fopts, _ := ParseParams(w.cam.FFmpegParams)
	for k, v := range fopts {
		_ = rd.Set(k, v, 0)
	}
	return rd
}

func (w *Worker) decoderOptions() *astiav.Dictionary {
	vopts := astiav.NewDictionary()
	hw := w.cam.HwAccel
	if hw == "" {
		hw = "none"
	}
	_ = vopts.Set("hwaccel", hw, 0)
	_ = vopts.Set("err_detect", "careful", 0)
	_ = vopts.Set("flags2", "+showall", 0)
	_ = vopts.Set("skip_frame", "default", 0)

	_, copts := ParseParams(w.cam.FFmpegParams)
	for k, v := range copts {
		_ = vopts.Set(k, v, 0)
	}
	return vopts
}

func (w *Worker) setInterrupter(ii *astiav.IOInterrupter) {
	w.ioMu.Lock()
	w.ioInt = ii
	w.ioMu.Unlock()
}

// interruptIO makes a blocked OpenInput or ReadFrame return.
func (w *Worker) interruptIO() {
	w.ioMu.Lock()
	defer w.ioMu.Unlock()
	if w.ioInt != nil {
		w.ioInt.Interrupt()
	}
}

func firstStream(fc *astiav.FormatContext, mt astiav.MediaType) int {
	for i, s := range fc.Streams() {
		if s.CodecParameters().MediaType() == mt {
			return i
		}
	}
	return -1
}

func (w *Worker) openAndDecode(ctx context.Context, url string) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// freed after the format context
	ii := astiav.NewIOInterrupter()
	w.setInterrupter(ii)
	defer func() {
		w.setInterrupter(nil)
		ii.Free()
	}()
	unwatch := context.AfterFunc(ctx, w.interruptIO)
	defer unwatch()

	fc := astiav.AllocFormatContext()
	if fc == nil {
		return errors.New("alloc format context")
	}
	defer fc.Free()
	fc.SetIOInterrupter(ii)
	// Stop may have landed before the interrupter was installed
	if w.interrupted(ctx) {
		return nil
	}

	rd := w.inputOptions()
	defer rd.Free()
	w.log.Debug("ffmpeg input options", zap.String("options", JoinDict(rd)))

	if err := fc.OpenInput(url, nil, rd); err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer fc.CloseInput()
	if err := fc.FindStreamInfo(nil); err != nil {
		return fmt.Errorf("find stream info: %w", err)
	}

	vIdx := firstStream(fc, astiav.MediaTypeVideo)
	if vIdx < 0 {
		return errors.New("no video stream")
	}
	aIdx := firstStream(fc, astiav.MediaTypeAudio)

	vpar := fc.Streams()[vIdx].CodecParameters()
	vdec := astiav.FindDecoder(vpar.CodecID())
	if vdec == nil {
		return fmt.Errorf("no decoder for %s", vpar.CodecID().String())
	}
	vctx := astiav.AllocCodecContext(vdec)
	if vctx == nil {
		return errors.New("alloc video codec context")
	}
	defer vctx.Free()
	if err := vpar.ToCodecContext(vctx); err != nil {
		return fmt.Errorf("video codec parameters: %w", err)
	}
	// HEVC is more stable with a single thread on some Intel decoders.
	if w.cam.Threads > 0 {
		vctx.SetThreadCount(w.cam.Threads)
	} else if n := vdec.Name(); n == "hevc" || n == "h265" {
		vctx.SetThreadCount(1)
	}

	vopts := w.decoderOptions()
	defer vopts.Free()
	w.log.Debug("ffmpeg decoder options", zap.String("options", JoinDict(vopts)))
	if err := vctx.Open(vdec, vopts); err != nil {
		return fmt.Errorf("open video decoder: %w", err)
	}

	var snd *audioOut
	if aIdx >= 0 && w.audio != nil && !w.cam.Mute {
		snd = openAudio(fc.Streams()[aIdx].CodecParameters(), w.audio, w.log)
		defer snd.close()
	}

	rec := &recorder{log: w.log}
	defer rec.close()

	scaler := bgraScaler{log: w.log}
	defer scaler.close()

	pkt := astiav.AllocPacket()
	defer pkt.Free()
	vf := astiav.AllocFrame()
	defer vf.Free()

	lastProgress := time.Now()
	w.log.Info("stream opened", zap.String("codec", vdec.Name()), zap.Bool("audio", snd != nil))

	for !w.interrupted(ctx) {
		if err := fc.ReadFrame(pkt); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, astiav.ErrEof) {
				return nil
			}
			// transient RTSP hiccups
			if time.Since(lastProgress) > stallCutoff {
				return fmt.Errorf("stalled (>%s without progress)", stallCutoff)
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		w.addBytes(pkt.Size())

		if w.IsRecording() != rec.active() {
			if rec.active() {
				rec.close()
			} else if path, err := RecordingPath(w.recDir, w.cam.Title(), time.Now()); err != nil {
				w.log.Warn("recording: cannot build path", zap.Error(err))
				w.recording.Store(false)
			} else if err := rec.start(fc, path); err != nil {
				w.log.Warn("recording failed to start", zap.Error(err))
				w.recording.Store(false)
			}
		}
		rec.write(fc, pkt)

		si := pkt.StreamIndex()
		switch {
		case w.paused.Load():
			// connection stays up, nothing is decoded
			lastProgress = time.Now()
		case snd != nil && si == aIdx:
			snd.play(pkt)
		case si == vIdx:
			w.bytesVideo.Add(int64(pkt.Size()))
			if w.decodeVideo(vctx, pkt, vf, &scaler) {
				lastProgress = time.Now()
			}
		}
		pkt.Unref()

		if time.Since(lastProgress) > stallCutoff {
			return fmt.Errorf("stall watchdog: no progress for %s", stallCutoff)
		}
	}
	return nil
}

// decodeVideo feeds one packet to the decoder and publishes every frame
// it yields. It reports whether a frame was produced.
func (w *Worker) decodeVideo(vctx *astiav.CodecContext, pkt *astiav.Packet, vf *astiav.Frame, scaler *bgraScaler) bool {
	if err := vctx.SendPacket(pkt); err != nil && !errors.Is(err, astiav.ErrEagain) {
		w.decodeErrs.Add(1)
		return false
	}
	produced := false
	for {
		err := vctx.ReceiveFrame(vf)
		if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
			break
		}
		if err != nil {
			w.decodeErrs.Add(1)
			break
		}
		bw, bh, bgra, err := scaler.toBGRA(vf)
		vf.Unref()
		if err != nil {
			w.log.Warn("convert to BGRA", zap.Error(err))
			continue
		}
		if w.deint.Load() && rtspstream.IsInterlaced(bw, bh, bgra) {
			rtspstream.Deinterlace(bw, bh, bgra)
		}
		w.buf.Put(bw, bh, bgra)
		w.framesDecoded.Add(1)
		produced = true
	}
	return produced
}
