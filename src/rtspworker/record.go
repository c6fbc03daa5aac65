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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	astiav "github.com/asticode/go-astiav"
	"go.uber.org/zap"
)

// RecordingExt is the container used for recordings. Matroska accepts
// G.711 audio as a stream copy, so nothing is re-encoded.
const RecordingExt = ".mkv"

// DefaultRecordDir returns $HOME/QSurveil-Recordings.
func DefaultRecordDir() (string, error) {
	h, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(h, "QSurveil-Recordings"), nil
}

// RecordingPath builds <base>/<camera>/YYYY-MM-DD_HH-MM-SS.mkv and creates
// the camera directory.
func RecordingPath(base, camera string, started time.Time) (string, error) {
	if base == "" {
		var err error
		if base, err = DefaultRecordDir(); err != nil {
			return "", err
		}
	}
	dir := filepath.Join(base, SanitizeFSComponent(camera))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, started.Format("2006-01-02_15-04-05")+RecordingExt), nil
}

var fsReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizeFSComponent makes s safe to use as a single path component.
func SanitizeFSComponent(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "camera"
	}
	return fsReplacer.Replace(s)
}

// recorder remuxes the input packets into a file.
type recorder struct {
	oc      *astiav.FormatContext
	pb      *astiav.IOContext
	streams map[int]int // input stream index -> output stream index
	path    string
	log     *zap.Logger
}

func (r *recorder) active() bool { return r.oc != nil }

func (r *recorder) start(fc *astiav.FormatContext, path string) error {
	oc, err := astiav.AllocOutputFormatContext(nil, "matroska", path)
	if err != nil {
		return fmt.Errorf("alloc output context: %w", err)
	}
	if oc == nil {
		return errors.New("alloc output context")
	}

	streams := make(map[int]int)
	for _, is := range fc.Streams() {
		par := is.CodecParameters()
		if mt := par.MediaType(); mt != astiav.MediaTypeVideo && mt != astiav.MediaTypeAudio {
			continue
		}
		os := oc.NewStream(nil)
		if os == nil {
			continue
		}
		if err := par.Copy(os.CodecParameters()); err != nil {
			r.log.Debug("recording: copy codec parameters", zap.Int("stream", is.Index()), zap.Error(err))
			continue
		}
		os.CodecParameters().SetCodecTag(0)
		os.SetTimeBase(is.TimeBase())
		streams[is.Index()] = os.Index()
	}
	if len(streams) == 0 {
		oc.Free()
		return errors.New("nothing to record")
	}

	pb, err := astiav.OpenIOContext(path, astiav.NewIOContextFlags(astiav.IOContextFlagWrite), nil, nil)
	if err != nil {
		oc.Free()
		return fmt.Errorf("open %s: %w", path, err)
	}
	oc.SetPb(pb)

	if err := oc.WriteHeader(nil); err != nil {
		_ = pb.Close()
		pb.Free()
		oc.Free()
		return fmt.Errorf("write header: %w", err)
	}

	r.oc, r.pb, r.streams, r.path = oc, pb, streams, path
	r.log.Info("recording started", zap.String("path", path))
	return nil
}

// write muxes a reference to pkt; the caller keeps ownership of pkt.
func (r *recorder) write(fc *astiav.FormatContext, pkt *astiav.Packet) {
	if r.oc == nil {
		return
	}
	out, ok := r.streams[pkt.StreamIndex()]
	if !ok {
		return
	}
	cp := astiav.AllocPacket()
	if cp == nil {
		return
	}
	defer cp.Free()
	if err := cp.Ref(pkt); err != nil {
		return
	}
	cp.RescaleTs(fc.Streams()[pkt.StreamIndex()].TimeBase(), r.oc.Streams()[out].TimeBase())
	cp.SetStreamIndex(out)
	if err := r.oc.WriteInterleavedFrame(cp); err != nil && !errors.Is(err, astiav.ErrEagain) {
		r.log.Debug("recording: write packet", zap.Error(err))
	}
	cp.Unref()
}

func (r *recorder) close() {
	if r.oc == nil {
		return
	}
	_ = r.oc.WriteTrailer()
	if r.pb != nil {
		_ = r.pb.Close()
		r.pb.Free()
	}
	r.oc.Free()
	r.log.Info("recording stopped", zap.String("path", r.path))
	r.oc, r.pb, r.streams, r.path = nil, nil, nil, ""
}
