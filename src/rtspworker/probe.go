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
	"fmt"
	"strings"
	"time"

	"github.com/bluenviron/gortsplib/v4"
	"github.com/bluenviron/gortsplib/v4/pkg/base"
	"go.uber.org/zap"
)

const probeTimeout = 5 * time.Second

// Probe sends an RTSP DESCRIBE to url and logs the advertised medias.
// URLs that are not rtsp:// or rtsps:// are not probed.
func Probe(ctx context.Context, url string, tcp bool, log *zap.Logger) error {
	if !IsRTSP(url) {
		return nil
	}
	u, err := base.ParseURL(url)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}

	c := gortsplib.Client{
		ReadTimeout:  probeTimeout,
		WriteTimeout: probeTimeout,
	}
	if tcp {
		transport := gortsplib.TransportTCP
		c.Transport = &transport
	}

	if err := c.Start(u.Scheme, u.Host); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	stop := context.AfterFunc(ctx, c.Close)
	defer func() {
		if stop() {
			c.Close()
		}
	}()

	desc, _, err := c.Describe(u)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("describe: %w", err)
	}
	for _, m := range desc.Medias {
		codecs := make([]string, 0, len(m.Formats))
		for _, f := range m.Formats {
			codecs = append(codecs, f.Codec())
		}
		log.Info("rtsp media", zap.String("type", string(m.Type)), zap.Strings("codecs", codecs))
	}
	return nil
}

// IsRTSP reports whether url uses the rtsp or rtsps scheme.
func IsRTSP(url string) bool {
	u := strings.ToLower(url)
	return strings.HasPrefix(u, "rtsp://") || strings.HasPrefix(u, "rtsps://")
}
