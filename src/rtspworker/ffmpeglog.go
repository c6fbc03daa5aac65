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
	"strings"

	astiav "github.com/asticode/go-astiav"
	"go.uber.org/zap"
)

// RouteFFmpegLog sends FFmpeg's log output to log at debug level.
func RouteFFmpegLog(log *zap.Logger) {
	astiav.SetLogLevel(astiav.LogLevelDebug)
	astiav.SetLogCallback(func(c astiav.Classer, l astiav.LogLevel, _, msg string) {
		fields := []zap.Field{zap.Int("level", int(l))}
		if c != nil {
			if cl := c.Class(); cl != nil {
				fields = append(fields, zap.String("class", cl.String()))
			}
		}
		log.Debug(strings.TrimSpace(msg), fields...)
	})
}
