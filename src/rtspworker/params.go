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
	"fmt"
	"sort"
	"strings"

	astiav "github.com/asticode/go-astiav"
)

// ParseParams splits a camera's ffmpeg_params string:
// -fOPTION=value goes to the demuxer, -cOPTION=value to the decoder.
// Tokens without both key and value are skipped; matching quotes around
// the value are stripped.
func ParseParams(s string) (fopts, copts map[string]string) {
	fopts = make(map[string]string)
	copts = make(map[string]string)

	for _, tok := range strings.Fields(s) {
		if len(tok) < 3 || tok[0] != '-' {
			continue
		}
		prefix, rest := tok[1], tok[2:]
		key, val, ok := strings.Cut(rest, "=")
		if !ok || key == "" || val == "" {
			continue
		}
		if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') && val[len(val)-1] == val[0] {
			val = val[1 : len(val)-1]
		}
		switch prefix {
		case 'f':
			fopts[key] = val
		case 'c':
			copts[key] = val
		}
	}
	return fopts, copts
}

// DictPairs returns the sorted key=value pairs of d.
func DictPairs(d *astiav.Dictionary) []string {
	if d == nil {
		return nil
	}
	var pairs []string
	var prev *astiav.DictionaryEntry
	flags := astiav.NewDictionaryFlags(astiav.DictionaryFlagIgnoreSuffix)
	for {
		e := d.Get("", prev, flags)
		if e == nil {
			break
		}
		pairs = append(pairs, fmt.Sprintf("%s=%s", e.Key(), e.Value()))
		prev = e
	}
	sort.Strings(pairs)
	return pairs
}

func JoinDict(d *astiav.Dictionary) string {
	return strings.Join(DictPairs(d), " ")
}
