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
package main

import (
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/e1z0/qsurveil/src/rtspworker"
	"github.com/e1z0/qsurveil/src/settings"
)

var appName = "qsurveil"
var env Environment

type Environment struct {
	configDir    string // configuration directory ~/.config/qsurveil
	settingsFile string // ~/.config/qsurveil/settings.yml
	homeDir      string // home directory ~/
	appPath      string // application directory where the binary lies
	tmpDir       string // OS Temp directory
	appDebugLog  string // app debug.log
	os           string // current operating system
}

// InitializeEnvironment resolves the directories the client works with and
// creates the config directory.
func InitializeEnvironment() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	configDir := filepath.Join(homeDir, ".config", appName)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}
	env = Environment{
		configDir:    configDir,
		settingsFile: filepath.Join(configDir, "settings.yml"),
		homeDir:      homeDir,
		appPath:      appPath(),
		tmpDir:       os.TempDir(),
		appDebugLog:  filepath.Join(configDir, "debug.log"),
		os:           runtime.GOOS,
	}
	return nil
}

// newLogger always writes to debug.log; with --debug it writes to stdout too.
func newLogger(e Environment) (*zap.Logger, error) {
	file, err := os.OpenFile(e.appDebugLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
	if err != nil {
		return nil, err
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if flags.debug {
		level = zapcore.DebugLevel
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level),
	}
	if flags.debug {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), level))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func openSettings(e Environment, log *zap.Logger) (*settings.Store, error) {
	store, err := settings.Open(e.settingsFile)
	if err != nil {
		return nil, err
	}
	log.Info("settings loaded", zap.String("path", store.Path()), zap.Int("cameras", len(store.Snapshot().Cameras)))
	return store, nil
}

// recordingsDir is the configured recordings directory or the default one.
func recordingsDir(cfg *settings.AppConfig) string {
	if cfg.RecordingsDir != "" {
		return cfg.RecordingsDir
	}
	dir, err := rtspworker.DefaultRecordDir()
	if err != nil {
		return env.homeDir
	}
	return dir
}

// return app path
func appPath() string {
	exePath, err := os.Executable()
	if err != nil {
		return ""
	}

	// Resolve any symlinks and clean path
	realPath, err := filepath.EvalSymlinks(exePath)
	if err != nil {
		return ""
	}
	return filepath.Dir(realPath)
}
