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
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hajimehoshi/oto/v2"
	"github.com/mappu/miqt/qt"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/e1z0/qsurveil/src/bandwidth"
	"github.com/e1z0/qsurveil/src/rtspstream"
	"github.com/e1z0/qsurveil/src/rtspworker"
	"github.com/e1z0/qsurveil/src/screensaver"
	"github.com/e1z0/qsurveil/src/settings"
)

/*
This is the main unit of the application
*/

var tray *TrayController
var wins []*CamWindow
var globalIcon *qt.QIcon
var version string
var build string

var app = "QSurveil"

var flags struct {
	debug        bool
	debugStreams bool
	debugFrames  bool
}

// services are built by fx before the Qt event loop starts. Qt objects are
// never created by fx: lifecycle hooks do not run on the GUI thread.
type services struct {
	fx.In

	Log     *zap.Logger
	Store   *settings.Store
	Meter   *bandwidth.Meter
	Saver   *screensaver.Service
	Audio   *oto.Context `optional:"true"`
	Streams *rtspstream.Group
}

var svc services

var rootCmd = &cobra.Command{
	Use:     appName,
	Short:   "Desktop viewer for RTSP cameras and their recordings",
	Version: version,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("")
	},
	SilenceUsage: true,
}

var playCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Play a recording with mplayer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err != nil {
			return err
		}
		return run(path)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "General debugging override")
	rootCmd.PersistentFlags().BoolVar(&flags.debugStreams, "debugstreams", false, "Debug streams")
	rootCmd.PersistentFlags().BoolVar(&flags.debugFrames, "debugframes", false, "Debug frames per camera")
	rootCmd.AddCommand(playCmd)
}

func main() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread() // this will run after Exec() returns
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(playFile string) error {
	if err := InitializeEnvironment(); err != nil {
		return err
	}

	fxApp := fx.New(
		fx.Supply(env),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(
			newLogger,
			openSettings,
			newMeter,
			newInhibitor,
			newAudio,
			newStreamGroup,
		),
		fx.Invoke(func(s services) { svc = s }),
		fx.Invoke(registerHooks),
	)
	if err := fxApp.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		return err
	}

	code := runGUI(playFile)

	// stream stop waits are bounded by the stop timeout plus the cancel grace
	stopCtx, cancelStop := context.WithTimeout(context.Background(), svc.Store.Snapshot().StopTimeout()+2*time.Second)
	defer cancelStop()
	if err := fxApp.Stop(stopCtx); err != nil {
		svc.Log.Warn("shutdown", zap.Error(err))
	}
	_ = svc.Log.Sync()
	if code != 0 {
		os.Exit(code)
	}
	return nil
}

func newMeter() *bandwidth.Meter {
	return bandwidth.NewMeter(5 * time.Second)
}

func newInhibitor(log *zap.Logger) *screensaver.Service {
	return screensaver.New(app, log.Named("screensaver"))
}

// newAudio runs inside fx.New on the locked main thread. Cameras play
// without sound when it fails.
func newAudio(log *zap.Logger) *oto.Context {
	ctx, err := rtspworker.NewAudioContext(log.Named("audio"))
	if err != nil {
		log.Error("audio init failed, cameras will be silent", zap.Error(err))
		return nil
	}
	return ctx
}

func newStreamGroup(log *zap.Logger) *rtspstream.Group {
	return rtspstream.NewGroup(log.Named("streams"))
}

func registerHooks(lc fx.Lifecycle, log *zap.Logger, saver *screensaver.Service, streams *rtspstream.Group) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting", zap.String("app", app), zap.String("version", version), zap.String("build", build),
				zap.String("os", env.os), zap.String("path", env.appPath))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down", zap.Int("streams", streams.Len()))
			err := streams.StopAll(ctx)
			if cerr := saver.Close(); cerr != nil {
				log.Warn("release screensaver", zap.Error(cerr))
			}
			return err
		},
	})
}

// runGUI owns the Qt application and returns its exit code.
func runGUI(playFile string) int {
	log := svc.Log
	if flags.debugStreams {
		rtspworker.RouteFFmpegLog(log.Named("ffmpeg"))
	}

	qt.QCoreApplication_SetQuitLockEnabled(true)
	// a lone player window quits the app when closed, the camera client lives in the tray
	qt.QGuiApplication_SetQuitOnLastWindowClosed(playFile != "")
	qt.QCoreApplication_SetAttribute2(qt.AA_ShareOpenGLContexts, true)

	qt.NewQApplication(os.Args)

	globalIcon = loadAppIcon()
	qt.QApplication_SetWindowIcon(globalIcon)
	qt.QGuiApplication_SetWindowIcon(globalIcon)

	if playFile != "" {
		if _, err := NewPlayerWindow(playFile); err != nil {
			errorBox(nil, "Error", err.Error())
			return 1
		}
		return qt.QApplication_Exec()
	}

	cfg := svc.Store.Snapshot()
	wins = make([]*CamWindow, len(cfg.Cameras))

	// Start any enabled cameras
	for i := range cfg.Cameras {
		if cfg.Cameras[i].Disabled {
			log.Info("camera disabled, skipping", zap.String("camera", cfg.Cameras[i].Title()))
			continue
		}
		wins[i] = newCamWindow(cfg.Cameras[i], i)
	}

	// Tray controller (builds the checkable Cameras menu)
	tray = NewTrayController(&wins)

	// Give existing windows hooks + the same context menu as the tray
	for i, w := range wins {
		if w == nil {
			continue
		}
		tray.AttachWindowHooks(i, w)
	}
	IgnoreSignum()

	go HandleSleep(resumeCameras)

	if len(cfg.Cameras) == 0 {
		errorBox(nil, "Error", "No cameras defined in the configuration")
		ShowSettingsDialog(nil)
	}

	code := qt.QApplication_Exec()
	// streams are stopped by the fx OnStop hook, all at once
	for _, w := range wins {
		if w != nil {
			w.release()
		}
	}
	return code
}

// resumeCameras restarts every open camera after a system wake. Must run
// on the GUI thread.
func resumeCameras() {
	svc.Log.Info("machine awake, restarting cameras")
	for _, w := range wins {
		if w != nil && w.win.IsVisible() {
			w.OnResumeFromSleep()
		}
	}
}

// loadAppIcon prefers icon.png next to the binary and falls back to a
// drawn placeholder.
func loadAppIcon() *qt.QIcon {
	pixmap := qt.NewQPixmap()
	if pixmap.Load(filepath.Join(env.appPath, "icon.png")) {
		return qt.NewQIcon2(pixmap)
	}
	pm := qt.NewQPixmap2(64, 64)
	pm.FillWithFillColor(qt.NewQColor11(0, 0, 0, 0))
	p := qt.NewQPainter2(pm.QPaintDevice)
	p.SetRenderHint2(qt.QPainter__Antialiasing, true)
	p.SetPenWithPen(qt.NewQPen3(qt.NewQColor11(255, 255, 255, 230)))
	p.SetBrush(qt.NewQBrush11(qt.NewQColor11(30, 110, 190, 255), qt.SolidPattern))
	p.DrawRoundedRect3(qt.NewQRect4(4, 4, 56, 56), 28, 28)
	p.SetBrush(qt.NewQBrush11(qt.NewQColor11(230, 40, 40, 255), qt.SolidPattern))
	p.DrawRoundedRect3(qt.NewQRect4(24, 24, 16, 16), 8, 8)
	p.End()
	return qt.NewQIcon2(pm)
}
