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
	"fmt"
	"math"

	"github.com/mappu/miqt/qt"
	"go.uber.org/zap"

	"github.com/e1z0/qsurveil/src/settings"
)

/*
 app setings unit
*/

// SettingsDialog owns the modal settings UI and a working copy of the
// config. Nothing is applied until Save.
type SettingsDialog struct {
	dlg  *qt.QDialog
	tabs *qt.QTabWidget
	cfg  settings.AppConfig
	// Cameras tab
	camPage         *qt.QWidget
	list            *qt.QListWidget
	btnAdd, btnEdit *qt.QPushButton
	btnRemove       *qt.QPushButton
	// Footer
	btnCancel, btnSave *qt.QPushButton
	// Settings tab
	noWinTitlesCh    *qt.QCheckBox
	alwaysOnTopAllCh *qt.QCheckBox
	activateOnTrayCh *qt.QCheckBox
	showFPSCh        *qt.QCheckBox
	showBitrateCh    *qt.QCheckBox
	showTotalRateCh  *qt.QCheckBox
	noScreensaverCh  *qt.QCheckBox
	// Advanced tab
	mplayerEd     *qt.QLineEdit
	recordingsEd  *qt.QLineEdit
	quitTimeoutSp *qt.QSpinBox
	stopTimeoutSp *qt.QSpinBox
}

// ShowSettingsDialog opens the modal dialog.
func ShowSettingsDialog(parent *qt.QWidget) {
	s := newSettingsDialog(parent)
	_ = s.dlg.Exec()
}

func newSettingsDialog(parent *qt.QWidget) *SettingsDialog {
	d := &SettingsDialog{
		dlg:  qt.NewQDialog(parent),
		tabs: qt.NewQTabWidget(nil),
		cfg:  svc.Store.Snapshot(),
	}
	d.dlg.SetWindowTitle("Settings")

	// ===== Cameras tab =====
	d.camPage = qt.NewQWidget(parent)
	d.list = qt.NewQListWidget(parent)
	d.btnAdd = qt.NewQPushButton5("Add", nil)
	d.btnEdit = qt.NewQPushButton5("Edit", nil)
	d.btnRemove = qt.NewQPushButton5("Remove", nil)

	row := qt.NewQHBoxLayout(nil)
	row.AddWidget(d.btnAdd.QWidget)
	row.AddWidget(d.btnEdit.QWidget)
	row.AddWidget(d.btnRemove.QWidget)
	row.AddStretch()

	camLayout := qt.NewQVBoxLayout(nil)
	camLayout.AddWidget(d.list.QWidget)
	camLayout.AddLayout(row.QLayout)
	d.camPage.SetLayout(camLayout.QLayout)

	// ===== Settings tab =====
	settingsPage := qt.NewQWidget(nil)
	settingsForm := qt.NewQFormLayout(nil)
	check := func(ch **qt.QCheckBox, label string, on bool) {
		*ch = qt.NewQCheckBox4(label, nil)
		(*ch).SetChecked(on)
		settingsForm.AddRow3("", (*ch).QWidget)
	}
	check(&d.noWinTitlesCh, "Camera windows without titles", d.cfg.NoWindowsTitles)
	check(&d.alwaysOnTopAllCh, "All camera windows always on top", d.cfg.AlwaysOnTopAll)
	check(&d.activateOnTrayCh, "Activate camera windows on tray click", d.cfg.ActiveOnTray)
	check(&d.showFPSCh, "Show frame rate on camera windows", d.cfg.ShowFPS)
	check(&d.showBitrateCh, "Show bitrate on camera windows", d.cfg.ShowBitrate)
	check(&d.showTotalRateCh, "Show total download rate in the tray", d.cfg.ShowTotalRate)
	check(&d.noScreensaverCh, "Disable screensaver while a recording plays fullscreen", d.cfg.DisableScreensaverOnFullscreen)
	settingsPage.SetLayout(settingsForm.QLayout)

	// ===== Advanced tab =====
	advancedPage := qt.NewQWidget(nil)
	advancedForm := qt.NewQFormLayout(nil)

	d.mplayerEd = qt.NewQLineEdit(nil)
	d.mplayerEd.SetText(d.cfg.MplayerPath)
	d.mplayerEd.SetPlaceholderText(settings.DefaultMplayerPath)
	advancedForm.AddRow4("MPlayer binary:", browseRow(d.mplayerEd, func() string {
		return qt.QFileDialog_GetOpenFileName3(d.dlg.QWidget, "MPlayer binary", d.mplayerEd.Text())
	}).QLayout)

	d.recordingsEd = qt.NewQLineEdit(nil)
	d.recordingsEd.SetText(d.cfg.RecordingsDir)
	d.recordingsEd.SetPlaceholderText(recordingsDir(&settings.AppConfig{}))
	advancedForm.AddRow4("Recordings folder:", browseRow(d.recordingsEd, func() string {
		return qt.QFileDialog_GetExistingDirectory3(d.dlg.QWidget, "Recordings folder", d.recordingsEd.Text())
	}).QLayout)

	d.quitTimeoutSp = msSpin(d.cfg.QuitTimeout().Milliseconds())
	advancedForm.AddRow3("Player quit timeout:", d.quitTimeoutSp.QWidget)
	d.stopTimeoutSp = msSpin(d.cfg.StopTimeout().Milliseconds())
	advancedForm.AddRow3("Stream stop timeout:", d.stopTimeoutSp.QWidget)
	advancedPage.SetLayout(advancedForm.QLayout)

	_ = d.tabs.AddTab(d.camPage, "Cameras")
	_ = d.tabs.AddTab(settingsPage, "Settings")
	_ = d.tabs.AddTab(advancedPage, "Advanced")

	// ===== Footer (Save / Cancel) =====
	d.btnSave = qt.NewQPushButton5("Save", nil)
	d.btnCancel = qt.NewQPushButton5("Cancel", nil)
	bottom := qt.NewQHBoxLayout(nil)
	bottom.AddStretch()
	bottom.AddWidget(d.btnSave.QWidget)
	bottom.AddWidget(d.btnCancel.QWidget)

	mainV := qt.NewQVBoxLayout(nil)
	mainV.AddWidget(d.tabs.QWidget)
	mainV.AddLayout(bottom.QLayout)
	d.dlg.SetLayout(mainV.QLayout)

	d.refreshList()

	d.btnAdd.OnClicked(func() { d.onAdd() })
	d.btnEdit.OnClicked(func() { d.onEdit() })
	d.btnRemove.OnClicked(func() { d.onRemove() })
	d.btnSave.OnClicked(func() { d.onSave() })
	d.btnCancel.OnClicked(func() { d.dlg.Reject() })

	updateButtons := func() {
		has := d.list.CurrentRow() >= 0
		d.btnEdit.SetEnabled(has)
		d.btnRemove.SetEnabled(has)
	}
	d.list.OnCurrentRowChanged(func(int) { updateButtons() })
	updateButtons()

	d.list.OnItemDoubleClicked(func(*qt.QListWidgetItem) { d.onEdit() })

	d.dlg.Resize(560, 420)
	d.dlg.Show()
	d.dlg.Raise()
	d.dlg.ActivateWindow()
	d.dlg.SetFocus()
	return d
}

// browseRow puts a "…" button next to ed that fills it from pick.
func browseRow(ed *qt.QLineEdit, pick func() string) *qt.QHBoxLayout {
	row := qt.NewQHBoxLayout(nil)
	btn := qt.NewQPushButton5("…", nil)
	btn.SetMaximumWidth(32)
	btn.OnClicked(func() {
		if v := pick(); v != "" {
			ed.SetText(v)
		}
	})
	row.AddWidget(ed.QWidget)
	row.AddWidget(btn.QWidget)
	return row
}

func msSpin(v int64) *qt.QSpinBox {
	sp := qt.NewQSpinBox(nil)
	sp.SetRange(100, 60000)
	sp.SetSingleStep(100)
	sp.SetSuffix(" ms")
	sp.SetValue(int(v))
	return sp
}

func (d *SettingsDialog) refreshList() {
	d.list.Clear()
	for _, c := range d.cfg.Cameras {
		title := c.Title()
		if c.Disabled {
			title += " (disabled)"
		}
		item := qt.NewQListWidgetItem7(title, d.list)
		_ = item // keep reference alive per miqt semantics
	}
}

// --- Button handlers ---

func (d *SettingsDialog) onAdd() {
	c := settings.CameraConfig{ID: settings.GenID(), RTSPTCP: true, Width: 640, Height: 480}
	if !editCameraDialog(d.dlg.QWidget, &c) {
		return
	}
	d.cfg.Cameras = append(d.cfg.Cameras, c)
	d.refreshList()
	d.list.SetCurrentRow(len(d.cfg.Cameras) - 1)
}

func (d *SettingsDialog) onEdit() {
	row := d.list.CurrentRow()
	if row < 0 || row >= len(d.cfg.Cameras) {
		return
	}
	edited := d.cfg.Cameras[row]
	if !editCameraDialog(d.dlg.QWidget, &edited) {
		return
	}
	d.cfg.Cameras[row] = edited
	d.refreshList()
	d.list.SetCurrentRow(row)
}

func (d *SettingsDialog) onRemove() {
	row := d.list.CurrentRow()
	if row < 0 || row >= len(d.cfg.Cameras) {
		return
	}

	mb := qt.NewQMessageBox(d.dlg.QWidget)
	mb.SetWindowTitle("Confirm delete")
	mb.SetIcon(qt.QMessageBox__Question)
	mb.SetText(fmt.Sprintf("Delete camera:\n\n%s\n\nAre you sure?", d.cfg.Cameras[row].Title()))
	mb.SetStandardButtons(qt.QMessageBox__Yes | qt.QMessageBox__No)
	if mb.Exec() != int(qt.QMessageBox__Yes) {
		return
	}

	d.cfg.Cameras = append(d.cfg.Cameras[:row], d.cfg.Cameras[row+1:]...)
	d.refreshList()
	if row >= len(d.cfg.Cameras) {
		row = len(d.cfg.Cameras) - 1
	}
	d.list.SetCurrentRow(row)
}

func (d *SettingsDialog) onSave() {
	d.cfg.NoWindowsTitles = d.noWinTitlesCh.IsChecked()
	d.cfg.AlwaysOnTopAll = d.alwaysOnTopAllCh.IsChecked()
	d.cfg.ActiveOnTray = d.activateOnTrayCh.IsChecked()
	d.cfg.ShowFPS = d.showFPSCh.IsChecked()
	d.cfg.ShowBitrate = d.showBitrateCh.IsChecked()
	d.cfg.ShowTotalRate = d.showTotalRateCh.IsChecked()
	d.cfg.DisableScreensaverOnFullscreen = d.noScreensaverCh.IsChecked()
	d.cfg.MplayerPath = SanitizeString(d.mplayerEd.Text())
	d.cfg.RecordingsDir = d.recordingsEd.Text()
	d.cfg.QuitTimeoutMS = d.quitTimeoutSp.Value()
	d.cfg.StopTimeoutMS = d.stopTimeoutSp.Value()

	err := svc.Store.Update(func(live *settings.AppConfig) {
		settings.MergeGeometry(d.cfg.Cameras, live.Cameras)
		*live = d.cfg
		live.Cameras = append([]settings.CameraConfig(nil), d.cfg.Cameras...)
	})
	if err != nil {
		svc.Log.Error("save settings failed", zap.Error(err))
		errorBox(d.dlg.QWidget, "Error", fmt.Sprintf("Failed to save settings:\n\n%v", err))
		return
	}
	svc.Log.Info("settings saved", zap.Int("cameras", len(d.cfg.Cameras)))

	applyConfig(svc.Store.Snapshot())
	d.dlg.Accept()
}

// applyConfig brings open camera windows in line with cfg: removed or
// disabled cameras close, new ones open, changed ones restart.
func applyConfig(cfg settings.AppConfig) {
	byID := make(map[string]*CamWindow, len(wins))
	for _, w := range wins {
		if w != nil {
			byID[w.cfg.ID] = w
		}
	}

	next := make([]*CamWindow, len(cfg.Cameras))
	for i, c := range cfg.Cameras {
		w := byID[c.ID]
		delete(byID, c.ID)
		if c.Disabled {
			if w != nil {
				w.Close()
			}
			continue
		}
		if w == nil {
			next[i] = newCamWindow(c, i)
			continue
		}
		w.idx = i
		restart := settings.NeedsRestart(w.cfg, c)
		if w.cfg.AutoDeinterlace != c.AutoDeinterlace {
			w.SetAutoDeinterlacing(c.AutoDeinterlace)
		}
		if restart {
			w.RestartWith(c, "settings changed")
		} else {
			w.cfg = c
			w.view.Stretch = c.Stretch
		}
		w.ApplySettings(&cfg)
		next[i] = w
	}
	// cameras that were deleted
	for _, w := range byID {
		w.Close()
	}

	wins = next
	if tray != nil {
		tray.rebuild()
		for i, w := range wins {
			if w != nil {
				tray.AttachWindowHooks(i, w)
			}
		}
	}
}

// --- Add/Edit dialog ---

func editCameraDialog(parent *qt.QWidget, c *settings.CameraConfig) bool {
	dlg := qt.NewQDialog(parent)
	dlg.SetWindowTitle("Camera")

	form := qt.NewQFormLayout(nil)

	edName := qt.NewQLineEdit(nil)
	edURL := qt.NewQLineEdit(nil)
	chRTSP := qt.NewQCheckBox4("Use RTSP over TCP", nil)
	chTop := qt.NewQCheckBox4("Always on top", nil)
	chMute := qt.NewQCheckBox4("Mute audio", nil)
	chStretch := qt.NewQCheckBox4("Stretch video to window", nil)
	chDeint := qt.NewQCheckBox4("Deinterlace when the source is interlaced", nil)
	chDisabled := qt.NewQCheckBox4("Disabled", nil)
	spProbe := qt.NewQSpinBox(nil)
	spProbe.SetRange(0, math.MaxInt32/1024)
	spProbe.SetSuffix(" KiB")
	spProbe.SetSpecialValueText("default")
	spThreads := qt.NewQSpinBox(nil)
	spThreads.SetRange(0, 64)
	spThreads.SetSpecialValueText("auto")
	cbHw := qt.NewQComboBox(nil)
	// Populate combo
	cbHw.AddItem("none")
	cbHw.AddItem("videotoolbox")
	cbHw.AddItem("vaapi")
	cbHw.AddItem("nvdec")
	edFF := qt.NewQLineEdit(nil)

	hwaccel := c.HwAccel
	if hwaccel == "" {
		hwaccel = "none"
	}

	// initial values
	edName.SetText(c.Name)
	edURL.SetText(c.URL)
	chRTSP.SetChecked(c.RTSPTCP)
	chTop.SetChecked(c.AlwaysOnTop)
	chMute.SetChecked(c.Mute)
	chStretch.SetChecked(c.Stretch)
	chDeint.SetChecked(c.AutoDeinterlace)
	chDisabled.SetChecked(c.Disabled)
	spProbe.SetValue(int(c.Probesize / 1024))
	spThreads.SetValue(c.Threads)
	idx := cbHw.FindText2(hwaccel, qt.MatchFixedString)
	if idx >= 0 {
		cbHw.SetCurrentIndex(idx)
	}
	edFF.SetText(c.FFmpegParams) // may be empty

	form.AddRow3("Name:", edName.QWidget)
	form.AddRow3("URL:", edURL.QWidget)
	form.AddRow3("", chRTSP.QWidget)
	form.AddRow3("", chTop.QWidget)
	form.AddRow3("", chMute.QWidget)
	form.AddRow3("", chStretch.QWidget)
	form.AddRow3("", chDeint.QWidget)
	form.AddRow3("", chDisabled.QWidget)
	form.AddRow3("Probe size:", spProbe.QWidget)
	form.AddRow3("Decoder threads:", spThreads.QWidget)
	form.AddRow3("HW acceleration:", cbHw.QWidget)
	form.AddRow3("FFmpeg params:", edFF.QWidget)

	// Make text inputs + combo expand
	setExpand := func(w *qt.QWidget) {
		w.SetSizePolicy2(qt.QSizePolicy__Expanding, qt.QSizePolicy__Fixed)
		// a small min width helps initial layout look less cramped
		w.SetMinimumWidth(420)
	}
	setExpand(edName.QWidget)
	setExpand(edURL.QWidget)
	setExpand(edFF.QWidget)
	setExpand(cbHw.QWidget)

	btnOk := qt.NewQPushButton5("OK", nil)
	btnCancel := qt.NewQPushButton5("Cancel", nil)

	// Footer row (right aligned)
	btns := qt.NewQHBoxLayout(nil)
	btns.AddStretch()
	btns.AddWidget(btnOk.QWidget)
	btns.AddWidget(btnCancel.QWidget)

	// Main vertical layout
	v := qt.NewQVBoxLayout(nil)
	v.AddLayout(form.QLayout)
	v.AddLayout(btns.QLayout)
	dlg.SetLayout(v.QLayout)

	// URL required
	valid := func() bool {
		return SanitizeString(edURL.Text()) != ""
	}
	btnOk.SetEnabled(valid())
	edURL.OnTextChanged(func(string) { btnOk.SetEnabled(valid()) })

	btnOk.OnClicked(func() {
		c.Name = edName.Text()
		c.URL = SanitizeString(edURL.Text())
		c.RTSPTCP = chRTSP.IsChecked()
		c.AlwaysOnTop = chTop.IsChecked()
		c.Mute = chMute.IsChecked()
		c.Stretch = chStretch.IsChecked()
		c.AutoDeinterlace = chDeint.IsChecked()
		c.Disabled = chDisabled.IsChecked()
		c.Probesize = int64(spProbe.Value()) * 1024
		c.Threads = spThreads.Value()
		c.HwAccel = cbHw.CurrentText()
		c.FFmpegParams = edFF.Text()
		dlg.Accept()
	})
	btnCancel.OnClicked(func() { dlg.Reject() })

	dlg.Resize(560, 0)
	return dlg.Exec() == int(qt.QDialog__Accepted)
}
