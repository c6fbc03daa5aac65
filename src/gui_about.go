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
	"html"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/mappu/miqt/qt"
)

type AboutInfo struct {
	AppName     string
	Version     string
	Build       string
	Details     []aboutRow // runtime facts listed under the platform line
	HomepageURL string
	SupportURL  string
	LicenseText string
	CreditsHTML string
	Icon        *qt.QIcon
}

// ShowAboutDialog creates and runs a modal About dialog
func ShowAboutDialog(parent *qt.QWidget, info AboutInfo) {
	d := qt.NewQDialog(parent)
	d.SetWindowTitle(fmt.Sprintf("About %s", nz(info.AppName, "Application")))
	d.SetModal(true)
	d.SetAttribute2(qt.WA_DeleteOnClose, true)

	// Root layout
	root := qt.NewQVBoxLayout(nil)
	root.SetContentsMargins(18, 18, 18, 18)
	root.SetSpacing(12)
	d.SetLayout(root.QLayout)

	// Header: icon + title/version
	header := qt.NewQHBoxLayout(nil)
	header.SetSpacing(12)

	iconLbl := qt.NewQLabel(nil)
	iconLbl.SetFixedSize2(64, 64)
	// resolve icon
	icon := info.Icon
	if icon == nil {
		icon = qt.QApplication_WindowIcon()
	}
	if icon != nil {
		pm := icon.Pixmap2(64, 64)
		iconLbl.SetPixmap(pm)
	}
	header.AddWidget(iconLbl.QWidget)

	titleBox := qt.NewQVBoxLayout(nil)
	// header
	appTitle := qt.NewQLabel(nil)
	appTitle.SetTextFormat(qt.RichText)
	appTitle.SetText(fmt.Sprintf("<b style='font-size:18px'>%s</b>", nz(info.AppName, "Application")))
	appTitle.SetTextInteractionFlags(qt.TextSelectableByMouse)
	titleBox.AddWidget(appTitle.QWidget)
	version := qt.NewQLabel(nil)
	version.SetText("Version " + nz(info.Version, "0.0.0"))
	version.SetTextInteractionFlags(qt.TextSelectableByMouse)
	titleBox.AddWidget(version.QWidget)

	header.AddLayout(titleBox.QLayout)
	header.AddStretch()
	root.AddLayout(header.QLayout)

	// Links row
	if info.HomepageURL != "" || info.SupportURL != "" {
		linkLbl := qt.NewQLabel(nil)
		linkLbl.SetTextFormat(qt.RichText)
		linkLbl.SetOpenExternalLinks(true)
		linkLbl.SetText(linkRowHTML(info.HomepageURL, info.SupportURL))
		root.AddWidget(linkLbl.QWidget)
	}

	// About text (QTextBrowser)
	sysInfo := qt.NewQTextBrowser(nil)
	sysInfo.SetOpenExternalLinks(true)
	sysInfo.SetReadOnly(true)
	sysInfo.SetMinimumHeight(200)
	sysInfo.SetHtml(aboutHTML(info))
	root.AddWidget(sysInfo.QWidget)

	// Buttons
	btnRow := qt.NewQHBoxLayout(nil)
	btnRow.AddStretch()

	btnCopy := qt.NewQPushButton5("Copy build info", nil)
	btnRow.AddWidget(btnCopy.QWidget)

	btnHomepage := qt.NewQPushButton5("Open homepage", nil)
	btnHomepage.SetEnabled(info.HomepageURL != "")
	btnRow.AddWidget(btnHomepage.QWidget)

	btnCredits := qt.NewQPushButton5("Credits…", nil)
	btnCredits.SetEnabled(info.CreditsHTML != "")
	btnRow.AddWidget(btnCredits.QWidget)

	btnLicense := qt.NewQPushButton5("License…", nil)
	btnLicense.SetEnabled(info.LicenseText != "")
	btnRow.AddWidget(btnLicense.QWidget)

	btnOk := qt.NewQPushButton5("OK", nil)
	btnOk.SetDefault(true)
	btnRow.AddWidget(btnOk.QWidget)

	root.AddLayout(btnRow.QLayout)

	// Signals
	btnCredits.OnClicked(func() { showCreditsDialog(d.QWidget, info) })

	btnOk.OnClicked(func() {
		d.Accept()
	})
	btnCopy.OnClicked(func() {
		clip := qt.QGuiApplication_Clipboard()
		if clip != nil {
			clip.SetText2(buildInfoText(info), qt.QClipboard__Clipboard)
		}
	})
	btnHomepage.OnClicked(func() {
		if info.HomepageURL != "" {
			qt.QDesktopServices_OpenUrl(qt.NewQUrl4(info.HomepageURL, qt.QUrl__TolerantMode))
		}
	})
	btnLicense.OnClicked(func() { showLicenseDialog(d.QWidget, info) })

	// Sizing & placement
	d.Resize(560, 420)
	d.Exec()
}

func showCreditsDialog(parent *qt.QWidget, info AboutInfo) {
	cd := qt.NewQDialog(parent)
	cd.SetWindowTitle("Credits")
	cd.SetModal(true)

	v := qt.NewQVBoxLayout(nil)
	tb := qt.NewQTextBrowser(nil)
	tb.SetOpenExternalLinks(true)
	tb.SetReadOnly(true)
	if info.CreditsHTML != "" {
		tb.SetHtml(info.CreditsHTML)
	} else {
		tb.SetHtml("<p><i>No credits provided.</i></p>")
	}
	v.AddWidget(tb.QWidget)

	row := qt.NewQHBoxLayout(nil)
	row.AddStretch()
	btnClose := qt.NewQPushButton5("Close", nil)
	row.AddWidget(btnClose.QWidget)
	v.AddLayout(row.QLayout)

	cd.SetLayout(v.QLayout)
	btnClose.OnClicked(func() { cd.Accept() })
	cd.Resize(620, 480)
	cd.Exec()
}

func showLicenseDialog(parent *qt.QWidget, info AboutInfo) {
	ld := qt.NewQDialog(parent)
	ld.SetWindowTitle("License")
	ld.SetModal(true)

	v := qt.NewQVBoxLayout(nil)
	ed := qt.NewQPlainTextEdit(nil)
	ed.SetReadOnly(true)
	ed.SetPlainText(nz(info.LicenseText, "No license text provided."))
	v.AddWidget(ed.QWidget)

	row := qt.NewQHBoxLayout(nil)
	row.AddStretch()
	btnClose := qt.NewQPushButton5("Close", nil)
	row.AddWidget(btnClose.QWidget)
	v.AddLayout(row.QLayout)

	ld.SetLayout(v.QLayout)
	btnClose.OnClicked(func() { ld.Accept() })
	ld.Resize(620, 480)
	ld.Exec()
}

// --- helpers ---

func linkRowHTML(home, support string) string {
	out := "<div style='margin-top:2px'>"
	first := true
	if home != "" {
		out += fmt.Sprintf(`<a href="%s">Homepage</a>`, home)
		first = false
	}
	if support != "" {
		if !first {
			out += " &nbsp;•&nbsp; "
		}
		out += fmt.Sprintf(`<a href="%s">Support</a>`, support)
	}
	out += "</div>"
	return out
}

type aboutRow struct{ label, value string }

// aboutInfo collects what the About dialog shows for this installation.
func aboutInfo() AboutInfo {
	cfg := svc.Store.Snapshot()
	audio := "available"
	if svc.Audio == nil {
		audio = "unavailable"
	}
	mpl := cfg.Mplayer()
	if p, err := exec.LookPath(mpl); err == nil {
		mpl = p
	} else {
		mpl += " (not found)"
	}
	return AboutInfo{
		AppName: app,
		Version: version,
		Build:   build,
		Details: []aboutRow{
			{"Cameras", fmt.Sprintf("%d configured, %d streaming", len(cfg.Cameras), svc.Streams.Len())},
			{"Player", mpl},
			{"Recordings", recordingsDir(&cfg)},
			{"Config", svc.Store.Path()},
			{"Audio output", audio},
		},
		HomepageURL: "https://github.com/e1z0/qsurveil",
		SupportURL:  "https://github.com/e1z0/qsurveil/issues",
		LicenseText: LicenseText,
		CreditsHTML: `<p>Built with <b>Go</b>, <b>Qt</b>, <b>MIQT</b>, <b>FFmpeg</b>, <b>gortsplib</b>, <b>oto</b> and <b>MPlayer</b>.</p>`,
		Icon:        globalIcon,
	}
}

func aboutHTML(info AboutInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, `
<style>
 ul{margin:0 0 0 1.1em; padding:0}
 li{margin:0.2em 0}
</style>
<p><b>%s</b>: RTSP camera viewer, recorder and recording player.</p>
<ul>
  <li><b>Version:</b> %s</li>
  <li><b>Build:</b> %s</li>
  <li><b>Go runtime:</b> %s</li>
  <li><b>Platform:</b> %s/%s</li>
`, html.EscapeString(nz(info.AppName, "Application")),
		html.EscapeString(nz(info.Version, "0.0.0")),
		html.EscapeString(nz(info.Build, defaultBuildString())),
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
	for _, r := range info.Details {
		fmt.Fprintf(&b, "  <li><b>%s:</b> %s</li>\n", html.EscapeString(r.label), html.EscapeString(r.value))
	}
	fmt.Fprintf(&b, "</ul>\n<p>© %d Justinas K (e1z0@icloud.com)</p>\n", time.Now().Year())
	return b.String()
}

// buildInfoText is the plain text put on the clipboard.
func buildInfoText(info AboutInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nVersion: %s\n%s\nGo: %s %s/%s\n",
		nz(info.AppName, "Application"),
		nz(info.Version, "0.0.0"),
		nz(info.Build, defaultBuildString()),
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
	for _, r := range info.Details {
		fmt.Fprintf(&b, "%s: %s\n", r.label, r.value)
	}
	return b.String()
}

func defaultBuildString() string { return "Build: unknown" }

func nz(s, alt string) string {
	if s == "" {
		return alt
	}
	return s
}

// LicenseText is the full license string used in the About dialog.
const LicenseText = `
QSurveil is free software, licensed under the GNU GPL‑3.0‑or‑later.

© 2025 e1z0 <e1z0@icloud.com>

This program is free software: you can redistribute it and/or modify it under
the terms of the GNU General Public License as published by the Free Software
Foundation, either version 3 of the License, or (at your option) any later
version.

This program is distributed in the hope that it will be useful, but WITHOUT ANY
WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A
PARTICULAR PURPOSE. See the GNU General Public License for more details.

You should have received a copy of the GNU General Public License along with
this program. If not, see https://www.gnu.org/licenses/.

Third‑party components used by this application include Qt, MIQT, FFmpeg,
gortsplib, oto and MPlayer. Their
licenses and source offers are provided in the bundled NOTICE.md.
`
