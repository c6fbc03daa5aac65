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
	"github.com/mappu/miqt/qt"
	"go.uber.org/zap"

	"github.com/e1z0/qsurveil/src/settings"
)

// formationsMenu lists saved window arrangements. Each entry opens a
// submenu with apply, overwrite and delete.
func (t *TrayController) formationsMenu(cfg *settings.AppConfig) *qt.QMenu {
	m := qt.NewQMenu3("Formations")

	m.AddAction("Save current as…").OnTriggered(func() {
		name, ok := promptText("Save Formation", "Name this formation:")
		if !ok || name == "" {
			return
		}
		t.saveFormation(name)
	})
	m.AddSeparator()

	if len(cfg.Formations) == 0 {
		none := m.AddAction("(No formations yet)")
		none.SetEnabled(false)
		return m
	}

	for _, f := range cfg.Formations {
		f := f
		sub := qt.NewQMenu3(f.Name)
		act := sub.MenuAction()
		act.SetCheckable(true)
		act.SetChecked(cfg.LastFormation == f.Name)

		sub.AddAction("Apply").OnTriggered(func() { t.applyFormation(f) })
		sub.AddAction("Save (overwrite)").OnTriggered(func() { t.saveFormation(f.Name) })
		sub.AddAction("Delete").OnTriggered(func() {
			if err := svc.Store.DeleteFormation(f.Name); err != nil {
				svc.Log.Warn("delete formation", zap.String("name", f.Name), zap.Error(err))
			}
			t.rebuild()
		})
		addAct(m, act)
	}
	return m
}

// saveFormation records the geometry of every open camera window.
func (t *TrayController) saveFormation(name string) {
	var items []settings.FormationItem
	for _, w := range *t.wins {
		if w == nil || w.win == nil || w.closing {
			continue
		}
		g := w.win.Geometry()
		items = append(items, settings.FormationItem{
			CameraID: w.idKey,
			X:        g.X(), Y: g.Y(), Width: g.Width(), Height: g.Height(),
		})
	}
	if err := svc.Store.SaveFormation(name, items); err != nil {
		svc.Log.Warn("save formation", zap.String("name", name), zap.Error(err))
		return
	}
	svc.Log.Info("formation saved", zap.String("name", name), zap.Int("windows", len(items)))
	t.rebuild()
}

// applyFormation opens the cameras f names, closes the rest and moves the
// windows into place.
func (t *TrayController) applyFormation(f settings.Formation) {
	cfg, err := svc.Store.ApplyFormation(f)
	if err != nil {
		svc.Log.Warn("apply formation", zap.String("name", f.Name), zap.Error(err))
		return
	}
	svc.Log.Info("applying formation", zap.String("name", f.Name))
	applyConfig(cfg)

	for _, it := range f.Items {
		for _, w := range *t.wins {
			if w == nil || w.idKey != it.CameraID {
				continue
			}
			w.placeAt(it.X, it.Y, it.Width, it.Height)
		}
	}
}
