// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/AleutianAI/minedeck/pkg/license"
	"github.com/AleutianAI/minedeck/pkg/ux"
)

// dossierID is the record the open dossier belongs to. The dossier
// tracks an ID, not an index, so filter changes underneath it are safe.
func (m *Model) openDossier(id string) {
	m.dossierID = id
	m.showDossier = true
}

func (m *Model) dossierRecord() (license.Record, bool) {
	for _, r := range m.records {
		if r.ID == m.dossierID {
			return r, true
		}
	}
	return license.Record{}, false
}

func (m *Model) handleDossierKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	r, ok := m.dossierRecord()
	if !ok {
		m.showDossier = false
		return m, nil
	}
	a := m.store.Get(r.ID)

	switch msg.String() {
	case "esc", "q":
		m.showDossier = false
		return m, nil

	case "g":
		m.applyPatch(r.ID, license.StatusPatch(license.StatusGood))
	case "m":
		m.applyPatch(r.ID, license.StatusPatch(license.StatusMaybe))
	case "b":
		m.applyPatch(r.ID, license.StatusPatch(license.StatusBad))
	case "u":
		m.applyPatch(r.ID, license.StatusPatch(""))

	case "c":
		return m, m.startEdit(editComment, a.Comment, "working comment")
	case "n":
		return m, m.startEdit(editNote, "", "note text")
	case "y":
		return m, m.startEdit(editQuantity, floatValue(a.Quantity), "quantity in tons")
	case "p":
		return m, m.startEdit(editPrice, floatValue(a.Price), "price per ton")
	case "O":
		return m, m.startEdit(editCommodity, a.Commodity, "commodity override")
	case "T":
		return m, m.startEdit(editLicenseType, a.LicenseType, "license type override")
	case "C":
		return m, m.startEdit(editContact, a.ContactPerson, "contact person override")
	case "P":
		return m, m.startEdit(editPhone, a.PhoneNumber, "phone number override")

	case "1":
		m.toggleCheck(r.ID, func(v *license.Verification) { v.GovMatch = !v.GovMatch })
	case "2":
		m.toggleCheck(r.ID, func(v *license.Verification) { v.TaxClearance = !v.TaxClearance })
	case "3":
		m.toggleCheck(r.ID, func(v *license.Verification) { v.SiteVisit = !v.SiteVisit })
	case "4":
		m.toggleCheck(r.ID, func(v *license.Verification) { v.VideoCall = !v.VideoCall })

	case "[":
		m.shiftStage(r.ID, -1)
	case "]":
		m.shiftStage(r.ID, 1)

	case "!":
		m.applyPatch(r.ID, license.Patch{Publish: true})
		m.status = "publishing " + r.ID

	case "D":
		m.confirmDelete = true
		m.confirmDeleteID = r.ID
	}
	return m, nil
}

func (m *Model) startEdit(field editField, current, placeholder string) tea.Cmd {
	m.editing = field
	m.input.Placeholder = placeholder
	m.input.SetValue(current)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = editNone
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.commitEdit()
		m.editing = editNone
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// commitEdit turns the editor's value into a patch for the open dossier.
func (m *Model) commitEdit() {
	id := m.dossierID
	value := strings.TrimSpace(m.input.Value())

	switch m.editing {
	case editComment:
		m.applyPatch(id, license.CommentPatch(value))
	case editNote:
		if value == "" {
			return
		}
		if _, err := m.store.AddNote(id, license.Note{
			ID:   uuid.NewString(),
			Text: value,
			Date: time.Now(),
		}); err != nil {
			m.status = fmt.Sprintf("note failed: %v", err)
			return
		}
		m.recompute()
	case editQuantity:
		if q, err := parseAmount(value); err == nil {
			m.applyPatch(id, license.QuantityPatch(q))
		} else {
			m.status = fmt.Sprintf("not a number: %q", value)
		}
	case editPrice:
		if p, err := parseAmount(value); err == nil {
			m.applyPatch(id, license.PricePatch(p))
		} else {
			m.status = fmt.Sprintf("not a number: %q", value)
		}
	case editCommodity:
		m.applyPatch(id, license.CommodityPatch(value))
	case editLicenseType:
		m.applyPatch(id, license.LicenseTypePatch(value))
	case editContact:
		m.applyPatch(id, license.Patch{ContactPerson: &value})
	case editPhone:
		m.applyPatch(id, license.Patch{PhoneNumber: &value})
	}
}

func (m *Model) toggleCheck(id string, flip func(*license.Verification)) {
	if _, err := m.store.ToggleVerification(id, flip); err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return
	}
	m.recompute()
}

func (m *Model) shiftStage(id string, delta int) {
	stages := license.Stages()
	current := m.store.Get(id).EffectiveStage()
	for i, s := range stages {
		if s == current {
			next := i + delta
			if next >= 0 && next < len(stages) {
				m.applyPatch(id, license.StagePatch(stages[next]))
			}
			return
		}
	}
}

func floatValue(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseAmount accepts "1 200.5" and "1,200.5" style input.
func parseAmount(s string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(s)
	if cleaned == "" {
		return 0, nil
	}
	return strconv.ParseFloat(cleaned, 64)
}

func (m *Model) renderDossier() string {
	r, ok := m.dossierRecord()
	if !ok {
		return ux.Styles.Muted.Render("record is gone")
	}
	a := m.store.Get(r.ID)

	var b strings.Builder
	b.WriteString(ux.Styles.Title.Render(r.Company))
	b.WriteString("\n\n")

	row := func(key, value string) {
		b.WriteString(fmt.Sprintf("  %s %s\n", ux.Styles.Muted.Render(fmt.Sprintf("%-14s", key)), value))
	}

	row("ID", r.ID)
	row("Country", license.EffectiveCountry(r))
	if r.Region != "" {
		row("Region", r.Region)
	}
	row("Commodity", license.EffectiveCommodity(r, a))
	row("Type", license.EffectiveLicenseType(r, a))
	row("Date", r.Date)
	row("Contact", license.EffectiveContact(r, a))
	row("Phone", license.EffectivePhone(r, a))
	if r.HasCoordinates() {
		row("Position", fmt.Sprintf("%.4f, %.4f", *r.Lat, *r.Lng))
	}

	b.WriteString("\n")
	statusLabel := string(a.Status)
	if statusLabel == "" {
		statusLabel = license.StatusUnmarked
	}
	row("Status", fmt.Sprintf("%s %s", ux.StatusDot(a.Status), statusLabel))
	row("Stage", string(a.EffectiveStage()))
	if a.Comment != "" {
		row("Comment", a.Comment)
	}
	if a.Quantity > 0 {
		row("Quantity", floatValue(a.Quantity)+" t")
	}
	if a.Price > 0 {
		row("Price", floatValue(a.Price)+" /t")
	}
	if total, ok := a.TotalValue(); ok {
		row("Deal value", ux.Styles.Highlight.Render(fmt.Sprintf("%.2f", total)))
	}

	b.WriteString("\n")
	b.WriteString(ux.Styles.Subtitle.Render("  Verification"))
	b.WriteString("\n")
	var v license.Verification
	if a.Verification != nil {
		v = *a.Verification
	}
	check := func(n int, label string, done bool) {
		mark := ux.Styles.Muted.Render("[ ]")
		if done {
			mark = ux.Styles.Success.Render("[x]")
		}
		b.WriteString(fmt.Sprintf("  %s %d %s\n", mark, n, label))
	}
	check(1, "government registry match", v.GovMatch)
	check(2, "tax clearance", v.TaxClearance)
	check(3, "site visit", v.SiteVisit)
	check(4, "video call", v.VideoCall)

	if len(a.ActivityLog) > 0 {
		b.WriteString("\n")
		b.WriteString(ux.Styles.Subtitle.Render("  Notes"))
		b.WriteString("\n")
		shown := a.ActivityLog
		if len(shown) > 6 {
			shown = shown[:6]
		}
		for _, note := range shown {
			b.WriteString(fmt.Sprintf("  %s  %s\n",
				ux.Styles.Muted.Render(note.Date.Format("2006-01-02 15:04")),
				ux.Truncate(note.Text, 70)))
		}
		if len(a.ActivityLog) > 6 {
			b.WriteString(ux.Styles.Muted.Render(fmt.Sprintf("  … %d older notes\n", len(a.ActivityLog)-6)))
		}
	}

	if m.editing != editNone {
		b.WriteString("\n  ")
		b.WriteString(m.input.View())
	} else if m.confirmDelete {
		b.WriteString("\n  ")
		b.WriteString(ux.Styles.Error.Render("delete this license from the backend? (y/N)"))
	}
	return b.String()
}
