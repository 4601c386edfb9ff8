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
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AleutianAI/minedeck/pkg/license"
	"github.com/AleutianAI/minedeck/pkg/ux"
)

// visibleRows caps the logical page size at the derived row count.
func (m *Model) visibleRows() int {
	return min(m.visible, len(m.rows))
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		m.moveListCursorDown(1)
	case "pgdown", "ctrl+d":
		m.moveListCursorDown(m.cfg.PageSize / 2)
	case "pgup", "ctrl+u":
		m.cursor -= m.cfg.PageSize / 2
		if m.cursor < 0 {
			m.cursor = 0
		}
	case "home":
		m.cursor = 0
	case "end":
		m.visible = len(m.rows)
		m.cursor = len(m.rows) - 1
		if m.cursor < 0 {
			m.cursor = 0
		}
	}
	return m, nil
}

// moveListCursorDown advances the cursor, revealing the next page when
// it hits the bottom of the loaded window.
func (m *Model) moveListCursorDown(n int) {
	m.cursor += n
	if m.cursor >= m.visibleRows() && m.visible < len(m.rows) {
		m.visible += m.cfg.PageSize
	}
	if m.cursor >= m.visibleRows() {
		m.cursor = m.visibleRows() - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// listRow formats one derived row. The VALUE column shows quantity times
// price once both deal terms are recorded, and stays blank until then.
func listRow(r license.Record, a license.Annotation) string {
	value := ""
	if total, ok := a.TotalValue(); ok {
		value = fmt.Sprintf("%.2f", total)
	}
	return fmt.Sprintf("%s %-28s %-12s %-14s %-18s %-10s %12s  %s",
		ux.StatusDot(a.Status),
		ux.Truncate(r.Company, 28),
		ux.Truncate(license.EffectiveCommodity(r, a), 12),
		ux.Truncate(license.EffectiveCountry(r), 14),
		ux.Truncate(license.EffectiveLicenseType(r, a), 18),
		ux.Truncate(r.Date, 10),
		ux.Truncate(value, 12),
		a.EffectiveStage())
}

func (m *Model) renderList() string {
	if len(m.rows) == 0 {
		return ux.Styles.Muted.Render("no licenses match the active filters")
	}

	var b strings.Builder
	header := fmt.Sprintf("  %-28s %-12s %-14s %-18s %-10s %12s  %s",
		"COMPANY", "COMMODITY", "COUNTRY", "TYPE", "DATE", "VALUE", "STAGE")
	b.WriteString(ux.Styles.Muted.Render(header))
	b.WriteString("\n")

	// Keep the cursor row on screen within the body height.
	bodyHeight := m.height - chromeHeight - 2
	if bodyHeight < 5 {
		bodyHeight = 5
	}
	start := 0
	if m.cursor >= bodyHeight {
		start = m.cursor - bodyHeight + 1
	}

	shown := m.visibleRows()
	for i := start; i < shown && i-start < bodyHeight; i++ {
		r := m.rows[i]
		line := listRow(r, m.ann[r.ID])
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if shown < len(m.rows) {
		b.WriteString(ux.Styles.Muted.Render(
			fmt.Sprintf("  … %d more, keep scrolling to load", len(m.rows)-shown)))
		b.WriteString("\n")
	}
	return b.String()
}
