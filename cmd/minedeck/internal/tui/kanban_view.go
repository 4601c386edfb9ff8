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
	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/minedeck/pkg/license"
	"github.com/AleutianAI/minedeck/pkg/ux"
)

// Columns groups derived rows into deal-stage columns, preserving the
// derived order inside each column. Every stage gets a column even when
// empty, so the board shape is stable.
func Columns(rows []license.Record, ann map[string]license.Annotation) map[license.Stage][]license.Record {
	cols := make(map[license.Stage][]license.Record, len(license.Stages()))
	for _, stage := range license.Stages() {
		cols[stage] = nil
	}
	for _, r := range rows {
		stage := ann[r.ID].EffectiveStage()
		cols[stage] = append(cols[stage], r)
	}
	return cols
}

// kanbanSelected resolves the board cursor to a record.
func (m *Model) kanbanSelected() (license.Record, bool) {
	cols := Columns(m.rows, m.ann)
	stage := license.Stages()[m.kanbanCol]
	cards := cols[stage]
	if m.cursor >= 0 && m.cursor < len(cards) {
		return cards[m.cursor], true
	}
	return license.Record{}, false
}

func (m *Model) handleKanbanKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	stages := license.Stages()
	cols := Columns(m.rows, m.ann)

	switch msg.String() {
	case "left", "h":
		if m.kanbanCol > 0 {
			m.kanbanCol--
			m.clampKanbanCursor(cols)
		}
	case "right", "l":
		if m.kanbanCol < len(stages)-1 {
			m.kanbanCol++
			m.clampKanbanCursor(cols)
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(cols[stages[m.kanbanCol]])-1 {
			m.cursor++
		}
	case "[":
		if r, ok := m.kanbanSelected(); ok && m.kanbanCol > 0 {
			m.applyPatch(r.ID, license.StagePatch(stages[m.kanbanCol-1]))
			m.kanbanCol--
			m.followCard(r.ID)
		}
	case "]":
		if r, ok := m.kanbanSelected(); ok && m.kanbanCol < len(stages)-1 {
			m.applyPatch(r.ID, license.StagePatch(stages[m.kanbanCol+1]))
			m.kanbanCol++
			m.followCard(r.ID)
		}
	}
	return m, nil
}

func (m *Model) clampKanbanCursor(cols map[license.Stage][]license.Record) {
	cards := cols[license.Stages()[m.kanbanCol]]
	if m.cursor >= len(cards) {
		m.cursor = len(cards) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// followCard keeps the cursor on a card after it moved columns.
func (m *Model) followCard(id string) {
	cols := Columns(m.rows, m.ann)
	cards := cols[license.Stages()[m.kanbanCol]]
	for i, r := range cards {
		if r.ID == id {
			m.cursor = i
			return
		}
	}
	m.clampKanbanCursor(cols)
}

func (m *Model) renderKanban() string {
	stages := license.Stages()
	cols := Columns(m.rows, m.ann)

	colWidth := (m.width - 2) / len(stages)
	if colWidth < 14 {
		colWidth = 14
	}
	cardWidth := colWidth - 3

	bodyHeight := m.height - chromeHeight - 2
	maxCards := bodyHeight / 2
	if maxCards < 3 {
		maxCards = 3
	}

	rendered := make([]string, 0, len(stages))
	for ci, stage := range stages {
		var b strings.Builder

		title := fmt.Sprintf("%s (%d)", stage, len(cols[stage]))
		if ci == m.kanbanCol {
			b.WriteString(ux.Styles.Highlight.Render(title))
		} else {
			b.WriteString(ux.Styles.Subtitle.Render(title))
		}
		b.WriteString("\n")

		for i, r := range cols[stage] {
			if i == maxCards {
				b.WriteString(ux.Styles.Muted.Render(fmt.Sprintf("… %d more", len(cols[stage])-maxCards)))
				b.WriteString("\n")
				break
			}
			a := m.ann[r.ID]
			card := fmt.Sprintf("%s %s", ux.StatusDot(a.Status), ux.Truncate(r.Company, cardWidth-2))
			if total, ok := a.TotalValue(); ok {
				card += "\n" + ux.Styles.Muted.Render(ux.Truncate(fmt.Sprintf("  %.0f", total), cardWidth))
			}
			if ci == m.kanbanCol && i == m.cursor {
				card = selectedStyle.Render(card)
			}
			b.WriteString(card)
			b.WriteString("\n")
		}

		rendered = append(rendered, lipgloss.NewStyle().Width(colWidth).Render(b.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
