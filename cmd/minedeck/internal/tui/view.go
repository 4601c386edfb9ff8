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

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/minedeck/pkg/ux"
)

// chromeHeight is the rows eaten by header, filter line, and footer.
const chromeHeight = 5

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(ux.ColorSediment)
	activeTabStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(ux.ColorGoldBright)
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(ux.ColorGoldBright)
	footerStyle    = lipgloss.NewStyle().Foreground(ux.ColorSediment)
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "loading...\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderFilterLine())
	b.WriteString("\n")

	switch {
	case m.showHelp:
		b.WriteString(m.renderHelp())
	case m.showDossier:
		b.WriteString(m.renderDossier())
	case m.loading:
		b.WriteString(fmt.Sprintf("\n  %s fetching licenses...\n", m.spin.View()))
	case m.loadErr != nil && len(m.records) == 0:
		b.WriteString("\n")
		b.WriteString(ux.Styles.Error.Render("  cannot reach the backend, working offline"))
		b.WriteString("\n")
		b.WriteString(ux.Styles.Muted.Render("  press r to retry"))
		b.WriteString("\n")
	default:
		switch m.tab {
		case TabMap:
			b.WriteString(m.renderMap())
		case TabList:
			b.WriteString(m.renderList())
		default:
			b.WriteString(m.renderKanban())
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) renderHeader() string {
	var tabs []string
	for _, t := range []Tab{TabMap, TabList, TabKanban} {
		label := fmt.Sprintf("%d %s", int(t)+1, t)
		if t == m.tab {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	title := ux.Styles.Title.Render("MineDeck")
	count := ux.Styles.Muted.Render(fmt.Sprintf("%d/%d", len(m.rows), len(m.records)))
	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", strings.Join(tabs, ""), "  ", count)
}

func (m *Model) renderFilterLine() string {
	if m.searching {
		return "  search: " + m.search.View()
	}

	var parts []string
	parts = append(parts, "sort:"+string(m.criteria.Sort))
	if m.criteria.Search != "" {
		parts = append(parts, fmt.Sprintf("search:%q", m.criteria.Search))
	}
	if len(m.criteria.Countries) > 0 {
		parts = append(parts, "country:"+strings.Join(m.criteria.Countries, ","))
	}
	if len(m.criteria.Commodities) > 0 {
		parts = append(parts, "commodity:"+strings.Join(m.criteria.Commodities, ","))
	}
	if len(m.criteria.LicenseTypes) > 0 {
		parts = append(parts, "type:"+strings.Join(m.criteria.LicenseTypes, ","))
	}
	if len(m.criteria.Statuses) > 0 {
		parts = append(parts, "status:"+strings.Join(m.criteria.Statuses, ","))
	}
	line := "  " + strings.Join(parts, "  ")
	if m.criteria.IsFiltered() {
		return ux.Styles.Subtitle.Render(line)
	}
	return ux.Styles.Muted.Render(line)
}

func (m *Model) renderFooter() string {
	if m.status != "" {
		return "  " + ux.Styles.Warning.Render(m.status)
	}
	if m.showDossier {
		return footerStyle.Render("  g/m/b/u status · c comment · n note · y qty · p price · 1-4 checks · [/] stage · ! publish · D delete · esc back")
	}
	var hint string
	switch m.tab {
	case TabMap:
		hint = "  hjkl pan · +/- zoom · 0 fit · n/p cluster · enter open"
	case TabList:
		hint = "  j/k move · enter open"
	default:
		hint = "  h/l column · j/k card · [/] move stage · enter open"
	}
	return footerStyle.Render(hint + " · / search · s sort · c/o/t facets · g/m/b/u status · x clear · tab views · ? help · q quit")
}

func (m *Model) renderHelp() string {
	rows := [][2]string{
		{"tab, 1/2/3", "switch between map, list, and kanban"},
		{"/", "search company, type, commodity, comments"},
		{"s", "cycle sort: company, status, commodity, date"},
		{"c / o / t", "cycle country / commodity / type filter"},
		{"g m b u", "toggle good / maybe / bad / unmarked filter"},
		{"x", "clear all filters"},
		{"enter", "open the dossier for the selected license"},
		{"r", "refetch licenses from the backend"},
		{"", ""},
		{"in the dossier", ""},
		{"g m b u", "mark good / maybe / bad / clear"},
		{"c n", "edit comment / add note"},
		{"y p", "set quantity / price per ton"},
		{"O T C P", "override commodity / type / contact / phone"},
		{"1 2 3 4", "toggle verification checks"},
		{"[ ]", "move the deal stage"},
		{"!", "publish to the marketplace"},
		{"D", "delete the license from the backend"},
	}
	var b strings.Builder
	b.WriteString(ux.Styles.Title.Render("  Keys"))
	b.WriteString("\n\n")
	for _, row := range rows {
		if row[0] == "" && row[1] == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString(fmt.Sprintf("  %s %s\n",
			ux.Styles.Highlight.Render(fmt.Sprintf("%-12s", row[0])), row[1]))
	}
	return b.String()
}
