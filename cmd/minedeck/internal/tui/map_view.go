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
	"github.com/AleutianAI/minedeck/pkg/mapgrid"
	"github.com/AleutianAI/minedeck/pkg/ux"
)

// mapDimensions returns the drawable cell grid size for the map tab.
func (m *Model) mapDimensions() (int, int) {
	w := m.width - 4
	h := m.height - chromeHeight - 2
	if w < 20 {
		w = 20
	}
	if h < 8 {
		h = 8
	}
	return w, h
}

func (m *Model) handleMapKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	const panStep = 0.15

	switch msg.String() {
	case "left", "h":
		m.bounds = m.bounds.Pan(-panStep, 0)
	case "right", "l":
		m.bounds = m.bounds.Pan(panStep, 0)
	case "up", "k":
		m.bounds = m.bounds.Pan(0, -panStep)
	case "down", "j":
		m.bounds = m.bounds.Pan(0, panStep)
	case "+", "=":
		m.zoomLevel++
		m.bounds = m.bounds.Zoom(1)
	case "-", "_":
		if m.zoomLevel > -6 {
			m.zoomLevel--
			m.bounds = m.bounds.Zoom(-1)
		}
	case "0":
		m.bounds = mapgrid.FitBounds(m.rows)
		m.zoomLevel = 0
	case "n":
		if len(m.grid.Clusters) > 0 {
			m.mapCursor = (m.mapCursor + 1) % len(m.grid.Clusters)
		}
		return m, nil
	case "p":
		if len(m.grid.Clusters) > 0 {
			m.mapCursor = (m.mapCursor + len(m.grid.Clusters) - 1) % len(m.grid.Clusters)
		}
		return m, nil
	default:
		return m, nil
	}
	m.rebuildGrid()
	return m, nil
}

// clusterGlyph picks the cell character for a cluster: a status dot for
// a lone record, the count for small clusters, "+" beyond nine.
func (m *Model) clusterGlyph(c mapgrid.Cluster) string {
	if c.Size() == 1 {
		return ux.StatusDot(m.ann[c.Records[0].ID].Status)
	}
	if c.Size() <= 9 {
		return ux.Styles.Highlight.Render(fmt.Sprintf("%d", c.Size()))
	}
	return ux.Styles.Highlight.Render("+")
}

func (m *Model) renderMap() string {
	w, h := m.mapDimensions()

	cells := make([][]string, h)
	for y := range cells {
		cells[y] = make([]string, w)
		for x := range cells[y] {
			cells[y][x] = " "
		}
	}
	for i, cluster := range m.grid.Clusters {
		if cluster.Y < 0 || cluster.Y >= h || cluster.X < 0 || cluster.X >= w {
			continue
		}
		glyph := m.clusterGlyph(cluster)
		if i == m.mapCursor {
			glyph = selectedStyle.Render("◎")
		}
		cells[cluster.Y][cluster.X] = glyph
	}

	var b strings.Builder
	for _, row := range cells {
		b.WriteString(strings.Join(row, ""))
		b.WriteString("\n")
	}

	b.WriteString(m.mapCaption())
	return b.String()
}

// mapCaption describes the selected cluster below the grid.
func (m *Model) mapCaption() string {
	if len(m.grid.Clusters) == 0 {
		if m.grid.Dropped > 0 {
			return ux.Styles.Muted.Render(fmt.Sprintf("no mappable licenses in view (%d without coordinates)", m.grid.Dropped))
		}
		return ux.Styles.Muted.Render("no licenses in view")
	}
	cluster := m.grid.Clusters[m.mapCursor]
	if cluster.Size() == 1 {
		r := cluster.Records[0]
		a := m.ann[r.ID]
		return fmt.Sprintf("%s %s  %s · %s",
			ux.StatusDot(a.Status),
			ux.Styles.Bold.Render(r.Company),
			license.EffectiveCommodity(r, a),
			license.EffectiveCountry(r))
	}
	names := make([]string, 0, 3)
	for i, r := range cluster.Records {
		if i == 3 {
			names = append(names, fmt.Sprintf("and %d more", cluster.Size()-3))
			break
		}
		names = append(names, r.Company)
	}
	return fmt.Sprintf("%s  %s",
		ux.Styles.Bold.Render(fmt.Sprintf("%d licenses", cluster.Size())),
		ux.Styles.Muted.Render(strings.Join(names, ", ")))
}
