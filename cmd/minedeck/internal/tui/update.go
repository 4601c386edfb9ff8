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
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AleutianAI/minedeck/pkg/derive"
	"github.com/AleutianAI/minedeck/pkg/license"
	"github.com/AleutianAI/minedeck/pkg/mapgrid"
)

const statusLifetime = 4 * time.Second

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rebuildGrid()
		return m, nil

	case licensesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err
			m.logger.Warn("license fetch failed", "error", msg.err)
		} else {
			m.loadErr = nil
			m.records = msg.records
			m.bounds = mapgrid.FitBounds(msg.records)
			m.zoomLevel = 0
		}
		m.recompute()
		return m, nil

	case syncResultMsg:
		cmds := []tea.Cmd{m.waitForSync()}
		if msg.Err != nil {
			m.status = fmt.Sprintf("saved locally, sync failed for %s", msg.RecordID)
		} else if msg.Published {
			m.status = fmt.Sprintf("%s published to the marketplace", msg.RecordID)
		} else {
			m.status = "synced"
		}
		cmds = append(cmds, clearStatusAfter(statusLifetime))
		return m, tea.Batch(cmds...)

	case deletedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("delete failed: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("deleted %s", msg.id)
			kept := m.records[:0:0]
			for _, r := range m.records {
				if r.ID != msg.id {
					kept = append(kept, r)
				}
			}
			m.records = kept
			m.showDossier = false
			m.recompute()
		}
		return m, clearStatusAfter(statusLifetime)

	case statusClearMsg:
		m.status = ""
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Input modes capture everything except escape and enter.
	if m.searching {
		return m.handleSearchKey(msg)
	}
	if m.editing != editNone {
		return m.handleEditKey(msg)
	}
	if m.confirmDelete {
		return m.handleConfirmKey(msg)
	}
	if m.showHelp {
		switch msg.String() {
		case "q", "?", "esc":
			m.showHelp = false
		}
		return m, nil
	}
	if m.showDossier {
		return m.handleDossierKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "tab":
		m.tab = (m.tab + 1) % 3
		m.rebuildGrid()
		return m, nil
	case "1":
		m.tab = TabMap
		m.rebuildGrid()
		return m, nil
	case "2":
		m.tab = TabList
		return m, nil
	case "3":
		m.tab = TabKanban
		return m, nil

	case "/":
		m.searching = true
		m.search.SetValue(m.criteria.Search)
		return m, m.search.Focus()

	case "s":
		m.criteria.Sort = nextSortKey(m.criteria.Sort)
		m.recompute()
		return m, nil

	case "c":
		m.criteria.Countries = cycleFacet(m.criteria.Countries, derive.Countries(m.records))
		m.recompute()
		return m, nil
	case "o":
		m.criteria.Commodities = cycleFacet(m.criteria.Commodities, derive.Commodities(m.records, m.ann))
		m.recompute()
		return m, nil
	case "t":
		m.criteria.LicenseTypes = cycleFacet(m.criteria.LicenseTypes, derive.LicenseTypes(m.records, m.ann))
		m.recompute()
		return m, nil

	case "g":
		m.criteria.Statuses = toggleValue(m.criteria.Statuses, string(license.StatusGood))
		m.recompute()
		return m, nil
	case "m":
		m.criteria.Statuses = toggleValue(m.criteria.Statuses, string(license.StatusMaybe))
		m.recompute()
		return m, nil
	case "b":
		m.criteria.Statuses = toggleValue(m.criteria.Statuses, string(license.StatusBad))
		m.recompute()
		return m, nil
	case "u":
		m.criteria.Statuses = toggleValue(m.criteria.Statuses, license.StatusUnmarked)
		m.recompute()
		return m, nil

	case "x":
		m.criteria = derive.Criteria{Sort: m.criteria.Sort}
		m.recompute()
		return m, nil

	case "r":
		m.loading = true
		return m, tea.Batch(m.spin.Tick, m.loadLicenses())

	case "enter":
		if r, ok := m.selectedRecord(); ok {
			m.openDossier(r.ID)
		}
		return m, nil
	}

	switch m.tab {
	case TabMap:
		return m.handleMapKey(msg)
	case TabList:
		return m.handleListKey(msg)
	default:
		return m.handleKanbanKey(msg)
	}
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.criteria.Search = m.search.Value()
		m.searching = false
		m.search.Blur()
		m.recompute()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.confirmDeleteID
	m.confirmDelete = false
	m.confirmDeleteID = ""
	switch msg.String() {
	case "y", "Y":
		if id != "" {
			return m, m.deleteLicense(id)
		}
	}
	return m, nil
}

// recompute rebuilds the derived rows after any state change. The whole
// visible world is a pure function of records, annotations, and criteria.
func (m *Model) recompute() {
	m.ann = m.store.All()
	m.rows = derive.View(m.records, m.ann, m.criteria)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	// visible is a logical count; the renderer caps it at len(rows).
	if m.visible < m.cfg.PageSize {
		m.visible = m.cfg.PageSize
	}
	m.rebuildGrid()
}

func (m *Model) rebuildGrid() {
	if m.tab != TabMap || m.width == 0 {
		return
	}
	w, h := m.mapDimensions()
	m.grid = mapgrid.Build(m.rows, w, h, m.bounds)
	if m.mapCursor >= len(m.grid.Clusters) {
		m.mapCursor = len(m.grid.Clusters) - 1
	}
	if m.mapCursor < 0 {
		m.mapCursor = 0
	}
}

// selectedRecord resolves the cursor to a record in the active tab.
func (m *Model) selectedRecord() (license.Record, bool) {
	switch m.tab {
	case TabMap:
		if m.mapCursor < len(m.grid.Clusters) {
			cluster := m.grid.Clusters[m.mapCursor]
			if len(cluster.Records) > 0 {
				return cluster.Records[0], true
			}
		}
		return license.Record{}, false
	case TabKanban:
		return m.kanbanSelected()
	default:
		if m.cursor < len(m.rows) {
			return m.rows[m.cursor], true
		}
		return license.Record{}, false
	}
}

func (m *Model) applyPatch(id string, patch license.Patch) {
	if _, err := m.pipe.Apply(context.Background(), id, patch); err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		m.logger.Error("annotation save failed", "record_id", id, "error", err)
		return
	}
	m.recompute()
}

func nextSortKey(key derive.SortKey) derive.SortKey {
	keys := derive.SortKeys()
	for i, k := range keys {
		if k == key {
			return keys[(i+1)%len(keys)]
		}
	}
	return keys[0]
}

// cycleFacet steps a single-selection filter through none -> each facet
// value -> none. Multi-selection stays available programmatically; the
// deck's keyboard flow cycles.
func cycleFacet(current []string, options []string) []string {
	if len(options) == 0 {
		return nil
	}
	if len(current) == 0 {
		return []string{options[0]}
	}
	for i, opt := range options {
		if opt == current[0] {
			if i+1 < len(options) {
				return []string{options[i+1]}
			}
			return nil
		}
	}
	return nil
}

func toggleValue(set []string, value string) []string {
	for i, v := range set {
		if v == value {
			return append(set[:i:i], set[i+1:]...)
		}
	}
	return append(set, value)
}
