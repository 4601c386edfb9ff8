// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tui implements the interactive MineDeck terminal application.
//
// # Description
//
// One bubbletea model drives three projections of the same derived row
// set: a clustered map, a paged list, and a deal-stage kanban board.
// Every annotation edit flows through the sync pipeline, so the screen
// updates immediately and the backend catches up in the background.
//
// # Thread Safety
//
// Model state is only touched inside the bubbletea event loop. Sync
// results cross goroutines through a buffered channel delivered back to
// the loop as messages.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AleutianAI/minedeck/pkg/annotations"
	"github.com/AleutianAI/minedeck/pkg/backend"
	"github.com/AleutianAI/minedeck/pkg/derive"
	"github.com/AleutianAI/minedeck/pkg/license"
	"github.com/AleutianAI/minedeck/pkg/mapgrid"
	"github.com/AleutianAI/minedeck/pkg/pipeline"
)

// =============================================================================
// Tabs
// =============================================================================

// Tab selects which projection of the derived rows is on screen.
type Tab int

const (
	// TabMap shows clustered license positions.
	TabMap Tab = iota

	// TabList shows a paged table.
	TabList

	// TabKanban shows the deal-stage board.
	TabKanban
)

func (t Tab) String() string {
	switch t {
	case TabMap:
		return "Map"
	case TabList:
		return "List"
	case TabKanban:
		return "Kanban"
	default:
		return "?"
	}
}

// =============================================================================
// Messages
// =============================================================================

// licensesLoadedMsg carries the result of a backend fetch.
type licensesLoadedMsg struct {
	records []license.Record
	err     error
}

// syncResultMsg reports one background annotation sync.
type syncResultMsg pipeline.SyncResult

// deletedMsg reports a backend delete started from the dossier.
type deletedMsg struct {
	id  string
	err error
}

// statusClearMsg expires the transient statusline message.
type statusClearMsg struct{}

// =============================================================================
// Config
// =============================================================================

// Config tunes the deck's presentation.
type Config struct {
	// PageSize is how many list rows each "load more" reveals.
	PageSize int
}

// DefaultConfig returns the presentation defaults.
func DefaultConfig() Config {
	return Config{PageSize: 20}
}

// editField identifies which dossier field the inline editor targets.
type editField int

const (
	editNone editField = iota
	editComment
	editNote
	editQuantity
	editPrice
	editCommodity
	editLicenseType
	editContact
	editPhone
)

// =============================================================================
// Model
// =============================================================================

// Model is the bubbletea model for the whole deck.
type Model struct {
	cfg    Config
	store  *annotations.Store
	pipe   *pipeline.Pipeline
	client *backend.Client
	logger *slog.Logger

	// Source data and the derived projection
	records  []license.Record
	ann      map[string]license.Annotation
	criteria derive.Criteria
	rows     []license.Record

	// Navigation
	tab     Tab
	cursor  int
	visible int

	// Map state
	bounds    mapgrid.Bounds
	zoomLevel int
	grid      mapgrid.Grid
	mapCursor int

	// Kanban state
	kanbanCol int

	// Overlays and input modes
	searching     bool
	search        textinput.Model
	editing       editField
	input         textinput.Model
	showDossier   bool
	dossierID     string
	showHelp      bool
	confirmDelete bool

	// confirmDeleteID is captured when the prompt opens, so the delete
	// hits the record the prompt named even if edits made inside the
	// dossier have moved the tab cursor underneath it.
	confirmDeleteID string

	// Async state
	spin    spinner.Model
	loading bool
	status  string
	loadErr error
	syncCh  chan pipeline.SyncResult

	width    int
	height   int
	quitting bool
}

// New builds the deck model. The pipeline's result callback is claimed
// by the model; results surface on the statusline.
func New(store *annotations.Store, pipe *pipeline.Pipeline, client *backend.Client, logger *slog.Logger, cfg Config) *Model {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultConfig().PageSize
	}

	search := textinput.New()
	search.Placeholder = "company, type, commodity, comment"
	search.CharLimit = 120

	input := textinput.New()
	input.CharLimit = 240

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		cfg:      cfg,
		store:    store,
		pipe:     pipe,
		client:   client,
		logger:   logger,
		criteria: derive.Criteria{Sort: derive.SortByCompany},
		visible:  cfg.PageSize,
		search:   search,
		input:    input,
		spin:     sp,
		loading:  true,
		syncCh:   make(chan pipeline.SyncResult, 32),
	}
	pipe.OnResult(func(res pipeline.SyncResult) {
		select {
		case m.syncCh <- res:
		default:
			// A full channel means the UI is gone; drop rather than block.
		}
	})
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadLicenses(), m.waitForSync())
}

// =============================================================================
// Commands
// =============================================================================

func (m *Model) loadLicenses() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		records, err := client.Licenses(ctx)
		return licensesLoadedMsg{records: records, err: err}
	}
}

func (m *Model) waitForSync() tea.Cmd {
	ch := m.syncCh
	return func() tea.Msg {
		return syncResultMsg(<-ch)
	}
}

func (m *Model) deleteLicense(id string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		return deletedMsg{id: id, err: client.DeleteLicense(ctx, id)}
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusClearMsg{}
	})
}
