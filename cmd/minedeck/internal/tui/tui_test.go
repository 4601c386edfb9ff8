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
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/minedeck/pkg/annotations"
	"github.com/AleutianAI/minedeck/pkg/backend"
	"github.com/AleutianAI/minedeck/pkg/derive"
	"github.com/AleutianAI/minedeck/pkg/license"
	"github.com/AleutianAI/minedeck/pkg/localdb"
	"github.com/AleutianAI/minedeck/pkg/mapgrid"
	"github.com/AleutianAI/minedeck/pkg/pipeline"
)

// =============================================================================
// Test Helpers
// =============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testModel wires a deck model over in-memory storage, an offline
// pipeline, and the given backend client.
func testModel(t *testing.T, client *backend.Client, records []license.Record) *Model {
	t.Helper()
	db, err := localdb.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := annotations.Open(db, discardLogger())
	require.NoError(t, err)

	m := New(store, pipeline.New(store, nil, discardLogger()), client, discardLogger(), Config{PageSize: 20})
	m.records = records
	m.width = 100
	m.height = 40
	m.loading = false
	m.recompute()
	return m
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// =============================================================================
// Columns Tests
// =============================================================================

func TestColumns_EveryStagePresent(t *testing.T) {
	cols := Columns(nil, nil)
	require.Len(t, cols, len(license.Stages()))
	for _, stage := range license.Stages() {
		_, ok := cols[stage]
		assert.True(t, ok, "stage %s missing", stage)
	}
}

func TestColumns_GroupsByEffectiveStage(t *testing.T) {
	rows := []license.Record{
		{ID: "1", Company: "A"},
		{ID: "2", Company: "B"},
		{ID: "3", Company: "C"},
	}
	ann := map[string]license.Annotation{
		"2": {Stage: license.StageContacted},
		"3": {Stage: license.StageClosed},
	}

	cols := Columns(rows, ann)
	require.Len(t, cols[license.StageNew], 1)
	assert.Equal(t, "1", cols[license.StageNew][0].ID, "unstaged records land in New")
	require.Len(t, cols[license.StageContacted], 1)
	assert.Equal(t, "2", cols[license.StageContacted][0].ID)
	require.Len(t, cols[license.StageClosed], 1)
	assert.Empty(t, cols[license.StageDiligence])
}

func TestColumns_PreservesDerivedOrder(t *testing.T) {
	rows := []license.Record{
		{ID: "z"}, {ID: "a"}, {ID: "m"},
	}
	cols := Columns(rows, nil)
	got := cols[license.StageNew]
	require.Len(t, got, 3)
	assert.Equal(t, "z", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, "m", got[2].ID)
}

// =============================================================================
// Filter Helper Tests
// =============================================================================

func TestCycleFacet(t *testing.T) {
	options := []string{"Ghana", "Mali", "Togo"}

	sel := cycleFacet(nil, options)
	assert.Equal(t, []string{"Ghana"}, sel)

	sel = cycleFacet(sel, options)
	assert.Equal(t, []string{"Mali"}, sel)

	sel = cycleFacet(sel, options)
	assert.Equal(t, []string{"Togo"}, sel)

	sel = cycleFacet(sel, options)
	assert.Nil(t, sel, "past the last option the filter clears")
}

func TestCycleFacet_StaleSelectionClears(t *testing.T) {
	// The selected value vanished from the facet set (e.g. after a reload).
	sel := cycleFacet([]string{"Atlantis"}, []string{"Ghana", "Mali"})
	assert.Nil(t, sel)
}

func TestCycleFacet_NoOptions(t *testing.T) {
	assert.Nil(t, cycleFacet([]string{"Ghana"}, nil))
}

func TestToggleValue(t *testing.T) {
	set := toggleValue(nil, "good")
	assert.Equal(t, []string{"good"}, set)

	set = toggleValue(set, "bad")
	assert.Equal(t, []string{"good", "bad"}, set)

	set = toggleValue(set, "good")
	assert.Equal(t, []string{"bad"}, set)

	set = toggleValue(set, "bad")
	assert.Empty(t, set)
}

func TestNextSortKey_CyclesAllKeys(t *testing.T) {
	key := derive.SortByCompany
	seen := map[derive.SortKey]bool{key: true}
	for range len(derive.SortKeys()) - 1 {
		key = nextSortKey(key)
		seen[key] = true
	}
	assert.Len(t, seen, len(derive.SortKeys()))
	assert.Equal(t, derive.SortByCompany, nextSortKey(key), "wraps around")
}

func TestNextSortKey_UnknownResets(t *testing.T) {
	assert.Equal(t, derive.SortKeys()[0], nextSortKey(derive.SortKey("bogus")))
}

// =============================================================================
// Tab Tests
// =============================================================================

func TestTab_String(t *testing.T) {
	assert.Equal(t, "Map", TabMap.String())
	assert.Equal(t, "List", TabList.String())
	assert.Equal(t, "Kanban", TabKanban.String())
}

// =============================================================================
// Dossier Delete Tests
// =============================================================================

func TestDossierDelete_TargetsDossierRecordAfterStageMove(t *testing.T) {
	var deletedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deletedPath = r.URL.Path
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	m := testModel(t, backend.New(srv.URL), []license.Record{
		{ID: "rec-a", Company: "Alpha Mining"},
		{ID: "rec-b", Company: "Beta Ores"},
	})
	m.tab = TabKanban

	// Moving the dossier's card out of the New column leaves the board
	// cursor on the other record.
	m.openDossier("rec-a")
	_, _ = m.handleKey(keyMsg("]"))
	if r, ok := m.selectedRecord(); ok {
		require.Equal(t, "rec-b", r.ID, "board cursor should have moved off the dossier record")
	}

	_, _ = m.handleKey(keyMsg("D"))
	require.True(t, m.confirmDelete)

	_, cmd := m.handleKey(keyMsg("y"))
	require.NotNil(t, cmd)
	msg := cmd()

	deleted, ok := msg.(deletedMsg)
	require.True(t, ok)
	assert.NoError(t, deleted.err)
	assert.Equal(t, "rec-a", deleted.id, "the delete must hit the record the prompt named")
	assert.Equal(t, "/licenses/rec-a", deletedPath)
}

func TestDossierDelete_DecliningLeavesRecord(t *testing.T) {
	m := testModel(t, backend.New("http://127.0.0.1:0"), []license.Record{
		{ID: "rec-a", Company: "Alpha Mining"},
	})
	m.tab = TabKanban

	m.openDossier("rec-a")
	_, _ = m.handleKey(keyMsg("D"))
	require.True(t, m.confirmDelete)

	_, cmd := m.handleKey(keyMsg("n"))
	assert.Nil(t, cmd)
	assert.False(t, m.confirmDelete)
	assert.Empty(t, m.confirmDeleteID)
}

// =============================================================================
// Map Zoom Tests
// =============================================================================

func TestMapZoomOut_WidensViewport(t *testing.T) {
	m := testModel(t, backend.New("http://127.0.0.1:0"), nil)
	m.tab = TabMap
	m.bounds = mapgrid.Bounds{MinLat: 5, MaxLat: 9, MinLng: -3, MaxLng: 1}

	_, _ = m.handleKey(keyMsg("-"))

	assert.InDelta(t, 8.0, m.bounds.MaxLat-m.bounds.MinLat, 1e-9)
	assert.InDelta(t, 8.0, m.bounds.MaxLng-m.bounds.MinLng, 1e-9)
	assert.Equal(t, -1, m.zoomLevel)

	// The center stays put.
	assert.InDelta(t, 7.0, (m.bounds.MinLat+m.bounds.MaxLat)/2, 1e-9)
	assert.InDelta(t, -1.0, (m.bounds.MinLng+m.bounds.MaxLng)/2, 1e-9)
}

func TestMapZoomOut_StopsAtFloor(t *testing.T) {
	m := testModel(t, backend.New("http://127.0.0.1:0"), nil)
	m.tab = TabMap
	m.bounds = mapgrid.Bounds{MinLat: 5, MaxLat: 9, MinLng: -3, MaxLng: 1}

	for range 10 {
		_, _ = m.handleKey(keyMsg("-"))
	}

	assert.Equal(t, -6, m.zoomLevel)
	// Six doublings of the original 4 degree span, then the floor holds.
	assert.InDelta(t, 256.0, m.bounds.MaxLat-m.bounds.MinLat, 1e-6)
}

// =============================================================================
// List Row Tests
// =============================================================================

func TestListRow_ShowsDealValue(t *testing.T) {
	r := license.Record{ID: "1", Company: "Ashanti Goldfields", Commodity: "Gold", Country: "Ghana", Date: "2024-03-01"}
	line := listRow(r, license.Annotation{Quantity: 250, Price: 10.5})
	assert.Contains(t, line, "2625.00")
}

func TestListRow_BlankValueUntilBothTermsSet(t *testing.T) {
	r := license.Record{ID: "1", Company: "Ashanti Goldfields"}

	blank := listRow(r, license.Annotation{})
	assert.Equal(t, blank, listRow(r, license.Annotation{Quantity: 250}))
	assert.Equal(t, blank, listRow(r, license.Annotation{Price: 10.5}))
}

func TestRenderList_IncludesValueColumn(t *testing.T) {
	m := testModel(t, backend.New("http://127.0.0.1:0"), []license.Record{
		{ID: "1", Company: "Ashanti Goldfields"},
	})
	q, p := 250.0, 10.5
	_, err := m.store.Apply("1", license.Patch{Quantity: &q, Price: &p})
	require.NoError(t, err)
	m.recompute()

	out := m.renderList()
	assert.Contains(t, out, "VALUE")
	assert.Contains(t, out, "2625.00")
}
