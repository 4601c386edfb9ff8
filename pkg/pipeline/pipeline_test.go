// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/minedeck/pkg/annotations"
	"github.com/AleutianAI/minedeck/pkg/backend"
	"github.com/AleutianAI/minedeck/pkg/license"
	"github.com/AleutianAI/minedeck/pkg/localdb"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAnnotations(t *testing.T) *annotations.Store {
	t.Helper()
	db, err := localdb.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := annotations.Open(db, discardLogger())
	require.NoError(t, err)
	return store
}

// resultCollector gathers sync outcomes across goroutines.
type resultCollector struct {
	mu      sync.Mutex
	results []SyncResult
}

func (c *resultCollector) collect(r SyncResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *resultCollector) all() []SyncResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SyncResult(nil), c.results...)
}

// =============================================================================
// Translate Tests
// =============================================================================

func TestTranslate_FieldMapping(t *testing.T) {
	q, p := 100.0, 55.5
	comment := "call thursday"
	commodity := "Gold"
	licType := "Small Scale"
	contact := "Ama"
	phone := "+233 20 000 0000"

	fields := Translate(license.Patch{
		Quantity:      &q,
		Price:         &p,
		Comment:       &comment,
		Commodity:     &commodity,
		LicenseType:   &licType,
		ContactPerson: &contact,
		PhoneNumber:   &phone,
	})

	assert.Equal(t, map[string]any{
		"capacity":      100.0,
		"pricePerTon":   55.5,
		"comment":       "call thursday",
		"commodity":     "Gold",
		"licenseType":   "Small Scale",
		"contactPerson": "Ama",
		"phoneNumber":   "+233 20 000 0000",
	}, fields)
}

func TestTranslate_StatusGoodBecomesApproved(t *testing.T) {
	fields := Translate(license.StatusPatch(license.StatusGood))
	assert.Equal(t, map[string]any{"status": "Approved"}, fields)
}

func TestTranslate_OtherStatusesStayLocal(t *testing.T) {
	assert.Empty(t, Translate(license.StatusPatch(license.StatusMaybe)))
	assert.Empty(t, Translate(license.StatusPatch(license.StatusBad)))
	assert.Empty(t, Translate(license.StatusPatch("")))
}

func TestTranslate_LocalOnlyFieldsProduceNothing(t *testing.T) {
	assert.Empty(t, Translate(license.StagePatch(license.StageVerified)))
	assert.Empty(t, Translate(license.VerificationPatch(license.Verification{GovMatch: true})))
	assert.Empty(t, Translate(license.NotesPatch([]license.Note{{ID: "n1"}})))
}

func TestTranslate_Publish(t *testing.T) {
	fields := Translate(license.Patch{Publish: true})
	assert.Equal(t, map[string]any{"publish": true}, fields)
}

// =============================================================================
// Apply Tests
// =============================================================================

func TestApply_LocalCommitThenSync(t *testing.T) {
	var (
		mu       sync.Mutex
		gotPath  string
		gotBody  map[string]any
		gotCalls int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotCalls++
		gotPath = r.Method + " " + r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"published": false})
	}))
	defer srv.Close()

	store := testAnnotations(t)
	collector := &resultCollector{}
	p := New(store, backend.New(srv.URL), discardLogger())
	p.OnResult(collector.collect)

	merged, err := p.Apply(context.Background(), "lic-1", license.CommentPatch("synced"))
	require.NoError(t, err)
	assert.Equal(t, "synced", merged.Comment)

	p.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, gotCalls)
	assert.Equal(t, "PUT /licenses/lic-1", gotPath)
	assert.Equal(t, map[string]any{"comment": "synced"}, gotBody)

	results := collector.all()
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "lic-1", results[0].RecordID)
}

func TestApply_ServerFailureKeepsLocalState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database is down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := testAnnotations(t)
	collector := &resultCollector{}
	p := New(store, backend.New(srv.URL), discardLogger())
	p.OnResult(collector.collect)

	merged, err := p.Apply(context.Background(), "lic-1", license.CommentPatch("optimistic"))
	require.NoError(t, err, "local commit must succeed regardless of the backend")
	assert.Equal(t, "optimistic", merged.Comment)

	p.Wait()

	assert.Equal(t, "optimistic", store.Get("lic-1").Comment, "no rollback on sync failure")

	results := collector.all()
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestApply_LocalOnlyPatchSkipsSync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for a local-only patch")
	}))
	defer srv.Close()

	store := testAnnotations(t)
	p := New(store, backend.New(srv.URL), discardLogger())

	merged, err := p.Apply(context.Background(), "lic-1", license.StagePatch(license.StageContacted))
	require.NoError(t, err)
	assert.Equal(t, license.StageContacted, merged.Stage)

	p.Wait()
}

func TestApply_NilClientIsOffline(t *testing.T) {
	store := testAnnotations(t)
	p := New(store, nil, discardLogger())

	merged, err := p.Apply(context.Background(), "lic-1", license.CommentPatch("offline edit"))
	require.NoError(t, err)
	assert.Equal(t, "offline edit", merged.Comment)

	p.Wait()
	assert.Equal(t, "offline edit", store.Get("lic-1").Comment)
}

func TestApply_PublishResultSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"published": true})
	}))
	defer srv.Close()

	store := testAnnotations(t)
	collector := &resultCollector{}
	p := New(store, backend.New(srv.URL), discardLogger())
	p.OnResult(collector.collect)

	_, err := p.Apply(context.Background(), "lic-1", license.Patch{Publish: true})
	require.NoError(t, err)
	p.Wait()

	results := collector.all()
	require.Len(t, results, 1)
	assert.True(t, results[0].Published)
	assert.NoError(t, results[0].Err)
}

func TestApply_EmptyIDFailsLocally(t *testing.T) {
	store := testAnnotations(t)
	p := New(store, nil, discardLogger())

	_, err := p.Apply(context.Background(), "", license.CommentPatch("x"))
	assert.Error(t, err)
}
