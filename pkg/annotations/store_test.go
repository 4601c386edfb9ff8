// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package annotations

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/minedeck/pkg/license"
	"github.com/AleutianAI/minedeck/pkg/localdb"
)

func testStore(t *testing.T) (*Store, *localdb.DB) {
	t.Helper()
	db, err := localdb.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := Open(db, discardLogger())
	require.NoError(t, err)
	return store, db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// Open Tests
// =============================================================================

func TestOpen_EmptyDatabase(t *testing.T) {
	store, _ := testStore(t)
	assert.Equal(t, 0, store.Len())
	assert.True(t, store.Get("anything").IsZero())
}

func TestOpen_NilDB(t *testing.T) {
	_, err := Open(nil, discardLogger())
	assert.Error(t, err)
}

func TestOpen_CorruptBlobStartsEmpty(t *testing.T) {
	db, err := localdb.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	err = db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(storageKey), []byte("{not json"))
	})
	require.NoError(t, err)

	store, err := Open(db, discardLogger())
	require.NoError(t, err, "corrupt data degrades, not fails")
	assert.Equal(t, 0, store.Len())
}

// =============================================================================
// Apply Tests
// =============================================================================

func TestApply_CreatesAnnotationOnFirstEdit(t *testing.T) {
	store, _ := testStore(t)

	got, err := store.Apply("lic-1", license.StatusPatch(license.StatusGood))
	require.NoError(t, err)
	assert.Equal(t, license.StatusGood, got.Status)
	assert.Equal(t, license.StatusGood, store.Get("lic-1").Status)
	assert.Equal(t, 1, store.Len())
}

func TestApply_MergesIntoExisting(t *testing.T) {
	store, _ := testStore(t)

	_, err := store.Apply("lic-1", license.StatusPatch(license.StatusMaybe))
	require.NoError(t, err)
	got, err := store.Apply("lic-1", license.CommentPatch("call thursday"))
	require.NoError(t, err)

	assert.Equal(t, license.StatusMaybe, got.Status)
	assert.Equal(t, "call thursday", got.Comment)
}

func TestApply_EmptyIDRejected(t *testing.T) {
	store, _ := testStore(t)
	_, err := store.Apply("", license.StatusPatch(license.StatusGood))
	assert.Error(t, err)
}

func TestApply_PersistsAcrossReopen(t *testing.T) {
	store, db := testStore(t)

	_, err := store.Apply("lic-9", license.CommentPatch("durable"))
	require.NoError(t, err)
	_, err = store.Apply("lic-9", license.QuantityPatch(120))
	require.NoError(t, err)

	// A second store over the same database must see the persisted map.
	reopened, err := Open(db, discardLogger())
	require.NoError(t, err)

	got := reopened.Get("lic-9")
	assert.Equal(t, "durable", got.Comment)
	assert.Equal(t, 120.0, got.Quantity)
}

func TestAll_ReturnsCopy(t *testing.T) {
	store, _ := testStore(t)
	_, err := store.Apply("lic-1", license.StatusPatch(license.StatusBad))
	require.NoError(t, err)

	all := store.All()
	all["lic-1"] = license.Annotation{Comment: "mutated copy"}

	assert.Empty(t, store.Get("lic-1").Comment, "mutating the copy must not affect the store")
}

// =============================================================================
// AddNote Tests
// =============================================================================

func TestAddNote_PrependsNewestFirst(t *testing.T) {
	store, _ := testStore(t)

	first := license.Note{ID: uuid.NewString(), Text: "first", Date: time.Now()}
	second := license.Note{ID: uuid.NewString(), Text: "second", Date: time.Now()}

	_, err := store.AddNote("lic-1", first)
	require.NoError(t, err)
	got, err := store.AddNote("lic-1", second)
	require.NoError(t, err)

	require.Len(t, got.ActivityLog, 2)
	assert.Equal(t, "second", got.ActivityLog[0].Text)
	assert.Equal(t, "first", got.ActivityLog[1].Text)
}

// =============================================================================
// ToggleVerification Tests
// =============================================================================

func TestToggleVerification_FlipsOneFlag(t *testing.T) {
	store, _ := testStore(t)

	got, err := store.ToggleVerification("lic-1", func(v *license.Verification) {
		v.SiteVisit = !v.SiteVisit
	})
	require.NoError(t, err)
	require.NotNil(t, got.Verification)
	assert.True(t, got.Verification.SiteVisit)
	assert.Equal(t, 1, got.Verification.Checked())

	got, err = store.ToggleVerification("lic-1", func(v *license.Verification) {
		v.SiteVisit = !v.SiteVisit
	})
	require.NoError(t, err)
	assert.False(t, got.Verification.SiteVisit)
}

func TestToggleVerification_PreservesOtherFlags(t *testing.T) {
	store, _ := testStore(t)

	_, err := store.ToggleVerification("lic-1", func(v *license.Verification) { v.GovMatch = true })
	require.NoError(t, err)
	got, err := store.ToggleVerification("lic-1", func(v *license.Verification) { v.VideoCall = true })
	require.NoError(t, err)

	assert.True(t, got.Verification.GovMatch)
	assert.True(t, got.Verification.VideoCall)
}
