// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package license

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

// =============================================================================
// Record Tests
// =============================================================================

func TestRecord_HasCoordinates(t *testing.T) {
	tests := []struct {
		name string
		lat  *float64
		lng  *float64
		want bool
	}{
		{"both set", floatPtr(6.5), floatPtr(-1.5), true},
		{"lat only", floatPtr(6.5), nil, false},
		{"lng only", nil, floatPtr(-1.5), false},
		{"neither", nil, nil, false},
		{"zero coordinates are valid", floatPtr(0), floatPtr(0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{Lat: tt.lat, Lng: tt.lng}
			assert.Equal(t, tt.want, r.HasCoordinates())
		})
	}
}

// =============================================================================
// Annotation Tests
// =============================================================================

func TestAnnotation_IsZero(t *testing.T) {
	assert.True(t, Annotation{}.IsZero())

	assert.False(t, Annotation{Status: StatusGood}.IsZero())
	assert.False(t, Annotation{Comment: "call back"}.IsZero())
	assert.False(t, Annotation{Quantity: 100}.IsZero())
	assert.False(t, Annotation{Price: 50}.IsZero())
	assert.False(t, Annotation{Commodity: "Gold"}.IsZero())
	assert.False(t, Annotation{Stage: StageContacted}.IsZero())
	assert.False(t, Annotation{Verification: &Verification{}}.IsZero())
	assert.False(t, Annotation{ActivityLog: []Note{{ID: "n1"}}}.IsZero())
}

func TestAnnotation_EffectiveStage(t *testing.T) {
	assert.Equal(t, StageNew, Annotation{}.EffectiveStage())
	assert.Equal(t, StageDiligence, Annotation{Stage: StageDiligence}.EffectiveStage())
}

func TestAnnotation_TotalValue(t *testing.T) {
	v, ok := Annotation{Quantity: 100, Price: 50}.TotalValue()
	require.True(t, ok)
	assert.Equal(t, 5000.0, v)

	_, ok = Annotation{Quantity: 100}.TotalValue()
	assert.False(t, ok, "price missing")

	_, ok = Annotation{Price: 50}.TotalValue()
	assert.False(t, ok, "quantity missing")

	_, ok = Annotation{}.TotalValue()
	assert.False(t, ok)
}

func TestVerification_Checked(t *testing.T) {
	assert.Equal(t, 0, Verification{}.Checked())
	assert.Equal(t, 1, Verification{GovMatch: true}.Checked())
	assert.Equal(t, 2, Verification{TaxClearance: true, SiteVisit: true}.Checked())
	assert.Equal(t, 4, Verification{GovMatch: true, TaxClearance: true, SiteVisit: true, VideoCall: true}.Checked())
}

func TestStages_Order(t *testing.T) {
	assert.Equal(t, []Stage{StageNew, StageContacted, StageDiligence, StageVerified, StageClosed}, Stages())
}

func TestStatuses_Order(t *testing.T) {
	assert.Equal(t, []Status{StatusGood, StatusMaybe, StatusBad}, Statuses())
}

// =============================================================================
// Effective Value Tests
// =============================================================================

func TestEffectiveCountry(t *testing.T) {
	assert.Equal(t, "Mali", EffectiveCountry(Record{Country: "Mali"}))
	assert.Equal(t, FallbackCountry, EffectiveCountry(Record{}))
}

func TestEffectiveCommodity(t *testing.T) {
	r := Record{Commodity: "Gold"}

	assert.Equal(t, "Gold", EffectiveCommodity(r, Annotation{}))
	assert.Equal(t, "Lithium", EffectiveCommodity(r, Annotation{Commodity: "Lithium"}))
	assert.Equal(t, Unknown, EffectiveCommodity(Record{}, Annotation{}))
}

func TestEffectiveLicenseType(t *testing.T) {
	r := Record{LicenseType: "Small Scale"}

	assert.Equal(t, "Small Scale", EffectiveLicenseType(r, Annotation{}))
	assert.Equal(t, "Large Scale", EffectiveLicenseType(r, Annotation{LicenseType: "Large Scale"}))
	assert.Equal(t, Unknown, EffectiveLicenseType(Record{}, Annotation{}))
}

func TestEffectiveContactAndPhone(t *testing.T) {
	r := Record{ContactPerson: "Ama", PhoneNumber: "+233 20 000 0000"}

	assert.Equal(t, "Ama", EffectiveContact(r, Annotation{}))
	assert.Equal(t, "Kofi", EffectiveContact(r, Annotation{ContactPerson: "Kofi"}))
	assert.Equal(t, "+233 20 000 0000", EffectivePhone(r, Annotation{}))
	assert.Equal(t, "+233 55 111 1111", EffectivePhone(r, Annotation{PhoneNumber: "+233 55 111 1111"}))
}

// =============================================================================
// Patch Tests
// =============================================================================

func TestPatch_IsZero(t *testing.T) {
	assert.True(t, Patch{}.IsZero())
	assert.False(t, StatusPatch(StatusGood).IsZero())
	assert.False(t, CommentPatch("").IsZero(), "explicit clear is still a change")
	assert.False(t, Patch{Publish: true}.IsZero())
}

func TestPatch_ApplyTo_MergesNonNilFields(t *testing.T) {
	base := Annotation{
		Status:  StatusMaybe,
		Comment: "old comment",
		Stage:   StageContacted,
	}

	patched := QuantityPatch(250).ApplyTo(base)

	assert.Equal(t, StatusMaybe, patched.Status, "untouched field preserved")
	assert.Equal(t, "old comment", patched.Comment)
	assert.Equal(t, 250.0, patched.Quantity)
}

func TestPatch_ApplyTo_ClearsWithZeroValue(t *testing.T) {
	base := Annotation{Status: StatusGood, Comment: "drop me"}

	patched := StatusPatch("").ApplyTo(base)
	assert.Equal(t, Status(""), patched.Status, "pointer to empty clears the verdict")

	patched = CommentPatch("").ApplyTo(patched)
	assert.Empty(t, patched.Comment)
}

func TestPatch_ApplyTo_CopiesVerification(t *testing.T) {
	v := Verification{GovMatch: true}
	patched := VerificationPatch(v).ApplyTo(Annotation{})

	require.NotNil(t, patched.Verification)
	assert.True(t, patched.Verification.GovMatch)

	// The annotation must not alias the patch's value.
	v.TaxClearance = true
	assert.False(t, patched.Verification.TaxClearance)
}

func TestPatch_ApplyTo_CopiesActivityLog(t *testing.T) {
	notes := []Note{{ID: "n1", Text: "first", Date: time.Now()}}
	patched := NotesPatch(notes).ApplyTo(Annotation{})

	require.Len(t, patched.ActivityLog, 1)

	notes[0].Text = "mutated"
	assert.Equal(t, "first", patched.ActivityLog[0].Text, "log is copied, not aliased")
}
