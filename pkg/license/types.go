// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package license defines the core data model for MineDeck: mining license
// records as served by the backend, and the user-local annotations layered
// on top of them.
//
// # Description
//
// A Record is server-owned and read-mostly on the client. An Annotation is
// client-local, keyed by record id, and optional per record: when absent,
// every field defaults to the record's own value or to "unset".
//
// The "effective value" rule (annotation override, else record field, else a
// fixed default) recurs across filtering, facet extraction, and display. It
// is implemented exactly once here; all other packages must go through these
// accessors so filter dropdowns never offer values that match nothing.
package license

import "time"

// FallbackCountry is substituted for records with no country, consistently
// across filtering and facet extraction.
const FallbackCountry = "Ghana"

// Unknown is the default effective value for absent commodity/license type.
const Unknown = "Unknown"

// =============================================================================
// Record
// =============================================================================

// Record is a mining license entity as stored by the backend.
//
// Field names follow the backend's camelCase JSON contract. Lat/Lng are
// pointers because coordinates are optional; records without them are
// excluded from map rendering but not from the list or kanban views.
type Record struct {
	ID            string   `json:"id"`
	Company       string   `json:"company"`
	Country       string   `json:"country"`
	Region        string   `json:"region"`
	Commodity     string   `json:"commodity"`
	LicenseType   string   `json:"licenseType"`
	Status        string   `json:"status"`
	Date          string   `json:"date"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
	PhoneNumber   string   `json:"phoneNumber"`
	ContactPerson string   `json:"contactPerson"`
}

// HasCoordinates reports whether the record can be placed on the map.
func (r Record) HasCoordinates() bool {
	return r.Lat != nil && r.Lng != nil
}

// =============================================================================
// Annotation
// =============================================================================

// Status is the user's qualitative verdict on a record.
// The empty string means "unmarked".
type Status string

const (
	StatusGood  Status = "good"
	StatusMaybe Status = "maybe"
	StatusBad   Status = "bad"
)

// Statuses lists the non-empty verdicts in display order.
func Statuses() []Status {
	return []Status{StatusGood, StatusMaybe, StatusBad}
}

// StatusUnmarked is the pseudo-value accepted by the user-status filter to
// select records that carry no status annotation at all.
const StatusUnmarked = "unmarked"

// Stage is the CRM pipeline position of a record. Transitions are
// user-driven and unordered: any stage is reachable from any other.
type Stage string

const (
	StageNew       Stage = "New"
	StageContacted Stage = "Contacted"
	StageDiligence Stage = "Diligence"
	StageVerified  Stage = "Verified"
	StageClosed    Stage = "Closed"
)

// Stages lists the pipeline stages in kanban column order.
func Stages() []Stage {
	return []Stage{StageNew, StageContacted, StageDiligence, StageVerified, StageClosed}
}

// Verification is the named boolean checklist a user works through before
// trusting a record.
type Verification struct {
	GovMatch     bool `json:"govMatch,omitempty"`
	TaxClearance bool `json:"taxClearance,omitempty"`
	SiteVisit    bool `json:"siteVisit,omitempty"`
	VideoCall    bool `json:"videoCall,omitempty"`
}

// Checked returns how many checklist items are set.
func (v Verification) Checked() int {
	n := 0
	for _, b := range []bool{v.GovMatch, v.TaxClearance, v.SiteVisit, v.VideoCall} {
		if b {
			n++
		}
	}
	return n
}

// Note is one entry of a record's append-only activity log.
type Note struct {
	ID   string    `json:"id"`
	Text string    `json:"text"`
	Date time.Time `json:"date"`
}

// Annotation is client-local user metadata for one record. It is not
// authoritative on the server except for the subset the mutation pipeline
// explicitly syncs.
//
// The zero value is a valid "no annotation" state.
type Annotation struct {
	Status        Status        `json:"status,omitempty"`
	Comment       string        `json:"comment,omitempty"`
	Quantity      float64       `json:"quantity,omitempty"`
	Price         float64       `json:"price,omitempty"`
	Commodity     string        `json:"commodity,omitempty"`
	LicenseType   string        `json:"licenseType,omitempty"`
	ContactPerson string        `json:"contactPerson,omitempty"`
	PhoneNumber   string        `json:"phoneNumber,omitempty"`
	Verification  *Verification `json:"verification,omitempty"`
	Stage         Stage         `json:"stage,omitempty"`

	// ActivityLog is ordered newest first.
	ActivityLog []Note `json:"activityLog,omitempty"`
}

// IsZero reports whether the annotation carries no user data at all.
func (a Annotation) IsZero() bool {
	return a.Status == "" && a.Comment == "" && a.Quantity == 0 && a.Price == 0 &&
		a.Commodity == "" && a.LicenseType == "" && a.ContactPerson == "" &&
		a.PhoneNumber == "" && a.Verification == nil && a.Stage == "" &&
		len(a.ActivityLog) == 0
}

// EffectiveStage returns the pipeline stage, defaulting to New when unset.
func (a Annotation) EffectiveStage() Stage {
	if a.Stage == "" {
		return StageNew
	}
	return a.Stage
}

// TotalValue returns quantity x price when both are present.
func (a Annotation) TotalValue() (float64, bool) {
	if a.Quantity == 0 || a.Price == 0 {
		return 0, false
	}
	return a.Quantity * a.Price, true
}

// =============================================================================
// Effective values
// =============================================================================

// EffectiveCountry returns the record's country, or FallbackCountry when the
// backend row has none.
func EffectiveCountry(r Record) string {
	if r.Country == "" {
		return FallbackCountry
	}
	return r.Country
}

// EffectiveCommodity returns the annotation override, else the record field,
// else Unknown.
func EffectiveCommodity(r Record, a Annotation) string {
	if a.Commodity != "" {
		return a.Commodity
	}
	if r.Commodity != "" {
		return r.Commodity
	}
	return Unknown
}

// EffectiveLicenseType returns the annotation override, else the record
// field, else Unknown.
func EffectiveLicenseType(r Record, a Annotation) string {
	if a.LicenseType != "" {
		return a.LicenseType
	}
	if r.LicenseType != "" {
		return r.LicenseType
	}
	return Unknown
}

// EffectiveContact returns the annotation contact override, else the
// record's contact person.
func EffectiveContact(r Record, a Annotation) string {
	if a.ContactPerson != "" {
		return a.ContactPerson
	}
	return r.ContactPerson
}

// EffectivePhone returns the annotation phone override, else the record's
// phone number.
func EffectivePhone(r Record, a Annotation) string {
	if a.PhoneNumber != "" {
		return a.PhoneNumber
	}
	return r.PhoneNumber
}
