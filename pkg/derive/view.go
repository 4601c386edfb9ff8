// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package derive turns raw records, user annotations, and filter criteria
// into the ordered slice that drives every view.
//
// # Description
//
// View is a pure function: it never mutates its inputs and recomputes from
// scratch on every call. The map, list, and kanban views all consume the
// same derived slice, so a record filtered out here disappears everywhere
// at once.
//
// # Thread Safety
//
// All functions are pure and safe for concurrent use.
package derive

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/AleutianAI/minedeck/pkg/license"
)

// SortKey selects the record field used for ordering.
type SortKey string

const (
	SortByCompany   SortKey = "company"
	SortByStatus    SortKey = "status"
	SortByCommodity SortKey = "commodity"
	SortByDate      SortKey = "date"
)

// SortKeys lists the selectable orderings in display order.
func SortKeys() []SortKey {
	return []SortKey{SortByCompany, SortByStatus, SortByCommodity, SortByDate}
}

// Criteria is the transient filter state owned by the UI.
//
// Empty selection sets mean "all". The Statuses set may contain the
// license.StatusUnmarked pseudo-value, which admits records carrying no
// status annotation.
type Criteria struct {
	Search       string
	Sort         SortKey
	Countries    []string
	Commodities  []string
	LicenseTypes []string
	Statuses     []string
}

// IsFiltered reports whether any narrowing criterion is active.
func (c Criteria) IsFiltered() bool {
	return c.Search != "" || len(c.Countries) > 0 || len(c.Commodities) > 0 ||
		len(c.LicenseTypes) > 0 || len(c.Statuses) > 0
}

// View applies the criteria to the records and returns a new, ordered slice.
//
// # Description
//
// The pipeline narrows sequentially: country, effective commodity, effective
// license type, free-text search, user status, then a stable sort on the
// chosen key. Sort keys are lowercased record fields (empty string when
// absent) compared with a case-insensitive collator; ties keep their prior
// relative order, so applying the same criteria twice yields the same slice.
//
// # Inputs
//
//   - records: The raw server-fetched records, in cache order.
//   - ann: The annotation map keyed by record id. May be nil.
//   - c: The active filter criteria.
//
// # Outputs
//
//   - []license.Record: A freshly allocated filtered, ordered slice.
func View(records []license.Record, ann map[string]license.Annotation, c Criteria) []license.Record {
	out := make([]license.Record, 0, len(records))
	search := strings.ToLower(c.Search)

	for _, r := range records {
		a := ann[r.ID]

		if !memberOf(c.Countries, license.EffectiveCountry(r)) {
			continue
		}
		if !memberOf(c.Commodities, license.EffectiveCommodity(r, a)) {
			continue
		}
		if !memberOf(c.LicenseTypes, license.EffectiveLicenseType(r, a)) {
			continue
		}
		if search != "" && !matchesSearch(r, a, search) {
			continue
		}
		if !matchesStatus(c.Statuses, a.Status) {
			continue
		}
		out = append(out, r)
	}

	sortRecords(out, c.Sort)
	return out
}

// memberOf reports set membership, with the empty set meaning "all".
func memberOf(set []string, value string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}

// matchesSearch is a case-insensitive substring match against company,
// license type, effective commodity, and the annotation comment.
func matchesSearch(r license.Record, a license.Annotation, lowered string) bool {
	for _, field := range []string{
		r.Company,
		r.LicenseType,
		license.EffectiveCommodity(r, a),
		a.Comment,
	} {
		if field != "" && strings.Contains(strings.ToLower(field), lowered) {
			return true
		}
	}
	return false
}

// matchesStatus applies the user-status multi-select. The unmarked
// pseudo-value admits records with no status annotation.
func matchesStatus(set []string, status license.Status) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == license.StatusUnmarked && status == "" {
			return true
		}
		if license.Status(s) == status {
			return true
		}
	}
	return false
}

// sortValue extracts the raw record field for a sort key, empty when absent.
func sortValue(r license.Record, key SortKey) string {
	switch key {
	case SortByStatus:
		return r.Status
	case SortByCommodity:
		return r.Commodity
	case SortByDate:
		return r.Date
	default:
		return r.Company
	}
}

// sortRecords orders the slice in place, stably and case-insensitively.
func sortRecords(records []license.Record, key SortKey) {
	if key == "" {
		key = SortByCompany
	}
	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(records, func(i, j int) bool {
		return col.CompareString(
			strings.ToLower(sortValue(records[i], key)),
			strings.ToLower(sortValue(records[j], key)),
		) < 0
	})
}
