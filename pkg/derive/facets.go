// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package derive

import (
	"sort"

	"github.com/AleutianAI/minedeck/pkg/license"
)

// Facets are the distinct-value sets that populate the filter controls.
// They derive each value through the same effective-value accessors as the
// filter predicates in View; if the two ever disagreed, the dropdowns would
// offer values that never match anything.

// Countries returns the distinct effective countries in first-seen order.
func Countries(records []license.Record) []string {
	return distinct(records, func(r license.Record) string {
		return license.EffectiveCountry(r)
	}, false)
}

// Commodities returns the sorted distinct effective commodities.
func Commodities(records []license.Record, ann map[string]license.Annotation) []string {
	return distinct(records, func(r license.Record) string {
		return license.EffectiveCommodity(r, ann[r.ID])
	}, true)
}

// LicenseTypes returns the sorted distinct effective license types.
func LicenseTypes(records []license.Record, ann map[string]license.Annotation) []string {
	return distinct(records, func(r license.Record) string {
		return license.EffectiveLicenseType(r, ann[r.ID])
	}, true)
}

func distinct(records []license.Record, value func(license.Record) string, sorted bool) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, len(records))
	for _, r := range records {
		v := value(r)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if sorted {
		sort.Strings(out)
	}
	return out
}
