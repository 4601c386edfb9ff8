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

// Patch is a partial annotation update. Nil fields are left untouched;
// non-nil fields overwrite, including overwriting to the zero value
// (so a pointer to an empty Status clears the verdict).
//
// Patch is the single currency of the mutation pipeline: views build a
// Patch, the annotation store merges it, and the sync layer translates the
// same Patch into backend field names.
type Patch struct {
	Status        *Status
	Comment       *string
	Quantity      *float64
	Price         *float64
	Commodity     *string
	LicenseType   *string
	ContactPerson *string
	PhoneNumber   *string
	Verification  *Verification
	Stage         *Stage

	// ActivityLog replaces the whole log when non-nil (the caller prepends
	// new notes so the list stays newest first).
	ActivityLog *[]Note

	// Publish is a one-shot trigger asking the backend to publish the
	// record externally. It is forwarded with the sync payload and never
	// persisted locally.
	Publish bool
}

// IsZero reports whether the patch changes nothing and carries no trigger.
func (p Patch) IsZero() bool {
	return p.Status == nil && p.Comment == nil && p.Quantity == nil &&
		p.Price == nil && p.Commodity == nil && p.LicenseType == nil &&
		p.ContactPerson == nil && p.PhoneNumber == nil &&
		p.Verification == nil && p.Stage == nil && p.ActivityLog == nil &&
		!p.Publish
}

// ApplyTo merges the patch into an annotation and returns the result.
func (p Patch) ApplyTo(a Annotation) Annotation {
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Comment != nil {
		a.Comment = *p.Comment
	}
	if p.Quantity != nil {
		a.Quantity = *p.Quantity
	}
	if p.Price != nil {
		a.Price = *p.Price
	}
	if p.Commodity != nil {
		a.Commodity = *p.Commodity
	}
	if p.LicenseType != nil {
		a.LicenseType = *p.LicenseType
	}
	if p.ContactPerson != nil {
		a.ContactPerson = *p.ContactPerson
	}
	if p.PhoneNumber != nil {
		a.PhoneNumber = *p.PhoneNumber
	}
	if p.Verification != nil {
		v := *p.Verification
		a.Verification = &v
	}
	if p.Stage != nil {
		a.Stage = *p.Stage
	}
	if p.ActivityLog != nil {
		a.ActivityLog = append([]Note(nil), (*p.ActivityLog)...)
	}
	return a
}

// Convenience constructors for the common single-field updates driven by
// view interactions.

func StatusPatch(s Status) Patch { return Patch{Status: &s} }

func CommentPatch(c string) Patch { return Patch{Comment: &c} }

func StagePatch(s Stage) Patch { return Patch{Stage: &s} }

func CommodityPatch(c string) Patch { return Patch{Commodity: &c} }

func LicenseTypePatch(t string) Patch { return Patch{LicenseType: &t} }

func QuantityPatch(q float64) Patch { return Patch{Quantity: &q} }

func PricePatch(p float64) Patch { return Patch{Price: &p} }

func VerificationPatch(v Verification) Patch { return Patch{Verification: &v} }

func NotesPatch(notes []Note) Patch { return Patch{ActivityLog: &notes} }
