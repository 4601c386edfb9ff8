// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline is the optimistic mutation path for annotation changes.
//
// # Description
//
// Every annotation edit goes through two explicit phases:
//
//	(a) local commit: the patch merges into the annotation store and is
//	    durably persisted before Apply returns. This is what re-renders
//	    the views.
//	(b) remote sync: the subset of patch fields with backend columns is
//	    translated to the backend's external names and PUT in the
//	    background. Failures are logged and swallowed; phase (a) is never
//	    rolled back. The UI stays optimistic and becomes consistent with
//	    the backend on the next full reload.
//
// In-flight syncs are never cancelled; a superseded request's late response
// is simply dropped on the floor, which is cosmetic because the backend is
// the source of truth on reload.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/minedeck/pkg/annotations"
	"github.com/AleutianAI/minedeck/pkg/backend"
	"github.com/AleutianAI/minedeck/pkg/license"
)

// syncTimeout bounds one background PUT. Generous because the backend may
// be publishing the record externally as a side effect.
const syncTimeout = 30 * time.Second

// SyncResult reports the outcome of one background sync.
type SyncResult struct {
	RecordID  string
	Published bool
	Err       error
}

// Pipeline applies annotation patches locally and syncs them remotely.
type Pipeline struct {
	store  *annotations.Store
	client *backend.Client
	logger *slog.Logger

	// onResult, when set, receives every background sync outcome on the
	// sync goroutine. The TUI uses it to surface publish confirmations.
	onResult func(SyncResult)

	wg sync.WaitGroup
}

// New creates a pipeline. client may be nil for offline/local-only use, in
// which case phase (b) is skipped entirely.
func New(store *annotations.Store, client *backend.Client, logger *slog.Logger) *Pipeline {
	return &Pipeline{store: store, client: client, logger: logger}
}

// OnResult installs the background sync callback. Call before the first
// Apply; the callback runs on the sync goroutine.
func (p *Pipeline) OnResult(fn func(SyncResult)) {
	p.onResult = fn
}

// Apply commits a patch locally and schedules the background sync.
//
// Description:
//
//	Phase (a) is synchronous: on return, the merged annotation is durable
//	and reflected in the returned value. Phase (b) runs on its own
//	goroutine with a fresh context so the edit outlives the caller's
//	(usually per-keystroke) context.
//
// Inputs:
//
//	id - The record identifier.
//	patch - The partial update. A patch that only carries the Publish
//	        trigger still syncs even though it changes nothing locally.
//
// Outputs:
//
//	license.Annotation - The merged annotation after the local commit.
//	error - Non-nil only when the local durable write failed.
func (p *Pipeline) Apply(_ context.Context, id string, patch license.Patch) (license.Annotation, error) {
	merged, err := p.store.Apply(id, patch)
	if err != nil {
		return license.Annotation{}, err
	}

	fields := Translate(patch)
	if p.client == nil || len(fields) == 0 {
		return merged, nil
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		result, err := p.client.UpdateLicense(ctx, id, fields)
		if err != nil {
			p.logger.Warn("annotation sync failed, local state kept",
				slog.String("record_id", id),
				slog.String("error", err.Error()))
		}
		if p.onResult != nil {
			p.onResult(SyncResult{RecordID: id, Published: result.Published, Err: err})
		}
	}()
	return merged, nil
}

// Wait blocks until all scheduled syncs have finished. Used by tests and
// by graceful shutdown.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Translate maps patch fields onto the backend's external field names.
//
// Only a known subset of annotation fields has backend columns:
//
//	quantity      -> capacity
//	price         -> pricePerTon
//	status "good" -> status "Approved" (maybe/bad stay local-only)
//	licenseType, commodity, comment, contactPerson, phoneNumber pass
//	through under their camelCase names
//	Publish       -> publish (one-shot trigger, sent alongside the rest)
//
// Verification checklist, stage, and the activity log are deliberately
// local-only. An empty map means nothing needs syncing.
func Translate(patch license.Patch) map[string]any {
	fields := make(map[string]any)

	if patch.Quantity != nil {
		fields["capacity"] = *patch.Quantity
	}
	if patch.Price != nil {
		fields["pricePerTon"] = *patch.Price
	}
	if patch.Status != nil && *patch.Status == license.StatusGood {
		fields["status"] = "Approved"
	}
	if patch.LicenseType != nil {
		fields["licenseType"] = *patch.LicenseType
	}
	if patch.Commodity != nil {
		fields["commodity"] = *patch.Commodity
	}
	if patch.Comment != nil {
		fields["comment"] = *patch.Comment
	}
	if patch.ContactPerson != nil {
		fields["contactPerson"] = *patch.ContactPerson
	}
	if patch.PhoneNumber != nil {
		fields["phoneNumber"] = *patch.PhoneNumber
	}
	if patch.Publish {
		fields["publish"] = true
	}
	return fields
}
