// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/minedeck/pkg/license"
	"github.com/AleutianAI/minedeck/pkg/pipeline"
	"github.com/AleutianAI/minedeck/pkg/ux"
)

// withPipeline loads the workspace, runs fn through the sync pipeline,
// and waits for the background sync before the process exits.
func withPipeline(fn func(ctx context.Context, ws *workspace, p *pipeline.Pipeline) error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultCommandTimeout)
	defer cancel()

	ws, err := loadWorkspace(ctx, false)
	if err != nil {
		fail(err)
	}
	defer ws.close()

	p := pipeline.New(ws.store, ws.client, ws.logger.Slog())
	p.OnResult(func(res pipeline.SyncResult) {
		if res.Err != nil {
			ux.Warning(fmt.Sprintf("saved locally, but the backend sync failed: %v", res.Err))
			return
		}
		if res.Published {
			ux.Info(fmt.Sprintf("license %s published to the marketplace", res.RecordID))
		}
	})

	if err := fn(ctx, ws, p); err != nil {
		p.Wait()
		fail(err)
	}
	p.Wait()
}

// runMark sets or clears the prospect status on a license.
func runMark(cmd *cobra.Command, args []string) {
	id, raw := args[0], strings.ToLower(args[1])

	var status license.Status
	switch raw {
	case "good", "maybe", "bad":
		status = license.Status(raw)
	case "clear":
		status = ""
	default:
		fail(fmt.Errorf("unknown status %q: use good, maybe, bad, or clear", raw))
	}

	withPipeline(func(ctx context.Context, ws *workspace, p *pipeline.Pipeline) error {
		if _, err := p.Apply(ctx, id, license.StatusPatch(status)); err != nil {
			return err
		}
		if status == "" {
			ux.Success(fmt.Sprintf("cleared the status on %s", id))
		} else {
			ux.Success(fmt.Sprintf("marked %s as %s %s", id, ux.StatusDot(status), raw))
		}
		return nil
	})
}

// runComment sets the working comment on a license.
func runComment(cmd *cobra.Command, args []string) {
	id, text := args[0], args[1]
	withPipeline(func(ctx context.Context, ws *workspace, p *pipeline.Pipeline) error {
		if _, err := p.Apply(ctx, id, license.CommentPatch(text)); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("updated the comment on %s", id))
		return nil
	})
}

// runDeal records the negotiated quantity and price per ton. The deck
// shows quantity*price as the deal value once both are set.
func runDeal(cmd *cobra.Command, args []string) {
	id := args[0]
	quantity, err := strconv.ParseFloat(args[1], 64)
	if err != nil || quantity < 0 {
		fail(fmt.Errorf("invalid quantity %q", args[1]))
	}
	price, err := strconv.ParseFloat(args[2], 64)
	if err != nil || price < 0 {
		fail(fmt.Errorf("invalid price %q", args[2]))
	}

	withPipeline(func(ctx context.Context, ws *workspace, p *pipeline.Pipeline) error {
		patch := license.QuantityPatch(quantity)
		patch.Price = &price
		ann, err := p.Apply(ctx, id, patch)
		if err != nil {
			return err
		}
		if total, ok := ann.TotalValue(); ok {
			ux.Success(fmt.Sprintf("deal on %s now worth %.2f", id, total))
		} else {
			ux.Success(fmt.Sprintf("updated the deal terms on %s", id))
		}
		return nil
	})
}

// runNote appends a timestamped note to the license's activity log.
// Notes are local-only and never sync.
func runNote(cmd *cobra.Command, args []string) {
	id, text := args[0], args[1]
	withPipeline(func(ctx context.Context, ws *workspace, p *pipeline.Pipeline) error {
		note := license.Note{
			ID:   uuid.NewString(),
			Text: text,
			Date: time.Now(),
		}
		if _, err := ws.store.AddNote(id, note); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("noted on %s", id))
		return nil
	})
}

// runStage moves a license through the deal funnel. Any stage can move
// to any other stage; the funnel is advisory, not a state machine.
func runStage(cmd *cobra.Command, args []string) {
	id, raw := args[0], args[1]

	var stage license.Stage
	for _, s := range license.Stages() {
		if strings.EqualFold(string(s), raw) {
			stage = s
			break
		}
	}
	if stage == "" {
		fail(fmt.Errorf("unknown stage %q: use one of %v", raw, license.Stages()))
	}

	withPipeline(func(ctx context.Context, ws *workspace, p *pipeline.Pipeline) error {
		if _, err := p.Apply(ctx, id, license.StagePatch(stage)); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("moved %s to %s", id, stage))
		return nil
	})
}

// runVerify toggles one verification check on a license.
func runVerify(cmd *cobra.Command, args []string) {
	id, raw := args[0], strings.ToLower(args[1])

	var flip func(*license.Verification)
	switch raw {
	case "gov":
		flip = func(v *license.Verification) { v.GovMatch = !v.GovMatch }
	case "tax":
		flip = func(v *license.Verification) { v.TaxClearance = !v.TaxClearance }
	case "site":
		flip = func(v *license.Verification) { v.SiteVisit = !v.SiteVisit }
	case "video":
		flip = func(v *license.Verification) { v.VideoCall = !v.VideoCall }
	default:
		fail(fmt.Errorf("unknown check %q: use gov, tax, site, or video", raw))
	}

	withPipeline(func(ctx context.Context, ws *workspace, p *pipeline.Pipeline) error {
		ann, err := ws.store.ToggleVerification(id, flip)
		if err != nil {
			return err
		}
		checks := 0
		if ann.Verification != nil {
			checks = ann.Verification.Checked()
		}
		ux.Success(fmt.Sprintf("%s now passes %d/4 checks", id, checks))
		return nil
	})
}
