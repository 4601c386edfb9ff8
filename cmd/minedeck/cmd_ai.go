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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/minedeck/pkg/ux"
)

// Analysis can take a while; give it more room than ordinary calls.
const aiTimeout = 3 * time.Minute

// runAI sends a question about the license data to the backend's
// analyst model and prints the answer.
func runAI(cmd *cobra.Command, args []string) {
	query := strings.Join(args, " ")

	ctx, cancel := context.WithTimeout(context.Background(), aiTimeout)
	defer cancel()

	logger := newLogger(false)
	defer logger.Close()
	db, err := openDB(logger)
	if err != nil {
		fail(err)
	}
	defer db.Close()

	ux.Muted("asking the analyst model...")
	analysis, err := newClient(db).Analyze(ctx, query)
	if err != nil {
		fail(err)
	}
	ux.Box("Analysis", analysis)
}
