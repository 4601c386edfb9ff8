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
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/minedeck/cmd/minedeck/config"
	"github.com/AleutianAI/minedeck/cmd/minedeck/internal/tui"
	"github.com/AleutianAI/minedeck/pkg/annotations"
	"github.com/AleutianAI/minedeck/pkg/pipeline"
)

// runBrowse starts the interactive deck. The TUI owns the terminal, so
// the logger runs quiet and writes to the log directory only.
func runBrowse(cmd *cobra.Command, args []string) {
	logger := newLogger(true)
	defer logger.Close()

	db, err := openDB(logger)
	if err != nil {
		fail(err)
	}
	defer db.Close()

	store, err := annotations.Open(db, logger.Slog())
	if err != nil {
		fail(err)
	}
	client := newClient(db)
	pipe := pipeline.New(store, client, logger.Slog())

	model := tui.New(store, pipe, client, logger.Slog(), tui.Config{
		PageSize: config.Global.Display.PageSize,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fail(err)
	}
	// Let in-flight syncs land before the process exits.
	pipe.Wait()
}
