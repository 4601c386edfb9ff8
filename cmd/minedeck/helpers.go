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
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/minedeck/cmd/minedeck/config"
	"github.com/AleutianAI/minedeck/pkg/annotations"
	"github.com/AleutianAI/minedeck/pkg/backend"
	"github.com/AleutianAI/minedeck/pkg/license"
	"github.com/AleutianAI/minedeck/pkg/localdb"
	"github.com/AleutianAI/minedeck/pkg/logging"
	"github.com/AleutianAI/minedeck/pkg/session"
	"github.com/AleutianAI/minedeck/pkg/ux"
)

const defaultCommandTimeout = 60 * time.Second

// parseLevel maps the config level string to a logging level.
func parseLevel(s string) logging.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

// newLogger builds the process logger. quiet is set by the browse
// command so the TUI owns the terminal; file logging stays on.
func newLogger(quiet bool) *logging.Logger {
	return logging.New(logging.Config{
		Level:   parseLevel(config.Global.Logging.Level),
		LogDir:  config.Global.Logging.LogDir,
		Service: "minedeck",
		Quiet:   quiet,
	})
}

// openDB opens the local BadgerDB holding annotations and the session.
func openDB(logger *logging.Logger) (*localdb.DB, error) {
	cfg := localdb.DefaultConfig()
	cfg.Path = config.Global.Storage.DataDir
	cfg.Logger = logger.Slog()
	return localdb.Open(cfg)
}

// newClient builds a backend client and installs the saved session
// token if one exists. A missing session is not an error; the caller
// gets an unauthenticated client.
func newClient(db *localdb.DB) *backend.Client {
	client := backend.New(config.Global.Backend.BaseURL)
	if secs := config.Global.Backend.TimeoutSeconds; secs > 0 {
		client.SetHTTPClient(&http.Client{Timeout: time.Duration(secs) * time.Second})
	}
	sess, err := session.Load(db)
	if err == nil {
		client.SetToken(sess.AccessToken)
	}
	return client
}

// workspace bundles everything a command needs to work with license
// data: records from the backend, the annotation store, and the client.
type workspace struct {
	db      *localdb.DB
	store   *annotations.Store
	client  *backend.Client
	records []license.Record
	logger  *logging.Logger
}

func (w *workspace) close() {
	if w.db != nil {
		_ = w.db.Close()
	}
	if w.logger != nil {
		_ = w.logger.Close()
	}
}

// loadWorkspace opens local storage and fetches licenses, in parallel.
// Commands that only touch local annotations still work when the
// backend call fails; they get an empty record set and a warning.
func loadWorkspace(ctx context.Context, quiet bool) (*workspace, error) {
	logger := newLogger(quiet)

	db, err := openDB(logger)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("open local storage: %w", err)
	}

	ws := &workspace{db: db, logger: logger}
	ws.client = newClient(db)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		store, err := annotations.Open(db, logger.Slog())
		if err != nil {
			return fmt.Errorf("open annotations: %w", err)
		}
		ws.store = store
		return nil
	})
	g.Go(func() error {
		records, err := ws.client.Licenses(gctx)
		if err != nil {
			// Offline is a degraded mode, not a failure.
			logger.Warn("license fetch failed, continuing offline", "error", err)
			return nil
		}
		ws.records = records
		return nil
	})
	if err := g.Wait(); err != nil {
		ws.close()
		return nil, err
	}
	return ws, nil
}

// auditLog records an audit trail entry for a mutating action. Best
// effort: a lost audit row never blocks the action it describes, and
// unauthenticated sessions are simply not audited.
func auditLog(ctx context.Context, db *localdb.DB, client *backend.Client, logger *logging.Logger, action, details string) {
	sess, err := session.Load(db)
	if err != nil {
		return
	}
	if err := client.LogActivity(ctx, sess.UserID, sess.Username, action, details); err != nil {
		logger.Debug("activity log failed", "action", action, "error", err)
	}
}

// findRecord locates a record by ID in the loaded set.
func (w *workspace) findRecord(id string) (license.Record, bool) {
	for _, r := range w.records {
		if r.ID == id {
			return r, true
		}
	}
	return license.Record{}, false
}

// fail prints the error and exits non-zero. Cobra Run handlers have no
// error return, so command bodies funnel failures through here.
func fail(err error) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Type == backend.ErrConnection {
		ux.Error(fmt.Sprintf("cannot reach the backend at %s", config.Global.Backend.BaseURL))
		ux.Muted("check backend.base_url in ~/.minedeck/minedeck.yaml or MINEDECK_API_BASE")
		os.Exit(1)
	}
	ux.Error(err.Error())
	os.Exit(1)
}
