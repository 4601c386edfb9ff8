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

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/minedeck/pkg/session"
	"github.com/AleutianAI/minedeck/pkg/ux"
)

// credentialsForm prompts for a username (unless preset) and password.
func credentialsForm(username *string, password *string) error {
	var fields []huh.Field
	if *username == "" {
		fields = append(fields, huh.NewInput().Title("Username").Value(username).
			Validate(func(s string) error {
				if s == "" {
					return fmt.Errorf("username is required")
				}
				return nil
			}))
	}
	fields = append(fields, huh.NewInput().Title("Password").
		EchoMode(huh.EchoModePassword).Value(password).
		Validate(func(s string) error {
			if s == "" {
				return fmt.Errorf("password is required")
			}
			return nil
		}))
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

// runLogin authenticates and stores the session in local storage.
func runLogin(cmd *cobra.Command, args []string) {
	var username, password string
	if len(args) == 1 {
		username = args[0]
	}
	if err := credentialsForm(&username, &password); err != nil {
		fail(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultCommandTimeout)
	defer cancel()

	logger := newLogger(false)
	defer logger.Close()
	db, err := openDB(logger)
	if err != nil {
		fail(err)
	}
	defer db.Close()

	client := newClient(db)
	sess, err := client.Login(ctx, username, password)
	if err != nil {
		fail(err)
	}
	if err := session.Save(db, sess); err != nil {
		fail(fmt.Errorf("logged in, but saving the session failed: %w", err))
	}
	auditLog(ctx, db, client, logger, "login", sess.Username)
	ux.Success(fmt.Sprintf("logged in as %s (%s)", sess.Username, sess.Role))
}

// runLogout discards the stored session.
func runLogout(cmd *cobra.Command, args []string) {
	logger := newLogger(false)
	defer logger.Close()
	db, err := openDB(logger)
	if err != nil {
		fail(err)
	}
	defer db.Close()

	if err := session.Clear(db); err != nil {
		fail(err)
	}
	ux.Success("logged out")
}

// runRegister creates a backend account. New accounts get the plain
// user role; an admin can promote them afterwards.
func runRegister(cmd *cobra.Command, args []string) {
	var username, password string
	if len(args) == 1 {
		username = args[0]
	}
	if err := credentialsForm(&username, &password); err != nil {
		fail(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultCommandTimeout)
	defer cancel()

	logger := newLogger(false)
	defer logger.Close()
	db, err := openDB(logger)
	if err != nil {
		fail(err)
	}
	defer db.Close()

	if err := newClient(db).Register(ctx, username, password, "user"); err != nil {
		fail(err)
	}
	ux.Success(fmt.Sprintf("registered %s, you can log in now", username))
}

// runWhoami shows the stored session identity without a network call.
func runWhoami(cmd *cobra.Command, args []string) {
	logger := newLogger(false)
	defer logger.Close()
	db, err := openDB(logger)
	if err != nil {
		fail(err)
	}
	defer db.Close()

	sess, err := session.Load(db)
	if errors.Is(err, session.ErrNoSession) {
		ux.Muted("not logged in")
		return
	}
	if err != nil {
		fail(err)
	}
	ux.KV("Username", sess.Username)
	ux.KV("Role", sess.Role)
	ux.KV("User ID", sess.UserID)
}
