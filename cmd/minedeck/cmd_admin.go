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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/minedeck/pkg/backend"
	"github.com/AleutianAI/minedeck/pkg/ux"
)

// runUsersList lists backend accounts. Requires an admin session.
func runUsersList(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultCommandTimeout)
	defer cancel()

	logger := newLogger(false)
	defer logger.Close()
	db, err := openDB(logger)
	if err != nil {
		fail(err)
	}
	defer db.Close()

	users, err := newClient(db).Users(ctx)
	if err != nil {
		fail(err)
	}
	for _, u := range users {
		fmt.Printf("%-8s %-20s %-8s %s\n", u.ID, u.Username, u.Role, u.CreatedAt)
	}
}

// runUsersDelete removes a backend account.
func runUsersDelete(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultCommandTimeout)
	defer cancel()

	logger := newLogger(false)
	defer logger.Close()
	db, err := openDB(logger)
	if err != nil {
		fail(err)
	}
	defer db.Close()

	if err := newClient(db).DeleteUser(ctx, args[0]); err != nil {
		fail(err)
	}
	ux.Success(fmt.Sprintf("deleted user %s", args[0]))
}

// runUsersUpdate applies a partial account update from the flags that
// were actually set.
func runUsersUpdate(cmd *cobra.Command, args []string) {
	var update backend.UserUpdate
	if cmd.Flags().Changed("role") {
		if userRole != "admin" && userRole != "user" {
			fail(fmt.Errorf("unknown role %q: use admin or user", userRole))
		}
		update.Role = &userRole
	}
	if cmd.Flags().Changed("password") {
		update.Password = &userPassword
	}
	if update.Role == nil && update.Password == nil {
		fail(fmt.Errorf("nothing to update: pass --role or --password"))
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

	if err := newClient(db).UpdateUser(ctx, args[0], update); err != nil {
		fail(err)
	}
	ux.Success(fmt.Sprintf("updated user %s", args[0]))
}

// runActivity prints the backend audit trail, newest first.
func runActivity(cmd *cobra.Command, args []string) {
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

	var entries []backend.ActivityEntry
	if activityUserID > 0 {
		entries, err = client.UserActivityLogs(ctx, strconv.Itoa(activityUserID))
	} else {
		entries, err = client.ActivityLogs(ctx, activityLimit)
	}
	if err != nil {
		fail(err)
	}
	for _, entry := range entries {
		fmt.Printf("%-20s %-16s %-24s %s\n",
			entry.Timestamp, entry.Username, entry.Action, ux.Truncate(entry.Details, 48))
	}
	if len(entries) == 0 {
		ux.Muted("no activity recorded")
	}
}
