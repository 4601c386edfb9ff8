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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/minedeck/pkg/ux"
)

// runFilesList prints the documents attached to a license, newest first.
func runFilesList(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultCommandTimeout)
	defer cancel()

	logger := newLogger(false)
	defer logger.Close()
	db, err := openDB(logger)
	if err != nil {
		fail(err)
	}
	defer db.Close()

	files, err := newClient(db).Files(ctx, args[0])
	if err != nil {
		fail(err)
	}
	if len(files) == 0 {
		ux.Muted("no documents attached")
		return
	}
	for _, f := range files {
		fmt.Printf("%-12s %-10s %s\n", f.ID, f.Date, f.Filename)
	}
}

// runFilesUpload attaches a local document to a license record.
func runFilesUpload(cmd *cobra.Command, args []string) {
	id, path := args[0], args[1]
	f, err := os.Open(path)
	if err != nil {
		fail(err)
	}
	defer f.Close()

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
	uploaded, err := client.UploadFile(ctx, id, filepath.Base(path), f)
	if err != nil {
		fail(err)
	}
	auditLog(ctx, db, client, logger, "upload_file", fmt.Sprintf("%s to %s", uploaded.Filename, id))
	ux.Success(fmt.Sprintf("attached %s to %s (file %s)", uploaded.Filename, id, uploaded.ID))
}

// runFilesDelete removes an attached document by file ID.
func runFilesDelete(cmd *cobra.Command, args []string) {
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
	if err := client.DeleteFile(ctx, args[0]); err != nil {
		fail(err)
	}
	auditLog(ctx, db, client, logger, "delete_file", args[0])
	ux.Success(fmt.Sprintf("removed document %s", args[0]))
}
