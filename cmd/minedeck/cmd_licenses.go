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
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/minedeck/pkg/backend"
	"github.com/AleutianAI/minedeck/pkg/derive"
	"github.com/AleutianAI/minedeck/pkg/license"
	"github.com/AleutianAI/minedeck/pkg/ux"
)

// runLicensesList renders the same derived view the deck shows, on stdout.
func runLicensesList(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultCommandTimeout)
	defer cancel()

	ws, err := loadWorkspace(ctx, false)
	if err != nil {
		fail(err)
	}
	defer ws.close()

	criteria := derive.Criteria{
		Search:       searchQuery,
		Sort:         derive.SortKey(sortKey),
		Countries:    filterCountry,
		Commodities:  filterCommodity,
		LicenseTypes: filterType,
		Statuses:     filterStatus,
	}
	ann := ws.store.All()
	rows := derive.View(ws.records, ann, criteria)

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			fail(err)
		}
		return
	}

	for _, r := range rows {
		a := ann[r.ID]
		fmt.Printf("%s %-12s %-28s %-12s %-14s %s\n",
			ux.StatusDot(a.Status),
			r.ID,
			ux.Truncate(r.Company, 28),
			ux.Truncate(license.EffectiveCommodity(r, a), 12),
			ux.Truncate(license.EffectiveCountry(r), 14),
			ux.Truncate(license.EffectiveLicenseType(r, a), 20),
		)
	}
	ux.Summary(len(rows), len(ws.records))
}

// runLicensesShow prints one license with its full local dossier.
func runLicensesShow(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultCommandTimeout)
	defer cancel()

	ws, err := loadWorkspace(ctx, false)
	if err != nil {
		fail(err)
	}
	defer ws.close()

	r, ok := ws.findRecord(args[0])
	if !ok {
		fail(fmt.Errorf("license %q not found", args[0]))
	}
	a := ws.store.Get(r.ID)

	ux.Title(r.Company)
	ux.KV("ID", r.ID)
	ux.KV("Country", license.EffectiveCountry(r))
	ux.KV("Region", r.Region)
	ux.KV("Commodity", license.EffectiveCommodity(r, a))
	ux.KV("Type", license.EffectiveLicenseType(r, a))
	ux.KV("Date", r.Date)
	ux.KV("Contact", license.EffectiveContact(r, a))
	ux.KV("Phone", license.EffectivePhone(r, a))
	if r.HasCoordinates() {
		ux.KV("Position", fmt.Sprintf("%.4f, %.4f", *r.Lat, *r.Lng))
	}

	ux.Title("Dossier")
	status := string(a.Status)
	if status == "" {
		status = license.StatusUnmarked
	}
	ux.KV("Status", fmt.Sprintf("%s %s", ux.StatusDot(a.Status), status))
	ux.KV("Stage", string(a.EffectiveStage()))
	if a.Comment != "" {
		ux.KV("Comment", a.Comment)
	}
	if a.Quantity > 0 {
		ux.KV("Quantity", strconv.FormatFloat(a.Quantity, 'f', -1, 64)+" t")
	}
	if a.Price > 0 {
		ux.KV("Price", strconv.FormatFloat(a.Price, 'f', -1, 64)+" /t")
	}
	if total, ok := a.TotalValue(); ok {
		ux.KV("Deal value", strconv.FormatFloat(total, 'f', 2, 64))
	}
	checks := 0
	if a.Verification != nil {
		checks = a.Verification.Checked()
	}
	ux.KV("Verified", fmt.Sprintf("%d/4 checks", checks))
	for _, note := range a.ActivityLog {
		ux.Muted(fmt.Sprintf("  %s  %s", note.Date.Format("2006-01-02 15:04"), note.Text))
	}
}

// runLicensesCreate walks a guided form and posts the new record.
func runLicensesCreate(cmd *cobra.Command, args []string) {
	var (
		req    backend.CreateLicenseRequest
		latStr string
		lngStr string
	)
	req.Country = license.FallbackCountry

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Company").Value(&req.Company).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("company is required")
					}
					return nil
				}),
			huh.NewInput().Title("Country").Value(&req.Country),
			huh.NewInput().Title("Region").Value(&req.Region),
			huh.NewInput().Title("License type").Value(&req.LicenseType),
			huh.NewInput().Title("Commodity").Value(&req.Commodity),
		),
		huh.NewGroup(
			huh.NewInput().Title("Contact person").Value(&req.ContactPerson),
			huh.NewInput().Title("Phone number").Value(&req.PhoneNumber),
			huh.NewInput().Title("Latitude (optional)").Value(&latStr),
			huh.NewInput().Title("Longitude (optional)").Value(&lngStr),
		),
	)
	if err := form.Run(); err != nil {
		fail(err)
	}
	if latStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			fail(fmt.Errorf("invalid latitude %q", latStr))
		}
		req.Lat = &lat
	}
	if lngStr != "" {
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			fail(fmt.Errorf("invalid longitude %q", lngStr))
		}
		req.Lng = &lng
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
	record, err := client.CreateLicense(ctx, req)
	if err != nil {
		fail(err)
	}
	auditLog(ctx, db, client, logger, "create_license", record.Company)
	ux.Success(fmt.Sprintf("created license %s for %s", record.ID, record.Company))
}

// confirmDeletion prompts unless --force was given.
func confirmDeletion(n int) bool {
	if deleteForce {
		return true
	}
	var confirmed bool
	prompt := huh.NewConfirm().
		Title(fmt.Sprintf("Delete %d license(s) from the backend?", n)).
		Value(&confirmed)
	if err := prompt.Run(); err != nil {
		fail(err)
	}
	return confirmed
}

// runLicensesDelete removes licenses by ID, or with --filtered removes
// everything the filter flags match, in one batch call.
func runLicensesDelete(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultCommandTimeout)
	defer cancel()

	if deleteFiltered {
		ws, err := loadWorkspace(ctx, false)
		if err != nil {
			fail(err)
		}
		defer ws.close()

		criteria := derive.Criteria{
			Search:       searchQuery,
			Countries:    filterCountry,
			Commodities:  filterCommodity,
			LicenseTypes: filterType,
			Statuses:     filterStatus,
		}
		rows := derive.View(ws.records, ws.store.All(), criteria)
		if len(rows) == 0 {
			ux.Muted("nothing matches the filters")
			return
		}
		ids := make([]string, len(rows))
		for i, r := range rows {
			ids[i] = r.ID
		}
		if !confirmDeletion(len(ids)) {
			ux.Muted("aborted")
			return
		}
		count, err := ws.client.BatchDelete(ctx, ids)
		if err != nil {
			fail(err)
		}
		auditLog(ctx, ws.db, ws.client, ws.logger, "batch_delete", fmt.Sprintf("%d filtered licenses", count))
		ux.Success(fmt.Sprintf("deleted %d licenses", count))
		return
	}

	if len(args) == 0 {
		fail(fmt.Errorf("pass license IDs, or --filtered to delete the filtered view"))
	}
	if !confirmDeletion(len(args)) {
		ux.Muted("aborted")
		return
	}

	logger := newLogger(false)
	defer logger.Close()
	db, err := openDB(logger)
	if err != nil {
		fail(err)
	}
	defer db.Close()
	client := newClient(db)

	if len(args) == 1 {
		if err := client.DeleteLicense(ctx, args[0]); err != nil {
			fail(err)
		}
		auditLog(ctx, db, client, logger, "delete_license", args[0])
		ux.Success(fmt.Sprintf("deleted license %s", args[0]))
		return
	}
	count, err := client.BatchDelete(ctx, args)
	if err != nil {
		fail(err)
	}
	auditLog(ctx, db, client, logger, "batch_delete", fmt.Sprintf("%d licenses", count))
	ux.Success(fmt.Sprintf("deleted %d licenses", count))
}

// runLicensesExport streams the backend CSV export to a file.
func runLicensesExport(cmd *cobra.Command, args []string) {
	path := "licenses_export.csv"
	if len(args) == 1 {
		path = args[0]
	}
	downloadTo(path, func(ctx context.Context, client *backend.Client, f *os.File) error {
		return client.Export(ctx, f)
	})
	ux.Success(fmt.Sprintf("exported licenses to %s", path))
}

// runLicensesTemplate downloads the CSV import template.
func runLicensesTemplate(cmd *cobra.Command, args []string) {
	path := "license_template.csv"
	if len(args) == 1 {
		path = args[0]
	}
	downloadTo(path, func(ctx context.Context, client *backend.Client, f *os.File) error {
		return client.Template(ctx, f)
	})
	ux.Success(fmt.Sprintf("wrote template to %s", path))
}

func downloadTo(path string, fetch func(context.Context, *backend.Client, *os.File) error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultCommandTimeout)
	defer cancel()

	logger := newLogger(false)
	defer logger.Close()
	db, err := openDB(logger)
	if err != nil {
		fail(err)
	}
	defer db.Close()

	f, err := os.Create(path)
	if err != nil {
		fail(err)
	}
	defer f.Close()

	if err := fetch(ctx, newClient(db), f); err != nil {
		_ = os.Remove(path)
		fail(err)
	}
}

// runLicensesImport uploads a CSV file for bulk import.
func runLicensesImport(cmd *cobra.Command, args []string) {
	f, err := os.Open(args[0])
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
	count, err := client.Import(ctx, args[0], f)
	if err != nil {
		fail(err)
	}
	auditLog(ctx, db, client, logger, "import_csv", fmt.Sprintf("%d rows from %s", count, args[0]))
	ux.Success(fmt.Sprintf("imported %d licenses", count))
}
