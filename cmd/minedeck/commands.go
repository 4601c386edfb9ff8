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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/minedeck/cmd/minedeck/config"
	"github.com/AleutianAI/minedeck/pkg/ux"
)

// --- Global Command Variables ---
var (
	filterCountry   []string
	filterCommodity []string
	filterType      []string
	filterStatus    []string
	searchQuery     string
	sortKey         string
	outputJSON      bool
	activityLimit   int
	activityUserID  int
	deleteForce     bool
	deleteFiltered  bool
	userRole        string
	userPassword    string

	rootCmd = &cobra.Command{
		Use:   "minedeck",
		Short: "A terminal deck for prospecting mining licenses",
		Long: `MineDeck browses, annotates, and manages mining license records.
				Licenses come from a backend API; your notes, statuses, and deal
				stages stay on this machine and sync opportunistically.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := config.Load(); err != nil {
				ux.Error(fmt.Sprintf("config: %v", err))
				os.Exit(1)
			}
		},
	}

	// --- Browse (TUI) ---
	browseCmd = &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive map/list/kanban deck",
		Run:   runBrowse, // Defined in cmd_browse.go
	}

	// --- Licenses ---
	licensesCmd = &cobra.Command{
		Use:     "licenses",
		Short:   "Inspect and manage license records",
		Aliases: []string{"lic"},
	}
	licensesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List licenses with the same filters the deck uses",
		Run:   runLicensesList, // Defined in cmd_licenses.go
	}
	licensesShowCmd = &cobra.Command{
		Use:   "show [license_id]",
		Short: "Show one license with its local annotation dossier",
		Args:  cobra.ExactArgs(1),
		Run:   runLicensesShow, // Defined in cmd_licenses.go
	}
	licensesCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a license record through a guided form",
		Run:   runLicensesCreate, // Defined in cmd_licenses.go
	}
	licensesDeleteCmd = &cobra.Command{
		Use:   "delete [license_id...]",
		Short: "Delete licenses by ID, or the whole filtered view with --filtered",
		Args:  cobra.ArbitraryArgs,
		Run:   runLicensesDelete, // Defined in cmd_licenses.go
	}
	licensesExportCmd = &cobra.Command{
		Use:   "export [file]",
		Short: "Export all licenses to CSV (default licenses_export.csv)",
		Args:  cobra.MaximumNArgs(1),
		Run:   runLicensesExport, // Defined in cmd_licenses.go
	}
	licensesTemplateCmd = &cobra.Command{
		Use:   "template [file]",
		Short: "Download the CSV import template",
		Args:  cobra.MaximumNArgs(1),
		Run:   runLicensesTemplate, // Defined in cmd_licenses.go
	}
	licensesImportCmd = &cobra.Command{
		Use:   "import [file.csv]",
		Short: "Bulk import licenses from a CSV file",
		Args:  cobra.ExactArgs(1),
		Run:   runLicensesImport, // Defined in cmd_licenses.go
	}

	licensesFilesCmd = &cobra.Command{
		Use:   "files",
		Short: "Manage documents attached to a license",
	}
	filesListCmd = &cobra.Command{
		Use:   "list [license_id]",
		Short: "List the documents attached to a license",
		Args:  cobra.ExactArgs(1),
		Run:   runFilesList, // Defined in cmd_files.go
	}
	filesUploadCmd = &cobra.Command{
		Use:   "upload [license_id] [file]",
		Short: "Attach a local document to a license",
		Args:  cobra.ExactArgs(2),
		Run:   runFilesUpload, // Defined in cmd_files.go
	}
	filesDeleteCmd = &cobra.Command{
		Use:   "delete [file_id]",
		Short: "Remove an attached document",
		Args:  cobra.ExactArgs(1),
		Run:   runFilesDelete, // Defined in cmd_files.go
	}

	// --- Annotations ---
	markCmd = &cobra.Command{
		Use:   "mark [license_id] [good|maybe|bad|clear]",
		Short: "Mark a license as a good, maybe, or bad prospect",
		Args:  cobra.ExactArgs(2),
		Run:   runMark, // Defined in cmd_annotate.go
	}
	commentCmd = &cobra.Command{
		Use:   "comment [license_id] [text]",
		Short: "Set the working comment on a license",
		Args:  cobra.ExactArgs(2),
		Run:   runComment, // Defined in cmd_annotate.go
	}
	dealCmd = &cobra.Command{
		Use:   "deal [license_id] [quantity] [price_per_ton]",
		Short: "Record the negotiated quantity and price on a license",
		Args:  cobra.ExactArgs(3),
		Run:   runDeal, // Defined in cmd_annotate.go
	}
	noteCmd = &cobra.Command{
		Use:   "note [license_id] [text]",
		Short: "Append a timestamped note to a license's activity log",
		Args:  cobra.ExactArgs(2),
		Run:   runNote, // Defined in cmd_annotate.go
	}
	stageCmd = &cobra.Command{
		Use:   "stage [license_id] [stage]",
		Short: "Move a license to a deal stage (New, Contacted, Diligence, Verified, Closed)",
		Args:  cobra.ExactArgs(2),
		Run:   runStage, // Defined in cmd_annotate.go
	}
	verifyCmd = &cobra.Command{
		Use:   "verify [license_id] [check]",
		Short: "Toggle a verification check (gov, tax, site, video)",
		Args:  cobra.ExactArgs(2),
		Run:   runVerify, // Defined in cmd_annotate.go
	}

	// --- Auth ---
	authCmd = &cobra.Command{
		Use:   "auth",
		Short: "Manage your backend session",
	}
	loginCmd = &cobra.Command{
		Use:   "login [username]",
		Short: "Log in to the backend and store the session locally",
		Args:  cobra.MaximumNArgs(1),
		Run:   runLogin, // Defined in cmd_auth.go
	}
	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session",
		Run:   runLogout, // Defined in cmd_auth.go
	}
	registerCmd = &cobra.Command{
		Use:   "register [username]",
		Short: "Create a backend account",
		Args:  cobra.MaximumNArgs(1),
		Run:   runRegister, // Defined in cmd_auth.go
	}
	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session identity",
		Run:   runWhoami, // Defined in cmd_auth.go
	}

	// --- Admin ---
	usersCmd = &cobra.Command{
		Use:   "users",
		Short: "Administer backend user accounts (admin only)",
	}
	usersListCmd = &cobra.Command{
		Use:   "list",
		Short: "List backend users",
		Run:   runUsersList, // Defined in cmd_admin.go
	}
	usersUpdateCmd = &cobra.Command{
		Use:   "update [user_id]",
		Short: "Change a user's role or password",
		Args:  cobra.ExactArgs(1),
		Run:   runUsersUpdate, // Defined in cmd_admin.go
	}
	usersDeleteCmd = &cobra.Command{
		Use:   "delete [user_id]",
		Short: "Delete a backend user",
		Args:  cobra.ExactArgs(1),
		Run:   runUsersDelete, // Defined in cmd_admin.go
	}
	activityCmd = &cobra.Command{
		Use:   "activity",
		Short: "Show the backend activity trail",
		Run:   runActivity, // Defined in cmd_admin.go
	}

	// --- AI ---
	aiCmd = &cobra.Command{
		Use:   "ai [query]",
		Short: "Ask the backend's analyst model about the license data",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAI, // Defined in cmd_ai.go
	}
)

func init() {
	rootCmd.AddCommand(browseCmd)

	rootCmd.AddCommand(licensesCmd)
	licensesCmd.AddCommand(licensesListCmd)
	licensesListCmd.Flags().StringSliceVar(&filterCountry, "country", nil, "Filter by country (repeatable)")
	licensesListCmd.Flags().StringSliceVar(&filterCommodity, "commodity", nil, "Filter by commodity (repeatable)")
	licensesListCmd.Flags().StringSliceVar(&filterType, "type", nil, "Filter by license type (repeatable)")
	licensesListCmd.Flags().StringSliceVar(&filterStatus, "status", nil, "Filter by prospect status: good, maybe, bad, unmarked")
	licensesListCmd.Flags().StringVarP(&searchQuery, "search", "s", "", "Match against company, type, commodity, and comments")
	licensesListCmd.Flags().StringVar(&sortKey, "sort", "company", "Sort by company, status, commodity, or date")
	licensesListCmd.Flags().BoolVar(&outputJSON, "json", false, "Emit the derived rows as JSON")

	licensesCmd.AddCommand(licensesShowCmd)
	licensesCmd.AddCommand(licensesCreateCmd)
	licensesCmd.AddCommand(licensesDeleteCmd)
	licensesDeleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Skip the confirmation prompt")
	licensesDeleteCmd.Flags().BoolVar(&deleteFiltered, "filtered", false, "Delete every license matching the filter flags")
	licensesDeleteCmd.Flags().StringSliceVar(&filterCountry, "country", nil, "Filter by country (repeatable)")
	licensesDeleteCmd.Flags().StringSliceVar(&filterCommodity, "commodity", nil, "Filter by commodity (repeatable)")
	licensesDeleteCmd.Flags().StringSliceVar(&filterType, "type", nil, "Filter by license type (repeatable)")
	licensesDeleteCmd.Flags().StringSliceVar(&filterStatus, "status", nil, "Filter by prospect status: good, maybe, bad, unmarked")
	licensesDeleteCmd.Flags().StringVar(&searchQuery, "search", "", "Match against company, type, commodity, and comments")
	licensesCmd.AddCommand(licensesExportCmd)
	licensesCmd.AddCommand(licensesTemplateCmd)
	licensesCmd.AddCommand(licensesImportCmd)
	licensesCmd.AddCommand(licensesFilesCmd)
	licensesFilesCmd.AddCommand(filesListCmd)
	licensesFilesCmd.AddCommand(filesUploadCmd)
	licensesFilesCmd.AddCommand(filesDeleteCmd)

	rootCmd.AddCommand(markCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(dealCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(verifyCmd)

	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(whoamiCmd)

	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersUpdateCmd)
	usersUpdateCmd.Flags().StringVar(&userRole, "role", "", "New role: admin or user")
	usersUpdateCmd.Flags().StringVar(&userPassword, "password", "", "New password")
	usersCmd.AddCommand(usersDeleteCmd)

	rootCmd.AddCommand(activityCmd)
	activityCmd.Flags().IntVar(&activityLimit, "limit", 50, "Maximum rows to fetch")
	activityCmd.Flags().IntVar(&activityUserID, "user", 0, "Only rows for this user ID")

	rootCmd.AddCommand(aiCmd)
}
