// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
)

type MineDeckConfig struct {
	// Backend: where the license API lives
	Backend BackendConfig `yaml:"backend"`

	// Storage: local annotation and session data
	Storage StorageConfig `yaml:"storage"`

	// Logging: file log destination for the TUI
	Logging LoggingConfig `yaml:"logging"`

	// Display: list and map presentation tuning
	Display DisplayConfig `yaml:"display"`
}

type BackendConfig struct {
	BaseURL string `yaml:"base_url"` // e.g. http://localhost:8000
	// TimeoutSeconds bounds each API call. 0 means the client default.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"` // e.g. ~/.minedeck/data
}

type LoggingConfig struct {
	Level  string `yaml:"level"`   // debug, info, warn, error
	LogDir string `yaml:"log_dir"` // e.g. ~/.minedeck/logs
}

type DisplayConfig struct {
	// PageSize is how many rows the list view reveals per "load more".
	PageSize int `yaml:"page_size"`
}

func DefaultConfig() MineDeckConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".minedeck")
	return MineDeckConfig{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000",
		},
		Storage: StorageConfig{
			DataDir: filepath.Join(base, "data"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			LogDir: filepath.Join(base, "logs"),
		},
		Display: DisplayConfig{
			PageSize: 20,
		},
	}
}
