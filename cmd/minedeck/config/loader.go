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
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// Global is a singleton instance
	Global MineDeckConfig
	once   sync.Once
)

// Load ensures the config is loaded into the Global variable. The
// MINEDECK_API_BASE environment variable overrides backend.base_url.
func Load() error {
	var err error
	once.Do(func() {
		err = loadInternal()
	})
	return err
}

func loadInternal() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("could not find the user's home directory: %w", err)
	}
	configPath := filepath.Join(home, ".minedeck", "minedeck.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf(" First run detected, creating the config at %s\n", configPath)
		if err := createDefault(configPath); err != nil {
			return err
		}
	}
	cfg, err := LoadFrom(configPath)
	if err != nil {
		return err
	}
	Global = cfg
	return nil
}

// LoadFrom reads and parses a config file at an explicit path without
// touching the Global singleton. Environment overrides still apply.
func LoadFrom(path string) (MineDeckConfig, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse the config file: %w", err)
	}
	applyEnv(&cfg)
	if cfg.Display.PageSize <= 0 {
		cfg.Display.PageSize = DefaultConfig().Display.PageSize
	}
	return cfg, nil
}

func applyEnv(cfg *MineDeckConfig) {
	if base := os.Getenv("MINEDECK_API_BASE"); base != "" {
		cfg.Backend.BaseURL = base
	}
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
