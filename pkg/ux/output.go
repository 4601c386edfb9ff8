// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal output styling for the MineDeck CLI.
package ux

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/minedeck/pkg/license"
)

// MineDeck color palette - gold, earth, and savanna tones
var (
	// Primary palette (brightest to darkest)
	ColorGoldBright  = lipgloss.Color("#F5C542") // Bright gold - highlights
	ColorGoldPrimary = lipgloss.Color("#D9A441") // Primary gold - main brand color
	ColorAmber       = lipgloss.Color("#C98A2D") // Amber - interactive elements
	ColorBronze      = lipgloss.Color("#A5702A") // Bronze - secondary elements
	ColorOre         = lipgloss.Color("#7D5A24") // Ore - borders, accents

	// Dark palette (backgrounds, muted elements)
	ColorSoil     = lipgloss.Color("#3E2F1C") // Soil - dark backgrounds
	ColorBasalt   = lipgloss.Color("#2B2420") // Basalt - deep backgrounds
	ColorSediment = lipgloss.Color("#57503F") // Sediment - muted text, borders

	// Semantic colors
	ColorGood    = lipgloss.Color("#4CAF50") // Green for good prospects
	ColorMaybe   = lipgloss.Color("#F4D03F") // Amber for undecided
	ColorBad     = lipgloss.Color("#E74C3C") // Red for bad prospects
	ColorSuccess = lipgloss.Color("#4CAF50")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#57503F")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	// Text styles
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	// Box styles
	Box      lipgloss.Style
	ErrorBox lipgloss.Style

	// Prospect status indicators
	StatusGood     lipgloss.Style
	StatusMaybe    lipgloss.Style
	StatusBad      lipgloss.Style
	StatusUnmarked lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorGoldBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorGoldPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSediment),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorGoldBright).Bold(true),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorOre).
		Padding(0, 1),
	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(0, 1),

	StatusGood:     lipgloss.NewStyle().SetString("●").Foreground(ColorGood),
	StatusMaybe:    lipgloss.NewStyle().SetString("●").Foreground(ColorMaybe),
	StatusBad:      lipgloss.NewStyle().SetString("●").Foreground(ColorBad),
	StatusUnmarked: lipgloss.NewStyle().SetString("○").Foreground(ColorSediment),
}

// StatusDot returns the colored marker for a prospect status.
func StatusDot(s license.Status) string {
	switch s {
	case license.StatusGood:
		return Styles.StatusGood.String()
	case license.StatusMaybe:
		return Styles.StatusMaybe.String()
	case license.StatusBad:
		return Styles.StatusBad.String()
	default:
		return Styles.StatusUnmarked.String()
	}
}

// plain reports whether styled output should be suppressed. True when
// stdout is not a terminal (piped output) or NO_COLOR is set.
func plain() bool {
	if os.Getenv("NO_COLOR") != "" {
		return true
	}
	fd := os.Stdout.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// Title prints a styled section title.
func Title(text string) {
	if plain() {
		fmt.Println(text)
		return
	}
	fmt.Println(Styles.Title.Render(text))
}

// Success prints a success message with a checkmark.
func Success(text string) {
	if plain() {
		fmt.Printf("OK: %s\n", text)
		return
	}
	fmt.Printf("%s %s\n", Styles.Success.Render("✓"), text)
}

// Warning prints a warning message to stderr.
func Warning(text string) {
	if plain() {
		fmt.Fprintf(os.Stderr, "WARN: %s\n", text)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", Styles.Warning.Render("⚠"), Styles.Warning.Render(text))
}

// Error prints an error message to stderr.
func Error(text string) {
	if plain() {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", text)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", Styles.Error.Render("✗"), Styles.Error.Render(text))
}

// Info prints an informational message.
func Info(text string) {
	if plain() {
		fmt.Println(text)
		return
	}
	fmt.Printf("%s %s\n", Styles.Muted.Render("│"), text)
}

// Muted prints secondary text. Suppressed entirely in plain mode so
// piped output stays machine-friendly.
func Muted(text string) {
	if plain() {
		return
	}
	fmt.Println(Styles.Muted.Render(text))
}

// Box prints titled content in a rounded box.
func Box(title, content string) {
	if plain() {
		fmt.Printf("%s: %s\n", title, content)
		return
	}
	boxStyle := Styles.Box.Width(64)
	fmt.Println(boxStyle.Render(Styles.Title.Render(title) + "\n" + content))
}

// KV prints an aligned key-value row for detail output.
func KV(key, value string) {
	if plain() {
		fmt.Printf("%s\t%s\n", key, value)
		return
	}
	fmt.Printf("  %s %s\n", Styles.Muted.Render(fmt.Sprintf("%-14s", key)), value)
}

// Summary prints a filter summary line with counts.
func Summary(shown, total int) {
	if plain() {
		fmt.Printf("SUMMARY: shown=%d total=%d\n", shown, total)
		return
	}
	fmt.Printf("\n%s %s %s %s\n",
		Styles.Bold.Render(fmt.Sprintf("%d", shown)), Styles.Muted.Render("shown of"),
		Styles.Bold.Render(fmt.Sprintf("%d", total)), Styles.Muted.Render("licenses"),
	)
}

// Truncate shortens s to max runes with an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
