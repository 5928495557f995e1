// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/nova-tui/internal/model"
	"github.com/jeranaias/nova-tui/internal/ui/styles"
	"github.com/jeranaias/nova-tui/internal/util"
)

// init honors NO_COLOR, FORCE_COLOR and TTY detection for every style below.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for headers such as the usage banner.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Emerald)

	// PromptStyle is the REPL prompt label.
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Indigo)

	// ModelLabelStyle prefixes streamed replies in the REPL.
	ModelLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Emerald)

	SuccessStyle = lipgloss.NewStyle().Foreground(styles.Emerald)
	ErrorStyle   = lipgloss.NewStyle().Foreground(styles.Red).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(styles.Amber)
	InfoStyle    = lipgloss.NewStyle().Foreground(styles.Sky)
	DimStyle     = lipgloss.NewStyle().Foreground(styles.TextMuted)
)

// RenderConditional renders text with style if colors are enabled,
// otherwise returns the text unmodified.
func RenderConditional(style lipgloss.Style, text string) string {
	if !ColorsEnabled() {
		return text
	}
	return style.Render(text)
}

// modelList renders the registry for the usage text, one model per line.
func modelList() string {
	var sb strings.Builder
	for _, id := range model.ModelIDs() {
		cfg, _ := model.LookupModel(id)
		marker := " "
		if id == model.DefaultModel {
			marker = "*"
		}
		fmt.Fprintf(&sb, "  %s %s  %s  %s\n",
			marker,
			util.PadRight(id, 26),
			util.PadRight(cfg.Name, 11),
			cfg.CapabilitiesString())
	}
	return strings.TrimRight(sb.String(), "\n")
}
