// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components of the chat screen. It records the
// terminal's color capability so views can degrade gracefully.
type Theme struct {
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header       lipgloss.Style
	HeaderBrand  lipgloss.Style
	HeaderModel  lipgloss.Style
	StatusOnline lipgloss.Style
	StatusBusy   lipgloss.Style
	StatusSpeak  lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	UserAvatar    lipgloss.Style
	ModelAvatar   lipgloss.Style
	UserBubble    lipgloss.Style
	ModelBubble   lipgloss.Style
	FailedBubble  lipgloss.Style
	Timestamp     lipgloss.Style
	ImageChip     lipgloss.Style
	ThinkingText  lipgloss.Style
	StreamingMark lipgloss.Style

	// ==========================================================================
	// INPUT AND FOOTER
	// ==========================================================================

	InputFrame   lipgloss.Style
	InputFocused lipgloss.Style
	Pending      lipgloss.Style
	ToggleOn     lipgloss.Style
	ToggleOff    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Disclaimer   lipgloss.Style
	Notice       lipgloss.Style
	NoticeError  lipgloss.Style

	// ==========================================================================
	// WELCOME
	// ==========================================================================

	WelcomeTitle lipgloss.Style
	WelcomeBody  lipgloss.Style
	WelcomeHint  lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	profile := termenv.ColorProfile()
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(Zinc900).
		Foreground(TextPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Zinc800).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary)
	t.HeaderModel = lipgloss.NewStyle().Foreground(TextSecondary)
	t.StatusOnline = lipgloss.NewStyle().Foreground(Emerald)
	t.StatusBusy = lipgloss.NewStyle().Foreground(Violet)
	t.StatusSpeak = lipgloss.NewStyle().Foreground(Sky)

	t.UserAvatar = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Indigo).
		Padding(0, 1)
	t.ModelAvatar = lipgloss.NewStyle().
		Bold(true).
		Foreground(Zinc950).
		Background(Emerald).
		Padding(0, 1)
	t.UserBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(IndigoDeep).
		Padding(0, 1)
	t.ModelBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Zinc800).
		Padding(0, 1)
	t.FailedBubble = t.ModelBubble.BorderForeground(Red)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
	t.ImageChip = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)
	t.ThinkingText = lipgloss.NewStyle().Foreground(Violet).Italic(true)
	t.StreamingMark = lipgloss.NewStyle().Foreground(Emerald).Bold(true)

	t.InputFrame = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Zinc700).
		Padding(0, 1)
	t.InputFocused = t.InputFrame.BorderForeground(Emerald)
	t.Pending = lipgloss.NewStyle().Foreground(Indigo)
	t.ToggleOn = lipgloss.NewStyle().Foreground(Violet).Bold(true)
	t.ToggleOff = lipgloss.NewStyle().Foreground(TextMuted)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(TextSecondary).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)
	t.Disclaimer = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.Notice = lipgloss.NewStyle().Foreground(Amber)
	t.NoticeError = lipgloss.NewStyle().Foreground(Red)

	t.WelcomeTitle = lipgloss.NewStyle().Bold(true)
	t.WelcomeBody = lipgloss.NewStyle().Foreground(TextSecondary)
	t.WelcomeHint = lipgloss.NewStyle().Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// BubbleWidth returns the maximum width of a message bubble.
func (t *Theme) BubbleWidth() int {
	switch t.GetLayoutMode() {
	case LayoutNarrow:
		return max(t.Width-4, 10)
	case LayoutMedium:
		return t.Width * 85 / 100
	default:
		return t.Width * 75 / 100
	}
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)
