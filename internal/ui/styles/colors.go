// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ZINC SURFACES AND TEXT
// =============================================================================

// Zinc950 is the darkest surface, used behind the transcript.
var Zinc950 = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#09090B"}

// Zinc900 backs the header, footer and model bubbles.
var Zinc900 = lipgloss.AdaptiveColor{Light: "#F4F4F5", Dark: "#18181B"}

// Zinc800 is used for borders and the input frame.
var Zinc800 = lipgloss.AdaptiveColor{Light: "#E4E4E7", Dark: "#27272A"}

// Zinc700 is used for inactive borders.
var Zinc700 = lipgloss.AdaptiveColor{Light: "#D4D4D8", Dark: "#3F3F46"}

var (
	// TextPrimary is body text.
	TextPrimary = lipgloss.AdaptiveColor{Light: "#18181B", Dark: "#D4D4D8"}
	// TextSecondary is labels and captions.
	TextSecondary = lipgloss.AdaptiveColor{Light: "#52525B", Dark: "#A1A1AA"}
	// TextMuted is timestamps, hints and the disclaimer.
	TextMuted = lipgloss.AdaptiveColor{Light: "#A1A1AA", Dark: "#71717A"}
	// TextInverse is text on accent backgrounds.
	TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FAFAFA"}
)

// =============================================================================
// ACCENTS
// =============================================================================

// Emerald marks the assistant: avatar, bold text and the online dot.
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// EmeraldBright is inline code inside model replies.
var EmeraldBright = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#6EE7B7"}

// Indigo marks the user avatar and user bubbles.
var Indigo = lipgloss.AdaptiveColor{Light: "#4F46E5", Dark: "#6366F1"}

// IndigoDeep is the user bubble background.
var IndigoDeep = lipgloss.AdaptiveColor{Light: "#E0E7FF", Dark: "#312E81"}

// Violet marks reasoning mode.
var Violet = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Sky marks speech playback.
var Sky = lipgloss.AdaptiveColor{Light: "#0284C7", Dark: "#38BDF8"}

// Red is errors and failed turns.
var Red = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}

// Amber is warnings such as a refused clear.
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// GradientStart and GradientEnd bound the welcome title gradient.
var (
	GradientStart = lipgloss.AdaptiveColor{Light: "#4F46E5", Dark: "#818CF8"}
	GradientEnd   = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}
)

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicatorSet holds the glyphs drawn next to status labels.
type StatusIndicatorSet struct {
	Online   string
	Thinking string
	Speaking string
	Error    string
	Warning  string
	Info     string
}

// StatusIndicators are ASCII-safe so they render in every terminal.
var StatusIndicators = StatusIndicatorSet{
	Online:   "*",
	Thinking: "~",
	Speaking: ")",
	Error:    "x",
	Warning:  "!",
	Info:     "i",
}

// =============================================================================
// QUICK RENDER HELPERS
// =============================================================================

// RenderError renders message with the error glyph in red.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Red).Render("[" + StatusIndicators.Error + "] " + message)
}

// RenderWarning renders message with the warning glyph in amber.
func RenderWarning(message string) string {
	return lipgloss.NewStyle().Foreground(Amber).Render("[" + StatusIndicators.Warning + "] " + message)
}

// RenderInfo renders a neutral notice.
func RenderInfo(message string) string {
	return lipgloss.NewStyle().Foreground(TextSecondary).Render("[" + StatusIndicators.Info + "] " + message)
}
