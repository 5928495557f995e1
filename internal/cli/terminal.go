// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// fder is implemented by *os.File.
type fder interface {
	Fd() uintptr
}

// isTerminal reports whether stream is a file attached to a terminal.
// Buffers and pipes used in tests are never terminals.
func isTerminal(stream any) bool {
	f, ok := stream.(fder)
	return ok && term.IsTerminal(int(f.Fd()))
}

// =============================================================================
// TERMINAL WIDTH
// =============================================================================

const (
	// DefaultTerminalWidth is used when the output is not a terminal.
	DefaultTerminalWidth = 80

	// MinTerminalWidth keeps rendered markdown readable on tiny panes.
	MinTerminalWidth = 40
)

// terminalWidth returns the column count of stream, or DefaultTerminalWidth.
func terminalWidth(stream any) int {
	f, ok := stream.(fder)
	if !ok {
		return DefaultTerminalWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return max(width, MinTerminalWidth)
}

// renderWidth is the markdown wrap width for stream: its width capped at
// the configured word wrap.
func renderWidth(stream any, wordWrap int) int {
	w := terminalWidth(stream)
	if wordWrap > 0 && wordWrap < w {
		return wordWrap
	}
	return w
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

var colorProfile = sync.OnceValue(func() termenv.Profile {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return termenv.Ascii
	case os.Getenv("FORCE_COLOR") != "":
		return termenv.TrueColor
	case !isTerminal(os.Stdout):
		return termenv.Ascii
	}
	return termenv.ColorProfile()
})

// ColorsEnabled reports whether styled output should be written to stdout.
// NO_COLOR wins over FORCE_COLOR, which wins over TTY detection.
func ColorsEnabled() bool {
	return colorProfile() != termenv.Ascii
}

// GetColorProfile returns the profile lipgloss renders with.
func GetColorProfile() termenv.Profile {
	return colorProfile()
}
