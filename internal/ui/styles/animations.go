// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// =============================================================================
// SPINNERS
// =============================================================================

// ThinkingSpinner is shown while a turn awaits its first fragment.
var ThinkingSpinner = spinner.Spinner{
	Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
	FPS:    time.Second / 6,
}

// SpeakingSpinner pulses next to the status while audio plays.
var SpeakingSpinner = spinner.Spinner{
	Frames: []string{"( )", "(.)", "(o)", "(O)", "(o)", "(.)"},
	FPS:    time.Second / 8,
}

// StreamingCursor blinks at the end of a streaming reply.
var StreamingCursor = []string{"_", " "}

// CursorBlinkRate is the period of StreamingCursor.
var CursorBlinkRate = 530 * time.Millisecond

// =============================================================================
// EASING
// =============================================================================

// EasingFunc maps progress (0-1) to output (0-1).
type EasingFunc func(t float64) float64

// EaseLinear is constant speed.
func EaseLinear(t float64) float64 {
	return clamp01(t)
}

// EaseOutCubic decelerates to zero.
func EaseOutCubic(t float64) float64 {
	t = clamp01(t) - 1
	return t*t*t + 1
}

// EaseInOutSine accelerates then decelerates.
func EaseInOutSine(t float64) float64 {
	return -(math.Cos(math.Pi*clamp01(t)) - 1) / 2
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Transition is a timed animation from 0 to 1.
type Transition struct {
	Duration time.Duration
	Easing   EasingFunc
}

// Landing is the welcome screen reveal.
var Landing = Transition{Duration: 1200 * time.Millisecond, Easing: EaseOutCubic}

// Progress returns the eased progress after elapsed.
func (tr Transition) Progress(elapsed time.Duration) float64 {
	if tr.Duration <= 0 {
		return 1
	}
	easing := tr.Easing
	if easing == nil {
		easing = EaseLinear
	}
	return easing(float64(elapsed) / float64(tr.Duration))
}

// Done reports whether the transition has finished after elapsed.
func (tr Transition) Done(elapsed time.Duration) bool {
	return elapsed >= tr.Duration
}

// Reveal returns the leading share of text shown at progress p. It counts
// runes, so multi-byte characters are never split.
func Reveal(text string, p float64) string {
	runes := []rune(text)
	n := int(math.Round(float64(len(runes)) * clamp01(p)))
	return string(runes[:n])
}

// =============================================================================
// GRADIENT TEXT
// =============================================================================

// Gradient colors each rune of text along a blend from start to end.
// Profiles without true color get a single solid color instead.
func Gradient(text string, start, end lipgloss.AdaptiveColor, dark, trueColor bool) string {
	from, to := pick(start, dark), pick(end, dark)
	if !trueColor {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(from)).Bold(true).Render(text)
	}
	a, errA := colorful.Hex(from)
	b, errB := colorful.Hex(to)
	if errA != nil || errB != nil {
		return lipgloss.NewStyle().Bold(true).Render(text)
	}

	runes := []rune(text)
	var sb strings.Builder
	for i, r := range runes {
		t := 0.0
		if len(runes) > 1 {
			t = float64(i) / float64(len(runes)-1)
		}
		c := a.BlendLuv(b, t).Clamped()
		sb.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(c.Hex())).
			Bold(true).
			Render(string(r)))
	}
	return sb.String()
}

func pick(c lipgloss.AdaptiveColor, dark bool) string {
	if dark {
		return c.Dark
	}
	return c.Light
}
