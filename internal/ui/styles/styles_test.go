// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestPaletteDefined(t *testing.T) {
	colors := map[string]lipgloss.AdaptiveColor{
		"Zinc950": Zinc950, "Zinc900": Zinc900, "Zinc800": Zinc800,
		"Emerald": Emerald, "Indigo": Indigo, "Violet": Violet,
		"Red": Red, "Amber": Amber, "Sky": Sky,
	}
	for name, c := range colors {
		assert.True(t, strings.HasPrefix(c.Light, "#"), name)
		assert.True(t, strings.HasPrefix(c.Dark, "#"), name)
	}
}

func TestEasing(t *testing.T) {
	tests := []struct {
		name string
		fn   EasingFunc
	}{
		{"linear", EaseLinear},
		{"out-cubic", EaseOutCubic},
		{"in-out-sine", EaseInOutSine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, 0, tt.fn(0), 1e-9)
			assert.InDelta(t, 1, tt.fn(1), 1e-9)
			assert.InDelta(t, 1, tt.fn(2), 1e-9, "clamped above")
			assert.InDelta(t, 0, tt.fn(-1), 1e-9, "clamped below")
		})
	}
	assert.Greater(t, EaseOutCubic(0.5), 0.5)
}

func TestTransition(t *testing.T) {
	tr := Transition{Duration: time.Second, Easing: EaseLinear}
	assert.InDelta(t, 0.5, tr.Progress(500*time.Millisecond), 1e-9)
	assert.False(t, tr.Done(999*time.Millisecond))
	assert.True(t, tr.Done(time.Second))

	assert.Equal(t, 1.0, Transition{}.Progress(0))
}

func TestReveal(t *testing.T) {
	assert.Equal(t, "", Reveal("Olá", 0))
	assert.Equal(t, "Ol", Reveal("Olá", 0.6))
	assert.Equal(t, "Olá", Reveal("Olá", 1))
	assert.Equal(t, "Olá", Reveal("Olá", 5))
}

func TestGradient_KeepsText(t *testing.T) {
	out := Gradient("Nova", GradientStart, GradientEnd, true, true)
	assert.Contains(t, ansi.Strip(out), "Nova")

	solid := Gradient("Nova", GradientStart, GradientEnd, false, false)
	assert.Contains(t, ansi.Strip(solid), "Nova")
}

func TestThemeLayout(t *testing.T) {
	th := NewTheme()
	th.SetSize(50, 20)
	assert.Equal(t, LayoutNarrow, th.GetLayoutMode())
	assert.Equal(t, 46, th.BubbleWidth())

	th.SetSize(80, 20)
	assert.Equal(t, LayoutMedium, th.GetLayoutMode())
	assert.Equal(t, 68, th.BubbleWidth())

	th.SetSize(120, 20)
	assert.Equal(t, LayoutWide, th.GetLayoutMode())
	assert.Equal(t, 90, th.BubbleWidth())
}

func TestRenderHelpers(t *testing.T) {
	assert.Contains(t, ansi.Strip(RenderError("falhou")), "[x] falhou")
	assert.Contains(t, ansi.Strip(RenderWarning("cuidado")), "[!] cuidado")
	assert.Contains(t, ansi.Strip(RenderInfo("ok")), "[i] ok")
}
