// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the nova chat screen.

All colors are Lip Gloss AdaptiveColors so light and dark terminals both
read well. The dark palette follows a zinc neutral scale with emerald for
the assistant, indigo for the user, violet for reasoning mode and red for
failures.

# Theme

NewTheme builds every style once; the chat view holds a single *Theme and
calls SetSize on resize. BubbleWidth narrows message bubbles on wide
terminals so long replies stay readable.

# Animations

Spinners are bubbles/spinner definitions. Transition and Reveal drive the
welcome screen: the title is revealed rune by rune with EaseOutCubic and
drawn with Gradient when the terminal supports true color.
*/
package styles
