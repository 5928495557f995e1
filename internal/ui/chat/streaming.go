// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/jeranaias/nova-tui/internal/stream"
)

// =============================================================================
// OBSERVER BRIDGE
// =============================================================================

// Bridge forwards coordinator events into a Bubble Tea program.
//
// Fragments arrive far faster than a terminal can redraw, so FragmentMsg is
// sampled at most once per interval. TurnSettledMsg is always delivered and
// triggers the final redraw, which covers any fragment the sampler dropped.
//
// The callbacks run on the goroutine executing the turn, never on the
// program's event loop.
type Bridge struct {
	send    func(tea.Msg)
	refresh *rate.Sometimes
}

// NewBridge returns a bridge that delivers messages through send, normally
// (*tea.Program).Send. An interval of zero redraws on every fragment.
func NewBridge(send func(tea.Msg), interval time.Duration) *Bridge {
	b := &Bridge{send: send}
	if interval > 0 {
		b.refresh = &rate.Sometimes{Interval: interval}
	}
	return b
}

// Observer adapts the bridge to the coordinator's observer interface.
func (b *Bridge) Observer() stream.Observer {
	return stream.ObserverFuncs{
		OnStart: func(userID, modelID string) {
			b.send(TurnStartedMsg{UserID: userID, ModelID: modelID})
		},
		OnFragment: func(modelID, _ string) {
			msg := FragmentMsg{ModelID: modelID}
			if b.refresh == nil {
				b.send(msg)
				return
			}
			b.refresh.Do(func() { b.send(msg) })
		},
		OnSettle: func(res stream.Result) {
			b.send(TurnSettledMsg{Result: res})
		},
	}
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// landingTick schedules the next frame of the welcome animation.
func landingTick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg {
		return landingTickMsg(t)
	})
}

// blinkTick schedules the next streaming cursor toggle.
func blinkTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return blinkMsg(t)
	})
}
