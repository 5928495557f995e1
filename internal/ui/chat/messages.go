// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/nova-tui/internal/config"
	"github.com/jeranaias/nova-tui/internal/stream"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// TurnStartedMsg signals that the coordinator appended both turn messages.
type TurnStartedMsg struct {
	UserID  string
	ModelID string
}

// FragmentMsg asks for a transcript redraw after one or more fragments.
type FragmentMsg struct {
	ModelID string
}

// TurnSettledMsg carries the final result of a turn.
type TurnSettledMsg struct {
	Result stream.Result
}

// sendDoneMsg is returned by the command that ran Session.Send. Err is set
// only when the turn was refused before it started.
type sendDoneMsg struct {
	Err error
}

// =============================================================================
// COMMAND MESSAGES
// =============================================================================

// noticeMsg is the result of slow command work.
type noticeMsg struct {
	Text string
	Err  error
}

// speechDoneMsg marks the end of playback.
type speechDoneMsg struct{}

// =============================================================================
// UI STATE MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a configuration read after the file changed.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// landingTickMsg advances the welcome animation.
type landingTickMsg time.Time

// blinkMsg toggles the streaming cursor.
type blinkMsg time.Time
