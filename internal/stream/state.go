// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"time"
)

var (
	// ErrEmptyTurn rejects a send with neither text nor images.
	ErrEmptyTurn = errors.New("empty turn: no text and no images")

	// ErrCancelled marks a turn stopped by Cancel, Clear or the caller's context.
	ErrCancelled = errors.New("turn cancelled")
)

// =============================================================================
// TURN STATE
// =============================================================================

// TurnState is the lifecycle position of a turn.
type TurnState int

const (
	StateIdle TurnState = iota
	StateAwaitingFirstFragment
	StateStreaming
	StateCompleted
	StateFailed
	StateCancelled
)

// String returns the state name.
func (s TurnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingFirstFragment:
		return "awaiting-first-fragment"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends a turn.
func (s TurnState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// InFlight reports whether a turn is between start and settle.
func (s TurnState) InFlight() bool {
	return s == StateAwaitingFirstFragment || s == StateStreaming
}

// =============================================================================
// RESULT
// =============================================================================

// Result describes a settled turn.
type Result struct {
	UserMessageID  string
	ModelMessageID string
	Model          string

	State TurnState
	// Text is the model message as finalized, including any error suffix.
	Text string
	// Err is the terminal error for failed and cancelled turns.
	Err error

	Fragments     int
	FirstFragment time.Duration // time to first fragment
	Duration      time.Duration
}

// OK reports whether the turn completed normally.
func (r *Result) OK() bool {
	return r.State == StateCompleted
}
