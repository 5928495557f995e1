// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"sync"
)

// =============================================================================
// TURN CONTROL (THREAD-SAFE)
// =============================================================================

// turnHandle is the cancel function and completion signal of one turn.
// Fields are guarded by the owning turnControl's mutex.
type turnHandle struct {
	cancelFunc context.CancelFunc
	done       chan struct{}
	cancelled  bool
	ended      bool
}

// turnControl tracks the turn in flight. Cancel and Clear are called from UI
// goroutines while SendTurn runs on its own, so all access goes through the
// mutex. Each turn owns its handle: a turn that is still winding down can
// only release its own context, never the next turn's.
type turnControl struct {
	mu      sync.Mutex
	current *turnHandle
}

func newTurnControl() *turnControl {
	return &turnControl{}
}

// begin registers a new turn and makes it the cancel target.
func (tc *turnControl) begin(fn context.CancelFunc) *turnHandle {
	h := &turnHandle{cancelFunc: fn, done: make(chan struct{})}
	tc.mu.Lock()
	tc.current = h
	tc.mu.Unlock()
	return h
}

// cancel stops the current turn. Safe to call with no turn.
func (tc *turnControl) cancel() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	h := tc.current
	if h == nil || h.ended {
		return false
	}
	h.cancelled = true
	h.cancelFunc()
	return true
}

// wasCancelled reports whether cancel ran during h.
func (tc *turnControl) wasCancelled(h *turnHandle) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return h.cancelled
}

// end releases h's context and wakes its waiters. The current target is
// only reset if it is still h.
func (tc *turnControl) end(h *turnHandle) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if h.ended {
		return
	}
	h.ended = true
	h.cancelFunc()
	close(h.done)
	if tc.current == h {
		tc.current = nil
	}
}

// wait blocks until the current turn ends or ctx is done.
func (tc *turnControl) wait(ctx context.Context) error {
	tc.mu.Lock()
	var done chan struct{}
	if tc.current != nil {
		done = tc.current.done
	}
	tc.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
