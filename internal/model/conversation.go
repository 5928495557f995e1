// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrTurnInFlight is returned when a mutation requires an idle conversation.
	ErrTurnInFlight = errors.New("a turn is already in flight")

	// ErrNoTurnInFlight is returned when a turn-scoped call has no active turn.
	ErrNoTurnInFlight = errors.New("no turn in flight")

	// ErrUnknownModel is returned when selecting a model not in the registry.
	ErrUnknownModel = errors.New("unknown model")
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the canonical in-memory chat log plus its busy flag.
// All methods are safe for concurrent use.
type Conversation struct {
	mu sync.Mutex

	messages  []*Message
	createdAt time.Time
	updatedAt time.Time

	// Turn state. turnUser/turnTarget identify the in-flight turn while loading.
	loading    bool
	turnUser   string
	turnTarget string

	selectedModel   string
	thinkingEnabled bool

	logger *slog.Logger
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithLogger sets the logger used for dropped mutations.
func WithLogger(l *slog.Logger) ConversationOption {
	return func(c *Conversation) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithModel sets the initially selected model. Unknown IDs are ignored.
func WithModel(id string) ConversationOption {
	return func(c *Conversation) {
		if _, ok := Models[id]; ok {
			c.selectedModel = id
		}
	}
}

// WithThinking sets the initial thinking toggle.
func WithThinking(enabled bool) ConversationOption {
	return func(c *Conversation) {
		c.thinkingEnabled = enabled
	}
}

// NewConversation creates an empty conversation targeting the default model.
func NewConversation(opts ...ConversationOption) *Conversation {
	now := time.Now()
	c := &Conversation{
		messages:      make([]*Message, 0),
		createdAt:     now,
		updatedAt:     now,
		selectedModel: DefaultModel,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// TURN MUTATIONS
// =============================================================================

// AppendUserMessage appends a user message and marks the conversation busy.
// The check and the set happen under one lock, so concurrent callers cannot
// both start a turn.
func (c *Conversation) AppendUserMessage(text string, images []string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading {
		return "", ErrTurnInFlight
	}

	msg := NewUserMessage(text, images)
	c.messages = append(c.messages, msg)
	c.loading = true
	c.turnUser = msg.ID
	c.turnTarget = ""
	c.updatedAt = time.Now()
	return msg.ID, nil
}

// AppendPlaceholderModelMessage appends the empty model message for the
// in-flight turn and returns its ID.
func (c *Conversation) AppendPlaceholderModelMessage() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loading {
		return "", ErrNoTurnInFlight
	}
	if c.turnTarget != "" {
		return "", fmt.Errorf("placeholder already appended: %w", ErrTurnInFlight)
	}

	msg := NewModelMessage()
	c.messages = append(c.messages, msg)
	c.turnTarget = msg.ID
	c.updatedAt = time.Now()
	return msg.ID, nil
}

// AppendFragment concatenates fragment onto the message with the given ID.
// It only succeeds when id is the last message and still streaming; anything
// else is logged and dropped.
func (c *Conversation) AppendFragment(id, fragment string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	last := c.lastLocked()
	if last == nil || last.ID != id {
		c.logger.Warn("dropping fragment for non-tail message", "message_id", id)
		return false
	}
	if !last.AppendFragment(fragment) {
		c.logger.Warn("dropping fragment for finalized message", "message_id", id)
		return false
	}
	c.updatedAt = time.Now()
	return true
}

// FinalizeTurn settles the in-flight turn. A non-empty errorSuffix is appended
// to the target message, or carried by a new model message when the target
// was removed. The busy flag is always cleared for the owning turn.
func (c *Conversation) FinalizeTurn(id, errorSuffix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loading || id == "" || id != c.turnTarget {
		c.logger.Warn("ignoring finalize for inactive turn", "message_id", id)
		return
	}

	if msg := c.findLocked(id); msg != nil {
		msg.FinalizeStream(errorSuffix)
	} else if errorSuffix != "" {
		c.messages = append(c.messages, newModelMessageWithText(errorSuffix))
	}

	c.loading = false
	c.turnUser = ""
	c.turnTarget = ""
	c.updatedAt = time.Now()
}

// Clear removes all messages. While a turn is in flight it fails with
// ErrTurnInFlight unless force is set; a forced clear leaves the turn itself
// running so that its finalize still clears the busy flag.
func (c *Conversation) Clear(force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading && !force {
		return ErrTurnInFlight
	}
	c.messages = make([]*Message, 0)
	c.updatedAt = time.Now()
	return nil
}

// =============================================================================
// SETTINGS
// =============================================================================

// SelectedModel returns the model the next turn will target.
func (c *Conversation) SelectedModel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedModel
}

// SetSelectedModel changes the model for subsequent turns.
func (c *Conversation) SetSelectedModel(id string) error {
	if _, ok := Models[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	c.mu.Lock()
	c.selectedModel = id
	c.mu.Unlock()
	return nil
}

// ThinkingEnabled reports whether the next turn requests a reasoning budget.
func (c *Conversation) ThinkingEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thinkingEnabled
}

// SetThinkingEnabled toggles extended reasoning for subsequent turns.
func (c *Conversation) SetThinkingEnabled(enabled bool) {
	c.mu.Lock()
	c.thinkingEnabled = enabled
	c.mu.Unlock()
}

// =============================================================================
// READ ACCESS
// =============================================================================

// IsLoading reports whether a turn is in flight.
func (c *Conversation) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Messages returns a snapshot of the log in display order.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.snapshot()
	}
	return out
}

// Message returns a snapshot of the message with the given ID.
func (c *Conversation) Message(id string) (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m := c.findLocked(id); m != nil {
		return m.snapshot(), true
	}
	return Message{}, false
}

// HistoryBefore returns snapshots of every message preceding id.
// If id is not present the whole log is returned.
func (c *Conversation) HistoryBefore(id string) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	end := len(c.messages)
	for i, m := range c.messages {
		if m.ID == id {
			end = i
			break
		}
	}
	out := make([]Message, end)
	for i := 0; i < end; i++ {
		out[i] = c.messages[i].snapshot()
	}
	return out
}

// LastModelMessage returns the most recent finalized model message with text.
func (c *Conversation) LastModelMessage() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.messages) - 1; i >= 0; i-- {
		m := c.messages[i]
		if m.Role == RoleModel && !m.IsStreaming && !m.IsEmpty() {
			return m.snapshot(), true
		}
	}
	return Message{}, false
}

// UpdatedAt returns the time of the last mutation.
func (c *Conversation) UpdatedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updatedAt
}

// CreatedAt returns when the conversation was created.
func (c *Conversation) CreatedAt() time.Time {
	return c.createdAt
}

func (c *Conversation) lastLocked() *Message {
	if len(c.messages) == 0 {
		return nil
	}
	return c.messages[len(c.messages)-1]
}

func (c *Conversation) findLocked(id string) *Message {
	for _, m := range c.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}
