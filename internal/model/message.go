// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleModel:
		return "Gemini"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single turn entry in a conversation.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"` // data URIs, user messages only

	// Streaming state (not persisted)
	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	IsStreaming   bool            `json:"-"`
	streamContent strings.Builder `json:"-"`
}

// NewUserMessage creates a new user message. The image slice is copied.
func NewUserMessage(content string, images []string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleUser,
		Content:   content,
		Images:    cloneStrings(images),
		Timestamp: time.Now(),
	}
}

// NewModelMessage creates an empty model message ready to receive fragments.
func NewModelMessage() *Message {
	return &Message{
		ID:          generateID(),
		Role:        RoleModel,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// newModelMessageWithText creates an already finalized model message.
func newModelMessageWithText(text string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleModel,
		Content:   text,
		Timestamp: time.Now(),
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendFragment appends a fragment to a streaming message.
// Returns false if the message has already been finalized.
func (m *Message) AppendFragment(fragment string) bool {
	if !m.IsStreaming {
		return false
	}
	m.streamContent.WriteString(fragment)
	return true
}

// FinalizeStream freezes the streamed text, appending suffix first if set.
func (m *Message) FinalizeStream(suffix string) {
	if !m.IsStreaming {
		return
	}
	m.streamContent.WriteString(suffix)
	m.Content = m.streamContent.String()
	m.streamContent.Reset()
	m.IsStreaming = false
}

// Text returns the current text (streaming or final).
// Snapshots of a streaming message carry their text in Content.
func (m *Message) Text() string {
	if m.IsStreaming && m.streamContent.Len() > 0 {
		return m.streamContent.String()
	}
	return m.Content
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	content := m.Text()
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// HasImages reports whether the message carries attachments.
func (m *Message) HasImages() bool {
	return len(m.Images) > 0
}

// snapshot returns a detached copy safe to hand to readers.
func (m *Message) snapshot() Message {
	return Message{
		ID:          m.ID,
		Role:        m.Role,
		Timestamp:   m.Timestamp,
		Content:     m.Text(),
		Images:      cloneStrings(m.Images),
		IsStreaming: m.IsStreaming,
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func generateID() string {
	return uuid.NewString()
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
