// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/jeranaias/nova-tui/internal/attachment"
	"github.com/jeranaias/nova-tui/internal/export"
	"github.com/jeranaias/nova-tui/internal/locale"
	"github.com/jeranaias/nova-tui/internal/model"
	"github.com/jeranaias/nova-tui/internal/speech"
	"github.com/jeranaias/nova-tui/internal/stream"
)

var (
	// ErrNothingToSpeak is returned when the chosen model reply has no text.
	ErrNothingToSpeak = errors.New("no model reply to speak")

	// ErrNoSuchAttachment is returned by Detach for a position outside the queue.
	ErrNoSuchAttachment = errors.New("no such attachment")
)

// =============================================================================
// SESSION
// =============================================================================

// Session is the chat state shared by every front end: the turn
// coordinator, the playback gate and the images queued for the next turn.
type Session struct {
	coord  *stream.Coordinator
	gate   *speech.Gate
	loc    *locale.Localizer
	logger *slog.Logger

	exportOpts *export.Options

	mu      sync.Mutex
	pending []string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithExportDir sets where /export writes files.
func WithExportDir(dir string) SessionOption {
	return func(s *Session) {
		if dir != "" {
			s.exportOpts.OutputDir = dir
		}
	}
}

// WithSessionLogger sets the logger.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession creates a session. gate may be nil when speech is unavailable.
func NewSession(coord *stream.Coordinator, gate *speech.Gate, loc *locale.Localizer, opts ...SessionOption) *Session {
	if loc == nil {
		loc = locale.New("")
	}
	s := &Session{
		coord:      coord,
		gate:       gate,
		loc:        loc,
		logger:     slog.Default(),
		exportOpts: export.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Coordinator returns the turn coordinator.
func (s *Session) Coordinator() *stream.Coordinator { return s.coord }

// Store returns the conversation.
func (s *Session) Store() *model.Conversation { return s.coord.Store() }

// Gate returns the playback gate, or nil.
func (s *Session) Gate() *speech.Gate { return s.gate }

// Completer returns a completer over registry that also offers reply and
// attachment positions from this session.
func (s *Session) Completer(registry *Registry) *Completer {
	c := NewCompleter(registry)
	c.RepliesFn = s.Replies
	c.AttachmentsFn = s.Pending
	return c
}

// Locale returns the localizer.
func (s *Session) Locale() *locale.Localizer { return s.loc }

// =============================================================================
// ATTACHMENTS
// =============================================================================

// Attach reads an image file and queues it for the next turn. It returns
// the number of queued images.
func (s *Session) Attach(path string) (int, error) {
	uri, err := attachment.EncodeFile(path)
	if err != nil {
		return s.Pending(), err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, uri)
	s.logger.Debug("image queued", "path", path, "pending", len(s.pending))
	return len(s.pending), nil
}

// Pending returns the number of queued images.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// PendingImages returns a copy of the queued data URIs.
func (s *Session) PendingImages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.pending)
}

// Detach removes the queued image at position i, counting from 1, and
// returns the number still queued.
func (s *Session) Detach(i int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 1 || i > len(s.pending) {
		return len(s.pending), fmt.Errorf("detach %d of %d: %w", i, len(s.pending), ErrNoSuchAttachment)
	}
	s.pending = slices.Delete(s.pending, i-1, i)
	s.logger.Debug("image removed", "position", i, "pending", len(s.pending))
	return len(s.pending), nil
}

// ClearPending drops every queued image.
func (s *Session) ClearPending() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

// =============================================================================
// TURNS
// =============================================================================

// Send runs a turn with text and the queued images. The queue is taken when
// the send is attempted and restored if the coordinator rejects it.
func (s *Session) Send(ctx context.Context, text string) (*stream.Result, error) {
	s.mu.Lock()
	images := s.pending
	s.pending = nil
	s.mu.Unlock()

	res, err := s.coord.SendTurn(ctx, text, images)
	if err != nil {
		s.mu.Lock()
		s.pending = append(images, s.pending...)
		s.mu.Unlock()
		return nil, err
	}
	return res, nil
}

// Cancel stops the in-flight turn, reporting whether one was running.
func (s *Session) Cancel() bool {
	return s.coord.Cancel()
}

// Clear empties the conversation and the attachment queue. See
// stream.Coordinator.Clear for the force semantics.
func (s *Session) Clear(ctx context.Context, force bool) error {
	if err := s.coord.Clear(ctx, force); err != nil {
		return err
	}
	s.ClearPending()
	return nil
}

// =============================================================================
// SETTINGS
// =============================================================================

// SetModel selects the model for the next turn.
func (s *Session) SetModel(id string) error {
	return s.Store().SetSelectedModel(id)
}

// CycleModel selects the next registry model and returns its ID.
func (s *Session) CycleModel() string {
	next := model.NextModel(s.Store().SelectedModel())
	if err := s.Store().SetSelectedModel(next); err != nil {
		s.logger.Warn("model cycle failed", "model", next, "error", err)
	}
	return s.Store().SelectedModel()
}

// SetThinking sets the reasoning toggle for the next turn.
func (s *Session) SetThinking(enabled bool) {
	s.Store().SetThinkingEnabled(enabled)
}

// ToggleThinking flips the reasoning toggle and returns the new value.
func (s *Session) ToggleThinking() bool {
	enabled := !s.Store().ThinkingEnabled()
	s.Store().SetThinkingEnabled(enabled)
	return enabled
}

// =============================================================================
// SPEECH AND EXPORT
// =============================================================================

// ModelReply returns the n-th most recent model reply; n = 1 is the newest.
func (s *Session) ModelReply(n int) (model.Message, bool) {
	if n < 1 {
		return model.Message{}, false
	}
	msgs := s.Store().Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != model.RoleModel {
			continue
		}
		if n--; n == 0 {
			return msgs[i], true
		}
	}
	return model.Message{}, false
}

// Replies returns the number of model replies in the conversation.
func (s *Session) Replies() int {
	n := 0
	for _, m := range s.Store().Messages() {
		if m.Role == model.RoleModel {
			n++
		}
	}
	return n
}

// Speak reads the model reply with the given ID aloud. The gate drops the
// request silently while another playback runs.
func (s *Session) Speak(ctx context.Context, id string) error {
	if s.gate == nil {
		return fmt.Errorf("speech unavailable: %w", speech.ErrNoPlayer)
	}
	msg, ok := s.Store().Message(id)
	if !ok || msg.Role != model.RoleModel || msg.IsEmpty() || msg.IsStreaming {
		return ErrNothingToSpeak
	}
	return s.gate.Play(ctx, msg.Text())
}

// SpeakLast reads the most recent model reply aloud.
func (s *Session) SpeakLast(ctx context.Context) error {
	if s.gate == nil {
		return fmt.Errorf("speech unavailable: %w", speech.ErrNoPlayer)
	}
	msg, ok := s.ModelReply(1)
	if !ok {
		return ErrNothingToSpeak
	}
	return s.Speak(ctx, msg.ID)
}

// Speaking reports whether playback is in progress.
func (s *Session) Speaking() bool {
	return s.gate != nil && s.gate.Busy()
}

// Export writes the transcript in format ("md" or "json") and returns the
// file path.
func (s *Session) Export(format string) (string, error) {
	exporter, err := export.ForFormat(format, s.exportOpts)
	if err != nil {
		return "", err
	}
	return export.ToFile(export.FromConversation(s.Store()), exporter, s.exportOpts)
}
