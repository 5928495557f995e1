// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package remote defines the contracts between the chat core and the
// generative service: streamed text generation and speech synthesis.
package remote

import (
	"context"
	"io"
	"sync"
)

// Turn roles as understood by the remote service.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Turn is one prior message resent as history. History carries text only.
type Turn struct {
	Role string
	Text string
}

// Part is one piece of the current turn: inline binary data when Data is
// set, otherwise text.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// IsInline reports whether the part carries binary data.
func (p Part) IsInline() bool {
	return p.Data != nil
}

// TextPart returns a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// InlinePart returns a binary part with an explicit MIME type.
func InlinePart(mimeType string, data []byte) Part {
	return Part{MIMEType: mimeType, Data: data}
}

// GenerateRequest describes one streamed generation call.
type GenerateRequest struct {
	Model   string
	History []Turn
	Parts   []Part

	// ThinkingBudget is only set when extended reasoning was requested and the
	// model supports it.
	ThinkingBudget *int
}

// SpeechRequest describes one speech synthesis call. The output modality is
// always audio.
type SpeechRequest struct {
	Text  string
	Voice string
}

// =============================================================================
// INTERFACES
// =============================================================================

// FragmentStream is a lazy, finite, non-restartable sequence of text deltas.
// Next returns io.EOF once the sequence ends normally.
type FragmentStream interface {
	Next() (string, error)
	Close() error
}

// Generator opens streamed generation calls.
type Generator interface {
	GenerateStream(ctx context.Context, req GenerateRequest) (FragmentStream, error)
}

// Synthesizer turns text into raw mono 16-bit PCM audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
}

// =============================================================================
// SLICE STREAM
// =============================================================================

// SliceStream replays a fixed list of fragments, then Err (or io.EOF).
type SliceStream struct {
	mu        sync.Mutex
	fragments []string
	err       error
	pos       int
	closed    bool
}

// NewSliceStream creates a stream over fragments that ends with err, or
// normally when err is nil.
func NewSliceStream(fragments []string, err error) *SliceStream {
	return &SliceStream{fragments: fragments, err: err}
}

// Next returns the next fragment.
func (s *SliceStream) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", io.ErrClosedPipe
	}
	if s.pos < len(s.fragments) {
		f := s.fragments[s.pos]
		s.pos++
		return f, nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

// Close stops the stream.
func (s *SliceStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Collect drains a stream into one string. It returns the text gathered so
// far alongside any non-EOF error.
func Collect(s FragmentStream) (string, error) {
	defer s.Close()
	var out []byte
	for {
		f, err := s.Next()
		if err == io.EOF {
			return string(out), nil
		}
		if err != nil {
			return string(out), err
		}
		out = append(out, f...)
	}
}
