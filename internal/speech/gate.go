// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech plays synthesized speech for model replies, one playback at
// a time.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/jeranaias/nova-tui/internal/remote"
)

// DefaultVoice is the prebuilt synthesis voice.
const DefaultVoice = "Kore"

// Player starts playback of buf and calls done exactly once when playback
// ends. Start must not block for the length of the audio.
type Player interface {
	Start(ctx context.Context, buf *Buffer, done func()) error
}

// =============================================================================
// GATE
// =============================================================================

// Gate admits at most one synthesis-and-playback cycle at a time. Calls made
// while a cycle runs are dropped without side effects.
type Gate struct {
	synth  remote.Synthesizer
	player Player

	voice      string
	sampleRate int
	logger     *slog.Logger

	mu      sync.Mutex
	busy    bool
	idle    chan struct{}
	current *Buffer
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithVoice selects the synthesis voice.
func WithVoice(voice string) GateOption {
	return func(g *Gate) {
		if voice != "" {
			g.voice = voice
		}
	}
}

// WithSampleRate sets the rate used to decode returned audio.
func WithSampleRate(rate int) GateOption {
	return func(g *Gate) {
		if rate > 0 {
			g.sampleRate = rate
		}
	}
}

// WithGateLogger sets the logger.
func WithGateLogger(l *slog.Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGate creates a playback gate.
func NewGate(synth remote.Synthesizer, player Player, opts ...GateOption) *Gate {
	g := &Gate{
		synth:      synth,
		player:     player,
		voice:      DefaultVoice,
		sampleRate: DefaultSampleRate,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Play synthesizes text and starts playback. It returns nil without doing
// anything when the gate is busy. Busy clears when playback ends, or
// immediately when cleaning, synthesis, decoding or player start fails.
func (g *Gate) Play(ctx context.Context, text string) (err error) {
	release, ok := g.acquire()
	if !ok {
		g.logger.Debug("playback busy, ignoring request")
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("panic recovered in playback",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("playback panic: %v", r)
		}
		if err != nil {
			release()
		}
	}()

	clean, err := CleanText(text)
	if err != nil {
		return err
	}

	pcm, err := g.synth.Synthesize(ctx, remote.SpeechRequest{Text: clean, Voice: g.voice})
	if err != nil {
		g.logger.Warn("speech synthesis failed", "error", err)
		return err
	}

	buf, err := DecodePCM16(pcm, g.sampleRate, DefaultChannels)
	if err != nil {
		g.logger.Warn("speech decode failed", "error", err, "bytes", len(pcm))
		return fmt.Errorf("decode speech: %w", err)
	}

	g.mu.Lock()
	g.current = buf
	g.mu.Unlock()

	if err := g.player.Start(ctx, buf, release); err != nil {
		g.logger.Warn("playback failed to start", "error", err)
		return fmt.Errorf("start playback: %w", err)
	}
	g.logger.Debug("playback started", "duration", buf.Duration())
	return nil
}

// acquire sets busy and returns an idempotent release func.
func (g *Gate) acquire() (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return nil, false
	}
	g.busy = true
	idle := make(chan struct{})
	g.idle = idle

	return sync.OnceFunc(func() {
		g.mu.Lock()
		g.busy = false
		g.current = nil
		close(idle)
		g.mu.Unlock()
	}), true
}

// Busy reports whether a cycle is running.
func (g *Gate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

// Current returns the buffer being played, or nil.
func (g *Gate) Current() *Buffer {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Wait blocks until the gate is idle or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	if !g.busy {
		g.mu.Unlock()
		return nil
	}
	idle := g.idle
	g.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
