// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream drives chat turns: it sends the new user turn with prior
// history to the remote generator and folds the streamed fragments into the
// conversation until the stream ends, fails or is cancelled.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/nova-tui/internal/attachment"
	"github.com/jeranaias/nova-tui/internal/model"
	"github.com/jeranaias/nova-tui/internal/remote"
)

// Suffixes supplies the localized text appended to unsuccessful turns.
type Suffixes interface {
	ErrorSuffix() string
	CancelledSuffix() string
}

// Observer is notified as a turn progresses. Calls happen on the goroutine
// running SendTurn, in order.
type Observer interface {
	TurnStarted(userID, modelID string)
	FragmentAppended(modelID, fragment string)
	TurnSettled(res Result)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnStart    func(userID, modelID string)
	OnFragment func(modelID, fragment string)
	OnSettle   func(res Result)
}

func (o ObserverFuncs) TurnStarted(userID, modelID string) {
	if o.OnStart != nil {
		o.OnStart(userID, modelID)
	}
}

func (o ObserverFuncs) FragmentAppended(modelID, fragment string) {
	if o.OnFragment != nil {
		o.OnFragment(modelID, fragment)
	}
}

func (o ObserverFuncs) TurnSettled(res Result) {
	if o.OnSettle != nil {
		o.OnSettle(res)
	}
}

type defaultSuffixes struct{}

func (defaultSuffixes) ErrorSuffix() string     { return "\n\n[Error: could not generate a response.]" }
func (defaultSuffixes) CancelledSuffix() string { return "\n\n[Response cancelled.]" }

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator runs at most one turn at a time against a conversation.
type Coordinator struct {
	store     *model.Conversation
	generator remote.Generator

	observer       Observer
	suffixes       Suffixes
	logger         *slog.Logger
	thinkingBudget int

	// mu serializes turn start against Cancel and guards state.
	mu    sync.Mutex
	state TurnState
	turn  *turnControl
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithObserver registers the progress observer.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// WithSuffixes sets the localized error and cancel suffixes.
func WithSuffixes(s Suffixes) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.suffixes = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithThinkingBudget overrides the per-model reasoning budget. Zero keeps the
// model default.
func WithThinkingBudget(n int) Option {
	return func(c *Coordinator) { c.thinkingBudget = n }
}

// New creates a Coordinator over store that calls generator.
func New(store *model.Conversation, generator remote.Generator, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		generator: generator,
		observer:  ObserverFuncs{},
		suffixes:  defaultSuffixes{},
		logger:    slog.Default(),
		turn:      newTurnControl(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the conversation this coordinator mutates.
func (c *Coordinator) Store() *model.Conversation {
	return c.store
}

// State returns the state of the current or most recent turn.
func (c *Coordinator) State() TurnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) setState(s TurnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// SetObserver replaces the observer. It must not be called while a turn runs.
func (c *Coordinator) SetObserver(o Observer) {
	if o == nil {
		o = ObserverFuncs{}
	}
	c.observer = o
}

// =============================================================================
// SEND TURN
// =============================================================================

// SendTurn runs one turn to its terminal state and returns its Result.
//
// A send is rejected, with no side effects, when text is blank and there are
// no images (ErrEmptyTurn), when an image is not a valid data URI
// (*attachment.InvalidAttachmentError), or when a turn is already in flight
// (model.ErrTurnInFlight). Once a turn starts, failures are reported in
// Result.Err and the error return is nil.
func (c *Coordinator) SendTurn(ctx context.Context, text string, images []string) (*Result, error) {
	if strings.TrimSpace(text) == "" && len(images) == 0 {
		return nil, ErrEmptyTurn
	}
	decoded, err := attachment.ParseAll(images)
	if err != nil {
		return nil, err
	}

	modelID := c.store.SelectedModel()
	thinking := c.store.ThinkingEnabled()

	turnCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	userMsgID, err := c.store.AppendUserMessage(text, images)
	if err != nil {
		c.mu.Unlock()
		cancel()
		return nil, err
	}
	modelMsgID, err := c.store.AppendPlaceholderModelMessage()
	if err != nil {
		c.mu.Unlock()
		cancel()
		// The user message owns the busy flag and cannot be settled without a
		// target; this only happens if another writer raced the store.
		c.logger.Error("failed to append placeholder", "error", err)
		return nil, fmt.Errorf("start turn: %w", err)
	}
	turn := c.turn.begin(cancel)
	c.state = StateAwaitingFirstFragment
	c.mu.Unlock()

	res := &Result{
		UserMessageID:  userMsgID,
		ModelMessageID: modelMsgID,
		Model:          modelID,
	}
	start := time.Now()

	c.logger.Debug("turn started", "model", modelID, "thinking", thinking, "images", len(decoded))
	c.notify(func() { c.observer.TurnStarted(userMsgID, modelMsgID) })

	req := c.buildRequest(userMsgID, text, decoded, modelID, thinking)
	streamErr := c.consume(turnCtx, modelMsgID, req, res, start)

	c.settle(turnCtx, turn, res, streamErr)
	res.Duration = time.Since(start)

	c.notify(func() { c.observer.TurnSettled(*res) })
	c.turn.end(turn)
	return res, nil
}

// buildRequest maps prior history to text-only turns and the current turn to
// inline images followed by the text.
func (c *Coordinator) buildRequest(userMsgID, text string, images []attachment.Image, modelID string, thinking bool) remote.GenerateRequest {
	history := c.store.HistoryBefore(userMsgID)
	turns := make([]remote.Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, remote.Turn{Role: string(m.Role), Text: m.Text()})
	}

	parts := make([]remote.Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, remote.InlinePart(img.MIMEType, img.Data))
	}
	parts = append(parts, remote.TextPart(text))

	req := remote.GenerateRequest{
		Model:   modelID,
		History: turns,
		Parts:   parts,
	}

	if cfg, ok := model.LookupModel(modelID); ok && thinking && cfg.SupportsThinking {
		budget := cfg.ThinkingBudget()
		if c.thinkingBudget > 0 {
			budget = c.thinkingBudget
		}
		req.ThinkingBudget = &budget
	}
	return req
}

// consume opens the stream and folds fragments into the target message.
// Panics are converted to errors so the turn still settles.
func (c *Coordinator) consume(ctx context.Context, modelMsgID string, req remote.GenerateRequest, res *Result, start time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic recovered in turn",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("panic during turn: %v", r)
		}
	}()

	fragments, err := c.generator.GenerateStream(ctx, req)
	if err != nil {
		return err
	}
	defer fragments.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fragment, err := fragments.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if fragment == "" {
			continue
		}

		if res.Fragments == 0 {
			res.FirstFragment = time.Since(start)
			c.setState(StateStreaming)
		}
		res.Fragments++

		if c.store.AppendFragment(modelMsgID, fragment) {
			c.notify(func() { c.observer.FragmentAppended(modelMsgID, fragment) })
		}
	}
}

// settle classifies the outcome and finalizes the turn in the store. The
// busy flag is cleared here on every path.
func (c *Coordinator) settle(ctx context.Context, turn *turnHandle, res *Result, streamErr error) {
	var suffix string
	switch {
	case streamErr == nil:
		res.State = StateCompleted
	case ctx.Err() != nil || c.turn.wasCancelled(turn):
		res.State = StateCancelled
		res.Err = fmt.Errorf("%w: %v", ErrCancelled, streamErr)
		suffix = c.suffixes.CancelledSuffix()
	default:
		res.State = StateFailed
		res.Err = streamErr
		suffix = c.suffixes.ErrorSuffix()
	}

	if res.Err != nil {
		c.logger.Warn("turn ended with error",
			"state", res.State.String(),
			"model", res.Model,
			"fragments", res.Fragments,
			"error", res.Err,
		)
	}

	c.store.FinalizeTurn(res.ModelMessageID, suffix)
	if msg, ok := c.store.Message(res.ModelMessageID); ok {
		res.Text = msg.Text()
	} else {
		res.Text = suffix
	}
	c.setState(res.State)
}

// notify runs an observer callback outside the turn's error path; a panicking
// observer is logged and otherwise ignored.
func (c *Coordinator) notify(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic recovered in observer", "panic", r)
		}
	}()
	fn()
}

// =============================================================================
// CANCEL AND CLEAR
// =============================================================================

// Cancel stops the in-flight turn. It returns false when no turn is running.
func (c *Coordinator) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turn.cancel()
}

// Wait blocks until the in-flight turn, if any, has settled.
func (c *Coordinator) Wait(ctx context.Context) error {
	return c.turn.wait(ctx)
}

// Clear empties the conversation. While a turn is in flight it returns
// model.ErrTurnInFlight unless force is set, in which case the turn is
// cancelled and allowed to settle first.
func (c *Coordinator) Clear(ctx context.Context, force bool) error {
	if !c.store.IsLoading() {
		return c.store.Clear(false)
	}
	if !force {
		return model.ErrTurnInFlight
	}
	c.Cancel()
	if err := c.Wait(ctx); err != nil {
		return fmt.Errorf("wait for cancelled turn: %w", err)
	}
	return c.store.Clear(true)
}
