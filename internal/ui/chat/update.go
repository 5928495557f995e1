// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/nova-tui/internal/attachment"
	"github.com/jeranaias/nova-tui/internal/commands"
	"github.com/jeranaias/nova-tui/internal/locale"
	"github.com/jeranaias/nova-tui/internal/model"
	"github.com/jeranaias/nova-tui/internal/remote"
	"github.com/jeranaias/nova-tui/internal/stream"
	"github.com/jeranaias/nova-tui/internal/ui/styles"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles every message delivered to the chat view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		if m.welcome {
			// Any key dismisses the landing screen.
			m.welcome = false
			return m, nil
		}
		return m.handleKey(msg)

	case landingTickMsg:
		if !m.welcome || styles.Landing.Done(time.Since(m.welcomeStart)) {
			return m, nil
		}
		return m, landingTick()

	case blinkMsg:
		m.cursorOn = !m.cursorOn
		if m.session.Store().IsLoading() {
			m.refreshTranscript()
		}
		return m, blinkTick(styles.CursorBlinkRate)

	case spinner.TickMsg:
		var cmd tea.Cmd
		switch msg.ID {
		case m.speaker.ID():
			m.speaker, cmd = m.speaker.Update(msg)
		default:
			m.spinner, cmd = m.spinner.Update(msg)
			if m.session.Store().IsLoading() {
				m.refreshTranscript()
			}
		}
		return m, cmd

	case TurnStartedMsg:
		m.welcome = false
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case FragmentMsg:
		m.refreshTranscript()
		return m, nil

	case TurnSettledMsg:
		return m.handleSettled(msg.Result)

	case sendDoneMsg:
		m.sending = false
		if msg.Err != nil {
			m.handleSendError(msg.Err)
		}
		m.refreshTranscript()
		return m, nil

	case noticeMsg:
		if msg.Err != nil {
			m.setNotice(msg.Err.Error(), true)
		} else if msg.Text != "" {
			m.setNotice(msg.Text, false)
		}
		m.refreshTranscript()
		if m.session.Speaking() {
			return m, waitSpeech(m.ctx, m.session)
		}
		return m, nil

	case speechDoneMsg:
		return m, nil

	case ConfigReloadedMsg:
		return m.handleConfigReload(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	m.input.SetWidth(max(msg.Width-4, 10))
	m.help.Width = msg.Width

	m.viewport.Width = msg.Width
	m.ready = true
	m.layout()

	m.resetRenderer()
	m.refreshTranscript()
	return m, nil
}

// chromeHeight is the number of rows used by everything except the transcript.
func (m Model) chromeHeight() int {
	// header(2) + notice + input frame(height+2) + footer(3)
	return 2 + m.noticeHeight() + m.input.Height() + 2 + 3
}

func (m Model) noticeHeight() int {
	if m.completion.Visible || m.notice == "" {
		return 1
	}
	return lipgloss.Height(m.notice)
}

// layout fits the transcript into the rows left over by the chrome.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.Height = max(m.height-m.chromeHeight(), 1)
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Clear) {
		m.clearArmed = false
	}
	if !key.Matches(msg, m.keys.Complete) {
		m.completion.Clear()
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.session.Cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.session.Cancel() {
			m.setNotice(m.loc.Text(locale.CancelDone), false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Thinking):
		return m.execute("/think")

	case key.Matches(msg, m.keys.Model):
		id := m.session.CycleModel()
		m.setNotice(m.loc.Text(locale.ModelChanged, modelName(id)), false)
		return m, nil

	case key.Matches(msg, m.keys.Speak):
		return m.execute("/speak")

	case key.Matches(msg, m.keys.Clear):
		return m.handleClear()

	case key.Matches(msg, m.keys.Complete):
		return m.handleComplete()

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleClear refuses the first press while a reply streams and arms a
// forced clear for the next one.
func (m Model) handleClear() (tea.Model, tea.Cmd) {
	if m.clearArmed {
		m.clearArmed = false
		return m.execute("/clear force")
	}
	if m.Busy() {
		m.clearArmed = true
	}
	return m.execute("/clear")
}

func (m Model) handleComplete() (tea.Model, tea.Cmd) {
	if m.completion.Visible {
		m.completion.Next()
	} else {
		m.completionBase = m.input.Value()
		m.completion.Update(m.completer.Complete(m.completionBase, len(m.completionBase)))
		if !m.completion.Visible {
			return m, nil
		}
	}
	if comp, ok := m.completion.Selection(); ok {
		m.input.SetValue(commands.Apply(m.completionBase, comp))
		m.input.CursorEnd()
	}
	if len(m.completion.Completions) == 1 {
		m.completion.Clear()
	}
	return m, nil
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	raw := m.input.Value()
	text := strings.TrimSpace(raw)

	if commands.IsCommand(text) {
		m.input.Reset()
		return m.execute(text)
	}
	if text == "" && m.session.Pending() == 0 {
		return m, nil
	}
	if m.Busy() {
		return m, nil
	}

	m.input.Reset()
	m.sending = true
	m.welcome = false
	m.setNotice("", false)
	return m, sendTurn(m.ctx, m.session, raw)
}

// =============================================================================
// COMMANDS
// =============================================================================

// execute runs a slash command. Slow work is scheduled as a tea.Cmd so the
// event loop keeps draining observer messages while it runs.
func (m Model) execute(input string) (tea.Model, tea.Cmd) {
	out, err := m.registry.Execute(m.session, input)
	if err != nil {
		var unknown *commands.UnknownCommandError
		if errors.As(err, &unknown) {
			m.setNotice(m.loc.Text(locale.UnknownCommand, unknown.Name), true)
		} else {
			m.setNotice(err.Error(), true)
		}
		return m, nil
	}

	switch {
	case out.Help:
		m.setNotice(m.loc.Text(locale.HelpTitle)+"\n"+m.registry.HelpText(), false)
	case out.Notice != "":
		m.setNotice(out.Notice, false)
	}
	if out.Quit {
		m.quitting = true
		m.session.Cancel()
		return m, tea.Quit
	}
	if out.Run != nil {
		return m, runOutcome(m.ctx, out.Run)
	}
	return m, nil
}

func runOutcome(ctx context.Context, run func(context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		text, err := run(ctx)
		return noticeMsg{Text: text, Err: err}
	}
}

func sendTurn(ctx context.Context, s *commands.Session, text string) tea.Cmd {
	return func() tea.Msg {
		_, err := s.Send(ctx, text)
		return sendDoneMsg{Err: err}
	}
}

func waitSpeech(ctx context.Context, s *commands.Session) tea.Cmd {
	gate := s.Gate()
	if gate == nil {
		return nil
	}
	return func() tea.Msg {
		_ = gate.Wait(ctx)
		return speechDoneMsg{}
	}
}

// =============================================================================
// TURN RESULTS
// =============================================================================

func (m Model) handleSettled(res stream.Result) (tea.Model, tea.Cmd) {
	m.clearArmed = false
	delete(m.rendered, res.ModelMessageID)

	switch {
	case res.State == stream.StateFailed && remote.IsConfiguration(res.Err):
		m.setNotice(m.loc.Text(locale.MissingAPIKey), true)
	case res.State == stream.StateFailed && res.Err != nil:
		m.setNotice(res.Err.Error(), true)
	}
	m.refreshTranscript()
	return m, nil
}

func (m *Model) handleSendError(err error) {
	var invalid *attachment.InvalidAttachmentError
	switch {
	case errors.Is(err, stream.ErrEmptyTurn), errors.Is(err, context.Canceled):
	case errors.As(err, &invalid):
		m.setNotice(m.loc.Text(locale.AttachFailed, err), true)
	default:
		m.setNotice(err.Error(), true)
	}
}

func (m Model) handleConfigReload(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	cfg := msg.Config
	if cfg == nil {
		return m, nil
	}
	if err := m.session.SetModel(cfg.DefaultModel); err != nil {
		m.logger.Warn("reloaded model rejected", "model", cfg.DefaultModel, "error", err)
	}
	m.session.SetThinking(cfg.ThinkingEnabled)
	m.cfg = cfg
	m.setNotice(m.loc.Text(locale.ConfigReloaded), false)
	return m, nil
}

func modelName(id string) string {
	if mc, ok := model.LookupModel(id); ok {
		return mc.Name
	}
	return id
}
