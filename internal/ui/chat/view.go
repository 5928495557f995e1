// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/nova-tui/internal/attachment"
	"github.com/jeranaias/nova-tui/internal/locale"
	"github.com/jeranaias/nova-tui/internal/model"
	"github.com/jeranaias/nova-tui/internal/ui/styles"
	"github.com/jeranaias/nova-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat interface.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "\n  " + m.loc.Text(locale.StatusOnline) + "..."
	}
	if m.welcome {
		return m.renderWelcome()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderNotice(),
		m.renderInput(),
		m.renderFooter(),
	)
}

// =============================================================================
// WELCOME
// =============================================================================

func (m Model) renderWelcome() string {
	p := styles.Landing.Progress(time.Since(m.welcomeStart))
	width := min(m.width-4, 72)

	title := styles.Gradient(
		styles.Reveal(m.loc.Text(locale.WelcomeTitle), p),
		styles.GradientStart, styles.GradientEnd,
		m.theme.IsDark, m.theme.HasTrueColor,
	)
	body := m.theme.WelcomeBody.Width(width).Align(lipgloss.Center).
		Render(styles.Reveal(m.loc.Text(locale.WelcomeBody), p))

	hint := ""
	if styles.Landing.Done(time.Since(m.welcomeStart)) {
		hint = m.theme.WelcomeHint.Render(m.loc.Text(locale.WelcomeHint))
	}

	block := lipgloss.JoinVertical(lipgloss.Center,
		m.theme.WelcomeTitle.Render(title),
		"",
		body,
		"",
		hint,
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, block)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render("Nova")
	current := m.session.Store().SelectedModel()
	name := current
	if mc, ok := model.LookupModel(current); ok {
		name = mc.Name
	}
	left := brand + "  " + m.theme.HeaderModel.Render(name)
	right := m.renderStatus()

	gap := m.width - m.theme.Header.GetHorizontalFrameSize() -
		lipgloss.Width(left) - lipgloss.Width(right)
	line := left + strings.Repeat(" ", max(gap, 1)) + right
	return m.theme.Header.Width(m.width).Render(line)
}

// renderStatus shows Online, Thinking while a turn runs, or Speaking while
// audio plays.
func (m Model) renderStatus() string {
	switch {
	case m.session.Speaking():
		return m.speaker.View() + " " + m.theme.StatusSpeak.Render(m.loc.Text(locale.StatusSpeaking))
	case m.Busy():
		return m.theme.StatusBusy.Render(styles.StatusIndicators.Thinking + " " + m.loc.Text(locale.StatusThinking))
	default:
		return m.theme.StatusOnline.Render(styles.StatusIndicators.Online + " " + m.loc.Text(locale.StatusOnline))
	}
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshTranscript re-renders the conversation into the viewport, staying
// pinned to the bottom when the user has not scrolled up.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderTranscript() string {
	msgs := m.session.Store().Messages()
	if len(msgs) == 0 {
		clear(m.rendered)
		return ""
	}
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		parts = append(parts, m.renderMessage(msg))
	}
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderMessage(msg model.Message) string {
	ts := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))
	if msg.Role == model.RoleUser {
		return m.renderUserMessage(msg, ts)
	}
	return m.renderModelMessage(msg, ts)
}

func (m *Model) renderUserMessage(msg model.Message, ts string) string {
	width := m.theme.BubbleWidth()
	header := m.theme.UserAvatar.Render(msg.Role.DisplayName()) + " " + ts

	var body []string
	if msg.Content != "" {
		body = append(body, m.theme.UserBubble.Width(width).Render(msg.Content))
	}
	for i, uri := range msg.Images {
		chip := fmt.Sprintf("[%d] %s", i+1, attachment.Describe(uri))
		body = append(body, m.theme.ImageChip.Render(chip))
	}

	block := lipgloss.JoinVertical(lipgloss.Right, append([]string{header}, body...)...)
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, block)
}

func (m *Model) renderModelMessage(msg model.Message, ts string) string {
	width := m.theme.BubbleWidth()
	header := m.theme.ModelAvatar.Render(msg.Role.DisplayName()) + " " + ts

	if msg.IsStreaming && msg.IsEmpty() {
		thinking := m.spinner.View() + " " + m.theme.ThinkingText.Render(m.loc.Text(locale.ThinkingIndicator))
		return header + "\n" + thinking
	}

	content := m.markdown(msg)
	if msg.IsStreaming {
		cursor := styles.StreamingCursor[1]
		if m.cursorOn {
			cursor = styles.StreamingCursor[0]
		}
		content = strings.TrimRight(content, "\n ") + m.theme.StreamingMark.Render(cursor)
	}

	bubble := m.theme.ModelBubble
	if strings.HasSuffix(msg.Content, m.loc.ErrorSuffix()) {
		bubble = m.theme.FailedBubble
	}
	return header + "\n" + bubble.Width(width).Render(content)
}

// markdown renders a reply, caching finished ones.
func (m *Model) markdown(msg model.Message) string {
	if !msg.IsStreaming {
		if out, ok := m.rendered[msg.ID]; ok {
			return out
		}
	}
	text := msg.Text()
	out := text
	if m.renderer != nil {
		if r, err := m.renderer.Render(text); err == nil {
			out = strings.Trim(r, "\n")
		} else {
			m.logger.Debug("markdown render failed", "error", err)
		}
	}
	if !msg.IsStreaming {
		m.rendered[msg.ID] = out
	}
	return out
}

// resetRenderer rebuilds the markdown renderer when the bubble width changes.
func (m *Model) resetRenderer() {
	width := m.theme.BubbleWidth() - m.theme.ModelBubble.GetHorizontalFrameSize()
	if m.cfg.UI.WordWrap > 0 {
		width = min(width, m.cfg.UI.WordWrap)
	}
	width = max(width, 10)
	if m.renderer != nil && width == m.rendererWidth {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.logger.Warn("markdown renderer unavailable", "error", err)
		m.renderer = nil
		return
	}
	m.renderer = r
	m.rendererWidth = width
	clear(m.rendered)
}

// =============================================================================
// INPUT AND FOOTER
// =============================================================================

func (m Model) renderNotice() string {
	if m.completion.Visible {
		items := make([]string, 0, len(m.completion.Completions))
		for i, c := range m.completion.Completions {
			label := c.Display
			if label == "" {
				label = c.Value
			}
			if i == m.completion.Selected {
				items = append(items, m.theme.ShortcutKey.Render(label))
			} else {
				items = append(items, m.theme.ShortcutDesc.Render(label))
			}
		}
		return lipgloss.NewStyle().MaxWidth(m.width).Render(" " + strings.Join(items, "  "))
	}
	if m.notice == "" {
		return ""
	}
	if m.noticeErr {
		return m.theme.NoticeError.Render(" " + m.notice)
	}
	return m.theme.Notice.Render(" " + m.notice)
}

func (m Model) renderInput() string {
	frame := m.theme.InputFrame
	if !m.Busy() {
		frame = m.theme.InputFocused
	}
	return frame.Width(max(m.width-2, 10)).Render(m.input.View())
}

func (m Model) renderFooter() string {
	store := m.session.Store()
	toggle := func(label string, on bool) string {
		style := m.theme.ToggleOff
		if on {
			style = m.theme.ToggleOn
		}
		return m.theme.ShortcutDesc.Render(label+": ") + style.Render(m.loc.Toggle(on))
	}

	status := []string{toggle(m.loc.Text(locale.ThinkingLabel), store.ThinkingEnabled())}
	if mc, ok := model.LookupModel(store.SelectedModel()); ok && !mc.SupportsThinking {
		status[0] = m.theme.ToggleOff.Render(m.loc.Text(locale.ThinkingLabel) + ": -")
	}
	if n := m.session.Pending(); n > 0 {
		status = append(status, m.theme.Pending.Render(m.loc.Text(locale.AttachCount, n)))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		" "+strings.Join(status, "   "),
		" "+m.help.ShortHelpView(m.keys.ShortHelp()),
		m.theme.Disclaimer.Render(util.TruncateWidth(" "+m.loc.Text(locale.Disclaimer), m.width)),
	)
}
