// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/nova-tui/internal/commands"
	"github.com/jeranaias/nova-tui/internal/config"
	"github.com/jeranaias/nova-tui/internal/locale"
	"github.com/jeranaias/nova-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures a chat Model.
type Options struct {
	Session  *commands.Session
	Registry *commands.Registry
	Config   *config.Config
	Theme    *styles.Theme
	Logger   *slog.Logger
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctx context.Context

	// Domain
	session   *commands.Session
	registry  *commands.Registry
	completer *commands.Completer
	cfg       *config.Config
	loc       *locale.Localizer
	logger    *slog.Logger

	// Styling
	theme *styles.Theme
	keys  KeyMap

	// Components
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	speaker  spinner.Model
	help     help.Model

	// Markdown rendering; finished replies are cached by message ID.
	renderer      *glamour.TermRenderer
	rendererWidth int
	rendered      map[string]string

	// Dimensions
	width  int
	height int
	ready  bool

	// Welcome screen
	welcome      bool
	welcomeStart time.Time

	// Completion popup
	completion     commands.CompletionState
	completionBase string

	// Transient state
	notice     string
	noticeErr  bool
	clearArmed bool
	sending    bool
	cursorOn   bool
	quitting   bool
}

// New creates the chat view. ctx bounds every turn and speech request the
// view starts.
func New(ctx context.Context, opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	registry := opts.Registry
	if registry == nil {
		registry = commands.NewRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := opts.Session.Locale()
	keys := DefaultKeyMap()

	ta := textarea.New()
	ta.Placeholder = loc.Text(locale.InputPlaceholder)
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = keys.Newline
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(styles.ThinkingSpinner), spinner.WithStyle(theme.StatusBusy))
	sk := spinner.New(spinner.WithSpinner(styles.SpeakingSpinner), spinner.WithStyle(theme.StatusSpeak))

	h := help.New()
	h.Styles.ShortKey = theme.ShortcutKey
	h.Styles.ShortDesc = theme.ShortcutDesc
	h.Styles.ShortSeparator = theme.ShortcutDesc

	return Model{
		ctx:          ctx,
		session:      opts.Session,
		registry:     registry,
		completer:    opts.Session.Completer(registry),
		cfg:          cfg,
		loc:          loc,
		logger:       logger,
		theme:        theme,
		keys:         keys,
		input:        ta,
		viewport:     viewport.New(0, 0),
		spinner:      sp,
		speaker:      sk,
		help:         h,
		rendered:     make(map[string]string),
		welcome:      cfg.UI.Welcome,
		welcomeStart: time.Now(),
		cursorOn:     true,
	}
}

// Init starts the cursor, spinners and, when enabled, the landing animation.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.spinner.Tick, m.speaker.Tick, blinkTick(styles.CursorBlinkRate)}
	if m.welcome {
		cmds = append(cmds, landingTick())
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Session returns the session the view drives.
func (m Model) Session() *commands.Session { return m.session }

// Notice returns the transient status line, if any.
func (m Model) Notice() string { return m.notice }

// ShowingWelcome reports whether the landing screen is visible.
func (m Model) ShowingWelcome() bool { return m.welcome }

// InputValue returns the current contents of the input box.
func (m Model) InputValue() string { return m.input.Value() }

// Busy reports whether a turn is running or being started.
func (m Model) Busy() bool {
	return m.sending || m.session.Store().IsLoading()
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
	m.layout()
}
