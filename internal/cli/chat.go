// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/nova-tui/internal/commands"
	"github.com/jeranaias/nova-tui/internal/config"
	"github.com/jeranaias/nova-tui/internal/locale"
	"github.com/jeranaias/nova-tui/internal/model"
	"github.com/jeranaias/nova-tui/internal/remote"
	"github.com/jeranaias/nova-tui/internal/stream"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineEditor provides line editing, history and tab completion.
type lineEditor struct {
	line        *liner.State
	historyFile string
}

func newLineEditor(completer *commands.Completer, historyFile string) *lineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabPrints)
	line.SetCompleter(completer.Lines)

	e := &lineEditor{line: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return e
}

// Prompt reads one line; non-blank input is added to history.
func (e *lineEditor) Prompt(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (e *lineEditor) Close() {
	defer e.line.Close()
	if e.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(e.historyFile), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = e.line.WriteHistory(f)
}

func historyPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "chat_history")
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChat runs the line-based chat loop until /quit, Ctrl+C at the
// prompt or end of input. Ctrl+C while a reply streams cancels the reply.
func HandleChat(ctx context.Context, app *App, args Args) error {
	registry := commands.NewRegistry()
	editor := newLineEditor(app.Session.Completer(registry), historyPath())
	defer editor.Close()

	loc := app.Session.Locale()
	if !args.Quiet {
		printChatWelcome(app)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case <-sigCh:
				if app.Session.Cancel() {
					app.Logger.Debug("reply cancelled by interrupt")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		input, err := editor.Prompt(chatPrompt(app.Session.Pending()))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(app.Stdout)
				fmt.Fprintln(app.Stdout, RenderConditional(DimStyle, loc.Text(locale.Goodbye)))
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		switch {
		case input == "":
			continue
		case commands.IsCommand(input):
			if quit := runSlashCommand(ctx, app, registry, input); quit {
				return nil
			}
		default:
			sendChatLine(ctx, app, input)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func chatPrompt(pending int) string {
	if pending > 0 {
		return fmt.Sprintf("nova [+%d]> ", pending)
	}
	return "nova> "
}

// runSlashCommand executes input and reports whether the loop should end.
func runSlashCommand(ctx context.Context, app *App, registry *commands.Registry, input string) bool {
	loc := app.Session.Locale()
	out, err := registry.Execute(app.Session, input)
	if err != nil {
		var unknown *commands.UnknownCommandError
		if errors.As(err, &unknown) {
			err = errors.New(loc.Text(locale.UnknownCommand, unknown.Name))
		}
		DisplayError(app.Stderr, err, false)
		return false
	}

	if out.Help {
		fmt.Fprintln(app.Stdout, RenderConditional(TitleStyle, loc.Text(locale.HelpTitle)))
		fmt.Fprintln(app.Stdout, registry.HelpText())
	}
	if out.Notice != "" {
		fmt.Fprintln(app.Stdout, RenderConditional(InfoStyle, out.Notice))
	}
	if out.Run != nil {
		notice, err := out.Run(ctx)
		if err != nil {
			DisplayError(app.Stderr, err, false)
		} else if notice != "" {
			fmt.Fprintln(app.Stdout, RenderConditional(SuccessStyle, notice))
		}
	}
	return out.Quit
}

// sendChatLine streams one reply to stdout.
func sendChatLine(ctx context.Context, app *App, input string) {
	loc := app.Session.Locale()
	coord := app.Session.Coordinator()

	var printed strings.Builder
	coord.SetObserver(stream.ObserverFuncs{
		OnStart: func(_, _ string) {
			fmt.Fprint(app.Stdout, RenderConditional(ModelLabelStyle, model.RoleModel.DisplayName()+": "))
		},
		OnFragment: func(_, fragment string) {
			_, _ = io.WriteString(app.Stdout, fragment)
			printed.WriteString(fragment)
		},
	})
	defer coord.SetObserver(nil)

	res, err := app.Session.Send(ctx, input)
	if err != nil {
		DisplayError(app.Stderr, err, false)
		return
	}

	if rest := strings.TrimPrefix(res.Text, printed.String()); rest != "" {
		style := WarningStyle
		if res.State == stream.StateFailed {
			style = ErrorStyle
		}
		fmt.Fprint(app.Stdout, RenderConditional(style, rest))
	}
	fmt.Fprintln(app.Stdout)
	fmt.Fprintln(app.Stdout)

	if res.State == stream.StateFailed && remote.IsConfiguration(res.Err) {
		fmt.Fprintln(app.Stderr, RenderConditional(WarningStyle, loc.Text(locale.MissingAPIKey)))
	}
}

func printChatWelcome(app *App) {
	loc := app.Session.Locale()
	store := app.Session.Store()
	cfg, _ := model.LookupModel(store.SelectedModel())

	fmt.Fprintln(app.Stdout)
	fmt.Fprintln(app.Stdout, RenderConditional(TitleStyle, loc.Text(locale.WelcomeTitle)))
	fmt.Fprintln(app.Stdout, RenderConditional(DimStyle, loc.Text(locale.WelcomeBody)))
	fmt.Fprintf(app.Stdout, "%s %s (%s)  %s %s\n",
		RenderConditional(DimStyle, loc.Text(locale.ModelLabel)+":"),
		cfg.Name, store.SelectedModel(),
		RenderConditional(DimStyle, loc.Text(locale.ThinkingLabel)+":"),
		loc.Toggle(store.ThinkingEnabled()))
	fmt.Fprintln(app.Stdout, RenderConditional(DimStyle, "/help  /attach  /model  /think  /speak  /export  /quit"))
	fmt.Fprintln(app.Stdout)
}
