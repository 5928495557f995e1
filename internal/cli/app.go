// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/nova-tui/internal/commands"
	"github.com/jeranaias/nova-tui/internal/config"
	"github.com/jeranaias/nova-tui/internal/model"
)

// App bundles what the command-line front ends need.
type App struct {
	Config  *config.Config
	Session *commands.Session
	Logger  *slog.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewApp creates an App writing to the process's standard streams.
func NewApp(cfg *config.Config, session *commands.Session, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		Config:  cfg,
		Session: session,
		Logger:  logger,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// ApplyArgs applies the per-run model and thinking flags to store.
func ApplyArgs(store *model.Conversation, args Args) error {
	if args.Model != "" {
		if err := store.SetSelectedModel(args.Model); err != nil {
			return &ValidationError{
				Field:   "model",
				Value:   args.Model,
				Reason:  "not a known model",
				Example: "nova --model " + model.ModelPro,
			}
		}
	}
	switch {
	case args.Think && args.NoThink:
		return NewValidationError("thinking", "", "--think and --no-think are mutually exclusive")
	case args.Think:
		store.SetThinkingEnabled(true)
	case args.NoThink:
		store.SetThinkingEnabled(false)
	}
	return nil
}

// renderMarkdown renders text for a terminal of the given width.
func renderMarkdown(text string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	return r.Render(text)
}
