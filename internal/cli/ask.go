// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/nova-tui/internal/remote"
	"github.com/jeranaias/nova-tui/internal/stream"
)

// maxStdinQuery caps a question piped on stdin.
const maxStdinQuery = 1 << 20

type askOutputMode int

const (
	// askStream writes fragments as they arrive.
	askStream askOutputMode = iota
	// askMarkdown collects the reply and renders it with glamour.
	askMarkdown
	askJSON
)

// askResult is the --json shape of a settled turn.
type askResult struct {
	Model           string `json:"model"`
	State           string `json:"state"`
	Text            string `json:"text"`
	Fragments       int    `json:"fragments"`
	FirstFragmentMs int64  `json:"first_fragment_ms"`
	DurationMs      int64  `json:"duration_ms"`
	Error           string `json:"error,omitempty"`
	ErrorType       string `json:"error_type,omitempty"`
}

// =============================================================================
// ASK COMMAND
// =============================================================================

// HandleAsk runs one turn and prints the reply. A failed or cancelled turn
// still prints the partial reply with its suffix, then returns the turn's
// error so the exit code reflects it.
func HandleAsk(ctx context.Context, app *App, args Args) error {
	query, err := askQuery(app, args)
	if err != nil {
		return err
	}
	for _, path := range args.Images {
		if _, err := app.Session.Attach(path); err != nil {
			return err
		}
	}
	if strings.TrimSpace(query) == "" && app.Session.Pending() == 0 {
		return &ValidationError{
			Field:   "question",
			Reason:  "nothing to ask",
			Example: `nova ask "Qual é a capital do Brasil?"`,
		}
	}

	mode := askOutputModeFor(app, args)
	coord := app.Session.Coordinator()

	var printed strings.Builder
	if mode == askStream {
		coord.SetObserver(stream.ObserverFuncs{
			OnFragment: func(_, fragment string) {
				_, _ = io.WriteString(app.Stdout, fragment)
				printed.WriteString(fragment)
			},
		})
		defer coord.SetObserver(nil)
	}

	res, err := app.Session.Send(ctx, query)
	if err != nil {
		return err
	}
	app.Logger.Info("ask settled",
		"state", res.State.String(),
		"model", res.Model,
		"fragments", res.Fragments,
		"duration", res.Duration,
	)

	switch mode {
	case askJSON:
		if err := writeAskJSON(app.Stdout, res); err != nil {
			return err
		}
	case askMarkdown:
		out, err := renderMarkdown(res.Text, renderWidth(app.Stdout, app.Config.UI.WordWrap))
		if err != nil {
			app.Logger.Warn("markdown render failed", "error", err)
			out = res.Text + "\n"
		}
		fmt.Fprint(app.Stdout, out)
	default:
		fmt.Fprintln(app.Stdout, strings.TrimPrefix(res.Text, printed.String()))
	}

	if args.Speak && res.OK() {
		speakReply(ctx, app)
	}
	if !res.OK() {
		return res.Err
	}
	return nil
}

// askQuery returns the question from the arguments, or from stdin when no
// question was given and stdin is not a terminal.
func askQuery(app *App, args Args) (string, error) {
	if args.Query != "" || app.Stdin == nil || isTerminal(app.Stdin) {
		return args.Query, nil
	}
	data, err := io.ReadAll(io.LimitReader(app.Stdin, maxStdinQuery))
	if err != nil {
		return "", fmt.Errorf("read question from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func askOutputModeFor(app *App, args Args) askOutputMode {
	switch {
	case args.JSON:
		return askJSON
	case args.Plain || !isTerminal(app.Stdout):
		return askStream
	default:
		return askMarkdown
	}
}

func writeAskJSON(w io.Writer, res *stream.Result) error {
	out := askResult{
		Model:           res.Model,
		State:           res.State.String(),
		Text:            res.Text,
		Fragments:       res.Fragments,
		FirstFragmentMs: res.FirstFragment.Milliseconds(),
		DurationMs:      res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
		var ce *remote.ClientError
		if errors.As(res.Err, &ce) {
			out.ErrorType = ce.Type.String()
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// speakReply plays the reply and waits for playback to end. Playback
// failures are logged and never fail the command.
func speakReply(ctx context.Context, app *App) {
	if err := app.Session.SpeakLast(ctx); err != nil {
		app.Logger.Warn("speak failed", "error", err)
		return
	}
	if gate := app.Session.Gate(); gate != nil {
		if err := gate.Wait(ctx); err != nil {
			app.Logger.Debug("playback wait ended", "error", err)
		}
	}
}
