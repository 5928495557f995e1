// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/nova-tui/internal/locale"
	"github.com/jeranaias/nova-tui/internal/model"
)

// =============================================================================
// HANDLERS
// =============================================================================

func handleHelp(_ *Session, _ []string) (Outcome, error) {
	return Outcome{Help: true}, nil
}

func handleQuit(s *Session, _ []string) (Outcome, error) {
	return Outcome{Quit: true, Notice: s.loc.Text(locale.Goodbye)}, nil
}

func handleModel(s *Session, args []string) (Outcome, error) {
	if len(args) == 0 {
		id := s.Store().SelectedModel()
		cfg, _ := model.LookupModel(id)
		return Outcome{Notice: fmt.Sprintf("%s: %s (%s, %s)",
			s.loc.Text(locale.ModelLabel), id, cfg.Name, cfg.CapabilitiesString())}, nil
	}
	if err := s.SetModel(args[0]); err != nil {
		return Outcome{}, err
	}
	return Outcome{Notice: s.loc.Text(locale.ModelChanged, args[0])}, nil
}

func handleThink(s *Session, args []string) (Outcome, error) {
	var enabled bool
	if len(args) == 0 {
		enabled = s.ToggleThinking()
	} else {
		enabled = strings.EqualFold(args[0], "on")
		s.SetThinking(enabled)
	}
	return Outcome{Notice: s.loc.Text(locale.ThinkingChanged, s.loc.Toggle(enabled))}, nil
}

func handleAttach(s *Session, args []string) (Outcome, error) {
	n, err := s.Attach(strings.Join(args, " "))
	if err != nil {
		return Outcome{}, errors.New(s.loc.Text(locale.AttachFailed, err))
	}
	return Outcome{Notice: s.loc.Text(locale.AttachCount, n)}, nil
}

func handleCancel(s *Session, _ []string) (Outcome, error) {
	if s.Cancel() {
		return Outcome{Notice: s.loc.Text(locale.CancelDone)}, nil
	}
	return Outcome{Notice: s.loc.Text(locale.CancelNothing)}, nil
}

func handleClear(s *Session, args []string) (Outcome, error) {
	force := len(args) > 0 && strings.EqualFold(args[0], "force")
	if !force && s.Store().IsLoading() {
		return Outcome{Notice: s.loc.Text(locale.ClearBlocked)}, nil
	}
	return Outcome{Run: func(ctx context.Context) (string, error) {
		if err := s.Clear(ctx, force); err != nil {
			if errors.Is(err, model.ErrTurnInFlight) {
				return s.loc.Text(locale.ClearBlocked), nil
			}
			return "", err
		}
		return s.loc.Text(locale.ClearDone), nil
	}}, nil
}

func handleSpeak(s *Session, args []string) (Outcome, error) {
	if s.Speaking() {
		return Outcome{}, nil
	}
	n := 1
	if len(args) > 0 {
		n, _ = strconv.Atoi(args[0])
	}
	msg, ok := s.ModelReply(n)
	if !ok || msg.IsEmpty() || msg.IsStreaming {
		return Outcome{Notice: s.loc.Text(locale.SpeakNothing)}, nil
	}
	return Outcome{
		Notice: s.loc.Text(locale.SpeakStarted),
		Run: func(ctx context.Context) (string, error) {
			switch err := s.Speak(ctx, msg.ID); {
			case errors.Is(err, ErrNothingToSpeak):
				return s.loc.Text(locale.SpeakNothing), nil
			case err != nil:
				// Playback errors are logged only.
				s.logger.Warn("speech failed", "message_id", msg.ID, "error", err)
			}
			return "", nil
		},
	}, nil
}

func handleDetach(s *Session, args []string) (Outcome, error) {
	i, _ := strconv.Atoi(args[0])
	n, err := s.Detach(i)
	if err != nil {
		return Outcome{}, errors.New(s.loc.Text(locale.DetachFailed, args[0]))
	}
	return Outcome{Notice: s.loc.Text(locale.DetachDone, i, n)}, nil
}

func handleExport(s *Session, args []string) (Outcome, error) {
	format := "md"
	if len(args) > 0 {
		format = args[0]
	}
	return Outcome{Run: func(context.Context) (string, error) {
		path, err := s.Export(format)
		if err != nil {
			return "", err
		}
		return s.loc.Text(locale.ExportDone, path), nil
	}}, nil
}
