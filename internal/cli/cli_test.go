// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/nova-tui/internal/attachment"
	"github.com/jeranaias/nova-tui/internal/commands"
	"github.com/jeranaias/nova-tui/internal/config"
	"github.com/jeranaias/nova-tui/internal/locale"
	"github.com/jeranaias/nova-tui/internal/model"
	"github.com/jeranaias/nova-tui/internal/remote"
	"github.com/jeranaias/nova-tui/internal/stream"
)

// =============================================================================
// ARG PARSER TESTS
// =============================================================================

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"--think", "why", "-i", "a.png", "--image=b.png", "--model", "m1", "-m", "m2", "--", "-x"}, "think")

	assert.True(t, p.BoolFlag("think"))
	assert.Equal(t, []string{"a.png", "b.png"}, p.FlagValues("i", "image"))
	assert.Equal(t, "m2", p.Flag("model", "m"), "names tried in order, last value wins")
	assert.Equal(t, "m1", p.Flag("model"))
	assert.Equal(t, []string{"why", "-x"}, p.PositionalFrom(0))
	assert.Equal(t, 2, p.PositionalCount())
	assert.Equal(t, "", p.Positional(5))
	assert.True(t, p.HasFlag("--image"))
	assert.False(t, p.HasFlag("speak"))
}

func TestArgParser_BoolWithEquals(t *testing.T) {
	p := NewArgParser([]string{"--think=não", "--plain=sim"}, "think", "plain")
	assert.False(t, p.BoolFlag("think"))
	assert.True(t, p.BoolFlag("plain"))
}

func TestParseBoolString(t *testing.T) {
	for _, v := range []string{"true", "YES", "on", "1", "sim"} {
		b, err := ParseBoolString(v)
		require.NoError(t, err, v)
		assert.True(t, b, v)
	}
	for _, v := range []string{"false", "off", "0", "não", "nao"} {
		b, err := ParseBoolString(v)
		require.NoError(t, err, v)
		assert.False(t, b, v)
	}
	_, err := ParseBoolString("talvez")
	assert.Error(t, err)
}

// =============================================================================
// COMMAND PARSING TESTS
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name  string
		argv  []string
		cmd   Command
		check func(t *testing.T, a Args)
	}{
		{"no args", nil, CmdTUI, nil},
		{"tui with flags", []string{"tui", "--think", "-m", model.ModelPro}, CmdTUI, func(t *testing.T, a Args) {
			assert.True(t, a.Think)
			assert.Equal(t, model.ModelPro, a.Model)
		}},
		{"global flag before command", []string{"--model", model.ModelFlashLite, "ask", "oi"}, CmdAsk, func(t *testing.T, a Args) {
			assert.Equal(t, model.ModelFlashLite, a.Model)
			assert.Equal(t, "oi", a.Query)
		}},
		{"ask with images and speak", []string{"ask", "-i", "a.png", "--image", "b.png", "--speak", "o", "que", "é?"}, CmdAsk, func(t *testing.T, a Args) {
			assert.Equal(t, []string{"a.png", "b.png"}, a.Images)
			assert.True(t, a.Speak)
			assert.Equal(t, "o que é?", a.Query)
		}},
		{"bool flag does not eat question", []string{"a", "--think", "por", "quê"}, CmdAsk, func(t *testing.T, a Args) {
			assert.True(t, a.Think)
			assert.Equal(t, "por quê", a.Query)
		}},
		{"chat alias", []string{"c", "-q"}, CmdChat, func(t *testing.T, a Args) {
			assert.True(t, a.Quiet)
		}},
		{"version json", []string{"version", "--json"}, CmdVersion, func(t *testing.T, a Args) {
			assert.True(t, a.JSON)
		}},
		{"help flag", []string{"-h"}, CmdHelp, nil},
		{"unknown word", []string{"dance"}, CmdHelp, func(t *testing.T, a Args) {
			assert.Equal(t, "dance", a.Unknown)
		}},
		{"config path", []string{"--config=/tmp/n.toml", "chat"}, CmdChat, func(t *testing.T, a Args) {
			assert.Equal(t, "/tmp/n.toml", a.ConfigPath)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			assert.Equal(t, tt.cmd, cmd, cmd.String())
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestPrintUsage_ListsModels(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	out := buf.String()
	for _, id := range model.ModelIDs() {
		assert.Contains(t, out, id)
	}
	assert.Contains(t, out, "thinking (1024)")
	assert.NotContains(t, out, "%!")
}

func TestPrintVersion_JSON(t *testing.T) {
	var buf bytes.Buffer
	PrintVersion(&buf, true)
	var got map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, Version, got["version"])
}

// =============================================================================
// EXIT CODE TESTS
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"missing key", fmt.Errorf("turn: %w", remote.ErrMissingCredential), ExitConfigError},
		{"config validation", config.ValidateErrors{{Field: "ui.refresh_fps"}}, ExitConfigError},
		{"cancelled", fmt.Errorf("%w: ctx", stream.ErrCancelled), ExitCancelled},
		{"usage", NewValidationError("model", "x", "unknown"), ExitUsageError},
		{"empty turn", stream.ErrEmptyTurn, ExitUsageError},
		{"bad attachment", &attachment.InvalidAttachmentError{Reason: "not base64"}, ExitUsageError},
		{"transport", remote.NewTransportError("boom", nil), ExitGeneralError},
		{"other", errors.New("x"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestDisplayError_JSON(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, remote.NewTransportError("conexão recusada", nil), true)
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, false, got["success"])
	assert.Equal(t, float64(ExitGeneralError), got["exit_code"])
	assert.Contains(t, got["error"], "conexão recusada")
}

func TestApplyArgs(t *testing.T) {
	store := model.NewConversation()
	require.NoError(t, ApplyArgs(store, Args{Model: model.ModelPro, Think: true}))
	assert.Equal(t, model.ModelPro, store.SelectedModel())
	assert.True(t, store.ThinkingEnabled())

	require.NoError(t, ApplyArgs(store, Args{NoThink: true}))
	assert.False(t, store.ThinkingEnabled())

	err := ApplyArgs(store, Args{Model: "gpt-4"})
	assert.Equal(t, ExitUsageError, ExitCode(err))
	assert.Error(t, ApplyArgs(store, Args{Think: true, NoThink: true}))
}

// =============================================================================
// ASK TESTS
// =============================================================================

type scriptedGenerator struct {
	fragments []string
	err       error
	openErr   error
	last      remote.GenerateRequest
}

func (g *scriptedGenerator) GenerateStream(_ context.Context, req remote.GenerateRequest) (remote.FragmentStream, error) {
	g.last = req
	if g.openErr != nil {
		return nil, g.openErr
	}
	return remote.NewSliceStream(g.fragments, g.err), nil
}

func newTestApp(gen remote.Generator, stdin string) (*App, *bytes.Buffer, *bytes.Buffer) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := model.NewConversation(model.WithLogger(logger))
	loc := locale.New("en")
	coord := stream.New(store, gen, stream.WithSuffixes(loc), stream.WithLogger(logger))

	var stdout, stderr bytes.Buffer
	app := &App{
		Config:  config.Default(),
		Session: commands.NewSession(coord, nil, loc, commands.WithSessionLogger(logger)),
		Logger:  logger,
		Stdin:   strings.NewReader(stdin),
		Stdout:  &stdout,
		Stderr:  &stderr,
	}
	return app, &stdout, &stderr
}

func TestHandleAsk_StreamsPlain(t *testing.T) {
	gen := &scriptedGenerator{fragments: []string{"Brasília", " é a capital."}}
	app, stdout, _ := newTestApp(gen, "")

	err := HandleAsk(context.Background(), app, Args{Query: "Qual é a capital?", Plain: true})
	require.NoError(t, err)
	assert.Equal(t, "Brasília é a capital.\n", stdout.String())
	assert.Empty(t, gen.last.History)
	require.NotEmpty(t, gen.last.Parts)
}

func TestHandleAsk_FailurePrintsSuffixAndReturnsError(t *testing.T) {
	gen := &scriptedGenerator{fragments: []string{"parcial"}, err: remote.NewTransportError("reset", nil)}
	app, stdout, _ := newTestApp(gen, "")

	err := HandleAsk(context.Background(), app, Args{Query: "oi", Plain: true})
	require.Error(t, err)
	assert.Equal(t, ExitGeneralError, ExitCode(err))
	assert.True(t, strings.HasPrefix(stdout.String(), "parcial\n\n[Error:"), stdout.String())
}

func TestHandleAsk_MissingKeyExitsTwo(t *testing.T) {
	gen := &scriptedGenerator{openErr: remote.ErrMissingCredential}
	app, _, _ := newTestApp(gen, "")

	err := HandleAsk(context.Background(), app, Args{Query: "oi", Plain: true})
	assert.Equal(t, ExitConfigError, ExitCode(err))
}

func TestHandleAsk_JSON(t *testing.T) {
	gen := &scriptedGenerator{fragments: []string{"4"}}
	app, stdout, _ := newTestApp(gen, "")

	require.NoError(t, HandleAsk(context.Background(), app, Args{Query: "2+2?", JSON: true}))
	var got askResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "4", got.Text)
	assert.Equal(t, "completed", got.State)
	assert.Equal(t, model.DefaultModel, got.Model)
	assert.Equal(t, 1, got.Fragments)
}

func TestHandleAsk_EmptyQuestion(t *testing.T) {
	app, _, _ := newTestApp(&scriptedGenerator{}, "")
	app.Stdin = nil

	err := HandleAsk(context.Background(), app, Args{Plain: true})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "question", verr.Field)
}

func TestHandleAsk_ReadsQuestionFromPipe(t *testing.T) {
	gen := &scriptedGenerator{fragments: []string{"ok"}}
	app, stdout, _ := newTestApp(gen, "  pergunta via pipe \n")

	require.NoError(t, HandleAsk(context.Background(), app, Args{}))
	assert.Equal(t, "ok\n", stdout.String(), "a buffer is not a terminal, so no markdown")
	require.NotEmpty(t, gen.last.Parts)
	assert.Equal(t, "pergunta via pipe", gen.last.Parts[len(gen.last.Parts)-1].Text)
}

func TestRenderWidth_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, isTerminal(&buf))
	assert.Equal(t, DefaultTerminalWidth, renderWidth(&buf, 0))
	assert.Equal(t, 60, renderWidth(&buf, 60))
	assert.Equal(t, DefaultTerminalWidth, renderWidth(&buf, 120))
}

func TestHandleAsk_BadImage(t *testing.T) {
	app, _, _ := newTestApp(&scriptedGenerator{}, "")
	err := HandleAsk(context.Background(), app, Args{Query: "oi", Images: []string{"/nope.png"}})
	assert.Error(t, err)
}

func TestChatPrompt(t *testing.T) {
	assert.Equal(t, "nova> ", chatPrompt(0))
	assert.Equal(t, "nova [+2]> ", chatPrompt(2))
}

func TestRunSlashCommand(t *testing.T) {
	app, stdout, stderr := newTestApp(&scriptedGenerator{}, "")
	registry := commands.NewRegistry()

	assert.False(t, runSlashCommand(context.Background(), app, registry, "/think on"))
	assert.Contains(t, stdout.String(), "Reasoning on.")

	assert.False(t, runSlashCommand(context.Background(), app, registry, "/dance"))
	assert.Contains(t, stderr.String(), "Unknown command: /dance")

	assert.True(t, runSlashCommand(context.Background(), app, registry, "/quit"))
}

func TestSendChatLine(t *testing.T) {
	app, stdout, _ := newTestApp(&scriptedGenerator{fragments: []string{"olá"}}, "")
	sendChatLine(context.Background(), app, "oi")
	assert.Contains(t, stdout.String(), "Gemini: olá")
}
