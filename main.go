// nova - Gemini chat in the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/nova-tui/internal/cli"
	"github.com/jeranaias/nova-tui/internal/commands"
	"github.com/jeranaias/nova-tui/internal/config"
	"github.com/jeranaias/nova-tui/internal/gemini"
	"github.com/jeranaias/nova-tui/internal/locale"
	"github.com/jeranaias/nova-tui/internal/logging"
	"github.com/jeranaias/nova-tui/internal/model"
	"github.com/jeranaias/nova-tui/internal/speech"
	"github.com/jeranaias/nova-tui/internal/stream"
	"github.com/jeranaias/nova-tui/internal/ui/chat"
	"github.com/jeranaias/nova-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic", "value", r, "stack", string(debug.Stack()))
			fmt.Fprintf(os.Stderr, "nova: unexpected error: %v\nPlease restart nova. Details were written to the log.\n", r)
			code = cli.ExitGeneralError
		}
	}()

	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdHelp:
		if args.Unknown != "" {
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args.Unknown)
			cli.PrintUsage(os.Stderr)
			return cli.ExitUsageError
		}
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout, args.JSON)
		return cli.ExitSuccess
	}

	cfg, err := loadConfig(args)
	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		return cli.ExitCode(err)
	}

	level := cfg.Log.Level
	if args.Verbose {
		level = "debug"
	}
	logger, closeLog, err := logging.Setup(config.ExpandPath(cfg.Log.Path), level)
	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		return cli.ExitGeneralError
	}
	defer closeLog()

	app, err := buildApp(cfg, args, logger)
	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		return cli.ExitCode(err)
	}
	logger.Info("starting", "command", cmd.String(), "version", Version,
		"model", app.Session.Store().SelectedModel())

	// Route to appropriate handler
	switch cmd {
	case cli.CmdAsk:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		err = cli.HandleAsk(ctx, app, args)
	case cli.CmdChat:
		// chat traps SIGINT itself to cancel the reply in progress.
		err = cli.HandleChat(context.Background(), app, args)
	default:
		err = runTUI(app, args)
	}

	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		return cli.ExitCode(err)
	}
	return cli.ExitSuccess
}

// =============================================================================
// WIRING
// =============================================================================

func loadConfig(args cli.Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		return config.LoadFromPath(config.ExpandPath(args.ConfigPath))
	}
	return config.Load()
}

// configFile returns the file to watch, or "" when none exists.
func configFile(args cli.Args) string {
	path := config.ExpandPath(args.ConfigPath)
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			return ""
		}
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// buildApp assembles the conversation, coordinator, speech gate and session.
func buildApp(cfg *config.Config, args cli.Args, logger *slog.Logger) (*cli.App, error) {
	loc := locale.New(cfg.UI.Language)

	client := gemini.New(gemini.Config{
		APIKey:        cfg.APIKey,
		TTSModel:      cfg.Speech.Model,
		SpeechTimeout: cfg.SpeechTimeout(),
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: cfg.APITimeout(),
			},
		},
		Logger: logger,
	})

	store := model.NewConversation(
		model.WithModel(cfg.DefaultModel),
		model.WithThinking(cfg.ThinkingEnabled),
		model.WithLogger(logger),
	)
	if err := cli.ApplyArgs(store, args); err != nil {
		return nil, err
	}

	opts := []stream.Option{stream.WithSuffixes(loc), stream.WithLogger(logger)}
	if budget := cfg.ThinkingBudgetOverride(); budget != nil {
		opts = append(opts, stream.WithThinkingBudget(*budget))
	}
	coord := stream.New(store, client, opts...)

	gate := speech.NewGate(client, newPlayer(cfg, logger),
		speech.WithVoice(cfg.Speech.Voice),
		speech.WithGateLogger(logger),
	)

	session := commands.NewSession(coord, gate, loc, commands.WithSessionLogger(logger))
	return cli.NewApp(cfg, session, logger), nil
}

// newPlayer picks the configured audio player. Without one, replies are
// written as WAV files to the speech output directory.
func newPlayer(cfg *config.Config, logger *slog.Logger) speech.Player {
	dir := config.ExpandPath(cfg.Speech.OutputDir)
	if cfg.Speech.PlayerCommand == config.PlayerNone {
		return speech.NewWAVPlayer(dir)
	}
	p, err := speech.NewCommandPlayer(cfg.Speech.PlayerCommand, "", logger)
	if err != nil {
		if !errors.Is(err, speech.ErrNoPlayer) {
			logger.Warn("audio player unavailable", "error", err)
		}
		logger.Info("no audio player found, saving speech as WAV files", "dir", dir)
		return speech.NewWAVPlayer(dir)
	}
	return p
}

// =============================================================================
// TUI
// =============================================================================

func runTUI(app *cli.App, args cli.Args) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := app.Config
	m := chat.New(ctx, chat.Options{
		Session:  app.Session,
		Registry: commands.NewRegistry(),
		Config:   cfg,
		Theme:    styles.NewTheme(),
		Logger:   app.Logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	coord := app.Session.Coordinator()
	coord.SetObserver(chat.NewBridge(p.Send, cfg.RefreshInterval()).Observer())
	defer coord.SetObserver(nil)

	if path := configFile(args); path != "" {
		err := config.Watch(ctx, path, config.DefaultWatchDebounce, app.Logger, func(c *config.Config) {
			p.Send(chat.ConfigReloadedMsg{Config: c})
		})
		if err != nil {
			app.Logger.Warn("config watch disabled", "path", path, "error", err)
		}
	}

	_, err := p.Run()
	// Stop any turn still streaming so its goroutine does not outlive the view.
	app.Session.Cancel()
	cancel()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
