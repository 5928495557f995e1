// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI front ends.
//
// # Commands
//
//   - (none) / tui: full-screen chat (internal/ui/chat)
//   - ask: one question, streamed to stdout; rendered as markdown on a
//     terminal, raw when piped, JSON with --json
//   - chat: line-editing REPL with history and slash-command completion
//   - version, help
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(ctx, app, args)
//	case cli.CmdChat:
//	    err = cli.HandleChat(ctx, app, args)
//	}
//	os.Exit(cli.ExitCode(err))
//
// Exit codes: 0 success, 1 error, 2 configuration (including a missing API
// key), 64 usage, 130 cancelled.
package cli
