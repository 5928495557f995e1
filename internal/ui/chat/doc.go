// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea chat view for nova.

# Layout

	header      brand, active model, Online/Thinking/Speaking status
	transcript  viewport of user and model bubbles, markdown via glamour
	notice      one transient line (or the completion list)
	input       textarea; Enter sends, Alt+Enter inserts a newline
	footer      reasoning toggle, queued images, shortcuts, disclaimer

# Streaming

Turns run in a tea.Cmd that calls commands.Session.Send. The coordinator
reports progress through a Bridge, which forwards events with
(*tea.Program).Send. Fragment redraws are sampled with rate.Sometimes so the
transcript refreshes at most once per configured interval; the settle event
always redraws.

Update never blocks on a turn. Forced clears and speech run as commands too,
otherwise the program could not drain the bridge's messages.

# Usage

	m := chat.New(ctx, chat.Options{Session: session, Config: cfg})
	p := tea.NewProgram(m, tea.WithAltScreen())
	coord.SetObserver(chat.NewBridge(p.Send, cfg.RefreshInterval()).Observer())
	_, err := p.Run()
*/
package chat
