// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash commands shared by the chat view and
// the line-based REPL.
//
// A Session wraps the stream coordinator, the playback gate and the queue
// of images attached for the next turn. Registry.Execute parses a line,
// validates it and returns an Outcome; front ends show Outcome.Notice at
// once and schedule Outcome.Run off their input loop, since clearing a
// running turn or synthesizing speech can block.
//
// # Built-in Commands
//
//   - /help: Show available commands
//   - /model [id]: Show or switch the model
//   - /think [on|off]: Toggle extended reasoning
//   - /attach <file>: Queue an image
//   - /detach <n>: Remove the n-th queued image
//   - /speak [n]: Read a reply aloud, counting back from the latest
//   - /cancel: Stop the running reply
//   - /clear [force]: Clear the conversation
//   - /export [md|json]: Save the transcript
//   - /quit: Exit
//
// # Usage
//
//	out, err := registry.Execute(session, "/think on")
//	if out.Run != nil {
//	    notice, err := out.Run(ctx)
//	}
//
// Completion:
//
//	completer.Complete("/mo", 3) // [/model]
package commands
