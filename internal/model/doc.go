// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// The Conversation type is the canonical chat state: an ordered message log,
// a busy flag that admits one turn at a time, and the settings (selected
// model, thinking toggle) that apply to the next turn.
//
// # Key Types
//
//   - Conversation: mutex-guarded message log with turn mutations
//   - Message: one entry, user or model, with optional image data URIs
//   - ModelConfig: capabilities of a remote model variant
//   - Role: user or model
//
// # Usage
//
//	conv := model.NewConversation()
//	userID, err := conv.AppendUserMessage("Hi", nil)
//	modelID, _ := conv.AppendPlaceholderModelMessage()
//	conv.AppendFragment(modelID, "Hello")
//	conv.FinalizeTurn(modelID, "")
package model
