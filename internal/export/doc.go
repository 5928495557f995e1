// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversation transcripts to Markdown or JSON files.
//
// # Usage
//
//	t := export.FromConversation(conv)
//	exp, _ := export.ForFormat("md", nil)
//	path, err := export.ToFile(t, exp, &export.Options{OutputDir: "."})
package export
