// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"fmt"
	"strings"
)

// DefaultThinkingBudget is used for thinking-capable models that declare no budget.
const DefaultThinkingBudget = 1024

// Well-known model identifiers.
const (
	ModelFlash     = "gemini-2.5-flash"
	ModelPro       = "gemini-3-pro-preview"
	ModelFlashLite = "gemini-flash-lite-latest"
)

// DefaultModel is selected when a conversation starts.
const DefaultModel = ModelFlash

// =============================================================================
// MODEL CONFIG TYPE
// =============================================================================

// ModelConfig describes a remote model variant and its capabilities.
type ModelConfig struct {
	// ID is the model identifier used in API calls
	ID string `json:"id"`

	// Name is the short display name
	Name string `json:"name"`

	// Description is a brief explanation of the model's strengths
	Description string `json:"description"`

	SupportsImages   bool `json:"supports_images"`
	SupportsThinking bool `json:"supports_thinking"`

	// MaxThinkingBudget is the reasoning budget sent when thinking is on.
	// Zero means DefaultThinkingBudget.
	MaxThinkingBudget int `json:"max_thinking_budget,omitempty"`
}

// ThinkingBudget returns the budget to request, or 0 if the model cannot think.
func (m ModelConfig) ThinkingBudget() int {
	if !m.SupportsThinking {
		return 0
	}
	if m.MaxThinkingBudget > 0 {
		return m.MaxThinkingBudget
	}
	return DefaultThinkingBudget
}

// CapabilitiesString returns a short comma-separated capability summary.
func (m ModelConfig) CapabilitiesString() string {
	var caps []string
	if m.SupportsImages {
		caps = append(caps, "images")
	}
	if m.SupportsThinking {
		caps = append(caps, fmt.Sprintf("thinking (%d)", m.ThinkingBudget()))
	}
	if len(caps) == 0 {
		return "text"
	}
	return strings.Join(caps, ", ")
}

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// Models is the registry of selectable models keyed by ID.
var Models = map[string]ModelConfig{
	ModelFlash: {
		ID:               ModelFlash,
		Name:             "Flash",
		Description:      "Fast multimodal model for everyday questions",
		SupportsImages:   true,
		SupportsThinking: true,
	},
	ModelPro: {
		ID:               ModelPro,
		Name:             "Pro",
		Description:      "Most capable model for complex reasoning",
		SupportsImages:   true,
		SupportsThinking: true,
	},
	ModelFlashLite: {
		ID:             ModelFlashLite,
		Name:           "Flash Lite",
		Description:    "Lowest latency, no extended reasoning",
		SupportsImages: true,
	},
}

// modelOrder is the cycling order used by selectors.
var modelOrder = []string{ModelFlash, ModelPro, ModelFlashLite}

// LookupModel returns the registry entry for id.
func LookupModel(id string) (ModelConfig, bool) {
	cfg, ok := Models[id]
	return cfg, ok
}

// ModelIDs returns the registry IDs in display order.
func ModelIDs() []string {
	out := make([]string, len(modelOrder))
	copy(out, modelOrder)
	return out
}

// NextModel returns the model after id in display order, wrapping around.
// Unknown IDs yield the default model.
func NextModel(id string) string {
	for i, m := range modelOrder {
		if m == id {
			return modelOrder[(i+1)%len(modelOrder)]
		}
	}
	return DefaultModel
}
