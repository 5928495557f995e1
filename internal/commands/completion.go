// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jeranaias/nova-tui/internal/model"
)

// maxFileCompletions caps file suggestions.
const maxFileCompletions = 20

// Completion represents a completion suggestion.
type Completion struct {
	// Value replaces the token being completed
	Value string

	Display     string
	Description string

	// Score for ranking (higher = better match)
	Score int
}

// =============================================================================
// COMPLETER
// =============================================================================

// Completer handles tab completion for commands and arguments.
type Completer struct {
	registry *Registry

	// ModelsFn returns selectable models; defaults to the registry order.
	ModelsFn func() []string

	// RepliesFn and AttachmentsFn count model replies and queued images for
	// positional arguments. Nil disables those completions.
	RepliesFn     func() int
	AttachmentsFn func() int
}

// NewCompleter creates a completer over registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry, ModelsFn: modelIDs}
}

// Complete returns completions for the token ending at cursorPos.
func (c *Completer) Complete(input string, cursorPos int) []Completion {
	if cursorPos >= 0 && cursorPos < len(input) {
		input = input[:cursorPos]
	}
	input = strings.TrimLeft(input, " \t")
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	name := ExtractCommandName(input)
	if name == input {
		return c.completeCommands(name)
	}

	cmd := c.registry.Get(name)
	if cmd == nil {
		return nil
	}
	argIndex, partial := partialArg(input[len(name):])
	if argIndex >= len(cmd.Args) {
		return nil
	}

	arg := cmd.Args[argIndex]
	switch arg.Type {
	case ArgTypeModel:
		return c.completeModels(partial)
	case ArgTypeFile:
		return completeFiles(partial)
	case ArgTypeEnum:
		return completeFromList(arg.Values, partial)
	case ArgTypeReply:
		return completePositions(c.RepliesFn, partial)
	case ArgTypeAttachment:
		return completePositions(c.AttachmentsFn, partial)
	default:
		return nil
	}
}

// Apply returns input with its last token replaced by comp. Completed
// command names get a trailing space so argument completion can follow.
func Apply(input string, comp Completion) string {
	cut := strings.LastIndexAny(input, " \t") + 1
	out := input[:cut] + comp.Value
	if cut == 0 && strings.HasPrefix(comp.Value, "/") {
		out += " "
	}
	return out
}

// Lines adapts Complete to line editors that want whole-line candidates.
func (c *Completer) Lines(line string) []string {
	comps := c.Complete(line, len(line))
	out := make([]string, 0, len(comps))
	for _, comp := range comps {
		out = append(out, Apply(line, comp))
	}
	return out
}

// partialArg returns the 0-based argument index being typed and its text.
func partialArg(rest string) (int, string) {
	fields := splitCommandLine(rest)
	if len(fields) == 0 || strings.HasSuffix(rest, " ") {
		return len(fields), ""
	}
	return len(fields) - 1, fields[len(fields)-1]
}

func (c *Completer) completeCommands(partial string) []Completion {
	partial = strings.ToLower(partial)
	var completions []Completion
	for _, cmd := range c.registry.All() {
		if strings.HasPrefix(cmd.Name, partial) {
			completions = append(completions, Completion{
				Value:       cmd.Name,
				Display:     cmd.Name,
				Description: cmd.Description,
				Score:       calculateScore(cmd.Name, partial),
			})
		}
		for _, alias := range cmd.Aliases {
			// Bare "/" lists primary names only.
			if partial != "/" && strings.HasPrefix(alias, partial) {
				completions = append(completions, Completion{
					Value:       alias,
					Display:     alias + " -> " + cmd.Name,
					Description: cmd.Description,
					Score:       calculateScore(alias, partial) - 10,
				})
			}
		}
	}
	sortCompletions(completions)
	return completions
}

func (c *Completer) completeModels(partial string) []Completion {
	ids := model.ModelIDs()
	if c.ModelsFn != nil {
		ids = c.ModelsFn()
	}
	completions := completeFromList(ids, partial)
	for i := range completions {
		if cfg, ok := model.LookupModel(completions[i].Value); ok {
			completions[i].Description = cfg.Name + " - " + cfg.CapabilitiesString()
		}
	}
	return completions
}

// completeFiles lists directory entries matching partial. Hidden files
// appear only when partial names them.
func completeFiles(partial string) []Completion {
	dir, prefix := filepath.Split(partial)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	lowerPrefix := strings.ToLower(prefix)
	var completions []Completion
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(strings.ToLower(name), lowerPrefix) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}

		value := name
		if d, _ := filepath.Split(partial); d != "" {
			value = d + name
		}
		score := calculateScore(name, prefix)
		desc := ""
		if entry.IsDir() {
			value += string(os.PathSeparator)
			score += 5
			desc = "directory"
		} else if info, err := entry.Info(); err == nil {
			desc = formatFileSize(info.Size())
		}
		completions = append(completions, Completion{
			Value:       value,
			Display:     name,
			Description: desc,
			Score:       score,
		})
	}
	sortCompletions(completions)
	if len(completions) > maxFileCompletions {
		completions = completions[:maxFileCompletions]
	}
	return completions
}

// completePositions offers 1..count() in order.
func completePositions(count func() int, partial string) []Completion {
	if count == nil {
		return nil
	}
	var completions []Completion
	for i := 1; i <= count(); i++ {
		v := strconv.Itoa(i)
		if strings.HasPrefix(v, partial) {
			completions = append(completions, Completion{Value: v})
		}
	}
	return completions
}

func completeFromList(values []string, partial string) []Completion {
	partial = strings.ToLower(partial)
	var completions []Completion
	for _, v := range values {
		if strings.HasPrefix(strings.ToLower(v), partial) {
			completions = append(completions, Completion{
				Value:   v,
				Display: v,
				Score:   calculateScore(v, partial),
			})
		}
	}
	sortCompletions(completions)
	return completions
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// calculateScore ranks exact matches first, then shorter prefix matches.
func calculateScore(value, partial string) int {
	value = strings.ToLower(value)
	partial = strings.ToLower(partial)
	if value == partial {
		return 200
	}
	score := 100
	if strings.HasPrefix(value, partial) {
		score += 70 - len(value)
	}
	return score - len(value)/2
}

// sortCompletions sorts completions by score (descending), then alphabetically.
func sortCompletions(completions []Completion) {
	sort.SliceStable(completions, func(i, j int) bool {
		if completions[i].Score != completions[j].Score {
			return completions[i].Score > completions[j].Score
		}
		return completions[i].Value < completions[j].Value
	})
}

func formatFileSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

// =============================================================================
// COMPLETION STATE
// =============================================================================

// CompletionState tracks a visible completion popup.
type CompletionState struct {
	Completions []Completion
	Selected    int
	Visible     bool
}

// Update replaces the completions and selects the first.
func (cs *CompletionState) Update(completions []Completion) {
	cs.Completions = completions
	cs.Selected = 0
	cs.Visible = len(completions) > 0
}

// Next moves to the next completion, wrapping.
func (cs *CompletionState) Next() {
	if n := len(cs.Completions); n > 0 {
		cs.Selected = (cs.Selected + 1) % n
	}
}

// Prev moves to the previous completion, wrapping.
func (cs *CompletionState) Prev() {
	if n := len(cs.Completions); n > 0 {
		cs.Selected = (cs.Selected - 1 + n) % n
	}
}

// Selection returns the selected completion.
func (cs *CompletionState) Selection() (Completion, bool) {
	if cs.Selected < 0 || cs.Selected >= len(cs.Completions) {
		return Completion{}, false
	}
	return cs.Completions[cs.Selected], true
}

// Clear hides the popup.
func (cs *CompletionState) Clear() {
	*cs = CompletionState{}
}
