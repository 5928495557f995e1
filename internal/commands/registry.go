// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/nova-tui/internal/model"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/model <id>")
	Usage string

	Args []ArgDef

	Handler func(s *Session, args []string) (Outcome, error)

	// order keeps help output in registration order.
	order int
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString ArgType = iota // Free-form string
	ArgTypeModel                 // Model ID from the registry
	ArgTypeFile                  // File path
	ArgTypeEnum                  // One of predefined values
	ArgTypeReply                 // Model reply position, 1 = newest
	ArgTypeAttachment            // Queued image position, from 1
)

// Outcome tells a front end what a command did. Notice is shown at once;
// Run, when set, is slow work the front end schedules and whose returned
// notice it shows on completion.
type Outcome struct {
	Notice string
	Help   bool
	Quit   bool
	Run    func(ctx context.Context) (string, error)
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a registry with the built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	cmd.order = len(r.commands)
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias, case-insensitively.
func (r *Registry) Get(name string) *Command {
	name = strings.ToLower(name)
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands in registration order.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].order < cmds[j].order })
	return cmds
}

// HelpText lists every command with its usage and description.
func (r *Registry) HelpText() string {
	var sb strings.Builder
	for _, cmd := range r.All() {
		usage := cmd.Usage
		if usage == "" {
			usage = cmd.Name
		}
		fmt.Fprintf(&sb, "  %-22s %s\n", usage, cmd.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Execute parses input as a slash command, validates its arguments and
// runs its handler.
func (r *Registry) Execute(s *Session, input string) (Outcome, error) {
	res := NewParser(r).Parse(input)
	if !res.IsCommand {
		return Outcome{}, fmt.Errorf("not a command: %q", input)
	}
	if res.Command == nil {
		return Outcome{}, &UnknownCommandError{Name: res.CommandName}
	}
	if err := ValidateArgs(res.Command, res.Args); err != nil {
		return Outcome{}, err
	}
	return res.Command.Handler(s, res.Args)
}

// UnknownCommandError is returned for an unregistered command name.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return "unknown command: " + e.Name
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Handler:     handleHelp,
	})
	r.Register(&Command{
		Name:        "/model",
		Aliases:     []string{"/m"},
		Description: "Show or switch the model for the next turn",
		Usage:       "/model [id]",
		Args: []ArgDef{
			{Name: "id", Type: ArgTypeModel, Description: "Model ID"},
		},
		Handler: handleModel,
	})
	r.Register(&Command{
		Name:        "/think",
		Aliases:     []string{"/t"},
		Description: "Toggle extended reasoning",
		Usage:       "/think [on|off]",
		Args: []ArgDef{
			{Name: "state", Type: ArgTypeEnum, Values: []string{"on", "off"}, Description: "on or off"},
		},
		Handler: handleThink,
	})
	r.Register(&Command{
		Name:        "/attach",
		Aliases:     []string{"/a", "/image"},
		Description: "Queue an image for the next message",
		Usage:       "/attach <file>",
		Args: []ArgDef{
			{Name: "file", Required: true, Type: ArgTypeFile, Description: "Image file path"},
		},
		Handler: handleAttach,
	})
	r.Register(&Command{
		Name:        "/speak",
		Aliases:     []string{"/s"},
		Description: "Read a reply aloud (1 = latest)",
		Usage:       "/speak [n]",
		Args: []ArgDef{
			{Name: "n", Type: ArgTypeReply, Description: "Reply number, counting back from the latest"},
		},
		Handler: handleSpeak,
	})
	r.Register(&Command{
		Name:        "/detach",
		Aliases:     []string{"/d"},
		Description: "Remove a queued image",
		Usage:       "/detach <n>",
		Args: []ArgDef{
			{Name: "n", Required: true, Type: ArgTypeAttachment, Description: "Queued image number"},
		},
		Handler: handleDetach,
	})
	r.Register(&Command{
		Name:        "/cancel",
		Description: "Stop the response in progress",
		Handler:     handleCancel,
	})
	r.Register(&Command{
		Name:        "/clear",
		Aliases:     []string{"/c"},
		Description: "Clear the conversation (force cancels a running reply)",
		Usage:       "/clear [force]",
		Args: []ArgDef{
			{Name: "mode", Type: ArgTypeEnum, Values: []string{"force"}, Description: "force"},
		},
		Handler: handleClear,
	})
	r.Register(&Command{
		Name:        "/export",
		Aliases:     []string{"/e"},
		Description: "Save the conversation as Markdown or JSON",
		Usage:       "/export [md|json]",
		Args: []ArgDef{
			{Name: "format", Type: ArgTypeEnum, Values: []string{"md", "json"}, Description: "md or json"},
		},
		Handler: handleExport,
	})
	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit nova",
		Handler:     handleQuit,
	})
}

// modelIDs feeds model completion.
func modelIDs() []string {
	return model.ModelIDs()
}
