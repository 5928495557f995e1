// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strconv"
	"strings"
	"unicode"
)

// =============================================================================
// PARSER
// =============================================================================

// ParseResult contains the result of parsing user input.
type ParseResult struct {
	// IsCommand is true if the input starts with /
	IsCommand bool

	// Command is the matched command (nil if not found)
	Command *Command

	CommandName string
	Args        []string

	// RawArgs is everything after the command name, untokenized
	RawArgs string
}

// Parser splits input into a command and its arguments.
type Parser struct {
	registry *Registry
}

// NewParser creates a parser over registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse parses user input. Input not starting with / is not a command.
func (p *Parser) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)
	if !IsCommand(input) {
		return ParseResult{}
	}

	result := ParseResult{IsCommand: true}
	name := ExtractCommandName(input)
	result.CommandName = strings.ToLower(name)
	result.RawArgs = strings.TrimSpace(input[len(name):])
	result.Args = splitCommandLine(result.RawArgs)
	if p.registry != nil {
		result.Command = p.registry.Get(result.CommandName)
	}
	return result
}

// splitCommandLine tokenizes on whitespace. Single or double quotes group
// words; a backslash inside quotes escapes a quote or backslash.
func splitCommandLine(input string) []string {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
		started bool
	)
	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote == 0 && (r == '\'' || r == '"'):
			quote = r
			started = true
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0 && r == '\\' && i+1 < len(runes) && strings.ContainsRune(`"'\`, runes[i+1]):
			i++
			current.WriteRune(runes[i])
		case quote == 0 && unicode.IsSpace(r):
			if started || current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
		}
	}
	if started || current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// IsCommand returns true if the input appears to be a command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// ExtractCommandName returns the leading "/name" of input, or "".
// e.g., "/model gemini-2.5-flash" -> "/model"
func ExtractCommandName(input string) string {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return ""
	}
	if end := strings.IndexFunc(input, unicode.IsSpace); end >= 0 {
		return input[:end]
	}
	return input
}

// ValidateArgs checks required arguments and enum values.
func ValidateArgs(cmd *Command, args []string) error {
	if cmd == nil {
		return nil
	}
	for i, def := range cmd.Args {
		if i >= len(args) {
			if def.Required {
				return &ValidationError{
					Command:  cmd.Name,
					Arg:      def.Name,
					Message:  "required argument missing",
					Expected: def.Description,
				}
			}
			continue
		}
		if def.Type == ArgTypeReply || def.Type == ArgTypeAttachment {
			if n, err := strconv.Atoi(args[i]); err != nil || n < 1 {
				return &ValidationError{
					Command:  cmd.Name,
					Arg:      def.Name,
					Message:  "invalid value",
					Got:      args[i],
					Expected: "a number from 1",
				}
			}
			continue
		}
		if def.Type == ArgTypeEnum && !containsFold(def.Values, args[i]) {
			return &ValidationError{
				Command:  cmd.Name,
				Arg:      def.Name,
				Message:  "invalid value",
				Got:      args[i],
				Expected: strings.Join(def.Values, ", "),
			}
		}
	}
	return nil
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}

// ValidationError represents an argument validation error.
type ValidationError struct {
	Command  string
	Arg      string
	Message  string
	Got      string
	Expected string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Command + ": " + e.Message)
	if e.Arg != "" {
		sb.WriteString(" for argument '" + e.Arg + "'")
	}
	if e.Got != "" {
		sb.WriteString(" (got: " + e.Got + ")")
	}
	if e.Expected != "" {
		sb.WriteString(" - expected: " + e.Expected)
	}
	return sb.String()
}
