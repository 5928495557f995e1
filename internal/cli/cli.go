// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Model      string
	Think      bool
	NoThink    bool
	ConfigPath string
	Quiet      bool
	Verbose    bool
	JSON       bool

	// ask
	Query  string
	Images []string
	Speak  bool
	Plain  bool

	// Unknown is set when the first word is not a command.
	Unknown string

	// Raw args after the command word.
	Raw []string
}

const usageText = `nova - Gemini chat in the terminal

Usage:
  nova                         Start the chat view (default)
  nova tui                     Same as above
  nova ask [flags] "question"  Ask one question and print the reply
  nova chat                    Line-based chat session
  nova version                 Show version information
  nova help                    Show this help

Global flags:
  -m, --model ID      Model for this run (see below)
  --think             Enable the thinking budget
  --no-think          Disable the thinking budget
  --config FILE       Config file (default: ~/.nova/config.toml)
  -q, --quiet         Minimal output
  -v, --verbose       Debug logging

ask flags:
  -i, --image FILE    Attach an image (repeatable)
  -s, --speak         Read the reply aloud
  --plain             Print raw text even on a terminal

Models:
%s
Environment:
  NOVA_API_KEY, GEMINI_API_KEY, API_KEY   API key (first one set wins)
  NOVA_MODEL, NOVA_THINKING, NOVA_LANGUAGE, NOVA_VOICE, NOVA_PLAYER,
  NOVA_LOG_LEVEL, NOVA_LOG_PATH           Override config values

Chat view keys:
  Enter send   Ctrl+T thinking   Ctrl+O model   Ctrl+S speak last reply
  Ctrl+L clear (twice while streaming to force)   Esc cancel   Ctrl+C quit
  /attach FILE   /export md|json   /help

Exit codes:
  0 success   1 error   2 configuration (missing API key, bad config)
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, modelList())
}

// PrintVersion writes version information, as JSON when asJSON is set.
func PrintVersion(w io.Writer, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]string{
			"version":    Version,
			"git_commit": GitCommit,
			"build_date": BuildDate,
			"go_version": runtime.Version(),
			"platform":   runtime.GOOS + "/" + runtime.GOARCH,
		})
		return
	}
	fmt.Fprintf(w, "nova %s (%s, built %s, %s %s/%s)\n",
		Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

var globalBools = []string{"think", "no-think", "q", "quiet", "v", "verbose", "json", "h", "help"}

// ParseArgs parses argv without the program name. The command word may
// appear anywhere among the global flags.
func ParseArgs(argv []string) (Command, Args) {
	cmdIndex := -1
	for i := 0; i < len(argv); i++ {
		a := argv[i]
		if !strings.HasPrefix(a, "-") {
			cmdIndex = i
			break
		}
		if takesValue(a) && !strings.Contains(a, "=") {
			i++
		}
	}

	var head, rest []string
	word := ""
	if cmdIndex < 0 {
		head = argv
	} else {
		head = argv[:cmdIndex]
		word = strings.ToLower(argv[cmdIndex])
		rest = argv[cmdIndex+1:]
	}

	args := parseGlobalFlags(head)
	args.Raw = rest

	if hasHelpFlag(head) {
		return CmdHelp, args
	}

	switch word {
	case "", "tui":
		mergeGlobalFlags(&args, rest)
		return CmdTUI, args
	case "ask", "a":
		parseAskArgs(&args, rest)
		return CmdAsk, args
	case "chat", "c":
		mergeGlobalFlags(&args, rest)
		return CmdChat, args
	case "version", "--version":
		mergeGlobalFlags(&args, rest)
		return CmdVersion, args
	case "help":
		return CmdHelp, args
	default:
		args.Unknown = argv[cmdIndex]
		return CmdHelp, args
	}
}

func takesValue(flag string) bool {
	switch strings.SplitN(strings.TrimLeft(flag, "-"), "=", 2)[0] {
	case "m", "model", "config", "i", "image":
		return true
	}
	return false
}

func hasHelpFlag(argv []string) bool {
	for _, a := range argv {
		if a == "-h" || a == "--help" {
			return true
		}
	}
	return false
}

func parseGlobalFlags(argv []string) Args {
	var args Args
	mergeGlobalFlags(&args, argv)
	return args
}

// mergeGlobalFlags applies global flags found in argv to args.
func mergeGlobalFlags(args *Args, argv []string) *ArgParser {
	p := NewArgParser(argv, append(globalBools, "s", "speak", "plain")...)
	if m := p.Flag("m", "model"); m != "" {
		args.Model = m
	}
	if c := p.Flag("config"); c != "" {
		args.ConfigPath = c
	}
	args.Think = args.Think || p.BoolFlag("think")
	args.NoThink = args.NoThink || p.BoolFlag("no-think")
	args.Quiet = args.Quiet || p.BoolFlag("q", "quiet")
	args.Verbose = args.Verbose || p.BoolFlag("v", "verbose")
	args.JSON = args.JSON || p.BoolFlag("json")
	return p
}

// parseAskArgs parses ask flags; remaining positionals form the question.
func parseAskArgs(args *Args, argv []string) {
	p := mergeGlobalFlags(args, argv)
	args.Images = append(args.Images, p.FlagValues("i", "image")...)
	args.Speak = p.BoolFlag("s", "speak")
	args.Plain = p.BoolFlag("plain")
	args.Query = strings.Join(p.PositionalFrom(0), " ")
}
