// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

// cli.go - argument parsing and command dispatch for the gpt binary.
package cli

import (
	"fmt"
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

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdConfig
	CmdHistory
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Plain   bool // Disable markdown rendering
	NoSave  bool // Skip transcript autosave
	BaseURL string
	System  string

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Format     string
	Output     string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `gpt - terminal client for a chat completion backend

gpt talks to a local or remote chat-completion proxy and renders the
conversation in your terminal.

It provides:
  - A full-screen TUI with streaming replies and markdown rendering
  - One-shot questions for scripting and pipes
  - A readline-style interactive chat for plain terminals
  - Local transcript history with full-text search
  - Export to markdown, HTML, or JSON

Usage:
  gpt                        Start TUI (default)
  gpt ask "question"         Ask a single question
  gpt chat                   Interactive line-mode chat
  gpt config [show|get|set]  Configuration
  gpt history [subcommand]   Transcript history
  gpt version                Show version
  gpt help                   Show this help

Ask:
  gpt ask "What is Go?"            Ask and print the reply
  echo "question" | gpt ask        Read the question from stdin
  gpt ask --plain "question"       Skip markdown rendering
  gpt ask --system "Be brief" ...  Override the system message

Config:
  gpt config show                  Show current configuration
  gpt config get chat.temperature  Read one key
  gpt config set ui.theme dark     Set and persist one key
  gpt config path                  Show the config file location
  gpt config keys                  List all configuration keys

History:
  gpt history list                 List saved transcripts
  gpt history search "query"       Full-text search
  gpt history show <id>            Print a transcript
  gpt history export <id>          Export a transcript
    --format markdown|html|json    Export format (default: markdown)
    --output DIR                   Output directory (default: cwd)
  gpt history delete <id>          Delete a transcript
  gpt history clear                Delete all transcripts

Global flags:
  -q, --quiet       Minimal output
  -v, --verbose     Debug output
  --plain           Disable markdown rendering
  --no-save         Do not persist the transcript
  --url URL         Override the backend base URL
  --system TEXT     Override the system message

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("gpt version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
	fmt.Printf("  Go version: %s\n", runtime.Version())
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given argument list. Split out from Parse for
// testability.
func ParseArgs(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, args

	case "ask", "a":
		parseAskArgs(&args, remaining)
		return CmdAsk, args

	case "chat", "c":
		return CmdChat, args

	case "config", "cfg":
		parseConfigArgs(&args, remaining)
		return CmdConfig, args

	case "history", "hist", "sessions":
		parseHistoryArgs(&args, remaining)
		return CmdHistory, args

	case "version", "-v", "--version":
		return CmdVersion, args

	case "help", "-h", "--help":
		return CmdHelp, args

	default:
		// Unknown word: treat the whole line as an ask prompt. This
		// makes `gpt why is the sky blue` do the obvious thing.
		parseAskArgs(&args, append([]string{cmd}, remaining...))
		return CmdAsk, args
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	var args Args

	i := 0
	for i < len(argv) {
		arg := argv[i]

		switch arg {
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--plain", "--no-markdown":
			args.Plain = true
		case "--no-save":
			args.NoSave = true
		case "--url":
			if i+1 < len(argv) {
				i++
				args.BaseURL = argv[i]
			}
		case "--system":
			if i+1 < len(argv) {
				i++
				args.System = argv[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--url="):
				args.BaseURL = strings.TrimPrefix(arg, "--url=")
			case strings.HasPrefix(arg, "--system="):
				args.System = strings.TrimPrefix(arg, "--system=")
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, args
}

// parseAskArgs collects the positional words into the query, skipping
// any ask-specific flags.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]
		switch {
		case arg == "--plain" || arg == "--no-markdown":
			args.Plain = true
		case arg == "--system" && i+1 < len(remaining):
			i++
			args.System = remaining[i]
		case strings.HasPrefix(arg, "--system="):
			args.System = strings.TrimPrefix(arg, "--system=")
		case !strings.HasPrefix(arg, "-"):
			query = append(query, arg)
		}
	}

	args.Query = strings.Join(query, " ")
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = strings.Join(remaining[2:], " ")
		}
	}
}

// parseHistoryArgs parses history command specific arguments.
func parseHistoryArgs(args *Args, remaining []string) {
	var positional []string

	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]
		switch {
		case arg == "--format" && i+1 < len(remaining):
			i++
			args.Format = remaining[i]
		case strings.HasPrefix(arg, "--format="):
			args.Format = strings.TrimPrefix(arg, "--format=")
		case arg == "--output" && i+1 < len(remaining):
			i++
			args.Output = remaining[i]
		case strings.HasPrefix(arg, "--output="):
			args.Output = strings.TrimPrefix(arg, "--output=")
		case !strings.HasPrefix(arg, "-"):
			positional = append(positional, arg)
		}
	}

	if len(positional) > 0 {
		args.Subcommand = positional[0]
		if len(positional) > 1 {
			args.Query = strings.Join(positional[1:], " ")
		}
	}
}

// HandleAsk handles the "ask" command.
func HandleAsk(args Args) {
	if err := HandleAskCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// HandleChat handles the "chat" command.
func HandleChat(args Args) {
	if err := HandleChatCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
