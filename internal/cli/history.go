// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

// history.go - transcript history command handler.
//
// Examples:
//   gpt history list
//   gpt history search "rate limiter"
//   gpt history show chat_a1b2
//   gpt history export chat_a1b2 --format html
//   gpt history delete chat_a1b2
//   gpt history clear
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/tt-a1i/gpt/internal/config"
	"github.com/tt-a1i/gpt/internal/export"
	"github.com/tt-a1i/gpt/internal/storage"
)

// HandleHistory handles the "history" command.
func HandleHistory(args Args) {
	if err := handleHistoryCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func handleHistoryCommand(args Args) error {
	cfg := config.Global()

	store, err := storage.Open(storage.Options{MaxTranscripts: cfg.History.Max})
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	switch args.Subcommand {
	case "", "list", "ls":
		metas, err := store.List()
		if err != nil {
			return err
		}
		printTranscriptList(metas)
		return nil

	case "search":
		if args.Query == "" {
			return fmt.Errorf("usage: gpt history search <query>")
		}
		metas, err := store.Search(args.Query)
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			fmt.Println(infoStyle.Render(fmt.Sprintf("No matches for %q.", args.Query)))
			return nil
		}
		printTranscriptList(metas)
		return nil

	case "show":
		if args.Query == "" {
			return fmt.Errorf("usage: gpt history show <id>")
		}
		t, err := store.Load(args.Query)
		if err != nil {
			return err
		}
		fmt.Println(welcomeStyle.Render(t.GetTitle()))
		printTranscript(t)
		return nil

	case "export":
		if args.Query == "" {
			return fmt.Errorf("usage: gpt history export <id> [--format markdown|html|json]")
		}
		t, err := store.Load(args.Query)
		if err != nil {
			return err
		}

		format := args.Format
		if format == "" {
			format = "markdown"
		}
		opts := export.DefaultOptions()
		if args.Output != "" {
			opts.OutputDir = args.Output
		}
		exporter, err := export.ForFormat(format, opts)
		if err != nil {
			return err
		}
		path, err := export.ExportToFile(t, exporter, opts)
		if err != nil {
			return err
		}
		fmt.Println(infoStyle.Render("Exported to " + path))
		return nil

	case "delete", "del", "rm":
		if args.Query == "" {
			return fmt.Errorf("usage: gpt history delete <id>")
		}
		if err := store.Delete(args.Query); err != nil {
			return err
		}
		fmt.Println(infoStyle.Render("Deleted " + args.Query))
		return nil

	case "clear":
		count, err := store.Count()
		if err != nil {
			return err
		}
		if count == 0 {
			fmt.Println(infoStyle.Render("History is already empty."))
			return nil
		}
		if !confirmAction(fmt.Sprintf("Delete all %d conversations?", count)) {
			fmt.Println(infoStyle.Render("Aborted."))
			return nil
		}
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println(infoStyle.Render(fmt.Sprintf("Deleted %d conversations.", count)))
		return nil

	default:
		return fmt.Errorf("unknown history subcommand %q, expected list|search|show|export|delete|clear", args.Subcommand)
	}
}

// confirmAction prompts for a yes/no answer. Non-interactive runs
// refuse destructive actions rather than assuming consent.
func confirmAction(question string) bool {
	if !IsTTY() {
		fmt.Fprintln(os.Stderr, warningStyle.Render("[!]")+" refusing: stdin is not a terminal")
		return false
	}

	fmt.Printf("%s [y/N] ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
