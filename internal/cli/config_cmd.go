// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

// config_cmd.go - configuration command handler.
//
// Examples:
//   gpt config show
//   gpt config get chat.temperature
//   gpt config set ui.theme dark
//   gpt config path
//   gpt config keys
package cli

import (
	"fmt"
	"os"

	"github.com/tt-a1i/gpt/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) {
	if err := handleConfigCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func handleConfigCommand(args Args) error {
	cfg := config.Global()

	switch args.Subcommand {
	case "", "show", "list":
		fmt.Print(cfg.String())
		return nil

	case "get":
		if args.ConfigKey == "" {
			return fmt.Errorf("usage: gpt config get <key>")
		}
		value, err := cfg.Get(args.ConfigKey)
		if err != nil {
			return err
		}
		fmt.Printf("%s = %v\n", args.ConfigKey, value)
		return nil

	case "set":
		if args.ConfigKey == "" || args.ConfigVal == "" {
			return fmt.Errorf("usage: gpt config set <key> <value>")
		}
		if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to persist config: %w", err)
		}
		value, _ := cfg.Get(args.ConfigKey)
		fmt.Printf("%s = %v\n", args.ConfigKey, value)
		return nil

	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil

	case "keys":
		for _, key := range config.GetAllKeys() {
			fmt.Println(key)
		}
		return nil

	default:
		return fmt.Errorf("unknown config subcommand %q, expected show|get|set|path|keys", args.Subcommand)
	}
}
