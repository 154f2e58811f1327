// gpt - a terminal client for a chat completion backend.
//
// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tt-a1i/gpt/internal/api"
	"github.com/tt-a1i/gpt/internal/cli"
	"github.com/tt-a1i/gpt/internal/config"
	"github.com/tt-a1i/gpt/internal/storage"
	"github.com/tt-a1i/gpt/internal/ui/chat"
	"github.com/tt-a1i/gpt/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Program reference for pushing stream messages from the HTTP goroutine.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		switch {
		case cli.IsTTY() && cli.IsStdoutTTY():
			runTUI(args)
		case !cli.IsTTY():
			// Piped input becomes a one-shot question.
			cli.HandleAsk(args)
		default:
			// Redirected output: line mode instead of the alt screen.
			cli.HandleChat(args)
		}
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdHistory:
		cli.HandleHistory(args)
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		cli.PrintUsage()
		os.Exit(1)
	}
}

// sendToProgram safely sends a message to the running program.
func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// appModel is the program root. It owns the backend client and runs the
// streaming goroutine; the chat model handles everything else.
type appModel struct {
	chat   chat.Model
	client *api.Client
}

func (m appModel) Init() tea.Cmd {
	return m.chat.Init()
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case chat.StreamRequestMsg:
		return m, m.startStream(msg)
	case chat.ConfigReloadedMsg:
		// The next request goes out with the reloaded settings.
		m.client = api.NewClientWithConfig(newClientConfig(msg.Cfg))
	}

	updated, cmd := m.chat.Update(msg)
	m.chat = updated.(chat.Model)
	return m, cmd
}

func (m appModel) View() string {
	return m.chat.View()
}

// startStream launches the HTTP request in its own goroutine and wires
// its cancel function into the chat model. Results come back through
// Program.Send so they arrive on the update loop.
func (m appModel) startStream(req chat.StreamRequestMsg) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.chat.SetCancelFunc(cancel)

	go func() {
		defer cancel()

		sendToProgram(chat.StreamStartMsg{
			MessageID: req.MessageID,
			StartTime: time.Now(),
		})

		first := true
		reply, err := m.client.ChatStream(ctx, req.Request, func(chunk api.ChatChunk) {
			sendToProgram(chat.StreamSnapshotMsg{
				MessageID: req.MessageID,
				Text:      chunk.Text,
				First:     first,
			})
			first = false
		})

		switch {
		case err == nil:
			sendToProgram(chat.StreamCompleteMsg{
				MessageID: req.MessageID,
				Reply:     reply,
			})
		case api.IsCancelled(err):
			sendToProgram(chat.StreamCancelledMsg{MessageID: req.MessageID})
		default:
			sendToProgram(chat.StreamErrorMsg{
				MessageID: req.MessageID,
				Err:       err,
			})
		}
	}()

	return nil
}

// runTUI starts the full-screen interface.
func runTUI(args cli.Args) {
	// Bubble Tea owns stdout, so debug output goes to a file.
	if os.Getenv("GPT_DEBUG") != "" {
		f, err := tea.LogToFile("gpt-debug.log", "debug")
		if err == nil {
			defer f.Close()
		}
	}

	cfg := config.Global()
	applyArgOverrides(cfg, args)

	lipgloss.SetColorProfile(cli.GetColorProfile())
	theme := styles.NewThemeWithMode(cfg.UI.Theme)

	client := api.NewClientWithConfig(newClientConfig(cfg))

	// History is best-effort: a broken store degrades to a session-only
	// transcript instead of blocking the UI.
	var store *storage.Store
	if cfg.History.Enabled {
		s, err := storage.Open(storage.Options{MaxTranscripts: cfg.History.Max})
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: history unavailable: %v\n", err)
		} else {
			store = s
			defer store.Close()
		}
	}

	app := appModel{
		chat:   chat.New(theme, cfg, store),
		client: client,
	}

	p := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	// Reload config edits made while the TUI is running and push the new
	// values into the program so the next request uses them.
	watcher, err := config.NewWatcher(func(path string) {
		if err := config.ReloadGlobal(); err != nil {
			return
		}
		reloaded := config.Global()
		applyArgOverrides(reloaded, args)
		sendToProgram(chat.ConfigReloadedMsg{Cfg: reloaded})
	})
	if err == nil {
		if err := watcher.Start(); err == nil {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	programMu.Lock()
	programRef = nil
	programMu.Unlock()

	printParting(app)
}

// newClientConfig maps the loaded configuration onto the backend client.
func newClientConfig(cfg *config.Config) *api.ClientConfig {
	return &api.ClientConfig{
		BaseURL:          cfg.API.BaseURL,
		Timeout:          time.Duration(cfg.API.TimeoutSecs) * time.Second,
		APIKey:           cfg.API.APIKey,
		MaxContinuations: cfg.Chat.MaxContinuations,
	}
}

// applyArgOverrides folds CLI flags into the loaded config.
func applyArgOverrides(cfg *config.Config, args cli.Args) {
	if args.BaseURL != "" {
		cfg.API.BaseURL = args.BaseURL
	}
	if args.System != "" {
		cfg.Chat.SystemMessage = args.System
	}
	if args.Plain {
		cfg.UI.Markdown = false
	}
	if args.NoSave {
		cfg.History.Enabled = false
	}
}

// printParting prints a short session note after the TUI exits.
func printParting(app appModel) {
	t := app.chat.Transcript()
	if t == nil || t.IsEmpty() {
		return
	}
	count := t.MessageCount()
	noun := "messages"
	if count == 1 {
		noun = "message"
	}
	fmt.Printf("%d %s this session.\n", count, noun)
}
