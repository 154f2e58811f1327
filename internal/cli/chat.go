// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

// chat.go - interactive line-mode chat command.
//
// A readline-style REPL for terminals where the full TUI is unwanted,
// e.g. over slow SSH links or inside editor terminals. Input history is
// persisted across sessions.
//
// Interactive commands:
//   /help, /h           Show available commands
//   /clear, /c          Clear the conversation
//   /new, /n            Start a fresh conversation
//   /context [on|off]   Toggle conversation context
//   /system [text]      Show or set the system message
//   /history            Print the current transcript
//   /save               Save the transcript to history
//   /load <id>          Load a transcript from history
//   /list               List saved transcripts
//   /export [format]    Export the transcript
//   /quit, /q           Exit
//   Ctrl+C              Cancel the current reply
//   Ctrl+D              Exit
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/tt-a1i/gpt/internal/api"
	"github.com/tt-a1i/gpt/internal/config"
	"github.com/tt-a1i/gpt/internal/export"
	"github.com/tt-a1i/gpt/internal/model"
	"github.com/tt-a1i/gpt/internal/storage"
	"github.com/tt-a1i/gpt/internal/util"
)

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt. Non-empty
// input is added to the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// ChatSession holds the state for an interactive chat session.
type ChatSession struct {
	Transcript *model.Transcript
	Config     *config.Config
	Client     *api.Client
	Store      *storage.Store

	Quiet       bool
	Plain       bool
	NoSave      bool
	StartTime   time.Time
	TotalTokens int

	InputCLI *ChatCLI

	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

// setCancel installs the cancel function for the in-flight stream.
func (s *ChatSession) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancelFunc = cancel
	s.mu.Unlock()
}

// cancelStream cancels the in-flight stream, if any.
func (s *ChatSession) cancelStream() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelFunc == nil {
		return false
	}
	s.cancelFunc()
	s.cancelFunc = nil
	return true
}

// NewChatSession creates a new chat session from the global config.
func NewChatSession(args Args) *ChatSession {
	cfg := config.Global()

	transcript := model.NewTranscript()
	transcript.UsingContext = cfg.Chat.UseContext
	systemMessage := cfg.Chat.SystemMessage
	if args.System != "" {
		systemMessage = args.System
	}
	transcript.SystemPrompt = systemMessage

	var store *storage.Store
	if cfg.History.Enabled && !args.NoSave {
		s, err := storage.Open(storage.Options{MaxTranscripts: cfg.History.Max})
		if err == nil {
			store = s
		} else if !args.Quiet {
			fmt.Fprintf(os.Stderr, "%s history unavailable: %v\n",
				warningStyle.Render("[!]"), err)
		}
	}

	return &ChatSession{
		Transcript: transcript,
		Config:     cfg,
		Client:     newBackendClient(cfg, args),
		Store:      store,
		Quiet:      args.Quiet,
		Plain:      args.Plain || !cfg.UI.Markdown,
		NoSave:     args.NoSave,
		StartTime:  time.Now(),
		InputCLI:   NewChatCLI(),
	}
}

// HandleChatCommand handles the "chat" command REPL.
func HandleChatCommand(args Args) error {
	session := NewChatSession(args)
	defer session.InputCLI.Close()
	if session.Store != nil {
		defer session.Store.Close()
	}

	// A failed ping is a warning, not a hard stop; the backend may come
	// up between now and the first prompt.
	ctx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := session.Client.Ping(ctx); err != nil && !session.Quiet {
		fmt.Fprintf(os.Stderr, "%s backend not reachable yet: %v\n",
			warningStyle.Render("[!]"), err)
	}
	pingCancel()

	if !session.Quiet {
		printWelcome(session)
	}

	// First Ctrl+C during a stream cancels it; at the prompt liner
	// reports it as ErrPromptAborted.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if session.cancelStream() {
				fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		input, err := session.InputCLI.ReadInput(promptStyle.Render("gpt> "))
		if err != nil {
			// ErrPromptAborted (Ctrl+C) and EOF (Ctrl+D) both exit.
			fmt.Println()
			printExitSummary(session)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			keepGoing, err := handleSlashCommand(input, session)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				printExitSummary(session)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(session)
			return nil
		}

		if err := processMessage(session, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// processMessage sends a prompt and streams the reply to stdout.
func processMessage(session *ChatSession, prompt string) error {
	t := session.Transcript
	thread := t.Thread

	t.AddUserMessage(prompt)
	msg := t.AddAssistantMessage()
	stats := model.NewStatistics()

	req := api.ChatRequest{
		Prompt:        prompt,
		SystemMessage: t.SystemPrompt,
		Temperature:   session.Config.Chat.Temperature,
		TopP:          session.Config.Chat.TopP,
	}
	if t.UsingContext && !thread.IsZero() {
		req.Options = &api.RequestOptions{
			ConversationID:  thread.ConversationID,
			ParentMessageID: thread.ParentMessageID,
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	session.setCancel(cancel)
	defer func() {
		session.setCancel(nil)
		cancel()
	}()

	// Chunks are cumulative snapshots; print only what is new.
	printed := 0
	first := true
	reply, err := session.Client.ChatStream(ctx, req, func(chunk api.ChatChunk) {
		if first {
			stats.RecordFirstChunk()
			first = false
		}
		if len(chunk.Text) > printed {
			fmt.Print(chunk.Text[printed:])
			printed = len(chunk.Text)
		}
		msg.SetPartial(chunk.Text)
	})

	if err != nil {
		if api.IsCancelled(err) {
			// Keep the partial reply; the thread does not advance.
			t.CancelLast()
			fmt.Println()
			return nil
		}
		t.FailLast(err.Error())
		fmt.Println()
		return err
	}

	tokens := reply.CompletionTokens
	if tokens == 0 {
		tokens = msg.EstimateTokens()
	}
	stats.Finalize(tokens)
	session.TotalTokens += tokens

	t.FinalizeLast(stats, model.Thread{
		ConversationID:  reply.ConversationID,
		ParentMessageID: reply.ID,
	})

	fmt.Println()
	if !session.Quiet {
		fmt.Fprintln(os.Stderr, infoStyle.Render(msg.FormatStats()))
	}

	autosave(session)
	return nil
}

// autosave persists the transcript when a store is available.
func autosave(session *ChatSession) {
	if session.Store == nil || session.NoSave || session.Transcript.IsEmpty() {
		return
	}
	if err := session.Store.Save(session.Transcript); err != nil && !session.Quiet {
		fmt.Fprintf(os.Stderr, "%s save failed: %v\n", warningStyle.Render("[!]"), err)
	}
}

// handleSlashCommand dispatches an interactive command. Returns false
// when the session should end.
func handleSlashCommand(input string, session *ChatSession) (bool, error) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	cmdArgs := fields[1:]

	switch cmd {
	case "help", "h", "?":
		printChatHelp()
		return true, nil

	case "quit", "q", "exit":
		return false, nil

	case "clear", "c":
		session.Transcript.Clear()
		fmt.Println(infoStyle.Render("Conversation cleared."))
		return true, nil

	case "new", "n":
		session.Transcript = model.NewTranscript()
		session.Transcript.UsingContext = session.Config.Chat.UseContext
		session.Transcript.SystemPrompt = session.Config.Chat.SystemMessage
		fmt.Println(infoStyle.Render("Started a new conversation."))
		return true, nil

	case "context", "ctx":
		return true, handleContextToggle(session, cmdArgs)

	case "system", "sys":
		if len(cmdArgs) == 0 {
			if session.Transcript.SystemPrompt == "" {
				fmt.Println(infoStyle.Render("No system message set."))
			} else {
				fmt.Println(infoStyle.Render("System message: " + session.Transcript.SystemPrompt))
			}
			return true, nil
		}
		session.Transcript.SystemPrompt = strings.Join(cmdArgs, " ")
		fmt.Println(infoStyle.Render("System message updated."))
		return true, nil

	case "history", "hist":
		printTranscript(session.Transcript)
		return true, nil

	case "save", "s":
		if session.Store == nil {
			return true, fmt.Errorf("history is disabled")
		}
		if session.Transcript.IsEmpty() {
			return true, fmt.Errorf("nothing to save")
		}
		if err := session.Store.Save(session.Transcript); err != nil {
			return true, err
		}
		fmt.Println(infoStyle.Render("Saved as " + session.Transcript.ID))
		return true, nil

	case "load", "l":
		if session.Store == nil {
			return true, fmt.Errorf("history is disabled")
		}
		if len(cmdArgs) == 0 {
			return true, fmt.Errorf("usage: /load <id>")
		}
		loaded, err := session.Store.Load(cmdArgs[0])
		if err != nil {
			return true, err
		}
		session.Transcript = loaded
		fmt.Println(infoStyle.Render(fmt.Sprintf("Loaded %q (%d messages).",
			loaded.GetTitle(), loaded.MessageCount())))
		return true, nil

	case "list", "ls":
		if session.Store == nil {
			return true, fmt.Errorf("history is disabled")
		}
		metas, err := session.Store.List()
		if err != nil {
			return true, err
		}
		printTranscriptList(metas)
		return true, nil

	case "export", "e":
		return true, handleChatExport(session, cmdArgs)

	default:
		return true, fmt.Errorf("unknown command %q, try /help", "/"+cmd)
	}
}

// handleContextToggle switches conversation context on or off.
func handleContextToggle(session *ChatSession, args []string) error {
	t := session.Transcript
	switch {
	case len(args) == 0:
		t.UsingContext = !t.UsingContext
	case args[0] == "on":
		t.UsingContext = true
	case args[0] == "off":
		t.UsingContext = false
	default:
		return fmt.Errorf("usage: /context [on|off]")
	}

	if t.UsingContext {
		fmt.Println(infoStyle.Render("Context on: replies follow the conversation."))
	} else {
		fmt.Println(infoStyle.Render("Context off: each prompt stands alone."))
	}
	return nil
}

// handleChatExport writes the transcript to a file in the given format.
func handleChatExport(session *ChatSession, args []string) error {
	if session.Transcript.IsEmpty() {
		return fmt.Errorf("nothing to export")
	}

	format := "markdown"
	if len(args) > 0 {
		format = args[0]
	}

	opts := export.DefaultOptions()
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return err
	}

	path, err := export.ExportToFile(session.Transcript.Clone(), exporter, opts)
	if err != nil {
		return err
	}
	fmt.Println(infoStyle.Render("Exported to " + path))
	return nil
}

// printWelcome shows the session banner.
func printWelcome(session *ChatSession) {
	fmt.Println(welcomeStyle.Render("gpt interactive chat"))
	fmt.Println(infoStyle.Render("Backend: " + session.Client.GetConfig().BaseURL))
	fmt.Println(infoStyle.Render("Type /help for commands, Ctrl+D to exit."))
	fmt.Println()
}

// printChatHelp lists the interactive commands.
func printChatHelp() {
	rows := [][2]string{
		{"/help", "Show this help"},
		{"/clear", "Clear the conversation"},
		{"/new", "Start a fresh conversation"},
		{"/context [on|off]", "Toggle conversation context"},
		{"/system [text]", "Show or set the system message"},
		{"/history", "Print the current transcript"},
		{"/save", "Save the transcript to history"},
		{"/load <id>", "Load a transcript from history"},
		{"/list", "List saved transcripts"},
		{"/export [format]", "Export as markdown, html, or json"},
		{"/quit", "Exit"},
	}

	fmt.Println(welcomeStyle.Render("Commands"))
	for _, row := range rows {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-20s", row[0])),
			infoStyle.Render(row[1]))
	}
	fmt.Println()
}

// printTranscript prints the conversation so far.
func printTranscript(t *model.Transcript) {
	if t.IsEmpty() {
		fmt.Println(infoStyle.Render("The conversation is empty."))
		return
	}
	for i := 0; i < t.MessageCount(); i++ {
		msg := t.Get(i)
		if msg == nil {
			continue
		}
		label := string(msg.Role)
		if msg.IsError {
			label = "error"
		}
		fmt.Printf("%s %s\n",
			promptStyle.Render("["+label+"]"),
			msg.GetDisplayContent())
	}
}

// printTranscriptList prints saved transcript metadata.
func printTranscriptList(metas []model.Meta) {
	if len(metas) == 0 {
		fmt.Println(infoStyle.Render("No saved conversations."))
		return
	}
	for _, meta := range metas {
		fmt.Printf("%s  %s  %s\n",
			commandStyle.Render(meta.ID),
			meta.UpdatedAt.Format("2006-01-02 15:04"),
			infoStyle.Render(util.TruncateWidth(meta.Title, 60)))
	}
}

// printExitSummary prints session statistics on exit.
func printExitSummary(session *ChatSession) {
	if session.Quiet {
		return
	}
	duration := time.Since(session.StartTime).Round(time.Second)
	fmt.Fprintf(os.Stderr, "%s %d messages, %s tokens, %v\n",
		summaryLabelStyle.Render("Session:"),
		session.Transcript.MessageCount(),
		formatNumber(session.TotalTokens),
		duration)
}
