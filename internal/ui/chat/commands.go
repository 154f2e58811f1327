// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package chat

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tt-a1i/gpt/internal/export"
	"github.com/tt-a1i/gpt/internal/model"
	"github.com/tt-a1i/gpt/internal/util"
)

// CommandHandler handles one slash command.
type CommandHandler func(m *Model, args []string) (tea.Model, tea.Cmd)

// commandHandlers maps command names (and aliases) to handlers.
var commandHandlers = map[string]CommandHandler{
	"help": handleHelpCommand,
	"h":    handleHelpCommand,
	"?":    handleHelpCommand,
	"quit": handleQuitCommand,
	"q":    handleQuitCommand,
	"exit": handleQuitCommand,

	"clear": handleClearCommand,
	"c":     handleClearCommand,
	"new":   handleNewCommand,
	"n":     handleNewCommand,

	"regen": handleRegenCommand,
	"r":     handleRegenCommand,

	"delete": handleDeleteCommand,
	"del":    handleDeleteCommand,

	"context": handleContextCommand,
	"ctx":     handleContextCommand,
	"system":  handleSystemCommand,
	"sys":     handleSystemCommand,

	"export": handleExportCommand,
	"e":      handleExportCommand,

	"save":     handleSaveCommand,
	"s":        handleSaveCommand,
	"load":     handleLoadCommand,
	"l":        handleLoadCommand,
	"list":     handleListCommand,
	"sessions": handleListCommand,
	"search":   handleSearchCommand,

	"config": handleConfigCommand,
	"cfg":    handleConfigCommand,
}

// handleCommand parses and dispatches a slash command.
func (m Model) handleCommand(content string) (tea.Model, tea.Cmd) {
	m.input.Reset()

	parts := strings.Fields(content)
	if len(parts) == 0 {
		return m, nil
	}
	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	args := parts[1:]

	if handler, ok := commandHandlers[name]; ok {
		return handler(&m, args)
	}

	m.transcript.AddErrorMessage("Unknown command '" + parts[0] + "'. Type /help for available commands.")
	m.updateViewport()
	return m, nil
}

func handleHelpCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.transcript.AddSystemMessage(commandHelpText())
	m.updateViewport()
	return *m, nil
}

func handleQuitCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return *m, tea.Quit
}

func handleClearCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.transcript.Clear()
	m.updateViewport()
	return *m, nil
}

func handleNewCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	t := model.NewTranscript()
	t.UsingContext = m.cfg.Chat.UseContext
	t.SystemPrompt = m.cfg.Chat.SystemMessage
	m.transcript = t
	m.notice = ""
	m.updateViewport()
	return *m, nil
}

func handleRegenCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return m.regenerate()
}

// handleDeleteCommand removes an entry: the last one by default, or the
// 1-based index given as argument.
func handleDeleteCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.transcript.IsEmpty() {
		m.transcript.AddSystemMessage("Nothing to delete.")
		m.updateViewport()
		return *m, nil
	}

	idx := m.transcript.MessageCount() - 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > m.transcript.MessageCount() {
			// A bad index is a usage slip, not a failure.
			m.transcript.AddSystemMessage("Usage: /delete [entry number]")
			m.updateViewport()
			return *m, nil
		}
		idx = n - 1
	}

	m.transcript.DeleteAt(idx)
	m.updateViewport()
	return *m, nil
}

// handleContextCommand toggles or sets whether prompts carry the thread.
func handleContextCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	switch {
	case len(args) == 0:
		m.transcript.UsingContext = !m.transcript.UsingContext
	case args[0] == "on":
		m.transcript.UsingContext = true
	case args[0] == "off":
		m.transcript.UsingContext = false
	default:
		m.transcript.AddErrorMessage("Usage: /context [on|off]")
		m.updateViewport()
		return *m, nil
	}

	if m.transcript.UsingContext {
		m.transcript.AddSystemMessage("Context on: prompts continue the current conversation.")
	} else {
		m.transcript.AddSystemMessage("Context off: each prompt starts fresh.")
	}
	m.updateViewport()
	return *m, nil
}

// handleSystemCommand shows, sets, or clears the system prompt.
func handleSystemCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	switch {
	case len(args) == 0:
		if m.transcript.SystemPrompt == "" {
			m.transcript.AddSystemMessage("No system prompt set. Usage: /system <text> or /system clear")
		} else {
			m.transcript.AddSystemMessage("System prompt: " + m.transcript.SystemPrompt)
		}
	case len(args) == 1 && args[0] == "clear":
		m.transcript.SystemPrompt = ""
		m.transcript.AddSystemMessage("System prompt cleared.")
	default:
		m.transcript.SystemPrompt = strings.Join(args, " ")
		m.transcript.AddSystemMessage("System prompt updated.")
	}
	m.updateViewport()
	return *m, nil
}

// handleExportCommand writes the transcript to a file. Format defaults
// to markdown; "html" and "json" are also supported.
func handleExportCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.transcript.IsEmpty() {
		m.transcript.AddErrorMessage("Nothing to export yet.")
		m.updateViewport()
		return *m, nil
	}

	format := "markdown"
	if len(args) > 0 {
		format = strings.ToLower(args[0])
	}

	opts := export.DefaultOptions()
	opts.Theme = m.cfg.UI.Theme
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		m.transcript.AddErrorMessage("Usage: /export [markdown|html|json]")
		m.updateViewport()
		return *m, nil
	}

	snapshot := m.transcript.Clone()
	return *m, func() tea.Msg {
		path, err := export.ExportToFile(snapshot, exporter, opts)
		return ExportCompleteMsg{Path: path, Err: err}
	}
}

func handleSaveCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.store == nil {
		m.transcript.AddErrorMessage("History store is not available.")
		m.updateViewport()
		return *m, nil
	}
	if len(args) > 0 {
		m.transcript.SetTitle(strings.Join(args, " "))
	}

	store := m.store
	snapshot := m.transcript.Clone()
	return *m, func() tea.Msg {
		if err := store.Save(snapshot); err != nil {
			return TranscriptSavedMsg{ID: snapshot.ID, Err: err}
		}
		return TranscriptSavedMsg{ID: snapshot.ID}
	}
}

func handleLoadCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.store == nil {
		m.transcript.AddErrorMessage("History store is not available.")
		m.updateViewport()
		return *m, nil
	}
	if len(args) != 1 {
		m.transcript.AddErrorMessage("Usage: /load <id>. Use /list to see saved chats.")
		m.updateViewport()
		return *m, nil
	}

	store := m.store
	id := args[0]
	return *m, func() tea.Msg {
		t, err := store.Load(id)
		return TranscriptLoadedMsg{Transcript: t, Err: err}
	}
}

func handleListCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.store == nil {
		m.transcript.AddErrorMessage("History store is not available.")
		m.updateViewport()
		return *m, nil
	}
	store := m.store
	return *m, func() tea.Msg {
		metas, err := store.List()
		return TranscriptListMsg{Metas: metas, Err: err}
	}
}

func handleSearchCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.store == nil {
		m.transcript.AddErrorMessage("History store is not available.")
		m.updateViewport()
		return *m, nil
	}
	if len(args) == 0 {
		m.transcript.AddErrorMessage("Usage: /search <text>")
		m.updateViewport()
		return *m, nil
	}

	store := m.store
	query := strings.Join(args, " ")
	return *m, func() tea.Msg {
		metas, err := store.Search(query)
		return TranscriptListMsg{Metas: metas, Query: query, Err: err}
	}
}

// handleConfigCommand reads or writes a configuration key for the
// current session.
func handleConfigCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	switch {
	case len(args) == 2 && args[0] == "get":
		value, err := m.cfg.Get(args[1])
		if err != nil {
			m.transcript.AddErrorMessage(err.Error())
		} else {
			m.transcript.AddSystemMessage(fmt.Sprintf("%s = %v", args[1], value))
		}
	case len(args) == 3 && args[0] == "set":
		if err := m.cfg.Set(args[1], args[2]); err != nil {
			m.transcript.AddErrorMessage(err.Error())
		} else {
			m.transcript.AddSystemMessage(fmt.Sprintf("%s set to %s (this session)", args[1], args[2]))
		}
	default:
		m.transcript.AddErrorMessage("Usage: /config get <key> | /config set <key> <value>")
	}
	m.updateViewport()
	return *m, nil
}

// formatTranscriptList renders history metadata for the transcript.
func formatTranscriptList(metas []model.Meta, query string) string {
	if len(metas) == 0 {
		if query != "" {
			return "No saved chats match \"" + query + "\"."
		}
		return "No saved chats yet. /save stores the current one."
	}

	var b strings.Builder
	if query != "" {
		fmt.Fprintf(&b, "Chats matching %q:\n", query)
	} else {
		b.WriteString("Saved chats:\n")
	}
	for _, meta := range metas {
		fmt.Fprintf(&b, "  %s  %s (%d messages, %s)\n",
			meta.ID, util.TruncateWidth(meta.Title, 40), meta.MessageCount,
			meta.UpdatedAt.Format("2006-01-02 15:04"))
	}
	b.WriteString("Use /load <id> to resume.")
	return b.String()
}

func commandHelpText() string {
	return strings.TrimSpace(`
Commands:
  /help              show this help
  /regen             regenerate the last reply
  /delete [n]        delete the last entry, or entry n
  /clear             clear the transcript
  /new               start a new chat
  /context [on|off]  toggle conversation context
  /system <text>     set the system prompt (/system clear to unset)
  /export [format]   export as markdown, html, or json
  /save [title]      save this chat to history
  /load <id>         load a chat from history
  /list              list saved chats
  /search <text>     full-text search saved chats
  /config get|set    read or change a setting for this session
  /quit              exit

Keys: enter sends, esc stops a reply, ctrl+t toggles context,
ctrl+l clears, f1 shows key help, ctrl+c stops or quits.`)
}
