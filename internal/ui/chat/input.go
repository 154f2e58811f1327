// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tt-a1i/gpt/internal/api"
	"github.com/tt-a1i/gpt/internal/model"
)

// handleSubmit routes the input line: empty input is a no-op, a leading
// slash runs a command, anything else is sent as a prompt.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}
	if strings.HasPrefix(content, "/") {
		return m.handleCommand(content)
	}
	return m.sendPrompt(content)
}

// sendPrompt appends the user entry plus a pending reply entry and asks
// the program root to start the request. Only one request runs at a time.
func (m Model) sendPrompt(prompt string) (tea.Model, tea.Cmd) {
	if m.state == StateStreaming {
		return m, nil
	}

	m.input.Reset()
	m.notice = ""
	m.transcript.AddUserMessage(prompt)
	pending := m.transcript.AddAssistantMessage()

	return m.startStream(pending.ID, m.buildRequest(prompt, m.transcript.Thread))
}

// regenerate re-issues the most recent prompt against the thread state
// that preceded it, replacing everything after that prompt.
func (m Model) regenerate() (tea.Model, tea.Cmd) {
	if m.state == StateStreaming {
		return m, nil
	}

	idx := -1
	for i := m.transcript.MessageCount() - 1; i >= 0; i-- {
		if msg := m.transcript.Get(i); msg != nil && msg.Role == model.RoleUser {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.transcript.AddErrorMessage("Nothing to regenerate yet.")
		m.updateViewport()
		return m, nil
	}

	prompt := m.transcript.Get(idx).Content
	thread := m.transcript.ThreadBefore(idx)

	// Drop the old reply (and anything after it) before re-asking.
	for m.transcript.MessageCount() > idx+1 {
		m.transcript.DeleteAt(idx + 1)
	}
	m.transcript.Thread = thread

	pending := m.transcript.AddAssistantMessage()
	return m.startStream(pending.ID, m.buildRequest(prompt, thread))
}

// startStream flips the view into the streaming state and emits the
// request for the program root.
func (m Model) startStream(messageID string, req api.ChatRequest) (tea.Model, tea.Cmd) {
	m.state = StateStreaming
	m.streamingMsgID = messageID
	m.streamStats = model.NewStatistics()
	m.buffer.Reset()
	m.input.Blur()
	m.updateViewport()

	return m, tea.Batch(
		m.spinner.Tick,
		streamTickCmd(),
		func() tea.Msg {
			return StreamRequestMsg{MessageID: messageID, Request: req}
		},
	)
}

// buildRequest assembles the backend request for a prompt. The thread is
// attached only while context is on; detached prompts start a fresh
// backend conversation.
func (m Model) buildRequest(prompt string, thread model.Thread) api.ChatRequest {
	req := api.ChatRequest{
		Prompt:        prompt,
		SystemMessage: m.transcript.SystemPrompt,
		Temperature:   m.cfg.Chat.Temperature,
		TopP:          m.cfg.Chat.TopP,
	}
	if m.transcript.UsingContext && !thread.IsZero() {
		req.Options = &api.RequestOptions{
			ConversationID:  thread.ConversationID,
			ParentMessageID: thread.ParentMessageID,
		}
	}
	return req
}
