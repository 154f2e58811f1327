// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package chat

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tt-a1i/gpt/internal/api"
	"github.com/tt-a1i/gpt/internal/config"
	"github.com/tt-a1i/gpt/internal/model"
	"github.com/tt-a1i/gpt/internal/ui/styles"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.Default()
	return New(styles.NewThemeWithMode("dark"), cfg, nil)
}

// drainCmds executes a command tree and returns the produced messages.
func drainCmds(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	var msgs []tea.Msg
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			msgs = append(msgs, drainCmds(c)...)
		}
	default:
		msgs = append(msgs, msg)
	}
	return msgs
}

func findStreamRequest(msgs []tea.Msg) (StreamRequestMsg, bool) {
	for _, msg := range msgs {
		if req, ok := msg.(StreamRequestMsg); ok {
			return req, true
		}
	}
	return StreamRequestMsg{}, false
}

func TestSendPromptAddsEntriesAndEmitsRequest(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("hello there")

	updated, cmd := m.handleSubmit()
	m = updated.(Model)

	if m.transcript.MessageCount() != 2 {
		t.Fatalf("MessageCount() = %d, want user entry plus pending reply", m.transcript.MessageCount())
	}
	if m.state != StateStreaming {
		t.Error("submit should enter the streaming state")
	}

	req, ok := findStreamRequest(drainCmds(cmd))
	if !ok {
		t.Fatal("submit should emit a StreamRequestMsg")
	}
	if req.Request.Prompt != "hello there" {
		t.Errorf("Prompt = %q", req.Request.Prompt)
	}
	if req.Request.Options != nil {
		t.Error("first prompt should not carry thread options")
	}
}

func TestSubmitEmptyInputIsNoOp(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("   ")

	updated, cmd := m.handleSubmit()
	m = updated.(Model)

	if cmd != nil {
		t.Error("empty input should produce no command")
	}
	if m.transcript.MessageCount() != 0 {
		t.Error("empty input should not add transcript entries")
	}
}

func TestSubmitWhileStreamingIsIgnored(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("first")
	updated, _ := m.handleSubmit()
	m = updated.(Model)

	m.input.SetValue("second")
	updated, _ = m.sendPrompt("second")
	m = updated.(Model)

	if m.transcript.MessageCount() != 2 {
		t.Errorf("MessageCount() = %d, a second prompt mid-stream must be ignored", m.transcript.MessageCount())
	}
}

func TestSnapshotReplacesPartialText(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.sendPrompt("hi")
	m = updated.(Model)
	id := m.streamingMsgID

	for _, text := range []string{"He", "Hello", "Hello!"} {
		updated, _ = m.Update(StreamSnapshotMsg{MessageID: id, Text: text})
		m = updated.(Model)
	}

	// The tick loop flushes; force it here.
	text, ok := m.buffer.ForceFlush()
	if !ok || text != "Hello!" {
		t.Fatalf("buffer flush = %q, %v; later snapshots must replace earlier ones", text, ok)
	}
	m.transcript.MergePartial(text)

	last := m.transcript.LastMessage()
	if last.GetDisplayContent() != "Hello!" {
		t.Errorf("display content = %q, want the latest snapshot", last.GetDisplayContent())
	}
}

func TestStreamCompleteAdvancesThread(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.sendPrompt("hi")
	m = updated.(Model)
	id := m.streamingMsgID

	updated, _ = m.Update(StreamSnapshotMsg{MessageID: id, Text: "answer"})
	m = updated.(Model)

	updated, _ = m.Update(StreamCompleteMsg{
		MessageID: id,
		Reply: &api.Reply{
			Text:           "answer",
			ID:             "msg-9",
			ConversationID: "conv-1",
		},
	})
	m = updated.(Model)

	if m.state != StateReady {
		t.Error("completion should return to the ready state")
	}
	if m.transcript.Thread.ConversationID != "conv-1" || m.transcript.Thread.ParentMessageID != "msg-9" {
		t.Errorf("Thread = %+v, want conv-1/msg-9", m.transcript.Thread)
	}
	last := m.transcript.LastMessage()
	if last.Loading {
		t.Error("reply should be finalized")
	}
	if last.GetDisplayContent() != "answer" {
		t.Errorf("content = %q", last.GetDisplayContent())
	}
}

func TestNextPromptCarriesThread(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.sendPrompt("hi")
	m = updated.(Model)
	id := m.streamingMsgID

	updated, _ = m.Update(StreamCompleteMsg{
		MessageID: id,
		Reply:     &api.Reply{Text: "a", ID: "msg-1", ConversationID: "conv-1"},
	})
	m = updated.(Model)

	updated, cmd := m.sendPrompt("follow up")
	m = updated.(Model)
	req, ok := findStreamRequest(drainCmds(cmd))
	if !ok {
		t.Fatal("expected a StreamRequestMsg")
	}
	if req.Request.Options == nil {
		t.Fatal("follow-up prompt should carry thread options")
	}
	if req.Request.Options.ConversationID != "conv-1" || req.Request.Options.ParentMessageID != "msg-1" {
		t.Errorf("Options = %+v", req.Request.Options)
	}
}

func TestContextOffDropsThread(t *testing.T) {
	m := newTestModel(t)
	m.transcript.Thread = model.Thread{ConversationID: "conv-1", ParentMessageID: "msg-1"}
	m.transcript.UsingContext = false

	updated, cmd := m.sendPrompt("fresh start")
	_ = updated
	req, ok := findStreamRequest(drainCmds(cmd))
	if !ok {
		t.Fatal("expected a StreamRequestMsg")
	}
	if req.Request.Options != nil {
		t.Error("context off must not send thread options")
	}
}

func TestStreamCancelledKeepsPartialText(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.sendPrompt("hi")
	m = updated.(Model)
	id := m.streamingMsgID

	updated, _ = m.Update(StreamSnapshotMsg{MessageID: id, Text: "partial rep"})
	m = updated.(Model)

	updated, _ = m.Update(StreamCancelledMsg{MessageID: id})
	m = updated.(Model)

	if m.state != StateReady {
		t.Error("cancel should return to the ready state")
	}
	last := m.transcript.LastMessage()
	if last.IsError {
		t.Error("cancel is not an error")
	}
	if last.GetDisplayContent() != "partial rep" {
		t.Errorf("content = %q, cancel must keep the partial text", last.GetDisplayContent())
	}
	if !m.transcript.Thread.IsZero() {
		t.Error("cancel must not advance the thread")
	}
}

func TestStreamErrorBecomesInlineEntry(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.sendPrompt("hi")
	m = updated.(Model)
	id := m.streamingMsgID

	updated, _ = m.Update(StreamErrorMsg{MessageID: id, Err: errors.New("boom")})
	m = updated.(Model)

	if m.state != StateReady {
		t.Error("error should return to the ready state")
	}
	last := m.transcript.LastMessage()
	if !last.IsError {
		t.Error("failed reply should become an inline error entry")
	}
}

func TestStreamErrorKeepsPartialText(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.sendPrompt("hi")
	m = updated.(Model)
	id := m.streamingMsgID

	updated, _ = m.Update(StreamSnapshotMsg{MessageID: id, Text: "three rounds of partial reply text"})
	m = updated.(Model)

	updated, _ = m.Update(StreamErrorMsg{MessageID: id, Err: api.ErrTooManyContinuations})
	m = updated.(Model)

	if m.state != StateReady {
		t.Error("error should return to the ready state")
	}
	if m.transcript.MessageCount() != 3 {
		t.Fatalf("MessageCount = %d, want the error appended after the kept reply", m.transcript.MessageCount())
	}
	reply := m.transcript.Get(1)
	if reply.IsError {
		t.Error("the partial reply must not become the error entry")
	}
	if reply.Content != "three rounds of partial reply text" {
		t.Errorf("content = %q, a stream error must keep the partial text", reply.Content)
	}
	last := m.transcript.LastMessage()
	if !last.IsError {
		t.Error("the failure should render as its own inline error entry")
	}
}

func TestConfigReloadedShapesNextRequest(t *testing.T) {
	m := newTestModel(t)

	reloaded := config.Default()
	reloaded.Chat.Temperature = 0.2
	reloaded.UI.Markdown = false

	updated, _ := m.Update(ConfigReloadedMsg{Cfg: reloaded})
	m = updated.(Model)

	if m.cfg != reloaded {
		t.Fatal("reload should swap the active config")
	}

	updated, cmd := m.sendPrompt("hi")
	m = updated.(Model)
	req, ok := findStreamRequest(drainCmds(cmd))
	if !ok {
		t.Fatal("expected a StreamRequestMsg")
	}
	if req.Request.Temperature != 0.2 {
		t.Errorf("Temperature = %v, want the reloaded value", req.Request.Temperature)
	}
}

func TestConfigReloadedNilIsIgnored(t *testing.T) {
	m := newTestModel(t)
	before := m.cfg

	updated, _ := m.Update(ConfigReloadedMsg{})
	m = updated.(Model)

	if m.cfg != before {
		t.Error("a nil config must leave the current one in place")
	}
}

func TestStaleStreamMessagesIgnored(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.sendPrompt("hi")
	m = updated.(Model)

	updated, _ = m.Update(StreamSnapshotMsg{MessageID: "someone-else", Text: "nope"})
	m = updated.(Model)

	if m.buffer.Pending() {
		t.Error("snapshots for another message must be ignored")
	}
}

func TestRegenerateReusesPromptAndPriorThread(t *testing.T) {
	m := newTestModel(t)

	// First exchange establishes a thread.
	updated, _ := m.sendPrompt("question one")
	m = updated.(Model)
	updated, _ = m.Update(StreamCompleteMsg{
		MessageID: m.streamingMsgID,
		Reply:     &api.Reply{Text: "answer one", ID: "msg-1", ConversationID: "conv-1"},
	})
	m = updated.(Model)

	// Second exchange.
	updated, _ = m.sendPrompt("question two")
	m = updated.(Model)
	updated, _ = m.Update(StreamCompleteMsg{
		MessageID: m.streamingMsgID,
		Reply:     &api.Reply{Text: "answer two", ID: "msg-2", ConversationID: "conv-1"},
	})
	m = updated.(Model)

	updated, cmd := m.regenerate()
	m = updated.(Model)

	req, ok := findStreamRequest(drainCmds(cmd))
	if !ok {
		t.Fatal("regenerate should emit a StreamRequestMsg")
	}
	if req.Request.Prompt != "question two" {
		t.Errorf("Prompt = %q, want the last prompt again", req.Request.Prompt)
	}
	if req.Request.Options == nil || req.Request.Options.ParentMessageID != "msg-1" {
		t.Errorf("Options = %+v, want the thread before the last reply", req.Request.Options)
	}

	// Old reply dropped, pending reply appended.
	if m.transcript.MessageCount() != 4 {
		t.Errorf("MessageCount() = %d, want 4", m.transcript.MessageCount())
	}
	if !m.transcript.LastMessage().Loading {
		t.Error("regenerate should append a pending reply")
	}
}

func TestRegenerateWithEmptyTranscript(t *testing.T) {
	m := newTestModel(t)

	updated, cmd := m.regenerate()
	m = updated.(Model)

	if cmd != nil {
		t.Error("nothing to regenerate should produce no command")
	}
	last := m.transcript.LastMessage()
	if last == nil || !last.IsError {
		t.Error("regenerate on an empty transcript should add an inline error")
	}
}

func TestResizeUpdatesViewport(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(Model)

	if !m.ready {
		t.Error("resize should mark the model ready")
	}
	if m.viewport.Width != 100 {
		t.Errorf("viewport width = %d", m.viewport.Width)
	}
	if m.viewport.Height >= 40 {
		t.Error("viewport must leave room for header, input and status")
	}
}

func TestViewBeforeFirstResize(t *testing.T) {
	m := newTestModel(t)
	if m.View() != "Loading..." {
		t.Errorf("View() before resize = %q", m.View())
	}
}

func TestFriendlyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unreachable", &api.ClientError{Type: api.ErrTypeConnection, Message: "refused"}, "Backend unreachable"},
		{"timeout", &api.ClientError{Type: api.ErrTypeTimeout, Message: "deadline"}, "timed out"},
		{"continuations", api.ErrTooManyContinuations, "length limit"},
		{"other", errors.New("weird"), "weird"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := friendlyError(tt.err)
			if !strings.Contains(got, tt.want) {
				t.Errorf("friendlyError(%v) = %q, want substring %q", tt.err, got, tt.want)
			}
		})
	}
}
