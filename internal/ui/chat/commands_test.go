// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package chat

import (
	"strings"
	"testing"

	"github.com/tt-a1i/gpt/internal/model"
)

func TestUnknownCommand(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.handleCommand("/bogus")
	m = updated.(Model)

	last := m.transcript.LastMessage()
	if last == nil || !last.IsError {
		t.Fatal("unknown command should add an inline error entry")
	}
	if !strings.Contains(last.GetDisplayContent(), "/bogus") {
		t.Errorf("error should name the command, got %q", last.GetDisplayContent())
	}
}

func TestHelpCommand(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.handleCommand("/help")
	m = updated.(Model)

	last := m.transcript.LastMessage()
	if last == nil || last.Role != model.RoleSystem {
		t.Fatal("/help should add a system entry")
	}
	if !strings.Contains(last.GetDisplayContent(), "/regen") {
		t.Error("/help output should list commands")
	}
}

func TestClearCommand(t *testing.T) {
	m := newTestModel(t)
	m.transcript.AddUserMessage("hello")
	m.transcript.Thread = model.Thread{ConversationID: "c", ParentMessageID: "p"}

	updated, _ := m.handleCommand("/clear")
	m = updated.(Model)

	if !m.transcript.IsEmpty() {
		t.Error("/clear should remove all entries")
	}
	if !m.transcript.Thread.IsZero() {
		t.Error("/clear should reset the thread")
	}
}

func TestNewCommandStartsFreshTranscript(t *testing.T) {
	m := newTestModel(t)
	m.transcript.AddUserMessage("old")
	oldID := m.transcript.ID

	updated, _ := m.handleCommand("/new")
	m = updated.(Model)

	if m.transcript.ID == oldID {
		t.Error("/new should create a transcript with a new identity")
	}
	if !m.transcript.IsEmpty() {
		t.Error("/new should start empty")
	}
}

func TestContextCommand(t *testing.T) {
	m := newTestModel(t)
	if !m.transcript.UsingContext {
		t.Fatal("context should default to on")
	}

	updated, _ := m.handleCommand("/context")
	m = updated.(Model)
	if m.transcript.UsingContext {
		t.Error("/context should toggle off")
	}

	updated, _ = m.handleCommand("/context on")
	m = updated.(Model)
	if !m.transcript.UsingContext {
		t.Error("/context on should enable context")
	}

	updated, _ = m.handleCommand("/context off")
	m = updated.(Model)
	if m.transcript.UsingContext {
		t.Error("/context off should disable context")
	}
}

func TestSystemCommand(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.handleCommand("/system You are terse.")
	m = updated.(Model)
	if m.transcript.SystemPrompt != "You are terse." {
		t.Errorf("SystemPrompt = %q", m.transcript.SystemPrompt)
	}

	updated, _ = m.handleCommand("/system clear")
	m = updated.(Model)
	if m.transcript.SystemPrompt != "" {
		t.Error("/system clear should unset the prompt")
	}
}

func TestDeleteCommand(t *testing.T) {
	m := newTestModel(t)
	m.transcript.AddUserMessage("one")
	m.transcript.AddUserMessage("two")
	m.transcript.AddUserMessage("three")

	updated, _ := m.handleCommand("/delete")
	m = updated.(Model)
	if m.transcript.MessageCount() != 2 {
		t.Errorf("MessageCount() = %d, /delete should remove the last entry", m.transcript.MessageCount())
	}

	updated, _ = m.handleCommand("/delete 1")
	m = updated.(Model)
	if m.transcript.MessageCount() != 1 {
		t.Errorf("MessageCount() = %d, /delete 1 should remove the first entry", m.transcript.MessageCount())
	}
	if m.transcript.Get(0).Content != "two" {
		t.Errorf("remaining entry = %q", m.transcript.Get(0).Content)
	}
}

func TestDeleteCommandBadIndex(t *testing.T) {
	m := newTestModel(t)
	m.transcript.AddUserMessage("one")

	updated, _ := m.handleCommand("/delete 9")
	m = updated.(Model)

	last := m.transcript.LastMessage()
	if last == nil || last.Role != model.RoleSystem {
		t.Fatal("out-of-range /delete should add a system notice")
	}
	if last.IsError {
		t.Error("a bad index is not an error entry")
	}
}

func TestExportCommandEmptyTranscript(t *testing.T) {
	m := newTestModel(t)

	updated, cmd := m.handleCommand("/export")
	m = updated.(Model)

	if cmd != nil {
		t.Error("exporting an empty transcript should not produce a command")
	}
	if last := m.transcript.LastMessage(); last == nil || !last.IsError {
		t.Error("exporting an empty transcript should add an inline error")
	}
}

func TestExportCommandBadFormat(t *testing.T) {
	m := newTestModel(t)
	m.transcript.AddUserMessage("hello")

	updated, cmd := m.handleCommand("/export docx")
	m = updated.(Model)

	if cmd != nil {
		t.Error("an unsupported format should not produce a command")
	}
	if last := m.transcript.LastMessage(); last == nil || !last.IsError {
		t.Error("an unsupported format should add an inline error")
	}
}

func TestHistoryCommandsWithoutStore(t *testing.T) {
	m := newTestModel(t) // store is nil

	for _, cmd := range []string{"/save", "/load abc", "/list", "/search hello"} {
		updated, c := m.handleCommand(cmd)
		m = updated.(Model)
		if c != nil {
			t.Errorf("%s without a store should not produce a command", cmd)
		}
	}
}

func TestConfigCommand(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.handleCommand("/config get chat.temperature")
	m = updated.(Model)
	last := m.transcript.LastMessage()
	if last == nil || last.Role != model.RoleSystem {
		t.Fatal("/config get should add a system entry")
	}
	if !strings.Contains(last.GetDisplayContent(), "chat.temperature") {
		t.Errorf("entry = %q", last.GetDisplayContent())
	}

	updated, _ = m.handleCommand("/config set chat.temperature 0.5")
	m = updated.(Model)
	if m.cfg.Chat.Temperature != 0.5 {
		t.Errorf("Temperature = %v after /config set", m.cfg.Chat.Temperature)
	}
}

func TestFormatTranscriptList(t *testing.T) {
	if out := formatTranscriptList(nil, ""); !strings.Contains(out, "No saved chats") {
		t.Errorf("empty list output = %q", out)
	}
	if out := formatTranscriptList(nil, "query"); !strings.Contains(out, "query") {
		t.Errorf("empty search output = %q", out)
	}

	metas := []model.Meta{{ID: "chat_1", Title: "Greetings", MessageCount: 4}}
	out := formatTranscriptList(metas, "")
	if !strings.Contains(out, "chat_1") || !strings.Contains(out, "Greetings") {
		t.Errorf("list output = %q", out)
	}
}
