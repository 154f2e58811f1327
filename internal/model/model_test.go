// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package model

import (
	"strings"
	"testing"
)

func TestNewTranscript(t *testing.T) {
	tr := NewTranscript()

	if tr.ID == "" {
		t.Error("ID should be generated")
	}
	if !strings.HasPrefix(tr.ID, "chat_") {
		t.Errorf("ID = %q, want chat_ prefix", tr.ID)
	}
	if !tr.IsEmpty() {
		t.Error("new transcript should be empty")
	}
	if !tr.UsingContext {
		t.Error("context should be on by default")
	}
	if !tr.Thread.IsZero() {
		t.Error("new transcript should have no thread")
	}
}

func TestTranscript_AddMessages(t *testing.T) {
	tr := NewTranscript()

	user := tr.AddUserMessage("hello")
	if user.Role != RoleUser {
		t.Errorf("Role = %q, want user", user.Role)
	}

	reply := tr.AddAssistantMessage()
	if !reply.Loading {
		t.Error("pending reply should have Loading set")
	}

	if tr.MessageCount() != 2 {
		t.Errorf("MessageCount = %d, want 2", tr.MessageCount())
	}
	if tr.LastUserMessage() != user {
		t.Error("LastUserMessage should return the user entry")
	}
}

func TestTranscript_MergePartial_LastChunkWins(t *testing.T) {
	tr := NewTranscript()
	tr.AddUserMessage("hi")
	reply := tr.AddAssistantMessage()

	tr.MergePartial("Hel")
	tr.MergePartial("Hello")
	tr.MergePartial("Hello, world")

	got := reply.GetDisplayContent()
	if got != "Hello, world" {
		t.Errorf("partial = %q, want the latest snapshot only", got)
	}
}

func TestTranscript_FinalizeLast_AdvancesThread(t *testing.T) {
	tr := NewTranscript()
	tr.AddUserMessage("hi")
	reply := tr.AddAssistantMessage()
	tr.MergePartial("done")

	thread := Thread{ConversationID: "c1", ParentMessageID: "m1"}
	stats := NewStatistics()
	stats.Finalize(10)
	tr.FinalizeLast(stats, thread)

	if reply.Loading {
		t.Error("reply should no longer be loading")
	}
	if reply.Content != "done" {
		t.Errorf("Content = %q, want %q", reply.Content, "done")
	}
	if tr.Thread != thread {
		t.Errorf("Thread = %+v, want %+v", tr.Thread, thread)
	}
	if reply.ConversationID != "c1" || reply.ParentMessageID != "m1" {
		t.Error("reply should carry the thread identifiers")
	}
}

func TestTranscript_FinalizeLast_ZeroThreadKeepsCurrent(t *testing.T) {
	tr := NewTranscript()
	tr.Thread = Thread{ConversationID: "c1", ParentMessageID: "m1"}
	tr.AddUserMessage("hi")
	tr.AddAssistantMessage()

	tr.FinalizeLast(nil, Thread{})

	if tr.Thread.ConversationID != "c1" {
		t.Error("zero thread should not clobber the current thread")
	}
}

func TestTranscript_CancelLast_KeepsPartialSilently(t *testing.T) {
	tr := NewTranscript()
	tr.AddUserMessage("hi")
	reply := tr.AddAssistantMessage()
	tr.MergePartial("partial answ")

	tr.CancelLast()

	if reply.Loading {
		t.Error("cancelled reply should not be loading")
	}
	if reply.IsError {
		t.Error("cancellation must not mark the entry as an error")
	}
	if reply.Content != "partial answ" {
		t.Errorf("Content = %q, want the partial text kept", reply.Content)
	}
	if !tr.Thread.IsZero() {
		t.Error("cancellation must not advance the thread")
	}
}

func TestTranscript_FailLast_NoTextBecomesError(t *testing.T) {
	tr := NewTranscript()
	tr.AddUserMessage("hi")
	reply := tr.AddAssistantMessage()

	tr.FailLast("connection refused")

	if !reply.IsError {
		t.Error("failed reply should carry the error flag")
	}
	if reply.Loading {
		t.Error("an error entry never has the loading flag")
	}
	if reply.Content != "connection refused" {
		t.Errorf("Content = %q, want the error text", reply.Content)
	}
	if tr.MessageCount() != 2 {
		t.Errorf("MessageCount = %d, want 2", tr.MessageCount())
	}
}

func TestTranscript_FailLast_KeepsPartialText(t *testing.T) {
	tr := NewTranscript()
	tr.AddUserMessage("hi")
	reply := tr.AddAssistantMessage()
	tr.MergePartial("three rounds of partial reply text")

	tr.FailLast("reply kept exceeding the length limit")

	if reply.IsError {
		t.Error("the partial reply must not become the error entry")
	}
	if reply.Loading {
		t.Error("failed reply should not be loading")
	}
	if reply.Content != "three rounds of partial reply text" {
		t.Errorf("Content = %q, want the partial text kept", reply.Content)
	}
	if tr.MessageCount() != 3 {
		t.Fatalf("MessageCount = %d, want the error appended as entry 3", tr.MessageCount())
	}
	last := tr.LastMessage()
	if !last.IsError || last.Content != "reply kept exceeding the length limit" {
		t.Errorf("last entry = %+v, want an inline error entry", last)
	}
	if !tr.Thread.IsZero() {
		t.Error("a failure must not advance the thread")
	}
}

func TestTranscript_DeleteAt(t *testing.T) {
	tr := NewTranscript()
	tr.AddUserMessage("one")
	tr.AddUserMessage("two")
	tr.AddUserMessage("three")

	if !tr.DeleteAt(1) {
		t.Fatal("DeleteAt(1) should succeed")
	}
	if tr.MessageCount() != 2 {
		t.Errorf("MessageCount = %d, want 2", tr.MessageCount())
	}
	if tr.Get(1).Content != "three" {
		t.Errorf("entry 1 = %q, want %q", tr.Get(1).Content, "three")
	}

	if tr.DeleteAt(5) {
		t.Error("out-of-range delete should be a no-op returning false")
	}
	if tr.DeleteAt(-1) {
		t.Error("negative index delete should be a no-op returning false")
	}
}

func TestTranscript_UpdateAt(t *testing.T) {
	tr := NewTranscript()
	tr.AddUserMessage("one")
	tr.AddUserMessage("two")

	if !tr.UpdateAt(0, func(m *Message) { m.Content = "edited" }) {
		t.Fatal("UpdateAt(0) should succeed")
	}
	if tr.Get(0).Content != "edited" {
		t.Errorf("entry 0 = %q, want %q", tr.Get(0).Content, "edited")
	}

	if tr.UpdateAt(5, func(m *Message) { m.Content = "x" }) {
		t.Error("out-of-range update should be a no-op returning false")
	}
	if tr.UpdateAt(-1, func(m *Message) { m.Content = "x" }) {
		t.Error("negative index update should be a no-op returning false")
	}
}

func TestTranscript_Get_OutOfRange(t *testing.T) {
	tr := NewTranscript()
	tr.AddUserMessage("only")

	if tr.Get(-1) != nil || tr.Get(1) != nil {
		t.Error("out-of-range Get should return nil")
	}
}

func TestTranscript_Clear(t *testing.T) {
	tr := NewTranscript()
	tr.AddUserMessage("hello")
	tr.Thread = Thread{ConversationID: "c1"}
	id := tr.ID

	tr.Clear()

	if !tr.IsEmpty() {
		t.Error("transcript should be empty after clear")
	}
	if tr.ID != id {
		t.Error("clear should keep the transcript identity")
	}
	if !tr.Thread.IsZero() {
		t.Error("clear should reset the thread")
	}
}

func TestTranscript_ThreadBefore(t *testing.T) {
	tr := NewTranscript()
	tr.AddUserMessage("first")
	tr.AddAssistantMessage()
	tr.FinalizeLast(nil, Thread{ConversationID: "c1", ParentMessageID: "m1"})

	tr.AddUserMessage("second")
	tr.AddAssistantMessage()
	tr.FinalizeLast(nil, Thread{ConversationID: "c1", ParentMessageID: "m2"})

	lastIdx := tr.MessageCount() - 1
	before := tr.ThreadBefore(lastIdx)
	if before.ParentMessageID != "m1" {
		t.Errorf("ThreadBefore = %+v, want the first reply's thread", before)
	}

	// Before the first reply there is no thread.
	if !tr.ThreadBefore(1).IsZero() {
		t.Error("ThreadBefore(first reply) should be zero")
	}
}

func TestTranscript_TitleFromFirstPrompt(t *testing.T) {
	tr := NewTranscript()
	if tr.GetTitle() != "New Chat" {
		t.Errorf("default title = %q, want New Chat", tr.GetTitle())
	}

	tr.AddUserMessage("Explain goroutine scheduling in detail please because I am curious")
	title := tr.GetTitle()
	if title == "New Chat" || title == "" {
		t.Error("title should derive from the first prompt")
	}
	if len([]rune(title)) > 50 {
		t.Errorf("title %q exceeds 50 runes", title)
	}
}

func TestMessage_SetPartialIgnoredWhenNotLoading(t *testing.T) {
	msg := NewUserMessage("fixed")
	msg.SetPartial("should not apply")
	if msg.GetDisplayContent() != "fixed" {
		t.Error("SetPartial must be a no-op on completed entries")
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := NewUserMessage("short")
	if msg.Preview(50) != "short" {
		t.Errorf("Preview = %q, want unchanged", msg.Preview(50))
	}

	long := strings.Repeat("a", 100)
	preview := NewUserMessage(long).Preview(20)
	if len([]rune(preview)) != 20 {
		t.Errorf("Preview length = %d, want 20", len([]rune(preview)))
	}
	if !strings.HasSuffix(preview, "...") {
		t.Error("truncated preview should end with ellipsis")
	}
}

func TestMessage_EstimateTokens(t *testing.T) {
	msg := NewUserMessage(strings.Repeat("x", 40))
	if got := msg.EstimateTokens(); got != 10 {
		t.Errorf("EstimateTokens = %d, want 10", got)
	}
}

func TestTranscript_Clone(t *testing.T) {
	tr := NewTranscript()
	tr.AddUserMessage("hello")
	tr.Thread = Thread{ConversationID: "c1"}

	clone := tr.Clone()
	clone.Messages[0].Content = "mutated"
	clone.Thread.ConversationID = "c2"

	if tr.Messages[0].Content != "hello" {
		t.Error("clone must not share message storage")
	}
	if tr.Thread.ConversationID != "c1" {
		t.Error("clone must not share thread state")
	}
}

func TestTranscript_Prune(t *testing.T) {
	tr := NewTranscript()
	tr.AddSystemMessage("pinned")
	for i := 0; i < MaxEntries+10; i++ {
		tr.AddUserMessage("filler")
	}

	if tr.MessageCount() > MaxEntries+1 {
		t.Errorf("MessageCount = %d, want <= %d", tr.MessageCount(), MaxEntries+1)
	}
	if tr.Messages[0].Role != RoleSystem {
		t.Error("system entries should survive pruning")
	}
}

func TestTranscript_PrunePreservesOrder(t *testing.T) {
	tr := NewTranscript()
	for i := 0; i < MaxEntries; i++ {
		tr.AddUserMessage("filler")
	}
	tr.AddSystemMessage("mid notice")
	tr.AddUserMessage("after")

	if tr.Messages[0].Role == RoleSystem {
		t.Error("pruning must not move system entries to the front")
	}
	n := len(tr.Messages)
	if tr.Messages[n-2].Content != "mid notice" || tr.Messages[n-1].Content != "after" {
		t.Errorf("last entries = %q, %q; pruning must keep relative order",
			tr.Messages[n-2].Content, tr.Messages[n-1].Content)
	}
}
