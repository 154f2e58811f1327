// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxEntries is the maximum number of messages kept in a transcript.
// When exceeded, the oldest entries are pruned to bound memory.
const MaxEntries = 1000

// DefaultMaxTokens is the assumed backend context window size used for
// the context usage estimate.
const DefaultMaxTokens = 128000

// Thread identifies a server-side conversation position. Requests that
// carry a Thread resume that thread; requests without one start fresh.
type Thread struct {
	ConversationID  string `json:"conversation_id,omitempty"`
	ParentMessageID string `json:"parent_message_id,omitempty"`
}

// IsZero reports whether the thread carries no identifiers.
func (t Thread) IsZero() bool {
	return t.ConversationID == "" && t.ParentMessageID == ""
}

// Transcript holds an ordered chat transcript with its settings.
type Transcript struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Entries, oldest first. Never reordered.
	Messages []*Message `json:"messages"`

	// Thread is the backend position of the latest completed reply.
	// It is sent with the next request while UsingContext is on.
	Thread Thread `json:"thread"`

	// UsingContext controls whether requests carry the thread. When off,
	// each prompt starts a fresh backend conversation.
	UsingContext bool `json:"using_context"`

	// SystemPrompt is sent with every request when set.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Context tracking
	TokensUsed     int     `json:"tokens_used"`
	MaxTokens      int     `json:"max_tokens"`
	ContextPercent float64 `json:"-"`
}

// NewTranscript creates an empty transcript with a generated ID.
func NewTranscript() *Transcript {
	return &Transcript{
		ID:           "chat_" + uuid.NewString(),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
		Messages:     make([]*Message, 0),
		UsingContext: true,
		MaxTokens:    DefaultMaxTokens,
	}
}

// AddMessage appends a message to the transcript.
func (t *Transcript) AddMessage(msg *Message) {
	t.Messages = append(t.Messages, msg)
	t.UpdatedAt = time.Now()
	t.updateTokenEstimate()
	t.updateTitle()
	t.pruneOldMessages()
}

// AddUserMessage creates and appends a user message.
func (t *Transcript) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	t.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and appends a pending assistant reply.
func (t *Transcript) AddAssistantMessage() *Message {
	msg := NewAssistantMessage()
	t.AddMessage(msg)
	return msg
}

// AddSystemMessage creates and appends a system notice.
func (t *Transcript) AddSystemMessage(content string) *Message {
	msg := NewSystemMessage(content)
	t.AddMessage(msg)
	return msg
}

// AddErrorMessage creates and appends an inline error entry.
func (t *Transcript) AddErrorMessage(content string) *Message {
	msg := NewErrorMessage(content)
	t.AddMessage(msg)
	return msg
}

// Get returns the message at index i, or nil if out of range.
func (t *Transcript) Get(i int) *Message {
	if i < 0 || i >= len(t.Messages) {
		return nil
	}
	return t.Messages[i]
}

// UpdateAt applies fn to the message at index i. Out-of-range is a
// no-op returning false.
func (t *Transcript) UpdateAt(i int, fn func(*Message)) bool {
	if i < 0 || i >= len(t.Messages) {
		return false
	}
	fn(t.Messages[i])
	t.UpdatedAt = time.Now()
	t.updateTokenEstimate()
	return true
}

// DeleteAt removes the message at index i. Out-of-range is a no-op
// returning false.
func (t *Transcript) DeleteAt(i int) bool {
	if i < 0 || i >= len(t.Messages) {
		return false
	}
	t.Messages = append(t.Messages[:i], t.Messages[i+1:]...)
	t.UpdatedAt = time.Now()
	t.updateTokenEstimate()
	return true
}

// RemoveMessage removes a message by ID.
func (t *Transcript) RemoveMessage(id string) bool {
	for i, msg := range t.Messages {
		if msg.ID == id {
			return t.DeleteAt(i)
		}
	}
	return false
}

// LastMessage returns the most recent message, or nil if empty.
func (t *Transcript) LastMessage() *Message {
	if len(t.Messages) == 0 {
		return nil
	}
	return t.Messages[len(t.Messages)-1]
}

// LastAssistantMessage returns the most recent assistant reply, skipping
// error entries.
func (t *Transcript) LastAssistantMessage() *Message {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Role == RoleAssistant && !t.Messages[i].IsError {
			return t.Messages[i]
		}
	}
	return nil
}

// LastUserMessage returns the most recent user message.
func (t *Transcript) LastUserMessage() *Message {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Role == RoleUser {
			return t.Messages[i]
		}
	}
	return nil
}

// MergePartial replaces the in-flight text of the pending reply with the
// latest cumulative snapshot.
func (t *Transcript) MergePartial(text string) {
	last := t.LastMessage()
	if last != nil && last.Loading {
		last.SetPartial(text)
	}
}

// FinalizeLast completes the pending reply, records statistics and
// advances the thread pointers.
func (t *Transcript) FinalizeLast(stats *Statistics, thread Thread) {
	last := t.LastMessage()
	if last == nil || !last.Loading {
		return
	}
	last.FinalizeStream(stats)
	last.ConversationID = thread.ConversationID
	last.ParentMessageID = thread.ParentMessageID
	if !thread.IsZero() {
		t.Thread = thread
	}
	t.updateTokenEstimate()
}

// FailLast terminates the pending reply with a failure. Text already
// received stays in the transcript and the error is appended as its own
// inline entry. A reply that never produced text becomes the error
// entry itself. The thread does not advance either way.
func (t *Transcript) FailLast(errText string) {
	last := t.LastMessage()
	if last == nil || !last.Loading {
		return
	}
	if last.GetDisplayContent() == "" {
		last.FailStream(errText)
		t.updateTokenEstimate()
		return
	}
	last.FinalizeStream(nil)
	t.AddErrorMessage(errText)
}

// CancelLast finalizes the pending reply silently, keeping whatever text
// arrived. The thread does not advance; the backend never completed the
// reply.
func (t *Transcript) CancelLast() {
	last := t.LastMessage()
	if last != nil && last.Loading {
		last.FinalizeStream(nil)
		t.updateTokenEstimate()
	}
}

// ThreadBefore returns the thread pointers in effect before the reply at
// index i was produced. Used by regenerate to re-issue the same request.
func (t *Transcript) ThreadBefore(i int) Thread {
	for j := i - 1; j >= 0; j-- {
		msg := t.Get(j)
		if msg != nil && msg.Role == RoleAssistant && !msg.IsError && msg.ConversationID != "" {
			return Thread{
				ConversationID:  msg.ConversationID,
				ParentMessageID: msg.ParentMessageID,
			}
		}
	}
	return Thread{}
}

// Clear removes all entries but keeps the transcript identity and
// settings. The thread resets; the next prompt starts fresh.
func (t *Transcript) Clear() {
	t.Messages = make([]*Message, 0)
	t.Thread = Thread{}
	t.TokensUsed = 0
	t.ContextPercent = 0
	t.UpdatedAt = time.Now()
}

// MessageCount returns the number of entries.
func (t *Transcript) MessageCount() int {
	return len(t.Messages)
}

// IsEmpty returns true if there are no entries.
func (t *Transcript) IsEmpty() bool {
	return len(t.Messages) == 0
}

// EstimateTokens estimates the total token count of the transcript.
func (t *Transcript) EstimateTokens() int {
	total := 0

	if t.SystemPrompt != "" {
		total += (len(t.SystemPrompt) + 3) / 4
	}

	for _, msg := range t.Messages {
		total += msg.EstimateTokens()
		// Overhead for message structure, ~4 tokens per entry.
		total += 4
	}

	return total
}

func (t *Transcript) updateTokenEstimate() {
	t.TokensUsed = t.EstimateTokens()
	if t.MaxTokens > 0 {
		t.ContextPercent = float64(t.TokensUsed) / float64(t.MaxTokens) * 100
	}
}

// GetContextPercent returns the percentage of context window used.
func (t *Transcript) GetContextPercent() float64 {
	return t.ContextPercent
}

// IsContextNearLimit returns true if context usage is above 75%.
func (t *Transcript) IsContextNearLimit() bool {
	return t.ContextPercent >= 75
}

// updateTitle derives a title from the first user message if unset.
func (t *Transcript) updateTitle() {
	if t.Title != "" {
		return
	}
	for _, msg := range t.Messages {
		if msg.Role == RoleUser {
			t.Title = msg.Preview(50)
			return
		}
	}
}

// SetTitle manually sets the transcript title.
func (t *Transcript) SetTitle(title string) {
	t.Title = title
	t.UpdatedAt = time.Now()
}

// GetTitle returns the transcript title or a default.
func (t *Transcript) GetTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return "New Chat"
}

// Preview returns a short preview of the transcript.
func (t *Transcript) Preview() string {
	if len(t.Messages) == 0 {
		return "Empty chat"
	}

	first := t.LastUserMessage()
	if first == nil {
		first = t.Messages[0]
	}

	return first.Preview(100)
}

// Meta holds lightweight transcript metadata for listing.
type Meta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Preview      string    `json:"preview"`
}

// GetMeta returns metadata about the transcript.
func (t *Transcript) GetMeta() Meta {
	return Meta{
		ID:           t.ID,
		Title:        t.GetTitle(),
		MessageCount: len(t.Messages),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		Preview:      t.Preview(),
	}
}

// Clone creates a deep copy of the transcript.
func (t *Transcript) Clone() *Transcript {
	clone := &Transcript{
		ID:           t.ID,
		Title:        t.Title,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		Thread:       t.Thread,
		UsingContext: t.UsingContext,
		SystemPrompt: t.SystemPrompt,
		TokensUsed:   t.TokensUsed,
		MaxTokens:    t.MaxTokens,
		Messages:     make([]*Message, len(t.Messages)),
	}

	for i, msg := range t.Messages {
		msgCopy := *msg
		clone.Messages[i] = &msgCopy
	}

	return clone
}

// pruneOldMessages drops the oldest non-system entries once the
// transcript exceeds MaxEntries. Remaining entries keep their relative
// order.
func (t *Transcript) pruneOldMessages() {
	if len(t.Messages) <= MaxEntries {
		return
	}

	drop := len(t.Messages) - MaxEntries
	kept := make([]*Message, 0, MaxEntries)
	for _, msg := range t.Messages {
		if drop > 0 && msg.Role != RoleSystem {
			drop--
			continue
		}
		kept = append(kept, msg)
	}
	t.Messages = kept
}
