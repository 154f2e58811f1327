// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

// Package model contains the data structures for transcripts and messages.
package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tt-a1i/gpt/internal/util"
)

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// Message represents a single entry in a transcript.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// IsError marks an entry that renders inline as a failure notice.
	// An entry never carries IsError and Loading at the same time.
	IsError bool `json:"is_error,omitempty"`

	// Loading marks a reply that is still in flight. While set, partial
	// holds the text received so far; each arriving chunk replaces it
	// whole (the backend streams cumulative snapshots, not deltas).
	Loading bool   `json:"-"`
	partial string

	// Backend thread metadata carried on the reply. Subsequent requests
	// send these back so the backend resumes the same thread.
	ConversationID  string `json:"conversation_id,omitempty"`
	ParentMessageID string `json:"parent_message_id,omitempty"`

	// Token statistics
	TokenCount int `json:"token_count,omitempty"`

	// Timing metrics for assistant replies
	TTFT          time.Duration `json:"ttft_ns,omitempty"`
	TotalDuration time.Duration `json:"total_duration_ns,omitempty"`
	TokensPerSec  float64       `json:"tokens_per_sec,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a pending assistant reply awaiting stream data.
func NewAssistantMessage() *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		Loading:   true,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// NewErrorMessage creates an inline error entry.
func NewErrorMessage(content string) *Message {
	msg := NewMessage(RoleAssistant, content)
	msg.IsError = true
	return msg
}

// SetPartial replaces the in-flight text of a pending reply. The latest
// chunk always wins; there is no append.
func (m *Message) SetPartial(text string) {
	if m.Loading {
		m.partial = text
	}
}

// FinalizeStream completes a pending reply and records statistics.
// Text already received is kept.
func (m *Message) FinalizeStream(stats *Statistics) {
	if !m.Loading {
		return
	}

	m.Content = m.partial
	m.partial = ""
	m.Loading = false

	if stats != nil {
		m.TTFT = stats.TTFT
		m.TotalDuration = stats.TotalDuration
		m.TokenCount = stats.CompletionTokens
		m.TokensPerSec = stats.TokensPerSecond
	}
}

// FailStream converts a pending reply into an inline error entry.
func (m *Message) FailStream(errText string) {
	if !m.Loading {
		return
	}
	m.Content = errText
	m.partial = ""
	m.Loading = false
	m.IsError = true
}

// GetDisplayContent returns the content to display, in-flight or final.
func (m *Message) GetDisplayContent() string {
	if m.Loading {
		return m.partial
	}
	return m.Content
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(m.GetDisplayContent(), maxLen)
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && len(m.partial) == 0
}

// EstimateTokens gives a rough estimate of token count,
// using the approximation of ~4 characters per token.
func (m *Message) EstimateTokens() int {
	content := m.GetDisplayContent()
	return (len(content) + 3) / 4
}

// FormatStats returns a formatted string of reply statistics,
// e.g. "2.5s | 128 tokens | 51.2 tok/s | TTFT 234ms".
func (m *Message) FormatStats() string {
	if m.Role != RoleAssistant || m.TotalDuration == 0 {
		return ""
	}

	return formatDuration(m.TotalDuration.Seconds()) + " | " +
		strconv.Itoa(m.TokenCount) + " tokens | " +
		strconv.FormatFloat(m.TokensPerSec, 'f', 1, 64) + " tok/s | " +
		"TTFT " + strconv.FormatInt(m.TTFT.Milliseconds(), 10) + "ms"
}

// Statistics holds timing and token count information for one reply.
type Statistics struct {
	StartTime      time.Time
	FirstChunkTime time.Time
	EndTime        time.Time

	PromptTokens     int
	CompletionTokens int

	// Derived metrics, computed on Finalize
	TTFT            time.Duration
	TotalDuration   time.Duration
	TokensPerSecond float64
}

// NewStatistics creates a new Statistics with the start time set.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime: time.Now(),
	}
}

// RecordFirstChunk records when the first chunk arrived.
func (s *Statistics) RecordFirstChunk() {
	if s.FirstChunkTime.IsZero() {
		s.FirstChunkTime = time.Now()
		s.TTFT = s.FirstChunkTime.Sub(s.StartTime)
	}
}

// Finalize computes the derived metrics.
func (s *Statistics) Finalize(tokenCount int) {
	s.EndTime = time.Now()
	s.CompletionTokens = tokenCount
	s.TotalDuration = s.EndTime.Sub(s.StartTime)

	if s.TotalDuration > 0 {
		s.TokensPerSecond = float64(tokenCount) / s.TotalDuration.Seconds()
	}
}

// Format returns a formatted string of the statistics.
func (s *Statistics) Format() string {
	return formatDuration(s.TotalDuration.Seconds()) + " | " +
		strconv.Itoa(s.CompletionTokens) + " tokens | " +
		strconv.FormatFloat(s.TokensPerSecond, 'f', 1, 64) + " tok/s | " +
		"TTFT " + strconv.FormatInt(s.TTFT.Milliseconds(), 10) + "ms"
}

// generateID creates a unique message ID.
func generateID() string {
	return "msg_" + uuid.NewString()
}

// formatDuration formats seconds as a short duration string.
func formatDuration(seconds float64) string {
	if seconds < 1 {
		return strconv.Itoa(int(seconds*1000)) + "ms"
	}
	return strconv.FormatFloat(seconds, 'f', 1, 64) + "s"
}
