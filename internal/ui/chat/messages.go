// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

// Package chat implements the chat view for the TUI: the transcript
// viewport, the prompt input, streaming display, and slash commands.
package chat

import (
	"time"

	"github.com/tt-a1i/gpt/internal/api"
	"github.com/tt-a1i/gpt/internal/config"
	"github.com/tt-a1i/gpt/internal/model"
)

// StreamRequestMsg asks the program root to start a streaming request.
// The chat model emits it on submit; the root owns the HTTP goroutine so
// snapshots can be pushed back through Program.Send.
type StreamRequestMsg struct {
	MessageID string
	Request   api.ChatRequest
}

// StreamStartMsg signals that the request goroutine is running.
type StreamStartMsg struct {
	MessageID string
	StartTime time.Time
}

// StreamSnapshotMsg carries one cumulative snapshot of the reply so far.
// Later snapshots replace earlier ones.
type StreamSnapshotMsg struct {
	MessageID string
	Text      string
	First     bool
}

// StreamCompleteMsg signals a finished reply.
type StreamCompleteMsg struct {
	MessageID string
	Reply     *api.Reply
	Stats     *model.Statistics
}

// StreamErrorMsg signals a failed request. The partial text already shown
// stays in the transcript alongside an inline error entry.
type StreamErrorMsg struct {
	MessageID string
	Err       error
}

// StreamCancelledMsg signals that the user stopped the request. Not an
// error: partial text is kept and the thread does not advance.
type StreamCancelledMsg struct {
	MessageID string
}

// StreamTickMsg drives periodic snapshot flushes while streaming.
type StreamTickMsg struct {
	Time time.Time
}

// TranscriptSavedMsg reports the result of a save to the history store.
type TranscriptSavedMsg struct {
	ID  string
	Err error
}

// TranscriptLoadedMsg delivers a transcript loaded from the history store.
type TranscriptLoadedMsg struct {
	Transcript *model.Transcript
	Err        error
}

// TranscriptListMsg delivers history metadata for /list and /search.
type TranscriptListMsg struct {
	Metas []model.Meta
	Query string
	Err   error
}

// ExportCompleteMsg reports the result of an export.
type ExportCompleteMsg struct {
	Path string
	Err  error
}

// ConfigReloadedMsg delivers a freshly loaded configuration after the
// config file changed on disk. New values apply to the next request.
type ConfigReloadedMsg struct {
	Cfg *config.Config
}

// ErrorMsg reports a non-stream failure shown as an inline entry.
type ErrorMsg struct {
	Title   string
	Message string
}
