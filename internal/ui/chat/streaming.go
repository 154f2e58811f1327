// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// streamFlushInterval caps viewport re-renders at roughly 30 fps. The
// backend can emit snapshots far faster than a terminal can redraw.
const streamFlushInterval = time.Second / 30

// SnapshotBuffer coalesces cumulative reply snapshots between frames.
// Each write replaces the previous snapshot, so a flush only ever needs
// the latest text. Safe for concurrent use: the HTTP goroutine writes
// while the update loop flushes.
type SnapshotBuffer struct {
	mu        sync.Mutex
	text      string
	dirty     bool
	snapshots int
	lastFlush time.Time
}

// NewSnapshotBuffer creates an empty buffer.
func NewSnapshotBuffer() *SnapshotBuffer {
	return &SnapshotBuffer{lastFlush: time.Now()}
}

// Write stores a new snapshot, replacing any pending one.
func (b *SnapshotBuffer) Write(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	b.dirty = true
	b.snapshots++
}

// Flush returns the pending snapshot if the frame interval has elapsed.
func (b *SnapshotBuffer) Flush() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.dirty || time.Since(b.lastFlush) < streamFlushInterval {
		return "", false
	}
	b.dirty = false
	b.lastFlush = time.Now()
	return b.text, true
}

// ForceFlush returns the pending snapshot regardless of timing. Used at
// stream end so the final text is never left in the buffer.
func (b *SnapshotBuffer) ForceFlush() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.dirty {
		return "", false
	}
	b.dirty = false
	b.lastFlush = time.Now()
	return b.text, true
}

// Reset clears the buffer for a new stream.
func (b *SnapshotBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = ""
	b.dirty = false
	b.snapshots = 0
	b.lastFlush = time.Now()
}

// Pending reports whether an unflushed snapshot is waiting.
func (b *SnapshotBuffer) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty
}

// Snapshots returns how many snapshots arrived since the last Reset.
func (b *SnapshotBuffer) Snapshots() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshots
}

// streamTickCmd schedules the next flush tick while streaming.
func streamTickCmd() tea.Cmd {
	return tea.Tick(streamFlushInterval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
