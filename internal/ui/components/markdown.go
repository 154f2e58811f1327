// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer wraps a glamour terminal renderer with a mutable word
// wrap width. Rebuilding the renderer on resize is cheap compared to the
// render itself, so SetWidth simply recreates it.
type MarkdownRenderer struct {
	mu       sync.Mutex
	renderer *glamour.TermRenderer
	width    int
	enabled  bool
}

// NewMarkdownRenderer creates a renderer wrapping at the given width.
// When glamour initialization fails the renderer degrades to plain text.
func NewMarkdownRenderer(width int) *MarkdownRenderer {
	m := &MarkdownRenderer{width: clampWidth(width), enabled: true}
	m.rebuild()
	return m
}

// SetEnabled toggles markdown rendering. When disabled Render passes text
// through with only code block styling applied.
func (m *MarkdownRenderer) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// SetWidth updates the wrap width, rebuilding the underlying renderer.
func (m *MarkdownRenderer) SetWidth(width int) {
	width = clampWidth(width)
	m.mu.Lock()
	defer m.mu.Unlock()
	if width == m.width {
		return
	}
	m.width = width
	m.rebuildLocked()
}

// Render converts markdown to styled terminal output. On any failure the
// raw text is returned so a render problem never loses reply content.
func (m *MarkdownRenderer) Render(text string) string {
	m.mu.Lock()
	renderer := m.renderer
	width := m.width
	enabled := m.enabled
	m.mu.Unlock()

	if !enabled || renderer == nil {
		return ParseCodeBlocks(text, width)
	}

	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (m *MarkdownRenderer) rebuild() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebuildLocked()
}

func (m *MarkdownRenderer) rebuildLocked() {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(m.width),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = renderer
}

func clampWidth(width int) int {
	if width < 20 {
		return 20
	}
	if width > 120 {
		return 120
	}
	return width
}
