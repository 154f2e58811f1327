// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package components

import (
	"strings"
	"testing"
)

func TestCodeBlockRender(t *testing.T) {
	cb := NewCodeBlock("go", "package main\n\nfunc main() {}")
	out := cb.Render()

	if out == "" {
		t.Fatal("Render() returned empty string")
	}
	if !strings.Contains(out, "go") {
		t.Error("Render() should include the language badge")
	}
}

func TestCodeBlockRenderNarrowWidth(t *testing.T) {
	cb := NewCodeBlock("", "x = 1")
	cb.SetMaxWidth(10)

	if out := cb.Render(); out == "" {
		t.Error("Render() with narrow width returned empty string")
	}
}

func TestParseCodeBlocks(t *testing.T) {
	text := "before\n```python\nprint('hi')\n```\nafter"
	out := ParseCodeBlocks(text, 80)

	if !strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Error("ParseCodeBlocks should preserve surrounding text")
	}
	if strings.Contains(out, "```") {
		t.Error("ParseCodeBlocks should consume the fences")
	}
}

func TestParseCodeBlocksUnclosedFence(t *testing.T) {
	// Streaming snapshots often cut off inside a code block.
	text := "reply\n```go\nfunc partial() {"
	out := ParseCodeBlocks(text, 80)

	if !strings.Contains(out, "reply") {
		t.Error("ParseCodeBlocks should keep text before the open fence")
	}
	if !strings.Contains(out, "partial") {
		t.Error("ParseCodeBlocks should render the unclosed block contents")
	}
}

func TestMarkdownRendererRender(t *testing.T) {
	r := NewMarkdownRenderer(80)
	out := r.Render("# Title\n\nsome *emphasis* here")

	if out == "" {
		t.Fatal("Render() returned empty string")
	}
	if !strings.Contains(out, "Title") {
		t.Error("Render() should keep heading text")
	}
}

func TestMarkdownRendererDisabled(t *testing.T) {
	r := NewMarkdownRenderer(80)
	r.SetEnabled(false)

	out := r.Render("plain text, no markdown")
	if !strings.Contains(out, "plain text, no markdown") {
		t.Error("disabled renderer should pass text through")
	}
}

func TestMarkdownRendererSetWidth(t *testing.T) {
	r := NewMarkdownRenderer(80)
	r.SetWidth(40)
	r.SetWidth(5) // clamps to minimum

	if out := r.Render("hello world"); out == "" {
		t.Error("Render() after resize returned empty string")
	}
}

func TestRenderInlineCode(t *testing.T) {
	if out := RenderInlineCode("x := 1"); out == "" {
		t.Error("RenderInlineCode returned empty string")
	}
}
