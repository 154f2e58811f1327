// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tt-a1i/gpt/internal/model"
	"github.com/tt-a1i/gpt/internal/ui/styles"
)

// renderChat renders the complete chat view.
// Layout: header (1 line) + transcript viewport + input (2 lines) +
// status bar (1 line). Heights must sum to m.height.
func (m Model) renderChat() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	header := m.renderHeader()
	input := m.renderInput()
	status := m.renderStatusBar()

	available := m.height - lipgloss.Height(header) - lipgloss.Height(input) - lipgloss.Height(status)
	if available < 1 {
		available = 1
	}

	messages := m.viewport.View()
	if lipgloss.Height(messages) != available {
		messages = lipgloss.NewStyle().
			Height(available).
			MaxHeight(available).
			Width(m.width).
			Render(messages)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, messages, input, status)
}

// renderHeader renders the one-line title bar.
func (m Model) renderHeader() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Purple).
		Render("gpt-tui")

	chatTitle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(" | " + m.transcript.GetTitle())

	var statusIcon string
	if m.state == StateStreaming {
		statusIcon = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Render(" " + m.spinner.View())
	} else {
		statusIcon = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Render(" " + styles.StatusIndicators.Success)
	}

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Width(width).
		Padding(0, 1).
		Render(title + chatTitle + statusIcon)
}

// renderMessages renders every transcript entry for the viewport.
func (m *Model) renderMessages() string {
	if m.transcript.IsEmpty() {
		return m.renderEmptyState()
	}

	var parts []string
	for i, msg := range m.transcript.Messages {
		isLast := i == len(m.transcript.Messages)-1
		parts = append(parts, m.renderMessage(msg, isLast))
	}
	return strings.Join(parts, "\n")
}

func (m *Model) renderMessage(msg *model.Message, isLast bool) string {
	switch {
	case msg.IsError:
		return m.renderErrorMessage(msg)
	case msg.Role == model.RoleUser:
		return m.renderUserMessage(msg)
	case msg.Role == model.RoleAssistant:
		return m.renderAssistantMessage(msg, isLast)
	case msg.Role == model.RoleSystem:
		return m.renderSystemMessage(msg)
	default:
		return msg.GetDisplayContent()
	}
}

// renderUserMessage right-aligns the prompt in a purple bubble.
func (m *Model) renderUserMessage(msg *model.Message) string {
	maxWidth := m.bubbleWidth()

	bubble := m.theme.UserBubble.MaxWidth(maxWidth)
	rendered := bubble.Render(wrapText(msg.GetDisplayContent(), maxWidth-6))

	marginLeft := m.width - visibleWidth(rendered) - 4
	if marginLeft < 0 {
		marginLeft = 0
	}
	return lipgloss.NewStyle().
		MarginLeft(marginLeft).
		MarginTop(1).
		Render(rendered)
}

// renderAssistantMessage renders the reply, markdown-styled once there is
// content. During streaming the latest snapshot replaces the previous
// one, so this always shows the whole reply so far.
func (m *Model) renderAssistantMessage(msg *model.Message, isLast bool) string {
	content := msg.GetDisplayContent()

	if strings.TrimSpace(content) == "" {
		if msg.Loading && m.state == StateStreaming && isLast {
			return m.renderThinking()
		}
		return ""
	}

	body := m.markdown.Render(content)

	if msg.Loading && m.state == StateStreaming && isLast {
		cursor := lipgloss.NewStyle().
			Foreground(styles.Purple).
			Render("_")
		body += cursor
	}

	bubble := m.theme.AssistantBubble.MaxWidth(m.bubbleWidth())
	rendered := bubble.Render(body)

	if !msg.Loading && m.cfg.UI.ShowTokens {
		if stats := msg.FormatStats(); stats != "" {
			rendered += "\n" + m.theme.StatsLabel.Render("  "+stats)
		}
	}

	return lipgloss.NewStyle().MarginTop(1).Render(rendered)
}

func (m *Model) renderSystemMessage(msg *model.Message) string {
	bubble := m.theme.SystemBubble.MaxWidth(m.bubbleWidth())
	return lipgloss.NewStyle().
		MarginTop(1).
		Render(bubble.Render(wrapText(msg.GetDisplayContent(), m.bubbleWidth()-6)))
}

func (m *Model) renderErrorMessage(msg *model.Message) string {
	label := m.theme.ErrorStyle.Render(styles.StatusIndicators.Error + " ")
	bubble := m.theme.ErrorBubble.MaxWidth(m.bubbleWidth())
	return lipgloss.NewStyle().
		MarginTop(1).
		Render(bubble.Render(label + wrapText(msg.GetDisplayContent(), m.bubbleWidth()-8)))
}

// renderThinking shows the spinner while waiting for the first snapshot.
func (m *Model) renderThinking() string {
	return lipgloss.NewStyle().
		MarginTop(1).
		Render(m.theme.Spinner.Render(m.spinner.View()) +
			m.theme.ThinkingText.Render(" thinking..."))
}

func (m *Model) renderEmptyState() string {
	hint := m.theme.ThinkingText.Render("Type a prompt and press enter. /help lists commands.")
	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(hint)
}

// renderInput renders the separator and prompt line.
func (m Model) renderInput() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	separator := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Render(strings.Repeat("-", width))

	var line string
	if m.state == StateStreaming {
		line = m.theme.InputPlaceholder.Render("Streaming... press esc to stop")
	} else {
		line = m.input.View()
	}

	return separator + "\n" + lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		Render(line)
}

// renderStatusBar renders the one-line footer: context state, token
// usage, transient notices and key hints.
func (m Model) renderStatusBar() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	var ctx string
	if m.transcript.UsingContext {
		ctx = m.theme.ContextOn.Render("ctx on")
	} else {
		ctx = m.theme.ContextOff.Render("ctx off")
	}

	var tokens string
	if m.cfg.UI.ShowTokens {
		tokens = m.theme.StatsLabel.Render(
			fmt.Sprintf(" | %d tok (%.0f%%)", m.transcript.TokensUsed, m.transcript.GetContextPercent()))
	}

	var notice string
	if m.notice != "" {
		notice = m.theme.StatsValue.Render(" | " + m.notice)
	}

	hints := m.theme.ShortcutDesc.Render(" | f1 help")

	return m.theme.StatusBar.Width(width).Render(ctx + tokens + notice + hints)
}

// renderHelpOverlay renders the full-screen key binding help.
func (m Model) renderHelpOverlay() string {
	var b strings.Builder
	b.WriteString(m.theme.HelpTitle.Render("Key bindings") + "\n\n")

	for _, group := range m.keyMap.FullHelp() {
		for _, binding := range group {
			b.WriteString(m.theme.HelpKey.Render(binding.Help().Key))
			b.WriteString(m.theme.HelpDesc.Render(binding.Help().Desc))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(m.theme.ThinkingText.Render("Slash commands: /help\nPress esc to close."))

	box := m.theme.HelpBox.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// bubbleWidth is the widest a message bubble may render.
func (m *Model) bubbleWidth() int {
	w := m.width - 8
	if w < 20 {
		w = 20
	}
	return w
}

// wrapText hard-wraps text at the given width, preserving existing
// newlines.
func wrapText(text string, width int) string {
	if width < 10 {
		width = 10
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		for visibleWidth(line) > width {
			cut := width
			runes := []rune(line)
			if cut > len(runes) {
				cut = len(runes)
			}
			// Prefer breaking at a space.
			breakAt := cut
			for i := cut - 1; i > 0 && i > cut-20; i-- {
				if runes[i] == ' ' {
					breakAt = i
					break
				}
			}
			out = append(out, string(runes[:breakAt]))
			line = strings.TrimLeft(string(runes[breakAt:]), " ")
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
