// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

// Package styles defines the color palette and lip gloss styles shared by
// every view in the TUI. Colors use AdaptiveColor so lipgloss picks the
// light or dark variant based on the detected terminal background.
package styles

import "github.com/charmbracelet/lipgloss"

// Accent colors.
var (
	Purple  = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}
	Cyan    = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
	Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}
	Rose    = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}
	Amber   = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

	PurpleDeep  = lipgloss.AdaptiveColor{Light: "#EDE9FE", Dark: "#2E1065"}
	EmeraldDeep = lipgloss.AdaptiveColor{Light: "#D1FAE5", Dark: "#064E3B"}
	RoseDeep    = lipgloss.AdaptiveColor{Light: "#FFE4E6", Dark: "#4C0519"}
)

// Surfaces and overlays.
var (
	Surface       = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}
	SurfaceDim    = lipgloss.AdaptiveColor{Light: "#F4F4F5", Dark: "#181825"}
	SurfaceBright = lipgloss.AdaptiveColor{Light: "#FAFAFA", Dark: "#313244"}
	Overlay       = lipgloss.AdaptiveColor{Light: "#E4E4E7", Dark: "#45475A"}
	OverlayDim    = lipgloss.AdaptiveColor{Light: "#D4D4D8", Dark: "#313244"}
)

// Text colors.
var (
	TextPrimary   = lipgloss.AdaptiveColor{Light: "#18181B", Dark: "#CDD6F4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#52525B", Dark: "#A6ADC8"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#A1A1AA", Dark: "#6C7086"}
	TextInverse   = lipgloss.AdaptiveColor{Light: "#FAFAFA", Dark: "#11111B"}
)

// Message bubble colors per transcript role.
var (
	UserBubbleBg     = lipgloss.AdaptiveColor{Light: "#EDE9FE", Dark: "#2E1065"}
	UserBubbleFg     = lipgloss.AdaptiveColor{Light: "#3B0764", Dark: "#E9D5FF"}
	UserBubbleBorder = Purple

	AssistantBubbleBg     = lipgloss.AdaptiveColor{Light: "#F4F4F5", Dark: "#181825"}
	AssistantBubbleFg     = TextPrimary
	AssistantBubbleBorder = Cyan

	SystemBubbleBg     = lipgloss.AdaptiveColor{Light: "#FEF3C7", Dark: "#422006"}
	SystemBubbleFg     = lipgloss.AdaptiveColor{Light: "#713F12", Dark: "#FDE68A"}
	SystemBubbleBorder = Amber

	ErrorBubbleBg     = RoseDeep
	ErrorBubbleFg     = lipgloss.AdaptiveColor{Light: "#881337", Dark: "#FECDD3"}
	ErrorBubbleBorder = Rose
)

// StatusIndicators pairs a text symbol with each status so state stays
// readable without color.
var StatusIndicators = struct {
	Success string
	Error   string
	Warning string
	Info    string
}{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
}

// RenderSuccess renders text with the success indicator prefix.
func RenderSuccess(text string) string {
	return lipgloss.NewStyle().Foreground(Emerald).Bold(true).
		Render(StatusIndicators.Success + " " + text)
}

// RenderError renders text with the error indicator prefix.
func RenderError(text string) string {
	return lipgloss.NewStyle().Foreground(Rose).Bold(true).
		Render(StatusIndicators.Error + " " + text)
}

// RenderWarning renders text with the warning indicator prefix.
func RenderWarning(text string) string {
	return lipgloss.NewStyle().Foreground(Amber).Bold(true).
		Render(StatusIndicators.Warning + " " + text)
}

// RenderInfo renders text with the info indicator prefix.
func RenderInfo(text string) string {
	return lipgloss.NewStyle().Foreground(Cyan).Bold(true).
		Render(StatusIndicators.Info + " " + text)
}
