// Package theme provides the Lip Gloss palette and reusable styles for the
// dashboard. It only imports the session package for its enums.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pixel-agents/pixel-agents/internal/session"
)

// Agent colors, cycled by id.
var agentColors = []lipgloss.Color{
	lipgloss.Color("#06b6d4"), // cyan
	lipgloss.Color("#22c55e"), // green
	lipgloss.Color("#eab308"), // yellow
	lipgloss.Color("#d946ef"), // magenta
	lipgloss.Color("#3b82f6"), // blue
	lipgloss.Color("#ef4444"), // red
}

// Status colors.
var (
	ColorActive  = lipgloss.Color("#22c55e")
	ColorWaiting = lipgloss.Color("#eab308")
	ColorDormant = lipgloss.Color("#4b5563")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorFocused = lipgloss.Color("#06b6d4")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorPhase   = lipgloss.Color("#eab308")
	ColorKey     = lipgloss.Color("#eab308")
	ColorDefault = lipgloss.Color("#9ca3af")
)

// AgentColor returns the color for agent id. Ids start at 1.
func AgentColor(id uint32) lipgloss.Color {
	if id == 0 {
		return agentColors[0]
	}
	return agentColors[int(id-1)%len(agentColors)]
}

// StatusColor returns the color for an agent status.
func StatusColor(s session.Status) lipgloss.Color {
	switch s {
	case session.Active:
		return ColorActive
	case session.Waiting:
		return ColorWaiting
	case session.Dormant:
		return ColorDormant
	default:
		return ColorDefault
	}
}

// ActivityGlyph returns a glyph for what an agent is doing right now.
func ActivityGlyph(a session.Activity) string {
	switch a {
	case session.Reading:
		return "◎"
	case session.Typing:
		return "✎"
	default:
		return "·"
	}
}

// PanelBorder returns the border style for a panel, highlighted when focused.
func PanelBorder(focused bool) lipgloss.Style {
	if focused {
		return StyleBorder.BorderForeground(ColorFocused)
	}
	return StyleBorder
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorFocused)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)

	StyleValue = lipgloss.NewStyle().
		Foreground(ColorBright)

	StylePhase = lipgloss.NewStyle().
		Foreground(ColorPhase)
)
