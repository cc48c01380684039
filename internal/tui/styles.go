package tui

import "github.com/charmbracelet/lipgloss"

// Outcome colors
var (
	colorFail   = lipgloss.Color("#FF0000")
	colorWarn   = lipgloss.Color("#FFFF00")
	colorPass   = lipgloss.Color("#00FF00")
	colorMuted  = lipgloss.Color("#888888")
	colorAccent = lipgloss.Color("#7B68EE")
	colorBorder = lipgloss.Color("#444444")
)

// Panel styles
var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	styleDetailPanel = lipgloss.NewStyle().
				Padding(0, 1).
				BorderStyle(lipgloss.NormalBorder()).
				BorderTop(true).
				BorderForeground(colorBorder)

	styleFooter = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	styleSearchPrompt = lipgloss.NewStyle().
				Foreground(colorAccent).Bold(true)
)

// outcomeStyle returns the lipgloss style for a check outcome.
func outcomeStyle(outcome string) lipgloss.Style {
	switch outcome {
	case "fail":
		return lipgloss.NewStyle().Foreground(colorFail).Bold(true)
	case "warn":
		return lipgloss.NewStyle().Foreground(colorWarn).Bold(true)
	case "pass":
		return lipgloss.NewStyle().Foreground(colorPass)
	default:
		return lipgloss.NewStyle()
	}
}
