package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette for report output, tuned for dark terminal backgrounds.
const (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorMuted     = lipgloss.Color("#6B7280")
	colorSuccess   = lipgloss.Color("#10B981")
	colorError     = lipgloss.Color("#EF4444")
	colorWarning   = lipgloss.Color("#F59E0B")
	colorHighlight = lipgloss.Color("#3B82F6")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorError)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	nameStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)
)

// noColor is set from settings; it turns every style into plain text.
var noColor bool

// render applies style unless color is disabled.
func render(style lipgloss.Style, text string) string {
	if noColor {
		return text
	}
	return style.Render(text)
}
