package console

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/soyeahso/gacc/internal/dispatch"
)

// Palette for terminal output, tuned for dark backgrounds.
const (
	colorPrompt  = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F59E0B")
	colorCommand = lipgloss.Color("#3B82F6")
)

var (
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorPrompt)
	outputStyle  = lipgloss.NewStyle()
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	commandStyle = lipgloss.NewStyle().Foreground(colorCommand)
)

// Render styles one output line for a terminal.
func Render(out Output) string {
	switch out.Status {
	case dispatch.StatusFailed:
		return errorStyle.Render(out.Text)
	case dispatch.StatusUnknown:
		return warningStyle.Render(out.Text)
	default:
		return outputStyle.Render(out.Text)
	}
}
