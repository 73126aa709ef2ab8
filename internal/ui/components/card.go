package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/levelup/internal/ui/theme"
)

// ContentWidth returns the uniform inner width used for stacked sections
// so boxes line up.
func ContentWidth(frameWidth int) int {
	w := frameWidth - 6
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Center places content in the middle of a width x height area.
func Center(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// Card wraps content in a rounded-border card at the given content width.
func Card(content string, cw int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(cw-2).
		Padding(0, 2).
		Render(content)
}

// Banner renders a one-line message in the given color, used for action
// errors and confirmations above a form.
func Banner(msg string, style lipgloss.Style, cw int) string {
	if msg == "" {
		return ""
	}
	return style.Width(cw).Render(msg)
}
