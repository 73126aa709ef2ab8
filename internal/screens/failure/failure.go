// Package failure is shown when a screen panics.
package failure

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/levelup/internal/screen"
	"github.com/abhisek/levelup/internal/ui/components"
	"github.com/abhisek/levelup/internal/ui/layout"
	"github.com/abhisek/levelup/internal/ui/theme"
)

// FailureScreen reports an unexpected error and offers a reset.
type FailureScreen struct {
	reason string
}

var _ screen.Screen = (*FailureScreen)(nil)
var _ screen.KeyHintProvider = (*FailureScreen)(nil)
var _ screen.EscapeHandler = (*FailureScreen)(nil)

// New creates the screen for a recovered panic value.
func New(recovered any) *FailureScreen {
	reason := fmt.Sprint(recovered)
	if err, ok := recovered.(error); ok {
		reason = err.Error()
	}
	return &FailureScreen{reason: reason}
}

func (s *FailureScreen) Init() tea.Cmd { return nil }

func (s *FailureScreen) Title() string { return "Error" }

// Reason is the recovered panic message.
func (s *FailureScreen) Reason() string { return s.reason }

// HandlesEscape keeps Esc from going back to the screen that failed.
func (s *FailureScreen) HandlesEscape() bool { return true }

func (s *FailureScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "R", Description: "Try again"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *FailureScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyPressMsg); ok {
		switch k.String() {
		case "r", "R", "enter":
			return s, func() tea.Msg { return screen.ResetMsg{} }
		}
	}
	return s, nil
}

func (s *FailureScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render("Something went wrong"))
	b.WriteString("\n\n")
	b.WriteString(theme.Subtitle.Width(cw).Render(s.reason))
	b.WriteString("\n\n")
	b.WriteString(theme.Subtitle.Width(cw).Italic(true).Render("Press R to try again"))
	return components.Center(b.String(), width, height)
}
