package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/levelup/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector. It records a choice without
// revealing whether it was correct.
type MultiChoice struct {
	Question string
	Options  []string
	Selected int
	// Chosen is the picked option, or -1.
	Chosen int
}

// NewMultiChoice creates a multiple-choice component with the cursor on
// chosen, or on the first option when chosen is out of range.
func NewMultiChoice(question string, options []string, chosen int) MultiChoice {
	m := MultiChoice{
		Question: question,
		Options:  options,
		Chosen:   -1,
	}
	if chosen >= 0 && chosen < len(options) {
		m.Selected = chosen
		m.Chosen = chosen
	}
	return m
}

// Init returns nil.
func (m MultiChoice) Init() tea.Cmd {
	return nil
}

// Update handles keyboard navigation and selection. Letters a-d and
// digits 1-4 pick an option directly.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter", "space":
		if len(m.Options) > 0 {
			m.Chosen = m.Selected
		}
	default:
		if len(key) == 1 {
			idx := -1
			switch c := key[0]; {
			case c >= 'a' && c <= 'z':
				idx = int(c - 'a')
			case c >= '1' && c <= '9':
				idx = int(c - '1')
			}
			if idx >= 0 && idx < len(m.Options) {
				m.Selected = idx
				m.Chosen = idx
			}
		}
	}

	return m, nil
}

// Answered reports whether an option was picked.
func (m MultiChoice) Answered() bool {
	return m.Chosen >= 0
}

// View renders the question and its options.
func (m MultiChoice) View() string {
	questionStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	s := questionStyle.Render(m.Question) + "\n\n"

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected {
			prefix = "▸ "
		}
		mark := " "
		if i == m.Chosen {
			mark = "●"
		}

		line := fmt.Sprintf("%s%c) %s %s", prefix, 'A'+rune(i), mark, opt)

		switch {
		case i == m.Chosen:
			s += lipgloss.NewStyle().Foreground(theme.Success).Bold(true).Render(line) + "\n"
		case i == m.Selected:
			s += lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(line) + "\n"
		default:
			s += lipgloss.NewStyle().Foreground(theme.Text).Render(line) + "\n"
		}
	}

	return s
}
