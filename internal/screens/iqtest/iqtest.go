// Package iqtest runs the placement assessment.
package iqtest

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/levelup/internal/assessment"
	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/router"
	"github.com/abhisek/levelup/internal/scoring"
	"github.com/abhisek/levelup/internal/screen"
	"github.com/abhisek/levelup/internal/ui/components"
	"github.com/abhisek/levelup/internal/ui/layout"
	"github.com/abhisek/levelup/internal/ui/theme"
)

// Assessor scores and records a submission. *assessment.Service
// satisfies it.
type Assessor interface {
	Questions() []scoring.Question
	Submit(ctx context.Context, userID string, answers scoring.Answers) (assessment.Outcome, error)
}

type submittedMsg struct {
	outcome assessment.Outcome
	err     error
}

// IQTestScreen walks through the questions one at a time.
type IQTestScreen struct {
	svc       Assessor
	userID    string
	questions []scoring.Question
	answers   scoring.Answers
	step      int
	choice    components.MultiChoice

	submitting bool
	outcome    *assessment.Outcome
	errMsg     string
}

var _ screen.Screen = (*IQTestScreen)(nil)
var _ screen.Pather = (*IQTestScreen)(nil)
var _ screen.KeyHintProvider = (*IQTestScreen)(nil)

// New creates the screen for userID.
func New(svc Assessor, userID string) *IQTestScreen {
	s := &IQTestScreen{
		svc:       svc,
		userID:    userID,
		questions: svc.Questions(),
		answers:   scoring.Answers{},
	}
	s.loadStep()
	return s
}

func (s *IQTestScreen) Init() tea.Cmd { return nil }

func (s *IQTestScreen) Title() string { return "IQ Test" }

func (s *IQTestScreen) Path() string { return string(router.RouteIQTest) }

func (s *IQTestScreen) KeyHints() []layout.KeyHint {
	if s.outcome != nil {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Go to Learning Hub"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓/A-D", Description: "Choose"},
		{Key: "Enter", Description: "Next"},
		{Key: "←", Description: "Previous"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *IQTestScreen) loadStep() {
	if len(s.questions) == 0 {
		return
	}
	q := s.questions[s.step]
	chosen, ok := s.answers[q.ID]
	if !ok {
		chosen = -1
	}
	s.choice = components.NewMultiChoice(q.Prompt, q.Options, chosen)
}

func (s *IQTestScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case submittedMsg:
		s.submitting = false
		if msg.err != nil {
			s.errMsg = backend.Message(msg.err)
			return s, nil
		}
		out := msg.outcome
		s.outcome = &out
		return s, nil

	case tea.KeyPressMsg:
		if s.outcome != nil {
			if msg.String() == "enter" {
				return s, router.Redirect(string(router.RouteLearning))
			}
			return s, nil
		}
		if s.submitting || len(s.questions) == 0 {
			return s, nil
		}

		switch msg.String() {
		case "enter":
			s.choice.Chosen = s.choice.Selected
			s.record()
			if s.step == len(s.questions)-1 {
				return s, s.submit()
			}
			s.step++
			s.loadStep()
			return s, nil
		case "left", "h":
			if s.step > 0 {
				s.step--
				s.loadStep()
			}
			return s, nil
		}

		var cmd tea.Cmd
		s.choice, cmd = s.choice.Update(msg)
		s.record()
		return s, cmd
	}
	return s, nil
}

func (s *IQTestScreen) record() {
	if s.choice.Answered() {
		s.answers[s.questions[s.step].ID] = s.choice.Chosen
	}
}

func (s *IQTestScreen) submit() tea.Cmd {
	s.submitting = true
	s.errMsg = ""
	svc, userID := s.svc, s.userID
	answers := make(scoring.Answers, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	return func() tea.Msg {
		out, err := svc.Submit(context.Background(), userID, answers)
		return submittedMsg{outcome: out, err: err}
	}
}

func (s *IQTestScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	var b strings.Builder

	if s.outcome != nil {
		b.WriteString(theme.Title.Width(cw).Render("Your result"))
		b.WriteString("\n\n")
		b.WriteString(theme.Title.Width(cw).Render(fmt.Sprintf("%d / %d", s.outcome.Score, s.outcome.Total)))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Width(cw).Align(lipgloss.Center).
			Render("Level: " + string(s.outcome.Level)))
		b.WriteString("\n\n")
		b.WriteString(theme.Subtitle.Width(cw).Render("This level will tailor your Learning Hub and Roadmap content."))
		return components.Center(b.String(), width, height)
	}

	if len(s.questions) == 0 {
		return components.Center(theme.Hint.Render("No questions available."), width, height)
	}

	dots := make([]string, len(s.questions))
	for i := range s.questions {
		switch {
		case i == s.step:
			dots[i] = lipgloss.NewStyle().Foreground(theme.Primary).Render("●")
		case i < s.step:
			dots[i] = lipgloss.NewStyle().Foreground(theme.Secondary).Render("●")
		default:
			dots[i] = lipgloss.NewStyle().Foreground(theme.Border).Render("○")
		}
	}
	b.WriteString(strings.Join(dots, " "))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("Question %d of %d", s.step+1, len(s.questions))))
	b.WriteString("\n\n")
	b.WriteString(s.choice.View())

	if s.submitting {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render("Submitting..."))
	}
	if s.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(components.Banner(s.errMsg, theme.ErrorText, cw-6))
	}

	return components.Center(components.Card(b.String(), cw), width, height)
}
