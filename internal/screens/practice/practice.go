// Package practice lists coding problems and awards points for solving them.
package practice

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/catalog"
	svc "github.com/abhisek/levelup/internal/practice"
	"github.com/abhisek/levelup/internal/router"
	"github.com/abhisek/levelup/internal/screen"
	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/store"
	"github.com/abhisek/levelup/internal/ui/components"
	"github.com/abhisek/levelup/internal/ui/layout"
	"github.com/abhisek/levelup/internal/ui/theme"
)

// Solver loads problems and records solves. *practice.Service satisfies it.
type Solver interface {
	Load(ctx context.Context, userID string) *svc.Board
	MarkSolved(ctx context.Context, b *svc.Board, p store.Problem) (bool, error)
}

type loadedMsg struct {
	board *svc.Board
}

type solvedMsg struct {
	board   *svc.Board
	problem store.Problem
	awarded bool
	err     error
}

// PracticeScreen shows the stats strip and the problem list.
type PracticeScreen struct {
	solver Solver
	state  func() session.State

	board  *svc.Board
	cursor int
	saving bool
	notice string
	errMsg string
}

var _ screen.Screen = (*PracticeScreen)(nil)
var _ screen.Pather = (*PracticeScreen)(nil)
var _ screen.KeyHintProvider = (*PracticeScreen)(nil)

// New creates the screen. state is read on every render so the stats strip
// follows profile updates.
func New(solver Solver, state func() session.State) *PracticeScreen {
	return &PracticeScreen{solver: solver, state: state}
}

func (s *PracticeScreen) Init() tea.Cmd {
	solver, userID := s.solver, s.state().UserID()
	return func() tea.Msg {
		return loadedMsg{board: solver.Load(context.Background(), userID)}
	}
}

func (s *PracticeScreen) Title() string { return "Coding Practice" }

func (s *PracticeScreen) Path() string { return string(router.RoutePractice) }

func (s *PracticeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Move"},
		{Key: "Enter", Description: "Mark solved"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *PracticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.board = msg.board
		if s.cursor >= len(s.board.Problems) {
			s.cursor = 0
		}
		return s, nil

	case solvedMsg:
		s.saving = false
		// The solved set is kept even when the profile update failed.
		s.board = msg.board
		switch {
		case msg.err != nil:
			s.notice = ""
			s.errMsg = backend.Message(msg.err)
		case msg.awarded:
			s.errMsg = ""
			s.notice = fmt.Sprintf("+%d points for %s", msg.problem.Worth(), msg.problem.Title)
		default:
			s.errMsg = ""
			s.notice = "Already solved."
		}
		return s, nil

	case tea.KeyPressMsg:
		if s.board == nil {
			return s, nil
		}
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.board.Problems)-1 {
				s.cursor++
			}
		case "enter", "space":
			return s, s.solve()
		}
	}
	return s, nil
}

func (s *PracticeScreen) solve() tea.Cmd {
	if s.saving || s.cursor >= len(s.board.Problems) {
		return nil
	}
	p := s.board.Problems[s.cursor]
	if s.board.Solved[p.ID] {
		s.errMsg = ""
		s.notice = "Already solved."
		return nil
	}
	s.saving = true
	next := cloneBoard(s.board)
	solver := s.solver
	return func() tea.Msg {
		awarded, err := solver.MarkSolved(context.Background(), next, p)
		return solvedMsg{board: next, problem: p, awarded: awarded, err: err}
	}
}

func cloneBoard(b *svc.Board) *svc.Board {
	c := *b
	c.Solved = make(map[string]bool, len(b.Solved))
	for k, v := range b.Solved {
		c.Solved[k] = v
	}
	return &c
}

func difficultyStyle(d catalog.Difficulty) lipgloss.Style {
	switch d {
	case catalog.Hard:
		return lipgloss.NewStyle().Foreground(theme.Hard)
	case catalog.Medium:
		return lipgloss.NewStyle().Foreground(theme.Medium)
	default:
		return lipgloss.NewStyle().Foreground(theme.Easy)
	}
}

func (s *PracticeScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	if s.board == nil {
		return components.Center(theme.Hint.Render("Loading..."), width, height)
	}

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render("Coding Practice"))
	b.WriteString("\n\n")
	b.WriteString(s.summary(cw))
	b.WriteString("\n\n")

	if len(s.board.Problems) == 0 {
		b.WriteString(theme.Hint.Render("No problems available yet."))
		return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
	}

	visible := height - 16
	if visible < 3 {
		visible = 3
	}
	start := 0
	if s.cursor >= visible {
		start = s.cursor - visible + 1
	}
	end := min(start+visible, len(s.board.Problems))
	for i := start; i < end; i++ {
		p := s.board.Problems[i]
		prefix, style := "  ", theme.Unselected
		if i == s.cursor {
			prefix, style = "▸ ", theme.Selected
		}
		mark := "  "
		if s.board.Solved[p.ID] {
			mark = theme.Done.Render("✓ ")
		}
		diff := difficultyStyle(p.Difficulty).Render(fmt.Sprintf("%-6s", p.Difficulty))
		b.WriteString(style.Render(prefix) + mark + diff + " " + style.Render(p.Title) +
			theme.Hint.Render(fmt.Sprintf("  %d pts", p.Worth())))
		b.WriteString("\n")
	}

	p := s.board.Problems[s.cursor]
	var d strings.Builder
	d.WriteString(theme.Body.Bold(true).Render(p.Title))
	if p.Description != "" {
		d.WriteString("\n")
		d.WriteString(theme.Body.Width(cw - 6).Render(p.Description))
	}
	if p.URL != "" {
		d.WriteString("\n")
		d.WriteString(theme.Hint.Render("Solve at: ") + theme.Link.Render(p.URL))
	}
	b.WriteString("\n")
	b.WriteString(components.Card(d.String(), cw))

	switch {
	case s.errMsg != "":
		b.WriteString("\n")
		b.WriteString(components.Banner(s.errMsg, theme.ErrorText, cw))
	case s.notice != "":
		b.WriteString("\n")
		b.WriteString(components.Banner(s.notice, theme.Notice, cw))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (s *PracticeScreen) summary(cw int) string {
	sum := svc.SummaryOf(s.state().Profile)
	cells := []string{
		fmt.Sprintf("◆ %d points", sum.Points),
		fmt.Sprintf("✓ %d solved", sum.Solved),
		fmt.Sprintf("★ %d day streak", sum.Streak),
		fmt.Sprintf("best %d", sum.Longest),
		fmt.Sprintf("badge: %s", sum.Badge),
	}
	return theme.Subtitle.Width(cw).Render(strings.Join(cells, "   "))
}
