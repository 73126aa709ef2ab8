// Package leaderboard is the public rankings screen.
package leaderboard

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/levelup/internal/leaderboard"
	"github.com/abhisek/levelup/internal/router"
	"github.com/abhisek/levelup/internal/screen"
	"github.com/abhisek/levelup/internal/store"
	"github.com/abhisek/levelup/internal/ui/components"
	"github.com/abhisek/levelup/internal/ui/layout"
	"github.com/abhisek/levelup/internal/ui/theme"
)

// Source returns leaderboard rows, points descending.
// store.ProfileRepo satisfies it.
type Source interface {
	Leaderboard(ctx context.Context) ([]store.LeaderboardRow, error)
}

type loadedMsg struct {
	rows []store.LeaderboardRow
	err  error
}

// LeaderboardScreen ranks every learner and highlights the current one.
type LeaderboardScreen struct {
	src       Source
	currentID string
	log       logrus.FieldLogger

	entries []leaderboard.Entry
	loaded  bool
	offset  int
}

var _ screen.Screen = (*LeaderboardScreen)(nil)
var _ screen.Pather = (*LeaderboardScreen)(nil)
var _ screen.KeyHintProvider = (*LeaderboardScreen)(nil)

// New creates the screen. currentID may be empty for anonymous viewers.
// Load failures are logged and render as an empty board.
func New(src Source, currentID string, log logrus.FieldLogger) *LeaderboardScreen {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LeaderboardScreen{src: src, currentID: currentID, log: log.WithField("component", "leaderboard")}
}

func (s *LeaderboardScreen) Init() tea.Cmd { return s.load() }

func (s *LeaderboardScreen) load() tea.Cmd {
	src := s.src
	return func() tea.Msg {
		rows, err := src.Leaderboard(context.Background())
		return loadedMsg{rows: rows, err: err}
	}
}

func (s *LeaderboardScreen) Title() string { return "Leaderboard" }

func (s *LeaderboardScreen) Path() string { return string(router.RouteLeaderboard) }

func (s *LeaderboardScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "r", Description: "Refresh"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *LeaderboardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loaded = true
		if msg.err != nil {
			s.log.WithError(msg.err).Warn("load leaderboard")
		}
		s.entries = leaderboard.Rank(msg.rows, s.currentID)
		s.offset = 0
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "up", "k":
			if s.offset > 0 {
				s.offset--
			}
		case "down", "j":
			if s.offset < len(s.entries)-1 {
				s.offset++
			}
		case "r":
			return s, s.load()
		}
	}
	return s, nil
}

func (s *LeaderboardScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	if !s.loaded {
		return components.Center(theme.Hint.Render("Loading..."), width, height)
	}

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render("Leaderboard"))
	b.WriteString("\n\n")

	if len(s.entries) == 0 {
		b.WriteString(theme.Hint.Render("No learners yet."))
		return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
	}

	nameWidth := max(cw-40, 10)
	header := fmt.Sprintf("%-5s %-*s %-13s %7s %7s", "#", nameWidth, "Name", "Level", "Points", "Solved")
	b.WriteString(theme.Hint.Render(header))
	b.WriteString("\n")

	visible := max(height-10, 3)
	end := min(s.offset+visible, len(s.entries))
	for _, e := range s.entries[s.offset:end] {
		name := layout.Truncate(e.Name, nameWidth)
		if e.Current {
			name = layout.Truncate(e.Name+" (you)", nameWidth)
		}
		row := fmt.Sprintf("%-5s %-*s %-13s %7d %7d", rankLabel(e.Rank), nameWidth, name, e.Level, e.Points, e.Solved)
		style := theme.Body
		if e.Current {
			style = theme.Selected
		}
		b.WriteString(style.Render(row))
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func rankLabel(rank int) string {
	switch rank {
	case 1:
		return "1 ♛"
	case 2, 3:
		return fmt.Sprintf("%d ♦", rank)
	default:
		return fmt.Sprintf("%d", rank)
	}
}
