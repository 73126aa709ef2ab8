// Package checklist shows the learning hub and roadmap tracks: a level's
// items with completion checkboxes and a progress bar.
package checklist

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/progress"
	"github.com/abhisek/levelup/internal/router"
	"github.com/abhisek/levelup/internal/scoring"
	"github.com/abhisek/levelup/internal/screen"
	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/store"
	"github.com/abhisek/levelup/internal/ui/components"
	"github.com/abhisek/levelup/internal/ui/layout"
	"github.com/abhisek/levelup/internal/ui/theme"
)

// Tracker loads and toggles a checklist. *progress.Service satisfies it.
type Tracker interface {
	Load(ctx context.Context, track store.Track, level scoring.Level, userID string) *progress.Board
	Toggle(ctx context.Context, b *progress.Board, userID, itemID string) error
}

type loadedMsg struct {
	board *progress.Board
}

type toggledMsg struct {
	board *progress.Board
	err   error
}

// ChecklistScreen lists a track's items for the learner's level.
type ChecklistScreen struct {
	svc    Tracker
	track  store.Track
	level  scoring.Level
	userID string

	board  *progress.Board
	cursor int
	saving bool
	errMsg string
}

var _ screen.Screen = (*ChecklistScreen)(nil)
var _ screen.Pather = (*ChecklistScreen)(nil)
var _ screen.KeyHintProvider = (*ChecklistScreen)(nil)
var _ screen.StateObserver = (*ChecklistScreen)(nil)

// New creates the screen for track. Only store.LearningTrack and
// store.RoadmapTrack are supported.
func New(svc Tracker, track store.Track, level scoring.Level, userID string) *ChecklistScreen {
	return &ChecklistScreen{svc: svc, track: track, level: level.OrDefault(), userID: userID}
}

func (s *ChecklistScreen) Init() tea.Cmd {
	svc, track, level, userID := s.svc, s.track, s.level, s.userID
	return func() tea.Msg {
		return loadedMsg{board: svc.Load(context.Background(), track, level, userID)}
	}
}

// StateChanged reloads the track when a fetched profile changes the level.
func (s *ChecklistScreen) StateChanged(st session.State) tea.Cmd {
	if st.Profile == nil || st.Profile.Level() == s.level {
		return nil
	}
	s.level = st.Profile.Level()
	s.board = nil
	s.cursor = 0
	return s.Init()
}

func (s *ChecklistScreen) Title() string {
	if s.track.Name == store.RoadmapTrack.Name {
		return "Roadmap"
	}
	return "Learning Hub"
}

func (s *ChecklistScreen) Path() string {
	if s.track.Name == store.RoadmapTrack.Name {
		return string(router.RouteRoadmap)
	}
	return string(router.RouteLearning)
}

func (s *ChecklistScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Move"},
		{Key: "Space", Description: "Mark complete"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ChecklistScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.board = msg.board
		if s.cursor >= len(s.board.Items) {
			s.cursor = 0
		}
		return s, nil

	case toggledMsg:
		s.saving = false
		if msg.err != nil {
			s.errMsg = backend.Message(msg.err)
			return s, nil
		}
		s.errMsg = ""
		s.board = msg.board
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
			if s.cursor < len(s.board.Items)-1 {
				s.cursor++
			}
		case "space", "enter", "x":
			return s, s.toggle()
		}
	}
	return s, nil
}

func (s *ChecklistScreen) toggle() tea.Cmd {
	if s.saving || s.cursor >= len(s.board.Items) {
		return nil
	}
	s.saving = true
	next := cloneBoard(s.board)
	itemID := next.Items[s.cursor].ID
	svc, userID := s.svc, s.userID
	return func() tea.Msg {
		err := svc.Toggle(context.Background(), next, userID, itemID)
		return toggledMsg{board: next, err: err}
	}
}

// cloneBoard copies the completion set so a toggle in flight never
// touches the board being rendered.
func cloneBoard(b *progress.Board) *progress.Board {
	c := *b
	c.Done = make(map[string]bool, len(b.Done))
	for k, v := range b.Done {
		c.Done[k] = v
	}
	return &c
}

func (s *ChecklistScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	if s.board == nil {
		return components.Center(theme.Hint.Render("Loading..."), width, height)
	}

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render(s.Title()))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(cw).Render(fmt.Sprintf("Content for your level: %s", s.board.Level)))
	b.WriteString("\n\n")

	if len(s.board.Items) == 0 {
		b.WriteString(theme.Hint.Render("Nothing here yet for your level."))
		return components.Center(b.String(), width, height)
	}

	label := fmt.Sprintf("%d / %d completed", s.board.Completed(), len(s.board.Items))
	b.WriteString(components.NewProgressBar(label, s.board.Percent(), true, cw).View())
	b.WriteString("\n\n")

	// Reserve room for the title block, detail card and error line.
	visible := height - 14
	if visible < 3 {
		visible = 3
	}
	start := 0
	if s.cursor >= visible {
		start = s.cursor - visible + 1
	}
	end := start + visible
	if end > len(s.board.Items) {
		end = len(s.board.Items)
	}
	for i := start; i < end; i++ {
		it := s.board.Items[i]
		box := "[ ]"
		style := theme.Unselected
		if s.board.Done[it.ID] {
			box = theme.Done.Render("[✓]")
		}
		prefix := "  "
		if i == s.cursor {
			prefix = "▸ "
			style = theme.Selected
		}
		b.WriteString(style.Render(prefix) + box + " " + style.Render(fmt.Sprintf("%d. %s", i+1, it.Title)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(components.Card(s.detail(s.board.Items[s.cursor], cw-6), cw))

	if s.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(components.Banner(s.errMsg, theme.ErrorText, cw))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (s *ChecklistScreen) detail(it progress.Item, w int) string {
	var b strings.Builder
	b.WriteString(theme.Body.Bold(true).Render(it.Title))
	if it.Description != "" {
		b.WriteString("\n")
		b.WriteString(theme.Body.Width(w).Render(it.Description))
	}
	if it.VideoURL != "" {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render("Watch: ") + theme.Link.Render(it.VideoURL))
	}
	for _, l := range it.Links {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render(l.Label+": ") + theme.Link.Render(l.URL))
	}
	return b.String()
}
