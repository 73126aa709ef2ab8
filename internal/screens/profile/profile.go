// Package profile shows the learner's stats and IQ history and edits the
// display name.
package profile

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/practice"
	"github.com/abhisek/levelup/internal/router"
	"github.com/abhisek/levelup/internal/screen"
	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/store"
	"github.com/abhisek/levelup/internal/ui/components"
	"github.com/abhisek/levelup/internal/ui/layout"
	"github.com/abhisek/levelup/internal/ui/theme"
)

const historyRows = 5

// Editor reads and patches the signed-in profile. *session.Synchronizer
// satisfies it.
type Editor interface {
	State() session.State
	UpdateProfile(ctx context.Context, patch store.ProfilePatch) (*store.Profile, error)
}

// History lists assessment results newest first. store.ResultRepo satisfies it.
type History interface {
	History(ctx context.Context, userID string) ([]store.Result, error)
}

type historyMsg struct {
	results []store.Result
	err     error
}

type savedMsg struct {
	err error
}

// ProfileScreen edits the display name and lists stats.
type ProfileScreen struct {
	editor  Editor
	history History
	log     logrus.FieldLogger

	name    components.TextInput
	results []store.Result
	saving  bool
	notice  string
	errMsg  string
}

var _ screen.Screen = (*ProfileScreen)(nil)
var _ screen.Pather = (*ProfileScreen)(nil)
var _ screen.KeyHintProvider = (*ProfileScreen)(nil)

// New creates the screen with the name field prefilled from the profile.
// History failures are logged and render as no attempts.
func New(editor Editor, history History, log logrus.FieldLogger) *ProfileScreen {
	if log == nil {
		log = logrus.StandardLogger()
	}
	name := components.NewTextInput("Display name", "How others see you", 60)
	name.SetValue(editor.State().Profile.Name())
	return &ProfileScreen{editor: editor, history: history, log: log.WithField("component", "profile"), name: name}
}

func (s *ProfileScreen) Init() tea.Cmd {
	history, userID := s.history, s.editor.State().UserID()
	load := func() tea.Msg {
		res, err := history.History(context.Background(), userID)
		return historyMsg{results: res, err: err}
	}
	return tea.Batch(s.name.Focus(), load)
}

func (s *ProfileScreen) Title() string { return "Profile" }

func (s *ProfileScreen) Path() string { return string(router.RouteProfile) }

func (s *ProfileScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Save name"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ProfileScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyMsg:
		if msg.err != nil {
			s.log.WithError(msg.err).Warn("load assessment history")
		}
		s.results = msg.results
		return s, nil

	case savedMsg:
		s.saving = false
		if msg.err != nil {
			s.notice = ""
			s.errMsg = backend.Message(msg.err)
			return s, nil
		}
		s.errMsg = ""
		s.notice = "Saved."
		return s, nil

	case tea.KeyPressMsg:
		if msg.String() == "enter" {
			return s, s.save()
		}
	}

	var cmd tea.Cmd
	s.name, cmd = s.name.Update(msg)
	return s, cmd
}

func (s *ProfileScreen) save() tea.Cmd {
	if s.saving {
		return nil
	}
	s.saving = true
	s.notice, s.errMsg = "", ""
	editor, patch := s.editor, store.DisplayNamePatch(s.name.Value())
	return func() tea.Msg {
		_, err := editor.UpdateProfile(context.Background(), patch)
		return savedMsg{err: err}
	}
}

func (s *ProfileScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	st := s.editor.State()
	sum := practice.SummaryOf(st.Profile)

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render("Profile"))
	b.WriteString("\n")
	if st.Identity != nil {
		b.WriteString(theme.Subtitle.Width(cw).Render(st.Identity.Email))
	}
	b.WriteString("\n\n")

	b.WriteString(s.name.View())
	b.WriteString("\n")
	switch {
	case s.saving:
		b.WriteString(theme.Hint.Render("Saving..."))
	case s.errMsg != "":
		b.WriteString(components.Banner(s.errMsg, theme.ErrorText, cw))
	case s.notice != "":
		b.WriteString(components.Banner(s.notice, theme.Notice, cw))
	}
	b.WriteString("\n\n")

	stats := []string{
		fmt.Sprintf("Level           %s", st.Profile.Level()),
		fmt.Sprintf("Points          %d", sum.Points),
		fmt.Sprintf("Problems solved %d", sum.Solved),
		fmt.Sprintf("Current streak  %d", sum.Streak),
		fmt.Sprintf("Longest streak  %d", sum.Longest),
		fmt.Sprintf("Badge           %s", sum.Badge),
	}
	b.WriteString(components.Card(theme.Body.Render(strings.Join(stats, "\n")), cw))
	b.WriteString("\n\n")

	b.WriteString(theme.Body.Bold(true).Render("IQ test history"))
	b.WriteString("\n")
	if len(s.results) == 0 {
		b.WriteString(theme.Hint.Render("No attempts yet."))
	}
	for i, r := range s.results {
		if i == historyRows {
			b.WriteString(theme.Hint.Render(fmt.Sprintf("… and %d more", len(s.results)-historyRows)))
			break
		}
		when := "unknown date"
		if t := r.When(); !t.IsZero() {
			when = t.Local().Format("Jan 2, 2006 15:04")
		}
		b.WriteString(theme.Body.Render(fmt.Sprintf("%-20s %d/%d  %s", when, r.Score, r.TotalQuestions, r.LevelAssigned)))
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
