package dashboard

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/levelup/internal/router"
	"github.com/abhisek/levelup/internal/scoring"
	"github.com/abhisek/levelup/internal/screen"
	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/store"
)

func TestGreetingFollowsProfile(t *testing.T) {
	s := New(session.State{})
	if s.greeting != "Welcome back" || s.level != string(scoring.LevelBeginner) {
		t.Fatalf("greeting %q level %q", s.greeting, s.level)
	}

	name := "Ada"
	s.StateChanged(session.State{Profile: &store.Profile{DisplayName: &name, LearningLevel: scoring.LevelAdvanced}})
	if s.greeting != "Welcome back, Ada" || s.level != "Advanced" {
		t.Errorf("greeting %q level %q", s.greeting, s.level)
	}
}

func TestCardsNavigate(t *testing.T) {
	s := New(session.State{})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	msg, ok := cmd().(router.NavigateMsg)
	if !ok || msg.Path != string(router.RouteIQTest) {
		t.Errorf("msg = %#v, want navigate to iq test", msg)
	}
}

func TestLogout(t *testing.T) {
	s := New(session.State{})
	for range cards {
		s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	}
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if _, ok := cmd().(screen.SignOutMsg); !ok {
		t.Error("last item should sign out")
	}
}
