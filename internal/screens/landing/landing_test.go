package landing

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/router"
	"github.com/abhisek/levelup/internal/session"
)

func labels(s *LandingScreen) string {
	var out []string
	for _, it := range s.menu.Items {
		out = append(out, it.Label)
	}
	return strings.Join(out, ",")
}

func TestMenuFollowsSignIn(t *testing.T) {
	s := New(false)
	if got := labels(s); got != "Get Started,Login,Leaderboard,Quit" {
		t.Fatalf("anonymous menu = %s", got)
	}

	s.StateChanged(session.State{Identity: &backend.Identity{ID: "u1"}})
	if got := labels(s); got != "Dashboard,Leaderboard,Quit" {
		t.Errorf("signed-in menu = %s", got)
	}
}

func TestGetStartedNavigatesToSignup(t *testing.T) {
	s := New(false)
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected navigation command")
	}
	msg, ok := cmd().(router.NavigateMsg)
	if !ok || msg.Path != string(router.RouteSignup) {
		t.Errorf("msg = %#v, want navigate to signup", msg)
	}
}
