package practice

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/catalog"
	svc "github.com/abhisek/levelup/internal/practice"
	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/store"
)

type fakeSolver struct {
	problems []store.Problem
	solved   map[string]bool
	err      error
	calls    int
}

func (f *fakeSolver) Load(context.Context, string) *svc.Board {
	solved := map[string]bool{}
	for k, v := range f.solved {
		solved[k] = v
	}
	return &svc.Board{Problems: f.problems, Solved: solved}
}

func (f *fakeSolver) MarkSolved(_ context.Context, b *svc.Board, p store.Problem) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	b.Solved[p.ID] = true
	return true, nil
}

func signedIn() session.State {
	return session.State{
		Identity: &backend.Identity{ID: "u1", Email: "ada@example.com"},
		Profile:  &store.Profile{ID: "u1", Points: 20, ProblemsSolved: 2},
	}
}

func newLoaded(t *testing.T, f *fakeSolver) *PracticeScreen {
	t.Helper()
	s := New(f, signedIn)
	s.Update(s.Init()())
	if s.board == nil {
		t.Fatal("expected board after load")
	}
	return s
}

var problems = []store.Problem{
	{ID: "p1", Title: "Two Sum", Difficulty: catalog.Easy, Points: 10},
	{ID: "p2", Title: "LRU Cache", Difficulty: catalog.Hard},
}

func TestMarkSolvedAwards(t *testing.T) {
	f := &fakeSolver{problems: problems}
	s := newLoaded(t, f)

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected solve command")
	}
	s.Update(cmd())

	if !s.board.Solved["p2"] {
		t.Error("expected p2 solved")
	}
	want := "+10 points for LRU Cache"
	if s.notice != want {
		t.Errorf("notice = %q, want %q", s.notice, want)
	}
}

func TestSolvedProblemIsNoop(t *testing.T) {
	f := &fakeSolver{problems: problems, solved: map[string]bool{"p1": true}}
	s := newLoaded(t, f)

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd != nil {
		t.Error("solved problem must not issue a command")
	}
	if f.calls != 0 {
		t.Errorf("MarkSolved calls = %d, want 0", f.calls)
	}
	if s.notice != "Already solved." {
		t.Errorf("notice = %q", s.notice)
	}
}

func TestMarkSolvedError(t *testing.T) {
	f := &fakeSolver{problems: problems, err: errors.New("profile unavailable")}
	s := newLoaded(t, f)

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	s.Update(cmd())

	if s.errMsg != "profile unavailable" {
		t.Errorf("errMsg = %q", s.errMsg)
	}
	if s.board.Solved["p1"] {
		t.Error("failed solve must not mark the problem")
	}
}

func TestSummaryStrip(t *testing.T) {
	s := newLoaded(t, &fakeSolver{problems: problems})
	view := s.View(100, 40)
	for _, want := range []string{"20 points", "2 solved", "badge: Beginner", "Two Sum"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
