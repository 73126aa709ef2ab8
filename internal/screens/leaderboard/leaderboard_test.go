package leaderboard

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/abhisek/levelup/internal/store"
)

type fakeSource struct {
	rows  []store.LeaderboardRow
	err   error
	calls int
}

func (f *fakeSource) Leaderboard(context.Context) ([]store.LeaderboardRow, error) {
	f.calls++
	return f.rows, f.err
}

func name(s string) *string { return &s }

func TestHighlightsCurrentUser(t *testing.T) {
	src := &fakeSource{rows: []store.LeaderboardRow{
		{ID: "a", DisplayName: name("Ada"), Points: 90},
		{ID: "b", Points: 40},
	}}
	s := New(src, "b", nil)
	s.Update(s.Init()())

	if len(s.entries) != 2 || !s.entries[1].Current {
		t.Fatalf("entries = %+v", s.entries)
	}
	view := s.View(100, 30)
	for _, want := range []string{"Ada", "Anonymous (you)", "90"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestLoadErrorIsLoggedNotShown(t *testing.T) {
	log, hook := test.NewNullLogger()
	s := New(&fakeSource{err: errors.New("network down")}, "", log)
	s.Update(s.Init()())

	view := s.View(80, 24)
	if strings.Contains(view, "network down") {
		t.Error("background errors must not reach the view")
	}
	if !strings.Contains(view, "No learners yet.") {
		t.Error("expected the empty board")
	}
	if hook.LastEntry() == nil || hook.LastEntry().Level != logrus.WarnLevel {
		t.Errorf("expected a warning, got %v", hook.AllEntries())
	}
}

func TestRefresh(t *testing.T) {
	src := &fakeSource{}
	s := New(src, "", nil)
	s.Update(s.Init()())

	_, cmd := s.Update(tea.KeyPressMsg{Code: 'r', Text: "r"})
	if cmd == nil {
		t.Fatal("expected refresh command")
	}
	s.Update(cmd())
	if src.calls != 2 {
		t.Errorf("calls = %d, want 2", src.calls)
	}
	if !strings.Contains(s.View(80, 24), "No learners yet.") {
		t.Error("expected empty message")
	}
}
