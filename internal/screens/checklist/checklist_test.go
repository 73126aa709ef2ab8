package checklist

import (
	"context"
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/levelup/internal/progress"
	"github.com/abhisek/levelup/internal/scoring"
	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/store"
)

type fakeTracker struct {
	board     *progress.Board
	toggleErr error
	toggled   []string
	level     scoring.Level
}

func (f *fakeTracker) Load(_ context.Context, track store.Track, level scoring.Level, _ string) *progress.Board {
	f.level = level
	b := *f.board
	b.Track = track
	return &b
}

func (f *fakeTracker) Toggle(_ context.Context, b *progress.Board, _, itemID string) error {
	f.toggled = append(f.toggled, itemID)
	if f.toggleErr != nil {
		return f.toggleErr
	}
	b.Done[itemID] = !b.Done[itemID]
	return nil
}

func testBoard() *progress.Board {
	return &progress.Board{
		Level: scoring.LevelBeginner,
		Items: []progress.Item{
			{ID: "m1", Title: "Variables", VideoURL: "https://videos.example/m1"},
			{ID: "m2", Title: "Loops"},
		},
		Done: map[string]bool{"m1": true},
	}
}

func loaded(t *testing.T, f *fakeTracker, track store.Track) *ChecklistScreen {
	t.Helper()
	s := New(f, track, "", "u1")
	s.Update(s.Init()())
	if s.board == nil {
		t.Fatal("expected board after load")
	}
	return s
}

func TestLoadDefaultsLevel(t *testing.T) {
	f := &fakeTracker{board: testBoard()}
	s := loaded(t, f, store.LearningTrack)

	if f.level != scoring.LevelBeginner {
		t.Errorf("level = %q, want Beginner", f.level)
	}
	if s.Title() != "Learning Hub" || s.Path() != "/learning" {
		t.Errorf("Title/Path = %q %q", s.Title(), s.Path())
	}
}

func TestRoadmapIdentity(t *testing.T) {
	s := New(&fakeTracker{board: testBoard()}, store.RoadmapTrack, scoring.LevelAdvanced, "u1")
	if s.Title() != "Roadmap" || s.Path() != "/roadmap" {
		t.Errorf("Title/Path = %q %q", s.Title(), s.Path())
	}
}

func TestToggleSelected(t *testing.T) {
	f := &fakeTracker{board: testBoard()}
	s := loaded(t, f, store.LearningTrack)

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeySpace})
	if cmd == nil {
		t.Fatal("expected toggle command")
	}
	if s.board.Done["m2"] {
		t.Error("rendered board must not change before the toggle completes")
	}
	s.Update(cmd())

	if len(f.toggled) != 1 || f.toggled[0] != "m2" {
		t.Fatalf("toggled = %v", f.toggled)
	}
	if !s.board.Done["m2"] || s.board.Percent() != 100 {
		t.Errorf("expected m2 done and 100%%, got %v %d", s.board.Done, s.board.Percent())
	}
}

func TestToggleError(t *testing.T) {
	f := &fakeTracker{board: testBoard(), toggleErr: errors.New("write failed")}
	s := loaded(t, f, store.LearningTrack)

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	s.Update(cmd())

	if s.errMsg != "write failed" {
		t.Errorf("errMsg = %q", s.errMsg)
	}
	if !s.board.Done["m1"] {
		t.Error("failed toggle must leave the board unchanged")
	}
}

func TestEmptyBoardView(t *testing.T) {
	f := &fakeTracker{board: &progress.Board{Level: scoring.LevelBeginner, Done: map[string]bool{}}}
	s := loaded(t, f, store.RoadmapTrack)

	if _, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeySpace}); cmd != nil {
		t.Error("nothing to toggle on an empty board")
	}
	if s.View(80, 24) == "" {
		t.Error("expected non-empty view")
	}
}

func TestStateChangedReloadsOnLevel(t *testing.T) {
	f := &fakeTracker{board: testBoard()}
	s := loaded(t, f, store.LearningTrack)

	if cmd := s.StateChanged(session.State{}); cmd != nil {
		t.Error("missing profile must not reload")
	}
	cmd := s.StateChanged(session.State{Profile: &store.Profile{ID: "u1", LearningLevel: scoring.LevelAdvanced}})
	if cmd == nil {
		t.Fatal("expected reload on level change")
	}
	s.Update(cmd())
	if f.level != scoring.LevelAdvanced {
		t.Errorf("reloaded level = %q", f.level)
	}
}
