package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/levelup/internal/scoring"
	"github.com/abhisek/levelup/internal/store"
)

func strPtr(s string) *string { return &s }

func TestRank(t *testing.T) {
	rows := []store.LeaderboardRow{
		{ID: "a", DisplayName: strPtr("Ada"), LearningLevel: scoring.LevelAdvanced, Points: 90, ProblemsSolved: 9},
		{ID: "b", Points: 40},
		{ID: "c", DisplayName: strPtr("   "), LearningLevel: "bogus", Points: 10},
	}

	got := Rank(rows, "b")
	want := []Entry{
		{Rank: 1, ID: "a", Name: "Ada", Level: scoring.LevelAdvanced, Points: 90, Solved: 9},
		{Rank: 2, ID: "b", Name: AnonymousName, Level: scoring.LevelBeginner, Points: 40, Current: true},
		{Rank: 3, ID: "c", Name: AnonymousName, Level: scoring.LevelBeginner, Points: 10},
	}
	assert.Equal(t, want, got)
}

func TestRankSignedOutFlagsNobody(t *testing.T) {
	for _, e := range Rank([]store.LeaderboardRow{{ID: ""}, {ID: "x"}}, "") {
		assert.False(t, e.Current)
	}
	assert.Empty(t, Rank(nil, "x"))
}

func TestTop(t *testing.T) {
	entries := Rank([]store.LeaderboardRow{{ID: "a"}, {ID: "b"}, {ID: "c"}}, "")
	tests := []struct {
		n    int
		want int
	}{
		{0, 3},
		{-1, 3},
		{2, 2},
		{5, 3},
	}
	for _, tt := range tests {
		assert.Len(t, Top(entries, tt.n), tt.want, "n=%d", tt.n)
	}
}
