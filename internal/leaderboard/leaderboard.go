// Package leaderboard ranks learners by points.
package leaderboard

import (
	"strings"

	"github.com/abhisek/levelup/internal/scoring"
	"github.com/abhisek/levelup/internal/store"
)

// AnonymousName is shown for learners without a display name.
const AnonymousName = "Anonymous"

// Entry is one ranked row.
type Entry struct {
	Rank    int
	ID      string
	Name    string
	Level   scoring.Level
	Points  int
	Solved  int
	Current bool
}

// Rank numbers rows from 1 in the order given, which is points descending
// as the store returns them, and flags the row of currentID.
func Rank(rows []store.LeaderboardRow, currentID string) []Entry {
	out := make([]Entry, 0, len(rows))
	for i, r := range rows {
		name := AnonymousName
		if r.DisplayName != nil && strings.TrimSpace(*r.DisplayName) != "" {
			name = *r.DisplayName
		}
		out = append(out, Entry{
			Rank:    i + 1,
			ID:      r.ID,
			Name:    name,
			Level:   r.LearningLevel.OrDefault(),
			Points:  r.Points,
			Solved:  r.ProblemsSolved,
			Current: currentID != "" && r.ID == currentID,
		})
	}
	return out
}

// Top returns at most n entries. n <= 0 returns all of them.
func Top(entries []Entry, n int) []Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}
