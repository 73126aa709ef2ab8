package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/scoring"
)

// Profile is the per-user record: display name, level and progress counters.
type Profile struct {
	ID               string        `json:"id"`
	DisplayName      *string       `json:"display_name"`
	LearningLevel    scoring.Level `json:"learning_level"`
	Points           int           `json:"points"`
	ProblemsSolved   int           `json:"problems_solved"`
	CurrentStreak    int           `json:"current_streak"`
	LongestStreak    int           `json:"longest_streak"`
	LastActivityDate *string       `json:"last_activity_date"`
	UpdatedAt        string        `json:"updated_at,omitempty"`
}

// Level returns the profile's level, Beginner when unset. Nil-safe.
func (p *Profile) Level() scoring.Level {
	if p == nil {
		return scoring.LevelBeginner
	}
	return p.LearningLevel.OrDefault()
}

// Name returns the display name, or "" when unset. Nil-safe.
func (p *Profile) Name() string {
	if p == nil || p.DisplayName == nil {
		return ""
	}
	return *p.DisplayName
}

// Progress returns the scoring view of the profile. Nil-safe.
func (p *Profile) Progress() scoring.Progress {
	if p == nil {
		return scoring.Progress{}
	}
	prog := scoring.Progress{
		Points:         p.Points,
		ProblemsSolved: p.ProblemsSolved,
		CurrentStreak:  p.CurrentStreak,
		LongestStreak:  p.LongestStreak,
	}
	if p.LastActivityDate != nil {
		prog.LastActivity = *p.LastActivityDate
	}
	return prog
}

// ProfilePatch is a partial profile update keyed by column.
type ProfilePatch map[string]any

// LevelPatch sets the learning level.
func LevelPatch(l scoring.Level) ProfilePatch {
	return ProfilePatch{"learning_level": string(l)}
}

// DisplayNamePatch sets the display name; a blank name clears it.
func DisplayNamePatch(name string) ProfilePatch {
	name = strings.TrimSpace(name)
	if name == "" {
		return ProfilePatch{"display_name": nil}
	}
	return ProfilePatch{"display_name": name}
}

// ProgressPatch writes every progress counter.
func ProgressPatch(p scoring.Progress) ProfilePatch {
	patch := ProfilePatch{
		"points":          p.Points,
		"problems_solved": p.ProblemsSolved,
		"current_streak":  p.CurrentStreak,
		"longest_streak":  p.LongestStreak,
	}
	if p.LastActivity != "" {
		patch["last_activity_date"] = p.LastActivity
	}
	return patch
}

// LeaderboardRow is the public projection of a profile.
type LeaderboardRow struct {
	ID             string        `json:"id"`
	DisplayName    *string       `json:"display_name"`
	LearningLevel  scoring.Level `json:"learning_level"`
	Points         int           `json:"points"`
	ProblemsSolved int           `json:"problems_solved"`
}

// ProfileRepo manages profiles.
type ProfileRepo interface {
	// Get returns the profile for id, or backend.ErrNotFound.
	Get(ctx context.Context, id string) (*Profile, error)

	// Update applies patch to the profile for id, stamping updated_at,
	// and returns the stored row.
	Update(ctx context.Context, id string, patch ProfilePatch) (*Profile, error)

	// Leaderboard returns every profile ordered by points, highest first.
	Leaderboard(ctx context.Context) ([]LeaderboardRow, error)
}

type profileRepo struct {
	s   backend.Store
	now func() time.Time
}

func (r *profileRepo) Get(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	err := r.s.SelectOne(ctx, backend.Query{
		Table:   TableProfiles,
		Filters: []backend.Filter{backend.Eq("id", id)},
	}, &p)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (r *profileRepo) Update(ctx context.Context, id string, patch ProfilePatch) (*Profile, error) {
	row := make(map[string]any, len(patch)+1)
	for k, v := range patch {
		row[k] = v
	}
	row["updated_at"] = timestamp(r.now())

	var p Profile
	if err := r.s.Update(ctx, TableProfiles, row, []backend.Filter{backend.Eq("id", id)}, &p); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &p, nil
}

func (r *profileRepo) Leaderboard(ctx context.Context) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	err := r.s.Select(ctx, backend.Query{
		Table:   TableProfiles,
		Columns: []string{"id", "display_name", "learning_level", "points", "problems_solved"},
		Order:   []backend.Order{{Column: "points", Descending: true}},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	return rows, nil
}
