package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/levelup/internal/backend"
)

// Track names a kind of completion marker.
type Track struct {
	Name string
	// Table holds the markers; Column holds the item id.
	Table  string
	Column string
	// Permanent markers cannot be removed.
	Permanent bool
}

var (
	LearningTrack = Track{Name: "learning", Table: TableLearningProgress, Column: "module_id"}
	RoadmapTrack  = Track{Name: "roadmap", Table: TableRoadmapProgress, Column: "step_id"}
	PracticeTrack = Track{Name: "practice", Table: TableProblemProgress, Column: "problem_id", Permanent: true}
)

// ErrPermanent is returned when removing a marker from a permanent track.
var ErrPermanent = errors.New("marker cannot be removed")

// ProgressRepo manages per-user completion markers.
type ProgressRepo interface {
	// Completed returns the ids the user has marked on track.
	Completed(ctx context.Context, track Track, userID string) (map[string]bool, error)

	// Mark records a marker. An existing marker returns backend.ErrConflict.
	Mark(ctx context.Context, track Track, userID, itemID string) error

	// Unmark removes a marker. Permanent tracks return ErrPermanent.
	Unmark(ctx context.Context, track Track, userID, itemID string) error

	// RecordSolve marks a problem solved with the points it earned.
	RecordSolve(ctx context.Context, userID, problemID string, points int) error
}

type progressRepo struct {
	s backend.Store
}

func (r *progressRepo) Completed(ctx context.Context, track Track, userID string) (map[string]bool, error) {
	var rows []map[string]any
	err := r.s.Select(ctx, backend.Query{
		Table:   track.Table,
		Columns: []string{track.Column},
		Filters: []backend.Filter{backend.Eq("user_id", userID)},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("load %s progress: %w", track.Name, err)
	}
	done := make(map[string]bool, len(rows))
	for _, row := range rows {
		if v, ok := row[track.Column]; ok && v != nil {
			done[fmt.Sprint(v)] = true
		}
	}
	return done, nil
}

func (r *progressRepo) Mark(ctx context.Context, track Track, userID, itemID string) error {
	err := r.s.Insert(ctx, track.Table, map[string]any{
		"user_id":    userID,
		track.Column: itemID,
	})
	if err != nil {
		return fmt.Errorf("mark %s: %w", track.Name, err)
	}
	return nil
}

func (r *progressRepo) Unmark(ctx context.Context, track Track, userID, itemID string) error {
	if track.Permanent {
		return ErrPermanent
	}
	err := r.s.Delete(ctx, track.Table, []backend.Filter{
		backend.Eq("user_id", userID),
		backend.Eq(track.Column, itemID),
	})
	if err != nil {
		return fmt.Errorf("unmark %s: %w", track.Name, err)
	}
	return nil
}

func (r *progressRepo) RecordSolve(ctx context.Context, userID, problemID string, points int) error {
	err := r.s.Insert(ctx, PracticeTrack.Table, map[string]any{
		"user_id":       userID,
		"problem_id":    problemID,
		"points_earned": points,
	})
	if err != nil {
		return fmt.Errorf("record solve: %w", err)
	}
	return nil
}
