package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/scoring"
)

// Result is one IQ assessment attempt. Results are append-only.
type Result struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	Score          int           `json:"score"`
	TotalQuestions int           `json:"total_questions"`
	LevelAssigned  scoring.Level `json:"level_assigned"`
	CreatedAt      string        `json:"created_at"`
}

// ResultRepo records and lists assessment results.
type ResultRepo interface {
	// Record appends a result. Missing ID and CreatedAt are filled in.
	Record(ctx context.Context, r *Result) error

	// History returns a user's results, newest first.
	History(ctx context.Context, userID string) ([]Result, error)
}

type resultRepo struct {
	s   backend.Store
	now func() time.Time
}

func (r *resultRepo) Record(ctx context.Context, res *Result) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.CreatedAt == "" {
		res.CreatedAt = timestamp(r.now())
	}
	if err := r.s.Insert(ctx, TableIQResults, res); err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

func (r *resultRepo) History(ctx context.Context, userID string) ([]Result, error) {
	var out []Result
	err := r.s.Select(ctx, backend.Query{
		Table:   TableIQResults,
		Filters: []backend.Filter{backend.Eq("user_id", userID)},
		Order:   []backend.Order{{Column: "created_at", Descending: true}},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	return out, nil
}

// When parses CreatedAt, returning the zero time when it is malformed.
func (r Result) When() time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, r.CreatedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}
