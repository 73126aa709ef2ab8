package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/catalog"
	"github.com/abhisek/levelup/internal/scoring"
)

// Module is a learning_modules row.
type Module struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	VideoURL    string        `json:"video_url"`
	Level       scoring.Level `json:"level"`
	SortOrder   int           `json:"sort_order"`
}

// Links are a roadmap step's resources. The column holds either a JSON
// array or a string containing one; both decode to the same value.
type Links []catalog.Link

func (l *Links) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*l = nil
		return nil
	case strings.HasPrefix(trimmed, `"`):
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		if strings.TrimSpace(inner) == "" {
			*l = nil
			return nil
		}
		data = []byte(inner)
	}
	var links []catalog.Link
	if err := json.Unmarshal(data, &links); err != nil {
		return fmt.Errorf("resource_links: %w", err)
	}
	*l = links
	return nil
}

// Step is a roadmap_steps row.
type Step struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Level       scoring.Level `json:"level"`
	Links       Links         `json:"resource_links"`
	SortOrder   int           `json:"sort_order"`
}

// Problem is a practice_problems row.
type Problem struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Difficulty  catalog.Difficulty `json:"difficulty"`
	Points      int                `json:"points"`
	URL         string             `json:"url"`
	SortOrder   int                `json:"sort_order"`
}

// Worth returns the points awarded for solving p.
func (p Problem) Worth() int {
	if p.Points <= 0 {
		return scoring.DefaultProblemPoints
	}
	return p.Points
}

// CatalogRepo reads the learning content.
type CatalogRepo interface {
	Modules(ctx context.Context, level scoring.Level) ([]Module, error)
	Steps(ctx context.Context, level scoring.Level) ([]Step, error)
	Problems(ctx context.Context) ([]Problem, error)
}

type catalogRepo struct {
	s backend.Store
}

var bySortOrder = []backend.Order{{Column: "sort_order"}}

func (r *catalogRepo) Modules(ctx context.Context, level scoring.Level) ([]Module, error) {
	var out []Module
	err := r.s.Select(ctx, backend.Query{
		Table:   TableLearningModules,
		Filters: []backend.Filter{backend.Eq("level", string(level))},
		Order:   bySortOrder,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}
	return out, nil
}

func (r *catalogRepo) Steps(ctx context.Context, level scoring.Level) ([]Step, error) {
	var out []Step
	err := r.s.Select(ctx, backend.Query{
		Table:   TableRoadmapSteps,
		Filters: []backend.Filter{backend.Eq("level", string(level))},
		Order:   bySortOrder,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("load roadmap: %w", err)
	}
	return out, nil
}

func (r *catalogRepo) Problems(ctx context.Context) ([]Problem, error) {
	var out []Problem
	err := r.s.Select(ctx, backend.Query{
		Table: TablePracticeProblems,
		Order: bySortOrder,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("load problems: %w", err)
	}
	return out, nil
}
