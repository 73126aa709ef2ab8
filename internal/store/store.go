// Package store gives typed access to the platform tables over a
// backend.Store.
package store

import (
	"time"

	"github.com/abhisek/levelup/internal/backend"
)

// Table names.
const (
	TableProfiles         = "profiles"
	TableIQResults        = "iq_test_results"
	TableLearningModules  = "learning_modules"
	TableLearningProgress = "user_learning_progress"
	TableRoadmapSteps     = "roadmap_steps"
	TableRoadmapProgress  = "user_roadmap_progress"
	TablePracticeProblems = "practice_problems"
	TableProblemProgress  = "user_problem_progress"
)

// Store holds the repositories built on one backend.Store.
type Store struct {
	Profiles ProfileRepo
	Results  ResultRepo
	Catalog  CatalogRepo
	Progress ProgressRepo
}

// New builds every repository on s. A nil now uses time.Now.
func New(s backend.Store, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		Profiles: &profileRepo{s: s, now: now},
		Results:  &resultRepo{s: s, now: now},
		Catalog:  &catalogRepo{s: s},
		Progress: &progressRepo{s: s},
	}
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
