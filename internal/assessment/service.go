// Package assessment runs the placement test that assigns a learning level.
package assessment

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/levelup/internal/scoring"
	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/store"
)

// ProfileUpdater writes the signed-in user's profile. *session.Synchronizer
// satisfies it.
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, patch store.ProfilePatch) (*store.Profile, error)
}

// Outcome is the result shown after submitting.
type Outcome struct {
	Score int
	Total int
	Level scoring.Level
}

// Service scores submissions and records them.
type Service struct {
	questions []scoring.Question
	results   store.ResultRepo
	profiles  ProfileUpdater
	log       logrus.FieldLogger
}

// NewService creates a Service over the fixed question bank.
func NewService(results store.ResultRepo, profiles ProfileUpdater, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		questions: scoring.Assessment,
		results:   results,
		profiles:  profiles,
		log:       log.WithField("component", "assessment"),
	}
}

// Questions returns the question bank in presentation order.
func (s *Service) Questions() []scoring.Question {
	return s.questions
}

// Complete reports whether every question has an answer.
func (s *Service) Complete(answers scoring.Answers) bool {
	for _, q := range s.questions {
		if _, ok := answers[q.ID]; !ok {
			return false
		}
	}
	return true
}

// Submit scores answers for userID, appends the result and sets the
// profile level. A failed insert is returned and the level is not changed.
// A failed level update is logged; the recorded result still stands.
func (s *Service) Submit(ctx context.Context, userID string, answers scoring.Answers) (Outcome, error) {
	if userID == "" {
		return Outcome{}, session.ErrNoIdentity
	}

	total := len(s.questions)
	score := scoring.Score(s.questions, answers)
	out := Outcome{Score: score, Total: total, Level: scoring.LevelFor(score, total)}

	if err := s.results.Record(ctx, &store.Result{
		UserID:         userID,
		Score:          score,
		TotalQuestions: total,
		LevelAssigned:  out.Level,
	}); err != nil {
		return Outcome{}, fmt.Errorf("save result: %w", err)
	}

	if _, err := s.profiles.UpdateProfile(ctx, store.LevelPatch(out.Level)); err != nil {
		s.log.WithError(err).WithField("level", out.Level).Warn("level update failed")
	}

	s.log.WithFields(logrus.Fields{
		"score": score,
		"total": total,
		"level": out.Level,
	}).Info("assessment submitted")
	return out, nil
}
