// Package practice awards points and streaks for solved coding problems.
package practice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/scoring"
	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/store"
)

// ErrNoProfile is returned when the profile to credit could not be read.
var ErrNoProfile = errors.New("profile unavailable")

// Profiles is the slice of *session.Synchronizer the service uses.
type Profiles interface {
	State() session.State
	RefreshProfile(ctx context.Context)
	UpdateProfile(ctx context.Context, patch store.ProfilePatch) (*store.Profile, error)
}

// Board lists problems with the user's solved set.
type Board struct {
	Problems []store.Problem
	Solved   map[string]bool
}

// Summary is the stats strip shown above the problem list.
type Summary struct {
	Points  int
	Solved  int
	Streak  int
	Longest int
	Badge   scoring.Badge
}

// SummaryOf derives the stats for p. Nil-safe.
func SummaryOf(p *store.Profile) Summary {
	prog := p.Progress()
	return Summary{
		Points:  prog.Points,
		Solved:  prog.ProblemsSolved,
		Streak:  prog.CurrentStreak,
		Longest: prog.LongestStreak,
		Badge:   scoring.BadgeFor(prog.ProblemsSolved),
	}
}

// Service loads problems and records solves.
type Service struct {
	catalog  store.CatalogRepo
	progress store.ProgressRepo
	profiles Profiles
	now      func() time.Time
	log      logrus.FieldLogger
}

// NewService creates a Service. A nil now uses time.Now.
func NewService(c store.CatalogRepo, p store.ProgressRepo, profiles Profiles, now func() time.Time, log logrus.FieldLogger) *Service {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{catalog: c, progress: p, profiles: profiles, now: now, log: log.WithField("component", "practice")}
}

// Load returns every problem and, when userID is set, the solved set.
// Read failures are logged and degrade to empty.
func (s *Service) Load(ctx context.Context, userID string) *Board {
	b := &Board{Solved: map[string]bool{}}
	problems, err := s.catalog.Problems(ctx)
	if err != nil {
		s.log.WithError(err).Warn("load problems")
	}
	b.Problems = problems

	if userID == "" {
		return b
	}
	solved, err := s.progress.Completed(ctx, store.PracticeTrack, userID)
	if err != nil {
		s.log.WithError(err).Warn("load solved problems")
		return b
	}
	b.Solved = solved
	return b
}

// MarkSolved credits the signed-in user for p once. It reports whether
// points were awarded; repeat calls for a solved problem are no-ops.
func (s *Service) MarkSolved(ctx context.Context, b *Board, p store.Problem) (bool, error) {
	st := s.profiles.State()
	if !st.SignedIn() {
		return false, session.ErrNoIdentity
	}
	if b.Solved[p.ID] {
		return false, nil
	}
	if st.Profile == nil {
		s.profiles.RefreshProfile(ctx)
		if st = s.profiles.State(); st.Profile == nil {
			return false, ErrNoProfile
		}
	}

	points := p.Worth()
	err := s.progress.RecordSolve(ctx, st.UserID(), p.ID, points)
	if errors.Is(err, backend.ErrConflict) {
		// Solved in another session; the profile already carries it.
		s.markLocal(b, p.ID)
		s.profiles.RefreshProfile(ctx)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.markLocal(b, p.ID)

	// Build on the latest profile; another solve may have landed meanwhile.
	base := st.Profile
	if cur := s.profiles.State(); cur.UserID() == st.UserID() && cur.Profile != nil {
		base = cur.Profile
	}
	next := scoring.ApplySolve(base.Progress(), points, s.now())
	if _, err := s.profiles.UpdateProfile(ctx, store.ProgressPatch(next)); err != nil {
		return true, fmt.Errorf("update progress: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"problem": p.ID,
		"points":  points,
		"streak":  next.CurrentStreak,
	}).Info("problem solved")
	return true, nil
}

func (s *Service) markLocal(b *Board, id string) {
	if b.Solved == nil {
		b.Solved = map[string]bool{}
	}
	b.Solved[id] = true
}
