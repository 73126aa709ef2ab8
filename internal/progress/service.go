// Package progress tracks completion of learning modules and roadmap steps.
package progress

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/catalog"
	"github.com/abhisek/levelup/internal/scoring"
	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/store"
)

// Item is one checklist entry.
type Item struct {
	ID          string
	Title       string
	Description string
	VideoURL    string
	Links       []catalog.Link
}

// Board is a level's checklist with the user's completions.
type Board struct {
	Track store.Track
	Level scoring.Level
	Items []Item
	Done  map[string]bool
}

// Completed counts listed items that are done. Markers for items outside
// the list are not counted.
func (b *Board) Completed() int {
	n := 0
	for _, it := range b.Items {
		if b.Done[it.ID] {
			n++
		}
	}
	return n
}

// Percent is the rounded share of listed items that are done.
func (b *Board) Percent() int {
	if len(b.Items) == 0 {
		return 0
	}
	return int(math.Round(float64(b.Completed()) * 100 / float64(len(b.Items))))
}

// Service loads and toggles checklist progress.
type Service struct {
	catalog  store.CatalogRepo
	progress store.ProgressRepo
	log      logrus.FieldLogger
}

// NewService creates a Service.
func NewService(c store.CatalogRepo, p store.ProgressRepo, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{catalog: c, progress: p, log: log.WithField("component", "progress")}
}

// Load builds the board for track at level. Read failures are logged and
// yield an empty list or an empty completion set.
func (s *Service) Load(ctx context.Context, track store.Track, level scoring.Level, userID string) *Board {
	b := &Board{Track: track, Level: level.OrDefault(), Done: map[string]bool{}}
	log := s.log.WithField("track", track.Name)

	switch track.Name {
	case store.LearningTrack.Name:
		modules, err := s.catalog.Modules(ctx, b.Level)
		if err != nil {
			log.WithError(err).Warn("load items")
			modules = nil
		}
		for _, m := range modules {
			b.Items = append(b.Items, Item{ID: m.ID, Title: m.Title, Description: m.Description, VideoURL: m.VideoURL})
		}
	case store.RoadmapTrack.Name:
		steps, err := s.catalog.Steps(ctx, b.Level)
		if err != nil {
			log.WithError(err).Warn("load items")
			steps = nil
		}
		for _, st := range steps {
			b.Items = append(b.Items, Item{ID: st.ID, Title: st.Title, Description: st.Description, Links: st.Links})
		}
	default:
		log.Warn("unsupported checklist track")
		return b
	}

	if userID == "" {
		return b
	}
	done, err := s.progress.Completed(ctx, track, userID)
	if err != nil {
		log.WithError(err).Warn("load completions")
		return b
	}
	b.Done = done
	return b
}

// Toggle flips the completion of itemID on b. b changes only on success.
func (s *Service) Toggle(ctx context.Context, b *Board, userID, itemID string) error {
	if userID == "" {
		return session.ErrNoIdentity
	}
	if b.Done[itemID] {
		if err := s.progress.Unmark(ctx, b.Track, userID, itemID); err != nil {
			return fmt.Errorf("uncheck: %w", err)
		}
		delete(b.Done, itemID)
		return nil
	}

	err := s.progress.Mark(ctx, b.Track, userID, itemID)
	if err != nil && !errors.Is(err, backend.ErrConflict) {
		return fmt.Errorf("check: %w", err)
	}
	if b.Done == nil {
		b.Done = map[string]bool{}
	}
	b.Done[itemID] = true
	return nil
}
