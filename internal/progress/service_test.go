package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/catalog"
	"github.com/abhisek/levelup/internal/scoring"
	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/store"
)

type fakeCatalog struct {
	modules map[scoring.Level][]store.Module
	steps   map[scoring.Level][]store.Step
	err     error
}

func (f *fakeCatalog) Modules(_ context.Context, l scoring.Level) ([]store.Module, error) {
	return f.modules[l], f.err
}

func (f *fakeCatalog) Steps(_ context.Context, l scoring.Level) ([]store.Step, error) {
	return f.steps[l], f.err
}

func (f *fakeCatalog) Problems(context.Context) ([]store.Problem, error) { return nil, f.err }

type fakeProgress struct {
	done      map[string]bool
	loadErr   error
	markErr   error
	unmarkErr error
}

func (f *fakeProgress) Completed(context.Context, store.Track, string) (map[string]bool, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := map[string]bool{}
	for k, v := range f.done {
		out[k] = v
	}
	return out, nil
}

func (f *fakeProgress) Mark(_ context.Context, _ store.Track, _, id string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.done[id] = true
	return nil
}

func (f *fakeProgress) Unmark(_ context.Context, _ store.Track, _, id string) error {
	if f.unmarkErr != nil {
		return f.unmarkErr
	}
	delete(f.done, id)
	return nil
}

func (f *fakeProgress) RecordSolve(context.Context, string, string, int) error { return nil }

func fixture() (*fakeCatalog, *fakeProgress) {
	c := &fakeCatalog{
		modules: map[scoring.Level][]store.Module{
			scoring.LevelBeginner: {{ID: "m1", Title: "One"}, {ID: "m2", Title: "Two"}, {ID: "m3", Title: "Three"}},
			scoring.LevelAdvanced: {{ID: "m9", Title: "Nine"}},
		},
		steps: map[scoring.Level][]store.Step{
			scoring.LevelBeginner: {{ID: "s1", Title: "Setup", Links: store.Links{{Label: "Go", URL: "https://go.dev"}}}},
		},
	}
	// m9 is done but belongs to another level.
	p := &fakeProgress{done: map[string]bool{"m1": true, "m9": true}}
	return c, p
}

func TestLoadLearning(t *testing.T) {
	c, p := fixture()
	log, _ := test.NewNullLogger()
	svc := NewService(c, p, log)

	b := svc.Load(context.Background(), store.LearningTrack, "", "u1")
	assert.Equal(t, scoring.LevelBeginner, b.Level, "unset level defaults to Beginner")
	require.Len(t, b.Items, 3)
	assert.Equal(t, 1, b.Completed())
	assert.Equal(t, 33, b.Percent())
}

func TestLoadRoadmapCarriesLinks(t *testing.T) {
	c, p := fixture()
	svc := NewService(c, p, nil)

	b := svc.Load(context.Background(), store.RoadmapTrack, scoring.LevelBeginner, "u1")
	require.Len(t, b.Items, 1)
	assert.Equal(t, []catalog.Link{{Label: "Go", URL: "https://go.dev"}}, b.Items[0].Links)
}

func TestLoadFailuresDegrade(t *testing.T) {
	c, p := fixture()
	c.err = errors.New("down")
	log, hook := test.NewNullLogger()
	svc := NewService(c, p, log)

	b := svc.Load(context.Background(), store.LearningTrack, scoring.LevelBeginner, "u1")
	assert.Empty(t, b.Items)
	assert.Zero(t, b.Percent())
	assert.NotEmpty(t, hook.AllEntries())

	c.err = nil
	p.loadErr = errors.New("down")
	b = svc.Load(context.Background(), store.LearningTrack, scoring.LevelBeginner, "u1")
	assert.Len(t, b.Items, 3)
	assert.Empty(t, b.Done)
}

func TestLoadRoadmapFailureDropsPartialRows(t *testing.T) {
	c, p := fixture()
	c.err = errors.New("down")
	svc := NewService(c, p, nil)

	b := svc.Load(context.Background(), store.RoadmapTrack, scoring.LevelBeginner, "u1")
	assert.Empty(t, b.Items)
	assert.Zero(t, b.Percent())
}

func TestLoadAnonymousSkipsCompletions(t *testing.T) {
	c, p := fixture()
	p.loadErr = errors.New("must not be called")
	svc := NewService(c, p, nil)

	b := svc.Load(context.Background(), store.LearningTrack, scoring.LevelBeginner, "")
	assert.Len(t, b.Items, 3)
	assert.Empty(t, b.Done)
}

func TestPercentRounds(t *testing.T) {
	tests := []struct {
		items, done, want int
	}{
		{0, 0, 0},
		{3, 1, 33},
		{3, 2, 67},
		{2, 1, 50},
		{4, 4, 100},
	}
	for _, tt := range tests {
		b := &Board{Done: map[string]bool{}}
		for i := 0; i < tt.items; i++ {
			id := string(rune('a' + i))
			b.Items = append(b.Items, Item{ID: id})
			if i < tt.done {
				b.Done[id] = true
			}
		}
		if got := b.Percent(); got != tt.want {
			t.Errorf("Percent(%d of %d) = %d, want %d", tt.done, tt.items, got, tt.want)
		}
	}
}

func TestToggle(t *testing.T) {
	c, p := fixture()
	svc := NewService(c, p, nil)
	ctx := context.Background()
	b := svc.Load(ctx, store.LearningTrack, scoring.LevelBeginner, "u1")

	require.NoError(t, svc.Toggle(ctx, b, "u1", "m2"))
	assert.True(t, b.Done["m2"])
	assert.True(t, p.done["m2"])

	require.NoError(t, svc.Toggle(ctx, b, "u1", "m1"))
	assert.False(t, b.Done["m1"])
	assert.False(t, p.done["m1"])
}

func TestToggleFailureKeepsBoard(t *testing.T) {
	c, p := fixture()
	svc := NewService(c, p, nil)
	ctx := context.Background()
	b := svc.Load(ctx, store.LearningTrack, scoring.LevelBeginner, "u1")

	p.markErr = errors.New("denied")
	assert.Error(t, svc.Toggle(ctx, b, "u1", "m2"))
	assert.False(t, b.Done["m2"])

	p.unmarkErr = errors.New("denied")
	assert.Error(t, svc.Toggle(ctx, b, "u1", "m1"))
	assert.True(t, b.Done["m1"])
}

func TestToggleExistingMarkerCountsAsDone(t *testing.T) {
	c, p := fixture()
	svc := NewService(c, p, nil)
	b := &Board{Track: store.LearningTrack}

	p.markErr = backend.ErrConflict
	require.NoError(t, svc.Toggle(context.Background(), b, "u1", "m2"))
	assert.True(t, b.Done["m2"])
}

func TestToggleRequiresIdentity(t *testing.T) {
	c, p := fixture()
	svc := NewService(c, p, nil)
	assert.ErrorIs(t, svc.Toggle(context.Background(), &Board{}, "", "m1"), session.ErrNoIdentity)
}
