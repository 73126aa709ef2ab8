package assessment

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/levelup/internal/scoring"
	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/store"
)

type fakeResults struct {
	recorded []store.Result
	err      error
}

func (f *fakeResults) Record(_ context.Context, r *store.Result) error {
	if f.err != nil {
		return f.err
	}
	r.ID = "r1"
	f.recorded = append(f.recorded, *r)
	return nil
}

func (f *fakeResults) History(context.Context, string) ([]store.Result, error) {
	return f.recorded, nil
}

type fakeUpdater struct {
	patches []store.ProfilePatch
	err     error
}

func (f *fakeUpdater) UpdateProfile(_ context.Context, p store.ProfilePatch) (*store.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.patches = append(f.patches, p)
	return &store.Profile{}, nil
}

func answersWithCorrect(n int) scoring.Answers {
	a := scoring.Answers{}
	for i, q := range scoring.Assessment {
		if i < n {
			a[q.ID] = q.CorrectIndex
		} else {
			a[q.ID] = (q.CorrectIndex + 1) % len(q.Options)
		}
	}
	return a
}

func TestSubmit(t *testing.T) {
	tests := []struct {
		correct int
		want    scoring.Level
	}{
		{5, scoring.LevelAdvanced},
		{4, scoring.LevelAdvanced},
		{3, scoring.LevelIntermediate},
		{2, scoring.LevelBeginner},
		{0, scoring.LevelBeginner},
	}
	for _, tt := range tests {
		results := &fakeResults{}
		profiles := &fakeUpdater{}
		log, _ := test.NewNullLogger()
		svc := NewService(results, profiles, log)

		out, err := svc.Submit(context.Background(), "u1", answersWithCorrect(tt.correct))
		require.NoError(t, err)
		assert.Equal(t, Outcome{Score: tt.correct, Total: 5, Level: tt.want}, out)

		require.Len(t, results.recorded, 1)
		assert.Equal(t, store.Result{ID: "r1", UserID: "u1", Score: tt.correct, TotalQuestions: 5, LevelAssigned: tt.want}, results.recorded[0])
		require.Len(t, profiles.patches, 1)
		assert.Equal(t, store.LevelPatch(tt.want), profiles.patches[0])
	}
}

func TestSubmitInsertFailureLeavesLevel(t *testing.T) {
	results := &fakeResults{err: errors.New("permission denied")}
	profiles := &fakeUpdater{}
	svc := NewService(results, profiles, nil)

	_, err := svc.Submit(context.Background(), "u1", answersWithCorrect(5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Empty(t, profiles.patches)
}

func TestSubmitLevelUpdateFailureIsLogged(t *testing.T) {
	log, hook := test.NewNullLogger()
	svc := NewService(&fakeResults{}, &fakeUpdater{err: errors.New("offline")}, log)

	out, err := svc.Submit(context.Background(), "u1", answersWithCorrect(3))
	require.NoError(t, err)
	assert.Equal(t, scoring.LevelIntermediate, out.Level)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Message == "level update failed" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestSubmitRequiresIdentity(t *testing.T) {
	svc := NewService(&fakeResults{}, &fakeUpdater{}, nil)
	_, err := svc.Submit(context.Background(), "", scoring.Answers{})
	assert.ErrorIs(t, err, session.ErrNoIdentity)
}

func TestComplete(t *testing.T) {
	svc := NewService(&fakeResults{}, &fakeUpdater{}, nil)
	assert.False(t, svc.Complete(scoring.Answers{"q1": 0}))
	assert.True(t, svc.Complete(answersWithCorrect(0)))
	assert.Len(t, svc.Questions(), 5)
}
