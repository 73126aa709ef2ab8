package local

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/catalog"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func openTest(t *testing.T, mutate ...func(*Options)) (*Backend, *clock) {
	t.Helper()
	dir := t.TempDir()
	clk := &clock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	log, _ := test.NewNullLogger()
	opts := Options{
		Path:       filepath.Join(dir, "levelup.db"),
		Sessions:   &backend.SessionFile{Path: filepath.Join(dir, "session.json")},
		BcryptCost: bcrypt.MinCost,
		Logger:     log,
		Now:        clk.Now,
	}
	for _, m := range mutate {
		m(&opts)
	}
	b, err := Open(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b, clk
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	assert.Error(t, err)
}

func TestPragmasApplied(t *testing.T) {
	b, _ := openTest(t)

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
	}
	for _, tt := range tests {
		t.Run(tt.pragma, func(t *testing.T) {
			var got string
			require.NoError(t, b.DB().QueryRow("PRAGMA "+tt.pragma).Scan(&got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	b, _ := openTest(t)
	ctx := context.Background()

	require.NoError(t, migrate(ctx, b.DB()))

	var n int
	require.NoError(t, b.DB().QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestReopenKeepsSecretAndCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "levelup.db")
	log, _ := test.NewNullLogger()
	ctx := context.Background()

	first, err := Open(ctx, Options{Path: path, Logger: log, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	sess, err := first.SignUp(ctx, "a@b.co", "secret1")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(ctx, Options{Path: path, Logger: log})
	require.NoError(t, err)
	defer second.Close()

	claims, err := second.verify(sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.Subject)

	def, err := catalog.Default()
	require.NoError(t, err)
	var n int
	require.NoError(t, second.DB().QueryRow(`SELECT COUNT(1) FROM practice_problems`).Scan(&n))
	assert.Equal(t, len(def.Problems), n)
}

func TestSignUpCreatesProfileAndSignsIn(t *testing.T) {
	b, _ := openTest(t)
	ctx := context.Background()

	var events []backend.Event
	b.OnSessionChange(func(e backend.Event) { events = append(events, e) })

	sess, err := b.SignUp(ctx, "new@levelup.dev", "hunter22")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "new@levelup.dev", sess.User.Email)
	assert.NotEmpty(t, sess.RefreshToken)

	require.Len(t, events, 1)
	assert.Equal(t, backend.EventSignedIn, events[0].Kind)

	var profile map[string]any
	require.NoError(t, b.Tables().SelectOne(ctx, backend.Query{
		Table:   "profiles",
		Filters: []backend.Filter{backend.Eq("id", sess.User.ID)},
	}, &profile))
	assert.Equal(t, "Beginner", profile["learning_level"])
	assert.EqualValues(t, 0, profile["points"])
	assert.Nil(t, profile["display_name"])
}

func TestSignUpValidation(t *testing.T) {
	b, _ := openTest(t)
	ctx := context.Background()

	_, err := b.SignUp(ctx, "not-an-email", "hunter22")
	assert.Error(t, err)

	_, err = b.SignUp(ctx, "a@b.co", "123")
	require.Error(t, err)
	assert.Contains(t, backend.Message(err), "at least 6")

	_, err = b.SignUp(ctx, "a@b.co", "hunter22")
	require.NoError(t, err)
	_, err = b.SignUp(ctx, "A@B.co", "hunter22")
	require.Error(t, err)
	assert.Equal(t, "User already registered", backend.Message(err))
}

func TestSignInWithPassword(t *testing.T) {
	b, _ := openTest(t)
	ctx := context.Background()

	_, err := b.SignUp(ctx, "a@b.co", "hunter22")
	require.NoError(t, err)
	require.NoError(t, b.SignOut(ctx))

	_, err = b.SignInWithPassword(ctx, "a@b.co", "wrong")
	assert.ErrorIs(t, err, backend.ErrInvalidCredentials)
	_, err = b.SignInWithPassword(ctx, "nobody@b.co", "hunter22")
	assert.ErrorIs(t, err, backend.ErrInvalidCredentials)

	sess, err := b.SignInWithPassword(ctx, "a@b.co", "hunter22")
	require.NoError(t, err)

	got, err := b.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess.AccessToken, got.AccessToken)
}

func TestGetSessionRefreshesAndRotates(t *testing.T) {
	b, clk := openTest(t)
	ctx := context.Background()

	first, err := b.SignUp(ctx, "a@b.co", "hunter22")
	require.NoError(t, err)

	var kinds []backend.EventKind
	b.OnSessionChange(func(e backend.Event) { kinds = append(kinds, e.Kind) })

	clk.now = clk.now.Add(2 * DefaultTokenTTL)
	second, err := b.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, first.User, second.User)
	assert.Equal(t, []backend.EventKind{backend.EventTokenRefreshed}, kinds)

	// The old refresh token is spent.
	_, err = b.refresh(ctx, first)
	assert.ErrorIs(t, err, backend.ErrInvalidCredentials)
}

func TestGetSessionRestoresSavedSession(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "levelup.db")
	sessions := &backend.SessionFile{Path: filepath.Join(dir, "session.json")}
	log, _ := test.NewNullLogger()
	ctx := context.Background()

	first, err := Open(ctx, Options{Path: path, Sessions: sessions, Logger: log, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	sess, err := first.SignUp(ctx, "a@b.co", "hunter22")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(ctx, Options{Path: path, Sessions: sessions, Logger: log})
	require.NoError(t, err)
	defer second.Close()

	got, err := second.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.User, got.User)
}

func TestGetSessionDropsForeignToken(t *testing.T) {
	b, _ := openTest(t, func(o *Options) { o.Secret = []byte("one") })
	ctx := context.Background()
	_, err := b.SignUp(ctx, "a@b.co", "hunter22")
	require.NoError(t, err)

	b.secret = []byte("two")
	got, err := b.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSignInWithOAuthNotEnabled(t *testing.T) {
	b, _ := openTest(t)
	_, err := b.SignInWithOAuth(context.Background(), "google", "")
	require.Error(t, err)
	assert.Contains(t, backend.Message(err), "provider is not enabled")
}

func TestExchangeRedirect(t *testing.T) {
	b, _ := openTest(t)
	ctx := context.Background()

	issued, err := b.SignUp(ctx, "a@b.co", "hunter22")
	require.NoError(t, err)
	require.NoError(t, b.SignOut(ctx))

	sess, err := b.ExchangeRedirect(ctx, "#access_token="+issued.AccessToken+"&refresh_token=r&expires_in=3600")
	require.NoError(t, err)
	assert.Equal(t, issued.User.ID, sess.User.ID)

	_, err = b.ExchangeRedirect(ctx, "#access_token=garbage")
	assert.Error(t, err)
}

func TestSignOutClears(t *testing.T) {
	b, _ := openTest(t)
	ctx := context.Background()
	_, err := b.SignUp(ctx, "a@b.co", "hunter22")
	require.NoError(t, err)

	require.NoError(t, b.SignOut(ctx))
	got, err := b.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	var n int
	require.NoError(t, b.DB().QueryRow(`SELECT COUNT(1) FROM refresh_tokens`).Scan(&n))
	assert.Zero(t, n)
}

func TestSeedUpserts(t *testing.T) {
	b, _ := openTest(t, func(o *Options) {
		o.Catalog = &catalog.Catalog{Problems: []catalog.Problem{{ID: "p1", Title: "Old", Difficulty: catalog.Easy, SortOrder: 1}}}
	})
	ctx := context.Background()

	require.NoError(t, b.Seed(ctx, &catalog.Catalog{
		Problems: []catalog.Problem{{ID: "p1", Title: "New", Difficulty: catalog.Hard, Points: 40, SortOrder: 1}},
		Steps: []catalog.Step{{ID: "s1", Title: "Step", Level: "Beginner", SortOrder: 1,
			Links: []catalog.Link{{Label: "Go", URL: "https://go.dev"}}}},
	}))

	var rows []map[string]any
	require.NoError(t, b.Tables().Select(ctx, backend.Query{Table: "practice_problems"}, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "New", rows[0]["title"])
	assert.EqualValues(t, 40, rows[0]["points"])

	var steps []map[string]any
	require.NoError(t, b.Tables().Select(ctx, backend.Query{Table: "roadmap_steps"}, &steps))
	require.Len(t, steps, 1)
	assert.Equal(t, `[{"label":"Go","url":"https://go.dev"}]`, steps[0]["resource_links"])
}
