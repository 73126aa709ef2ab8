// Package local is a self-contained backend on an embedded SQLite database.
// It speaks the same contracts as the hosted backend so the client can run
// offline and in development.
package local

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/catalog"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// DefaultTokenTTL is the lifetime of issued access tokens.
const DefaultTokenTTL = time.Hour

// Options configures Open.
type Options struct {
	// Path is the database file.
	Path string
	// Secret signs access tokens. When empty a secret is generated on first
	// open and kept in the database.
	Secret []byte
	// Sessions persists the signed-in session between runs. May be nil.
	Sessions *backend.SessionFile
	// Catalog seeds an empty database. Defaults to catalog.Default().
	Catalog *catalog.Catalog
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	TokenTTL   time.Duration

	Logger logrus.FieldLogger
	Now    func() time.Time
}

// Backend implements backend.Auth and, through Tables, backend.Store.
type Backend struct {
	db       *sql.DB
	secret   []byte
	sessions *backend.SessionFile
	cost     int
	ttl      time.Duration
	log      logrus.FieldLogger
	now      func() time.Time
	events   backend.Broadcaster
	tables   *Tables

	mu      sync.Mutex
	current *backend.Session
	loaded  bool
}

var _ backend.Auth = (*Backend)(nil)

// Open opens or creates the database at opts.Path, applies migrations and
// seeds the catalog when the database has none.
func Open(ctx context.Context, opts Options) (*Backend, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("local: database path is required")
	}

	db, err := sql.Open("sqlite", dsn(opts.Path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	b := &Backend{
		db:       db,
		secret:   opts.Secret,
		sessions: opts.Sessions,
		cost:     opts.BcryptCost,
		ttl:      opts.TokenTTL,
		log:      opts.Logger,
		now:      opts.Now,
	}
	if b.cost == 0 {
		b.cost = bcrypt.DefaultCost
	}
	if b.ttl <= 0 {
		b.ttl = DefaultTokenTTL
	}
	if b.log == nil {
		b.log = logrus.StandardLogger()
	}
	b.log = b.log.WithField("component", "local")
	if b.now == nil {
		b.now = time.Now
	}
	b.tables = &Tables{db: db, cols: map[string]map[string]bool{}}

	if len(b.secret) == 0 {
		if b.secret, err = loadSecret(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := b.seedIfEmpty(ctx, opts.Catalog); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + sep + q.Encode()
}

func loadSecret(ctx context.Context, db *sql.DB) ([]byte, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = 'jwt_secret'`).Scan(&value)
	if err == nil {
		return hex.DecodeString(value)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load token secret: %w", err)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate token secret: %w", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES ('jwt_secret', ?)`, hex.EncodeToString(secret)); err != nil {
		return nil, fmt.Errorf("store token secret: %w", err)
	}
	return secret, nil
}

// Backend returns b as a backend.Client. Closing the client closes b.
func (b *Backend) Backend() *backend.Client {
	return &backend.Client{Auth: b, Store: b.tables, Close: b.Close}
}

// Tables returns the table access half of b.
func (b *Backend) Tables() *Tables { return b.tables }

// DB returns the underlying database handle.
func (b *Backend) DB() *sql.DB { return b.db }

func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) seedIfEmpty(ctx context.Context, c *catalog.Catalog) error {
	var n int
	if err := b.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(1) FROM learning_modules) +
		(SELECT COUNT(1) FROM roadmap_steps) +
		(SELECT COUNT(1) FROM practice_problems)`).Scan(&n); err != nil {
		return fmt.Errorf("count catalog: %w", err)
	}
	if n > 0 {
		return nil
	}
	if c == nil {
		var err error
		if c, err = catalog.Default(); err != nil {
			return err
		}
	}
	return b.Seed(ctx, c)
}

// Seed upserts every catalog entry by id. Existing progress markers survive.
func (b *Backend) Seed(ctx context.Context, c *catalog.Catalog) error {
	err := inTx(ctx, b.db, func(tx *sql.Tx) error {
		for _, m := range c.Modules {
			if _, err := tx.ExecContext(ctx, `INSERT INTO learning_modules (id, title, description, video_url, level, sort_order)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET title = excluded.title, description = excluded.description,
					video_url = excluded.video_url, level = excluded.level, sort_order = excluded.sort_order`,
				m.ID, m.Title, m.Description, m.VideoURL, string(m.Level), m.SortOrder); err != nil {
				return fmt.Errorf("module %s: %w", m.ID, err)
			}
		}
		for _, s := range c.Steps {
			links, err := encodeLinks(s.Links)
			if err != nil {
				return fmt.Errorf("step %s: %w", s.ID, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO roadmap_steps (id, title, description, level, resource_links, sort_order)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET title = excluded.title, description = excluded.description,
					level = excluded.level, resource_links = excluded.resource_links, sort_order = excluded.sort_order`,
				s.ID, s.Title, s.Description, string(s.Level), links, s.SortOrder); err != nil {
				return fmt.Errorf("step %s: %w", s.ID, err)
			}
		}
		for _, p := range c.Problems {
			if _, err := tx.ExecContext(ctx, `INSERT INTO practice_problems (id, title, description, difficulty, points, url, sort_order)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET title = excluded.title, description = excluded.description,
					difficulty = excluded.difficulty, points = excluded.points, url = excluded.url, sort_order = excluded.sort_order`,
				p.ID, p.Title, p.Description, string(p.Difficulty), p.Points, p.URL, p.SortOrder); err != nil {
				return fmt.Errorf("problem %s: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	b.log.WithFields(logrus.Fields{
		"modules":  len(c.Modules),
		"steps":    len(c.Steps),
		"problems": len(c.Problems),
	}).Info("catalog seeded")
	return nil
}
