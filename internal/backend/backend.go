// Package backend defines the contracts the client uses to reach the hosted
// identity provider and relational store, plus helpers shared by every
// implementation.
package backend

import (
	"context"
	"time"
)

// Identity is the authenticated user reference issued by the identity provider.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated session with its tokens.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         Identity  `json:"user"`
}

// Expired reports whether the access token has expired at now.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// EventKind names a session change pushed by the identity provider.
type EventKind string

const (
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
	EventUserUpdated    EventKind = "USER_UPDATED"
)

// Event is a session change. Session is nil after a sign-out.
type Event struct {
	Kind    EventKind
	Session *Session
}

// Subscription is returned by OnSessionChange.
type Subscription interface {
	Unsubscribe()
}

// Auth is the identity provider.
type Auth interface {
	// GetSession returns the current session, or nil when signed out.
	GetSession(ctx context.Context) (*Session, error)

	// OnSessionChange registers a listener for session changes.
	OnSessionChange(fn func(Event)) Subscription

	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignUp creates an account. The returned session is nil when the
	// provider requires email confirmation first.
	SignUp(ctx context.Context, email, password string) (*Session, error)

	// SignInWithOAuth returns the URL the user must visit to authorize
	// with provider. The provider redirects to redirectTo afterwards.
	SignInWithOAuth(ctx context.Context, provider, redirectTo string) (string, error)

	// ExchangeRedirect completes an OAuth sign-in from the redirect fragment.
	ExchangeRedirect(ctx context.Context, fragment string) (*Session, error)

	SignOut(ctx context.Context) error
}

// Filter is an equality filter on a column.
type Filter struct {
	Column string
	Value  any
}

// Eq builds a Filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// Order sorts a selection by a column.
type Order struct {
	Column     string
	Descending bool
}

// Query describes a table-scoped selection.
type Query struct {
	Table string
	// Columns to return; empty selects every column.
	Columns []string
	Filters []Filter
	Order   []Order
}

// Store is table-scoped access to the relational store. Rows travel as JSON:
// dest and row values are encoded and decoded with encoding/json.
type Store interface {
	// Select decodes every matching row into dest, a pointer to a slice.
	Select(ctx context.Context, q Query, dest any) error

	// SelectOne decodes exactly one matching row into dest.
	// It returns ErrNotFound when no row matches.
	SelectOne(ctx context.Context, q Query, dest any) error

	// Insert adds row to table. A duplicate key returns ErrConflict.
	Insert(ctx context.Context, table string, row any) error

	// Update applies patch to the single row matching filters and decodes
	// the updated row into dest when dest is non-nil.
	Update(ctx context.Context, table string, patch map[string]any, filters []Filter, dest any) error

	Delete(ctx context.Context, table string, filters []Filter) error
}

// Client bundles the two halves of a backend.
type Client struct {
	Auth  Auth
	Store Store
	// Close releases backend resources. May be nil.
	Close func() error
}
