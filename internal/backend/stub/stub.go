// Package stub is the inert backend used when no store endpoint is configured.
// Reads succeed with empty results and actions fail with
// backend.ErrNotConfigured, so the client always has a state to render.
package stub

import (
	"context"

	"github.com/abhisek/levelup/internal/backend"
)

// New returns a Client whose halves are both inert.
func New() *backend.Client {
	return &backend.Client{Auth: Auth{}, Store: Store{}}
}

// Auth is an identity provider with no accounts.
type Auth struct{}

var _ backend.Auth = Auth{}

func (Auth) GetSession(context.Context) (*backend.Session, error) { return nil, nil }

func (Auth) OnSessionChange(func(backend.Event)) backend.Subscription {
	return backend.NopSubscription{}
}

func (Auth) SignInWithPassword(context.Context, string, string) (*backend.Session, error) {
	return nil, backend.ErrNotConfigured
}

func (Auth) SignUp(context.Context, string, string) (*backend.Session, error) {
	return nil, backend.ErrNotConfigured
}

func (Auth) SignInWithOAuth(context.Context, string, string) (string, error) {
	return "", backend.ErrNotConfigured
}

func (Auth) ExchangeRedirect(context.Context, string) (*backend.Session, error) {
	return nil, backend.ErrNotConfigured
}

func (Auth) SignOut(context.Context) error { return nil }

// Store is a relational store with no rows.
type Store struct{}

var _ backend.Store = Store{}

// Select leaves dest untouched, which callers read as an empty result.
func (Store) Select(context.Context, backend.Query, any) error { return nil }

func (Store) SelectOne(context.Context, backend.Query, any) error { return backend.ErrNotFound }

func (Store) Insert(context.Context, string, any) error { return backend.ErrNotConfigured }

func (Store) Update(context.Context, string, map[string]any, []backend.Filter, any) error {
	return backend.ErrNotConfigured
}

func (Store) Delete(context.Context, string, []backend.Filter) error { return nil }
