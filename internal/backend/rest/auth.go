package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/abhisek/levelup/internal/backend"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (r *tokenResponse) session(now time.Time) *backend.Session {
	if r.AccessToken == "" {
		return nil
	}
	s := &backend.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
	}
	switch {
	case r.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0).UTC()
	case r.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second).UTC()
	}
	if r.User != nil {
		s.User = backend.Identity{ID: r.User.ID, Email: r.User.Email}
	} else if claims, err := backend.TokenClaims(r.AccessToken); err == nil {
		s.User = backend.Identity{ID: claims.Subject, Email: claims.Email}
	}
	return s
}

// GetSession returns the current session, loading it from disk on first use
// and refreshing it when the access token has expired.
func (c *Client) GetSession(ctx context.Context) (*backend.Session, error) {
	sess, ev, err := c.freshSession(ctx)
	if ev != nil {
		c.events.Emit(*ev)
	}
	return sess, err
}

// freshSession returns a session that is not expired, or nil when there is
// none. Listeners may call back into the client, so the change it makes is
// returned for the caller to emit once refreshMu is released.
func (c *Client) freshSession(ctx context.Context) (*backend.Session, *backend.Event, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.mu.Lock()
	if !c.loaded {
		saved, err := c.sessions.Load()
		if err != nil {
			c.log.WithError(err).Warn("discarding unreadable saved session")
		}
		c.current = saved
		c.loaded = true
	}
	sess := c.current
	c.mu.Unlock()

	if sess == nil || !sess.Expired(c.now()) {
		return sess, nil, nil
	}
	if sess.RefreshToken == "" {
		return nil, c.storeSession(nil, backend.EventSignedOut), nil
	}

	refreshed, err := c.refresh(ctx, sess.RefreshToken)
	if err != nil {
		var be *backend.Error
		if errors.As(err, &be) {
			// The provider rejected the refresh token.
			return nil, c.storeSession(nil, backend.EventSignedOut), nil
		}
		return nil, nil, err
	}
	return refreshed, c.storeSession(refreshed, backend.EventTokenRefreshed), nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*backend.Session, error) {
	var tr tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   []string{"auth", "v1", "token"},
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
		anon:   true,
	}, &tr)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	sess := tr.session(c.now())
	if sess == nil {
		return nil, fmt.Errorf("refresh session: response carried no access token")
	}
	return sess, nil
}

// OnSessionChange registers fn for session changes.
func (c *Client) OnSessionChange(fn func(backend.Event)) backend.Subscription {
	return c.events.Subscribe(fn)
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*backend.Session, error) {
	var tr tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   []string{"auth", "v1", "token"},
		query:  url.Values{"grant_type": {"password"}},
		body:   credentials{Email: email, Password: password},
		anon:   true,
	}, &tr)
	if err != nil {
		return nil, err
	}
	sess := tr.session(c.now())
	if sess == nil {
		return nil, fmt.Errorf("sign in: response carried no access token")
	}
	c.setSession(sess, backend.EventSignedIn)
	return sess, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*backend.Session, error) {
	var tr tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   []string{"auth", "v1", "signup"},
		body:   credentials{Email: email, Password: password},
		anon:   true,
	}, &tr)
	if err != nil {
		return nil, err
	}
	sess := tr.session(c.now())
	if sess == nil {
		// Email confirmation pending.
		return nil, nil
	}
	c.setSession(sess, backend.EventSignedIn)
	return sess, nil
}

// SignInWithOAuth returns the provider authorization URL. Nothing is sent
// until the user opens it.
func (c *Client) SignInWithOAuth(_ context.Context, provider, redirectTo string) (string, error) {
	if provider == "" {
		return "", fmt.Errorf("oauth: provider is required")
	}
	u := c.base.JoinPath("auth", "v1", "authorize")
	q := url.Values{"provider": {provider}}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) ExchangeRedirect(_ context.Context, fragment string) (*backend.Session, error) {
	sess, err := backend.ParseRedirect(fragment, c.now())
	if err != nil {
		return nil, err
	}
	c.setSession(sess, backend.EventSignedIn)
	return sess, nil
}

// SignOut revokes the session remotely and always forgets it locally.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	sess := c.current
	c.mu.Unlock()

	var err error
	if sess != nil {
		err = c.do(ctx, request{
			method: http.MethodPost,
			path:   []string{"auth", "v1", "logout"},
			token:  sess.AccessToken,
		}, nil)
		var be *backend.Error
		if errors.As(err, &be) && (be.Status == http.StatusUnauthorized || be.Status == http.StatusForbidden || be.Status == http.StatusNotFound) {
			// Already invalid upstream.
			err = nil
		}
	}
	c.setSession(nil, backend.EventSignedOut)
	return err
}

// setSession swaps the current session, persists it and notifies listeners.
func (c *Client) setSession(sess *backend.Session, kind backend.EventKind) {
	c.events.Emit(*c.storeSession(sess, kind))
}

// storeSession swaps the current session and persists it. It returns the
// event describing the change.
func (c *Client) storeSession(sess *backend.Session, kind backend.EventKind) *backend.Event {
	c.mu.Lock()
	c.current = sess
	c.loaded = true
	c.mu.Unlock()

	if err := c.sessions.Save(sess); err != nil {
		c.log.WithError(err).Warn("persist session")
	}
	return &backend.Event{Kind: kind, Session: sess}
}
