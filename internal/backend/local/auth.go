package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/levelup/internal/backend"
)

// MinPasswordLength matches the hosted identity provider's default.
const MinPasswordLength = 6

const issuer = "levelup-local"

var (
	errInvalidLogin = &backend.Error{Status: http.StatusBadRequest, Code: "invalid_grant", Message: "Invalid login credentials"}
	errUserExists   = &backend.Error{Status: http.StatusUnprocessableEntity, Code: "user_already_exists", Message: "User already registered"}
)

func (b *Backend) GetSession(ctx context.Context) (*backend.Session, error) {
	b.mu.Lock()
	if !b.loaded {
		saved, err := b.sessions.Load()
		if err != nil {
			b.log.WithError(err).Warn("discarding unreadable saved session")
		}
		b.current = saved
		b.loaded = true
	}
	sess := b.current
	b.mu.Unlock()

	if sess == nil {
		return nil, nil
	}
	if !sess.Expired(b.now()) {
		if _, err := b.verify(sess.AccessToken); err == nil {
			return sess, nil
		}
		// Signed with another secret, e.g. a different database.
		b.setSession(nil, backend.EventSignedOut)
		return nil, nil
	}

	refreshed, err := b.refresh(ctx, sess)
	if err != nil {
		b.log.WithError(err).Info("session refresh failed, signing out")
		b.setSession(nil, backend.EventSignedOut)
		return nil, nil
	}
	b.setSession(refreshed, backend.EventTokenRefreshed)
	return refreshed, nil
}

func (b *Backend) refresh(ctx context.Context, sess *backend.Session) (*backend.Session, error) {
	if sess.RefreshToken == "" {
		return nil, errors.New("no refresh token")
	}
	var next *backend.Session
	err := inTx(ctx, b.db, func(tx *sql.Tx) error {
		var id, email string
		err := tx.QueryRowContext(ctx, `SELECT u.id, u.email FROM refresh_tokens r JOIN users u ON u.id = r.user_id WHERE r.token = ?`,
			sess.RefreshToken).Scan(&id, &email)
		if errors.Is(err, sql.ErrNoRows) {
			return &backend.Error{Status: http.StatusBadRequest, Code: "invalid_grant", Message: "Invalid Refresh Token"}
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, sess.RefreshToken); err != nil {
			return err
		}
		next, err = b.issue(ctx, tx, backend.Identity{ID: id, Email: email})
		return err
	})
	return next, err
}

func (b *Backend) OnSessionChange(fn func(backend.Event)) backend.Subscription {
	return b.events.Subscribe(fn)
}

func (b *Backend) SignInWithPassword(ctx context.Context, email, password string) (*backend.Session, error) {
	email = strings.TrimSpace(email)

	var id, stored, hash string
	err := b.db.QueryRowContext(ctx, `SELECT id, email, password_hash FROM users WHERE email = ?`, email).Scan(&id, &stored, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errInvalidLogin
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, errInvalidLogin
	}

	var sess *backend.Session
	if err := inTx(ctx, b.db, func(tx *sql.Tx) error {
		var err error
		sess, err = b.issue(ctx, tx, backend.Identity{ID: id, Email: stored})
		return err
	}); err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	b.setSession(sess, backend.EventSignedIn)
	return sess, nil
}

// SignUp creates the account and its profile row, then signs in. There is
// no email confirmation step.
func (b *Backend) SignUp(ctx context.Context, email, password string) (*backend.Session, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &backend.Error{Status: http.StatusBadRequest, Code: "validation_failed", Message: "Unable to validate email address: invalid format"}
	}
	if len(password) < MinPasswordLength {
		return nil, &backend.Error{
			Status:  http.StatusUnprocessableEntity,
			Code:    "weak_password",
			Message: fmt.Sprintf("Password should be at least %d characters.", MinPasswordLength),
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id := uuid.NewString()
	now := b.now().UTC().Format(time.RFC3339)
	var sess *backend.Session
	err = inTx(ctx, b.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
			id, email, string(hash), now); err != nil {
			if errors.Is(classify(err), backend.ErrConflict) {
				return errUserExists
			}
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO profiles (id, created_at, updated_at) VALUES (?, ?, ?)`, id, now, now); err != nil {
			return err
		}
		sess, err = b.issue(ctx, tx, backend.Identity{ID: id, Email: email})
		return err
	})
	if err != nil {
		var be *backend.Error
		if errors.As(err, &be) {
			return nil, err
		}
		return nil, fmt.Errorf("sign up: %w", err)
	}

	b.log.WithField("user_id", id).Info("account created")
	b.setSession(sess, backend.EventSignedIn)
	return sess, nil
}

// SignInWithOAuth always fails: the local backend has no external providers.
func (b *Backend) SignInWithOAuth(_ context.Context, provider, _ string) (string, error) {
	return "", &backend.Error{
		Status:  http.StatusBadRequest,
		Code:    "validation_failed",
		Message: fmt.Sprintf("Unsupported provider: provider is not enabled (%s)", provider),
	}
}

func (b *Backend) ExchangeRedirect(_ context.Context, fragment string) (*backend.Session, error) {
	sess, err := backend.ParseRedirect(fragment, b.now())
	if err != nil {
		return nil, err
	}
	if _, err := b.verify(sess.AccessToken); err != nil {
		return nil, &backend.Error{Status: http.StatusUnauthorized, Code: "bad_jwt", Message: "invalid access token"}
	}
	b.setSession(sess, backend.EventSignedIn)
	return sess, nil
}

func (b *Backend) SignOut(ctx context.Context) error {
	b.mu.Lock()
	sess := b.current
	b.mu.Unlock()

	if sess != nil && sess.RefreshToken != "" {
		if _, err := b.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, sess.RefreshToken); err != nil {
			b.log.WithError(err).Warn("revoke refresh token")
		}
	}
	b.setSession(nil, backend.EventSignedOut)
	return nil
}

// issue signs a new access token and stores a new refresh token for id.
func (b *Backend) issue(ctx context.Context, tx *sql.Tx, id backend.Identity) (*backend.Session, error) {
	now := b.now().UTC().Truncate(time.Second)
	exp := now.Add(b.ttl)
	claims := backend.Claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	refresh := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `INSERT INTO refresh_tokens (token, user_id, created_at) VALUES (?, ?, ?)`,
		refresh, id.ID, now.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &backend.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresAt:    exp,
		User:         id,
	}, nil
}

// verify checks an access token issued by b against b's clock.
func (b *Backend) verify(token string) (*backend.Claims, error) {
	var claims backend.Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer), jwt.WithTimeFunc(b.now))
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

func (b *Backend) setSession(sess *backend.Session, kind backend.EventKind) {
	b.mu.Lock()
	b.current = sess
	b.loaded = true
	b.mu.Unlock()

	if err := b.sessions.Save(sess); err != nil {
		b.log.WithError(err).Warn("persist session")
	}
	b.log.WithFields(logrus.Fields{"event": kind}).Debug("session changed")
	b.events.Emit(backend.Event{Kind: kind, Session: sess})
}
