package backend

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoFragment is returned by ParseRedirect when the input carries no tokens.
var ErrNoFragment = errors.New("redirect carries no session")

// HasAuthFragment reports whether s (a URL, a "#..." fragment or a bare
// fragment) carries session tokens from an identity-provider redirect.
func HasAuthFragment(s string) bool {
	frag := fragmentOf(s)
	return strings.Contains(frag, "access_token") || strings.Contains(frag, "refresh_token")
}

// ParseRedirect builds a Session from an identity-provider redirect.
// The user is read from the access token claims; the signature is not
// verified here because the token is only ever sent back to its issuer.
func ParseRedirect(s string, now time.Time) (*Session, error) {
	if !HasAuthFragment(s) {
		return nil, ErrNoFragment
	}
	values, err := url.ParseQuery(fragmentOf(s))
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	if desc := values.Get("error_description"); desc != "" {
		return nil, &Error{Status: 400, Code: values.Get("error"), Message: desc}
	}

	sess := &Session{
		AccessToken:  values.Get("access_token"),
		RefreshToken: values.Get("refresh_token"),
		TokenType:    values.Get("token_type"),
	}
	if sess.AccessToken == "" {
		return nil, ErrNoFragment
	}

	claims, err := TokenClaims(sess.AccessToken)
	if err != nil {
		return nil, err
	}
	sess.User = Identity{ID: claims.Subject, Email: claims.Email}
	if sess.User.ID == "" {
		return nil, fmt.Errorf("access token has no subject")
	}

	switch {
	case values.Get("expires_at") != "":
		if sec, err := strconv.ParseInt(values.Get("expires_at"), 10, 64); err == nil {
			sess.ExpiresAt = time.Unix(sec, 0).UTC()
		}
	case values.Get("expires_in") != "":
		if sec, err := strconv.Atoi(values.Get("expires_in")); err == nil {
			sess.ExpiresAt = now.Add(time.Duration(sec) * time.Second).UTC()
		}
	case claims.ExpiresAt != nil:
		sess.ExpiresAt = claims.ExpiresAt.UTC()
	}
	return sess, nil
}

// Claims are the access token claims the client cares about.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenClaims decodes the claims of an access token without verifying it.
func TokenClaims(token string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("decode access token: %w", err)
	}
	return &claims, nil
}

func fragmentOf(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		return s[i+1:]
	}
	return s
}
