package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/levelup/internal/backend"
)

// ProviderGoogle is the only provider the client offers.
const ProviderGoogle = "google"

// Pending is a browser sign-in waiting for its redirect.
type Pending struct {
	// URL is where the user authorizes.
	URL string

	auth backend.Auth
	l    *Listener
}

// Begin starts a callback listener on addr and asks auth for the
// provider's authorization URL.
func Begin(ctx context.Context, auth backend.Auth, provider, addr string, log logrus.FieldLogger) (*Pending, error) {
	l, err := Listen(addr, log)
	if err != nil {
		return nil, err
	}
	u, err := auth.SignInWithOAuth(ctx, provider, l.RedirectURL())
	if err != nil {
		_ = l.Close()
		return nil, err
	}
	return &Pending{URL: u, auth: auth, l: l}, nil
}

// Finish waits for the redirect and exchanges it for a session. The
// listener is closed on return.
func (p *Pending) Finish(ctx context.Context) (*backend.Session, error) {
	defer p.l.Close()
	frag, err := p.l.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if v, perr := url.ParseQuery(frag); perr == nil && v.Get("error_description") != "" {
		return nil, &backend.Error{Status: http.StatusBadRequest, Code: v.Get("error"), Message: v.Get("error_description")}
	}
	sess, err := p.auth.ExchangeRedirect(ctx, frag)
	if err != nil {
		return nil, fmt.Errorf("complete sign-in: %w", err)
	}
	return sess, nil
}

// Cancel abandons the sign-in.
func (p *Pending) Cancel() {
	_ = p.l.Close()
}
