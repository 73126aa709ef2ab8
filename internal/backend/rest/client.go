// Package rest reaches the hosted backend over its HTTP APIs: a
// PostgREST-compatible table API under /rest/v1 and a GoTrue-compatible
// identity API under /auth/v1.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/levelup/internal/backend"
)

// Config configures a Client.
type Config struct {
	// URL is the project endpoint, e.g. https://xyz.example.co.
	URL string
	// Key is the public API key sent with every request.
	Key string

	// HTTPClient defaults to a client with Timeout.
	HTTPClient *http.Client
	// Timeout applies to the default HTTP client. Default: 15s.
	Timeout time.Duration

	// Sessions persists the session between runs. May be nil.
	Sessions *backend.SessionFile

	Logger logrus.FieldLogger
	Now    func() time.Time
}

// Client implements backend.Auth and, through Tables, backend.Store.
type Client struct {
	base     *url.URL
	key      string
	http     *http.Client
	sessions *backend.SessionFile
	log      logrus.FieldLogger
	now      func() time.Time
	events   backend.Broadcaster

	refreshMu sync.Mutex
	mu        sync.Mutex
	current   *backend.Session
	loaded    bool
}

var _ backend.Auth = (*Client)(nil)

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, fmt.Errorf("rest: URL and key are required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("rest: parse URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("rest: unsupported URL scheme %q", base.Scheme)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		base:     base,
		key:      cfg.Key,
		http:     hc,
		sessions: cfg.Sessions,
		log:      log.WithField("component", "rest"),
		now:      now,
	}, nil
}

// Backend returns the client as a backend.Client.
func (c *Client) Backend() *backend.Client {
	return &backend.Client{Auth: c, Store: &Tables{c: c}}
}

// request describes one HTTP call.
type request struct {
	method string
	path   []string
	query  url.Values
	body   any
	header http.Header
	// token overrides the bearer token; empty uses the session or the key.
	token string
	// anon sends the API key as the bearer even when signed in.
	anon bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	u := c.base.JoinPath(r.path...)
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	bearer, err := c.bearer(ctx, r)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, u.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// bearer picks the token for r. Session-authenticated calls refresh an
// expired access token first, the way GetSession does.
func (c *Client) bearer(ctx context.Context, r request) (string, error) {
	if r.token != "" {
		return r.token, nil
	}
	if r.anon {
		return c.key, nil
	}
	sess, ev, err := c.freshSession(ctx)
	if ev != nil {
		c.events.Emit(*ev)
	}
	if err != nil {
		return "", err
	}
	if sess != nil && sess.AccessToken != "" {
		return sess.AccessToken, nil
	}
	return c.key, nil
}

// errorBody covers both the table API and the identity API error shapes.
type errorBody struct {
	Error            string `json:"error"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Code             any    `json:"code"`
}

func decodeError(status int, data []byte) error {
	var eb errorBody
	_ = json.Unmarshal(data, &eb)

	e := &backend.Error{Status: status}
	for _, m := range []string{eb.ErrorDescription, eb.Msg, eb.Message, eb.Error} {
		if m != "" {
			e.Message = m
			break
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	switch {
	case eb.ErrorCode != "":
		e.Code = eb.ErrorCode
	case eb.Error != "":
		e.Code = eb.Error
	case eb.Code != nil:
		e.Code = fmt.Sprint(eb.Code)
	}
	return e
}
