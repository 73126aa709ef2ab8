// Package oauth captures identity-provider redirects on a loopback HTTP
// listener so a terminal client can complete browser sign-in.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/levelup/internal/backend"
)

// DefaultAddr binds an ephemeral loopback port.
const DefaultAddr = "127.0.0.1:0"

// CallbackPath is the redirect target registered with the provider.
const CallbackPath = "/callback"

// ErrClosed is returned by Wait after Close.
var ErrClosed = errors.New("oauth listener closed")

// The fragment never reaches the server, so the page posts it back.
const callbackPage = `<!doctype html>
<html><head><meta charset="utf-8"><title>levelup sign-in</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4em">
<p id="msg">Completing sign-in&hellip;</p>
<script>
var frag = window.location.hash.replace(/^#/, "") || window.location.search.replace(/^\?/, "");
fetch("` + CallbackPath + `/fragment", {method: "POST", headers: {"Content-Type": "text/plain"}, body: frag})
  .then(function (r) {
    document.getElementById("msg").textContent = r.ok
      ? "Signed in. You can return to the terminal."
      : "Sign-in failed. Return to the terminal and try again.";
  });
</script>
</body></html>
`

// Listener serves the callback page and hands captured fragments to Wait.
type Listener struct {
	ln        net.Listener
	srv       *http.Server
	fragments chan string
	done      chan struct{}
	log       logrus.FieldLogger

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Listen starts a Listener on addr (DefaultAddr when empty).
func Listen(addr string, log logrus.FieldLogger) (*Listener, error) {
	if addr == "" {
		addr = DefaultAddr
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("oauth listen: %w", err)
	}

	l := &Listener{
		ln:        ln,
		fragments: make(chan string, 1),
		done:      make(chan struct{}),
		log:       log.WithField("component", "oauth"),
	}
	l.srv = &http.Server{
		Handler:           l.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.log.WithError(err).Warn("callback server stopped")
		}
	}()
	return l, nil
}

func (l *Listener) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(CallbackPath, l.serveCallback).Methods(http.MethodGet)
	r.HandleFunc(CallbackPath+"/fragment", l.receiveFragment).Methods(http.MethodPost)
	return r
}

func (l *Listener) serveCallback(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.WriteString(w, callbackPage)
}

func (l *Listener) receiveFragment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 16<<10))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}
	frag := strings.TrimPrefix(strings.TrimSpace(string(body)), "#")
	if !backend.HasAuthFragment(frag) && !hasError(frag) {
		http.Error(w, "no session in redirect", http.StatusBadRequest)
		return
	}

	select {
	case l.fragments <- frag:
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "sign-in already received", http.StatusConflict)
	}
}

func hasError(frag string) bool {
	v, err := url.ParseQuery(frag)
	return err == nil && v.Get("error_description") != ""
}

// RedirectURL is the URL to pass to the provider as redirect_to.
func (l *Listener) RedirectURL() string {
	return "http://" + l.ln.Addr().String() + CallbackPath
}

// Wait blocks until a fragment arrives, ctx ends or the listener closes.
func (l *Listener) Wait(ctx context.Context) (string, error) {
	select {
	case frag := <-l.fragments:
		return frag, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-l.done:
		return "", ErrClosed
	}
}

// Close stops the server and waits for it to exit.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err = l.srv.Shutdown(ctx)
		l.wg.Wait()
	})
	return err
}
