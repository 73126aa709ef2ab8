package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/store"
)

// DefaultRedirectDelay is how long to wait before re-checking the session
// after starting from a provider redirect.
const DefaultRedirectDelay = 300 * time.Millisecond

// ErrNoIdentity is returned by operations that need a signed-in user.
var ErrNoIdentity = errors.New("not signed in")

// ProfileStore reads and writes profiles. store.ProfileRepo satisfies it.
type ProfileStore interface {
	Get(ctx context.Context, id string) (*store.Profile, error)
	Update(ctx context.Context, id string, patch store.ProfilePatch) (*store.Profile, error)
}

// Options configures a Synchronizer.
type Options struct {
	// RedirectFragment is the provider redirect the process was started
	// with, if any.
	RedirectFragment string
	// RedirectDelay defaults to DefaultRedirectDelay.
	RedirectDelay time.Duration
	Logger        logrus.FieldLogger
}

// Synchronizer owns State. Provider events, the bootstrap check and manual
// injections all funnel through Reduce.
type Synchronizer struct {
	auth     backend.Auth
	profiles ProfileStore
	opts     Options
	log      logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	state   State
	closed  bool
	started bool
	changes chan struct{}
	sub     backend.Subscription
	timer   *time.Timer
}

// New returns a Synchronizer in the initial loading state. Call Start.
func New(auth backend.Auth, profiles ProfileStore, opts Options) *Synchronizer {
	if opts.RedirectDelay <= 0 {
		opts.RedirectDelay = DefaultRedirectDelay
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Synchronizer{
		auth:     auth,
		profiles: profiles,
		opts:     opts,
		log:      log.WithField("component", "session"),
		ctx:      ctx,
		cancel:   cancel,
		state:    Initial(),
		changes:  make(chan struct{}, 1),
	}
}

// Start subscribes to provider events and performs the initial session
// check. When started from a redirect it first hands the fragment to the
// provider, and Loading stays true until the delayed re-check runs.
func (s *Synchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	sub := s.auth.OnSessionChange(s.onEvent)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	s.sub = sub
	s.mu.Unlock()

	redirect := backend.HasAuthFragment(s.opts.RedirectFragment)
	if redirect {
		// Success arrives as a SIGNED_IN event.
		if _, err := s.auth.ExchangeRedirect(ctx, s.opts.RedirectFragment); err != nil {
			s.log.WithError(err).Warn("redirect sign-in failed")
		}
	}

	sess, err := s.auth.GetSession(ctx)
	if err != nil {
		s.log.WithError(err).Warn("initial session check failed")
		sess = nil
	}
	id := identityOf(sess)
	s.apply(SetIdentity{Identity: id})

	if redirect {
		s.scheduleRecheck()
	} else {
		s.apply(Settle{})
	}

	if id != nil {
		s.fetchProfile(ctx, id.ID)
	}
}

func (s *Synchronizer) scheduleRecheck() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.wg.Add(1)
	s.timer = time.AfterFunc(s.opts.RedirectDelay, func() {
		defer s.wg.Done()
		sess, err := s.auth.GetSession(s.ctx)
		if err != nil {
			s.log.WithError(err).Warn("redirect session check failed")
		}
		if id := identityOf(sess); err == nil && id != nil {
			s.apply(SetIdentity{Identity: id})
			s.apply(Settle{})
			s.fetchProfile(s.ctx, id.ID)
			return
		}
		s.apply(Settle{})
	})
}

func (s *Synchronizer) onEvent(ev backend.Event) {
	id := identityOf(ev.Session)
	s.log.WithField("event", ev.Kind).Debug("session event")
	s.apply(SetIdentity{Identity: id})
	if id != nil {
		s.fetchProfile(s.ctx, id.ID)
	}
}

// ApplySession injects a session obtained by an explicit sign-in and
// fetches its profile immediately. A nil session signs out locally.
func (s *Synchronizer) ApplySession(ctx context.Context, sess *backend.Session) {
	id := identityOf(sess)
	s.apply(SetIdentity{Identity: id})
	if id != nil {
		s.fetchProfile(ctx, id.ID)
	}
}

// RefreshProfile re-reads the profile of the current identity.
func (s *Synchronizer) RefreshProfile(ctx context.Context) {
	if id := s.State().UserID(); id != "" {
		s.fetchProfile(ctx, id)
	}
}

// UpdateProfile writes patch to the current user's profile. On success the
// stored row replaces the in-memory profile; on failure state is untouched.
func (s *Synchronizer) UpdateProfile(ctx context.Context, patch store.ProfilePatch) (*store.Profile, error) {
	id := s.State().UserID()
	if id == "" {
		return nil, ErrNoIdentity
	}
	p, err := s.profiles.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.apply(SetProfile{ForID: id, Profile: p})
	return p, nil
}

// fetchProfile never fails: errors are logged and leave a nil profile.
func (s *Synchronizer) fetchProfile(ctx context.Context, id string) {
	p, err := s.profiles.Get(ctx, id)
	if err != nil {
		entry := s.log.WithError(err).WithField("user_id", id)
		if errors.Is(err, backend.ErrNotFound) {
			entry.Info("no profile row")
		} else {
			entry.Warn("profile fetch failed")
		}
		p = nil
	}
	s.apply(SetProfile{ForID: id, Profile: p})
}

// State returns a snapshot of the current state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Changes receives a value after one or more state changes. Changes are
// coalesced; read State for the latest value. It is closed by Close.
func (s *Synchronizer) Changes() <-chan struct{} {
	return s.changes
}

func (s *Synchronizer) apply(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	next := Reduce(s.state, a)
	if next == s.state {
		return
	}
	s.state = next
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Close unsubscribes, cancels the pending redirect re-check and waits for
// background work. No change is published afterwards.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.changes)
	sub, timer := s.sub, s.timer
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	if timer != nil && timer.Stop() {
		s.wg.Done()
	}
	s.cancel()
	s.wg.Wait()
}

func identityOf(sess *backend.Session) *backend.Identity {
	if sess == nil || sess.User.ID == "" {
		return nil
	}
	id := sess.User
	return &id
}
