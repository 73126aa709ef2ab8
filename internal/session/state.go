// Package session keeps the signed-in identity and its profile in sync with
// the identity provider and the profiles table.
package session

import (
	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/store"
)

// State is the shared auth state every screen reads.
type State struct {
	// Identity is nil when signed out.
	Identity *backend.Identity
	// Profile is nil until fetched, and whenever Identity is nil.
	Profile *store.Profile
	// Loading is true until the initial session check settles.
	Loading bool
}

// Initial is the state before the first session check.
func Initial() State {
	return State{Loading: true}
}

// SignedIn reports whether an identity is present.
func (s State) SignedIn() bool { return s.Identity != nil }

// UserID returns the identity id, or "" when signed out.
func (s State) UserID() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.ID
}

// Action is a state transition. See Reduce.
type Action interface {
	isAction()
}

// SetIdentity replaces the identity. A different or nil identity drops the
// profile.
type SetIdentity struct {
	Identity *backend.Identity
}

// SetProfile stores a fetched profile for the identity ForID. It is ignored
// when ForID is no longer the current identity. A nil Profile records a
// failed fetch.
type SetProfile struct {
	ForID   string
	Profile *store.Profile
}

// Settle ends the initial loading phase.
type Settle struct{}

func (SetIdentity) isAction() {}
func (SetProfile) isAction()  {}
func (Settle) isAction()      {}

// Reduce applies a to s. It never sets Loading back to true and never keeps
// a profile without an identity.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetIdentity:
		if a.Identity == nil {
			s.Identity = nil
			s.Profile = nil
			return s
		}
		if s.Identity != nil && *s.Identity == *a.Identity {
			return s
		}
		if s.Identity == nil || s.Identity.ID != a.Identity.ID {
			s.Profile = nil
		}
		id := *a.Identity
		s.Identity = &id

	case SetProfile:
		if s.Identity == nil || s.Identity.ID != a.ForID {
			return s
		}
		if a.Profile != nil && a.Profile.ID != "" && a.Profile.ID != a.ForID {
			return s
		}
		s.Profile = a.Profile

	case Settle:
		s.Loading = false
	}
	return s
}
