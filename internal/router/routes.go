package router

import (
	"strings"

	"github.com/abhisek/levelup/internal/session"
)

// Route is a normalized screen path.
type Route string

const (
	RouteLanding     Route = "/"
	RouteLogin       Route = "/login"
	RouteSignup      Route = "/signup"
	RouteDashboard   Route = "/dashboard"
	RouteIQTest      Route = "/iq-test"
	RouteLearning    Route = "/learning"
	RouteRoadmap     Route = "/roadmap"
	RoutePractice    Route = "/practice"
	RouteLeaderboard Route = "/leaderboard"
	RouteProfile     Route = "/profile"
)

// DefaultReturn is where a sign-in lands when no target was requested.
const DefaultReturn = RouteDashboard

var protected = map[Route]bool{
	RouteDashboard: true,
	RouteIQTest:    true,
	RouteLearning:  true,
	RouteRoadmap:   true,
	RoutePractice:  true,
	RouteProfile:   true,
}

var public = map[Route]bool{
	RouteLanding:     true,
	RouteLogin:       true,
	RouteSignup:      true,
	RouteLeaderboard: true,
}

// Lookup normalizes path and maps unknown paths to RouteLanding.
func Lookup(path string) Route {
	p := strings.TrimSpace(path)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	r := Route(strings.ToLower(p))
	if protected[r] || public[r] {
		return r
	}
	return RouteLanding
}

// Protected reports whether r needs a signed-in identity.
func (r Route) Protected() bool { return protected[r] }

// Decision is the outcome of guarding a navigation.
type Decision struct {
	// Route is the screen to show.
	Route Route
	// From is the requested route when the visitor was sent to login.
	From Route
	// Loading is set when Route is protected and the initial session
	// check has not settled; a loading view is shown instead.
	Loading bool
}

// Redirected reports whether the guard replaced the requested route.
func (d Decision) Redirected() bool { return d.From != "" }

// Resolve guards a navigation to path against st.
func Resolve(path string, st session.State) Decision {
	r := Lookup(path)
	switch {
	case !r.Protected():
		return Decision{Route: r}
	case st.Loading:
		return Decision{Route: r, Loading: true}
	case !st.SignedIn():
		return Decision{Route: RouteLogin, From: r}
	default:
		return Decision{Route: r}
	}
}

// ReturnTarget is where to go after signing in, given the route the
// visitor originally asked for.
func ReturnTarget(from Route) Route {
	if from == "" || (!from.Protected() && from != RouteLeaderboard) {
		return DefaultReturn
	}
	return from
}
