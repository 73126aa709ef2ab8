package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/session"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		path string
		want Route
	}{
		{"/", RouteLanding},
		{"", RouteLanding},
		{"/login", RouteLogin},
		{"/signup", RouteSignup},
		{"/dashboard", RouteDashboard},
		{"/dashboard/", RouteDashboard},
		{"dashboard", RouteDashboard},
		{"/IQ-Test", RouteIQTest},
		{"/learning?tab=videos", RouteLearning},
		{"/roadmap#step-3", RouteRoadmap},
		{"/practice", RoutePractice},
		{"/leaderboard", RouteLeaderboard},
		{"/profile", RouteProfile},
		{"/admin", RouteLanding},
		{"/dashboard/extra", RouteLanding},
		{"///", RouteLanding},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Lookup(tt.path))
		})
	}
}

func TestProtected(t *testing.T) {
	for _, r := range []Route{RouteDashboard, RouteIQTest, RouteLearning, RouteRoadmap, RoutePractice, RouteProfile} {
		assert.True(t, r.Protected(), r)
	}
	for _, r := range []Route{RouteLanding, RouteLogin, RouteSignup, RouteLeaderboard} {
		assert.False(t, r.Protected(), r)
	}
}

func TestResolve(t *testing.T) {
	loading := session.Initial()
	anonymous := session.State{}
	signedIn := session.State{Identity: &backend.Identity{ID: "u1"}}

	tests := []struct {
		name  string
		path  string
		state session.State
		want  Decision
	}{
		{"public while loading", "/leaderboard", loading, Decision{Route: RouteLeaderboard}},
		{"protected while loading", "/practice", loading, Decision{Route: RoutePractice, Loading: true}},
		{"protected anonymous", "/practice", anonymous, Decision{Route: RouteLogin, From: RoutePractice}},
		{"protected signed in", "/practice", signedIn, Decision{Route: RoutePractice}},
		{"public anonymous", "/", anonymous, Decision{Route: RouteLanding}},
		{"leaderboard anonymous", "/leaderboard", anonymous, Decision{Route: RouteLeaderboard}},
		{"unknown anonymous", "/nowhere", anonymous, Decision{Route: RouteLanding}},
		{"login signed in", "/login", signedIn, Decision{Route: RouteLogin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.path, tt.state)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.From != "", got.Redirected())
		})
	}
}

func TestReturnTarget(t *testing.T) {
	tests := []struct {
		from Route
		want Route
	}{
		{"", RouteDashboard},
		{RoutePractice, RoutePractice},
		{RouteProfile, RouteProfile},
		{RouteLeaderboard, RouteLeaderboard},
		{RouteLogin, RouteDashboard},
		{RouteLanding, RouteDashboard},
	}
	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			assert.Equal(t, tt.want, ReturnTarget(tt.from))
		})
	}
}
