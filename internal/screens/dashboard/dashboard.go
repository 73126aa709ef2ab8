// Package dashboard is the signed-in home screen.
package dashboard

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/levelup/internal/router"
	"github.com/abhisek/levelup/internal/screen"
	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/ui/components"
	"github.com/abhisek/levelup/internal/ui/theme"
)

type card struct {
	route router.Route
	label string
	desc  string
}

var cards = []card{
	{router.RouteIQTest, "IQ Test", "Assess your level"},
	{router.RouteLearning, "Learning Hub", "Videos & guides"},
	{router.RouteRoadmap, "Roadmap", "Your learning path"},
	{router.RoutePractice, "Coding Practice", "Problems & points"},
	{router.RouteProfile, "Profile", "Settings & stats"},
	{router.RouteLeaderboard, "Leaderboard", "Rankings"},
}

// DashboardScreen welcomes the learner and links to every section.
type DashboardScreen struct {
	greeting string
	level    string
	menu     components.Menu
}

var _ screen.Screen = (*DashboardScreen)(nil)
var _ screen.Pather = (*DashboardScreen)(nil)
var _ screen.StateObserver = (*DashboardScreen)(nil)

// New creates the screen from the current auth state.
func New(st session.State) *DashboardScreen {
	items := make([]components.MenuItem, 0, len(cards)+1)
	for _, c := range cards {
		r := c.route
		items = append(items, components.MenuItem{
			Label:       c.label,
			Description: c.desc,
			Action:      func() tea.Cmd { return router.Navigate(string(r)) },
		})
	}
	items = append(items, components.MenuItem{
		Label:  "Logout",
		Action: func() tea.Cmd { return screen.SignOut },
	})

	s := &DashboardScreen{menu: components.NewMenu(items)}
	s.StateChanged(st)
	return s
}

// StateChanged refreshes the greeting and level once the profile arrives.
func (s *DashboardScreen) StateChanged(st session.State) tea.Cmd {
	s.greeting = "Welcome back"
	if name := strings.TrimSpace(st.Profile.Name()); name != "" {
		s.greeting += ", " + name
	}
	s.level = string(st.Profile.Level())
	return nil
}

func (s *DashboardScreen) Init() tea.Cmd { return nil }

func (s *DashboardScreen) Title() string { return "Dashboard" }

func (s *DashboardScreen) Path() string { return string(router.RouteDashboard) }

func (s *DashboardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *DashboardScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render(s.greeting))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(cw).Render(fmt.Sprintf("Your current level: %s", s.level)))
	b.WriteString("\n\n")
	b.WriteString(components.Card(s.menu.View(), cw))
	return components.Center(b.String(), width, height)
}
