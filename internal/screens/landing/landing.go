// Package landing is the public entry screen.
package landing

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/levelup/internal/router"
	"github.com/abhisek/levelup/internal/screen"
	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/ui/components"
	"github.com/abhisek/levelup/internal/ui/layout"
	"github.com/abhisek/levelup/internal/ui/theme"
)

type feature struct {
	title string
	desc  string
}

var features = []feature{
	{"IQ Assessment", "Take a short assessment to get a personalized learning level and content."},
	{"Learning Hub", "Curated videos and guides tailored to your level with progress tracking."},
	{"Structured Roadmap", "Follow a clear path with steps, resources, and completion tracking."},
	{"Coding Practice", "Solve problems, earn points, build streaks, and climb the leaderboard."},
}

// LandingScreen introduces the product and links to sign-in.
type LandingScreen struct {
	signedIn bool
	menu     components.Menu
}

var _ screen.Screen = (*LandingScreen)(nil)
var _ screen.Pather = (*LandingScreen)(nil)
var _ screen.StateObserver = (*LandingScreen)(nil)

// New creates the screen. A signed-in visitor is offered the dashboard
// instead of the sign-in links.
func New(signedIn bool) *LandingScreen {
	return &LandingScreen{signedIn: signedIn, menu: components.NewMenu(menuItems(signedIn))}
}

func menuItems(signedIn bool) []components.MenuItem {
	var items []components.MenuItem
	if signedIn {
		items = append(items, components.MenuItem{Label: "Dashboard", Action: nav(router.RouteDashboard)})
	} else {
		items = append(items,
			components.MenuItem{Label: "Get Started", Description: "create an account", Action: nav(router.RouteSignup)},
			components.MenuItem{Label: "Login", Action: nav(router.RouteLogin)},
		)
	}
	items = append(items,
		components.MenuItem{Label: "Leaderboard", Action: nav(router.RouteLeaderboard)},
		components.MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	)
	return items
}

func nav(r router.Route) func() tea.Cmd {
	return func() tea.Cmd { return router.Navigate(string(r)) }
}

func (s *LandingScreen) Init() tea.Cmd { return nil }

func (s *LandingScreen) Title() string { return "" }

func (s *LandingScreen) Path() string { return string(router.RouteLanding) }

// StateChanged swaps the menu when the visitor signs in or out.
func (s *LandingScreen) StateChanged(st session.State) tea.Cmd {
	if st.SignedIn() != s.signedIn {
		s.signedIn = st.SignedIn()
		s.menu = components.NewMenu(menuItems(s.signedIn))
	}
	return nil
}

func (s *LandingScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *LandingScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render("Learn smarter, not harder."))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(cw).Render(
		"Get a personalized level, follow a roadmap, practice coding, and track your progress."))
	b.WriteString("\n\n")

	var list strings.Builder
	for i, f := range features {
		if i > 0 {
			list.WriteString("\n")
		}
		list.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(f.title))
		list.WriteString("\n")
		list.WriteString(theme.Body.Width(cw - 6).Render(f.desc))
	}
	if !layout.IsCompactHeight(height) {
		b.WriteString(components.Card(list.String(), cw))
		b.WriteString("\n\n")
	}

	b.WriteString(s.menu.View())
	return components.Center(b.String(), width, height)
}
