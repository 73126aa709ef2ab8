// Package loading shows a spinner while the initial session check runs.
package loading

import (
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/levelup/internal/screen"
	"github.com/abhisek/levelup/internal/ui/components"
	"github.com/abhisek/levelup/internal/ui/theme"
)

// LoadingScreen stands in for a protected route until auth state settles.
// The app replaces it by resolving Path again.
type LoadingScreen struct {
	path    string
	spinner spinner.Model
}

var _ screen.Screen = (*LoadingScreen)(nil)
var _ screen.Pather = (*LoadingScreen)(nil)

// New creates a loading screen holding the requested path.
func New(path string) *LoadingScreen {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Primary)
	return &LoadingScreen{path: path, spinner: sp}
}

func (s *LoadingScreen) Init() tea.Cmd { return s.spinner.Tick }

func (s *LoadingScreen) Title() string { return "" }

// Path is the route waiting on the session check.
func (s *LoadingScreen) Path() string { return s.path }

func (s *LoadingScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

func (s *LoadingScreen) View(width, height int) string {
	return components.Center(s.spinner.View()+" "+theme.Hint.Render("Checking your session..."), width, height)
}
