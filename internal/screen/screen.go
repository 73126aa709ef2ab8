package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Pather is implemented by screens reachable through a route. The app
// re-runs the route guard against Path when auth state changes.
type Pather interface {
	Path() string
}

// Returner is implemented by the sign-in screens to name where a
// successful sign-in should land.
type Returner interface {
	ReturnTo() string
}

// EscapeHandler is implemented by screens that sometimes consume Esc
// themselves instead of letting the app go back.
type EscapeHandler interface {
	HandlesEscape() bool
}

// StateObserver is implemented by screens that render auth state captured
// when they were built. The app calls StateChanged on the active screen
// after every state change that leaves it in place.
type StateObserver interface {
	StateChanged(st session.State) tea.Cmd
}

// SignOutMsg asks the app to end the session and return to the landing
// screen.
type SignOutMsg struct{}

// SignOut is a command emitting SignOutMsg.
func SignOut() tea.Msg { return SignOutMsg{} }

// ResetMsg asks the app to discard the screen stack and start over.
type ResetMsg struct{}
