// Package login is the sign-in and sign-up screen.
package login

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/oauth"
	"github.com/abhisek/levelup/internal/router"
	"github.com/abhisek/levelup/internal/screen"
	"github.com/abhisek/levelup/internal/ui/components"
	"github.com/abhisek/levelup/internal/ui/layout"
	"github.com/abhisek/levelup/internal/ui/theme"
)

// OAuthTimeout bounds how long the screen waits for the browser.
const OAuthTimeout = 5 * time.Minute

// Mode selects between signing in and creating an account.
type Mode int

const (
	ModeSignIn Mode = iota
	ModeSignUp
)

// Applier injects a session obtained here. *session.Synchronizer
// satisfies it.
type Applier interface {
	ApplySession(ctx context.Context, sess *backend.Session)
}

// Deps are the collaborators of the screen.
type Deps struct {
	Auth         backend.Auth
	Session      Applier
	CallbackAddr string
	Log          logrus.FieldLogger
}

type authDoneMsg struct {
	mode Mode
	sess *backend.Session
	err  error
}

type oauthStartedMsg struct {
	pending *oauth.Pending
	err     error
}

type oauthDoneMsg struct {
	sess *backend.Session
	err  error
}

const (
	fieldEmail = iota
	fieldPassword
	fieldCount
)

// LoginScreen collects credentials and signs the user in.
type LoginScreen struct {
	deps   Deps
	mode   Mode
	from   router.Route
	fields [fieldCount]components.TextInput
	focus  int

	busy    bool
	errMsg  string
	notice  string
	pending *oauth.Pending
	cancel  context.CancelFunc
}

var _ screen.Screen = (*LoginScreen)(nil)
var _ screen.KeyHintProvider = (*LoginScreen)(nil)
var _ screen.Pather = (*LoginScreen)(nil)
var _ screen.Returner = (*LoginScreen)(nil)
var _ screen.EscapeHandler = (*LoginScreen)(nil)

// New creates the screen. from is the route the visitor asked for before
// being sent here; it may be empty.
func New(deps Deps, mode Mode, from router.Route) *LoginScreen {
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	deps.Log = deps.Log.WithField("component", "login")
	s := &LoginScreen{deps: deps, mode: mode, from: from}
	s.fields[fieldEmail] = components.NewTextInput("Email", "you@example.com", 254)
	s.fields[fieldPassword] = components.NewPasswordInput("Password")
	return s
}

func (s *LoginScreen) Init() tea.Cmd {
	return s.fields[s.focus].Focus()
}

func (s *LoginScreen) Title() string {
	if s.mode == ModeSignUp {
		return "Sign Up"
	}
	return "Login"
}

func (s *LoginScreen) Path() string {
	if s.mode == ModeSignUp {
		return string(router.RouteSignup)
	}
	return string(router.RouteLogin)
}

// ReturnTo is where a successful sign-in lands.
func (s *LoginScreen) ReturnTo() string {
	return string(router.ReturnTarget(s.from))
}

// HandlesEscape is true while waiting for the browser, so Esc cancels
// the Google sign-in instead of leaving the screen.
func (s *LoginScreen) HandlesEscape() bool {
	return s.pending != nil
}

func (s *LoginScreen) KeyHints() []layout.KeyHint {
	if s.pending != nil {
		return []layout.KeyHint{{Key: "Esc", Description: "Cancel Google sign-in"}}
	}
	other := "Sign up instead"
	if s.mode == ModeSignUp {
		other = "Login instead"
	}
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Ctrl+G", Description: "Google"},
		{Key: "Ctrl+N", Description: other},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *LoginScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case authDoneMsg:
		s.busy = false
		switch {
		case msg.err != nil:
			s.errMsg = backend.Message(msg.err)
		case msg.sess == nil:
			// Account created, confirmation pending.
			s.notice = "Check your email to confirm your account, then log in."
			s.mode = ModeSignIn
			s.fields[fieldPassword].SetValue("")
		default:
			s.notice = "Signed in."
		}
		return s, nil

	case oauthStartedMsg:
		if msg.err != nil {
			s.busy = false
			s.errMsg = friendlyOAuthError(msg.err)
			return s, nil
		}
		s.pending = msg.pending
		return s, s.finishOAuth()

	case oauthDoneMsg:
		s.busy = false
		s.pending = nil
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		switch {
		case errors.Is(msg.err, context.Canceled):
		case msg.err != nil:
			s.errMsg = friendlyOAuthError(msg.err)
		default:
			s.notice = "Signed in."
		}
		return s, nil

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.fields[s.focus], cmd = s.fields[s.focus].Update(msg)
	return s, cmd
}

func (s *LoginScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	if s.pending != nil {
		if msg.String() == "esc" {
			s.abortOAuth()
		}
		return s, nil
	}

	switch msg.String() {
	case "tab", "down":
		return s, s.moveFocus(1)
	case "shift+tab", "up":
		return s, s.moveFocus(-1)
	case "ctrl+n":
		if s.mode == ModeSignIn {
			s.mode = ModeSignUp
		} else {
			s.mode = ModeSignIn
		}
		s.errMsg, s.notice = "", ""
		return s, nil
	case "ctrl+g":
		if s.busy {
			return s, nil
		}
		s.errMsg, s.notice = "", ""
		s.busy = true
		return s, s.startOAuth()
	case "enter":
		if s.focus == fieldEmail {
			return s, s.moveFocus(1)
		}
		return s, s.submit()
	}

	var cmd tea.Cmd
	s.fields[s.focus], cmd = s.fields[s.focus].Update(msg)
	return s, cmd
}

func (s *LoginScreen) moveFocus(delta int) tea.Cmd {
	s.fields[s.focus].Blur()
	s.focus = (s.focus + delta + fieldCount) % fieldCount
	return s.fields[s.focus].Focus()
}

func (s *LoginScreen) submit() tea.Cmd {
	if s.busy {
		return nil
	}
	email := strings.TrimSpace(s.fields[fieldEmail].Value())
	password := s.fields[fieldPassword].Value()
	s.errMsg, s.notice = "", ""
	if email == "" || password == "" {
		s.errMsg = "Email and password are required."
		return nil
	}

	s.busy = true
	mode := s.mode
	auth, applier := s.deps.Auth, s.deps.Session
	return func() tea.Msg {
		ctx := context.Background()
		var (
			sess *backend.Session
			err  error
		)
		if mode == ModeSignUp {
			sess, err = auth.SignUp(ctx, email, password)
		} else {
			sess, err = auth.SignInWithPassword(ctx, email, password)
		}
		if err == nil && sess != nil && applier != nil {
			applier.ApplySession(ctx, sess)
		}
		return authDoneMsg{mode: mode, sess: sess, err: err}
	}
}

func (s *LoginScreen) startOAuth() tea.Cmd {
	auth, addr, log := s.deps.Auth, s.deps.CallbackAddr, s.deps.Log
	return func() tea.Msg {
		p, err := oauth.Begin(context.Background(), auth, oauth.ProviderGoogle, addr, log)
		return oauthStartedMsg{pending: p, err: err}
	}
}

func (s *LoginScreen) finishOAuth() tea.Cmd {
	ctx, cancel := context.WithTimeout(context.Background(), OAuthTimeout)
	s.cancel = cancel
	p, applier := s.pending, s.deps.Session
	return func() tea.Msg {
		sess, err := p.Finish(ctx)
		if err == nil && applier != nil {
			applier.ApplySession(ctx, sess)
		}
		return oauthDoneMsg{sess: sess, err: err}
	}
}

func (s *LoginScreen) abortOAuth() {
	if s.cancel != nil {
		s.cancel()
	}
}

// friendlyOAuthError turns a disabled-provider failure into guidance.
func friendlyOAuthError(err error) string {
	msg := backend.Message(err)
	if strings.Contains(msg, "provider is not enabled") || strings.Contains(msg, "Unsupported provider") {
		return "Google login is not enabled yet. Please use email and password above, or enable the Google provider for this project."
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Timed out waiting for the browser. Try again."
	}
	return msg
}

func (s *LoginScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	if cw > 56 {
		cw = 56
	}

	title, subtitle, action := "Login to LevelUp", "Welcome back", "Login"
	if s.mode == ModeSignUp {
		title, subtitle, action = "Create your account", "Start leveling up today", "Sign Up"
	}
	if s.busy && s.pending == nil {
		action = "Working..."
	}

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw - 6).Render(title))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(cw - 6).Render(subtitle))
	b.WriteString("\n\n")

	if s.errMsg != "" {
		b.WriteString(components.Banner(s.errMsg, theme.ErrorText, cw-6))
		b.WriteString("\n\n")
	}
	if s.notice != "" {
		b.WriteString(components.Banner(s.notice, theme.Notice, cw-6))
		b.WriteString("\n\n")
	}

	if s.pending != nil {
		b.WriteString(theme.Body.Render("Open this link in your browser to continue with Google:"))
		b.WriteString("\n\n")
		b.WriteString(theme.Link.Width(cw - 6).Render(s.pending.URL))
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Render("Waiting for the browser... Esc to cancel"))
		return components.Center(components.Card(b.String(), cw), width, height)
	}

	for i := range s.fields {
		b.WriteString(s.fields[i].View())
		b.WriteString("\n\n")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Background(theme.Primary).Bold(true).Padding(0, 2).Render(action))
	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Render("Or continue with Google (Ctrl+G)"))
	b.WriteString("\n")
	if s.mode == ModeSignIn {
		b.WriteString(theme.Hint.Render("Don't have an account? Ctrl+N to sign up"))
	} else {
		b.WriteString(theme.Hint.Render("Already have an account? Ctrl+N to log in"))
	}

	return components.Center(components.Card(b.String(), cw), width, height)
}
