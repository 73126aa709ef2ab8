package app

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/levelup/internal/assessment"
	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/practice"
	"github.com/abhisek/levelup/internal/progress"
	"github.com/abhisek/levelup/internal/router"
	"github.com/abhisek/levelup/internal/screen"
	"github.com/abhisek/levelup/internal/screens/checklist"
	"github.com/abhisek/levelup/internal/screens/dashboard"
	"github.com/abhisek/levelup/internal/screens/failure"
	"github.com/abhisek/levelup/internal/screens/iqtest"
	"github.com/abhisek/levelup/internal/screens/landing"
	lbscreen "github.com/abhisek/levelup/internal/screens/leaderboard"
	"github.com/abhisek/levelup/internal/screens/loading"
	"github.com/abhisek/levelup/internal/screens/login"
	practicescreen "github.com/abhisek/levelup/internal/screens/practice"
	"github.com/abhisek/levelup/internal/screens/profile"
	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/store"
	"github.com/abhisek/levelup/internal/ui/layout"
)

// Services is everything the screens need.
type Services struct {
	Auth       backend.Auth
	Session    *session.Synchronizer
	Store      *store.Store
	Assessment *assessment.Service
	Progress   *progress.Service
	Practice   *practice.Service

	// CallbackAddr is where the OAuth redirect listener binds.
	CallbackAddr string
	// StartPath is the route shown first. Empty means "/".
	StartPath string
	Log       logrus.FieldLogger
}

type stateChangedMsg struct{}

type signedOutMsg struct {
	err error
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	svc        Services
	router     *router.Router
	width      int
	height     int
	signingOut bool
}

// New creates the root model showing svc.StartPath.
func New(svc Services) AppModel {
	if svc.Log == nil {
		svc.Log = logrus.StandardLogger()
	}
	m := AppModel{svc: svc}
	st := svc.Session.State()
	m.router = router.New(m.build(router.Resolve(svc.StartPath, st), st))
	return m
}

func (m AppModel) Init() tea.Cmd {
	sync := m.svc.Session
	start := func() tea.Msg {
		sync.Start(context.Background())
		return nil
	}
	return tea.Batch(m.router.Active().Init(), start, waitForChange(sync.Changes()))
}

// waitForChange blocks until the next state change. The channel closing
// ends the loop.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return stateChangedMsg{}
	}
}

func (m AppModel) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			m.svc.Log.WithField("panic", fmt.Sprint(r)).Error("screen update panicked")
			model, cmd = m, m.router.Reset(failure.New(r))
		}
	}()
	cmd = m.update(msg)
	return m, cmd
}

func (m *AppModel) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return tea.Quit
		case "esc":
			if h, ok := m.router.Active().(screen.EscapeHandler); ok && h.HandlesEscape() {
				break
			}
			if m.router.Depth() > 1 {
				m.router.Pop()
				return m.reevaluate()
			}
			return nil
		}

	case stateChangedMsg:
		return tea.Batch(m.reevaluate(), waitForChange(m.svc.Session.Changes()))

	case router.NavigateMsg:
		return m.show(msg.Path, msg.Replace)

	case screen.SignOutMsg:
		if m.signingOut {
			return nil
		}
		m.signingOut = true
		auth, sync := m.svc.Auth, m.svc.Session
		return func() tea.Msg {
			ctx := context.Background()
			err := auth.SignOut(ctx)
			// The provider may not emit SIGNED_OUT, so clear local state too.
			sync.ApplySession(ctx, nil)
			return signedOutMsg{err: err}
		}

	case signedOutMsg:
		m.signingOut = false
		if msg.err != nil {
			m.svc.Log.WithError(msg.err).Warn("sign out failed")
		}
		return m.router.Reset(landing.New(false))

	case screen.ResetMsg:
		return m.router.Reset(m.resolve(string(router.RouteLanding)))
	}

	return m.router.Update(msg)
}

// show resolves path through the guard and pushes or replaces the result.
func (m *AppModel) show(path string, replace bool) tea.Cmd {
	s := m.resolve(path)
	if replace {
		return m.router.Replace(s)
	}
	return m.router.Push(s)
}

func (m *AppModel) resolve(path string) screen.Screen {
	st := m.svc.Session.State()
	return m.build(router.Resolve(path, st), st)
}

// reevaluate runs the guard against the active screen after a state change.
func (m *AppModel) reevaluate() tea.Cmd {
	active := m.router.Active()
	p, ok := active.(screen.Pather)
	if !ok {
		return nil
	}
	st := m.svc.Session.State()
	route := router.Lookup(p.Path())

	if _, waiting := active.(*loading.LoadingScreen); waiting {
		if st.Loading {
			return nil
		}
		return m.router.Replace(m.build(router.Resolve(p.Path(), st), st))
	}

	if (route == router.RouteLogin || route == router.RouteSignup) && st.SignedIn() {
		target := string(router.DefaultReturn)
		if r, ok := active.(screen.Returner); ok {
			target = r.ReturnTo()
		}
		return m.show(target, true)
	}

	if route.Protected() && !st.Loading && !st.SignedIn() {
		if m.signingOut {
			return m.router.Reset(landing.New(false))
		}
		return m.show(p.Path(), true)
	}

	if o, ok := active.(screen.StateObserver); ok {
		return o.StateChanged(st)
	}
	return nil
}

func (m *AppModel) build(d router.Decision, st session.State) screen.Screen {
	if d.Loading {
		return loading.New(string(d.Route))
	}
	uid := st.UserID()
	switch d.Route {
	case router.RouteLogin, router.RouteSignup:
		mode := login.ModeSignIn
		if d.Route == router.RouteSignup {
			mode = login.ModeSignUp
		}
		return login.New(login.Deps{
			Auth:         m.svc.Auth,
			Session:      m.svc.Session,
			CallbackAddr: m.svc.CallbackAddr,
			Log:          m.svc.Log,
		}, mode, d.From)
	case router.RouteDashboard:
		return dashboard.New(st)
	case router.RouteIQTest:
		return iqtest.New(m.svc.Assessment, uid)
	case router.RouteLearning:
		return checklist.New(m.svc.Progress, store.LearningTrack, st.Profile.Level(), uid)
	case router.RouteRoadmap:
		return checklist.New(m.svc.Progress, store.RoadmapTrack, st.Profile.Level(), uid)
	case router.RoutePractice:
		return practicescreen.New(m.svc.Practice, m.svc.Session.State)
	case router.RouteLeaderboard:
		return lbscreen.New(m.svc.Store.Profiles, uid, m.svc.Log)
	case router.RouteProfile:
		return profile.New(m.svc.Session, m.svc.Store.Results, m.svc.Log)
	default:
		return landing.New(st.SignedIn())
	}
}

func (m AppModel) View() (v tea.View) {
	defer func() {
		if r := recover(); r != nil {
			m.svc.Log.WithField("panic", fmt.Sprint(r)).Error("screen view panicked")
			m.router.Reset(failure.New(r))
			v = m.render()
		}
	}()
	return m.render()
}

func (m AppModel) render() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	st := m.svc.Session.State()
	info := layout.HeaderInfo{Title: title}
	if st.Identity != nil {
		info.User = st.Profile.Name()
		if info.User == "" {
			info.User = st.Identity.Email
		}
		prog := st.Profile.Progress()
		info.Points = prog.Points
		info.Streak = prog.CurrentStreak
	}
	header := layout.RenderHeader(info, m.width)

	footer := layout.RenderFooter(m.footerHints(active), m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	if p, ok := active.(screen.KeyHintProvider); ok {
		return append(p.KeyHints(), layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(svc Services) error {
	p := tea.NewProgram(New(svc))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
