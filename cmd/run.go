package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/levelup/internal/app"
	"github.com/abhisek/levelup/internal/assessment"
	"github.com/abhisek/levelup/internal/practice"
	"github.com/abhisek/levelup/internal/progress"
	"github.com/abhisek/levelup/internal/session"
)

// runApp connects the backend, builds the services and launches the TUI.
func runApp(cmd *cobra.Command, startPath string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	redirect, _ := cmd.Flags().GetString("redirect")
	sync := session.New(e.client.Auth, e.store.Profiles, session.Options{
		RedirectFragment: redirect,
		RedirectDelay:    e.cfg.RedirectDelay,
		Logger:           e.log,
	})
	defer sync.Close()

	return app.Run(app.Services{
		Auth:         e.client.Auth,
		Session:      sync,
		Store:        e.store,
		Assessment:   assessment.NewService(e.store.Results, sync, e.log),
		Progress:     progress.NewService(e.store.Catalog, e.store.Progress, e.log),
		Practice:     practice.NewService(e.store.Catalog, e.store.Progress, sync, nil, e.log),
		CallbackAddr: e.cfg.CallbackAddr,
		StartPath:    startPath,
		Log:          e.log,
	})
}
