package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/backend/local"
	"github.com/abhisek/levelup/internal/backend/rest"
	"github.com/abhisek/levelup/internal/backend/stub"
	"github.com/abhisek/levelup/internal/config"
	"github.com/abhisek/levelup/internal/logging"
	"github.com/abhisek/levelup/internal/store"
)

// env is what every command needs: settings, a logger and a backend.
type env struct {
	cfg    config.Config
	log    *logrus.Logger
	client *backend.Client
	store  *store.Store

	closers []io.Closer
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

// resolveConfig loads settings from the persistent flags. --local wins over
// the configured local database.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(config.LoadOptions{File: file, EnvFile: envFile})
	if err != nil {
		return config.Config{}, err
	}
	if p, _ := cmd.Flags().GetString("local"); p != "" {
		cfg.LocalDB = p
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openEnv resolves settings, opens the log file and connects the backend
// the settings select.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, logFile, err := logging.New(logging.Options{Path: cfg.LogFile, Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	e := &env{cfg: cfg, log: log, closers: []io.Closer{logFile}}

	client, err := connect(cmd, cfg, log)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.client = client
	if client.Close != nil {
		e.closers = append(e.closers, closeFunc(client.Close))
	}
	e.store = store.New(client.Store, nil)
	log.WithField("mode", cfg.Mode()).Info("backend ready")
	return e, nil
}

func connect(cmd *cobra.Command, cfg config.Config, log logrus.FieldLogger) (*backend.Client, error) {
	sessions := &backend.SessionFile{Path: cfg.SessionFile}
	switch cfg.Mode() {
	case config.ModeLocal:
		b, err := local.Open(cmd.Context(), local.Options{Path: cfg.LocalDB, Sessions: sessions, Logger: log})
		if err != nil {
			return nil, fmt.Errorf("open local backend: %w", err)
		}
		return b.Backend(), nil
	case config.ModeRemote:
		c, err := rest.New(rest.Config{
			URL:      cfg.StoreURL,
			Key:      cfg.StoreKey,
			Timeout:  cfg.HTTPTimeout,
			Sessions: sessions,
			Logger:   log,
		})
		if err != nil {
			return nil, fmt.Errorf("connect backend: %w", err)
		}
		return c.Backend(), nil
	default:
		log.Warn("no backend configured; running with an empty store")
		return stub.New(), nil
	}
}

// Close releases the backend, then the log file.
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// requireBackend rejects actions that need a configured backend.
func (e *env) requireBackend() error {
	if e.cfg.Mode() == config.ModeUnconfigured {
		return fmt.Errorf("%w: set LEVELUP_STORE_URL and LEVELUP_STORE_KEY, or pass --local", backend.ErrNotConfigured)
	}
	return nil
}
