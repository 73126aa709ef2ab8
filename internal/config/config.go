// Package config resolves client settings from defaults, an optional YAML
// file, a dotenv file and LEVELUP_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the client reads.
const EnvPrefix = "LEVELUP_"

// DefaultEnvFile is read from the working directory when present.
const DefaultEnvFile = ".env"

const (
	DefaultRedirectDelay = 300 * time.Millisecond
	DefaultHTTPTimeout   = 15 * time.Second
	DefaultCallbackAddr  = "127.0.0.1:0"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

// Mode is the backend the configuration selects.
type Mode string

const (
	ModeRemote       Mode = "remote"
	ModeLocal        Mode = "local"
	ModeUnconfigured Mode = "unconfigured"
)

// Config holds the resolved settings.
type Config struct {
	StoreURL      string        `yaml:"store_url"`
	StoreKey      string        `yaml:"store_key"`
	LocalDB       string        `yaml:"local_db"`
	SessionFile   string        `yaml:"session_file"`
	LogFile       string        `yaml:"log_file"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"`
	RedirectDelay time.Duration `yaml:"redirect_delay"`
	CallbackAddr  string        `yaml:"callback_addr"`
	HTTPTimeout   time.Duration `yaml:"http_timeout"`
}

// Default returns the settings used when nothing overrides them. Paths
// follow the XDG base directory layout.
func Default() Config {
	return Config{
		SessionFile:   filepath.Join(dataHome(), "levelup", "session.json"),
		LogFile:       filepath.Join(stateHome(), "levelup", "levelup.log"),
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		RedirectDelay: DefaultRedirectDelay,
		CallbackAddr:  DefaultCallbackAddr,
		HTTPTimeout:   DefaultHTTPTimeout,
	}
}

// DefaultLocalDBPath is where `levelup seed` and `--local` without a value
// keep the embedded database.
func DefaultLocalDBPath() string {
	return filepath.Join(dataHome(), "levelup", "levelup.db")
}

// LoadOptions names the sources Load reads.
type LoadOptions struct {
	// File is an optional YAML file. A missing File is an error.
	File string
	// EnvFile is a dotenv file; DefaultEnvFile when empty. A missing
	// EnvFile is ignored.
	EnvFile string
	// Lookup reads the process environment; os.LookupEnv when nil.
	Lookup func(string) (string, bool)
}

// Load resolves a Config. Process environment variables win over values
// from the dotenv file.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if opts.File != "" {
		b, err := os.ReadFile(opts.File)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", opts.File, err)
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read env file %s: %w", envFile, err)
	}

	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(name string) (string, bool) {
		key := EnvPrefix + name
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	str := func(name string, dst *string) {
		if v, ok := get(name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	str("STORE_URL", &cfg.StoreURL)
	str("STORE_KEY", &cfg.StoreKey)
	str("LOCAL_DB", &cfg.LocalDB)
	str("SESSION_FILE", &cfg.SessionFile)
	str("LOG_FILE", &cfg.LogFile)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("CALLBACK_ADDR", &cfg.CallbackAddr)

	dur := func(name string, dst *time.Duration) error {
		v, ok := get(name)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}
	if err := dur("REDIRECT_DELAY", &cfg.RedirectDelay); err != nil {
		return Config{}, err
	}
	if err := dur("HTTP_TIMEOUT", &cfg.HTTPTimeout); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Mode reports the backend to use. An explicit local database wins over
// remote settings; remote needs both the URL and the key.
func (c Config) Mode() Mode {
	switch {
	case c.LocalDB != "":
		return ModeLocal
	case c.StoreURL != "" && c.StoreKey != "":
		return ModeRemote
	default:
		return ModeUnconfigured
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.StoreURL != "" {
		u, err := url.Parse(c.StoreURL)
		if err != nil {
			return fmt.Errorf("store url: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("store url %q: must be an http(s) URL", c.StoreURL)
		}
	}
	if c.RedirectDelay < 0 {
		return fmt.Errorf("redirect delay must not be negative, got %s", c.RedirectDelay)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http timeout must not be negative, got %s", c.HTTPTimeout)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q: want text or json", c.LogFormat)
	}
	return nil
}

func dataHome() string {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

func stateHome() string {
	return xdgDir("XDG_STATE_HOME", ".local", "state")
}

func xdgDir(env string, fallback ...string) string {
	if d := os.Getenv(env); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}
