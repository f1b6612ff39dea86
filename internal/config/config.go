package config

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// ErrConfigMissing is returned when a required variable is absent or a
// variable cannot be parsed.
var ErrConfigMissing = errors.New("missing or invalid configuration")

const (
	DefaultMaxActivities = 5
	DefaultMaxLength     = 63
	// DefaultMaxPage covers the 300 events the feed keeps for the last 30 days.
	DefaultMaxPage     = 3
	DefaultHTTPTimeout = 30 * time.Second
)

type Config struct {
	GistID        string
	GistFilename  string
	Username      string
	Token         string
	MaxActivities int
	MaxLength     int
	MaxPage       int
	HTTPTimeout   time.Duration
	LogLevel      slog.Level
}

// Load reads the configuration from getenv, usually os.Getenv.
func Load(getenv func(string) string) (Config, error) {
	cfg := Config{
		GistFilename: strings.TrimSpace(getenv("GIST_FILENAME")),
	}

	var err error
	if cfg.GistID, err = required(getenv, "GIST_ID"); err != nil {
		return Config{}, err
	}
	if cfg.Username, err = required(getenv, "GH_USERNAME"); err != nil {
		return Config{}, err
	}
	if cfg.Token, err = required(getenv, "GH_PAT"); err != nil {
		return Config{}, err
	}

	if cfg.MaxActivities, err = intVar(getenv, "MAX_ACTIVITIES", DefaultMaxActivities, 1, 0); err != nil {
		return Config{}, err
	}
	if cfg.MaxLength, err = intVar(getenv, "MAX_LENGTH", DefaultMaxLength, 3, 0); err != nil {
		return Config{}, err
	}
	if cfg.MaxPage, err = intVar(getenv, "MAX_PAGE", DefaultMaxPage, 1, DefaultMaxPage); err != nil {
		return Config{}, err
	}

	cfg.HTTPTimeout = DefaultHTTPTimeout
	if v := strings.TrimSpace(getenv("HTTP_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, goerr.Wrap(ErrConfigMissing, "HTTP_TIMEOUT must be a positive duration",
				goerr.V("value", v))
		}
		cfg.HTTPTimeout = d
	}

	if cfg.LogLevel, err = ParseLogLevel(getenv("LOG_LEVEL")); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ParseLogLevel accepts debug, info, warn and error. Empty means info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, goerr.Wrap(ErrConfigMissing, "unknown log level", goerr.V("value", s))
}

func required(getenv func(string) string, name string) (string, error) {
	v := strings.TrimSpace(getenv(name))
	if v == "" {
		return "", goerr.Wrap(ErrConfigMissing, "env var "+name+" must be set", goerr.V("name", name))
	}
	return v, nil
}

// intVar parses an optional integer variable. hi == 0 means unbounded.
func intVar(getenv func(string) string, name string, def, lo, hi int) (int, error) {
	v := strings.TrimSpace(getenv(name))
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, goerr.Wrap(ErrConfigMissing, "env var "+name+" must be an integer",
			goerr.V("name", name), goerr.V("value", v))
	}
	if n < lo || (hi > 0 && n > hi) {
		return 0, goerr.Wrap(ErrConfigMissing, "env var "+name+" is out of range",
			goerr.V("name", name), goerr.V("value", n), goerr.V("min", lo), goerr.V("max", hi))
	}
	return n, nil
}
