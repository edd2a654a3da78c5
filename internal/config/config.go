// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server configures cmd/undercurrent.
type Server struct {
	Addr          string        `env:"UNDERCURRENT_ADDR"           envDefault:":8080"`
	DBPath        string        `env:"UNDERCURRENT_DB_PATH"        envDefault:"undercurrent.db"`
	ContentDir    string        `env:"UNDERCURRENT_CONTENT_DIR"`
	AdminKey      string        `env:"UNDERCURRENT_ADMIN_KEY"`
	CORSOrigins   []string      `env:"UNDERCURRENT_CORS_ORIGINS"   envSeparator:","`
	SessionTTL    time.Duration `env:"UNDERCURRENT_SESSION_TTL"    envDefault:"72h"`
	PurgeInterval time.Duration `env:"UNDERCURRENT_PURGE_INTERVAL" envDefault:"1h"`
	MaxTurns      int           `env:"UNDERCURRENT_MAX_TURNS"      envDefault:"80"`
	Seed          int64         `env:"UNDERCURRENT_SEED"`
	RandomOrgKey  string        `env:"RANDOM_ORG_API_KEY"`
	RateLimit     int           `env:"UNDERCURRENT_RATE_LIMIT"     envDefault:"120"`
	RateWindow    time.Duration `env:"UNDERCURRENT_RATE_WINDOW"    envDefault:"1m"`
	LogLevel      string        `env:"UNDERCURRENT_LOG_LEVEL"      envDefault:"info"`
}

// Autoplay configures cmd/autoplay.
type Autoplay struct {
	APIURL   string        `env:"UNDERCURRENT_API_URL" envDefault:"http://localhost:8080"`
	City     string        `env:"AUTOPLAY_CITY"        envDefault:"riverton"`
	Strategy string        `env:"AUTOPLAY_STRATEGY"    envDefault:"cautious"`
	Sessions int           `env:"AUTOPLAY_SESSIONS"    envDefault:"1"`
	Pause    time.Duration `env:"AUTOPLAY_PAUSE"       envDefault:"0s"`
	Journal  string        `env:"AUTOPLAY_JOURNAL"`
	LogLevel string        `env:"AUTOPLAY_LOG_LEVEL"   envDefault:"info"`
}

// LoadServer parses and validates Server from the environment.
func LoadServer() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the server cannot run with.
func (c Server) Validate() error {
	var errs []error
	if c.MaxTurns < 1 {
		errs = append(errs, fmt.Errorf("UNDERCURRENT_MAX_TURNS must be positive, got %d", c.MaxTurns))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("UNDERCURRENT_SESSION_TTL must be positive, got %s", c.SessionTTL))
	}
	if c.RateLimit < 1 || c.RateWindow <= 0 {
		errs = append(errs, fmt.Errorf("rate limit %d per %s is not usable", c.RateLimit, c.RateWindow))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadAutoplay parses and validates Autoplay from the environment.
func LoadAutoplay() (Autoplay, error) {
	var cfg Autoplay
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Sessions < 1 {
		return cfg, fmt.Errorf("AUTOPLAY_SESSIONS must be positive, got %d", cfg.Sessions)
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
