package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config holds logger settings read from the environment.
type Config struct {
	Env     string `env:"APP_ENV" envDefault:"development"` // Env selects per-environment defaults.
	Service string `env:"SERVICE_NAME" envDefault:"subsync"`
	Level   string `env:"LOG_LEVEL"`  // Level overrides the environment default (debug, info, warn, error).
	Format  string `env:"LOG_FORMAT"` // Format overrides the environment default (json, text).
}

// NewFromConfig builds a logger from cfg plus any extra options.
func NewFromConfig(cfg Config, opts ...Option) (*slog.Logger, error) {
	base := []Option{WithEnvironment(cfg.Env, cfg.Service)}

	if cfg.Level != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.Level, err)
		}
		base = append(base, WithLevel(lvl))
	}

	if cfg.Format != "" {
		f := Format(strings.ToLower(cfg.Format))
		if f != FormatJSON && f != FormatText {
			return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.Format)
		}
		base = append(base, WithFormat(f))
	}

	return New(append(base, opts...)...), nil
}
