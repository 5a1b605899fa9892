// Package config loads atlas settings from the environment.
// Command-line flags override these values in cmd/atlas.
package config

import (
	"fmt"
	"time"

	"github.com/aretw0/atlas/internal/logging"
	"github.com/caarlos0/env/v11"
)

// Config holds the process-wide settings.
type Config struct {
	LogLevel string `env:"ATLAS_LOG_LEVEL" envDefault:"info"`

	// Blueprint is the descriptor to build; empty means the built-in content.
	Blueprint string `env:"ATLAS_BLUEPRINT"`
	Out       string `env:"ATLAS_OUT" envDefault:"dist/narrative_tree_complete.json"`

	LockFile    string        `env:"ATLAS_LOCK_FILE" envDefault:"narrative_edit.lock"`
	RedisAddr   string        `env:"ATLAS_REDIS_ADDR"`
	RedisPrefix string        `env:"ATLAS_REDIS_PREFIX" envDefault:"atlas:"`
	LockTTL     time.Duration `env:"ATLAS_LOCK_TTL" envDefault:"0s"`
	Agent       string        `env:"ATLAS_AGENT"`

	// Archive is the SQLite build ledger; empty disables archiving.
	Archive string `env:"ATLAS_ARCHIVE"`

	Addr string `env:"ATLAS_ADDR" envDefault:":8080"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the env parser cannot.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("ATLAS_LOG_LEVEL: %w", err)
	}
	if c.LockTTL < 0 {
		return fmt.Errorf("ATLAS_LOCK_TTL must not be negative")
	}
	return nil
}
