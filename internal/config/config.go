// Package config loads server configuration from OUTREACH_* environment
// variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server and the CLI tools read from the
// environment.
type Config struct {
	Addr      string `env:"OUTREACH_ADDR" envDefault:":8080"`
	DBPath    string `env:"OUTREACH_DB_PATH" envDefault:"outreach.db"`
	Env       string `env:"OUTREACH_ENV" envDefault:"development"`
	MediaRoot string `env:"OUTREACH_MEDIA_ROOT" envDefault:"media"`
	StaticDir string `env:"OUTREACH_STATIC_DIR" envDefault:"static"`

	// CSRFKey is 64 hex characters. Required in production; development
	// falls back to a fixed key.
	CSRFKey string `env:"OUTREACH_CSRF_KEY"`

	ResendKey string `env:"OUTREACH_RESEND_KEY"`
	EmailFrom string `env:"OUTREACH_EMAIL_FROM" envDefault:"Program Desk <desk@mg.outreach.example>"`
	ReplyTo   string `env:"OUTREACH_REPLY_TO"`

	AdminEmail    string `env:"OUTREACH_ADMIN_EMAIL" envDefault:"admin@outreach.example"`
	AdminPassword string `env:"OUTREACH_ADMIN_PASSWORD"`
}

// Load parses the environment into a Config.
// PRE: none
// POST: Returns a Config with defaults applied, or an error when a value
// cannot be parsed or a production requirement is missing
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.IsProduction() && len(cfg.CSRFKey) != 64 {
		return Config{}, fmt.Errorf("OUTREACH_CSRF_KEY must be 64 hex characters in production")
	}
	return cfg, nil
}

// IsProduction reports whether the server runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// IsDevelopment reports whether dev-only features (seeded test accounts,
// synthetic data) are enabled.
func (c Config) IsDevelopment() bool {
	return !c.IsProduction()
}
