// Package config loads the server's settings from the environment.
//
// Every setting has an env tag and, where sensible, a default, so a bare
// `teamrsvp serve` runs a local instance against data/teamrsvp.db. A .env
// file in the working directory is loaded first by cmd/server.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
)

// Config holds all runtime configuration.
type Config struct {
	Port      int    `env:"PORT"       envDefault:"8080"`
	DBPath    string `env:"DB_PATH"    envDefault:"data/teamrsvp.db"`
	StaticDir string `env:"STATIC_DIR"`

	SlackToken         string `env:"SLACK_TOKEN"`
	SlackSigningSecret string `env:"SLACK_SIGNING_SECRET"`
	SlackAPIURL        string `env:"SLACK_API_URL" envDefault:"https://slack.com/api/"`

	// SlackPrivateChannels also offers private channels; the bot then needs groups:read.
	SlackPrivateChannels bool `env:"SLACK_PRIVATE_CHANNELS"`

	// TeamChannels is the allow-list of channel names events can live in.
	TeamChannels []string `env:"TEAM_CHANNELS" envSeparator:","`
	Locale       string   `env:"LOCALE"        envDefault:"en"`

	Debug    bool       `env:"DEBUG"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	TokenTTL           time.Duration `env:"TOKEN_TTL"            envDefault:"15m"`
	EnforceTokenExpiry bool          `env:"ENFORCE_TOKEN_EXPIRY"`

	NotifyQueueSize int           `env:"NOTIFY_QUEUE_SIZE" envDefault:"64"`
	NotifyTimeout   time.Duration `env:"NOTIFY_TIMEOUT"    envDefault:"10s"`

	// Language is Locale, parsed.
	Language language.Tag `env:"-"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOCALE %q: %w", cfg.Locale, err)
	}
	cfg.Language = tag

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT %d", cfg.Port)
	}
	return cfg, nil
}
