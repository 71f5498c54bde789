// Package config reads module settings from BINGO_* environment variables,
// either the process environment or the map Nakama passes to the runtime.
package config

import (
	"fmt"
	"log/slog"

	"bingo/internal/domain"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every variable name.
const Prefix = "BINGO_"

type Config struct {
	GameMode        domain.GameMode   `env:"GAME_MODE" envDefault:"standard"`
	TeamMode        domain.TeamMode   `env:"TEAM_MODE" envDefault:"manual"`
	Difficulty      domain.Difficulty `env:"DIFFICULTY" envDefault:"medium"`
	DurationMinutes int               `env:"DURATION_MINUTES" envDefault:"25"`
	MaxTeamSize     int               `env:"MAX_TEAM_SIZE" envDefault:"5"`
	RobbersMode     bool              `env:"ROBBERS_MODE" envDefault:"false"`

	// CatalogPath points at a scores.json file; empty uses the bundled list.
	CatalogPath string `env:"CATALOG_PATH"`

	TickRate              int `env:"TICK_RATE" envDefault:"5"`
	SnapshotIntervalTicks int `env:"SNAPSHOT_INTERVAL_TICKS" envDefault:"20"`

	Vivox Vivox `envPrefix:"VIVOX_"`
	Sim   Sim   `envPrefix:"SIM_"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
}

// Vivox holds the credentials for team voice tokens.
type Vivox struct {
	Secret string `env:"SECRET"`
	Issuer string `env:"ISSUER"`
	Domain string `env:"DOMAIN" envDefault:"tla.vivox.com"`
}

// Sim configures the standalone simulator.
type Sim struct {
	Matches     int    `env:"MATCHES" envDefault:"1"`
	Teams       int    `env:"TEAMS" envDefault:"3"`
	BotsPerTeam int    `env:"BOTS_PER_TEAM" envDefault:"2"`
	BotLevel    string `env:"BOT_LEVEL" envDefault:"smart"`
	// Roster is an optional JSON file of bot identities.
	Roster string `env:"ROSTER"`
	Seed   int64  `env:"SEED"`
	// MaxTicks stops a simulation that never produces a winner.
	MaxTicks int64 `env:"MAX_TICKS" envDefault:"20000"`
}

// Load parses the configuration from environ, or from the process
// environment when environ is nil.
func Load(environ map[string]string) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{
		Environment: environ,
		Prefix:      Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.MatchSettings().Validate(); err != nil {
		return nil, err
	}
	if cfg.TickRate < 1 {
		return nil, fmt.Errorf("parsing environment: tick rate %d", cfg.TickRate)
	}
	if cfg.SnapshotIntervalTicks < 1 {
		cfg.SnapshotIntervalTicks = 1
	}
	return &cfg, nil
}

// MatchSettings returns the lobby defaults for new matches.
func (c *Config) MatchSettings() domain.Settings {
	return domain.Settings{
		GameMode:        c.GameMode,
		TeamMode:        c.TeamMode,
		Difficulty:      c.Difficulty,
		DurationMinutes: c.DurationMinutes,
		MaxTeamSize:     c.MaxTeamSize,
		RobbersMode:     c.RobbersMode,
	}
}
