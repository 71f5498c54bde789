package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidSettings = errors.New("invalid match settings")

const (
	DefaultDurationMinutes = 25
	DefaultMaxTeamSize     = 5

	// MaxDurationMinutes is one day.
	MaxDurationMinutes = 24 * 60
	MaxMaxTeamSize     = 1000
)

// Settings is the match configuration. The engine only accepts changes while
// the match is in the lobby.
type Settings struct {
	GameMode        GameMode
	TeamMode        TeamMode
	Difficulty      Difficulty
	DurationMinutes int
	MaxTeamSize     int
	// RobbersMode lets a team lose a completed quest when the item leaves
	// the inventory of its members.
	RobbersMode bool
}

// DefaultSettings returns the settings a fresh match starts with.
func DefaultSettings() Settings {
	return Settings{
		GameMode:        ModeStandard,
		TeamMode:        TeamsManual,
		Difficulty:      DifficultyMedium,
		DurationMinutes: DefaultDurationMinutes,
		MaxTeamSize:     DefaultMaxTeamSize,
	}
}

// Validate checks every field.
func (s Settings) Validate() error {
	switch {
	case !s.GameMode.Valid():
		return fmt.Errorf("%w: game mode %q", ErrInvalidSettings, s.GameMode)
	case !s.TeamMode.Valid():
		return fmt.Errorf("%w: team mode %q", ErrInvalidSettings, s.TeamMode)
	case !s.Difficulty.Valid():
		return fmt.Errorf("%w: difficulty %q", ErrInvalidSettings, s.Difficulty)
	case s.DurationMinutes < 1, s.DurationMinutes > MaxDurationMinutes:
		return fmt.Errorf("%w: duration %d minutes", ErrInvalidSettings, s.DurationMinutes)
	case s.MaxTeamSize < 1, s.MaxTeamSize > MaxMaxTeamSize:
		return fmt.Errorf("%w: max team size %d", ErrInvalidSettings, s.MaxTeamSize)
	}
	return nil
}

// Duration is the timed-mode length.
func (s Settings) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}
