package domain

import "fmt"

// Difficulty is a named weight preset for card generation.
type Difficulty string

const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyExtreme Difficulty = "extreme"
)

// difficultyWeights maps a tier to weights for scores 1..5.
var difficultyWeights = map[Difficulty][MaxQuestScore]int{
	DifficultyEasy:    {80, 40, 5, 0, 0},
	DifficultyMedium:  {15, 60, 45, 5, 0},
	DifficultyHard:    {2, 10, 50, 30, 3},
	DifficultyExtreme: {0, 0, 40, 60, 10},
}

// Weight returns the selection weight for a catalog score under d.
func (d Difficulty) Weight(score int) int {
	weights, ok := difficultyWeights[d]
	if !ok || score < MinQuestScore || score > MaxQuestScore {
		return 0
	}
	return weights[score-1]
}

func (d Difficulty) Valid() bool {
	_, ok := difficultyWeights[d]
	return ok
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	v := Difficulty(text)
	if !v.Valid() {
		return fmt.Errorf("unknown difficulty %q", text)
	}
	*d = v
	return nil
}

// GameMode selects the win condition.
type GameMode string

const (
	ModeStandard GameMode = "standard"
	ModeBlackout GameMode = "blackout"
	ModeLocked   GameMode = "locked"
	ModeTimed    GameMode = "timed"
)

func (m GameMode) Valid() bool {
	switch m {
	case ModeStandard, ModeBlackout, ModeLocked, ModeTimed:
		return true
	}
	return false
}

func (m *GameMode) UnmarshalText(text []byte) error {
	v := GameMode(text)
	if !v.Valid() {
		return fmt.Errorf("unknown game mode %q", text)
	}
	*m = v
	return nil
}

// TeamMode selects how players end up on teams at match start.
type TeamMode string

const (
	// TeamsManual keeps the teams players picked in the lobby.
	TeamsManual TeamMode = "manual"
	// TeamsRandom shuffles every player into fresh teams at start.
	TeamsRandom TeamMode = "random"
)

func (m TeamMode) Valid() bool {
	return m == TeamsManual || m == TeamsRandom
}

func (m *TeamMode) UnmarshalText(text []byte) error {
	v := TeamMode(text)
	if !v.Valid() {
		return fmt.Errorf("unknown team mode %q", text)
	}
	*m = v
	return nil
}
