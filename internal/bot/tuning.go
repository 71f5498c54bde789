package bot

// Tuning controls how often a bot makes progress and how it weighs targets.
type Tuning struct {
	// FindChance is the per-tick probability of obtaining the current target.
	FindChance float64
	// WanderChance is the per-tick probability of picking up a random card
	// item instead, possibly one the team already has.
	WanderChance float64
	// LoseChance is the per-tick probability of losing a completed item when
	// robbers mode is on.
	LoseChance float64
	// LineWeight scales the preference for cells on nearly finished lines.
	LineWeight float64
	// CountWeight favours any unclaimed cell in count-based modes.
	CountWeight float64
}

var levelTuning = map[BotLevel]Tuning{
	BotLevelGood: {
		FindChance:   0.01,
		WanderChance: 0.004,
		LoseChance:   0.002,
	},
	BotLevelSmart: {
		FindChance:   0.015,
		WanderChance: 0.002,
		LoseChance:   0.001,
		LineWeight:   1.0,
		CountWeight:  0.5,
	},
	BotLevelGod: {
		FindChance:  0.025,
		LoseChance:  0.0005,
		LineWeight:  2.0,
		CountWeight: 1.0,
	},
}

// TuningFor returns the defaults for level.
func TuningFor(level BotLevel) Tuning {
	return levelTuning[level]
}
