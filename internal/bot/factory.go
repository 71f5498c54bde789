package bot

import (
	"fmt"
	"math/rand"
	"strings"
)

// BotLevel selects a strategy and its tuning.
type BotLevel int

const (
	BotLevelGood BotLevel = iota + 1
	BotLevelSmart
	BotLevelGod
)

func (l BotLevel) String() string {
	switch l {
	case BotLevelGood:
		return "good"
	case BotLevelSmart:
		return "smart"
	case BotLevelGod:
		return "god"
	default:
		return fmt.Sprintf("BotLevel(%d)", int(l))
	}
}

// ParseBotLevel accepts the names printed by String.
func ParseBotLevel(s string) (BotLevel, error) {
	for _, l := range []BotLevel{BotLevelGood, BotLevelSmart, BotLevelGod} {
		if strings.EqualFold(s, l.String()) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown bot level: %q", s)
}

// NewBrain creates a new AI brain based on the specified level. rng may be
// nil for a time-seeded source.
func NewBrain(level BotLevel, rng *rand.Rand) (Brain, error) {
	switch level {
	case BotLevelGood:
		return &GoodBot{Rand: rng}, nil
	case BotLevelSmart:
		return &SmartBot{Rules: smartRules(levelTuning[BotLevelSmart])}, nil
	case BotLevelGod:
		return &SmartBot{Rules: smartRules(levelTuning[BotLevelGod])}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}
