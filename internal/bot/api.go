package bot

import (
	"bingo/internal/domain"
)

// View is what a bot sees of the running match when it decides what to do.
type View struct {
	Card    *domain.Card
	Mode    domain.GameMode
	Robbers bool
	Team    *domain.Team
	Teams   []*domain.Team
}

// ActionKind says what a bot did this tick.
type ActionKind int

const (
	ActionIdle ActionKind = iota
	ActionAcquire
	ActionLose
)

// Action represents the decision made by the AI.
type Action struct {
	Kind  ActionKind
	Quest domain.Quest
}

// Brain is the interface that all bot strategies must implement. Target
// picks the quest the bot hunts next; false means nothing is worth hunting.
type Brain interface {
	Target(view View) (domain.Quest, bool)
}
