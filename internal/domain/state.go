package domain

// Phase represents the lifecycle stage of a bingo match.
type Phase string

const (
	// PhaseLobby is the pre-game state where teams are formed and settings change.
	PhaseLobby Phase = "lobby"
	// PhaseInProgress is the active game state where quests are collected.
	PhaseInProgress Phase = "in_progress"
	// PhaseFinishing is the short teardown state after winners are known.
	PhaseFinishing Phase = "finishing"
)

// Player is a participant identity, independent of connection status.
type Player struct {
	ID   string
	Name string
}
