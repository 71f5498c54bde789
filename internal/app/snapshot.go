package app

import (
	"time"

	"bingo/internal/domain"
)

// Snapshot is a read-only view of a match for scoreboards and late joiners.
type Snapshot struct {
	Phase    domain.Phase
	Settings domain.Settings
	CardID   string
	CardSize int
	Quests   []domain.Quest
	Elapsed  time.Duration
	Players  []domain.Player
	Teams    []TeamStanding
}

// TeamStanding is one team in scoreboard order.
type TeamStanding struct {
	TeamSummary
	Completed []domain.Quest
}

// Snapshot captures the current match. Teams are ordered by completed card
// quests, highest first.
func (e *Engine) Snapshot() Snapshot {
	standings := domain.Standings(e.card, e.teams.Teams())
	teams := make([]TeamStanding, len(standings))
	for i, s := range standings {
		var completed []domain.Quest
		for _, entry := range s.Team.Ledger().Entries() {
			if e.card.Contains(entry.Quest) {
				completed = append(completed, entry.Quest)
			}
		}
		teams[i] = TeamStanding{
			TeamSummary: summarize([]*domain.Team{s.Team})[0],
			Completed:   completed,
		}
	}
	return Snapshot{
		Phase:    e.phase,
		Settings: e.settings,
		CardID:   e.card.ID(),
		CardSize: e.card.Size(),
		Quests:   e.card.Quests(),
		Elapsed:  e.Elapsed(),
		Players:  e.players.All(),
		Teams:    teams,
	}
}
