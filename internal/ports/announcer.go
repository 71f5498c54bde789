package ports

import (
	"time"

	"bingo/internal/domain"
)

// Announcer receives the notifications a match produces. Implementations
// fan them out to players; the engine never formats text itself.
type Announcer interface {
	// MatchStarted is sent once the card is built and teams are final.
	MatchStarted(card *domain.Card, teams []*domain.Team, settings domain.Settings)

	// TeamFoundQuest is sent after a completion has been recorded.
	TeamFoundQuest(team *domain.Team, player domain.Player, quest domain.Quest)

	// QuestLost is sent when a completion is revoked in robbers mode.
	QuestLost(team *domain.Team, player domain.Player, quest domain.Quest)

	// WinnersAnnounced is sent while the match is finishing. An empty
	// winners slice means nobody won.
	WinnersAnnounced(winners []*domain.Team, elapsed time.Duration)

	// PlayerError is a short message for the acting player only.
	PlayerError(playerID, message string)
}
