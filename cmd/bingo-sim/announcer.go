package main

import (
	"log/slog"
	"time"

	"bingo/internal/domain"
	"bingo/internal/ports"
)

// logAnnouncer writes match events to a structured logger and remembers how
// the match ended.
type logAnnouncer struct {
	logger  *slog.Logger
	elapsed time.Duration
}

var _ ports.Announcer = (*logAnnouncer)(nil)

func (a *logAnnouncer) MatchStarted(card *domain.Card, teams []*domain.Team, settings domain.Settings) {
	names := make([]string, len(teams))
	for i, t := range teams {
		names[i] = t.Name()
	}
	a.logger.Info("match started",
		"card", card.ID(),
		"mode", settings.GameMode,
		"difficulty", settings.Difficulty,
		"teams", names,
	)
}

func (a *logAnnouncer) TeamFoundQuest(team *domain.Team, player domain.Player, quest domain.Quest) {
	a.logger.Debug("quest completed",
		"team", team.Name(),
		"player", player.Name,
		"quest", quest.String(),
		"completed", team.Ledger().Len(),
	)
}

func (a *logAnnouncer) QuestLost(team *domain.Team, player domain.Player, quest domain.Quest) {
	a.logger.Debug("quest lost", "team", team.Name(), "player", player.Name, "quest", quest.String())
}

func (a *logAnnouncer) WinnersAnnounced(winners []*domain.Team, elapsed time.Duration) {
	a.elapsed = elapsed
	names := make([]string, len(winners))
	for i, t := range winners {
		names[i] = t.Name()
	}
	a.logger.Info("match ended", "winners", names, "elapsed", domain.FormatElapsed(elapsed))
}

func (a *logAnnouncer) PlayerError(playerID, message string) {
	a.logger.Debug("player error", "player", playerID, "message", message)
}
