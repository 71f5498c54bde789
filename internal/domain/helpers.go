package domain

import (
	"fmt"
	"sort"
	"time"
)

// LabelPayload produces the values needed for match label advertisement.
type LabelPayload struct {
	Open    bool   `json:"open"`
	Game    string `json:"game"`
	Phase   string `json:"phase"`
	Mode    string `json:"mode"`
	Players int    `json:"players"`
	Teams   int    `json:"teams"`
}

// ComputeLabel derives the advertised label. Only lobbies accept new players.
func ComputeLabel(phase Phase, settings Settings, players, teams int) LabelPayload {
	return LabelPayload{
		Open:    phase == PhaseLobby,
		Game:    "bingo",
		Phase:   string(phase),
		Mode:    string(settings.GameMode),
		Players: players,
		Teams:   teams,
	}
}

// Standing is one scoreboard row.
type Standing struct {
	Team      *Team
	Completed int
}

// Standings ranks teams by completed card quests, highest first. Ties keep
// creation order.
func Standings(card *Card, teams []*Team) []Standing {
	out := make([]Standing, len(teams))
	for i, t := range teams {
		out[i] = Standing{Team: t, Completed: t.ledger.CountOn(card)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Completed > out[j].Completed
	})
	return out
}

// FormatElapsed renders d as hh:mm:ss.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}
