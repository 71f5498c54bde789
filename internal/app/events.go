package app

import (
	"time"

	"bingo/internal/domain"
	"bingo/internal/ports"
)

// EventKind identifies emitted match events for Nakama dispatch.
type EventKind string

const (
	EventMatchStarted   EventKind = "match_started"
	EventTeamFoundQuest EventKind = "team_found_quest"
	EventQuestLost      EventKind = "quest_lost"
	EventMatchEnded     EventKind = "match_ended"
	EventPlayerError    EventKind = "player_error"
)

// Event is a match event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type TeamSummary struct {
	Name    string
	Color   domain.Color
	Members []string
}

type MatchStartedPayload struct {
	CardID          string
	CardSize        int
	Quests          []domain.Quest
	Teams           []TeamSummary
	Mode            domain.GameMode
	DurationMinutes int
}

type TeamFoundQuestPayload struct {
	Team     string
	Color    domain.Color
	PlayerID string
	Player   string
	Quest    domain.Quest
	Total    int
}

type QuestLostPayload struct {
	Team     string
	PlayerID string
	Quest    domain.Quest
}

type MatchEndedPayload struct {
	Winners []TeamSummary
	Draw    bool
	Elapsed time.Duration
}

type PlayerErrorPayload struct {
	Message string
}

// EventRecorder is an Announcer that buffers events until the caller drains
// them, letting a match loop dispatch after every engine call returns.
type EventRecorder struct {
	events []Event
}

var _ ports.Announcer = (*EventRecorder)(nil)

// Drain returns the buffered events and resets the buffer.
func (r *EventRecorder) Drain() []Event {
	out := r.events
	r.events = nil
	return out
}

func (r *EventRecorder) MatchStarted(card *domain.Card, teams []*domain.Team, settings domain.Settings) {
	r.events = append(r.events, Event{
		Kind: EventMatchStarted,
		Payload: MatchStartedPayload{
			CardID:          card.ID(),
			CardSize:        card.Size(),
			Quests:          card.Quests(),
			Teams:           summarize(teams),
			Mode:            settings.GameMode,
			DurationMinutes: settings.DurationMinutes,
		},
	})
}

func (r *EventRecorder) TeamFoundQuest(team *domain.Team, player domain.Player, quest domain.Quest) {
	r.events = append(r.events, Event{
		Kind: EventTeamFoundQuest,
		Payload: TeamFoundQuestPayload{
			Team:     team.Name(),
			Color:    team.Color(),
			PlayerID: player.ID,
			Player:   player.Name,
			Quest:    quest,
			Total:    team.Ledger().Len(),
		},
	})
}

func (r *EventRecorder) QuestLost(team *domain.Team, player domain.Player, quest domain.Quest) {
	r.events = append(r.events, Event{
		Kind:    EventQuestLost,
		Payload: QuestLostPayload{Team: team.Name(), PlayerID: player.ID, Quest: quest},
	})
}

func (r *EventRecorder) WinnersAnnounced(winners []*domain.Team, elapsed time.Duration) {
	r.events = append(r.events, Event{
		Kind:    EventMatchEnded,
		Payload: MatchEndedPayload{Winners: summarize(winners), Draw: len(winners) > 1, Elapsed: elapsed},
	})
}

func (r *EventRecorder) PlayerError(playerID, message string) {
	r.events = append(r.events, Event{
		Kind:       EventPlayerError,
		Payload:    PlayerErrorPayload{Message: message},
		Recipients: []string{playerID},
	})
}

func summarize(teams []*domain.Team) []TeamSummary {
	out := make([]TeamSummary, len(teams))
	for i, t := range teams {
		members := t.Members()
		ids := make([]string, len(members))
		for j, m := range members {
			ids[j] = m.ID
		}
		out[i] = TeamSummary{Name: t.Name(), Color: t.Color(), Members: ids}
	}
	return out
}
