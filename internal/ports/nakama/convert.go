package nakama

import (
	"encoding/json"
	"errors"
	"fmt"

	"bingo/internal/app"
	"bingo/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

var errBadPayload = errors.New("malformed payload")

// questMessage is the JSON shape of a quest in client requests and server events.
type questMessage struct {
	Kind         string               `json:"kind"`
	Key          string               `json:"key"`
	Enchantments []enchantmentMessage `json:"enchantments,omitempty"`
}

type enchantmentMessage struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

type createTeamRequest struct {
	Name string `json:"name"`
}

type joinTeamRequest struct {
	Team string `json:"team"`
}

// updateSettingsRequest carries only the fields the owner wants to change.
type updateSettingsRequest struct {
	GameMode        *domain.GameMode   `json:"game_mode"`
	TeamMode        *domain.TeamMode   `json:"team_mode"`
	Difficulty      *domain.Difficulty `json:"difficulty"`
	DurationMinutes *int               `json:"duration_minutes"`
	MaxTeamSize     *int               `json:"max_team_size"`
	RobbersMode     *bool              `json:"robbers_mode"`
}

func (r updateSettingsRequest) apply(s *domain.Settings) {
	if r.GameMode != nil {
		s.GameMode = *r.GameMode
	}
	if r.TeamMode != nil {
		s.TeamMode = *r.TeamMode
	}
	if r.Difficulty != nil {
		s.Difficulty = *r.Difficulty
	}
	if r.DurationMinutes != nil {
		s.DurationMinutes = *r.DurationMinutes
	}
	if r.MaxTeamSize != nil {
		s.MaxTeamSize = *r.MaxTeamSize
	}
	if r.RobbersMode != nil {
		s.RobbersMode = *r.RobbersMode
	}
}

// decode unmarshals a client payload into v. An empty payload is treated as {}.
func decode(data []byte, v interface{}) error {
	if len(data) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return nil
}

func (m questMessage) toQuest() (domain.Quest, error) {
	if m.Key == "" {
		return domain.Quest{}, fmt.Errorf("%w: quest key is empty", errBadPayload)
	}
	switch domain.QuestKind(m.Kind) {
	case domain.QuestItem, "":
		enchantments := make([]domain.Enchantment, len(m.Enchantments))
		for i, e := range m.Enchantments {
			if !domain.ValidEnchantmentName(e.Name) {
				return domain.Quest{}, fmt.Errorf("%w: enchantment name %q", errBadPayload, e.Name)
			}
			enchantments[i] = domain.Enchantment{Name: e.Name, Level: e.Level}
		}
		return domain.NewItemQuest(m.Key, enchantments...), nil
	case domain.QuestAdvancement:
		return domain.NewAdvancementQuest(m.Key), nil
	default:
		return domain.Quest{}, fmt.Errorf("%w: unknown quest kind %q", errBadPayload, m.Kind)
	}
}

// The helpers below build plain maps for structpb.NewStruct, which only
// accepts JSON-compatible values: []interface{} not typed slices, and
// numbers as int or float64.

func questValue(q domain.Quest) map[string]interface{} {
	v := map[string]interface{}{
		"kind": string(q.Kind),
		"key":  q.Key,
	}
	if enchantments := q.Enchantments(); len(enchantments) > 0 {
		list := make([]interface{}, len(enchantments))
		for i, e := range enchantments {
			list[i] = map[string]interface{}{"name": e.Name, "level": e.Level}
		}
		v["enchantments"] = list
	}
	return v
}

func questValues(quests []domain.Quest) []interface{} {
	out := make([]interface{}, len(quests))
	for i, q := range quests {
		out[i] = questValue(q)
	}
	return out
}

func stringValues(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func teamValue(t app.TeamSummary) map[string]interface{} {
	return map[string]interface{}{
		"name":    t.Name,
		"color":   t.Color.Hex(),
		"members": stringValues(t.Members),
	}
}

func teamValues(teams []app.TeamSummary) []interface{} {
	out := make([]interface{}, len(teams))
	for i, t := range teams {
		out[i] = teamValue(t)
	}
	return out
}

func settingsValue(s domain.Settings) map[string]interface{} {
	return map[string]interface{}{
		"game_mode":        string(s.GameMode),
		"team_mode":        string(s.TeamMode),
		"difficulty":       string(s.Difficulty),
		"duration_minutes": s.DurationMinutes,
		"max_team_size":    s.MaxTeamSize,
		"robbers_mode":     s.RobbersMode,
	}
}

// snapshotValue renders the scoreboard broadcast on OpSnapshot.
func snapshotValue(s app.Snapshot, ownerID string, tick int64) map[string]interface{} {
	players := make([]interface{}, len(s.Players))
	for i, p := range s.Players {
		players[i] = map[string]interface{}{"user_id": p.ID, "name": p.Name}
	}
	teams := make([]interface{}, len(s.Teams))
	for i, t := range s.Teams {
		v := teamValue(t.TeamSummary)
		v["completed"] = questValues(t.Completed)
		v["score"] = len(t.Completed)
		teams[i] = v
	}
	return map[string]interface{}{
		"phase":     string(s.Phase),
		"settings":  settingsValue(s.Settings),
		"card_id":   s.CardID,
		"card_size": s.CardSize,
		"quests":    questValues(s.Quests),
		"elapsed":   domain.FormatElapsed(s.Elapsed),
		"owner_id":  ownerID,
		"tick":      tick,
		"players":   players,
		"teams":     teams,
	}
}

// eventMessage maps an engine event to its op code and payload.
func eventMessage(ev app.Event) (int64, map[string]interface{}, error) {
	switch p := ev.Payload.(type) {
	case app.MatchStartedPayload:
		return OpMatchStarted, map[string]interface{}{
			"card_id":          p.CardID,
			"card_size":        p.CardSize,
			"quests":           questValues(p.Quests),
			"teams":            teamValues(p.Teams),
			"mode":             string(p.Mode),
			"duration_minutes": p.DurationMinutes,
		}, nil
	case app.TeamFoundQuestPayload:
		return OpTeamFoundQuest, map[string]interface{}{
			"team":      p.Team,
			"color":     p.Color.Hex(),
			"user_id":   p.PlayerID,
			"player":    p.Player,
			"quest":     questValue(p.Quest),
			"completed": p.Total,
		}, nil
	case app.QuestLostPayload:
		return OpQuestRevoked, map[string]interface{}{
			"team":    p.Team,
			"user_id": p.PlayerID,
			"quest":   questValue(p.Quest),
		}, nil
	case app.MatchEndedPayload:
		return OpMatchEnded, map[string]interface{}{
			"winners": teamValues(p.Winners),
			"draw":    p.Draw,
			"elapsed": domain.FormatElapsed(p.Elapsed),
		}, nil
	case app.PlayerErrorPayload:
		return OpGameError, errorValue(ErrCodeConflict, p.Message), nil
	default:
		return 0, nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

func errorValue(code int, message string) map[string]interface{} {
	return map[string]interface{}{"code": code, "message": message}
}

// encodeMessage serializes a payload map as canonical protobuf JSON.
func encodeMessage(v map[string]interface{}) ([]byte, error) {
	st, err := structpb.NewStruct(v)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(st)
}
