package bot

import (
	"math/rand"
	"time"

	"bingo/internal/domain"
)

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Level    BotLevel
	Strategy Brain
	Tuning   Tuning
	rng      *rand.Rand
}

// NewAgent builds an agent with the brain and tuning of level. rng may be
// nil for a time-seeded source.
func NewAgent(identity BotIdentity, level BotLevel, rng *rand.Rand) (*Agent, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	brain, err := NewBrain(level, rng)
	if err != nil {
		return nil, err
	}
	return &Agent{
		ID:       identity.UserID,
		Name:     identity.Username,
		Level:    level,
		Strategy: brain,
		Tuning:   TuningFor(level),
		rng:      rng,
	}, nil
}

// Player returns the agent as a match participant.
func (a *Agent) Player() domain.Player {
	return domain.Player{ID: a.ID, Name: a.Name}
}

// Act is called once per tick and returns what the agent did.
func (a *Agent) Act(view View) Action {
	if view.Card == nil || view.Team == nil {
		return Action{Kind: ActionIdle}
	}

	if view.Robbers && a.rng.Float64() < a.Tuning.LoseChance {
		if q, ok := a.randomCompleted(view); ok {
			return Action{Kind: ActionLose, Quest: q}
		}
	}

	if a.rng.Float64() < a.Tuning.WanderChance {
		return Action{Kind: ActionAcquire, Quest: view.Card.Cell(a.rng.Intn(view.Card.Len()))}
	}

	target, ok := a.Strategy.Target(view)
	if !ok || a.rng.Float64() >= a.Tuning.FindChance {
		return Action{Kind: ActionIdle}
	}
	return Action{Kind: ActionAcquire, Quest: target}
}

func (a *Agent) randomCompleted(view View) (domain.Quest, bool) {
	var held []domain.Quest
	for _, e := range view.Team.Ledger().Entries() {
		if view.Card.Contains(e.Quest) {
			held = append(held, e.Quest)
		}
	}
	if len(held) == 0 {
		return domain.Quest{}, false
	}
	return held[a.rng.Intn(len(held))], true
}
