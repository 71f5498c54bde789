package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"bingo/internal/domain"
	"bingo/internal/ports"
)

var (
	ErrNotInLobby    = errors.New("match not in lobby")
	ErrNotInProgress = errors.New("match not in progress")
	ErrNoTeams       = errors.New("no team has members")
	ErrUnknownPlayer = errors.New("player not found")
	ErrRobbersOff    = errors.New("robbers mode is disabled")
)

// AcquireResult tells the caller what OnQuestAcquired did with an event.
type AcquireResult int

const (
	Accepted AcquireResult = iota
	IgnoredNotInProgress
	IgnoredNotOnCard
	IgnoredNoTeam
	IgnoredDuplicate
	RejectedLocked
)

func (r AcquireResult) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case IgnoredNotInProgress:
		return "ignored_not_in_progress"
	case IgnoredNotOnCard:
		return "ignored_not_on_card"
	case IgnoredNoTeam:
		return "ignored_no_team"
	case IgnoredDuplicate:
		return "ignored_duplicate"
	case RejectedLocked:
		return "rejected_locked"
	default:
		return fmt.Sprintf("AcquireResult(%d)", int(r))
	}
}

// Engine runs one bingo match: its settings, card, players and teams, and
// the Lobby → InProgress → Finishing → Lobby lifecycle. It is not safe for
// concurrent use; the host drives it from a single loop.
type Engine struct {
	settings  domain.Settings
	catalog   *domain.Catalog
	generator *domain.CardGenerator
	players   *domain.PlayerRegistry
	teams     *domain.TeamRegistry
	card      *domain.Card

	phase     domain.Phase
	startedAt time.Time
	endTimer  ports.Timer
	// round increments on every start and reset so a timer from an earlier
	// match can tell it is stale.
	round       uint64
	winners     []*domain.Team
	lastWinners []TeamSummary

	announcer ports.Announcer
	scheduler ports.Scheduler
	now       func() time.Time
	rng       *rand.Rand
}

// Option customises an Engine.
type Option func(*Engine)

// WithRand sets the random source used for cards, colors and random teams.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithClock sets the time source for start and completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds a lobby with an initial card. It fails when the settings
// are invalid or the catalog cannot fill a card at the configured difficulty.
func NewEngine(catalog *domain.Catalog, settings domain.Settings, announcer ports.Announcer, scheduler ports.Scheduler, opts ...Option) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		settings:  settings,
		catalog:   catalog,
		players:   domain.NewPlayerRegistry(),
		phase:     domain.PhaseLobby,
		announcer: announcer,
		scheduler: scheduler,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e.generator = domain.NewCardGenerator(e.rng, domain.DefaultCardSize)
	e.teams = domain.NewTeamRegistry(e.rng, settings.MaxTeamSize)

	card, err := e.generator.Generate(catalog, settings.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("generate card: %w", err)
	}
	e.card = card
	return e, nil
}

func (e *Engine) Phase() domain.Phase        { return e.phase }
func (e *Engine) Settings() domain.Settings  { return e.settings }
func (e *Engine) Card() *domain.Card         { return e.card }
func (e *Engine) Teams() []*domain.Team      { return e.teams.Teams() }
func (e *Engine) Players() []domain.Player   { return e.players.All() }
func (e *Engine) StartedAt() time.Time       { return e.startedAt }
func (e *Engine) Winners() []*domain.Team    { return e.winners }
func (e *Engine) LastWinners() []TeamSummary { return e.lastWinners }

// Elapsed is the time since the match started, zero outside a match.
func (e *Engine) Elapsed() time.Duration {
	if e.phase == domain.PhaseLobby {
		return 0
	}
	return e.now().Sub(e.startedAt)
}

func (e *Engine) HasPlayer(id string) bool { return e.players.Contains(id) }

func (e *Engine) TeamOf(playerID string) (*domain.Team, bool) { return e.teams.TeamOf(playerID) }

func (e *Engine) TeamByName(name string) (*domain.Team, bool) { return e.teams.ByName(name) }

// NextTeam and PreviousTeam page through teams cyclically for displays.
func (e *Engine) NextTeam(t *domain.Team) (*domain.Team, bool)     { return e.teams.Next(t) }
func (e *Engine) PreviousTeam(t *domain.Team) (*domain.Team, bool) { return e.teams.Previous(t) }

// AddPlayer puts p in the match. It reports false when p was already in.
func (e *Engine) AddPlayer(p domain.Player) bool {
	return e.players.Add(p)
}

// RemovePlayer takes the player out of the match and off their team.
func (e *Engine) RemovePlayer(id string) bool {
	e.teams.Remove(id)
	return e.players.Remove(id)
}

// CreateTeam registers an empty team.
func (e *Engine) CreateTeam(name string) (*domain.Team, error) {
	return e.teams.Create(name)
}

// JoinTeam moves a player in the match onto the named team.
func (e *Engine) JoinTeam(playerID, teamName string) (*domain.Team, error) {
	p, ok := e.players.Get(playerID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	t, ok := e.teams.ByName(teamName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTeam, teamName)
	}
	if err := e.teams.Assign(p, t); err != nil {
		return nil, err
	}
	return t, nil
}

// LeaveTeam detaches the player from their team.
func (e *Engine) LeaveTeam(playerID string) bool {
	_, ok := e.teams.Remove(playerID)
	return ok
}

// RenameTeam renames a team under the same uniqueness rule as CreateTeam.
func (e *Engine) RenameTeam(oldName, newName string) error {
	t, ok := e.teams.ByName(oldName)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownTeam, oldName)
	}
	return e.teams.Rename(t, newName)
}

// UpdateSettings applies fn to a copy of the settings and keeps the result
// when it validates. A difficulty change builds a new card.
func (e *Engine) UpdateSettings(fn func(*domain.Settings)) error {
	if e.phase != domain.PhaseLobby {
		return ErrNotInLobby
	}
	next := e.settings
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	if next.Difficulty != e.settings.Difficulty {
		card, err := e.generator.Generate(e.catalog, next.Difficulty)
		if err != nil {
			return fmt.Errorf("generate card: %w", err)
		}
		e.card = card
	}
	e.settings = next
	e.teams.SetMaxTeamSize(next.MaxTeamSize)
	return nil
}

// RegenerateCard draws a new lobby card at the current difficulty.
func (e *Engine) RegenerateCard() error {
	if e.phase != domain.PhaseLobby {
		return ErrNotInLobby
	}
	card, err := e.generator.Generate(e.catalog, e.settings.Difficulty)
	if err != nil {
		return fmt.Errorf("generate card: %w", err)
	}
	e.card = card
	return nil
}

// Start begins a match with a fresh card. Teams without members are dropped
// and every ledger starts empty.
func (e *Engine) Start() error {
	if e.phase != domain.PhaseLobby {
		return ErrNotInLobby
	}
	card, err := e.generator.Generate(e.catalog, e.settings.Difficulty)
	if err != nil {
		return fmt.Errorf("generate card: %w", err)
	}

	if e.settings.TeamMode == domain.TeamsRandom {
		if e.players.Len() == 0 {
			return ErrNoTeams
		}
		if err := e.dealRandomTeams(); err != nil {
			return err
		}
	} else if e.teams.NonEmpty() < MinTeamsToStart {
		return ErrNoTeams
	}

	e.teams.PruneEmpty()
	e.teams.ClearLedgers()
	e.card = card
	e.winners = nil
	e.phase = domain.PhaseInProgress
	e.startedAt = e.now()
	e.round++

	if e.settings.GameMode == domain.ModeTimed {
		round := e.round
		e.endTimer = e.scheduler.AfterFunc(e.settings.Duration(), func() {
			e.timerExpired(round)
		})
	}

	e.announcer.MatchStarted(e.card, e.teams.Teams(), e.settings)
	return nil
}

// dealRandomTeams replaces the lobby teams with numbered teams and deals
// every player into them round-robin after a shuffle.
func (e *Engine) dealRandomTeams() error {
	players := e.players.All()
	e.rng.Shuffle(len(players), func(i, j int) { players[i], players[j] = players[j], players[i] })

	size := e.settings.MaxTeamSize
	count := len(players) / size
	if len(players)%size != 0 {
		count++
	}

	e.teams.Clear()
	teams := make([]*domain.Team, count)
	for i := range teams {
		t, err := e.teams.Create(fmt.Sprintf(RandomTeamNameFormat, i+1))
		if err != nil {
			return err
		}
		teams[i] = t
	}
	for i, p := range players {
		if err := e.teams.Assign(p, teams[i%count]); err != nil {
			return err
		}
	}
	return nil
}

// OnQuestAcquired records that a player obtained something. Anything that
// does not apply to the running match is ignored and reported as such.
func (e *Engine) OnQuestAcquired(playerID string, acquired domain.Quest) AcquireResult {
	if e.phase != domain.PhaseInProgress {
		return IgnoredNotInProgress
	}
	quest, ok := e.card.Resolve(acquired)
	if !ok {
		return IgnoredNotOnCard
	}
	team, ok := e.teams.TeamOf(playerID)
	if !ok {
		return IgnoredNoTeam
	}
	if team.Ledger().Has(quest) {
		return IgnoredDuplicate
	}
	if e.settings.GameMode == domain.ModeLocked {
		if holder, held := e.teams.HeldByOther(team, quest); held {
			e.announcer.PlayerError(playerID, fmt.Sprintf("%s already claimed %s", holder.Name(), quest.Key))
			return RejectedLocked
		}
	}

	if err := team.Ledger().Complete(quest, e.now()); err != nil {
		return IgnoredDuplicate
	}
	e.announcer.TeamFoundQuest(team, e.player(playerID), quest)

	if winners := domain.Evaluate(e.settings.GameMode, e.card, team, e.teams.Len()); len(winners) > 0 {
		_ = e.End(winners)
	}
	return Accepted
}

// RevokeQuest removes a completion after the player lost the item. It only
// applies in robbers mode while a match runs.
func (e *Engine) RevokeQuest(playerID string, lost domain.Quest) (bool, error) {
	if !e.settings.RobbersMode {
		return false, ErrRobbersOff
	}
	if e.phase != domain.PhaseInProgress {
		return false, ErrNotInProgress
	}
	quest, ok := e.card.Resolve(lost)
	if !ok {
		return false, nil
	}
	team, ok := e.teams.TeamOf(playerID)
	if !ok || !team.Ledger().Remove(quest) {
		return false, nil
	}
	e.announcer.QuestLost(team, e.player(playerID), quest)
	return true, nil
}

// LeadingTeams returns the teams currently tied for the most completions.
func (e *Engine) LeadingTeams() []*domain.Team {
	return domain.TimedWinners(e.card, e.teams.Teams())
}

// End finishes the running match with the given winners, announces them and
// returns to the lobby with no teams or players.
func (e *Engine) End(winners []*domain.Team) error {
	if e.phase != domain.PhaseInProgress {
		return ErrNotInProgress
	}
	e.phase = domain.PhaseFinishing
	e.winners = winners
	e.stopTimer()

	elapsed := e.now().Sub(e.startedAt)
	e.lastWinners = summarize(winners)
	e.announcer.WinnersAnnounced(winners, elapsed)

	e.teams.Clear()
	e.players.Clear()
	e.winners = nil
	e.phase = domain.PhaseLobby
	return nil
}

// Reset abandons any match without announcing winners.
func (e *Engine) Reset() {
	e.stopTimer()
	e.round++
	e.teams.Clear()
	e.players.Clear()
	e.winners = nil
	e.phase = domain.PhaseLobby
}

func (e *Engine) timerExpired(round uint64) {
	if round != e.round || e.phase != domain.PhaseInProgress {
		return
	}
	e.endTimer = nil
	_ = e.End(domain.TimedWinners(e.card, e.teams.Teams()))
}

func (e *Engine) stopTimer() {
	if e.endTimer != nil {
		e.endTimer.Stop()
		e.endTimer = nil
	}
}

func (e *Engine) player(id string) domain.Player {
	if p, ok := e.players.Get(id); ok {
		return p
	}
	return domain.Player{ID: id, Name: id}
}
