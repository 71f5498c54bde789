package app

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"bingo/internal/domain"
	"bingo/internal/ports"
)

// manualScheduler records scheduled callbacks so tests decide when they fire.
type manualScheduler struct {
	timers []*manualTimer
}

type manualTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) ports.Timer {
	t := &manualTimer{d: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	wasPending := !t.stopped
	t.stopped = true
	return wasPending
}

// fire runs the callback regardless of Stop, like a callback already in flight.
func (t *manualTimer) fire() { t.fn() }

type harness struct {
	engine    *Engine
	events    *EventRecorder
	scheduler *manualScheduler
	clock     time.Time
}

func newHarness(t *testing.T, mutate func(*domain.Settings)) *harness {
	t.Helper()
	entries := make([]domain.CatalogEntry, 60)
	for i := range entries {
		entries[i] = domain.CatalogEntry{Name: fmt.Sprintf("item_%02d", i), Score: 2 + i%2}
	}
	catalog, err := domain.NewCatalog(entries)
	if err != nil {
		t.Fatalf("NewCatalog error: %v", err)
	}
	settings := domain.DefaultSettings()
	if mutate != nil {
		mutate(&settings)
	}
	h := &harness{
		events:    &EventRecorder{},
		scheduler: &manualScheduler{},
		clock:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	h.engine, err = NewEngine(catalog, settings, h.events, h.scheduler,
		WithRand(rand.New(rand.NewSource(42))),
		WithClock(func() time.Time { return h.clock }),
	)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	return h
}

// join adds a player and puts them on the team, creating it when needed.
func (h *harness) join(t *testing.T, playerID, teamName string) {
	t.Helper()
	h.engine.AddPlayer(domain.Player{ID: playerID, Name: "name-" + playerID})
	if _, ok := h.engine.TeamByName(teamName); !ok {
		if _, err := h.engine.CreateTeam(teamName); err != nil {
			t.Fatalf("CreateTeam(%s) error: %v", teamName, err)
		}
	}
	if _, err := h.engine.JoinTeam(playerID, teamName); err != nil {
		t.Fatalf("JoinTeam(%s, %s) error: %v", playerID, teamName, err)
	}
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	if err := h.engine.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
}

func (h *harness) count(kind EventKind) int {
	n := 0
	for _, ev := range h.events.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (h *harness) last(kind EventKind) (Event, bool) {
	for i := len(h.events.events) - 1; i >= 0; i-- {
		if h.events.events[i].Kind == kind {
			return h.events.events[i], true
		}
	}
	return Event{}, false
}

func TestNewEngineCatalogExhausted(t *testing.T) {
	catalog, _ := domain.NewCatalog([]domain.CatalogEntry{{Name: "dirt", Score: 1}})
	_, err := NewEngine(catalog, domain.DefaultSettings(), &EventRecorder{}, &manualScheduler{})
	if !errors.Is(err, domain.ErrCatalogExhausted) {
		t.Fatalf("NewEngine error = %v, want ErrCatalogExhausted", err)
	}
}

func TestStartRequiresTeam(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.engine.Start(); !errors.Is(err, ErrNoTeams) {
		t.Fatalf("Start error = %v, want ErrNoTeams", err)
	}
	// An empty team does not count.
	if _, err := h.engine.CreateTeam("Red"); err != nil {
		t.Fatalf("CreateTeam error: %v", err)
	}
	if err := h.engine.Start(); !errors.Is(err, ErrNoTeams) {
		t.Fatalf("Start error = %v, want ErrNoTeams", err)
	}
	if h.engine.Phase() != domain.PhaseLobby {
		t.Fatalf("phase = %s, want lobby", h.engine.Phase())
	}

	h.join(t, "a", "Blue")
	h.start(t)
	if h.engine.Phase() != domain.PhaseInProgress {
		t.Fatalf("phase = %s, want in_progress", h.engine.Phase())
	}
	if !h.engine.StartedAt().Equal(h.clock) {
		t.Fatalf("StartedAt = %v, want %v", h.engine.StartedAt(), h.clock)
	}
	if _, ok := h.engine.TeamByName("Red"); ok {
		t.Fatalf("empty team should be dropped at start")
	}
	if h.count(EventMatchStarted) != 1 {
		t.Fatalf("match_started events = %d, want 1", h.count(EventMatchStarted))
	}
	if err := h.engine.Start(); !errors.Is(err, ErrNotInLobby) {
		t.Fatalf("second Start error = %v, want ErrNotInLobby", err)
	}
	if len(h.scheduler.timers) != 0 {
		t.Fatalf("standard mode should not schedule a timer")
	}
}

func TestStartBuildsFreshCardAndClearsLedgers(t *testing.T) {
	h := newHarness(t, nil)
	lobbyCard := h.engine.Card()
	h.join(t, "a", "Red")
	team, _ := h.engine.TeamByName("Red")
	_ = team.Ledger().Complete(domain.NewItemQuest("leftover"), h.clock)

	h.start(t)
	if h.engine.Card().ID() == lobbyCard.ID() {
		t.Fatalf("start should build a new card")
	}
	if team.Ledger().Len() != 0 {
		t.Fatalf("ledger should be cleared at start, has %d", team.Ledger().Len())
	}
}

func TestOnQuestAcquiredIgnores(t *testing.T) {
	h := newHarness(t, nil)
	h.join(t, "a", "Red")
	h.engine.AddPlayer(domain.Player{ID: "loner"})
	onCard := h.engine.Card().Cell(0)

	if got := h.engine.OnQuestAcquired("a", onCard); got != IgnoredNotInProgress {
		t.Fatalf("lobby acquire = %s, want ignored_not_in_progress", got)
	}

	h.start(t)
	onCard = h.engine.Card().Cell(0)
	if got := h.engine.OnQuestAcquired("a", domain.NewItemQuest("not_on_card")); got != IgnoredNotOnCard {
		t.Fatalf("off-card acquire = %s", got)
	}
	if got := h.engine.OnQuestAcquired("loner", onCard); got != IgnoredNoTeam {
		t.Fatalf("teamless acquire = %s", got)
	}
	if got := h.engine.OnQuestAcquired("a", onCard); got != Accepted {
		t.Fatalf("first acquire = %s, want accepted", got)
	}
	if got := h.engine.OnQuestAcquired("a", onCard); got != IgnoredDuplicate {
		t.Fatalf("second acquire = %s, want ignored_duplicate", got)
	}

	team, _ := h.engine.TeamOf("a")
	if team.Ledger().Len() != 1 {
		t.Fatalf("ledger has %d entries, want 1", team.Ledger().Len())
	}
	if h.count(EventTeamFoundQuest) != 1 {
		t.Fatalf("team_found_quest events = %d, want 1", h.count(EventTeamFoundQuest))
	}
	if h.count(EventPlayerError) != 0 {
		t.Fatalf("ignored events must not notify players")
	}
}

func TestLockedModeExclusivity(t *testing.T) {
	h := newHarness(t, func(s *domain.Settings) { s.GameMode = domain.ModeLocked })
	h.join(t, "a", "Red")
	h.join(t, "b", "Blue")
	h.start(t)

	q := h.engine.Card().Cell(3)
	if got := h.engine.OnQuestAcquired("a", q); got != Accepted {
		t.Fatalf("Red acquire = %s", got)
	}
	if got := h.engine.OnQuestAcquired("b", q); got != RejectedLocked {
		t.Fatalf("Blue acquire = %s, want rejected_locked", got)
	}
	blue, _ := h.engine.TeamByName("Blue")
	if blue.Ledger().Has(q) {
		t.Fatalf("Blue ledger should not hold a locked quest")
	}
	ev, ok := h.last(EventPlayerError)
	if !ok || len(ev.Recipients) != 1 || ev.Recipients[0] != "b" {
		t.Fatalf("rejection should notify only the acting player, got %+v", ev)
	}
}

func TestSharedQuestsOutsideLockedMode(t *testing.T) {
	for _, mode := range []domain.GameMode{domain.ModeStandard, domain.ModeBlackout, domain.ModeTimed} {
		t.Run(string(mode), func(t *testing.T) {
			h := newHarness(t, func(s *domain.Settings) { s.GameMode = mode })
			h.join(t, "a", "Red")
			h.join(t, "b", "Blue")
			h.start(t)
			q := h.engine.Card().Cell(0)
			if got := h.engine.OnQuestAcquired("a", q); got != Accepted {
				t.Fatalf("Red acquire = %s", got)
			}
			if got := h.engine.OnQuestAcquired("b", q); got != Accepted {
				t.Fatalf("Blue acquire = %s", got)
			}
		})
	}
}

func TestLockedQuotaEndsMatchOnce(t *testing.T) {
	h := newHarness(t, func(s *domain.Settings) { s.GameMode = domain.ModeLocked })
	h.join(t, "a", "Red")
	h.join(t, "b", "Blue")
	h.start(t)
	card := h.engine.Card()

	for i := 0; i < 13; i++ {
		if h.count(EventMatchEnded) != 0 {
			t.Fatalf("match ended early after %d completions", i)
		}
		if got := h.engine.OnQuestAcquired("a", card.Cell(i)); got != Accepted {
			t.Fatalf("acquire %d = %s", i, got)
		}
	}
	if h.count(EventMatchEnded) != 1 {
		t.Fatalf("match_ended events = %d, want 1", h.count(EventMatchEnded))
	}
	ev, _ := h.last(EventMatchEnded)
	payload := ev.Payload.(MatchEndedPayload)
	if len(payload.Winners) != 1 || payload.Winners[0].Name != "Red" || payload.Draw {
		t.Fatalf("winners = %+v, want [Red]", payload.Winners)
	}
	if h.engine.Phase() != domain.PhaseLobby {
		t.Fatalf("phase = %s, want lobby", h.engine.Phase())
	}
	// Late acquisitions after the end change nothing.
	if got := h.engine.OnQuestAcquired("a", card.Cell(20)); got != IgnoredNotInProgress {
		t.Fatalf("late acquire = %s", got)
	}
	if h.count(EventMatchEnded) != 1 {
		t.Fatalf("match_ended events = %d, want 1", h.count(EventMatchEnded))
	}
}

func TestStandardDiagonalWin(t *testing.T) {
	h := newHarness(t, nil)
	h.join(t, "a", "Red")
	h.start(t)
	card := h.engine.Card()

	for i, cell := range []int{24, 6, 18, 0, 12} {
		if h.count(EventMatchEnded) != 0 {
			t.Fatalf("match ended after %d diagonal cells", i)
		}
		h.engine.OnQuestAcquired("a", card.Cell(cell))
	}
	if h.count(EventMatchEnded) != 1 {
		t.Fatalf("diagonal should end the match")
	}
	winners := h.engine.LastWinners()
	if len(winners) != 1 || winners[0].Name != "Red" || winners[0].Members[0] != "a" {
		t.Fatalf("LastWinners() = %+v", winners)
	}
}

func TestTimedModeTie(t *testing.T) {
	h := newHarness(t, func(s *domain.Settings) {
		s.GameMode = domain.ModeTimed
		s.DurationMinutes = 10
	})
	h.join(t, "a", "Red")
	h.join(t, "b", "Blue")
	h.join(t, "c", "Green")
	h.start(t)

	if len(h.scheduler.timers) != 1 || h.scheduler.timers[0].d != 10*time.Minute {
		t.Fatalf("expected one 10m timer, got %+v", h.scheduler.timers)
	}
	card := h.engine.Card()
	for i := 0; i < 7; i++ {
		h.engine.OnQuestAcquired("a", card.Cell(i))
		h.engine.OnQuestAcquired("b", card.Cell(24-i))
	}
	h.engine.OnQuestAcquired("c", card.Cell(12))
	if h.count(EventMatchEnded) != 0 {
		t.Fatalf("timed mode should not end before expiry")
	}

	leaders := h.engine.LeadingTeams()
	if len(leaders) != 2 {
		t.Fatalf("LeadingTeams() = %d teams, want 2", len(leaders))
	}

	h.clock = h.clock.Add(10 * time.Minute)
	h.scheduler.timers[0].fire()

	ev, ok := h.last(EventMatchEnded)
	if !ok {
		t.Fatalf("timer expiry should end the match")
	}
	payload := ev.Payload.(MatchEndedPayload)
	if len(payload.Winners) != 2 || !payload.Draw {
		t.Fatalf("winners = %+v, want a two-way draw", payload.Winners)
	}
	if payload.Elapsed != 10*time.Minute {
		t.Fatalf("elapsed = %v, want 10m", payload.Elapsed)
	}
}

func TestStaleTimerIsIgnored(t *testing.T) {
	h := newHarness(t, func(s *domain.Settings) { s.GameMode = domain.ModeTimed })
	h.join(t, "a", "Red")
	h.start(t)
	first := h.scheduler.timers[0]

	if err := h.engine.End(nil); err != nil {
		t.Fatalf("End error: %v", err)
	}
	if !first.stopped {
		t.Fatalf("End should cancel the timer")
	}

	h.join(t, "a", "Red")
	h.start(t)
	// The first match's callback arrives late; it must not end the second match.
	first.fire()
	if h.engine.Phase() != domain.PhaseInProgress {
		t.Fatalf("stale timer ended the new match")
	}
	if h.count(EventMatchEnded) != 1 {
		t.Fatalf("match_ended events = %d, want 1", h.count(EventMatchEnded))
	}
}

func TestEndOutsideMatch(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.engine.End(nil); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("End error = %v, want ErrNotInProgress", err)
	}
}

func TestEndTearsDown(t *testing.T) {
	h := newHarness(t, nil)
	h.join(t, "a", "Red")
	h.join(t, "b", "Blue")
	h.start(t)
	red, _ := h.engine.TeamByName("Red")
	if err := h.engine.End([]*domain.Team{red}); err != nil {
		t.Fatalf("End error: %v", err)
	}
	if len(h.engine.Teams()) != 0 || len(h.engine.Players()) != 0 {
		t.Fatalf("End should clear teams and players")
	}
	if h.engine.Winners() != nil {
		t.Fatalf("winners should be empty outside finishing")
	}
	if h.engine.Elapsed() != 0 {
		t.Fatalf("Elapsed() = %v in lobby", h.engine.Elapsed())
	}
}

func TestUpdateSettings(t *testing.T) {
	h := newHarness(t, nil)
	before := h.engine.Card().ID()

	if err := h.engine.UpdateSettings(func(s *domain.Settings) { s.DurationMinutes = 0 }); !errors.Is(err, domain.ErrInvalidSettings) {
		t.Fatalf("invalid update error = %v", err)
	}
	if h.engine.Settings().DurationMinutes != domain.DefaultDurationMinutes {
		t.Fatalf("invalid update should not apply")
	}

	if err := h.engine.UpdateSettings(func(s *domain.Settings) { s.GameMode = domain.ModeBlackout }); err != nil {
		t.Fatalf("UpdateSettings error: %v", err)
	}
	if h.engine.Card().ID() != before {
		t.Fatalf("mode change should keep the card")
	}

	if err := h.engine.UpdateSettings(func(s *domain.Settings) { s.Difficulty = domain.DifficultyHard }); err != nil {
		t.Fatalf("UpdateSettings error: %v", err)
	}
	if h.engine.Card().ID() == before {
		t.Fatalf("difficulty change should regenerate the card")
	}

	h.join(t, "a", "Red")
	h.start(t)
	err := h.engine.UpdateSettings(func(s *domain.Settings) { s.DurationMinutes = 60 })
	if !errors.Is(err, ErrNotInLobby) {
		t.Fatalf("in-match update error = %v, want ErrNotInLobby", err)
	}
	if err := h.engine.RegenerateCard(); !errors.Is(err, ErrNotInLobby) {
		t.Fatalf("in-match regenerate error = %v, want ErrNotInLobby", err)
	}
}

func TestUpdateSettingsTeamSize(t *testing.T) {
	h := newHarness(t, func(s *domain.Settings) { s.MaxTeamSize = 1 })
	h.join(t, "a", "Red")
	h.engine.AddPlayer(domain.Player{ID: "b"})
	if _, err := h.engine.JoinTeam("b", "Red"); !errors.Is(err, domain.ErrTeamFull) {
		t.Fatalf("JoinTeam error = %v, want ErrTeamFull", err)
	}
	if err := h.engine.UpdateSettings(func(s *domain.Settings) { s.MaxTeamSize = 2 }); err != nil {
		t.Fatalf("UpdateSettings error: %v", err)
	}
	if _, err := h.engine.JoinTeam("b", "Red"); err != nil {
		t.Fatalf("JoinTeam error: %v", err)
	}
	if _, err := h.engine.JoinTeam("ghost", "Red"); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("JoinTeam(ghost) error = %v", err)
	}
	if _, err := h.engine.JoinTeam("b", "Nope"); !errors.Is(err, domain.ErrUnknownTeam) {
		t.Fatalf("JoinTeam(Nope) error = %v", err)
	}
}

func TestRandomTeamMode(t *testing.T) {
	h := newHarness(t, func(s *domain.Settings) {
		s.TeamMode = domain.TeamsRandom
		s.MaxTeamSize = 3
	})
	if err := h.engine.Start(); !errors.Is(err, ErrNoTeams) {
		t.Fatalf("Start without players error = %v", err)
	}
	for i := 0; i < 7; i++ {
		h.engine.AddPlayer(domain.Player{ID: fmt.Sprintf("p%d", i)})
	}
	h.join(t, "p0", "Lobby Team")
	h.start(t)

	teams := h.engine.Teams()
	if len(teams) != 3 {
		t.Fatalf("random mode made %d teams, want 3", len(teams))
	}
	assigned := 0
	for i, team := range teams {
		if team.Name() != fmt.Sprintf(RandomTeamNameFormat, i+1) {
			t.Fatalf("team %d named %q", i, team.Name())
		}
		if team.Size() > 3 || team.Size() == 0 {
			t.Fatalf("%s has %d members", team.Name(), team.Size())
		}
		assigned += team.Size()
	}
	if assigned != 7 {
		t.Fatalf("%d players assigned, want 7", assigned)
	}
	if _, ok := h.engine.TeamByName("Lobby Team"); ok {
		t.Fatalf("lobby teams should be replaced")
	}
}

func TestRandomTeamModeLargeTeamSize(t *testing.T) {
	h := newHarness(t, func(s *domain.Settings) { s.TeamMode = domain.TeamsRandom })
	if err := h.engine.UpdateSettings(func(s *domain.Settings) { s.MaxTeamSize = math.MaxInt }); !errors.Is(err, domain.ErrInvalidSettings) {
		t.Fatalf("oversized team error = %v, want ErrInvalidSettings", err)
	}
	if err := h.engine.UpdateSettings(func(s *domain.Settings) { s.MaxTeamSize = domain.MaxMaxTeamSize }); err != nil {
		t.Fatalf("UpdateSettings error: %v", err)
	}
	h.engine.AddPlayer(domain.Player{ID: "a"})
	h.engine.AddPlayer(domain.Player{ID: "b"})
	h.start(t)

	teams := h.engine.Teams()
	if len(teams) != 1 || teams[0].Size() != 2 {
		t.Fatalf("teams = %d, want one team of 2", len(teams))
	}
}

func TestRobbersMode(t *testing.T) {
	h := newHarness(t, nil)
	h.join(t, "a", "Red")
	h.start(t)
	q := h.engine.Card().Cell(0)
	h.engine.OnQuestAcquired("a", q)
	if _, err := h.engine.RevokeQuest("a", q); !errors.Is(err, ErrRobbersOff) {
		t.Fatalf("RevokeQuest error = %v, want ErrRobbersOff", err)
	}
	_ = h.engine.End(nil)

	h = newHarness(t, func(s *domain.Settings) {
		s.RobbersMode = true
		s.GameMode = domain.ModeLocked
	})
	h.join(t, "a", "Red")
	h.join(t, "b", "Blue")
	h.start(t)
	q = h.engine.Card().Cell(0)
	h.engine.OnQuestAcquired("a", q)

	revoked, err := h.engine.RevokeQuest("a", q)
	if err != nil || !revoked {
		t.Fatalf("RevokeQuest = %v, %v", revoked, err)
	}
	if h.count(EventQuestLost) != 1 {
		t.Fatalf("quest_lost events = %d, want 1", h.count(EventQuestLost))
	}
	// The locked quest is free again for other teams.
	if got := h.engine.OnQuestAcquired("b", q); got != Accepted {
		t.Fatalf("Blue acquire after revoke = %s", got)
	}
	if revoked, _ := h.engine.RevokeQuest("a", q); revoked {
		t.Fatalf("second revoke should report false")
	}
}

func TestRemovePlayerDeletesEmptyTeam(t *testing.T) {
	h := newHarness(t, nil)
	h.join(t, "a", "Red")
	if !h.engine.RemovePlayer("a") {
		t.Fatalf("RemovePlayer should report true")
	}
	if _, ok := h.engine.TeamByName("Red"); ok {
		t.Fatalf("empty team should be deleted")
	}
	if h.engine.HasPlayer("a") {
		t.Fatalf("player should be gone")
	}
}

func TestResetAbandonsMatch(t *testing.T) {
	h := newHarness(t, func(s *domain.Settings) { s.GameMode = domain.ModeTimed })
	h.join(t, "a", "Red")
	h.start(t)
	timer := h.scheduler.timers[0]
	h.engine.Reset()
	if h.engine.Phase() != domain.PhaseLobby || !timer.stopped {
		t.Fatalf("Reset should return to lobby and cancel the timer")
	}
	timer.fire()
	if h.count(EventMatchEnded) != 0 {
		t.Fatalf("reset match should not announce winners")
	}
}

func TestSnapshotOrdersTeams(t *testing.T) {
	h := newHarness(t, nil)
	h.join(t, "a", "Red")
	h.join(t, "b", "Blue")
	h.start(t)
	card := h.engine.Card()
	h.engine.OnQuestAcquired("b", card.Cell(0))
	h.engine.OnQuestAcquired("b", card.Cell(1))
	h.engine.OnQuestAcquired("a", card.Cell(2))
	h.clock = h.clock.Add(90 * time.Second)

	snap := h.engine.Snapshot()
	if snap.Phase != domain.PhaseInProgress || snap.CardID != card.ID() || len(snap.Quests) != 25 {
		t.Fatalf("unexpected snapshot header: %+v", snap)
	}
	if snap.Elapsed != 90*time.Second {
		t.Fatalf("Elapsed = %v, want 90s", snap.Elapsed)
	}
	if snap.Teams[0].Name != "Blue" || len(snap.Teams[0].Completed) != 2 {
		t.Fatalf("leader = %+v, want Blue with 2", snap.Teams[0])
	}
	if snap.Teams[1].Name != "Red" || len(snap.Teams[1].Completed) != 1 {
		t.Fatalf("second = %+v, want Red with 1", snap.Teams[1])
	}
}

func TestTeamPaging(t *testing.T) {
	h := newHarness(t, nil)
	h.join(t, "a", "Red")
	h.join(t, "b", "Blue")
	red, _ := h.engine.TeamByName("Red")
	blue, _ := h.engine.TeamByName("Blue")
	if next, _ := h.engine.NextTeam(blue); next != red {
		t.Fatalf("NextTeam(Blue) should wrap to Red")
	}
	if prev, _ := h.engine.PreviousTeam(red); prev != blue {
		t.Fatalf("PreviousTeam(Red) should wrap to Blue")
	}
	if err := h.engine.RenameTeam("Red", "Blue"); !errors.Is(err, domain.ErrNameConflict) {
		t.Fatalf("RenameTeam error = %v", err)
	}
}
