package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"bingo/internal/app"
	"bingo/internal/bot"
	"bingo/internal/config"
	"bingo/internal/domain"
	"bingo/internal/schedule"
)

// simEpoch anchors the simulated clock so runs with the same seed match.
var simEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type simulation struct {
	index      int
	cfg        *config.Config
	catalog    *domain.Catalog
	level      bot.BotLevel
	identities []bot.BotIdentity
	rng        *rand.Rand
	logger     *slog.Logger
}

type result struct {
	Winners  []string
	Ticks    int64
	Elapsed  time.Duration
	TimedOut bool
}

func (r result) String() string {
	var b strings.Builder
	switch len(r.Winners) {
	case 0:
		b.WriteString("no winner")
	case 1:
		fmt.Fprintf(&b, "winner %s", r.Winners[0])
	default:
		fmt.Fprintf(&b, "draw between %s", strings.Join(r.Winners, ", "))
	}
	fmt.Fprintf(&b, " after %s (%d ticks)", domain.FormatElapsed(r.Elapsed), r.Ticks)
	if r.TimedOut {
		b.WriteString(", stopped at tick limit")
	}
	return b.String()
}

// run plays one match to the end on a simulated clock driven by ticks.
func (s *simulation) run(ctx context.Context) (result, error) {
	settings := s.cfg.MatchSettings()
	scheduler := schedule.NewTickScheduler(s.cfg.TickRate)
	tickLength := time.Second / time.Duration(s.cfg.TickRate)
	clock := func() time.Time {
		return simEpoch.Add(time.Duration(scheduler.Now()) * tickLength)
	}
	announcer := &logAnnouncer{logger: s.logger}

	engine, err := app.NewEngine(s.catalog, settings, announcer, scheduler, app.WithRand(s.rng), app.WithClock(clock))
	if err != nil {
		return result{}, fmt.Errorf("match %d: %w", s.index, err)
	}

	agents := make([]*bot.Agent, len(s.identities))
	for i, identity := range s.identities {
		if agents[i], err = bot.NewAgent(identity, s.level, s.rng); err != nil {
			return result{}, err
		}
		engine.AddPlayer(agents[i].Player())
	}
	if settings.TeamMode == domain.TeamsManual {
		if err := s.formTeams(engine, agents); err != nil {
			return result{}, fmt.Errorf("match %d: %w", s.index, err)
		}
	}
	if err := engine.Start(); err != nil {
		return result{}, fmt.Errorf("match %d: %w", s.index, err)
	}

	var res result
	for tick := int64(1); engine.Phase() == domain.PhaseInProgress; tick++ {
		if err := ctx.Err(); err != nil {
			engine.Reset()
			return result{}, err
		}
		if tick > s.cfg.Sim.MaxTicks {
			s.logger.Warn("tick limit reached, ending with the leaders", "ticks", s.cfg.Sim.MaxTicks)
			res.TimedOut = true
			_ = engine.End(engine.LeadingTeams())
			break
		}
		res.Ticks = tick
		scheduler.Advance(tick)
		s.step(engine, agents, settings)
	}

	for _, w := range engine.LastWinners() {
		res.Winners = append(res.Winners, w.Name)
	}
	res.Elapsed = announcer.elapsed
	return res, nil
}

// formTeams splits the agents into BotsPerTeam-sized teams in roster order.
func (s *simulation) formTeams(engine *app.Engine, agents []*bot.Agent) error {
	per := s.cfg.Sim.BotsPerTeam
	for t := 0; t*per < len(agents); t++ {
		name := fmt.Sprintf(app.RandomTeamNameFormat, t+1)
		if _, err := engine.CreateTeam(name); err != nil {
			return err
		}
		for _, a := range agents[t*per : min((t+1)*per, len(agents))] {
			if _, err := engine.JoinTeam(a.ID, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// step lets every agent act once, in a fresh random order, until the match ends.
func (s *simulation) step(engine *app.Engine, agents []*bot.Agent, settings domain.Settings) {
	s.rng.Shuffle(len(agents), func(i, j int) { agents[i], agents[j] = agents[j], agents[i] })
	for _, a := range agents {
		if engine.Phase() != domain.PhaseInProgress {
			return
		}
		team, ok := engine.TeamOf(a.ID)
		if !ok {
			continue
		}
		view := bot.View{
			Card:    engine.Card(),
			Mode:    settings.GameMode,
			Robbers: settings.RobbersMode,
			Team:    team,
			Teams:   engine.Teams(),
		}
		switch action := a.Act(view); action.Kind {
		case bot.ActionAcquire:
			outcome := engine.OnQuestAcquired(a.ID, action.Quest)
			s.logger.Debug("acquired", "player", a.Name, "quest", action.Quest.String(), "result", outcome.String())
		case bot.ActionLose:
			if _, err := engine.RevokeQuest(a.ID, action.Quest); err != nil {
				s.logger.Debug("revoke failed", "player", a.Name, "error", err)
			}
		}
	}
}
