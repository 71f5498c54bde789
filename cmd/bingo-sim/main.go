// Command bingo-sim plays bingo matches between bots without a Nakama
// server. It reads the same BINGO_* variables as the runtime module, plus the
// BINGO_SIM_* ones, from the environment or a .env file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bingo/internal/bot"
	"bingo/internal/catalog"
	"bingo/internal/config"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Error loading .env file: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "bingo-sim: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout, stderr io.Writer) error {
	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}

	logger := slog.New(tint.NewHandler(stderr, &tint.Options{Level: cfg.LogLevel, TimeFormat: time.TimeOnly}))
	slog.SetDefault(logger)

	items, fromFile, err := catalog.LoadOrDefault(cfg.CatalogPath)
	if err != nil {
		return err
	}
	logger.Debug("catalog loaded", "entries", items.Len(), "from_file", fromFile)

	level, err := bot.ParseBotLevel(cfg.Sim.BotLevel)
	if err != nil {
		return err
	}
	var pool []bot.BotIdentity
	if cfg.Sim.Roster != "" {
		if pool, err = bot.LoadIdentities(cfg.Sim.Roster); err != nil {
			return err
		}
	}
	if cfg.Sim.Matches < 1 || cfg.Sim.Teams < 1 || cfg.Sim.BotsPerTeam < 1 {
		return fmt.Errorf("need at least one match, team and bot per team, got %d/%d/%d", cfg.Sim.Matches, cfg.Sim.Teams, cfg.Sim.BotsPerTeam)
	}

	seed := cfg.Sim.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Info("starting simulation",
		"matches", cfg.Sim.Matches,
		"mode", cfg.GameMode,
		"difficulty", cfg.Difficulty,
		"bots", level,
		"seed", seed,
	)

	results := make([]result, cfg.Sim.Matches)
	g, ctx := errgroup.WithContext(ctx)
	for i := range results {
		sim := &simulation{
			index:      i + 1,
			cfg:        cfg,
			catalog:    items,
			level:      level,
			identities: bot.Roster(cfg.Sim.Teams*cfg.Sim.BotsPerTeam, pool),
			rng:        rand.New(rand.NewSource(seed + int64(i))),
			logger:     logger.With("match", i+1),
		}
		g.Go(func() error {
			r, err := sim.run(ctx)
			results[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, r := range results {
		fmt.Fprintf(stdout, "match %d: %s\n", i+1, r)
	}
	return nil
}
