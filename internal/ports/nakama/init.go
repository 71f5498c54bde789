package nakama

import (
	"context"
	"database/sql"
	"fmt"

	"bingo/internal/app"
	"bingo/internal/catalog"
	"bingo/internal/config"
	"bingo/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	environ, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	cfg, err := config.Load(environ)
	if err != nil {
		return err
	}

	items, fromFile, err := catalog.LoadOrDefault(cfg.CatalogPath)
	if err != nil {
		return err
	}
	if fromFile {
		logger.Info("Loaded %d catalog entries from %s.", items.Len(), cfg.CatalogPath)
	} else if cfg.CatalogPath != "" {
		logger.Warn("Catalog %s not found, using the bundled list.", cfg.CatalogPath)
	}

	// A lobby card must be possible at every difficulty a client can pick.
	for _, d := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard, domain.DifficultyExtreme} {
		if eligible := items.Eligible(d); eligible < domain.DefaultCardSize*domain.DefaultCardSize {
			logger.Warn("Catalog has %d entries for %s, cards at that difficulty will fail.", eligible, d)
		}
	}
	if _, err := domain.NewCardGenerator(nil, domain.DefaultCardSize).Generate(items, cfg.Difficulty); err != nil {
		return fmt.Errorf("default difficulty %s: %w", cfg.Difficulty, err)
	}

	vivox := app.NewVivoxService(cfg.Vivox.Secret, cfg.Vivox.Issuer, cfg.Vivox.Domain)
	if err := RegisterRPCs(initializer, vivox); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameBingo, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(cfg, items), nil
	}); err != nil {
		return err
	}

	logger.Info("Bingo Go module loaded (mode=%s, difficulty=%s, tick_rate=%d).", cfg.GameMode, cfg.Difficulty, cfg.TickRate)
	return nil
}
