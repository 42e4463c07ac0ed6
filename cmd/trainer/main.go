// Trainer runs self-play training until interrupted, growing the shared
// transposition table on disk. Ctrl-C checkpoints and exits cleanly; the
// next run resumes where this one stopped.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"connect3/internal/config"
	"connect3/internal/train"
	"connect3/internal/ttable"
)

var (
	configPath = flag.String("config", "", "path to YAML config file")
	maxGames   = flag.Int("games", 0, "stop after this many games (0 = run until interrupted)")
	verbose    = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal().Err(err).Msg("bad configuration")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tt := ttable.Open(cfg.DBPath, log)
	defer tt.Close()

	trainer := train.New(train.Config{
		Size:               cfg.Size,
		StartBudget:        cfg.Budget.Std(),
		BudgetStep:         cfg.Trainer.BudgetStep.Std(),
		StalemateThreshold: cfg.Trainer.StalemateThreshold,
		CheckpointEvery:    cfg.Trainer.CheckpointEvery,
		MaxGames:           pick(*maxGames, cfg.Trainer.MaxGames),
		PlyCap:             cfg.PlyCap,
	}, tt, cfg.Weights, log)

	if err := trainer.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("training run failed")
	}
	log.Info().
		Int("games", trainer.Games()).
		Int("entries", tt.Len()).
		Msg("training run finished")
}

func pick(flagValue, configValue int) int {
	if flagValue != 0 {
		return flagValue
	}
	return configValue
}
