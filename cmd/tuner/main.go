// Tuner hill-climbs the evaluation weights through self-play tournaments
// and prints the best vector found as YAML, ready to paste into a config
// file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"connect3/internal/config"
	"connect3/internal/tune"
)

var (
	configPath = flag.String("config", "", "path to YAML config file")
	iterations = flag.Int("n", 0, "candidate vectors to try (overrides config)")
	seed       = flag.Int64("seed", 0, "random seed (0 seeds from the clock)")
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

	tunerSeed := *seed
	if tunerSeed == 0 {
		tunerSeed = time.Now().UnixNano()
	}
	tunerIterations := cfg.Tuner.Iterations
	if *iterations > 0 {
		tunerIterations = *iterations
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tuner := tune.New(tune.Config{
		Size:       cfg.Size,
		Budget:     cfg.Tuner.Budget.Std(),
		PlyCap:     cfg.PlyCap,
		Iterations: tunerIterations,
		Patience:   cfg.Tuner.Patience,
		Rate:       cfg.Tuner.Rate,
		Step:       cfg.Tuner.Step,
		Seed:       tunerSeed,
	}, log)

	res, err := tuner.Climb(ctx, cfg.Weights)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("tuning run failed")
	}
	log.Info().
		Int("tournaments", res.Evaluated).
		Int("improvements", res.Improvements).
		Msg("tuning run finished")

	out, err := yaml.Marshal(map[string]any{"weights": res.Weights})
	if err != nil {
		log.Fatal().Err(err).Msg("encoding weights")
	}
	fmt.Print(string(out))
}
