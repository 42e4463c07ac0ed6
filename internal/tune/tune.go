// Package tune searches for better evaluation weights by hill climbing:
// perturb the current best weight vector, play a small color-swapped
// tournament between the perturbed and the incumbent weights, and keep the
// challenger only when it wins outright. Losing or drawing a tournament
// never replaces the incumbent, so the final vector is at least as strong
// as the starting one under this protocol.
package tune

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"connect3/internal/board"
	"connect3/internal/eval"
	"connect3/internal/game"
	"connect3/internal/search"
	"connect3/internal/ttable"
)

// Config controls a tuning run.
type Config struct {
	Size       board.Size
	Budget     time.Duration // per-move think time inside tournaments
	PlyCap     int
	Iterations int     // candidate vectors to try
	Patience   int     // consecutive rejections before stopping early
	Rate       float64 // per-weight perturbation probability
	Step       float64 // perturbation magnitude
	Seed       int64
}

// Result summarizes a finished climb.
type Result struct {
	Weights      eval.Weights
	Evaluated    int // tournaments played
	Improvements int // candidates that replaced the incumbent
}

// Tuner runs the hill climb.
type Tuner struct {
	cfg Config
	rng *rand.Rand
	log zerolog.Logger
}

// New creates a tuner. Zero-valued knobs get workable defaults.
func New(cfg Config, log zerolog.Logger) *Tuner {
	if cfg.Iterations <= 0 {
		cfg.Iterations = 50
	}
	if cfg.Patience <= 0 {
		cfg.Patience = 10
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 0.25
	}
	if cfg.Step <= 0 {
		cfg.Step = 2
	}
	return &Tuner{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed)), log: log}
}

// Climb hill-climbs from the starting weights and returns the best vector
// found. The context aborts the run between tournaments.
func (t *Tuner) Climb(ctx context.Context, start eval.Weights) (Result, error) {
	res := Result{Weights: start.Clone()}
	rejected := 0

	for i := 0; i < t.cfg.Iterations && rejected < t.cfg.Patience; i++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		cand := t.perturb(res.Weights)
		wins, err := t.tournament(cand, res.Weights)
		if err != nil {
			return res, err
		}
		res.Evaluated++

		if wins > 0 {
			res.Weights = cand
			res.Improvements++
			rejected = 0
			t.log.Info().Int("iteration", i).Floats64("weights", cand).
				Msg("challenger accepted")
		} else {
			rejected++
		}
	}
	return res, nil
}

// perturb returns a copy of w with each weight nudged with probability
// Rate. Weights stay non-negative; at least one weight always changes.
func (t *Tuner) perturb(w eval.Weights) eval.Weights {
	for {
		cand := w.Clone()
		changed := false
		for i := range cand {
			if t.rng.Float64() >= t.cfg.Rate {
				continue
			}
			cand[i] += (t.rng.Float64()*2 - 1) * t.cfg.Step
			if cand[i] < 0 {
				cand[i] = 0
			}
			changed = true
		}
		if changed {
			return cand
		}
	}
}

// tournament plays two games with colors swapped and returns the
// challenger's net wins. Both games run concurrently; every engine gets its
// own throwaway table so neither side profits from the other's search.
func (t *Tuner) tournament(challenger, incumbent eval.Weights) (int, error) {
	results := make([]*game.Record, 2)
	var g errgroup.Group
	for i := range results {
		i := i
		challengerIsWhite := i == 0
		g.Go(func() error {
			rec, err := t.playGame(challenger, incumbent, challengerIsWhite)
			if err != nil {
				return err
			}
			results[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("tournament: %w", err)
	}

	wins := 0
	for i, rec := range results {
		if rec.Winner == board.None {
			continue
		}
		challengerColor := board.Black
		if i == 0 {
			challengerColor = board.White
		}
		if rec.Winner == challengerColor {
			wins++
		} else {
			wins--
		}
	}
	return wins, nil
}

func (t *Tuner) playGame(challenger, incumbent eval.Weights, challengerIsWhite bool) (*game.Record, error) {
	newAgent := func(w eval.Weights) game.Agent {
		return game.NewEngineAgent(search.New(ttable.OpenMemory(t.log), eval.New(w)))
	}
	white, black := newAgent(challenger), newAgent(incumbent)
	if !challengerIsWhite {
		white, black = black, white
	}
	m := &game.Match{White: white, Black: black, Budget: t.cfg.Budget, PlyCap: t.cfg.PlyCap}
	return m.Play(t.cfg.Size)
}
