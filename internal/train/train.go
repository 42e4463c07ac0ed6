// Package train runs self-play training: the engine plays itself from the
// starting position, every finished game is fed to the outcome learner, and
// the shared transposition table is checkpointed to disk at intervals.
// Long draw streaks mean the engine cannot see far enough to break the
// symmetry, so the per-move budget is raised and the streak restarts.
package train

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"connect3/internal/board"
	"connect3/internal/eval"
	"connect3/internal/game"
	"connect3/internal/learn"
	"connect3/internal/search"
	"connect3/internal/ttable"
)

const stateKey = "trainer/state"

// Config controls a training run.
type Config struct {
	Size               board.Size
	StartBudget        time.Duration // initial per-move think time
	BudgetStep         time.Duration // added on each escalation
	StalemateThreshold int           // consecutive draws before escalating
	CheckpointEvery    int           // games between table flushes
	MaxGames           int           // 0 runs until the context is cancelled
	PlyCap             int
}

// state is the resumable progress record stored in the table's meta space.
type state struct {
	Games  int           `json:"games"`
	Streak int           `json:"streak"`
	Budget time.Duration `json:"budget"`
}

// Trainer drives the self-play loop.
type Trainer struct {
	cfg     Config
	tt      *ttable.Table
	learner *learn.Learner
	log     zerolog.Logger

	// newAgents builds both players for one game. Overridable so tests can
	// substitute scripted movers for the search engine.
	newAgents func() (white, black game.Agent)

	st state
}

// New creates a trainer whose games share the given table, both for search
// and for learner corrections.
func New(cfg Config, tt *ttable.Table, weights eval.Weights, log zerolog.Logger) *Trainer {
	if cfg.StalemateThreshold <= 0 {
		cfg.StalemateThreshold = 10
	}
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = 20
	}
	ev := eval.New(weights)
	t := &Trainer{
		cfg:     cfg,
		tt:      tt,
		learner: learn.New(tt, ev, 0, log),
		log:     log,
	}
	t.newAgents = func() (game.Agent, game.Agent) {
		// Fresh engines per game, same table: searches accumulate.
		return game.NewEngineAgent(search.New(tt, ev)),
			game.NewEngineAgent(search.New(tt, ev))
	}
	return t
}

// Run executes the training loop until MaxGames is reached or the context
// is cancelled, whichever comes first. Progress survives restarts: the
// game count, draw streak and escalated budget are checkpointed alongside
// the table and reloaded here.
func (t *Trainer) Run(ctx context.Context) error {
	t.st = state{Budget: t.cfg.StartBudget}
	if found, err := t.tt.GetMeta(stateKey, &t.st); err != nil {
		return fmt.Errorf("loading trainer state: %w", err)
	} else if found {
		t.log.Info().
			Int("games", t.st.Games).
			Dur("budget", t.st.Budget).
			Msg("resuming training run")
	}

	for t.cfg.MaxGames == 0 || t.st.Games < t.cfg.MaxGames {
		select {
		case <-ctx.Done():
			return t.checkpoint()
		default:
		}

		if err := t.playOne(); err != nil {
			return err
		}
		if t.st.Games%t.cfg.CheckpointEvery == 0 {
			if err := t.checkpoint(); err != nil {
				return err
			}
		}
	}
	return t.checkpoint()
}

// Games reports how many games have been completed, counting any resumed
// progress.
func (t *Trainer) Games() int { return t.st.Games }

// Budget reports the current per-move budget after escalations.
func (t *Trainer) Budget() time.Duration { return t.st.Budget }

func (t *Trainer) playOne() error {
	white, black := t.newAgents()
	m := &game.Match{
		White:  white,
		Black:  black,
		Budget: t.st.Budget,
		PlyCap: t.cfg.PlyCap,
	}
	rec, err := m.Play(t.cfg.Size)
	if err != nil {
		return fmt.Errorf("self-play game %d: %w", t.st.Games+1, err)
	}
	t.st.Games++

	ev := t.log.Info().
		Int("game", t.st.Games).
		Int("plies", len(rec.Moves)).
		Dur("budget", t.st.Budget)
	if rec.Draw {
		ev.Str("result", "draw")
	} else {
		ev.Str("result", rec.Winner.String())
	}
	ev.Msg("game finished")

	if c, ok := t.learner.Learn(rec); ok {
		t.log.Debug().Int("ply", c.Ply).Int32("delta", c.Delta).Msg("learned from game")
	}

	if rec.Draw {
		t.st.Streak++
		if t.st.Streak >= t.cfg.StalemateThreshold {
			t.st.Budget += t.cfg.BudgetStep
			t.st.Streak = 0
			t.log.Info().
				Dur("budget", t.st.Budget).
				Msg("draw streak hit threshold, raising move budget")
		}
	} else {
		t.st.Streak = 0
	}
	return nil
}

// checkpoint flushes dirty table entries and stores the trainer state so a
// restarted run continues where this one stopped.
func (t *Trainer) checkpoint() error {
	if err := t.tt.PutMeta(stateKey, t.st); err != nil {
		return fmt.Errorf("storing trainer state: %w", err)
	}
	if err := t.tt.Flush(); err != nil {
		return fmt.Errorf("checkpoint flush: %w", err)
	}
	t.log.Debug().Int("games", t.st.Games).Int("entries", t.tt.Len()).Msg("checkpoint written")
	return nil
}
