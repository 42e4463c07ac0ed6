// Package learn implements the post-game outcome learner. It walks a
// finished game's history backward, finds the latest position whose
// heuristic evaluation strongly disagreed with the actual result, and
// writes a corrective bias into the transposition table so future searches
// value that family of positions differently.
//
// This is attribution by heuristic, not proof: the latest disagreement is
// blamed because later mistakes are cheaper to correct and most directly
// responsible for the outcome.
package learn

import (
	"github.com/rs/zerolog"

	"connect3/internal/board"
	"connect3/internal/eval"
	"connect3/internal/game"
	"connect3/internal/ttable"
)

// DefaultMargin is the minimum white-relative evaluation magnitude counted
// as a "strong" opinion. Below it the evaluator was undecided and there is
// nothing to correct.
const DefaultMargin = 200

// Correction describes what a Learn call changed.
type Correction struct {
	Ply         int // index into Record.Positions() of the blamed position
	Fingerprint board.Fingerprint
	Delta       int32
}

// Learner applies corrective biases from finished games.
type Learner struct {
	tt     *ttable.Table
	ev     *eval.Evaluator
	margin int
	log    zerolog.Logger
}

// New creates a Learner writing into the given table. margin <= 0 selects
// DefaultMargin.
func New(tt *ttable.Table, ev *eval.Evaluator, margin int, log zerolog.Logger) *Learner {
	if margin <= 0 {
		margin = DefaultMargin
	}
	return &Learner{tt: tt, ev: ev, margin: margin, log: log}
}

// Learn processes one Game Record. Scanning backward from the final ply, it
// evaluates the position after each move and looks for a strong
// disagreement with the result: an evaluation favoring the eventual loser,
// or a confident evaluation in a game that was drawn. The latest such
// position gets its table entry biased halfway toward the observed outcome.
// Returns false when every evaluation was consistent with the result.
func (l *Learner) Learn(rec *game.Record) (Correction, bool) {
	// Target score from White's point of view.
	var target int
	switch rec.Winner {
	case board.White:
		target = eval.WinScore
	case board.Black:
		target = -eval.WinScore
	default:
		if !rec.Draw {
			return Correction{}, false
		}
	}

	positions := rec.Positions()
	for i := len(positions) - 1; i >= 1; i-- {
		p := positions[i]
		score := l.ev.Evaluate(p)
		if !l.disagrees(score, rec.Winner) {
			continue
		}

		// Table scores are side-to-move relative; convert before biasing.
		sign := p.SideToMove().Sign()
		delta := int32(sign*target-sign*score) / 2

		fp := p.Fingerprint()
		l.tt.Bias(fp, delta)
		l.log.Debug().
			Int("ply", i).
			Int("score", score).
			Str("winner", rec.Winner.String()).
			Int32("delta", delta).
			Msg("corrected misjudged position")
		return Correction{Ply: i, Fingerprint: fp, Delta: delta}, true
	}
	return Correction{}, false
}

// disagrees reports whether a white-relative score strongly contradicts the
// game result.
func (l *Learner) disagrees(score int, winner board.Player) bool {
	switch winner {
	case board.White:
		// White won but the evaluator favored black.
		return score <= -l.margin
	case board.Black:
		return score >= l.margin
	default:
		// Drawn game: any confident evaluation was wrong.
		return score >= l.margin || score <= -l.margin
	}
}
