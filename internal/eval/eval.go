// Package eval scores positions as a weighted sum of independent feature
// heuristics. Scores are white-positive; terminal positions saturate so a
// proven win or loss dominates any heuristic blend.
package eval

import (
	"math"
	"math/bits"

	"connect3/internal/board"
)

// Score bounds. WinScore saturates terminal positions; Infinity bounds the
// alpha-beta window. Heuristic sums stay orders of magnitude below WinScore.
const (
	Infinity = 1_000_000
	WinScore = 900_000
)

// scale converts the float dot product into integer engine scores.
const scale = 100

// Feature is a pure function of board contents, white-positive.
type Feature interface {
	Name() string
	Score(b board.Board) float64
}

// Weights is one scalar per feature, in feature order.
type Weights []float64

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	c := make(Weights, len(w))
	copy(c, w)
	return c
}

// Features returns the feature set in its canonical order. The order is part
// of the persistent format of tuned weight vectors.
func Features() []Feature {
	return []Feature{
		runsOfTwo{},
		mobility{},
		centerControl{},
		blockedGoals{},
	}
}

// DefaultWeights returns the hand-tuned starting vector, one entry per
// Features() element.
func DefaultWeights() Weights {
	return Weights{10, 0.1, 5, 10}
}

// Evaluator computes the weighted score of a position.
type Evaluator struct {
	features []Feature
	weights  Weights
}

// New creates an Evaluator over the canonical feature set. The weights slice
// is used read-only and must have one entry per feature.
func New(w Weights) *Evaluator {
	return &Evaluator{features: Features(), weights: w}
}

// Weights returns the evaluator's weight vector.
func (e *Evaluator) Weights() Weights { return e.weights }

// Evaluate returns the position's score from White's point of view.
// Won positions return the saturating terminal score immediately.
func (e *Evaluator) Evaluate(b board.Board) int {
	if b.IsWon(board.White) {
		return WinScore
	}
	if b.IsWon(board.Black) {
		return -WinScore
	}

	var sum float64
	for i, f := range e.features {
		sum += e.weights[i] * f.Score(b)
	}
	return int(math.Round(sum * scale))
}

// countStreaks counts length-2 line masks fully occupied by one side.
func countStreaks(masks []uint64, pieces uint64) int {
	n := 0
	for _, m := range masks {
		if pieces&m == m {
			n++
		}
	}
	return n
}

// runsOfTwo counts two-in-a-line runs: one move away from a winning line.
type runsOfTwo struct{}

func (runsOfTwo) Name() string { return "runs_of_two" }

func (runsOfTwo) Score(b board.Board) float64 {
	white, black := b.Bitboards()
	masks := board.PairMasks(b.Size())
	return float64(countStreaks(masks, white) - countStreaks(masks, black))
}

// mobility is the legal move count differential.
type mobility struct{}

func (mobility) Name() string { return "mobility" }

func (mobility) Score(b board.Board) float64 {
	return float64(len(b.LegalMoves(board.White)) - len(b.LegalMoves(board.Black)))
}

// centerControl rewards pieces near the board center, measured by Euclidean
// distance. Central pieces participate in more potential lines.
type centerControl struct{}

func (centerControl) Name() string { return "center_control" }

func (centerControl) Score(b board.Board) float64 {
	w, h := b.Size().Width(), b.Size().Height()
	cx, cy := float64(w-1)/2, float64(h-1)/2

	var whiteDist, blackDist float64
	for idx := 0; idx < b.Size().Cells(); idx++ {
		p := b.At(idx)
		if p == board.None {
			continue
		}
		dx, dy := float64(idx%w)-cx, float64(idx/w)-cy
		d := math.Sqrt(dx*dx + dy*dy)
		if p == board.White {
			whiteDist += d
		} else {
			blackDist += d
		}
	}
	// Smaller distance is better, so the differential is inverted.
	return blackDist - whiteDist
}

// blockedGoals counts winning lines denied to the opponent: lines where the
// opponent has at least one piece but can never complete because we occupy
// part of the line too.
type blockedGoals struct{}

func (blockedGoals) Name() string { return "blocked_goals" }

func (blockedGoals) Score(b board.Board) float64 {
	white, black := b.Bitboards()
	blocked := 0
	for _, m := range board.WinMasks(b.Size()) {
		switch {
		case black&m != 0 && white&m != 0:
			// Contested line: credit whoever holds more of it.
			wc := bits.OnesCount64(white & m)
			bc := bits.OnesCount64(black & m)
			if wc > bc {
				blocked++
			} else if bc > wc {
				blocked--
			}
		}
	}
	return float64(blocked)
}
