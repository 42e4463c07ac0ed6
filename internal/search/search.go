// Package search implements the decision engine: iterative-deepening
// negamax with alpha-beta pruning, time-boxed, backed by the persistent
// transposition table. A search is single-threaded; concurrent agents each
// run their own Engine over a shared table.
package search

import (
	"errors"
	"time"

	"connect3/internal/board"
	"connect3/internal/eval"
	"connect3/internal/ttable"
)

// MaxDepth bounds iterative deepening. The game tree is shallow enough that
// practical budgets never reach it.
const MaxDepth = 64

// ErrNoLegalMove reports that the side to move cannot move at all. The
// caller must treat this as a loss for that side, not a draw.
var ErrNoLegalMove = errors.New("no legal move")

// timeCheckInterval is how many nodes are searched between deadline checks
// inside the recursion, so an expiring budget is honored promptly even in
// the middle of a deep iteration.
const timeCheckInterval = 1024

// Info reports progress after each completed depth.
type Info struct {
	Depth   int
	Score   int
	Move    board.Move
	Nodes   uint64
	Elapsed time.Duration
}

// Engine is a time-bounded adversarial searcher. Not safe for concurrent
// use; create one Engine per agent.
type Engine struct {
	tt   *ttable.Table
	eval *eval.Evaluator

	// OnInfo, when set, is called after every completed depth.
	OnInfo func(Info)

	nodes    uint64
	deadline time.Time
	timed    bool
	stopped  bool
}

// New creates an engine over a transposition table and evaluator.
func New(tt *ttable.Table, ev *eval.Evaluator) *Engine {
	return &Engine{tt: tt, eval: ev}
}

// Nodes returns the node count of the last ChooseMove call.
func (e *Engine) Nodes() uint64 { return e.nodes }

// ChooseMove searches the position for the side to move and returns the
// best move found within the time budget. Iterative deepening guarantees
// the move comes from the last fully completed depth: an expiring budget is
// normal termination, never an error. Returns ErrNoLegalMove when the side
// to move has no moves.
func (e *Engine) ChooseMove(b board.Board, budget time.Duration) (board.Move, error) {
	if !b.HasLegalMove(b.SideToMove()) {
		return board.NoMove, ErrNoLegalMove
	}

	start := time.Now()
	e.nodes = 0
	e.stopped = false
	e.timed = budget > 0
	if e.timed {
		e.deadline = start.Add(budget)
	}

	var bestMove board.Move
	var bestScore int

	for depth := 1; depth <= MaxDepth; depth++ {
		// Depth 1 always runs to completion so a legal move is available
		// even under an immediately-expiring budget.
		if depth > 1 && e.expired() {
			break
		}

		move, score, completed := e.searchRoot(b, depth, depth == 1)
		if !completed {
			break
		}
		bestMove, bestScore = move, score

		if e.OnInfo != nil {
			e.OnInfo(Info{
				Depth:   depth,
				Score:   bestScore,
				Move:    bestMove,
				Nodes:   e.nodes,
				Elapsed: time.Since(start),
			})
		}

		// A proven forced win or loss cannot be refined further.
		if bestScore > eval.WinScore-MaxDepth || bestScore < -eval.WinScore+MaxDepth {
			break
		}
	}

	return bestMove, nil
}

// expired reports whether the budget is spent.
func (e *Engine) expired() bool {
	return e.timed && !time.Now().Before(e.deadline)
}

// checkTime sets the stop flag once the deadline passes. Called every
// timeCheckInterval nodes from inside the recursion.
func (e *Engine) checkTime() {
	if !e.stopped && e.timed && e.nodes%timeCheckInterval == 0 && e.expired() {
		e.stopped = true
	}
}

// searchRoot runs one full-width alpha-beta search to the given depth and
// returns the best root move. completed is false when the deadline
// interrupted the iteration, in which case the result must be discarded in
// favor of the previous depth's. ignoreDeadline suppresses mid-search time
// checks for the mandatory first depth.
func (e *Engine) searchRoot(b board.Board, depth int, ignoreDeadline bool) (board.Move, int, bool) {
	timedBefore := e.timed
	if ignoreDeadline {
		e.timed = false
	}
	defer func() { e.timed = timedBefore }()

	moves := b.LegalMoves(b.SideToMove())
	fp := b.Fingerprint()
	e.orderMoves(moves, fp)

	alpha, beta := -eval.Infinity, eval.Infinity
	bestMove := board.NoMove
	bestScore := -eval.Infinity

	for _, m := range moves {
		child, err := b.Apply(m)
		if err != nil {
			continue
		}
		score := -e.negamax(child, depth-1, 1, -beta, -alpha)
		if e.stopped {
			return board.NoMove, 0, false
		}
		if score > bestScore {
			bestScore, bestMove = score, m
		}
		if bestScore > alpha {
			alpha = bestScore
		}
	}

	e.tt.Store(fp, ttable.Entry{
		Score: int32(scoreToTT(bestScore, 0)),
		Depth: uint8(depth),
		Move:  bestMove,
		Bound: ttable.BoundExact,
	})
	return bestMove, bestScore, true
}

// negamax returns the position's value from the side to move's perspective,
// searching to the given remaining depth inside the (alpha, beta) window.
func (e *Engine) negamax(b board.Board, depth, ply, alpha, beta int) int {
	e.nodes++
	e.checkTime()
	if e.stopped {
		return 0
	}

	stm := b.SideToMove()

	// The previous move may have completed a line: terminal before anything
	// else so forced results saturate the window.
	if b.IsWon(stm.Opponent()) {
		return -(eval.WinScore - ply)
	}
	if b.IsWon(stm) {
		return eval.WinScore - ply
	}

	if depth <= 0 {
		return stm.Sign() * e.eval.Evaluate(b)
	}

	origAlpha := alpha
	fp := b.Fingerprint()

	// Transposition probe: a stored result from an equal or deeper search
	// answers this node outright when its bound fits the current window.
	entry, hit := e.tt.Lookup(fp)
	if hit && int(entry.Depth) >= depth {
		score := scoreFromTT(int(entry.Score), ply)
		switch entry.Bound {
		case ttable.BoundExact:
			return score
		case ttable.BoundLower:
			if score > alpha {
				alpha = score
			}
		case ttable.BoundUpper:
			if score < beta {
				beta = score
			}
		}
		if alpha >= beta {
			return score
		}
	}

	moves := b.LegalMoves(stm)
	if len(moves) == 0 {
		// Stalemated side loses; the ply offset prefers later losses.
		return -(eval.WinScore - ply)
	}
	if hit && entry.Move != board.NoMove {
		moveToFront(moves, entry.Move)
	}

	bestScore := -eval.Infinity
	bestMove := board.NoMove

	for _, m := range moves {
		child, err := b.Apply(m)
		if err != nil {
			continue
		}
		score := -e.negamax(child, depth-1, ply+1, -beta, -alpha)
		if e.stopped {
			return 0
		}
		if score > bestScore {
			bestScore, bestMove = score, m
		}
		if bestScore > alpha {
			alpha = bestScore
		}
		if alpha >= beta {
			break
		}
	}

	// Writes are self-contained per node, so an interrupted game can never
	// leave a partial entry behind.
	bound := ttable.BoundExact
	if bestScore <= origAlpha {
		bound = ttable.BoundUpper
	} else if bestScore >= beta {
		bound = ttable.BoundLower
	}
	e.tt.Store(fp, ttable.Entry{
		Score: int32(scoreToTT(bestScore, ply)),
		Depth: uint8(depth),
		Move:  bestMove,
		Bound: bound,
	})

	return bestScore
}

// orderMoves puts the table's recorded best move first to maximise early
// cutoffs.
func (e *Engine) orderMoves(moves []board.Move, fp board.Fingerprint) {
	if entry, ok := e.tt.Lookup(fp); ok && entry.Move != board.NoMove {
		moveToFront(moves, entry.Move)
	}
}

func moveToFront(moves []board.Move, m board.Move) {
	for i, cand := range moves {
		if cand == m {
			copy(moves[1:i+1], moves[:i])
			moves[0] = m
			return
		}
	}
}

// Win scores are stored relative to the entry's node rather than the root,
// so a cached "win in 2" stays correct when reached at a different ply.
func scoreToTT(score, ply int) int {
	if score > eval.WinScore-MaxDepth {
		return score + ply
	}
	if score < -eval.WinScore+MaxDepth {
		return score - ply
	}
	return score
}

func scoreFromTT(score, ply int) int {
	if score > eval.WinScore-MaxDepth {
		return score - ply
	}
	if score < -eval.WinScore+MaxDepth {
		return score + ply
	}
	return score
}
