package game

import (
	"errors"
	"fmt"
	"time"

	"connect3/internal/board"
	"connect3/internal/search"
)

// DefaultPlyCap is the default half-move limit after which an undecided
// game is declared drawn.
const DefaultPlyCap = 200

// Match configures one game between two agents.
type Match struct {
	White  Agent
	Black  Agent
	Budget time.Duration // per-move think time for both sides
	PlyCap int           // 0 means DefaultPlyCap

	// OnTurn, when set, is called with the position before each move is
	// requested. Used by the CLI to render the board.
	OnTurn func(b board.Board)
}

// Play runs the game to completion from the starting position of the given
// size and returns its Record. A side with no legal move loses. Draws come
// from threefold repetition or from the ply cap. Agent failures other than
// search.ErrNoLegalMove abort the game with an error.
func (m *Match) Play(sz board.Size) (*Record, error) {
	return m.PlayFrom(board.New(sz))
}

// PlayFrom runs the game from an arbitrary position.
func (m *Match) PlayFrom(b board.Board) (*Record, error) {
	rec := &Record{Size: b.Size(), Start: b}
	tracker := board.NewRepetitionTracker()
	tracker.Update(b)

	plyCap := m.PlyCap
	if plyCap == 0 {
		plyCap = DefaultPlyCap
	}

	for {
		if winner := b.Winner(); winner != board.None {
			rec.Winner = winner
			return rec, nil
		}
		if b.Ply() >= plyCap {
			rec.Draw = true
			return rec, nil
		}

		mover := b.SideToMove()
		agent := m.White
		if mover == board.Black {
			agent = m.Black
		}

		if m.OnTurn != nil {
			m.OnTurn(b)
		}

		move, err := agent.ChooseMove(b, m.Budget)
		if errors.Is(err, search.ErrNoLegalMove) {
			// An immobilized side loses, it does not draw.
			rec.Winner = mover.Opponent()
			return rec, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s agent: %w", mover, err)
		}

		next, err := b.Apply(move)
		if err != nil {
			return nil, fmt.Errorf("%s agent played %s: %w", mover, move.Format(b.Size()), err)
		}
		b = next
		rec.Moves = append(rec.Moves, move)

		if err := m.White.Observe(mover, move, b); err != nil {
			return nil, fmt.Errorf("white observer: %w", err)
		}
		if err := m.Black.Observe(mover, move, b); err != nil {
			return nil, fmt.Errorf("black observer: %w", err)
		}

		if tracker.Update(b) {
			rec.Draw = true
			return rec, nil
		}
	}
}
