// Package game runs complete games between two agents and produces Game
// Records: the ordered move list plus the final result, which feed the
// outcome learner and the trainers.
package game

import "connect3/internal/board"

// Record is one completed game. Winner is None for draws.
type Record struct {
	Size   board.Size
	Start  board.Board
	Moves  []board.Move
	Winner board.Player
	Draw   bool
}

// Positions replays the record and returns every position in order:
// Positions()[0] is the start, Positions()[i] the position after move i-1.
// Records hold legal move sequences by construction, so replay cannot fail;
// a corrupted record yields a truncated slice.
func (r *Record) Positions() []board.Board {
	positions := make([]board.Board, 0, len(r.Moves)+1)
	b := r.Start
	positions = append(positions, b)
	for _, m := range r.Moves {
		next, err := b.Apply(m)
		if err != nil {
			break
		}
		b = next
		positions = append(positions, b)
	}
	return positions
}
