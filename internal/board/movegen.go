package board

import (
	"errors"
	"math/bits"
)

// ErrInvalidMove is returned by Apply for moves that break the movement
// rule: source must hold a side-to-move piece, destination must be an
// adjacent empty cell.
var ErrInvalidMove = errors.New("invalid move")

// Cell adjacency is orthogonal plus diagonal: the 8 surrounding cells,
// clipped at the board edges.
var dirOffsets = [8][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

// adjacent reports whether two cell indices touch under 8-neighbourhood
// adjacency on a board of the given size.
func adjacent(sz Size, from, to int) bool {
	w := sz.Width()
	dx := to%w - from%w
	dy := to/w - from/w
	if dx < -1 || dx > 1 || dy < -1 || dy > 1 {
		return false
	}
	return dx != 0 || dy != 0
}

// LegalMoves enumerates every legal move for the given side: one entry per
// (own piece, adjacent empty cell) pair. The result is in stable cell order
// so searches are deterministic.
func (b Board) LegalMoves(p Player) []Move {
	pieces := b.pieces(p)
	occupied := b.white | b.black
	w, h := b.size.Width(), b.size.Height()

	moves := make([]Move, 0, 16)
	for bb := pieces; bb != 0; bb &= bb - 1 {
		from := bits.TrailingZeros64(bb)
		x, y := from%w, from/w
		for _, d := range dirOffsets {
			tx, ty := x+d[0], y+d[1]
			if tx < 0 || tx >= w || ty < 0 || ty >= h {
				continue
			}
			to := tx + ty*w
			if occupied&(1<<uint(to)) == 0 {
				moves = append(moves, NewMove(from, to))
			}
		}
	}
	return moves
}

// HasLegalMove reports whether the side has at least one legal move, without
// materialising the full list.
func (b Board) HasLegalMove(p Player) bool {
	pieces := b.pieces(p)
	occupied := b.white | b.black
	w, h := b.size.Width(), b.size.Height()

	for bb := pieces; bb != 0; bb &= bb - 1 {
		from := bits.TrailingZeros64(bb)
		x, y := from%w, from/w
		for _, d := range dirOffsets {
			tx, ty := x+d[0], y+d[1]
			if tx < 0 || tx >= w || ty < 0 || ty >= h {
				continue
			}
			if occupied&(1<<uint(tx+ty*w)) == 0 {
				return true
			}
		}
	}
	return false
}
