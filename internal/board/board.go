// Package board implements the dynamic Connect-3 board model: piece
// placement, legal move generation, win/draw detection and position
// fingerprinting. Pieces relocate to adjacent empty cells; none are ever
// added or captured.
package board

import (
	"fmt"
	"strings"
)

// Size selects one of the two supported board dimensions.
type Size int8

const (
	Small Size = iota // 5x4
	Large             // 7x6
)

// Width returns the number of columns.
func (s Size) Width() int {
	if s == Large {
		return 7
	}
	return 5
}

// Height returns the number of rows.
func (s Size) Height() int {
	if s == Large {
		return 6
	}
	return 4
}

// Cells returns the total cell count.
func (s Size) Cells() int {
	return s.Width() * s.Height()
}

func (s Size) String() string {
	if s == Large {
		return "large"
	}
	return "small"
}

// ParseSize parses "small" or "large".
func ParseSize(s string) (Size, error) {
	switch strings.ToLower(s) {
	case "small":
		return Small, nil
	case "large":
		return Large, nil
	}
	return Small, fmt.Errorf("unknown board size %q", s)
}

// Board is an immutable-per-ply position: cell occupancy, side to move,
// ply count and the move history that produced it. Apply returns a fresh
// Board, so search can branch without undo bookkeeping. Occupancy is a
// bitboard per side; the largest board has 42 cells so a uint64 suffices.
type Board struct {
	size    Size
	white   uint64
	black   uint64
	stm     Player
	ply     int
	history []Move
}

// Starting piece columns, mirrored for the two sides: each side begins with
// four pieces interleaved along the left and right edges.
func startBits(sz Size) (white, black uint64) {
	w := sz.Width()
	set := func(bb *uint64, x, y int) { *bb |= 1 << uint(x+y*w) }
	switch sz {
	case Large:
		set(&white, 0, 1)
		set(&white, 0, 3)
		set(&white, w-1, 2)
		set(&white, w-1, 4)
		set(&black, 0, 2)
		set(&black, 0, 4)
		set(&black, w-1, 1)
		set(&black, w-1, 3)
	default:
		set(&white, 0, 0)
		set(&white, 0, 2)
		set(&white, w-1, 1)
		set(&white, w-1, 3)
		set(&black, 0, 1)
		set(&black, 0, 3)
		set(&black, w-1, 0)
		set(&black, w-1, 2)
	}
	return white, black
}

// New returns the starting position for the given size. White moves first.
func New(sz Size) Board {
	white, black := startBits(sz)
	return Board{size: sz, white: white, black: black, stm: White}
}

// FromBitboards builds a position directly from occupancy bits. Used by
// tests and the streak mask generator; callers are responsible for the bits
// describing a reachable position.
func FromBitboards(sz Size, white, black uint64, stm Player) Board {
	return Board{size: sz, white: white, black: black, stm: stm}
}

// Size returns the board size.
func (b Board) Size() Size { return b.size }

// SideToMove returns the player whose turn it is.
func (b Board) SideToMove() Player { return b.stm }

// Ply returns the number of half-moves played from the start position.
func (b Board) Ply() int { return b.ply }

// History returns the moves played so far, oldest first. The returned slice
// must not be modified.
func (b Board) History() []Move { return b.history }

// Bitboards exposes the raw occupancy of both sides.
func (b Board) Bitboards() (white, black uint64) { return b.white, b.black }

// At returns the occupant of cell index idx.
func (b Board) At(idx int) Player {
	bit := uint64(1) << uint(idx)
	if b.white&bit != 0 {
		return White
	}
	if b.black&bit != 0 {
		return Black
	}
	return None
}

// pieces returns the occupancy bitboard for one side.
func (b Board) pieces(p Player) uint64 {
	if p == White {
		return b.white
	}
	return b.black
}

// Apply plays a move for the side to move and returns the resulting
// position with the turn flipped, the ply count incremented and the history
// extended. The receiver is left untouched. Returns ErrInvalidMove if the
// source does not hold a side-to-move piece or the destination is not an
// adjacent empty cell.
func (b Board) Apply(m Move) (Board, error) {
	fromBit := uint64(1) << uint(m.From())
	toBit := uint64(1) << uint(m.To())

	if b.pieces(b.stm)&fromBit == 0 {
		return b, fmt.Errorf("%w: no %s piece on source cell", ErrInvalidMove, b.stm)
	}
	if (b.white|b.black)&toBit != 0 {
		return b, fmt.Errorf("%w: destination occupied", ErrInvalidMove)
	}
	if !adjacent(b.size, m.From(), m.To()) {
		return b, fmt.Errorf("%w: destination not adjacent", ErrInvalidMove)
	}

	next := b
	if b.stm == White {
		next.white = b.white&^fromBit | toBit
	} else {
		next.black = b.black&^fromBit | toBit
	}
	next.stm = b.stm.Opponent()
	next.ply = b.ply + 1
	next.history = make([]Move, len(b.history)+1)
	copy(next.history, b.history)
	next.history[len(b.history)] = m
	return next, nil
}

// Winner returns the side with three in a row, or None. Both sides are
// checked; positions with two simultaneous lines cannot arise from legal
// play since the game stops at the first.
func (b Board) Winner() Player {
	for _, mask := range winMasks(b.size) {
		if b.white&mask == mask {
			return White
		}
		if b.black&mask == mask {
			return Black
		}
	}
	return None
}

// IsWon reports whether the given side has completed a line.
func (b Board) IsWon(p Player) bool {
	pieces := b.pieces(p)
	for _, mask := range winMasks(b.size) {
		if pieces&mask == mask {
			return true
		}
	}
	return false
}

// String renders the board as text, one row per line. White pieces render
// as 'W', black as 'B'.
func (b Board) String() string {
	var sb strings.Builder
	w, h := b.size.Width(), b.size.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch b.At(x + y*w) {
			case White:
				sb.WriteByte('W')
			case Black:
				sb.WriteByte('B')
			default:
				sb.WriteByte('.')
			}
			if x != w-1 {
				sb.WriteByte('|')
			}
		}
		if y != h-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
