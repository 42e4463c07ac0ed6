package board

import "fmt"

// Player identifies a side, or the absence of one for empty cells and
// drawn results.
type Player int8

const (
	None  Player = iota // Empty cell / no winner
	White               // Moves first
	Black
)

// Opponent returns the other side. Calling it on None returns None.
func (p Player) Opponent() Player {
	switch p {
	case White:
		return Black
	case Black:
		return White
	}
	return None
}

// Sign returns +1 for White, -1 for Black, 0 for None. Scores are kept
// white-positive throughout; Sign converts them to the mover's perspective.
func (p Player) Sign() int {
	switch p {
	case White:
		return 1
	case Black:
		return -1
	}
	return 0
}

// ParsePlayer parses "white" or "black".
func ParsePlayer(s string) (Player, error) {
	switch s {
	case "white":
		return White, nil
	case "black":
		return Black, nil
	}
	return None, fmt.Errorf("unknown player %q, want white or black", s)
}

func (p Player) String() string {
	switch p {
	case White:
		return "white"
	case Black:
		return "black"
	}
	return "none"
}
