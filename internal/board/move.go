package board

import "fmt"

// Move encodes a piece relocation in 16 bits:
// bits 0-5:  source cell index (0-41)
// bits 6-11: destination cell index (0-41)
// Cell indices are x + y*width for the board the move belongs to.
type Move uint16

// NoMove represents an invalid or absent move. Index 0 to index 0 is never
// legal (a move must change cells), so the zero value is safe as a sentinel.
const NoMove Move = 0

// NewMove creates a move from a source cell index to a destination cell index.
func NewMove(from, to int) Move {
	return Move(from) | Move(to)<<6
}

// From returns the source cell index.
func (m Move) From() int {
	return int(m & 0x3F)
}

// To returns the destination cell index.
func (m Move) To() int {
	return int((m >> 6) & 0x3F)
}

// compass direction names, indexed by (dx+1) + (dy+1)*3. The middle entry
// (dx=0, dy=0) is unused.
var dirNames = [9]string{
	"NW", "N", "NE",
	"W", "", "E",
	"SW", "S", "SE",
}

// Format renders the move in compass notation for a given board size:
// 1-based source coordinates followed by a direction, e.g. "13N" or "21SE".
// The y axis grows downward, so N decreases y.
func (m Move) Format(sz Size) string {
	if m == NoMove {
		return "-"
	}
	w := sz.Width()
	fx, fy := m.From()%w, m.From()/w
	tx, ty := m.To()%w, m.To()/w
	dx, dy := tx-fx, ty-fy
	if dx < -1 || dx > 1 || dy < -1 || dy > 1 || (dx == 0 && dy == 0) {
		return "?"
	}
	return fmt.Sprintf("%d%d%s", fx+1, fy+1, dirNames[(dx+1)+(dy+1)*3])
}

// ParseMove parses compass notation ("13N", "21SE", ...) into a Move for the
// given board size. Coordinates are 1-based.
func ParseMove(s string, sz Size) (Move, error) {
	if len(s) < 3 || len(s) > 4 {
		return NoMove, fmt.Errorf("invalid move string %q", s)
	}
	x := int(s[0] - '1')
	y := int(s[1] - '1')
	w, h := sz.Width(), sz.Height()
	if x < 0 || x >= w || y < 0 || y >= h {
		return NoMove, fmt.Errorf("move %q: coordinates out of range", s)
	}
	var dx, dy int
	dir := s[2:]
	found := false
	for i, name := range dirNames {
		if name == dir {
			dx, dy = i%3-1, i/3-1
			found = true
			break
		}
	}
	if !found {
		return NoMove, fmt.Errorf("move %q: unknown direction %q", s, dir)
	}
	tx, ty := x+dx, y+dy
	if tx < 0 || tx >= w || ty < 0 || ty >= h {
		return NoMove, fmt.Errorf("move %q: destination off the board", s)
	}
	return NewMove(x+y*w, tx+ty*w), nil
}
