package game

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connect3/internal/board"
	"connect3/internal/eval"
	"connect3/internal/search"
	"connect3/internal/ttable"
)

// oscillator shuttles one piece back and forth: its first move, then the
// reverse, forever. Two oscillators force a threefold repetition draw.
type oscillator struct {
	first board.Move
	last  board.Move
}

func (o *oscillator) ChooseMove(b board.Board, _ time.Duration) (board.Move, error) {
	if o.last != board.NoMove {
		rev := board.NewMove(o.last.To(), o.last.From())
		if _, err := b.Apply(rev); err == nil {
			o.last = rev
			return rev, nil
		}
	}
	o.last = o.first
	return o.first, nil
}

func mustMove(t *testing.T, s string, sz board.Size) board.Move {
	t.Helper()
	m, err := board.ParseMove(s, sz)
	require.NoError(t, err)
	return m
}

func newSearchAgent(tt *ttable.Table) *EngineAgent {
	return NewEngineAgent(search.New(tt, eval.New(eval.DefaultWeights())))
}

func TestRepetitionDraw(t *testing.T) {
	white := &oscillator{first: mustMove(t, "11SE", board.Small)}
	black := &oscillator{first: mustMove(t, "51W", board.Small)}

	m := &Match{White: NewEngineAgent(white), Black: NewEngineAgent(black)}
	rec, err := m.Play(board.Small)
	require.NoError(t, err)

	assert.True(t, rec.Draw)
	assert.Equal(t, board.None, rec.Winner)
	// Start position recurs every 4 plies; third occurrence ends the game.
	assert.Len(t, rec.Moves, 8)
}

func TestPlyCapDraw(t *testing.T) {
	white := &oscillator{first: mustMove(t, "11SE", board.Small)}
	black := &oscillator{first: mustMove(t, "51W", board.Small)}

	m := &Match{White: NewEngineAgent(white), Black: NewEngineAgent(black), PlyCap: 4}
	rec, err := m.Play(board.Small)
	require.NoError(t, err)

	assert.True(t, rec.Draw)
	assert.Len(t, rec.Moves, 4)
}

func TestWinEndsGame(t *testing.T) {
	bit := func(x, y int) uint64 { return 1 << uint(x+y*board.Small.Width()) }
	// White completes row 1 in one move; the black piece on (1,0) blocks
	// the alternative diagonal win, so the game must end immediately with
	// that exact move.
	start := board.FromBitboards(board.Small,
		bit(1, 1)|bit(2, 1)|bit(3, 2),
		bit(0, 3)|bit(4, 3)|bit(1, 0),
		board.White)

	tt := ttable.OpenMemory(zerolog.Nop())
	m := &Match{
		White:  newSearchAgent(tt),
		Black:  newSearchAgent(tt),
		Budget: 50 * time.Millisecond,
	}
	rec, err := m.PlayFrom(start)
	require.NoError(t, err)

	assert.Equal(t, board.White, rec.Winner)
	assert.False(t, rec.Draw)
	require.Len(t, rec.Moves, 1)
	assert.Equal(t, board.NewMove(3+2*5, 3+1*5), rec.Moves[0])
}

func TestImmobilizedSideLoses(t *testing.T) {
	bit := func(x, y int) uint64 { return 1 << uint(x+y*board.Small.Width()) }
	// White's lone piece is walled in: no legal move means a loss for
	// white, not a draw.
	start := board.FromBitboards(board.Small,
		bit(0, 0),
		bit(1, 0)|bit(0, 1)|bit(1, 1),
		board.White)

	tt := ttable.OpenMemory(zerolog.Nop())
	m := &Match{
		White:  newSearchAgent(tt),
		Black:  newSearchAgent(tt),
		Budget: 50 * time.Millisecond,
	}
	rec, err := m.PlayFrom(start)
	require.NoError(t, err)

	assert.Equal(t, board.Black, rec.Winner)
	assert.Empty(t, rec.Moves)
}

func TestRecordPositionsReplay(t *testing.T) {
	white := &oscillator{first: mustMove(t, "11SE", board.Small)}
	black := &oscillator{first: mustMove(t, "51W", board.Small)}

	m := &Match{White: NewEngineAgent(white), Black: NewEngineAgent(black), PlyCap: 4}
	rec, err := m.Play(board.Small)
	require.NoError(t, err)

	positions := rec.Positions()
	require.Len(t, positions, len(rec.Moves)+1)
	assert.Equal(t, rec.Start.Fingerprint(), positions[0].Fingerprint())
	// The oscillation returns to the start position after 4 plies.
	assert.Equal(t, rec.Start.Fingerprint(), positions[4].Fingerprint())
}
