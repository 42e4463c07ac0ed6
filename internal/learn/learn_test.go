package learn

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connect3/internal/board"
	"connect3/internal/eval"
	"connect3/internal/game"
	"connect3/internal/ttable"
)

// Weights isolating the runs-of-two feature so pair counts map directly to
// scores: one net pair is worth 1000.
var pairOnly = eval.Weights{10, 0, 0, 0}

func bit(x, y int) uint64 { return 1 << uint(x+y*board.Small.Width()) }

func mv(fx, fy, tx, ty int) board.Move {
	w := board.Small.Width()
	return board.NewMove(fx+fy*w, tx+ty*w)
}

// lostAfterGoodTrajectory builds a game black wins even though the
// evaluator favored white for most of it. Scores along the way, with
// pairOnly weights: 3000, 2000, 1000, and finally the black win. With
// margin 1500 the latest strong disagreement is ply 2.
func lostAfterGoodTrajectory(t *testing.T) *game.Record {
	t.Helper()
	start := board.FromBitboards(board.Small,
		bit(0, 0)|bit(1, 1)|bit(2, 1),
		bit(0, 3)|bit(2, 3)|bit(4, 3),
		board.White)
	rec := &game.Record{
		Size:  board.Small,
		Start: start,
		Moves: []board.Move{
			mv(0, 0, 1, 0), // white tightens its cluster, three pairs
			mv(0, 3, 1, 3), // black starts building on the top row
			mv(1, 0, 0, 0), // white drifts back, advantage fades
			mv(4, 3, 3, 3), // black completes the top-row line
		},
		Winner: board.Black,
	}
	// Guard the construction: the record must actually end in a black win.
	positions := rec.Positions()
	require.Len(t, positions, 5)
	require.Equal(t, board.Black, positions[4].Winner())
	return rec
}

func TestLearnBlamesLatestDisagreement(t *testing.T) {
	tt := ttable.OpenMemory(zerolog.Nop())
	l := New(tt, eval.New(pairOnly), 1500, zerolog.Nop())

	rec := lostAfterGoodTrajectory(t)
	c, ok := l.Learn(rec)
	require.True(t, ok)

	// Plies 1 and 2 both disagree; the latest one is blamed.
	assert.Equal(t, 2, c.Ply)
	assert.Equal(t, rec.Positions()[2].Fingerprint(), c.Fingerprint)

	// White to move, evaluated +2000, actual outcome a loss: the bias
	// moves halfway toward -WinScore.
	wantDelta := int32(-eval.WinScore-2000) / 2
	assert.Equal(t, wantDelta, c.Delta)

	e, found := tt.Lookup(c.Fingerprint)
	require.True(t, found)
	assert.Equal(t, wantDelta, e.Score)
	assert.Equal(t, ttable.BoundExact, e.Bound)
}

func TestLearnDrawCorrectsConfidentScore(t *testing.T) {
	tt := ttable.OpenMemory(zerolog.Nop())
	l := New(tt, eval.New(pairOnly), 1500, zerolog.Nop())

	start := board.FromBitboards(board.Small,
		bit(0, 0)|bit(1, 1)|bit(2, 1),
		bit(0, 3)|bit(2, 3)|bit(4, 3),
		board.White)
	rec := &game.Record{
		Size:  board.Small,
		Start: start,
		Moves: []board.Move{
			mv(0, 0, 1, 0), // +3000 for white
			mv(0, 3, 0, 2), // still +3000, black stays scattered
		},
		Draw: true,
	}

	c, ok := l.Learn(rec)
	require.True(t, ok)
	assert.Equal(t, 2, c.Ply)
	// A drawn game pulls the +3000 verdict halfway toward zero.
	assert.Equal(t, int32(-1500), c.Delta)
}

func TestLearnSkipsConsistentGame(t *testing.T) {
	tt := ttable.OpenMemory(zerolog.Nop())
	l := New(tt, eval.New(pairOnly), 1500, zerolog.Nop())

	// White wins after a white-favored trajectory: nothing to correct.
	start := board.FromBitboards(board.Small,
		bit(1, 1)|bit(2, 1)|bit(3, 2),
		bit(0, 3)|bit(4, 3)|bit(4, 0),
		board.White)
	rec := &game.Record{
		Size:   board.Small,
		Start:  start,
		Moves:  []board.Move{mv(3, 2, 3, 1)},
		Winner: board.White,
	}
	require.Equal(t, board.White, rec.Positions()[1].Winner())

	_, ok := l.Learn(rec)
	assert.False(t, ok)
	assert.Zero(t, tt.Len())
}

func TestLearnIgnoresUnfinishedRecord(t *testing.T) {
	tt := ttable.OpenMemory(zerolog.Nop())
	l := New(tt, eval.New(pairOnly), 1500, zerolog.Nop())

	rec := &game.Record{Size: board.Small, Start: board.New(board.Small)}
	_, ok := l.Learn(rec)
	assert.False(t, ok)
}
