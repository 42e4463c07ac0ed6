package board

// RepetitionTracker counts how many times each position has occurred in a
// game. The third occurrence of the same position with the same side to
// move is a draw.
type RepetitionTracker struct {
	counts map[Fingerprint]int
}

// NewRepetitionTracker returns an empty tracker.
func NewRepetitionTracker() *RepetitionTracker {
	return &RepetitionTracker{counts: make(map[Fingerprint]int)}
}

// Update records a position and reports whether it has now occurred three
// times, ending the game as a draw.
func (t *RepetitionTracker) Update(b Board) bool {
	fp := b.Fingerprint()
	t.counts[fp]++
	return t.counts[fp] >= 3
}

// Copy returns an independent copy of the tracker.
func (t *RepetitionTracker) Copy() *RepetitionTracker {
	c := &RepetitionTracker{counts: make(map[Fingerprint]int, len(t.counts))}
	for k, v := range t.counts {
		c.counts[k] = v
	}
	return c
}
