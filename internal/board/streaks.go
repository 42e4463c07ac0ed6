package board

// Streak masks: bitboards with n consecutive cells set along a row, column
// or diagonal. Length-3 masks are the winning lines; length-2 masks feed the
// evaluator's runs-of-two feature. Generated once per board size.

var (
	winMaskCache  [2][]uint64
	pairMaskCache [2][]uint64
)

func init() {
	for _, sz := range []Size{Small, Large} {
		winMaskCache[sz] = generateStreakMasks(sz, 3)
		pairMaskCache[sz] = generateStreakMasks(sz, 2)
	}
}

// winMasks returns all length-3 line masks for a board size.
func winMasks(sz Size) []uint64 {
	return winMaskCache[sz]
}

// PairMasks returns all length-2 line masks for a board size.
func PairMasks(sz Size) []uint64 {
	return pairMaskCache[sz]
}

// WinMasks returns all length-3 line masks for a board size.
func WinMasks(sz Size) []uint64 {
	return winMaskCache[sz]
}

func generateStreakMasks(sz Size, n int) []uint64 {
	w, h := sz.Width(), sz.Height()
	bit := func(x, y int) uint64 { return 1 << uint(x+y*w) }

	var masks []uint64

	// Horizontal.
	for y := 0; y < h; y++ {
		for x := 0; x+n <= w; x++ {
			var m uint64
			for i := 0; i < n; i++ {
				m |= bit(x+i, y)
			}
			masks = append(masks, m)
		}
	}

	// Vertical.
	for x := 0; x < w; x++ {
		for y := 0; y+n <= h; y++ {
			var m uint64
			for i := 0; i < n; i++ {
				m |= bit(x, y+i)
			}
			masks = append(masks, m)
		}
	}

	// Down-right diagonal.
	for x := 0; x+n <= w; x++ {
		for y := 0; y+n <= h; y++ {
			var m uint64
			for i := 0; i < n; i++ {
				m |= bit(x+i, y+i)
			}
			masks = append(masks, m)
		}
	}

	// Down-left diagonal.
	for x := 0; x+n <= w; x++ {
		for y := 0; y+n <= h; y++ {
			var m uint64
			for i := 0; i < n; i++ {
				m |= bit(x+n-1-i, y+i)
			}
			masks = append(masks, m)
		}
	}

	return masks
}
