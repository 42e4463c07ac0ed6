package board

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is a canonical 64-bit digest of a position: cell occupancy
// plus side to move. Two identical positions reached through different move
// orders produce the same fingerprint, which is what makes transposition
// table hits possible within and across games. Ply count and history are
// deliberately excluded.
type Fingerprint uint64

// Fingerprint computes the position's digest.
func (b Board) Fingerprint() Fingerprint {
	var buf [18]byte
	buf[0] = byte(b.size)
	buf[1] = byte(b.stm)
	binary.LittleEndian.PutUint64(buf[2:], b.white)
	binary.LittleEndian.PutUint64(buf[10:], b.black)
	return Fingerprint(xxhash.Sum64(buf[:]))
}

// Bytes returns the fingerprint as a fixed-width big-endian key, suitable
// for use as a storage key.
func (f Fingerprint) Bytes() []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(f))
	return buf[:]
}
