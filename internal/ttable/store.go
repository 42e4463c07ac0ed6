package ttable

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"connect3/internal/board"
)

// Key prefixes inside the badger store. Entries use the fixed-width
// fingerprint as the key body; meta blobs are JSON under their own names.
var (
	prefixEntry = []byte("tt/")
	prefixMeta  = []byte("meta/")
)

// entrySize is the fixed width of an encoded Entry value.
const entrySize = 8

// Store wraps BadgerDB for durable transposition entries.
type Store struct {
	db *badger.DB
}

// OpenStore opens (or creates) the store in dir.
func OpenStore(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// encodeEntry packs an Entry into its fixed-width value form:
// score (int32 BE) | depth | bound | move (uint16 BE).
func encodeEntry(e Entry) []byte {
	buf := make([]byte, entrySize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(e.Score))
	buf[4] = e.Depth
	buf[5] = byte(e.Bound)
	binary.BigEndian.PutUint16(buf[6:8], uint16(e.Move))
	return buf
}

// decodeEntry unpacks a value, rejecting records whose shape or bound kind
// is invalid. A corrupt record must be discarded and recomputed, never
// trusted.
func decodeEntry(val []byte) (Entry, error) {
	if len(val) != entrySize {
		return Entry{}, fmt.Errorf("%w: value is %d bytes, want %d", ErrCorruptEntry, len(val), entrySize)
	}
	e := Entry{
		Score: int32(binary.BigEndian.Uint32(val[0:4])),
		Depth: val[4],
		Bound: Bound(val[5]),
		Move:  board.Move(binary.BigEndian.Uint16(val[6:8])),
	}
	if e.Bound > BoundUpper {
		return Entry{}, fmt.Errorf("%w: bound kind %d", ErrCorruptEntry, e.Bound)
	}
	return e, nil
}

func entryKey(fp board.Fingerprint) []byte {
	key := make([]byte, 0, len(prefixEntry)+8)
	key = append(key, prefixEntry...)
	return append(key, fp.Bytes()...)
}

// LoadAll streams every stored entry through fn. Corrupt records are
// dropped from the store and counted instead of loaded. Loading is
// idempotent: the store is only read, so load-reload yields the same table.
func (s *Store) LoadAll(fn func(board.Fingerprint, Entry)) (loaded, dropped int, err error) {
	var corrupt [][]byte

	err = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefixEntry, PrefetchValues: true})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			if len(key) != len(prefixEntry)+8 {
				corrupt = append(corrupt, key)
				continue
			}
			fp := board.Fingerprint(binary.BigEndian.Uint64(key[len(prefixEntry):]))

			verr := item.Value(func(val []byte) error {
				e, derr := decodeEntry(val)
				if derr != nil {
					corrupt = append(corrupt, key)
					return nil
				}
				fn(fp, e)
				loaded++
				return nil
			})
			if verr != nil {
				return verr
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if len(corrupt) > 0 {
		// Best effort: a failed delete just leaves the record to be dropped
		// again next startup.
		_ = s.db.Update(func(txn *badger.Txn) error {
			for _, key := range corrupt {
				if derr := txn.Delete(key); derr != nil {
					return derr
				}
			}
			return nil
		})
	}
	return loaded, len(corrupt), nil
}

// WriteBatch persists a set of entries in one write batch.
func (s *Store) WriteBatch(entries map[board.Fingerprint]Entry) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for fp, e := range entries {
		if err := wb.Set(entryKey(fp), encodeEntry(e)); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// PutMeta stores an auxiliary JSON blob under a named key.
func (s *Store) PutMeta(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(append(prefixMeta, key...), data)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// GetMeta loads a JSON blob into v, reporting whether the key existed.
func (s *Store) GetMeta(key string, v any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(append(prefixMeta, key...))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return found, nil
}
