// Package ttable implements the persistent transposition table: a cache
// from canonical position fingerprints to the best known score, depth, move
// and bound kind. The table lives in memory, is loaded from a BadgerDB
// store on open, and flushes dirty entries back incrementally so a killed
// process loses at most the writes since the last flush.
package ttable

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"connect3/internal/board"
)

// Bound describes what a stored score proves, following the usual
// alpha-beta semantics.
type Bound uint8

const (
	BoundExact Bound = iota // True minimax value inside the window
	BoundLower              // Failed high: real value >= Score
	BoundUpper              // Failed low: real value <= Score
)

// Sentinel errors for storage faults. ErrStorageUnavailable degrades the
// table to memory-only; ErrCorruptEntry drops the offending record.
var (
	ErrStorageUnavailable = errors.New("transposition store unavailable")
	ErrCorruptEntry       = errors.New("corrupt transposition entry")
)

// Entry is one cached search result. Scores are from the side to move's
// perspective at the fingerprinted position (negamax convention).
type Entry struct {
	Score int32
	Depth uint8
	Move  board.Move
	Bound Bound
}

// Number of shards. Reads take a shard RLock; writes serialize per shard so
// the depth-priority rule runs inside the same critical section as the
// write.
const shardCount = 64

type shard struct {
	mu      sync.RWMutex
	entries map[board.Fingerprint]Entry
	dirty   map[board.Fingerprint]struct{}
}

// Table is the transposition table. Safe for concurrent use by multiple
// agents; the badger store may be absent when opening it failed, in which
// case the table is memory-only for the session.
type Table struct {
	shards [shardCount]shard
	store  *Store
	log    zerolog.Logger
}

// Open loads the table from the store directory. A storage fault is not
// fatal: the degradation is logged and an empty memory-only table is
// returned, per the rule that a storage fault must never block a game.
func Open(dir string, log zerolog.Logger) *Table {
	t := newTable(log)

	store, err := OpenStore(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).
			Msg("transposition store unavailable, running memory-only")
		return t
	}
	t.store = store

	loaded, dropped, err := store.LoadAll(func(fp board.Fingerprint, e Entry) {
		s := t.shardFor(fp)
		s.entries[fp] = e
	})
	if err != nil {
		log.Warn().Err(err).Msg("loading transposition entries failed, running memory-only")
		store.Close()
		t.store = nil
		return newTable(log)
	}
	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("discarded corrupt transposition entries")
	}
	log.Info().Int("entries", loaded).Str("dir", dir).Msg("transposition table loaded")
	return t
}

// OpenMemory returns a table with no durable backing. Used by tests and
// throwaway tournament agents.
func OpenMemory(log zerolog.Logger) *Table {
	return newTable(log)
}

func newTable(log zerolog.Logger) *Table {
	t := &Table{log: log}
	for i := range t.shards {
		t.shards[i].entries = make(map[board.Fingerprint]Entry)
		t.shards[i].dirty = make(map[board.Fingerprint]struct{})
	}
	return t
}

func (t *Table) shardFor(fp board.Fingerprint) *shard {
	return &t.shards[uint64(fp)%shardCount]
}

// Lookup returns the entry for a fingerprint, if present.
func (t *Table) Lookup(fp board.Fingerprint) (Entry, bool) {
	s := t.shardFor(fp)
	s.mu.RLock()
	e, ok := s.entries[fp]
	s.mu.RUnlock()
	return e, ok
}

// Store records a search result. An existing entry is only overwritten when
// the new depth is greater or equal: deeper results are strictly more
// trustworthy and a shallower result must never clobber them. The depth
// check and the write happen under the same shard lock.
func (t *Table) Store(fp board.Fingerprint, e Entry) {
	s := t.shardFor(fp)
	s.mu.Lock()
	if old, ok := s.entries[fp]; !ok || e.Depth >= old.Depth {
		s.entries[fp] = e
		s.dirty[fp] = struct{}{}
	}
	s.mu.Unlock()
}

// Bias nudges a stored score by delta without a fresh search. The outcome
// learner uses it to devalue positions implicated in a loss. Missing
// entries are created at depth 0 with an exact bound so the next search can
// still refine them.
func (t *Table) Bias(fp board.Fingerprint, delta int32) {
	s := t.shardFor(fp)
	s.mu.Lock()
	e := s.entries[fp]
	e.Score += delta
	// A biased score is an estimate again, never a proven bound.
	e.Bound = BoundExact
	s.entries[fp] = e
	s.dirty[fp] = struct{}{}
	s.mu.Unlock()
}

// Len returns the number of entries.
func (t *Table) Len() int {
	n := 0
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Flush writes all dirty entries to the store. A memory-only table flushes
// trivially. Entries that fail to write stay dirty for the next flush.
func (t *Table) Flush() error {
	if t.store == nil {
		return nil
	}

	batch := make(map[board.Fingerprint]Entry)
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		for fp := range s.dirty {
			batch[fp] = s.entries[fp]
			delete(s.dirty, fp)
		}
		s.mu.Unlock()
	}
	if len(batch) == 0 {
		return nil
	}

	if err := t.store.WriteBatch(batch); err != nil {
		// Re-mark so the next flush retries them.
		for fp := range batch {
			s := t.shardFor(fp)
			s.mu.Lock()
			s.dirty[fp] = struct{}{}
			s.mu.Unlock()
		}
		t.log.Warn().Err(err).Int("entries", len(batch)).Msg("transposition flush failed")
		return err
	}
	t.log.Debug().Int("entries", len(batch)).Msg("transposition table flushed")
	return nil
}

// PutMeta persists an auxiliary JSON blob (trainer counters and the like)
// alongside the table. No-op without a store.
func (t *Table) PutMeta(key string, v any) error {
	if t.store == nil {
		return nil
	}
	return t.store.PutMeta(key, v)
}

// GetMeta loads an auxiliary JSON blob into v. Returns false when the key
// is absent or the table is memory-only.
func (t *Table) GetMeta(key string, v any) (bool, error) {
	if t.store == nil {
		return false, nil
	}
	return t.store.GetMeta(key, v)
}

// Close flushes and releases the store.
func (t *Table) Close() error {
	if t.store == nil {
		return nil
	}
	err := t.Flush()
	if cerr := t.store.Close(); err == nil {
		err = cerr
	}
	t.store = nil
	return err
}
