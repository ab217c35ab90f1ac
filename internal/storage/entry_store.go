package storage

import (
	"sync/atomic"
)

// Entry is a single cached value together with its accounting metadata
type Entry[K comparable, V any] struct {
	Key    K
	Value  V
	Weight int64 // Weight charged to the pool when the entry was stored

	lastAccess atomic.Int64 // Unix nanos, refreshed on every read hit
	pos        int          // Position in the dense entry slice
}

// NewEntry creates an entry stamped with the given access time
func NewEntry[K comparable, V any](key K, value V, weight int64, now int64) *Entry[K, V] {
	e := &Entry[K, V]{Key: key, Value: value, Weight: weight, pos: -1}
	e.lastAccess.Store(now)
	return e
}

// Touch records an access. Safe to call while other goroutines hold read locks.
func (e *Entry[K, V]) Touch(now int64) {
	e.lastAccess.Store(now)
}

// LastAccess returns the last access time in unix nanos
func (e *Entry[K, V]) LastAccess() int64 {
	return e.lastAccess.Load()
}

// EntryStore holds the entries of one cache. It keeps entries in a dense
// slice so they can be addressed by position, and a key index for lookups.
//
// EntryStore is not synchronized; callers must hold the owning cache's lock
// (read lock for lookups and positional reads, write lock for mutations).
type EntryStore[K comparable, V any] struct {
	entries []*Entry[K, V]
	index   KeyIndex[K, V]
}

// NewEntryStore creates an empty store backed by the given index.
// A nil index selects native key equality.
func NewEntryStore[K comparable, V any](index KeyIndex[K, V]) *EntryStore[K, V] {
	if index == nil {
		index = NewNativeIndex[K, V]()
	}
	return &EntryStore[K, V]{
		entries: make([]*Entry[K, V], 0),
		index:   index,
	}
}

// Len returns the number of stored entries
func (s *EntryStore[K, V]) Len() int {
	return len(s.entries)
}

// Lookup returns the entry stored for key, or nil
func (s *EntryStore[K, V]) Lookup(key K) *Entry[K, V] {
	return s.index.Lookup(key)
}

// At returns the entry at position i, or nil when i is out of range.
// Positions are not stable across removals.
func (s *EntryStore[K, V]) At(i int) *Entry[K, V] {
	if i < 0 || i >= len(s.entries) {
		return nil
	}
	return s.entries[i]
}

// Upsert stores entry, replacing any entry with an equal key.
// It returns the replaced entry, or nil for a fresh insert.
func (s *EntryStore[K, V]) Upsert(entry *Entry[K, V]) *Entry[K, V] {
	existing := s.index.Lookup(entry.Key)
	if existing != nil {
		// Keep the slot so positional readers see the replacement in place
		entry.pos = existing.pos
		s.entries[entry.pos] = entry
		existing.pos = -1
		s.index.Remove(existing)
		s.index.Insert(entry)
		return existing
	}

	entry.pos = len(s.entries)
	s.entries = append(s.entries, entry)
	s.index.Insert(entry)
	return nil
}

// Remove deletes the entry stored for key and returns it, or nil
func (s *EntryStore[K, V]) Remove(key K) *Entry[K, V] {
	entry := s.index.Lookup(key)
	if entry == nil {
		return nil
	}
	s.unlink(entry)
	return entry
}

// RemoveIfSame deletes entry only if it is still the one stored for its key.
// Used by eviction, whose candidates may have been replaced since they were selected.
func (s *EntryStore[K, V]) RemoveIfSame(entry *Entry[K, V]) bool {
	if entry == nil || s.index.Lookup(entry.Key) != entry {
		return false
	}
	s.unlink(entry)
	return true
}

// Snapshot copies the current entry pointers
func (s *EntryStore[K, V]) Snapshot() []*Entry[K, V] {
	out := make([]*Entry[K, V], len(s.entries))
	copy(out, s.entries)
	return out
}

// Reset drops every entry
func (s *EntryStore[K, V]) Reset() {
	for _, e := range s.entries {
		e.pos = -1
	}
	s.entries = make([]*Entry[K, V], 0)
	s.index.Reset()
}

// unlink swaps the last entry into the freed slot (assumes entry is stored)
func (s *EntryStore[K, V]) unlink(entry *Entry[K, V]) {
	last := len(s.entries) - 1
	if entry.pos != last {
		moved := s.entries[last]
		s.entries[entry.pos] = moved
		moved.pos = entry.pos
	}
	s.entries[last] = nil
	s.entries = s.entries[:last]
	entry.pos = -1
	s.index.Remove(entry)
}
