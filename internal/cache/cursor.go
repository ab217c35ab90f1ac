package cache

import (
	"iter"

	"github.com/jmgilman/go/errors"
)

// Cursor walks a cache by position. Each step takes the read lock, checks
// the position against the live size and copies the pair found there.
//
// Concurrent writes are tolerated but the walk is not a snapshot: entries
// added or removed while walking may be missed, and a removal can move an
// already visited entry into a later position.
type Cursor[K comparable, V any] struct {
	cache   *Cache[K, V]
	index   int
	current Pair[K, V]
}

// Cursor returns a cursor positioned before the first entry
func (c *Cache[K, V]) Cursor() *Cursor[K, V] {
	return &Cursor[K, V]{cache: c}
}

// Next advances to the next entry. It returns false once the position is at
// or past the end of the cache.
func (cur *Cursor[K, V]) Next() bool {
	cur.cache.guard.RLock()
	defer cur.cache.guard.RUnlock()

	entry := cur.cache.store.At(cur.index)
	if entry == nil {
		cur.current = Pair[K, V]{}
		return false
	}

	cur.current = Pair[K, V]{Key: entry.Key, Value: entry.Value}
	cur.index++
	return true
}

// Current returns the pair read by the last successful Next
func (cur *Cursor[K, V]) Current() (K, V) {
	return cur.current.Key, cur.current.Value
}

// Pair returns the pair read by the last successful Next
func (cur *Cursor[K, V]) Pair() Pair[K, V] {
	return cur.current
}

// Reset moves the cursor back before the first entry
func (cur *Cursor[K, V]) Reset() {
	cur.index = 0
	cur.current = Pair[K, V]{}
}

// All iterates the cache with a fresh Cursor. Reading does not count as
// access for eviction purposes.
func (c *Cache[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		cur := c.Cursor()
		for cur.Next() {
			if !yield(cur.current.Key, cur.current.Value) {
				return
			}
		}
	}
}

// CopyTo copies every pair into dst starting at index
func (c *Cache[K, V]) CopyTo(dst []Pair[K, V], index int) error {
	if dst == nil {
		return errors.Wrapf(ErrInvalidArgument, errors.CodeInvalidInput, "destination is nil")
	}
	if index < 0 || index > len(dst) {
		return errors.Wrapf(ErrInvalidArgument, errors.CodeInvalidInput,
			"index %d out of range [0, %d]", index, len(dst))
	}

	c.guard.RLock()
	defer c.guard.RUnlock()

	n := c.store.Len()
	if len(dst)-index < n {
		return errors.Wrapf(ErrInvalidArgument, errors.CodeInvalidInput,
			"not enough room after index %d: need %d, have %d", index, n, len(dst)-index)
	}

	for i := 0; i < n; i++ {
		entry := c.store.At(i)
		dst[index+i] = Pair[K, V]{Key: entry.Key, Value: entry.Value}
	}
	return nil
}
