package cache

import (
	"context"
	"time"
)

// Weigher returns the cost of storing value. Weights are summed and compared
// against the cache's maximum weight.
type Weigher[V any] func(value V) int64

// Retriever materializes the value for a key the cache does not hold.
// A returned error (or a panic) is reported to the caller as ErrKeyNotFound.
//
// It runs while the cache holds off writers and other lookups. A lookup on
// the same cache through the ctx it receives fails fast with ErrKeyNotFound.
// It must not call the cache through any other context (Get, TryGet, or a
// fresh context), nor write to it: those calls block forever.
type Retriever[K comparable, V any] func(ctx context.Context, key K) (V, error)

// KeyComparer defines custom key equality. Hash must return equal values for
// keys that Equal reports as equal.
type KeyComparer[K comparable] interface {
	Hash(key K) uint64
	Equal(a, b K) bool
}

// Clock supplies access timestamps; useful for deterministic tests
type Clock interface {
	Now() time.Time
}

// Pair is a key/value pair copied out of the cache
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func unitWeight[V any](V) int64 { return 1 }
