package cache

// DefaultCleanupThresholdPercent is the cleanup threshold used by NewOptions
const DefaultCleanupThresholdPercent = 20

// Options configures a Cache. Start from NewOptions and set the fields you
// need; New validates them.
type Options[K comparable, V any] struct {
	// Name identifies the cache in logs and statistics.
	Name string

	// MaxWeight is the aggregate weight at which eviction starts. Must be > 0.
	MaxWeight int64

	// CleanupThresholdPercent is how far below MaxWeight, as a percentage of
	// MaxWeight, an eviction run drains the cache. Must be within [0, 50].
	CleanupThresholdPercent int

	// Weigher prices each value. Nil charges 1 per entry.
	Weigher Weigher[V]

	// Retriever loads values on a miss. Nil makes misses fail with ErrKeyNotFound.
	Retriever Retriever[K, V]

	// Comparer overrides key equality. Nil uses Go's == on K.
	Comparer KeyComparer[K]

	// Clock supplies access timestamps. Nil uses the wall clock.
	Clock Clock

	// OnEvict is called for every entry removed by an eviction run, after the
	// cache lock has been released. It runs on the eviction goroutine.
	OnEvict func(key K, value V)
}

// NewOptions returns options with defaults for the given maximum weight
func NewOptions[K comparable, V any](maxWeight int64) Options[K, V] {
	return Options[K, V]{
		Name:                    "default",
		MaxWeight:               maxWeight,
		CleanupThresholdPercent: DefaultCleanupThresholdPercent,
	}
}
