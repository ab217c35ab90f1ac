package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jmgilman/go/errors"

	"weightcache/internal/logging"
	"weightcache/internal/storage"
)

// Cache is a thread-safe key/value store bounded by the total weight of its
// values.
//
// Every write that brings the total weight to MaxWeight or above starts a
// background eviction run (unless one is already running) that removes the
// least recently accessed entries until the weight drops to the cleanup
// threshold below MaxWeight. Writers never wait for eviction.
//
// Reads refresh an entry's access time. On a miss, Get asks the configured
// Retriever for the value and stores it.
type Cache[K comparable, V any] struct {
	name      string
	guard     guard
	store     *storage.EntryStore[K, V]
	pool      *storage.WeightPool
	weigher   Weigher[V]
	retriever Retriever[K, V]
	clock     Clock
	onEvict   func(key K, value V)

	evicting atomic.Bool // Set while an eviction run is active
	stats    counters
}

// New creates a cache from validated options
func New[K comparable, V any](opts Options[K, V]) (*Cache[K, V], error) {
	if err := opts.validate(); err != nil {
		logging.Debug(context.Background(), logging.ComponentCache, logging.ActionValidation, "Rejected cache options", map[string]interface{}{
			"name":  opts.Name,
			"error": err.Error(),
		})
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = "default"
	}

	pool, err := storage.NewWeightPool(name, opts.MaxWeight, opts.CleanupThresholdPercent)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create weight pool")
	}

	var index storage.KeyIndex[K, V]
	if opts.Comparer != nil {
		index = storage.NewHashedIndex[K, V](opts.Comparer.Hash, opts.Comparer.Equal)
	}

	c := &Cache[K, V]{
		name:      name,
		store:     storage.NewEntryStore[K, V](index),
		pool:      pool,
		weigher:   opts.Weigher,
		retriever: opts.Retriever,
		clock:     opts.Clock,
		onEvict:   opts.OnEvict,
	}
	if c.weigher == nil {
		c.weigher = unitWeight[V]
	}
	if c.clock == nil {
		c.clock = wallClock{}
	}
	c.stats.createdAt = time.Now()

	logging.Debug(context.Background(), logging.ComponentCache, logging.ActionStart, "Weighted cache created", map[string]interface{}{
		"cache":             name,
		"max_weight":        opts.MaxWeight,
		"threshold_percent": opts.CleanupThresholdPercent,
		"custom_comparer":   opts.Comparer != nil,
		"auto_retrieval":    opts.Retriever != nil,
	})

	return c, nil
}

func (o Options[K, V]) validate() error {
	if o.MaxWeight <= 0 {
		return errors.Wrapf(ErrInvalidConfig, errors.CodeInvalidInput,
			"max weight must be greater than 0, got %d", o.MaxWeight)
	}
	if o.CleanupThresholdPercent < 0 || o.CleanupThresholdPercent > storage.MaxCleanupThresholdPercent {
		return errors.Wrapf(ErrInvalidConfig, errors.CodeInvalidInput,
			"cleanup threshold should not be more than %d percent, got %d",
			storage.MaxCleanupThresholdPercent, o.CleanupThresholdPercent)
	}
	return nil
}

// Name returns the cache name given in Options
func (c *Cache[K, V]) Name() string {
	return c.name
}

// Len returns the number of entries
func (c *Cache[K, V]) Len() int {
	c.guard.RLock()
	defer c.guard.RUnlock()
	return c.store.Len()
}

// CurrentWeight returns the aggregate weight of the stored values
func (c *Cache[K, V]) CurrentWeight() int64 {
	return c.pool.Current()
}

// MaxWeight returns the weight at which eviction starts
func (c *Cache[K, V]) MaxWeight() int64 {
	return c.pool.MaxWeight()
}

// CleanupThresholdPercent returns the configured cleanup threshold
func (c *Cache[K, V]) CleanupThresholdPercent() int {
	return c.pool.ThresholdPercent()
}

// ContainsKey reports whether key is present. It does not count as an access.
func (c *Cache[K, V]) ContainsKey(key K) bool {
	c.guard.RLock()
	defer c.guard.RUnlock()
	return c.store.Lookup(key) != nil
}

// Get returns the value for key. See GetContext.
func (c *Cache[K, V]) Get(key K) (V, error) {
	return c.GetContext(context.Background(), key)
}

// GetContext returns the value for key and marks it as recently used.
//
// On a miss with a Retriever configured, the retriever is called with ctx
// while other writers are held off; its value is stored and returned. If
// there is no Retriever, or it fails, GetContext returns ErrKeyNotFound.
//
// Called from inside this cache's Retriever with the context it was given,
// GetContext fails immediately with ErrKeyNotFound.
func (c *Cache[K, V]) GetContext(ctx context.Context, key K) (V, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.retrieving(ctx) {
		var zero V
		c.stats.misses.Add(1)
		logging.Debug(ctx, logging.ComponentRetrieval, logging.ActionRetrieve, "Nested lookup from retriever rejected", map[string]interface{}{
			"cache": c.name,
		})
		return zero, ErrKeyNotFound
	}

	value, inserted, err := c.getOrRetrieve(ctx, key)
	if inserted {
		c.triggerEviction(ctx)
	}
	return value, err
}

func (c *Cache[K, V]) getOrRetrieve(ctx context.Context, key K) (value V, inserted bool, err error) {
	c.guard.UpgradeableLock()
	defer c.guard.UpgradeableUnlock()

	if entry := c.store.Lookup(key); entry != nil {
		entry.Touch(c.now())
		c.stats.hits.Add(1)
		return entry.Value, false, nil
	}

	c.stats.misses.Add(1)
	if c.retriever == nil {
		return value, false, ErrKeyNotFound
	}

	retrieved, err := c.retrieve(ctx, key)
	if err != nil {
		return value, false, ErrKeyNotFound
	}

	c.guard.Upgrade()
	defer c.guard.Downgrade()
	c.upsertLocked(key, retrieved)

	if logging.DebugEnabled() {
		logging.Debug(ctx, logging.ComponentRetrieval, logging.ActionInsert, "Retrieved value stored", map[string]interface{}{
			"cache": c.name,
			"key":   fmt.Sprintf("%v", key),
		})
	}

	return retrieved, true, nil
}

// TryGet is Get without an error: ok is false exactly when Get would fail
func (c *Cache[K, V]) TryGet(key K) (value V, ok bool) {
	value, err := c.Get(key)
	if err != nil {
		var zero V
		return zero, false
	}
	return value, true
}

// Add inserts key. It fails with ErrDuplicateKey, leaving the cache
// unchanged, if key is already present.
func (c *Cache[K, V]) Add(key K, value V) error {
	if !c.insertIfAbsent(key, value) {
		return ErrDuplicateKey
	}
	c.triggerEviction(context.Background())
	return nil
}

func (c *Cache[K, V]) insertIfAbsent(key K, value V) bool {
	c.guard.UpgradeableLock()
	defer c.guard.UpgradeableUnlock()

	if c.store.Lookup(key) != nil {
		return false
	}

	c.guard.Upgrade()
	defer c.guard.Downgrade()
	c.upsertLocked(key, value)
	return true
}

// Set stores value under key, replacing any existing value
func (c *Cache[K, V]) Set(key K, value V) {
	c.guard.Lock()
	c.upsertLocked(key, value)
	c.guard.Unlock()

	c.triggerEviction(context.Background())
}

// Remove deletes key and reports whether it was present. Removal never
// starts an eviction run.
func (c *Cache[K, V]) Remove(key K) bool {
	c.guard.UpgradeableLock()
	defer c.guard.UpgradeableUnlock()

	if c.store.Lookup(key) == nil {
		return false
	}

	c.guard.Upgrade()
	defer c.guard.Downgrade()

	entry := c.store.Remove(key)
	if entry == nil {
		return false
	}
	c.pool.Release(entry.Weight)

	if logging.DebugEnabled() {
		logging.Debug(context.Background(), logging.ComponentCache, logging.ActionRemove, "Entry removed", map[string]interface{}{
			"cache":  c.name,
			"key":    fmt.Sprintf("%v", key),
			"weight": entry.Weight,
		})
	}
	return true
}

// Clear removes every entry and resets the weight to zero. An eviction run
// already in flight finishes against the emptied cache.
func (c *Cache[K, V]) Clear() {
	c.guard.Lock()
	defer c.guard.Unlock()

	c.store.Reset()
	c.pool.Reset()

	logging.Debug(context.Background(), logging.ComponentCache, logging.ActionClear, "Cache cleared", map[string]interface{}{
		"cache": c.name,
	})
}

// Keys returns a copy of the current keys
func (c *Cache[K, V]) Keys() []K {
	c.guard.RLock()
	defer c.guard.RUnlock()

	keys := make([]K, 0, c.store.Len())
	for i := 0; i < c.store.Len(); i++ {
		keys = append(keys, c.store.At(i).Key)
	}
	return keys
}

// Values returns a copy of the current values
func (c *Cache[K, V]) Values() []V {
	c.guard.RLock()
	defer c.guard.RUnlock()

	values := make([]V, 0, c.store.Len())
	for i := 0; i < c.store.Len(); i++ {
		values = append(values, c.store.At(i).Value)
	}
	return values
}

// upsertLocked stores the value and charges its weight (caller must hold the write lock)
func (c *Cache[K, V]) upsertLocked(key K, value V) {
	weight := c.weigher(value)
	entry := storage.NewEntry(key, value, weight, c.now())

	// Overwrites give back the replaced value's weight
	if replaced := c.store.Upsert(entry); replaced != nil {
		c.pool.Release(replaced.Weight)
	}
	c.pool.Charge(weight)
}

func (c *Cache[K, V]) now() int64 {
	return c.clock.Now().UnixNano()
}
