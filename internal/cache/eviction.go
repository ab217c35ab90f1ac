package cache

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmgilman/go/errors"

	"weightcache/internal/logging"
	"weightcache/internal/storage"
)

// triggerEviction starts an eviction run when the cache is at or over its
// maximum weight and no run is active. It never blocks the caller.
func (c *Cache[K, V]) triggerEviction(parent context.Context) {
	if !c.pool.AtCapacity() {
		return
	}
	if !c.evicting.CompareAndSwap(false, true) {
		return
	}

	c.stats.evictionRuns.Add(1)

	// The run outlives the triggering call, so it gets its own context
	ctx := logging.WithCorrelationID(context.Background(), logging.NewCorrelationID())
	logging.Debug(parent, logging.ComponentEviction, logging.ActionTrigger, "Eviction run scheduled", map[string]interface{}{
		"cache":          c.name,
		"current_weight": c.pool.Current(),
		"max_weight":     c.pool.MaxWeight(),
		"run_id":         logging.GetCorrelationID(ctx),
	})

	go c.runEviction(ctx)
}

// runEviction removes least recently accessed entries until the weight is
// within the cleanup threshold. Failures are logged, never returned.
func (c *Cache[K, V]) runEviction(ctx context.Context) {
	defer c.evicting.Store(false)
	defer func() {
		if r := recover(); r != nil {
			logging.Error(ctx, logging.ComponentEviction, logging.ActionEvict, "Eviction run aborted",
				errors.Newf(errors.CodeInternal, "eviction panicked: %v", r),
				map[string]interface{}{"cache": c.name})
		}
	}()

	done := logging.StartTimer(ctx, logging.ComponentEviction, logging.ActionEvict, "Eviction run finished")
	defer done()

	before := c.pool.Current()
	evicted := c.evictOldest(c.evictionCandidates())
	c.stats.evictions.Add(uint64(len(evicted)))

	logging.Debug(ctx, logging.ComponentEviction, logging.ActionEvict, "Evicted least recently used entries", map[string]interface{}{
		"cache":          c.name,
		"evicted":        len(evicted),
		"weight_before":  before,
		"weight_after":   c.pool.Current(),
		"allowed_weight": c.pool.AllowedWeight(),
	})

	if c.onEvict != nil {
		for _, e := range evicted {
			c.notifyEvicted(ctx, e)
		}
	}
}

// notifyEvicted runs the OnEvict hook for one entry. A panicking hook is
// logged and does not stop the hooks for the remaining entries.
func (c *Cache[K, V]) notifyEvicted(ctx context.Context, entry *storage.Entry[K, V]) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error(ctx, logging.ComponentEviction, logging.ActionEvict, "Eviction hook panicked",
				errors.Newf(errors.CodeInternal, "on evict panicked: %v", r),
				map[string]interface{}{"cache": c.name, "key": fmt.Sprintf("%v", entry.Key)})
		}
	}()
	c.onEvict(entry.Key, entry.Value)
}

// evictionCandidates snapshots the entries ordered oldest access first.
// Ties keep store order.
func (c *Cache[K, V]) evictionCandidates() []*storage.Entry[K, V] {
	c.guard.RLock()
	candidates := c.store.Snapshot()
	c.guard.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].LastAccess() < candidates[j].LastAccess()
	})
	return candidates
}

// evictOldest removes candidates in order, checking the allowance after each
// removal, so at least one entry goes even when the allowance equals the
// maximum. Candidates replaced or removed since the snapshot are skipped.
func (c *Cache[K, V]) evictOldest(candidates []*storage.Entry[K, V]) []*storage.Entry[K, V] {
	c.guard.Lock()
	defer c.guard.Unlock()

	evicted := make([]*storage.Entry[K, V], 0)

	// Weight dropped below the trigger since the run started (Clear, Remove)
	if !c.pool.AtCapacity() && c.pool.WithinAllowance() {
		return evicted
	}

	for _, entry := range candidates {
		if !c.store.RemoveIfSame(entry) {
			continue
		}
		c.pool.Release(entry.Weight)
		evicted = append(evicted, entry)

		if c.pool.WithinAllowance() {
			break
		}
	}
	return evicted
}

// Evicting reports whether an eviction run is active
func (c *Cache[K, V]) Evicting() bool {
	return c.evicting.Load()
}

// WaitForEviction blocks until no eviction run is active or ctx is done.
// A run triggered by a write is already marked active when the write returns.
func (c *Cache[K, V]) WaitForEviction(ctx context.Context) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for c.evicting.Load() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
