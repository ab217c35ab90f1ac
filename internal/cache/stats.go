package cache

import (
	"sync/atomic"
	"time"
)

type counters struct {
	hits              atomic.Uint64
	misses            atomic.Uint64
	retrievals        atomic.Uint64
	retrievalFailures atomic.Uint64
	evictions         atomic.Uint64
	evictionRuns      atomic.Uint64
	createdAt         time.Time
}

// Stats is a point-in-time view of a cache's counters
type Stats struct {
	Name string `json:"name"`

	// Capacity
	Entries                 int     `json:"entries"`
	CurrentWeight           int64   `json:"current_weight"`
	PeakWeight              int64   `json:"peak_weight"`
	Pressure                float64 `json:"pressure"`
	MaxWeight               int64   `json:"max_weight"`
	AllowedWeight           float64 `json:"allowed_weight"`
	CleanupThresholdPercent int     `json:"cleanup_threshold_percent"`

	// Operations
	Hits              uint64 `json:"hits"`
	Misses            uint64 `json:"misses"`
	Retrievals        uint64 `json:"retrievals"`
	RetrievalFailures uint64 `json:"retrieval_failures"`

	// Eviction
	Evictions       uint64 `json:"evictions"`
	EvictionRuns    uint64 `json:"eviction_runs"`
	EvictionRunning bool   `json:"eviction_running"`

	CreatedAt time.Time `json:"created_at"`
}

// HitRate returns hits as a percentage of lookups
func (s *Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total) * 100.0
}

// Stats returns the cache's counters. Fields are read individually, so the
// result is not an atomic snapshot while writes are in flight.
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Name:                    c.name,
		Entries:                 c.Len(),
		CurrentWeight:           c.pool.Current(),
		PeakWeight:              c.pool.PeakWeight(),
		Pressure:                c.pool.Pressure(),
		MaxWeight:               c.pool.MaxWeight(),
		AllowedWeight:           c.pool.AllowedWeight(),
		CleanupThresholdPercent: c.pool.ThresholdPercent(),
		Hits:                    c.stats.hits.Load(),
		Misses:                  c.stats.misses.Load(),
		Retrievals:              c.stats.retrievals.Load(),
		RetrievalFailures:       c.stats.retrievalFailures.Load(),
		Evictions:               c.stats.evictions.Load(),
		EvictionRuns:            c.stats.evictionRuns.Load(),
		EvictionRunning:         c.evicting.Load(),
		CreatedAt:               c.stats.createdAt,
	}
}
