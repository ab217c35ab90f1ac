package storage

import (
	"sync/atomic"

	"github.com/jmgilman/go/errors"
)

// MaxCleanupThresholdPercent is the largest cleanup threshold a pool accepts
const MaxCleanupThresholdPercent = 50

// WeightPool tracks the aggregate weight charged by a cache's entries.
//
// Mutations are expected to happen under the owning cache's write lock;
// the counters are atomic so that readers can observe them without locking.
type WeightPool struct {
	name             string
	maxWeight        int64
	thresholdPercent int
	current          atomic.Int64

	// Statistics
	totalCharged  atomic.Int64 // Number of Charge calls
	totalReleased atomic.Int64 // Number of Release calls
	peakWeight    atomic.Int64
}

// NewWeightPool creates a pool bounded by maxWeight. Eviction drains the pool
// down to thresholdPercent below maxWeight.
func NewWeightPool(name string, maxWeight int64, thresholdPercent int) (*WeightPool, error) {
	if maxWeight <= 0 {
		return nil, errors.Newf(errors.CodeInvalidInput, "max weight must be greater than 0, got %d", maxWeight)
	}
	if thresholdPercent < 0 || thresholdPercent > MaxCleanupThresholdPercent {
		return nil, errors.Newf(errors.CodeInvalidInput, "cleanup threshold must be between 0 and %d percent, got %d",
			MaxCleanupThresholdPercent, thresholdPercent)
	}
	return &WeightPool{
		name:             name,
		maxWeight:        maxWeight,
		thresholdPercent: thresholdPercent,
	}, nil
}

// Charge adds weight to the pool and returns the new total
func (wp *WeightPool) Charge(weight int64) int64 {
	total := wp.current.Add(weight)
	wp.totalCharged.Add(1)
	for {
		peak := wp.peakWeight.Load()
		if total <= peak || wp.peakWeight.CompareAndSwap(peak, total) {
			break
		}
	}
	return total
}

// Release subtracts weight from the pool and returns the new total
func (wp *WeightPool) Release(weight int64) int64 {
	wp.totalReleased.Add(1)
	return wp.current.Add(-weight)
}

// Reset zeroes the current weight
func (wp *WeightPool) Reset() {
	wp.current.Store(0)
}

// Current returns the weight currently charged
func (wp *WeightPool) Current() int64 {
	return wp.current.Load()
}

// MaxWeight returns the configured maximum
func (wp *WeightPool) MaxWeight() int64 {
	return wp.maxWeight
}

// ThresholdPercent returns the configured cleanup threshold
func (wp *WeightPool) ThresholdPercent() int {
	return wp.thresholdPercent
}

// AtCapacity reports whether the current weight has reached the maximum
func (wp *WeightPool) AtCapacity() bool {
	return wp.current.Load() >= wp.maxWeight
}

// AllowedWeight is the level eviction drains the pool down to:
// maxWeight minus thresholdPercent of maxWeight.
func (wp *WeightPool) AllowedWeight() float64 {
	limit := float64(wp.maxWeight)
	return limit - (float64(wp.thresholdPercent)/100)*limit
}

// WithinAllowance reports whether the current weight is at or below AllowedWeight
func (wp *WeightPool) WithinAllowance() bool {
	return float64(wp.current.Load()) <= wp.AllowedWeight()
}

// Pressure returns current/max, which exceeds 1.0 when the pool is over its maximum
func (wp *WeightPool) Pressure() float64 {
	return float64(wp.current.Load()) / float64(wp.maxWeight)
}

// PeakWeight returns the highest total ever charged
func (wp *WeightPool) PeakWeight() int64 {
	return wp.peakWeight.Load()
}

// Name returns the name of this pool
func (wp *WeightPool) Name() string {
	return wp.name
}

// GetStats returns a snapshot of the pool's counters
func (wp *WeightPool) GetStats() map[string]interface{} {
	current := wp.current.Load()
	return map[string]interface{}{
		"name":              wp.name,
		"max_weight":        wp.maxWeight,
		"current_weight":    current,
		"allowed_weight":    wp.AllowedWeight(),
		"threshold_percent": wp.thresholdPercent,
		"pressure":          float64(current) / float64(wp.maxWeight),
		"peak_weight":       wp.peakWeight.Load(),
		"total_charged":     wp.totalCharged.Load(),
		"total_released":    wp.totalReleased.Load(),
	}
}
