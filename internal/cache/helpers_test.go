package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// tickingClock advances one millisecond on every read, so accesses are
// strictly ordered regardless of wall clock resolution
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickingClock() *tickingClock {
	return &tickingClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type evictionWaiter interface {
	WaitForEviction(ctx context.Context) error
}

func waitForEviction(t *testing.T, c evictionWaiter) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.WaitForEviction(ctx))
}
