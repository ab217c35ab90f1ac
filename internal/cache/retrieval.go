package cache

import (
	"context"
	"fmt"

	"github.com/jmgilman/go/errors"

	"weightcache/internal/logging"
)

// retrievalKey marks a context handed to a retriever. owner is the cache
// running the retriever, so nested lookups into other caches still work.
type retrievalKey struct {
	owner any
}

// retrieving reports whether ctx belongs to a retriever of this cache
func (c *Cache[K, V]) retrieving(ctx context.Context) bool {
	marked, _ := ctx.Value(retrievalKey{owner: c}).(bool)
	return marked
}

// retrieve runs the configured Retriever for key. Panics are converted to
// errors so a faulty retriever cannot leave the cache locked. The caller
// holds the upgradeable read lock, so the retriever's context is marked and
// GetContext rejects lookups made through it.
func (c *Cache[K, V]) retrieve(ctx context.Context, key K) (value V, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logging.GetCorrelationID(ctx) == "" {
		ctx = logging.WithCorrelationID(ctx, logging.NewCorrelationID())
	}

	ctx = context.WithValue(ctx, retrievalKey{owner: c}, true)

	c.stats.retrievals.Add(1)

	defer func() {
		if r := recover(); r != nil {
			var zero V
			value = zero
			err = errors.Newf(errors.CodeInternal, "retriever panicked: %v", r)
		}
		if err != nil {
			c.stats.retrievalFailures.Add(1)
			if !logging.DebugEnabled() {
				return
			}
			logging.Debug(ctx, logging.ComponentRetrieval, logging.ActionRetrieve, "Retriever failed, reporting miss", map[string]interface{}{
				"cache": c.name,
				"key":   fmt.Sprintf("%v", key),
				"error": err.Error(),
			})
		}
	}()

	return c.retriever(ctx, key)
}
