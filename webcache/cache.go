// Package webcache provides the read-through response cache and the
// write-side invalidation that keeps it honest. An entry that is present and
// unexpired is assumed equivalent to re-running the handler right now; the
// Invalidator exists to delete entries the moment that stops being true.
package webcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/plateful/plateful/kv"
)

// DefaultTTL bounds staleness for cached listing and detail responses. It is
// also the upper bound on how long a lost invalidation can serve stale data.
const DefaultTTL = 300 * time.Second

// Producer computes the true response on a cache miss.
type Producer func(ctx context.Context) ([]byte, error)

// ResponseCache is a read-through cache over a shared key-value store. It
// has no in-process state of its own, so any number of concurrent requests
// can share one instance without locks.
type ResponseCache struct {
	kv     kv.Store
	logger *slog.Logger
}

// NewResponseCache creates a response cache on top of the provided store.
func NewResponseCache(store kv.Store, logger *slog.Logger) *ResponseCache {
	return &ResponseCache{kv: store, logger: logger}
}

// Wrap returns the cached value under key when present, and otherwise runs
// producer, stores its result with the given TTL, and returns it. The second
// return reports whether this was a hit.
//
// A hit costs exactly one store round trip and never invokes producer. A
// store read failure is a forced miss: slow-but-correct beats failing the
// request. A store write failure is logged and swallowed, and the freshly
// computed value is returned anyway. Concurrent misses for the same key each
// run producer; the duplicate work is accepted rather than coalesced.
func (c *ResponseCache) Wrap(ctx context.Context, key string, ttl time.Duration, producer Producer) ([]byte, bool, error) {
	cached, err := c.kv.Get(ctx, key)
	if err == nil {
		return cached, true, nil
	}
	if !errors.Is(err, kv.ErrNotFound) {
		c.logger.Warn("cache read failed, serving from source", "key", key, "error", err)
	}

	value, err := producer(ctx)
	if err != nil {
		return nil, false, err
	}

	if err := c.kv.Set(ctx, key, value, ttl); err != nil {
		c.logger.Warn("cache population failed", "key", key, "error", err)
	}
	return value, false, nil
}

// Invalidator deletes cache entries whose underlying rows just changed.
// Write handlers call it strictly after their transaction commits: never
// before, and never when the write failed or rolled back, because clearing
// the cache for a write that did not happen leaves stale data in place until
// the next real mutation.
type Invalidator struct {
	kv     kv.Store
	logger *slog.Logger
}

// NewInvalidator creates an invalidator on top of the provided store.
func NewInvalidator(store kv.Store, logger *slog.Logger) *Invalidator {
	return &Invalidator{kv: store, logger: logger}
}

// Invalidate deletes every cache entry matching any of the patterns.
// Duplicates are collapsed before dispatch and order is irrelevant. A
// pattern matching zero keys is a no-op.
//
// A failure here is the most dangerous error in the system: the write
// already committed, so the cache may serve stale data for up to one TTL.
// It is logged at Error level and returned so the caller can alert, but it
// must not fail the request that triggered it.
func (iv *Invalidator) Invalidate(ctx context.Context, patterns ...string) error {
	seen := make(map[string]struct{}, len(patterns))
	var errs []error

	for _, pattern := range patterns {
		if _, dup := seen[pattern]; dup {
			continue
		}
		seen[pattern] = struct{}{}

		n, err := iv.kv.DeleteByPattern(ctx, pattern)
		if err != nil {
			iv.logger.Error("cache invalidation failed, stale data possible until TTL",
				"pattern", pattern, "error", err)
			errs = append(errs, fmt.Errorf("invalidate %q: %w", pattern, err))
			continue
		}
		iv.logger.Debug("cache invalidated", "pattern", pattern, "deleted", n)
	}
	return errors.Join(errs...)
}
