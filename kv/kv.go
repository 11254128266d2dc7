package kv

import (
	"context"
	"time"

	"github.com/plateful/plateful/internal/kvinfra"
)

// Store is the contract every key-value backend satisfies: string keys,
// opaque byte values, TTLs in real time, and a server-side glob delete.
// All operations are idempotent; coordination beyond single-key atomicity
// is deliberately out of scope.
type Store interface {
	// Get returns the value under key or ErrNotFound. Absent, expired, and
	// deleted keys are indistinguishable to callers.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A ttl of zero or less means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteByPattern removes all keys matching the glob pattern and returns
	// how many were removed. Zero matches is a no-op. The pattern syntax is
	// the Redis glob subset ('*', '?', '\' escape); a malformed pattern
	// fails with ErrBadPattern.
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

// Error kinds returned by Store implementations. ErrNotFound is an expected
// negative result and drives normal control flow; ErrUnavailable means the
// backing service could not be reached and each caller decides whether to
// fail open or closed; ErrBadPattern is a programmer error in key
// construction.
var (
	ErrNotFound    = kvinfra.ErrNotFound
	ErrUnavailable = kvinfra.ErrUnavailable
	ErrBadPattern  = kvinfra.ErrBadPattern
)
