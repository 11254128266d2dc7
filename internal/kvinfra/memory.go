package kvinfra

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"
)

// MemoryStore is the embedded key-value adapter, backed by a sturdyc client.
// It serves development and tests; production deployments point at Redis.
//
// sturdyc's TTL applies client-wide, while the store contract needs a TTL per
// key, so logical expiry is tracked inside each entry and checked on read.
// sturdyc still provides sharded storage and capacity eviction underneath;
// its own TTL acts as the retention ceiling from Config.
type MemoryStore struct {
	client *sturdyc.Client[entry]
	now    func() time.Time
}

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source. Tests use it to cross TTL boundaries
// without sleeping.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an embedded store from the provided configuration.
func NewMemoryStore(cfg Config, opts ...MemoryOption) (*MemoryStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &MemoryStore{
		client: sturdyc.New[entry](cfg.Capacity, cfg.NumShards, cfg.Retention, cfg.EvictionPercentage),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get returns the value stored under key, or ErrNotFound when the key is
// absent or its TTL has elapsed. Expired entries are removed on read.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	e, ok := s.client.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	if s.expired(e) {
		s.client.Delete(key)
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores value under key. A ttl of zero or less means no expiry beyond
// the store's retention ceiling.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.client.Set(key, e)
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPattern removes every key matching the glob pattern and returns
// how many were removed. Zero matches is a no-op, not an error.
func (s *MemoryStore) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	if err := CheckPattern(pattern); err != nil {
		return 0, err
	}

	deleted := 0
	for _, key := range s.client.ScanKeys() {
		if !match(pattern, key) {
			continue
		}
		s.client.Delete(key)
		deleted++
	}
	return deleted, nil
}

func (s *MemoryStore) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
