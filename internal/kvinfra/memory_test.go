package kvinfra

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T, opts ...MemoryOption) *MemoryStore {
	t.Helper()

	s, err := NewMemoryStore(DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	return s
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	want := []byte(`{"recipes":[]}`)
	if err := s.Set(ctx, "k", want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get = %q, want %q", got, want)
	}
}

func TestMemoryStoreTTLBoundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	s := newTestStore(t, WithClock(func() time.Time { return *clock }))
	ctx := context.Background()

	if err := s.Set(ctx, "session", []byte("user-1"), 24*time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// One instant before expiry the key still resolves.
	later := now.Add(24*time.Hour - time.Nanosecond)
	clock = &later
	if _, err := s.Get(ctx, "session"); err != nil {
		t.Fatalf("Get just before expiry: %v", err)
	}

	// At the boundary it is gone.
	atExpiry := now.Add(24 * time.Hour)
	clock = &atExpiry
	if _, err := s.Get(ctx, "session"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get at expiry error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreNoTTL(t *testing.T) {
	now := time.Now()
	clock := &now
	s := newTestStore(t, WithClock(func() time.Time { return *clock }))
	ctx := context.Background()

	if err := s.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	farFuture := now.Add(1000 * time.Hour)
	clock = &farFuture
	if _, err := s.Get(ctx, "forever"); err != nil {
		t.Fatalf("Get with no TTL after long time: %v", err)
	}
}

func TestMemoryStoreDeleteIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete of absent key: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreDeleteByPattern(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	keys := []string{
		"__cache__/api/recipes",
		"__cache__/api/recipes?page=2",
		"__cache__/api/recipe/abc",
		"auth_token-1",
	}
	for _, k := range keys {
		if err := s.Set(ctx, k, []byte("v"), time.Minute); err != nil {
			t.Fatalf("Set(%q): %v", k, err)
		}
	}

	n, err := s.DeleteByPattern(ctx, "__cache__/api/recipes*")
	if err != nil {
		t.Fatalf("DeleteByPattern: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d keys, want 2", n)
	}

	// The detail entry and the session survive.
	if _, err := s.Get(ctx, "__cache__/api/recipe/abc"); err != nil {
		t.Errorf("detail entry was deleted: %v", err)
	}
	if _, err := s.Get(ctx, "auth_token-1"); err != nil {
		t.Errorf("session entry was deleted: %v", err)
	}
}

func TestMemoryStoreDeleteByPatternZeroMatches(t *testing.T) {
	s := newTestStore(t)

	n, err := s.DeleteByPattern(context.Background(), "__cache__/nothing*")
	if err != nil {
		t.Fatalf("DeleteByPattern with zero matches: %v", err)
	}
	if n != 0 {
		t.Errorf("deleted %d keys, want 0", n)
	}
}

func TestMemoryStoreDeleteByPatternBadPattern(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.DeleteByPattern(context.Background(), `broken\`); !errors.Is(err, ErrBadPattern) {
		t.Fatalf("error = %v, want ErrBadPattern", err)
	}
}

func TestMemoryStoreConfigValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 0

	if _, err := NewMemoryStore(cfg); err == nil {
		t.Fatal("expected validation error for zero capacity")
	}
}
