// Package session issues and resolves the opaque tokens that authenticate
// API requests. Sessions live only in the key-value store under the auth_
// namespace; there is no in-process copy, so a revocation is visible to the
// very next request.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/plateful/plateful/kv"
)

// TTL is how long a session stays valid after login.
const TTL = 24 * time.Hour

const keyPrefix = "auth_"

// ErrNoSession is returned when a token does not resolve to a user. Expired,
// revoked, and never-issued tokens all present this way so callers cannot
// probe which it was.
var ErrNoSession = errors.New("session: no such session")

// FailurePolicy decides what Resolve does when the store itself is
// unreachable, as opposed to the key being absent.
type FailurePolicy int

const (
	// FailClosed collapses store failures into ErrNoSession: every request
	// is unauthenticated while the store is down. Safe by default, but a
	// store outage silently logs every user out.
	FailClosed FailurePolicy = iota

	// Propagate surfaces store failures as kv.ErrUnavailable so the gate
	// can answer 503 instead of 401 and callers can tell an outage from a
	// bad token.
	Propagate
)

// Store issues, resolves, and revokes session tokens.
type Store struct {
	kv     kv.Store
	ttl    time.Duration
	policy FailurePolicy
	logger *slog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithTTL overrides the session lifetime. Tests shorten it; production keeps
// the default.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithFailurePolicy selects how Resolve treats store outages.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(s *Store) { s.policy = p }
}

// New creates a session store on top of the provided key-value store.
func New(store kv.Store, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		kv:     store,
		ttl:    TTL,
		policy: FailClosed,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the store key for a token. Exported so tests and operators can
// locate session records without restating the namespace.
func Key(token string) string {
	return keyPrefix + token
}

// Create issues a fresh token for userID and registers it with the session
// TTL. The token is a v4 UUID, 122 random bits; collisions are not handled
// beyond that randomness.
func (s *Store) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.kv.Set(ctx, Key(token), []byte(userID), s.ttl); err != nil {
		return "", fmt.Errorf("session: create: %w", err)
	}
	return token, nil
}

// Resolve returns the user id a token belongs to, or ErrNoSession. Under the
// default FailClosed policy a store outage also reads as ErrNoSession; under
// Propagate it surfaces as kv.ErrUnavailable.
func (s *Store) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNoSession
	}

	value, err := s.kv.Get(ctx, Key(token))
	switch {
	case err == nil:
		return string(value), nil
	case errors.Is(err, kv.ErrNotFound):
		return "", ErrNoSession
	case s.policy == Propagate:
		return "", fmt.Errorf("session: resolve: %w", err)
	default:
		s.logger.Warn("session store unreachable, failing closed", "error", err)
		return "", ErrNoSession
	}
}

// Revoke deletes the session for token. Revoking a token that does not exist
// is not an error.
func (s *Store) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.kv.Delete(ctx, Key(token)); err != nil {
		return fmt.Errorf("session: revoke: %w", err)
	}
	return nil
}
