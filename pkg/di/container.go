// Package di wires the caching and session components onto one key-value
// store client. The container owns the client's lifecycle; everything else
// receives it by injection and nothing holds it as package-level state.
package di

import (
	"log/slog"

	"github.com/plateful/plateful/kv"
	"github.com/plateful/plateful/session"
	"github.com/plateful/plateful/webcache"
)

// Container holds the singleton cache-side components built on one store.
type Container struct {
	store      kv.Store
	closeStore func() error

	sessions    *session.Store
	cache       *webcache.ResponseCache
	invalidator *webcache.Invalidator
}

// NewContainer opens the configured key-value backend and builds the session
// store, response cache, and invalidator on top of it.
func NewContainer(cfg kv.Config, logger *slog.Logger, sessionOpts ...session.Option) (*Container, error) {
	store, closeStore, err := kv.Open(cfg)
	if err != nil {
		return nil, err
	}

	return &Container{
		store:       store,
		closeStore:  closeStore,
		sessions:    session.New(store, logger, sessionOpts...),
		cache:       webcache.NewResponseCache(store, logger),
		invalidator: webcache.NewInvalidator(store, logger),
	}, nil
}

// Store returns the shared key-value store for advanced use cases.
func (c *Container) Store() kv.Store { return c.store }

// Sessions returns the singleton session store.
func (c *Container) Sessions() *session.Store { return c.sessions }

// Cache returns the singleton response cache.
func (c *Container) Cache() *webcache.ResponseCache { return c.cache }

// Invalidator returns the singleton invalidation coordinator.
func (c *Container) Invalidator() *webcache.Invalidator { return c.invalidator }

// Close releases the store connection. Call once at process shutdown.
func (c *Container) Close() error { return c.closeStore() }
