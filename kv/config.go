package kv

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/plateful/plateful/internal/kvinfra"
)

// Supported backends.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config selects and configures a key-value backend.
type Config struct {
	// Backend is "redis" for production or "memory" for dev and tests.
	Backend string

	// RedisAddr is the host:port of the Redis server. Required for the
	// redis backend.
	RedisAddr string

	// RedisPassword is the optional AUTH password.
	RedisPassword string

	// RedisDB is the logical Redis database number.
	RedisDB int

	// Memory configures the embedded backend. Zero values fall back to
	// kvinfra defaults.
	MemoryCapacity  int
	MemoryNumShards int
	MemoryRetention time.Duration
}

// DefaultConfig returns a Config for the embedded backend, suitable for
// development and tests.
func DefaultConfig() Config {
	mem := kvinfra.DefaultConfig()
	return Config{
		Backend:         BackendMemory,
		MemoryCapacity:  mem.Capacity,
		MemoryNumShards: mem.NumShards,
		MemoryRetention: mem.Retention,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendRedis, BackendMemory)),
		validation.Field(&c.RedisAddr, validation.Required.When(c.Backend == BackendRedis)),
		validation.Field(&c.RedisDB, validation.Min(0)),
	)
}

// Open constructs the configured Store along with a close function that the
// process entry point owns. The store client is always injected explicitly;
// nothing in this module holds it as package-level state.
func Open(cfg Config) (Store, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	switch cfg.Backend {
	case BackendRedis:
		s := kvinfra.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		return s, s.Close, nil
	default:
		mem := kvinfra.DefaultConfig()
		if cfg.MemoryCapacity > 0 {
			mem.Capacity = cfg.MemoryCapacity
		}
		if cfg.MemoryNumShards > 0 {
			mem.NumShards = cfg.MemoryNumShards
		}
		if cfg.MemoryRetention > 0 {
			mem.Retention = cfg.MemoryRetention
		}
		s, err := kvinfra.NewMemoryStore(mem)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	}
}
