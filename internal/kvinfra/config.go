package kvinfra

import "time"

// Config holds the settings shared by the embedded key-value adapter.
type Config struct {
	// Capacity defines the maximum number of entries the embedded store keeps
	// before capacity eviction kicks in. Must be greater than 0.
	Capacity int

	// NumShards determines the number of shards for concurrent access.
	// Must be greater than 0.
	NumShards int

	// Retention is the hard ceiling on how long any entry may live in the
	// embedded store. Per-key TTLs are tracked per entry and must fit under
	// this ceiling. Must be greater than 0.
	Retention time.Duration

	// EvictionPercentage specifies what percentage of entries to evict when
	// the store reaches capacity. Must be between 1-100.
	EvictionPercentage int
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
// Retention defaults to twice the session TTL so session keys never outlive
// the embedded store's own eviction.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          64,
		Retention:          48 * time.Hour,
		EvictionPercentage: 10,
	}
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.Retention <= 0 {
		return &ConfigError{Field: "Retention", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
