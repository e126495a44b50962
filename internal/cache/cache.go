package cache

import (
	"context"
	"time"
)

// Cache interface for analysis result caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Close closes the cache connection
	Close() error
}

// KeyPrefixProduct is the prefix for cached analysis results. The rest of
// the key is the literal request input: no normalization, so trivially
// different inputs are distinct entries.
const KeyPrefixProduct = "cache:product:"

// TTLProduct is the TTL for a cached analysis (24 hours)
const TTLProduct = 24 * time.Hour

// ProductKey builds the cache key for a request input.
func ProductKey(input string) string {
	return KeyPrefixProduct + input
}
