// Package cache provides storage for rendered clause diagrams.
//
// # Overview
//
// Conversions are pure, so a rendered artifact is fully determined by the
// input bytes and the render options. The pipeline hashes both into a key
// and stores the output in a [Cache]. Four backends are provided:
//
//   - [FileCache]: files under a local directory (CLI default)
//   - [RedisCache]: a Redis server, for the HTTP API behind a load balancer
//   - [MongoCache]: a MongoDB collection with a TTL index
//   - [NullCache]: stores nothing (--no-cache)
//
// # Keys
//
// A [Keyer] builds keys from an input hash and options. [ScopedKeyer] adds a
// namespace prefix so several deployments can share one backend:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
//	key := keyer.ArtifactKey(cache.Hash(input), cache.ArtifactKeyOpts{Format: "svg"})
//
// # Errors
//
// The network backends retry transient failures with [RetryWithBackoff].
// A cache failure never fails a conversion; callers log it and carry on.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the cache.
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// DefaultTTL is how long artifacts are kept when no TTL is configured.
const DefaultTTL = 7 * 24 * time.Hour
