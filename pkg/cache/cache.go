// Package cache stores rendered artifacts.
//
// Only derived output is cached (SVG documents keyed by a hash of the scene
// they draw). Taxonomy responses are never cached, so every expansion still
// reaches the backend.
//
// Backends:
//
//   - [FileCache]: one JSON envelope per key under a directory (CLI)
//   - [RedisCache]: shared across server replicas
//   - [NullCache]: caching disabled
//
// [Artifacts] combines a backend with a [Keyer] and reports hits and misses
// to the observability hooks.
package cache

import (
	"context"
	"time"
)

// TTLArtifact is how long rendered artifacts are kept.
const TTLArtifact = 7 * 24 * time.Hour

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend.
	Close() error
}
