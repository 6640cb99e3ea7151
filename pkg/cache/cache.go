// Package cache provides pluggable caching for resolved layouts and
// rendered artifacts.
//
// # Backends
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [MemoryCache]: in-process map, for tests and the HTTP server
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for multiple server instances
//
// # Keys
//
// Keys are built by a [Keyer] from content hashes plus every option that
// affects the cached value. [ScopedKeyer] adds a prefix for tenant
// isolation.
//
//	k := cache.NewDefaultKeyer()
//	key := k.LayoutKey(cache.Hash(schemaJSON), cache.LayoutKeyOpts{Units: "px"})
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// Default time-to-live values for cached entries.
const (
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache stores opaque byte values under string keys. Implementations must be
// safe for concurrent use. A miss is reported as (nil, false, nil), never as
// an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
