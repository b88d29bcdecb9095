// Package cache provides the storage layer for memoized placement results.
//
// Placement is pure and cheap, but the CLI sweeps and the HTTP server compute
// the same requests over and over. The pipeline stores encoded results here,
// keyed by a structural hash of the normalized request and the engine options.
//
// # Backends
//
//   - [NullCache]: caching disabled
//   - [FileCache]: JSON files under the user's cache directory, for the CLI
//   - [RedisCache]: shared cache for multi-instance API deployments
//
// # Keys
//
// Keys are produced by a [Keyer] so callers never build key strings by hand.
// [ScopedKeyer] prefixes every key to isolate tenants or environments.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with expiration.
type Cache interface {
	// Get returns the stored value and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Clear drops all entries in c if the backend supports it.
// Backends without a notion of ownership are left untouched.
func Clear(ctx context.Context, c Cache) error {
	if cl, ok := c.(Clearer); ok {
		return cl.Clear(ctx)
	}
	return nil
}

// Default TTLs.
const (
	// DefaultTTL is how long placement results stay cached.
	DefaultTTL = 24 * time.Hour
)

// Keyer builds cache keys.
type Keyer interface {
	// PlacementKey identifies a computed placement result.
	PlacementKey(requestHash string, opts PlacementKeyOpts) string

	// TraceKey identifies a full selection trace for the same request.
	TraceKey(requestHash string, opts PlacementKeyOpts) string
}

// PlacementKeyOpts holds the parts of a placement key besides the request.
type PlacementKeyOpts struct {
	OptionsHash string `json:"options_hash"`
	Version     string `json:"version,omitempty"`
}

// DefaultKeyer produces hashed keys of the form "namespace:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PlacementKey generates a key for placement result caching.
func (DefaultKeyer) PlacementKey(requestHash string, opts PlacementKeyOpts) string {
	return hashKey("placement", requestHash, opts)
}

// TraceKey generates a key for selection trace caching.
func (DefaultKeyer) TraceKey(requestHash string, opts PlacementKeyOpts) string {
	return hashKey("trace", requestHash, opts)
}
