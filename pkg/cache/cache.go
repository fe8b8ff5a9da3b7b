// Package cache stores resolved layouts between runs.
//
// Resolving a layout re-reads every included file, and a large map can take
// a while to expand. The pipeline caches the permutations of each input file
// keyed by its content hash and the options that shape the output, and
// validates every entry against the content hashes of the files it included
// before using it.
//
// # Backends
//
//   - [FileCache]: one file per entry under a directory, used by the CLI.
//   - [RedisCache]: a shared Redis instance, for teams and CI.
//   - [NullCache]: caches nothing, used when caching is disabled.
//
// # Keys
//
// Keys are built by a [Keyer]. [DefaultKeyer] hashes the key options;
// [ScopedKeyer] prefixes another keyer's keys so that unrelated users of one
// backend (different jrevolver versions, for example) never share entries.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long resolved layouts stay cached when no TTL is
// configured. Entries are validated against their dependencies on every
// read, so the TTL only bounds disk usage.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key and whether it was found. A miss is not
	// an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey returns the key for the resolved permutations of a layout
	// whose content hashes to layoutHash.
	LayoutKey(layoutHash string, opts LayoutKeyOpts) string
}

// LayoutKeyOpts holds every option that changes the resolved output of a
// layout.
type LayoutKeyOpts struct {
	IncludeDirs     []string `json:"include_dirs,omitempty"`
	SortKeys        bool     `json:"sort_keys"`
	MaxPermutations int      `json:"max_permutations,omitempty"`
	MaxPasses       int      `json:"max_passes,omitempty"`
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(layoutHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", layoutHash, opts)
}
