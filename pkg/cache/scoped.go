package cache

// ScopedKeyer wraps a Keyer with a prefix so that several users of one
// backend keep separate namespaces.
//
// Example usage:
//
//	// Entries written by one release are never read by another
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v1.4.0:")
//
//	// A shared Redis cache split per project
//	keyer := NewScopedKeyer(nil, "project:mocks:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(layoutHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(layoutHash, opts)
}
