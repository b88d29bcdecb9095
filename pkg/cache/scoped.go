package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The API server uses it to keep results of differently configured
// deployments apart when they share one Redis instance.
//
// Example usage:
//
//	staging := NewScopedKeyer(NewDefaultKeyer(), "staging:")
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

// PlacementKey generates a prefixed key for placement result caching.
func (k *ScopedKeyer) PlacementKey(requestHash string, opts PlacementKeyOpts) string {
	return k.prefix + k.inner.PlacementKey(requestHash, opts)
}

// TraceKey generates a prefixed key for selection trace caching.
func (k *ScopedKeyer) TraceKey(requestHash string, opts PlacementKeyOpts) string {
	return k.prefix + k.inner.TraceKey(requestHash, opts)
}
