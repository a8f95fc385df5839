package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This is useful when several deployments share one Redis or MongoDB
// backend and must not see each other's entries.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
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

// Prefix returns the namespace prefix.
func (k *ScopedKeyer) Prefix() string { return k.prefix }

// GraphKey generates a prefixed key for the cached JSON graph.
func (k *ScopedKeyer) GraphKey(inputHash string) string {
	return k.prefix + k.inner.GraphKey(inputHash)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(inputHash, opts)
}
