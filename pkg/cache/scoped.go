package cache

// ScopedKeyer prefixes every key of an inner Keyer so that several
// deployments can share one cache backend without seeing each other's
// entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "pampas:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// DirectionsKey implements Keyer.
func (k *ScopedKeyer) DirectionsKey(profile string, coords []string, stopovers []bool) string {
	return k.prefix + k.inner.DirectionsKey(profile, coords, stopovers)
}
