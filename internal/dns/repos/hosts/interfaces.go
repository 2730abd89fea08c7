package hosts

import "net/netip"

// Entry is one flattened hosts-table record: a canonical lowercase name bound
// to exactly one address. The sentinel 0.0.0.0 marks a blacklisted name.
type Entry struct {
	Name string
	Addr netip.Addr
}

// Decision is the cached result of a single name lookup. Found distinguishes a
// cached miss from a cached hit, so repeated misses skip the store too.
type Decision struct {
	Addr  netip.Addr
	Found bool
}

// Store abstracts the authoritative name→address index. The table is loaded
// once at startup and never mutated by query traffic.
type Store interface {
	// GetAddr returns the address bound to the canonical name, if present.
	GetAddr(name string) (netip.Addr, bool, error)
	// Len returns the number of names in the store.
	Len() int
	// Close releases any resources held by the store.
	Close() error
}

// DecisionCache caches lookup decisions by canonical name with basic metrics.
type DecisionCache interface {
	Get(name string) (Decision, bool)
	Put(name string, d Decision)
	Len() int
	Purge()
	Stats() (hits, misses, evictions uint64)
}

// BloomFilter is the minimal prefilter interface the repository needs: a
// definitely-negative answer lets a lookup miss without touching the cache or
// the store.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds filters sized for a dataset capacity and target
// false-positive rate.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}
