// Package hosts provides the preloaded name→address table the local resolver
// answers from. Reads run a bloom → cache → store pipeline: the Bloom filter
// short-circuits names that are definitely absent, the LRU decision cache
// absorbs repeated lookups, and the store is authoritative.
package hosts

import (
	"net/netip"

	"github.com/haukened/rr-relay/internal/dns/common/log"
	"github.com/haukened/rr-relay/internal/dns/common/utils"
)

// sentinel is the blacklist marker address. A name bound to it is present in
// the table but only ever answered with a negative response.
var sentinel = netip.AddrFrom4([4]byte{0, 0, 0, 0})

// Sentinel returns the blacklist sentinel address 0.0.0.0.
func Sentinel() netip.Addr {
	return sentinel
}

// IsSentinel reports whether addr is the blacklist sentinel.
func IsSentinel(addr netip.Addr) bool {
	return addr == sentinel
}

// Repository composes a Store, an optional Bloom prefilter, and a decision
// cache. The underlying table is immutable after construction, so no lock is
// needed around the pipeline.
type Repository struct {
	store  Store
	cache  DecisionCache
	bloom  BloomFilter
	logger log.Logger
}

// RepoStats exposes repository-level counters.
type RepoStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Names     int
}

// NewRepository constructs a Repository. The bloom filter may be nil, in which
// case every lookup consults the cache and store; the caller is responsible
// for seeding a non-nil filter with every stored name.
func NewRepository(store Store, cache DecisionCache, bloom BloomFilter, logger log.Logger) *Repository {
	return &Repository{store: store, cache: cache, bloom: bloom, logger: logger}
}

// Lookup returns the address bound to name, if any. Policy on internal store
// errors is to report a miss, which degrades to forwarding the query upstream
// rather than answering wrongly.
func (r *Repository) Lookup(name string) (netip.Addr, bool) {
	cn := utils.CanonicalDNSName(name)

	if r.bloom != nil && !r.bloom.MightContain([]byte(cn)) {
		return netip.Addr{}, false
	}

	if d, ok := r.cache.Get(cn); ok {
		return d.Addr, d.Found
	}

	addr, found, err := r.store.GetAddr(cn)
	if err != nil {
		r.logger.Warn(map[string]any{
			"name":  cn,
			"error": err.Error(),
		}, "Hosts store lookup failed")
		return netip.Addr{}, false
	}

	r.cache.Put(cn, Decision{Addr: addr, Found: found})
	return addr, found
}

// Stats returns cache counters and the store size.
func (r *Repository) Stats() RepoStats {
	hits, misses, evictions := r.cache.Stats()
	return RepoStats{
		Hits:      hits,
		Misses:    misses,
		Evictions: evictions,
		Names:     r.store.Len(),
	}
}

// Close releases the underlying store.
func (r *Repository) Close() error {
	return r.store.Close()
}
