// Package bloom provides the prefilter placed in front of the hosts store: a
// definitely-negative membership test that lets the vast majority of
// forwarded-anyway names miss without a cache or store lookup.
package bloom

import (
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

// filter wraps bits-and-blooms BloomFilter with a mutex for writes. Reads
// (MightContain) are safe concurrently; Add is serialized during table load.
type filter struct {
	mu sync.Mutex
	bf *bitsbloom.BloomFilter
}

func (f *filter) Add(key []byte) {
	f.mu.Lock()
	f.bf.Add(key)
	f.mu.Unlock()
}

func (f *filter) MightContain(key []byte) bool {
	return f.bf.Test(key)
}
