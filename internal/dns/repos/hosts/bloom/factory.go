package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/rr-relay/internal/dns/repos/hosts"
)

// factory implements hosts.BloomFactory using the sizing formulas below.
type factory struct{}

// NewFactory returns a BloomFactory that sizes filters from capacity and FP rate.
func NewFactory() hosts.BloomFactory { return factory{} }

// New constructs a BloomFilter sized for the given dataset capacity and target
// false-positive rate.
func (factory) New(capacity uint64, fpRate float64) hosts.BloomFilter {
	m, k := size(capacity, fpRate)
	return &filter{bf: bitsbloom.New(uint(m), uint(k))}
}

// Seed builds a filter for the given entries and adds every name to it.
func Seed(entries []hosts.Entry, fpRate float64) hosts.BloomFilter {
	bf := NewFactory().New(uint64(len(entries)), fpRate)
	for _, e := range entries {
		bf.Add([]byte(e.Name))
	}
	return bf
}
