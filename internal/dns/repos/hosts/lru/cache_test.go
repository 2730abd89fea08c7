package lru

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-relay/internal/dns/repos/hosts"
)

func TestDecisionCache_GetPut(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	d := hosts.Decision{Addr: netip.MustParseAddr("211.68.69.240"), Found: true}
	c.Put("bupt.edu.cn", d)

	got, ok := c.Get("bupt.edu.cn")
	require.True(t, ok)
	assert.Equal(t, d, got)

	_, ok = c.Get("apple.com")
	assert.False(t, ok)

	hits, misses, _ := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestDecisionCache_CachesMisses(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	// A negative decision is cacheable too: Found=false.
	c.Put("apple.com", hosts.Decision{})
	got, ok := c.Get("apple.com")
	require.True(t, ok)
	assert.False(t, got.Found)
}

func TestDecisionCache_EvictionCounted(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	c.Put("a.example", hosts.Decision{})
	c.Put("b.example", hosts.Decision{})
	c.Put("c.example", hosts.Decision{})

	assert.Equal(t, 2, c.Len())
	_, _, evictions := c.Stats()
	assert.Equal(t, uint64(1), evictions)
}

func TestDecisionCache_Purge(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)
	c.Put("a.example", hosts.Decision{})
	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestDisabledCache(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	c.Put("a.example", hosts.Decision{Found: true})
	_, ok := c.Get("a.example")
	assert.False(t, ok, "disabled cache always misses")
	assert.Equal(t, 0, c.Len())

	hits, misses, evictions := c.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
	assert.Zero(t, evictions)
}
