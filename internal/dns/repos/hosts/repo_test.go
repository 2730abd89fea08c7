package hosts_test

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-relay/internal/dns/common/log"
	"github.com/haukened/rr-relay/internal/dns/repos/hosts"
	"github.com/haukened/rr-relay/internal/dns/repos/hosts/bloom"
	"github.com/haukened/rr-relay/internal/dns/repos/hosts/lru"
	"github.com/haukened/rr-relay/internal/dns/repos/hosts/memory"
)

func testEntries() []hosts.Entry {
	return []hosts.Entry{
		{Name: "bupt.edu.cn", Addr: netip.MustParseAddr("211.68.69.240")},
		{Name: "v6.example", Addr: netip.MustParseAddr("2001:db8::1")},
		{Name: "baidu.com", Addr: hosts.Sentinel()},
	}
}

func newTestRepo(t *testing.T, entries []hosts.Entry, cacheSize int) *hosts.Repository {
	t.Helper()
	cache, err := lru.New(cacheSize)
	require.NoError(t, err)
	return hosts.NewRepository(memory.New(entries), cache, bloom.Seed(entries, 0.01), log.NewNoopLogger())
}

func TestRepository_Lookup(t *testing.T) {
	repo := newTestRepo(t, testEntries(), 16)

	tests := []struct {
		name      string
		query     string
		wantFound bool
		wantAddr  string
	}{
		{"ipv4 hit", "bupt.edu.cn", true, "211.68.69.240"},
		{"case folded hit", "BUPT.EDU.CN", true, "211.68.69.240"},
		{"trailing dot hit", "bupt.edu.cn.", true, "211.68.69.240"},
		{"ipv6 hit", "v6.example", true, "2001:db8::1"},
		{"blacklisted name resolves to sentinel", "baidu.com", true, "0.0.0.0"},
		{"absent name", "apple.com", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, found := repo.Lookup(tt.query)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, netip.MustParseAddr(tt.wantAddr), addr)
			}
		})
	}
}

func TestRepository_CachesDecisions(t *testing.T) {
	repo := newTestRepo(t, testEntries(), 16)

	repo.Lookup("bupt.edu.cn")
	repo.Lookup("bupt.edu.cn")

	stats := repo.Stats()
	assert.Equal(t, uint64(1), stats.Hits, "second lookup must be served by the cache")
	assert.Equal(t, 3, stats.Names)
}

func TestRepository_Sentinel(t *testing.T) {
	assert.True(t, hosts.IsSentinel(netip.MustParseAddr("0.0.0.0")))
	assert.False(t, hosts.IsSentinel(netip.MustParseAddr("0.0.0.1")))
	assert.False(t, hosts.IsSentinel(netip.MustParseAddr("::")))
	assert.False(t, hosts.IsSentinel(netip.Addr{}))
}

// failingStore always errors, to verify the miss-on-error policy.
type failingStore struct{}

func (failingStore) GetAddr(string) (netip.Addr, bool, error) {
	return netip.Addr{}, false, errors.New("disk on fire")
}
func (failingStore) Len() int     { return 0 }
func (failingStore) Close() error { return nil }

func TestRepository_StoreErrorDegradesToMiss(t *testing.T) {
	cache, err := lru.New(16)
	require.NoError(t, err)
	repo := hosts.NewRepository(failingStore{}, cache, nil, log.NewNoopLogger())

	_, found := repo.Lookup("bupt.edu.cn")
	assert.False(t, found, "store errors must degrade to forwarding, not to an answer")
}

func TestRepository_NilBloomConsultsStore(t *testing.T) {
	cache, err := lru.New(16)
	require.NoError(t, err)
	repo := hosts.NewRepository(memory.New(testEntries()), cache, nil, log.NewNoopLogger())

	addr, found := repo.Lookup("bupt.edu.cn")
	require.True(t, found)
	assert.Equal(t, netip.MustParseAddr("211.68.69.240"), addr)
}
