package bloom

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haukened/rr-relay/internal/dns/repos/hosts"
)

func TestSize(t *testing.T) {
	tests := []struct {
		name string
		n    uint64
		p    float64
	}{
		{"typical", 10000, 0.01},
		{"tiny", 1, 0.01},
		{"zero capacity clamps", 0, 0.01},
		{"invalid rate defaults", 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, k := size(tt.n, tt.p)
			assert.GreaterOrEqual(t, m, uint64(1))
			assert.GreaterOrEqual(t, k, uint8(1))
		})
	}
}

func TestFilter_AddAndTest(t *testing.T) {
	bf := NewFactory().New(100, 0.01)

	bf.Add([]byte("bupt.edu.cn"))
	assert.True(t, bf.MightContain([]byte("bupt.edu.cn")))

	// A Bloom filter can false-positive but never false-negative; with a 1%
	// target rate, four probes should essentially never all collide.
	falsePositives := 0
	for _, name := range []string{"a.example", "b.example", "c.example", "d.example"} {
		if bf.MightContain([]byte(name)) {
			falsePositives++
		}
	}
	assert.LessOrEqual(t, falsePositives, 1)
}

func TestSeed(t *testing.T) {
	entries := []hosts.Entry{
		{Name: "bupt.edu.cn", Addr: netip.MustParseAddr("211.68.69.240")},
		{Name: "baidu.com", Addr: hosts.Sentinel()},
	}
	bf := Seed(entries, 0.01)
	assert.True(t, bf.MightContain([]byte("bupt.edu.cn")))
	assert.True(t, bf.MightContain([]byte("baidu.com")))
}
