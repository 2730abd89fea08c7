// Package memory provides the default in-process hosts store: a plain map
// built once at startup and read-only afterwards.
package memory

import (
	"net/netip"

	"github.com/haukened/rr-relay/internal/dns/repos/hosts"
)

// store holds the flattened name→address mapping. It is never written after
// New returns, so concurrent reads need no synchronization.
type store struct {
	addrs map[string]netip.Addr
}

// New builds a memory store from parsed entries. Duplicate names keep the
// first occurrence, matching hosts-file semantics.
func New(entries []hosts.Entry) hosts.Store {
	addrs := make(map[string]netip.Addr, len(entries))
	for _, e := range entries {
		if _, ok := addrs[e.Name]; ok {
			continue
		}
		addrs[e.Name] = e.Addr
	}
	return &store{addrs: addrs}
}

func (s *store) GetAddr(name string) (netip.Addr, bool, error) {
	addr, ok := s.addrs[name]
	return addr, ok, nil
}

func (s *store) Len() int { return len(s.addrs) }

func (s *store) Close() error { return nil }

var _ hosts.Store = (*store)(nil)
