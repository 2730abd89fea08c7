package resolver

import "net/netip"

// HostsRepo is the view of the hosts table the resolver classifies against.
type HostsRepo interface {
	// Lookup returns the address bound to a name, if the table holds one.
	// The blacklist sentinel 0.0.0.0 is returned like any other address;
	// interpreting it is the resolver's job.
	Lookup(name string) (netip.Addr, bool)
}
