package relay

import (
	"net"

	"github.com/haukened/rr-relay/internal/dns/domain"
)

// Hooks is the event surface the engine reports on. An outer observability
// layer may subscribe to these without influencing relay behavior; every hook
// is called synchronously from a loop, so implementations must be fast and
// must not block.
type Hooks interface {
	// QueryReceived reports a decodable query arriving from a client.
	QueryReceived(client *net.UDPAddr, id uint16, questions int)

	// Classified reports the aggregate outcome decided for a query.
	Classified(client *net.UDPAddr, id uint16, outcome domain.Outcome)

	// ReplyRelayed reports an upstream reply delivered back to its client.
	ReplyRelayed(client *net.UDPAddr, clientID uint16, size int)

	// ParseError reports a datagram dropped as undecodable.
	ParseError(source *net.UDPAddr, err error)

	// TransactionMiss reports an upstream reply dropped because its ID matched
	// no outstanding transaction.
	TransactionMiss(id uint16)
}

// NoopHooks implements Hooks and discards every event.
type NoopHooks struct{}

func (NoopHooks) QueryReceived(*net.UDPAddr, uint16, int)          {}
func (NoopHooks) Classified(*net.UDPAddr, uint16, domain.Outcome)  {}
func (NoopHooks) ReplyRelayed(*net.UDPAddr, uint16, int)           {}
func (NoopHooks) ParseError(*net.UDPAddr, error)                   {}
func (NoopHooks) TransactionMiss(uint16)                           {}

var _ Hooks = NoopHooks{}
