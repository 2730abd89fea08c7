package relay

import (
	"context"
	"net"
	"time"

	"github.com/haukened/rr-relay/internal/dns/domain"
	"github.com/haukened/rr-relay/internal/dns/repos/transactions"
)

// ClientEndpoint is the client-facing listener the forward loop receives on
// and both loops send client replies through.
type ClientEndpoint interface {
	Receive() ([]byte, *net.UDPAddr, error)
	Send(data []byte, addr *net.UDPAddr) error
	Address() string
	Close() error
}

// UpstreamEndpoint is the single shared channel to the configured upstream
// resolver.
type UpstreamEndpoint interface {
	Receive() ([]byte, error)
	Send(data []byte) error
	Address() string
	Close() error
}

// Classifier decides the aggregate outcome for a query's questions.
type Classifier interface {
	Classify(questions []domain.Question) domain.Decision
}

// TransactionTable correlates forwarded queries with upstream replies. It is
// the only state shared between the two loops.
type TransactionTable interface {
	Insert(clientID uint16, clientAddr *net.UDPAddr) uint16
	TakeByID(id uint16) (transactions.Entry, bool)
	StartReaper(ctx context.Context, interval time.Duration)
}
