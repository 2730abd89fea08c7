// Package wire provides encoding and decoding of DNS messages for UDP transport.
// It handles the DNS wire format as specified in RFC 1035, including name
// compression pointers, and reports decode failures as typed parse errors so
// the relay can drop malformed datagrams without interpreting them.
package wire

import (
	"github.com/haukened/rr-relay/internal/dns/domain"
)

// Codec is the wire-format boundary between raw UDP payloads and domain
// messages. Forwarded traffic is relayed byte-for-byte; only the header ID is
// touched in place, which is why PeekHeader and RewriteID operate on raw bytes.
type Codec interface {
	// DecodeQuery parses the header and question section of a client datagram.
	// Sections beyond the questions are treated as opaque. Failures are
	// *domain.ParseError values.
	DecodeQuery(data []byte) (domain.Message, error)

	// EncodeMessage serializes a message for transmission. Question names are
	// written as literal labels; answer names as compression pointers into the
	// question section.
	EncodeMessage(m domain.Message) ([]byte, error)

	// PeekHeader reads only the fixed 12-byte header from a raw datagram.
	PeekHeader(data []byte) (domain.Header, error)

	// RewriteID overwrites the transaction ID in place, leaving every other
	// byte of the datagram as received.
	RewriteID(data []byte, id uint16) error
}
