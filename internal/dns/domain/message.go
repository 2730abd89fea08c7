package domain

import (
	"fmt"
	"net/netip"
)

// Flag masks for the third and fourth header bytes (RFC 1035 §4.1.1).
const (
	FlagQR    uint16 = 0x8000 // query/response bit
	FlagAA    uint16 = 0x0400 // authoritative answer
	FlagTC    uint16 = 0x0200 // truncation
	FlagRD    uint16 = 0x0100 // recursion desired
	FlagRA    uint16 = 0x0080 // recursion available
	rcodeMask uint16 = 0x000F
)

// HeaderLen is the fixed size of a DNS message header in bytes.
const HeaderLen = 12

// Header is the fixed 12-byte DNS message header. Flags are kept packed so a
// relayed message round-trips bit-for-bit; accessors expose the bits the relay
// actually interprets.
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// IsResponse reports whether the QR bit is set.
func (h Header) IsResponse() bool {
	return h.Flags&FlagQR != 0
}

// RCode returns the 4-bit response code from the packed flags.
func (h Header) RCode() RCode {
	return RCode(h.Flags & rcodeMask)
}

// SetResponse sets the QR bit, marking the message as a response.
func (h *Header) SetResponse() {
	h.Flags |= FlagQR
}

// SetRCode replaces the 4-bit response code in the packed flags.
func (h *Header) SetRCode(rc RCode) {
	h.Flags = (h.Flags &^ rcodeMask) | (uint16(rc) & rcodeMask)
}

// Question is one entry of the question section. Offset records where the
// question's name begins within the full message, so answers can reference it
// with a compression pointer.
type Question struct {
	Offset int
	Name   string
	Type   RRType
	Class  RRClass
}

// Validate checks whether the Question fields are structurally valid.
func (q Question) Validate() error {
	if q.Name == "" {
		return fmt.Errorf("question name must not be empty")
	}
	if q.Offset < HeaderLen {
		return fmt.Errorf("question name offset %d precedes the question section", q.Offset)
	}
	return nil
}

// ResourceRecord is one synthesized answer. Its name is not stored literally:
// NameOffset is the byte offset of the matching question's name, written on the
// wire as a 2-byte compression pointer. Addr carries the typed record data
// (4 bytes for A, 16 for AAAA).
type ResourceRecord struct {
	NameOffset int
	Type       RRType
	Class      RRClass
	TTL        uint32
	Addr       netip.Addr
}

// NewResourceRecord constructs a ResourceRecord answering the given question
// with the given address, and validates that the address family matches the
// question type.
func NewResourceRecord(q Question, ttl uint32, addr netip.Addr) (ResourceRecord, error) {
	rr := ResourceRecord{
		NameOffset: q.Offset,
		Type:       q.Type,
		Class:      q.Class,
		TTL:        ttl,
		Addr:       addr,
	}
	if err := rr.Validate(); err != nil {
		return ResourceRecord{}, err
	}
	return rr, nil
}

// RDLength returns the wire length of the record data for the address family.
func (rr ResourceRecord) RDLength() uint16 {
	if rr.Addr.Is4() {
		return 4
	}
	return 16
}

// Validate checks whether the ResourceRecord fields are structurally valid.
func (rr ResourceRecord) Validate() error {
	if rr.NameOffset < HeaderLen || rr.NameOffset > 0x3FFF {
		return fmt.Errorf("name offset %d not expressible as a compression pointer", rr.NameOffset)
	}
	if !rr.Addr.IsValid() {
		return fmt.Errorf("record address must be set")
	}
	switch rr.Type {
	case RRTypeA:
		if !rr.Addr.Is4() {
			return fmt.Errorf("A record requires an IPv4 address, got %s", rr.Addr)
		}
	case RRTypeAAAA:
		if rr.Addr.Is4() {
			return fmt.Errorf("AAAA record requires an IPv6 address, got %s", rr.Addr)
		}
	default:
		return fmt.Errorf("unsupported record type for local answers: %s", rr.Type)
	}
	return nil
}

// Message is the parsed form of one DNS datagram. After a successful decode the
// header counts always match the section lengths; a datagram violating that is
// rejected at parse time.
type Message struct {
	Header    Header
	Questions []Question
	Answers   []ResourceRecord
}

// Validate checks the count invariant between the header and the sections.
func (m Message) Validate() error {
	if int(m.Header.QDCount) != len(m.Questions) {
		return fmt.Errorf("header declares %d questions, message holds %d", m.Header.QDCount, len(m.Questions))
	}
	if int(m.Header.ANCount) != len(m.Answers) {
		return fmt.Errorf("header declares %d answers, message holds %d", m.Header.ANCount, len(m.Answers))
	}
	return nil
}
