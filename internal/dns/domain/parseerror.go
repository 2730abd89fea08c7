package domain

import "fmt"

// ParseErrorKind classifies why a datagram failed to decode.
type ParseErrorKind uint8

const (
	// ParseTruncated indicates a field read would run past the end of the buffer.
	ParseTruncated ParseErrorKind = iota
	// ParsePointerLoop indicates a compression pointer chain revisited an offset.
	ParsePointerLoop
	// ParsePointerOutOfRange indicates a compression pointer referenced a
	// forward or out-of-buffer offset.
	ParsePointerOutOfRange
	// ParseNameTooLong indicates a decoded name exceeded 255 octets.
	ParseNameTooLong
	// ParseCountMismatch indicates the header counts disagree with the sections
	// actually present.
	ParseCountMismatch
)

// String returns the textual representation of the kind.
func (k ParseErrorKind) String() string {
	switch k {
	case ParseTruncated:
		return "Truncated"
	case ParsePointerLoop:
		return "PointerLoop"
	case ParsePointerOutOfRange:
		return "PointerOutOfRange"
	case ParseNameTooLong:
		return "NameTooLong"
	case ParseCountMismatch:
		return "CountMismatch"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// ParseError is the typed decode failure reported by the wire codec. The relay
// responds to any kind by dropping the datagram; it never replies with
// partially decoded data.
type ParseError struct {
	Kind   ParseErrorKind
	Offset int // byte offset within the datagram where decoding failed
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("dns parse error at offset %d: %s", e.Offset, e.Kind)
}

// Is lets errors.Is match two ParseErrors by kind regardless of offset.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.Kind == e.Kind
}

// NewParseError constructs a ParseError of the given kind at the given offset.
func NewParseError(kind ParseErrorKind, offset int) *ParseError {
	return &ParseError{Kind: kind, Offset: offset}
}
