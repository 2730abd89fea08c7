package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/haukened/rr-relay/internal/dns/common/log"
	"github.com/haukened/rr-relay/internal/dns/domain"
)

// maxNameLen is the RFC 1035 cap on a decoded domain name in octets.
const maxNameLen = 255

// udpCodec implements the Codec interface for standard DNS over UDP messages.
type udpCodec struct {
	logger log.Logger
}

// NewUDPCodec creates and returns a new instance of udpCodec using the provided logger.
func NewUDPCodec(logger log.Logger) *udpCodec {
	return &udpCodec{
		logger: logger,
	}
}

// PeekHeader reads the fixed 12-byte header from a raw datagram without
// touching the variable-length sections.
func (c *udpCodec) PeekHeader(data []byte) (domain.Header, error) {
	if len(data) < domain.HeaderLen {
		return domain.Header{}, domain.NewParseError(domain.ParseTruncated, len(data))
	}
	return domain.Header{
		ID:      binary.BigEndian.Uint16(data[0:2]),
		Flags:   binary.BigEndian.Uint16(data[2:4]),
		QDCount: binary.BigEndian.Uint16(data[4:6]),
		ANCount: binary.BigEndian.Uint16(data[6:8]),
		NSCount: binary.BigEndian.Uint16(data[8:10]),
		ARCount: binary.BigEndian.Uint16(data[10:12]),
	}, nil
}

// RewriteID overwrites the transaction ID of a raw datagram in place. Every
// other byte stays exactly as received, so relayed answers are never
// reinterpreted.
func (c *udpCodec) RewriteID(data []byte, id uint16) error {
	if len(data) < 2 {
		return domain.NewParseError(domain.ParseTruncated, len(data))
	}
	binary.BigEndian.PutUint16(data[0:2], id)
	return nil
}

// DecodeQuery parses a DNS query message: the fixed header followed by exactly
// QDCount questions. Answer, authority, and additional sections are left
// opaque; the relay either echoes the original bytes or forwards them whole.
func (c *udpCodec) DecodeQuery(data []byte) (domain.Message, error) {
	header, err := c.PeekHeader(data)
	if err != nil {
		return domain.Message{}, err
	}
	if header.QDCount == 0 {
		// A query whose header declares no questions carries nothing to
		// resolve or forward.
		return domain.Message{}, domain.NewParseError(domain.ParseCountMismatch, 4)
	}

	questions := make([]domain.Question, 0, header.QDCount)
	offset := domain.HeaderLen
	for i := 0; i < int(header.QDCount); i++ {
		nameOffset := offset
		name, end, err := decodeName(data, offset)
		if err != nil {
			return domain.Message{}, err
		}
		if end+4 > len(data) {
			return domain.Message{}, domain.NewParseError(domain.ParseTruncated, end)
		}
		questions = append(questions, domain.Question{
			Offset: nameOffset,
			Name:   name,
			Type:   domain.RRType(binary.BigEndian.Uint16(data[end : end+2])),
			Class:  domain.RRClass(binary.BigEndian.Uint16(data[end+2 : end+4])),
		})
		offset = end + 4
	}

	msg := domain.Message{
		Header:    header,
		Questions: questions,
	}

	c.logger.Debug(map[string]any{
		"id":        header.ID,
		"questions": len(questions),
		"size":      len(data),
	}, "Decoded DNS query")

	return msg, nil
}

// decodeName decodes a domain name starting at offset, following compression
// pointers as defined in RFC 1035 §4.1.4. Pointers must reference strictly
// earlier offsets, every jump target is range-checked, and revisiting an
// already-seen offset is rejected as a loop. Labels are lowercased and joined
// with dots. The returned end is the offset just past the name as it appears
// at the original position (pointers terminate the inline representation).
func decodeName(data []byte, offset int) (string, int, error) {
	var (
		labels  []string
		nameLen int  // decoded length in octets, counting one per label separator
		end     = -1 // end of the inline representation; set on first pointer
		pos     = offset
	)
	visited := make(map[int]bool)

	for {
		if pos >= len(data) {
			return "", 0, domain.NewParseError(domain.ParseTruncated, pos)
		}
		if visited[pos] {
			return "", 0, domain.NewParseError(domain.ParsePointerLoop, pos)
		}
		visited[pos] = true

		length := int(data[pos])
		switch {
		case length == 0:
			if end < 0 {
				end = pos + 1
			}
			return strings.Join(labels, "."), end, nil

		case length&0xC0 == 0xC0:
			if pos+1 >= len(data) {
				return "", 0, domain.NewParseError(domain.ParseTruncated, pos)
			}
			ptr := int(binary.BigEndian.Uint16(data[pos:pos+2]) & 0x3FFF)
			if end < 0 {
				end = pos + 2
			}
			if ptr >= len(data) {
				return "", 0, domain.NewParseError(domain.ParsePointerOutOfRange, pos)
			}
			if visited[ptr] {
				return "", 0, domain.NewParseError(domain.ParsePointerLoop, pos)
			}
			if ptr >= pos {
				// Forward pointers cannot reference a name that has already
				// been written, so they are never valid.
				return "", 0, domain.NewParseError(domain.ParsePointerOutOfRange, pos)
			}
			pos = ptr

		case length&0xC0 != 0:
			// 0x40 and 0x80 label types are reserved and undecodable.
			return "", 0, domain.NewParseError(domain.ParseTruncated, pos)

		default:
			if pos+1+length > len(data) {
				return "", 0, domain.NewParseError(domain.ParseTruncated, pos)
			}
			nameLen += length + 1
			if nameLen > maxNameLen {
				return "", 0, domain.NewParseError(domain.ParseNameTooLong, pos)
			}
			labels = append(labels, strings.ToLower(string(data[pos+1:pos+1+length])))
			pos += 1 + length
		}
	}
}

// encodeDomainName encodes a domain name into DNS wire format without compression.
func encodeDomainName(name string) ([]byte, error) {
	var buf bytes.Buffer
	if name == "" {
		buf.WriteByte(0)
		return buf.Bytes(), nil
	}
	for _, label := range strings.Split(name, ".") {
		if len(label) > 63 {
			return nil, fmt.Errorf("label too long: %s", label)
		}
		if len(label) == 0 {
			return nil, fmt.Errorf("empty label in name: %s", name)
		}
		buf.WriteByte(byte(len(label)))
		buf.WriteString(label)
	}
	buf.WriteByte(0)
	return buf.Bytes(), nil
}

// EncodeMessage serializes a message into wire format. Question names are
// written as literal labels (the question section is always their first
// occurrence); each answer's name is a 2-byte compression pointer back to the
// question it answers, keeping synthesized replies minimal.
func (c *udpCodec) EncodeMessage(m domain.Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to encode inconsistent message: %w", err)
	}

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, m.Header.ID)
	_ = binary.Write(&buf, binary.BigEndian, m.Header.Flags)
	_ = binary.Write(&buf, binary.BigEndian, m.Header.QDCount)
	_ = binary.Write(&buf, binary.BigEndian, m.Header.ANCount)
	_ = binary.Write(&buf, binary.BigEndian, m.Header.NSCount)
	_ = binary.Write(&buf, binary.BigEndian, m.Header.ARCount)

	// Question offsets can shift relative to the datagram they were decoded
	// from (a client may have compressed its question names). Track where each
	// name lands so answer pointers reference the rewritten layout.
	written := make(map[int]int, len(m.Questions))
	for _, q := range m.Questions {
		written[q.Offset] = buf.Len()
		name, err := encodeDomainName(q.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		_ = binary.Write(&buf, binary.BigEndian, uint16(q.Type))
		_ = binary.Write(&buf, binary.BigEndian, uint16(q.Class))
	}

	for _, rr := range m.Answers {
		target, ok := written[rr.NameOffset]
		if !ok {
			return nil, fmt.Errorf("answer references offset %d which is not a question name", rr.NameOffset)
		}
		// 0xC000 | offset: top two bits mark a compression pointer.
		buf.WriteByte(0xC0 | byte(target>>8))
		buf.WriteByte(byte(target & 0xFF))
		_ = binary.Write(&buf, binary.BigEndian, uint16(rr.Type))
		_ = binary.Write(&buf, binary.BigEndian, uint16(rr.Class))
		_ = binary.Write(&buf, binary.BigEndian, rr.TTL)
		_ = binary.Write(&buf, binary.BigEndian, rr.RDLength())
		if rr.Addr.Is4() {
			a := rr.Addr.As4()
			buf.Write(a[:])
		} else {
			a := rr.Addr.As16()
			buf.Write(a[:])
		}
	}

	c.logger.Debug(map[string]any{
		"id":      m.Header.ID,
		"answers": len(m.Answers),
		"size":    buf.Len(),
		"raw":     fmt.Sprintf("%x", buf.Bytes()),
	}, "Encoded DNS message")

	return buf.Bytes(), nil
}

var _ Codec = &udpCodec{}
