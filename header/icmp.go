package header

import (
	"encoding/binary"
	"fmt"
)

// Represents an ICMP message
// https://datatracker.ietf.org/doc/html/rfc792
//
// Raw starts at the first ICMP byte (offset 20 of the enclosing datagram)
// and extends to the end of the message, so the checksum can be computed
// over the header, the type-specific extension and the trailing data in one
// pass.
type ICMPv4Header struct {
	Raw      []byte
	Modified bool
}

// NewICMPv4Header returns an ICMP view over raw.
// Fails with ErrMalformedHeader if raw holds fewer than 4 bytes.
func NewICMPv4Header(raw []byte) (*ICMPv4Header, error) {
	if len(raw) < ICMPv4HeaderLen {
		return nil, fmt.Errorf("%w: ICMP header needs %d bytes, got %d", ErrMalformedHeader, ICMPv4HeaderLen, len(raw))
	}
	return &ICMPv4Header{
		Raw: raw,
	}, nil
}

func (h *ICMPv4Header) String() string {
	if h == nil {
		return "<nil>"
	}
	s := fmt.Sprintf("{\n"+
		"\t\tType=%d\n"+
		"\t\tCode=%d\n"+
		"\t\tChecksum=%#04x\n",
		h.Type(), h.Code(), h.Checksum())
	if h.IsEcho() {
		id, _ := h.Identifier()
		seq, _ := h.Sequence()
		s += fmt.Sprintf("\t\tIdentifier=%#x\n\t\tSequence=%#x\n", id, seq)
	}
	return s + "}"
}

// Reads the message's bytes and returns the ICMP type
func (h *ICMPv4Header) Type() uint8 {
	return h.Raw[icmpTypeOffset]
}

// Sets the ICMP type
func (h *ICMPv4Header) SetType(t uint8) {
	h.Modified = true
	h.Raw[icmpTypeOffset] = t
}

// Reads the message's bytes and returns the ICMP code
func (h *ICMPv4Header) Code() uint8 {
	return h.Raw[icmpCodeOffset]
}

// Sets the ICMP code
func (h *ICMPv4Header) SetCode(code uint8) {
	h.Modified = true
	h.Raw[icmpCodeOffset] = code
}

// Reads the message's bytes and returns the ICMP checksum
func (h *ICMPv4Header) Checksum() uint16 {
	return binary.BigEndian.Uint16(h.Raw[icmpChecksumOffset:])
}

// Sets the ICMP checksum
func (h *ICMPv4Header) SetChecksum(checksum uint16) {
	binary.BigEndian.PutUint16(h.Raw[icmpChecksumOffset:], checksum)
}

// UpdateChecksum zeroes the checksum field and recomputes it over the whole
// ICMP message: header, type-specific extension and trailing data. The IPv4
// header never participates.
func (h *ICMPv4Header) UpdateChecksum() uint16 {
	h.SetChecksum(0)
	checksum := Checksum(h.Raw)
	h.SetChecksum(checksum)
	h.Modified = false
	return checksum
}

// NeedNewChecksum returns true if a field was mutated since the checksum was
// last computed
func (h *ICMPv4Header) NeedNewChecksum() bool {
	return h.Modified
}

// IsEcho returns true for the Echo/EchoReply message pair, the only types
// that carry the identifier/sequence extension
func (h *ICMPv4Header) IsEcho() bool {
	t := h.Type()
	return t == ICMPv4Echo || t == ICMPv4EchoReply
}

// Reads the echo extension and returns the identifier.
// Fails with ErrMalformedHeader if the message is too short to carry the
// extension.
func (h *ICMPv4Header) Identifier() (uint16, error) {
	if len(h.Raw) < ICMPv4EchoLen {
		return 0, fmt.Errorf("%w: echo extension needs %d bytes, got %d", ErrMalformedHeader, ICMPv4EchoLen, len(h.Raw))
	}
	return binary.BigEndian.Uint16(h.Raw[icmpIDOffset:]), nil
}

// Sets the echo identifier
func (h *ICMPv4Header) SetIdentifier(id uint16) error {
	if len(h.Raw) < ICMPv4EchoLen {
		return fmt.Errorf("%w: echo extension needs %d bytes, got %d", ErrMalformedHeader, ICMPv4EchoLen, len(h.Raw))
	}
	h.Modified = true
	binary.BigEndian.PutUint16(h.Raw[icmpIDOffset:], id)
	return nil
}

// Reads the echo extension and returns the sequence number.
// Fails with ErrMalformedHeader if the message is too short to carry the
// extension.
func (h *ICMPv4Header) Sequence() (uint16, error) {
	if len(h.Raw) < ICMPv4EchoLen {
		return 0, fmt.Errorf("%w: echo extension needs %d bytes, got %d", ErrMalformedHeader, ICMPv4EchoLen, len(h.Raw))
	}
	return binary.BigEndian.Uint16(h.Raw[icmpSeqOffset:]), nil
}

// Sets the echo sequence number
func (h *ICMPv4Header) SetSequence(seq uint16) error {
	if len(h.Raw) < ICMPv4EchoLen {
		return fmt.Errorf("%w: echo extension needs %d bytes, got %d", ErrMalformedHeader, ICMPv4EchoLen, len(h.Raw))
	}
	h.Modified = true
	binary.BigEndian.PutUint16(h.Raw[icmpSeqOffset:], seq)
	return nil
}

// Payload returns the bytes after the echo extension, nil when the message
// carries none
func (h *ICMPv4Header) Payload() []byte {
	if len(h.Raw) <= ICMPv4EchoLen {
		return nil
	}
	return h.Raw[ICMPv4EchoLen:]
}
