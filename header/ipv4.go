package header

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

// ErrMalformedHeader is returned when a buffer is too short for the header
// structure it is decoded as.
var ErrMalformedHeader = errors.New("malformed header: buffer too short")

// Represents an IPv4 header
// https://datatracker.ietf.org/doc/html/rfc791
//
// The header is a fixed-offset view over the first 20 bytes of Raw. All
// multi-byte fields are packed big-endian, never via the host's native
// layout, so the view is valid on any architecture.
type IPv4Header struct {
	Raw      []byte
	Modified bool
}

// NewIPv4Header returns an IPv4 header view over raw.
// Fails with ErrMalformedHeader if raw holds fewer than 20 bytes.
func NewIPv4Header(raw []byte) (*IPv4Header, error) {
	if len(raw) < IPv4HeaderLen {
		return nil, fmt.Errorf("%w: IPv4 header needs %d bytes, got %d", ErrMalformedHeader, IPv4HeaderLen, len(raw))
	}
	return &IPv4Header{
		Raw: raw[:IPv4HeaderLen],
	}, nil
}

func (h *IPv4Header) String() string {
	if h == nil {
		return "<nil>"
	}
	protocol := h.Protocol()
	flags, fragOff := h.FlagsFragOff()
	return fmt.Sprintf("{\n"+
		"\t\tVersion=%d\n"+
		"\t\tHeaderLen=%d\n"+
		"\t\tTOS=%#x\n"+
		"\t\tTotalLen=%d\n"+
		"\t\tID=%#x\n"+
		"\t\tFlags=%#x FragOff=%d\n"+
		"\t\tTTL=%d\n"+
		"\t\tProtocol=(%d)->%s\n"+
		"\t\tChecksum=%#04x\n"+
		"\t\tSrcIP=%v\n"+
		"\t\tDstIP=%v\n"+
		"}",
		h.Version(), h.HeaderLen(), h.TOS(), h.TotalLen(), h.ID(), uint8(flags), fragOff,
		h.TTL(), protocol, ProtocolName(protocol), h.Checksum(), h.SrcIP(), h.DstIP())
}

// Returns the IP version stored in the high nibble of the first byte
func (h *IPv4Header) Version() uint8 {
	version, _ := unpackVersionIHL(h.Raw[ipv4VersionIHLOffset])
	return version
}

// Returns the length of the header in bytes (IHL nibble * 4)
func (h *IPv4Header) HeaderLen() uint8 {
	_, ihl := unpackVersionIHL(h.Raw[ipv4VersionIHLOffset])
	return ihl << 2
}

// SetVersionIHL packs the version and the header length in 4-byte words
// into the shared first byte
func (h *IPv4Header) SetVersionIHL(version, ihl uint8) {
	h.Modified = true
	h.Raw[ipv4VersionIHLOffset] = packVersionIHL(version, ihl)
}

// Reads the header's bytes and returns the type of service
func (h *IPv4Header) TOS() uint8 {
	return h.Raw[ipv4TOSOffset]
}

// Sets the type of service
func (h *IPv4Header) SetTOS(tos uint8) {
	h.Modified = true
	h.Raw[ipv4TOSOffset] = tos
}

// Reads the header's bytes and returns the total length of the datagram
// (header + payload)
func (h *IPv4Header) TotalLen() uint16 {
	return binary.BigEndian.Uint16(h.Raw[ipv4TotalLenOffset:])
}

// Sets the total length of the datagram
func (h *IPv4Header) SetTotalLen(length uint16) {
	h.Modified = true
	binary.BigEndian.PutUint16(h.Raw[ipv4TotalLenOffset:], length)
}

// Reads the header's bytes and returns the identification
func (h *IPv4Header) ID() uint16 {
	return binary.BigEndian.Uint16(h.Raw[ipv4IDOffset:])
}

// Sets the identification
func (h *IPv4Header) SetID(id uint16) {
	h.Modified = true
	binary.BigEndian.PutUint16(h.Raw[ipv4IDOffset:], id)
}

// Reads the header's bytes and returns the control flags and the fragment
// offset in 8-byte units
func (h *IPv4Header) FlagsFragOff() (IPv4Flags, uint16) {
	return unpackFlagsFragOff(binary.BigEndian.Uint16(h.Raw[ipv4FlagsFragOffset:]))
}

// Sets the control flags and the fragment offset in 8-byte units
func (h *IPv4Header) SetFlagsFragOff(flags IPv4Flags, fragOff uint16) {
	h.Modified = true
	binary.BigEndian.PutUint16(h.Raw[ipv4FlagsFragOffset:], packFlagsFragOff(flags, fragOff))
}

// Reads the header's bytes and returns the time to live
func (h *IPv4Header) TTL() uint8 {
	return h.Raw[ipv4TTLOffset]
}

// Sets the time to live
func (h *IPv4Header) SetTTL(ttl uint8) {
	h.Modified = true
	h.Raw[ipv4TTLOffset] = ttl
}

// Reads the header's bytes and returns the protocol number of the next layer
func (h *IPv4Header) Protocol() uint8 {
	return h.Raw[ipv4ProtocolOffset]
}

// Sets the protocol number of the next layer
func (h *IPv4Header) SetProtocol(protocol uint8) {
	h.Modified = true
	h.Raw[ipv4ProtocolOffset] = protocol
}

// Reads the header's bytes and returns the header checksum
func (h *IPv4Header) Checksum() uint16 {
	return binary.BigEndian.Uint16(h.Raw[ipv4ChecksumOffset:])
}

// Sets the header checksum
func (h *IPv4Header) SetChecksum(checksum uint16) {
	binary.BigEndian.PutUint16(h.Raw[ipv4ChecksumOffset:], checksum)
}

// UpdateChecksum zeroes the checksum field and recomputes it over the 20
// header bytes. The field must be zero while summing: a stale nonzero value
// would participate in its own recomputation.
func (h *IPv4Header) UpdateChecksum() uint16 {
	h.SetChecksum(0)
	checksum := Checksum(h.Raw[:IPv4HeaderLen])
	h.SetChecksum(checksum)
	h.Modified = false
	return checksum
}

// NeedNewChecksum returns true if a field was mutated since the checksum was
// last computed
func (h *IPv4Header) NeedNewChecksum() bool {
	return h.Modified
}

// Reads the header's bytes and returns the source IP
func (h *IPv4Header) SrcIP() net.IP {
	return net.IPv4(h.Raw[ipv4SrcOffset], h.Raw[ipv4SrcOffset+1], h.Raw[ipv4SrcOffset+2], h.Raw[ipv4SrcOffset+3])
}

// Sets the source IP of the datagram
func (h *IPv4Header) SetSrcIP(ip net.IP) {
	h.Modified = true
	copy(h.Raw[ipv4SrcOffset:ipv4SrcOffset+4], ip.To4())
}

// Reads the header's bytes and returns the destination IP
func (h *IPv4Header) DstIP() net.IP {
	return net.IPv4(h.Raw[ipv4DstOffset], h.Raw[ipv4DstOffset+1], h.Raw[ipv4DstOffset+2], h.Raw[ipv4DstOffset+3])
}

// Sets the destination IP of the datagram
func (h *IPv4Header) SetDstIP(ip net.IP) {
	h.Modified = true
	copy(h.Raw[ipv4DstOffset:ipv4DstOffset+4], ip.To4())
}
