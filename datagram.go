package rawping

import (
	"fmt"
	"net"
	"strings"

	"github.com/deblasis/rawping/header"
)

// Represents a complete IPv4+ICMP datagram
//
// Raw is the wire-format buffer; IpHdr and IcmpHdr are fixed-offset views
// into it, so mutating a header mutates the datagram. The builder owns the
// buffer until it is handed to a PingConn for transmission and never mutates
// it afterwards.
type Datagram struct {
	Raw []byte

	IpHdr   *header.IPv4Header
	IcmpHdr *header.ICMPv4Header
}

// BuildOption configures an outbound echo request
type BuildOption func(*buildConfig)

type buildConfig struct {
	ttl          uint8
	tos          uint8
	ident        uint16
	identSet     bool
	dontFragment bool
}

// WithTTL sets the hop limit of the request (default 64)
func WithTTL(ttl uint8) BuildOption {
	return func(cfg *buildConfig) {
		cfg.ttl = ttl
	}
}

// WithTOS sets the type-of-service byte (default 0, routine)
func WithTOS(tos uint8) BuildOption {
	return func(cfg *buildConfig) {
		cfg.tos = tos
	}
}

// WithIdentification pins the IPv4 identification instead of drawing a
// process-unique value
func WithIdentification(id uint16) BuildOption {
	return func(cfg *buildConfig) {
		cfg.ident = id
		cfg.identSet = true
	}
}

// WithDontFragment sets the DF control bit on the request
func WithDontFragment() BuildOption {
	return func(cfg *buildConfig) {
		cfg.dontFragment = true
	}
}

// BuildEchoRequest assembles a wire-ready ICMP Echo Request datagram:
// IPv4 header, ICMP header, echo extension and payload in one contiguous
// buffer, with both checksums computed last over the final bytes.
//
// Fails with ErrPayloadTooLarge if the datagram would not fit the 16-bit
// total-length field. src may be nil to let the kernel fill in the source
// address of the outbound interface.
func BuildEchoRequest(src, dst net.IP, identifier, sequence uint16, payload []byte, opts ...BuildOption) (*Datagram, error) {
	if len(payload) > MaxDatagramSize-EchoRequestLen {
		return nil, fmt.Errorf("%w: %d payload bytes", ErrPayloadTooLarge, len(payload))
	}
	if dst == nil || dst.To4() == nil {
		return nil, fmt.Errorf("destination is not an IPv4 address: %v", dst)
	}
	if src != nil && src.To4() == nil {
		return nil, fmt.Errorf("source is not an IPv4 address: %v", src)
	}

	cfg := &buildConfig{
		ttl: DefaultTTL,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if !cfg.identSet {
		cfg.ident = nextIdentification()
	}

	raw := make([]byte, EchoRequestLen+len(payload))

	ip, err := header.NewIPv4Header(raw)
	if err != nil {
		return nil, err
	}
	ip.SetVersionIHL(header.IPv4, header.IPv4HeaderLen/4)
	ip.SetTOS(cfg.tos)
	ip.SetTotalLen(uint16(len(raw)))
	ip.SetID(cfg.ident)
	var flags header.IPv4Flags
	if cfg.dontFragment {
		flags.Add(header.FlagDF)
	}
	ip.SetFlagsFragOff(flags, 0)
	ip.SetTTL(cfg.ttl)
	ip.SetProtocol(header.ICMPv4)
	if src != nil {
		ip.SetSrcIP(src)
	}
	ip.SetDstIP(dst)

	icmp, err := header.NewICMPv4Header(raw[header.IPv4HeaderLen:])
	if err != nil {
		return nil, err
	}
	icmp.SetType(header.ICMPv4Echo)
	icmp.SetCode(0)
	if err := icmp.SetIdentifier(identifier); err != nil {
		return nil, err
	}
	if err := icmp.SetSequence(sequence); err != nil {
		return nil, err
	}
	copy(raw[EchoRequestLen:], payload)

	d := &Datagram{
		Raw:     raw,
		IpHdr:   ip,
		IcmpHdr: icmp,
	}
	d.refreshChecksums()
	return d, nil
}

// ParseDatagram wraps an inbound buffer in header views.
// Fails with header.ErrMalformedHeader if the buffer cannot hold an IPv4
// header. The ICMP view is only attached when the protocol is ICMP and the
// buffer holds at least the 4 baseline bytes past the IP header.
func ParseDatagram(raw []byte) (*Datagram, error) {
	ip, err := header.NewIPv4Header(raw)
	if err != nil {
		return nil, err
	}

	d := &Datagram{
		Raw:   raw,
		IpHdr: ip,
	}

	hdrLen := int(ip.HeaderLen())
	if hdrLen < header.IPv4HeaderLen || len(raw) < hdrLen {
		return d, nil
	}
	if ip.Protocol() != header.ICMPv4 {
		return d, nil
	}

	// Trust total_length over the buffer size so trailing capture slack
	// never leaks into the ICMP checksum or payload.
	end := int(ip.TotalLen())
	if end > len(raw) || end < hdrLen {
		end = len(raw)
	}
	if end-hdrLen < header.ICMPv4HeaderLen {
		return d, nil
	}
	d.IcmpHdr, err = header.NewICMPv4Header(raw[hdrLen:end])
	if err != nil {
		return nil, err
	}
	return d, nil
}

// AppendPayload grows the datagram by p and restores the invariants in the
// only safe order: total length first, then the IPv4 header checksum, then
// the ICMP checksum over the full post-IP-header region.
// Fails with ErrPayloadTooLarge if the result would not fit the total-length
// field.
func (d *Datagram) AppendPayload(p []byte) error {
	if len(d.Raw)+len(p) > MaxDatagramSize {
		return fmt.Errorf("%w: %d bytes after append", ErrPayloadTooLarge, len(d.Raw)+len(p))
	}

	d.Raw = append(d.Raw, p...)

	// The append may have reallocated, so the header views are re-anchored
	// before any field is touched.
	d.IpHdr, _ = header.NewIPv4Header(d.Raw)
	d.IcmpHdr, _ = header.NewICMPv4Header(d.Raw[header.IPv4HeaderLen:])

	d.refreshChecksums()
	return nil
}

// refreshChecksums applies the recompute-on-mutation rule of the builder:
// (1) total length, (2) IPv4 header checksum, (3) ICMP checksum. Each
// checksum is zeroed by its UpdateChecksum before summing, so no stale value
// participates in its own recomputation.
func (d *Datagram) refreshChecksums() {
	d.IpHdr.SetTotalLen(uint16(len(d.Raw)))
	d.IpHdr.UpdateChecksum()
	d.IcmpHdr.UpdateChecksum()
}

// Identifier returns the echo identifier, 0 when the datagram carries no
// echo extension
func (d *Datagram) Identifier() uint16 {
	if d.IcmpHdr == nil {
		return 0
	}
	id, _ := d.IcmpHdr.Identifier()
	return id
}

// Sequence returns the echo sequence number, 0 when the datagram carries no
// echo extension
func (d *Datagram) Sequence() uint16 {
	if d.IcmpHdr == nil {
		return 0
	}
	seq, _ := d.IcmpHdr.Sequence()
	return seq
}

// Payload returns the bytes after the echo extension
func (d *Datagram) Payload() []byte {
	if d.IcmpHdr == nil {
		return nil
	}
	return d.IcmpHdr.Payload()
}

// DstIP returns the destination address
// Shortcut for IpHdr.DstIP()
func (d *Datagram) DstIP() net.IP {
	return d.IpHdr.DstIP()
}

func (d *Datagram) String() string {
	if d == nil {
		return "<nil>"
	}
	return fmt.Sprintf("Datagram {\n"+
		"\tIPHeader=%v\n"+
		"\tICMPHeader=%v\n"+
		"\tRawData=%v\n"+
		"}",
		d.IpHdr, d.IcmpHdr, d.Raw)
}

// Dump renders the wire-format bytes in hexadecimal, four bytes per line,
// one line per 32-bit header word.
func (d *Datagram) Dump() string {
	var sb strings.Builder
	for i, b := range d.Raw {
		fmt.Fprintf(&sb, "%02X ", b)
		if (i+1)%4 == 0 {
			sb.WriteByte('\n')
		}
	}
	if len(d.Raw)%4 != 0 {
		sb.WriteByte('\n')
	}
	return sb.String()
}
