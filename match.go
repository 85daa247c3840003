package rawping

import "github.com/deblasis/rawping/header"

// matchOutcome classifies an inbound datagram against an outstanding echo
// request.
type matchOutcome int

const (
	// Noise: wrong protocol, wrong type, wrong correlation tokens, or a
	// buffer too short to decode. Keep listening.
	matchNone matchOutcome = iota

	// The host's own outbound Echo Request observed again, as loopback-style
	// interfaces deliver it. Not an error and not a reply. Keep listening.
	matchSelfEcho

	// The correlated Echo Reply.
	matchReply
)

func (m matchOutcome) String() string {
	switch m {
	case matchSelfEcho:
		return "self-echo"
	case matchReply:
		return "reply"
	default:
		return "no match"
	}
}

// matchEchoReply applies the per-datagram matching predicate: discard
// non-ICMP traffic, discard the looped-back request, and accept an EchoReply
// only when its identifier and sequence equal the original request's. On a
// match the returned Datagram exposes the reply payload (the total_length-28
// trailing bytes) through Payload().
//
// The predicate is total: anything undecodable is classified as matchNone
// and never read out of bounds.
func matchEchoReply(raw []byte, identifier, sequence uint16) (*Datagram, matchOutcome) {
	d, err := ParseDatagram(raw)
	if err != nil || d.IcmpHdr == nil {
		// Undecodable, non-ICMP, or too short for the baseline header.
		return nil, matchNone
	}

	switch d.IcmpHdr.Type() {
	case header.ICMPv4Echo:
		return nil, matchSelfEcho
	case header.ICMPv4EchoReply:
	default:
		return nil, matchNone
	}

	id, err := d.IcmpHdr.Identifier()
	if err != nil {
		return nil, matchNone
	}
	seq, err := d.IcmpHdr.Sequence()
	if err != nil {
		return nil, matchNone
	}
	if id != identifier || seq != sequence {
		return nil, matchNone
	}

	return d, matchReply
}
