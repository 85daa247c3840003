package header

const (
	// IPv4HeaderLen is the length of an IPv4 header without options.
	// This implementation never emits options, so it is also the maximum.
	IPv4HeaderLen = 20

	// ICMPv4HeaderLen is the length of the baseline ICMP header shared by
	// every message type.
	ICMPv4HeaderLen = 4

	// ICMPv4EchoLen is the length of the baseline header plus the
	// identifier/sequence extension carried by Echo and EchoReply.
	ICMPv4EchoLen = 8

	ICMPv4 = 1
	TCP    = 6
	UDP    = 17

	IPv4 = 4
)

// ICMP message types used by this package.
const (
	ICMPv4EchoReply = 0
	ICMPv4Echo      = 8
)

// IPv4 header field offsets.
const (
	ipv4VersionIHLOffset = 0
	ipv4TOSOffset        = 1
	ipv4TotalLenOffset   = 2
	ipv4IDOffset         = 4
	ipv4FlagsFragOffset  = 6
	ipv4TTLOffset        = 8
	ipv4ProtocolOffset   = 9
	ipv4ChecksumOffset   = 10
	ipv4SrcOffset        = 12
	ipv4DstOffset        = 16
)

// ICMP field offsets, relative to the start of the ICMP message.
const (
	icmpTypeOffset     = 0
	icmpCodeOffset     = 1
	icmpChecksumOffset = 2
	icmpIDOffset       = 4
	icmpSeqOffset      = 6
)

// Returns the name of the protocol
func ProtocolName(protocol uint8) string {
	switch protocol {
	case ICMPv4:
		return "ICMPv4"
	case TCP:
		return "TCP"
	case UDP:
		return "UDP"
	default:
		return "Unknown"
	}
}
