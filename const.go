package rawping

import "github.com/deblasis/rawping/header"

const (
	// PacketBufferSize is the size of the receive buffers handed to the raw
	// socket. Large enough for any non-jumbo reply.
	PacketBufferSize = 2048

	// MaxDatagramSize is the largest value the 16-bit total-length field can
	// describe.
	MaxDatagramSize = 65535

	// EchoRequestLen is the fixed prefix of every echo datagram this package
	// builds: IPv4 header, ICMP header and echo extension.
	EchoRequestLen = header.IPv4HeaderLen + header.ICMPv4EchoLen

	// DefaultTTL is the hop limit applied to outbound requests.
	DefaultTTL = 64
)
