package rawping

import (
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deblasis/rawping/header"
)

var loopback = net.IPv4(127, 0, 0, 1)

func TestBuildEchoRequestHello(t *testing.T) {
	d, err := BuildEchoRequest(loopback, loopback, 0x1234, 0x0001, []byte("HELLO"),
		WithIdentification(0xBEEF))
	require.NoError(t, err)

	assert.Len(t, d.Raw, 33)
	assert.EqualValues(t, 33, d.IpHdr.TotalLen())

	// IPv4 header fields
	assert.EqualValues(t, 0x45, d.Raw[0])
	assert.EqualValues(t, 0, d.IpHdr.TOS())
	assert.EqualValues(t, 0xBEEF, d.IpHdr.ID())
	flags, fragOff := d.IpHdr.FlagsFragOff()
	assert.EqualValues(t, 0, flags)
	assert.EqualValues(t, 0, fragOff)
	assert.EqualValues(t, DefaultTTL, d.IpHdr.TTL())
	assert.EqualValues(t, header.ICMPv4, d.IpHdr.Protocol())
	assert.True(t, d.IpHdr.SrcIP().Equal(loopback))
	assert.True(t, d.DstIP().Equal(loopback))

	// ICMP message
	assert.EqualValues(t, header.ICMPv4Echo, d.IcmpHdr.Type())
	assert.EqualValues(t, 0, d.IcmpHdr.Code())
	assert.EqualValues(t, 0x1234, d.Identifier())
	assert.EqualValues(t, 0x0001, d.Sequence())
	assert.Equal(t, []byte("HELLO"), d.Payload())
	assert.Equal(t, []byte{0x48, 0x45, 0x4C, 0x4C, 0x4F}, d.Raw[28:])

	// Both checksums must self-verify over their exact coverage.
	assert.EqualValues(t, 0, header.Checksum(d.Raw[:header.IPv4HeaderLen]),
		"IPv4 header checksum residual")
	assert.EqualValues(t, 0, header.Checksum(d.Raw[header.IPv4HeaderLen:]),
		"ICMP checksum residual")
	assert.NotZero(t, d.IpHdr.Checksum())
	assert.NotZero(t, d.IcmpHdr.Checksum())
}

func TestBuildEchoRequestPayloadTooLarge(t *testing.T) {
	// 65507 payload bytes is exactly the 65535 ceiling.
	d, err := BuildEchoRequest(loopback, loopback, 1, 1, make([]byte, MaxDatagramSize-EchoRequestLen))
	require.NoError(t, err)
	assert.EqualValues(t, MaxDatagramSize, d.IpHdr.TotalLen())

	_, err = BuildEchoRequest(loopback, loopback, 1, 1, make([]byte, MaxDatagramSize-EchoRequestLen+1))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestBuildEchoRequestRejectsNonIPv4(t *testing.T) {
	_, err := BuildEchoRequest(loopback, net.ParseIP("2001:db8::1"), 1, 1, nil)
	assert.Error(t, err)

	_, err = BuildEchoRequest(net.ParseIP("2001:db8::1"), loopback, 1, 1, nil)
	assert.Error(t, err)

	_, err = BuildEchoRequest(loopback, nil, 1, 1, nil)
	assert.Error(t, err)
}

func TestBuildEchoRequestNilSource(t *testing.T) {
	d, err := BuildEchoRequest(nil, loopback, 1, 1, nil)
	require.NoError(t, err)

	// All-zero source lets the kernel pick the outbound address.
	assert.True(t, d.IpHdr.SrcIP().Equal(net.IPv4zero))
	assert.EqualValues(t, 0, header.Checksum(d.Raw[:header.IPv4HeaderLen]))
}

func TestBuildEchoRequestUniqueIdentification(t *testing.T) {
	a, err := BuildEchoRequest(loopback, loopback, 1, 1, nil)
	require.NoError(t, err)
	b, err := BuildEchoRequest(loopback, loopback, 1, 2, nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.IpHdr.ID(), b.IpHdr.ID(),
		"identification must be unique per request")
}

func TestBuildEchoRequestOptions(t *testing.T) {
	d, err := BuildEchoRequest(loopback, loopback, 1, 1, nil,
		WithTTL(12), WithTOS(0x10), WithDontFragment())
	require.NoError(t, err)

	assert.EqualValues(t, 12, d.IpHdr.TTL())
	assert.EqualValues(t, 0x10, d.IpHdr.TOS())
	flags, _ := d.IpHdr.FlagsFragOff()
	assert.True(t, flags.Has(header.FlagDF))
	assert.EqualValues(t, 0, header.Checksum(d.Raw[:header.IPv4HeaderLen]))
}

func TestAppendPayloadRipple(t *testing.T) {
	d, err := BuildEchoRequest(loopback, loopback, 0x1234, 0x0001, nil,
		WithIdentification(0xBEEF))
	require.NoError(t, err)

	require.EqualValues(t, EchoRequestLen, d.IpHdr.TotalLen())
	ipSumBefore := d.IpHdr.Checksum()
	icmpSumBefore := d.IcmpHdr.Checksum()

	require.NoError(t, d.AppendPayload([]byte("HELLO")))

	assert.EqualValues(t, 33, d.IpHdr.TotalLen())
	assert.Equal(t, []byte("HELLO"), d.Payload())
	assert.NotEqual(t, ipSumBefore, d.IpHdr.Checksum(),
		"IPv4 checksum must ripple when total length changes")
	assert.NotEqual(t, icmpSumBefore, d.IcmpHdr.Checksum(),
		"ICMP checksum must cover the appended bytes")
	assert.EqualValues(t, 0, header.Checksum(d.Raw[:header.IPv4HeaderLen]))
	assert.EqualValues(t, 0, header.Checksum(d.Raw[header.IPv4HeaderLen:]))
}

func TestAppendPayloadTooLarge(t *testing.T) {
	d, err := BuildEchoRequest(loopback, loopback, 1, 1, make([]byte, MaxDatagramSize-EchoRequestLen))
	require.NoError(t, err)

	assert.ErrorIs(t, d.AppendPayload([]byte{0x00}), ErrPayloadTooLarge)
}

func TestParseDatagramTooShort(t *testing.T) {
	for size := 0; size < header.IPv4HeaderLen; size++ {
		_, err := ParseDatagram(make([]byte, size))
		assert.ErrorIs(t, err, header.ErrMalformedHeader, "size %d", size)
	}
}

func TestParseDatagramRoundTrip(t *testing.T) {
	built, err := BuildEchoRequest(loopback, loopback, 0x1234, 0x0001, []byte("HELLO"))
	require.NoError(t, err)

	parsed, err := ParseDatagram(built.Raw)
	require.NoError(t, err)
	require.NotNil(t, parsed.IcmpHdr)

	assert.EqualValues(t, 0x1234, parsed.Identifier())
	assert.EqualValues(t, 0x0001, parsed.Sequence())
	assert.Equal(t, []byte("HELLO"), parsed.Payload())
}

func TestParseDatagramIgnoresCaptureSlack(t *testing.T) {
	built, err := BuildEchoRequest(loopback, loopback, 0x1234, 0x0001, []byte("HELLO"))
	require.NoError(t, err)

	// Trailing bytes past total_length must not leak into the payload.
	padded := append(append([]byte(nil), built.Raw...), 0xDE, 0xAD)
	parsed, err := ParseDatagram(padded)
	require.NoError(t, err)
	require.NotNil(t, parsed.IcmpHdr)

	assert.Equal(t, []byte("HELLO"), parsed.Payload())
}

func TestDumpFormat(t *testing.T) {
	d, err := BuildEchoRequest(loopback, loopback, 0x1234, 0x0001, []byte("HELLO"))
	require.NoError(t, err)

	dump := d.Dump()
	lines := strings.Split(strings.TrimRight(dump, "\n"), "\n")
	assert.Len(t, lines, 9) // 33 bytes, 4 per line
	assert.Equal(t, "45 00 00 21 ", lines[0])
	assert.Equal(t, "48 45 4C 4C ", lines[7])
	assert.Equal(t, "4F ", lines[8]) // odd tail byte gets its own line
}
