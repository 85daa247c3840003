package header

// IPv4Flags holds the three control bits of the IPv4 flags/fragment-offset
// word.
type IPv4Flags uint8

const (
	// Reserved bit, must be zero on the wire
	FlagReserved IPv4Flags = 0x4

	// Don't Fragment
	FlagDF IPv4Flags = 0x2

	// More Fragments
	FlagMF IPv4Flags = 0x1
)

// Has checks if the flags contain all the given flags
func (f IPv4Flags) Has(flags IPv4Flags) bool {
	return f&flags == flags
}

// Add adds the given flags
func (f *IPv4Flags) Add(flags IPv4Flags) {
	*f |= flags
}

// Remove removes the given flags
func (f *IPv4Flags) Remove(flags IPv4Flags) {
	*f &^= flags
}

// Clear removes all flags
func (f *IPv4Flags) Clear() {
	*f = 0
}

// IsValid checks if the flags combination is legal on the wire
func (f IPv4Flags) IsValid() bool {
	// The reserved bit must stay zero
	if f.Has(FlagReserved) {
		return false
	}

	// A datagram cannot both forbid fragmentation and announce more fragments
	if f.Has(FlagDF | FlagMF) {
		return false
	}

	return true
}

// packFlagsFragOff packs the 3 control bits and the 13-bit fragment offset
// (in 8-byte units) into the wire-format 16-bit word.
func packFlagsFragOff(flags IPv4Flags, fragOff uint16) uint16 {
	return uint16(flags)<<13 | fragOff&0x1fff
}

// unpackFlagsFragOff is the exact inverse of packFlagsFragOff.
func unpackFlagsFragOff(w uint16) (IPv4Flags, uint16) {
	return IPv4Flags(w >> 13), w & 0x1fff
}

// packVersionIHL packs the IP version into the high nibble and the header
// length (in 4-byte words) into the low nibble of the first header byte.
func packVersionIHL(version, ihl uint8) uint8 {
	return version<<4 | ihl&0xf
}

// unpackVersionIHL is the exact inverse of packVersionIHL.
func unpackVersionIHL(b uint8) (version, ihl uint8) {
	return b >> 4, b & 0xf
}
