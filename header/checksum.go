package header

// Checksum computes the RFC 1071 Internet checksum of b.
//
// The buffer is read as consecutive 16-bit big-endian words and summed into
// a 32-bit accumulator. An odd trailing byte is treated as the high byte of
// one more word whose low byte is zero; the pad is never written back.
// Carries above bit 15 are folded back into the low 16 bits until none
// remain, and the complement of the low 16 bits is returned.
//
// The input must already be in network byte order. The function never
// compensates for host endianness: it is fed raw wire bytes and produces the
// value that belongs in a big-endian checksum field. A zero-length buffer
// yields 0xFFFF.
func Checksum(b []byte) uint16 {
	var sum uint32

	n := len(b) &^ 1
	for i := 0; i < n; i += 2 {
		sum += uint32(b[i])<<8 | uint32(b[i+1])
	}
	if len(b)&1 == 1 {
		sum += uint32(b[len(b)-1]) << 8
	}

	for sum>>16 != 0 {
		sum = sum&0xffff + sum>>16
	}

	return ^uint16(sum)
}
