package header

import (
	"encoding/binary"
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"
)

func TestChecksumVectors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{
			name: "empty",
			data: nil,
			want: 0xFFFF,
		},
		{
			name: "even length",
			data: []byte{0xFF, 0x00, 0x01, 0xFF, 0x00, 0x02},
			want: 0xFEFD,
		},
		{
			name: "odd length pads logically",
			data: []byte{0xFF, 0x00, 0x01, 0xFF, 0x48},
			want: 0xB6FF,
		},
		{
			name: "single byte",
			data: []byte{0x48},
			want: ^uint16(0x4800),
		},
		{
			name: "all zeros",
			data: make([]byte, 20),
			want: 0xFFFF,
		},
		{
			// 0xFFFF+0xFFFF+0x0001 = 0x1FFFF folds to 0x10000, then to 0x0001
			name: "carry folding repeats until no overflow",
			data: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x01},
			want: ^uint16(0x0001),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.data); got != tt.want {
				t.Errorf("Checksum(% X) = %#04x, want %#04x", tt.data, got, tt.want)
			}
		})
	}
}

func TestChecksumDoesNotMutateOddInput(t *testing.T) {
	data := []byte{0xFF, 0x00, 0x01, 0xFF, 0x48}
	saved := append([]byte(nil), data...)

	Checksum(data)

	for i := range data {
		if data[i] != saved[i] {
			t.Fatalf("input mutated at byte %d: got %#02x, want %#02x", i, data[i], saved[i])
		}
	}
}

// Inserting the computed checksum into its (previously zeroed) field and
// summing the whole buffer again must complement to zero. This is the
// standard self-verification property of one's-complement checksums.
func TestChecksumSelfVerifies(t *testing.T) {
	f := func(data []byte) bool {
		if len(data) < 2 {
			return true
		}
		// Use the first word as the checksum field.
		data[0], data[1] = 0, 0
		binary.BigEndian.PutUint16(data, Checksum(data))
		return Checksum(data) == 0
	}

	config := &quick.Config{
		MaxCount: 500,
		Values: func(values []reflect.Value, r *rand.Rand) {
			data := make([]byte, r.Intn(100)+2)
			r.Read(data)
			values[0] = reflect.ValueOf(data)
		},
	}

	if err := quick.Check(f, config); err != nil {
		t.Error(err)
	}
}

// checksumByBytes sums one octet at a time, pairing them logically into
// big-endian words. Chunking must not change the result.
func checksumByBytes(b []byte) uint16 {
	var sum uint32
	for i, c := range b {
		if i&1 == 0 {
			sum += uint32(c) << 8
		} else {
			sum += uint32(c)
		}
	}
	for sum>>16 != 0 {
		sum = sum&0xffff + sum>>16
	}
	return ^uint16(sum)
}

func TestChecksumChunkingInsensitive(t *testing.T) {
	f := func(data []byte) bool {
		return Checksum(data) == checksumByBytes(data)
	}

	config := &quick.Config{
		MaxCount: 500,
		Values: func(values []reflect.Value, r *rand.Rand) {
			data := make([]byte, r.Intn(200))
			r.Read(data)
			values[0] = reflect.ValueOf(data)
		},
	}

	if err := quick.Check(f, config); err != nil {
		t.Error(err)
	}
}
