package rawping

import "sync"

// Pool for raw socket receive buffers. Every receive cycle takes a fresh
// buffer and returns it once the inbound datagram has been inspected.
var packetBufferPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, PacketBufferSize)
		return &b
	},
}

// GetBuffer gets a receive buffer from the pool
func GetBuffer() []byte {
	return *packetBufferPool.Get().(*[]byte)
}

// PutBuffer returns a receive buffer to the pool
func PutBuffer(buf []byte) {
	if cap(buf) < PacketBufferSize {
		return
	}
	buf = buf[:PacketBufferSize]
	packetBufferPool.Put(&buf)
}
