package rawping

import (
	"os"
	"sync/atomic"
)

var identCounter atomic.Uint32

func init() {
	// Seed with the pid so concurrent processes pinging the same
	// destination don't collide inside the fragment-reassembly window.
	identCounter.Store(uint32(os.Getpid()))
}

// nextIdentification returns a process-unique IPv4 identification. RFC 791
// wants the value unique per source/destination/protocol for the lifetime of
// the datagram, so a fresh one is drawn for every request that does not
// supply its own.
func nextIdentification() uint16 {
	return uint16(identCounter.Add(1))
}
