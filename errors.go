package rawping

import "errors"

var (
	// ErrPayloadTooLarge is returned before any I/O when the requested
	// payload would push the datagram past the 16-bit total-length field.
	ErrPayloadTooLarge = errors.New("payload too large: datagram would exceed 65535 bytes")

	// ErrTransmit is returned when the raw send fails or injects fewer bytes
	// than the datagram length. Never retried here.
	ErrTransmit = errors.New("transmit failed")

	// ErrNoReply is returned when no matching echo reply arrives before the
	// listening deadline elapses.
	ErrNoReply = errors.New("no matching echo reply before deadline")
)
