package rawping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/deblasis/rawping/header"
)

// DefaultTimeout bounds the listening state when neither the context nor an
// option supplies a deadline. The reference behavior of blocking forever is
// deliberately not reproduced.
const DefaultTimeout = 5 * time.Second

// pollInterval caps a single blocking receive so cancellation is noticed
// between attempts.
const pollInterval = 250 * time.Millisecond

// connState tracks a request/reply cycle through the driver.
type connState uint8

const (
	stateIdle connState = iota
	stateSending
	stateListening
	stateMatched
	stateTimeout
)

func (s connState) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case stateSending:
		return "Sending"
	case stateListening:
		return "Listening"
	case stateMatched:
		return "Matched"
	case stateTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// errRecvTimeout is the rawSocket-internal signal that a bounded receive
// expired without data. The driver turns it into another loop iteration or,
// past the deadline, into ErrNoReply.
var errRecvTimeout = errors.New("receive timed out")

// rawSocket is the raw transmit/receive capability the driver is scoped to:
// IPv4/ICMP, caller-supplied headers on send (IP_HDRINCL semantics), whole
// inbound IPv4 datagrams on receive.
type rawSocket interface {
	// SendTo injects p toward dst and reports the bytes written.
	SendTo(p []byte, dst []byte) (int, error)

	// RecvFrom blocks for at most timeout and fills p with one inbound
	// datagram. Expiry is reported as errRecvTimeout.
	RecvFrom(p []byte, timeout time.Duration) (int, error)

	Close() error
}

// PingConn owns a raw IPv4/ICMP socket for the duration of one outstanding
// echo request at a time. It has single-owner discipline: no locking, one
// request in flight, no state shared across requests.
type PingConn struct {
	sock    rawSocket
	log     *logrus.Logger
	timeout time.Duration
	state   connState
}

// Option is a function that configures a PingConn
type Option func(*PingConn)

// WithTimeout bounds the listening state (default DefaultTimeout). A context
// deadline shorter than the timeout wins.
func WithTimeout(d time.Duration) Option {
	return func(c *PingConn) {
		c.timeout = d
	}
}

// WithLogger sets the logger (default logrus.StandardLogger())
func WithLogger(log *logrus.Logger) Option {
	return func(c *PingConn) {
		c.log = log
	}
}

// Open acquires the raw transmit/receive capability and returns a ready
// PingConn. Raw sockets require elevated privilege (CAP_NET_RAW or root);
// that precondition is surfaced, not handled.
func Open(opts ...Option) (*PingConn, error) {
	sock, err := openRawSocket()
	if err != nil {
		return nil, err
	}
	return newPingConn(sock, opts...), nil
}

func newPingConn(sock rawSocket, opts ...Option) *PingConn {
	c := &PingConn{
		sock:    sock,
		log:     logrus.StandardLogger(),
		timeout: DefaultTimeout,
		state:   stateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the raw socket
func (c *PingConn) Close() error {
	return c.sock.Close()
}

// Ping injects the built datagram, then listens for the correlated Echo
// Reply and returns its payload bytes.
//
// The cycle is Idle -> Sending -> Listening -> Matched | Timeout. A short
// write or send failure surfaces as ErrTransmit with nothing to recover; an
// elapsed deadline surfaces as ErrNoReply. Self-echo datagrams and unrelated
// traffic are filtered silently. No retry is performed at this layer: a
// caller wanting one issues a new request with a fresh identifier/sequence
// pair.
func (c *PingConn) Ping(ctx context.Context, d *Datagram) ([]byte, error) {
	identifier := d.Identifier()
	sequence := d.Sequence()

	c.state = stateSending
	n, err := c.sock.SendTo(d.Raw, d.DstIP().To4())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransmit, err)
	}
	if n != len(d.Raw) {
		return nil, fmt.Errorf("%w: short write, sent %d of %d bytes", ErrTransmit, n, len(d.Raw))
	}
	c.log.WithFields(logrus.Fields{
		"dst":   d.DstIP().String(),
		"id":    fmt.Sprintf("%#04x", identifier),
		"seq":   fmt.Sprintf("%#04x", sequence),
		"bytes": n,
	}).Debug("echo request sent")

	c.state = stateListening
	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	for {
		if err := ctx.Err(); err != nil {
			c.state = stateTimeout
			return nil, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.state = stateTimeout
			return nil, ErrNoReply
		}
		if remaining > pollInterval {
			remaining = pollInterval
		}

		buf := GetBuffer()
		n, err := c.sock.RecvFrom(buf, remaining)
		if err != nil {
			PutBuffer(buf)
			if errors.Is(err, errRecvTimeout) {
				continue
			}
			return nil, fmt.Errorf("receive: %w", err)
		}

		reply, outcome := matchEchoReply(buf[:n], identifier, sequence)
		if outcome != matchReply {
			c.log.WithFields(logrus.Fields{
				"bytes":   n,
				"outcome": outcome.String(),
			}).Debug("inbound datagram discarded")
			PutBuffer(buf)
			continue
		}

		if sum := header.Checksum(reply.IcmpHdr.Raw); sum != 0 {
			// A reply that correlates but does not verify is still the
			// reply; the mismatch is worth surfacing in the log.
			c.log.WithField("residual", fmt.Sprintf("%#04x", sum)).
				Warn("echo reply ICMP checksum did not verify")
		}

		// The receive buffer goes back to the pool, so the payload is
		// copied out rather than aliased.
		payload := make([]byte, len(reply.Payload()))
		copy(payload, reply.Payload())
		PutBuffer(buf)

		c.state = stateMatched
		c.log.WithFields(logrus.Fields{
			"src":     reply.IpHdr.SrcIP().String(),
			"payload": len(payload),
		}).Debug("echo reply matched")
		return payload, nil
	}
}
