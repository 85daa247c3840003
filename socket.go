package rawping

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// unixRawSocket is the production rawSocket: AF_INET/SOCK_RAW/IPPROTO_ICMP
// with IP_HDRINCL set, so the kernel neither prepends its own IPv4 header on
// send nor strips the inbound one on receive.
type unixRawSocket struct {
	fd int
}

func openRawSocket() (*unixRawSocket, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW, unix.IPPROTO_ICMP)
	if err != nil {
		return nil, fmt.Errorf("open raw socket (requires CAP_NET_RAW or root): %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_HDRINCL, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setsockopt IP_HDRINCL: %w", err)
	}

	return &unixRawSocket{fd: fd}, nil
}

func (s *unixRawSocket) SendTo(p []byte, dst []byte) (int, error) {
	if len(dst) != 4 {
		return 0, fmt.Errorf("destination is not a 4-byte IPv4 address: %v", dst)
	}

	var sa unix.SockaddrInet4
	copy(sa.Addr[:], dst)

	n, err := unix.SendmsgN(s.fd, p, nil, &sa, 0)
	if err != nil {
		return n, os.NewSyscallError("sendmsg", err)
	}
	return n, nil
}

func (s *unixRawSocket) RecvFrom(p []byte, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		timeout = time.Microsecond
	}
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		return 0, os.NewSyscallError("setsockopt SO_RCVTIMEO", err)
	}

	n, _, err := unix.Recvfrom(s.fd, p, 0)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR {
			return 0, errRecvTimeout
		}
		return 0, os.NewSyscallError("recvfrom", err)
	}
	return n, nil
}

func (s *unixRawSocket) Close() error {
	return unix.Close(s.fd)
}
