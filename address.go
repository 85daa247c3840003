package rawping

import (
	"fmt"
	"net"
)

// ParseIPv4 converts a dotted-quad address string to its 4-byte binary form.
// Anything that is not a plain IPv4 address, including IPv6, is rejected.
func ParseIPv4(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("invalid IPv4 address %q", s)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("not an IPv4 address: %q", s)
	}
	return ip4, nil
}
