// File: netaddr/tcp.go
// Author: momentics <momentics@gmail.com>

package netaddr

import (
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

// TCPEndpoint is an IPv4 or IPv6 stream endpoint, AF_INET/AF_INET6,
// SOCK_STREAM, protocol 0.
type TCPEndpoint struct {
	IP   net.IP
	Port int
}

// ParseTCPEndpoint parses "host:port" into a TCPEndpoint, choosing
// FamilyTCP4 or FamilyTCP6 from the resolved address.
func ParseTCPEndpoint(hostport string) (TCPEndpoint, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return TCPEndpoint{}, fmt.Errorf("netaddr: parse %q: %w", hostport, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return TCPEndpoint{}, fmt.Errorf("netaddr: invalid port %q: %w", portStr, err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return TCPEndpoint{}, fmt.Errorf("netaddr: resolve %q: %w", host, err)
		}
		ip = ips[0]
	}
	return TCPEndpoint{IP: ip, Port: port}, nil
}

func (e TCPEndpoint) Kind() Family {
	if e.IP.To4() != nil {
		return FamilyTCP4
	}
	return FamilyTCP6
}

func (e TCPEndpoint) Family() int {
	if e.Kind() == FamilyTCP4 {
		return unix.AF_INET
	}
	return unix.AF_INET6
}

func (e TCPEndpoint) SocketType() int { return unix.SOCK_STREAM }
func (e TCPEndpoint) Protocol() int   { return 0 }

func (e TCPEndpoint) Sockaddr() unix.Sockaddr {
	if e.Kind() == FamilyTCP4 {
		sa := &unix.SockaddrInet4{Port: e.Port}
		copy(sa.Addr[:], e.IP.To4())
		return sa
	}
	sa := &unix.SockaddrInet6{Port: e.Port}
	copy(sa.Addr[:], e.IP.To16())
	return sa
}

func (e TCPEndpoint) String() string {
	return net.JoinHostPort(e.IP.String(), strconv.Itoa(e.Port))
}

// FromSockaddr converts a resolved unix.Sockaddr (e.g. from Getsockname)
// back into a TCPEndpoint, used to report an acceptor's ephemeral bound
// port after Listen.
func FromSockaddr(sa unix.Sockaddr) (TCPEndpoint, error) {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, 4)
		copy(ip, a.Addr[:])
		return TCPEndpoint{IP: ip, Port: a.Port}, nil
	case *unix.SockaddrInet6:
		ip := make(net.IP, 16)
		copy(ip, a.Addr[:])
		return TCPEndpoint{IP: ip, Port: a.Port}, nil
	default:
		return TCPEndpoint{}, fmt.Errorf("netaddr: unsupported sockaddr type %T", sa)
	}
}
