// Package netaddr provides the byte-exact endpoint value types the
// reactor's connect/bind/accept senders pass straight through to the
// kernel. Only the byte layout contract matters to the core: each
// Endpoint exposes a golang.org/x/sys/unix.Sockaddr, which x/sys encodes
// into the native sockaddr bytes and length at syscall time, mirroring
// original_source/source/sio/local/endpoint.hpp
// and the teacher's transport/tcp address handling.
//
// Author: momentics <momentics@gmail.com>
package netaddr

import "golang.org/x/sys/unix"

// Family identifies the address family an Endpoint carries.
type Family int

const (
	FamilyTCP4 Family = iota
	FamilyTCP6
	FamilyUnix
	FamilyCAN
)

// Endpoint is a byte-exact socket address ready for direct syscall
// passthrough to bind/connect/accept.
type Endpoint interface {
	// Sockaddr returns the golang.org/x/sys/unix representation used by
	// Bind/Connect/Accept4.
	Sockaddr() unix.Sockaddr
	// Family returns the address family (AF_INET, AF_INET6, AF_LOCAL, ...).
	Family() int
	// SocketType returns the socket type (SOCK_STREAM, SOCK_RAW, ...).
	SocketType() int
	// Protocol returns the protocol (0, CAN_RAW, ...).
	Protocol() int
	// Kind reports which concrete endpoint family this value represents.
	Kind() Family
}
