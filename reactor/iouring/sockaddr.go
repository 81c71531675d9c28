// File: reactor/iouring/sockaddr.go
// Author: momentics <momentics@gmail.com>
//
// io_uring's CONNECT and ACCEPT opcodes take a raw sockaddr buffer and
// length rather than the Go-level unix.Sockaddr interface connect(2)/
// bind(2) accept, so this package marshals the address families netaddr
// actually produces (TCP4, TCP6, UNIX) into their raw kernel byte layout
// itself. Grounded on original_source/source/sio/ip/endpoint.hpp and
// local/endpoint.hpp, which carry the identical raw sockaddr_in/
// sockaddr_in6/sockaddr_un bytes end to end rather than going through a
// higher-level address type.
package iouring

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

func sockaddrBytes(sa unix.Sockaddr) ([]byte, int, error) {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		buf := make([]byte, 16)
		binary.LittleEndian.PutUint16(buf[0:2], unix.AF_INET)
		binary.BigEndian.PutUint16(buf[2:4], uint16(v.Port))
		copy(buf[4:8], v.Addr[:])
		return buf, 16, nil
	case *unix.SockaddrInet6:
		buf := make([]byte, 28)
		binary.LittleEndian.PutUint16(buf[0:2], unix.AF_INET6)
		binary.BigEndian.PutUint16(buf[2:4], uint16(v.Port))
		copy(buf[8:24], v.Addr[:])
		binary.LittleEndian.PutUint32(buf[24:28], v.ZoneId)
		return buf, 28, nil
	case *unix.SockaddrUnix:
		buf := make([]byte, 2+108)
		binary.LittleEndian.PutUint16(buf[0:2], unix.AF_UNIX)
		n := copy(buf[2:], v.Name)
		return buf, 2 + n, nil
	default:
		return nil, 0, fmt.Errorf("iouring: unsupported sockaddr type %T", sa)
	}
}
