// File: netaddr/unix.go
// Author: momentics <momentics@gmail.com>
//
// UNIX stream endpoints, supporting both pathname and abstract (leading
// NUL byte) forms, matching original_source/source/sio/local/endpoint.hpp.
// Filesystem endpoints carry an UnlinkOnClose option; the handle
// package's AcceptorHandle.Close does not read it and leaves the socket
// path on the filesystem.

package netaddr

import (
	"golang.org/x/sys/unix"
)

// UnixEndpoint is a UNIX domain stream endpoint, AF_LOCAL/SOCK_STREAM.
type UnixEndpoint struct {
	Path string
	// Abstract selects the Linux abstract namespace (no filesystem
	// entry, leading NUL byte in the underlying sockaddr_un) instead of
	// a pathname socket.
	Abstract bool
	// UnlinkOnClose records whether the filesystem path is to be
	// unlinked on Close. Nothing in this module acts on it:
	// AcceptorHandle.Close only closes the descriptor.
	UnlinkOnClose bool
}

func (e UnixEndpoint) Kind() Family      { return FamilyUnix }
func (e UnixEndpoint) Family() int       { return unix.AF_LOCAL }
func (e UnixEndpoint) SocketType() int   { return unix.SOCK_STREAM }
func (e UnixEndpoint) Protocol() int     { return 0 }
func (e UnixEndpoint) IsFilesystem() bool { return !e.Abstract }

func (e UnixEndpoint) Sockaddr() unix.Sockaddr {
	name := e.Path
	if e.Abstract {
		// Abstract-namespace sockets are denoted by a leading NUL byte
		// in sun_path; golang.org/x/sys/unix.SockaddrUnix treats a name
		// beginning with '\x00' the same way.
		name = "\x00" + e.Path
	}
	return &unix.SockaddrUnix{Name: name}
}
