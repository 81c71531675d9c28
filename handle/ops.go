// Package handle implements the backend-agnostic resource handles —
// File, SeekableFile, Socket, Acceptor — that application code actually
// uses. Each handle is generic over a backend-supplied reference type
// (an epoll.Token or a plain io_uring fd), and defers every actual
// syscall-issuing sender to an Ops[Ref] implementation so the handle
// types themselves never need to know which reactor backend they sit on.
// Grounded on original_source/source/sio/io_concepts.hpp's io_scheduler/
// byte_stream concepts, which the original keeps generic over its own
// two execution contexts the same way.
//
// Author: momentics <momentics@gmail.com>
package handle

import (
	"github.com/flowreactor/aio/async"
	"github.com/flowreactor/aio/netaddr"
	"github.com/flowreactor/aio/reactor"
)

// Ops is the set of resource operations a reactor backend must expose to
// back a handle. Ref is the backend's own native reference to an open
// descriptor (epoll.Token for the epoll backend, a plain fd for io_uring).
type Ops[Ref any] interface {
	Backend() reactor.Backend

	OpenFile(path string, mode reactor.OpenMode, creation reactor.Creation) async.Sender[Ref]
	ReadSome(ref Ref, buf []byte) async.Sender[int]
	WriteSome(ref Ref, buf []byte) async.Sender[int]
	ReadAt(ref Ref, buf []byte, offset int64) async.Sender[int]
	WriteAt(ref Ref, buf []byte, offset int64) async.Sender[int]
	Close(ref Ref) async.Sender[struct{}]

	OpenSocket(ep netaddr.Endpoint) (Ref, error)
	Connect(ref Ref, ep netaddr.Endpoint) async.Sender[struct{}]
	Bind(ref Ref, ep netaddr.Endpoint) error
	Listen(ref Ref, backlog int) error
	AcceptOnce(ref Ref) async.Sender[Ref]
}
