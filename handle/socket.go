// File: handle/socket.go
// Author: momentics <momentics@gmail.com>
//
// Socket is a factory bound to a reactor, a protocol family and an
// endpoint, per spec.md §4.7. It covers TCP, UNIX stream, and the
// supplemented CAN raw family (netaddr.FamilyCAN) uniformly: the
// backend-level OpenSocket already derives family/type/protocol from
// the Endpoint, so nothing here needs to branch on Kind().
package handle

import (
	"github.com/flowreactor/aio/async"
	"github.com/flowreactor/aio/netaddr"
)

// Socket is a factory bound to a reactor and an endpoint. Open creates
// and registers a non-blocking socket but does not connect, bind, or
// listen — those are separate sender-returning methods on the handle,
// matching spec.md §4.7's "handles expose per-operation methods".
type Socket[Ref any] struct {
	Ops      Ops[Ref]
	Endpoint netaddr.Endpoint
}

// Open returns a sender that creates the socket.
func (s Socket[Ref]) Open() async.Sender[*SocketHandle[Ref]] {
	return async.Func[*SocketHandle[Ref]](func() (*SocketHandle[Ref], error) {
		ref, err := s.Ops.OpenSocket(s.Endpoint)
		if err != nil {
			return nil, err
		}
		return &SocketHandle[Ref]{ops: s.Ops, ref: ref}, nil
	})
}

// SocketHandle is a view on a socket descriptor owned by the backend.
type SocketHandle[Ref any] struct {
	ops Ops[Ref]
	ref Ref
}

func (h *SocketHandle[Ref]) Ref() Ref { return h.ref }

func (h *SocketHandle[Ref]) Close() async.Sender[struct{}] { return h.ops.Close(h.ref) }

func (h *SocketHandle[Ref]) Connect(ep netaddr.Endpoint) async.Sender[struct{}] {
	return h.ops.Connect(h.ref, ep)
}

func (h *SocketHandle[Ref]) Bind(ep netaddr.Endpoint) error { return h.ops.Bind(h.ref, ep) }

func (h *SocketHandle[Ref]) Listen(backlog int) error { return h.ops.Listen(h.ref, backlog) }

// ReadSome/WriteSome cover the connected-socket byte-stream case via the
// same Ops[Ref] methods File uses. On IOUringOps those are
// IORING_OP_READ/WRITE; its separate Send/Recv methods are not used here.
func (h *SocketHandle[Ref]) ReadSome(buf []byte) async.Sender[int] { return h.ops.ReadSome(h.ref, buf) }

func (h *SocketHandle[Ref]) WriteSome(buf []byte) async.Sender[int] {
	return h.ops.WriteSome(h.ref, buf)
}
