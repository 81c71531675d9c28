// File: reactor/epoll/connect.go
// Author: momentics <momentics@gmail.com>
//
// Connect sender: issues connect(2) on a non-blocking socket, then waits
// for writability and confirms success via SO_ERROR, per the well-known
// non-blocking connect protocol. Grounded on
// original_source/source/sio/event_loop/epoll/context.hpp's connect
// async_operation, which follows the identical EINPROGRESS/EALREADY +
// getsockopt(SO_ERROR) sequence.
package epoll

import (
	"context"

	"github.com/flowreactor/aio/async"
	"github.com/flowreactor/aio/netaddr"
	"golang.org/x/sys/unix"
)

// Connect returns a sender that connects the socket named by token to ep,
// yielding once the connection is established or has definitively failed.
func Connect(ctx *Context, token Token, ep netaddr.Endpoint) async.Sender[struct{}] {
	return &connectSender{ctx: ctx, token: token, ep: ep}
}

type connectSender struct {
	ctx   *Context
	token Token
	ep    netaddr.Endpoint
}

func (s *connectSender) Connect(stopCtx context.Context, r async.Receiver[struct{}]) async.Operation {
	return &connectOperation{sender: s, stopCtx: stopCtx, out: r}
}

type connectOperation struct {
	sender  *connectSender
	stopCtx context.Context
	out     async.Receiver[struct{}]
	base    *fdOperationBase
	issued  bool
}

func (op *connectOperation) Start() {
	entry, ok := op.sender.ctx.table.lookup(op.sender.token)
	if !ok {
		op.out.SetError(errStaleToken)
		return
	}
	op.base = newFdOperationBase(op.sender.ctx, entry, op.sender.token)
	op.base.resume = op.runOnce
	op.base.watchStop(op.stopCtx)
	op.runOnce()
}

func (op *connectOperation) runOnce() {
	if op.base.Closed() {
		op.base.detach()
		op.out.SetError(unix.EBADF)
		return
	}
	if op.base.Cancelled() {
		op.base.detach()
		op.out.SetStopped()
		return
	}
	fd := op.base.entry.nativeHandle()

	if !op.issued {
		err := unix.Connect(fd, op.sender.ep.Sockaddr())
		switch err {
		case nil:
			op.base.detach()
			op.out.SetValue(struct{}{})
			return
		case unix.EINPROGRESS, unix.EALREADY:
			op.issued = true
			op.base.entry.addWaiter(op.base, InterestWrite)
			return
		default:
			op.base.detach()
			op.out.SetError(err)
			return
		}
	}

	// Woken on writability after a prior EINPROGRESS/EALREADY: consult
	// SO_ERROR to tell a successful connect apart from a failed one, since
	// writability alone does not distinguish them.
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		op.base.detach()
		op.out.SetError(err)
		return
	}
	if errno != 0 {
		op.base.detach()
		op.out.SetError(unix.Errno(errno))
		return
	}
	op.base.detach()
	op.out.SetValue(struct{}{})
}
