// File: reactor/epoll/accept.go
// Author: momentics <momentics@gmail.com>
//
// Accept sender: accept4(2) with SOCK_NONBLOCK|SOCK_CLOEXEC set directly
// on the accepted fd so it never has to round-trip through a blocking
// state, and the standard EAGAIN park/resume loop for when the listening
// socket has no pending connection yet. Grounded on
// original_source/source/sio/event_loop/epoll/context.hpp's accept
// async_operation.
package epoll

import (
	"context"

	"github.com/flowreactor/aio/async"
	"golang.org/x/sys/unix"
)

// AcceptResult is the outcome of a successful Accept: the new connection's
// Token and the peer address that connected.
type AcceptResult struct {
	Token Token
	Peer  unix.Sockaddr
}

// Accept returns a sender that accepts one connection on the listening
// socket named by token.
func Accept(ctx *Context, token Token) async.Sender[AcceptResult] {
	return &acceptSender{ctx: ctx, token: token}
}

type acceptSender struct {
	ctx   *Context
	token Token
}

func (s *acceptSender) Connect(stopCtx context.Context, r async.Receiver[AcceptResult]) async.Operation {
	return &acceptOperation{sender: s, stopCtx: stopCtx, out: r}
}

type acceptOperation struct {
	sender  *acceptSender
	stopCtx context.Context
	out     async.Receiver[AcceptResult]
	base    *fdOperationBase
}

func (op *acceptOperation) Start() {
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

func (op *acceptOperation) runOnce() {
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
	for {
		nfd, peer, err := unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch err {
		case nil:
			_, tok := op.sender.ctx.registerDescriptor(nfd)
			op.base.detach()
			op.out.SetValue(AcceptResult{Token: tok, Peer: peer})
			return
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			op.base.entry.addWaiter(op.base, InterestRead)
			return
		default:
			op.base.detach()
			op.out.SetError(err)
			return
		}
	}
}
