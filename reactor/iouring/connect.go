// File: reactor/iouring/connect.go
// Author: momentics <momentics@gmail.com>
//
// Connect via IORING_OP_CONNECT. No EINPROGRESS/SO_ERROR dance is needed
// here — unlike epoll's non-blocking connect(2), the kernel worker thread
// performs the whole connect and posts one CQE with the final result,
// per original_source/source/sio/event_loop/iouring/context.hpp's connect
// async_operation.
package iouring

import (
	"context"

	"github.com/flowreactor/aio/async"
	"github.com/flowreactor/aio/netaddr"
	"golang.org/x/sys/unix"
)

// Connect returns a sender that connects fd to ep.
func Connect(ctx *Context, fd int, ep netaddr.Endpoint) async.Sender[struct{}] {
	return &connectSender{ctx: ctx, fd: fd, ep: ep}
}

type connectSender struct {
	ctx *Context
	fd  int
	ep  netaddr.Endpoint
}

func (s *connectSender) Connect(stopCtx context.Context, r async.Receiver[struct{}]) async.Operation {
	return &connectOperation{sender: s, stopCtx: stopCtx, out: r}
}

type connectOperation struct {
	sender  *connectSender
	stopCtx context.Context
	out     async.Receiver[struct{}]
	base    *completionBase
	sa      []byte
}

func (op *connectOperation) Start() {
	op.base = newCompletionBase(op.sender.ctx)
	op.base.resume = op.onComplete
	op.base.watchStop(op.stopCtx)

	raw, salen, err := sockaddrBytes(op.sender.ep.Sockaddr())
	if err != nil {
		op.out.SetError(err)
		return
	}
	op.sa = raw
	op.sender.ctx.submit(op.base, func(s *sqe) {
		s.Opcode = opConnect
		s.FD = int32(op.sender.fd)
		s.Addr = bufAddr(op.sa)
		s.Off = uint64(salen)
	})
}

func (op *connectOperation) onComplete(res int32) {
	op.base.detach()
	if op.base.Cancelled() || res == -int32(unix.ECANCELED) {
		op.out.SetStopped()
		return
	}
	if res < 0 {
		op.out.SetError(unix.Errno(-res))
		return
	}
	op.out.SetValue(struct{}{})
}
