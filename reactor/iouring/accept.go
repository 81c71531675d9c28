// File: reactor/iouring/accept.go
// Author: momentics <momentics@gmail.com>
//
// Accept via IORING_OP_ACCEPT: addr/addr2 point at a scratch sockaddr
// buffer and its length respectively, accept_flags carries
// SOCK_NONBLOCK|SOCK_CLOEXEC the same way reactor/epoll's Accept passes
// them to accept4(2) directly. Grounded on
// original_source/source/sio/event_loop/iouring/context.hpp's accept
// async_operation.
package iouring

import (
	"context"
	"encoding/binary"

	"github.com/flowreactor/aio/async"
	"golang.org/x/sys/unix"
)

// Accept returns a sender that accepts one connection on listening fd,
// yielding the new connection's fd.
func Accept(ctx *Context, fd int) async.Sender[int] {
	return &acceptSender{ctx: ctx, fd: fd}
}

type acceptSender struct {
	ctx *Context
	fd  int
}

func (s *acceptSender) Connect(stopCtx context.Context, r async.Receiver[int]) async.Operation {
	return &acceptOperation{sender: s, stopCtx: stopCtx, out: r}
}

const maxSockaddrLen = 128

// acceptScratch bundles the sockaddr buffer and its length word that
// IORING_OP_ACCEPT writes the peer address into. Recycled through
// Context.acceptScratchPool instead of allocated per Accept call, since
// a busy listener issues these at a high rate and the kernel has fully
// written (or left untouched, on error) the buffer by the time its CQE
// is posted.
type acceptScratch struct {
	addrBuf []byte
	addrLen []byte
}

type acceptOperation struct {
	sender  *acceptSender
	stopCtx context.Context
	out     async.Receiver[int]
	base    *completionBase
	scratch *acceptScratch
}

func (op *acceptOperation) Start() {
	op.base = newCompletionBase(op.sender.ctx)
	op.base.resume = op.onComplete
	op.base.watchStop(op.stopCtx)

	op.scratch = op.sender.ctx.acceptScratchPool.Get()
	binary.LittleEndian.PutUint32(op.scratch.addrLen, maxSockaddrLen)

	op.sender.ctx.submit(op.base, func(s *sqe) {
		s.Opcode = opAccept
		s.FD = int32(op.sender.fd)
		s.Addr = bufAddr(op.scratch.addrBuf)
		s.Off = bufAddr(op.scratch.addrLen)
		s.OpFlags = unix.SOCK_NONBLOCK | unix.SOCK_CLOEXEC
	})
}

func (op *acceptOperation) onComplete(res int32) {
	op.base.detach()
	op.sender.ctx.acceptScratchPool.Put(op.scratch)
	if op.base.Cancelled() || res == -int32(unix.ECANCELED) {
		op.out.SetStopped()
		return
	}
	if res < 0 {
		op.out.SetError(unix.Errno(-res))
		return
	}
	op.out.SetValue(int(res))
}
