// File: reactor/iouring/open_close.go
// Author: momentics <momentics@gmail.com>
//
// Open/Close via IORING_OP_OPENAT/CLOSE. Unlike reactor/epoll's Open,
// these genuinely go through the ring rather than completing inline:
// io_uring can open files asynchronously, which is one of its advantages
// over epoll for file-heavy workloads, per spec.md's rationale for
// supporting both backends.
package iouring

import (
	"context"

	"github.com/flowreactor/aio/async"
	"github.com/flowreactor/aio/reactor"
	"golang.org/x/sys/unix"
)

// Open returns a sender that opens path with the given flags/mode,
// yielding the new fd.
func Open(ctx *Context, path string, mode reactor.OpenMode, creation reactor.Creation) async.Sender[int] {
	return &openSender{ctx: ctx, path: path, mode: mode, creation: creation}
}

type openSender struct {
	ctx      *Context
	path     string
	mode     reactor.OpenMode
	creation reactor.Creation
}

func (s *openSender) Connect(stopCtx context.Context, r async.Receiver[int]) async.Operation {
	return &openOperation{sender: s, stopCtx: stopCtx, out: r}
}

type openOperation struct {
	sender   *openSender
	stopCtx  context.Context
	out      async.Receiver[int]
	base     *completionBase
	pathBuf  []byte
}

func (op *openOperation) Start() {
	op.base = newCompletionBase(op.sender.ctx)
	op.base.resume = op.onComplete
	op.base.watchStop(op.stopCtx)

	op.pathBuf = append([]byte(op.sender.path), 0)
	flags := reactor.OpenFlags(op.sender.mode, op.sender.creation)
	op.sender.ctx.submit(op.base, func(s *sqe) {
		s.Opcode = opOpenat
		s.FD = unix.AT_FDCWD
		s.Addr = bufAddr(op.pathBuf)
		s.OpFlags = uint32(flags)
		s.Len = uint32(reactor.CreateFileMode)
	})
}

func (op *openOperation) onComplete(res int32) {
	op.base.detach()
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

// Close returns a sender that closes fd via IORING_OP_CLOSE.
func Close(ctx *Context, fd int) async.Sender[struct{}] {
	return &closeSender{ctx: ctx, fd: fd}
}

type closeSender struct {
	ctx *Context
	fd  int
}

func (s *closeSender) Connect(stopCtx context.Context, r async.Receiver[struct{}]) async.Operation {
	return &closeOperation{sender: s, stopCtx: stopCtx, out: r}
}

type closeOperation struct {
	sender  *closeSender
	stopCtx context.Context
	out     async.Receiver[struct{}]
	base    *completionBase
}

func (op *closeOperation) Start() {
	op.base = newCompletionBase(op.sender.ctx)
	op.base.resume = op.onComplete
	op.sender.ctx.submit(op.base, func(s *sqe) {
		s.Opcode = opClose
		s.FD = int32(op.sender.fd)
	})
}

func (op *closeOperation) onComplete(res int32) {
	op.base.detach()
	if res < 0 {
		op.out.SetError(unix.Errno(-res))
		return
	}
	op.out.SetValue(struct{}{})
}
