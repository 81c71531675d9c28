// File: reactor/iouring/read_write.go
// Author: momentics <momentics@gmail.com>
//
// ReadSome/WriteSome via IORING_OP_READ/WRITE. Unlike reactor/epoll these
// never loop on EAGAIN themselves: the kernel worker handles any blocking
// internally and posts exactly one CQE per submitted SQE, so nothing is
// retried here: any negative result, -EINTR included, is delivered as an
// error, per
// original_source/source/sio/event_loop/iouring/context.hpp's read/write
// async_operation.
package iouring

import (
	"context"

	"github.com/flowreactor/aio/async"
	"golang.org/x/sys/unix"
)

// streamOffset tells the kernel to read/write at the file's current
// position rather than an explicit offset, the same convention pread(2)/
// pwrite(2) use with a negative offset.
const streamOffset = ^uint64(0)

// ReadSome returns a sender that performs one IORING_OP_READ into buf at
// the file's current position.
func ReadSome(ctx *Context, fd int, buf []byte) async.Sender[int] {
	return &rwSender{ctx: ctx, fd: fd, buf: buf, write: false, offset: streamOffset}
}

// WriteSome returns a sender that performs one IORING_OP_WRITE of buf at
// the file's current position.
func WriteSome(ctx *Context, fd int, buf []byte) async.Sender[int] {
	return &rwSender{ctx: ctx, fd: fd, buf: buf, write: true, offset: streamOffset}
}

// ReadAt returns a sender that performs one IORING_OP_READ into buf at
// the given absolute file offset.
func ReadAt(ctx *Context, fd int, buf []byte, offset int64) async.Sender[int] {
	return &rwSender{ctx: ctx, fd: fd, buf: buf, write: false, offset: uint64(offset)}
}

// WriteAt returns a sender that performs one IORING_OP_WRITE of buf at
// the given absolute file offset.
func WriteAt(ctx *Context, fd int, buf []byte, offset int64) async.Sender[int] {
	return &rwSender{ctx: ctx, fd: fd, buf: buf, write: true, offset: uint64(offset)}
}

type rwSender struct {
	ctx    *Context
	fd     int
	buf    []byte
	write  bool
	offset uint64
}

func (s *rwSender) Connect(stopCtx context.Context, r async.Receiver[int]) async.Operation {
	return &rwOperation{sender: s, stopCtx: stopCtx, out: r}
}

type rwOperation struct {
	sender  *rwSender
	stopCtx context.Context
	out     async.Receiver[int]
	base    *completionBase
}

func (op *rwOperation) Start() {
	if len(op.sender.buf) == 0 {
		op.out.SetValue(0)
		return
	}
	op.base = newCompletionBase(op.sender.ctx)
	op.base.resume = op.onComplete
	op.base.watchStop(op.stopCtx)

	opcode := uint8(opRead)
	if op.sender.write {
		opcode = opWrite
	}
	op.sender.ctx.submit(op.base, func(s *sqe) {
		s.Opcode = opcode
		s.FD = int32(op.sender.fd)
		s.Addr = bufAddr(op.sender.buf)
		s.Len = uint32(len(op.sender.buf))
		s.Off = op.sender.offset
	})
}

func (op *rwOperation) onComplete(res int32) {
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
