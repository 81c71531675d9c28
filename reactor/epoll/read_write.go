// File: reactor/epoll/read_write.go
// Author: momentics <momentics@gmail.com>
//
// ReadSome/WriteSome: the one-shot, possibly-partial byte transfer senders
// every higher-level read/write-all loop in package sequence is built out
// of. Grounded on original_source/source/sio/event_loop/epoll/context.hpp's
// read/write async_operation run_once: a zero-length fast path, an EINTR
// retry loop, and a park-on-EAGAIN/resume-on-readiness suspension.
package epoll

import (
	"context"

	"github.com/flowreactor/aio/async"
	"golang.org/x/sys/unix"
)

// ReadSome returns a sender that performs at most one read(2) into buf,
// yielding the number of bytes read (which may be 0 at EOF, and may be
// less than len(buf)).
func ReadSome(ctx *Context, token Token, buf []byte) async.Sender[int] {
	return &rwSender{ctx: ctx, token: token, buf: buf, write: false}
}

// WriteSome returns a sender that performs at most one write(2) of buf,
// yielding the number of bytes written (which may be less than len(buf)).
func WriteSome(ctx *Context, token Token, buf []byte) async.Sender[int] {
	return &rwSender{ctx: ctx, token: token, buf: buf, write: true}
}

type rwSender struct {
	ctx   *Context
	token Token
	buf   []byte
	write bool
}

func (s *rwSender) Connect(stopCtx context.Context, r async.Receiver[int]) async.Operation {
	return &rwOperation{sender: s, stopCtx: stopCtx, out: r}
}

type rwOperation struct {
	sender  *rwSender
	stopCtx context.Context
	out     async.Receiver[int]
	base    *fdOperationBase
}

func (op *rwOperation) Start() {
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

func (op *rwOperation) runOnce() {
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
	if len(op.sender.buf) == 0 {
		op.base.detach()
		op.out.SetValue(0)
		return
	}
	fd := op.base.entry.nativeHandle()
	for {
		var n int
		var err error
		if op.sender.write {
			n, err = unix.Write(fd, op.sender.buf)
		} else {
			n, err = unix.Read(fd, op.sender.buf)
		}
		switch err {
		case nil:
			op.base.detach()
			op.out.SetValue(n)
			return
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			interest := InterestRead
			if op.sender.write {
				interest = InterestWrite
			}
			op.base.entry.addWaiter(op.base, interest)
			return
		default:
			op.base.detach()
			op.out.SetError(err)
			return
		}
	}
}
