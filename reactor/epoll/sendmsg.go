// File: reactor/epoll/sendmsg.go
// Author: momentics <momentics@gmail.com>
//
// SendMsg sender: sendmsg(2) with MSG_NOSIGNAL so a peer that has closed
// its end never raises SIGPIPE against this process, following the same
// EAGAIN park/resume loop as ReadSome/WriteSome. Grounded on
// original_source's send_to/sendmsg async_operation, generalized here to
// cover both connected sockets (to == nil) and SocketCAN raw frames (no
// destination address needed, CAN_RAW is connectionless but bound).
package epoll

import (
	"context"

	"github.com/flowreactor/aio/async"
	"github.com/flowreactor/aio/netaddr"
	"golang.org/x/sys/unix"
)

// SendMsg returns a sender that performs at most one sendmsg(2) of buf to
// the (optional) destination to, yielding the number of bytes sent.
func SendMsg(ctx *Context, token Token, buf []byte, to netaddr.Endpoint) async.Sender[int] {
	return &sendMsgSender{ctx: ctx, token: token, buf: buf, to: to}
}

type sendMsgSender struct {
	ctx   *Context
	token Token
	buf   []byte
	to    netaddr.Endpoint
}

func (s *sendMsgSender) Connect(stopCtx context.Context, r async.Receiver[int]) async.Operation {
	return &sendMsgOperation{sender: s, stopCtx: stopCtx, out: r}
}

type sendMsgOperation struct {
	sender  *sendMsgSender
	stopCtx context.Context
	out     async.Receiver[int]
	base    *fdOperationBase
}

func (op *sendMsgOperation) Start() {
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

func (op *sendMsgOperation) runOnce() {
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
	var to unix.Sockaddr
	if op.sender.to != nil {
		to = op.sender.to.Sockaddr()
	}
	for {
		n, err := unix.SendmsgN(fd, op.sender.buf, nil, to, unix.MSG_NOSIGNAL)
		switch err {
		case nil:
			op.base.detach()
			op.out.SetValue(n)
			return
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			op.base.entry.addWaiter(op.base, InterestWrite)
			return
		default:
			op.base.detach()
			op.out.SetError(err)
			return
		}
	}
}
