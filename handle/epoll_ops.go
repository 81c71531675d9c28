// File: handle/epoll_ops.go
// Author: momentics <momentics@gmail.com>

package handle

import (
	"github.com/flowreactor/aio/async"
	"github.com/flowreactor/aio/netaddr"
	"github.com/flowreactor/aio/reactor"
	"github.com/flowreactor/aio/reactor/epoll"
	"golang.org/x/sys/unix"
)

// EpollOps adapts a *epoll.Context into handle.Ops[epoll.Token].
type EpollOps struct {
	Ctx *epoll.Context
}

var _ Ops[epoll.Token] = EpollOps{}

func (o EpollOps) Backend() reactor.Backend { return o.Ctx }

func (o EpollOps) OpenFile(path string, mode reactor.OpenMode, creation reactor.Creation) async.Sender[epoll.Token] {
	return epoll.Open(o.Ctx, path, mode, creation)
}

func (o EpollOps) ReadSome(ref epoll.Token, buf []byte) async.Sender[int] {
	return epoll.ReadSome(o.Ctx, ref, buf)
}

func (o EpollOps) WriteSome(ref epoll.Token, buf []byte) async.Sender[int] {
	return epoll.WriteSome(o.Ctx, ref, buf)
}

func (o EpollOps) ReadAt(ref epoll.Token, buf []byte, offset int64) async.Sender[int] {
	return epoll.ReadAt(o.Ctx, ref, buf, offset)
}

func (o EpollOps) WriteAt(ref epoll.Token, buf []byte, offset int64) async.Sender[int] {
	return epoll.WriteAt(o.Ctx, ref, buf, offset)
}

func (o EpollOps) Close(ref epoll.Token) async.Sender[struct{}] {
	return epoll.Close(o.Ctx, ref)
}

// OpenSocket creates a non-blocking socket matching ep's family/type/
// protocol and registers it in the reactor's descriptor table.
func (o EpollOps) OpenSocket(ep netaddr.Endpoint) (epoll.Token, error) {
	fd, err := unix.Socket(ep.Family(), ep.SocketType()|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, ep.Protocol())
	if err != nil {
		return epoll.InvalidToken, err
	}
	return o.Ctx.RegisterDescriptor(fd), nil
}

func (o EpollOps) Connect(ref epoll.Token, ep netaddr.Endpoint) async.Sender[struct{}] {
	return epoll.Connect(o.Ctx, ref, ep)
}

func (o EpollOps) Bind(ref epoll.Token, ep netaddr.Endpoint) error {
	fd, ok := o.Ctx.NativeHandle(ref)
	if !ok {
		return errStaleToken
	}
	return unix.Bind(fd, ep.Sockaddr())
}

func (o EpollOps) Listen(ref epoll.Token, backlog int) error {
	fd, ok := o.Ctx.NativeHandle(ref)
	if !ok {
		return errStaleToken
	}
	return unix.Listen(fd, backlog)
}

func (o EpollOps) AcceptOnce(ref epoll.Token) async.Sender[epoll.Token] {
	return async.Then(epoll.Accept(o.Ctx, ref), func(r epoll.AcceptResult) epoll.Token {
		return r.Token
	})
}
