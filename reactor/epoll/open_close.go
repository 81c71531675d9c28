// File: reactor/epoll/open_close.go
// Author: momentics <momentics@gmail.com>
//
// Open and Close senders. Opening a regular file never returns EAGAIN, so
// unlike read/write/connect/accept these complete synchronously inside
// Start — grounded on original_source's epoll open operation, which does
// the same: openat(2) does not participate in epoll readiness at all.
package epoll

import (
	"github.com/flowreactor/aio/async"
	"github.com/flowreactor/aio/reactor"
	"golang.org/x/sys/unix"
)

// Open returns a sender that opens path with the given flags/mode and
// registers the resulting fd in ctx's descriptor table, yielding its
// Token.
func Open(ctx *Context, path string, mode reactor.OpenMode, creation reactor.Creation) async.Sender[Token] {
	return async.Func[Token](func() (Token, error) {
		flags := reactor.OpenFlags(mode, creation)
		fd, err := unix.Open(path, flags, reactor.CreateFileMode)
		if err != nil {
			return InvalidToken, err
		}
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fd)
			return InvalidToken, err
		}
		_, tok := ctx.registerDescriptor(fd)
		return tok, nil
	})
}

// Close returns a sender that closes the fd named by token and releases
// its descriptor table slot, regardless of whether close(2) succeeds.
func Close(ctx *Context, token Token) async.Sender[struct{}] {
	return async.Func[struct{}](func() (struct{}, error) {
		entry, ok := ctx.table.lookup(token)
		if !ok {
			return struct{}{}, errStaleToken
		}
		fd := entry.nativeHandle()
		ctx.releaseDescriptor(token)
		if err := unix.Close(fd); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
}
