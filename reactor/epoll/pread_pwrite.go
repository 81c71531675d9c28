// File: reactor/epoll/pread_pwrite.go
// Author: momentics <momentics@gmail.com>
//
// ReadAt/WriteAt: offset-based transfers for seekable files. Like Open,
// these complete synchronously inside Start — pread(2)/pwrite(2) against
// a regular file never returns EAGAIN, so there is nothing for epoll to
// wait on.
package epoll

import (
	"github.com/flowreactor/aio/async"
	"golang.org/x/sys/unix"
)

// ReadAt returns a sender that performs one pread(2) into buf at offset.
func ReadAt(ctx *Context, token Token, buf []byte, offset int64) async.Sender[int] {
	return async.Func[int](func() (int, error) {
		entry, ok := ctx.table.lookup(token)
		if !ok {
			return 0, errStaleToken
		}
		for {
			n, err := unix.Pread(entry.nativeHandle(), buf, offset)
			if err == unix.EINTR {
				continue
			}
			return n, err
		}
	})
}

// WriteAt returns a sender that performs one pwrite(2) of buf at offset.
func WriteAt(ctx *Context, token Token, buf []byte, offset int64) async.Sender[int] {
	return async.Func[int](func() (int, error) {
		entry, ok := ctx.table.lookup(token)
		if !ok {
			return 0, errStaleToken
		}
		for {
			n, err := unix.Pwrite(entry.nativeHandle(), buf, offset)
			if err == unix.EINTR {
				continue
			}
			return n, err
		}
	})
}
