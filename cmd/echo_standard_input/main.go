// Author: momentics <momentics@gmail.com>

// echo_standard_input registers the process's stdin and stdout with an
// epoll reactor and echoes every byte read back out, demonstrating
// read_some/write_some driven entirely through the reactor rather than
// blocking os.Stdin/os.Stdout calls.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/flowreactor/aio/async"
	"github.com/flowreactor/aio/pool"
	"github.com/flowreactor/aio/reactor/epoll"
	"golang.org/x/sys/unix"
)

func main() {
	ctx, err := epoll.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "echo_standard_input: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	if err := unix.SetNonblock(int(os.Stdin.Fd()), true); err != nil {
		fmt.Fprintf(os.Stderr, "echo_standard_input: %v\n", err)
		os.Exit(1)
	}
	if err := unix.SetNonblock(int(os.Stdout.Fd()), true); err != nil {
		fmt.Fprintf(os.Stderr, "echo_standard_input: %v\n", err)
		os.Exit(1)
	}
	in := ctx.RegisterDescriptor(int(os.Stdin.Fd()))
	out := ctx.RegisterDescriptor(int(os.Stdout.Fd()))
	defer ctx.ReleaseDescriptor(in)
	defer ctx.ReleaseDescriptor(out)

	bg := context.Background()
	bufPool := pool.NewBytePool(4096, -1, false)
	buf := bufPool.Get()
	defer bufPool.Put(buf)

	done := make(chan error, 1)
	go func() {
		for {
			n, err, _ := async.SyncWait(bg, epoll.ReadSome(ctx, in, buf))
			if err != nil {
				done <- err
				return
			}
			if n == 0 {
				done <- nil
				return
			}
			written := 0
			for written < n {
				wn, err, _ := async.SyncWait(bg, epoll.WriteSome(ctx, out, buf[written:n]))
				if err != nil {
					done <- err
					return
				}
				written += wn
			}
		}
	}()

	for {
		select {
		case err := <-done:
			if err != nil {
				fmt.Fprintf(os.Stderr, "echo_standard_input: %v\n", err)
				os.Exit(1)
			}
			return
		default:
			if _, err := ctx.RunOne(); err != nil {
				fmt.Fprintf(os.Stderr, "echo_standard_input: %v\n", err)
				os.Exit(1)
			}
		}
	}
}
