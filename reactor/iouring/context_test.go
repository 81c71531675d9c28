// File: reactor/iouring/context_test.go
// Author: momentics <momentics@gmail.com>

package iouring

import (
	"context"
	"testing"
	"time"

	"github.com/flowreactor/aio/async"
	"golang.org/x/sys/unix"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	if !Supported() {
		t.Skip("io_uring not available on this kernel")
	}
	ctx, err := New(32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { ctx.Close() })
	return ctx
}

func TestEnqueueTaskRunsOnDrive(t *testing.T) {
	ctx := newTestContext(t)

	ran := make(chan struct{}, 1)
	ctx.EnqueueTask(func() { ran <- struct{}{} })

	n, err := ctx.RunOne()
	if err != nil {
		t.Fatalf("RunOne: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 runnable executed, got %d", n)
	}
	select {
	case <-ran:
	default:
		t.Fatalf("enqueued task did not run")
	}
}

func TestWriteThenReadPipe(t *testing.T) {
	ctx := newTestContext(t)

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe2: %v", err)
	}
	readFD, writeFD := fds[0], fds[1]
	defer unix.Close(readFD)
	defer unix.Close(writeFD)

	type writeOutcome struct {
		n   int
		err error
	}
	type readOutcome struct {
		n   int
		err error
	}
	writeDone := make(chan writeOutcome, 1)
	readDone := make(chan readOutcome, 1)

	go func() {
		n, err, _ := async.SyncWait(context.Background(), WriteSome(ctx, writeFD, []byte("ring")))
		writeDone <- writeOutcome{n, err}
	}()

	buf := make([]byte, 8)
	go func() {
		n, err, _ := async.SyncWait(context.Background(), ReadSome(ctx, readFD, buf))
		readDone <- readOutcome{n, err}
	}()

	var wrote writeOutcome
	var read readOutcome
	haveWrite, haveRead := false, false
	deadline := time.After(5 * time.Second)
	for !haveWrite || !haveRead {
		if _, err := ctx.RunOne(); err != nil {
			t.Fatalf("RunOne: %v", err)
		}
		select {
		case wrote = <-writeDone:
			haveWrite = true
		case read = <-readDone:
			haveRead = true
		case <-deadline:
			t.Fatalf("timed out waiting for write/read completions")
		default:
		}
	}

	if wrote.err != nil {
		t.Fatalf("WriteSome: %v", wrote.err)
	}
	if read.err != nil {
		t.Fatalf("ReadSome: %v", read.err)
	}
	if read.n != 4 || string(buf[:read.n]) != "ring" {
		t.Fatalf("got %q (%d bytes), want %q", buf[:read.n], read.n, "ring")
	}
}
