// File: reactor/epoll/context_test.go
// Author: momentics <momentics@gmail.com>

package epoll

import (
	"context"
	"testing"
	"time"

	"github.com/flowreactor/aio/async"
	"golang.org/x/sys/unix"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	ctx, err := New()
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

func TestRunUntilEmptyDrainsAllQueuedWork(t *testing.T) {
	ctx := newTestContext(t)

	const n = 5
	count := 0
	for i := 0; i < n; i++ {
		ctx.EnqueueTask(func() { count++ })
	}
	if err := ctx.RunUntilEmpty(); err != nil {
		t.Fatalf("RunUntilEmpty: %v", err)
	}
	if count != n {
		t.Fatalf("expected %d tasks run, got %d", n, count)
	}
}

func TestReadSomeOverPipe(t *testing.T) {
	ctx := newTestContext(t)

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe2: %v", err)
	}
	readFD, writeFD := fds[0], fds[1]
	defer unix.Close(writeFD)

	_, readTok := ctx.registerDescriptor(readFD)

	if _, err := unix.Write(writeFD, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	buf := make([]byte, 16)
	value, err, stopped := async.SyncWait(context.Background(), ReadSome(ctx, readTok, buf))
	_ = drainOnce(ctx)
	if stopped {
		t.Fatalf("unexpected stopped outcome")
	}
	if err != nil {
		t.Fatalf("ReadSome: %v", err)
	}
	if value != 5 || string(buf[:value]) != "hello" {
		t.Fatalf("got %q (%d bytes), want %q", buf[:value], value, "hello")
	}
}

// drainOnce runs any ready work already queued without blocking, used by
// tests whose sender completes synchronously inside Start (no wait needed).
func drainOnce(ctx *Context) error {
	return ctx.RunUntilEmpty()
}

func TestReadSomeParksUntilWritable(t *testing.T) {
	ctx := newTestContext(t)

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe2: %v", err)
	}
	readFD, writeFD := fds[0], fds[1]

	_, readTok := ctx.registerDescriptor(readFD)

	buf := make([]byte, 16)
	type outcome struct {
		n   int
		err error
	}
	results := make(chan outcome, 1)
	go func() {
		n, err, _ := async.SyncWait(context.Background(), ReadSome(ctx, readTok, buf))
		results <- outcome{n, err}
	}()

	// Give the reader a moment to park on EAGAIN before we write.
	time.Sleep(20 * time.Millisecond)
	if _, err := unix.Write(writeFD, []byte("later")); err != nil {
		t.Fatalf("write: %v", err)
	}
	unix.Close(writeFD)

	deadline := time.After(2 * time.Second)
	for {
		if _, err := ctx.RunOne(); err != nil {
			t.Fatalf("RunOne: %v", err)
		}
		select {
		case got := <-results:
			if got.err != nil {
				t.Fatalf("ReadSome: %v", got.err)
			}
			if got.n != 5 || string(buf[:got.n]) != "later" {
				t.Fatalf("got %q (%d bytes), want %q", buf[:got.n], got.n, "later")
			}
			return
		case <-deadline:
			t.Fatalf("timed out waiting for parked read to complete")
		default:
		}
	}
}

func TestReleaseDescriptorCompletesParkedReadWithBadFD(t *testing.T) {
	ctx := newTestContext(t)

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe2: %v", err)
	}
	readFD, writeFD := fds[0], fds[1]
	defer unix.Close(writeFD)

	_, readTok := ctx.registerDescriptor(readFD)

	buf := make([]byte, 16)
	type outcome struct {
		n   int
		err error
	}
	results := make(chan outcome, 1)
	go func() {
		n, err, _ := async.SyncWait(context.Background(), ReadSome(ctx, readTok, buf))
		results <- outcome{n, err}
	}()

	// Give the reader a moment to park on EAGAIN before releasing its fd
	// out from under it.
	time.Sleep(20 * time.Millisecond)
	ctx.releaseDescriptor(readTok)
	unix.Close(readFD)

	deadline := time.After(2 * time.Second)
	for {
		if _, err := ctx.RunOne(); err != nil {
			t.Fatalf("RunOne: %v", err)
		}
		select {
		case got := <-results:
			if got.err != unix.EBADF {
				t.Fatalf("expected bad_file_descriptor, got %v", got.err)
			}
			return
		case <-deadline:
			t.Fatalf("parked read hung instead of completing on release")
		default:
		}
	}
}

func TestReleaseDescriptorInvalidatesToken(t *testing.T) {
	ctx := newTestContext(t)

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe2: %v", err)
	}
	defer unix.Close(fds[1])

	_, tok := ctx.registerDescriptor(fds[0])
	ctx.releaseDescriptor(tok)

	if _, ok := ctx.table.lookup(tok); ok {
		t.Fatalf("expected released token to be stale")
	}
}
