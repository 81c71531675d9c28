// File: reactor/epoll/op_base.go
// Author: momentics <momentics@gmail.com>
//
// fdOperationBase is the state every fd-bound operation (read, write,
// connect, accept, ...) embeds: a slot/epoch token into the descriptor
// table, the wait-queue linkage descriptor_entry threads it through, and
// a stop-token watcher standing in for the stop_callback the original
// registers directly on its stop_token. Go's context.Context exposes no
// callback-registration hook, only a Done() channel, so cancellation here
// is a small watcher goroutine instead of an intrusive callback node.
package epoll

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/flowreactor/aio/internal/intrusive"
)

// fdOperationBase is embedded by every concrete fd operation. Concrete
// operations set resume to their own step function before calling start,
// and call watchStop once they have a cancellation context.
type fdOperationBase struct {
	ctx   *Context
	entry *descriptorEntry
	token Token

	links intrusive.Links[*fdOperationBase]

	waiting         bool
	waitingInterest Interest

	cancelled atomic.Bool
	closed    atomic.Bool

	resume func()

	detachOnce sync.Once
	detached   chan struct{}
}

func newFdOperationBase(ctx *Context, entry *descriptorEntry, token Token) *fdOperationBase {
	return &fdOperationBase{
		ctx:      ctx,
		entry:    entry,
		token:    token,
		detached: make(chan struct{}),
	}
}

// Links satisfies intrusive.Linked so *fdOperationBase can be used as the
// element type of descriptor_entry's wait queues.
func (op *fdOperationBase) Links() *intrusive.Links[*fdOperationBase] { return &op.links }

// Run satisfies ready.Runnable: the reactor loop dequeues op and invokes
// whatever step function the concrete operation currently has installed.
func (op *fdOperationBase) Run() { op.resume() }

// watchStop starts a goroutine that cancels op if stopCtx is done before
// op detaches. If op is currently parked in a descriptor_entry wait queue
// when cancellation observes it, the watcher removes it and force-enqueues
// a resume so it is not left waiting for an event that may never arrive.
// If op is presently running inline (e.g. mid syscall-retry loop), no
// forced resume is injected — the loop is expected to check Cancelled
// between syscalls and finish on its own.
func (op *fdOperationBase) watchStop(stopCtx context.Context) {
	go func() {
		select {
		case <-stopCtx.Done():
			op.cancelled.Store(true)
			if op.entry.removeWaiter(op) {
				op.ctx.enqueueRunnable(op)
			}
		case <-op.detached:
		}
	}()
}

// Cancelled reports whether the operation's stop context has fired.
func (op *fdOperationBase) Cancelled() bool { return op.cancelled.Load() }

// MarkClosed marks op as having had its descriptor torn down by a
// release_entry while it was parked. Set by descriptorEntry.closeWaiters,
// never by op itself. Concrete operations check Closed before Cancelled
// in their resume step so a close-while-parked always completes with
// bad_file_descriptor rather than being mistaken for an ordinary
// stop-requested cancellation.
func (op *fdOperationBase) MarkClosed() { op.closed.Store(true) }

// Closed reports whether MarkClosed has been called.
func (op *fdOperationBase) Closed() bool { return op.closed.Load() }

// detach stops op's stop watcher, if any, and must be called exactly once
// before op delivers any terminal outcome to its receiver, whether or not
// watchStop was ever called.
func (op *fdOperationBase) detach() {
	op.detachOnce.Do(func() { close(op.detached) })
}
