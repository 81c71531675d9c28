// File: reactor/iouring/completion_base.go
// Author: momentics <momentics@gmail.com>
//
// completionBase is the state every io_uring-bound operation embeds. It
// is addressed by an opaque userData ID rather than by passing a pointer
// through the kernel's user_data field directly: Go's garbage collector
// may move or (if nothing else references it) collect an object between
// submission and completion, so this runtime keeps the operation alive
// and reachable through pendingTable, addressed by ID, exactly the way
// reactor/epoll addresses a descriptorEntry by slot rather than by raw
// pointer. Cancellation mirrors reactor/epoll's watcher-goroutine
// approach, but requests cancellation by submitting IORING_OP_ASYNC_CANCEL
// against the operation's userData rather than unlinking it from a wait
// queue, since io_uring ops have no equivalent of an epoll wait queue to
// remove themselves from.
package iouring

import (
	"context"
	"sync"
	"sync/atomic"
)

type completionBase struct {
	ctx      *Context
	id       uint64
	cancelled atomic.Bool

	resume func(res int32)

	detachOnce sync.Once
	detached   chan struct{}
}

func newCompletionBase(ctx *Context) *completionBase {
	return &completionBase{ctx: ctx, detached: make(chan struct{})}
}

// watchStop starts a goroutine that submits IORING_OP_ASYNC_CANCEL against
// op's userData if stopCtx is done before op detaches.
func (op *completionBase) watchStop(stopCtx context.Context) {
	go func() {
		select {
		case <-stopCtx.Done():
			op.cancelled.Store(true)
			op.ctx.submitCancel(op.id)
		case <-op.detached:
		}
	}()
}

func (op *completionBase) Cancelled() bool { return op.cancelled.Load() }

func (op *completionBase) detach() {
	op.detachOnce.Do(func() { close(op.detached) })
}

// pendingTable maps an in-flight operation's userData ID to its
// completionBase so the CQE reaper in context.go can resolve a CQE back
// to the Go-level operation waiting on it.
type pendingTable struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[uint64]*completionBase
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[uint64]*completionBase)}
}

// register allocates a fresh ID for op and remembers it, returning the ID
// to place in the SQE's userData field.
func (t *pendingTable) register(op *completionBase) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	op.id = id
	t.entries[id] = op
	return id
}

// take removes and returns the operation registered under id, if any.
func (t *pendingTable) take(id uint64) (*completionBase, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	op, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	return op, ok
}
