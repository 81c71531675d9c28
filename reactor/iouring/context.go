// File: reactor/iouring/context.go
// Author: momentics <momentics@gmail.com>
//
// Context is the io_uring-backed reactor. One ring, one pending-operation
// table keyed by a GC-safe ID instead of a raw pointer in user_data, and
// the same ready-queue-driven drive loop shape reactor/epoll uses.
// Grounded on original_source/source/sio/event_loop/iouring/context.hpp's
// with_submission_queue/drive/dispatch, with the raw syscall plumbing
// grounded on _examples/waftester-waftester/pkg/iouring/iouring_linux.go.
package iouring

import (
	"context"
	"log"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/flowreactor/aio/affinity"
	"github.com/flowreactor/aio/async"
	"github.com/flowreactor/aio/control"
	"github.com/flowreactor/aio/internal/ready"
	"github.com/flowreactor/aio/pool"
	"github.com/flowreactor/aio/reactor"
)

// Context is the io_uring reactor. The zero value is not usable; construct
// with New.
type Context struct {
	ring    *ring
	pending *pendingTable
	readyQ  *ready.Queue

	sqMu sync.Mutex

	stopRequested atomic.Bool
	wakePending   atomic.Bool

	metrics *control.MetricsRegistry
	debug   *control.DebugProbes

	affinityCPU *int

	acceptScratchPool pool.ObjectPool[*acceptScratch]
}

// Option configures a Context at construction time.
type Option func(*Context)

// WithMetrics records ready-queue depth, completions dispatched, and
// fatal reactor errors into mr as the context runs, per SPEC_FULL.md's
// ambient configuration section.
func WithMetrics(mr *control.MetricsRegistry) Option {
	return func(c *Context) { c.metrics = mr }
}

// WithCPUAffinity pins the OS thread that ends up driving this context
// to cpuID, applied lazily the first time Run's sender executes.
func WithCPUAffinity(cpuID int) Option {
	return func(c *Context) { c.affinityCPU = &cpuID }
}

// WithDebugProbes registers this context's ready-queue depth and stop
// state as named probes on dp, plus the platform probes
// control.RegisterPlatformProbes exposes, so dp.DumpState reflects a
// live reactor rather than requiring a caller to poll the context
// directly.
func WithDebugProbes(dp *control.DebugProbes) Option {
	return func(c *Context) {
		c.debug = dp
		dp.RegisterProbe("iouring.ready_queue_len", func() any { return c.readyQ.Len() })
		dp.RegisterProbe("iouring.stop_requested", func() any { return c.StopRequested() })
		control.RegisterPlatformProbes(dp)
	}
}

// New creates an io_uring instance. depth is the submission queue
// depth; pass 0 to use reactor.DefaultIOURingQueueDepth, or override it
// per-call with cfg.IntOr("iouring.queue_depth", ...) before calling New.
func New(depth uint32, opts ...Option) (*Context, error) {
	if depth == 0 {
		depth = reactor.DefaultIOURingQueueDepth
	}
	r, err := setupRing(depth)
	if err != nil {
		return nil, err
	}
	c := &Context{
		ring:    r,
		pending: newPendingTable(),
		readyQ:  ready.New(),
	}
	c.acceptScratchPool = pool.NewSyncPool(func() *acceptScratch {
		return &acceptScratch{addrBuf: make([]byte, maxSockaddrLen), addrLen: make([]byte, 4)}
	})
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close tears down the ring. Not safe to call concurrently with
// Run/RunOne/RunSome.
func (c *Context) Close() error {
	c.ring.close()
	return nil
}

// RequestStop arranges for the currently or next blocking wait to return,
// and for StopRequested to report true from then on.
func (c *Context) RequestStop() {
	c.stopRequested.Store(true)
	c.wake()
}

// StopRequested reports whether RequestStop has been called.
func (c *Context) StopRequested() bool { return c.stopRequested.Load() }

// EnqueueTask schedules fn to run on whatever goroutine next drives this
// context. Satisfies reactor.Backend.
func (c *Context) EnqueueTask(fn func()) {
	c.enqueueRunnable(funcRunnable(fn))
}

func (c *Context) enqueueRunnable(r ready.Runnable) {
	c.readyQ.Push(r)
	c.wake()
}

type funcRunnable func()

func (f funcRunnable) Run() { f() }

// wake ensures a blocked io_uring_enter(GETEVENTS) returns promptly by
// submitting a NOP: posting any CQE to the ring's shared completion queue
// wakes every waiter blocked on that queue, not just the submitter, so a
// NOP submitted from any goroutine wakes the goroutine currently driving
// this context. Coalesced the same way reactor/epoll coalesces eventfd
// writes.
func (c *Context) wake() {
	if !c.wakePending.CompareAndSwap(false, true) {
		return
	}
	op := newCompletionBase(c)
	op.resume = func(int32) { c.wakePending.Store(false) }
	c.submit(op, func(s *sqe) { s.Opcode = opNop })
}

// submit fills a fresh SQE via fill, registers op under a new userData ID,
// and submits it immediately via io_uring_enter. Submission is eager
// (one enter(2) call per operation) rather than batched across a tick;
// batching is a throughput optimization this runtime does not yet make,
// noted in DESIGN.md.
func (c *Context) submit(op *completionBase, fill func(*sqe)) {
	c.sqMu.Lock()
	defer c.sqMu.Unlock()

	tail := *c.ring.sqTail
	idx := tail & c.ring.sqMask
	s := c.ring.sqeAt(idx)
	*s = sqe{}
	fill(s)
	id := c.pending.register(op)
	s.UserData = id
	c.ring.sqArray[idx] = idx
	atomic.StoreUint32(c.ring.sqTail, tail+1)

	_, _ = c.ring.enter(1, 0, 0)
}

// submitCancel issues IORING_OP_ASYNC_CANCEL against id's original SQE.
func (c *Context) submitCancel(id uint64) {
	cancelOp := newCompletionBase(c)
	cancelOp.resume = func(int32) {}
	c.submit(cancelOp, func(s *sqe) {
		s.Opcode = opCancel
		s.Addr = id
	})
}

// RunOne blocks until at least one completion is reaped, returning the
// number of runnables executed.
func (c *Context) RunOne() (int, error) {
	return c.drive(true)
}

// RunSome polls once without blocking.
func (c *Context) RunSome() (int, error) {
	return c.drive(false)
}

// RunUntilEmpty calls RunSome until it returns zero with no error.
func (c *Context) RunUntilEmpty() error {
	for {
		n, err := c.RunSome()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

func (c *Context) drive(block bool) (int, error) {
	executed := c.readyQ.DrainInto(runSafely)

	minComplete := uint32(0)
	if block && executed == 0 {
		minComplete = 1
	}
	if _, err := c.ring.enter(0, minComplete, ioringEnterGetevents); err != nil {
		return executed, err
	}

	head := *c.ring.cqHead
	tail := atomic.LoadUint32(c.ring.cqTail)
	dispatched := 0
	for head != tail {
		entry := c.ring.cqeAt(head & c.ring.cqMask)
		userData, res := entry.UserData, entry.Res
		head++
		if op, ok := c.pending.take(userData); ok {
			c.readyQ.Push(funcRunnable(func() { op.resume(res) }))
			dispatched++
		}
	}
	atomic.StoreUint32(c.ring.cqHead, head)

	executed += c.readyQ.DrainInto(runSafely)
	if c.metrics != nil {
		c.metrics.Incr("iouring.completions_dispatched", dispatched)
		c.metrics.Set("iouring.ready_queue_len", c.readyQ.Len())
	}
	return executed, nil
}

func runSafely(r ready.Runnable) {
	defer func() { _ = recover() }()
	r.Run()
}

// Run returns a sender that drives this context according to mode. It is
// typically raced against the application's own work sender via
// async.WhenAny so the reactor stops as soon as the work completes, or
// the work observes the reactor stopping.
func (c *Context) Run(mode reactor.RunMode) async.Sender[struct{}] {
	return runSender{c: c, mode: mode}
}

type runSender struct {
	c    *Context
	mode reactor.RunMode
}

func (s runSender) Connect(ctx context.Context, r async.Receiver[struct{}]) async.Operation {
	return &runOperation{c: s.c, mode: s.mode, stopCtx: ctx, out: r, detached: make(chan struct{})}
}

// runOperation drives its Context for the duration of Start, watching
// stopCtx concurrently on its own goroutine so a losing
// when_any(work, Run()) race unblocks this side too: RequestStop only
// makes the blocking RunOne call inside Start return, it does not itself
// observe stopCtx again afterwards.
type runOperation struct {
	c       *Context
	mode    reactor.RunMode
	stopCtx context.Context
	out     async.Receiver[struct{}]

	cancelledByStopCtx atomic.Bool
	detachOnce         sync.Once
	detached           chan struct{}
}

func (op *runOperation) Start() {
	go func() {
		select {
		case <-op.stopCtx.Done():
			op.cancelledByStopCtx.Store(true)
			op.c.RequestStop()
		case <-op.detached:
		}
	}()
	defer op.detachOnce.Do(func() { close(op.detached) })

	if op.c.affinityCPU != nil {
		runtime.LockOSThread()
		if err := affinity.SetAffinity(*op.c.affinityCPU); err != nil {
			log.Printf("iouring: set affinity to cpu %d: %v", *op.c.affinityCPU, err)
		}
	}

	var err error
	switch op.mode {
	case reactor.RunUntilDrained:
		err = op.c.RunUntilEmpty()
	default:
		for !op.c.StopRequested() {
			if _, runErr := op.c.RunOne(); runErr != nil {
				err = runErr
				if op.c.metrics != nil {
					op.c.metrics.Incr("iouring.fatal_errors", 1)
				}
				break
			}
		}
	}

	if err != nil {
		op.out.SetError(err)
		return
	}
	if op.cancelledByStopCtx.Load() {
		op.out.SetStopped()
		return
	}
	op.out.SetValue(struct{}{})
}

// interface compile-time check: *Context must satisfy reactor.Backend.
var _ reactor.Backend = (*Context)(nil)
