// File: reactor/epoll/context.go
// Author: momentics <momentics@gmail.com>
//
// Context is the epoll-backed reactor: one epoll instance, one eventfd used
// to wake a blocked epoll_wait from another goroutine, a descriptor table,
// and the ready queue shared with all other reactor-originated work.
// Grounded on original_source/source/sio/event_loop/epoll/context.hpp's
// context::run_one/run_some/run_until_empty/drive/dispatch_event, adapted
// from the teacher's internal/concurrency/poller_linux.go's EpollCreate1 /
// EpollCtl / EpollWait calling convention but moved onto golang.org/x/sys/unix
// per this runtime's domain stack and augmented with the wait-queue/token
// machinery the teacher's poller does not have.
package epoll

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/flowreactor/aio/affinity"
	"github.com/flowreactor/aio/async"
	"github.com/flowreactor/aio/control"
	"github.com/flowreactor/aio/internal/ready"
	"github.com/flowreactor/aio/reactor"
	"golang.org/x/sys/unix"
)

const maxEventsPerWait = 256

// Context is the epoll reactor. The zero value is not usable; construct
// with New.
type Context struct {
	epfd   int
	wakeFd int

	table *descriptorTable
	ready *ready.Queue

	stopRequested atomic.Bool
	wakePending   atomic.Bool

	events [maxEventsPerWait]unix.EpollEvent

	metrics *control.MetricsRegistry
	debug   *control.DebugProbes

	affinityCPU *int
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
// (the goroutine that runs the Run sender) to cpuID, keeping the
// epoll/ready-queue working set warm in that core's cache. The pin is
// applied lazily, the first time Run's sender actually executes.
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
		dp.RegisterProbe("epoll.ready_queue_len", func() any { return c.ready.Len() })
		dp.RegisterProbe("epoll.stop_requested", func() any { return c.StopRequested() })
		control.RegisterPlatformProbes(dp)
	}
}

// New creates an epoll instance and its wake eventfd.
func New(opts ...Option) (*Context, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll: create: %w", err)
	}
	wfd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll: eventfd: %w", err)
	}
	ctx := &Context{
		epfd:   epfd,
		wakeFd: wfd,
		table:  newDescriptorTable(),
		ready:  ready.New(),
	}
	for _, opt := range opts {
		opt(ctx)
	}
	// The wake registration's event data carries the reserved slot
	// sentinel rather than the real wake fd, so it can never collide
	// with a genuine descriptor slot number (which starts at 0 and is
	// handed out densely).
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: -1}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wfd, &ev); err != nil {
		unix.Close(wfd)
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll: register wake fd: %w", err)
	}
	return ctx, nil
}

// Close releases the epoll and eventfd descriptors. Not safe to call
// concurrently with Run/RunOne/RunSome.
func (c *Context) Close() error {
	unix.Close(c.wakeFd)
	return unix.Close(c.epfd)
}

// RequestStop arranges for the currently or next blocking wait to return,
// and for StopRequested to report true from then on. Safe from any
// goroutine, idempotent.
func (c *Context) RequestStop() {
	c.stopRequested.Store(true)
	c.wake()
}

// StopRequested reports whether RequestStop has been called.
func (c *Context) StopRequested() bool { return c.stopRequested.Load() }

// wake writes to the eventfd if no wake is already pending, so a blocked
// epoll_wait returns promptly. Coalesced: concurrent wakers only pay for
// one write(2) between wakeups actually observed by drive.
func (c *Context) wake() {
	if !c.wakePending.CompareAndSwap(false, true) {
		return
	}
	var buf [8]byte
	buf[7] = 1
	_, _ = unix.Write(c.wakeFd, buf[:])
}

func (c *Context) drainWake() {
	var buf [8]byte
	for {
		_, err := unix.Read(c.wakeFd, buf[:])
		if err == nil || err != unix.EINTR {
			break
		}
	}
	c.wakePending.Store(false)
}

// EnqueueTask schedules fn to run on whatever goroutine next drives this
// context. Satisfies reactor.Backend.
func (c *Context) EnqueueTask(fn func()) {
	c.enqueueRunnable(funcRunnable(fn))
}

// enqueueRunnable is the lower-level entry point fd operations use to
// reschedule themselves without allocating a closure per resumption.
func (c *Context) enqueueRunnable(r ready.Runnable) {
	c.ready.Push(r)
	c.wake()
}

type funcRunnable func()

func (f funcRunnable) Run() { f() }

// registerDescriptor allocates a descriptor table slot for fd, returning
// the entry and the token naming it. The fd is not yet added to epoll;
// that happens lazily the first time an operation calls updateInterest
// with a non-zero mask.
func (c *Context) registerDescriptor(fd int) (*descriptorEntry, Token) {
	return c.table.allocate(c, fd)
}

// RegisterDescriptor is the public entry point package handle uses to
// adopt an fd it created itself (e.g. a freshly socket(2)'d descriptor)
// into this context's descriptor table.
func (c *Context) RegisterDescriptor(fd int) Token {
	_, tok := c.registerDescriptor(fd)
	return tok
}

// NativeHandle resolves tok to the underlying OS file descriptor, for
// callers (package handle) that need to issue a syscall this package has
// no sender for, such as bind(2)/listen(2).
func (c *Context) NativeHandle(tok Token) (int, bool) {
	e, ok := c.table.lookup(tok)
	if !ok {
		return -1, false
	}
	return e.nativeHandle(), true
}

// ReleaseDescriptor is the public entry point for closing a handle's
// descriptor table slot without going through a Close sender, used by
// package handle's constructors on setup failure.
func (c *Context) ReleaseDescriptor(tok Token) {
	c.releaseDescriptor(tok)
}

// releaseDescriptor removes fd from epoll if it was registered there and
// returns the slot to the free list, bumping its epoch.
func (c *Context) releaseDescriptor(tok Token) {
	if e, ok := c.table.lookup(tok); ok && e.registered {
		_ = unix.EpollCtl(c.epfd, unix.EPOLL_CTL_DEL, e.nativeHandle(), nil)
	}
	c.table.release(tok)
}

// updateInterest issues EPOLL_CTL_ADD/MOD/DEL to keep the kernel's
// interest set for e in sync with mask, the union of every waiter's
// current interest on e.
func (c *Context) updateInterest(e *descriptorEntry, mask uint32) {
	if mask == 0 {
		if e.registered {
			_ = unix.EpollCtl(c.epfd, unix.EPOLL_CTL_DEL, e.nativeHandle(), nil)
			e.registered = false
		}
		e.interestMask = 0
		return
	}
	ev := unix.EpollEvent{Events: mask, Fd: int32(e.slot)}
	if !e.registered {
		if err := unix.EpollCtl(c.epfd, unix.EPOLL_CTL_ADD, e.nativeHandle(), &ev); err == nil {
			e.registered = true
			e.interestMask = mask
		}
		return
	}
	if mask != e.interestMask {
		if err := unix.EpollCtl(c.epfd, unix.EPOLL_CTL_MOD, e.nativeHandle(), &ev); err == nil {
			e.interestMask = mask
		}
	}
}

// RunOne blocks until at least one runnable executes or at least one OS
// event is dispatched, returning the number of runnables executed.
func (c *Context) RunOne() (int, error) {
	return c.drive(true)
}

// RunSome polls once without blocking, returning the number of runnables
// executed.
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

// drive runs the ready queue once, then waits (blocking if block is true
// and the queue was empty) for OS events, dispatching any into the ready
// queue, then drains the ready queue again so newly-woken operations run
// without waiting for the next call.
func (c *Context) drive(block bool) (int, error) {
	executed := c.ready.DrainInto(runSafely)

	timeout := 0
	if block && executed == 0 {
		timeout = -1
	}

	n, err := epollWaitRetry(c.epfd, c.events[:], timeout)
	if err != nil {
		return executed, err
	}
	dispatched := 0
	for i := 0; i < n; i++ {
		ev := c.events[i]
		if uint32(ev.Fd) == invalidSlot {
			c.drainWake()
			continue
		}
		c.dispatchEvent(uint32(ev.Fd), ev.Events)
		dispatched++
	}
	executed += c.ready.DrainInto(runSafely)
	if c.metrics != nil {
		c.metrics.Incr("epoll.completions_dispatched", dispatched)
		c.metrics.Set("epoll.ready_queue_len", c.ready.Len())
	}
	return executed, nil
}

// dispatchEvent resolves slot to its descriptorEntry and hands it the
// observed events. The epoch is not checked here deliberately: events
// carry only the slot (stored as Fd in the registration), and a slot
// whose epoch changed between registration and this wakeup has, by
// construction, already had EPOLL_CTL_DEL issued against its old fd in
// releaseDescriptor, so no stale event can arrive for a recycled slot.
func (c *Context) dispatchEvent(slot uint32, events uint32) {
	c.table.mu.RLock()
	if int(slot) >= len(c.table.entries) {
		c.table.mu.RUnlock()
		return
	}
	e := c.table.entries[slot]
	c.table.mu.RUnlock()
	e.handleEvents(events)
}

func runSafely(r ready.Runnable) {
	defer func() { _ = recover() }()
	r.Run()
}

func epollWaitRetry(epfd int, events []unix.EpollEvent, timeoutMs int) (int, error) {
	for {
		n, err := unix.EpollWait(epfd, events, timeoutMs)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
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
// stopCtx concurrently on its own goroutine the same way fdOperationBase
// watches a per-fd stop context: RequestStop only makes the blocking
// RunOne call inside Start return, it does not itself observe stopCtx
// again afterwards, so without this watcher a losing when_any(work,
// Run()) race would never unblock.
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
			log.Printf("epoll: set affinity to cpu %d: %v", *op.c.affinityCPU, err)
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
					op.c.metrics.Incr("epoll.fatal_errors", 1)
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

// interface compile-time check: *Context must satisfy reactor.Backend so
// the handle package can be written once over either reactor backend.
var _ reactor.Backend = (*Context)(nil)
