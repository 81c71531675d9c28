// File: async/combinators.go
// Author: momentics <momentics@gmail.com>
//
// then/let_value/finally/when_any/sync_wait equivalents, narrowed to what
// the reactor core actually composes with: a schedule step, a sequence of
// fd operations, and a guaranteed close on every exit path.

package async

import "context"

// Then transforms the value channel of s with f; errors and stop pass
// through unchanged.
func Then[T, U any](s Sender[T], f func(T) U) Sender[U] {
	return &thenSender[T, U]{s: s, f: f}
}

type thenSender[T, U any] struct {
	s Sender[T]
	f func(T) U
}

func (t *thenSender[T, U]) Connect(ctx context.Context, r Receiver[U]) Operation {
	inner := t.s.Connect(ctx, &thenReceiver[T, U]{f: t.f, out: r})
	return inner
}

type thenReceiver[T, U any] struct {
	f   func(T) U
	out Receiver[U]
}

func (r *thenReceiver[T, U]) SetValue(v T)   { r.out.SetValue(r.f(v)) }
func (r *thenReceiver[T, U]) SetError(e error) { r.out.SetError(e) }
func (r *thenReceiver[T, U]) SetStopped()    { r.out.SetStopped() }

// Let sequences two senders: when s completes with a value, f is invoked
// with that value to produce the next sender, which is connected and
// started in turn. Errors and stop from s short-circuit without calling f.
func Let[T, U any](s Sender[T], f func(T) Sender[U]) Sender[U] {
	return &letSender[T, U]{s: s, f: f}
}

type letSender[T, U any] struct {
	s Sender[T]
	f func(T) Sender[U]
}

func (l *letSender[T, U]) Connect(ctx context.Context, r Receiver[U]) Operation {
	return &letOperation[T, U]{sender: l, ctx: ctx, out: r}
}

type letOperation[T, U any] struct {
	sender *letSender[T, U]
	ctx    context.Context
	out    Receiver[U]
	inner  Operation
}

func (op *letOperation[T, U]) Start() {
	op.inner = op.sender.s.Connect(op.ctx, &letReceiver[T, U]{op: op})
	op.inner.Start()
}

type letReceiver[T, U any] struct {
	op *letOperation[T, U]
}

func (r *letReceiver[T, U]) SetValue(v T) {
	next := r.op.sender.f(v)
	nextOp := next.Connect(r.op.ctx, r.op.out)
	nextOp.Start()
}
func (r *letReceiver[T, U]) SetError(e error) { r.op.out.SetError(e) }
func (r *letReceiver[T, U]) SetStopped()      { r.op.out.SetStopped() }

// Finally runs cleanup (a Sender[struct{}], typically a close operation)
// after s reaches any terminal outcome, then forwards s's original
// outcome to the caller's receiver regardless of what cleanup produces.
// This is the only correct ordering for descriptor release: the resource
// is released on every exit path, value, error, or stopped.
func Finally[T any](s Sender[T], cleanup Sender[struct{}]) Sender[T] {
	return &finallySender[T]{s: s, cleanup: cleanup}
}

type finallySender[T any] struct {
	s       Sender[T]
	cleanup Sender[struct{}]
}

func (f *finallySender[T]) Connect(ctx context.Context, r Receiver[T]) Operation {
	return &finallyOperation[T]{s: f, ctx: ctx, out: r}
}

type finallyOperation[T any] struct {
	s   *finallySender[T]
	ctx context.Context
	out Receiver[T]
}

func (op *finallyOperation[T]) Start() {
	inner := op.s.s.Connect(op.ctx, &finallyReceiver[T]{op: op})
	inner.Start()
}

type finallyReceiver[T any] struct {
	op *finallyOperation[T]
}

func (r *finallyReceiver[T]) runCleanupThen(forward func()) {
	cleanupOp := r.op.s.cleanup.Connect(context.Background(), cleanupReceiver{done: forward})
	cleanupOp.Start()
}

func (r *finallyReceiver[T]) SetValue(v T) {
	r.runCleanupThen(func() { r.op.out.SetValue(v) })
}
func (r *finallyReceiver[T]) SetError(e error) {
	r.runCleanupThen(func() { r.op.out.SetError(e) })
}
func (r *finallyReceiver[T]) SetStopped() {
	r.runCleanupThen(func() { r.op.out.SetStopped() })
}

type cleanupReceiver struct {
	done func()
}

func (c cleanupReceiver) SetValue(struct{}) { c.done() }
func (c cleanupReceiver) SetError(error)    { c.done() }
func (c cleanupReceiver) SetStopped()       { c.done() }

// DiscardValue adapts a Sender[T] into a Sender[struct{}] that reports
// the same error/stopped outcome but discards a successful value. Used to
// unify the work sender's type with the reactor's Run sender before
// composing them with WhenAny.
func DiscardValue[T any](s Sender[T]) Sender[struct{}] {
	return Then(s, func(T) struct{} { return struct{}{} })
}

// WhenAny races a set of Sender[struct{}] against each other: the first
// to reach a terminal outcome determines the result, and every other
// sender's context is cancelled. This realizes the canonical
// sync_wait(when_any(work, loop.run())) idiom used to drive the reactor
// concurrently with the work it serves.
func WhenAny(senders ...Sender[struct{}]) Sender[struct{}] {
	return &whenAnySender{senders: senders}
}

type whenAnySender struct {
	senders []Sender[struct{}]
}

func (w *whenAnySender) Connect(ctx context.Context, r Receiver[struct{}]) Operation {
	return &whenAnyOperation{w: w, parentCtx: ctx, out: r}
}

type whenAnyOperation struct {
	w         *whenAnySender
	parentCtx context.Context
	out       Receiver[struct{}]
}

type whenAnyOutcome struct {
	err     error
	stopped bool
}

func (op *whenAnyOperation) Start() {
	ctx, cancel := context.WithCancel(op.parentCtx)
	done := make(chan struct{}, len(op.w.senders))
	results := make(chan whenAnyOutcome, len(op.w.senders))

	for _, s := range op.w.senders {
		s := s
		recv := &whenAnyReceiver{results: results}
		o := s.Connect(ctx, recv)
		go func() {
			o.Start()
			done <- struct{}{}
		}()
	}

	go func() {
		first := <-results
		cancel()
		// Wait until all but one of the Start calls have returned before
		// reporting. This does not wait for the other senders' terminal
		// outcomes: those that complete later land in the buffered
		// results channel and are discarded.
		for i := 1; i < len(op.w.senders); i++ {
			<-done
		}
		switch {
		case first.err != nil:
			op.out.SetError(first.err)
		case first.stopped:
			op.out.SetStopped()
		default:
			op.out.SetValue(struct{}{})
		}
	}()
}

type whenAnyReceiver struct {
	results chan whenAnyOutcome
}

func (r *whenAnyReceiver) SetValue(struct{}) {
	r.results <- whenAnyOutcome{}
}
func (r *whenAnyReceiver) SetError(e error) {
	r.results <- whenAnyOutcome{err: e}
}
func (r *whenAnyReceiver) SetStopped() {
	r.results <- whenAnyOutcome{stopped: true}
}

// SyncWait connects s to a blocking receiver and runs it to completion on
// the calling goroutine's behalf, returning its terminal outcome.
// stopped is true iff the sender completed via SetStopped.
func SyncWait[T any](ctx context.Context, s Sender[T]) (value T, err error, stopped bool) {
	done := make(chan struct{})
	recv := &syncWaitReceiver[T]{done: done}
	op := s.Connect(ctx, recv)
	op.Start()
	<-done
	return recv.value, recv.err, recv.stopped
}

type syncWaitReceiver[T any] struct {
	done    chan struct{}
	value   T
	err     error
	stopped bool
}

func (r *syncWaitReceiver[T]) SetValue(v T) { r.value = v; close(r.done) }
func (r *syncWaitReceiver[T]) SetError(e error) { r.err = e; close(r.done) }
func (r *syncWaitReceiver[T]) SetStopped()  { r.stopped = true; close(r.done) }
