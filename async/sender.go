// Package async is the minimal lazy-work collaborator the reactor core
// needs: senders, receivers and operations. The full composition algebra
// (then/let_value/when_any/finally/sync_wait) is explicitly out of scope
// per the runtime's specification — it only has to consume the contract.
// This package supplies a Go-idiomatic stand-in narrow enough to drive the
// reactor (context.Context as the stop-token collaborator, explicit error
// returns, no exceptions across the async boundary) without attempting to
// be a general-purpose executor library.
//
// Author: momentics <momentics@gmail.com>
package async

import "context"

// Receiver consumes exactly one terminal outcome of a Sender: a value, an
// error, or a stopped signal. Implementations must not be called more
// than once across the three methods.
type Receiver[T any] interface {
	SetValue(T)
	SetError(error)
	SetStopped()
}

// Operation is a connected, not-yet-started unit of work. Operations are
// not safe to copy or move once Start has been called: fd operations and
// completion bases hold self-referential intrusive links that Start may
// publish to the reactor thread.
type Operation interface {
	Start()
}

// Sender is a lazy description of an asynchronous step. Connect binds it
// to a receiver and a cancellation context, producing an Operation that
// has not yet begun any work.
type Sender[T any] interface {
	Connect(ctx context.Context, r Receiver[T]) Operation
}

// Func adapts a plain function into a Sender: calling the function is the
// entire operation, and it runs synchronously inside Start. Used for
// senders that don't need to suspend (e.g. pure value construction steps
// inside a Let chain).
type Func[T any] func() (T, error)

type funcOperation[T any] struct {
	fn func() (T, error)
	ctx context.Context
	r   Receiver[T]
}

func (f Func[T]) Connect(ctx context.Context, r Receiver[T]) Operation {
	return &funcOperation[T]{fn: f, ctx: ctx, r: r}
}

func (op *funcOperation[T]) Start() {
	select {
	case <-op.ctx.Done():
		op.r.SetStopped()
		return
	default:
	}
	v, err := op.fn()
	if err != nil {
		op.r.SetError(err)
		return
	}
	op.r.SetValue(v)
}

// Just returns a Sender that immediately completes with value v.
func Just[T any](v T) Sender[T] {
	return Func[T](func() (T, error) { return v, nil })
}

// Fail returns a Sender that immediately completes with err.
func Fail[T any](err error) Sender[T] {
	return Func[T](func() (T, error) {
		var zero T
		return zero, err
	})
}
