// Package reactor defines the backend-agnostic contract both the epoll
// and io_uring reactor implementations satisfy, so that the handle layer
// (file, seekable file, socket, acceptor) can be written once and bound
// to either backend at construction time.
//
// Author: momentics <momentics@gmail.com>
package reactor

import (
	"context"

	"github.com/flowreactor/aio/async"
)

// RunMode selects when the run sender returned by a backend's Run method
// completes.
type RunMode int

const (
	// RunUntilStopped completes when the context's RequestStop is called.
	RunUntilStopped RunMode = iota
	// RunUntilDrained completes as soon as a non-blocking poll finds no
	// ready work and no pending OS events.
	RunUntilDrained
)

// Backend is the compile-time contract a reactor context must satisfy so
// that handles in package handle can be written generically over either
// implementation. Both *epoll.Context and *iouring.Context satisfy it.
type Backend interface {
	// RequestStop sets the stop flag and wakes the reactor. Idempotent,
	// safe from any goroutine.
	RequestStop()
	// StopRequested reports whether RequestStop has been called.
	StopRequested() bool
	// RunOne blocks until at least one runnable has executed or at
	// least one OS event has been dispatched, returning the count.
	RunOne() (int, error)
	// RunSome polls once without blocking, returning the count.
	RunSome() (int, error)
	// RunUntilEmpty calls RunSome repeatedly until it returns 0.
	RunUntilEmpty() error
	// Run returns a sender that drives the reactor according to mode.
	Run(mode RunMode) async.Sender[struct{}]
	// EnqueueTask schedules fn to run on the reactor's goroutine. Safe
	// from any goroutine.
	EnqueueTask(fn func())
}

// contextKey is unexported to keep reactor.WithBackend's key private to
// this package, matching the convention for context value keys.
type contextKey struct{}

// WithBackend attaches a Backend to ctx so nested senders can recover the
// reactor they were connected against without threading it through every
// combinator by hand.
func WithBackend(ctx context.Context, b Backend) context.Context {
	return context.WithValue(ctx, contextKey{}, b)
}

// BackendFromContext recovers the Backend attached by WithBackend, if any.
func BackendFromContext(ctx context.Context) (Backend, bool) {
	b, ok := ctx.Value(contextKey{}).(Backend)
	return b, ok
}
