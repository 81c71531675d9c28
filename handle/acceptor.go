// File: handle/acceptor.go
// Author: momentics <momentics@gmail.com>
//
// Acceptor is a factory bound to a reactor and a listening endpoint. It
// exposes AcceptOnce (a single accept sender, per spec.md §4.7) and the
// supplemented AcceptLoop convenience helper built from repeated
// AcceptOnce calls, matching the teacher's transport/tcp.StartTCPListener
// accept-loop idiom adapted to this handle model.
package handle

import (
	"context"
	"log"

	"github.com/flowreactor/aio/async"
	"github.com/flowreactor/aio/netaddr"
	"github.com/flowreactor/aio/reactor"
)

// Acceptor is a factory bound to a reactor and the endpoint it will
// bind and listen on.
type Acceptor[Ref any] struct {
	Ops      Ops[Ref]
	Endpoint netaddr.Endpoint
	Backlog  int
}

// Open creates the listening socket, then binds and listens on it with
// the fixed backlog spec.md §6 carries forward (reactor.ListenBacklog)
// unless a.Backlog overrides it.
func (a Acceptor[Ref]) Open() async.Sender[*AcceptorHandle[Ref]] {
	return async.Func[*AcceptorHandle[Ref]](func() (*AcceptorHandle[Ref], error) {
		ref, err := a.Ops.OpenSocket(a.Endpoint)
		if err != nil {
			return nil, err
		}
		if err := a.Ops.Bind(ref, a.Endpoint); err != nil {
			a.Ops.Close(ref).Connect(context.Background(), discardReceiver[struct{}]{}).Start()
			return nil, err
		}
		backlog := a.Backlog
		if backlog == 0 {
			backlog = reactor.ListenBacklog
		}
		if err := a.Ops.Listen(ref, backlog); err != nil {
			a.Ops.Close(ref).Connect(context.Background(), discardReceiver[struct{}]{}).Start()
			return nil, err
		}
		return &AcceptorHandle[Ref]{ops: a.Ops, ref: ref}, nil
	})
}

// AcceptorHandle is a view on a listening socket descriptor.
type AcceptorHandle[Ref any] struct {
	ops Ops[Ref]
	ref Ref
}

func (h *AcceptorHandle[Ref]) Ref() Ref { return h.ref }

func (h *AcceptorHandle[Ref]) Close() async.Sender[struct{}] { return h.ops.Close(h.ref) }

// AcceptOnce returns a sender that accepts a single connection, yielding
// the new connection's backend-native reference.
func (h *AcceptorHandle[Ref]) AcceptOnce() async.Sender[Ref] { return h.ops.AcceptOnce(h.ref) }

// AcceptLoop repeatedly accepts connections until ctx is done or an
// AcceptOnce errors, invoking onAccept for each accepted connection on
// the calling goroutine, which blocks in SyncWait for each accept (so
// another goroutine has to drive the reactor). A callback panic is
// recovered and logged rather than allowed to end the loop, matching the
// teacher's accept-loop panic boundary.
func (h *AcceptorHandle[Ref]) AcceptLoop(ctx context.Context, onAccept func(Ref)) error {
	for {
		ref, err, stopped := async.SyncWait(ctx, h.AcceptOnce())
		if stopped {
			return nil
		}
		if err != nil {
			return err
		}
		func() {
			defer func() {
				if p := recover(); p != nil {
					log.Printf("handle: accept callback panicked: %v", p)
				}
			}()
			onAccept(ref)
		}()
	}
}

type discardReceiver[T any] struct{}

func (discardReceiver[T]) SetValue(T)      {}
func (discardReceiver[T]) SetError(error)  {}
func (discardReceiver[T]) SetStopped()     {}
