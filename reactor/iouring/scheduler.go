// File: reactor/iouring/scheduler.go
// Author: momentics <momentics@gmail.com>
//
// Scheduler + Schedule sender, mirroring reactor/epoll's: a sender that
// completes on ctx's own driving goroutine via a ready-queue hop. The
// closure itself is not an SQE; the only kernel round trip is the wake
// NOP that EnqueueTask submits when no wake is already pending.
package iouring

import (
	"context"

	"github.com/flowreactor/aio/async"
)

// Scheduler identifies this Context as a place work can be scheduled onto.
type Scheduler struct {
	ctx *Context
}

// NewScheduler returns the Scheduler for ctx.
func NewScheduler(ctx *Context) Scheduler { return Scheduler{ctx: ctx} }

// Schedule returns a sender that completes on ctx's reactor goroutine.
func (s Scheduler) Schedule() async.Sender[struct{}] {
	return &scheduleSender{ctx: s.ctx}
}

type scheduleSender struct {
	ctx *Context
}

func (s *scheduleSender) Connect(stopCtx context.Context, r async.Receiver[struct{}]) async.Operation {
	return &scheduleOperation{ctx: s.ctx, stopCtx: stopCtx, out: r}
}

type scheduleOperation struct {
	ctx     *Context
	stopCtx context.Context
	out     async.Receiver[struct{}]
}

func (op *scheduleOperation) Start() {
	op.ctx.EnqueueTask(func() {
		select {
		case <-op.stopCtx.Done():
			op.out.SetStopped()
		default:
			op.out.SetValue(struct{}{})
		}
	})
}
