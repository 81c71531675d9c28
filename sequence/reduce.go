// Package sequence turns a one-shot "some" operation (a partial read or
// write) into the lazy, finite sequence spec.md's "Buffered Sequences
// and Reduction" describes, folds that sequence into "transfer the
// whole buffer" senders, and fans out the batched, multi-offset read.
// Grounded on original_source/source/sio/sequence/reduce.hpp and
// ../sequence/buffered_sequence.hpp, realized without an intervening
// sequence-of-senders abstraction: Go's closures already give Reduce a
// lazy generator without needing the original's own sender-of-senders
// type.
//
// Author: momentics <momentics@gmail.com>
package sequence

import (
	"context"

	"github.com/flowreactor/aio/async"
)

// Factory is the one-shot "some" operation a Reduce invokes repeatedly
// on the unconsumed suffix of a buffer — a read_some or write_some
// bound to an open resource.
type Factory func(buf []byte) async.Sender[int]

// Reduce folds the buffered sequence generated by factory over buf into
// a single sender: it repeatedly invokes factory on the unconsumed
// suffix, advancing the cursor by each element's transfer count, and
// terminates when the cursor reaches len(buf) or an element reports 0
// bytes (EOF for a read, no room for a write). An error or stop from
// any element short-circuits the fold and propagates as-is.
func Reduce(factory Factory, buf []byte) async.Sender[int] {
	return &reduceSender{factory: factory, buf: buf}
}

type reduceSender struct {
	factory Factory
	buf     []byte
}

func (s *reduceSender) Connect(ctx context.Context, r async.Receiver[int]) async.Operation {
	return &reduceOperation{sender: s, ctx: ctx, out: r}
}

type reduceOperation struct {
	sender *reduceSender
	ctx    context.Context
	out    async.Receiver[int]
	cursor int
}

func (op *reduceOperation) Start() { op.step() }

func (op *reduceOperation) step() {
	if op.cursor >= len(op.sender.buf) {
		op.out.SetValue(op.cursor)
		return
	}
	elem := op.sender.factory(op.sender.buf[op.cursor:])
	elemOp := elem.Connect(op.ctx, &reduceElementReceiver{op: op})
	elemOp.Start()
}

type reduceElementReceiver struct {
	op *reduceOperation
}

func (r *reduceElementReceiver) SetValue(n int) {
	if n == 0 {
		r.op.out.SetValue(r.op.cursor)
		return
	}
	r.op.cursor += n
	r.op.step()
}

func (r *reduceElementReceiver) SetError(err error) { r.op.out.SetError(err) }
func (r *reduceElementReceiver) SetStopped()        { r.op.out.SetStopped() }
