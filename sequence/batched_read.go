// File: sequence/batched_read.go
// Author: momentics <momentics@gmail.com>
//
// ReadBatched fans out N independent read_at(buffer, offset) senders and
// joins all of them, per spec.md §4.5's "Batched read". Grounded on
// async.WhenAny's race-and-drain shape, adapted from a race (first
// wins, rest cancelled) to a join (every element must finish).
package sequence

import (
	"context"

	"github.com/flowreactor/aio/async"
)

// OffsetFactory is a read_at/write_at-shaped operation: it is invoked
// once per Element with that element's own buffer and offset.
type OffsetFactory func(buf []byte, offset int64) async.Sender[int]

// Element pairs one batched-read buffer with the absolute offset
// read_at should target.
type Element struct {
	Buf    []byte
	Offset int64
}

// ReadBatched returns a sender that starts len(elements) independent
// factory(elements[i].Buf, elements[i].Offset) senders concurrently and
// awaits all of them. On success the result slice holds each element's
// transfer count at the matching index. If any element errors, the
// first error observed (in completion order, not index order) wins; if
// none errors but at least one is stopped, the whole join reports
// stopped. Either way every element is awaited before the join
// completes, mirroring async.WhenAny's drain-before-return discipline.
func ReadBatched(factory OffsetFactory, elements []Element) async.Sender[[]int] {
	return &batchedSender{factory: factory, elements: elements}
}

type batchedSender struct {
	factory  OffsetFactory
	elements []Element
}

func (s *batchedSender) Connect(ctx context.Context, r async.Receiver[[]int]) async.Operation {
	return &batchedOperation{sender: s, ctx: ctx, out: r}
}

type batchedOperation struct {
	sender *batchedSender
	ctx    context.Context
	out    async.Receiver[[]int]
}

type batchedOutcome struct {
	idx     int
	n       int
	err     error
	stopped bool
}

func (op *batchedOperation) Start() {
	n := len(op.sender.elements)
	if n == 0 {
		op.out.SetValue(nil)
		return
	}
	outcomes := make(chan batchedOutcome, n)
	for i, el := range op.sender.elements {
		i, el := i, el
		s := op.sender.factory(el.Buf, el.Offset)
		o := s.Connect(op.ctx, &batchedElementReceiver{idx: i, outcomes: outcomes})
		go o.Start()
	}

	go func() {
		results := make([]int, n)
		var firstErr error
		stopped := false
		for i := 0; i < n; i++ {
			oc := <-outcomes
			results[oc.idx] = oc.n
			if oc.err != nil && firstErr == nil {
				firstErr = oc.err
			}
			if oc.stopped {
				stopped = true
			}
		}
		switch {
		case firstErr != nil:
			op.out.SetError(firstErr)
		case stopped:
			op.out.SetStopped()
		default:
			op.out.SetValue(results)
		}
	}()
}

type batchedElementReceiver struct {
	idx      int
	outcomes chan batchedOutcome
}

func (r *batchedElementReceiver) SetValue(n int) {
	r.outcomes <- batchedOutcome{idx: r.idx, n: n}
}
func (r *batchedElementReceiver) SetError(err error) {
	r.outcomes <- batchedOutcome{idx: r.idx, err: err}
}
func (r *batchedElementReceiver) SetStopped() {
	r.outcomes <- batchedOutcome{idx: r.idx, stopped: true}
}
