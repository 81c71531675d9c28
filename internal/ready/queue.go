// File: internal/ready/queue.go
// Author: momentics <momentics@gmail.com>
//
// Ready queue: the single point where user-enqueued work and reactor-side
// completion resumptions are handed to whichever goroutine is currently
// running the reactor loop. Push is safe from any goroutine; pop is only
// ever called from the reactor's own driving goroutine, which swaps the
// whole queue out from under the lock and drains it without holding the
// lock, so a long-running runnable never blocks a producer.
//
// Backed by github.com/eapache/queue, a dependency the teacher library
// declares but never imports; its auto-growing ring buffer is exactly the
// "FIFO of runnable heads" the reactor context needs and avoids a
// reallocation on every wraparound the way a fixed slice would.
package ready

import (
	"sync"

	"github.com/eapache/queue"
)

// Runnable is the universal unit of work the reactor can execute on its
// own goroutine: a completion callback, a schedule resumption, or a
// cancellation resumption. Run must not block and must not panic across
// the reactor's dispatch boundary (callers recover around Run()).
type Runnable interface {
	Run()
}

// Queue is a thread-safe FIFO of Runnable, mutex-guarded on the producer
// side and drained without holding the lock on the consumer side.
type Queue struct {
	mu sync.Mutex
	q  *queue.Queue
}

// New creates an empty ready queue.
func New() *Queue {
	return &Queue{q: queue.New()}
}

// Push enqueues r. Safe to call from any goroutine.
func (rq *Queue) Push(r Runnable) {
	rq.mu.Lock()
	rq.q.Add(r)
	rq.mu.Unlock()
}

// Len reports the number of runnables currently queued. Racy by nature
// when called concurrently with producers; intended for diagnostics.
func (rq *Queue) Len() int {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	return rq.q.Length()
}

// DrainInto swaps the entire backing queue out under the lock and invokes
// fn for each runnable outside the lock, returning the number processed.
// Must only be called from the reactor's driving goroutine.
func (rq *Queue) DrainInto(fn func(Runnable)) int {
	rq.mu.Lock()
	pending := rq.q
	rq.q = queue.New()
	rq.mu.Unlock()

	n := pending.Length()
	for i := 0; i < n; i++ {
		r := pending.Peek().(Runnable)
		pending.Remove()
		fn(r)
	}
	return n
}
