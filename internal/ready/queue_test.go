package ready

import (
	"sync"
	"testing"
)

type fnRunnable func()

func (f fnRunnable) Run() { f() }

func TestQueueFIFO(t *testing.T) {
	q := New()
	var out []int
	for i := 0; i < 5; i++ {
		i := i
		q.Push(fnRunnable(func() { out = append(out, i) }))
	}
	n := q.DrainInto(func(r Runnable) { r.Run() })
	if n != 5 {
		t.Fatalf("expected 5 processed, got %d", n)
	}
	for i, v := range out {
		if v != i {
			t.Fatalf("FIFO violated: out=%v", out)
		}
	}
}

func TestQueueConcurrentPush(t *testing.T) {
	q := New()
	var wg sync.WaitGroup
	const producers = 16
	const perProducer = 100
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(fnRunnable(func() {}))
			}
		}()
	}
	wg.Wait()
	total := q.DrainInto(func(Runnable) {})
	if total != producers*perProducer {
		t.Fatalf("expected %d, got %d", producers*perProducer, total)
	}
}
