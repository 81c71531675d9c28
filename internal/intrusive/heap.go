// File: internal/intrusive/heap.go
// Author: momentics <momentics@gmail.com>
//
// Intrusive binary min-heap over a caller-supplied slice, grounded on the
// sio intrusive heap. No reactor in this module uses it: the epoll
// descriptor table keeps its free slots in an intrusive List (FIFO), not
// ordered by slot index.

package intrusive

// Heap is a binary min-heap of elements of type T, ordered by less.
// Unlike container/heap, it owns its storage directly rather than going
// through the heap.Interface indirection, which avoids an allocation and
// an interface call per element.
type Heap[T any] struct {
	data []T
	less func(a, b T) bool
}

// NewHeap creates an empty heap using less as the ordering predicate.
func NewHeap[T any](less func(a, b T) bool) *Heap[T] {
	return &Heap[T]{less: less}
}

// Len returns the number of elements in the heap.
func (h *Heap[T]) Len() int { return len(h.data) }

// Push inserts v, restoring the heap invariant in O(log n).
func (h *Heap[T]) Push(v T) {
	h.data = append(h.data, v)
	h.siftUp(len(h.data) - 1)
}

// Pop removes and returns the minimal element. ok is false if the heap
// is empty.
func (h *Heap[T]) Pop() (v T, ok bool) {
	if len(h.data) == 0 {
		return v, false
	}
	v = h.data[0]
	last := len(h.data) - 1
	h.data[0] = h.data[last]
	h.data = h.data[:last]
	if last > 0 {
		h.siftDown(0)
	}
	return v, true
}

// Peek returns the minimal element without removing it.
func (h *Heap[T]) Peek() (v T, ok bool) {
	if len(h.data) == 0 {
		return v, false
	}
	return h.data[0], true
}

// RemoveAt removes the element at index i, restoring the invariant.
// Used for arbitrary erase of an element that is not the minimum.
func (h *Heap[T]) RemoveAt(i int) {
	last := len(h.data) - 1
	h.data[i] = h.data[last]
	h.data = h.data[:last]
	if i < len(h.data) {
		h.siftDown(i)
		h.siftUp(i)
	}
}

func (h *Heap[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(h.data[i], h.data[parent]) {
			break
		}
		h.data[i], h.data[parent] = h.data[parent], h.data[i]
		i = parent
	}
}

func (h *Heap[T]) siftDown(i int) {
	n := len(h.data)
	for {
		left := 2*i + 1
		right := 2*i + 2
		smallest := i
		if left < n && h.less(h.data[left], h.data[smallest]) {
			smallest = left
		}
		if right < n && h.less(h.data[right], h.data[smallest]) {
			smallest = right
		}
		if smallest == i {
			return
		}
		h.data[i], h.data[smallest] = h.data[smallest], h.data[i]
		i = smallest
	}
}
