package intrusive

import (
	"math/rand"
	"sort"
	"testing"
)

func TestHeapPopAllSorted(t *testing.T) {
	h := NewHeap(func(a, b int) bool { return a < b })
	values := rand.Perm(200)
	for _, v := range values {
		h.Push(v)
	}

	var out []int
	for {
		v, ok := h.Pop()
		if !ok {
			break
		}
		out = append(out, v)
	}

	if !sort.IntsAreSorted(out) {
		t.Fatal("heap pop order is not sorted")
	}
	if len(out) != len(values) {
		t.Fatalf("expected %d elements, got %d", len(values), len(out))
	}
}

func TestHeapRemoveAtPreservesInvariant(t *testing.T) {
	h := NewHeap(func(a, b int) bool { return a < b })
	for _, v := range []int{5, 3, 8, 1, 9, 2, 7} {
		h.Push(v)
	}
	h.RemoveAt(3) // remove some interior element

	var out []int
	for {
		v, ok := h.Pop()
		if !ok {
			break
		}
		out = append(out, v)
	}
	if !sort.IntsAreSorted(out) {
		t.Fatalf("heap invariant broken after RemoveAt: %v", out)
	}
	if len(out) != 6 {
		t.Fatalf("expected 6 elements remaining, got %d", len(out))
	}
}

func TestHeapPeekDoesNotRemove(t *testing.T) {
	h := NewHeap(func(a, b int) bool { return a < b })
	h.Push(10)
	h.Push(5)
	v, ok := h.Peek()
	if !ok || v != 5 {
		t.Fatalf("expected peek 5, got %v ok=%v", v, ok)
	}
	if h.Len() != 2 {
		t.Fatal("peek must not remove an element")
	}
}
