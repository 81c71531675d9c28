package intrusive

import (
	"math/rand"
	"testing"
)

type listNode struct {
	val   int
	links Links[*listNode]
}

func (n *listNode) Links() *Links[*listNode] { return &n.links }

func TestListFIFOOrder(t *testing.T) {
	var l List[*listNode]
	nodes := make([]*listNode, 8)
	for i := range nodes {
		nodes[i] = &listNode{val: i}
		l.PushBack(nodes[i])
	}
	for i := 0; i < 8; i++ {
		got, ok := l.PopFront()
		if !ok {
			t.Fatalf("expected a node at index %d", i)
		}
		if got.val != i {
			t.Errorf("index %d: got %d, want %d", i, got.val, i)
		}
	}
	if !l.Empty() {
		t.Error("list should be empty after draining all pushed nodes")
	}
}

func TestListRemoveMiddle(t *testing.T) {
	var l List[*listNode]
	a := &listNode{val: 1}
	b := &listNode{val: 2}
	c := &listNode{val: 3}
	l.PushBack(a)
	l.PushBack(b)
	l.PushBack(c)

	l.Remove(b)
	if l.Len() != 2 {
		t.Fatalf("expected 2 nodes after removal, got %d", l.Len())
	}

	got, _ := l.PopFront()
	if got != a {
		t.Errorf("expected a first, got %v", got.val)
	}
	got, _ = l.PopFront()
	if got != c {
		t.Errorf("expected c second, got %v", got.val)
	}
}

func TestListTakeAllDrainsAndClears(t *testing.T) {
	var l List[*listNode]
	for i := 0; i < 4; i++ {
		l.PushBack(&listNode{val: i})
	}
	taken := l.TakeAll()
	if !l.Empty() {
		t.Error("source list must be empty after TakeAll")
	}
	if taken.Len() != 4 {
		t.Errorf("taken list should carry all 4 nodes, got %d", taken.Len())
	}
}

func TestListShuffledPushRemoveInvariant(t *testing.T) {
	var l List[*listNode]
	nodes := make([]*listNode, 64)
	for i := range nodes {
		nodes[i] = &listNode{val: i}
		l.PushBack(nodes[i])
	}

	order := rand.Perm(len(nodes))
	removeSet := order[:len(order)/2]
	removed := make(map[int]bool)
	for _, idx := range removeSet {
		l.Remove(nodes[idx])
		removed[idx] = true
	}

	if l.Len() != len(nodes)-len(removeSet) {
		t.Fatalf("expected %d remaining, got %d", len(nodes)-len(removeSet), l.Len())
	}

	var prevSeen = -1
	for {
		n, ok := l.PopFront()
		if !ok {
			break
		}
		if removed[n.val] {
			t.Errorf("popped a node that was removed: %d", n.val)
		}
		if n.val <= prevSeen {
			t.Errorf("order violated: %d after %d", n.val, prevSeen)
		}
		prevSeen = n.val
	}
}
