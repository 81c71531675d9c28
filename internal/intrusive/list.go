// File: internal/intrusive/list.go
// Author: momentics <momentics@gmail.com>
//
// Intrusive doubly linked list: nodes carry their own link pointers so
// insertion and removal never allocate. Used for epoll wait queues and
// the descriptor free list, where operations must be spliced out in O(1)
// while cancellation races with dispatch.

package intrusive

// Linked is implemented by a pointer type that can be linked into a
// List[T]. T is almost always the pointer type itself, e.g.
// func (op *fdOperationBase) Links() *Links[*fdOperationBase] { return &op.links }
type Linked[T any] interface {
	comparable
	Links() *Links[T]
}

// Links holds the prev/next pointers for one node of type T.
type Links[T any] struct {
	next T
	prev T
}

// List is an intrusive doubly linked FIFO of nodes of type T. The zero
// value is an empty list.
type List[T Linked[T]] struct {
	head T
	tail T
	n    int
}

func (l *List[T]) isNil(v T) bool {
	var zero T
	return v == zero
}

// PushBack appends node to the tail of the list in O(1).
func (l *List[T]) PushBack(node T) {
	links := node.Links()
	var zero T
	links.next = zero
	links.prev = l.tail
	if l.isNil(l.tail) {
		l.head = node
	} else {
		l.tail.Links().next = node
	}
	l.tail = node
	l.n++
}

// Remove splices node out of the list in O(1). node must currently be a
// member of l; removing a node that is not linked is a programmer error.
func (l *List[T]) Remove(node T) {
	links := node.Links()
	if l.isNil(links.prev) {
		l.head = links.next
	} else {
		links.prev.Links().next = links.next
	}
	if l.isNil(links.next) {
		l.tail = links.prev
	} else {
		links.next.Links().prev = links.prev
	}
	var zero T
	links.next = zero
	links.prev = zero
	l.n--
}

// PopFront removes and returns the head of the list, or the zero value
// and false if the list is empty.
func (l *List[T]) PopFront() (T, bool) {
	if l.isNil(l.head) {
		var zero T
		return zero, false
	}
	node := l.head
	l.Remove(node)
	return node, true
}

// TakeAll detaches every node from l and returns them as a fresh list,
// leaving l empty. Used to atomically drain a wait queue under lock before
// resuming waiters outside the lock.
func (l *List[T]) TakeAll() List[T] {
	taken := List[T]{head: l.head, tail: l.tail, n: l.n}
	var zero T
	l.head = zero
	l.tail = zero
	l.n = 0
	return taken
}

// Empty reports whether the list has no nodes.
func (l *List[T]) Empty() bool { return l.n == 0 }

// Len returns the number of linked nodes.
func (l *List[T]) Len() int { return l.n }
