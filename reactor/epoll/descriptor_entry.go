// File: reactor/epoll/descriptor_entry.go
// Author: momentics <momentics@gmail.com>
//
// Per-fd state shared by every operation currently waiting on that fd.
// Grounded on original_source/source/sio/event_loop/epoll/context.hpp's
// descriptor_entry: a mutex-guarded pair of wait queues plus the interest
// mask they imply, and the free-list linkage used when the slot is
// released back to the table.

package epoll

import (
	"sync"
	"sync/atomic"

	"github.com/flowreactor/aio/internal/intrusive"
	"golang.org/x/sys/unix"
)

type descriptorEntry struct {
	ctx  *Context
	slot uint32

	fd           atomic.Int32
	epoch        uint32
	registered   bool
	interestMask uint32

	mu           sync.Mutex
	readWaiters  intrusive.List[*fdOperationBase]
	writeWaiters intrusive.List[*fdOperationBase]

	freeLinks intrusive.Links[*descriptorEntry]
}

func (e *descriptorEntry) Links() *intrusive.Links[*descriptorEntry] { return &e.freeLinks }

func (e *descriptorEntry) hasFD() bool { return e.fd.Load() >= 0 }

func (e *descriptorEntry) nativeHandle() int { return int(e.fd.Load()) }

// resetLists clears both wait queues without resuming anyone; used only
// when (re)registering a slot for a brand new fd, where there cannot be
// any waiters left over from a prior occupant.
func (e *descriptorEntry) resetLists() {
	e.readWaiters = intrusive.List[*fdOperationBase]{}
	e.writeWaiters = intrusive.List[*fdOperationBase]{}
}

// computeMaskLocked derives the epoll interest bitmask purely from
// whether each wait queue is non-empty. Must be called with e.mu held.
func (e *descriptorEntry) computeMaskLocked() uint32 {
	var mask uint32
	if !e.readWaiters.Empty() {
		mask |= unix.EPOLLIN | unix.EPOLLRDHUP | unix.EPOLLERR
	}
	if !e.writeWaiters.Empty() {
		mask |= unix.EPOLLOUT | unix.EPOLLERR
	}
	return mask
}

// addWaiter links op into the wait queue for what and recomputes the
// entry's interest mask, issuing EPOLL_CTL_ADD/MOD as needed.
func (e *descriptorEntry) addWaiter(op *fdOperationBase, what Interest) {
	e.mu.Lock()
	switch what {
	case InterestRead:
		e.readWaiters.PushBack(op)
	case InterestWrite:
		e.writeWaiters.PushBack(op)
	}
	op.waiting = true
	op.waitingInterest = what
	mask := e.computeMaskLocked()
	e.mu.Unlock()
	e.ctx.updateInterest(e, mask)
}

// removeWaiter splices op out of whichever wait queue it is linked in,
// if any, and recomputes the interest mask. Safe to call even if op is
// not currently waiting, in which case it is a no-op reporting false —
// callers use the return value to tell a parked operation apart from
// one that is presently running inline (e.g. mid syscall-retry loop),
// which must observe cancellation itself rather than be force-resumed.
func (e *descriptorEntry) removeWaiter(op *fdOperationBase) bool {
	e.mu.Lock()
	if !op.waiting {
		e.mu.Unlock()
		return false
	}
	switch op.waitingInterest {
	case InterestRead:
		e.readWaiters.Remove(op)
	case InterestWrite:
		e.writeWaiters.Remove(op)
	}
	op.waitingInterest = InterestNone
	op.waiting = false
	mask := e.computeMaskLocked()
	e.mu.Unlock()
	e.ctx.updateInterest(e, mask)
	return true
}

// handleEvents takes out every waiter implied by the observed epoll
// event bits, recomputes the interest mask once, then resumes each
// taken-out waiter on the reactor's ready queue outside the entry lock.
func (e *descriptorEntry) handleEvents(events uint32) {
	wakeRead := events&(unix.EPOLLIN|unix.EPOLLERR|unix.EPOLLRDHUP|unix.EPOLLHUP) != 0
	wakeWrite := events&(unix.EPOLLOUT|unix.EPOLLERR|unix.EPOLLHUP) != 0

	var readyReaders, readyWriters intrusive.List[*fdOperationBase]
	if wakeRead || wakeWrite {
		e.mu.Lock()
		if wakeRead {
			readyReaders = e.readWaiters.TakeAll()
		}
		if wakeWrite {
			readyWriters = e.writeWaiters.TakeAll()
		}
		mask := e.computeMaskLocked()
		e.mu.Unlock()
		e.ctx.updateInterest(e, mask)
	}

	resume := func(list *intrusive.List[*fdOperationBase]) {
		for {
			op, ok := list.PopFront()
			if !ok {
				break
			}
			op.waiting = false
			op.waitingInterest = InterestNone
			e.ctx.enqueueRunnable(op)
		}
	}
	resume(&readyReaders)
	resume(&readyWriters)
}

// closeWaiters takes out every waiter currently parked on this entry and
// force-resumes each one marked closed, so its next step delivers
// bad_file_descriptor instead of waiting forever on an fd that release
// is about to invalidate. Called by descriptorTable.release under the
// table lock, before the slot is handed back to the free list. Grounded
// on release_entry's step of enqueuing taken-out waiters as cancellations
// (spec.md §4.2 step 6, §4.3's Close algorithm).
func (e *descriptorEntry) closeWaiters() {
	e.mu.Lock()
	readers := e.readWaiters.TakeAll()
	writers := e.writeWaiters.TakeAll()
	e.mu.Unlock()

	resume := func(list *intrusive.List[*fdOperationBase]) {
		for {
			op, ok := list.PopFront()
			if !ok {
				break
			}
			op.waiting = false
			op.waitingInterest = InterestNone
			op.MarkClosed()
			e.ctx.enqueueRunnable(op)
		}
	}
	resume(&readers)
	resume(&writers)
}
