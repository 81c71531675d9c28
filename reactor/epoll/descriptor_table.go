// File: reactor/epoll/descriptor_table.go
// Author: momentics <momentics@gmail.com>
//
// descriptorTable owns every descriptorEntry slot for a Context. Slots are
// reused rather than freed, with the epoch bumped on release so a Token
// handed out before a slot was recycled is detectably stale afterward.
// Grounded on original_source/source/sio/event_loop/epoll/context.hpp's
// register_descriptor/lookup/release_entry.
package epoll

import (
	"sync"

	"github.com/flowreactor/aio/internal/intrusive"
)

type descriptorTable struct {
	mu       sync.RWMutex
	entries  []*descriptorEntry
	freeList intrusive.List[*descriptorEntry]
}

func newDescriptorTable() *descriptorTable {
	return &descriptorTable{}
}

// allocate returns a descriptorEntry bound to fd, reusing a free slot if
// one exists and allocating a fresh one otherwise. The returned Token's
// epoch matches the entry's current epoch at the moment of allocation.
func (t *descriptorTable) allocate(ctx *Context, fd int) (*descriptorEntry, Token) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.freeList.PopFront(); ok {
		e.fd.Store(int32(fd))
		e.registered = false
		e.interestMask = 0
		e.resetLists()
		return e, Token{Slot: e.slot, Epoch: e.epoch}
	}

	e := &descriptorEntry{ctx: ctx, slot: uint32(len(t.entries)), epoch: 1}
	e.fd.Store(int32(fd))
	t.entries = append(t.entries, e)
	return e, Token{Slot: e.slot, Epoch: e.epoch}
}

// lookup resolves tok to its descriptorEntry, failing if the slot is out
// of range or the entry's epoch no longer matches (the slot was released
// and possibly reused since tok was issued).
func (t *descriptorTable) lookup(tok Token) (*descriptorEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !tok.Valid() || int(tok.Slot) >= len(t.entries) {
		return nil, false
	}
	e := t.entries[tok.Slot]
	if e.epoch != tok.Epoch {
		return nil, false
	}
	return e, true
}

// release invalidates tok's entry and returns its slot to the free list.
// Any Token referencing this slot with the old epoch becomes stale.
func (t *descriptorTable) release(tok Token) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !tok.Valid() || int(tok.Slot) >= len(t.entries) {
		return
	}
	e := t.entries[tok.Slot]
	if e.epoch != tok.Epoch {
		return
	}
	e.closeWaiters()
	e.fd.Store(-1)
	e.registered = false
	e.epoch = bumpEpoch(e.epoch)
	t.freeList.PushBack(e)
}
