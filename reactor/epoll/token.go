// File: reactor/epoll/token.go
// Author: momentics <momentics@gmail.com>
//
// Descriptor token: a slot/epoch pair that lets concurrent operations
// hold a forge-proof reference to a descriptor entry across the lifetime
// of operations that may still be pending when the fd is closed from
// another path. See descriptor_table.go for the validity invariant.

package epoll

import "math"

// Token identifies a descriptor entry in a Context's slot table.
type Token struct {
	Slot  uint32
	Epoch uint32
}

// invalidSlot is the sentinel slot value that marks a Token as naming no
// slot at all.
const invalidSlot = uint32(math.MaxUint32)

// InvalidToken is the never-valid Token: its Slot is invalidSlot. (The
// zero Token{} names slot 0 and passes Valid, but its zero epoch never
// matches a live entry; see bumpEpoch.)
var InvalidToken = Token{Slot: invalidSlot, Epoch: 0}

// Valid reports whether the token names a real slot. It says nothing
// about whether that slot's epoch still matches — only
// descriptorTable.lookup can answer that, since epoch comparisons
// require holding the table's lock against a concurrent release.
func (t Token) Valid() bool { return t.Slot != invalidSlot }

// bumpEpoch advances an entry's epoch, skipping the zero sentinel so a
// zero-initialized Token is always detectably invalid. Wraparound after
// 2^32-1 reuses of one slot is treated as impractical within a process
// lifetime, per spec.md's design notes.
func bumpEpoch(epoch uint32) uint32 {
	epoch++
	if epoch == 0 {
		epoch++
	}
	return epoch
}
