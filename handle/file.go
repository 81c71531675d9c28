// File: handle/file.go
// Author: momentics <momentics@gmail.com>
//
// File is a view on a byte stream opened through an Ops[Ref] backend:
// read_some/write_some per spec.md §4.7, plus the supplemented Read/
// Write "transfer the whole buffer, retrying on short I/O" helpers.
package handle

import (
	"github.com/flowreactor/aio/async"
	"github.com/flowreactor/aio/reactor"
	"github.com/flowreactor/aio/sequence"
)

// File is a factory bound to a reactor and an open configuration,
// mirroring spec.md §4.7's "factories bound to a reactor and
// configuration" shape. Open returns a sender of a *FileHandle.
type File[Ref any] struct {
	Ops      Ops[Ref]
	Path     string
	Mode     reactor.OpenMode
	Creation reactor.Creation
}

// Open returns a sender that opens f.Path with f.Mode/f.Creation.
func (f File[Ref]) Open() async.Sender[*FileHandle[Ref]] {
	return async.Then(f.Ops.OpenFile(f.Path, f.Mode, f.Creation), func(ref Ref) *FileHandle[Ref] {
		return &FileHandle[Ref]{ops: f.Ops, ref: ref}
	})
}

// FileHandle is a view on a descriptor owned by the backend. Closing is
// explicit via Close; there is no finalizer.
type FileHandle[Ref any] struct {
	ops Ops[Ref]
	ref Ref
}

// Ref returns the backend-native reference this handle wraps, for
// callers (e.g. Socket) that need to hand it to a backend-specific
// sender Ops does not expose.
func (h *FileHandle[Ref]) Ref() Ref { return h.ref }

func (h *FileHandle[Ref]) Close() async.Sender[struct{}] { return h.ops.Close(h.ref) }

func (h *FileHandle[Ref]) ReadSome(buf []byte) async.Sender[int] { return h.ops.ReadSome(h.ref, buf) }

func (h *FileHandle[Ref]) WriteSome(buf []byte) async.Sender[int] {
	return h.ops.WriteSome(h.ref, buf)
}

// Read transfers the whole of buf, issuing repeated ReadSome calls until
// buf is full or a ReadSome reports 0 bytes (EOF). At EOF it completes
// with the short count read so far and a nil error.
func (h *FileHandle[Ref]) Read(buf []byte) async.Sender[int] {
	return sequence.Reduce(h.ReadSome, buf)
}

// Write transfers the whole of buf, issuing repeated WriteSome calls
// until every byte has been accepted or a WriteSome reports 0 bytes, in
// which case it completes with the short count and a nil error.
func (h *FileHandle[Ref]) Write(buf []byte) async.Sender[int] {
	return sequence.Reduce(h.WriteSome, buf)
}
