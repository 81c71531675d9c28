// File: handle/seekable_file.go
// Author: momentics <momentics@gmail.com>
//
// SeekableFile is File plus the offset-bearing read_at/write_at pair
// spec.md §4.7 calls out separately ("Seekable variants additionally
// accept an offset parameter on read/write").
package handle

import (
	"github.com/flowreactor/aio/async"
	"github.com/flowreactor/aio/reactor"
	"github.com/flowreactor/aio/sequence"
)

// SeekableFile is a factory bound to a reactor and an open
// configuration, identical to File except its handle additionally
// exposes offset-bearing transfers.
type SeekableFile[Ref any] struct {
	Ops      Ops[Ref]
	Path     string
	Mode     reactor.OpenMode
	Creation reactor.Creation
}

// Open returns a sender that opens f.Path with f.Mode/f.Creation.
func (f SeekableFile[Ref]) Open() async.Sender[*SeekableFileHandle[Ref]] {
	return async.Then(f.Ops.OpenFile(f.Path, f.Mode, f.Creation), func(ref Ref) *SeekableFileHandle[Ref] {
		return &SeekableFileHandle[Ref]{FileHandle: FileHandle[Ref]{ops: f.Ops, ref: ref}}
	})
}

// SeekableFileHandle embeds FileHandle's stream-position operations and
// adds offset-bearing ones.
type SeekableFileHandle[Ref any] struct {
	FileHandle[Ref]
}

func (h *SeekableFileHandle[Ref]) ReadAt(buf []byte, offset int64) async.Sender[int] {
	return h.ops.ReadAt(h.ref, buf, offset)
}

func (h *SeekableFileHandle[Ref]) WriteAt(buf []byte, offset int64) async.Sender[int] {
	return h.ops.WriteAt(h.ref, buf, offset)
}

// ReadAllAt transfers the whole of buf starting at offset, retrying on
// short reads. Each retry's target offset is derived from how much of
// buf is left (offset + bytes already transferred), not from a
// separately tracked cursor, so it stays correct regardless of how
// short any individual read_at came back.
func (h *SeekableFileHandle[Ref]) ReadAllAt(buf []byte, offset int64) async.Sender[int] {
	total := len(buf)
	return sequence.Reduce(func(remaining []byte) async.Sender[int] {
		at := offset + int64(total-len(remaining))
		return h.ops.ReadAt(h.ref, remaining, at)
	}, buf)
}

// WriteAllAt transfers the whole of buf starting at offset, retrying on
// short writes with the same offset-from-remaining-length derivation as
// ReadAllAt.
func (h *SeekableFileHandle[Ref]) WriteAllAt(buf []byte, offset int64) async.Sender[int] {
	total := len(buf)
	return sequence.Reduce(func(remaining []byte) async.Sender[int] {
		at := offset + int64(total-len(remaining))
		return h.ops.WriteAt(h.ref, remaining, at)
	}, buf)
}
