// File: sequence/batched_read_test.go
// Author: momentics <momentics@gmail.com>

package sequence

import (
	"context"
	"encoding/binary"
	"os"
	"testing"

	"github.com/flowreactor/aio/async"
)

func TestReadBatchedJoinsIndependentOffsets(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "batched")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer f.Close()

	if err := f.Truncate(4096); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	writeInt32At(t, f, 0, 42)
	writeInt32At(t, f, 1024, 4242)
	writeInt32At(t, f, 2048, 424242)

	factory := func(buf []byte, offset int64) async.Sender[int] {
		return async.Func[int](func() (int, error) {
			return f.ReadAt(buf, offset)
		})
	}

	elements := []Element{
		{Buf: make([]byte, 4), Offset: 0},
		{Buf: make([]byte, 4), Offset: 1024},
		{Buf: make([]byte, 4), Offset: 2048},
	}
	results, err, stopped := async.SyncWait(context.Background(), ReadBatched(factory, elements))
	if stopped {
		t.Fatalf("unexpected stopped outcome")
	}
	if err != nil {
		t.Fatalf("ReadBatched: %v", err)
	}
	for i, r := range results {
		if r != 4 {
			t.Fatalf("element %d: got %d bytes, want 4", i, r)
		}
	}

	want := []int32{42, 4242, 424242}
	for i, el := range elements {
		got := int32(binary.LittleEndian.Uint32(el.Buf))
		if got != want[i] {
			t.Fatalf("element %d: got %d, want %d", i, got, want[i])
		}
	}
}

func writeInt32At(t *testing.T, f *os.File, offset int64, v int32) {
	t.Helper()
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	if _, err := f.WriteAt(buf[:], offset); err != nil {
		t.Fatalf("WriteAt(%d): %v", offset, err)
	}
}

func TestReadBatchedEmptyYieldsNilImmediately(t *testing.T) {
	called := false
	factory := func(buf []byte, offset int64) async.Sender[int] {
		called = true
		return async.Just(0)
	}
	results, err, _ := async.SyncWait(context.Background(), ReadBatched(factory, nil))
	if err != nil {
		t.Fatalf("ReadBatched: %v", err)
	}
	if results != nil {
		t.Fatalf("got %v, want nil", results)
	}
	if called {
		t.Fatalf("factory should never be invoked with no elements")
	}
}
