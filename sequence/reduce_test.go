// File: sequence/reduce_test.go
// Author: momentics <momentics@gmail.com>

package sequence

import (
	"context"
	"errors"
	"testing"

	"github.com/flowreactor/aio/async"
)

// chunked returns a Factory that transfers at most chunk bytes per
// call, simulating a backend that only ever does short "some" steps.
func chunked(chunk int) Factory {
	return func(buf []byte) async.Sender[int] {
		n := len(buf)
		if n > chunk {
			n = chunk
		}
		return async.Just(n)
	}
}

func TestReduceTransfersWholeBufferAcrossShortSteps(t *testing.T) {
	buf := make([]byte, 10)
	value, err, stopped := async.SyncWait(context.Background(), Reduce(chunked(3), buf))
	if stopped {
		t.Fatalf("unexpected stopped outcome")
	}
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if value != len(buf) {
		t.Fatalf("got %d, want %d", value, len(buf))
	}
}

func TestReduceStopsAtZeroTransfer(t *testing.T) {
	calls := 0
	factory := func(buf []byte) async.Sender[int] {
		calls++
		if calls == 2 {
			return async.Just(0)
		}
		return async.Just(1)
	}
	buf := make([]byte, 10)
	value, err, _ := async.SyncWait(context.Background(), Reduce(factory, buf))
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if value != 1 {
		t.Fatalf("got %d, want 1 (EOF after one successful byte)", value)
	}
}

func TestReduceShortCircuitsOnError(t *testing.T) {
	wantErr := errors.New("boom")
	calls := 0
	factory := func(buf []byte) async.Sender[int] {
		calls++
		if calls == 2 {
			return async.Fail[int](wantErr)
		}
		return async.Just(1)
	}
	buf := make([]byte, 10)
	_, err, _ := async.SyncWait(context.Background(), Reduce(factory, buf))
	if !errors.Is(err, wantErr) {
		t.Fatalf("got err %v, want %v", err, wantErr)
	}
}

func TestReduceEmptyBufferCompletesImmediately(t *testing.T) {
	called := false
	factory := func(buf []byte) async.Sender[int] {
		called = true
		return async.Just(len(buf))
	}
	value, err, _ := async.SyncWait(context.Background(), Reduce(factory, nil))
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if value != 0 {
		t.Fatalf("got %d, want 0", value)
	}
	if called {
		t.Fatalf("factory should never be invoked for an empty buffer")
	}
}
