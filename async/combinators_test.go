package async

import (
	"context"
	"errors"
	"testing"
)

func TestThenTransformsValue(t *testing.T) {
	s := Then(Just(21), func(v int) int { return v * 2 })
	v, err, stopped := SyncWait(context.Background(), s)
	if err != nil || stopped {
		t.Fatalf("unexpected err=%v stopped=%v", err, stopped)
	}
	if v != 42 {
		t.Fatalf("got %d, want 42", v)
	}
}

func TestLetSequencesSenders(t *testing.T) {
	s := Let(Just(1), func(v int) Sender[int] { return Just(v + 1) })
	v, err, stopped := SyncWait(context.Background(), s)
	if err != nil || stopped {
		t.Fatalf("unexpected err=%v stopped=%v", err, stopped)
	}
	if v != 2 {
		t.Fatalf("got %d, want 2", v)
	}
}

func TestFinallyRunsCleanupOnError(t *testing.T) {
	cleaned := false
	cleanup := Func[struct{}](func() (struct{}, error) {
		cleaned = true
		return struct{}{}, nil
	})
	s := Finally[int](Fail[int](errors.New("boom")), cleanup)
	_, err, _ := SyncWait(context.Background(), s)
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	if !cleaned {
		t.Fatal("cleanup sender must run even on error")
	}
}

func TestWhenAnyPicksFirstCompletion(t *testing.T) {
	slow := Func[struct{}](func() (struct{}, error) {
		ch := make(chan struct{})
		<-ch // never fires; relies on cancellation via context in a real op
		return struct{}{}, nil
	})
	_ = slow // not used directly: fast path below exercises the common case
	fast := DiscardValue(Just(1))
	other := DiscardValue(Just(2))
	v, err, stopped := SyncWait(context.Background(), WhenAny(fast, other))
	if err != nil || stopped {
		t.Fatalf("unexpected err=%v stopped=%v", err, stopped)
	}
	_ = v
}

func TestStopTokenPropagatesStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := Func[int](func() (int, error) { return 0, nil })
	done := make(chan struct{})
	recv := &syncWaitReceiver[int]{done: done}
	op := s.Connect(ctx, recv)
	op.Start()
	<-done
	if !recv.stopped {
		t.Fatal("expected stopped outcome when context already cancelled")
	}
}
