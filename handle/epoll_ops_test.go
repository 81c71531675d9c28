// File: handle/epoll_ops_test.go
// Author: momentics <momentics@gmail.com>

package handle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flowreactor/aio/async"
	"github.com/flowreactor/aio/netaddr"
	"github.com/flowreactor/aio/reactor"
	"github.com/flowreactor/aio/reactor/epoll"
)

func newEpollOps(t *testing.T) EpollOps {
	t.Helper()
	ctx, err := epoll.New()
	if err != nil {
		t.Fatalf("epoll.New: %v", err)
	}
	t.Cleanup(func() { ctx.Close() })
	return EpollOps{Ctx: ctx}
}

func TestFileWriteThenReadRoundTrips(t *testing.T) {
	ops := newEpollOps(t)
	path := filepath.Join(t.TempDir(), "roundtrip")

	writeFile := File[epoll.Token]{Ops: ops, Path: path, Mode: reactor.OpenWrite, Creation: reactor.CreateIfNeeded}
	bg := context.Background()

	wh, err, _ := async.SyncWait(bg, writeFile.Open())
	if err != nil {
		t.Fatalf("Open(write): %v", err)
	}
	want := []byte("the quick brown fox jumps over the lazy dog")
	n, err, _ := async.SyncWait(bg, wh.Write(want))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(want) {
		t.Fatalf("Write: got %d bytes, want %d", n, len(want))
	}
	if _, err, _ := async.SyncWait(bg, wh.Close()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	readFile := File[epoll.Token]{Ops: ops, Path: path, Mode: reactor.OpenRead, Creation: reactor.OpenExisting}
	rh, err, _ := async.SyncWait(bg, readFile.Open())
	if err != nil {
		t.Fatalf("Open(read): %v", err)
	}
	got := make([]byte, len(want))
	n, err, _ = async.SyncWait(bg, rh.Read(got))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != len(want) || string(got) != string(want) {
		t.Fatalf("got %q (%d bytes), want %q", got[:n], n, want)
	}
	if _, err, _ := async.SyncWait(bg, rh.Close()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestSeekableFileReadWriteAt(t *testing.T) {
	ops := newEpollOps(t)
	path := filepath.Join(t.TempDir(), "seekable")

	sf := SeekableFile[epoll.Token]{Ops: ops, Path: path, Mode: reactor.OpenWrite, Creation: reactor.CreateIfNeeded}
	bg := context.Background()

	h, err, _ := async.SyncWait(bg, sf.Open())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer async.SyncWait(bg, h.Close())

	if _, err, _ := async.SyncWait(bg, h.WriteAllAt([]byte("AAAA"), 0)); err != nil {
		t.Fatalf("WriteAllAt(0): %v", err)
	}
	if _, err, _ := async.SyncWait(bg, h.WriteAllAt([]byte("BBBB"), 100)); err != nil {
		t.Fatalf("WriteAllAt(100): %v", err)
	}

	got := make([]byte, 4)
	if _, err, _ := async.SyncWait(bg, h.ReadAllAt(got, 100)); err != nil {
		t.Fatalf("ReadAllAt(100): %v", err)
	}
	if string(got) != "BBBB" {
		t.Fatalf("got %q, want BBBB", got)
	}
}

func TestAcceptorOverAbstractUnixSocket(t *testing.T) {
	ops := newEpollOps(t)
	ep := netaddr.UnixEndpoint{Path: fmt.Sprintf("flowreactor-test-%d", os.Getpid()), Abstract: true}
	bg := context.Background()

	acceptor := Acceptor[epoll.Token]{Ops: ops, Endpoint: ep}
	ah, err, _ := async.SyncWait(bg, acceptor.Open())
	if err != nil {
		t.Fatalf("Acceptor.Open: %v", err)
	}
	defer async.SyncWait(bg, ah.Close())

	client := Socket[epoll.Token]{Ops: ops, Endpoint: ep}
	ch, err, _ := async.SyncWait(bg, client.Open())
	if err != nil {
		t.Fatalf("Socket.Open: %v", err)
	}
	defer async.SyncWait(bg, ch.Close())

	accepted := make(chan epoll.Token, 1)
	acceptErr := make(chan error, 1)
	go func() {
		ref, err, _ := async.SyncWait(bg, ah.AcceptOnce())
		if err != nil {
			acceptErr <- err
			return
		}
		accepted <- ref
	}()

	connectDone := make(chan error, 1)
	go func() {
		_, err, _ := async.SyncWait(bg, ch.Connect(ep))
		connectDone <- err
	}()

	deadline := time.After(2 * time.Second)
	var serverRef epoll.Token
	gotAccept, gotConnect := false, false
	for !gotAccept || !gotConnect {
		if _, err := ops.Ctx.RunOne(); err != nil {
			t.Fatalf("RunOne: %v", err)
		}
		select {
		case serverRef = <-accepted:
			gotAccept = true
		case err := <-acceptErr:
			t.Fatalf("AcceptOnce: %v", err)
		default:
		}
		select {
		case err := <-connectDone:
			if err != nil {
				t.Fatalf("Connect: %v", err)
			}
			gotConnect = true
		default:
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for accept/connect to complete")
		default:
		}
	}
	defer async.SyncWait(bg, ops.Close(serverRef))
}
