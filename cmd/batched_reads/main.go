// Author: momentics <momentics@gmail.com>

// batched_reads demonstrates sequence.ReadBatched: given a file path, it
// issues three independent 4-byte read_at operations at offsets 0, 1024
// and 2048 and prints the little-endian int32 found at each, per
// spec.md §8's "Batched reads" scenario.
package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/flowreactor/aio/async"
	"github.com/flowreactor/aio/reactor"
	"github.com/flowreactor/aio/reactor/epoll"
	"github.com/flowreactor/aio/sequence"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <path>\n", os.Args[0])
		os.Exit(1)
	}
	path := os.Args[1]

	ctx, err := epoll.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "batched_reads: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	offsets := []int64{0, 1024, 2048}
	elements := make([]sequence.Element, len(offsets))
	for i, off := range offsets {
		elements[i] = sequence.Element{Buf: make([]byte, 4), Offset: off}
	}

	bg := context.Background()
	token, err, _ := async.SyncWait(bg, epoll.Open(ctx, path, reactor.OpenRead, reactor.OpenExisting))
	if err != nil {
		fmt.Fprintf(os.Stderr, "batched_reads: %v\n", err)
		os.Exit(1)
	}
	defer async.SyncWait(bg, epoll.Close(ctx, token))

	factory := func(buf []byte, offset int64) async.Sender[int] {
		return epoll.ReadAt(ctx, token, buf, offset)
	}

	work := sequence.ReadBatched(factory, elements)
	_, err, stopped := async.SyncWait(bg, work)
	if stopped {
		fmt.Fprintln(os.Stderr, "batched_reads: cancelled")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "batched_reads: %v\n", err)
		os.Exit(1)
	}

	for i, el := range elements {
		v := int32(binary.LittleEndian.Uint32(el.Buf))
		fmt.Printf("offset %d: %d\n", offsets[i], v)
	}
}
