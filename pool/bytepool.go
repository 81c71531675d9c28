// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>
//
// BytePool hands out fixed-size []byte scratch buffers for a handle's
// ReadSome/WriteSome calls, backed by a NUMAPool when useNUMA is set
// and libnuma reports the node as available, falling back to a plain
// allocation otherwise.

package pool

// BytePool recycles same-size []byte buffers, optionally NUMA-pinned.
type BytePool struct {
	npool *NUMAPool
	size  int
}

// NewBytePool creates a pool of buffers of size bytes. node selects the
// preferred NUMA node when useNUMA is true; node is ignored otherwise.
func NewBytePool(size int, node int, useNUMA bool) *BytePool {
	return &BytePool{
		npool: NewNUMAPool(node, size, useNUMA),
		size:  size,
	}
}

// Get returns a buffer from the pool, allocating a fresh one if empty.
func (b *BytePool) Get() []byte {
	return b.npool.Get()
}

// Put returns buf to the pool. buf must have been obtained from Get and
// must not be used afterwards.
func (b *BytePool) Put(buf []byte) {
	b.npool.Put(buf)
}
