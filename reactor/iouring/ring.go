// File: reactor/iouring/ring.go
// Author: momentics <momentics@gmail.com>
//
// Raw io_uring syscall surface: io_uring_setup/io_uring_enter via
// unix.Syscall6 (golang.org/x/sys/unix has no typed wrapper for either,
// same as every other repo in the corpus that touches io_uring), and the
// three mmap'd regions (SQ ring, CQ ring, SQE array) via unix.Mmap.
// Struct layouts and offsets grounded on
// _examples/waftester-waftester/pkg/iouring/iouring_linux.go and
// _examples/momentics-hioload-ws/internal/transport/uring_types.go;
// opcode numbers corrected against the canonical kernel enum order (the
// teacher's own uring_types.go has several colliding duplicate values,
// e.g. IORING_OP_TEE and IORING_OP_SEND both defined as 26 — not carried
// over here).
package iouring

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	sysIOURingSetup   = 425
	sysIOURingEnter   = 426
	sysIOURingRegister = 427

	ioringOffSQRing = 0
	ioringOffCQRing = 0x8000000
	ioringOffSQEs   = 0x10000000

	ioringEnterGetevents = 1 << 0
	ioringEnterSQWakeup  = 1 << 1

	ioringFeatSingleMMAP = 1 << 0
)

// Canonical io_uring opcodes (linux/io_uring.h enum io_uring_op).
const (
	opNop      = 0
	opReadv    = 1
	opWritev   = 2
	opPollAdd  = 6
	opAccept   = 13
	opCancel   = 14
	opConnect  = 16
	opOpenat   = 18
	opClose    = 19
	opRead     = 22
	opWrite    = 23
	opSend     = 26
	opRecv     = 27
)

type sqRingOffsets struct {
	Head, Tail, RingMask, RingEntries, Flags, Dropped, Array, Resv1 uint32
	Resv2                                                           uint64
}

type cqRingOffsets struct {
	Head, Tail, RingMask, RingEntries, Overflow, Cqes, Flags, Resv1 uint32
	Resv2                                                           uint64
}

type ringParams struct {
	SQEntries    uint32
	CQEntries    uint32
	Flags        uint32
	SQThreadCPU  uint32
	SQThreadIdle uint32
	Features     uint32
	WQFd         uint32
	Resv         [3]uint32
	SQOff        sqRingOffsets
	CQOff        cqRingOffsets
}

// sqe mirrors struct io_uring_sqe's plain (non op-specific-union-expanded)
// layout: every field io_uring needs for the opcodes this package issues
// fits in the common prefix, so no op-specific union members are needed.
type sqe struct {
	Opcode      uint8
	Flags       uint8
	Ioprio      uint16
	FD          int32
	Off         uint64
	Addr        uint64
	Len         uint32
	OpFlags     uint32
	UserData    uint64
	BufIndex    uint16
	Personality uint16
	SpliceFDIn  int32
	Pad2        [2]uint64
}

// cqe mirrors struct io_uring_cqe.
type cqe struct {
	UserData uint64
	Res      int32
	Flags    uint32
}

type ring struct {
	fd int

	sqRaw []byte
	cqRaw []byte
	sqes  []byte

	sqHead    *uint32
	sqTail    *uint32
	sqMask    uint32
	sqArray   []uint32
	sqEntries uint32

	cqHead    *uint32
	cqTail    *uint32
	cqMask    uint32
	cqEntries uint32
	cqesOff   uintptr
}

func setupRing(depth uint32) (*ring, error) {
	var params ringParams
	fdptr, _, errno := unix.Syscall6(sysIOURingSetup, uintptr(depth), uintptr(unsafe.Pointer(&params)), 0, 0, 0, 0)
	if errno != 0 {
		return nil, fmt.Errorf("iouring: io_uring_setup: %w", errno)
	}
	fd := int(fdptr)

	r := &ring{fd: fd, sqEntries: params.SQOff.RingEntries, cqEntries: params.CQOff.RingEntries}
	if err := r.mapQueues(&params); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return r, nil
}

func (r *ring) mapQueues(params *ringParams) error {
	sqRingSize := uintptr(params.SQOff.Array) + uintptr(params.SQEntries)*4
	cqRingSize := uintptr(params.CQOff.Cqes) + uintptr(params.CQEntries)*uintptr(unsafe.Sizeof(cqe{}))
	sqesSize := uintptr(params.SQEntries) * uintptr(unsafe.Sizeof(sqe{}))

	sqRaw, err := unix.Mmap(r.fd, ioringOffSQRing, int(sqRingSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return fmt.Errorf("iouring: mmap sq ring: %w", err)
	}
	cqRaw, err := unix.Mmap(r.fd, ioringOffCQRing, int(cqRingSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		unix.Munmap(sqRaw)
		return fmt.Errorf("iouring: mmap cq ring: %w", err)
	}
	sqes, err := unix.Mmap(r.fd, ioringOffSQEs, int(sqesSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		unix.Munmap(sqRaw)
		unix.Munmap(cqRaw)
		return fmt.Errorf("iouring: mmap sqes: %w", err)
	}

	base := unsafe.Pointer(&sqRaw[0])
	r.sqRaw = sqRaw
	r.sqHead = (*uint32)(unsafe.Add(base, uintptr(params.SQOff.Head)))
	r.sqTail = (*uint32)(unsafe.Add(base, uintptr(params.SQOff.Tail)))
	r.sqMask = *(*uint32)(unsafe.Add(base, uintptr(params.SQOff.RingMask)))
	arrayPtr := (*uint32)(unsafe.Add(base, uintptr(params.SQOff.Array)))
	r.sqArray = unsafe.Slice(arrayPtr, int(params.SQEntries))

	cqBase := unsafe.Pointer(&cqRaw[0])
	r.cqRaw = cqRaw
	r.cqHead = (*uint32)(unsafe.Add(cqBase, uintptr(params.CQOff.Head)))
	r.cqTail = (*uint32)(unsafe.Add(cqBase, uintptr(params.CQOff.Tail)))
	r.cqMask = *(*uint32)(unsafe.Add(cqBase, uintptr(params.CQOff.RingMask)))
	r.cqesOff = uintptr(params.CQOff.Cqes)

	r.sqes = sqes
	return nil
}

func (r *ring) close() {
	if r.sqes != nil {
		unix.Munmap(r.sqes)
	}
	if r.cqRaw != nil {
		unix.Munmap(r.cqRaw)
	}
	if r.sqRaw != nil {
		unix.Munmap(r.sqRaw)
	}
	unix.Close(r.fd)
}

// sqeAt returns a pointer to the raw SQE slot at index i (i.e. not yet
// masked against sqMask; callers pass tail&sqMask).
func (r *ring) sqeAt(i uint32) *sqe {
	return (*sqe)(unsafe.Add(unsafe.Pointer(&r.sqes[0]), uintptr(i)*unsafe.Sizeof(sqe{})))
}

func (r *ring) cqeAt(i uint32) *cqe {
	cqesBase := unsafe.Add(unsafe.Pointer(&r.cqRaw[0]), r.cqesOff)
	return (*cqe)(unsafe.Add(cqesBase, uintptr(i)*unsafe.Sizeof(cqe{})))
}

// bufAddr returns buf's first byte address as the uint64 io_uring wants in
// an SQE's addr field. Callers must keep buf alive (reachable from Go)
// until the operation's CQE has been reaped; every op in this package
// does so via its sender/operation struct, which the pendingTable keeps
// reachable through completionBase for exactly that duration.
func bufAddr(buf []byte) uint64 {
	if len(buf) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&buf[0])))
}

// enter calls io_uring_enter(2): submits toSubmit SQEs already queued on
// the SQ ring and optionally waits for minComplete CQEs.
func (r *ring) enter(toSubmit, minComplete uint32, flags uint32) (int, error) {
	n, _, errno := unix.Syscall6(sysIOURingEnter, uintptr(r.fd), uintptr(toSubmit), uintptr(minComplete), uintptr(flags), 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(n), nil
}
