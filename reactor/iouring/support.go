// File: reactor/iouring/support.go
// Author: momentics <momentics@gmail.com>
//
// Supported probes whether io_uring is usable on this kernel, grounded on
// _examples/waftester-waftester/pkg/iouring/iouring_linux.go's Supported,
// which does the same minimal-ring probe.
package iouring

// Supported reports whether io_uring_setup succeeds on this host. Callers
// that want to fall back to reactor/epoll when io_uring is unavailable
// (older kernels, seccomp-restricted containers) should check this before
// calling New.
func Supported() bool {
	r, err := setupRing(2)
	if err != nil {
		return false
	}
	r.close()
	return true
}
