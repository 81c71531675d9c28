// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor holds the backend-agnostic Backend contract, run-mode
// and open-flag constants, and open-flag computation shared by the
// epoll and io_uring reactor implementations in its epoll and iouring
// subpackages. Linux only; no Windows/IOCP backend.
package reactor
