// Package pool recycles fixed-size []byte scratch buffers for the
// reactor's read/write paths, optionally NUMA-aware via libnuma on
// Linux. It deliberately stops at []byte: this runtime treats buffer
// value types and span wrappers as an external collaborator (see
// DESIGN.md), so nothing here wraps a slice in a reference-counted
// Buffer type the way the teacher's api.Buffer did.
package pool
