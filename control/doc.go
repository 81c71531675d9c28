// Package control is the reactor's ambient configuration, metrics and
// debug-introspection layer: ConfigStore holds per-context tunables,
// MetricsRegistry accumulates reactor-level counters, and DebugProbes
// exposes named runtime inspection hooks. Linux-only, matching this
// runtime's epoll/io_uring scope.
//
// Author: momentics <momentics@gmail.com>
package control
