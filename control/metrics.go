// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Reactor-level metrics registry: ready-queue depth, completions
// dispatched, fatal reactor errors, shared by both reactor/epoll and
// reactor/iouring (each takes one through its WithMetrics option).

package control

import (
	"sync"
	"time"
)

// MetricsRegistry holds mutable and read-only metrics.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Incr adds delta to the int counter at key, starting from 0 if absent.
// Used for the reactor's completions-dispatched and fatal-error counts,
// which accumulate rather than overwrite.
func (mr *MetricsRegistry) Incr(key string, delta int) {
	mr.mu.Lock()
	cur, _ := mr.metrics[key].(int)
	mr.metrics[key] = cur + delta
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}
