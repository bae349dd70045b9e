package gateway

import (
	"sort"
	"sync"
	"time"
)

// LatencySummary is a percentile snapshot of recent dispatch latencies.
type LatencySummary struct {
	Samples int     `json:"samples"`
	P50Ms   float64 `json:"p50Ms"`
	P95Ms   float64 `json:"p95Ms"`
	P99Ms   float64 `json:"p99Ms"`
	MaxMs   float64 `json:"maxMs"`
}

// LatencyWindow keeps the last N dispatch durations in a ring.
type LatencyWindow struct {
	mu    sync.Mutex
	ring  []time.Duration
	next  int
	count int
}

// NewLatencyWindow creates a window of the given size (default 4096).
func NewLatencyWindow(size int) *LatencyWindow {
	if size <= 0 {
		size = 4096
	}
	return &LatencyWindow{ring: make([]time.Duration, size)}
}

// Observe records one duration. Negative values are ignored.
func (w *LatencyWindow) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	w.mu.Lock()
	w.ring[w.next] = d
	w.next = (w.next + 1) % len(w.ring)
	if w.count < len(w.ring) {
		w.count++
	}
	w.mu.Unlock()
}

// Summary computes percentiles over the samples currently in the window.
func (w *LatencyWindow) Summary() LatencySummary {
	w.mu.Lock()
	samples := make([]time.Duration, w.count)
	copy(samples, w.ring[:w.count])
	w.mu.Unlock()

	if len(samples) == 0 {
		return LatencySummary{}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return LatencySummary{
		Samples: len(samples),
		P50Ms:   millis(interpolate(samples, 0.50)),
		P95Ms:   millis(interpolate(samples, 0.95)),
		P99Ms:   millis(interpolate(samples, 0.99)),
		MaxMs:   millis(samples[len(samples)-1]),
	}
}

// interpolate returns the q-quantile of sorted using linear interpolation
// between closest ranks.
func interpolate(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + time.Duration(frac*float64(sorted[lo+1]-sorted[lo]))
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
