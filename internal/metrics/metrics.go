// ABOUTME: Mutex-guarded dispatch counters with point-in-time snapshots.
// ABOUTME: Success and per-tool error counters are independent, not reconciled.

package metrics

import (
	"sync"
	"time"
)

// StatusHealthy is the only status the aggregator reports. Degraded-state
// detection is a known limitation, not a bug.
const StatusHealthy = "healthy"

// Snapshot is a point-in-time view of the aggregator, shaped for the
// health endpoint. Uptime is recomputed on every read.
type Snapshot struct {
	Status      string           `json:"status"`
	Uptime      float64          `json:"uptime"`
	ToolCalls   int64            `json:"tool_calls"`
	SuccessRate float64          `json:"success_rate"`
	Errors      map[string]int64 `json:"errors"`
}

// Aggregator tracks dispatch counters for a single gateway instance.
//
// successfulCalls and errorsByTool answer different questions: the error
// counter records primary-path failures while successfulCalls records
// whether the caller ultimately got data. A fallback success after a
// primary failure increments both, so the counters are deliberately not
// required to reconcile.
type Aggregator struct {
	mu              sync.Mutex
	totalCalls      int64
	successfulCalls int64
	errorsByTool    map[string]int64
	startTime       time.Time
}

// New creates an aggregator with its start time fixed at construction.
func New() *Aggregator {
	return &Aggregator{
		errorsByTool: make(map[string]int64),
		startTime:    time.Now(),
	}
}

// RecordCall increments the total call counter. Called unconditionally
// at the start of every dispatch.
func (a *Aggregator) RecordCall() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalCalls++
}

// RecordSuccess increments the successful call counter.
func (a *Aggregator) RecordSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.successfulCalls++
}

// RecordError increments the error counter for the given tool name.
func (a *Aggregator) RecordError(tool string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errorsByTool[tool]++
}

// Snapshot returns a consistent copy of all counters. The errors map is
// copied so callers never observe later mutation.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	errs := make(map[string]int64, len(a.errorsByTool))
	for tool, n := range a.errorsByTool {
		errs[tool] = n
	}

	rate := 0.0
	if a.totalCalls > 0 {
		rate = float64(a.successfulCalls) / float64(a.totalCalls) * 100
	}

	return Snapshot{
		Status:      StatusHealthy,
		Uptime:      time.Since(a.startTime).Seconds(),
		ToolCalls:   a.totalCalls,
		SuccessRate: rate,
		Errors:      errs,
	}
}
