// Package metrics provides a small instrumentation surface for pipeline
// runs with a no-op default and a Prometheus-backed implementation.
package metrics

import (
	"sync"

	"github.com/banshee-data/odour.report/internal/timeutil"
)

// Recorder defines the metrics surface used across the codebase.
type Recorder interface {
	IncRun(surface, outcome string)
	ObserveRunSeconds(surface, outcome string, seconds float64)
	ObserveRows(valid, dropped int)
}

type noopRecorder struct{}

func (noopRecorder) IncRun(string, string)                     {}
func (noopRecorder) ObserveRunSeconds(string, string, float64) {}
func (noopRecorder) ObserveRows(int, int)                      {}

var (
	recMu    sync.RWMutex
	recorder Recorder       = noopRecorder{}
	clock    timeutil.Clock = timeutil.RealClock{}
)

// Default returns the current recorder.
func Default() Recorder {
	recMu.RLock()
	defer recMu.RUnlock()
	return recorder
}

// SetRecorder swaps the global recorder. Passing nil restores the no-op.
func SetRecorder(r Recorder) {
	recMu.Lock()
	defer recMu.Unlock()
	if r == nil {
		r = noopRecorder{}
	}
	recorder = r
}

// SetClock replaces the clock used by TimeRun. Passing nil restores the
// wall clock.
func SetClock(c timeutil.Clock) {
	recMu.Lock()
	defer recMu.Unlock()
	if c == nil {
		c = timeutil.RealClock{}
	}
	clock = c
}

func currentClock() timeutil.Clock {
	recMu.RLock()
	defer recMu.RUnlock()
	return clock
}

// TimeRun starts timing a pipeline run on the given surface ("http", "cli").
// The returned func records the outcome label when the run finishes.
func TimeRun(surface string) func(outcome string) {
	c := currentClock()
	start := c.Now()
	return func(outcome string) {
		rec := Default()
		rec.IncRun(surface, outcome)
		rec.ObserveRunSeconds(surface, outcome, c.Since(start).Seconds())
	}
}
