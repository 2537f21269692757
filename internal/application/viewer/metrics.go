package viewer

import "time"

// Metrics receives viewer measurements.
type Metrics interface {
	ObserveRebuild(d time.Duration, recordsByLayer map[string]int)
	BackendFailures(op string, n int)
	InteractionEdges(kind string, n int)
	SetStructures(n int)
}

// NopMetrics discards measurements.
type NopMetrics struct{}

func (NopMetrics) ObserveRebuild(time.Duration, map[string]int) {}
func (NopMetrics) BackendFailures(string, int)                  {}
func (NopMetrics) InteractionEdges(string, int)                 {}
func (NopMetrics) SetStructures(int)                            {}
