package metrics

import (
	"time"

	"github.com/kilianp07/fieldsim/core/model"
)

// MetricsSink records the lifecycle events of a simulation run.
type MetricsSink interface {
	RecordSimulationEvent(ev model.SimulationEvent) error
}

// UnfilledEvent describes a ticket the scheduler could not serve.
type UnfilledEvent struct {
	RunID       string
	TicketIndex int
	Site        string
	Center      string
	Reason      string
	Time        time.Time
}

// UnfilledRecorder records skipped tickets.
type UnfilledRecorder interface {
	RecordUnfilledTicket(ev UnfilledEvent) error
}

// RouteLookupEvent describes one oracle query including its retries.
type RouteLookupEvent struct {
	RunID      string
	Center     string
	Site       string
	Attempts   int
	Found      bool
	DistanceKM float64
	Latency    time.Duration
	Time       time.Time
}

// RouteLookupRecorder records oracle queries.
type RouteLookupRecorder interface {
	RecordRouteLookup(ev RouteLookupEvent) error
}

// PoolSizeRecorder records the number of available technicians of a center.
type PoolSizeRecorder interface {
	RecordPoolSize(center string, available int) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSimulationEvent(model.SimulationEvent) error { return nil }
func (NopSink) RecordUnfilledTicket(UnfilledEvent) error           { return nil }
func (NopSink) RecordRouteLookup(RouteLookupEvent) error           { return nil }
func (NopSink) RecordPoolSize(string, int) error                   { return nil }
