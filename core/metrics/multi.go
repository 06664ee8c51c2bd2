package metrics

import "github.com/kilianp07/fieldsim/core/model"

// MultiSink fans records out to several sinks. Optional recorders are only
// forwarded to sinks implementing them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSimulationEvent forwards the event, returning the first error.
func (m *MultiSink) RecordSimulationEvent(ev model.SimulationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSimulationEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiSink) RecordUnfilledTicket(ev UnfilledEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(UnfilledRecorder); ok {
			if err := rec.RecordUnfilledTicket(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *MultiSink) RecordRouteLookup(ev RouteLookupEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RouteLookupRecorder); ok {
			if err := rec.RecordRouteLookup(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *MultiSink) RecordPoolSize(center string, available int) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PoolSizeRecorder); ok {
			if err := rec.RecordPoolSize(center, available); err != nil {
				return err
			}
		}
	}
	return nil
}
