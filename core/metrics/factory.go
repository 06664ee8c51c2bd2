package metrics

import (
	"fmt"
	"strings"

	"github.com/kilianp07/fieldsim/core/factory"
)

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink adds a metrics sink factory identified by name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// Sinks lists the registered sink names.
func Sinks() []string { return sinkRegistry.Names() }

// NewMetricsSink builds the sinks listed under metrics.sinks. Entries of type
// "nop" or "none" are skipped; no remaining entry yields a NopSink and
// several are fanned out through a MultiSink. When one entry fails, the
// sinks already built are closed.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	var sinks []MetricsSink
	for i, c := range cfgs {
		switch strings.ToLower(strings.TrimSpace(c.Type)) {
		case "nop", "none":
			continue
		}
		s, err := sinkRegistry.Create(c)
		if err != nil {
			for _, built := range sinks {
				CloseSink(built)
			}
			return nil, fmt.Errorf("metrics sink %d (%s): %w", i, c.Type, err)
		}
		sinks = append(sinks, s)
	}
	switch len(sinks) {
	case 0:
		return NopSink{}, nil
	case 1:
		return sinks[0], nil
	}
	return NewMultiSink(sinks...), nil
}

// CloseSink releases the resources of s and, for a MultiSink, of every
// wrapped sink. Sinks without a Close method are left alone.
func CloseSink(s MetricsSink) {
	switch v := s.(type) {
	case *MultiSink:
		for _, inner := range v.Sinks {
			CloseSink(inner)
		}
	case interface{ Close() }:
		v.Close()
	}
}
