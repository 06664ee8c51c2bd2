package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/fieldsim/core/factory"
	coremetrics "github.com/kilianp07/fieldsim/core/metrics"
)

// Registerer receives the collectors of "prometheus" sinks. Tests swap it for
// a private registry.
var Registerer prometheus.Registerer = prometheus.DefaultRegisterer

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(Registerer)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})
}
