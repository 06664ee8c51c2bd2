package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/fieldsim/core/metrics"
	"github.com/kilianp07/fieldsim/core/model"
)

// PromSink records simulation activity in Prometheus metrics.
type PromSink struct {
	events   *prometheus.CounterVec
	unfilled *prometheus.CounterVec
	lookups  *prometheus.CounterVec
	attempts prometheus.Histogram
	latency  prometheus.Histogram
	pool     *prometheus.GaugeVec
}

// NewPromSink registers the simulation metrics on the default Prometheus registerer.
// The endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.events, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldsim_technician_events_total",
		Help: "Lifecycle events emitted by technicians",
	}, []string{"state", "center"})); err != nil {
		return nil, err
	}
	if s.unfilled, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldsim_unfilled_tickets_total",
		Help: "Tickets that could not be served",
	}, []string{"reason", "center"})); err != nil {
		return nil, err
	}
	if s.lookups, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldsim_route_lookups_total",
		Help: "Route distance lookups by outcome",
	}, []string{"found"})); err != nil {
		return nil, err
	}
	if s.attempts, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fieldsim_route_lookup_attempts",
		Help:    "Routing requests issued per lookup",
		Buckets: []float64{1, 2, 3, 4, 5},
	})); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fieldsim_route_lookup_seconds",
		Help:    "Wall-clock duration of route lookups including retries",
		Buckets: prometheus.DefBuckets,
	})); err != nil {
		return nil, err
	}
	if s.pool, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fieldsim_available_technicians",
		Help: "Technicians waiting in a center pool",
	}, []string{"center"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSimulationEvent counts the event by state and center.
func (s *PromSink) RecordSimulationEvent(ev model.SimulationEvent) error {
	s.events.WithLabelValues(string(ev.State), ev.Center).Inc()
	return nil
}

// RecordUnfilledTicket counts a skipped ticket.
func (s *PromSink) RecordUnfilledTicket(ev coremetrics.UnfilledEvent) error {
	s.unfilled.WithLabelValues(ev.Reason, ev.Center).Inc()
	return nil
}

// RecordRouteLookup records the outcome, retries and latency of a lookup.
func (s *PromSink) RecordRouteLookup(ev coremetrics.RouteLookupEvent) error {
	s.lookups.WithLabelValues(strconv.FormatBool(ev.Found)).Inc()
	s.attempts.Observe(float64(ev.Attempts))
	s.latency.Observe(ev.Latency.Seconds())
	return nil
}

// RecordPoolSize sets the gauge of the center.
func (s *PromSink) RecordPoolSize(center string, available int) error {
	s.pool.WithLabelValues(center).Set(float64(available))
	return nil
}
