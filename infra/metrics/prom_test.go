package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/fieldsim/core/factory"
	coremetrics "github.com/kilianp07/fieldsim/core/metrics"
	"github.com/kilianp07/fieldsim/core/model"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	_ = sink.RecordSimulationEvent(model.SimulationEvent{State: model.StateTraveling, Center: "C1"})
	_ = sink.RecordSimulationEvent(model.SimulationEvent{State: model.StateTraveling, Center: "C1"})
	_ = sink.RecordUnfilledTicket(coremetrics.UnfilledEvent{Reason: "route_not_found", Center: "C1"})
	_ = sink.RecordRouteLookup(coremetrics.RouteLookupEvent{Attempts: 5, Latency: 200 * time.Millisecond})
	_ = sink.RecordPoolSize("C1", 3)

	expected := `
# HELP fieldsim_technician_events_total Lifecycle events emitted by technicians
# TYPE fieldsim_technician_events_total counter
fieldsim_technician_events_total{center="C1",state="traveling"} 2
`
	if err := testutil.CollectAndCompare(sink.events, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if v := testutil.ToFloat64(sink.unfilled.WithLabelValues("route_not_found", "C1")); v != 1 {
		t.Errorf("unfilled = %v", v)
	}
	if v := testutil.ToFloat64(sink.lookups.WithLabelValues("false")); v != 1 {
		t.Errorf("lookups = %v", v)
	}
	if c := testutil.CollectAndCount(sink.latency); c == 0 {
		t.Errorf("latency not recorded")
	}
	if v := testutil.ToFloat64(sink.pool.WithLabelValues("C1")); v != 3 {
		t.Errorf("pool gauge = %v", v)
	}
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first sink: %v", err)
	}
	second, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	_ = first.RecordPoolSize("C1", 1)
	_ = second.RecordPoolSize("C1", 4)
	if v := testutil.ToFloat64(first.pool.WithLabelValues("C1")); v != 4 {
		t.Fatalf("collectors not shared, got %v", v)
	}
}

func TestRegisteredSinks(t *testing.T) {
	prev := Registerer
	Registerer = prometheus.NewRegistry()
	defer func() { Registerer = prev }()

	sink, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "prometheus"}, {Type: "nop"}})
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if _, ok := sink.(*coremetrics.MultiSink); !ok {
		t.Fatalf("expected MultiSink, got %T", sink)
	}
	if _, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "statsd"}}); err == nil {
		t.Fatalf("expected error for unknown sink")
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	_ = sink.RecordPoolSize("C7", 2)
	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `fieldsim_available_technicians{center="C7"} 2`) {
		t.Fatalf("metric missing from body:\n%s", body)
	}
}

func TestStartPromServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- StartPromServer(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("server error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
