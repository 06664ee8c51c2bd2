package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fieldsim/core/metrics"
	"github.com/kilianp07/fieldsim/core/model"
)

type lineRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (l *lineRecorder) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.bodies = append(l.bodies, strings.TrimSpace(string(data)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (l *lineRecorder) last() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.bodies) == 0 {
		return ""
	}
	return l.bodies[len(l.bodies)-1]
}

func TestInfluxSink_RecordSimulationEvent(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	ev := model.SimulationEvent{
		RunID:       "r1",
		Time:        now,
		Lat:         -23.5,
		Lon:         -46.6,
		Step:        2,
		State:       model.StateTraveling,
		Technician:  "A",
		Center:      "C1",
		Site:        "S1",
		TicketIndex: 4,
		DistanceKM:  12.3456,
	}
	if err := sink.RecordSimulationEvent(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("technician_event").
		AddTag("run_id", "r1").
		AddTag("technician", "A").
		AddTag("center", "C1").
		AddTag("state", "traveling").
		AddField("lat", -23.5).
		AddField("lon", -46.6).
		AddField("step", 2).
		AddField("ticket_index", 4).
		AddField("distance_km", 12.346).
		SetTime(now).
		AddTag("site", "S1")
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if rec.last() != expected {
		t.Errorf("unexpected body:\n got %s\nwant %s", rec.last(), expected)
	}
}

func TestInfluxSink_RecordRouteLookupAndUnfilled(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	now := time.Unix(1700000000, 0)

	if err := sink.RecordRouteLookup(coremetrics.RouteLookupEvent{RunID: "r1", Center: "C1", Site: "S1", Attempts: 5, Latency: 1500 * time.Millisecond, Time: now}); err != nil {
		t.Fatalf("record lookup: %v", err)
	}
	if !strings.HasPrefix(rec.last(), "route_lookup,") || !strings.Contains(rec.last(), "found=false") || !strings.Contains(rec.last(), "attempts=5i") {
		t.Errorf("unexpected lookup line: %s", rec.last())
	}

	if err := sink.RecordUnfilledTicket(coremetrics.UnfilledEvent{RunID: "r1", TicketIndex: 2, Site: "S9", Reason: "unknown_site", Time: now}); err != nil {
		t.Fatalf("record unfilled: %v", err)
	}
	if strings.Contains(rec.last(), "center=") || !strings.Contains(rec.last(), "reason=unknown_site") {
		t.Errorf("unexpected unfilled line: %s", rec.last())
	}

	sink.now = func() time.Time { return now }
	if err := sink.RecordPoolSize("C1", 3); err != nil {
		t.Fatalf("record pool: %v", err)
	}
	if !strings.HasPrefix(rec.last(), "pool_size,center=C1 available=3i") {
		t.Errorf("unexpected pool line: %s", rec.last())
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
