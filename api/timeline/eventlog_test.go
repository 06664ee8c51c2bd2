package timeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/kilianp07/fieldsim/core/eventlog"
	"github.com/kilianp07/fieldsim/core/model"
	coretl "github.com/kilianp07/fieldsim/core/timeline"
)

type memStore struct {
	events []model.SimulationEvent
	err    error
}

func (m *memStore) Append(_ context.Context, ev model.SimulationEvent) error {
	m.events = append(m.events, ev)
	return nil
}

func (m *memStore) Query(_ context.Context, q eventlog.Query) ([]model.SimulationEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.SimulationEvent
	for _, ev := range m.events {
		if q.Matches(ev) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func storedEvents() *memStore {
	m := &memStore{}
	for _, ev := range []model.SimulationEvent{
		event(0, "A", model.StateAvailable),
		event(10*time.Minute, "A", model.StateTraveling),
		event(0, "B", model.StateAvailable),
	} {
		ev.RunID = "run-1"
		_ = m.Append(context.Background(), ev)
	}
	old := event(0, "A", model.StateAvailable)
	old.RunID = "run-0"
	_ = m.Append(context.Background(), old)
	return m
}

func TestEventLogQuery(t *testing.T) {
	srv := NewServer(coretl.New(), "tok", nil)
	srv.SetStore(storedEvents())
	h := srv.Handler()

	if rr := get(t, h, "/api/eventlog", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	cases := []struct {
		url  string
		want int
	}{
		{"/api/eventlog", 4},
		{"/api/eventlog?run_id=run-1", 3},
		{"/api/eventlog?run_id=run-1&technician=a", 2},
		{"/api/eventlog?run_id=run-1&until=2024-03-01T08:05:00Z", 2},
		{"/api/eventlog?run_id=missing", 0},
	}
	for _, c := range cases {
		rr := get(t, h, c.url, "tok")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status %d: %s", c.url, rr.Code, rr.Body.String())
		}
		var evs []model.SimulationEvent
		if err := json.NewDecoder(rr.Body).Decode(&evs); err != nil {
			t.Fatalf("%s: decode: %v", c.url, err)
		}
		if evs == nil || len(evs) != c.want {
			t.Fatalf("%s: expected %d events, got %v", c.url, c.want, evs)
		}
	}

	if rr := get(t, h, "/api/eventlog?until=soon", "tok"); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad until, got %d", rr.Code)
	}
}

func TestEventLogErrors(t *testing.T) {
	srv := NewServer(coretl.New(), "", nil)
	h := srv.Handler()
	if rr := get(t, h, "/api/eventlog", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a store, got %d", rr.Code)
	}

	srv.SetStore(&memStore{err: errors.New("disk gone")})
	if rr := get(t, h, "/api/eventlog", ""); rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on store error, got %d", rr.Code)
	}
}
