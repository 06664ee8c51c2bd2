// Package timeline holds the ordered, append-only record of simulation events
// and answers playback queries over it.
package timeline

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/fieldsim/core/model"
	"github.com/kilianp07/fieldsim/internal/eventbus"
)

// ErrOutOfOrder is returned when an event is older than the last appended one.
var ErrOutOfOrder = errors.New("timeline: event out of order")

// Observer is notified synchronously of every appended event.
type Observer interface {
	OnEvent(ev model.SimulationEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev model.SimulationEvent)

func (f ObserverFunc) OnEvent(ev model.SimulationEvent) { f(ev) }

// Timeline is safe for concurrent readers while a simulation appends.
type Timeline struct {
	mu        sync.RWMutex
	events    []model.SimulationEvent
	observers []Observer
	bus       *eventbus.TypedBus[model.SimulationEvent]
}

// New returns an empty timeline.
func New() *Timeline {
	return &Timeline{bus: eventbus.NewTyped[model.SimulationEvent](256)}
}

// AddObserver registers o for subsequent appends.
func (t *Timeline) AddObserver(o Observer) {
	t.mu.Lock()
	t.observers = append(t.observers, o)
	t.mu.Unlock()
}

// Append records ev. Events must arrive in non-decreasing time order.
func (t *Timeline) Append(ev model.SimulationEvent) error {
	t.mu.Lock()
	if n := len(t.events); n > 0 && ev.Time.Before(t.events[n-1].Time) {
		last := t.events[n-1].Time
		t.mu.Unlock()
		return fmt.Errorf("%w: %s before %s", ErrOutOfOrder, ev.Time.Format(time.RFC3339), last.Format(time.RFC3339))
	}
	t.events = append(t.events, ev)
	observers := t.observers
	t.mu.Unlock()

	for _, o := range observers {
		o.OnEvent(ev)
	}
	t.bus.Publish(ev)
	return nil
}

// Len returns the number of events.
func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.events)
}

// All returns a copy of every event in emission order.
func (t *Timeline) All() []model.SimulationEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]model.SimulationEvent(nil), t.events...)
}

// EventsUpTo returns every event with a timestamp at or before ts.
func (t *Timeline) EventsUpTo(ts time.Time) []model.SimulationEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := sort.Search(len(t.events), func(i int) bool { return t.events[i].Time.After(ts) })
	return append([]model.SimulationEvent(nil), t.events[:n]...)
}

// ByTechnician returns the events of one technician in emission order.
func (t *Timeline) ByTechnician(id string) []model.SimulationEvent {
	id = model.NormalizeID(id)
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []model.SimulationEvent
	for _, ev := range t.events {
		if ev.Technician == id {
			out = append(out, ev)
		}
	}
	return out
}

// StateAt returns, per technician, the latest event at or before ts.
func (t *Timeline) StateAt(ts time.Time) map[string]model.SimulationEvent {
	out := make(map[string]model.SimulationEvent)
	for _, ev := range t.EventsUpTo(ts) {
		out[ev.Technician] = ev
	}
	return out
}

// Bounds returns the first and last event timestamps. ok is false when empty.
func (t *Timeline) Bounds() (first, last time.Time, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.events) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return t.events[0].Time, t.events[len(t.events)-1].Time, true
}

// Subscribe returns a channel receiving events appended from now on. Slow
// subscribers miss events; EventsUpTo can be used to resynchronise.
func (t *Timeline) Subscribe() <-chan model.SimulationEvent { return t.bus.Subscribe() }

// Unsubscribe releases a channel returned by Subscribe.
func (t *Timeline) Unsubscribe(ch <-chan model.SimulationEvent) { t.bus.Unsubscribe(ch) }

// Close ends every live subscription.
func (t *Timeline) Close() { t.bus.Close() }
