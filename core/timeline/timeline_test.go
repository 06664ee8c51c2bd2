package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fieldsim/core/model"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func ev(tech string, offset time.Duration, state model.State) model.SimulationEvent {
	return model.SimulationEvent{Technician: tech, Time: base.Add(offset), State: state}
}

func TestAppendRejectsOutOfOrder(t *testing.T) {
	tl := New()
	require.NoError(t, tl.Append(ev("A", time.Minute, model.StateAvailable)))
	require.NoError(t, tl.Append(ev("B", time.Minute, model.StateAvailable)))
	err := tl.Append(ev("A", 0, model.StateTraveling))
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.Equal(t, 2, tl.Len())
}

func TestEventsUpToMonotonic(t *testing.T) {
	tl := New()
	for i := 0; i < 10; i++ {
		require.NoError(t, tl.Append(ev("A", time.Duration(i)*time.Minute, model.StateAvailable)))
	}
	assert.Empty(t, tl.EventsUpTo(base.Add(-time.Second)))
	assert.Len(t, tl.EventsUpTo(base), 1)
	assert.Len(t, tl.EventsUpTo(base.Add(9*time.Minute)), 10)

	prev := 0
	for s := -60; s <= 700; s += 7 {
		got := tl.EventsUpTo(base.Add(time.Duration(s) * time.Second))
		require.GreaterOrEqual(t, len(got), prev)
		for _, e := range got {
			require.False(t, e.Time.After(base.Add(time.Duration(s)*time.Second)))
		}
		prev = len(got)
	}
}

func TestEventsUpToReturnsCopy(t *testing.T) {
	tl := New()
	require.NoError(t, tl.Append(ev("A", 0, model.StateAvailable)))
	got := tl.EventsUpTo(base)
	got[0].Technician = "MUTATED"
	assert.Equal(t, "A", tl.All()[0].Technician)
}

func TestStateAtAndByTechnician(t *testing.T) {
	tl := New()
	require.NoError(t, tl.Append(ev("A", 0, model.StateAvailable)))
	require.NoError(t, tl.Append(ev("B", 0, model.StateAvailable)))
	require.NoError(t, tl.Append(ev("A", time.Minute, model.StateTraveling)))
	require.NoError(t, tl.Append(ev("A", 3*time.Minute, model.StateServicing)))

	state := tl.StateAt(base.Add(2 * time.Minute))
	assert.Equal(t, model.StateTraveling, state["A"].State)
	assert.Equal(t, model.StateAvailable, state["B"].State)
	assert.Len(t, tl.ByTechnician("a"), 3)

	first, last, ok := tl.Bounds()
	require.True(t, ok)
	assert.Equal(t, base, first)
	assert.Equal(t, base.Add(3*time.Minute), last)
}

func TestObserversAndSubscribers(t *testing.T) {
	tl := New()
	var seen []string
	tl.AddObserver(ObserverFunc(func(e model.SimulationEvent) { seen = append(seen, e.Technician) }))
	ch := tl.Subscribe()
	require.NoError(t, tl.Append(ev("A", 0, model.StateAvailable)))
	assert.Equal(t, []string{"A"}, seen)
	got := <-ch
	assert.Equal(t, "A", got.Technician)
	tl.Close()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestMapper(t *testing.T) {
	m := Mapper{Start: base, Speed: 60}
	assert.Equal(t, base.Add(10*time.Minute), m.Time(10))
	assert.InDelta(t, 10.0, m.Clock(base.Add(10*time.Minute)), 1e-9)
	assert.InDelta(t, -1.0, m.Clock(base.Add(-time.Minute)), 1e-9)
	assert.InDelta(t, 10.0, m.Delay(10*time.Minute), 1e-9)
}

func TestBoundsEmpty(t *testing.T) {
	_, _, ok := New().Bounds()
	assert.False(t, ok)
}
