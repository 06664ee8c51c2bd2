// Package clock implements the virtual clock driving a discrete-event
// simulation. Work is expressed as continuations scheduled at virtual times
// and executed in non-decreasing time order; entries sharing a time run in
// submission order.
package clock

import (
	"container/heap"
	"context"
)

type entry struct {
	at  float64
	seq uint64
	fn  func()
}

type queue []entry

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].at == q[j].at {
		return q[i].seq < q[j].seq
	}
	return q[i].at < q[j].at
}

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) { *q = append(*q, x.(entry)) }

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = entry{}
	*q = old[:n-1]
	return e
}

// Clock is a single-threaded virtual clock. It is not safe for concurrent use;
// continuations run on the goroutine calling Run or Step.
type Clock struct {
	now     float64
	seq     uint64
	pending queue
}

// New returns a clock at time zero.
func New() *Clock { return &Clock{} }

// Now returns the current virtual time.
func (c *Clock) Now() float64 { return c.now }

// Pending reports the number of scheduled continuations.
func (c *Clock) Pending() int { return c.pending.Len() }

// Schedule runs fn after delay virtual units. Negative delays are treated as
// zero so the clock never moves backwards.
func (c *Clock) Schedule(delay float64, fn func()) {
	if delay < 0 {
		delay = 0
	}
	c.ScheduleAt(c.now+delay, fn)
}

// ScheduleAt runs fn at virtual time at, or now if at is in the past.
func (c *Clock) ScheduleAt(at float64, fn func()) {
	if at < c.now {
		at = c.now
	}
	heap.Push(&c.pending, entry{at: at, seq: c.seq, fn: fn})
	c.seq++
}

// Step advances to the earliest pending continuation and runs it. It returns
// false when nothing is pending.
func (c *Clock) Step() bool {
	if c.pending.Len() == 0 {
		return false
	}
	e := heap.Pop(&c.pending).(entry)
	c.now = e.at
	e.fn()
	return true
}

// Run executes continuations until none remain or ctx is cancelled.
func (c *Clock) Run(ctx context.Context) error {
	for c.pending.Len() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		c.Step()
	}
	return nil
}
