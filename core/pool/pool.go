// Package pool tracks which technicians are available at each control center.
package pool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/fieldsim/core/model"
)

var (
	// ErrNotInFlight is returned when releasing a technician that was never acquired.
	ErrNotInFlight = errors.New("technician is not in flight")
	// ErrWrongCenter is returned when a technician is released into another center's pool.
	ErrWrongCenter = errors.New("technician belongs to another center")
	// ErrDuplicate is returned by New when a technician is listed twice.
	ErrDuplicate = errors.New("duplicate technician")
)

// Pool holds, per control center, the FIFO sequence of available technicians.
// A technician is either in exactly one center queue or in flight.
type Pool struct {
	mu       sync.Mutex
	queues   map[string]*Queue[string]
	home     map[string]string
	inFlight map[string]bool
}

// New builds a pool from the technician table, preserving input order within
// each center.
func New(techs []model.Technician) (*Pool, error) {
	p := &Pool{
		queues:   make(map[string]*Queue[string]),
		home:     make(map[string]string, len(techs)),
		inFlight: make(map[string]bool),
	}
	for _, t := range techs {
		id, center := model.NormalizeID(t.ID), model.NormalizeID(t.Center)
		if _, ok := p.home[id]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, id)
		}
		p.home[id] = center
		q, ok := p.queues[center]
		if !ok {
			q = NewQueue[string]()
			p.queues[center] = q
		}
		q.PushBack(id)
	}
	return p, nil
}

// Acquire removes and returns the head of the center's queue. ok is false when
// the center has no available technician.
func (p *Pool) Acquire(center string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, found := p.queues[model.NormalizeID(center)]
	if !found {
		return "", false
	}
	id, ok := q.PopFront()
	if ok {
		p.inFlight[id] = true
	}
	return id, ok
}

// Release appends an in-flight technician at the tail of its center's queue.
func (p *Pool) Release(center, id string) error {
	return p.giveBack(center, id, (*Queue[string]).PushBack)
}

// Restore puts an in-flight technician back at the head of its center's
// queue, leaving the queue exactly as it was before Acquire.
func (p *Pool) Restore(center, id string) error {
	return p.giveBack(center, id, (*Queue[string]).PushFront)
}

func (p *Pool) giveBack(center, id string, push func(*Queue[string], string)) error {
	center, id = model.NormalizeID(center), model.NormalizeID(id)
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.inFlight[id] {
		return fmt.Errorf("%w: %s", ErrNotInFlight, id)
	}
	if p.home[id] != center {
		return fmt.Errorf("%w: %s belongs to %s, not %s", ErrWrongCenter, id, p.home[id], center)
	}
	delete(p.inFlight, id)
	push(p.queues[center], id)
	return nil
}

// Available returns the queue of the center, head first.
func (p *Pool) Available(center string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, ok := p.queues[model.NormalizeID(center)]
	if !ok {
		return nil
	}
	return q.Items()
}

// InFlight reports whether the technician is currently serving a ticket.
func (p *Pool) InFlight(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight[model.NormalizeID(id)]
}

// Centers returns the known center identifiers in sorted order.
func (p *Pool) Centers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.queues))
	for c := range p.queues {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Snapshot copies every center queue.
func (p *Pool) Snapshot() map[string][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string][]string, len(p.queues))
	for c, q := range p.queues {
		out[c] = q.Items()
	}
	return out
}
