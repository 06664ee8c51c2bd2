package eventlog

import (
	"context"
	"time"

	"github.com/kilianp07/fieldsim/core/logger"
	"github.com/kilianp07/fieldsim/core/model"
)

// Recorder appends every observed event to a Store. It implements
// timeline.Observer.
type Recorder struct {
	store   Store
	log     logger.Logger
	timeout time.Duration
	failed  int
}

func NewRecorder(store Store, log logger.Logger) *Recorder {
	if log == nil {
		log = logger.Nop{}
	}
	return &Recorder{store: store, log: log, timeout: 5 * time.Second}
}

func (r *Recorder) OnEvent(ev model.SimulationEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.store.Append(ctx, ev); err != nil {
		r.failed++
		r.log.Errorf("event log append failed: %v", err)
	}
}

// Failed returns the number of events that could not be stored.
func (r *Recorder) Failed() int { return r.failed }
