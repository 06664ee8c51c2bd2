// Package dispatch runs the discrete-event simulation of field technicians
// serving tickets. A Simulation assigns each ticket to a technician of the
// site's control center and drives the technician through its lifecycle on a
// virtual clock, recording every transition in a timeline.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/fieldsim/core/clock"
	"github.com/kilianp07/fieldsim/core/logger"
	"github.com/kilianp07/fieldsim/core/metrics"
	"github.com/kilianp07/fieldsim/core/model"
	"github.com/kilianp07/fieldsim/core/monitoring"
	"github.com/kilianp07/fieldsim/core/pool"
	"github.com/kilianp07/fieldsim/core/routing"
	"github.com/kilianp07/fieldsim/core/timeline"
)

// ErrAlreadyRun is returned when Run is called twice on the same Simulation.
var ErrAlreadyRun = errors.New("dispatch: simulation already run")

// Simulation holds the state of one run. It is not reusable: create a new
// Simulation for every run.
type Simulation struct {
	runID    string
	settings Settings
	data     *model.Dataset
	oracle   routing.Oracle
	clock    *clock.Clock
	pool     *pool.Pool
	timeline *timeline.Timeline
	mapper   timeline.Mapper
	logger   logger.Logger
	metrics  metrics.MetricsSink
	monitor  monitoring.Monitor
	locate   func(center string) (model.Coordinate, bool)

	ctx    context.Context
	ran    bool
	report *Report
}

// Option customises a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// WithMetrics sets the metrics sink. Optional recorders implemented by the
// sink are used as well.
func WithMetrics(m metrics.MetricsSink) Option {
	return func(s *Simulation) { s.metrics = m }
}

// WithMonitor sets the error monitor.
func WithMonitor(m monitoring.Monitor) Option {
	return func(s *Simulation) { s.monitor = m }
}

// WithTimeline makes the simulation append to tl instead of a fresh timeline.
func WithTimeline(tl *timeline.Timeline) Option {
	return func(s *Simulation) { s.timeline = tl }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(s *Simulation) { s.runID = id }
}

// New prepares a simulation over data. The technician pools are built from
// the technician table.
func New(data *model.Dataset, settings Settings, oracle routing.Oracle, opts ...Option) (*Simulation, error) {
	if data == nil {
		return nil, errors.New("dispatch: nil dataset")
	}
	if oracle == nil {
		return nil, errors.New("dispatch: nil route oracle")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	p, err := pool.New(data.Technicians)
	if err != nil {
		return nil, fmt.Errorf("dispatch: build pool: %w", err)
	}
	s := &Simulation{
		settings: settings,
		data:     data,
		oracle:   oracle,
		clock:    clock.New(),
		pool:     p,
		mapper:   timeline.Mapper{Start: settings.Start, Speed: settings.SpeedFactor},
		logger:   logger.Nop{},
		metrics:  metrics.NopSink{},
		monitor:  monitoring.NopMonitor{},
		locate:   data.CenterLocation,
	}
	for _, o := range opts {
		o(s)
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	if s.timeline == nil {
		s.timeline = timeline.New()
	}
	s.timeline.AddObserver(timeline.ObserverFunc(s.recordEvent))
	return s, nil
}

func (s *Simulation) RunID() string                { return s.runID }
func (s *Simulation) Settings() Settings           { return s.settings }
func (s *Simulation) Timeline() *timeline.Timeline { return s.timeline }
func (s *Simulation) Pool() *pool.Pool             { return s.pool }
func (s *Simulation) Mapper() timeline.Mapper      { return s.mapper }

// Run dispatches the selected tickets and advances the clock until no
// lifecycle is pending. Unfillable tickets are reported, not returned as
// errors. A cancelled context stops the run; the partial report is returned
// together with the context error.
func (s *Simulation) Run(ctx context.Context) (*Report, error) {
	if s.ran {
		return nil, ErrAlreadyRun
	}
	s.ran = true
	s.ctx = ctx

	tickets := model.SelectTickets(s.data.Tickets, s.settings.Start, s.settings.End, s.settings.MaxTickets)
	s.report = newReport(s.runID, len(tickets))
	s.logger.Infof("run %s: %d of %d tickets selected, speed factor %v, acquisition %s",
		s.runID, len(tickets), len(s.data.Tickets), s.settings.SpeedFactor, s.settings.Acquisition)

	for _, t := range tickets {
		if s.settings.Acquisition == AcquireOnTicket {
			s.clock.ScheduleAt(s.clockOf(t.Scheduled), func() { s.dispatch(t) })
			continue
		}
		s.dispatch(t)
	}
	s.recordPoolSizes()

	err := s.clock.Run(ctx)
	s.report.finish(s.mapper, s.clock.Now())
	if err != nil {
		return s.report, fmt.Errorf("dispatch: run %s interrupted: %w", s.runID, err)
	}
	s.logger.Infof("run %s: %d dispatched, %d completed, %d unfilled",
		s.runID, s.report.Summary.Dispatched, s.report.Summary.Completed, len(s.report.Unfilled))
	return s.report, nil
}

func (s *Simulation) clockOf(t time.Time) float64 {
	return s.mapper.Clock(t)
}

func (s *Simulation) recordEvent(ev model.SimulationEvent) {
	if err := s.metrics.RecordSimulationEvent(ev); err != nil {
		s.logger.Errorf("metrics error: %v", err)
	}
}

func (s *Simulation) recordPoolSize(center string) {
	pr, ok := s.metrics.(metrics.PoolSizeRecorder)
	if !ok {
		return
	}
	if err := pr.RecordPoolSize(center, len(s.pool.Available(center))); err != nil {
		s.logger.Errorf("pool size metrics error: %v", err)
	}
}

func (s *Simulation) recordPoolSizes() {
	for _, c := range s.pool.Centers() {
		s.recordPoolSize(c)
	}
}
