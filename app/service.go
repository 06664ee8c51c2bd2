// Package app wires configuration into a runnable simulation service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	apitimeline "github.com/kilianp07/fieldsim/api/timeline"
	_ "github.com/kilianp07/fieldsim/app/plugins"
	"github.com/kilianp07/fieldsim/config"
	"github.com/kilianp07/fieldsim/core/dispatch"
	"github.com/kilianp07/fieldsim/core/eventlog"
	coremetrics "github.com/kilianp07/fieldsim/core/metrics"
	"github.com/kilianp07/fieldsim/core/model"
	coremon "github.com/kilianp07/fieldsim/core/monitoring"
	"github.com/kilianp07/fieldsim/core/routing"
	"github.com/kilianp07/fieldsim/core/timeline"
	"github.com/kilianp07/fieldsim/infra/dataset"
	"github.com/kilianp07/fieldsim/infra/logger"
	"github.com/kilianp07/fieldsim/infra/metrics"
	"github.com/kilianp07/fieldsim/infra/monitoring"
	"github.com/kilianp07/fieldsim/infra/mqtt"
)

// Service owns one simulation run and the outputs attached to its timeline.
type Service struct {
	cfg       *config.Config
	log       logger.Logger
	monitor   coremon.Monitor
	sim       *dispatch.Simulation
	timeline  *timeline.Timeline
	sink      coremetrics.MetricsSink
	store     eventlog.Store
	recorder  *eventlog.Recorder
	publisher *mqtt.Publisher
	api       *apitimeline.Server

	mu     sync.Mutex
	report *dispatch.Report
}

// New loads the dataset and builds every configured component.
func New(cfg *config.Config) (*Service, error) {
	return NewWithData(cfg, nil)
}

// NewWithData is New with an already loaded dataset. A nil data loads the
// files named in cfg.Data.
func NewWithData(cfg *config.Config, data *model.Dataset) (svc *Service, err error) {
	if err := logger.Configure(logger.Options{Level: cfg.Logging.Level, Console: cfg.Logging.Console}); err != nil {
		return nil, err
	}
	log := logger.New("service")
	settings, err := cfg.Simulation.Settings()
	if err != nil {
		return nil, err
	}

	monitor, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	s := &Service{cfg: cfg, log: log, monitor: monitor, timeline: timeline.New()}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	if data == nil {
		data, err = dataset.Load(cfg.Data)
		if err != nil {
			return nil, fmt.Errorf("dataset: %w", err)
		}
	}
	log.Infof("loaded %d tickets, %d technicians, %d centers, %d sites",
		len(data.Tickets), len(data.Technicians), len(data.Centers), len(data.Sites))

	oracle, err := routing.NewOracle(cfg.Routing, logger.New("routing"))
	if err != nil {
		return nil, fmt.Errorf("routing: %w", err)
	}
	s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	s.store, err = eventlog.Open(cfg.EventLog)
	if err != nil {
		return nil, fmt.Errorf("eventlog: %w", err)
	}
	if s.store != nil {
		s.recorder = eventlog.NewRecorder(s.store, logger.New("eventlog"))
		s.timeline.AddObserver(s.recorder)
	}
	if cfg.MQTT.Enabled() {
		s.publisher, err = mqtt.NewPublisher(cfg.MQTT, logger.New("mqtt"), monitor)
		if err != nil {
			return nil, fmt.Errorf("mqtt: %w", err)
		}
		s.timeline.AddObserver(s.publisher)
	}

	s.sim, err = dispatch.New(data, settings, oracle,
		dispatch.WithLogger(logger.New("dispatch")),
		dispatch.WithMetrics(s.sink),
		dispatch.WithMonitor(monitor),
		dispatch.WithTimeline(s.timeline),
	)
	if err != nil {
		return nil, err
	}
	s.api = apitimeline.NewServer(s.timeline, cfg.API.Token, logger.New("api"))
	if s.store != nil {
		s.api.SetStore(s.store)
	}
	return s, nil
}

// Simulation returns the underlying simulation.
func (s *Service) Simulation() *dispatch.Simulation { return s.sim }

// Timeline returns the event timeline of the run.
func (s *Service) Timeline() *timeline.Timeline { return s.timeline }

// Report returns the report of the finished run, or nil.
func (s *Service) Report() *dispatch.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Run executes the simulation once.
func (s *Service) Run(ctx context.Context) (*dispatch.Report, error) {
	defer s.monitor.Recover()
	start := time.Now()
	rep, err := s.sim.Run(ctx)
	// Live stream clients see the end of the run as a closed stream.
	s.timeline.Close()
	if rep != nil {
		s.mu.Lock()
		s.report = rep
		s.mu.Unlock()
		s.api.SetReport(rep)
		s.log.Infof("run %s: %d/%d tickets completed, %d unfilled in %s",
			rep.RunID, rep.Summary.Completed, rep.Summary.Considered, len(rep.Unfilled), time.Since(start).Round(time.Millisecond))
	}
	if s.recorder != nil && s.recorder.Failed() > 0 {
		s.log.Warnf("%d events could not be written to the event log", s.recorder.Failed())
	}
	if err != nil {
		s.monitor.CaptureException(err, map[string]string{"module": "service", "run_id": s.sim.RunID()})
	}
	return rep, err
}

// Serve starts the playback API and the metrics endpoint, runs the
// simulation and keeps serving until ctx is cancelled.
func (s *Service) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 2)
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				errc <- fmt.Errorf("prom server: %w", err)
			}
		}()
	}
	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: s.api.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	go func() {
		s.log.Infof("serving playback API on %s", s.cfg.API.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("api server: %w", err)
		}
	}()

	if _, err := s.Run(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		return err
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	if s.timeline != nil {
		s.timeline.Close()
	}
	if s.publisher != nil {
		s.publisher.Disconnect()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("eventlog: %w", err))
		}
	}
	coremetrics.CloseSink(s.sink)
	if s.monitor != nil {
		s.monitor.Flush(2 * time.Second)
	}
	return errors.Join(errs...)
}
