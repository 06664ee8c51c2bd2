package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fieldsim/core/metrics"
	"github.com/kilianp07/fieldsim/core/model"
	"github.com/kilianp07/fieldsim/infra/logger"
)

// InfluxConfig holds the connection settings of an InfluxSink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes simulation events to an InfluxDB instance using the official client.
// Points are stamped with simulated time so a run can be replayed on a dashboard.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
	now      func() time.Time
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
		now:      time.Now,
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSimulationEvent writes one technician transition.
func (s *InfluxSink) RecordSimulationEvent(ev model.SimulationEvent) error {
	p := write.NewPointWithMeasurement("technician_event").
		AddTag("run_id", ev.RunID).
		AddTag("technician", ev.Technician).
		AddTag("center", ev.Center).
		AddTag("state", string(ev.State)).
		AddField("lat", ev.Lat).
		AddField("lon", ev.Lon).
		AddField("step", ev.Step).
		AddField("ticket_index", ev.TicketIndex).
		AddField("distance_km", round3(ev.DistanceKM)).
		SetTime(ev.Time)
	if ev.Site != "" {
		p = p.AddTag("site", ev.Site)
	}
	return s.write(p)
}

// RecordUnfilledTicket writes a skipped ticket.
func (s *InfluxSink) RecordUnfilledTicket(ev coremetrics.UnfilledEvent) error {
	p := write.NewPointWithMeasurement("ticket_unfilled").
		AddTag("run_id", ev.RunID).
		AddTag("reason", ev.Reason).
		AddTag("site", ev.Site)
	if ev.Center != "" {
		p = p.AddTag("center", ev.Center)
	}
	p = p.AddField("ticket_index", ev.TicketIndex).SetTime(ev.Time)
	return s.write(p)
}

// RecordRouteLookup writes a routing lookup outcome.
func (s *InfluxSink) RecordRouteLookup(ev coremetrics.RouteLookupEvent) error {
	p := write.NewPointWithMeasurement("route_lookup").
		AddTag("run_id", ev.RunID).
		AddTag("center", ev.Center).
		AddTag("site", ev.Site).
		AddTag("found", strconv.FormatBool(ev.Found)).
		AddField("attempts", ev.Attempts).
		AddField("distance_km", round3(ev.DistanceKM)).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordPoolSize writes the size of a center pool at wall-clock time.
func (s *InfluxSink) RecordPoolSize(center string, available int) error {
	p := write.NewPointWithMeasurement("pool_size").
		AddTag("center", center).
		AddField("available", available).
		SetTime(s.now())
	return s.write(p)
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
