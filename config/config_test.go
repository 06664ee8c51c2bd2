package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kilianp07/fieldsim/core/dispatch"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `simulation:
  start: "2024-01-01 00:00"
  end: "2024-01-31 23:59"
  speed_factor: 120
  max_tickets: 50
  acquisition: on_ticket
data:
  tickets: data/Tickets.csv
  encoding: utf-8
routing:
  backend:
    type: straightline
    conf:
      detour_factor: 1.4
  attempt_timeout: 5s
metrics:
  sinks:
    - type: "nop"
eventlog:
  backend: sqlite
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
api:
  token: secret
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"speed_factor", *cfg.Simulation.SpeedFactor, 120.0},
		{"max_tickets", cfg.Simulation.MaxTickets, 50},
		{"acquisition", cfg.Simulation.Acquisition, dispatch.AcquireOnTicket},
		{"travel_speed default", *cfg.Simulation.TravelSpeedKMH, float64(dispatch.DefaultTravelSpeedKMH)},
		{"tickets", cfg.Data.Tickets, "data/Tickets.csv"},
		{"technicians default", cfg.Data.Technicians, "FME.csv"},
		{"encoding", cfg.Data.Encoding, "utf-8"},
		{"routing backend", cfg.Routing.Backend.Type, "straightline"},
		{"detour", cfg.Routing.Backend.Conf["detour_factor"], 1.4},
		{"attempt_timeout", cfg.Routing.AttemptTimeout, 5 * time.Second},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"eventlog path default", cfg.EventLog.Path, "fieldsim-events.db"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"topic default", cfg.MQTT.TopicPrefix, "fieldsim/events"},
		{"api addr default", cfg.API.Addr, ":8080"},
		{"api token", cfg.API.Token, "secret"},
		{"logging level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadJSONWithEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.json", `{"simulation":{"start":"2024-01-01","end":"2024-01-02","speed_factor":10}}`)
	t.Setenv("FS_SIMULATION__SPEED_FACTOR", "30")
	t.Setenv("FS_API__ADDR", ":9999")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *cfg.Simulation.SpeedFactor != 30 {
		t.Fatalf("env override not applied: %v", *cfg.Simulation.SpeedFactor)
	}
	if cfg.API.Addr != ":9999" {
		t.Fatalf("api addr override not applied: %v", cfg.API.Addr)
	}
	if cfg.MQTT.Enabled() {
		t.Fatalf("mqtt should stay disabled")
	}
	if cfg.Routing.Backend.Type != "osrm" {
		t.Fatalf("routing default not applied: %s", cfg.Routing.Backend.Type)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"end before start": `{"simulation":{"start":"2024-02-01","end":"2024-01-01"}}`,
		"negative speed":   `{"simulation":{"start":"2024-01-01","end":"2024-01-02","speed_factor":-1}}`,
		"zero speed":       `{"simulation":{"start":"2024-01-01","end":"2024-01-02","speed_factor":0}}`,
		"zero travel":      `{"simulation":{"start":"2024-01-01","end":"2024-01-02","travel_speed_kmh":0}}`,
		"bad encoding":     `{"simulation":{"start":"2024-01-01","end":"2024-01-02"},"data":{"encoding":"ebcdic"}}`,
		"bad eventlog":     `{"simulation":{"start":"2024-01-01","end":"2024-01-02"},"eventlog":{"backend":"csv"}}`,
		"bad level":        `{"simulation":{"start":"2024-01-01","end":"2024-01-02"},"logging":{"level":"loud"}}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, "config.json", data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadKeepsExplicitZeroServiceTime(t *testing.T) {
	path := writeConfig(t, "config.yaml", `simulation:
  start: "2024-01-01"
  end: "2024-01-02"
  service_minutes: 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Simulation.ServiceMinutes == nil || *cfg.Simulation.ServiceMinutes != 0 {
		t.Fatalf("explicit zero service_minutes replaced: %v", cfg.Simulation.ServiceMinutes)
	}
	if *cfg.Simulation.SpeedFactor != dispatch.DefaultSpeedFactor {
		t.Fatalf("absent speed_factor not defaulted: %v", *cfg.Simulation.SpeedFactor)
	}
	s, err := cfg.Simulation.Settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if s.ServiceTime != 0 {
		t.Fatalf("service time = %s, want 0", s.ServiceTime)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := Load(writeConfig(t, "config.toml", "")); err == nil {
		t.Fatalf("expected format error")
	}
}
