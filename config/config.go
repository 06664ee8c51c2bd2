// Package config loads the fieldsim configuration file.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/fieldsim/core/dispatch"
	"github.com/kilianp07/fieldsim/core/eventlog"
	"github.com/kilianp07/fieldsim/core/metrics"
	"github.com/kilianp07/fieldsim/core/routing"
	"github.com/kilianp07/fieldsim/infra/dataset"
	"github.com/kilianp07/fieldsim/infra/mqtt"
)

// EnvPrefix prefixes environment overrides. Nested keys are separated by a
// double underscore: FS_SIMULATION__SPEED_FACTOR=120.
const EnvPrefix = "FS_"

type Config struct {
	Simulation dispatch.Config `json:"simulation"`
	Data       dataset.Config  `json:"data"`
	Routing    routing.Config  `json:"routing"`
	Metrics    metrics.Config  `json:"metrics"`
	EventLog   eventlog.Config `json:"eventlog"`
	MQTT       mqtt.Config     `json:"mqtt"`
	API        APIConfig       `json:"api"`
	Sentry     SentryConfig    `json:"sentry"`
	Logging    LoggingConfig   `json:"logging"`
}

// Load reads the file at path, applies environment overrides, fills defaults
// and validates every section. An empty path loads defaults and environment
// only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.Data.SetDefaults()
	c.Routing.SetDefaults()
	c.EventLog.SetDefaults()
	if c.MQTT.Enabled() {
		c.MQTT.SetDefaults()
	}
	c.API.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	for _, check := range []func() error{
		c.Simulation.Validate,
		c.Data.Validate,
		c.Routing.Validate,
		c.EventLog.Validate,
		c.MQTT.Validate,
		c.Logging.Validate,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// APIConfig configures the playback HTTP server.
type APIConfig struct {
	Addr  string `json:"addr"`
	Token string `json:"token"`
}

// SetDefaults listens on :8080.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
