package routing

import (
	"fmt"
	"time"

	"github.com/kilianp07/fieldsim/core/factory"
	"github.com/kilianp07/fieldsim/core/logger"
)

// Config defines the routing section of the configuration file.
type Config struct {
	Backend        factory.ModuleConfig `json:"backend"`
	AttemptTimeout time.Duration        `json:"attempt_timeout"`
	Perturbations  []float64            `json:"perturbations"`
	Cache          factory.ModuleConfig `json:"cache"`
}

// SetDefaults selects the osrm backend and the default ladder.
func (c *Config) SetDefaults() {
	if c.Backend.Type == "" {
		c.Backend.Type = "osrm"
	}
	if c.AttemptTimeout == 0 {
		c.AttemptTimeout = DefaultAttemptTimeout
	}
	if len(c.Perturbations) == 0 {
		c.Perturbations = append([]float64(nil), DefaultPerturbations...)
	}
}

// Validate checks the section.
func (c Config) Validate() error {
	if c.AttemptTimeout < 0 {
		return fmt.Errorf("routing: attempt_timeout must not be negative, got %s", c.AttemptTimeout)
	}
	return nil
}

// NewOracle builds the configured backend wrapped in the retry ladder and,
// when configured, the route cache.
func NewOracle(cfg Config, log logger.Logger) (Oracle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := NewBackend(cfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("routing backend: %w", err)
	}
	var o Oracle = NewPerturbingOracle(backend, LadderConfig{
		Perturbations:  cfg.Perturbations,
		AttemptTimeout: cfg.AttemptTimeout,
	}, log)
	cache, err := NewCache(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("routing cache: %w", err)
	}
	if cache != nil {
		o = NewCachingOracle(o, cache, log)
	}
	return o, nil
}
