// Package eventlog persists simulation events so runs can be inspected after
// the process exits.
package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/fieldsim/core/model"
)

// Query filters stored events. Zero fields match everything.
type Query struct {
	RunID      string
	Until      time.Time
	Technician string
}

// Matches reports whether ev satisfies q.
func (q Query) Matches(ev model.SimulationEvent) bool {
	if q.RunID != "" && ev.RunID != q.RunID {
		return false
	}
	if !q.Until.IsZero() && ev.Time.After(q.Until) {
		return false
	}
	if q.Technician != "" && ev.Technician != model.NormalizeID(q.Technician) {
		return false
	}
	return true
}

// Store persists SimulationEvents and supports querying.
type Store interface {
	Append(ctx context.Context, ev model.SimulationEvent) error
	Query(ctx context.Context, q Query) ([]model.SimulationEvent, error)
	Close() error
}

const (
	BackendNone     = "none"
	BackendJSONL    = "jsonl"
	BackendRotating = "rotating"
	BackendSQLite   = "sqlite"
)

// Config selects and configures the event store.
type Config struct {
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendNone
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendSQLite:
			c.Path = "fieldsim-events.db"
		case BackendJSONL, BackendRotating:
			c.Path = "fieldsim-events.jsonl"
		}
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 3
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 7
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Backend {
	case "", BackendNone:
		return nil
	case BackendJSONL, BackendRotating, BackendSQLite:
		if c.Path == "" {
			return fmt.Errorf("eventlog: path is required for backend %s", c.Backend)
		}
		return nil
	default:
		return fmt.Errorf("eventlog: unknown backend %q", c.Backend)
	}
}

// Open creates the configured store. It returns a nil Store for the none
// backend.
func Open(c Config) (Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Backend {
	case BackendJSONL:
		return NewJSONLStore(c.Path)
	case BackendRotating:
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	case BackendSQLite:
		return NewSQLiteStore(c.Path)
	}
	return nil, nil
}
