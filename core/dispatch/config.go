package dispatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/fieldsim/core/model"
)

// AcquisitionMode selects when technicians are taken from the pool.
type AcquisitionMode string

const (
	// AcquireUpfront acquires technicians while iterating tickets, before the
	// clock runs.
	AcquireUpfront AcquisitionMode = "upfront"
	// AcquireOnTicket acquires a technician at the ticket's virtual time.
	AcquireOnTicket AcquisitionMode = "on_ticket"
)

const (
	DefaultSpeedFactor    = 60
	DefaultTravelSpeedKMH = 50
	DefaultServiceMinutes = 10
)

// Config defines the simulation section of the configuration file. The
// numeric tunables are pointers: a nil value takes the default, an explicit
// zero is kept and validated.
type Config struct {
	Start          string          `json:"start"`
	End            string          `json:"end"`
	SpeedFactor    *float64        `json:"speed_factor"`
	MaxTickets     int             `json:"max_tickets"`
	Acquisition    AcquisitionMode `json:"acquisition"`
	TravelSpeedKMH *float64        `json:"travel_speed_kmh"`
	ServiceMinutes *float64        `json:"service_minutes"`
}

// SetDefaults fills unset values.
func (c *Config) SetDefaults() {
	if c.SpeedFactor == nil {
		c.SpeedFactor = Float(DefaultSpeedFactor)
	}
	if c.Acquisition == "" {
		c.Acquisition = AcquireUpfront
	}
	if c.TravelSpeedKMH == nil {
		c.TravelSpeedKMH = Float(DefaultTravelSpeedKMH)
	}
	if c.ServiceMinutes == nil {
		c.ServiceMinutes = Float(DefaultServiceMinutes)
	}
}

// Float returns a pointer to v, for filling Config literals.
func Float(v float64) *float64 { return &v }

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Validate checks the section without applying defaults.
func (c Config) Validate() error {
	_, err := c.Settings()
	return err
}

// Settings converts the configuration into run settings.
func (c Config) Settings() (Settings, error) {
	if c.Start == "" || c.End == "" {
		return Settings{}, errors.New("simulation: start and end are required")
	}
	start, err := model.ParseTime(c.Start)
	if err != nil {
		return Settings{}, fmt.Errorf("simulation: start: %w", err)
	}
	end, err := model.ParseTime(c.End)
	if err != nil {
		return Settings{}, fmt.Errorf("simulation: end: %w", err)
	}
	s := Settings{
		Start:          start,
		End:            end,
		SpeedFactor:    deref(c.SpeedFactor),
		MaxTickets:     c.MaxTickets,
		Acquisition:    c.Acquisition,
		TravelSpeedKMH: deref(c.TravelSpeedKMH),
		ServiceTime:    time.Duration(deref(c.ServiceMinutes) * float64(time.Minute)),
	}
	return s, s.Validate()
}

// Settings are the validated parameters of one simulation run.
type Settings struct {
	Start          time.Time
	End            time.Time
	SpeedFactor    float64
	MaxTickets     int
	Acquisition    AcquisitionMode
	TravelSpeedKMH float64
	ServiceTime    time.Duration
}

// Validate rejects malformed settings.
func (s Settings) Validate() error {
	if s.Start.IsZero() || s.End.IsZero() {
		return errors.New("simulation: start and end are required")
	}
	if s.End.Before(s.Start) {
		return fmt.Errorf("simulation: end %s is before start %s", s.End.Format(time.RFC3339), s.Start.Format(time.RFC3339))
	}
	if s.SpeedFactor <= 0 {
		return fmt.Errorf("simulation: speed_factor must be positive, got %v", s.SpeedFactor)
	}
	if s.MaxTickets < 0 {
		return fmt.Errorf("simulation: max_tickets must not be negative, got %d", s.MaxTickets)
	}
	switch s.Acquisition {
	case AcquireUpfront, AcquireOnTicket:
	default:
		return fmt.Errorf("simulation: unknown acquisition mode %q", s.Acquisition)
	}
	if s.TravelSpeedKMH <= 0 {
		return fmt.Errorf("simulation: travel_speed_kmh must be positive, got %v", s.TravelSpeedKMH)
	}
	if s.ServiceTime < 0 {
		return fmt.Errorf("simulation: service time must not be negative, got %s", s.ServiceTime)
	}
	return nil
}
