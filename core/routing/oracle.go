// Package routing resolves driving distances through an external routing
// service. A Backend performs a single request; PerturbingOracle turns a
// Backend into an Oracle by retrying with nudged destination coordinates.
package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/fieldsim/core/logger"
	"github.com/kilianp07/fieldsim/core/model"
)

var (
	// ErrRouteNotFound is returned by an Oracle when no attempt produced a route.
	ErrRouteNotFound = errors.New("route not found")
	// ErrNoRoute is returned by a Backend when the response carries no usable route.
	ErrNoRoute = errors.New("response has no usable route")
)

// DefaultPerturbations are the degree offsets added to the destination
// latitude and longitude, tried in order. The first entry is the unperturbed
// request.
var DefaultPerturbations = []float64{0, 0.05, -0.05, 0.10, -0.10}

// DefaultAttemptTimeout bounds each backend request.
const DefaultAttemptTimeout = 10 * time.Second

// Oracle returns the driving distance in kilometers between two coordinates,
// or an error wrapping ErrRouteNotFound.
type Oracle interface {
	Distance(ctx context.Context, from, to model.Coordinate) (float64, error)
}

// Backend performs one routing request and returns the distance in meters.
type Backend interface {
	Route(ctx context.Context, from, to model.Coordinate) (float64, error)
}

// Lookup describes how a distance was obtained.
type Lookup struct {
	DistanceKM float64
	Attempts   int
	Found      bool
	Cached     bool
	Latency    time.Duration
}

// LookupOracle is implemented by oracles able to report lookup details.
type LookupOracle interface {
	Oracle
	Lookup(ctx context.Context, from, to model.Coordinate) (Lookup, error)
}

// Resolve queries o and returns the lookup details, filling in what a plain
// Oracle cannot report.
func Resolve(ctx context.Context, o Oracle, from, to model.Coordinate) (Lookup, error) {
	if lo, ok := o.(LookupOracle); ok {
		return lo.Lookup(ctx, from, to)
	}
	start := time.Now()
	km, err := o.Distance(ctx, from, to)
	res := Lookup{Attempts: 1, Latency: time.Since(start)}
	if err != nil {
		return res, err
	}
	res.DistanceKM, res.Found = km, true
	return res, nil
}

// LadderConfig configures the retry ladder of a PerturbingOracle.
type LadderConfig struct {
	Perturbations  []float64
	AttemptTimeout time.Duration
}

func (c LadderConfig) withDefaults() LadderConfig {
	if len(c.Perturbations) == 0 {
		c.Perturbations = DefaultPerturbations
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = DefaultAttemptTimeout
	}
	return c
}

// PerturbingOracle retries a Backend along a fixed ladder of destination
// perturbations and returns the first successful distance.
type PerturbingOracle struct {
	backend Backend
	cfg     LadderConfig
	log     logger.Logger
}

// NewPerturbingOracle wraps backend. Zero values in cfg select the defaults.
func NewPerturbingOracle(backend Backend, cfg LadderConfig, log logger.Logger) *PerturbingOracle {
	if log == nil {
		log = logger.Nop{}
	}
	return &PerturbingOracle{backend: backend, cfg: cfg.withDefaults(), log: log}
}

// Distance implements Oracle.
func (o *PerturbingOracle) Distance(ctx context.Context, from, to model.Coordinate) (float64, error) {
	res, err := o.Lookup(ctx, from, to)
	return res.DistanceKM, err
}

// Lookup walks the ladder. A cancelled ctx stops it early; the result is
// still ErrRouteNotFound.
func (o *PerturbingOracle) Lookup(ctx context.Context, from, to model.Coordinate) (Lookup, error) {
	start := time.Now()
	var res Lookup
	var last error
	for _, delta := range o.cfg.Perturbations {
		if err := ctx.Err(); err != nil {
			last = err
			break
		}
		res.Attempts++
		meters, err := o.attempt(ctx, from, to.Offset(delta))
		if err == nil {
			res.DistanceKM, res.Found = meters/1000, true
			res.Latency = time.Since(start)
			return res, nil
		}
		last = err
		o.log.Debugw("route attempt failed", map[string]any{
			"attempt": res.Attempts,
			"delta":   delta,
			"error":   err.Error(),
		})
	}
	res.Latency = time.Since(start)
	return res, fmt.Errorf("%w after %d attempts: %v", ErrRouteNotFound, res.Attempts, last)
}

func (o *PerturbingOracle) attempt(ctx context.Context, from, to model.Coordinate) (float64, error) {
	actx, cancel := context.WithTimeout(ctx, o.cfg.AttemptTimeout)
	defer cancel()
	meters, err := o.backend.Route(actx, from, to)
	if err != nil {
		return 0, err
	}
	if meters < 0 || math.IsNaN(meters) {
		return 0, fmt.Errorf("%w: invalid distance %v", ErrNoRoute, meters)
	}
	return meters, nil
}
