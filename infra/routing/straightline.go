package routing

import (
	"context"
	"math"

	"github.com/kilianp07/fieldsim/core/model"
)

const earthRadiusMeters = 6371008.8

// StraightLineConfig configures a StraightLineBackend.
type StraightLineConfig struct {
	// DetourFactor scales the great-circle distance. Defaults to 1.3.
	DetourFactor float64 `json:"detour_factor"`
}

// StraightLineBackend estimates road distance from the great-circle distance.
// It never fails and needs no network, which makes it suitable for offline
// runs and tests.
type StraightLineBackend struct {
	factor float64
}

func NewStraightLineBackend(cfg StraightLineConfig) *StraightLineBackend {
	if cfg.DetourFactor <= 0 {
		cfg.DetourFactor = 1.3
	}
	return &StraightLineBackend{factor: cfg.DetourFactor}
}

// Route returns the estimated distance in meters.
func (b *StraightLineBackend) Route(ctx context.Context, from, to model.Coordinate) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return Haversine(from, to) * b.factor, nil
}

// Haversine returns the great-circle distance in meters.
func Haversine(a, b model.Coordinate) float64 {
	rad := math.Pi / 180
	dLat := (b.Lat - a.Lat) * rad
	dLon := (b.Lon - a.Lon) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*rad)*math.Cos(b.Lat*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
