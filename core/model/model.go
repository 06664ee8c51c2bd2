package model

import (
	"strings"
	"time"
)

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Offset returns the coordinate shifted by delta degrees on both axes.
func (c Coordinate) Offset(delta float64) Coordinate {
	return Coordinate{Lat: c.Lat + delta, Lon: c.Lon + delta}
}

// Ticket is a service request for a site at a scheduled time.
// Index is the position of the ticket in the input.
type Ticket struct {
	Index     int       `json:"index"`
	Site      string    `json:"site"`
	Scheduled time.Time `json:"scheduled"`
}

// Site is a physical location requiring service. Center is the identifier of
// the owning control center.
type Site struct {
	ID       string     `json:"id"`
	Location Coordinate `json:"location"`
	Center   string     `json:"center"`
}

// ControlCenter is a dispatch base owning a pool of technicians. A nil
// Location means the center has no explicit coordinate.
type ControlCenter struct {
	ID       string      `json:"id"`
	Location *Coordinate `json:"location,omitempty"`
}

// Technician is a field maintenance engineer (FME) attached to one center.
type Technician struct {
	ID     string `json:"id"`
	Center string `json:"center"`
}

// NormalizeID returns the canonical form of a site, center or technician
// identifier: surrounding whitespace removed and upper-cased.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
