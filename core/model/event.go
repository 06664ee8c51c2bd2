package model

import "time"

// State is the lifecycle state a SimulationEvent reports for a technician.
type State string

const (
	StateAvailable State = "available"
	StateTraveling State = "traveling"
	StateServicing State = "servicing"
	StateReturning State = "returning"
)

// Marker holds the rendering hints attached to a state.
type Marker struct {
	Icon  string
	Color string
	Step  int
}

var markers = map[State]Marker{
	StateAvailable: {Icon: "home", Color: "green", Step: 1},
	StateTraveling: {Icon: "car", Color: "blue", Step: 2},
	StateServicing: {Icon: "user", Color: "red", Step: 3},
	StateReturning: {Icon: "car", Color: "orange", Step: 2},
}

// MarkerFor returns the icon, color and step ordinal used for s.
func MarkerFor(s State) Marker { return markers[s] }

// SimulationEvent is one timestamped location/status sample emitted by a
// technician lifecycle.
type SimulationEvent struct {
	RunID       string    `json:"run_id"`
	Time        time.Time `json:"time"`
	Clock       float64   `json:"clock"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	Step        int       `json:"step"`
	State       State     `json:"state"`
	Technician  string    `json:"technician"`
	Center      string    `json:"center"`
	Site        string    `json:"site,omitempty"`
	TicketIndex int       `json:"ticket_index"`
	DistanceKM  float64   `json:"distance_km,omitempty"`
}
