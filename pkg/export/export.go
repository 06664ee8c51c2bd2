// Package export writes simulation timelines and reports to files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/fieldsim/core/dispatch"
	"github.com/kilianp07/fieldsim/core/model"
)

var eventHeader = []string{
	"time", "technician", "center", "site", "state", "lat", "lon",
	"icon", "color", "step", "ticket_index", "distance_km", "description",
}

// WriteJSON writes the events to w as a JSON array.
func WriteJSON(w io.Writer, events []model.SimulationEvent) error {
	if events == nil {
		events = []model.SimulationEvent{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}

// WriteCSV writes one row per event with a header line.
func WriteCSV(w io.Writer, events []model.SimulationEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(eventHeader); err != nil {
		return err
	}
	for _, e := range events {
		rec := []string{
			e.Time.UTC().Format(time.RFC3339),
			e.Technician,
			e.Center,
			e.Site,
			string(e.State),
			formatFloat(e.Lat),
			formatFloat(e.Lon),
			e.Icon,
			e.Color,
			strconv.Itoa(e.Step),
			strconv.Itoa(e.TicketIndex),
			formatFloat(e.DistanceKM),
			e.Description,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteUnfilledCSV writes the unfilled tickets of a report.
func WriteUnfilledCSV(w io.Writer, unfilled []dispatch.UnfilledTicket) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ticket_index", "scheduled", "site", "center", "technician", "reason"}); err != nil {
		return err
	}
	for _, u := range unfilled {
		rec := []string{
			strconv.Itoa(u.Ticket.Index),
			u.Ticket.Scheduled.UTC().Format(time.RFC3339),
			u.Ticket.Site,
			u.Center,
			u.Technician,
			string(u.Reason),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string         `json:"type"`
	Geometry   geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// WriteGeoJSON writes the events as a FeatureCollection of timestamped
// points, the shape map players animate.
func WriteGeoJSON(w io.Writer, events []model.SimulationEvent) error {
	fc := featureCollection{Type: "FeatureCollection", Features: make([]feature, 0, len(events))}
	for _, e := range events {
		fc.Features = append(fc.Features, feature{
			Type:     "Feature",
			Geometry: geometry{Type: "Point", Coordinates: [2]float64{e.Lon, e.Lat}},
			Properties: map[string]any{
				"time":       e.Time.UTC().Format(time.RFC3339),
				"popup":      e.Description,
				"icon":       e.Icon,
				"color":      e.Color,
				"step":       e.Step,
				"state":      e.State,
				"technician": e.Technician,
			},
		})
	}
	return json.NewEncoder(w).Encode(fc)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
