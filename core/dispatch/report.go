package dispatch

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/fieldsim/core/timeline"
)

// Report is the outcome of a simulation run.
type Report struct {
	RunID    string           `json:"run_id"`
	Unfilled []UnfilledTicket `json:"unfilled"`
	Trips    []Trip           `json:"trips"`
	Summary  Summary          `json:"summary"`

	considered int
	dispatched int
}

// Summary aggregates a report.
type Summary struct {
	Considered       int            `json:"considered"`
	Dispatched       int            `json:"dispatched"`
	Completed        int            `json:"completed"`
	Unfilled         map[Reason]int `json:"unfilled"`
	MeanDistanceKM   float64        `json:"mean_distance_km"`
	StdDevDistanceKM float64        `json:"stddev_distance_km"`
	Makespan         time.Duration  `json:"makespan"`
	FinishedAt       time.Time      `json:"finished_at"`
}

func newReport(runID string, considered int) *Report {
	return &Report{RunID: runID, considered: considered}
}

// UnfilledBy returns the unfilled tickets with the given reason.
func (r *Report) UnfilledBy(reason Reason) []UnfilledTicket {
	var out []UnfilledTicket
	for _, u := range r.Unfilled {
		if u.Reason == reason {
			out = append(out, u)
		}
	}
	return out
}

// TripOf returns the completed trip of a ticket.
func (r *Report) TripOf(ticketIndex int) (Trip, bool) {
	for _, t := range r.Trips {
		if t.TicketIndex == ticketIndex {
			return t, true
		}
	}
	return Trip{}, false
}

func (r *Report) finish(m timeline.Mapper, now float64) {
	sum := Summary{
		Considered: r.considered,
		Dispatched: r.dispatched,
		Completed:  len(r.Trips),
		Unfilled:   make(map[Reason]int, len(Reasons)),
		FinishedAt: m.Time(now),
	}
	sum.Makespan = sum.FinishedAt.Sub(m.Start)
	for _, u := range r.Unfilled {
		sum.Unfilled[u.Reason]++
	}
	if n := len(r.Trips); n > 0 {
		dist := make([]float64, n)
		for i, t := range r.Trips {
			dist[i] = t.DistanceKM
		}
		if n == 1 {
			sum.MeanDistanceKM = dist[0]
		} else {
			sum.MeanDistanceKM, sum.StdDevDistanceKM = stat.MeanStdDev(dist, nil)
		}
	}
	r.Summary = sum
}
