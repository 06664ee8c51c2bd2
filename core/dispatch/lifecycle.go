package dispatch

import (
	"errors"
	"fmt"

	"github.com/kilianp07/fieldsim/core/metrics"
	"github.com/kilianp07/fieldsim/core/model"
	"github.com/kilianp07/fieldsim/core/routing"
)

type phase int

const (
	phaseIdle phase = iota
	phaseAvailable
	phaseWaiting
	phaseTraveling
	phaseServicing
	phaseReturning
	phaseDone
	phaseAborted
)

var phaseNames = [...]string{"idle", "available", "waiting", "traveling", "servicing", "returning", "done", "aborted"}

func (p phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

var transitions = map[phase][]phase{
	phaseIdle:      {phaseAvailable},
	phaseAvailable: {phaseWaiting},
	phaseWaiting:   {phaseTraveling, phaseAborted},
	phaseTraveling: {phaseServicing},
	phaseServicing: {phaseReturning},
	phaseReturning: {phaseDone},
}

// Trip records the virtual timing of a completed lifecycle.
type Trip struct {
	Technician  string  `json:"technician"`
	Center      string  `json:"center"`
	Site        string  `json:"site"`
	TicketIndex int     `json:"ticket_index"`
	DistanceKM  float64 `json:"distance_km"`
	Departed    float64 `json:"departed"`
	Outbound    float64 `json:"outbound"`
	Return      float64 `json:"return"`
	Finished    float64 `json:"finished"`
}

// lifecycle drives one technician through a ticket. Every step runs as a
// continuation on the simulation clock.
type lifecycle struct {
	sim    *Simulation
	tech   string
	site   model.Site
	home   model.Coordinate
	ticket model.Ticket
	phase  phase

	distanceKM float64
	arrivedAt  float64
	leftAt     float64
	trip       Trip
}

func newLifecycle(s *Simulation, tech string, site model.Site, home model.Coordinate, t model.Ticket) *lifecycle {
	return &lifecycle{sim: s, tech: tech, site: site, home: home, ticket: t}
}

func (l *lifecycle) enter(next phase) {
	for _, p := range transitions[l.phase] {
		if p == next {
			l.sim.logger.Debugf("technician %s: %s -> %s", l.tech, l.phase, next)
			l.phase = next
			return
		}
	}
	panic(fmt.Sprintf("dispatch: technician %s: invalid transition %s -> %s", l.tech, l.phase, next))
}

func (l *lifecycle) start() {
	l.enter(phaseAvailable)
	l.emit(model.StateAvailable, l.home, fmt.Sprintf("FME: %s | Status: Available | CM: %s", l.tech, l.site.Center))

	l.enter(phaseWaiting)
	wait := l.sim.clockOf(l.ticket.Scheduled) - l.sim.clock.Now()
	if wait < 0 {
		l.sim.logger.Warnf("ticket %d is scheduled before the current time, departing immediately", l.ticket.Index)
		wait = 0
	}
	l.sim.clock.Schedule(wait, l.depart)
}

func (l *lifecycle) depart() {
	res, err := l.lookup()
	if err != nil {
		l.abort(err)
		return
	}
	l.distanceKM = res.DistanceKM
	l.enter(phaseTraveling)
	l.trip.Departed = l.sim.clock.Now()
	l.emit(model.StateTraveling, l.home, fmt.Sprintf("FME: %s | Status: Traveling to %s | Dist: %.1fkm", l.tech, l.site.ID, l.distanceKM))
	l.sim.clock.Schedule(l.travelTime(), l.arrive)
}

func (l *lifecycle) arrive() {
	l.enter(phaseServicing)
	l.arrivedAt = l.sim.clock.Now()
	l.trip.Outbound = l.arrivedAt - l.trip.Departed
	l.emit(model.StateServicing, l.site.Location, fmt.Sprintf("FME: %s | Status: Servicing %s | Estimated time: %.0f min",
		l.tech, l.site.ID, l.sim.settings.ServiceTime.Minutes()))
	l.sim.clock.Schedule(l.sim.mapper.Delay(l.sim.settings.ServiceTime), l.leave)
}

func (l *lifecycle) leave() {
	l.enter(phaseReturning)
	l.leftAt = l.sim.clock.Now()
	l.emit(model.StateReturning, l.site.Location, fmt.Sprintf("FME: %s | Status: Returning to CM %s", l.tech, l.site.Center))
	l.sim.clock.Schedule(l.travelTime(), l.finish)
}

func (l *lifecycle) finish() {
	l.enter(phaseDone)
	now := l.sim.clock.Now()
	l.emit(model.StateAvailable, l.home, fmt.Sprintf("FME: %s | Status: Available | CM: %s", l.tech, l.site.Center))
	l.release()

	l.trip.Technician = l.tech
	l.trip.Center = l.site.Center
	l.trip.Site = l.site.ID
	l.trip.TicketIndex = l.ticket.Index
	l.trip.DistanceKM = l.distanceKM
	l.trip.Return = now - l.leftAt
	l.trip.Finished = now
	l.sim.report.Trips = append(l.sim.report.Trips, l.trip)
}

func (l *lifecycle) abort(err error) {
	l.enter(phaseAborted)
	tags := map[string]string{"center": l.site.Center, "site": l.site.ID, "technician": l.tech}
	l.sim.logger.Warnf("route from center %s to site %s unavailable for %s: %v", l.site.Center, l.site.ID, l.tech, err)
	l.sim.monitor.CaptureException(err, tags)
	l.release()
	l.sim.unfilled(UnfilledTicket{Ticket: l.ticket, Center: l.site.Center, Technician: l.tech, Reason: ReasonRouteNotFound})
}

func (l *lifecycle) release() {
	if err := l.sim.pool.Release(l.site.Center, l.tech); err != nil {
		l.sim.logger.Errorf("release %s: %v", l.tech, err)
		l.sim.monitor.CaptureException(err, map[string]string{"center": l.site.Center, "technician": l.tech})
	}
	l.sim.recordPoolSize(l.site.Center)
}

// travelTime converts the route distance into virtual clock units at the
// configured travel speed. Outbound and return legs share it.
func (l *lifecycle) travelTime() float64 {
	hours := l.distanceKM / l.sim.settings.TravelSpeedKMH
	return hours * 3600 / l.sim.settings.SpeedFactor
}

func (l *lifecycle) lookup() (routing.Lookup, error) {
	s := l.sim
	res, err := routing.Resolve(s.ctx, s.oracle, l.home, l.site.Location)
	if err != nil && !errors.Is(err, routing.ErrRouteNotFound) {
		err = fmt.Errorf("%w: %v", routing.ErrRouteNotFound, err)
	}
	if rr, ok := s.metrics.(metrics.RouteLookupRecorder); ok {
		ev := metrics.RouteLookupEvent{
			RunID:      s.runID,
			Center:     l.site.Center,
			Site:       l.site.ID,
			Attempts:   res.Attempts,
			Found:      err == nil,
			DistanceKM: res.DistanceKM,
			Latency:    res.Latency,
			Time:       s.mapper.Time(s.clock.Now()),
		}
		if rerr := rr.RecordRouteLookup(ev); rerr != nil {
			s.logger.Errorf("route lookup metrics error: %v", rerr)
		}
	}
	return res, err
}

func (l *lifecycle) emit(state model.State, at model.Coordinate, desc string) {
	s := l.sim
	now := s.clock.Now()
	m := model.MarkerFor(state)
	ev := model.SimulationEvent{
		RunID:       s.runID,
		Time:        s.mapper.Time(now),
		Clock:       now,
		Lat:         at.Lat,
		Lon:         at.Lon,
		Description: desc,
		Icon:        m.Icon,
		Color:       m.Color,
		Step:        m.Step,
		State:       state,
		Technician:  l.tech,
		Center:      l.site.Center,
		Site:        l.site.ID,
		TicketIndex: l.ticket.Index,
		DistanceKM:  l.distanceKM,
	}
	if err := s.timeline.Append(ev); err != nil {
		s.logger.Errorf("append event: %v", err)
		s.monitor.CaptureException(err, map[string]string{"technician": l.tech})
	}
}
