package dispatch

import (
	"github.com/kilianp07/fieldsim/core/metrics"
	"github.com/kilianp07/fieldsim/core/model"
)

// dispatch assigns a technician to t and starts its lifecycle. Tickets that
// cannot be served are recorded in the report.
func (s *Simulation) dispatch(t model.Ticket) {
	site, ok := s.data.Site(t.Site)
	if !ok {
		s.unfilled(UnfilledTicket{Ticket: t, Reason: ReasonUnknownSite})
		return
	}
	tech, ok := s.pool.Acquire(site.Center)
	if !ok {
		s.unfilled(UnfilledTicket{Ticket: t, Center: site.Center, Reason: ReasonNoAvailableTechnician})
		return
	}
	home, ok := s.locate(site.Center)
	if !ok {
		if err := s.pool.Restore(site.Center, tech); err != nil {
			s.logger.Errorf("restore %s to center %s: %v", tech, site.Center, err)
		}
		s.unfilled(UnfilledTicket{Ticket: t, Center: site.Center, Technician: tech, Reason: ReasonUnresolvableCenterLocation})
		return
	}
	s.report.dispatched++
	s.recordPoolSize(site.Center)
	s.logger.Debugw("ticket dispatched", map[string]any{
		"ticket":     t.Index,
		"site":       site.ID,
		"center":     site.Center,
		"technician": tech,
	})
	l := newLifecycle(s, tech, site, home, t)
	s.clock.Schedule(0, l.start)
}

func (s *Simulation) unfilled(u UnfilledTicket) {
	s.report.Unfilled = append(s.report.Unfilled, u)
	s.logger.Warnf("skipping %v", u.Err())
	ur, ok := s.metrics.(metrics.UnfilledRecorder)
	if !ok {
		return
	}
	ev := metrics.UnfilledEvent{
		RunID:       s.runID,
		TicketIndex: u.Ticket.Index,
		Site:        u.Ticket.Site,
		Center:      u.Center,
		Reason:      string(u.Reason),
		Time:        s.mapper.Time(s.clock.Now()),
	}
	if err := ur.RecordUnfilledTicket(ev); err != nil {
		s.logger.Errorf("unfilled ticket metrics error: %v", err)
	}
}
