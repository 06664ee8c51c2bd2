package model

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// Dataset groups the four input tables of a simulation run.
type Dataset struct {
	Tickets     []Ticket
	Technicians []Technician
	Centers     []ControlCenter
	Sites       []Site

	sites       map[string]Site
	centers     map[string]ControlCenter
	centerSites map[string][]Site
}

// NewDataset normalises identifiers and builds the lookup indexes. When a site
// or center identifier appears more than once the first row wins.
func NewDataset(tickets []Ticket, techs []Technician, centers []ControlCenter, sites []Site) *Dataset {
	d := &Dataset{
		sites:       make(map[string]Site, len(sites)),
		centers:     make(map[string]ControlCenter, len(centers)),
		centerSites: make(map[string][]Site),
	}
	for _, t := range tickets {
		t.Site = NormalizeID(t.Site)
		d.Tickets = append(d.Tickets, t)
	}
	for _, t := range techs {
		t.ID = NormalizeID(t.ID)
		t.Center = NormalizeID(t.Center)
		d.Technicians = append(d.Technicians, t)
	}
	for _, c := range centers {
		c.ID = NormalizeID(c.ID)
		d.Centers = append(d.Centers, c)
		if _, ok := d.centers[c.ID]; !ok {
			d.centers[c.ID] = c
		}
	}
	for _, s := range sites {
		s.ID = NormalizeID(s.ID)
		s.Center = NormalizeID(s.Center)
		d.Sites = append(d.Sites, s)
		if _, ok := d.sites[s.ID]; !ok {
			d.sites[s.ID] = s
		}
		d.centerSites[s.Center] = append(d.centerSites[s.Center], s)
	}
	return d
}

// Site looks up a site by identifier.
func (d *Dataset) Site(id string) (Site, bool) {
	s, ok := d.sites[NormalizeID(id)]
	return s, ok
}

// Center looks up a control center by identifier.
func (d *Dataset) Center(id string) (ControlCenter, bool) {
	c, ok := d.centers[NormalizeID(id)]
	return c, ok
}

// SitesOf returns every site owned by the center.
func (d *Dataset) SitesOf(center string) []Site {
	return d.centerSites[NormalizeID(center)]
}

// CenterLocation resolves the home coordinate of a center. The explicit
// coordinate wins; otherwise the mean coordinate of the center's sites is
// used. ok is false when neither is available.
func (d *Dataset) CenterLocation(center string) (Coordinate, bool) {
	if c, found := d.Center(center); found && c.Location != nil {
		return *c.Location, true
	}
	sites := d.SitesOf(center)
	if len(sites) == 0 {
		return Coordinate{}, false
	}
	lats := make([]float64, len(sites))
	lons := make([]float64, len(sites))
	for i, s := range sites {
		lats[i] = s.Location.Lat
		lons[i] = s.Location.Lon
	}
	return Coordinate{Lat: stat.Mean(lats, nil), Lon: stat.Mean(lons, nil)}, true
}

// SelectTickets keeps the tickets scheduled within [start, end], in input
// order, and caps the result at limit entries. A limit of zero disables the cap.
func SelectTickets(tickets []Ticket, start, end time.Time, limit int) []Ticket {
	var out []Ticket
	for _, t := range tickets {
		if t.Scheduled.Before(start) || t.Scheduled.After(end) {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
