package dispatch

import (
	"errors"
	"fmt"

	"github.com/kilianp07/fieldsim/core/model"
	"github.com/kilianp07/fieldsim/core/routing"
)

// Reason explains why a ticket was not served.
type Reason string

const (
	ReasonUnknownSite                Reason = "unknown_site"
	ReasonNoAvailableTechnician      Reason = "no_available_technician"
	ReasonUnresolvableCenterLocation Reason = "unresolvable_center_location"
	ReasonRouteNotFound              Reason = "route_not_found"
)

var (
	ErrUnknownSite                = errors.New("unknown site")
	ErrNoAvailableTechnician      = errors.New("no available technician")
	ErrUnresolvableCenterLocation = errors.New("center location cannot be resolved")
	ErrRouteNotFound              = routing.ErrRouteNotFound
)

var reasonErrors = map[Reason]error{
	ReasonUnknownSite:                ErrUnknownSite,
	ReasonNoAvailableTechnician:      ErrNoAvailableTechnician,
	ReasonUnresolvableCenterLocation: ErrUnresolvableCenterLocation,
	ReasonRouteNotFound:              ErrRouteNotFound,
}

// Reasons lists every reason in report order.
var Reasons = []Reason{
	ReasonUnknownSite,
	ReasonNoAvailableTechnician,
	ReasonUnresolvableCenterLocation,
	ReasonRouteNotFound,
}

// Err returns the sentinel error of r.
func (r Reason) Err() error {
	if err, ok := reasonErrors[r]; ok {
		return err
	}
	return fmt.Errorf("unfilled ticket: %s", string(r))
}

// UnfilledTicket records a ticket that produced no completed lifecycle.
// Technician is set when one had been acquired.
type UnfilledTicket struct {
	Ticket     model.Ticket `json:"ticket"`
	Center     string       `json:"center,omitempty"`
	Technician string       `json:"technician,omitempty"`
	Reason     Reason       `json:"reason"`
}

// Err returns an error wrapping the sentinel of the reason.
func (u UnfilledTicket) Err() error {
	return fmt.Errorf("ticket %d (site %s): %w", u.Ticket.Index, u.Ticket.Site, u.Reason.Err())
}
