package models

import (
	"time"
)

// SLAState classifies how far a ticket has progressed against its
// allotment.
type SLAState string

const (
	// SLAStateWithin means the ticket is comfortably inside its allotment.
	SLAStateWithin SLAState = "within"
	// SLAStateAtRisk means an open ticket has consumed at least the
	// configured warning share of its allotment but has not breached.
	SLAStateAtRisk SLAState = "at_risk"
	// SLAStateBreached means the allotment was exceeded (resolved tickets)
	// or the deadline has passed (open tickets).
	SLAStateBreached SLAState = "breached"
)

// SLAOutcome is the derived SLA standing of a single ticket. It is
// computed fresh on every query and never persisted; callers own the
// caching decision if they want one.
//
// Breach semantics differ by terminal state on purpose: a resolved ticket
// is breached when its business hours used strictly exceed the allotment,
// while an open ticket is breached the instant wall-clock now passes the
// projected deadline.
type SLAOutcome struct {
	TicketID          string    `json:"ticket_id"`
	Priority          Priority  `json:"priority"`
	BusinessHoursUsed float64   `json:"business_hours_used"`
	AllottedHours     float64   `json:"allotted_hours"`
	PercentUsed       float64   `json:"percent_used"`
	Deadline          time.Time `json:"deadline"`
	IsBreached        bool      `json:"is_breached"`
	State             SLAState  `json:"state"`
	// TimeRemaining is a humanized label relative to the evaluation
	// instant ("in 3 hours", "2 days ago"). Empty for resolved tickets.
	TimeRemaining string `json:"time_remaining,omitempty"`
}

// HoursOverAllotment returns how many business hours past the allotment
// the ticket has consumed, or 0 when within it. Used to rank the worst
// breaches.
func (o *SLAOutcome) HoursOverAllotment() float64 {
	over := o.BusinessHoursUsed - o.AllottedHours
	if over < 0 {
		return 0
	}
	return over
}
