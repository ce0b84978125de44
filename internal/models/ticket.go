package models

import (
	"fmt"
	"time"
)

// Priority classifies how urgently a ticket must be resolved. Each level
// maps to an SLA allotment in business hours via configuration.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// AllPriorities lists every valid priority, most urgent first.
var AllPriorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority validates a raw priority string at the data boundary so
// downstream code only ever sees the closed set.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority %q", s)
	}
}

// Status represents a ticket lifecycle state.
type Status string

const (
	StatusOpen       Status = "open"
	StatusAssigned   Status = "assigned"
	StatusEnRoute    Status = "en_route"
	StatusOnSite     Status = "on_site"
	StatusInProgress Status = "in_progress"
	StatusPending    Status = "pending"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
	StatusCancelled  Status = "cancelled"
)

// AllStatuses lists every valid lifecycle state.
var AllStatuses = []Status{
	StatusOpen,
	StatusAssigned,
	StatusEnRoute,
	StatusOnSite,
	StatusInProgress,
	StatusPending,
	StatusResolved,
	StatusClosed,
	StatusCancelled,
}

// ParseStatus validates a raw status string at the data boundary.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusOpen, StatusAssigned, StatusEnRoute, StatusOnSite,
		StatusInProgress, StatusPending, StatusResolved, StatusClosed,
		StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// IsTerminal reports whether the state stops the SLA clock.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusClosed
}

// UnknownKey is the sentinel grouping bucket for records missing an
// optional association (zone, customer, agent). Absent keys land in an
// explicit bucket so grouped counts always reconcile with totals.
const UnknownKey = "Unknown"

// TicketSnapshot is the read-only, per-ticket view the reporting engine
// operates on. Snapshots are owned by the caller; the engine never
// mutates one and never holds a reference past the call.
type TicketSnapshot struct {
	ID           string     `json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	Priority     Priority   `json:"priority"`
	Status       Status     `json:"status"`
	IsEscalated  bool       `json:"is_escalated"`
	ZoneID       string     `json:"zone_id,omitempty"`
	CustomerID   string     `json:"customer_id,omitempty"`
	AssignedToID string     `json:"assigned_to_id,omitempty"`
}

// IsResolved reports whether the ticket reached a terminal state with a
// recorded timestamp. A terminal status without a timestamp counts as
// still open so no arithmetic ever runs on an absent instant.
func (t *TicketSnapshot) IsResolved() bool {
	return t.ResolvedAt != nil
}

// ResolutionMinutes returns wall-clock minutes from creation to
// resolution, or 0 for unresolved tickets.
func (t *TicketSnapshot) ResolutionMinutes() float64 {
	if t.ResolvedAt == nil || t.CreatedAt.IsZero() {
		return 0
	}
	return t.ResolvedAt.Sub(t.CreatedAt).Minutes()
}

// StatusTransition records one lifecycle state change of a ticket.
// Transition pairs are the source for travel and onsite duration samples,
// and the terminal transition carries the timestamp trend bucketing keys
// off.
type StatusTransition struct {
	TicketID string    `json:"ticket_id"`
	From     Status    `json:"from"`
	To       Status    `json:"to"`
	At       time.Time `json:"at"`
}

// Snapshot bundles everything the engine needs for one reporting window:
// tickets, their transition history, and the window bounds. The data
// store hands it out already fetched and copied; the engine treats it as
// immutable.
type Snapshot struct {
	Tickets     []TicketSnapshot   `json:"tickets"`
	Transitions []StatusTransition `json:"transitions"`
	From        time.Time          `json:"from"`
	To          time.Time          `json:"to"`
}
