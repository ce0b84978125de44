// Package sla projects deadlines and evaluates ticket outcomes against
// priority-derived business-hour allotments.
package sla

import (
	"fmt"
	"math"
	"time"

	"github.com/xeonx/timeago"

	"github.com/fieldops-io/fieldops-sla/internal/models"
	"github.com/fieldops-io/fieldops-sla/internal/services/schedule"
)

// DefaultWarningThreshold is the percent of allotment consumed at which
// an open ticket is flagged at risk.
const DefaultWarningThreshold = 75.0

// AllotmentTable maps each priority to its SLA allotment in business
// hours. The table is configuration, injected once at construction;
// nothing else in the codebase declares per-priority hours.
type AllotmentTable map[models.Priority]float64

// DefaultAllotments mirror the standard field-service contract tiers.
var DefaultAllotments = AllotmentTable{
	models.PriorityCritical: 4,
	models.PriorityHigh:     8,
	models.PriorityMedium:   24,
	models.PriorityLow:      48,
}

// Validate ensures every priority of the closed set maps to a positive
// allotment. An unmapped priority is a configuration error surfaced at
// startup, never per request.
func (t AllotmentTable) Validate() error {
	for _, p := range models.AllPriorities {
		hours, ok := t[p]
		if !ok {
			return fmt.Errorf("allotment table: priority %q unmapped", p)
		}
		if hours <= 0 {
			return fmt.Errorf("allotment table: priority %q has non-positive allotment %v", p, hours)
		}
	}
	return nil
}

// Clock computes SLA deadlines and outcomes against one calendar and one
// allotment table. Immutable after construction and safe for concurrent
// use.
type Clock struct {
	calendar         *schedule.Calendar
	allotments       AllotmentTable
	warningThreshold float64
}

// NewClock builds a Clock, failing fast on a bad allotment table. A
// warningThreshold of 0 or below selects the default; values above 100
// are rejected.
func NewClock(calendar *schedule.Calendar, allotments AllotmentTable, warningThreshold float64) (*Clock, error) {
	if calendar == nil {
		return nil, fmt.Errorf("sla: calendar is required")
	}
	if err := allotments.Validate(); err != nil {
		return nil, err
	}
	if warningThreshold > 100 {
		return nil, fmt.Errorf("sla: warning threshold %v above 100", warningThreshold)
	}
	if warningThreshold <= 0 {
		warningThreshold = DefaultWarningThreshold
	}

	table := make(AllotmentTable, len(allotments))
	for p, h := range allotments {
		table[p] = h
	}

	return &Clock{
		calendar:         calendar,
		allotments:       table,
		warningThreshold: warningThreshold,
	}, nil
}

// Allotment returns the business-hour allotment for p. A ticket carrying
// an empty or unknown priority is evaluated under the lowest tier so a
// gap in upstream data degrades reporting instead of breaking it.
func (c *Clock) Allotment(p models.Priority) float64 {
	if hours, ok := c.allotments[p]; ok {
		return hours
	}
	return c.allotments[models.PriorityLow]
}

// Deadline projects the instant at which a ticket opened at createdAt
// exhausts its priority allotment. Creation instants outside the working
// window roll forward to the next working day's start before consumption
// begins.
func (c *Clock) Deadline(createdAt time.Time, priority models.Priority) time.Time {
	return c.calendar.AddBusinessHours(createdAt, c.Allotment(priority))
}

// Evaluate computes the SLA outcome of one ticket as of now.
//
// Resolved tickets compare business hours used against the allotment;
// exactly meeting it is compliant. Open tickets compare wall-clock now
// against the projected deadline, so a breach registers the moment the
// deadline passes rather than at the next business-hours recompute. The
// deadline field is populated either way so callers can always show
// "due by".
func (c *Clock) Evaluate(ticket *models.TicketSnapshot, now time.Time) models.SLAOutcome {
	allotted := c.Allotment(ticket.Priority)
	deadline := c.Deadline(ticket.CreatedAt, ticket.Priority)

	outcome := models.SLAOutcome{
		TicketID:      ticket.ID,
		Priority:      ticket.Priority,
		AllottedHours: allotted,
		Deadline:      deadline,
	}

	if ticket.IsResolved() {
		outcome.BusinessHoursUsed = c.calendar.BusinessHoursBetween(ticket.CreatedAt, *ticket.ResolvedAt)
		outcome.IsBreached = outcome.BusinessHoursUsed > allotted
	} else {
		outcome.BusinessHoursUsed = c.calendar.BusinessHoursBetween(ticket.CreatedAt, now)
		outcome.IsBreached = now.After(deadline)
		outcome.TimeRemaining = timeago.English.FormatReference(deadline, now)
	}

	if allotted > 0 {
		outcome.PercentUsed = round2(outcome.BusinessHoursUsed / allotted * 100)
	}

	switch {
	case outcome.IsBreached:
		outcome.State = models.SLAStateBreached
	case !ticket.IsResolved() && outcome.PercentUsed >= c.warningThreshold:
		outcome.State = models.SLAStateAtRisk
	default:
		outcome.State = models.SLAStateWithin
	}

	return outcome
}

// EvaluateAll maps Evaluate over a ticket slice, preserving order.
func (c *Clock) EvaluateAll(tickets []models.TicketSnapshot, now time.Time) []models.SLAOutcome {
	if len(tickets) == 0 {
		return nil
	}
	outcomes := make([]models.SLAOutcome, len(tickets))
	for i := range tickets {
		outcomes[i] = c.Evaluate(&tickets[i], now)
	}
	return outcomes
}

// WarningThreshold returns the configured at-risk threshold in percent.
func (c *Clock) WarningThreshold() float64 {
	return c.warningThreshold
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
