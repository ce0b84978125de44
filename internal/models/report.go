package models

import (
	"time"
)

// AggregateBucket is one row of a distribution: a grouping key with its
// count and share of the total. Buckets are created per report request
// and discarded after serialization.
type AggregateBucket struct {
	Key        string  `json:"key"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TrendPoint is one calendar day of ticket activity. ResolvedCount keys
// off the terminal transition timestamp, not the creation timestamp.
type TrendPoint struct {
	Date          time.Time `json:"date"`
	CreatedCount  int       `json:"created_count"`
	ResolvedCount int       `json:"resolved_count"`
}

// SLATrendPoint is one calendar day of SLA compliance among tickets
// resolved that day.
type SLATrendPoint struct {
	Date           time.Time `json:"date"`
	ResolvedCount  int       `json:"resolved_count"`
	BreachCount    int       `json:"breach_count"`
	ComplianceRate float64   `json:"compliance_rate"`
}

// PriorityCompliance is the per-priority slice of an SLA performance
// report.
type PriorityCompliance struct {
	Priority       Priority `json:"priority"`
	Evaluated      int      `json:"evaluated"`
	Breached       int      `json:"breached"`
	ComplianceRate float64  `json:"compliance_rate"`
}

// BreachDetail identifies one breached ticket and how far over its
// allotment it ran.
type BreachDetail struct {
	TicketID      string   `json:"ticket_id"`
	Priority      Priority `json:"priority"`
	HoursUsed     float64  `json:"hours_used"`
	AllottedHours float64  `json:"allotted_hours"`
	HoursOver     float64  `json:"hours_over"`
}

// ZoneStats summarizes field activity for one service zone. Tickets with
// no zone association are reported under the Unknown bucket.
type ZoneStats struct {
	ZoneID           string  `json:"zone_id"`
	TicketCount      int     `json:"ticket_count"`
	ResolvedCount    int     `json:"resolved_count"`
	ResolutionRate   float64 `json:"resolution_rate"`
	ComplianceRate   float64 `json:"compliance_rate"`
	AvgTravelMinutes float64 `json:"avg_travel_minutes"`
	AvgOnsiteMinutes float64 `json:"avg_onsite_minutes"`
}

// AgentStats summarizes one agent's resolved workload.
type AgentStats struct {
	AgentID              string  `json:"agent_id"`
	AssignedCount        int     `json:"assigned_count"`
	ResolvedCount        int     `json:"resolved_count"`
	AvgResolutionMinutes float64 `json:"avg_resolution_minutes"`
	ComplianceRate       float64 `json:"compliance_rate"`
}

// TicketSummaryReport is the general activity report for a window.
type TicketSummaryReport struct {
	GeneratedAt          time.Time         `json:"generated_at"`
	WindowFrom           time.Time         `json:"window_from"`
	WindowTo             time.Time         `json:"window_to"`
	TotalTickets         int               `json:"total_tickets"`
	OpenTickets          int               `json:"open_tickets"`
	ResolvedTickets      int               `json:"resolved_tickets"`
	ByStatus             []AggregateBucket `json:"by_status"`
	ByPriority           []AggregateBucket `json:"by_priority"`
	ResolutionRate       float64           `json:"resolution_rate"`
	EscalationRate       float64           `json:"escalation_rate"`
	AvgResolutionMinutes float64           `json:"avg_resolution_minutes"`
}

// SLAPerformanceReport is the SLA compliance report for a window.
type SLAPerformanceReport struct {
	GeneratedAt          time.Time            `json:"generated_at"`
	WindowFrom           time.Time            `json:"window_from"`
	WindowTo             time.Time            `json:"window_to"`
	Evaluated            int                  `json:"evaluated"`
	Compliant            int                  `json:"compliant"`
	Breached             int                  `json:"breached"`
	AtRisk               int                  `json:"at_risk"`
	ComplianceRate       float64              `json:"compliance_rate"`
	AvgBusinessHoursUsed float64              `json:"avg_business_hours_used"`
	ByPriority           []PriorityCompliance `json:"by_priority"`
	WorstBreaches        []BreachDetail       `json:"worst_breaches"`
	Trend                []SLATrendPoint      `json:"trend"`
}

// ZonePerformanceReport ranks service zones by activity for a window.
type ZonePerformanceReport struct {
	GeneratedAt time.Time   `json:"generated_at"`
	WindowFrom  time.Time   `json:"window_from"`
	WindowTo    time.Time   `json:"window_to"`
	Zones       []ZoneStats `json:"zones"`
}

// AgentPerformanceReport ranks agents by resolved tickets for a window.
type AgentPerformanceReport struct {
	GeneratedAt   time.Time    `json:"generated_at"`
	WindowFrom    time.Time    `json:"window_from"`
	WindowTo      time.Time    `json:"window_to"`
	TopPerformers []AgentStats `json:"top_performers"`
}

// DailyTrendReport is the day-bucketed activity series for a window.
type DailyTrendReport struct {
	GeneratedAt time.Time    `json:"generated_at"`
	WindowFrom  time.Time    `json:"window_from"`
	WindowTo    time.Time    `json:"window_to"`
	Days        []TrendPoint `json:"days"`
}

// DashboardOverview is the cheap composite a landing page polls.
type DashboardOverview struct {
	GeneratedAt    time.Time         `json:"generated_at"`
	TotalTickets   int               `json:"total_tickets"`
	OpenTickets    int               `json:"open_tickets"`
	OpenByPriority []AggregateBucket `json:"open_by_priority"`
	CreatedToday   int               `json:"created_today"`
	ResolvedToday  int               `json:"resolved_today"`
	ComplianceRate float64           `json:"compliance_rate"`
	AtRisk         int               `json:"at_risk"`
	UpdatedLabel   string            `json:"updated_label"`
}
