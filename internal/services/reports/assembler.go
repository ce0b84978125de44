// Package reports composes the calendar, clock, and aggregation
// primitives into the shapes dashboards and exports consume. Nothing
// here computes anything itself; it only fans records through the
// services and packages the results.
package reports

import (
	"math"
	"time"

	"github.com/xeonx/timeago"

	"github.com/fieldops-io/fieldops-sla/internal/models"
	"github.com/fieldops-io/fieldops-sla/internal/services/metrics"
	"github.com/fieldops-io/fieldops-sla/internal/services/schedule"
	"github.com/fieldops-io/fieldops-sla/internal/services/sla"
)

// worstBreachLimit caps the breach list on SLA performance reports.
const worstBreachLimit = 5

// defaultTopPerformers caps agent rankings when the caller does not say.
const defaultTopPerformers = 5

// Assembler builds report DTOs from a snapshot. It holds only immutable
// collaborators and is safe for concurrent use across requests.
type Assembler struct {
	calendar *schedule.Calendar
	clock    *sla.Clock
	outliers metrics.OutlierPolicy
}

// NewAssembler wires the assembler with its collaborators.
func NewAssembler(calendar *schedule.Calendar, clock *sla.Clock, outliers metrics.OutlierPolicy) *Assembler {
	return &Assembler{calendar: calendar, clock: clock, outliers: outliers}
}

// TicketSLA clocks a single ticket. The per-ticket detail endpoint
// serves this alongside the aggregate reports.
func (a *Assembler) TicketSLA(ticket *models.TicketSnapshot, now time.Time) models.SLAOutcome {
	return a.clock.Evaluate(ticket, now)
}

// TicketSummary reports totals, distributions, and the headline rates
// for one window.
func (a *Assembler) TicketSummary(snap models.Snapshot, now time.Time) models.TicketSummaryReport {
	tickets := snap.Tickets

	open, resolved := 0, 0
	for i := range tickets {
		if tickets[i].IsResolved() {
			resolved++
		} else {
			open++
		}
	}

	resSamples := metrics.ResolutionSamples(tickets)
	avgResolution := metrics.Average(resSamples, metrics.DurationSample.Value, a.acceptResolution)

	return models.TicketSummaryReport{
		GeneratedAt:     now,
		WindowFrom:      snap.From,
		WindowTo:        snap.To,
		TotalTickets:    len(tickets),
		OpenTickets:     open,
		ResolvedTickets: resolved,
		ByStatus:        metrics.Distribution(tickets, statusKey),
		ByPriority:      metrics.Distribution(tickets, priorityKey),
		ResolutionRate: metrics.IncidenceRate(tickets, func(t models.TicketSnapshot) bool {
			return t.IsResolved()
		}),
		EscalationRate: metrics.IncidenceRate(tickets, func(t models.TicketSnapshot) bool {
			return t.IsEscalated
		}),
		AvgResolutionMinutes: round2(avgResolution),
	}
}

// SLAPerformance reports compliance for one window: overall, per
// priority, per day, and the worst breaches.
func (a *Assembler) SLAPerformance(snap models.Snapshot, now time.Time) models.SLAPerformanceReport {
	outcomes := a.clock.EvaluateAll(snap.Tickets, now)

	breached, atRisk := 0, 0
	for i := range outcomes {
		if outcomes[i].IsBreached {
			breached++
		}
		if outcomes[i].State == models.SLAStateAtRisk {
			atRisk++
		}
	}

	avgUsed := metrics.Average(outcomes, func(o models.SLAOutcome) float64 {
		return o.BusinessHoursUsed
	}, nil)

	return models.SLAPerformanceReport{
		GeneratedAt:          now,
		WindowFrom:           snap.From,
		WindowTo:             snap.To,
		Evaluated:            len(outcomes),
		Compliant:            len(outcomes) - breached,
		Breached:             breached,
		AtRisk:               atRisk,
		ComplianceRate:       metrics.ComplianceRate(outcomes, isCompliant),
		AvgBusinessHoursUsed: round2(avgUsed),
		ByPriority:           a.priorityCompliance(outcomes),
		WorstBreaches:        worstBreaches(outcomes),
		Trend:                a.slaTrend(snap, outcomes),
	}
}

// ZonePerformance ranks zones by activity, with travel and onsite
// averages from the transition history. Tickets without a zone report
// under the Unknown bucket.
func (a *Assembler) ZonePerformance(snap models.Snapshot, now time.Time) models.ZonePerformanceReport {
	outcomes := a.clock.EvaluateAll(snap.Tickets, now)

	zoneOf := make(map[string]string, len(snap.Tickets))
	for i := range snap.Tickets {
		zoneOf[snap.Tickets[i].ID] = zoneKey(snap.Tickets[i])
	}

	travelByZone := groupSamples(metrics.TravelSamples(snap.Transitions), zoneOf)
	onsiteByZone := groupSamples(metrics.OnsiteSamples(snap.Transitions), zoneOf)

	ticketsByZone := make(map[string][]models.TicketSnapshot)
	outcomesByZone := make(map[string][]models.SLAOutcome)
	for i := range snap.Tickets {
		z := zoneKey(snap.Tickets[i])
		ticketsByZone[z] = append(ticketsByZone[z], snap.Tickets[i])
		outcomesByZone[z] = append(outcomesByZone[z], outcomes[i])
	}

	stats := make([]models.ZoneStats, 0, len(ticketsByZone))
	for zone, zoneTickets := range ticketsByZone {
		resolved := 0
		for i := range zoneTickets {
			if zoneTickets[i].IsResolved() {
				resolved++
			}
		}
		stats = append(stats, models.ZoneStats{
			ZoneID:        zone,
			TicketCount:   len(zoneTickets),
			ResolvedCount: resolved,
			ResolutionRate: metrics.IncidenceRate(zoneTickets, func(t models.TicketSnapshot) bool {
				return t.IsResolved()
			}),
			ComplianceRate: metrics.ComplianceRate(outcomesByZone[zone], isCompliant),
			AvgTravelMinutes: round2(metrics.Average(travelByZone[zone],
				metrics.DurationSample.Value, a.acceptTravel)),
			AvgOnsiteMinutes: round2(metrics.Average(onsiteByZone[zone],
				metrics.DurationSample.Value, a.acceptOnsite)),
		})
	}

	ranked := metrics.TopN(stats,
		func(z models.ZoneStats) float64 { return float64(z.TicketCount) },
		func(z models.ZoneStats) string { return z.ZoneID },
		len(stats))

	return models.ZonePerformanceReport{
		GeneratedAt: now,
		WindowFrom:  snap.From,
		WindowTo:    snap.To,
		Zones:       ranked,
	}
}

// AgentPerformance ranks agents by resolved tickets. A non-positive
// limit selects the default ranking size.
func (a *Assembler) AgentPerformance(snap models.Snapshot, now time.Time, limit int) models.AgentPerformanceReport {
	if limit <= 0 {
		limit = defaultTopPerformers
	}

	outcomes := a.clock.EvaluateAll(snap.Tickets, now)

	ticketsByAgent := make(map[string][]models.TicketSnapshot)
	outcomesByAgent := make(map[string][]models.SLAOutcome)
	for i := range snap.Tickets {
		agent := agentKey(snap.Tickets[i])
		ticketsByAgent[agent] = append(ticketsByAgent[agent], snap.Tickets[i])
		outcomesByAgent[agent] = append(outcomesByAgent[agent], outcomes[i])
	}

	stats := make([]models.AgentStats, 0, len(ticketsByAgent))
	for agent, agentTickets := range ticketsByAgent {
		resolved := make([]models.TicketSnapshot, 0, len(agentTickets))
		resolvedOutcomes := make([]models.SLAOutcome, 0, len(agentTickets))
		for i := range agentTickets {
			if agentTickets[i].IsResolved() {
				resolved = append(resolved, agentTickets[i])
				resolvedOutcomes = append(resolvedOutcomes, outcomesByAgent[agent][i])
			}
		}
		resSamples := metrics.ResolutionSamples(resolved)
		stats = append(stats, models.AgentStats{
			AgentID:       agent,
			AssignedCount: len(agentTickets),
			ResolvedCount: len(resolved),
			AvgResolutionMinutes: round2(metrics.Average(resSamples,
				metrics.DurationSample.Value, a.acceptResolution)),
			ComplianceRate: metrics.ComplianceRate(resolvedOutcomes, isCompliant),
		})
	}

	top := metrics.TopN(stats,
		func(s models.AgentStats) float64 { return float64(s.ResolvedCount) },
		func(s models.AgentStats) string { return s.AgentID },
		limit)

	return models.AgentPerformanceReport{
		GeneratedAt:   now,
		WindowFrom:    snap.From,
		WindowTo:      snap.To,
		TopPerformers: top,
	}
}

// DailyTrend reports the created/resolved series for the window.
func (a *Assembler) DailyTrend(snap models.Snapshot, now time.Time) models.DailyTrendReport {
	return models.DailyTrendReport{
		GeneratedAt: now,
		WindowFrom:  snap.From,
		WindowTo:    snap.To,
		Days:        metrics.Trend(snap.Tickets, snap.From, snap.To, a.calendar.Location()),
	}
}

// Dashboard assembles the cheap overview a landing page polls.
func (a *Assembler) Dashboard(snap models.Snapshot, now time.Time) models.DashboardOverview {
	outcomes := a.clock.EvaluateAll(snap.Tickets, now)

	open := make([]models.TicketSnapshot, 0, len(snap.Tickets))
	for i := range snap.Tickets {
		if !snap.Tickets[i].IsResolved() {
			open = append(open, snap.Tickets[i])
		}
	}

	loc := a.calendar.Location()
	today := dayKey(now.In(loc))
	createdToday, resolvedToday := 0, 0
	for i := range snap.Tickets {
		t := &snap.Tickets[i]
		if dayKey(t.CreatedAt.In(loc)) == today {
			createdToday++
		}
		if t.IsResolved() && dayKey(t.ResolvedAt.In(loc)) == today {
			resolvedToday++
		}
	}

	atRisk := 0
	for i := range outcomes {
		if outcomes[i].State == models.SLAStateAtRisk {
			atRisk++
		}
	}

	return models.DashboardOverview{
		GeneratedAt:    now,
		TotalTickets:   len(snap.Tickets),
		OpenTickets:    len(open),
		OpenByPriority: metrics.Distribution(open, priorityKey),
		CreatedToday:   createdToday,
		ResolvedToday:  resolvedToday,
		ComplianceRate: metrics.ComplianceRate(outcomes, isCompliant),
		AtRisk:         atRisk,
		UpdatedLabel:   timeago.English.FormatReference(now, now),
	}
}

// priorityCompliance always carries one row per priority so dashboards
// keep a stable shape; tickets that reached the clock without a priority
// were evaluated under the lowest tier and report there.
func (a *Assembler) priorityCompliance(outcomes []models.SLAOutcome) []models.PriorityCompliance {
	byTier := make(map[models.Priority][]models.SLAOutcome)
	for i := range outcomes {
		tier := outcomes[i].Priority
		if tier == "" {
			tier = models.PriorityLow
		}
		byTier[tier] = append(byTier[tier], outcomes[i])
	}

	rows := make([]models.PriorityCompliance, 0, len(models.AllPriorities))
	for _, p := range models.AllPriorities {
		tierOutcomes := byTier[p]
		breached := 0
		for i := range tierOutcomes {
			if tierOutcomes[i].IsBreached {
				breached++
			}
		}
		rows = append(rows, models.PriorityCompliance{
			Priority:       p,
			Evaluated:      len(tierOutcomes),
			Breached:       breached,
			ComplianceRate: metrics.ComplianceRate(tierOutcomes, isCompliant),
		})
	}
	return rows
}

// slaTrend buckets resolved-ticket compliance by resolution day across
// the window.
func (a *Assembler) slaTrend(snap models.Snapshot, outcomes []models.SLAOutcome) []models.SLATrendPoint {
	loc := a.calendar.Location()
	start := dayStart(snap.From.In(loc))
	end := dayStart(snap.To.In(loc))
	if end.Before(start) {
		return []models.SLATrendPoint{}
	}

	var points []models.SLATrendPoint
	index := make(map[string]int)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		index[dayKey(day)] = len(points)
		points = append(points, models.SLATrendPoint{Date: day, ComplianceRate: 100})
	}

	for i := range snap.Tickets {
		t := &snap.Tickets[i]
		if !t.IsResolved() {
			continue
		}
		j, ok := index[dayKey(t.ResolvedAt.In(loc))]
		if !ok {
			continue
		}
		points[j].ResolvedCount++
		if outcomes[i].IsBreached {
			points[j].BreachCount++
		}
	}

	for i := range points {
		if points[i].ResolvedCount > 0 {
			met := points[i].ResolvedCount - points[i].BreachCount
			points[i].ComplianceRate = round2(float64(met) / float64(points[i].ResolvedCount) * 100)
		}
	}
	return points
}

// worstBreaches ranks breached outcomes by hours over allotment.
func worstBreaches(outcomes []models.SLAOutcome) []models.BreachDetail {
	var details []models.BreachDetail
	for i := range outcomes {
		o := &outcomes[i]
		if !o.IsBreached {
			continue
		}
		details = append(details, models.BreachDetail{
			TicketID:      o.TicketID,
			Priority:      o.Priority,
			HoursUsed:     round2(o.BusinessHoursUsed),
			AllottedHours: o.AllottedHours,
			HoursOver:     round2(o.HoursOverAllotment()),
		})
	}
	return metrics.TopN(details,
		func(d models.BreachDetail) float64 { return d.HoursOver },
		func(d models.BreachDetail) string { return d.TicketID },
		worstBreachLimit)
}

// groupSamples splits duration samples by the group of their ticket.
func groupSamples(samples []metrics.DurationSample, groupOf map[string]string) map[string][]metrics.DurationSample {
	grouped := make(map[string][]metrics.DurationSample)
	for _, s := range samples {
		group, ok := groupOf[s.TicketID]
		if !ok {
			group = models.UnknownKey
		}
		grouped[group] = append(grouped[group], s)
	}
	return grouped
}

func (a *Assembler) acceptTravel(s metrics.DurationSample) bool {
	return a.outliers.Travel.Accept(s.Minutes)
}

func (a *Assembler) acceptOnsite(s metrics.DurationSample) bool {
	return a.outliers.Onsite.Accept(s.Minutes)
}

func (a *Assembler) acceptResolution(s metrics.DurationSample) bool {
	return a.outliers.Resolution.Accept(s.Minutes)
}

func isCompliant(o models.SLAOutcome) bool {
	return !o.IsBreached
}

func statusKey(t models.TicketSnapshot) string {
	if t.Status == "" {
		return models.UnknownKey
	}
	return string(t.Status)
}

func priorityKey(t models.TicketSnapshot) string {
	if t.Priority == "" {
		return models.UnknownKey
	}
	return string(t.Priority)
}

func zoneKey(t models.TicketSnapshot) string {
	if t.ZoneID == "" {
		return models.UnknownKey
	}
	return t.ZoneID
}

func agentKey(t models.TicketSnapshot) string {
	if t.AssignedToID == "" {
		return models.UnknownKey
	}
	return t.AssignedToID
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
