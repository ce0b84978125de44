package metrics

import (
	"sort"
	"time"

	"github.com/fieldops-io/fieldops-sla/internal/models"
)

// Bounds is an exclusive-lower, inclusive-upper acceptance window in
// minutes for one duration family.
type Bounds struct {
	MinExclusive float64 `json:"min_exclusive"`
	MaxInclusive float64 `json:"max_inclusive"`
}

// Accept reports whether a sample lies inside the window.
func (b Bounds) Accept(minutes float64) bool {
	return minutes > b.MinExclusive && minutes <= b.MaxInclusive
}

// OutlierPolicy carries the acceptance window for each measured duration
// family. Samples outside a window are excluded from averages, never
// from counts: the bounds reject clock-skew and missing-event artifacts,
// not slow work.
type OutlierPolicy struct {
	Travel     Bounds `json:"travel"`
	Onsite     Bounds `json:"onsite"`
	Resolution Bounds `json:"resolution"`
}

// DefaultOutlierPolicy mirrors the established field limits: travel
// (0, 120] minutes, onsite work (0, 480] minutes, resolution (1, 43200]
// minutes.
var DefaultOutlierPolicy = OutlierPolicy{
	Travel:     Bounds{MinExclusive: 0, MaxInclusive: 120},
	Onsite:     Bounds{MinExclusive: 0, MaxInclusive: 480},
	Resolution: Bounds{MinExclusive: 1, MaxInclusive: 43200},
}

// DurationSample is one measured duration in minutes attributed to a
// ticket.
type DurationSample struct {
	TicketID string
	Minutes  float64
}

// Value returns the sample's minutes; it is the valueFn duration
// averages use.
func (s DurationSample) Value() float64 {
	return s.Minutes
}

// TravelSamples measures, per ticket, the minutes between going en route
// and arriving on site. A ticket with several visits produces several
// samples.
func TravelSamples(transitions []models.StatusTransition) []DurationSample {
	return pairSamples(transitions, models.StatusEnRoute, func(s models.Status) bool {
		return s == models.StatusOnSite
	})
}

// OnsiteSamples measures, per ticket, the minutes between arriving on
// site and reaching a terminal state.
func OnsiteSamples(transitions []models.StatusTransition) []DurationSample {
	return pairSamples(transitions, models.StatusOnSite, func(s models.Status) bool {
		return s.IsTerminal()
	})
}

// ResolutionSamples derives creation-to-resolution durations from
// resolved tickets. Unresolved tickets contribute no sample.
func ResolutionSamples(tickets []models.TicketSnapshot) []DurationSample {
	var samples []DurationSample
	for i := range tickets {
		t := &tickets[i]
		if !t.IsResolved() {
			continue
		}
		samples = append(samples, DurationSample{TicketID: t.ID, Minutes: t.ResolutionMinutes()})
	}
	return samples
}

// pairSamples walks each ticket's transitions in time order and measures
// the gap between entering startState and the next transition into a
// state matched by endFn. An end without a preceding start, or a second
// start before an end, resets the pairing rather than guessing.
func pairSamples(transitions []models.StatusTransition, startState models.Status, endFn func(models.Status) bool) []DurationSample {
	byTicket := make(map[string][]models.StatusTransition)
	var order []string
	for _, tr := range transitions {
		if _, ok := byTicket[tr.TicketID]; !ok {
			order = append(order, tr.TicketID)
		}
		byTicket[tr.TicketID] = append(byTicket[tr.TicketID], tr)
	}

	var samples []DurationSample
	for _, id := range order {
		trs := byTicket[id]
		sort.Slice(trs, func(i, j int) bool { return trs[i].At.Before(trs[j].At) })

		var start *time.Time
		for _, tr := range trs {
			switch {
			case tr.To == startState:
				at := tr.At
				start = &at
			case start != nil && endFn(tr.To):
				samples = append(samples, DurationSample{
					TicketID: id,
					Minutes:  tr.At.Sub(*start).Minutes(),
				})
				start = nil
			}
		}
	}
	return samples
}
