package metrics

import (
	"time"

	"github.com/fieldops-io/fieldops-sla/internal/models"
)

// Trend buckets tickets into one point per calendar day of [from, to]
// inclusive, evaluated in loc (UTC when nil). Days with no activity
// still appear with zero counts. A ticket counts as created on the day
// of its creation timestamp and as resolved on the day of its terminal
// transition timestamp, never its creation day.
func Trend(tickets []models.TicketSnapshot, from, to time.Time, loc *time.Location) []models.TrendPoint {
	if loc == nil {
		loc = time.UTC
	}
	start := dayStart(from.In(loc))
	end := dayStart(to.In(loc))
	if end.Before(start) {
		return []models.TrendPoint{}
	}

	var points []models.TrendPoint
	index := make(map[string]int)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		index[dayKey(day)] = len(points)
		points = append(points, models.TrendPoint{Date: day})
	}

	for i := range tickets {
		t := &tickets[i]
		if j, ok := index[dayKey(t.CreatedAt.In(loc))]; ok {
			points[j].CreatedCount++
		}
		if t.IsResolved() {
			if j, ok := index[dayKey(t.ResolvedAt.In(loc))]; ok {
				points[j].ResolvedCount++
			}
		}
	}
	return points
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
