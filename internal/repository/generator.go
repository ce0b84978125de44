package repository

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops-io/fieldops-sla/internal/models"
)

// FixtureGenerator produces synthetic but plausible field activity for
// demos and report smoke tests. The same seed always yields the same
// data set.
type FixtureGenerator struct {
	rng       *rand.Rand
	zones     []string
	agents    []string
	customers []string
}

// NewFixtureGenerator creates a generator with a fixed random seed.
func NewFixtureGenerator(seed int64) *FixtureGenerator {
	return &FixtureGenerator{
		rng:       rand.New(rand.NewSource(seed)),
		zones:     []string{"north", "south", "east", "west"},
		agents:    []string{"agent.smith", "agent.jones", "agent.garcia", "agent.chen", "agent.patel", "agent.okafor"},
		customers: []string{"c-acme", "c-techstart", "c-global"},
	}
}

// Generate builds count tickets created over the trailing days before
// now. Roughly two thirds are resolved and carry the full transition
// chain; the rest sit in various open states with a history consistent
// with the state they are in.
func (g *FixtureGenerator) Generate(count, days int, now time.Time) ([]models.TicketSnapshot, []models.StatusTransition) {
	if count <= 0 {
		return nil, nil
	}
	if days < 1 {
		days = 1
	}

	tickets := make([]models.TicketSnapshot, 0, count)
	var transitions []models.StatusTransition

	for i := 0; i < count; i++ {
		created := now.Add(-time.Duration(g.rng.Intn(days*24*60)) * time.Minute).Truncate(time.Minute)

		ticket := models.TicketSnapshot{
			ID:          g.ticketID(i),
			CreatedAt:   created,
			Priority:    g.priority(),
			CustomerID:  g.pick(g.customers),
			IsEscalated: g.chance(12),
		}
		if g.chance(90) {
			ticket.ZoneID = g.pick(g.zones)
		}
		if g.chance(85) {
			ticket.AssignedToID = g.pick(g.agents)
		}

		enRoute := created.Add(g.minutes(10, 120))
		onSite := enRoute.Add(g.minutes(5, 90))
		done := onSite.Add(g.minutes(20, 600))

		if g.chance(65) && done.Before(now) {
			terminal := models.StatusResolved
			if g.chance(10) {
				terminal = models.StatusClosed
			}
			ticket.Status = terminal
			ticket.ResolvedAt = &done
			transitions = append(transitions,
				models.StatusTransition{TicketID: ticket.ID, From: models.StatusAssigned, To: models.StatusEnRoute, At: enRoute},
				models.StatusTransition{TicketID: ticket.ID, From: models.StatusEnRoute, To: models.StatusOnSite, At: onSite},
				models.StatusTransition{TicketID: ticket.ID, From: models.StatusOnSite, To: terminal, At: done},
			)
		} else {
			ticket.Status = g.openStatus()
			switch ticket.Status {
			case models.StatusEnRoute:
				if enRoute.Before(now) {
					transitions = append(transitions,
						models.StatusTransition{TicketID: ticket.ID, From: models.StatusAssigned, To: models.StatusEnRoute, At: enRoute})
				} else {
					ticket.Status = models.StatusAssigned
				}
			case models.StatusOnSite, models.StatusInProgress:
				if onSite.Before(now) {
					transitions = append(transitions,
						models.StatusTransition{TicketID: ticket.ID, From: models.StatusAssigned, To: models.StatusEnRoute, At: enRoute},
						models.StatusTransition{TicketID: ticket.ID, From: models.StatusEnRoute, To: models.StatusOnSite, At: onSite})
				} else {
					ticket.Status = models.StatusAssigned
				}
			}
		}

		tickets = append(tickets, ticket)
	}

	return tickets, transitions
}

// ticketID combines a sequence number with a random tail so ids stay
// unique while remaining short enough for breach listings.
func (g *FixtureGenerator) ticketID(i int) string {
	u, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// The math/rand reader never fails; keep a fallback anyway.
		return fmt.Sprintf("fs-%04d", i+1)
	}
	return fmt.Sprintf("fs-%04d-%s", i+1, strings.SplitN(u.String(), "-", 2)[0])
}

func (g *FixtureGenerator) priority() models.Priority {
	roll := g.rng.Intn(100)
	switch {
	case roll < 10:
		return models.PriorityCritical
	case roll < 35:
		return models.PriorityHigh
	case roll < 75:
		return models.PriorityMedium
	case roll < 95:
		return models.PriorityLow
	default:
		// A sliver of records without a priority keeps the degraded-data
		// paths visible in demos.
		return ""
	}
}

func (g *FixtureGenerator) openStatus() models.Status {
	states := []models.Status{
		models.StatusOpen, models.StatusAssigned, models.StatusEnRoute,
		models.StatusOnSite, models.StatusInProgress, models.StatusPending,
	}
	return states[g.rng.Intn(len(states))]
}

func (g *FixtureGenerator) pick(xs []string) string {
	return xs[g.rng.Intn(len(xs))]
}

func (g *FixtureGenerator) chance(percent int) bool {
	return g.rng.Intn(100) < percent
}

func (g *FixtureGenerator) minutes(min, max int) time.Duration {
	return time.Duration(min+g.rng.Intn(max-min+1)) * time.Minute
}
