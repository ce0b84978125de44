// Package tasks holds the background jobs the runner schedules.
package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fieldops-io/fieldops-sla/internal/models"
	"github.com/fieldops-io/fieldops-sla/internal/repository"
	"github.com/fieldops-io/fieldops-sla/internal/runner"
	"github.com/fieldops-io/fieldops-sla/internal/services/sla"
	"github.com/fieldops-io/fieldops-sla/internal/telemetry"
)

// sweepTimeout caps one sweep run.
const sweepTimeout = 2 * time.Minute

// ClockFactory builds an SLA clock from the live configuration. The
// sweep calls it per run so calendar and allotment reloads apply.
type ClockFactory func() (*sla.Clock, error)

// BreachSweepTask clocks every open ticket and logs the ones past their
// deadline or past the warning threshold. It only observes: no ticket
// state changes, no notification delivery.
type BreachSweepTask struct {
	repo     repository.TicketRepository
	clocks   ClockFactory
	schedule string
	logger   *log.Logger
}

// NewBreachSweepTask creates the sweep. schedule is a standard
// five-field cron expression.
func NewBreachSweepTask(repo repository.TicketRepository, clocks ClockFactory, schedule string) runner.Task {
	return &BreachSweepTask{
		repo:     repo,
		clocks:   clocks,
		schedule: schedule,
		logger:   log.New(log.Writer(), "[SLA-SWEEP] ", log.LstdFlags),
	}
}

// Name returns the task name
func (t *BreachSweepTask) Name() string {
	return "sla-breach-sweep"
}

// Schedule returns the cron expression the sweep runs on
func (t *BreachSweepTask) Schedule() string {
	return t.schedule
}

// Timeout returns the per-run timeout
func (t *BreachSweepTask) Timeout() time.Duration {
	return sweepTimeout
}

// Run evaluates all open tickets against the current clock.
func (t *BreachSweepTask) Run(ctx context.Context) error {
	clock, err := t.clocks()
	if err != nil {
		return fmt.Errorf("failed to build SLA clock: %w", err)
	}

	tickets, err := t.repo.ListTickets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tickets: %w", err)
	}
	telemetry.TicketsLoaded.Set(float64(len(tickets)))

	open := make([]models.TicketSnapshot, 0, len(tickets))
	for i := range tickets {
		if !tickets[i].IsResolved() {
			open = append(open, tickets[i])
		}
	}

	now := time.Now().UTC()
	outcomes := clock.EvaluateAll(open, now)
	telemetry.RecordEvaluations(outcomes)

	breached, atRisk := 0, 0
	for i := range outcomes {
		o := &outcomes[i]
		switch o.State {
		case models.SLAStateBreached:
			breached++
			t.logger.Printf("BREACH ticket=%s priority=%s used=%.1fh allotted=%.1fh deadline=%s",
				o.TicketID, o.Priority, o.BusinessHoursUsed, o.AllottedHours,
				o.Deadline.Format(time.RFC3339))
		case models.SLAStateAtRisk:
			atRisk++
			t.logger.Printf("AT RISK ticket=%s priority=%s used=%.0f%% remaining=%s",
				o.TicketID, o.Priority, o.PercentUsed, o.TimeRemaining)
		}
	}

	telemetry.RecordSweep(breached, atRisk)
	t.logger.Printf("Sweep complete: %d open evaluated, %d breached, %d at risk",
		len(open), breached, atRisk)
	return nil
}
