package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops-io/fieldops-sla/internal/models"
	"github.com/fieldops-io/fieldops-sla/internal/services/schedule"
)

// Mon-Sat working, 09:00-17:30. 2025-01-06 is a Monday.
func testCalendar(t *testing.T) *schedule.Calendar {
	t.Helper()
	c, err := schedule.New(schedule.Config{
		WorkingDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		},
		DayStartHour: 9,
		DayEndHour:   17,
		DayEndMinute: 30,
	})
	require.NoError(t, err)
	return c
}

func testClock(t *testing.T) *Clock {
	t.Helper()
	clock, err := NewClock(testCalendar(t), DefaultAllotments, 0)
	require.NoError(t, err)
	return clock
}

func TestNewClockValidation(t *testing.T) {
	calendar := testCalendar(t)

	t.Run("missing priority mapping fails", func(t *testing.T) {
		table := AllotmentTable{
			models.PriorityCritical: 4,
			models.PriorityHigh:     8,
			models.PriorityLow:      48,
		}
		_, err := NewClock(calendar, table, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "medium")
	})

	t.Run("non-positive allotment fails", func(t *testing.T) {
		table := AllotmentTable{
			models.PriorityCritical: 0,
			models.PriorityHigh:     8,
			models.PriorityMedium:   24,
			models.PriorityLow:      48,
		}
		_, err := NewClock(calendar, table, 0)
		assert.Error(t, err)
	})

	t.Run("nil calendar fails", func(t *testing.T) {
		_, err := NewClock(nil, DefaultAllotments, 0)
		assert.Error(t, err)
	})

	t.Run("threshold above 100 fails", func(t *testing.T) {
		_, err := NewClock(calendar, DefaultAllotments, 120)
		assert.Error(t, err)
	})

	t.Run("zero threshold selects default", func(t *testing.T) {
		clock, err := NewClock(calendar, DefaultAllotments, 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultWarningThreshold, clock.WarningThreshold())
	})
}

func TestClockDeadline(t *testing.T) {
	clock := testClock(t)

	tests := []struct {
		name      string
		createdAt time.Time
		priority  models.Priority
		want      time.Time
	}{
		{
			name:      "critical opened at window start",
			createdAt: time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC), // Monday 09:00
			priority:  models.PriorityCritical,
			want:      time.Date(2025, 1, 6, 13, 0, 0, 0, time.UTC), // Monday 13:00
		},
		{
			name:      "critical opened saturday evening rolls to monday",
			createdAt: time.Date(2025, 1, 4, 20, 0, 0, 0, time.UTC), // Saturday 20:00
			priority:  models.PriorityCritical,
			want:      time.Date(2025, 1, 6, 13, 0, 0, 0, time.UTC), // Monday 13:00
		},
		{
			name:      "high crosses into next day",
			createdAt: time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC), // Monday 14:00
			priority:  models.PriorityHigh,                          // 8h: 3.5 today, 4.5 tomorrow
			want:      time.Date(2025, 1, 7, 13, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clock.Deadline(tt.createdAt, tt.priority)
			assert.True(t, got.Equal(tt.want), "Deadline() = %v, want %v", got, tt.want)
		})
	}
}

func TestEvaluateResolved(t *testing.T) {
	clock := testClock(t)
	created := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC) // Monday 09:00
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	t.Run("exactly meeting the allotment is compliant", func(t *testing.T) {
		resolved := time.Date(2025, 1, 6, 13, 0, 0, 0, time.UTC) // 4.0 business hours
		ticket := &models.TicketSnapshot{
			ID: "t-1", CreatedAt: created, ResolvedAt: &resolved,
			Priority: models.PriorityCritical, Status: models.StatusResolved,
		}
		outcome := clock.Evaluate(ticket, now)
		assert.Equal(t, 4.0, outcome.BusinessHoursUsed)
		assert.Equal(t, 4.0, outcome.AllottedHours)
		assert.False(t, outcome.IsBreached)
		assert.Equal(t, models.SLAStateWithin, outcome.State)
		assert.Empty(t, outcome.TimeRemaining)
	})

	t.Run("one hour over breaches", func(t *testing.T) {
		resolved := time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC) // 5.0 business hours
		ticket := &models.TicketSnapshot{
			ID: "t-2", CreatedAt: created, ResolvedAt: &resolved,
			Priority: models.PriorityCritical, Status: models.StatusResolved,
		}
		outcome := clock.Evaluate(ticket, now)
		assert.Equal(t, 5.0, outcome.BusinessHoursUsed)
		assert.True(t, outcome.IsBreached)
		assert.Equal(t, models.SLAStateBreached, outcome.State)
		assert.Equal(t, 125.0, outcome.PercentUsed)
	})
}

func TestEvaluateOpen(t *testing.T) {
	clock := testClock(t)
	created := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC) // Monday 09:00
	deadline := time.Date(2025, 1, 6, 13, 0, 0, 0, time.UTC)

	ticket := func() *models.TicketSnapshot {
		return &models.TicketSnapshot{
			ID: "t-3", CreatedAt: created,
			Priority: models.PriorityCritical, Status: models.StatusInProgress,
		}
	}

	t.Run("not breached at the deadline instant", func(t *testing.T) {
		outcome := clock.Evaluate(ticket(), deadline)
		assert.False(t, outcome.IsBreached)
		assert.True(t, outcome.Deadline.Equal(deadline))
	})

	t.Run("breached one second past the deadline", func(t *testing.T) {
		outcome := clock.Evaluate(ticket(), deadline.Add(time.Second))
		assert.True(t, outcome.IsBreached)
		assert.Equal(t, models.SLAStateBreached, outcome.State)
	})

	t.Run("breach registers outside working hours", func(t *testing.T) {
		// 23:00 is past the window; the wall-clock deadline comparison
		// must not wait for business hours to accrue.
		now := time.Date(2025, 1, 6, 23, 0, 0, 0, time.UTC)
		outcome := clock.Evaluate(ticket(), now)
		assert.True(t, outcome.IsBreached)
		assert.Equal(t, 8.5, outcome.BusinessHoursUsed)
	})

	t.Run("at risk once the warning threshold is consumed", func(t *testing.T) {
		open := &models.TicketSnapshot{
			ID: "t-4", CreatedAt: created,
			Priority: models.PriorityHigh, Status: models.StatusAssigned,
		}
		now := time.Date(2025, 1, 6, 15, 0, 0, 0, time.UTC) // 6 of 8 hours = 75%
		outcome := clock.Evaluate(open, now)
		assert.False(t, outcome.IsBreached)
		assert.Equal(t, 75.0, outcome.PercentUsed)
		assert.Equal(t, models.SLAStateAtRisk, outcome.State)
	})

	t.Run("within below the threshold", func(t *testing.T) {
		now := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
		outcome := clock.Evaluate(ticket(), now)
		assert.Equal(t, models.SLAStateWithin, outcome.State)
		assert.NotEmpty(t, outcome.TimeRemaining)
	})
}

func TestEvaluateDegradedInputs(t *testing.T) {
	clock := testClock(t)
	created := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	now := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

	t.Run("missing priority uses the lowest tier", func(t *testing.T) {
		ticket := &models.TicketSnapshot{ID: "t-5", CreatedAt: created, Status: models.StatusOpen}
		outcome := clock.Evaluate(ticket, now)
		assert.Equal(t, 48.0, outcome.AllottedHours)
		assert.False(t, outcome.IsBreached)
	})

	t.Run("terminal status without timestamp is treated as open", func(t *testing.T) {
		ticket := &models.TicketSnapshot{
			ID: "t-6", CreatedAt: created,
			Priority: models.PriorityCritical, Status: models.StatusResolved,
		}
		late := time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC) // past the 4h deadline
		outcome := clock.Evaluate(ticket, late)
		assert.True(t, outcome.IsBreached)
		assert.NotEmpty(t, outcome.TimeRemaining)
	})
}

func TestEvaluateAll(t *testing.T) {
	clock := testClock(t)
	created := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	now := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

	assert.Nil(t, clock.EvaluateAll(nil, now))

	tickets := []models.TicketSnapshot{
		{ID: "a", CreatedAt: created, Priority: models.PriorityCritical, Status: models.StatusOpen},
		{ID: "b", CreatedAt: created, Priority: models.PriorityLow, Status: models.StatusOpen},
	}
	outcomes := clock.EvaluateAll(tickets, now)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "a", outcomes[0].TicketID)
	assert.Equal(t, "b", outcomes[1].TicketID)
	assert.Equal(t, 4.0, outcomes[0].AllottedHours)
	assert.Equal(t, 48.0, outcomes[1].AllottedHours)
}
