package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldops-io/fieldops-sla/internal/api"
	"github.com/fieldops-io/fieldops-sla/internal/config"
	"github.com/fieldops-io/fieldops-sla/internal/models"
	"github.com/fieldops-io/fieldops-sla/internal/repository"
	"github.com/fieldops-io/fieldops-sla/internal/services/metrics"
	"github.com/fieldops-io/fieldops-sla/internal/services/reports"
	"github.com/fieldops-io/fieldops-sla/internal/services/schedule"
	"github.com/fieldops-io/fieldops-sla/internal/services/sla"
	"github.com/fieldops-io/fieldops-sla/internal/telemetry"
)

// buildCalendar converts the calendar config section into a business
// calendar.
func buildCalendar(cfg *config.Config) (*schedule.Calendar, error) {
	days := make([]time.Weekday, 0, len(cfg.Calendar.WorkingDays))
	for _, name := range cfg.Calendar.WorkingDays {
		day, err := schedule.ParseWeekday(name)
		if err != nil {
			return nil, fmt.Errorf("calendar.working_days: %w", err)
		}
		days = append(days, day)
	}

	startHour, startMinute, err := cfg.Calendar.DayStartParts()
	if err != nil {
		return nil, fmt.Errorf("calendar.day_start: %w", err)
	}
	endHour, endMinute, err := cfg.Calendar.DayEndParts()
	if err != nil {
		return nil, fmt.Errorf("calendar.day_end: %w", err)
	}
	holidays, err := cfg.Calendar.HolidayDates()
	if err != nil {
		return nil, fmt.Errorf("calendar.holidays: %w", err)
	}

	return schedule.New(schedule.Config{
		WorkingDays:    days,
		DayStartHour:   startHour,
		DayStartMinute: startMinute,
		DayEndHour:     endHour,
		DayEndMinute:   endMinute,
		Holidays:       holidays,
		Timezone:       cfg.Calendar.Timezone,
	})
}

// buildAllotments converts the sla.allotments map, rejecting unknown
// priority names.
func buildAllotments(cfg *config.Config) (sla.AllotmentTable, error) {
	table := make(sla.AllotmentTable, len(cfg.SLA.Allotments))
	for name, hours := range cfg.SLA.Allotments {
		priority, err := models.ParsePriority(name)
		if err != nil {
			return nil, fmt.Errorf("sla.allotments: %w", err)
		}
		table[priority] = hours
	}
	return table, nil
}

func buildClock(cfg *config.Config) (*sla.Clock, error) {
	calendar, err := buildCalendar(cfg)
	if err != nil {
		return nil, err
	}
	allotments, err := buildAllotments(cfg)
	if err != nil {
		return nil, err
	}
	return sla.NewClock(calendar, allotments, cfg.SLA.WarningThreshold)
}

func buildOutlierPolicy(cfg *config.Config) metrics.OutlierPolicy {
	return metrics.OutlierPolicy{
		Travel:     bounds(cfg.Outliers.Travel),
		Onsite:     bounds(cfg.Outliers.Onsite),
		Resolution: bounds(cfg.Outliers.Resolution),
	}
}

func bounds(b config.BoundsConfig) metrics.Bounds {
	return metrics.Bounds{MinExclusive: b.MinExclusive, MaxInclusive: b.MaxInclusive}
}

// buildEngine assembles the reporting engine from one configuration
// view.
func buildEngine(cfg *config.Config) (*api.ReportEngine, error) {
	calendar, err := buildCalendar(cfg)
	if err != nil {
		return nil, err
	}
	allotments, err := buildAllotments(cfg)
	if err != nil {
		return nil, err
	}
	clock, err := sla.NewClock(calendar, allotments, cfg.SLA.WarningThreshold)
	if err != nil {
		return nil, err
	}
	return &api.ReportEngine{
		Assembler:  reports.NewAssembler(calendar, clock, buildOutlierPolicy(cfg)),
		WindowDays: cfg.Reports.WindowDays,
		TopAgents:  cfg.Reports.TopAgents,
	}, nil
}

// engineFactory reads the live configuration on each call so watched
// config changes reach new requests.
func engineFactory() (*api.ReportEngine, error) {
	cfg := config.Get()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return buildEngine(cfg)
}

// clockFactory is engineFactory's counterpart for the breach sweep.
func clockFactory() (*sla.Clock, error) {
	cfg := config.Get()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return buildClock(cfg)
}

// loadRepository builds the ticket store and, when a fixture path is
// given, loads that snapshot into it.
func loadRepository(ctx context.Context, fixturesPath string) (*repository.MemoryTicketRepository, error) {
	repo := repository.NewMemoryTicketRepository()
	if fixturesPath == "" {
		return repo, nil
	}

	tickets, transitions, err := repository.LoadFixtures(fixturesPath)
	if err != nil {
		return nil, err
	}
	if err := repo.ReplaceAll(ctx, tickets, transitions); err != nil {
		return nil, err
	}
	telemetry.TicketsLoaded.Set(float64(len(tickets)))
	return repo, nil
}

// parseCLITime accepts the same timestamp forms as the API: RFC3339 or
// a plain date.
func parseCLITime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%q is not RFC3339 or YYYY-MM-DD", raw)
}
