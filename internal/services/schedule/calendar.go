// Package schedule provides business-hours calendar arithmetic, wrapping
// rickar/cal with the working-day and daily-window configuration every
// SLA computation depends on.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
)

// Config describes one business calendar: which weekdays are worked, the
// daily active window, exact holiday dates, and the timezone instants are
// evaluated in. The window never wraps past midnight.
type Config struct {
	WorkingDays    []time.Weekday
	DayStartHour   int
	DayStartMinute int
	DayEndHour     int
	DayEndMinute   int
	Holidays       []time.Time
	Timezone       string
}

// Validate reports the first configuration problem, if any. Calendar
// problems are fatal at startup, never per request.
func (c Config) Validate() error {
	if len(c.WorkingDays) == 0 {
		return fmt.Errorf("calendar: no working days configured")
	}
	for _, d := range c.WorkingDays {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("calendar: invalid weekday %d", d)
		}
	}
	if c.DayStartHour < 0 || c.DayStartHour > 23 || c.DayStartMinute < 0 || c.DayStartMinute > 59 {
		return fmt.Errorf("calendar: invalid day start %02d:%02d", c.DayStartHour, c.DayStartMinute)
	}
	if c.DayEndHour < 0 || c.DayEndHour > 24 || c.DayEndMinute < 0 || c.DayEndMinute > 59 {
		return fmt.Errorf("calendar: invalid day end %02d:%02d", c.DayEndHour, c.DayEndMinute)
	}
	start := c.DayStartHour*60 + c.DayStartMinute
	end := c.DayEndHour*60 + c.DayEndMinute
	if end > 24*60 {
		return fmt.Errorf("calendar: day end %02d:%02d past midnight", c.DayEndHour, c.DayEndMinute)
	}
	if start >= end {
		return fmt.Errorf("calendar: daily window %02d:%02d-%02d:%02d is empty or wraps midnight",
			c.DayStartHour, c.DayStartMinute, c.DayEndHour, c.DayEndMinute)
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("calendar: invalid timezone %q: %w", c.Timezone, err)
		}
	}
	return nil
}

// Calendar answers business-hours questions for one working calendar. It
// is immutable after construction and safe for concurrent use.
type Calendar struct {
	bc          *cal.BusinessCalendar
	loc         *time.Location
	startHour   int
	startMinute int
}

// New builds a Calendar from cfg, validating it first.
func New(cfg Config) (*Calendar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loc := time.UTC
	if cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("calendar: load timezone: %w", err)
		}
	}

	bc := cal.NewBusinessCalendar()
	working := make(map[time.Weekday]bool, len(cfg.WorkingDays))
	for _, d := range cfg.WorkingDays {
		working[d] = true
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		bc.SetWorkday(d, working[d])
	}

	start := time.Duration(cfg.DayStartHour)*time.Hour + time.Duration(cfg.DayStartMinute)*time.Minute
	end := time.Duration(cfg.DayEndHour)*time.Hour + time.Duration(cfg.DayEndMinute)*time.Minute
	bc.SetWorkHours(start, end)

	for _, day := range cfg.Holidays {
		day = day.In(loc)
		bc.AddHoliday(&cal.Holiday{
			Name:      day.Format("2006-01-02"),
			Type:      cal.ObservancePublic,
			Month:     day.Month(),
			Day:       day.Day(),
			Func:      cal.CalcDayOfMonth,
			StartYear: day.Year(),
			EndYear:   day.Year(),
		})
	}

	return &Calendar{
		bc:          bc,
		loc:         loc,
		startHour:   cfg.DayStartHour,
		startMinute: cfg.DayStartMinute,
	}, nil
}

// BusinessHoursBetween returns how many hours of [start, end] fall inside
// the working calendar. The result is 0 when end is at or before start.
// Partial first and last days clip to the actual instants; non-working
// days and holidays contribute nothing.
func (c *Calendar) BusinessHoursBetween(start, end time.Time) float64 {
	start = start.In(c.loc)
	end = end.In(c.loc)
	if !end.After(start) {
		return 0
	}
	return c.bc.WorkHoursInRange(start, end).Hours()
}

// IsWorkingTime reports whether t falls inside the working window.
func (c *Calendar) IsWorkingTime(t time.Time) bool {
	return c.bc.IsWorkTime(t.In(c.loc))
}

// NextWorkingStart rolls t forward to the next working day's window start
// when t falls outside the calendar. Instants already inside the window
// come back unchanged.
func (c *Calendar) NextWorkingStart(t time.Time) time.Time {
	t = t.In(c.loc)
	if c.bc.IsWorkTime(t) {
		return t
	}
	// A validated calendar has at least one working day per week, so this
	// walk terminates within a year even with a dense holiday list.
	day := t
	for i := 0; i < 368; i++ {
		start := time.Date(day.Year(), day.Month(), day.Day(), c.startHour, c.startMinute, 0, 0, c.loc)
		if start.After(t) && c.bc.IsWorkTime(start) {
			return start
		}
		day = day.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessHours returns the instant at which the given number of
// business hours after start has elapsed, rolling forward first when
// start is outside the working window. Non-working days are skipped
// entirely.
func (c *Calendar) AddBusinessHours(start time.Time, hours float64) time.Time {
	from := c.NextWorkingStart(start)
	if hours <= 0 {
		return from
	}
	return c.bc.AddWorkHours(from, time.Duration(hours*float64(time.Hour)))
}

// Location returns the timezone the calendar evaluates instants in.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// ParseWeekday maps a day name ("Mon" or "Monday", case-insensitive) to
// its time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(s) {
	case "sun", "sunday":
		return time.Sunday, nil
	case "mon", "monday":
		return time.Monday, nil
	case "tue", "tuesday":
		return time.Tuesday, nil
	case "wed", "wednesday":
		return time.Wednesday, nil
	case "thu", "thursday":
		return time.Thursday, nil
	case "fri", "friday":
		return time.Friday, nil
	case "sat", "saturday":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
}
