package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldops-io/fieldops-sla/internal/models"
	"github.com/fieldops-io/fieldops-sla/internal/repository"
	"github.com/fieldops-io/fieldops-sla/internal/telemetry"
)

// timestampFormats are accepted for the from/to query parameters, tried
// in order.
var timestampFormats = []string{time.RFC3339, "2006-01-02"}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not RFC3339 or YYYY-MM-DD", raw)
}

// parseWindow reads the from/to query parameters. Absent bounds default
// to a trailing window ending now.
func parseWindow(c *gin.Context, windowDays int) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -windowDays)
	to := now

	if raw := c.Query("from"); raw != "" {
		t, err := parseTimestamp(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from parameter: %w", err)
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseTimestamp(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to parameter: %w", err)
		}
		to = t
	}

	return from, to, nil
}

// windowSnapshot resolves the request window and snapshots the
// repository, answering 400/500 itself on failure.
func (r *Router) windowSnapshot(c *gin.Context, re *ReportEngine) (models.Snapshot, bool) {
	from, to, err := parseWindow(c, re.WindowDays)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return models.Snapshot{}, false
	}

	snap, err := r.repo.Snapshot(c.Request.Context(), from, to)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidWindow) {
			respondError(c, http.StatusBadRequest, err.Error())
		} else {
			respondError(c, http.StatusInternalServerError, "Ticket store unavailable")
		}
		return models.Snapshot{}, false
	}

	return snap, true
}

func (r *Router) handleTicketSummary(c *gin.Context) {
	re, ok := r.reportEngine(c)
	if !ok {
		return
	}
	snap, ok := r.windowSnapshot(c, re)
	if !ok {
		return
	}

	start := time.Now()
	report := re.Assembler.TicketSummary(snap, time.Now().UTC())
	telemetry.TimeReportBuild("summary", start)

	c.JSON(http.StatusOK, report)
}

func (r *Router) handleSLAPerformance(c *gin.Context) {
	re, ok := r.reportEngine(c)
	if !ok {
		return
	}
	snap, ok := r.windowSnapshot(c, re)
	if !ok {
		return
	}

	start := time.Now()
	report := re.Assembler.SLAPerformance(snap, time.Now().UTC())
	telemetry.TimeReportBuild("sla", start)

	c.JSON(http.StatusOK, report)
}

func (r *Router) handleZonePerformance(c *gin.Context) {
	re, ok := r.reportEngine(c)
	if !ok {
		return
	}
	snap, ok := r.windowSnapshot(c, re)
	if !ok {
		return
	}

	start := time.Now()
	report := re.Assembler.ZonePerformance(snap, time.Now().UTC())
	telemetry.TimeReportBuild("zones", start)

	c.JSON(http.StatusOK, report)
}

func (r *Router) handleAgentPerformance(c *gin.Context) {
	re, ok := r.reportEngine(c)
	if !ok {
		return
	}

	limit := re.TopAgents
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	snap, ok := r.windowSnapshot(c, re)
	if !ok {
		return
	}

	start := time.Now()
	report := re.Assembler.AgentPerformance(snap, time.Now().UTC(), limit)
	telemetry.TimeReportBuild("agents", start)

	c.JSON(http.StatusOK, report)
}

func (r *Router) handleDailyTrend(c *gin.Context) {
	re, ok := r.reportEngine(c)
	if !ok {
		return
	}
	snap, ok := r.windowSnapshot(c, re)
	if !ok {
		return
	}

	start := time.Now()
	report := re.Assembler.DailyTrend(snap, time.Now().UTC())
	telemetry.TimeReportBuild("trend", start)

	c.JSON(http.StatusOK, report)
}

func (r *Router) handleDashboard(c *gin.Context) {
	re, ok := r.reportEngine(c)
	if !ok {
		return
	}
	snap, ok := r.windowSnapshot(c, re)
	if !ok {
		return
	}

	start := time.Now()
	report := re.Assembler.Dashboard(snap, time.Now().UTC())
	telemetry.TimeReportBuild("dashboard", start)

	c.JSON(http.StatusOK, report)
}
