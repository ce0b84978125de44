package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops-io/fieldops-sla/internal/models"
	"github.com/fieldops-io/fieldops-sla/internal/repository"
	"github.com/fieldops-io/fieldops-sla/internal/services/metrics"
	"github.com/fieldops-io/fieldops-sla/internal/services/reports"
	"github.com/fieldops-io/fieldops-sla/internal/services/schedule"
	"github.com/fieldops-io/fieldops-sla/internal/services/sla"
)

// testEngineFactory builds engines from a fixed Mon-Sat 09:00-17:30
// calendar and the default allotments.
func testEngineFactory() (*ReportEngine, error) {
	calendar, err := schedule.New(schedule.Config{
		WorkingDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		},
		DayStartHour: 9,
		DayEndHour:   17,
		DayEndMinute: 30,
		Timezone:     "UTC",
	})
	if err != nil {
		return nil, err
	}
	clock, err := sla.NewClock(calendar, sla.DefaultAllotments, sla.DefaultWarningThreshold)
	if err != nil {
		return nil, err
	}
	return &ReportEngine{
		Assembler:  reports.NewAssembler(calendar, clock, metrics.DefaultOutlierPolicy),
		WindowDays: 30,
		TopAgents:  5,
	}, nil
}

func fixedTime(day, hour, min int) time.Time {
	return time.Date(2025, time.January, day, hour, min, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// seedTickets are three resolved January 2025 tickets with known SLA
// outcomes plus one currently open ticket. Handler tests query the
// January window explicitly so the numbers stay stable regardless of
// when the suite runs.
func seedTickets() []models.TicketSnapshot {
	return []models.TicketSnapshot{
		{
			// 4 business hours used, 8 allotted.
			ID:           "t-1",
			CreatedAt:    fixedTime(6, 9, 0),
			ResolvedAt:   timePtr(fixedTime(6, 13, 0)),
			Priority:     models.PriorityHigh,
			Status:       models.StatusResolved,
			ZoneID:       "north",
			AssignedToID: "agent-1",
		},
		{
			// 8.5 business hours used, 4 allotted. Breached.
			ID:           "t-2",
			CreatedAt:    fixedTime(6, 9, 0),
			ResolvedAt:   timePtr(fixedTime(7, 9, 0)),
			Priority:     models.PriorityCritical,
			Status:       models.StatusResolved,
			ZoneID:       "north",
			AssignedToID: "agent-1",
		},
		{
			// 17 business hours used, 24 allotted.
			ID:           "t-3",
			CreatedAt:    fixedTime(6, 9, 0),
			ResolvedAt:   timePtr(fixedTime(8, 9, 0)),
			Priority:     models.PriorityMedium,
			Status:       models.StatusResolved,
			ZoneID:       "south",
			AssignedToID: "agent-2",
		},
		{
			ID:        "t-open",
			CreatedAt: time.Now().UTC().Add(-time.Hour),
			Priority:  models.PriorityLow,
			Status:    models.StatusOpen,
			ZoneID:    "south",
		},
	}
}

func seedTransitions() []models.StatusTransition {
	return []models.StatusTransition{
		{TicketID: "t-1", From: models.StatusAssigned, To: models.StatusEnRoute, At: fixedTime(6, 9, 30)},
		{TicketID: "t-1", From: models.StatusEnRoute, To: models.StatusOnSite, At: fixedTime(6, 10, 0)},
		{TicketID: "t-1", From: models.StatusOnSite, To: models.StatusResolved, At: fixedTime(6, 13, 0)},
	}
}

func testRouter(t *testing.T) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryTicketRepository()
	require.NoError(t, repo.ReplaceAll(context.Background(), seedTickets(), seedTransitions()))

	router := NewRouter(repo, testEngineFactory, true)
	router.SetupRoutes()
	return router
}

func doRequest(t *testing.T, router *Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.GetEngine().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := testRouter(t)

	w := doRequest(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "fieldsla-api", resp["service"])
	assert.Equal(t, float64(4), resp["tickets"])
}

func TestVersionEndpoint(t *testing.T) {
	router := testRouter(t)

	w := doRequest(t, router, "/version")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "dev", resp["version"])
	assert.Contains(t, resp, "go_version")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Run("serves prometheus text when enabled", func(t *testing.T) {
		router := testRouter(t)

		w := doRequest(t, router, "/metrics")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "fieldsla_sweep_runs_total")
	})

	t.Run("absent when disabled", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		repo := repository.NewMemoryTicketRepository()
		router := NewRouter(repo, testEngineFactory, false)
		router.SetupRoutes()

		w := doRequest(t, router, "/metrics")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestReportEngineFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryTicketRepository()
	factory := func() (*ReportEngine, error) {
		return nil, assert.AnError
	}
	router := NewRouter(repo, factory, false)
	router.SetupRoutes()

	w := doRequest(t, router, "/api/v1/reports/summary")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Contains(t, resp["error"], "Report engine unavailable")
}
