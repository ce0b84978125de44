// Package api serves the read-only reporting surface over HTTP. Handlers
// never touch ticket state; they snapshot the repository, run the report
// assembler, and render the result as JSON.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldops-io/fieldops-sla/internal/middleware"
	"github.com/fieldops-io/fieldops-sla/internal/repository"
	"github.com/fieldops-io/fieldops-sla/internal/services/reports"
	"github.com/fieldops-io/fieldops-sla/internal/version"
)

// ReportEngine bundles the assembler and the request defaults derived
// from configuration.
type ReportEngine struct {
	Assembler  *reports.Assembler
	WindowDays int
	TopAgents  int
}

// EngineFactory builds the engine a request should use. The router calls
// it per request so configuration reloads take effect without a restart.
type EngineFactory func() (*ReportEngine, error)

type Router struct {
	engine         *gin.Engine
	repo           repository.TicketRepository
	buildEngine    EngineFactory
	metricsEnabled bool
}

func NewRouter(repo repository.TicketRepository, factory EngineFactory, metricsEnabled bool) *Router {
	engine := gin.Default()
	engine.Use(middleware.RequestID())

	return &Router{
		engine:         engine,
		repo:           repo,
		buildEngine:    factory,
		metricsEnabled: metricsEnabled,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", r.healthCheck)
	r.engine.GET("/version", r.versionInfo)
	if r.metricsEnabled {
		r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// API v1 routes
	v1 := r.engine.Group("/api/v1")
	{
		reportGroup := v1.Group("/reports")
		{
			reportGroup.GET("/summary", r.handleTicketSummary)
			reportGroup.GET("/sla", r.handleSLAPerformance)
			reportGroup.GET("/zones", r.handleZonePerformance)
			reportGroup.GET("/agents", r.handleAgentPerformance)
			reportGroup.GET("/trend", r.handleDailyTrend)
			reportGroup.GET("/dashboard", r.handleDashboard)
		}

		v1.GET("/tickets/:id/sla", r.handleTicketSLA)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

func (r *Router) healthCheck(c *gin.Context) {
	tickets, err := r.repo.ListTickets(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "Ticket store unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "fieldsla-api",
		"version": version.Short(),
		"tickets": len(tickets),
	})
}

func (r *Router) versionInfo(c *gin.Context) {
	c.JSON(http.StatusOK, version.GetInfo())
}

// reportEngine builds the per-request engine, answering 500 itself when
// the live configuration cannot produce one.
func (r *Router) reportEngine(c *gin.Context) (*ReportEngine, bool) {
	re, err := r.buildEngine()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Report engine unavailable: "+err.Error())
		return nil, false
	}
	return re, true
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   msg,
	})
}
