// Package telemetry exposes the service's Prometheus instrumentation.
// Metrics register on the default registry at import time and are served
// by the API's /metrics endpoint.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fieldops-io/fieldops-sla/internal/models"
)

var (
	// EvaluationsTotal counts SLA clock evaluations by resulting state.
	EvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldsla_evaluations_total",
		Help: "Total number of SLA evaluations by resulting state",
	}, []string{"state"})

	// ReportBuildsTotal counts assembled reports by kind.
	ReportBuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldsla_report_builds_total",
		Help: "Total number of report builds by report kind",
	}, []string{"report"})

	// ReportBuildSeconds tracks report assembly latency by kind.
	ReportBuildSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fieldsla_report_build_duration_seconds",
		Help:    "Report build latency by report kind",
		Buckets: prometheus.DefBuckets,
	}, []string{"report"})

	// TaskRunsTotal counts background task executions by task and outcome.
	TaskRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldsla_task_runs_total",
		Help: "Total number of background task executions by task and outcome",
	}, []string{"task", "outcome"})

	// TaskDurationSeconds tracks background task run time by task.
	TaskDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fieldsla_task_duration_seconds",
		Help:    "Background task run time by task",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	// SweepRunsTotal counts breach sweep executions.
	SweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fieldsla_sweep_runs_total",
		Help: "Total number of breach sweep executions",
	})

	// SweepBreaches is the open-past-deadline count from the last sweep.
	SweepBreaches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fieldsla_sweep_breaches",
		Help: "Open tickets past their deadline in the last sweep",
	})

	// SweepAtRisk is the past-warning-threshold count from the last sweep.
	SweepAtRisk = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fieldsla_sweep_at_risk",
		Help: "Open tickets past the warning threshold in the last sweep",
	})

	// TicketsLoaded is the number of snapshots the repository holds.
	TicketsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fieldsla_tickets_loaded",
		Help: "Ticket snapshots currently held in the repository",
	})
)

// RecordEvaluations adds a batch of clock outcomes to the evaluation
// counters.
func RecordEvaluations(outcomes []models.SLAOutcome) {
	for i := range outcomes {
		EvaluationsTotal.WithLabelValues(string(outcomes[i].State)).Inc()
	}
}

// TimeReportBuild records one report build and its duration; call it
// with the build start time once assembly finishes.
func TimeReportBuild(report string, start time.Time) {
	ReportBuildsTotal.WithLabelValues(report).Inc()
	ReportBuildSeconds.WithLabelValues(report).Observe(time.Since(start).Seconds())
}

// RecordSweep publishes the findings of one breach sweep.
func RecordSweep(breaches, atRisk int) {
	SweepRunsTotal.Inc()
	SweepBreaches.Set(float64(breaches))
	SweepAtRisk.Set(float64(atRisk))
}

// RecordTaskRun records one background task execution.
func RecordTaskRun(task string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	TaskRunsTotal.WithLabelValues(task, outcome).Inc()
	TaskDurationSeconds.WithLabelValues(task).Observe(elapsed.Seconds())
}
