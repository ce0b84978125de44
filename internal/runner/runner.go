// Package runner executes registered background tasks on cron
// schedules. It owns scheduling and per-run timeouts only; process
// lifetime belongs to the caller, which stops the runner on shutdown.
package runner

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fieldops-io/fieldops-sla/internal/telemetry"
)

// Runner drives registered tasks through a cron scheduler.
type Runner struct {
	cron     *cron.Cron
	registry *TaskRegistry
	logger   *log.Logger
	wg       sync.WaitGroup
}

// NewRunner creates a runner over standard five-field cron expressions.
func NewRunner(registry *TaskRegistry) *Runner {
	return &Runner{
		cron:     cron.New(),
		registry: registry,
		logger:   log.New(os.Stdout, "[RUNNER] ", log.LstdFlags),
	}
}

// Start schedules every registered task and starts the scheduler. It
// returns once scheduling succeeds; call Stop to drain running tasks.
func (r *Runner) Start(ctx context.Context) error {
	for _, name := range r.registry.Names() {
		task, _ := r.registry.Get(name)
		r.logger.Printf("Scheduling task %s (%s)", name, task.Schedule())

		_, err := r.cron.AddFunc(task.Schedule(), func() {
			r.executeTask(ctx, task)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule task %s: %w", name, err)
		}
	}

	r.cron.Start()
	r.logger.Printf("Task runner started with %d task(s)", len(r.registry.Names()))
	return nil
}

// executeTask runs a single task under its timeout and records the run.
func (r *Runner) executeTask(ctx context.Context, task Task) {
	r.wg.Add(1)
	defer r.wg.Done()

	taskCtx, cancel := context.WithTimeout(ctx, task.Timeout())
	defer cancel()

	start := time.Now()
	err := r.runTask(taskCtx, task)
	elapsed := time.Since(start)
	telemetry.RecordTaskRun(task.Name(), err, elapsed)

	if err != nil {
		r.logger.Printf("Task %s failed after %v: %v", task.Name(), elapsed, err)
		return
	}
	r.logger.Printf("Task %s completed in %v", task.Name(), elapsed)
}

// runTask converts a task panic into an error so one bad run cannot
// take down the scheduler.
func (r *Runner) runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	return task.Run(ctx)
}

// Stop stops scheduling new runs and waits for in-flight tasks.
func (r *Runner) Stop() {
	r.logger.Println("Stopping task runner...")

	ctx := r.cron.Stop()
	r.wg.Wait()
	<-ctx.Done()

	r.logger.Println("Task runner stopped")
}
