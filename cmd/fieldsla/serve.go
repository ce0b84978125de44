package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/fieldops-io/fieldops-sla/internal/api"
	"github.com/fieldops-io/fieldops-sla/internal/config"
	"github.com/fieldops-io/fieldops-sla/internal/runner"
	"github.com/fieldops-io/fieldops-sla/internal/runner/tasks"
)

var serveFixturesFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the reporting API and run the scheduled breach sweep",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFixturesFlag, "fixtures", "", "Fixture file to load (overrides data.fixtures)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := config.Load(configPathFlag); err != nil {
		return err
	}
	cfg := config.Get()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	fixtures := cfg.Data.Fixtures
	if serveFixturesFlag != "" {
		fixtures = serveFixturesFlag
	}

	ctx := cmd.Context()
	repo, err := loadRepository(ctx, fixtures)
	if err != nil {
		return fmt.Errorf("failed to load fixtures: %w", err)
	}
	if fixtures != "" {
		log.Printf("Loaded ticket fixtures from %s", fixtures)
	}

	router := api.NewRouter(repo, engineFactory, cfg.Metrics.Enabled)
	router.SetupRoutes()

	var taskRunner *runner.Runner
	if cfg.Sweep.Enabled {
		registry := runner.NewTaskRegistry()
		registry.Register(tasks.NewBreachSweepTask(repo, clockFactory, cfg.Sweep.Schedule))
		taskRunner = runner.NewRunner(registry)
		if err := taskRunner.Start(ctx); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting FieldSLA server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if taskRunner != nil {
			taskRunner.Stop()
		}
		return err
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if taskRunner != nil {
		taskRunner.Stop()
	}

	log.Println("Server stopped")
	return nil
}
