package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldops-io/fieldops-sla/internal/config"
	"github.com/fieldops-io/fieldops-sla/internal/models"
)

var slaFixturesFlag string

var slaCmd = &cobra.Command{
	Use:   "sla <ticket-id>",
	Short: "Clock one ticket against its SLA and print the outcome as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSLA,
}

func init() {
	slaCmd.Flags().StringVar(&slaFixturesFlag, "fixtures", "", "Fixture file to load (overrides data.fixtures)")
}

func runSLA(cmd *cobra.Command, args []string) error {
	if err := config.Load(configPathFlag); err != nil {
		return err
	}
	cfg := config.Get()

	fixtures := cfg.Data.Fixtures
	if slaFixturesFlag != "" {
		fixtures = slaFixturesFlag
	}
	if fixtures == "" {
		return fmt.Errorf("no fixture file configured: pass --fixtures or set data.fixtures")
	}

	ctx := cmd.Context()
	repo, err := loadRepository(ctx, fixtures)
	if err != nil {
		return err
	}

	clock, err := buildClock(cfg)
	if err != nil {
		return err
	}

	ticket, err := repo.GetTicket(ctx, args[0])
	if err != nil {
		return err
	}

	outcome := clock.Evaluate(ticket, time.Now().UTC())
	out, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

var (
	deadlinePriorityFlag string
	deadlineCreatedFlag  string
)

var deadlineCmd = &cobra.Command{
	Use:   "deadline",
	Short: "Compute the SLA deadline for a priority and start time",
	RunE:  runDeadline,
}

func init() {
	deadlineCmd.Flags().StringVar(&deadlinePriorityFlag, "priority", string(models.PriorityMedium), "Ticket priority (critical, high, medium, low)")
	deadlineCmd.Flags().StringVar(&deadlineCreatedFlag, "created", "", "Creation time, RFC3339 or YYYY-MM-DD (default: now)")
}

func runDeadline(cmd *cobra.Command, args []string) error {
	if err := config.Load(configPathFlag); err != nil {
		return err
	}
	cfg := config.Get()

	clock, err := buildClock(cfg)
	if err != nil {
		return err
	}

	priority, err := models.ParsePriority(deadlinePriorityFlag)
	if err != nil {
		return fmt.Errorf("invalid --priority: %w", err)
	}

	created := time.Now().UTC()
	if deadlineCreatedFlag != "" {
		if created, err = parseCLITime(deadlineCreatedFlag); err != nil {
			return fmt.Errorf("invalid --created: %w", err)
		}
	}

	deadline := clock.Deadline(created, priority)
	fmt.Printf("Priority: %s (%.1f business hours)\n", priority, clock.Allotment(priority))
	fmt.Printf("Created:  %s\n", created.Format(time.RFC3339))
	fmt.Printf("Deadline: %s\n", deadline.Format(time.RFC3339))
	return nil
}
