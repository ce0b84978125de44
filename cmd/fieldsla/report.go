package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldops-io/fieldops-sla/internal/config"
)

var (
	reportFixturesFlag string
	reportFromFlag     string
	reportToFlag       string
	reportLimitFlag    int
)

var reportCmd = &cobra.Command{
	Use:       "report [summary|sla|zones|agents|trend|dashboard]",
	Short:     "Assemble one report from a fixture file and print it as JSON",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"summary", "sla", "zones", "agents", "trend", "dashboard"},
	RunE:      runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFixturesFlag, "fixtures", "", "Fixture file to load (overrides data.fixtures)")
	reportCmd.Flags().StringVar(&reportFromFlag, "from", "", "Window start, RFC3339 or YYYY-MM-DD (default: trailing window)")
	reportCmd.Flags().StringVar(&reportToFlag, "to", "", "Window end, RFC3339 or YYYY-MM-DD (default: now)")
	reportCmd.Flags().IntVar(&reportLimitFlag, "limit", 0, "Ranking size for the agents report (default: reports.top_agents)")
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := config.Load(configPathFlag); err != nil {
		return err
	}
	cfg := config.Get()

	fixtures := cfg.Data.Fixtures
	if reportFixturesFlag != "" {
		fixtures = reportFixturesFlag
	}
	if fixtures == "" {
		return fmt.Errorf("no fixture file configured: pass --fixtures or set data.fixtures")
	}

	ctx := cmd.Context()
	repo, err := loadRepository(ctx, fixtures)
	if err != nil {
		return err
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -engine.WindowDays)
	to := now
	if reportFromFlag != "" {
		if from, err = parseCLITime(reportFromFlag); err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
	}
	if reportToFlag != "" {
		if to, err = parseCLITime(reportToFlag); err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
	}

	snap, err := repo.Snapshot(ctx, from, to)
	if err != nil {
		return err
	}

	var report any
	switch args[0] {
	case "summary":
		report = engine.Assembler.TicketSummary(snap, now)
	case "sla":
		report = engine.Assembler.SLAPerformance(snap, now)
	case "zones":
		report = engine.Assembler.ZonePerformance(snap, now)
	case "agents":
		limit := engine.TopAgents
		if reportLimitFlag > 0 {
			limit = reportLimitFlag
		}
		report = engine.Assembler.AgentPerformance(snap, now, limit)
	case "trend":
		report = engine.Assembler.DailyTrend(snap, now)
	case "dashboard":
		report = engine.Assembler.Dashboard(snap, now)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
