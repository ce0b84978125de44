package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldops-io/fieldops-sla/internal/version"
)

var configPathFlag string

var rootCmd = &cobra.Command{
	Use:   "fieldsla",
	Short: "FieldSLA - business-hours SLA tracking and reporting for field service tickets",
	Long: `FieldSLA Command Line Interface

FieldSLA clocks field service tickets against business-hours service
level agreements and aggregates the results into operational reports.
The CLI serves the reporting API, assembles one-off reports, evaluates
single tickets, and manages ticket fixture files.`,
	Version: version.String(),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", ".", "Directory searched for fieldsla.yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(slaCmd)
	rootCmd.AddCommand(deadlineCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("FieldSLA %s\n", version.Full())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
