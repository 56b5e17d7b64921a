package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	appName = "RevPilot"
	version = "v1.4.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     "revpilot",
		Short:   "Dynamic pricing recommendations for short-term rentals",
		Version: version,
		Long: `RevPilot compares a short-term rental against its filtered comparable
market and recommends nightly rates, promotions, and an annual revenue
target. Weekly audits produce a day-by-day schedule; monthly forecasts
diagnose systematic mispricing and correct the target rent.`,
	}
	rootCmd.PersistentFlags().String("settings", "", "Engine threshold settings YAML (defaults built in)")
	rootCmd.PersistentFlags().String("config", "", "Runtime config YAML (provider, redis, postgres, alerts)")

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Run the weekly bell-curve audit for one property",
		RunE:  runAudit,
	}
	addRunFlags(auditCmd.Flags())

	forecastCmd := &cobra.Command{
		Use:   "forecast",
		Short: "Run the monthly mispricing forecast for one property",
		RunE:  runForecast,
	}
	addRunFlags(forecastCmd.Flags())

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the recurring job table",
	}
	scheduleStartCmd := &cobra.Command{
		Use:   "start",
		Short: "Start all enabled jobs and the monitor server",
		RunE:  runScheduleStart,
	}
	scheduleStartCmd.Flags().String("jobs", "config/jobs.yaml", "Job table YAML")
	scheduleListCmd := &cobra.Command{
		Use:   "list",
		Short: "List configured jobs",
		RunE:  runScheduleList,
	}
	scheduleListCmd.Flags().String("jobs", "config/jobs.yaml", "Job table YAML")
	scheduleStatusCmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running scheduler's /status endpoint",
		RunE:  runScheduleStatus,
	}
	scheduleCmd.AddCommand(scheduleStartCmd, scheduleListCmd, scheduleStatusCmd)

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Serve /health, /metrics, and /status without the scheduler",
		RunE:  runMonitor,
	}

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print archived runs for a property",
		RunE:  runReport,
	}
	reportCmd.Flags().String("property", "", "Property identifier (required)")
	reportCmd.Flags().Int("limit", 5, "Number of archived runs to print")

	rootCmd.AddCommand(auditCmd, forecastCmd, scheduleCmd, monitorCmd, reportCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// addRunFlags attaches the flags shared by audit and forecast.
func addRunFlags(flags *pflag.FlagSet) {
	flags.String("property", "", "Property identifier (required)")
	flags.String("market", "", "Market identifier (required)")
	flags.Int("bedrooms", 0, "Comparable filter: bedrooms")
	flags.String("property-type", "", "Comparable filter: property type")
	flags.Int("min-sleeps", 0, "Comparable filter: minimum sleeps")
	flags.StringSlice("amenities", nil, "Comparable filter: amenities")
	flags.Int("days-out", 0, "Days until the next open arrival date")
}
