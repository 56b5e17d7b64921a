package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/revpilot/revpilot/internal/app"
	"github.com/revpilot/revpilot/internal/domain/comps"
	"github.com/revpilot/revpilot/internal/report"
)

func runAudit(cmd *cobra.Command, _ []string) error {
	return runOnce(cmd, "audit")
}

func runForecast(cmd *cobra.Command, _ []string) error {
	return runOnce(cmd, "forecast")
}

// runOnce executes a single engine run from CLI flags and prints the report.
func runOnce(cmd *cobra.Command, job string) error {
	propertyID, _ := cmd.Flags().GetString("property")
	marketID, _ := cmd.Flags().GetString("market")
	if propertyID == "" {
		return fmt.Errorf("--property is required")
	}
	if marketID == "" {
		return fmt.Errorf("--market is required")
	}

	bedrooms, _ := cmd.Flags().GetInt("bedrooms")
	propertyType, _ := cmd.Flags().GetString("property-type")
	minSleeps, _ := cmd.Flags().GetInt("min-sleeps")
	amenities, _ := cmd.Flags().GetStringSlice("amenities")
	daysOut, _ := cmd.Flags().GetInt("days-out")

	d, err := buildDeps(cmd, false)
	if err != nil {
		return err
	}

	runReport, err := d.runner.Run(cmd.Context(), app.RunRequest{
		PropertyID: propertyID,
		MarketID:   marketID,
		Job:        job,
		DaysOut:    daysOut,
		Filters: comps.Filters{
			Bedrooms:     bedrooms,
			PropertyType: propertyType,
			MinSleeps:    minSleeps,
			Amenities:    amenities,
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), report.Format(runReport))
	return nil
}

func runReport(cmd *cobra.Command, _ []string) error {
	propertyID, _ := cmd.Flags().GetString("property")
	if propertyID == "" {
		return fmt.Errorf("--property is required")
	}
	limit, _ := cmd.Flags().GetInt("limit")

	d, err := buildDeps(cmd, false)
	if err != nil {
		return err
	}
	if d.repo == nil {
		return fmt.Errorf("run archive requires a postgres DSN in the runtime config")
	}

	snapshots, err := d.repo.History(cmd.Context(), propertyID, limit)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No archived runs for %s\n", propertyID)
		return nil
	}

	for _, snapshot := range snapshots {
		fmt.Fprint(cmd.OutOrStdout(), report.Format(report.RunReport{
			PropertyID: snapshot.PropertyID,
			MarketID:   snapshot.MarketID,
			RanAt:      snapshot.RanAt,
			Comps: comps.Result{
				Tier:       snapshot.Tier,
				SampleSize: snapshot.SampleSize,
			},
			Result: snapshot.Result,
		}))
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}
