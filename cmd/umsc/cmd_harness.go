package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quality-measures/accelerator/internal/harness"
)

var harnessCmd = &cobra.Command{
	Use:   "harness <fixture.yaml> [fixture.yaml...]",
	Short: "Run the composition harness: compile + evaluate every fixture across all dialects",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var reports []*harness.MeasureReport
		for _, path := range args {
			report, err := harness.Run(path, sugar)
			if err != nil {
				return fmt.Errorf("running fixture %s: %w", path, err)
			}
			reports = append(reports, report)
			printMeasureReport(report)
		}

		summary := harness.Summarize(reports)
		fmt.Printf("\n%d/%d fixtures passed\n", summary.Passed, summary.Total)
		if len(summary.Failed) > 0 {
			for _, name := range summary.Failed {
				fmt.Printf("  FAIL %s\n", name)
			}
			return fmt.Errorf("%d fixture(s) failed", len(summary.Failed))
		}
		return nil
	},
}

func printMeasureReport(r *harness.MeasureReport) {
	status := "PASS"
	if !r.Passed() {
		status = "FAIL"
	}
	fmt.Printf("[%s] %s (%s)\n", status, r.FixtureName, r.MeasureID)
	printIssues("validate", r.ValidateIssues)
	printIssues("cqlgen", r.CQLIssues)
	for _, d := range r.Dialects {
		mark := "ok"
		if d.Failed {
			mark = "FAILED"
		}
		fmt.Printf("  sql[%s]: %s\n", d.Dialect, mark)
	}
	for _, p := range r.Patients {
		mark := "ok"
		if !p.Passed {
			mark = "MISMATCH"
		}
		fmt.Printf("  patient %s: expect=%s actual=%s (%s)\n", p.Name, p.ExpectOutcome, p.ActualOutcome, mark)
	}
}
