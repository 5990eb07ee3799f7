package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quality-measures/accelerator/internal/cqlgen"
	"github.com/quality-measures/accelerator/internal/cqlvalidate"
	"github.com/quality-measures/accelerator/internal/ums"
)

var validateCmd = &cobra.Command{
	Use:   "validate <measure.yaml>",
	Short: "Validate and canonicalize a measure, then lint its generated CQL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadMeasure(args[0])
		if err != nil {
			return err
		}

		issues := ums.Validate(m)
		printIssues("validate", issues)
		if issues.HasFatal() {
			return fmt.Errorf("measure %s failed validation", m.Metadata.MeasureID)
		}

		ums.Canonicalize(m)

		gen := cqlgen.New(sugar)
		result := gen.Generate(m)
		printIssues("cqlgen", result.Warnings)
		printIssues("cqlgen", result.Errors)
		if !result.Success {
			return fmt.Errorf("CQL generation failed for %s", m.Metadata.MeasureID)
		}

		lint := cqlvalidate.Validate(result.CQL)
		for _, w := range lint.Warnings {
			fmt.Printf("[lint] %s\n", w)
		}
		for _, e := range lint.Errors {
			fmt.Printf("[lint] %s\n", e)
		}
		if !lint.Valid {
			return fmt.Errorf("generated CQL for %s failed local validation", m.Metadata.MeasureID)
		}

		fmt.Printf("%s: valid (%d definitions, %d value sets)\n", m.Metadata.MeasureID, lint.Metadata.DefinitionCount, lint.Metadata.ValueSetCount)
		return nil
	},
}
