package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/quality-measures/accelerator/internal/evaluator"
	"github.com/quality-measures/accelerator/internal/ums"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <measure.yaml> <patient.yaml>",
	Short: "Run the patient-trace evaluator against an authored test patient",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadMeasure(args[0])
		if err != nil {
			return err
		}

		issues := ums.Validate(m)
		if issues.HasFatal() {
			printIssues("validate", issues)
			return fmt.Errorf("measure %s failed validation", m.Metadata.MeasureID)
		}
		ums.Canonicalize(m)

		patientData, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading patient file %s: %w", args[1], err)
		}
		var patient evaluator.Patient
		if err := yaml.Unmarshal(patientData, &patient); err != nil {
			return fmt.Errorf("parsing patient file %s: %w", args[1], err)
		}

		eval, err := evaluator.New(m, sugar)
		if err != nil {
			return fmt.Errorf("building evaluator: %w", err)
		}

		trace := eval.Evaluate(&patient)
		out, err := json.MarshalIndent(trace, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding trace: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}
