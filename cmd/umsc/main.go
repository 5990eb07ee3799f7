// Package main implements umsc, the command-line entry point for the
// measure compiler: UMS validation/canonicalization, CQL and SQL
// generation, the patient-trace evaluator, and component-library
// maintenance.
//
// # File Index
//
//   - main.go         - entry point, rootCmd, global flags, logger setup
//   - cmd_compile.go  - compileCmd: UMS -> CQL + SQL
//   - cmd_validate.go - validateCmd: UMS validation + local CQL lint
//   - cmd_evaluate.go - evaluateCmd: patient-trace evaluator
//   - cmd_lib.go      - libCmd and its subcommands: component library maintenance
//   - cmd_harness.go  - harnessCmd: composition/regression harness over fixtures
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quality-measures/accelerator/internal/config"
	"github.com/quality-measures/accelerator/internal/logging"
)

var (
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
	sugar  *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "umsc",
	Short: "Universal Measure Specification compiler",
	Long: `umsc validates, canonicalizes, and compiles Universal Measure
Specification documents into CQL and dialect-specific SQL, runs the
patient-trace evaluator against authored test patients, and maintains the
content-addressed component library.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logging.LevelInfo
		if verbose {
			level = logging.LevelDebug
		}

		var err error
		logger, err = logging.New(logging.Options{Level: level})
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		sugar = logger.Sugar()

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "umsc.yaml", "path to configuration file")

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(libCmd)
	rootCmd.AddCommand(harnessCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
