package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quality-measures/accelerator/internal/cqlgen"
	"github.com/quality-measures/accelerator/internal/schema"
	"github.com/quality-measures/accelerator/internal/sqlgen"
	"github.com/quality-measures/accelerator/internal/ums"
)

// allDialects is the fan-out target set for "compile --dialect all".
var allDialects = []schema.Dialect{
	schema.DialectSynapse,
	schema.DialectSQLServer,
	schema.DialectPostgreSQL,
	schema.DialectOracle,
}

var (
	compileDialect string
	compileOutDir  string
)

var compileCmd = &cobra.Command{
	Use:   "compile <measure.yaml>",
	Short: "Compile a measure into CQL and dialect-specific SQL",
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

		cqlResult := cqlgen.New(sugar).Generate(m)
		printIssues("cqlgen", cqlResult.Warnings)
		if !cqlResult.Success {
			printIssues("cqlgen", cqlResult.Errors)
			return fmt.Errorf("CQL generation failed for %s", m.Metadata.MeasureID)
		}

		if err := emitCQL(m, cqlResult.CQL); err != nil {
			return err
		}

		if compileDialect == "all" {
			return compileAllDialects(m)
		}
		return compileOneDialect(m)
	},
}

func init() {
	compileCmd.Flags().StringVar(&compileDialect, "dialect", "", `target SQL dialect, or "all" to compile every dialect (defaults to config)`)
	compileCmd.Flags().StringVar(&compileOutDir, "out", "", "output directory (defaults to stdout)")
}

func compileOneDialect(m *ums.Measure) error {
	dialect := compileDialect
	if dialect == "" {
		d, err := cfg.Dialect()
		if err != nil {
			return err
		}
		dialect = string(d)
	}

	sqlResult := sqlgen.New(schema.Default(), sugar).Generate(m, schema.Dialect(dialect))
	printIssues("sqlgen", sqlResult.Warnings)
	if !sqlResult.Success {
		printIssues("sqlgen", sqlResult.Errors)
		return fmt.Errorf("SQL generation failed for %s", m.Metadata.MeasureID)
	}

	if compileOutDir == "" {
		fmt.Println("--- SQL ---")
		fmt.Println(sqlResult.SQL)
		return nil
	}
	return emitSQL(m, dialect, sqlResult.SQL)
}

// compileAllDialects fans the SQL generator out across every dialect
// concurrently via errgroup, writing (or printing) one artifact per
// dialect.
func compileAllDialects(m *ums.Measure) error {
	catalog := schema.Default()
	results := make([]sqlgen.Result, len(allDialects))
	var mu sync.Mutex
	var g errgroup.Group

	for i, d := range allDialects {
		i, d := i, d
		g.Go(func() error {
			result := sqlgen.New(catalog, sugar).Generate(m, d)
			mu.Lock()
			defer mu.Unlock()
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	failed := false
	for i, d := range allDialects {
		r := results[i]
		label := fmt.Sprintf("sqlgen:%s", d)
		printIssues(label, r.Warnings)
		if !r.Success {
			printIssues(label, r.Errors)
			failed = true
			continue
		}
		if compileOutDir == "" {
			fmt.Printf("--- SQL (%s) ---\n", d)
			fmt.Println(r.SQL)
			continue
		}
		if err := emitSQL(m, string(d), r.SQL); err != nil {
			return err
		}
	}
	if failed {
		return fmt.Errorf("SQL generation failed for one or more dialects compiling %s", m.Metadata.MeasureID)
	}
	return nil
}

func emitCQL(m *ums.Measure, cql string) error {
	if compileOutDir == "" {
		fmt.Println("--- CQL ---")
		fmt.Println(cql)
		return nil
	}
	if err := os.MkdirAll(compileOutDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	cqlPath := filepath.Join(compileOutDir, m.Metadata.MeasureID+".cql")
	if err := os.WriteFile(cqlPath, []byte(cql), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", cqlPath, err)
	}
	return nil
}

func emitSQL(m *ums.Measure, dialect, sql string) error {
	if err := os.MkdirAll(compileOutDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	sqlPath := filepath.Join(compileOutDir, m.Metadata.MeasureID+"."+dialect+".sql")
	if err := os.WriteFile(sqlPath, []byte(sql), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", sqlPath, err)
	}
	sugar.Infow("compiled SQL", "measureId", m.Metadata.MeasureID, "dialect", dialect, "path", sqlPath)
	return nil
}
