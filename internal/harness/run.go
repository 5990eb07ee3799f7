package harness

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quality-measures/accelerator/internal/cqlgen"
	"github.com/quality-measures/accelerator/internal/cqlvalidate"
	"github.com/quality-measures/accelerator/internal/evaluator"
	"github.com/quality-measures/accelerator/internal/schema"
	"github.com/quality-measures/accelerator/internal/sqlgen"
	"github.com/quality-measures/accelerator/internal/ums"
)

// AllDialects is the fan-out target set for a full-coverage compile run.
var AllDialects = []schema.Dialect{
	schema.DialectSynapse,
	schema.DialectSQLServer,
	schema.DialectPostgreSQL,
	schema.DialectOracle,
}

// DialectResult captures one dialect's SQL-generation outcome.
type DialectResult struct {
	Dialect schema.Dialect
	SQL     string
	Issues  ums.IssueList
	Failed  bool
	Err     error
}

// PatientResult captures one patient fixture's evaluator outcome against
// its expectation.
type PatientResult struct {
	Name           string
	ExpectOutcome  string
	ActualOutcome  string
	Passed         bool
	Trace          *evaluator.PatientTrace
	Err            error
}

// MeasureReport is the composition harness's full result for one fixture:
// validation, CQL generation, a dialect fanned out across SQL generation,
// and every patient's evaluator run.
type MeasureReport struct {
	FixtureName   string
	MeasureID     string
	ValidateIssues ums.IssueList
	CQL            string
	CQLIssues      ums.IssueList
	LintResult     cqlvalidate.Result
	Dialects       []DialectResult
	Patients       []PatientResult
}

// Passed reports whether every stage of this measure's report succeeded:
// no fatal validation issues, successful CQL generation, a clean lint,
// every dialect compiling, and every patient matching its expected
// outcome.
func (r *MeasureReport) Passed() bool {
	if r.ValidateIssues.HasFatal() {
		return false
	}
	if !r.LintResult.Valid {
		return false
	}
	for _, d := range r.Dialects {
		if d.Failed {
			return false
		}
	}
	for _, p := range r.Patients {
		if !p.Passed {
			return false
		}
	}
	return true
}

// Run executes the full composition harness against one fixture: it
// validates and canonicalizes the measure, generates CQL, lints it,
// fans the SQL generator out across every dialect with an errgroup, and
// runs the evaluator against each paired patient.
func Run(fixturePath string, log *zap.SugaredLogger) (*MeasureReport, error) {
	fixture, m, err := LoadFixture(fixturePath)
	if err != nil {
		return nil, err
	}

	report := &MeasureReport{
		FixtureName: fixture.Name,
		MeasureID:   m.Metadata.MeasureID,
	}

	report.ValidateIssues = ums.Validate(m)
	if report.ValidateIssues.HasFatal() {
		return report, nil
	}
	ums.Canonicalize(m)

	cqlResult := cqlgen.New(log).Generate(m)
	report.CQL = cqlResult.CQL
	report.CQLIssues = append(append(ums.IssueList{}, cqlResult.Warnings...), cqlResult.Errors...)
	if !cqlResult.Success {
		return report, nil
	}
	report.LintResult = cqlvalidate.Validate(cqlResult.CQL)

	report.Dialects = compileDialects(m, log, AllDialects)

	for _, pf := range fixture.Patients {
		report.Patients = append(report.Patients, runPatient(fixturePath, m, pf, log))
	}

	return report, nil
}

// compileDialects runs the SQL generator against every target dialect in
// parallel, collecting each dialect's result independently rather than
// failing the whole fan-out on one dialect's error.
func compileDialects(m *ums.Measure, log *zap.SugaredLogger, dialects []schema.Dialect) []DialectResult {
	results := make([]DialectResult, len(dialects))
	var mu sync.Mutex
	var wg errgroup.Group
	catalog := schema.Default()

	for i, d := range dialects {
		i, d := i, d
		wg.Go(func() error {
			gen := sqlgen.New(catalog, log)
			sqlResult := gen.Generate(m, d)

			mu.Lock()
			defer mu.Unlock()
			results[i] = DialectResult{
				Dialect: d,
				SQL:     sqlResult.SQL,
				Issues:  append(append(ums.IssueList{}, sqlResult.Warnings...), sqlResult.Errors...),
				Failed:  !sqlResult.Success,
			}
			return nil
		})
	}
	_ = wg.Wait()

	return results
}

// runPatient evaluates one patient fixture and compares its final outcome
// against the fixture's expectation.
func runPatient(fixturePath string, m *ums.Measure, pf PatientFixture, log *zap.SugaredLogger) PatientResult {
	patient, err := loadPatient(fixturePath, pf)
	if err != nil {
		return PatientResult{Name: pf.Name, ExpectOutcome: pf.ExpectOutcome, Err: err}
	}

	eval, err := evaluator.New(m, log)
	if err != nil {
		return PatientResult{Name: pf.Name, ExpectOutcome: pf.ExpectOutcome, Err: fmt.Errorf("building evaluator: %w", err)}
	}

	trace := eval.Evaluate(patient)
	return PatientResult{
		Name:          pf.Name,
		ExpectOutcome: pf.ExpectOutcome,
		ActualOutcome: string(trace.FinalOutcome),
		Passed:        string(trace.FinalOutcome) == pf.ExpectOutcome,
		Trace:         trace,
	}
}

// Summary is a terse roll-up across a batch of fixture reports, suitable
// for CI output.
type Summary struct {
	Total  int
	Passed int
	Failed []string
}

// Summarize rolls a batch of reports into pass/fail counts, recording the
// fixture names of every failure in a stable, sorted order.
func Summarize(reports []*MeasureReport) Summary {
	s := Summary{Total: len(reports)}
	for _, r := range reports {
		if r.Passed() {
			s.Passed++
		} else {
			s.Failed = append(s.Failed, r.FixtureName)
		}
	}
	sort.Strings(s.Failed)
	return s
}
