// Package sqlgen lowers a validated UMS into parameterized SQL against the
// clinical warehouse schema bound in internal/schema (spec §4.4). One CTE
// is emitted per population plus a final aggregation. Code, date,
// result-value and demographic columns are resolved through the schema
// catalog, so a stale binding for them is a generation-time error; the
// population_id/status/empi_id filter and join columns and the
// valueset_codes lookup are written as literals.
package sqlgen

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/quality-measures/accelerator/internal/schema"
	"github.com/quality-measures/accelerator/internal/ums"
)

// Result is the SQL generator's output contract (spec §4.4, §6.4).
type Result struct {
	Success  bool
	SQL      string
	Bindings []Binding
	Warnings ums.IssueList
	Errors   ums.IssueList
}

// Generator lowers UMS measures into dialect-specific SQL.
type Generator struct {
	catalog *schema.Catalog
	log     *zap.SugaredLogger
}

// New constructs a Generator bound to catalog. A nil logger falls back to
// a no-op zap logger.
func New(catalog *schema.Catalog, log *zap.SugaredLogger) *Generator {
	if catalog == nil {
		catalog = schema.Default()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Generator{catalog: catalog, log: log}
}

// cteSpec pairs a population type with its CTE name and the prior CTE it
// selects from.
type cteSpec struct {
	pop  ums.PopulationType
	name string
	from string
}

var ctePipeline = []cteSpec{
	{pop: ums.PopulationInitial, name: "INITIAL_POPULATION", from: "DEMOG"},
	{pop: ums.PopulationDenominator, name: "DENOMINATOR", from: "INITIAL_POPULATION"},
	{pop: ums.PopulationDenominatorExclusion, name: "DENOM_EXCLUSION", from: "DENOMINATOR"},
	{pop: ums.PopulationDenominatorException, name: "DENOM_EXCEPTION", from: "DENOMINATOR"},
	{pop: ums.PopulationNumerator, name: "NUMERATOR", from: "DENOMINATOR"},
	{pop: ums.PopulationNumeratorExclusion, name: "NUMERATOR_EXCLUSION", from: "NUMERATOR"},
	{pop: ums.PopulationMeasure, name: "MEASURE_POPULATION", from: "DEMOG"},
	{pop: ums.PopulationMeasureExclusion, name: "MEASURE_POPULATION_EXCLUSION", from: "MEASURE_POPULATION"},
	{pop: ums.PopulationMeasureObservation, name: "MEASURE_OBSERVATION", from: "MEASURE_POPULATION"},
}

// Generate lowers m into SQL for the given dialect. m is assumed already
// Validate+Canonicalize'd.
func (g *Generator) Generate(m *ums.Measure, dialect schema.Dialect) Result {
	var warnings, errs ums.IssueList

	fns, err := schema.For(dialect)
	if err != nil {
		return Result{Success: false, Errors: ums.IssueList{ums.Fatal("UNKNOWN_DIALECT", "%v", err)}}
	}

	if m.Metadata.MeasurementPeriod.Start == "" || m.Metadata.MeasurementPeriod.End == "" {
		return Result{Success: false, Errors: ums.IssueList{ums.Fatal("MISSING_MEASUREMENT_PERIOD", "SQL generation requires a measurement period")}}
	}

	binds := newBindingSet()
	mpStart := binds.put("mpStart", m.Metadata.MeasurementPeriod.Start)
	mpEnd := binds.put("mpEnd", m.Metadata.MeasurementPeriod.End)

	sc := &sqlCtx{
		measure: m,
		catalog: g.catalog,
		fns:     fns,
		binds:   binds,
		mpStart: mpStart,
		mpEnd:   mpEnd,
	}

	g.log.Debugw("generating SQL", "measureId", m.Metadata.MeasureID, "dialect", dialect)

	var b strings.Builder
	b.WriteString("with\n")

	demogClause, demogWarnings, demogErrs := sc.lowerDemographics()
	warnings = append(warnings, demogWarnings...)
	errs = append(errs, demogErrs...)
	fmt.Fprintf(&b, "  DEMOG as (\n    select P.empi_id\n    from ph_d_person P\n    where %s\n  )", demogClause)

	emitted := map[string]bool{"DEMOG": true}

	for _, spec := range ctePipeline {
		p := m.PopulationOf(spec.pop)
		if p == nil {
			continue
		}
		if !emitted[spec.from] {
			errs = append(errs, ums.Fatal("MISSING_DEPENDENCY", "population %q depends on CTE %q which was never emitted", spec.pop, spec.from))
			continue
		}

		predicate, pWarnings, pErrs := sc.lowerPopulation(p, spec.name)
		warnings = append(warnings, pWarnings...)
		errs = append(errs, pErrs...)

		fmt.Fprintf(&b, ",\n  %s as (\n    select * from %s\n    where %s\n  )", spec.name, spec.from, predicate)
		emitted[spec.name] = true
	}

	b.WriteString("\n")
	b.WriteString(buildFinalSelect(emitted))

	if errs.HasFatal() {
		return Result{Success: false, Errors: errs, Warnings: warnings}
	}

	return Result{
		Success:  true,
		SQL:      b.String(),
		Bindings: binds.list(),
		Warnings: warnings,
		Errors:   errs,
	}
}

func buildFinalSelect(emitted map[string]bool) string {
	var counts []string
	order := []string{"INITIAL_POPULATION", "DENOMINATOR", "DENOM_EXCLUSION", "DENOM_EXCEPTION", "NUMERATOR", "NUMERATOR_EXCLUSION"}
	for _, name := range order {
		if emitted[name] {
			counts = append(counts, fmt.Sprintf("(select count(distinct empi_id) from %s) as %s_count", name, strings.ToLower(name)))
		}
	}
	if len(counts) == 0 {
		return "select (select count(distinct empi_id) from DEMOG) as denom_count"
	}
	return "select\n  " + strings.Join(counts, ",\n  ")
}

// sqlCtx carries per-generation state through clause/element lowering.
type sqlCtx struct {
	measure *ums.Measure
	catalog *schema.Catalog
	fns     *schema.DialectFunctions
	binds   *bindingSet
	mpStart string
	mpEnd   string
}

func (c *sqlCtx) lowerPopulation(p *ums.Population, cteName string) (string, ums.IssueList, ums.IssueList) {
	if p.EqualsInitialPopulation {
		return "1 = 1", nil, nil
	}
	if p.Criteria == nil {
		return "1 = 1", nil, nil
	}
	return c.lowerNode(p.Criteria, cteName)
}

func (c *sqlCtx) lowerDemographics() (string, ums.IssueList, ums.IssueList) {
	var warnings, errs ums.IssueList
	gc := c.measure.GlobalConstraints
	if gc == nil {
		return "1 = 1", warnings, errs
	}

	var parts []string
	if gc.AgeRange != nil {
		asOf := c.fns.CurrentDate()
		if gc.AgeCalculation != "" {
			asOf = asOfExprFor(c, gc.AgeCalculation)
		}
		birthDateCol, err := c.catalog.Col("ph_d_person", "birth_date", "P")
		if err != nil {
			errs = append(errs, ums.Recoverable("NO_BIRTH_DATE_COLUMN", "demographics: %v", err))
			birthDateCol = "P.birth_date"
		}
		ageExpr := c.fns.AgeCalculation(birthDateCol, asOf)
		minBind := c.binds.put("ageMin", gc.AgeRange.Min)
		maxBind := c.binds.put("ageMax", gc.AgeRange.Max)
		parts = append(parts, fmt.Sprintf("(%s) between %s and %s", ageExpr, minBind, maxBind))
	}
	if gc.Gender != "" && gc.Gender != ums.GenderAny && gc.Gender != ums.GenderAll {
		genderCol, err := c.catalog.Col("ph_d_person", "gender_concept_name", "P")
		if err != nil {
			errs = append(errs, ums.Recoverable("NO_GENDER_COLUMN", "demographics: %v", err))
			genderCol = "P.gender_concept_name"
		}
		genderBind := c.binds.put("gender", string(gc.Gender))
		parts = append(parts, fmt.Sprintf("%s = %s", genderCol, genderBind))
	}

	if len(parts) == 0 {
		return "1 = 1", warnings, errs
	}
	return strings.Join(parts, " and "), warnings, errs
}

func asOfExprFor(c *sqlCtx, calc ums.AgeCalculation) string {
	switch calc {
	case ums.AgeCalcAtEnd, ums.AgeCalcTurnsDuring:
		return c.mpEnd
	default:
		return c.mpStart
	}
}
