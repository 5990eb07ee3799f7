package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quality-measures/accelerator/internal/schema"
	"github.com/quality-measures/accelerator/internal/ums"
)

func testCtx(t *testing.T) *sqlCtx {
	t.Helper()
	fns, err := schema.For(schema.DialectPostgreSQL)
	require.NoError(t, err)
	return &sqlCtx{
		measure: &ums.Measure{Metadata: ums.Metadata{MeasurementPeriod: ums.Period{Start: "2025-01-01", End: "2025-12-31"}}},
		catalog: schema.Default(),
		fns:     fns,
		binds:   newBindingSet(),
		mpStart: ":mpStart",
		mpEnd:   ":mpEnd",
	}
}

func TestLowerClause_EmptyANDIsTautology(t *testing.T) {
	sc := testCtx(t)
	expr, warnings, errs := sc.lowerClause(&ums.LogicalClause{ID: "c", Operator: ums.OpAND}, "DENOMINATOR")
	assert.Equal(t, "1 = 1", expr)
	assert.Empty(t, warnings)
	assert.Empty(t, errs)
}

func TestLowerClause_NOTRequiresExactlyOneChild(t *testing.T) {
	sc := testCtx(t)
	_, _, errs := sc.lowerClause(&ums.LogicalClause{
		ID:       "bad-not",
		Operator: ums.OpNOT,
		Children: []ums.ClauseNode{
			&ums.DataElement{ID: "a", Type: ums.ElementEncounter},
			&ums.DataElement{ID: "b", Type: ums.ElementEncounter},
		},
	}, "DENOMINATOR")
	require.True(t, errs.HasFatal())
	assert.Equal(t, "NOT_ARITY", errs.Fatals()[0].Code)
}

func TestJoinAnd_SkipsEmptyParts(t *testing.T) {
	assert.Equal(t, "a and b", joinAnd("a", "", "b"))
	assert.Equal(t, "", joinAnd("", ""))
}

func TestUnitName(t *testing.T) {
	cases := []struct {
		unit ums.TimeUnit
		name string
		mult int
	}{
		{ums.UnitYears, "year", 1},
		{ums.UnitMonths, "month", 1},
		{ums.UnitWeeks, "day", 7},
		{ums.UnitHours, "hour", 1},
		{ums.UnitDays, "day", 1},
	}
	for _, c := range cases {
		name, mult := unitName(c.unit)
		assert.Equal(t, c.name, name)
		assert.Equal(t, c.mult, mult)
	}
}
