package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/quality-measures/accelerator/internal/cqlvalidate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRun_DiabetesScreeningFixture(t *testing.T) {
	log := zap.NewNop().Sugar()

	report, err := Run("testdata/diabetes_screening.fixture.yaml", log)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, "DM-SCREEN-001", report.MeasureID)
	assert.False(t, report.ValidateIssues.HasFatal())
	assert.True(t, report.LintResult.Valid, "generated CQL should pass local lint: %v", report.LintResult.Errors)
	assert.Len(t, report.Dialects, len(AllDialects))
	for _, d := range report.Dialects {
		assert.Falsef(t, d.Failed, "dialect %s failed to compile: %v", d.Dialect, d.Issues)
	}

	require.Len(t, report.Patients, 3)
	byName := make(map[string]PatientResult, len(report.Patients))
	for _, p := range report.Patients {
		byName[p.Name] = p
	}

	t.Run("in numerator", func(t *testing.T) {
		p := byName["in numerator"]
		require.NoError(t, p.Err)
		assert.True(t, p.Passed)
		assert.Equal(t, "in_numerator", p.ActualOutcome)
	})

	t.Run("office visit but no diagnosis", func(t *testing.T) {
		p := byName["office visit but no diagnosis"]
		require.NoError(t, p.Err)
		assert.True(t, p.Passed)
		assert.Equal(t, "not_in_numerator", p.ActualOutcome)
	})

	t.Run("outside the age range", func(t *testing.T) {
		p := byName["outside the age range"]
		require.NoError(t, p.Err)
		assert.True(t, p.Passed)
		assert.Equal(t, "not_in_population", p.ActualOutcome)
	})

	assert.True(t, report.Passed())
}

func TestSummarize(t *testing.T) {
	passing := &MeasureReport{FixtureName: "a", LintResult: cqlvalidate.Result{Valid: true}}
	failing := &MeasureReport{
		FixtureName: "b",
		LintResult:  cqlvalidate.Result{Valid: true},
		Dialects:    []DialectResult{{Dialect: "postgres", Failed: true}},
	}

	summary := Summarize([]*MeasureReport{passing, failing})
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, []string{"b"}, summary.Failed)
}
