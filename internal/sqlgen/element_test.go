package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quality-measures/accelerator/internal/ums"
)

func TestLowerElement_DiagnosisByDirectCode(t *testing.T) {
	sc := testCtx(t)
	de := &ums.DataElement{ID: "dx", Type: ums.ElementDiagnosis, DirectCodes: []ums.Code{{Code: "E11.9", System: "ICD-10-CM"}}}

	expr, warnings, errs := sc.lowerElement(de, "NUMERATOR")
	require.Empty(t, errs)
	assert.Empty(t, warnings)
	assert.Contains(t, expr, "ph_f_condition")
	assert.Contains(t, expr, "COND.clinical_status = 'active'")
	assert.Contains(t, expr, "COND.condition_code in")
}

func TestLowerElement_NegationWrapsBody(t *testing.T) {
	sc := testCtx(t)
	de := &ums.DataElement{ID: "dx", Type: ums.ElementDiagnosis, Negation: true, DirectCodes: []ums.Code{{Code: "E11.9", System: "ICD-10-CM"}}}
	expr, _, _ := sc.lowerElement(de, "NUMERATOR")
	assert.True(t, len(expr) > 4 && expr[:4] == "not ")
}

func TestLowerElement_NoValueSetOrDirectCodesWarns(t *testing.T) {
	sc := testCtx(t)
	de := &ums.DataElement{ID: "dx", Type: ums.ElementDiagnosis}
	expr, warnings, errs := sc.lowerElement(de, "NUMERATOR")
	require.Empty(t, errs)
	require.NotEmpty(t, warnings)
	assert.Equal(t, "NO_VALUE_SET", warnings[0].Code)
	assert.Contains(t, expr, "1 = 1")
}

func TestLowerElement_UnboundTypeEmitsRecoverableTautology(t *testing.T) {
	sc := testCtx(t)
	de := &ums.DataElement{ID: "dev", Type: ums.ElementDevice}
	expr, warnings, errs := sc.lowerElement(de, "NUMERATOR")
	assert.Equal(t, "1 = 1", expr)
	assert.Empty(t, errs)
	require.NotEmpty(t, warnings)
	assert.Equal(t, "NO_SCHEMA_BINDING", warnings[0].Code)
}

func TestLowerDemographicElement_AgeThresholds(t *testing.T) {
	sc := testCtx(t)
	ageMin, ageMax := 18, 75
	de := &ums.DataElement{ID: "age", Type: ums.ElementDemographic, Thresholds: &ums.Thresholds{AgeMin: &ageMin, AgeMax: &ageMax}}
	expr, _, errs := sc.lowerElement(de, "DEMOG")
	require.Empty(t, errs)
	assert.Contains(t, expr, "ph_d_person")
	assert.Contains(t, expr, ">=")
	assert.Contains(t, expr, "<=")
}

func TestLowerDemographicElement_GenderKeyword(t *testing.T) {
	sc := testCtx(t)
	de := &ums.DataElement{ID: "gender", Type: ums.ElementDemographic, Description: "Female patients only"}
	expr, _, errs := sc.lowerElement(de, "DEMOG")
	require.Empty(t, errs)
	assert.Contains(t, expr, "gender_concept_name")
}

func TestLowerDemographicElement_AmbiguousWarns(t *testing.T) {
	sc := testCtx(t)
	de := &ums.DataElement{ID: "amb", Type: ums.ElementDemographic, Description: "unspecified"}
	expr, warnings, _ := sc.lowerElement(de, "DEMOG")
	assert.Equal(t, "1 = 1", expr)
	require.NotEmpty(t, warnings)
	assert.Equal(t, "AMBIGUOUS_DEMOGRAPHIC", warnings[0].Code)
}

func TestRequiredDoses(t *testing.T) {
	sc := testCtx(t)

	valueMin := 3.0
	withThreshold := &ums.DataElement{Thresholds: &ums.Thresholds{ValueMin: &valueMin}}
	assert.Equal(t, 3, sc.requiredDoses(withThreshold))

	spelled := &ums.DataElement{Description: "Requires three doses of vaccine"}
	assert.Equal(t, 3, sc.requiredDoses(spelled))

	numeral := &ums.DataElement{Description: "4 doses required"}
	assert.Equal(t, 4, sc.requiredDoses(numeral))

	defaultCase := &ums.DataElement{Description: "single administration"}
	assert.Equal(t, 1, sc.requiredDoses(defaultCase))
}

func TestLowerElement_ImmunizationDoseCounting(t *testing.T) {
	sc := testCtx(t)
	de := &ums.DataElement{
		ID:          "imm",
		Type:        ums.ElementImmunization,
		Description: "four doses",
		ValueSet:    nil,
		DirectCodes: []ums.Code{{Code: "90670", System: "CPT"}},
	}
	expr, _, errs := sc.lowerElement(de, "NUMERATOR")
	require.Empty(t, errs)
	assert.Contains(t, expr, "count(*)")
	assert.Contains(t, expr, ">=")
}
