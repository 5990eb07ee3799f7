package ums

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validMeasureForValidation() *Measure {
	return &Measure{
		Metadata: Metadata{
			MeasureID:         "m1",
			MeasurementPeriod: Period{Start: "2025-01-01", End: "2025-12-31"},
		},
		Populations: []*Population{
			{Type: PopulationInitial, Criteria: &LogicalClause{ID: "ip", Operator: OpAND}},
			{Type: PopulationDenominator, Criteria: &LogicalClause{ID: "d", Operator: OpAND}},
			{Type: PopulationNumerator, Criteria: &LogicalClause{ID: "n", Operator: OpAND}},
		},
	}
}

func TestValidate_WellFormedMeasureHasNoFatals(t *testing.T) {
	issues := Validate(validMeasureForValidation())
	assert.False(t, issues.HasFatal())
}

func TestValidate_MissingMeasureIDIsFatal(t *testing.T) {
	m := validMeasureForValidation()
	m.Metadata.MeasureID = ""
	issues := Validate(m)
	assert.True(t, issues.HasFatal())
}

func TestValidate_MeasurementPeriodStartAfterEndIsFatal(t *testing.T) {
	m := validMeasureForValidation()
	m.Metadata.MeasurementPeriod = Period{Start: "2025-12-31", End: "2025-01-01"}
	issues := Validate(m)
	found := false
	for _, i := range issues.Fatals() {
		if i.Code == "INVALID_MEASUREMENT_PERIOD" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_DuplicatePopulationTypeIsFatal(t *testing.T) {
	m := validMeasureForValidation()
	m.Populations = append(m.Populations, &Population{Type: PopulationInitial})
	issues := Validate(m)
	assert.True(t, issues.HasFatal())
}

func TestValidate_NOTClauseWithMultipleChildrenIsFatal(t *testing.T) {
	m := validMeasureForValidation()
	m.Populations[0].Criteria = &LogicalClause{
		ID:       "ip",
		Operator: OpNOT,
		Children: []ClauseNode{&DataElement{ID: "a"}, &DataElement{ID: "b"}},
	}
	issues := Validate(m)
	found := false
	for _, i := range issues.Fatals() {
		if i.Code == "NOT_ARITY" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_DuplicateNodeIDIsFatal(t *testing.T) {
	m := validMeasureForValidation()
	m.Populations[0].Criteria = &LogicalClause{
		ID:       "ip",
		Operator: OpAND,
		Children: []ClauseNode{&DataElement{ID: "dup"}, &DataElement{ID: "dup"}},
	}
	issues := Validate(m)
	found := false
	for _, i := range issues.Fatals() {
		if i.Code == "DUPLICATE_ID" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_UnresolvedValueSetIsRecoverable(t *testing.T) {
	m := validMeasureForValidation()
	m.Populations[0].Criteria = &LogicalClause{
		ID:       "ip",
		Operator: OpAND,
		Children: []ClauseNode{&DataElement{ID: "a", ValueSet: &ValueSetUse{OID: "9.9.9"}}},
	}
	issues := Validate(m)
	assert.False(t, issues.HasFatal())
	found := false
	for _, i := range issues.Warnings() {
		if i.Code == "UNRESOLVED_VALUE_SET" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_BetweenComparatorMissingBoundIsFatal(t *testing.T) {
	m := validMeasureForValidation()
	min := 5.0
	m.Populations[0].Criteria = &LogicalClause{
		ID:       "ip",
		Operator: OpAND,
		Children: []ClauseNode{&DataElement{ID: "a", Thresholds: &Thresholds{Comparator: CmpBetween, ValueMin: &min}}},
	}
	issues := Validate(m)
	found := false
	for _, i := range issues.Fatals() {
		if i.Code == "INVALID_THRESHOLD_RANGE" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_InvertedAgeRangeIsFatal(t *testing.T) {
	m := validMeasureForValidation()
	m.GlobalConstraints = &GlobalConstraints{AgeRange: &AgeRange{Min: 80, Max: 10}}
	issues := Validate(m)
	assert.True(t, issues.HasFatal())
}
