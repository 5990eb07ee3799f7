package cqlgen

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quality-measures/accelerator/internal/ums"
)

func sampleMeasure() *ums.Measure {
	return &ums.Measure{
		Metadata: ums.Metadata{
			MeasureID:         "DM-SCREEN-001",
			MeasurementPeriod: ums.Period{Start: "2025-01-01", End: "2025-12-31"},
		},
		ValueSets: []*ums.ValueSetReference{
			{ID: "vs-office-visit", OID: "2.16.840.1.113883.3.464.1003.101.12.1001", Name: "Office Visit"},
		},
		Populations: []*ums.Population{
			{
				Type: ums.PopulationInitial,
				Criteria: &ums.LogicalClause{
					ID: "ip", Operator: ums.OpAND,
					Children: []ums.ClauseNode{
						&ums.DataElement{
							ID:   "enc",
							Type: ums.ElementEncounter,
							ValueSet: &ums.ValueSetUse{ID: "vs-office-visit"},
						},
					},
				},
			},
			{Type: ums.PopulationDenominator, EqualsInitialPopulation: true, Criteria: &ums.LogicalClause{ID: "denom", Operator: ums.OpAND}},
			{
				Type: ums.PopulationNumerator,
				Criteria: &ums.LogicalClause{
					ID: "num", Operator: ums.OpAND,
					Children: []ums.ClauseNode{
						&ums.DataElement{
							ID:          "dx",
							Type:        ums.ElementDiagnosis,
							DirectCodes: []ums.Code{{Code: "E11.9", System: "ICD-10-CM", Display: "Type 2 diabetes"}},
						},
					},
				},
			},
		},
	}
}

func TestGenerate_Success(t *testing.T) {
	g := New(nil)
	result := g.Generate(sampleMeasure())

	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, "DM_SCREEN_001", result.LibraryName)
	assert.Contains(t, result.CQL, `library DM_SCREEN_001 version '1.0.0'`)
	assert.Contains(t, result.CQL, `using FHIR version '4.0.1'`)
	assert.Contains(t, result.CQL, `valueset "Office Visit": 'urn:oid:2.16.840.1.113883.3.464.1003.101.12.1001'`)
	assert.Contains(t, result.CQL, `code "Type 2 diabetes": 'E11.9' from "ICD10"`)
	assert.Contains(t, result.CQL, `codesystem "ICD10"`)
	assert.Contains(t, result.CQL, `define "Initial Population":`)
	assert.Contains(t, result.CQL, `define "Denominator":`)
	assert.Contains(t, result.CQL, `define "Numerator":`)

	ipBody := defineBodyRe.FindStringSubmatch(result.CQL)
	require.Len(t, ipBody, 2, "expected to find the Initial Population define body")
	assert.False(t, strings.HasPrefix(ipBody[1], "("), "define body should have its redundant outer parens stripped: %q", ipBody[1])
}

var defineBodyRe = regexp.MustCompile(`define "Initial Population":\n  (.+)\n`)

func TestGenerate_MissingMeasurementPeriodFailsFast(t *testing.T) {
	m := sampleMeasure()
	m.Metadata.MeasurementPeriod = ums.Period{}

	g := New(nil)
	result := g.Generate(m)

	assert.False(t, result.Success)
	require.True(t, result.Errors.HasFatal())
	assert.Equal(t, "MISSING_MEASUREMENT_PERIOD", result.Errors.Fatals()[0].Code)
}

func TestGenerate_IsDeterministic(t *testing.T) {
	m := sampleMeasure()
	g := New(nil)
	first := g.Generate(m)
	second := g.Generate(m)
	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.Equal(t, first.CQL, second.CQL)
}

func TestDirectCodeDeclarations_DedupesIdenticalCodes(t *testing.T) {
	m := &ums.Measure{
		Populations: []*ums.Population{
			{Criteria: &ums.LogicalClause{
				Operator: ums.OpAND,
				Children: []ums.ClauseNode{
					&ums.DataElement{ID: "a", DirectCodes: []ums.Code{{Code: "123", System: "CPT", Display: "Visit"}}},
					&ums.DataElement{ID: "b", DirectCodes: []ums.Code{{Code: "123", System: "CPT", Display: "Visit"}}},
				},
			}},
		},
	}
	g := New(nil)
	decls := g.directCodeDeclarations(m)
	require.Len(t, decls, 1)
}
