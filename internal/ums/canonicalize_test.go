package ums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalMeasure() *Measure {
	return &Measure{
		Metadata: Metadata{
			MeasureID:         "M1",
			MeasurementPeriod: Period{Start: "2025-01-01", End: "2025-12-31"},
		},
		Populations: []*Population{
			{
				Type: PopulationInitial,
				Criteria: &LogicalClause{
					ID:       "ip",
					Operator: OpAND,
					Children: []ClauseNode{
						&DataElement{ID: "enc", Type: ElementEncounter},
					},
				},
			},
		},
	}
}

func TestCanonicalize_SynthesizesRequiredPopulations(t *testing.T) {
	m := minimalMeasure()
	Canonicalize(m)

	assert.NotNil(t, m.PopulationOf(PopulationDenominator))
	assert.NotNil(t, m.PopulationOf(PopulationNumerator))
	assert.NotNil(t, m.PopulationOf(PopulationInitial))
}

func TestCanonicalize_RemapsIDsUniquely(t *testing.T) {
	m := minimalMeasure()
	// Duplicate IDs, as might arise from cloned component subtrees.
	m.Populations[0].Criteria.ID = "dup"
	m.Populations[0].Criteria.Children = append(m.Populations[0].Criteria.Children,
		&DataElement{ID: "dup", Type: ElementProcedure})

	Canonicalize(m)

	seen := map[string]int{}
	for _, p := range m.Populations {
		if p.Criteria == nil {
			continue
		}
		Walk(p.Criteria, func(n ClauseNode) { seen[n.NodeID()]++ })
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "id %q should be unique after remapping", id)
	}
}

func TestCanonicalize_MergesDuplicateValueSetOIDsKeepingEarliestCodes(t *testing.T) {
	m := minimalMeasure()
	m.ValueSets = []*ValueSetReference{
		{ID: "vs1", OID: "1.2.3", Name: "First"},
		{ID: "vs2", OID: "1.2.3", Name: "Second", Codes: []Code{{Code: "E11.9", System: "ICD10"}}},
	}

	Canonicalize(m)

	require.Len(t, m.ValueSets, 1)
	assert.Equal(t, "vs1", m.ValueSets[0].ID, "earliest-listed reference wins")
	assert.Len(t, m.ValueSets[0].Codes, 1, "codes backfilled from the later duplicate")
}

func TestCanonicalize_InfersEqualsInitialPopulation(t *testing.T) {
	m := minimalMeasure()
	m.Populations = append(m.Populations, &Population{
		Type:        PopulationDenominator,
		Description: "Equals Initial Population",
		Criteria:    &LogicalClause{ID: "denom", Operator: OpAND},
	})

	Canonicalize(m)

	assert.True(t, m.PopulationOf(PopulationDenominator).EqualsInitialPopulation)
}

func TestCanonicalize_InfersEqualsInitialPopulationFromEmptyCriteria(t *testing.T) {
	m := minimalMeasure()
	m.Populations = append(m.Populations, &Population{
		Type:     PopulationDenominator,
		Criteria: &LogicalClause{ID: "denom", Operator: OpAND},
	})

	Canonicalize(m)

	assert.True(t, m.PopulationOf(PopulationDenominator).EqualsInitialPopulation)
}

func TestCanonicalize_PromotesLegacyTimingToStructuredForm(t *testing.T) {
	m := minimalMeasure()
	de := m.Populations[0].Criteria.Children[0].(*DataElement)
	de.TimingRequirements = []TimingRequirement{
		{RelativeTo: "measurement_period_end", Window: &Window{Value: 10, Unit: UnitYears, Direction: DirBefore}},
	}

	Canonicalize(m)

	require.NotNil(t, de.TimingOverride)
	assert.Equal(t, AnchorMeasurementPeriod, de.TimingOverride.Anchor)
	assert.Equal(t, SideBeforeEnd, de.TimingOverride.Side)
	assert.Equal(t, 10, de.TimingOverride.Offset.Value)
	assert.NotEmpty(t, de.TimingRequirements, "legacy form is retained alongside the promoted one")
}

func TestCanonicalize_InfersAgeCalculationForPediatricThreshold(t *testing.T) {
	m := minimalMeasure()
	ageMax := 17
	de := &DataElement{ID: "age", Type: ElementDemographic, Thresholds: &Thresholds{AgeMax: &ageMax}}
	m.Populations[0].Criteria.Children = append(m.Populations[0].Criteria.Children, de)

	Canonicalize(m)

	assert.Equal(t, AgeCalcTurnsDuring, de.AgeCalculation)
}

func TestCanonicalize_InfersAgeCalculationForAdultThreshold(t *testing.T) {
	m := minimalMeasure()
	ageMin := 18
	de := &DataElement{ID: "age", Type: ElementDemographic, Thresholds: &Thresholds{AgeMin: &ageMin}}
	m.Populations[0].Criteria.Children = append(m.Populations[0].Criteria.Children, de)

	Canonicalize(m)

	assert.Equal(t, AgeCalcAtStart, de.AgeCalculation)
}

func TestSortedOIDs(t *testing.T) {
	m := minimalMeasure()
	m.ValueSets = []*ValueSetReference{
		{ID: "vs1", OID: "2.2"},
		{ID: "vs2", OID: "1.1"},
		{ID: "vs3"}, // no OID, excluded
	}
	assert.Equal(t, []string{"1.1", "2.2"}, SortedOIDs(m))
}
