package ums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLogicalClause_YAMLRoundTrips(t *testing.T) {
	orig := &LogicalClause{
		ID:       "root",
		Operator: OpAND,
		Children: []ClauseNode{
			&DataElement{ID: "a", Type: ElementDiagnosis, DirectCodes: []Code{{Code: "E11.9"}}},
		},
	}

	data, err := yaml.Marshal(orig)
	require.NoError(t, err)

	var decoded LogicalClause
	require.NoError(t, yaml.Unmarshal(data, &decoded))

	assert.Equal(t, "root", decoded.ID)
	assert.Equal(t, OpAND, decoded.Operator)
	require.Len(t, decoded.Children, 1)

	de, ok := decoded.Children[0].(*DataElement)
	require.True(t, ok)
	assert.Equal(t, "a", de.ID)
	assert.Equal(t, "E11.9", de.DirectCodes[0].Code)
}

func TestMeasure_YAMLRoundTripsThroughNestedClause(t *testing.T) {
	orig := &Measure{
		Metadata: Metadata{MeasureID: "m1", MeasurementPeriod: Period{Start: "2025-01-01", End: "2025-12-31"}},
		Populations: []*Population{
			{Type: PopulationInitial, Criteria: &LogicalClause{ID: "ip", Operator: OpAND}},
		},
	}
	data, err := yaml.Marshal(orig)
	require.NoError(t, err)

	var decoded Measure
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "m1", decoded.Metadata.MeasureID)
	require.Len(t, decoded.Populations, 1)
	assert.Equal(t, "ip", decoded.Populations[0].Criteria.ID)
}
