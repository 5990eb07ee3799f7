package component

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quality-measures/accelerator/internal/ums"
)

func TestComplexity_PlainDataElement(t *testing.T) {
	assert.Equal(t, 1, complexity(&ums.DataElement{Type: ums.ElementEncounter}))
}

func TestComplexity_AccountsForTimingThresholdAndNegation(t *testing.T) {
	min := 5.0
	de := &ums.DataElement{
		Type:           ums.ElementObservation,
		TimingOverride: &ums.TimingConstraint{Anchor: ums.AnchorMeasurementPeriod, Side: ums.SideDuring},
		Thresholds:     &ums.Thresholds{ValueMin: &min},
		Negation:       true,
	}
	assert.Equal(t, 4, complexity(de))
}

func TestComplexity_ClauseSumsChildrenPlusOne(t *testing.T) {
	clause := &ums.LogicalClause{
		Operator: ums.OpAND,
		Children: []ums.ClauseNode{
			&ums.DataElement{Type: ums.ElementEncounter},
			&ums.DataElement{Type: ums.ElementDiagnosis},
		},
	}
	assert.Equal(t, 3, complexity(clause))
}
