package component

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quality-measures/accelerator/internal/ums"
)

func TestAutoAssignCategory(t *testing.T) {
	assert.Equal(t, CategoryComposite, autoAssignCategory(&ums.LogicalClause{Operator: ums.OpAND}))
	assert.Equal(t, CategoryDemographic, autoAssignCategory(&ums.DataElement{Type: ums.ElementDemographic}))

	min := 5.0
	assert.Equal(t, CategoryThreshold, autoAssignCategory(&ums.DataElement{Type: ums.ElementObservation, Thresholds: &ums.Thresholds{ValueMin: &min}}))

	assert.Equal(t, CategoryTiming, autoAssignCategory(&ums.DataElement{
		Type:           ums.ElementEncounter,
		TimingOverride: &ums.TimingConstraint{Anchor: ums.AnchorMeasurementPeriod, Side: ums.SideDuring},
	}))

	assert.Equal(t, CategoryValueSet, autoAssignCategory(&ums.DataElement{Type: ums.ElementEncounter, ValueSet: &ums.ValueSetUse{ID: "vs1"}}))

	assert.Equal(t, CategoryUncategorized, autoAssignCategory(&ums.DataElement{Type: ums.ElementEncounter}))
}

func TestSetCategory_DisablesAutoAssignment(t *testing.T) {
	c := &Component{CategoryAutoAssigned: true}
	c.SetCategory(CategoryDemographic)
	assert.Equal(t, CategoryDemographic, c.Category)
	assert.False(t, c.CategoryAutoAssigned)
}
