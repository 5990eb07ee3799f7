package component

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quality-measures/accelerator/internal/ums"
)

func TestComputeComponentDiff_EmptyForIdenticalContent(t *testing.T) {
	a := &ums.DataElement{ID: "a", Type: ums.ElementEncounter, ValueSet: &ums.ValueSetUse{OID: "1.2.3"}}
	b := &ums.DataElement{ID: "b", Type: ums.ElementEncounter, ValueSet: &ums.ValueSetUse{OID: "1.2.3"}}
	assert.Empty(t, computeComponentDiff(a, b))
}

func TestComputeComponentDiff_DetectsValueSetOIDChange(t *testing.T) {
	a := &ums.DataElement{ValueSet: &ums.ValueSetUse{OID: "1.2.3"}}
	b := &ums.DataElement{ValueSet: &ums.ValueSetUse{OID: "9.9.9"}}
	diffs := computeComponentDiff(a, b)
	assert.Len(t, diffs, 1)
	assert.Equal(t, "valueSetOid", diffs[0].Field)
}

func TestComputeComponentDiff_DetectsTimingAddedOrRemoved(t *testing.T) {
	a := &ums.DataElement{}
	b := &ums.DataElement{TimingOverride: &ums.TimingConstraint{Anchor: ums.AnchorMeasurementPeriod, Side: ums.SideDuring}}
	diffs := computeComponentDiff(a, b)
	assert.Len(t, diffs, 1)
	assert.Equal(t, "timing", diffs[0].Field)
}

func TestComputeComponentDiff_DetectsThresholdChange(t *testing.T) {
	min := 5.0
	a := &ums.DataElement{Thresholds: nil}
	b := &ums.DataElement{Thresholds: &ums.Thresholds{ValueMin: &min}}
	diffs := computeComponentDiff(a, b)
	assert.Len(t, diffs, 1)
	assert.Equal(t, "thresholds", diffs[0].Field)
}

func TestComputeComponentDiff_ClauseOperatorAndChildCount(t *testing.T) {
	a := &ums.LogicalClause{Operator: ums.OpAND, Children: []ums.ClauseNode{&ums.DataElement{}}}
	b := &ums.LogicalClause{Operator: ums.OpOR, Children: []ums.ClauseNode{&ums.DataElement{}, &ums.DataElement{}}}
	diffs := computeComponentDiff(a, b)
	assert.Len(t, diffs, 2)
}
