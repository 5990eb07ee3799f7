package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quality-measures/accelerator/internal/ums"
)

func TestUnmetDescriptions_CollectsFailedElementsInOrder(t *testing.T) {
	numerator := &ums.Population{
		Type: ums.PopulationNumerator,
		Criteria: &ums.LogicalClause{
			Operator: ums.OpAND,
			Children: []ums.ClauseNode{
				&ums.DataElement{ID: "a", Description: "Zebra screening"},
				&ums.DataElement{ID: "b", Description: "Apple screening"},
			},
		},
	}
	trace := PopulationTrace{
		Root: ClauseTrace{
			Kind: "clause",
			Children: []ClauseTrace{
				{Kind: "element", Tag: TagFail},
				{Kind: "element", Tag: TagFail},
			},
		},
	}
	got := unmetDescriptions(numerator, trace, 5)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"Apple screening", "Zebra screening"}, got, "sorted, not tree order")
}

func TestUnmetDescriptions_SkipsPassedElements(t *testing.T) {
	numerator := &ums.Population{
		Criteria: &ums.LogicalClause{
			Operator: ums.OpAND,
			Children: []ums.ClauseNode{&ums.DataElement{ID: "a", Description: "Passed one"}},
		},
	}
	trace := PopulationTrace{Root: ClauseTrace{Kind: "clause", Children: []ClauseTrace{{Kind: "element", Tag: TagPass}}}}
	assert.Empty(t, unmetDescriptions(numerator, trace, 5))
}

func TestUnmetDescriptions_RespectsLimit(t *testing.T) {
	numerator := &ums.Population{
		Criteria: &ums.LogicalClause{
			Operator: ums.OpAND,
			Children: []ums.ClauseNode{
				&ums.DataElement{ID: "a", Description: "One"},
				&ums.DataElement{ID: "b", Description: "Two"},
				&ums.DataElement{ID: "c", Description: "Three"},
			},
		},
	}
	trace := PopulationTrace{
		Root: ClauseTrace{
			Kind: "clause",
			Children: []ClauseTrace{
				{Kind: "element", Tag: TagFail},
				{Kind: "element", Tag: TagFail},
				{Kind: "element", Tag: TagFail},
			},
		},
	}
	assert.Len(t, unmetDescriptions(numerator, trace, 2), 2)
}

func TestUnmetDescriptions_NilNumeratorReturnsNil(t *testing.T) {
	assert.Nil(t, unmetDescriptions(nil, PopulationTrace{}, 3))
}

func TestUnmetDescriptions_FallsBackToIDWhenDescriptionEmpty(t *testing.T) {
	numerator := &ums.Population{
		Criteria: &ums.LogicalClause{
			Operator: ums.OpAND,
			Children: []ums.ClauseNode{&ums.DataElement{ID: "element-7"}},
		},
	}
	trace := PopulationTrace{Root: ClauseTrace{Kind: "clause", Children: []ClauseTrace{{Kind: "element", Tag: TagFail}}}}
	assert.Equal(t, []string{"element-7"}, unmetDescriptions(numerator, trace, 5))
}
