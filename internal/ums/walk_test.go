package ums

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildTree() *LogicalClause {
	return &LogicalClause{
		ID:       "root",
		Operator: OpAND,
		Children: []ClauseNode{
			&DataElement{ID: "a", Type: ElementEncounter},
			&LogicalClause{
				ID:       "inner",
				Operator: OpOR,
				Children: []ClauseNode{
					&DataElement{ID: "b", Type: ElementDiagnosis},
					&DataElement{ID: "c", Type: ElementProcedure},
				},
			},
		},
	}
}

func TestWalk_DepthFirstLeftToRight(t *testing.T) {
	var order []string
	Walk(buildTree(), func(n ClauseNode) {
		order = append(order, n.NodeID())
	})
	assert.Equal(t, []string{"root", "a", "inner", "b", "c"}, order)
}

func TestWalkDataElements_OnlyLeaves(t *testing.T) {
	var ids []string
	WalkDataElements(buildTree(), func(de *DataElement) {
		ids = append(ids, de.ID)
	})
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestWalk_NilNode(t *testing.T) {
	calls := 0
	Walk(nil, func(n ClauseNode) { calls++ })
	assert.Zero(t, calls)
}

func TestOperatorBetween(t *testing.T) {
	clause := &LogicalClause{
		Operator: OpAND,
		Children: []ClauseNode{
			&DataElement{ID: "a"},
			&DataElement{ID: "b"},
			&DataElement{ID: "c"},
		},
		SiblingConnections: []SiblingConnection{
			{LeftIndex: 1, RightIndex: 2, Operator: OpOR},
		},
	}

	assert.Equal(t, OpAND, OperatorBetween(clause, 1), "no override for 0/1, falls back to clause operator")
	assert.Equal(t, OpOR, OperatorBetween(clause, 2), "override applies to 1/2")
}
