package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quality-measures/accelerator/internal/ums"
)

func TestGenerateHash_IgnoresIDButNotContent(t *testing.T) {
	a := &ums.DataElement{ID: "one", Type: ums.ElementEncounter, ValueSet: &ums.ValueSetUse{ID: "vs1"}}
	b := &ums.DataElement{ID: "two", Type: ums.ElementEncounter, ValueSet: &ums.ValueSetUse{ID: "vs1"}}
	c := &ums.DataElement{ID: "three", Type: ums.ElementEncounter, ValueSet: &ums.ValueSetUse{ID: "vs2"}}

	hashA, err := generateHash(a)
	require.NoError(t, err)
	hashB, err := generateHash(b)
	require.NoError(t, err)
	hashC, err := generateHash(c)
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB, "identical content with different IDs must hash equal")
	assert.NotEqual(t, hashA, hashC, "different value-set reference must hash differently")
}

func TestGenerateHash_IsDeterministic(t *testing.T) {
	node := &ums.LogicalClause{
		ID:       "root",
		Operator: ums.OpAND,
		Children: []ums.ClauseNode{
			&ums.DataElement{ID: "a", Type: ums.ElementDiagnosis},
		},
	}
	first, err := generateHash(node)
	require.NoError(t, err)
	second, err := generateHash(node)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateHash_ClauseRecursesThroughChildren(t *testing.T) {
	nodeA := &ums.LogicalClause{Operator: ums.OpAND, Children: []ums.ClauseNode{&ums.DataElement{Type: ums.ElementEncounter}}}
	nodeB := &ums.LogicalClause{Operator: ums.OpAND, Children: []ums.ClauseNode{&ums.DataElement{Type: ums.ElementDiagnosis}}}

	hashA, err := generateHash(nodeA)
	require.NoError(t, err)
	hashB, err := generateHash(nodeB)
	require.NoError(t, err)
	assert.NotEqual(t, hashA, hashB)
}
