package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_DetectsDirectCycle(t *testing.T) {
	g, err := NewGraph()
	require.NoError(t, err)

	require.NoError(t, g.AddEdge("a", "b"))

	cycle, err := g.WouldCycle("b", "a")
	require.NoError(t, err)
	assert.True(t, cycle, "b -> a would close a -> b -> a")
}

func TestGraph_DetectsTransitiveCycle(t *testing.T) {
	g, err := NewGraph()
	require.NoError(t, err)

	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))

	cycle, err := g.WouldCycle("c", "a")
	require.NoError(t, err)
	assert.True(t, cycle)
}

func TestGraph_SelfReferenceIsAlwaysACycle(t *testing.T) {
	g, err := NewGraph()
	require.NoError(t, err)

	cycle, err := g.WouldCycle("a", "a")
	require.NoError(t, err)
	assert.True(t, cycle)
}

func TestGraph_NoCycleForUnrelatedNodes(t *testing.T) {
	g, err := NewGraph()
	require.NoError(t, err)

	require.NoError(t, g.AddEdge("a", "b"))

	cycle, err := g.WouldCycle("c", "d")
	require.NoError(t, err)
	assert.False(t, cycle)
}

func TestGraph_RemoveEdgeBreaksCycle(t *testing.T) {
	g, err := NewGraph()
	require.NoError(t, err)

	require.NoError(t, g.AddEdge("a", "b"))
	g.RemoveEdge("a", "b")

	cycle, err := g.WouldCycle("b", "a")
	require.NoError(t, err)
	assert.False(t, cycle, "removed edge should no longer participate in reachability")
}
