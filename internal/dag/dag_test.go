package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/skygrid/internal/partition"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.nodes)
	assert.Empty(t, g.nodes)
	assert.Zero(t, g.Len())
}

func TestAddNode(t *testing.T) {
	g := New()

	a := g.AddNode("a", MapNode, nil)
	assert.Len(t, g.nodes, 1)
	assert.Equal(t, "a", a.ID)
	assert.NotNil(t, a.deps)
	assert.NotNil(t, a.dependents)

	again := g.AddNode("a", ReduceNode, nil) // Idempotent
	assert.Same(t, a, again)
	assert.Equal(t, MapNode, again.Kind)
	assert.Len(t, g.nodes, 1)

	g.AddNode("b", ReduceNode, nil)
	assert.Equal(t, []string{"a", "b"}, ids(g.Nodes()))
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		a := g.AddNode("a", MapNode, nil)
		b := g.AddNode("b", ReduceNode, nil)

		err := g.AddEdge("a", "b") // b depends on a
		require.NoError(t, err)

		assert.Equal(t, b, a.dependents["b"])
		assert.Equal(t, a, b.deps["a"])
		assert.Equal(t, 1, b.NumDeps())
		assert.Equal(t, []*Node{b}, a.Dependents())
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("a", MapNode, nil)
		g.AddNode("b", MapNode, nil)

		err := g.AddEdge("dne", "a")
		assert.ErrorContains(t, err, "source node not found")

		err = g.AddEdge("a", "dne")
		assert.ErrorContains(t, err, "destination node not found")

		err = g.AddEdge("a", "a")
		assert.ErrorContains(t, err, "self-referential edge")
	})
}

func TestDependenciesAndDependents(t *testing.T) {
	g := New()
	for _, id := range []string{"z", "y", "x", "r"} {
		g.AddNode(id, MapNode, nil)
	}
	require.NoError(t, g.AddEdge("x", "r"))
	require.NoError(t, g.AddEdge("z", "r"))
	require.NoError(t, g.AddEdge("y", "r"))

	deps, err := g.Dependencies("r")
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "y", "x"}, deps, "insertion order, not edge order")

	dependents, err := g.Dependents("y")
	require.NoError(t, err)
	assert.Equal(t, []string{"r"}, dependents)

	_, err = g.Dependencies("nope")
	assert.ErrorContains(t, err, "node not found: nope")
	_, err = g.Dependents("nope")
	assert.ErrorContains(t, err, "node not found: nope")
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		assert.NoError(t, New().DetectCycles())
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		g := New()
		for _, id := range []string{"a", "b", "c", "d"} {
			g.AddNode(id, MapNode, nil)
		}
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("a", "c")) // Transitive edge
		require.NoError(t, g.AddEdge("c", "d"))
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("simple direct cycle is detected", func(t *testing.T) {
		g := New()
		g.AddNode("a", MapNode, nil)
		g.AddNode("b", MapNode, nil)
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "a"))
		assert.ErrorContains(t, g.DetectCycles(), "cycle detected involving node 'a'")
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g := New()
		g.AddNode("a", MapNode, nil)
		g.AddNode("b", MapNode, nil)
		require.NoError(t, g.AddEdge("a", "b"))

		g.AddNode("x", MapNode, nil)
		g.AddNode("y", MapNode, nil)
		g.AddNode("z", MapNode, nil)
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("y", "z"))
		require.NoError(t, g.AddEdge("z", "y"))

		assert.ErrorContains(t, g.DetectCycles(), "cycle detected")
		_, err := g.TopologicalOrder()
		assert.ErrorContains(t, err, "cycle detected")
	})
}

func TestTopologicalOrder(t *testing.T) {
	g := New()
	for _, id := range []string{"d", "c", "b", "a"} {
		g.AddNode(id, MapNode, nil)
	}
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "d"))
	require.NoError(t, g.AddEdge("c", "d"))

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids(order))
}

func TestMapReduce(t *testing.T) {
	plan := []partition.Descriptor{{Index: 0}, {Index: 1}, {Index: 2}}

	g, err := MapReduce(plan)
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"partition.0000", "partition.0001", "partition.0002", ReduceID}, ids(order))

	reduce, ok := g.Node(ReduceID)
	require.True(t, ok)
	assert.Equal(t, ReduceNode, reduce.Kind)
	assert.Equal(t, 3, reduce.NumDeps())

	first, _ := g.Node("partition.0001")
	assert.Same(t, &plan[1], first.Partition)

	_, err = MapReduce(nil)
	assert.ErrorContains(t, err, "empty plan")

	_, err = MapReduce([]partition.Descriptor{{Index: 4}, {Index: 4}})
	assert.ErrorContains(t, err, "duplicate partition partition.0004")
}
