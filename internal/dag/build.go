package dag

import (
	"fmt"

	"github.com/vk/skygrid/internal/partition"
)

// ReduceID is the ID of the node that combines all partitions.
const ReduceID = "reduce"

// MapReduce builds a graph with one map node per partition, in plan order,
// and a single reduce node depending on all of them.
func MapReduce(plan []partition.Descriptor) (*Graph, error) {
	if len(plan) == 0 {
		return nil, fmt.Errorf("cannot build a graph from an empty plan")
	}
	g := New()
	for i := range plan {
		id := plan[i].ID()
		if _, exists := g.Node(id); exists {
			return nil, fmt.Errorf("duplicate partition %s", id)
		}
		g.AddNode(id, MapNode, &plan[i])
	}
	g.AddNode(ReduceID, ReduceNode, nil)
	for i := range plan {
		if err := g.AddEdge(plan[i].ID(), ReduceID); err != nil {
			return nil, err
		}
	}
	return g, nil
}
