package dag

import (
	"sync"

	"github.com/vk/skygrid/internal/partition"
)

// Kind tells an executor's handler what a node stands for.
type Kind int

const (
	// MapNode processes one partition.
	MapNode Kind = iota
	// ReduceNode combines the results of its dependencies.
	ReduceNode
)

func (k Kind) String() string {
	switch k {
	case MapNode:
		return "map"
	case ReduceNode:
		return "reduce"
	default:
		return "unknown"
	}
}

// Graph is a collection of nodes and their dependencies, representing a DAG.
// All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[string]*Node
	// order keeps nodes in insertion order so traversals are deterministic.
	order []*Node
}

// Node is a single vertex in the graph. Its edges are managed through the
// Graph API using string IDs.
type Node struct {
	ID   string
	Kind Kind
	// Partition is set on map nodes.
	Partition *partition.Descriptor

	seq        int
	deps       map[string]*Node
	dependents map[string]*Node
}
