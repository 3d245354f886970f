package dag

import (
	"fmt"
	"sort"

	"github.com/vk/skygrid/internal/partition"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
	}
}

// AddNode adds a node with the given ID to the graph and returns it. If a
// node with the same ID already exists it is returned unchanged.
func (g *Graph) AddNode(id string, kind Kind, part *partition.Descriptor) *Node {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if n, ok := g.nodes[id]; ok {
		return n
	}

	n := &Node{
		ID:         id,
		Kind:       kind,
		Partition:  part,
		seq:        len(g.order),
		deps:       make(map[string]*Node),
		dependents: make(map[string]*Node),
	}
	g.nodes[id] = n
	g.order = append(g.order, n)
	return n
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []*Node {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return append([]*Node(nil), g.order...)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.order)
}

// Dependencies returns the IDs of the nodes the given node depends on, in
// insertion order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(sorted(n.deps)), nil
}

// Dependents returns the IDs of the nodes that depend on the given node, in
// insertion order.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(sorted(n.dependents)), nil
}

// DetectCycles checks the graph for any cycles. It returns a non-nil error
// if a cycle is found, indicating the first node involved in the detected cycle.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Classic depth-first search with three sets of nodes:
	// permanent: nodes that have been fully visited and are not part of a cycle.
	// temporary: nodes currently in the recursion stack for the current traversal.
	// unvisited: all other nodes.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if permanent[n.ID] {
			return nil
		}
		if temporary[n.ID] {
			return fmt.Errorf("cycle detected involving node '%s'", n.ID)
		}

		temporary[n.ID] = true
		for _, dependent := range sorted(n.dependents) {
			if err := visit(dependent); err != nil {
				return err
			}
		}
		delete(temporary, n.ID)
		permanent[n.ID] = true

		return nil
	}

	for _, n := range g.order {
		if !permanent[n.ID] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}

	return nil
}

// TopologicalOrder returns the nodes so that every node follows its
// dependencies. Ties are broken by insertion order, so the result is stable
// for a given graph.
func (g *Graph) TopologicalOrder() ([]*Node, error) {
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}

	g.mutex.RLock()
	defer g.mutex.RUnlock()

	remaining := make(map[string]int, len(g.order))
	for _, n := range g.order {
		remaining[n.ID] = len(n.deps)
	}
	out := make([]*Node, 0, len(g.order))
	done := make(map[string]bool, len(g.order))
	for len(out) < len(g.order) {
		for _, n := range g.order {
			if done[n.ID] || remaining[n.ID] > 0 {
				continue
			}
			done[n.ID] = true
			out = append(out, n)
			for _, d := range n.dependents {
				remaining[d.ID]--
			}
			break
		}
	}
	return out, nil
}

// NumDeps returns the number of direct dependencies of n.
func (n *Node) NumDeps() int { return len(n.deps) }

// Dependents returns the nodes depending on n in insertion order. Callers
// must not mutate the graph concurrently.
func (n *Node) Dependents() []*Node { return sorted(n.dependents) }

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.ID, n.Kind)
}

func sorted(set map[string]*Node) []*Node {
	out := make([]*Node, 0, len(set))
	for _, n := range set {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func ids(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
