// Package dag holds the task graph the imaging engines hand to an executor.
// Each partition of a run becomes a map node; the nodes that combine partial
// results are reduce nodes depending on every map node.
package dag
