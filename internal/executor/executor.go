// Package executor runs the task graph built by an imaging engine. Serial
// runs nodes one at a time in topological order; Pool runs independent nodes
// concurrently on a fixed number of workers. Both stop scheduling at the
// first failure and report it as the root cause.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/vk/skygrid/internal/ctxlog"
	"github.com/vk/skygrid/internal/dag"
	"github.com/vk/skygrid/internal/telemetry"
)

// Handler performs the work of a single node.
type Handler func(ctx context.Context, n *dag.Node) error

// Executor orchestrates the execution of a task graph.
type Executor interface {
	Name() string
	Execute(ctx context.Context, g *dag.Graph, h Handler) error
}

// New returns a Pool with the given number of workers, or Serial when
// workers is not positive.
func New(workers int) Executor {
	if workers <= 0 {
		return Serial{}
	}
	return &Pool{Workers: workers}
}

// runNode wraps a handler invocation with tracing and metrics.
func runNode(ctx context.Context, n *dag.Node, h Handler) error {
	kind := n.Kind.String()
	ctx, span := telemetry.StartNode(ctx, n.ID, kind)
	defer span.End()

	start := time.Now()
	err := h(ctx, n)
	telemetry.RecordNode(ctx, kind, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func failure(ids []string, cause error) error {
	return fmt.Errorf("execution failed for %s: %w", strings.Join(ids, ", "), cause)
}

// Serial executes nodes one after another in the graph's topological order.
type Serial struct{}

func (Serial) Name() string { return "serial" }

func (Serial) Execute(ctx context.Context, g *dag.Graph, h Handler) error {
	logger := ctxlog.FromContext(ctx)
	order, err := g.TopologicalOrder()
	if err != nil {
		return err
	}
	for _, n := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Debug("Executing node.", "nodeID", n.ID, "kind", n.Kind)
		if err := runNode(ctx, n, h); err != nil {
			logger.Error("Node execution failed.", "nodeID", n.ID, "error", err)
			return failure([]string{n.ID}, err)
		}
	}
	return nil
}
