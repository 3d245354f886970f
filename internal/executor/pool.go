package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/skygrid/internal/ctxlog"
	"github.com/vk/skygrid/internal/dag"
)

type state int32

const (
	pending state = iota
	running
	done
	failed
)

// errSkipped marks nodes that never ran because a dependency failed.
var errSkipped = errors.New("skipped")

// Pool executes independent nodes concurrently.
type Pool struct {
	Workers int
}

func (p *Pool) Name() string { return fmt.Sprintf("pool(%d)", p.Workers) }

// task is the per-run execution state of a node.
type task struct {
	node       *dag.Node
	depCount   atomic.Int32
	state      atomic.Int32
	err        error
	skipOnce   sync.Once
	dependents []*task
}

type run struct {
	handler Handler
	wg      sync.WaitGroup
}

// Execute runs the graph and returns an error if any node fails. It respects
// the cancellation signal from the provided context.
func (p *Pool) Execute(ctx context.Context, g *dag.Graph, h Handler) error {
	logger := ctxlog.FromContext(ctx)
	if err := g.DetectCycles(); err != nil {
		return err
	}

	tasks := buildTasks(g)
	if len(tasks) == 0 {
		return nil
	}
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}

	r := &run{handler: h}
	readyChan := make(chan *task, len(tasks))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rootCount := 0
	for _, t := range tasks {
		if t.depCount.Load() == 0 {
			readyChan <- t
			rootCount++
		}
	}
	logger.Debug("Found all root nodes.", "count", rootCount)

	r.wg.Add(len(tasks))
	logger.Debug("Starting worker pool.", "workers", workers)
	for i := 0; i < workers; i++ {
		go r.worker(runCtx, readyChan, cancel, i)
	}
	r.wg.Wait()
	close(readyChan)

	var failedNodes []string
	var rootCause error
	for _, t := range tasks {
		if state(t.state.Load()) != failed || t.err == nil {
			continue
		}
		// Skipped and cancelled nodes are symptoms, not causes.
		if errors.Is(t.err, errSkipped) || errors.Is(t.err, context.Canceled) {
			continue
		}
		failedNodes = append(failedNodes, t.node.ID)
		if rootCause == nil {
			rootCause = t.err
		}
	}
	if rootCause != nil {
		return failure(failedNodes, rootCause)
	}
	return ctx.Err()
}

func buildTasks(g *dag.Graph) []*task {
	nodes := g.Nodes()
	byID := make(map[string]*task, len(nodes))
	tasks := make([]*task, len(nodes))
	for i, n := range nodes {
		t := &task{node: n}
		t.depCount.Store(int32(n.NumDeps()))
		byID[n.ID] = t
		tasks[i] = t
	}
	for _, t := range tasks {
		for _, d := range t.node.Dependents() {
			t.dependents = append(t.dependents, byID[d.ID])
		}
	}
	return tasks
}

// skipDependents recursively marks all downstream tasks as failed and
// decrements the WaitGroup.
func (r *run) skipDependents(ctx context.Context, t *task) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range t.dependents {
		dependent.skipOnce.Do(func() {
			logger.Warn("Skipping dependent node due to upstream failure.", "nodeID", dependent.node.ID, "dependency", t.node.ID)
			dependent.state.Store(int32(failed))
			dependent.err = fmt.Errorf("%w due to upstream failure of '%s'", errSkipped, t.node.ID)
			r.wg.Done()
			r.skipDependents(ctx, dependent)
		})
	}
}

// worker is the processing loop for a single concurrent worker.
func (r *run) worker(ctx context.Context, readyChan chan *task, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)

	for t := range readyChan {
		workerLogger := logger.With("workerID", workerID, "nodeID", t.node.ID)

		if ctx.Err() != nil {
			t.skipOnce.Do(func() {
				workerLogger.Warn("Context canceled, skipping node execution.")
				t.state.Store(int32(failed))
				t.err = ctx.Err()
				r.wg.Done()
				r.skipDependents(ctx, t)
			})
			continue
		}

		t.state.Store(int32(running))
		if err := runNode(ctx, t.node, r.handler); err != nil {
			workerLogger.Error("Node execution failed.", "error", err)
			t.state.Store(int32(failed))
			t.err = err
			cancel()
			r.skipDependents(ctx, t)
			r.wg.Done()
			continue
		}

		t.state.Store(int32(done))
		for _, dependent := range t.dependents {
			if dependent.depCount.Add(-1) == 0 {
				readyChan <- dependent
			}
		}
		r.wg.Done()
	}
}
