package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/skygrid/internal/dag"
	"github.com/vk/skygrid/internal/partition"
)

func mapReduceGraph(t *testing.T, n int) *dag.Graph {
	t.Helper()
	plan := make([]partition.Descriptor, n)
	for i := range plan {
		plan[i].Index = i
	}
	g, err := dag.MapReduce(plan)
	require.NoError(t, err)
	return g
}

// recorder collects the IDs of executed nodes.
type recorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorder) handler(fail map[string]error) Handler {
	return func(ctx context.Context, n *dag.Node) error {
		r.mu.Lock()
		r.ids = append(r.ids, n.ID)
		r.mu.Unlock()
		return fail[n.ID]
	}
}

func executors() []Executor {
	return []Executor{New(0), New(1), New(4)}
}

func TestNew(t *testing.T) {
	assert.Equal(t, "serial", New(0).Name())
	assert.Equal(t, "serial", New(-3).Name())
	assert.Equal(t, "pool(3)", New(3).Name())
}

func TestExecute_RunsEveryNodeOnceAfterDependencies(t *testing.T) {
	for _, ex := range executors() {
		t.Run(ex.Name(), func(t *testing.T) {
			g := mapReduceGraph(t, 8)
			rec := &recorder{}

			require.NoError(t, ex.Execute(context.Background(), g, rec.handler(nil)))
			require.Len(t, rec.ids, 9)
			assert.Equal(t, dag.ReduceID, rec.ids[len(rec.ids)-1])
			assert.ElementsMatch(t, []string{
				"partition.0000", "partition.0001", "partition.0002", "partition.0003",
				"partition.0004", "partition.0005", "partition.0006", "partition.0007", dag.ReduceID,
			}, rec.ids)
		})
	}
}

func TestSerial_FollowsPlanOrder(t *testing.T) {
	g := mapReduceGraph(t, 3)
	rec := &recorder{}
	require.NoError(t, Serial{}.Execute(context.Background(), g, rec.handler(nil)))
	assert.Equal(t, []string{"partition.0000", "partition.0001", "partition.0002", dag.ReduceID}, rec.ids)
}

func TestExecute_FailureSkipsReduce(t *testing.T) {
	boom := errors.New("kernel exploded")
	for _, ex := range executors() {
		t.Run(ex.Name(), func(t *testing.T) {
			g := mapReduceGraph(t, 4)
			rec := &recorder{}

			err := ex.Execute(context.Background(), g, rec.handler(map[string]error{"partition.0002": boom}))
			require.Error(t, err)
			assert.ErrorIs(t, err, boom)
			assert.ErrorContains(t, err, "execution failed for partition.0002")
			assert.NotContains(t, rec.ids, dag.ReduceID)
		})
	}
}

func TestPool_RunsConcurrently(t *testing.T) {
	g := mapReduceGraph(t, 4)
	var inFlight, peak atomic.Int32
	release := make(chan struct{})

	h := func(ctx context.Context, n *dag.Node) error {
		if n.Kind == dag.ReduceNode {
			return nil
		}
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		if cur == 4 {
			close(release)
		}
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		inFlight.Add(-1)
		return nil
	}

	require.NoError(t, (&Pool{Workers: 4}).Execute(context.Background(), g, h))
	assert.Equal(t, int32(4), peak.Load())
}

func TestExecute_Cancelled(t *testing.T) {
	for _, ex := range executors() {
		t.Run(ex.Name(), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			rec := &recorder{}

			err := ex.Execute(ctx, mapReduceGraph(t, 3), rec.handler(nil))
			assert.ErrorIs(t, err, context.Canceled)
			assert.Empty(t, rec.ids)
		})
	}
}

func TestExecute_RejectsCycles(t *testing.T) {
	g := dag.New()
	g.AddNode("a", dag.MapNode, nil)
	g.AddNode("b", dag.MapNode, nil)
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "a"))

	for _, ex := range executors() {
		err := ex.Execute(context.Background(), g, (&recorder{}).handler(nil))
		assert.ErrorContains(t, err, "cycle detected", ex.Name())
	}
}
