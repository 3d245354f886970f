package report

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vk/skygrid/internal/ctxlog"
)

// Report is the outcome of a run handed to sinks.
type Report struct {
	RunID    string
	Created  time.Time
	Degraded bool
	Items    []QA
}

// Payload converts the report into plain JSON-friendly values.
func (r Report) Payload() map[string]any {
	items := make([]map[string]any, len(r.Items))
	for i, q := range r.Items {
		data := make(map[string]any, len(q.Data))
		for k, v := range q.Data {
			data[k] = v
		}
		items[i] = map[string]any{"origin": q.Origin, "data": data}
	}
	return map[string]any{
		"run_id":   r.RunID,
		"created":  r.Created.UTC().Format(time.RFC3339),
		"degraded": r.Degraded,
		"items":    items,
	}
}

// Sink receives reports.
type Sink interface {
	Name() string
	Publish(ctx context.Context, r Report) error
}

// PublishAll sends r to every sink concurrently. The first failure cancels
// the others and is returned.
func PublishAll(ctx context.Context, sinks []Sink, r Report) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range sinks {
		g.Go(func() error {
			if err := s.Publish(gctx, r); err != nil {
				return fmt.Errorf("sink %s: %w", s.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// LogSink writes reports to the context logger.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Publish(ctx context.Context, r Report) error {
	logger := ctxlog.FromContext(ctx).With("runID", r.RunID)
	if r.Degraded {
		logger.Warn("Run produced degraded results.")
	}
	for _, q := range r.Items {
		attrs := make([]any, 0, 2*len(q.Data)+2)
		attrs = append(attrs, "origin", q.Origin)
		for _, k := range q.Keys() {
			attrs = append(attrs, k, q.Data[k])
		}
		logger.Info("QA summary.", attrs...)
	}
	return nil
}
