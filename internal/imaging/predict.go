package imaging

import (
	"context"
	"fmt"

	"github.com/vk/skygrid/internal/ctxlog"
	"github.com/vk/skygrid/internal/dag"
	"github.com/vk/skygrid/internal/imgerr"
	"github.com/vk/skygrid/internal/model"
	"github.com/vk/skygrid/internal/partition"
	"github.com/vk/skygrid/internal/polarisation"
	"github.com/vk/skygrid/internal/visops"
)

// predicted is the contribution of one partition to the output rows.
type predicted struct {
	rows   []int
	values [][]complex128
}

// Predict returns a copy of vis whose values are the visibilities of im.
// Flags and weights are carried over, vis itself is not modified.
func (e *Engine) Predict(ctx context.Context, vis *model.Visibility, im *model.Image) (*model.Visibility, error) {
	logger := ctxlog.FromContext(ctx)
	if err := vis.Validate(); err != nil {
		return nil, err
	}
	if err := im.IsCanonical(); err != nil {
		return nil, err
	}
	chanMap, err := channelMap(vis, im)
	if err != nil {
		return nil, err
	}
	plan, err := partition.Plan(vis, im, e.part)
	if err != nil {
		return nil, err
	}

	// Degridding happens in the image frame; back converts each partition
	// into the frame of vis.
	blank, err := visops.ConvertPolarisation(vis.CopyZero(), im.Frame)
	if err != nil {
		return nil, err
	}
	back, err := polarisation.NewConverter(im.Frame, vis.Frame)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.ErrConfiguration, op, err)
	}

	e.warnPlaneSlope(ctx)
	g, err := dag.MapReduce(plan)
	if err != nil {
		return nil, err
	}
	logger.Debug("Predicting visibilities.", "partitions", len(plan), "kernel", e.kernel.Name(), "executor", e.exec.Name())

	parts := make([]predicted, len(plan))
	var result *model.Visibility
	handler := func(ctx context.Context, n *dag.Node) error {
		switch n.Kind {
		case dag.MapNode:
			p, err := e.predictPartition(ctxlog.With(ctx, "node", n.ID), blank, back, im, chanMap, n.Partition)
			if err != nil {
				return err
			}
			parts[n.Partition.Index] = p
			return nil
		case dag.ReduceNode:
			out := vis.CopyZero()
			for i, p := range parts {
				if err := out.Add(p.rows, p.values); err != nil {
					return fmt.Errorf("combine %s: %w", plan[i], err)
				}
			}
			result = out
			return nil
		default:
			return fmt.Errorf("unexpected node kind %s", n.Kind)
		}
	}
	if err := e.exec.Execute(ctx, g, handler); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) predictPartition(ctx context.Context, blank *model.Visibility, back *polarisation.Converter, im *model.Image, chanMap []int, d *partition.Descriptor) (predicted, error) {
	ctxlog.FromContext(ctx).Debug("Degridding partition.", "partition", d.String())
	reg, _, _, err := region(im, d)
	if err != nil {
		return predicted{}, imgerr.Wrap(imgerr.ErrConfiguration, op, err)
	}
	rs := rows(blank, d)
	sub := blank.Subset(rs)
	if err := e.kernel.Degrid(ctx, model.ToComplex(reg), sub, chanMap, e.options(d)); err != nil {
		return predicted{}, fmt.Errorf("degrid %s: %w", d, err)
	}
	l0, m0 := tangentPoint(reg)
	visops.ShiftFromCentre(sub, l0, m0)

	nIn, nOut := sub.NPol(), back.To().NPol()
	values := make([][]complex128, len(rs))
	for i := range sub.Samples {
		src := sub.Samples[i].Vis
		dst := make([]complex128, sub.NChan()*nOut)
		for ch := 0; ch < sub.NChan(); ch++ {
			back.Apply(dst[ch*nOut:(ch+1)*nOut], src[ch*nIn:(ch+1)*nIn])
		}
		values[i] = dst
	}
	return predicted{rows: rs, values: values}, nil
}
