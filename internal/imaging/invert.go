package imaging

import (
	"context"
	"fmt"

	"github.com/vk/skygrid/internal/ctxlog"
	"github.com/vk/skygrid/internal/dag"
	"github.com/vk/skygrid/internal/imgerr"
	"github.com/vk/skygrid/internal/model"
	"github.com/vk/skygrid/internal/partition"
	"github.com/vk/skygrid/internal/visops"
)

// Invert grids vis into a dirty image shaped like template. With dopsf the
// visibilities are replaced by unit amplitudes first, giving the PSF. The
// returned weights are the summed weights per (channel, polarisation). vis
// and template are not modified.
func (e *Engine) Invert(ctx context.Context, vis *model.Visibility, template *model.Image, dopsf bool) (*model.Image, *model.SumWeights, error) {
	logger := ctxlog.FromContext(ctx)
	if err := vis.Validate(); err != nil {
		return nil, nil, err
	}
	if err := template.IsCanonical(); err != nil {
		return nil, nil, err
	}
	chanMap, err := channelMap(vis, template)
	if err != nil {
		return nil, nil, err
	}
	plan, err := partition.Plan(vis, template, e.part)
	if err != nil {
		return nil, nil, err
	}

	prepared, err := visops.ConvertPolarisation(vis, template.Frame)
	if err != nil {
		return nil, nil, err
	}
	if dopsf {
		visops.UnitVisibilities(prepared)
	}

	e.warnPlaneSlope(ctx)
	g, err := dag.MapReduce(plan)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Inverting visibilities.", "partitions", len(plan), "kernel", e.kernel.Name(), "executor", e.exec.Name(), "psf", dopsf)

	partials := make([]Partial, len(plan))
	var result *model.Image
	var weights *model.SumWeights
	handler := func(ctx context.Context, n *dag.Node) error {
		switch n.Kind {
		case dag.MapNode:
			p, err := e.invertPartition(ctxlog.With(ctx, "node", n.ID), prepared, template, chanMap, n.Partition)
			if err != nil {
				return err
			}
			partials[n.Partition.Index] = p
			return nil
		case dag.ReduceNode:
			im, wt, err := Combine(ctx, template, partials)
			if err != nil {
				return err
			}
			if e.normalize {
				if err := Normalize(im, wt); err != nil {
					return err
				}
			}
			result, weights = im, wt
			return nil
		default:
			return fmt.Errorf("unexpected node kind %s", n.Kind)
		}
	}
	if err := e.exec.Execute(ctx, g, handler); err != nil {
		return nil, nil, err
	}
	return result, weights, nil
}

func (e *Engine) invertPartition(ctx context.Context, vis *model.Visibility, template *model.Image, chanMap []int, d *partition.Descriptor) (Partial, error) {
	ctxlog.FromContext(ctx).Debug("Gridding partition.", "partition", d.String())
	reg, _, _, err := region(template, d)
	if err != nil {
		return Partial{}, imgerr.Wrap(imgerr.ErrConfiguration, op, err)
	}
	sub := vis.Subset(rows(vis, d))
	l0, m0 := tangentPoint(reg)
	visops.ShiftToCentre(sub, l0, m0)

	grid, wt, err := e.kernel.Grid(ctx, sub, reg, chanMap, e.options(d))
	if err != nil {
		return Partial{}, fmt.Errorf("grid %s: %w", d, err)
	}
	return Partial{Descriptor: d, Image: grid.Real(), Weights: wt}, nil
}
