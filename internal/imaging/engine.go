// Package imaging implements the partitioned predict and invert engines.
// A call plans partitions over facets and visibility slices, runs one map
// node per partition on an executor and combines the partial results in a
// single reduce node.
package imaging

import (
	"context"
	"math"

	"github.com/vk/skygrid/internal/ctxlog"
	"github.com/vk/skygrid/internal/executor"
	"github.com/vk/skygrid/internal/gridder"
	"github.com/vk/skygrid/internal/imgerr"
	"github.com/vk/skygrid/internal/model"
	"github.com/vk/skygrid/internal/partition"
)

const op = "imaging"

// Imager predicts visibilities from images and inverts visibilities into
// dirty images.
type Imager interface {
	Predict(ctx context.Context, vis *model.Visibility, im *model.Image) (*model.Visibility, error)
	Invert(ctx context.Context, vis *model.Visibility, template *model.Image, dopsf bool) (*model.Image, *model.SumWeights, error)
	// Degraded reports whether results are placeholders.
	Degraded() bool
}

// Config selects the kernel, executor and partitioning of an Engine.
type Config struct {
	// Kernel is looked up in Registry.
	Kernel string
	// Registry defaults to gridder.NewDefaultRegistry.
	Registry *gridder.Registry
	// Executor defaults to executor.Serial.
	Executor  executor.Executor
	Partition partition.Config
	// Normalize divides inverted images by the sum of weights.
	Normalize bool
	// WProjection asks the kernel for the exact per-sample w-term.
	WProjection bool
}

// Engine is the partitioned imager.
type Engine struct {
	kernel      gridder.Kernel
	exec        executor.Executor
	part        partition.Config
	normalize   bool
	wprojection bool
}

// New builds an Engine. A kernel that cannot be found or built, or that
// cannot honour the requested options, yields an ErrKernelUnavailable error.
func New(cfg Config) (*Engine, error) {
	reg := cfg.Registry
	if reg == nil {
		reg = gridder.NewDefaultRegistry()
	}
	kernel, err := reg.Lookup(cfg.Kernel)
	if err != nil {
		return nil, err
	}
	if err := gridder.CheckOptions(kernel, gridder.Options{WProjection: cfg.WProjection}); err != nil {
		return nil, imgerr.Wrap(imgerr.ErrKernelUnavailable, op, err)
	}
	exec := cfg.Executor
	if exec == nil {
		exec = executor.Serial{}
	}
	part := cfg.Partition
	if part.Facets == 0 {
		part.Facets = 1
	}
	return &Engine{
		kernel:      kernel,
		exec:        exec,
		part:        part,
		normalize:   cfg.Normalize,
		wprojection: cfg.WProjection,
	}, nil
}

// NewOrFallback builds an Engine, or a Fallback imager when the kernel is
// unavailable. Any other error is returned.
func NewOrFallback(ctx context.Context, cfg Config) (Imager, error) {
	e, err := New(cfg)
	if err == nil {
		return e, nil
	}
	if !imgerr.IsKernelUnavailable(err) {
		return nil, err
	}
	ctxlog.FromContext(ctx).Warn("Gridding kernel unavailable, imaging results will be placeholders.", "kernel", cfg.Kernel, "error", err)
	return &Fallback{Reason: err}, nil
}

// Kernel returns the gridding kernel in use.
func (e *Engine) Kernel() gridder.Kernel { return e.kernel }

// Degraded is always false for an Engine.
func (e *Engine) Degraded() bool { return false }

// warnPlaneSlope reports time slicing with a kernel that only honours W0.
func (e *Engine) warnPlaneSlope(ctx context.Context) {
	if e.part.Axis == partition.AxisTime && !e.wprojection && !e.kernel.Capabilities().PlaneSlope {
		ctxlog.FromContext(ctx).Warn("Kernel ignores the w plane slope of time slices.", "kernel", e.kernel.Name())
	}
}

func (e *Engine) options(d *partition.Descriptor) gridder.Options {
	return gridder.Options{Plane: d.Plane(), WProjection: e.wprojection}
}

// channelMap assigns every visibility channel to the nearest image channel.
func channelMap(vis *model.Visibility, im *model.Image) ([]int, error) {
	out := make([]int, vis.NChan())
	for vc, f := range vis.Frequency {
		pos := im.WCS.Spectral.Channel(f)
		ic := int(math.Round(pos))
		if math.IsNaN(pos) || ic < 0 || ic >= im.NChan {
			return nil, imgerr.ChannelMappingf(op, "visibility channel %d at %.6g Hz maps to image channel %.3f, image has %d channels", vc, f, pos, im.NChan)
		}
		out[vc] = ic
	}
	return out, nil
}

// region returns the part of im covered by d together with its pixel
// offset.
func region(im *model.Image, d *partition.Descriptor) (*model.Image, int, int, error) {
	if d.Facet == nil {
		return im, 0, 0, nil
	}
	f := d.Facet
	r, err := im.Region(f.XOff, f.YOff, f.NX, f.NY)
	if err != nil {
		return nil, 0, 0, err
	}
	return r, f.XOff, f.YOff, nil
}

// rows returns the sample rows of d, or every row when d has no slice.
func rows(vis *model.Visibility, d *partition.Descriptor) []int {
	if r := d.Rows(); r != nil {
		return r
	}
	all := make([]int, vis.Len())
	for i := range all {
		all[i] = i
	}
	return all
}

// tangentPoint returns the direction cosines of the centre pixel of im.
func tangentPoint(im *model.Image) (l0, m0 float64) {
	cx, cy := im.Centre()
	return im.WCS.PixelToLM(float64(cx), float64(cy))
}
