package imaging

import (
	"context"

	"github.com/vk/skygrid/internal/ctxlog"
	"github.com/vk/skygrid/internal/model"
)

// Fallback stands in for an Engine whose kernel is unavailable. Predict
// returns the input unchanged and Invert returns zeros, so a pipeline can
// run to completion with clearly degraded output.
type Fallback struct {
	Reason error
}

// Predict logs the reason and returns a copy of vis.
func (f *Fallback) Predict(ctx context.Context, vis *model.Visibility, _ *model.Image) (*model.Visibility, error) {
	ctxlog.FromContext(ctx).Warn("Predict skipped, returning input visibilities.", "reason", f.Reason)
	return vis.Copy(), nil
}

// Invert logs the reason and returns a zero image shaped like template with
// zero weights.
func (f *Fallback) Invert(ctx context.Context, _ *model.Visibility, template *model.Image, _ bool) (*model.Image, *model.SumWeights, error) {
	ctxlog.FromContext(ctx).Warn("Invert skipped, returning a zero image.", "reason", f.Reason)
	return template.ZeroLike(), model.NewSumWeights(template.NChan, template.NPol), nil
}

// Degraded always reports true.
func (f *Fallback) Degraded() bool { return true }
