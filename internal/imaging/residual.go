package imaging

import (
	"context"
	"fmt"

	"github.com/vk/skygrid/internal/model"
	"github.com/vk/skygrid/internal/skymodel"
	"github.com/vk/skygrid/internal/visops"
)

// Residual predicts sm, subtracts it from vis and inverts the difference
// into an image shaped like template.
func Residual(ctx context.Context, imager Imager, vis *model.Visibility, sm *skymodel.SkyModel, template *model.Image) (*model.Image, *model.SumWeights, error) {
	predicted, err := skymodel.Predict(ctx, imager, vis, sm)
	if err != nil {
		return nil, nil, fmt.Errorf("predict sky model: %w", err)
	}
	residual, err := visops.Subtract(vis, predicted)
	if err != nil {
		return nil, nil, err
	}
	return imager.Invert(ctx, residual, template, false)
}

// Residual is the Engine form of the package-level Residual.
func (e *Engine) Residual(ctx context.Context, vis *model.Visibility, sm *skymodel.SkyModel, template *model.Image) (*model.Image, *model.SumWeights, error) {
	return Residual(ctx, e, vis, sm, template)
}
