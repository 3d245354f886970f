// Package gridder defines the gridding/degridding strategy used by the
// imaging engines and ships two implementations: an exact direct Fourier
// transform ("dft") and a nearest-cell FFT gridder ("fft").
package gridder

import (
	"context"
	"fmt"

	"github.com/vk/skygrid/internal/model"
)

// Options are per-call settings derived from the partition being processed.
type Options struct {
	// Plane replaces the sample w when WProjection is false.
	Plane model.WPlane
	// WProjection applies the exact per-sample w-term.
	WProjection bool
}

// Capabilities advertises what a kernel can honour.
type Capabilities struct {
	ExactW bool
	// PlaneSlope reports whether the A and B terms of a WPlane are used.
	PlaneSlope bool
}

// Kernel grids visibilities onto an image region and degrids a region back
// into visibilities. Visibilities handed to a kernel are already in the
// region's polarisation frame and phase-rotated to the region centre.
// chanMap maps every visibility channel to an image channel.
type Kernel interface {
	Name() string
	Capabilities() Capabilities
	// Grid returns the unnormalised complex image of vis over region and the
	// weight gridded per (image channel, polarisation).
	Grid(ctx context.Context, vis *model.Visibility, region *model.Image, chanMap []int, opts Options) (*model.ComplexImage, *model.SumWeights, error)
	// Degrid overwrites vis values with the visibilities of region.
	Degrid(ctx context.Context, region *model.ComplexImage, vis *model.Visibility, chanMap []int, opts Options) error
}

// CheckOptions reports options a kernel cannot honour.
func CheckOptions(k Kernel, opts Options) error {
	if opts.WProjection && !k.Capabilities().ExactW {
		return fmt.Errorf("kernel %q does not support exact w-projection", k.Name())
	}
	return nil
}

func checkShapes(vis *model.Visibility, npol, nchan int, chanMap []int) error {
	if vis.NPol() != npol {
		return fmt.Errorf("visibility has %d correlations, region has %d", vis.NPol(), npol)
	}
	if len(chanMap) != vis.NChan() {
		return fmt.Errorf("channel map has %d entries for %d channels", len(chanMap), vis.NChan())
	}
	for vc, ic := range chanMap {
		if ic < 0 || ic >= nchan {
			return fmt.Errorf("visibility channel %d maps to image channel %d outside [0, %d)", vc, ic, nchan)
		}
	}
	return nil
}
