package gridder

import (
	"context"

	"github.com/vk/skygrid/internal/model"
)

// DFTName is the registry name of the direct Fourier transform kernel.
const DFTName = "dft"

// DFT evaluates the Fourier sum at every pixel centre. It is exact and
// supports both the w plane and the full per-sample w-term, at a cost of
// O(samples x pixels).
type DFT struct{}

// NewDFT returns the direct transform kernel.
func NewDFT() *DFT { return &DFT{} }

func (k *DFT) Name() string { return DFTName }

func (k *DFT) Capabilities() Capabilities {
	return Capabilities{ExactW: true, PlaneSlope: true}
}

func (k *DFT) Grid(ctx context.Context, vis *model.Visibility, region *model.Image, chanMap []int, opts Options) (*model.ComplexImage, *model.SumWeights, error) {
	if err := checkShapes(vis, region.NPol, region.NChan, chanMap); err != nil {
		return nil, nil, err
	}
	out := model.NewComplexLike(region)
	weights := model.NewSumWeights(region.NChan, region.NPol)
	g := newGeometry(region.WCS, region.NX, region.NY)
	ex := make([]complex128, g.nx)
	ey := make([]complex128, g.ny)
	ew := make([]complex128, g.nx*g.ny)
	npol := vis.NPol()

	for i := range vis.Samples {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		s := &vis.Samples[i]
		if s.Flag {
			continue
		}
		for vc, ic := range chanMap {
			u, v, _ := vis.UVWLambda(i, vc)
			hasW := g.phasors(u, v, effectiveW(vis, i, vc, opts), 1, ex, ey, ew)
			for p := 0; p < npol; p++ {
				wt := s.Weight[vc*npol+p]
				if wt == 0 {
					continue
				}
				weights.Add(ic, p, wt)
				val := complex(wt, 0) * s.Vis[vc*npol+p]
				plane := out.Plane(ic, p)
				for y := 0; y < g.ny; y++ {
					vy := val * ey[y]
					row := plane[y*g.nx : (y+1)*g.nx]
					if hasW {
						wrow := ew[y*g.nx : (y+1)*g.nx]
						for x := range row {
							row[x] += vy * ex[x] * wrow[x]
						}
						continue
					}
					for x := range row {
						row[x] += vy * ex[x]
					}
				}
			}
		}
	}
	return out, weights, nil
}

func (k *DFT) Degrid(ctx context.Context, region *model.ComplexImage, vis *model.Visibility, chanMap []int, opts Options) error {
	if err := checkShapes(vis, region.NPol, region.NChan, chanMap); err != nil {
		return err
	}
	g := newGeometry(region.WCS, region.NX, region.NY)
	ex := make([]complex128, g.nx)
	ey := make([]complex128, g.ny)
	ew := make([]complex128, g.nx*g.ny)
	npol := vis.NPol()

	for i := range vis.Samples {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := &vis.Samples[i]
		for vc, ic := range chanMap {
			u, v, _ := vis.UVWLambda(i, vc)
			hasW := g.phasors(u, v, effectiveW(vis, i, vc, opts), -1, ex, ey, ew)
			for p := 0; p < npol; p++ {
				plane := region.Plane(ic, p)
				var sum complex128
				for y := 0; y < g.ny; y++ {
					row := plane[y*g.nx : (y+1)*g.nx]
					var rowSum complex128
					if hasW {
						wrow := ew[y*g.nx : (y+1)*g.nx]
						for x, pix := range row {
							if pix != 0 {
								rowSum += pix * ex[x] * wrow[x]
							}
						}
					} else {
						for x, pix := range row {
							if pix != 0 {
								rowSum += pix * ex[x]
							}
						}
					}
					sum += rowSum * ey[y]
				}
				s.Vis[vc*npol+p] = sum
			}
		}
	}
	return nil
}
