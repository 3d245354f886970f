package gridder

import (
	"context"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/vk/skygrid/internal/coords"
	"github.com/vk/skygrid/internal/model"
)

// FFTName is the registry name of the FFT kernel.
const FFTName = "fft"

// FFT grids each sample onto the nearest uv cell and transforms the grid
// with a two dimensional FFT. Only the constant W0 of a w plane is honoured,
// as an image-plane screen. Samples beyond the uv cover of the region are
// dropped and do not count towards the weights.
type FFT struct{}

// NewFFT returns the FFT kernel.
func NewFFT() *FFT { return &FFT{} }

func (k *FFT) Name() string { return FFTName }

func (k *FFT) Capabilities() Capabilities {
	return Capabilities{}
}

func (k *FFT) Grid(ctx context.Context, vis *model.Visibility, region *model.Image, chanMap []int, opts Options) (*model.ComplexImage, *model.SumWeights, error) {
	if err := checkShapes(vis, region.NPol, region.NChan, chanMap); err != nil {
		return nil, nil, err
	}
	out := model.NewComplexLike(region)
	weights := model.NewSumWeights(region.NChan, region.NPol)
	geo := newGeometry(region.WCS, region.NX, region.NY)
	plan := newFFT2(region.NX, region.NY)
	cells := newCellMap(region.WCS, region.NX, region.NY)
	grid := make([]complex128, region.NX*region.NY)
	npol := vis.NPol()

	for vc, ic := range chanMap {
		w0 := opts.Plane.W0 * vis.Frequency[vc] / coords.SpeedOfLight
		screen := geo.screen(w0, 1)
		for p := 0; p < npol; p++ {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			clear(grid)
			gridded := false
			for i := range vis.Samples {
				s := &vis.Samples[i]
				wt := s.Weight[vc*npol+p]
				if s.Flag || wt == 0 {
					continue
				}
				u, v, _ := vis.UVWLambda(i, vc)
				cell, shift, ok := cells.locate(u, v)
				if !ok {
					continue
				}
				grid[cell] += complex(wt, 0) * s.Vis[vc*npol+p] * shift
				weights.Add(ic, p, wt)
				gridded = true
			}
			if !gridded {
				continue
			}
			plan.inverse(grid)
			plane := out.Plane(ic, p)
			for j, g := range grid {
				if screen != nil {
					g *= screen[j]
				}
				plane[j] += g
			}
		}
	}
	return out, weights, nil
}

func (k *FFT) Degrid(ctx context.Context, region *model.ComplexImage, vis *model.Visibility, chanMap []int, opts Options) error {
	if err := checkShapes(vis, region.NPol, region.NChan, chanMap); err != nil {
		return err
	}
	geo := newGeometry(region.WCS, region.NX, region.NY)
	plan := newFFT2(region.NX, region.NY)
	cells := newCellMap(region.WCS, region.NX, region.NY)
	grid := make([]complex128, region.NX*region.NY)
	npol := vis.NPol()

	for vc, ic := range chanMap {
		w0 := opts.Plane.W0 * vis.Frequency[vc] / coords.SpeedOfLight
		screen := geo.screen(w0, -1)
		for p := 0; p < npol; p++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			copy(grid, region.Plane(ic, p))
			if screen != nil {
				for j := range grid {
					grid[j] *= screen[j]
				}
			}
			plan.forward(grid)
			for i := range vis.Samples {
				s := &vis.Samples[i]
				u, v, _ := vis.UVWLambda(i, vc)
				cell, shift, ok := cells.locate(u, v)
				if !ok {
					s.Vis[vc*npol+p] = 0
					continue
				}
				s.Vis[vc*npol+p] = grid[cell] * complex(real(shift), -imag(shift))
			}
		}
	}
	return nil
}

// cellMap converts uv coordinates to cells of an nx x ny grid whose image
// counterpart has the given pixel scale.
type cellMap struct {
	nx, ny int
	du, dv float64
	cx, cy int
}

func newCellMap(wcs coords.WCS, nx, ny int) cellMap {
	return cellMap{
		nx: nx, ny: ny,
		du: wcs.PixelScale[0] * float64(nx),
		dv: wcs.PixelScale[1] * float64(ny),
		cx: nx / 2, cy: ny / 2,
	}
}

// locate returns the flat cell index for (u, v) in wavelengths and the phase
// factor exp(-2*pi*i*(iu*cx/nx + iv*cy/ny)) that moves the transform origin to
// the centre pixel. ok is false for cells outside the grid.
func (c cellMap) locate(u, v float64) (cell int, shift complex128, ok bool) {
	iu := int(math.Round(u * c.du))
	iv := int(math.Round(v * c.dv))
	if 2*abs(iu) >= c.nx || 2*abs(iv) >= c.ny {
		return 0, 0, false
	}
	x := (iu%c.nx + c.nx) % c.nx
	y := (iv%c.ny + c.ny) % c.ny
	phase := -2 * math.Pi * (float64(iu*c.cx)/float64(c.nx) + float64(iv*c.cy)/float64(c.ny))
	s, co := math.Sincos(phase)
	return y*c.nx + x, complex(co, s), true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// fft2 is an unnormalised two dimensional transform over row-major data.
type fft2 struct {
	nx, ny int
	rows   *fourier.CmplxFFT
	cols   *fourier.CmplxFFT
	rowBuf []complex128
	colIn  []complex128
	colOut []complex128
}

func newFFT2(nx, ny int) *fft2 {
	return &fft2{
		nx: nx, ny: ny,
		rows:   fourier.NewCmplxFFT(nx),
		cols:   fourier.NewCmplxFFT(ny),
		rowBuf: make([]complex128, nx),
		colIn:  make([]complex128, ny),
		colOut: make([]complex128, ny),
	}
}

// forward computes F[k] = sum_x data[x] exp(-2*pi*i*k*x/n) along both axes.
func (f *fft2) forward(data []complex128) {
	for y := 0; y < f.ny; y++ {
		row := data[y*f.nx : (y+1)*f.nx]
		f.rows.Coefficients(f.rowBuf, row)
		copy(row, f.rowBuf)
	}
	for x := 0; x < f.nx; x++ {
		for y := 0; y < f.ny; y++ {
			f.colIn[y] = data[y*f.nx+x]
		}
		f.cols.Coefficients(f.colOut, f.colIn)
		for y := 0; y < f.ny; y++ {
			data[y*f.nx+x] = f.colOut[y]
		}
	}
}

// inverse computes the sum with a positive exponent and no 1/n scaling.
func (f *fft2) inverse(data []complex128) {
	conjugate(data)
	f.forward(data)
	conjugate(data)
}

func conjugate(data []complex128) {
	for i, v := range data {
		data[i] = complex(real(v), -imag(v))
	}
}
