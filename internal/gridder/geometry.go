package gridder

import (
	"math"

	"github.com/vk/skygrid/internal/coords"
	"github.com/vk/skygrid/internal/model"
)

// geometry caches direction cosines of a region. l and m are taken relative
// to the centre pixel, which is the point visibilities are rotated to. The
// w-term stays relative to the phase centre so that every region of an image
// sees the same w phase for a given pixel.
type geometry struct {
	nx, ny int
	cx, cy int
	dl     []float64 // l - l0 per column
	dm     []float64 // m - m0 per row
	dn     []float64 // n - 1 per pixel
}

func newGeometry(wcs coords.WCS, nx, ny int) *geometry {
	g := &geometry{nx: nx, ny: ny, cx: nx / 2, cy: ny / 2}
	l0, m0 := wcs.PixelToLM(float64(g.cx), float64(g.cy))
	g.dl = make([]float64, nx)
	g.dm = make([]float64, ny)
	g.dn = make([]float64, nx*ny)
	ls := make([]float64, nx)
	for x := 0; x < nx; x++ {
		l, _ := wcs.PixelToLM(float64(x), float64(g.cy))
		ls[x] = l
		g.dl[x] = l - l0
	}
	for y := 0; y < ny; y++ {
		_, m := wcs.PixelToLM(float64(g.cx), float64(y))
		g.dm[y] = m - m0
		for x := 0; x < nx; x++ {
			g.dn[y*nx+x] = coords.N(ls[x], m) - 1
		}
	}
	return g
}

// phasors fills ex, ey and ew with exp(sign*2*pi*i*...) for the three phase
// terms of a sample. ew is left untouched and false is returned when the
// w-term vanishes.
func (g *geometry) phasors(u, v, w, sign float64, ex, ey, ew []complex128) bool {
	for x, dl := range g.dl {
		s, c := math.Sincos(sign * 2 * math.Pi * u * dl)
		ex[x] = complex(c, s)
	}
	for y, dm := range g.dm {
		s, c := math.Sincos(sign * 2 * math.Pi * v * dm)
		ey[y] = complex(c, s)
	}
	if w == 0 {
		return false
	}
	for j, dn := range g.dn {
		s, c := math.Sincos(sign * 2 * math.Pi * w * dn)
		ew[j] = complex(c, s)
	}
	return true
}

// screen returns exp(sign*2*pi*i*w*(n - 1)) per pixel, or nil when w is zero.
func (g *geometry) screen(w, sign float64) []complex128 {
	if w == 0 {
		return nil
	}
	out := make([]complex128, len(g.dn))
	for j, dn := range g.dn {
		s, c := math.Sincos(sign * 2 * math.Pi * w * dn)
		out[j] = complex(c, s)
	}
	return out
}

// effectiveW returns the w in wavelengths a kernel should use for a sample at
// channel frequency freq.
func effectiveW(vis *model.Visibility, row, ch int, opts Options) float64 {
	if opts.WProjection {
		_, _, w := vis.UVWLambda(row, ch)
		return w
	}
	if opts.Plane.IsZero() {
		return 0
	}
	uvw := vis.Samples[row].UVW
	return opts.Plane.W(uvw[0], uvw[1]) * vis.Frequency[ch] / coords.SpeedOfLight
}
