// Package partition splits an imaging problem into independent pieces: image
// facets, w-slices and time-slices of the visibility set, or the Cartesian
// product of facets and one slice axis.
package partition

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/vk/skygrid/internal/coords"
	"github.com/vk/skygrid/internal/imgerr"
	"github.com/vk/skygrid/internal/model"
)

const op = "partition"

// maxWBins bounds the number of w bins a wstep may ask for.
const maxWBins = 1 << 30

// Plan returns the descriptors for cfg, ordered facet-major and slice-minor.
// vis may be nil when no slice axis is requested.
func Plan(vis *model.Visibility, im *model.Image, cfg Config) ([]Descriptor, error) {
	if err := im.IsCanonical(); err != nil {
		return nil, err
	}
	facets, err := planFacets(im, cfg.Facets)
	if err != nil {
		return nil, err
	}
	slices, err := planSlices(vis, im, cfg)
	if err != nil {
		return nil, err
	}

	plan := make([]Descriptor, 0, len(facets)*len(slices))
	for _, f := range facets {
		for _, s := range slices {
			d := Descriptor{Index: len(plan), Facet: f, Slice: s}
			if f != nil {
				d.Kind |= KindFacet
			}
			if s != nil {
				switch s.Axis {
				case AxisW:
					d.Kind |= KindWSlice
				case AxisTime:
					d.Kind |= KindTimeSlice
				}
			}
			plan = append(plan, d)
		}
	}
	return plan, nil
}

// planFacets returns nil entries for an unfaceted image so the product loop
// stays uniform.
func planFacets(im *model.Image, n int) ([]*FacetView, error) {
	if n <= 0 {
		return nil, imgerr.Configurationf(op, "facet count must be positive, got %d", n)
	}
	if im.NX%n != 0 || im.NY%n != 0 {
		return nil, imgerr.Configurationf(op, "facet count %d does not divide image size %dx%d", n, im.NX, im.NY)
	}
	if n == 1 {
		return []*FacetView{nil}, nil
	}
	nx, ny := im.NX/n, im.NY/n
	views := make([]*FacetView, 0, n*n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			views = append(views, &FacetView{
				Index: row*n + col,
				Row:   row,
				Col:   col,
				XOff:  col * nx,
				YOff:  row * ny,
				NX:    nx,
				NY:    ny,
				WCS:   im.WCS.Shift(col*nx, row*ny),
			})
		}
	}
	return views, nil
}

func planSlices(vis *model.Visibility, im *model.Image, cfg Config) ([]*SliceView, error) {
	axis := cfg.Axis
	if axis == "" {
		axis = AxisNone
	}
	switch axis {
	case AxisNone:
		return []*SliceView{nil}, nil
	case AxisW, AxisTime:
	default:
		return nil, imgerr.Configurationf(op, "unknown slice axis %q", cfg.Axis)
	}
	if vis == nil {
		return nil, imgerr.Configurationf(op, "%s slicing requires a visibility set", axis)
	}
	if vis.Len() == 0 {
		return nil, imgerr.Configurationf(op, "cannot slice an empty visibility set")
	}
	if cfg.VisSlices < 0 || cfg.WStep < 0 || cfg.MaxPhaseError < 0 {
		return nil, imgerr.Configurationf(op, "slice parameters must not be negative (vis_slices=%d, wstep=%g, max_phase_error=%g)", cfg.VisSlices, cfg.WStep, cfg.MaxPhaseError)
	}
	if axis == AxisW {
		return planWSlices(vis, im, cfg)
	}
	return planTimeSlices(vis, cfg)
}

func planWSlices(vis *model.Visibility, im *model.Image, cfg Config) ([]*SliceView, error) {
	lo, hi := vis.WRange()
	var n int
	var width float64
	switch {
	case cfg.VisSlices > 0:
		n = cfg.VisSlices
		width = (hi - lo) / float64(n)
	case cfg.WStep > 0:
		width = cfg.WStep
		nf := math.Ceil((hi - lo) / width)
		if nf > maxWBins {
			return nil, imgerr.Configurationf(op, "wstep %g m splits a w range of %g m into %g slices, at most %d are allowed", width, hi-lo, nf, maxWBins)
		}
		n = int(nf)
	case cfg.MaxPhaseError > 0:
		n = AdviseWSlices(vis, im, cfg.MaxPhaseError)
		width = (hi - lo) / float64(n)
	default:
		return nil, imgerr.Configurationf(op, "w slicing needs vis_slices, wstep or max_phase_error: zero slices requested")
	}
	if n < 1 {
		n = 1
	}

	// Only occupied bins are kept, a fine wstep leaves most of them empty.
	bins := make(map[int][]int)
	for i := range vis.Samples {
		b := 0
		if width > 0 {
			b = int(math.Floor((vis.Samples[i].UVW[2] - lo) / width))
		}
		b = min(max(b, 0), n-1)
		bins[b] = append(bins[b], i)
	}
	order := make([]int, 0, len(bins))
	for b := range bins {
		order = append(order, b)
	}
	sort.Ints(order)

	slices := make([]*SliceView, 0, len(order))
	for _, b := range order {
		rows := bins[b]
		wlo, whi := math.Inf(1), math.Inf(-1)
		for _, r := range rows {
			w := vis.Samples[r].UVW[2]
			wlo = math.Min(wlo, w)
			whi = math.Max(whi, w)
		}
		slices = append(slices, &SliceView{
			Axis:  AxisW,
			Index: b,
			Rows:  rows,
			Lo:    wlo,
			Hi:    whi,
			Plane: model.WPlane{W0: (wlo + whi) / 2},
		})
	}
	return slices, nil
}

func planTimeSlices(vis *model.Visibility, cfg Config) ([]*SliceView, error) {
	times := uniqueTimes(vis)
	var groups [][]float64
	switch {
	case len(cfg.TimeBoundaries) > 0:
		bounds := append([]float64(nil), cfg.TimeBoundaries...)
		sort.Float64s(bounds)
		groups = make([][]float64, len(bounds)+1)
		for _, t := range times {
			k := sort.Search(len(bounds), func(i int) bool { return bounds[i] > t })
			groups[k] = append(groups[k], t)
		}
	case cfg.VisSlices > 0:
		n := min(cfg.VisSlices, len(times))
		groups = make([][]float64, n)
		size, extra := len(times)/n, len(times)%n
		start := 0
		for k := 0; k < n; k++ {
			end := start + size
			if k < extra {
				end++
			}
			groups[k] = times[start:end]
			start = end
		}
	default:
		return nil, imgerr.Configurationf(op, "time slicing needs vis_slices or time boundaries: zero slices requested")
	}

	slot := make(map[float64]int, len(times))
	for k, g := range groups {
		for _, t := range g {
			slot[t] = k
		}
	}
	rows := make([][]int, len(groups))
	for i := range vis.Samples {
		k := slot[vis.Samples[i].Time]
		rows[k] = append(rows[k], i)
	}

	var slices []*SliceView
	for k, g := range groups {
		if len(g) == 0 {
			continue
		}
		slices = append(slices, &SliceView{
			Axis:  AxisTime,
			Index: k,
			Rows:  rows[k],
			Lo:    g[0],
			Hi:    g[len(g)-1],
			Plane: FitWPlane(vis, rows[k]),
		})
	}
	return slices, nil
}

func uniqueTimes(vis *model.Visibility) []float64 {
	seen := make(map[float64]struct{})
	var times []float64
	for i := range vis.Samples {
		t := vis.Samples[i].Time
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		times = append(times, t)
	}
	sort.Float64s(times)
	return times
}

// FitWPlane fits w = A*u + B*v over rows by least squares. A degenerate
// geometry yields the zero plane.
func FitWPlane(vis *model.Visibility, rows []int) model.WPlane {
	if len(rows) < 2 {
		return model.WPlane{}
	}
	a := mat.NewDense(len(rows), 2, nil)
	b := mat.NewVecDense(len(rows), nil)
	for i, r := range rows {
		uvw := vis.Samples[r].UVW
		a.Set(i, 0, uvw[0])
		a.Set(i, 1, uvw[1])
		b.SetVec(i, uvw[2])
	}
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return model.WPlane{}
	}
	pa, pb := x.AtVec(0), x.AtVec(1)
	if math.IsNaN(pa) || math.IsNaN(pb) || math.IsInf(pa, 0) || math.IsInf(pb, 0) {
		return model.WPlane{}
	}
	return model.WPlane{A: pa, B: pb}
}

// AdviseWSlices returns the number of w bins needed so that the residual
// w-term phase across the image stays below maxPhaseError radians.
func AdviseWSlices(vis *model.Visibility, im *model.Image, maxPhaseError float64) int {
	lo, hi := vis.WRange()
	if hi <= lo || maxPhaseError <= 0 {
		return 1
	}
	nm1 := 0.0
	for _, px := range [][2]float64{{0, 0}, {float64(im.NX - 1), 0}, {0, float64(im.NY - 1)}, {float64(im.NX - 1), float64(im.NY - 1)}} {
		l, m := im.WCS.PixelToLM(px[0], px[1])
		nm1 = math.Max(nm1, 1-coords.N(l, m))
	}
	if nm1 == 0 {
		return 1
	}
	// |w - w0| <= width/2 keeps 2*pi*|w - w0|*|n - 1| below the limit.
	widthLambda := maxPhaseError / (math.Pi * nm1)
	widthMetres := widthLambda * coords.SpeedOfLight / vis.MaxFrequency()
	return max(1, int(math.Ceil((hi-lo)/widthMetres)))
}
