package imaging

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/vk/skygrid/internal/ctxlog"
	"github.com/vk/skygrid/internal/model"
	"github.com/vk/skygrid/internal/partition"
)

// Partial is the result of inverting one partition.
type Partial struct {
	Descriptor *partition.Descriptor
	Image      *model.Image
	Weights    *model.SumWeights
}

func (p Partial) facetIndex() int {
	if p.Descriptor == nil || p.Descriptor.Facet == nil {
		return 0
	}
	return p.Descriptor.Facet.Index
}

func (p Partial) offset() (int, int) {
	if p.Descriptor == nil || p.Descriptor.Facet == nil {
		return 0, 0
	}
	return p.Descriptor.Facet.XOff, p.Descriptor.Facet.YOff
}

// weightTolerance is the relative difference above which facet weights are
// reported as inconsistent.
const weightTolerance = 1e-9

// Combine assembles partial results into an image shaped like template.
// Partials may arrive in any order; they are reduced by ascending partition
// index so the floating point summation order, and therefore the result, is
// the same for every executor.
//
// Images are added at their facet offsets. Every facet grids the same
// samples, so weights are summed over the slices of facet 0 only; other
// facets are checked against it.
func Combine(ctx context.Context, template *model.Image, partials []Partial) (*model.Image, *model.SumWeights, error) {
	for i, p := range partials {
		if p.Descriptor == nil {
			return nil, nil, fmt.Errorf("partial %d has no partition descriptor", i)
		}
	}
	ordered := append([]Partial(nil), partials...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Descriptor.Index < ordered[j].Descriptor.Index
	})

	out := template.ZeroLike()
	perFacet := make(map[int]*model.SumWeights)
	var facets []int
	for _, p := range ordered {
		if p.Image == nil || p.Weights == nil {
			return nil, nil, fmt.Errorf("partition %s has no result", p.Descriptor)
		}
		x, y := p.offset()
		if err := out.AddRegion(p.Image, x, y); err != nil {
			return nil, nil, fmt.Errorf("combine %s: %w", p.Descriptor, err)
		}
		f := p.facetIndex()
		acc, ok := perFacet[f]
		if !ok {
			acc = model.NewSumWeights(template.NChan, template.NPol)
			perFacet[f] = acc
			facets = append(facets, f)
		}
		if err := acc.Merge(p.Weights); err != nil {
			return nil, nil, fmt.Errorf("combine %s: %w", p.Descriptor, err)
		}
	}

	if len(facets) == 0 {
		return out, model.NewSumWeights(template.NChan, template.NPol), nil
	}
	sort.Ints(facets)
	reference := perFacet[facets[0]]
	logger := ctxlog.FromContext(ctx)
	for _, f := range facets[1:] {
		if !sameWeights(reference, perFacet[f]) {
			logger.Warn("Facet weights differ from the first facet.", "facet", f, "weights", perFacet[f].Data, "reference", reference.Data)
		}
	}
	return out, reference.Copy(), nil
}

func sameWeights(a, b *model.SumWeights) bool {
	for i := range a.Data {
		scale := math.Max(math.Abs(a.Data[i]), math.Abs(b.Data[i]))
		if math.Abs(a.Data[i]-b.Data[i]) > weightTolerance*math.Max(scale, 1) {
			return false
		}
	}
	return true
}

// Normalize divides every (channel, polarisation) plane of im in place by
// its summed weight. Planes with zero weight are set to zero.
func Normalize(im *model.Image, wt *model.SumWeights) error {
	if wt.NChan != im.NChan || wt.NPol != im.NPol {
		return fmt.Errorf("weights are %dx%d, image has %d channels and %d polarisations", wt.NChan, wt.NPol, im.NChan, im.NPol)
	}
	for c := 0; c < im.NChan; c++ {
		for p := 0; p < im.NPol; p++ {
			plane := im.Plane(c, p)
			w := wt.At(c, p)
			if w == 0 {
				clear(plane)
				continue
			}
			for i := range plane {
				plane[i] /= w
			}
		}
	}
	return nil
}
