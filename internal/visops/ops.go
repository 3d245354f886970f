package visops

import (
	"fmt"

	"github.com/vk/skygrid/internal/imgerr"
	"github.com/vk/skygrid/internal/model"
	"github.com/vk/skygrid/internal/polarisation"
)

// ConvertPolarisation returns a copy of vis expressed in frame to. When the
// number of correlations changes, each output weight is the mean of the
// input weights of the same channel.
func ConvertPolarisation(vis *model.Visibility, to polarisation.Frame) (*model.Visibility, error) {
	if vis.Frame == to {
		return vis.Copy(), nil
	}
	conv, err := polarisation.NewConverter(vis.Frame, to)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.ErrConfiguration, "polarisation", err)
	}
	nIn, nOut := vis.NPol(), to.NPol()
	out := &model.Visibility{
		Frequency:        append([]float64(nil), vis.Frequency...),
		ChannelBandwidth: append([]float64(nil), vis.ChannelBandwidth...),
		PhaseCentre:      vis.PhaseCentre,
		Frame:            to,
		Samples:          make([]model.Sample, len(vis.Samples)),
	}
	for i := range vis.Samples {
		src := &vis.Samples[i]
		dst := &out.Samples[i]
		*dst = *src
		dst.Vis = make([]complex128, vis.NChan()*nOut)
		dst.Weight = make([]float64, vis.NChan()*nOut)
		for ch := 0; ch < vis.NChan(); ch++ {
			conv.Apply(dst.Vis[ch*nOut:(ch+1)*nOut], src.Vis[ch*nIn:(ch+1)*nIn])
			if nIn == nOut {
				copy(dst.Weight[ch*nOut:(ch+1)*nOut], src.Weight[ch*nIn:(ch+1)*nIn])
				continue
			}
			mean := 0.0
			for p := 0; p < nIn; p++ {
				mean += src.Weight[ch*nIn+p]
			}
			mean /= float64(nIn)
			for p := 0; p < nOut; p++ {
				dst.Weight[ch*nOut+p] = mean
			}
		}
	}
	return out, nil
}

// UnitVisibilities replaces the data of vis in place with ones for unflagged
// samples and zeros for flagged samples.
func UnitVisibilities(vis *model.Visibility) {
	for i := range vis.Samples {
		s := &vis.Samples[i]
		val := complex(1, 0)
		if s.Flag {
			val = 0
		}
		for j := range s.Vis {
			s.Vis[j] = val
		}
	}
}

// Subtract returns observed minus modelled. Both sets must describe the same
// samples.
func Subtract(observed, modelled *model.Visibility) (*model.Visibility, error) {
	if observed.Len() != modelled.Len() || observed.NChan() != modelled.NChan() || observed.Frame != modelled.Frame {
		return nil, imgerr.Configurationf("subtract", "shape mismatch: %d samples x %d channels (%s) vs %d x %d (%s)",
			observed.Len(), observed.NChan(), observed.Frame, modelled.Len(), modelled.NChan(), modelled.Frame)
	}
	out := observed.Copy()
	for i := range out.Samples {
		if out.Samples[i].UVW != modelled.Samples[i].UVW {
			return nil, imgerr.Configurationf("subtract", "sample %d has different baseline coordinates", i)
		}
		for j := range out.Samples[i].Vis {
			out.Samples[i].Vis[j] -= modelled.Samples[i].Vis[j]
		}
	}
	return out, nil
}

// Sum returns the element-wise sum of sets that describe the same samples.
func Sum(sets ...*model.Visibility) (*model.Visibility, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("no visibility sets to sum")
	}
	out := sets[0].Copy()
	for k, s := range sets[1:] {
		if s.Len() != out.Len() || s.NChan() != out.NChan() || s.Frame != out.Frame {
			return nil, imgerr.Configurationf("sum", "set %d does not match the first set", k+1)
		}
		for i := range out.Samples {
			for j, v := range s.Samples[i].Vis {
				out.Samples[i].Vis[j] += v
			}
		}
	}
	return out, nil
}
