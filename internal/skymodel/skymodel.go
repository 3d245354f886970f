// Package skymodel holds discrete sky components and sky models, predicts
// their visibilities analytically and inserts them into model images.
package skymodel

import (
	"context"
	"fmt"
	"math"

	"github.com/vk/skygrid/internal/coords"
	"github.com/vk/skygrid/internal/ctxlog"
	"github.com/vk/skygrid/internal/imgerr"
	"github.com/vk/skygrid/internal/model"
	"github.com/vk/skygrid/internal/polarisation"
	"github.com/vk/skygrid/internal/visops"
)

// Shape of a component. Only point sources are modelled.
type Shape string

const ShapePoint Shape = "Point"

// frequencyTolerance is the relative tolerance used to match component and
// visibility channels.
const frequencyTolerance = 1e-9

// SkyComponent is a discrete source. Flux is indexed [channel][polarisation]
// in Frame and is given at Frequency.
type SkyComponent struct {
	Name      string
	Direction coords.Direction
	Frequency []float64
	Flux      [][]float64
	Frame     polarisation.Frame
	Shape     Shape
}

// NewPointComponent builds a point source and checks the flux shape.
func NewPointComponent(name string, dir coords.Direction, freq []float64, flux [][]float64, frame polarisation.Frame) (SkyComponent, error) {
	c := SkyComponent{Name: name, Direction: dir, Frequency: freq, Flux: flux, Frame: frame, Shape: ShapePoint}
	if err := c.Validate(); err != nil {
		return SkyComponent{}, err
	}
	return c.Copy(), nil
}

// Validate checks that the component is internally consistent.
func (c SkyComponent) Validate() error {
	if !c.Frame.Valid() {
		return imgerr.Configurationf("component", "%s: unknown polarisation frame %q", c.Name, c.Frame)
	}
	if c.Shape != ShapePoint {
		return imgerr.Configurationf("component", "%s: unsupported shape %q", c.Name, c.Shape)
	}
	if len(c.Frequency) == 0 || len(c.Flux) != len(c.Frequency) {
		return imgerr.Configurationf("component", "%s: %d flux rows for %d frequencies", c.Name, len(c.Flux), len(c.Frequency))
	}
	for i, row := range c.Flux {
		if len(row) != c.Frame.NPol() {
			return imgerr.Configurationf("component", "%s: channel %d has %d fluxes, frame %s needs %d", c.Name, i, len(row), c.Frame, c.Frame.NPol())
		}
	}
	return nil
}

// Copy returns a deep copy.
func (c SkyComponent) Copy() SkyComponent {
	out := c
	out.Frequency = append([]float64(nil), c.Frequency...)
	out.Flux = make([][]float64, len(c.Flux))
	for i, row := range c.Flux {
		out.Flux[i] = append([]float64(nil), row...)
	}
	return out
}

// fluxIn returns the flux of channel ch converted to frame.
func (c SkyComponent) fluxIn(ch int, frame polarisation.Frame) ([]complex128, error) {
	src := make([]complex128, len(c.Flux[ch]))
	for i, f := range c.Flux[ch] {
		src[i] = complex(f, 0)
	}
	return polarisation.Convert(src, c.Frame, frame)
}

// channel returns the component channel at freq.
func (c SkyComponent) channel(freq float64) (int, bool) {
	for i, f := range c.Frequency {
		if math.Abs(f-freq) <= frequencyTolerance*math.Max(math.Abs(freq), 1) {
			return i, true
		}
	}
	return 0, false
}

// SkyModel is a collection of components and model images.
type SkyModel struct {
	Components []SkyComponent
	Images     []*model.Image
}

// Copy returns a deep copy of sm.
func Copy(sm *SkyModel) *SkyModel {
	out := &SkyModel{
		Components: make([]SkyComponent, len(sm.Components)),
		Images:     make([]*model.Image, len(sm.Images)),
	}
	for i, c := range sm.Components {
		out.Components[i] = c.Copy()
	}
	for i, im := range sm.Images {
		out.Images[i] = im.Copy()
	}
	return out
}

// PredictComponent adds the visibilities of comp to vis in place, including
// the w-term. Every visibility channel must have a matching component
// frequency.
func PredictComponent(vis *model.Visibility, comp SkyComponent) error {
	if err := comp.Validate(); err != nil {
		return err
	}
	npol := vis.NPol()
	fluxes := make([][]complex128, vis.NChan())
	for vc, f := range vis.Frequency {
		cc, ok := comp.channel(f)
		if !ok {
			return imgerr.ChannelMappingf("component", "%s has no flux at %.6g Hz", comp.Name, f)
		}
		flux, err := comp.fluxIn(cc, vis.Frame)
		if err != nil {
			return imgerr.Wrap(imgerr.ErrConfiguration, "component", err)
		}
		fluxes[vc] = flux
	}

	l, m, n := coords.DirectionToLM(comp.Direction, vis.PhaseCentre)
	if n <= 0 {
		return imgerr.Configurationf("component", "%s lies behind the phase centre tangent plane", comp.Name)
	}
	for i := range vis.Samples {
		s := &vis.Samples[i]
		for vc := range vis.Frequency {
			u, v, w := vis.UVWLambda(i, vc)
			ph := visops.Phasor(u, v, w, l, m)
			for p := 0; p < npol; p++ {
				s.Vis[vc*npol+p] += fluxes[vc][p] * ph
			}
		}
	}
	return nil
}

// Predictor degrids model images.
type Predictor interface {
	Predict(ctx context.Context, vis *model.Visibility, im *model.Image) (*model.Visibility, error)
}

// Predict returns the visibilities of sm sampled like vis: the components
// through the analytic predictor and each image through p. vis is not
// modified.
func Predict(ctx context.Context, p Predictor, vis *model.Visibility, sm *SkyModel) (*model.Visibility, error) {
	out := vis.CopyZero()
	for _, c := range sm.Components {
		if err := PredictComponent(out, c); err != nil {
			return nil, err
		}
	}
	for i, im := range sm.Images {
		pv, err := p.Predict(ctx, vis, im)
		if err != nil {
			return nil, fmt.Errorf("predict model image %d: %w", i, err)
		}
		if out, err = visops.Sum(out, pv); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// InsertComponents adds every component to im at its nearest pixel. Fluxes
// of component channels falling into the same image channel are averaged.
// Components outside the image are skipped with a warning.
func InsertComponents(ctx context.Context, im *model.Image, comps []SkyComponent) error {
	logger := ctxlog.FromContext(ctx)
	for _, c := range comps {
		if err := c.Validate(); err != nil {
			return err
		}
		fx, fy, err := im.WCS.WorldToPixel(c.Direction)
		if err != nil {
			logger.Warn("Component cannot be projected, skipping.", "component", c.Name, "error", err)
			continue
		}
		x, y := int(math.Round(fx)), int(math.Round(fy))
		if x < 0 || x >= im.NX || y < 0 || y >= im.NY {
			logger.Warn("Component outside the image, skipping.", "component", c.Name, "x", x, "y", y)
			continue
		}

		sums := make([][]float64, im.NChan)
		counts := make([]int, im.NChan)
		for cc, f := range c.Frequency {
			ic := int(math.Round(im.WCS.Spectral.Channel(f)))
			if ic < 0 || ic >= im.NChan {
				continue
			}
			flux, err := c.fluxIn(cc, im.Frame)
			if err != nil {
				return imgerr.Wrap(imgerr.ErrConfiguration, "component", err)
			}
			if sums[ic] == nil {
				sums[ic] = make([]float64, im.NPol)
			}
			for p, v := range flux {
				sums[ic][p] += real(v)
			}
			counts[ic]++
		}
		for ic, n := range counts {
			if n == 0 {
				continue
			}
			for p := 0; p < im.NPol; p++ {
				idx := im.Index(ic, p, y, x)
				im.Data[idx] += sums[ic][p] / float64(n)
			}
		}
	}
	return nil
}
