package simulate

import (
	"math"

	"github.com/vk/skygrid/internal/coords"
	"github.com/vk/skygrid/internal/imgerr"
	"github.com/vk/skygrid/internal/model"
	"github.com/vk/skygrid/internal/polarisation"
)

// siderealDay in seconds.
const siderealDay = 86164.0905

// Observation describes what CreateVisibility samples.
type Observation struct {
	Config      *Configuration
	HourAngles  []float64 // radians
	Frequency   []float64
	Bandwidth   []float64
	PhaseCentre coords.Direction
	Frame       polarisation.Frame
	Weight      float64
}

// UVW returns the baseline coordinates for a local (X, Y, Z) baseline at
// hour angle ha towards declination dec.
func UVW(xyz [3]float64, ha, dec float64) [3]float64 {
	sinH, cosH := math.Sincos(ha)
	sinD, cosD := math.Sincos(dec)
	x, y, z := xyz[0], xyz[1], xyz[2]
	return [3]float64{
		sinH*x + cosH*y,
		-sinD*cosH*x + sinD*sinH*y + cosD*z,
		cosD*cosH*x - cosD*sinH*y + sinD*z,
	}
}

// CreateVisibility returns a zero-valued visibility set with one sample per
// baseline and hour angle, ordered time-major.
func CreateVisibility(obs Observation) (*model.Visibility, error) {
	const op = "simulate"
	switch {
	case obs.Config == nil || len(obs.Config.Antennas) < 2:
		return nil, imgerr.Configurationf(op, "at least two antennas are required")
	case len(obs.HourAngles) == 0:
		return nil, imgerr.Configurationf(op, "no hour angles")
	case len(obs.Frequency) == 0 || len(obs.Bandwidth) != len(obs.Frequency):
		return nil, imgerr.Configurationf(op, "%d frequencies with %d bandwidths", len(obs.Frequency), len(obs.Bandwidth))
	case !obs.Frame.Valid():
		return nil, imgerr.Configurationf(op, "unknown polarisation frame %q", obs.Frame)
	case obs.Weight < 0:
		return nil, imgerr.Configurationf(op, "weight must not be negative")
	}
	weight := obs.Weight
	if weight == 0 {
		weight = 1
	}

	baselines := obs.Config.Baselines()
	vis := model.NewVisibility(obs.Frequency, obs.Bandwidth, obs.PhaseCentre, obs.Frame, len(baselines)*len(obs.HourAngles))
	row := 0
	for _, ha := range obs.HourAngles {
		t := ha / (2 * math.Pi) * siderealDay
		for _, bl := range baselines {
			a1, a2 := obs.Config.Antennas[bl[0]], obs.Config.Antennas[bl[1]]
			xyz := [3]float64{a2[0] - a1[0], a2[1] - a1[1], a2[2] - a1[2]}
			s := &vis.Samples[row]
			s.UVW = UVW(xyz, ha, obs.PhaseCentre.Dec)
			s.Time = t
			s.Antenna1, s.Antenna2 = bl[0], bl[1]
			for j := range s.Weight {
				s.Weight[j] = weight
			}
			row++
		}
	}
	return vis, nil
}

// HourAngles returns n hour angles evenly spaced over [start, stop].
func HourAngles(start, stop float64, n int) []float64 {
	if n <= 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// CreateImage returns a zero image template centred on the phase centre of
// vis. cube selects one image channel per visibility channel; otherwise a
// single channel spans the whole band. cellsize <= 0 picks a third of the
// resolution of the longest baseline.
func CreateImage(vis *model.Visibility, npixel int, cellsize float64, frame polarisation.Frame, cube bool) (*model.Image, error) {
	const op = "simulate"
	if npixel <= 0 {
		return nil, imgerr.Configurationf(op, "npixel must be positive, got %d", npixel)
	}
	if !frame.Valid() {
		return nil, imgerr.Configurationf(op, "unknown polarisation frame %q", frame)
	}
	if vis.NChan() == 0 {
		return nil, imgerr.Configurationf(op, "visibility set has no channels")
	}
	if cellsize <= 0 {
		uvmax := 0.0
		scale := vis.MaxFrequency() / coords.SpeedOfLight
		for i := range vis.Samples {
			uvw := vis.Samples[i].UVW
			uvmax = math.Max(uvmax, math.Hypot(uvw[0], uvw[1])*scale)
		}
		if uvmax == 0 {
			return nil, imgerr.Configurationf(op, "cannot derive a cell size without baselines")
		}
		cellsize = 1 / (3 * uvmax)
	}

	var spectral coords.Spectral
	nchan := 1
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, f := range vis.Frequency {
		lo, hi = math.Min(lo, f), math.Max(hi, f)
	}
	if cube && vis.NChan() > 1 {
		nchan = vis.NChan()
		width := vis.Frequency[1] - vis.Frequency[0]
		for i := 1; i < nchan; i++ {
			d := vis.Frequency[i] - vis.Frequency[i-1]
			if math.Abs(d-width) > 1e-6*math.Abs(width) {
				return nil, imgerr.Configurationf(op, "cube imaging needs evenly spaced channels")
			}
		}
		spectral = coords.Spectral{RefPixel: 0, RefFrequency: vis.Frequency[0], ChannelWidth: width}
	} else {
		width := hi - lo + vis.ChannelBandwidth[0]
		if width <= 0 {
			width = 1
		}
		spectral = coords.Spectral{RefPixel: 0, RefFrequency: (lo + hi) / 2, ChannelWidth: width}
	}
	wcs := coords.New(vis.PhaseCentre, npixel, cellsize, spectral)
	return model.NewImage(nchan, npixel, npixel, wcs, frame), nil
}
