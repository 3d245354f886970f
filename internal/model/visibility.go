// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Visibility container and its copy/selection helpers.

package model

import (
	"fmt"
	"math"

	"github.com/vk/skygrid/internal/coords"
	"github.com/vk/skygrid/internal/imgerr"
	"github.com/vk/skygrid/internal/polarisation"
)

// Sample is one baseline measurement across all channels and polarisations.
// Vis and Weight are indexed by channel*npol + pol.
type Sample struct {
	UVW      [3]float64 // metres
	Time     float64    // seconds
	Antenna1 int
	Antenna2 int
	Flag     bool
	Vis      []complex128
	Weight   []float64
}

// Visibility is an ordered set of samples sharing frequencies, a phase
// centre and a polarisation frame.
type Visibility struct {
	Frequency        []float64
	ChannelBandwidth []float64
	PhaseCentre      coords.Direction
	Frame            polarisation.Frame
	Samples          []Sample
}

// NewVisibility allocates n zero-valued samples with unit weights.
func NewVisibility(freq, bandwidth []float64, centre coords.Direction, frame polarisation.Frame, n int) *Visibility {
	v := &Visibility{
		Frequency:        append([]float64(nil), freq...),
		ChannelBandwidth: append([]float64(nil), bandwidth...),
		PhaseCentre:      centre,
		Frame:            frame,
		Samples:          make([]Sample, n),
	}
	width := len(freq) * frame.NPol()
	for i := range v.Samples {
		v.Samples[i].Vis = make([]complex128, width)
		v.Samples[i].Weight = make([]float64, width)
		for j := range v.Samples[i].Weight {
			v.Samples[i].Weight[j] = 1
		}
	}
	return v
}

// NChan returns the number of frequency channels.
func (v *Visibility) NChan() int { return len(v.Frequency) }

// NPol returns the number of correlations per channel.
func (v *Visibility) NPol() int { return v.Frame.NPol() }

// Len returns the number of samples.
func (v *Visibility) Len() int { return len(v.Samples) }

// Index returns the offset of (ch, pol) inside Sample.Vis and Sample.Weight.
func (v *Visibility) Index(ch, pol int) int { return ch*v.NPol() + pol }

// Validate checks the shape invariants of the set.
func (v *Visibility) Validate() error {
	const op = "visibility"
	if !v.Frame.Valid() {
		return imgerr.Configurationf(op, "unknown polarisation frame %q", v.Frame)
	}
	if len(v.Frequency) == 0 {
		return imgerr.Configurationf(op, "no frequency channels")
	}
	if len(v.ChannelBandwidth) != len(v.Frequency) {
		return imgerr.Configurationf(op, "%d channel bandwidths for %d frequencies", len(v.ChannelBandwidth), len(v.Frequency))
	}
	width := v.NChan() * v.NPol()
	for i := range v.Samples {
		s := &v.Samples[i]
		if len(s.Vis) != width {
			return imgerr.Configurationf(op, "sample %d has %d values, want %d (nchan=%d, npol=%d)", i, len(s.Vis), width, v.NChan(), v.NPol())
		}
		if len(s.Weight) != width {
			return imgerr.Configurationf(op, "sample %d has %d weights, want %d", i, len(s.Weight), width)
		}
	}
	return nil
}

// UVWLambda returns the baseline of sample row in wavelengths at channel ch.
func (v *Visibility) UVWLambda(row, ch int) (u, vv, w float64) {
	scale := v.Frequency[ch] / coords.SpeedOfLight
	uvw := v.Samples[row].UVW
	return uvw[0] * scale, uvw[1] * scale, uvw[2] * scale
}

// WRange returns the smallest and largest w in metres. An empty set yields
// zeros.
func (v *Visibility) WRange() (lo, hi float64) {
	if len(v.Samples) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for i := range v.Samples {
		w := v.Samples[i].UVW[2]
		lo = math.Min(lo, w)
		hi = math.Max(hi, w)
	}
	return lo, hi
}

// MaxFrequency returns the highest channel frequency.
func (v *Visibility) MaxFrequency() float64 {
	m := 0.0
	for _, f := range v.Frequency {
		m = math.Max(m, f)
	}
	return m
}

// Copy returns a deep copy.
func (v *Visibility) Copy() *Visibility {
	out := v.shell(len(v.Samples))
	for i := range v.Samples {
		out.Samples[i] = copySample(&v.Samples[i], false)
	}
	return out
}

// CopyZero returns a deep copy with every visibility value set to zero.
func (v *Visibility) CopyZero() *Visibility {
	out := v.shell(len(v.Samples))
	for i := range v.Samples {
		out.Samples[i] = copySample(&v.Samples[i], true)
	}
	return out
}

// Subset returns a deep copy holding only the given rows, in that order.
func (v *Visibility) Subset(rows []int) *Visibility {
	out := v.shell(len(rows))
	for i, r := range rows {
		out.Samples[i] = copySample(&v.Samples[r], false)
	}
	return out
}

// Add accumulates values into the given rows. values[i] holds the
// (chan, pol) vector for rows[i].
func (v *Visibility) Add(rows []int, values [][]complex128) error {
	if len(rows) != len(values) {
		return fmt.Errorf("%d rows for %d value vectors", len(rows), len(values))
	}
	for i, r := range rows {
		dst := v.Samples[r].Vis
		if len(values[i]) != len(dst) {
			return fmt.Errorf("row %d: %d values, want %d", r, len(values[i]), len(dst))
		}
		for j, val := range values[i] {
			dst[j] += val
		}
	}
	return nil
}

func (v *Visibility) shell(n int) *Visibility {
	return &Visibility{
		Frequency:        append([]float64(nil), v.Frequency...),
		ChannelBandwidth: append([]float64(nil), v.ChannelBandwidth...),
		PhaseCentre:      v.PhaseCentre,
		Frame:            v.Frame,
		Samples:          make([]Sample, n),
	}
}

func copySample(s *Sample, zero bool) Sample {
	out := *s
	out.Vis = make([]complex128, len(s.Vis))
	if !zero {
		copy(out.Vis, s.Vis)
	}
	out.Weight = append([]float64(nil), s.Weight...)
	return out
}
