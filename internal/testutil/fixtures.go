package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/skygrid/internal/coords"
	"github.com/vk/skygrid/internal/model"
	"github.com/vk/skygrid/internal/polarisation"
	"github.com/vk/skygrid/internal/simulate"
)

// Fixture is a small synthetic observation and a matching image template.
type Fixture struct {
	Vis      *model.Visibility
	Template *model.Image
}

// FixtureOptions tune NewFixture.
type FixtureOptions struct {
	Config      string    // defaults to SPIRAL8
	Frequencies []float64 // defaults to a single 100 MHz channel
	Times       int       // defaults to 7
	NPixel      int       // defaults to 64
	CellDeg     float64   // defaults to 0.05
	Frame       polarisation.Frame
	Cube        bool
	// ZeroW forces every sample onto the w = 0 plane.
	ZeroW bool
}

// NewFixture simulates an observation at declination -45 degrees.
func NewFixture(t *testing.T, opts FixtureOptions) Fixture {
	t.Helper()
	if opts.Config == "" {
		opts.Config = "SPIRAL8"
	}
	if len(opts.Frequencies) == 0 {
		opts.Frequencies = []float64{1e8}
	}
	if opts.Times == 0 {
		opts.Times = 7
	}
	if opts.NPixel == 0 {
		opts.NPixel = 64
	}
	if opts.CellDeg == 0 {
		opts.CellDeg = 0.05
	}
	if opts.Frame == "" {
		opts.Frame = polarisation.StokesI
	}

	cfg, err := simulate.NamedConfiguration(opts.Config)
	require.NoError(t, err)
	bandwidth := make([]float64, len(opts.Frequencies))
	for i := range bandwidth {
		bandwidth[i] = 1e6
	}
	vis, err := simulate.CreateVisibility(simulate.Observation{
		Config:      cfg,
		HourAngles:  simulate.HourAngles(-1, 1, opts.Times),
		Frequency:   opts.Frequencies,
		Bandwidth:   bandwidth,
		PhaseCentre: coords.Degrees(15, -45),
		Frame:       opts.Frame,
	})
	require.NoError(t, err)
	if opts.ZeroW {
		for i := range vis.Samples {
			vis.Samples[i].UVW[2] = 0
		}
	}
	template, err := simulate.CreateImage(vis, opts.NPixel, opts.CellDeg*math.Pi/180, opts.Frame, opts.Cube)
	require.NoError(t, err)
	return Fixture{Vis: vis, Template: template}
}

// DirectionAt returns the sky direction of a pixel of the template.
func (f Fixture) DirectionAt(t *testing.T, x, y int) coords.Direction {
	t.Helper()
	d, err := f.Template.WCS.PixelToWorld(float64(x), float64(y))
	require.NoError(t, err)
	return d
}
