package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/skygrid/internal/imgerr"
)

func validRun() *Run {
	return &Run{
		Observation: Observation{
			Configuration:    "SPIRAL8",
			Frequencies:      []float64{1e8, 1.1e8},
			ChannelBandwidth: 1e6,
			HourAngleStart:   -1,
			HourAngleStop:    1,
			Times:            5,
			PhaseCentre:      []float64{15, -45},
			Polarisation:     "stokesI",
			Weight:           1,
		},
		Image:      Image{NPixel: 64, Polarisation: "stokesI"},
		Components: []Component{{Name: "src", Direction: []float64{15.1, -45}, Flux: []float64{1, 1}}},
		Imaging:    Imaging{Kernel: "dft", Facets: 1, Axis: "none", Slices: 1, Normalize: true},
		Reports:    []Report{{Kind: ReportLog}},
	}
}

func TestRunValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Run)
		want   string
	}{
		{name: "valid", mutate: func(*Run) {}},
		{name: "no frequencies", mutate: func(r *Run) { r.Observation.Frequencies = nil }, want: "Frequencies"},
		{name: "negative frequency", mutate: func(r *Run) { r.Observation.Frequencies[0] = -1 }, want: "Frequencies[0]"},
		{name: "stop before start", mutate: func(r *Run) { r.Observation.HourAngleStop = -2 }, want: "HourAngleStop"},
		{name: "bad phase centre", mutate: func(r *Run) { r.Observation.PhaseCentre = []float64{1} }, want: "PhaseCentre"},
		{name: "unknown frame", mutate: func(r *Run) { r.Image.Polarisation = "xy" }, want: "polframe"},
		{name: "zero pixels", mutate: func(r *Run) { r.Image.NPixel = 0 }, want: "NPixel"},
		{name: "bad axis", mutate: func(r *Run) { r.Imaging.Axis = "frequency" }, want: "Axis"},
		{name: "slices without axis", mutate: func(r *Run) { r.Imaging.Slices = 4 }, want: "without a slicing axis"},
		{name: "flux length", mutate: func(r *Run) { r.Components[0].Flux = []float64{1} }, want: "1 flux values for 2 frequencies"},
		{name: "duplicate component", mutate: func(r *Run) {
			r.Components = append(r.Components, r.Components[0])
		}, want: "duplicate component"},
		{name: "unnamed component", mutate: func(r *Run) { r.Components[0].Name = "" }, want: "Name"},
		{name: "socketio without url", mutate: func(r *Run) {
			r.Reports = []Report{{Kind: ReportSocketIO, Event: "qa"}}
		}, want: "required_for_socketio"},
		{name: "socketio bad url", mutate: func(r *Run) {
			r.Reports = []Report{{Kind: ReportSocketIO, URL: "not a url", Event: "qa"}}
		}, want: "URL"},
		{name: "unknown sink", mutate: func(r *Run) { r.Reports = []Report{{Kind: "email"}} }, want: "Kind"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := validRun()
			tc.mutate(r)
			err := r.Validate()
			if tc.want == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, imgerr.ErrConfiguration)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestApplyDefault(t *testing.T) {
	defs := Inputs[BlockObservation]

	var freqs []float64
	require.NoError(t, ApplyDefault(defs["frequencies"], &freqs))
	assert.Equal(t, []float64{1e8}, freqs)

	var times int
	require.NoError(t, ApplyDefault(defs["times"], &times))
	assert.Equal(t, 7, times)

	var centre []float64
	err := ApplyDefault(defs["phase_centre"], &centre)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required argument "phase_centre"`)
}

func TestFields(t *testing.T) {
	var im Image
	fields, err := Fields(&im)
	require.NoError(t, err)
	assert.Len(t, fields, 4)
	fields["npixel"].SetInt(32)
	assert.Equal(t, 32, im.NPixel)

	_, err = Fields(im)
	require.Error(t, err)
}

func TestInputsCoverTaggedFields(t *testing.T) {
	targets := map[string]any{
		BlockObservation: &Observation{},
		BlockImage:       &Image{},
		BlockComponent:   &Component{},
		BlockImaging:     &Imaging{},
		BlockReport:      &Report{},
	}
	for block, target := range targets {
		fields, err := Fields(target)
		require.NoError(t, err)
		for name := range fields {
			assert.Contains(t, Inputs[block], name, "block %s", block)
		}
		assert.Len(t, Inputs[block], len(fields), "block %s", block)
	}
}
