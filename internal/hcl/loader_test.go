package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/skygrid/internal/config"
)

const runHCL = `
observation {
  configuration = "SPIRAL16"
  frequencies   = [1e8, 1.1e8]
  phase_centre  = [15, -45]
  times         = 3
}

image {
  npixel       = 128
  cellsize_deg = 0.01
}

component "src1" {
  direction = [15.1, -45]
  flux      = [1, 0.5]
}

component "src2" {
  direction = [14.9, -44.9]
  flux      = [2, 2]
}

imaging {
  kernel = "fft"
  axis   = "w"
  slices = 8
}

report "log" {}

report "socketio" {
  url       = "http://localhost:3000"
  ack_event = "ok"
}
`

func TestLoadBytes(t *testing.T) {
	run, err := NewLoader().LoadBytes(context.Background(), []byte(runHCL), "run.hcl")
	require.NoError(t, err)

	obs := run.Observation
	assert.Equal(t, "SPIRAL16", obs.Configuration)
	assert.Equal(t, []float64{1e8, 1.1e8}, obs.Frequencies)
	assert.Equal(t, []float64{15, -45}, obs.PhaseCentre)
	assert.Equal(t, 3, obs.Times)
	assert.Equal(t, 1e6, obs.ChannelBandwidth, "default")
	assert.Equal(t, "stokesI", obs.Polarisation, "default")
	assert.Equal(t, -1.0, obs.HourAngleStart, "default")

	assert.Equal(t, 128, run.Image.NPixel)
	assert.Equal(t, 0.01, run.Image.CellDeg)

	require.Len(t, run.Components, 2)
	assert.Equal(t, "src1", run.Components[0].Name)
	assert.Equal(t, []float64{1, 0.5}, run.Components[0].Flux)
	assert.Equal(t, "src2", run.Components[1].Name)

	assert.Equal(t, "fft", run.Imaging.Kernel)
	assert.Equal(t, "w", run.Imaging.Axis)
	assert.Equal(t, 8, run.Imaging.Slices)
	assert.Equal(t, 1, run.Imaging.Facets, "default")
	assert.True(t, run.Imaging.Normalize, "default")

	require.Len(t, run.Reports, 2)
	assert.Equal(t, config.ReportLog, run.Reports[0].Kind)
	assert.Equal(t, config.ReportSocketIO, run.Reports[1].Kind)
	assert.Equal(t, "qa", run.Reports[1].Event, "default")
	assert.Equal(t, "ok", run.Reports[1].AckEvent)
	assert.Equal(t, 10.0, run.Reports[1].TimeoutSeconds)

	require.NoError(t, run.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.hcl")
	require.NoError(t, os.WriteFile(path, []byte(runHCL), 0600))

	run, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, run.Components, 2)
}

func TestLoad_MissingBlocksTakeDefaults(t *testing.T) {
	src := `observation { phase_centre = [0, -30] }`
	run, err := NewLoader().LoadBytes(context.Background(), []byte(src), "run.hcl")
	require.NoError(t, err)
	assert.Equal(t, 256, run.Image.NPixel)
	assert.Equal(t, "dft", run.Imaging.Kernel)
	assert.Empty(t, run.Components)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "syntax", src: `observation {`, want: "failed to parse"},
		{name: "missing required", src: `image { npixel = 8 }`, want: `missing required argument "phase_centre"`},
		{name: "unknown attribute", src: `observation {
  phase_centre = [0, 0]
  colour = "red"
}`, want: `unsupported argument "colour"`},
		{name: "wrong type", src: `observation {
  phase_centre = [0, 0]
  times = "many"
}`, want: "failed to decode argument 'times'"},
		{name: "unknown block", src: `telescope {}`, want: "failed to decode"},
		{name: "label and name", src: `observation { phase_centre = [0, 0] }
component "a" {
  name = "b"
  direction = [0, 0]
  flux = [1]
}`, want: "set by the block label"},
		{name: "component without flux", src: `observation { phase_centre = [0, 0] }
component "a" { direction = [0, 0] }`, want: `missing required argument "flux"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader().LoadBytes(context.Background(), []byte(tc.src), "run.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.hcl"))
	require.Error(t, err)
}
