package yamlcfg

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/skygrid/internal/config"
)

const runYAML = `
observation:
  configuration: SPIRAL8
  frequencies: [1.0e8, 1.05e8, 1.1e8]
  phase_centre: [15, -45]
  hour_angle_start: -2
  hour_angle_stop: 2
image:
  npixel: 64
  cube: true
components:
  - name: src
    direction: [15.1, -45]
    flux: [1, 1, 1]
imaging:
  kernel: dft
  facets: 2
  normalize: false
reports:
  - kind: log
`

func TestLoadBytes(t *testing.T) {
	run, err := NewLoader().LoadBytes(context.Background(), []byte(runYAML))
	require.NoError(t, err)

	assert.Equal(t, []float64{1e8, 1.05e8, 1.1e8}, run.Observation.Frequencies)
	assert.Equal(t, -2.0, run.Observation.HourAngleStart)
	assert.Equal(t, 7, run.Observation.Times, "default")
	assert.Equal(t, 1.0, run.Observation.Weight, "default")
	assert.Equal(t, 64, run.Image.NPixel)
	assert.True(t, run.Image.Cube)
	require.Len(t, run.Components, 1)
	assert.Equal(t, "src", run.Components[0].Name)
	assert.Equal(t, 2, run.Imaging.Facets)
	assert.False(t, run.Imaging.Normalize, "explicit false overrides the default")
	assert.Equal(t, "none", run.Imaging.Axis)
	require.Len(t, run.Reports, 1)
	assert.Equal(t, config.ReportLog, run.Reports[0].Kind)

	require.NoError(t, run.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(runYAML), 0600))
	run, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "SPIRAL8", run.Observation.Configuration)

	_, err = NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "empty file", src: "", want: `missing required argument "phase_centre"`},
		{name: "unknown block", src: "telescope: {}\n", want: "failed to parse YAML"},
		{name: "unknown attribute", src: "observation:\n  phase_centre: [0, 0]\n  colour: red\n", want: `unsupported argument "colour"`},
		{name: "wrong type", src: "observation:\n  phase_centre: [0, 0]\n  times: many\n", want: "failed to decode argument 'times'"},
		{name: "component without name", src: "observation:\n  phase_centre: [0, 0]\ncomponents:\n  - direction: [0, 0]\n    flux: [1]\n", want: `components[0]: missing required argument "name"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader().LoadBytes(context.Background(), []byte(tc.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
