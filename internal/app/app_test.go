package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/skygrid/internal/gridder"
	"github.com/vk/skygrid/internal/hcl"
	"github.com/vk/skygrid/internal/imgerr"
	"github.com/vk/skygrid/internal/report"
	"github.com/vk/skygrid/internal/testutil"
	"github.com/vk/skygrid/internal/yamlcfg"
)

const testRunHCL = `
observation {
  configuration = "SPIRAL8"
  frequencies   = [1e8]
  phase_centre  = [15, -45]
  times         = 3
}

image {
  npixel       = 32
  cellsize_deg = 0.05
}

component "offset" {
  direction = [15, -44.8]
  flux      = [1]
}

imaging {
  kernel = "dft"
  facets = 2
}
`

const testRunYAML = `
observation:
  frequencies: [1.0e8]
  phase_centre: [15, -45]
  times: 3
image:
  npixel: 32
  cellsize_deg: 0.05
components:
  - name: offset
    direction: [15, -44.8]
    flux: [1]
imaging:
  kernel: dft
  axis: w
  slices: 4
`

type captureSink struct {
	mu  sync.Mutex
	got []report.Report
}

func (s *captureSink) Name() string { return "capture" }

func (s *captureSink) Publish(_ context.Context, r report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, r)
	return nil
}

// setupAppTest writes src to a run file and returns an app reading it.
func setupAppTest(t *testing.T, name, src string, cfg Config, opts ...Option) (*App, *testutil.SafeBuffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0600))

	cfg.RunPath = path
	cfg.LogLevel = "debug"
	appCfg, err := NewConfig(cfg)
	require.NoError(t, err)
	loader, err := LoaderFor(path)
	require.NoError(t, err)

	logBuffer := &testutil.SafeBuffer{}
	a := NewApp(logBuffer, appCfg, loader, opts...)
	t.Cleanup(func() {
		if os.Getenv("SKYGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return a, logBuffer
}

func qa(t *testing.T, r *report.Report, origin string) report.QA {
	t.Helper()
	for _, q := range r.Items {
		if q.Origin == origin {
			return q
		}
	}
	t.Fatalf("no QA for %s", origin)
	return report.QA{}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		src     string
		workers int
	}{
		{name: "hcl facets serial", file: "run.hcl", src: testRunHCL},
		{name: "hcl facets pool", file: "run.hcl", src: testRunHCL, workers: 4},
		{name: "yaml w slices", file: "run.yml", src: testRunYAML, workers: 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sink := &captureSink{}
			a, logs := setupAppTest(t, tc.file, tc.src, Config{WorkerCount: tc.workers}, WithSinks(sink))

			rep, err := a.Run(context.Background())
			require.NoError(t, err)
			require.NotNil(t, rep)
			assert.NotEmpty(t, rep.RunID)
			assert.False(t, rep.Degraded)

			require.Len(t, sink.got, 1)
			assert.Equal(t, rep.RunID, sink.got[0].RunID)

			assert.Equal(t, 84.0, qa(t, rep, "observed").Data["nsamples"], "28 baselines x 3 times")
			assert.InDelta(t, 1.0, qa(t, rep, "psf").Data["max"], 1e-6)

			dirty := qa(t, rep, "dirty")
			assert.InDelta(t, 1.0, dirty.Data["max"], 0.02)
			assert.Equal(t, 16.0, dirty.Data["peak_x"])
			assert.Equal(t, 20.0, dirty.Data["peak_y"])

			assert.Equal(t, 1.0, qa(t, rep, "model").Data["sum"])
			assert.Less(t, qa(t, rep, "residual").Data["maxabs"], 0.05)

			out := logs.String()
			assert.Contains(t, out, "QA summary.")
			assert.Contains(t, out, "runID="+rep.RunID)
		})
	}
}

func TestRun_KernelUnavailable(t *testing.T) {
	t.Run("fallback", func(t *testing.T) {
		a, logs := setupAppTest(t, "run.hcl", testRunHCL, Config{}, WithRegistry(gridder.NewRegistry()))
		rep, err := a.Run(context.Background())
		require.NoError(t, err)
		assert.True(t, rep.Degraded)
		assert.Equal(t, 0.0, qa(t, rep, "dirty").Data["maxabs"])
		assert.Contains(t, logs.String(), "Gridding kernel unavailable")
	})

	t.Run("strict", func(t *testing.T) {
		a, _ := setupAppTest(t, "run.hcl", testRunHCL, Config{StrictKernel: true}, WithRegistry(gridder.NewRegistry()))
		_, err := a.Run(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, imgerr.ErrKernelUnavailable)
	})
}

func TestRun_InvalidRunFile(t *testing.T) {
	src := `observation {
  phase_centre = [15, -45]
  frequencies  = [1e8, 1.1e8]
}
component "a" {
  direction = [15, -45]
  flux      = [1]
}`
	a, _ := setupAppTest(t, "run.hcl", src, Config{})
	_, err := a.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, imgerr.ErrConfiguration)
}

func TestRun_LoadError(t *testing.T) {
	a, _ := setupAppTest(t, "run.hcl", "observation {", Config{})
	_, err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load run file")
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "valid", cfg: Config{RunPath: "run.hcl"}},
		{name: "no path", cfg: Config{}, want: "RunPath"},
		{name: "negative workers", cfg: Config{RunPath: "run.hcl", WorkerCount: -1}, want: "WorkerCount"},
		{name: "bad port", cfg: Config{RunPath: "run.hcl", HealthcheckPort: 70000}, want: "HealthcheckPort"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.want == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.cfg.RunPath, cfg.RunPath)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoaderFor(t *testing.T) {
	l, err := LoaderFor("a/run.HCL")
	require.NoError(t, err)
	assert.IsType(t, &hcl.Loader{}, l)

	for _, p := range []string{"run.yaml", "run.yml"} {
		l, err = LoaderFor(p)
		require.NoError(t, err)
		assert.IsType(t, &yamlcfg.Loader{}, l)
	}

	_, err = LoaderFor("run.json")
	require.Error(t, err)
}

func TestHealthMux(t *testing.T) {
	a := NewApp(&testutil.SafeBuffer{}, &Config{RunPath: "run.hcl"}, nil)
	a.metrics = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	})
	srv := httptest.NewServer(a.newMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewLogger(t *testing.T) {
	buf := &testutil.SafeBuffer{}
	logger := newLogger("warn", "json", buf)
	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"service":"skygrid"`)
}
