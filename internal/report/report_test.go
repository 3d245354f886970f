package report

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/skygrid/internal/coords"
	"github.com/vk/skygrid/internal/model"
	"github.com/vk/skygrid/internal/polarisation"
	"github.com/vk/skygrid/internal/testutil"
)

func TestQAImage(t *testing.T) {
	wcs := coords.New(coords.Degrees(0, -45), 4, 0.01, coords.Spectral{RefFrequency: 1e8, ChannelWidth: 1e6})
	im := model.NewImage(2, 4, 4, wcs, polarisation.StokesI)
	im.Set(1, 0, 3, 2, 4)
	im.Set(0, 0, 0, 0, -2)

	q := QAImage("dirty", im)
	assert.Equal(t, "dirty", q.Origin)
	assert.Equal(t, 4.0, q.Data["max"])
	assert.Equal(t, -2.0, q.Data["min"])
	assert.Equal(t, 4.0, q.Data["maxabs"])
	assert.Equal(t, 2.0, q.Data["sum"])
	assert.InDelta(t, math.Sqrt(20.0/32), q.Data["rms"], 1e-12)
	assert.Equal(t, 2.0, q.Data["peak_x"])
	assert.Equal(t, 3.0, q.Data["peak_y"])
	assert.Equal(t, 1.0, q.Data["peak_chan"])
	assert.Equal(t, "max", q.Keys()[0])
}

func TestQAVisibility(t *testing.T) {
	vis := model.NewVisibility([]float64{1e8}, []float64{1e6}, coords.Degrees(0, -45), polarisation.StokesI, 3)
	vis.Samples[0].Vis[0] = 3 + 4i
	vis.Samples[1].Vis[0] = 1
	vis.Samples[2].Vis[0] = 100
	vis.Samples[2].Flag = true

	q := QAVisibility("vis", vis)
	assert.Equal(t, 3.0, q.Data["nsamples"])
	assert.Equal(t, 1.0, q.Data["nflagged"])
	assert.Equal(t, 5.0, q.Data["maxabs"])
	assert.Equal(t, 1.0, q.Data["minabs"])
	assert.Equal(t, 2.0, q.Data["sumwt"])
}

func TestQAVisibility_AllFlagged(t *testing.T) {
	vis := model.NewVisibility([]float64{1e8}, []float64{1e6}, coords.Degrees(0, -45), polarisation.StokesI, 1)
	vis.Samples[0].Flag = true
	q := QAVisibility("vis", vis)
	assert.NotContains(t, q.Data, "maxabs")
}

type recordingSink struct {
	name string
	err  error
	mu   sync.Mutex
	got  []Report
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(ctx context.Context, r Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, r)
	return s.err
}

func TestPublishAll(t *testing.T) {
	r := Report{RunID: "run-1", Created: time.Unix(0, 0)}

	t.Run("every sink receives the report", func(t *testing.T) {
		a, b := &recordingSink{name: "a"}, &recordingSink{name: "b"}
		require.NoError(t, PublishAll(context.Background(), []Sink{a, b}, r))
		assert.Len(t, a.got, 1)
		assert.Len(t, b.got, 1)
		assert.Equal(t, "run-1", b.got[0].RunID)
	})

	t.Run("failure names the sink", func(t *testing.T) {
		boom := errors.New("boom")
		bad := &recordingSink{name: "bad", err: boom}
		err := PublishAll(context.Background(), []Sink{&recordingSink{name: "ok"}, bad}, r)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "sink bad")
	})
}

func TestLogSink(t *testing.T) {
	ctx, buf := testutil.LogContext()
	r := Report{
		RunID:    "run-7",
		Degraded: true,
		Items:    []QA{{Origin: "psf", Data: map[string]float64{"max": 1}}},
	}
	require.NoError(t, LogSink{}.Publish(ctx, r))
	out := buf.String()
	assert.Contains(t, out, "runID=run-7")
	assert.Contains(t, out, "degraded")
	assert.Contains(t, out, "origin=psf")
	assert.Contains(t, out, "max=1")
}

func TestReportPayload(t *testing.T) {
	r := Report{
		RunID:   "abc",
		Created: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Items:   []QA{{Origin: "dirty", Data: map[string]float64{"rms": 0.5}}},
	}
	p := r.Payload()
	assert.Equal(t, "abc", p["run_id"])
	assert.Equal(t, "2025-01-02T03:04:05Z", p["created"])
	items := p["items"].([]map[string]any)
	require.Len(t, items, 1)
	assert.Equal(t, "dirty", items[0]["origin"])
	assert.Equal(t, 0.5, items[0]["data"].(map[string]any)["rms"])
}

func TestSocketIOSink_Errors(t *testing.T) {
	tests := []struct {
		name string
		sink SocketIOSink
		want string
	}{
		{name: "bad url", sink: SocketIOSink{URL: "://nope", Event: "qa"}, want: "failed to parse URL"},
		{name: "no host", sink: SocketIOSink{URL: "dashboard", Event: "qa"}, want: "needs a scheme and a host"},
		{name: "no event", sink: SocketIOSink{URL: "http://127.0.0.1:1"}, want: "no event name"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.sink.Publish(context.Background(), Report{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestSocketIOSink_Unreachable(t *testing.T) {
	s := &SocketIOSink{URL: "http://127.0.0.1:1", Event: "qa", Timeout: 300 * time.Millisecond}
	err := s.Publish(context.Background(), Report{RunID: "x"})
	require.Error(t, err)
}
