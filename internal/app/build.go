package app

import (
	"fmt"
	"math"
	"time"

	"github.com/vk/skygrid/internal/config"
	"github.com/vk/skygrid/internal/coords"
	"github.com/vk/skygrid/internal/executor"
	"github.com/vk/skygrid/internal/imaging"
	"github.com/vk/skygrid/internal/partition"
	"github.com/vk/skygrid/internal/polarisation"
	"github.com/vk/skygrid/internal/report"
	"github.com/vk/skygrid/internal/simulate"
	"github.com/vk/skygrid/internal/skymodel"
)

func degrees(pair []float64) coords.Direction {
	return coords.Degrees(pair[0], pair[1])
}

// observation translates the observation block for the simulator.
func observation(c config.Observation) (simulate.Observation, error) {
	array, err := simulate.NamedConfiguration(c.Configuration)
	if err != nil {
		return simulate.Observation{}, err
	}
	frame, err := polarisation.Parse(c.Polarisation)
	if err != nil {
		return simulate.Observation{}, err
	}
	bandwidth := make([]float64, len(c.Frequencies))
	for i := range bandwidth {
		bandwidth[i] = c.ChannelBandwidth
	}
	const hourToRad = math.Pi / 12
	return simulate.Observation{
		Config:      array,
		HourAngles:  simulate.HourAngles(c.HourAngleStart*hourToRad, c.HourAngleStop*hourToRad, c.Times),
		Frequency:   c.Frequencies,
		Bandwidth:   bandwidth,
		PhaseCentre: degrees(c.PhaseCentre),
		Frame:       frame,
		Weight:      c.Weight,
	}, nil
}

// components builds Stokes I point sources sampled at the observation
// frequencies.
func components(run *config.Run) ([]skymodel.SkyComponent, error) {
	out := make([]skymodel.SkyComponent, 0, len(run.Components))
	for _, c := range run.Components {
		flux := make([][]float64, len(c.Flux))
		for i, f := range c.Flux {
			flux[i] = []float64{f}
		}
		comp, err := skymodel.NewPointComponent(c.Name, degrees(c.Direction), run.Observation.Frequencies, flux, polarisation.StokesI)
		if err != nil {
			return nil, err
		}
		out = append(out, comp)
	}
	return out, nil
}

// imagingConfig translates the imaging block for the engine.
func (a *App) imagingConfig(c config.Imaging) imaging.Config {
	return imaging.Config{
		Kernel:   c.Kernel,
		Registry: a.registry,
		Executor: executor.New(a.config.WorkerCount),
		Partition: partition.Config{
			Facets:        c.Facets,
			Axis:          partition.Axis(c.Axis),
			VisSlices:     c.Slices,
			MaxPhaseError: c.MaxPhaseError,
		},
		Normalize:   c.Normalize,
		WProjection: c.WProjection,
	}
}

// sinks builds the configured report sinks. A run without report blocks
// logs its report.
func (a *App) sinks(reports []config.Report) ([]report.Sink, error) {
	var out []report.Sink
	for _, r := range reports {
		switch r.Kind {
		case config.ReportLog:
			out = append(out, report.LogSink{})
		case config.ReportSocketIO:
			out = append(out, &report.SocketIOSink{
				URL:                r.URL,
				Namespace:          r.Namespace,
				Event:              r.Event,
				AckEvent:           r.AckEvent,
				Timeout:            time.Duration(r.TimeoutSeconds * float64(time.Second)),
				InsecureSkipVerify: r.InsecureSkipVerify,
			})
		default:
			return nil, fmt.Errorf("unknown report kind %q", r.Kind)
		}
	}
	if len(out) == 0 {
		out = append(out, report.LogSink{})
	}
	return append(out, a.extraSinks...), nil
}
