package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/vk/skygrid/internal/config"
	"github.com/vk/skygrid/internal/ctxlog"
	"github.com/vk/skygrid/internal/imaging"
	"github.com/vk/skygrid/internal/model"
	"github.com/vk/skygrid/internal/polarisation"
	"github.com/vk/skygrid/internal/report"
	"github.com/vk/skygrid/internal/simulate"
	"github.com/vk/skygrid/internal/skymodel"
	"github.com/vk/skygrid/internal/telemetry"
)

const degToRad = math.Pi / 180

// Run loads the run file, simulates and images the observation and publishes
// the QA report. It returns the published report.
func (a *App) Run(ctx context.Context) (*report.Report, error) {
	runID := uuid.NewString()
	logger := a.logger.With("runID", runID)
	ctx = ctxlog.WithLogger(ctx, logger)
	a.ctx = ctx
	logger.Debug("App.Run method started.")

	provider, err := telemetry.Setup(serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("Telemetry shutdown failed.", "error", err)
		}
	}()
	a.metrics = provider.Handler()

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	run, err := a.loader.Load(ctx, a.config.RunPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load run file: %w", err)
	}
	if err := run.Validate(); err != nil {
		return nil, err
	}
	logger.Info("Run file loaded.", "path", a.config.RunPath, "components", len(run.Components))

	rep, err := a.image(ctx, run)
	if err != nil {
		return nil, err
	}
	rep.RunID = runID

	sinks, err := a.sinks(run.Reports)
	if err != nil {
		return nil, err
	}
	if err := report.PublishAll(ctx, sinks, *rep); err != nil {
		return nil, fmt.Errorf("failed to publish report: %w", err)
	}
	logger.Info("🏁 Run finished.", "degraded", rep.Degraded)
	return rep, nil
}

// image simulates the observation, forms the PSF, dirty, model and residual
// images and summarises them.
func (a *App) image(ctx context.Context, run *config.Run) (*report.Report, error) {
	logger := ctxlog.FromContext(ctx)

	obs, err := observation(run.Observation)
	if err != nil {
		return nil, err
	}
	comps, err := components(run)
	if err != nil {
		return nil, err
	}
	vis, err := simulate.CreateVisibility(obs)
	if err != nil {
		return nil, err
	}
	for _, c := range comps {
		if err := skymodel.PredictComponent(vis, c); err != nil {
			return nil, err
		}
	}
	logger.Info("Observation simulated.", "samples", vis.Len(), "channels", vis.NChan())

	frame, err := polarisation.Parse(run.Image.Polarisation)
	if err != nil {
		return nil, err
	}
	template, err := simulate.CreateImage(vis, run.Image.NPixel, run.Image.CellDeg*degToRad, frame, run.Image.Cube)
	if err != nil {
		return nil, err
	}

	cfg := a.imagingConfig(run.Imaging)
	var imager imaging.Imager
	if a.config.StrictKernel {
		imager, err = imaging.New(cfg)
	} else {
		imager, err = imaging.NewOrFallback(ctx, cfg)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("🚀 Imaging started.", "kernel", run.Imaging.Kernel, "executor", cfg.Executor.Name(), "facets", run.Imaging.Facets, "axis", run.Imaging.Axis)

	psf, _, err := imager.Invert(ctx, vis, template, true)
	if err != nil {
		return nil, fmt.Errorf("invert psf: %w", err)
	}
	dirty, _, err := imager.Invert(ctx, vis, template, false)
	if err != nil {
		return nil, fmt.Errorf("invert dirty image: %w", err)
	}

	sky := template.ZeroLike()
	if err := skymodel.InsertComponents(ctx, sky, comps); err != nil {
		return nil, err
	}
	residual, _, err := imaging.Residual(ctx, imager, vis, &skymodel.SkyModel{Images: []*model.Image{sky}}, template)
	if err != nil {
		return nil, fmt.Errorf("residual: %w", err)
	}

	return &report.Report{
		Created:  time.Now(),
		Degraded: imager.Degraded(),
		Items: []report.QA{
			report.QAVisibility("observed", vis),
			report.QAImage("psf", psf),
			report.QAImage("dirty", dirty),
			report.QAImage("model", sky),
			report.QAImage("residual", residual),
		},
	}, nil
}
