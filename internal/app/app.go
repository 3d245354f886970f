package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/vk/skygrid/internal/config"
	"github.com/vk/skygrid/internal/ctxlog"
	"github.com/vk/skygrid/internal/gridder"
	"github.com/vk/skygrid/internal/hcl"
	"github.com/vk/skygrid/internal/report"
	"github.com/vk/skygrid/internal/yamlcfg"
)

const serviceName = "skygrid"

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	loader     config.Loader
	registry   *gridder.Registry
	httpServer *http.Server
	metrics    http.Handler
	// extraSinks receive every report in addition to the configured ones.
	extraSinks []report.Sink
}

// Option customises an App.
type Option func(*App)

// WithRegistry replaces the default gridding kernel registry.
func WithRegistry(r *gridder.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithSinks adds report sinks to the ones named by the run file.
func WithSinks(sinks ...report.Sink) Option {
	return func(a *App) { a.extraSinks = append(a.extraSinks, sinks...) }
}

// NewApp is the constructor for the main application. It returns an App with
// its own isolated logger.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	a := &App{
		ctx:      ctxlog.WithLogger(context.Background(), logger),
		outW:     outW,
		logger:   logger,
		config:   cfg,
		loader:   loader,
		registry: gridder.NewDefaultRegistry(),
	}
	for _, opt := range opts {
		opt(a)
	}
	logger.Debug("Logger configured successfully.")
	return a
}

// LoaderFor picks the run file loader from the file extension.
func LoaderFor(path string) (config.Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return hcl.NewLoader(), nil
	case ".yaml", ".yml":
		return yamlcfg.NewLoader(), nil
	default:
		return nil, fmt.Errorf("unsupported run file %q: expected .hcl, .yaml or .yml", path)
	}
}
