// Package telemetry owns the OpenTelemetry instruments recorded while a task
// graph runs and the Prometheus exporter that serves them.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "skygrid.executor"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)
)

var (
	nodeDuration metric.Float64Histogram
	nodeSuccess  metric.Int64Counter
	nodeFailure  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		nodeDuration, err = meter.Float64Histogram(
			"skygrid_node_duration_seconds",
			metric.WithDescription("Duration of task graph node executions"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodeSuccess, err = meter.Int64Counter(
			"skygrid_node_success_total",
			metric.WithDescription("Number of task graph nodes that completed"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodeFailure, err = meter.Int64Counter(
			"skygrid_node_failure_total",
			metric.WithDescription("Number of task graph nodes that failed"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// StartNode opens a span for one node execution.
func StartNode(ctx context.Context, nodeID, kind string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "skygrid.node",
		trace.WithAttributes(
			attribute.String("node.id", nodeID),
			attribute.String("node.kind", kind),
		),
	)
}

// RecordNode records the outcome of one node execution.
func RecordNode(ctx context.Context, kind string, duration time.Duration, err error) {
	if initErr := initMetrics(); initErr != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	nodeDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		nodeFailure.Add(ctx, 1, attrs)
		return
	}
	nodeSuccess.Add(ctx, 1, attrs)
}

// Provider is the installed meter provider and its scrape endpoint.
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	handler       http.Handler
}

// Setup installs a global meter provider backed by a Prometheus exporter.
// Each call uses its own registry, which also carries the Go runtime and
// process collectors.
func Setup(service string) (*Provider, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)
	return &Provider{
		meterProvider: mp,
		handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, nil
}

// Handler serves the metrics in the Prometheus exposition format.
func (p *Provider) Handler() http.Handler { return p.handler }

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.meterProvider.Shutdown(ctx)
}
