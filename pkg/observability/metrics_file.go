package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsFile collects OTel instruments into a private Prometheus registry
// and writes them in the node_exporter textfile format. Batch runs have no
// scrape window, so the snapshot is written once when the run ends.
type MetricsFile struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider
}

// NewMetricsFile creates a registry, a Prometheus exporter registered on it,
// and a MeterProvider reading through the exporter.
func NewMetricsFile() (*MetricsFile, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return &MetricsFile{
		registry: registry,
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)),
	}, nil
}

// Meter returns the stalign meter backed by the registry.
func (mf *MetricsFile) Meter() metric.Meter {
	return mf.provider.Meter(MeterName)
}

// Registry exposes the underlying registry.
func (mf *MetricsFile) Registry() *prometheus.Registry {
	return mf.registry
}

// Write gathers the registry and atomically writes it to path.
func (mf *MetricsFile) Write(path string) error {
	err := prometheus.WriteToTextfile(path, mf.registry)
	if err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}

	return nil
}

// Shutdown releases the meter provider.
func (mf *MetricsFile) Shutdown(ctx context.Context) error {
	err := mf.provider.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown metrics provider: %w", err)
	}

	return nil
}
