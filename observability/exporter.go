package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Serves for test/dev environment.
func newConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (func(ctx context.Context) error, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	callback := mp.Shutdown
	otel.SetMeterProvider(mp)
	return callback, nil
}

// Serves for the product environment and fetch stats metrics by HTTP.
func newPrometheusMetricsExporter() (func(ctx context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	callback := mp.Shutdown
	otel.SetMeterProvider(mp)
	return callback, nil
}

// NewConsoleMetricsExporter exports newConsoleMetricsExporter with
// benchmark-appropriate defaults (a 15s flush interval and 5s flush
// timeout) for callers outside this package, namely cmd/rpqbench.
func NewConsoleMetricsExporter() (func(ctx context.Context) error, error) {
	return newConsoleMetricsExporter(15*time.Second, 5*time.Second)
}

// NewPrometheusMetricsExporter exports newPrometheusMetricsExporter
// for callers outside this package.
func NewPrometheusMetricsExporter() (func(ctx context.Context) error, error) {
	return newPrometheusMetricsExporter()
}
