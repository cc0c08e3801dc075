package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/previewkit/errors"
	"github.com/kbukum/previewkit/pipeline"
)

// InitMeter creates an OTLP/HTTP meter provider and installs it globally.
// The caller shuts it down on exit.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metric names recorded by PipelineMetrics.
const (
	MetricItemsProduced = "pipeline.items.produced"
	MetricItemsConsumed = "pipeline.items.consumed"
	MetricItemsFailed   = "pipeline.items.failed"
	MetricItemsInFlight = "pipeline.items.in_flight"
	MetricUnits         = "pipeline.units"
	MetricRunDuration   = "pipeline.run.duration"
	MetricRuns          = "pipeline.runs"
)

// PipelineMetrics records pipeline events as OpenTelemetry instruments. It
// implements pipeline.Observer.
type PipelineMetrics struct {
	produced metric.Int64Counter
	consumed metric.Int64Counter
	failed   metric.Int64Counter
	inFlight metric.Int64UpDownCounter
	units    metric.Int64Counter
	duration metric.Float64Histogram
	runs     metric.Int64Counter
}

var _ pipeline.Observer = (*PipelineMetrics)(nil)

// NewPipelineMetrics creates the instruments on meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var (
		m   PipelineMetrics
		err error
	)
	if m.produced, err = meter.Int64Counter(MetricItemsProduced,
		metric.WithDescription("Items pushed to the queue by producers"),
	); err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricItemsProduced, err)
	}
	if m.consumed, err = meter.Int64Counter(MetricItemsConsumed,
		metric.WithDescription("Items fully handled by consumers"),
	); err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricItemsConsumed, err)
	}
	if m.failed, err = meter.Int64Counter(MetricItemsFailed,
		metric.WithDescription("Items that failed, by stage and error code"),
	); err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricItemsFailed, err)
	}
	if m.inFlight, err = meter.Int64UpDownCounter(MetricItemsInFlight,
		metric.WithDescription("Items produced but not yet consumed"),
	); err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricItemsInFlight, err)
	}
	if m.units, err = meter.Int64Counter(MetricUnits,
		metric.WithDescription("Units carried by produced payloads"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricUnits, err)
	}
	if m.duration, err = meter.Float64Histogram(MetricRunDuration,
		metric.WithDescription("Wall time of a run"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricRunDuration, err)
	}
	if m.runs, err = meter.Int64Counter(MetricRuns,
		metric.WithDescription("Finished runs by outcome"),
	); err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRuns, err)
	}
	return &m, nil
}

// Observer methods carry no context; instruments only need one for
// exemplars, which a run does not have.

func (m *PipelineMetrics) Started(string, int) {}

func (m *PipelineMetrics) Produced(_ int, units int64) {
	ctx := context.Background()
	m.produced.Add(ctx, 1)
	m.inFlight.Add(ctx, 1)
	if units > 0 {
		m.units.Add(ctx, units)
	}
}

func (m *PipelineMetrics) ProduceFailed(_ int, err error) {
	m.failed.Add(context.Background(), 1, failureAttrs("produce", err))
}

func (m *PipelineMetrics) Consumed(int) {
	ctx := context.Background()
	m.consumed.Add(ctx, 1)
	m.inFlight.Add(ctx, -1)
}

func (m *PipelineMetrics) ConsumeFailed(_ int, err error) {
	ctx := context.Background()
	m.failed.Add(ctx, 1, failureAttrs("consume", err))
	m.inFlight.Add(ctx, -1)
}

func (m *PipelineMetrics) Finished(r *pipeline.Report) {
	ctx := context.Background()
	outcome := "ok"
	switch {
	case r.Canceled:
		outcome = "canceled"
	case r.Errors > 0:
		outcome = "partial"
	}
	m.duration.Record(ctx, r.Elapsed.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
	m.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func failureAttrs(stage string, err error) metric.AddOption {
	code := string(errors.CodeOf(err))
	if code == "" {
		code = "UNKNOWN"
	}
	return metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("code", code),
	)
}
