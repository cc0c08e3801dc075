package observability

import (
	"context"
	stderrors "errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/previewkit/component"
	"github.com/kbukum/previewkit/logger"
)

// Component owns the tracer and meter providers for the lifetime of the
// application.
type Component struct {
	cfg Config
	log *logger.Logger
	tp  *sdktrace.TracerProvider
	mp  *sdkmetric.MeterProvider
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates the observability component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Component{cfg: cfg, log: log.WithComponent("observability")}
}

// Name returns the component name.
func (c *Component) Name() string { return "observability" }

// Start installs the providers when enabled.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		return nil
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	tp, err := InitTracer(ctx, c.cfg)
	if err != nil {
		return err
	}
	mp, err := InitMeter(ctx, c.cfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return err
	}
	c.tp, c.mp = tp, mp

	c.log.Info("telemetry initialized", logger.Fields(
		"endpoint", c.cfg.Endpoint,
		"sample_rate", c.cfg.SampleRate,
		"interval", c.cfg.MetricInterval.String(),
	))
	return nil
}

// Stop flushes and shuts the providers down.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.mp != nil {
		if err := c.mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
		c.mp = nil
	}
	if c.tp != nil {
		if err := c.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
		c.tp = nil
	}
	return stderrors.Join(errs...)
}

// Health is always healthy; export failures are reported by the SDK.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Healthy(c.Name())
	if !c.cfg.Enabled {
		h.Message = "disabled"
	}
	return h
}

// Describe returns component description for the startup summary.
func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = "otlp-http " + c.cfg.Endpoint
	}
	return component.Description{Name: "Telemetry", Type: "observability", Details: details}
}
