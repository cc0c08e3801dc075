// Package observability wires OpenTelemetry tracing and metrics into a run.
//
// When Config.Enabled is set, the Component installs OTLP/HTTP trace and
// metric providers as the global ones and flushes them on Stop. Otherwise
// the global no-op providers stay in place and every instrument is free.
//
// Tracing:
//
//	ctx, span := observability.StartSpan(ctx, "collector.run")
//	defer span.End()
//
// Pipeline metrics:
//
//	m, err := observability.NewPipelineMetrics(observability.Meter("previewkit"))
//	report, err := pipeline.Run(ctx, inputs, cfg, produce, consume, pipeline.WithObserver(m))
package observability
