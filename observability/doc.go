// Package observability wires OpenTelemetry tracing and metrics for
// canvasflow. Runs, nodes and capability calls each get a span and are
// counted by the instruments in Metrics.
//
//	tp, err := observability.InitTracer(ctx, cfg.Tracing, "canvasflow", version, log)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanNode)
//	defer span.End()
//
// When tracing or metrics are disabled the global no-op providers stay in
// place, so instrumented code never needs to check.
package observability
