// Package provider is the adapter layer between canvasflow and the outside
// services it calls: generation backends, event sinks and the like.
//
// A backend implements RequestResponse[I, O] (one call, one answer) or
// Sink[I] (fire and acknowledge). Cross-cutting behavior is added by
// wrapping it in middleware:
//
//	backend = provider.Chain(
//	    provider.WithLogging[capability.Request, capability.Output](log),
//	    provider.WithTracing[capability.Request, capability.Output](observability.SpanCapability, label),
//	    provider.WithMetrics[capability.Request, capability.Output](metrics, label),
//	)(provider.WithResilience(backend, cfg))
//
// Registry keeps named factories so backends can be chosen from config.
package provider
