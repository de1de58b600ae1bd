package capability

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/logger"
	"github.com/kbukum/canvasflow/observability"
	"github.com/kbukum/canvasflow/provider"
)

// Backend names.
const (
	BackendFal         = "fal"
	BackendGemini      = "gemini"
	BackendSimulated3D = "simulated-3d"
)

// Router is the Invoker used by the engine. It picks a backend from the
// capability id and bounds every call by the configured timeout.
type Router struct {
	backends   *provider.Registry[Backend]
	simulate3D bool
	timeout    time.Duration
}

type routerOptions struct {
	log       *logger.Logger
	metrics   *observability.Metrics
	artifacts ArtifactSaver
	overrides map[string]Backend
}

// Option configures a Router.
type Option func(*routerOptions)

// WithLogger sets the logger for backend calls.
func WithLogger(log *logger.Logger) Option {
	return func(o *routerOptions) { o.log = log }
}

// WithMetrics records capability metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *routerOptions) { o.metrics = m }
}

// WithArtifacts stores inline generated images instead of returning data URLs.
func WithArtifacts(a ArtifactSaver) Option {
	return func(o *routerOptions) { o.artifacts = a }
}

// WithBackend replaces a named backend, e.g. with a fake in tests. The
// replacement is still wrapped with logging, tracing and metrics.
func WithBackend(name string, b Backend) Option {
	return func(o *routerOptions) {
		if o.overrides == nil {
			o.overrides = make(map[string]Backend)
		}
		o.overrides[name] = b
	}
}

// NewRouter builds the backends from cfg.
func NewRouter(cfg Config, opts ...Option) (*Router, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := routerOptions{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log.WithComponent("capability")

	reg := provider.NewRegistry[Backend]()
	reg.RegisterFactory(BackendFal, func(map[string]any) (Backend, error) {
		return NewFalClient(cfg)
	})
	reg.RegisterFactory(BackendGemini, func(map[string]any) (Backend, error) {
		return NewGeminiClient(cfg, o.artifacts)
	})
	reg.RegisterFactory(BackendSimulated3D, func(map[string]any) (Backend, error) {
		return NewSimulated3D(cfg.Simulate3DDelay), nil
	})

	for _, name := range reg.List() {
		b, ok := o.overrides[name]
		if !ok {
			var err error
			if b, err = reg.Create(name, nil); err != nil {
				return nil, err
			}
		}
		if name != BackendSimulated3D {
			rc := cfg.resilienceFor(name)
			if name == BackendFal {
				// a retried submission is a second billed job; FalClient
				// retries its own polls instead
				rc.Retry = nil
			}
			b = provider.WithResilience(b, rc)
		}
		wrapped := provider.Chain(
			provider.WithLogging[Request, *Output](log),
			provider.WithTracing[Request, *Output](observability.SpanCapability, requestLabel),
			provider.WithMetrics[Request, *Output](o.metrics, requestLabel),
		)(b)
		reg.Set(name, wrapped)
	}

	log.Info("capability backends ready", logger.Fields(
		"fal", cfg.FalKey != "",
		"gemini", cfg.GeminiKey != "",
		"simulate_3d", cfg.SimulatesThreeD(),
	))
	return &Router{backends: reg, simulate3D: cfg.SimulatesThreeD(), timeout: cfg.Timeout}, nil
}

// Invoke runs req on the backend its id routes to.
func (r *Router) Invoke(ctx context.Context, req Request) (*Output, error) {
	name, req := r.route(req)
	backend, ok := r.backends.Get(name)
	if !ok {
		return nil, apperrors.NotFound("capability backend", name)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := backend.Execute(callCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, apperrors.Timeout(req.ID + " generation").WithCause(err)
		}
		return nil, err
	}
	if out == nil {
		out = &Output{}
	}
	return out, nil
}

// Health reports every backend.
func (r *Router) Health(ctx context.Context) map[string]provider.HealthStatus {
	out := make(map[string]provider.HealthStatus)
	for name, b := range r.backends.Instances() {
		out[name] = provider.CheckHealth(ctx, b)
	}
	return out
}

func (r *Router) route(req Request) (string, Request) {
	switch {
	case isGemini(req.ID):
		return BackendGemini, req
	case is3D(req.ID):
		if r.simulate3D || req.ID == Simulated3DID {
			return BackendSimulated3D, req
		}
		return BackendFal, rodinRequest(req)
	default:
		return BackendFal, req
	}
}
