package provider

import (
	"context"
	"time"

	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/logger"
	"github.com/kbukum/canvasflow/observability"
)

// Middleware wraps a RequestResponse provider.
type Middleware[I, O any] func(RequestResponse[I, O]) RequestResponse[I, O]

// Chain composes middlewares; the first one is outermost.
// Chain(a, b, c)(p) == a(b(c(p))).
func Chain[I, O any](middlewares ...Middleware[I, O]) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		for i := len(middlewares) - 1; i >= 0; i-- {
			if middlewares[i] != nil {
				inner = middlewares[i](inner)
			}
		}
		return inner
	}
}

// Interceptor runs around one Execute call. next is the wrapped provider's
// Execute.
type Interceptor[I, O any] func(ctx context.Context, name string, input I, next func(context.Context, I) (O, error)) (O, error)

// Intercept turns an Interceptor into a Middleware. Name and IsAvailable
// pass straight through.
func Intercept[I, O any](fn Interceptor[I, O]) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &intercepted[I, O]{RequestResponse: inner, fn: fn}
	}
}

type intercepted[I, O any] struct {
	RequestResponse[I, O]
	fn Interceptor[I, O]
}

func (p *intercepted[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return p.fn(ctx, p.RequestResponse.Name(), input, p.RequestResponse.Execute)
}

// WithLogging logs each call with its duration: failures at error level,
// successes at debug.
func WithLogging[I, O any](log *logger.Logger) Middleware[I, O] {
	return Intercept(func(ctx context.Context, name string, input I, next func(context.Context, I) (O, error)) (O, error) {
		start := time.Now()
		out, err := next(ctx, input)
		fields := logger.DurationFields("execute", time.Since(start))
		fields["provider"] = name
		if err != nil {
			fields[logger.FieldError] = apperrors.Message(err)
			log.WithContext(ctx).Error("provider execute failed", fields)
		} else {
			log.WithContext(ctx).Debug("provider execute ok", fields)
		}
		return out, err
	})
}

// WithTracing opens spanName around each call, tagged with the request
// label and provider name.
func WithTracing[I, O any](spanName string, label Labeler[I]) Middleware[I, O] {
	return Intercept(func(ctx context.Context, name string, input I, next func(context.Context, I) (O, error)) (O, error) {
		ctx, span := observability.StartSpan(ctx, spanName)
		defer span.End()
		observability.SetSpanAttribute(ctx, observability.AttrCapability, labelOf(label, name, input))
		observability.SetSpanAttribute(ctx, "provider", name)
		out, err := next(ctx, input)
		if err != nil {
			observability.SetSpanError(ctx, err)
		}
		return out, err
	})
}

// WithMetrics feeds the capability counter and duration histogram. A nil
// metrics set returns the provider unwrapped.
func WithMetrics[I, O any](metrics *observability.Metrics, label Labeler[I]) Middleware[I, O] {
	if metrics == nil {
		return func(inner RequestResponse[I, O]) RequestResponse[I, O] { return inner }
	}
	return Intercept(func(ctx context.Context, name string, input I, next func(context.Context, I) (O, error)) (O, error) {
		start := time.Now()
		out, err := next(ctx, input)
		status := "ok"
		if err != nil {
			status = "error"
			metrics.RecordError(ctx, "execute", name)
		}
		metrics.RecordCapability(ctx, labelOf(label, name, input), status, time.Since(start))
		return out, err
	})
}
