package provider

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/resilience"
)

// Policies holds the primitives built from a resilience.Config.
type Policies struct {
	breaker  *resilience.CircuitBreaker
	limiter  *resilience.RateLimiter
	bulkhead *resilience.Bulkhead
	retry    *resilience.RetryConfig
}

// BuildPolicies builds the configured primitives. It returns nil for an
// empty config, which Execute treats as a passthrough.
func BuildPolicies(name string, cfg resilience.Config) *Policies {
	if cfg.IsEmpty() {
		return nil
	}
	cfg.ApplyDefaults(name)
	p := &Policies{retry: cfg.Retry}
	if cfg.CircuitBreaker != nil {
		cbCfg := *cfg.CircuitBreaker
		if cbCfg.IsFailure == nil {
			cbCfg.IsFailure = countsAgainstCircuit
		}
		p.breaker = resilience.NewCircuitBreaker(cbCfg)
	}
	if cfg.RateLimiter != nil {
		p.limiter = resilience.NewRateLimiter(*cfg.RateLimiter)
	}
	if cfg.Bulkhead != nil {
		p.bulkhead = resilience.NewBulkhead(*cfg.Bulkhead)
	}
	return p
}

// Breaker returns the circuit breaker, if configured.
func (p *Policies) Breaker() *resilience.CircuitBreaker {
	if p == nil {
		return nil
	}
	return p.breaker
}

// WithResilience wraps p with the configured policies.
func WithResilience[I, O any](p RequestResponse[I, O], cfg resilience.Config) RequestResponse[I, O] {
	policies := BuildPolicies(p.Name(), cfg)
	if policies == nil {
		return p
	}
	return &resilientRR[I, O]{inner: p, policies: policies}
}

// WithSinkResilience wraps a sink with the configured policies.
func WithSinkResilience[I any](s Sink[I], cfg resilience.Config) Sink[I] {
	policies := BuildPolicies(s.Name(), cfg)
	if policies == nil {
		return s
	}
	return &resilientSink[I]{inner: s, policies: policies}
}

type resilientRR[I, O any] struct {
	inner    RequestResponse[I, O]
	policies *Policies
}

func (r *resilientRR[I, O]) Name() string { return r.inner.Name() }

// IsAvailable is false while the circuit is open.
func (r *resilientRR[I, O]) IsAvailable(ctx context.Context) bool {
	if cb := r.policies.Breaker(); cb != nil && cb.State() == resilience.StateOpen {
		return false
	}
	return r.inner.IsAvailable(ctx)
}

func (r *resilientRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return Execute(ctx, r.policies, func() (O, error) {
		return r.inner.Execute(ctx, input)
	})
}

type resilientSink[I any] struct {
	inner    Sink[I]
	policies *Policies
}

func (r *resilientSink[I]) Name() string                         { return r.inner.Name() }
func (r *resilientSink[I]) IsAvailable(ctx context.Context) bool { return r.inner.IsAvailable(ctx) }

func (r *resilientSink[I]) Send(ctx context.Context, input I) error {
	_, err := Execute(ctx, r.policies, func() (struct{}, error) {
		return struct{}{}, r.inner.Send(ctx, input)
	})
	return err
}

// Execute runs fn through RateLimiter -> Bulkhead -> CircuitBreaker ->
// Retry. Policy rejections come back as AppErrors.
func Execute[T any](ctx context.Context, p *Policies, fn func() (T, error)) (T, error) {
	if p == nil {
		return fn()
	}
	var zero T

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return zero, policyError(err)
		}
	}

	call := fn
	if p.retry != nil {
		cfg := *p.retry
		call = func() (T, error) { return resilience.Retry(ctx, cfg, fn) }
	}

	if p.breaker != nil {
		inner := call
		call = func() (T, error) {
			var result T
			var callErr error
			err := p.breaker.Execute(func() error {
				result, callErr = inner()
				return callErr
			})
			if err != nil && callErr == nil {
				return result, policyError(err)
			}
			return result, callErr
		}
	}

	if p.bulkhead != nil {
		result, err := resilience.ExecuteWithResult(ctx, p.bulkhead, call)
		if err != nil {
			return result, policyError(err)
		}
		return result, nil
	}
	return call()
}

// countsAgainstCircuit ignores caller mistakes and cancellations; only
// upstream trouble should trip the breaker.
func countsAgainstCircuit(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Retryable || appErr.HTTPStatus >= 500
	}
	return true
}

func policyError(err error) error {
	if err == nil || apperrors.IsAppError(err) {
		return err
	}
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.ServiceUnavailable("provider").WithCause(err)
	case errors.Is(err, resilience.ErrRateLimited):
		return apperrors.RateLimited().WithCause(err)
	case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrBulkheadTimeout):
		return apperrors.ServiceUnavailable("provider").
			WithCause(err).
			WithDetail("reason", "concurrency limit reached")
	case errors.Is(err, context.Canceled):
		return apperrors.Timeout("request canceled").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("deadline exceeded").WithCause(err)
	default:
		return err
	}
}
