package provider

import "context"

// Status is the health of a provider.
type Status int

const (
	StatusHealthy Status = iota
	StatusDegraded
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// HealthStatus is a provider health report.
type HealthStatus struct {
	Status  Status         `json:"-"`
	State   string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthChecker is implemented by providers that report more than
// IsAvailable.
type HealthChecker interface {
	Health(ctx context.Context) HealthStatus
}

// CheckHealth returns p's detailed health when it has one, otherwise a
// report derived from IsAvailable.
func CheckHealth(ctx context.Context, p Provider) HealthStatus {
	if hc, ok := p.(HealthChecker); ok {
		h := hc.Health(ctx)
		h.State = h.Status.String()
		return h
	}
	if p.IsAvailable(ctx) {
		return HealthStatus{Status: StatusHealthy, State: StatusHealthy.String()}
	}
	return HealthStatus{Status: StatusUnavailable, State: StatusUnavailable.String(), Message: p.Name() + " is not configured"}
}
