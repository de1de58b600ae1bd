package provider

import "context"

// Provider is the base interface every backend implements.
type Provider interface {
	Name() string
	// IsAvailable reports whether the backend can take requests,
	// e.g. whether its credentials are configured.
	IsAvailable(ctx context.Context) bool
}

// Factory creates a provider from a loosely typed config section.
type Factory[T Provider] func(cfg map[string]any) (T, error)

// Labeler derives a metric/span label from a request, such as the
// generation endpoint a request is routed to.
type Labeler[I any] func(I) string

func labelOf[I any](label Labeler[I], name string, input I) string {
	if label == nil {
		return name
	}
	if l := label(input); l != "" {
		return l
	}
	return name
}
