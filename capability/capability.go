// Package capability invokes the external generation services behind the
// AI node types. Every service is reached through the same contract: a
// capability id (usually the upstream endpoint) plus a structured input
// yields an Output whose PrimaryResultURL points at the generated asset.
package capability

import (
	"context"

	"github.com/kbukum/canvasflow/provider"
)

// Request names a capability and carries its input.
type Request struct {
	ID    string         `json:"id"`
	Input map[string]any `json:"input"`
}

// Output is a completed invocation. An empty PrimaryResultURL means the
// capability finished without producing anything usable.
type Output struct {
	PrimaryResultURL string         `json:"primaryResultUrl,omitempty"`
	Raw              map[string]any `json:"raw,omitempty"`
}

// Invoker runs capabilities.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Output, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, req Request) (*Output, error)

func (f InvokerFunc) Invoke(ctx context.Context, req Request) (*Output, error) {
	return f(ctx, req)
}

// Backend is a provider that serves a family of capabilities.
type Backend = provider.RequestResponse[Request, *Output]

// ArtifactSaver stores generated bytes and returns a URL for them.
type ArtifactSaver interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}

func requestLabel(req Request) string { return req.ID }
