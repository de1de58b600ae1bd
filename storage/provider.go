package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/kbukum/canvasflow/provider"
)

// UploadRequest is one object write.
type UploadRequest struct {
	Path        string
	ContentType string
	Body        io.ReadSeeker
}

// UploadProvider exposes Storage.Upload as a provider so writes can take
// the resilience and logging middleware. Bodies are rewound before each
// attempt, so retries resend the full object.
type UploadProvider struct {
	name    string
	storage Storage
}

var _ provider.RequestResponse[UploadRequest, struct{}] = (*UploadProvider)(nil)

// NewUploadProvider wraps s.
func NewUploadProvider(name string, s Storage) *UploadProvider {
	return &UploadProvider{name: name, storage: s}
}

func (p *UploadProvider) Name() string                       { return p.name }
func (p *UploadProvider) IsAvailable(_ context.Context) bool { return p.storage != nil }

func (p *UploadProvider) Execute(ctx context.Context, req UploadRequest) (struct{}, error) {
	if _, err := req.Body.Seek(0, io.SeekStart); err != nil {
		return struct{}{}, fmt.Errorf("storage upload rewind: %w", err)
	}
	if err := p.storage.Upload(ctx, req.Path, req.Body, req.ContentType); err != nil {
		return struct{}{}, fmt.Errorf("storage upload: %w", err)
	}
	return struct{}{}, nil
}
