// Package artifact stores user uploads and generated media on the
// configured storage backend and hands out URLs for them.
package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/logger"
	"github.com/kbukum/canvasflow/provider"
	"github.com/kbukum/canvasflow/resilience"
	"github.com/kbukum/canvasflow/storage"
)

// Path prefixes for stored objects.
const (
	PrefixUploads   = "uploads"
	PrefixGenerated = "generated"
)

// Store writes artifacts through a resilient upload provider.
type Store struct {
	storage   storage.Storage
	uploads   provider.RequestResponse[storage.UploadRequest, struct{}]
	publicURL string
	maxSize   int64
	log       *logger.Logger
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPublicURL makes URL return publicURL + "/" + path instead of the
// backend URL.
func WithPublicURL(publicURL string) Option {
	return func(s *Store) { s.publicURL = strings.TrimSuffix(publicURL, "/") }
}

// WithMaxUploadSize bounds SaveUpload.
func WithMaxUploadSize(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// New wraps backend. Writes are retried and guarded by a circuit breaker
// using resCfg; an empty config means resilience.DefaultConfig.
func New(backend storage.Storage, resCfg resilience.Config, opts ...Option) *Store {
	s := &Store{
		storage: backend,
		maxSize: storage.DefaultMaxFileSize,
		log:     logger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("artifact")

	if resCfg.IsEmpty() {
		resCfg = resilience.DefaultConfig("artifact-upload")
	}
	var up provider.RequestResponse[storage.UploadRequest, struct{}] = storage.NewUploadProvider("artifact-upload", backend)
	up = provider.WithLogging[storage.UploadRequest, struct{}](s.log)(up)
	s.uploads = provider.WithResilience(up, resCfg)
	return s
}

// Save stores generated bytes under name and returns their URL.
func (s *Store) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := s.put(ctx, name, contentType, data); err != nil {
		return "", err
	}
	return s.URL(ctx, name)
}

// SaveUpload stores a user-supplied image. The content type is sniffed
// when the client did not send one; anything other than image/* is
// rejected, as is a body larger than the configured limit.
func (s *Store) SaveUpload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return "", apperrors.InvalidInput("file", "could not read upload").WithCause(err)
	}
	if int64(len(data)) > s.maxSize {
		return "", apperrors.New(apperrors.ErrCodeInvalidInput,
			fmt.Sprintf("File exceeds the %d byte limit", s.maxSize), http.StatusRequestEntityTooLarge).
			WithDetail("field", "file")
	}
	if len(data) == 0 {
		return "", apperrors.InvalidInput("file", "file is empty")
	}

	if ct, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = ct
	} else {
		contentType = ""
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperrors.InvalidInput("file", "only image uploads are supported")
	}

	name := s.objectName(PrefixUploads, extension(filename, contentType))
	if err := s.put(ctx, name, contentType, data); err != nil {
		return "", err
	}
	s.log.Info("upload stored", logger.Fields("path", name, "size", len(data)))
	return s.URL(ctx, name)
}

// Open streams a stored artifact. The content type is derived from the
// path extension.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	rc, err := s.storage.Download(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", apperrors.NotFound("artifact", name)
		}
		return nil, "", apperrors.ExternalServiceError("storage", err)
	}
	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return rc, ct, nil
}

// URL returns where clients fetch name.
func (s *Store) URL(ctx context.Context, name string) (string, error) {
	if s.publicURL != "" {
		return s.publicURL + "/" + strings.TrimPrefix(name, "/"), nil
	}
	u, err := s.storage.URL(ctx, name)
	if err != nil {
		return "", apperrors.ExternalServiceError("storage", err)
	}
	return u, nil
}

func (s *Store) put(ctx context.Context, name, contentType string, data []byte) error {
	_, err := s.uploads.Execute(ctx, storage.UploadRequest{
		Path:        name,
		ContentType: contentType,
		Body:        bytes.NewReader(data),
	})
	if err != nil {
		if _, ok := apperrors.AsAppError(err); ok {
			return err
		}
		return apperrors.ExternalServiceError("storage", err)
	}
	return nil
}

func (s *Store) objectName(prefix, ext string) string {
	return fmt.Sprintf("%s/%s-%s%s", prefix, s.now().UTC().Format("20060102"), uuid.NewString(), ext)
}

// extension prefers the client's file extension when it matches the
// content type.
func extension(filename, contentType string) string {
	if ext := strings.ToLower(path.Ext(filename)); ext != "" {
		if ct := mime.TypeByExtension(ext); strings.HasPrefix(ct, contentType) {
			return ext
		}
	}
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
