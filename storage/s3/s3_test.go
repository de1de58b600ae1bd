package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/kbukum/canvasflow/storage"
)

// objectServer is a minimal path-style S3 endpoint for PUT, GET and HEAD.
type objectServer struct {
	mu           sync.Mutex
	objects      map[string]string
	contentTypes map[string]string
}

func (o *objectServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		b, _ := io.ReadAll(r.Body)
		o.objects[r.URL.Path] = string(b)
		o.contentTypes[r.URL.Path] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		body, ok := o.objects[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, body)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStorage(t *testing.T) (*Storage, *objectServer) {
	t.Helper()
	obj := &objectServer{objects: map[string]string{}, contentTypes: map[string]string{}}
	srv := httptest.NewServer(obj)
	t.Cleanup(srv.Close)

	s, err := NewStorage(context.Background(), storage.Config{
		Bucket:    "artifacts",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	return s, obj
}

func TestUpload_PathStyle(t *testing.T) {
	s, obj := newTestStorage(t)
	err := s.Upload(context.Background(), "generated/a.png", strings.NewReader("png"), "")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if got := obj.objects["/artifacts/generated/a.png"]; got != "png" {
		t.Fatalf("expected object body %q, got %q", "png", got)
	}
	if ct := obj.contentTypes["/artifacts/generated/a.png"]; ct != "image/png" {
		t.Fatalf("expected content type from extension, got %q", ct)
	}
}

func TestDownload(t *testing.T) {
	s, obj := newTestStorage(t)
	obj.objects["/artifacts/a.txt"] = "hello"

	rc, err := s.Download(context.Background(), "a.txt")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "hello" {
		t.Fatalf("expected hello, got %q", b)
	}
}

func TestExists(t *testing.T) {
	s, obj := newTestStorage(t)
	obj.objects["/artifacts/a.txt"] = "x"

	ok, err := s.Exists(context.Background(), "a.txt")
	if err != nil || !ok {
		t.Fatalf("expected exists, got %v %v", ok, err)
	}
	ok, err = s.Exists(context.Background(), "missing.txt")
	if err != nil || ok {
		t.Fatalf("expected missing, got %v %v", ok, err)
	}
}

func TestURL(t *testing.T) {
	s, _ := newTestStorage(t)
	u, _ := s.URL(context.Background(), "/generated/a.png")
	if !strings.HasSuffix(u, "/artifacts/generated/a.png") || !strings.HasPrefix(u, "http://127.0.0.1") {
		t.Fatalf("unexpected url %q", u)
	}
}
