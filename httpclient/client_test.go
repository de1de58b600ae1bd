package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/kbukum/canvasflow/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc, auth *AuthConfig) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{Name: "fal", BaseURL: srv.URL + "/", Auth: auth})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

// --- Requests ---

func TestDoJSON_SendsBodyAndAuth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fal-ai/flux-pro" {
			t.Errorf("expected joined path, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Key secret" {
			t.Errorf("expected Key auth, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected json content type, got %q", got)
		}
		_, _ = w.Write([]byte(`{"request_id":"r1"}`))
	}, SchemeAuth("Key", "secret"))

	var out struct {
		RequestID string `json:"request_id"`
	}
	err := c.DoJSON(context.Background(), Request{Method: http.MethodPost, Path: "/fal-ai/flux-pro", Body: map[string]any{"prompt": "a cat"}}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.RequestID != "r1" {
		t.Fatalf("expected r1, got %q", out.RequestID)
	}
}

func TestDo_QueryAuth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "g-key" || r.URL.Query().Get("alt") != "json" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusNoContent)
	}, nil)
	_, err := c.Do(context.Background(), Request{Path: "models", Query: map[string]string{"alt": "json"}, Auth: QueryAuth("key", "g-key")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDoJSON_RepairsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "COMPLETED",}`))
	}, nil)
	var out map[string]any
	if err := c.DoJSON(context.Background(), Request{Path: "status"}, &out); err != nil {
		t.Fatalf("expected repaired body to decode, got %v", err)
	}
	if out["status"] != "COMPLETED" {
		t.Fatalf("expected COMPLETED, got %v", out)
	}
}

// --- Errors ---

func TestDo_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		code      apperrors.ErrorCode
		message   string
		retryable bool
	}{
		{"detail string", 422, `{"detail":"prompt too long"}`, apperrors.ErrCodeInvalidInput, "prompt too long", false},
		{"detail list", 400, `{"detail":[{"msg":"bad size"},{"msg":"bad steps"}]}`, apperrors.ErrCodeInvalidInput, "bad size; bad steps", false},
		{"nested error", 500, `{"error":{"message":"overloaded"}}`, apperrors.ErrCodeExternalService, "overloaded", true},
		{"rate limited", 429, ``, apperrors.ErrCodeRateLimited, "fal returned HTTP 429", true},
		{"plain text", 503, `upstream down`, apperrors.ErrCodeExternalService, "upstream down", true},
		{"html", 502, `<html>bad gateway</html>`, apperrors.ErrCodeExternalService, "fal returned HTTP 502", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, nil)
			resp, err := c.Do(context.Background(), Request{Path: "x"})
			appErr, ok := apperrors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != tt.code || appErr.Message != tt.message || appErr.Retryable != tt.retryable {
				t.Fatalf("expected %s %q retryable=%v, got %s %q retryable=%v",
					tt.code, tt.message, tt.retryable, appErr.Code, appErr.Message, appErr.Retryable)
			}
			if resp == nil || resp.StatusCode != tt.status {
				t.Fatalf("expected response with status %d", tt.status)
			}
		})
	}
}

func TestDo_ConnectionFailure(t *testing.T) {
	c, _ := New(Config{Name: "gemini", BaseURL: "http://127.0.0.1:1"})
	_, err := c.Do(context.Background(), Request{Path: "x"})
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeConnectionFailed {
		t.Fatalf("expected CONNECTION_FAILED, got %v", err)
	}
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Timeout != defaultTimeout || cfg.Name != "http" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := (&Config{}).Validate(); err == nil {
		t.Fatal("expected zero timeout to be invalid")
	}
}
