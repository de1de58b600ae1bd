package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/canvasflow/component"
	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := New(Config{}, logger.Nop())
	s.ApplyDefaults("canvasflow", func(context.Context) []component.Health {
		return []component.Health{{Name: "store", Status: component.StatusHealthy}}
	})
	return s
}

// --- config ---

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Port != 8080 {
		t.Fatalf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.MaxBodySize != "25MB" {
		t.Fatalf("expected 25MB, got %s", cfg.MaxBodySize)
	}
	if cfg.GenerateRateLimit != 60 {
		t.Fatalf("expected rate limit 60, got %d", cfg.GenerateRateLimit)
	}
	if cfg.Addr() != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.Addr())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"port too high", Config{Port: 70000}},
		{"negative read timeout", Config{Port: 80, ReadTimeout: -1}},
		{"negative rate limit", Config{Port: 80, GenerateRateLimit: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

// --- handler ---

func TestServer_DefaultEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/readiness", "/alive", "/version"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if rec.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: expected request id header", path)
		}
	}
}

func TestServer_HandleMountsNextToGin(t *testing.T) {
	s := newTestServer(t)
	s.Handle("/raw/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/raw/x", http.NoBody))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
}

func TestServer_RecoversPanics(t *testing.T) {
	s := newTestServer(t)
	s.GinEngine().GET("/boom", func(*gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

// --- responses ---

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"app error", apperrors.NotFound("workflow", "wf-1"), http.StatusNotFound, string(apperrors.ErrCodeNotFound)},
		{"plain error", errors.New("disk on fire"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			RespondWithError(c, tt.err)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			var body apperrors.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("expected JSON, got %q", rec.Body.String())
			}
			if tt.wantErr != "" && string(body.Error.Code) != tt.wantErr {
				t.Fatalf("expected code %s, got %s", tt.wantErr, body.Error.Code)
			}
			if body.Error.Message == "" {
				t.Fatal("expected message")
			}
		})
	}
}

func TestRespondList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondList(c, []string{"a", "b"})

	var body struct {
		Data []string `json:"data"`
		Meta Meta     `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON, got %q", rec.Body.String())
	}
	if len(body.Data) != 2 || body.Meta.Total != 2 {
		t.Fatalf("expected 2 items, got %+v", body)
	}
}

// --- component ---

func TestComponent_RoutesAndHealth(t *testing.T) {
	s := newTestServer(t)
	s.GinEngine().POST("/api/runs", func(*gin.Context) {})
	s.GinEngine().GET("/api/runs/:id", func(*gin.Context) {})
	c := NewComponent(s)

	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Fatalf("expected unhealthy before start, got %s", h.Status)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("expected stop before start to be a no-op, got %v", err)
	}

	routes := c.Routes()
	if len(routes) != 6 {
		t.Fatalf("expected 6 routes, got %d", len(routes))
	}
	if routes[0].Path != "/api/runs" || routes[1].Path != "/api/runs/:id" {
		t.Fatalf("expected API routes first, got %s, %s", routes[0].Path, routes[1].Path)
	}
	if !probePaths[routes[len(routes)-1].Path] {
		t.Fatalf("expected probes last, got %s", routes[len(routes)-1].Path)
	}
}

func TestHandlerName(t *testing.T) {
	tests := map[string]string{
		"github.com/kbukum/canvasflow/server/api.(*API).getRun-fm": "api.getRun",
		"github.com/kbukum/canvasflow/server/endpoint.Health.func1": "endpoint.func1",
		"main.index": "main.index",
	}
	for in, want := range tests {
		if got := handlerName(in); got != want {
			t.Fatalf("handlerName(%q): expected %s, got %s", in, want, got)
		}
	}
}
