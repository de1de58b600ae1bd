package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/canvasflow/artifact"
	"github.com/kbukum/canvasflow/capability"
	"github.com/kbukum/canvasflow/engine"
	"github.com/kbukum/canvasflow/resilience"
	"github.com/kbukum/canvasflow/runs"
	"github.com/kbukum/canvasflow/sse"
	"github.com/kbukum/canvasflow/storage/local"
	"github.com/kbukum/canvasflow/store"
	"github.com/kbukum/canvasflow/workflow"
)

type fakeInvoker struct {
	mu    sync.Mutex
	url   string
	err   error
	calls []capability.Request
}

func (f *fakeInvoker) Invoke(_ context.Context, req capability.Request) (*capability.Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &capability.Output{PrimaryResultURL: f.url}, nil
}

func (f *fakeInvoker) last() capability.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fixture struct {
	router  *gin.Engine
	invoker *fakeInvoker
	store   store.Store
}

func newFixture(t *testing.T, withArtifacts bool) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	inv := &fakeInvoker{url: "https://cdn.example/out.png"}
	st := store.NewMemory()
	exec := engine.New(inv)

	hub := sse.NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	m := runs.NewManager(runs.Config{}, exec, st, runs.WithBroadcaster(hub))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = runs.NewComponent(m).Stop(ctx)
	})

	deps := Deps{Executor: exec, Store: st, Runs: m, Hub: hub, Invoker: inv, GenerateRateLimit: 1000}
	if withArtifacts {
		backend, err := local.NewStorage(t.TempDir())
		if err != nil {
			t.Fatalf("local storage: %v", err)
		}
		deps.Artifacts = artifact.New(backend, resilience.Config{}, artifact.WithPublicURL("/api/artifacts"))
	}

	r := gin.New()
	New(deps).Register(r)
	return &fixture{router: r, invoker: inv, store: st}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func textNode(id, text string) map[string]any {
	return map[string]any{"id": id, "type": "textInput", "data": map[string]any{"result": text}}
}

func imageNode(id string) map[string]any {
	return map[string]any{"id": id, "type": "textToImage", "data": map[string]any{}}
}

func edge(source, target, handle string) map[string]any {
	return map[string]any{"id": source + "-" + target, "source": source, "target": target, "targetHandle": handle}
}

func catGraph() map[string]any {
	return map[string]any{
		"nodes": []any{textNode("t1", "a cat"), imageNode("i1")},
		"edges": []any{edge("t1", "i1", "prompt")},
	}
}

// --- execute / plan ---

func TestExecute(t *testing.T) {
	f := newFixture(t, false)

	rec, body := f.do(t, http.MethodPost, "/api/workflows/execute", catGraph())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["success"] != true {
		t.Fatalf("expected success, got %v", body)
	}
	results := body["results"].(map[string]any)
	if results["i1"] != "https://cdn.example/out.png" {
		t.Fatalf("expected image url result, got %v", results["i1"])
	}
}

func TestExecute_NodeFailureIsStill200(t *testing.T) {
	f := newFixture(t, false)

	rec, body := f.do(t, http.MethodPost, "/api/workflows/execute", map[string]any{
		"nodes": []any{imageNode("i1")},
		"edges": []any{},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["success"] != false {
		t.Fatalf("expected failure, got %v", body)
	}
	if _, ok := body["errors"].(map[string]any)["i1"]; !ok {
		t.Fatalf("expected error for i1, got %v", body["errors"])
	}
}

func TestExecute_BadBody(t *testing.T) {
	f := newFixture(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/workflows/execute", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPlan(t *testing.T) {
	f := newFixture(t, false)

	rec, body := f.do(t, http.MethodPost, "/api/workflows/plan", catGraph())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	order := body["order"].([]any)
	if len(order) != 2 || order[0] != "t1" || order[1] != "i1" {
		t.Fatalf("expected [t1 i1], got %v", order)
	}
	inputs, _ := body["inputs"].(map[string]any)
	refs, _ := inputs["i1"].([]any)
	if len(refs) != 1 || refs[0].(map[string]any)["source"] != "t1" {
		t.Fatalf("expected i1 fed by t1, got %v", body["inputs"])
	}

	rec, _ = f.do(t, http.MethodPost, "/api/workflows/plan", map[string]any{
		"nodes": []any{textNode("a", "x"), textNode("b", "y")},
		"edges": []any{edge("a", "b", "text"), edge("b", "a", "text")},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a cycle, got %d", rec.Code)
	}
}

func TestNodeTypes(t *testing.T) {
	f := newFixture(t, false)
	rec, body := f.do(t, http.MethodGet, "/api/node-types", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if n := len(body["data"].([]any)); n != len(workflow.AllNodeTypes) {
		t.Fatalf("expected %d templates, got %d", len(workflow.AllNodeTypes), n)
	}
}

// --- workflows ---

func TestWorkflowCRUD(t *testing.T) {
	f := newFixture(t, false)

	doc := catGraph()
	doc["title"] = "Cats"
	rec, body := f.do(t, http.MethodPost, "/api/workflows", doc)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	id := body["data"].(map[string]any)["id"].(string)

	doc["title"] = "More cats"
	rec, body = f.do(t, http.MethodPut, "/api/workflows/"+id, doc)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if v := body["data"].(map[string]any)["version"]; v != float64(2) {
		t.Fatalf("expected version 2, got %v", v)
	}

	rec, body = f.do(t, http.MethodGet, "/api/workflows", nil)
	if rec.Code != http.StatusOK || body["meta"].(map[string]any)["total"] != float64(1) {
		t.Fatalf("expected one workflow, got %d %v", rec.Code, body)
	}

	rec, body = f.do(t, http.MethodGet, "/api/workflows/"+id+"/versions", nil)
	if rec.Code != http.StatusOK || len(body["data"].([]any)) != 2 {
		t.Fatalf("expected two versions, got %d %v", rec.Code, body)
	}

	rec, body = f.do(t, http.MethodGet, "/api/workflows/"+id+"/versions/1", nil)
	if rec.Code != http.StatusOK || body["data"].(map[string]any)["title"] != "Cats" {
		t.Fatalf("expected version 1 titled Cats, got %d %v", rec.Code, body)
	}

	if rec, _ = f.do(t, http.MethodGet, "/api/workflows/"+id+"/versions/zero", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad version, got %d", rec.Code)
	}

	rec, body = f.do(t, http.MethodGet, "/api/workflows/"+id+"/executions", nil)
	if rec.Code != http.StatusOK || len(body["data"].([]any)) != 0 {
		t.Fatalf("expected no executions, got %d %v", rec.Code, body)
	}

	if rec, _ = f.do(t, http.MethodDelete, "/api/workflows/"+id, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec, _ = f.do(t, http.MethodGet, "/api/workflows/"+id, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestCreateWorkflow_Invalid(t *testing.T) {
	f := newFixture(t, false)
	rec, body := f.do(t, http.MethodPost, "/api/workflows", catGraph())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a title, got %d", rec.Code)
	}
	if body["error"].(map[string]any)["code"] != "INVALID_INPUT" {
		t.Fatalf("expected INVALID_INPUT, got %v", body["error"])
	}
}

// --- runs ---

func waitForRun(t *testing.T, f *fixture, runID string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec, body := f.do(t, http.MethodGet, "/api/runs/"+runID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if s := body["status"]; s == "complete" || s == "failed" {
			return body
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s did not finish", runID)
	return nil
}

func TestRuns_StartAndStream(t *testing.T) {
	f := newFixture(t, false)

	rec, body := f.do(t, http.MethodPost, "/api/runs", catGraph())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	runID := body["runId"].(string)

	run := waitForRun(t, f, runID)
	if run["status"] != "complete" {
		t.Fatalf("expected complete, got %v", run["status"])
	}

	srv := httptest.NewServer(f.router)
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/api/runs/" + runID + "/events")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer resp.Body.Close()
	stream, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if !strings.Contains(string(stream), "event: connected") || !strings.Contains(string(stream), "event: run.finished") {
		t.Fatalf("expected connected and run.finished events, got %s", stream)
	}
}

func TestRuns_BySavedWorkflow(t *testing.T) {
	f := newFixture(t, false)

	var doc workflow.Document
	raw, _ := json.Marshal(catGraph())
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	doc.Title = "Saved"
	wf, err := f.store.Create(context.Background(), doc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec, body := f.do(t, http.MethodPost, "/api/runs", map[string]any{"workflowId": wf.ID})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	run := waitForRun(t, f, body["runId"].(string))
	if run["workflowId"] != wf.ID {
		t.Fatalf("expected workflow %s, got %v", wf.ID, run["workflowId"])
	}

	rec, body = f.do(t, http.MethodGet, "/api/workflows/"+wf.ID+"/executions", nil)
	if rec.Code != http.StatusOK || len(body["data"].([]any)) != 1 {
		t.Fatalf("expected one execution, got %d %v", rec.Code, body)
	}
}

func TestRuns_Missing(t *testing.T) {
	f := newFixture(t, false)
	if rec, _ := f.do(t, http.MethodGet, "/api/runs/nope", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec, _ := f.do(t, http.MethodGet, "/api/runs/nope/events", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for events, got %d", rec.Code)
	}
	if rec, _ := f.do(t, http.MethodPost, "/api/runs", map[string]any{"workflowId": "nope"}); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown workflow, got %d", rec.Code)
	}
}

// --- generate ---

func TestGenerate(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		body      map[string]any
		url       string
		err       error
		wantCode  int
		wantKey   string
		wantValue string
	}{
		{"image ok", "/api/generate/text-to-image", map[string]any{"prompt": "a cat"}, "https://x/a.png", nil, 200, "imageUrl", "https://x/a.png"},
		{"image no prompt", "/api/generate/text-to-image", map[string]any{"prompt": " "}, "", nil, 400, "error", "Prompt is required"},
		{"image no url", "/api/generate/text-to-image", map[string]any{"prompt": "a cat"}, "", nil, 500, "error", "No image URL in response"},
		{"image upstream error", "/api/generate/text-to-image", map[string]any{"prompt": "a cat"}, "", errors.New("quota exceeded"), 500, "error", "quota exceeded"},
		{"i2v ok", "/api/generate/image-to-video", map[string]any{"imageUrl": "https://x/a.png"}, "https://x/a.mp4", nil, 200, "videoUrl", "https://x/a.mp4"},
		{"i2v no image", "/api/generate/image-to-video", map[string]any{"prompt": "go"}, "", nil, 400, "error", "Image URL is required"},
		{"i2v no url", "/api/generate/image-to-video", map[string]any{"imageUrl": "https://x/a.png"}, "", nil, 500, "error", "No video URL in response"},
		{"t2v ok", "/api/generate/text-to-video", map[string]any{"prompt": "waves", "duration": 10}, "https://x/w.mp4", nil, 200, "videoUrl", "https://x/w.mp4"},
		{"t2v no prompt", "/api/generate/text-to-video", map[string]any{}, "", nil, 400, "error", "Prompt is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			f.invoker.url, f.invoker.err = tt.url, tt.err

			rec, body := f.do(t, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if body[tt.wantKey] != tt.wantValue {
				t.Fatalf("expected %s=%q, got %v", tt.wantKey, tt.wantValue, body)
			}
			if tt.wantCode == 200 && body["success"] != true {
				t.Fatalf("expected success flag, got %v", body)
			}
		})
	}
}

func TestGenerate_Defaults(t *testing.T) {
	f := newFixture(t, false)

	f.do(t, http.MethodPost, "/api/generate/text-to-image", map[string]any{"prompt": "a cat"})
	req := f.invoker.last()
	size := req.Input["image_size"].(map[string]any)
	if req.ID != "fal-ai/flux-pro" || size["width"] != 1024 || req.Input["num_inference_steps"] != 30 {
		t.Fatalf("unexpected image request %+v", req)
	}

	f.do(t, http.MethodPost, "/api/generate/text-to-video", map[string]any{"prompt": "waves", "duration": 10})
	req = f.invoker.last()
	if req.ID != "fal-ai/minimax-video" || req.Input["duration"] != 10 {
		t.Fatalf("unexpected video request %+v", req)
	}

	f.do(t, http.MethodPost, "/api/generate/image-to-video", map[string]any{"imageUrl": "https://x/a.png"})
	req = f.invoker.last()
	if req.ID != "fal-ai/minimax-video/image-to-video" || req.Input["image_url"] != "https://x/a.png" {
		t.Fatalf("unexpected video request %+v", req)
	}
}

// --- uploads / artifacts ---

func multipartBody(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(uploadField, filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write(data)
	_ = w.Close()
	return &buf, w.FormDataContentType()
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestUploadAndServe(t *testing.T) {
	f := newFixture(t, true)

	body, ct := multipartBody(t, "cat.png", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var out map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if !strings.HasPrefix(out["url"], "/api/artifacts/uploads/") || !strings.HasSuffix(out["url"], ".png") {
		t.Fatalf("unexpected url %q", out["url"])
	}

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, out["url"], http.NoBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "image/png" || !bytes.Equal(rec.Body.Bytes(), pngHeader) {
		t.Fatalf("unexpected artifact %q %q", rec.Header().Get("Content-Type"), rec.Body.Bytes())
	}
}

func TestUpload_Rejections(t *testing.T) {
	f := newFixture(t, true)

	body, ct := multipartBody(t, "notes.txt", []byte("plain text"))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-image, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/uploads", http.NoBody))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a file, got %d", rec.Code)
	}

	if rec, _ := f.do(t, http.MethodGet, "/api/artifacts/uploads/missing.png", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUpload_NoStorage(t *testing.T) {
	f := newFixture(t, false)
	if rec, _ := f.do(t, http.MethodPost, "/api/uploads", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
