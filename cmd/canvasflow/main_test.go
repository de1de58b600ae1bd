package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// testConfig keeps the run command away from any config.yml near the test.
func testConfig(t *testing.T, dir string) []string {
	t.Helper()
	cfg := writeFile(t, dir, "config.yml", "name: canvasflow\nenvironment: development\nlogging:\n  level: error\n")
	return []string{"-config", cfg, "-env", filepath.Join(dir, "missing.env")}
}

func exitCode(err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	if err != nil {
		return 1
	}
	return 0
}

// --- commands ---

func TestRun_Commands(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"no args", nil, 2, ""},
		{"unknown", []string{"deploy"}, 2, ""},
		{"help", []string{"help"}, 0, "Commands:"},
		{"version", []string{"version"}, 0, "dev"},
		{"run help", []string{"run", "-h"}, 0, ""},
		{"run without file", []string{"run"}, 2, ""},
		{"serve bad flag", []string{"serve", "-port", "1"}, 2, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, &stdout, &stderr)
			if got := exitCode(err); got != tt.wantCode {
				t.Fatalf("expected exit %d, got %d (%v)", tt.wantCode, got, err)
			}
			if tt.wantOut != "" && !strings.Contains(stdout.String(), tt.wantOut) {
				t.Fatalf("expected stdout to contain %q, got %q", tt.wantOut, stdout.String())
			}
		})
	}
}

// --- run ---

func TestRunWorkflow_Success(t *testing.T) {
	dir := t.TempDir()
	wf := writeFile(t, dir, "flow.json", `{
		"title": "Greeting",
		"nodes": [{"id": "t1", "type": "textInput", "data": {"result": "hello"}}],
		"edges": []
	}`)

	var stdout, stderr bytes.Buffer
	args := append([]string{"run"}, append(testConfig(t, dir), wf)...)
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v (%s)", err, stderr.String())
	}

	var res struct {
		Success bool              `json:"success"`
		Results map[string]any    `json:"results"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		t.Fatalf("decode %q: %v", stdout.String(), err)
	}
	if !res.Success || res.Results["t1"] != "hello" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRunWorkflow_FailureExitsOne(t *testing.T) {
	dir := t.TempDir()
	wf := writeFile(t, dir, "flow.yaml", `title: Broken
nodes:
  - id: img
    type: textToImage
    data: {}
edges: []
`)

	var stdout, stderr bytes.Buffer
	args := append([]string{"run"}, append(testConfig(t, dir), wf)...)
	err := run(context.Background(), args, &stdout, &stderr)
	if exitCode(err) != 1 {
		t.Fatalf("expected exit 1, got %v", err)
	}
	if !strings.Contains(stdout.String(), `"success": false`) {
		t.Fatalf("expected the failed result to be printed, got %q", stdout.String())
	}
}

func TestRunWorkflow_MissingFile(t *testing.T) {
	dir := t.TempDir()
	args := append([]string{"run"}, append(testConfig(t, dir), filepath.Join(dir, "nope.json"))...)
	if err := run(context.Background(), args, &bytes.Buffer{}, &bytes.Buffer{}); exitCode(err) != 1 {
		t.Fatalf("expected a plain error, got %v", err)
	}
}
